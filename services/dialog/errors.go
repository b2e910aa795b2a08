// File: services/dialog/errors.go
package dialog

import (
	"errors"
	"fmt"

	"aerovoice/models"
)

// ErrSessionNotFound is returned when a turn references an unknown or
// expired session.
var ErrSessionNotFound = errors.New("dialog: session not found or expired")

// InvalidTransitionError marks a programming defect: a mutation attempted in
// violation of a stage precondition. It is fatal to the turn (the mutation is
// rejected and prior state kept) but never to the session.
type InvalidTransitionError struct {
	Stage  models.Stage
	Intent models.Intent
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition at stage %s on intent %s: %s", e.Stage, e.Intent, e.Reason)
}
