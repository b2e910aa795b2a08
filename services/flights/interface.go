package flights

import (
	"context"
	"errors"

	"aerovoice/models"
)

// ErrSearchUnavailable signals that the flight-search collaborator could not
// answer and no fallback result set was available. The dialog engine maps it
// to a "search unavailable" response path.
var ErrSearchUnavailable = errors.New("flights: search unavailable")

// SearchService is the boundary to the flight-search collaborator. An empty
// result set is a valid answer ("no flights found"), distinct from an error.
type SearchService interface {
	Search(ctx context.Context, query models.FlightQuery) ([]models.FlightOption, error)
}
