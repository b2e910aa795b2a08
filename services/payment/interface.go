package payment

import (
	"context"

	"aerovoice/models"
)

// IntentService creates payment intents for confirmed selections. The actual
// collection of payment happens on the client against the intent.
type IntentService interface {
	CreateIntent(ctx context.Context, amountCents int64, currency, sessionID string) (*models.PaymentIntent, error)
}
