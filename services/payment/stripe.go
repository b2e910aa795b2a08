// File: services/payment/stripe.go
package payment

import (
	"context"
	"fmt"

	"aerovoice/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// StripeIntentService creates Stripe payment intents for confirmed flight
// selections. The global stripe.Key is set at startup.
type StripeIntentService struct {
	logger *zap.Logger
}

func NewStripeIntentService(logger *zap.Logger) *StripeIntentService {
	return &StripeIntentService{logger: logger}
}

func (s *StripeIntentService) CreateIntent(_ context.Context, amountCents int64, currency, sessionID string) (*models.PaymentIntent, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("payment: invalid amount %d", amountCents)
	}
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("dialog_session_id", sessionID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("payment: failed to create intent: %w", err)
	}

	s.logger.Info("payment intent created",
		zap.String("intentId", pi.ID), zap.String("sessionId", sessionID), zap.Int64("amount", amountCents))

	return &models.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
	}, nil
}
