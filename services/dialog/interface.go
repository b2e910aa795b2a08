// File: services/dialog/interface.go
package dialog

import (
	"context"
	"time"

	archiveRepo "aerovoice/database/repository/archive"
	"aerovoice/models"
	"aerovoice/services/flights"
	"aerovoice/services/payment"

	"go.uber.org/zap"
)

// Engine is the conversation flow engine: one inbound turn goes through
// normalization, the safety gate, classification, and the state machine, and
// comes back as a response context plus record summary.
type Engine interface {
	StartSession(ctx context.Context) (*models.DialogSession, error)
	ProcessTurn(ctx context.Context, sessionID, text string, at time.Time) (*models.TurnOutcome, error)
	RecordSystemUtterance(ctx context.Context, sessionID, text string, at time.Time) error
	GetSession(ctx context.Context, sessionID string) (*models.DialogSession, error)
	ResetSession(ctx context.Context, sessionID string) error
}

// DefaultDialogEngine implements Engine.
type DefaultDialogEngine struct {
	Store      SessionStore
	Classifier Classifier
	Machine    *StateMachine
	Flights    flights.SearchService
	Payments   payment.IntentService
	Archive    archiveRepo.CompletedBookingRepository
	Logger     *zap.Logger

	locks sessionLocks
}

func NewDefaultDialogEngine(
	store SessionStore,
	classifier Classifier,
	searchSvc flights.SearchService,
	paymentSvc payment.IntentService,
	archive archiveRepo.CompletedBookingRepository,
	logger *zap.Logger,
) *DefaultDialogEngine {
	return &DefaultDialogEngine{
		Store:      store,
		Classifier: classifier,
		Machine:    NewStateMachine(logger),
		Flights:    searchSvc,
		Payments:   paymentSvc,
		Archive:    archive,
		Logger:     logger,
	}
}
