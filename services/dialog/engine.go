// File: services/dialog/engine.go
package dialog

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"aerovoice/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sessionLocks serializes turn processing per session. A new turn must not
// start until the previous turn's mutation has committed, since classifier
// context depends on the committed record. Sessions never contend with each
// other.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *sessionLocks) acquire(sessionID string) *sync.Mutex {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := l.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[sessionID] = lock
	}
	l.mu.Unlock()
	lock.Lock()
	return lock
}

func (l *sessionLocks) release(sessionID string, lock *sync.Mutex, terminal bool) {
	lock.Unlock()
	if terminal {
		l.mu.Lock()
		delete(l.locks, sessionID)
		l.mu.Unlock()
	}
}

// StartSession creates an empty booking record at the greeting stage.
func (e *DefaultDialogEngine) StartSession(ctx context.Context) (*models.DialogSession, error) {
	now := time.Now()
	sess := &models.DialogSession{
		SessionID:      uuid.New().String(),
		Stage:          models.StageGreeting,
		Record:         models.BookingRecord{CreatedAt: now, UpdatedAt: now},
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := e.Store.Save(ctx, sess); err != nil {
		return nil, err
	}
	e.Logger.Info("dialog session started", zap.String("sessionId", sess.SessionID))
	return sess, nil
}

// ProcessTurn runs one user turn through the full pipeline:
// normalize -> safety gate -> classify -> state machine -> collaborators.
func (e *DefaultDialogEngine) ProcessTurn(ctx context.Context, sessionID, text string, at time.Time) (*models.TurnOutcome, error) {
	lock := e.locks.acquire(sessionID)
	terminal := false
	defer func() { e.locks.release(sessionID, lock, terminal) }()

	sess, err := e.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	normalized := Normalize(text)

	// Safety gate runs unconditionally before classification. A blocked turn
	// leaves the booking record byte-identical; only the session's activity
	// timestamp moves, to keep the TTL honest.
	if check := CheckContent(normalized); !check.Allowed {
		sess.LastActivityAt = at
		if err := e.Store.Save(ctx, sess); err != nil {
			return nil, err
		}
		resp := models.ResponseContext{
			Stage:        sess.Stage,
			Prompt:       models.PromptRephrase,
			SafetyReason: check.Reason,
		}
		return e.outcome(sess, resp), nil
	}

	result, err := e.Classifier.Classify(ctx, normalized, &sess.Record, at)
	if err != nil {
		if !errors.Is(err, ErrClassificationUnavailable) {
			e.Logger.Error("classifier error", zap.Error(err), zap.String("sessionId", sessionID))
		}
		sess.Record.AppendTurn(models.SpeakerUser, normalized, at)
		sess.LastActivityAt = at
		if err := e.Store.Save(ctx, sess); err != nil {
			return nil, err
		}
		resp := models.ResponseContext{Stage: sess.Stage, Prompt: models.PromptRetry}
		return e.outcome(sess, resp), nil
	}

	sess.Record.AppendTurn(models.SpeakerUser, normalized, at)
	resp := e.Machine.Apply(sess, result, normalized, at)

	if sess.Stage == models.StageSearchingFlights && turnMutated(resp) {
		searchResp := e.runSearch(ctx, sess)
		// Keep the turn's acknowledgments alongside the search outcome.
		searchResp.NewlyFilled = resp.NewlyFilled
		searchResp.Corrected = resp.Corrected
		searchResp.Repeated = resp.Repeated
		resp = searchResp
	}

	if sess.Stage == models.StageCollectingPaymentIntent && sess.PaymentIntentID == "" {
		resp = e.preparePayment(ctx, sess, resp)
	}

	if sess.Stage == models.StageBookingComplete {
		e.archiveBooking(ctx, sess, models.ArchiveStatusCompleted)
		terminal = true
	}
	if sess.Stage == models.StageAborted {
		terminal = true
	}

	sess.LastActivityAt = at
	if err := e.Store.Save(ctx, sess); err != nil {
		return nil, err
	}

	return e.outcome(sess, resp), nil
}

// turnMutated reports whether the turn changed the record in a way that
// warrants (re-)running the search when the stage sits at searching_flights.
func turnMutated(resp models.ResponseContext) bool {
	switch resp.Prompt {
	case models.PromptSearching, models.PromptAskSlot,
		models.PromptAcknowledgeCorrection, models.PromptAcknowledgeRepetition:
		return true
	}
	return false
}

// runSearch consults the flight-search collaborator. The collaborator owns
// its own caching and fallback; the machine only needs to know whether a
// result set came back.
func (e *DefaultDialogEngine) runSearch(ctx context.Context, sess *models.DialogSession) models.ResponseContext {
	query := buildFlightQuery(&sess.Record)
	options, err := e.Flights.Search(ctx, query)
	if err != nil {
		e.Logger.Warn("flight search failed", zap.Error(err), zap.String("sessionId", sess.SessionID))
	}
	return e.Machine.ApplySearchResults(sess, options, err)
}

// preparePayment creates a payment intent when the flow first reaches the
// payment stage. Failure is a recoverable response path, not a session error.
func (e *DefaultDialogEngine) preparePayment(ctx context.Context, sess *models.DialogSession, resp models.ResponseContext) models.ResponseContext {
	if e.Payments == nil || sess.Record.SelectedFlight == nil {
		return resp
	}
	flight := sess.Record.SelectedFlight
	amount := int64(math.Round(flight.Price * 100))
	intent, err := e.Payments.CreateIntent(ctx, amount, flight.Currency, sess.SessionID)
	if err != nil {
		e.Logger.Warn("payment intent creation failed", zap.Error(err), zap.String("sessionId", sess.SessionID))
		return models.ResponseContext{
			Stage:    sess.Stage,
			Prompt:   models.PromptPaymentUnavailable,
			Selected: flight,
		}
	}
	sess.PaymentIntentID = intent.ID
	resp.Payment = intent
	return resp
}

// archiveBooking copies the finished record into the archive. Archival is
// best-effort; the turn outcome does not depend on it.
func (e *DefaultDialogEngine) archiveBooking(ctx context.Context, sess *models.DialogSession, status string) {
	if e.Archive == nil {
		return
	}
	rec := &sess.Record
	booking := models.CompletedBooking{
		SessionID:       sess.SessionID,
		PassengerName:   rec.Passenger.FullName.Value,
		Origin:          rec.Trip.Origin.Value,
		Destination:     rec.Trip.Destination.Value,
		TripType:        rec.Trip.TripType.Value,
		DepartureDate:   rec.Trip.DepartureDate.Value,
		ReturnDate:      rec.Trip.ReturnDate.Value,
		CabinClass:      rec.Trip.CabinClass.Value,
		Flight:          rec.SelectedFlight,
		PaymentIntentID: sess.PaymentIntentID,
		Status:          status,
		Turns:           len(rec.History),
	}
	if _, err := e.Archive.Create(ctx, booking); err != nil {
		e.Logger.Error("failed to archive booking", zap.Error(err), zap.String("sessionId", sess.SessionID))
	}
}

// RecordSystemUtterance appends the externally generated system utterance to
// the conversation history, so the classifier context sees both sides.
func (e *DefaultDialogEngine) RecordSystemUtterance(ctx context.Context, sessionID, text string, at time.Time) error {
	lock := e.locks.acquire(sessionID)
	defer e.locks.release(sessionID, lock, false)

	sess, err := e.Store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.Record.AppendTurn(models.SpeakerSystem, text, at)
	return e.Store.Save(ctx, sess)
}

func (e *DefaultDialogEngine) GetSession(ctx context.Context, sessionID string) (*models.DialogSession, error) {
	return e.Store.Get(ctx, sessionID)
}

// ResetSession discards the booking record and returns the stage to greeting.
func (e *DefaultDialogEngine) ResetSession(ctx context.Context, sessionID string) error {
	lock := e.locks.acquire(sessionID)
	defer e.locks.release(sessionID, lock, false)

	sess, err := e.Store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	now := time.Now()
	sess.Stage = models.StageGreeting
	sess.Record = models.BookingRecord{CreatedAt: now, UpdatedAt: now}
	sess.Options = nil
	sess.Pending = nil
	sess.PaymentIntentID = ""
	sess.LastActivityAt = now
	e.Logger.Info("dialog session reset", zap.String("sessionId", sessionID))
	return e.Store.Save(ctx, sess)
}

func (e *DefaultDialogEngine) outcome(sess *models.DialogSession, resp models.ResponseContext) *models.TurnOutcome {
	resp = BuildResponseContext(sess, resp)
	return &models.TurnOutcome{
		SessionID: sess.SessionID,
		Stage:     sess.Stage,
		Response:  resp,
		Record:    Summarize(&sess.Record),
	}
}

// buildFlightQuery projects the record onto the search collaborator's
// request shape.
func buildFlightQuery(rec *models.BookingRecord) models.FlightQuery {
	return models.FlightQuery{
		Origin:        rec.Trip.Origin.Value,
		Destination:   rec.Trip.Destination.Value,
		DepartureDate: rec.Trip.DepartureDate.Value,
		ReturnDate:    rec.Trip.ReturnDate.Value,
		TripType:      models.TripType(rec.Trip.TripType.Value),
		CabinClass:    models.CabinClass(rec.Trip.CabinClass.Value),
	}
}
