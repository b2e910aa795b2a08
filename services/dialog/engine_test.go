package dialog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"aerovoice/models"
	"aerovoice/services/flights"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubClassifier struct {
	res models.ClassificationResult
	err error
}

func (s stubClassifier) Classify(context.Context, string, *models.BookingRecord, time.Time) (models.ClassificationResult, error) {
	return s.res, s.err
}

type stubPayments struct {
	intents int
	fail    bool
}

func (p *stubPayments) CreateIntent(_ context.Context, amountCents int64, currency, sessionID string) (*models.PaymentIntent, error) {
	if p.fail {
		return nil, assert.AnError
	}
	p.intents++
	return &models.PaymentIntent{ID: "pi_test", Amount: amountCents, Currency: currency, Status: "requires_payment_method"}, nil
}

type stubArchive struct {
	created []models.CompletedBooking
}

func (a *stubArchive) Create(_ context.Context, b models.CompletedBooking) (string, error) {
	a.created = append(a.created, b)
	return "archived-1", nil
}

func (a *stubArchive) GetByID(context.Context, string) (*models.CompletedBooking, error) {
	return nil, nil
}

func (a *stubArchive) GetBySessionID(context.Context, string) ([]models.CompletedBooking, error) {
	return nil, nil
}

func (a *stubArchive) DeleteByID(context.Context, string) error { return nil }

type stubSearch struct {
	options []models.FlightOption
	err     error
}

func (s stubSearch) Search(context.Context, models.FlightQuery) ([]models.FlightOption, error) {
	return s.options, s.err
}

func newTestEngine(classifier Classifier, search flights.SearchService) (*DefaultDialogEngine, *stubArchive, *stubPayments) {
	archive := &stubArchive{}
	payments := &stubPayments{}
	engine := NewDefaultDialogEngine(
		NewMemorySessionStore(),
		classifier,
		search,
		payments,
		archive,
		zap.NewNop(),
	)
	return engine, archive, payments
}

func TestEngineHappyPathToCompletion(t *testing.T) {
	engine, archive, payments := newTestEngine(NewRuleClassifier(), flights.NewSyntheticSearchService())
	ctx := context.Background()
	at := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	sess, err := engine.StartSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StageGreeting, sess.Stage)

	out, err := engine.ProcessTurn(ctx, sess.SessionID,
		"I need a round trip from Boston to Denver leaving October 12 and returning October 19", at)
	require.NoError(t, err)
	assert.Equal(t, models.StageCollectingPassengerName, out.Stage)
	assert.Contains(t, out.Record.Filled, models.SlotOrigin)
	assert.Equal(t, "2026-10-12", out.Record.Filled[models.SlotDepartureDate].Value)
	assert.Equal(t, "2026-10-19", out.Record.Filled[models.SlotReturnDate].Value)

	out, err = engine.ProcessTurn(ctx, sess.SessionID, "My name is Jane Doe", at.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StagePresentingOptions, out.Stage)
	assert.Equal(t, models.PromptPresentOptions, out.Response.Prompt)
	require.NotEmpty(t, out.Response.Flights)
	assert.Contains(t, out.Response.NewlyFilled, models.SlotPassengerName)

	out, err = engine.ProcessTurn(ctx, sess.SessionID, "option 1", at.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StageConfirmingSelection, out.Stage)
	require.NotNil(t, out.Response.Selected)

	out, err = engine.ProcessTurn(ctx, sess.SessionID, "yes", at.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StageCollectingPaymentIntent, out.Stage)
	require.NotNil(t, out.Response.Payment)
	assert.Equal(t, "pi_test", out.Response.Payment.ID)
	assert.Equal(t, 1, payments.intents)

	out, err = engine.ProcessTurn(ctx, sess.SessionID, "yes", at.Add(4*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StageBookingComplete, out.Stage)
	assert.Equal(t, models.PromptBookingComplete, out.Response.Prompt)

	require.Len(t, archive.created, 1)
	assert.Equal(t, models.ArchiveStatusCompleted, archive.created[0].Status)
	assert.Equal(t, "Jane Doe", archive.created[0].PassengerName)
}

func TestEngineBlockedTurnLeavesRecordUntouched(t *testing.T) {
	engine, _, _ := newTestEngine(NewRuleClassifier(), flights.NewSyntheticSearchService())
	ctx := context.Background()
	at := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	sess, err := engine.StartSession(ctx)
	require.NoError(t, err)

	_, err = engine.ProcessTurn(ctx, sess.SessionID, "flying from Boston", at)
	require.NoError(t, err)

	before, err := engine.GetSession(ctx, sess.SessionID)
	require.NoError(t, err)
	beforeBytes, err := json.Marshal(before.Record)
	require.NoError(t, err)

	out, err := engine.ProcessTurn(ctx, sess.SessionID,
		"my card number is 4111 1111 1111 1111", at.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.PromptRephrase, out.Response.Prompt)
	assert.Equal(t, models.SafetyPIILeak, out.Response.SafetyReason)
	assert.Equal(t, before.Stage, out.Stage)

	after, err := engine.GetSession(ctx, sess.SessionID)
	require.NoError(t, err)
	afterBytes, err := json.Marshal(after.Record)
	require.NoError(t, err)
	assert.Equal(t, string(beforeBytes), string(afterBytes), "blocked turn must leave the record byte-identical")
}

func TestEngineClassifierFailureAsksForRetry(t *testing.T) {
	engine, _, _ := newTestEngine(stubClassifier{err: ErrClassificationUnavailable}, flights.NewSyntheticSearchService())
	ctx := context.Background()

	sess, err := engine.StartSession(ctx)
	require.NoError(t, err)

	out, err := engine.ProcessTurn(ctx, sess.SessionID, "round trip to Denver", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.PromptRetry, out.Response.Prompt)
	assert.Equal(t, models.StageGreeting, out.Stage)
	// The utterance still lands in the history for later context.
	assert.Equal(t, 1, out.Record.Turns)
}

func TestEngineLowConfidenceClarifies(t *testing.T) {
	low := stubClassifier{res: models.ClassificationResult{
		Intent:     models.IntentProvideInfo,
		Confidence: 0.3,
		Entities:   map[string]models.Entity{models.SlotOrigin: {Value: "Boston", Confidence: 0.3}},
		Source:     models.SourceLLM,
	}}
	engine, _, _ := newTestEngine(low, flights.NewSyntheticSearchService())
	ctx := context.Background()

	sess, err := engine.StartSession(ctx)
	require.NoError(t, err)

	out, err := engine.ProcessTurn(ctx, sess.SessionID, "mumble", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.PromptClarify, out.Response.Prompt)
	assert.NotContains(t, out.Record.Filled, models.SlotOrigin)
}

func TestEngineNoFlightsFound(t *testing.T) {
	engine, _, _ := newTestEngine(NewRuleClassifier(), stubSearch{options: nil})
	ctx := context.Background()
	at := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	sess, err := engine.StartSession(ctx)
	require.NoError(t, err)

	_, err = engine.ProcessTurn(ctx, sess.SessionID,
		"one way from Boston to Denver leaving October 12", at)
	require.NoError(t, err)

	out, err := engine.ProcessTurn(ctx, sess.SessionID, "My name is Jane Doe", at.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StageSearchingFlights, out.Stage)
	assert.Equal(t, models.PromptNoFlightsFound, out.Response.Prompt)
}

func TestEngineSearchUnavailable(t *testing.T) {
	engine, _, _ := newTestEngine(NewRuleClassifier(), stubSearch{err: flights.ErrSearchUnavailable})
	ctx := context.Background()
	at := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	sess, err := engine.StartSession(ctx)
	require.NoError(t, err)

	_, err = engine.ProcessTurn(ctx, sess.SessionID,
		"one way from Boston to Denver leaving October 12", at)
	require.NoError(t, err)

	out, err := engine.ProcessTurn(ctx, sess.SessionID, "My name is Jane Doe", at.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StageSearchingFlights, out.Stage)
	assert.Equal(t, models.PromptSearchUnavailable, out.Response.Prompt)
}

func TestEnginePaymentFailureIsRecoverable(t *testing.T) {
	engine, _, payments := newTestEngine(NewRuleClassifier(), flights.NewSyntheticSearchService())
	payments.fail = true
	ctx := context.Background()
	at := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	sess, err := engine.StartSession(ctx)
	require.NoError(t, err)

	_, err = engine.ProcessTurn(ctx, sess.SessionID,
		"one way from Boston to Denver leaving October 12", at)
	require.NoError(t, err)
	_, err = engine.ProcessTurn(ctx, sess.SessionID, "My name is Jane Doe", at)
	require.NoError(t, err)
	_, err = engine.ProcessTurn(ctx, sess.SessionID, "option 1", at)
	require.NoError(t, err)

	out, err := engine.ProcessTurn(ctx, sess.SessionID, "yes", at)
	require.NoError(t, err)
	assert.Equal(t, models.PromptPaymentUnavailable, out.Response.Prompt)
	assert.Equal(t, models.StageCollectingPaymentIntent, out.Stage)

	// Session is still live; the next confirm retries intent creation.
	payments.fail = false
	out, err = engine.ProcessTurn(ctx, sess.SessionID, "yes", at.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StageCollectingPaymentIntent, out.Stage)
	require.NotNil(t, out.Response.Payment)

	out, err = engine.ProcessTurn(ctx, sess.SessionID, "yes", at.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StageBookingComplete, out.Stage)
}

func TestEngineUnknownSession(t *testing.T) {
	engine, _, _ := newTestEngine(NewRuleClassifier(), flights.NewSyntheticSearchService())
	_, err := engine.ProcessTurn(context.Background(), "no-such-session", "hello", time.Now())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEngineResetSession(t *testing.T) {
	engine, _, _ := newTestEngine(NewRuleClassifier(), flights.NewSyntheticSearchService())
	ctx := context.Background()
	at := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	sess, err := engine.StartSession(ctx)
	require.NoError(t, err)
	_, err = engine.ProcessTurn(ctx, sess.SessionID, "one way from Boston to Denver", at)
	require.NoError(t, err)

	require.NoError(t, engine.ResetSession(ctx, sess.SessionID))

	got, err := engine.GetSession(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.StageGreeting, got.Stage)
	assert.False(t, got.Record.Trip.Origin.Filled())
	assert.Empty(t, got.Record.History)
}
