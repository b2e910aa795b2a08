package dialog

import (
	"context"
	"testing"
	"time"

	"aerovoice/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// refTime is a Monday, used as the reference for relative-date resolution.
var refTime = time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

func classify(t *testing.T, text string, record *models.BookingRecord) models.ClassificationResult {
	t.Helper()
	rc := NewRuleClassifier()
	res, err := rc.Classify(context.Background(), text, record, refTime)
	require.NoError(t, err)
	assert.Equal(t, models.SourceRuleFallback, res.Source)
	return res
}

func TestRuleClassifierIntents(t *testing.T) {
	rec := &models.BookingRecord{}

	assert.Equal(t, models.IntentCancel, classify(t, "cancel the booking", rec).Intent)
	assert.Equal(t, models.IntentGreeting, classify(t, "hello there", rec).Intent)
	assert.Equal(t, models.IntentConfirm, classify(t, "yes", rec).Intent)
	assert.Equal(t, models.IntentDeny, classify(t, "nope", rec).Intent)
	assert.Equal(t, models.IntentAskQuestion, classify(t, "what cabins do you offer?", rec).Intent)
	assert.Equal(t, models.IntentProvideInfo, classify(t, "flying from Boston to Denver", rec).Intent)
	assert.Equal(t, models.IntentCorrect, classify(t, "actually make that Chicago", rec).Intent)
	assert.Equal(t, models.IntentSelectOption, classify(t, "I'll take option 2", rec).Intent)

	res := classify(t, "tell me about the weather on the moon", rec)
	assert.Equal(t, models.IntentOutOfScope, res.Intent)
	assert.Equal(t, models.BandLow, BandFor(res.Confidence))
}

func TestRuleClassifierDetectsTripTypeChange(t *testing.T) {
	rec := &models.BookingRecord{}
	rec.Trip.TripType = models.SlotValue{Value: string(models.TripRoundTrip), Confidence: 0.9, Source: models.SourceUserStated}

	res := classify(t, "make it one way please", rec)
	assert.Equal(t, models.IntentChangeTripType, res.Intent)
	assert.Equal(t, string(models.TripOneWay), res.Entities[models.SlotTripType].Value)

	// Restating the recorded trip type is not a change.
	res = classify(t, "a round trip please", rec)
	assert.NotEqual(t, models.IntentChangeTripType, res.Intent)
}

func TestExtractEntitiesCitiesWithRoles(t *testing.T) {
	rec := &models.BookingRecord{}
	entities := ExtractEntities("flying from Boston to Denver", rec, refTime)

	assert.Equal(t, "Boston", entities[models.SlotOrigin].Value)
	assert.Equal(t, "Denver", entities[models.SlotDestination].Value)
	assert.InDelta(t, 0.85, entities[models.SlotOrigin].Confidence, 0.001)
}

func TestExtractEntitiesBareCityFillsOpenSlot(t *testing.T) {
	// Origin already recorded: a bare mention goes to the destination.
	rec := &models.BookingRecord{}
	rec.Trip.Origin = models.SlotValue{Value: "Boston", Confidence: 0.9, Source: models.SourceUserStated}

	entities := ExtractEntities("Chicago sounds nice", rec, refTime)
	assert.Equal(t, "Chicago", entities[models.SlotDestination].Value)
	_, hasOrigin := entities[models.SlotOrigin]
	assert.False(t, hasOrigin)
}

func TestExtractEntitiesDates(t *testing.T) {
	rec := &models.BookingRecord{}

	entities := ExtractEntities("leaving on October 12th", rec, refTime)
	assert.Equal(t, "2026-10-12", entities[models.SlotDepartureDate].Value)

	// Month already past this year resolves to next year.
	entities = ExtractEntities("leaving March 3", rec, refTime)
	assert.Equal(t, "2027-03-03", entities[models.SlotDepartureDate].Value)

	entities = ExtractEntities("I need to fly tomorrow", rec, refTime)
	assert.Equal(t, "2026-08-25", entities[models.SlotDepartureDate].Value)

	entities = ExtractEntities("fly out on 2026-11-02", rec, refTime)
	assert.Equal(t, "2026-11-02", entities[models.SlotDepartureDate].Value)
}

func TestExtractEntitiesBareDayIsLowConfidence(t *testing.T) {
	rec := &models.BookingRecord{}
	entities := ExtractEntities("leaving the 15th", rec, refTime)

	e, ok := entities[models.SlotDepartureDate]
	require.True(t, ok)
	// The 15th of this month has passed, so resolve to next month's 15th.
	assert.Equal(t, "2026-09-15", e.Value)
	assert.Less(t, e.Confidence, ActThreshold)
	assert.GreaterOrEqual(t, e.Confidence, ClarifyThreshold)
}

func TestExtractEntitiesDepartureAndReturnInOneTurn(t *testing.T) {
	rec := &models.BookingRecord{}
	entities := ExtractEntities(
		"a round trip leaving October 12 and returning October 19", rec, refTime)

	assert.Equal(t, string(models.TripRoundTrip), entities[models.SlotTripType].Value)
	assert.Equal(t, "2026-10-12", entities[models.SlotDepartureDate].Value)
	assert.Equal(t, "2026-10-19", entities[models.SlotReturnDate].Value)
}

func TestExtractEntitiesPassengerNameAndCabin(t *testing.T) {
	rec := &models.BookingRecord{}
	entities := ExtractEntities("My name is Jane Doe, business class please", rec, refTime)

	assert.Equal(t, "Jane Doe", entities[models.SlotPassengerName].Value)
	assert.Equal(t, string(models.CabinBusiness), entities[models.SlotCabinClass].Value)
}

func TestExtractEntitiesOptionSelection(t *testing.T) {
	rec := &models.BookingRecord{}

	entities := ExtractEntities("option 2 please", rec, refTime)
	assert.Equal(t, "2", entities["option_index"].Value)

	entities = ExtractEntities("the second one", rec, refTime)
	assert.Equal(t, "2", entities["option_index"].Value)
}
