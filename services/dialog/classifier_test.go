package dialog

import (
	"context"
	"testing"
	"time"

	"aerovoice/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBandFor(t *testing.T) {
	assert.Equal(t, models.BandLow, BandFor(0.0))
	assert.Equal(t, models.BandLow, BandFor(0.49))
	assert.Equal(t, models.BandMedium, BandFor(0.5))
	assert.Equal(t, models.BandMedium, BandFor(0.74))
	assert.Equal(t, models.BandHigh, BandFor(0.75))
	assert.Equal(t, models.BandHigh, BandFor(1.0))
}

func TestFallbackClassifierUsesRulesWhenPrimaryFails(t *testing.T) {
	failing := stubClassifier{err: assert.AnError}
	fc := NewFallbackClassifier(failing, NewRuleClassifier(), time.Second, zap.NewNop())

	res, err := fc.Classify(context.Background(), "flying from Boston to Denver", &models.BookingRecord{}, refTime)
	require.NoError(t, err)
	assert.Equal(t, models.SourceRuleFallback, res.Source)
	assert.Equal(t, models.IntentProvideInfo, res.Intent)
}

func TestFallbackClassifierPrefersPrimary(t *testing.T) {
	primary := stubClassifier{res: models.ClassificationResult{
		Intent:     models.IntentConfirm,
		Confidence: 0.95,
		Source:     models.SourceLLM,
	}}
	fc := NewFallbackClassifier(primary, NewRuleClassifier(), time.Second, zap.NewNop())

	res, err := fc.Classify(context.Background(), "yes", &models.BookingRecord{}, refTime)
	require.NoError(t, err)
	assert.Equal(t, models.SourceLLM, res.Source)
}

func TestFallbackClassifierUnavailableWithoutFallback(t *testing.T) {
	fc := NewFallbackClassifier(stubClassifier{err: assert.AnError}, nil, time.Second, zap.NewNop())
	_, err := fc.Classify(context.Background(), "yes", &models.BookingRecord{}, refTime)
	assert.ErrorIs(t, err, ErrClassificationUnavailable)
}

func TestParseGeminiResult(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		res, err := parseGeminiResult(`{"intent":"provide_info","confidence":0.92,"entities":{"origin_city":{"value":"Boston","confidence":0.95}}}`)
		require.NoError(t, err)
		assert.Equal(t, models.IntentProvideInfo, res.Intent)
		assert.Equal(t, models.SourceLLM, res.Source)
		assert.Equal(t, "Boston", res.Entities[models.SlotOrigin].Value)
	})

	t.Run("fenced json", func(t *testing.T) {
		res, err := parseGeminiResult("```json\n{\"intent\":\"confirm\",\"confidence\":0.9}\n```")
		require.NoError(t, err)
		assert.Equal(t, models.IntentConfirm, res.Intent)
	})

	t.Run("unknown intent rejected", func(t *testing.T) {
		_, err := parseGeminiResult(`{"intent":"book_hotel","confidence":0.9}`)
		assert.Error(t, err)
	})

	t.Run("confidence out of range rejected", func(t *testing.T) {
		_, err := parseGeminiResult(`{"intent":"confirm","confidence":1.4}`)
		assert.Error(t, err)
	})

	t.Run("prose rejected", func(t *testing.T) {
		_, err := parseGeminiResult("The user wants to confirm.")
		assert.Error(t, err)
	})
}
