// File: services/dialog/classifier.go
package dialog

import (
	"context"
	"errors"
	"time"

	"aerovoice/models"

	"go.uber.org/zap"
)

// Confidence thresholds consumed uniformly by the state machine. Below
// ClarifyThreshold the machine asks a clarifying question instead of acting;
// between the two it acts but flags the filled fields as low-confidence.
const (
	ClarifyThreshold = 0.5
	ActThreshold     = 0.75
)

// DefaultClassifyTimeout bounds the LLM round-trip for one turn.
const DefaultClassifyTimeout = 4 * time.Second

// BandFor thresholds a raw confidence score into its band.
func BandFor(confidence float64) models.ConfidenceBand {
	switch {
	case confidence < ClarifyThreshold:
		return models.BandLow
	case confidence < ActThreshold:
		return models.BandMedium
	default:
		return models.BandHigh
	}
}

// ErrClassificationUnavailable signals that neither classifier produced a
// result. The rule classifier is local logic and should never fail, so this
// is effectively unreachable, but the engine still answers it with a retry
// prompt rather than dropping the turn.
var ErrClassificationUnavailable = errors.New("dialog: classification unavailable")

// Classifier maps a normalized utterance plus booking-record context to a
// classification result. The state machine depends only on this interface,
// never on which implementation answered.
// The at timestamp is the reference date for resolving relative dates.
type Classifier interface {
	Classify(ctx context.Context, text string, record *models.BookingRecord, at time.Time) (models.ClassificationResult, error)
}

// FallbackClassifier tries the primary (LLM-backed) classifier under a
// bounded timeout and falls back to the deterministic rule classifier when
// the call fails, times out, or returns unparseable output.
type FallbackClassifier struct {
	Primary  Classifier
	Fallback Classifier
	Timeout  time.Duration
	Logger   *zap.Logger
}

func NewFallbackClassifier(primary, fallback Classifier, timeout time.Duration, logger *zap.Logger) *FallbackClassifier {
	if timeout <= 0 {
		timeout = DefaultClassifyTimeout
	}
	return &FallbackClassifier{Primary: primary, Fallback: fallback, Timeout: timeout, Logger: logger}
}

func (f *FallbackClassifier) Classify(ctx context.Context, text string, record *models.BookingRecord, at time.Time) (models.ClassificationResult, error) {
	if f.Primary != nil {
		cctx, cancel := context.WithTimeout(ctx, f.Timeout)
		res, err := f.Primary.Classify(cctx, text, record, at)
		cancel()
		if err == nil {
			return res, nil
		}
		if f.Logger != nil {
			f.Logger.Warn("primary classifier failed, using rule fallback", zap.Error(err))
		}
	}

	if f.Fallback == nil {
		return models.ClassificationResult{}, ErrClassificationUnavailable
	}
	res, err := f.Fallback.Classify(ctx, text, record, at)
	if err != nil {
		return models.ClassificationResult{}, ErrClassificationUnavailable
	}
	return res, nil
}
