// File: services/dialog/gemini.go
package dialog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"aerovoice/models"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClassifier is the LLM-backed primary classifier. The model is asked
// for strict JSON; anything unparseable is an error so the turn falls through
// to the rule fallback.
type GeminiClassifier struct {
	model *genai.GenerativeModel
}

func NewGeminiClassifier(apiKey string) *GeminiClassifier {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		panic(fmt.Sprintf("failed to create Gemini client: %v", err))
	}

	model := client.GenerativeModel("models/gemini-1.5-pro")
	return &GeminiClassifier{model: model}
}

// geminiWireResult mirrors the JSON contract given to the model.
type geminiWireResult struct {
	Intent     string                   `json:"intent"`
	Confidence float64                  `json:"confidence"`
	Entities   map[string]models.Entity `json:"entities"`
}

func (g *GeminiClassifier) Classify(ctx context.Context, text string, record *models.BookingRecord, at time.Time) (models.ClassificationResult, error) {
	prompt := buildClassifyPrompt(text, record, at)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return models.ClassificationResult{}, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}

	return parseGeminiResult(sb.String())
}

// buildClassifyPrompt assembles the fixed taxonomy, the booking-record
// snapshot, and recent history as classifier context.
func buildClassifyPrompt(text string, record *models.BookingRecord, at time.Time) string {
	var intents []string
	for _, in := range models.Intents {
		intents = append(intents, string(in))
	}

	snapshot := "{}"
	history := ""
	if record != nil {
		if b, err := json.Marshal(record.Trip); err == nil {
			snapshot = string(b)
		}
		for _, turn := range record.RecentHistory(8) {
			history += fmt.Sprintf("%s: %s\n", turn.Speaker, turn.Utterance)
		}
	}

	return fmt.Sprintf(`You are the intent classifier for a flight booking assistant.
Classify the user's utterance into exactly one intent from this list:
%s

Extract entities for these slots where present: %s.
Dates must be ISO calendar dates (YYYY-MM-DD). Today's date is %s.
Also extract "option_index" when the user picks a presented flight option.

Current booking record: %s
Recent conversation:
%s
User utterance: %q

Respond with ONLY a JSON object, no markdown, shaped exactly like:
{"intent":"provide_info","confidence":0.92,"entities":{"origin_city":{"value":"Boston","confidence":0.95}}}`,
		strings.Join(intents, ", "),
		strings.Join([]string{
			models.SlotTripType, models.SlotOrigin, models.SlotDestination,
			models.SlotDepartureDate, models.SlotReturnDate,
			models.SlotCabinClass, models.SlotPassengerName,
		}, ", "),
		at.Format("2006-01-02"),
		snapshot,
		history,
		text,
	)
}

// parseGeminiResult validates the model output against the taxonomy. Code
// fences are tolerated since models add them despite instructions.
func parseGeminiResult(raw string) (models.ClassificationResult, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var wire geminiWireResult
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return models.ClassificationResult{}, fmt.Errorf("unparseable classifier output: %w", err)
	}
	if !models.ValidIntent(wire.Intent) {
		return models.ClassificationResult{}, fmt.Errorf("classifier returned unknown intent %q", wire.Intent)
	}
	if wire.Confidence < 0 || wire.Confidence > 1 {
		return models.ClassificationResult{}, fmt.Errorf("classifier confidence out of range: %v", wire.Confidence)
	}

	return models.ClassificationResult{
		Intent:     models.Intent(wire.Intent),
		Confidence: wire.Confidence,
		Entities:   wire.Entities,
		Source:     models.SourceLLM,
	}, nil
}
