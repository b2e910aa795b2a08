package models

// Intent is the classified purpose of a user utterance. The taxonomy is fixed;
// both classifier implementations must map into it.
type Intent string

const (
	IntentGreeting       Intent = "greeting"
	IntentProvideInfo    Intent = "provide_info"
	IntentConfirm        Intent = "confirm"
	IntentDeny           Intent = "deny"
	IntentCorrect        Intent = "correct"
	IntentChangeTripType Intent = "change_trip_type"
	IntentSelectOption   Intent = "select_option"
	IntentAskQuestion    Intent = "ask_question"
	IntentCancel         Intent = "cancel"
	IntentOutOfScope     Intent = "out_of_scope"
)

// Intents lists the full taxonomy, in the order presented to the LLM.
var Intents = []Intent{
	IntentGreeting, IntentProvideInfo, IntentConfirm, IntentDeny,
	IntentCorrect, IntentChangeTripType, IntentSelectOption,
	IntentAskQuestion, IntentCancel, IntentOutOfScope,
}

// ValidIntent reports whether s is a member of the taxonomy.
func ValidIntent(s string) bool {
	for _, in := range Intents {
		if string(in) == s {
			return true
		}
	}
	return false
}

// ClassifierSource records which implementation produced a result. Downstream
// trust decisions key off it.
type ClassifierSource string

const (
	SourceLLM          ClassifierSource = "llm"
	SourceRuleFallback ClassifierSource = "rule_fallback"
)

// Entity is one extracted slot value with its own confidence.
type Entity struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ClassificationResult is the output of the intent classifier for one turn.
type ClassificationResult struct {
	Intent     Intent            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]Entity `json:"entities,omitempty"`
	Source     ClassifierSource  `json:"source"`
}

// ConfidenceBand is the thresholded view of a raw confidence score.
type ConfidenceBand int

const (
	BandLow ConfidenceBand = iota
	BandMedium
	BandHigh
)

func (b ConfidenceBand) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMedium:
		return "medium"
	default:
		return "high"
	}
}
