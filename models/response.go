package models

// SafetyCategory is the stable enumeration of content-filter rejection
// reasons surfaced to callers. The UI/voice layer localizes messaging from
// the category alone; raw match data is never exposed.
type SafetyCategory string

const (
	SafetyProfanity        SafetyCategory = "profanity"
	SafetyPIILeak          SafetyCategory = "pii_leak"
	SafetyMaliciousPayload SafetyCategory = "malicious_payload"
	SafetySpamPattern      SafetyCategory = "spam_pattern"
	SafetyInvalidName      SafetyCategory = "invalid_name"
)

// PromptKind tells the response-generation collaborator what to phrase. It is
// never natural language itself.
type PromptKind string

const (
	PromptGreet                  PromptKind = "greet"
	PromptAskSlot                PromptKind = "ask_slot"
	PromptAcknowledgeCorrection  PromptKind = "acknowledge_correction"
	PromptAcknowledgeRepetition  PromptKind = "acknowledge_repetition"
	PromptClarify                PromptKind = "clarify"
	PromptRephrase               PromptKind = "rephrase"
	PromptRedirect               PromptKind = "redirect"
	PromptAnswerQuestion         PromptKind = "answer_question"
	PromptSearching              PromptKind = "searching"
	PromptPresentOptions         PromptKind = "present_options"
	PromptNoFlightsFound         PromptKind = "no_flights_found"
	PromptSearchUnavailable      PromptKind = "search_unavailable"
	PromptConfirmSelection       PromptKind = "confirm_selection"
	PromptRequestPayment         PromptKind = "request_payment"
	PromptPaymentUnavailable     PromptKind = "payment_unavailable"
	PromptBookingComplete        PromptKind = "booking_complete"
	PromptSessionAborted         PromptKind = "session_aborted"
	PromptSessionClosed          PromptKind = "session_closed"
	PromptRetry                  PromptKind = "retry"
)

// FieldCorrection describes one acknowledged overwrite ("you said X instead
// of Y").
type FieldCorrection struct {
	Slot     string `json:"slot"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// ResponseContext is the fact set handed to the external response-generation
// collaborator. It is assembled as a pure function of the turn's inputs.
type ResponseContext struct {
	Stage        Stage             `json:"stage"`
	Prompt       PromptKind        `json:"prompt"`
	NewlyFilled  []string          `json:"newlyFilled,omitempty"`
	Corrected    []FieldCorrection `json:"corrected,omitempty"`
	Repeated     []string          `json:"repeated,omitempty"`
	Outstanding  []string          `json:"outstanding,omitempty"`
	ClarifySlot  string            `json:"clarifySlot,omitempty"`
	SafetyReason SafetyCategory    `json:"safetyReason,omitempty"`
	Flights      []FlightOption    `json:"flights,omitempty"`
	Selected     *FlightOption     `json:"selected,omitempty"`
	Payment      *PaymentIntent    `json:"payment,omitempty"`
	Question     string            `json:"question,omitempty"`
}
