package models

import "time"

// Clarification marks a pending disambiguation question. It is the parallel
// clarification sub-state: the main stage stays put while it is set, and the
// tentative value is committed only once the user confirms it.
type Clarification struct {
	Slot   string `json:"slot,omitempty"`
	Intent Intent `json:"intent,omitempty"`
	Value  string `json:"value,omitempty"`
}

// DialogSession wraps one booking conversation: the active stage, the booking
// record, and the flight options currently on the table. Sessions are
// independent; turns within a session are processed strictly sequentially.
type DialogSession struct {
	SessionID       string         `json:"sessionId"`
	Stage           Stage          `json:"stage"`
	Record          BookingRecord  `json:"record"`
	Pending         *Clarification `json:"pendingClarification,omitempty"`
	Options         []FlightOption `json:"options,omitempty"`
	PaymentIntentID string         `json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	LastActivityAt  time.Time      `json:"lastActivityAt"`
}

// TurnOutcome is the inbound-turn boundary response: the stage after the
// turn, the response context for generation, and a record summary.
type TurnOutcome struct {
	SessionID string          `json:"sessionId"`
	Stage     Stage           `json:"stage"`
	Response  ResponseContext `json:"responseContext"`
	Record    RecordSummary   `json:"record"`
}
