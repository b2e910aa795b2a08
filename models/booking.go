package models

import "time"

// TripType enumerates the supported itinerary shapes.
type TripType string

const (
	TripOneWay    TripType = "one_way"
	TripRoundTrip TripType = "round_trip"
	TripMultiCity TripType = "multi_city"
)

// CabinClass enumerates the supported cabins.
type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium_economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

// FieldSource records how a slot value entered the record.
type FieldSource string

const (
	SourceUserStated FieldSource = "user_stated"
	SourceInferred   FieldSource = "inferred"
)

// Speaker identifies who produced a conversation turn.
type Speaker string

const (
	SpeakerUser   Speaker = "user"
	SpeakerSystem Speaker = "system"
)

// Slot names used across classification entities and the booking record.
const (
	SlotTripType      = "trip_type"
	SlotOrigin        = "origin_city"
	SlotDestination   = "destination_city"
	SlotDepartureDate = "departure_date"
	SlotReturnDate    = "return_date"
	SlotCabinClass    = "cabin_class"
	SlotPassengerName = "passenger_name"
)

// SlotValue is one field of the booking record: the value itself plus the
// confidence and provenance needed for correction and clarification handling.
// Dates are stored as ISO calendar dates (2006-01-02).
type SlotValue struct {
	Value        string      `json:"value"`
	Confidence   float64     `json:"confidence"`
	Source       FieldSource `json:"source"`
	LowConfident bool        `json:"lowConfident,omitempty"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Filled reports whether the slot holds a value.
func (s SlotValue) Filled() bool { return s.Value != "" }

// PassengerInfo holds the traveller's name fields. FullName is the captured
// slot; given/family are derived from it with the same confidence and source.
type PassengerInfo struct {
	FullName   SlotValue `json:"fullName"`
	GivenName  SlotValue `json:"givenName"`
	FamilyName SlotValue `json:"familyName"`
}

// TripDetails holds the itinerary slots.
type TripDetails struct {
	Origin        SlotValue `json:"origin"`
	Destination   SlotValue `json:"destination"`
	TripType      SlotValue `json:"tripType"`
	DepartureDate SlotValue `json:"departureDate"`
	ReturnDate    SlotValue `json:"returnDate"`
	CabinClass    SlotValue `json:"cabinClass"`
}

// ConversationTurn is one utterance in the session history.
type ConversationTurn struct {
	Speaker   Speaker   `json:"speaker"`
	Utterance string    `json:"utterance"`
	At        time.Time `json:"at"`
}

// BookingRecord is the session's accumulated reservation state. It is created
// empty at session start, mutated only by the state machine, and discarded
// when the session ends.
type BookingRecord struct {
	Passenger      PassengerInfo      `json:"passenger"`
	Trip           TripDetails        `json:"trip"`
	History        []ConversationTurn `json:"conversationHistory"`
	SelectedFlight *FlightOption      `json:"selectedFlight,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// Slot returns a pointer to the record field for the given slot name, or nil
// for unknown slots. Passenger name is exposed as a single slot; the setter
// keeps given/family in sync.
func (r *BookingRecord) Slot(name string) *SlotValue {
	switch name {
	case SlotTripType:
		return &r.Trip.TripType
	case SlotOrigin:
		return &r.Trip.Origin
	case SlotDestination:
		return &r.Trip.Destination
	case SlotDepartureDate:
		return &r.Trip.DepartureDate
	case SlotReturnDate:
		return &r.Trip.ReturnDate
	case SlotCabinClass:
		return &r.Trip.CabinClass
	case SlotPassengerName:
		return &r.Passenger.FullName
	default:
		return nil
	}
}

// AppendTurn adds an utterance to the conversation history.
func (r *BookingRecord) AppendTurn(speaker Speaker, utterance string, at time.Time) {
	r.History = append(r.History, ConversationTurn{Speaker: speaker, Utterance: utterance, At: at})
	r.UpdatedAt = at
}

// RecentHistory returns up to n most recent turns, oldest first. The full
// history stays on the record; this bounds the classifier-context payload.
func (r *BookingRecord) RecentHistory(n int) []ConversationTurn {
	if len(r.History) <= n {
		return r.History
	}
	return r.History[len(r.History)-n:]
}

// RecordSummary is the caller-facing view of the record returned with each
// turn outcome.
type RecordSummary struct {
	Filled         map[string]SlotValue `json:"filled"`
	Outstanding    []string             `json:"outstanding"`
	SelectedFlight *FlightOption        `json:"selectedFlight,omitempty"`
	Turns          int                  `json:"turns"`
}
