package models

// Stage is the current position in the booking conversation. Exactly one
// stage is active per session.
type Stage string

const (
	StageGreeting                Stage = "greeting"
	StageCollectingTripType      Stage = "collecting_trip_type"
	StageCollectingOrigin        Stage = "collecting_origin"
	StageCollectingDestination   Stage = "collecting_destination"
	StageCollectingDates         Stage = "collecting_dates"
	StageCollectingPassengerName Stage = "collecting_passenger_name"
	StageSearchingFlights        Stage = "searching_flights"
	StagePresentingOptions       Stage = "presenting_options"
	StageConfirmingSelection     Stage = "confirming_selection"
	StageCollectingPaymentIntent Stage = "collecting_payment_intent"
	StageBookingComplete         Stage = "booking_complete"
	StageAborted                 Stage = "aborted"
)

// Terminal reports whether the stage accepts no further mutating intents.
func (s Stage) Terminal() bool {
	return s == StageBookingComplete || s == StageAborted
}

// Collecting reports whether the stage is one of the slot-collecting stages.
func (s Stage) Collecting() bool {
	switch s {
	case StageCollectingTripType, StageCollectingOrigin, StageCollectingDestination,
		StageCollectingDates, StageCollectingPassengerName:
		return true
	}
	return false
}
