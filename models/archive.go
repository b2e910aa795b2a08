package models

import "time"

// Archive statuses.
const (
	ArchiveStatusCompleted = "completed"
	ArchiveStatusAbandoned = "abandoned"
)

// CompletedBooking is the document archived once a session reaches
// booking_complete (or is swept as abandoned). The live booking record is
// never persisted; this is an after-the-fact copy for audit and reporting.
type CompletedBooking struct {
	ID              string        `bson:"id" json:"id"`
	SessionID       string        `bson:"sessionId" json:"sessionId"`
	PassengerName   string        `bson:"passengerName" json:"passengerName"`
	Origin          string        `bson:"origin" json:"origin"`
	Destination     string        `bson:"destination" json:"destination"`
	TripType        string        `bson:"tripType" json:"tripType"`
	DepartureDate   string        `bson:"departureDate" json:"departureDate"`
	ReturnDate      string        `bson:"returnDate,omitempty" json:"returnDate,omitempty"`
	CabinClass      string        `bson:"cabinClass,omitempty" json:"cabinClass,omitempty"`
	Flight          *FlightOption `bson:"flight,omitempty" json:"flight,omitempty"`
	PaymentIntentID string        `bson:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	Status          string        `bson:"status" json:"status"`
	Turns           int           `bson:"turns" json:"turns"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt" json:"updatedAt"`
}
