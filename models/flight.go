package models

import "time"

// FlightQuery is the request sent to the flight-search collaborator.
type FlightQuery struct {
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	DepartureDate string     `json:"departureDate"`
	ReturnDate    string     `json:"returnDate,omitempty"`
	TripType      TripType   `json:"tripType"`
	CabinClass    CabinClass `json:"cabinClass,omitempty"`
}

// FlightOption is one result from the flight-search collaborator.
type FlightOption struct {
	ID           string    `json:"id"`
	Carrier      string    `json:"carrier"`
	FlightNumber string    `json:"flightNumber"`
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	Departure    time.Time `json:"departure"`
	Arrival      time.Time `json:"arrival"`
	Stops        int       `json:"stops"`
	Price        float64   `json:"price"`
	Currency     string    `json:"currency"`
	Synthetic    bool      `json:"synthetic,omitempty"`
}

// PaymentIntent is the caller-facing view of a created payment intent.
type PaymentIntent struct {
	ID           string  `json:"id"`
	ClientSecret string  `json:"clientSecret,omitempty"`
	Amount       int64   `json:"amount"`
	Currency     string  `json:"currency"`
	Status       string  `json:"status"`
}
