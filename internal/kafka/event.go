package kafka

import "time"

const (
	EventBookingCreated   = "booking_created"
	EventBookingCancelled = "booking_cancelled"
	EventRebookRequested  = "rebook_requested"
)

// BookingEvent is the JSON payload written to the booking topics.
type BookingEvent struct {
	Type         string    `json:"type"`
	Ref          string    `json:"ref"`
	FlightID     string    `json:"flight_id"`
	FromAirport  string    `json:"from"`
	ToAirport    string    `json:"to"`
	Departure    time.Time `json:"departure_time"`
	Status       string    `json:"status,omitempty"`
	CancelReason string    `json:"cancel_reason,omitempty"`
	RedirectURL  string    `json:"redirect_url,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
