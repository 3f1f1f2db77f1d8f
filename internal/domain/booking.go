package domain

import "time"

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "Booked"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

// Booking embeds the flight it was made on. Records are never deleted;
// cancellation only flips Status and sets CancelReason.
type Booking struct {
	Flight
	Ref          string        `json:"booking_ref"`
	Status       BookingStatus `json:"status"`
	CancelReason string        `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (b Booking) Cancelled() bool {
	return b.Status == BookingStatusCancelled
}
