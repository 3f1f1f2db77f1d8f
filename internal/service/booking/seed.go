package booking

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/airassist/internal/catalog"
	"github.com/Domenick1991/airassist/internal/domain"
	"github.com/Domenick1991/airassist/internal/repository"
)

// DemoBookings are the two trips shown on first start: one active, one
// cancelled by the airline.
func DemoBookings() []domain.Booking {
	active, _ := catalog.Find(catalog.Flights(), "AC1702")
	return []domain.Booking{
		{
			Flight: active,
			Ref:    "BK-123456",
			Status: domain.BookingStatusBooked,
		},
		{
			Flight: domain.Flight{
				ID:            "ACX999",
				FromAirport:   "YYZ",
				ToAirport:     "YVR",
				DepartureTime: time.Date(2025, 10, 16, 9, 0, 0, 0, time.UTC),
				Price:         "CAD 399",
			},
			Ref:          "BK-999999",
			Status:       domain.BookingStatusCancelled,
			CancelReason: "Severe storm — automatic cancellation",
		},
	}
}

// Seed inserts bookings that are not present yet.
func Seed(ctx context.Context, repo repository.BookingRepository, bookings []domain.Booking) error {
	for i := range bookings {
		b := bookings[i]
		if err := repo.Create(ctx, &b); err != nil && !errors.Is(err, domain.ErrDuplicateRef) {
			return err
		}
	}
	return nil
}
