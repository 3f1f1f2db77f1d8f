// Package email turns booking events into customer notifications. Delivery is
// mocked: the rendered message is written to the log.
package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airassist/internal/kafka"
	"github.com/Domenick1991/airassist/internal/logger"
)

var ErrUnknownEvent = errors.New("unknown event type")

type Sender struct {
	log *logger.Logger
}

func NewSender(log *logger.Logger) *Sender {
	if log == nil {
		log = logger.Nop()
	}
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	subject, body, err := Render(event)
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "notification sent",
		"ref", event.Ref,
		"flight_id", event.FlightID,
		"subject", subject,
		"body", body,
	)
	return nil
}

// Render builds the subject and body for event.
func Render(event kafka.BookingEvent) (string, string, error) {
	route := fmt.Sprintf("%s → %s", event.FromAirport, event.ToAirport)
	departs := event.Departure.UTC().Format("2006-01-02 15:04 UTC")

	switch event.Type {
	case kafka.EventBookingCreated:
		return "Booking " + event.Ref + " confirmed",
			fmt.Sprintf("Flight %s %s departing %s is booked. Complete payment at %s", event.FlightID, route, departs, event.RedirectURL),
			nil
	case kafka.EventBookingCancelled:
		reason := event.CancelReason
		if reason == "" {
			reason = "no reason given"
		}
		return "Booking " + event.Ref + " cancelled",
			fmt.Sprintf("Flight %s %s departing %s was cancelled: %s", event.FlightID, route, departs, reason),
			nil
	case kafka.EventRebookRequested:
		return "Rebooking request " + event.Ref,
			fmt.Sprintf("We received your request to rebook flight %s %s. An agent will follow up shortly.", event.FlightID, route),
			nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownEvent, event.Type)
	}
}
