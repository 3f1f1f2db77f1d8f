package booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Domenick1991/airassist/internal/domain"
	"github.com/Domenick1991/airassist/internal/kafka"
	"github.com/Domenick1991/airassist/internal/logger"
	"github.com/Domenick1991/airassist/internal/redirect"
	"github.com/Domenick1991/airassist/internal/repository"
)

const (
	ReasonChatCancel = "Cancelled via chat (mock)"
	ReasonDefault    = "Cancelled by customer (mock)"
	maxRefAttempts   = 5
	bookingRefPrefix = "BK-"
	rebookRefPrefix  = "RB-"
)

type BookingUseCase interface {
	List(ctx context.Context) ([]domain.Booking, error)
	Get(ctx context.Context, ref string) (*domain.Booking, error)
	Book(ctx context.Context, flight domain.Flight, date string) (*Confirmation, error)
	Cancel(ctx context.Context, ref, reason string) (*domain.Booking, error)
	RequestRebook(ctx context.Context, flight domain.Flight) (string, error)
	RedirectURL(flight domain.Flight, date, action string) string
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
	PublishWithRetry(ctx context.Context, topic, key string, value any, maxRetries int) error
}

// Confirmation is a new booking plus the booking-site link to hand the
// customer.
type Confirmation struct {
	Booking     domain.Booking `json:"booking"`
	RedirectURL string         `json:"redirect_url"`
}

type BookingService struct {
	bookings           repository.BookingRepository
	links              *redirect.Builder
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	publishRetries     int
	log                *logger.Logger
	newBookingRef      func() string
	newRebookRef       func() string
	now                func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithProducer(producer Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithPublishRetries retries booking_created and booking_cancelled events up
// to n attempts. Rebook requests are published once.
func WithPublishRetries(n int) BookingServiceOption {
	return func(s *BookingService) {
		s.publishRetries = n
	}
}

func WithLogger(log *logger.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

// WithRefGenerators overrides the random reference generators.
func WithRefGenerators(booking, rebook func() string) BookingServiceOption {
	return func(s *BookingService) {
		if booking != nil {
			s.newBookingRef = booking
		}
		if rebook != nil {
			s.newRebookRef = rebook
		}
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	links *redirect.Builder,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:      bookings,
		links:         links,
		log:           logger.Nop(),
		newBookingRef: RandomBookingRef,
		newRebookRef:  RandomRebookRef,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// RandomBookingRef returns BK- followed by six digits.
func RandomBookingRef() string {
	return fmt.Sprintf("%s%d", bookingRefPrefix, 100000+rand.Intn(900000))
}

// RandomRebookRef returns RB- followed by four digits.
func RandomRebookRef() string {
	return fmt.Sprintf("%s%d", rebookRefPrefix, 1000+rand.Intn(9000))
}

func (s *BookingService) List(ctx context.Context) ([]domain.Booking, error) {
	return s.bookings.List(ctx)
}

func (s *BookingService) Get(ctx context.Context, ref string) (*domain.Booking, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, domain.ErrBookingNotFound
	}
	return s.bookings.GetByRef(ctx, ref)
}

// Book records a new Booked reservation on flight. date is the search date
// used for the redirect link; empty means the departure date.
func (s *BookingService) Book(ctx context.Context, flight domain.Flight, date string) (*Confirmation, error) {
	if strings.TrimSpace(flight.ID) == "" {
		return nil, errors.New("flight id is required")
	}

	booking := &domain.Booking{
		Flight: flight,
		Status: domain.BookingStatusBooked,
	}

	var err error
	for attempt := 0; attempt < maxRefAttempts; attempt++ {
		booking.Ref = s.newBookingRef()
		err = s.bookings.Create(ctx, booking)
		if !errors.Is(err, domain.ErrDuplicateRef) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	link := s.RedirectURL(flight, date, "")
	s.log.Info("booking created", "ref", booking.Ref, "flight", flight.ID)
	if err := s.publish(ctx, kafka.EventBookingCreated, booking, link); err != nil {
		s.log.Warn("failed to publish booking event", "type", kafka.EventBookingCreated, "ref", booking.Ref, "error", err)
	}

	return &Confirmation{Booking: *booking, RedirectURL: link}, nil
}

// Cancel marks the booking cancelled. Cancelling twice returns the booking
// unchanged.
func (s *BookingService) Cancel(ctx context.Context, ref, reason string) (*domain.Booking, error) {
	current, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if current.Cancelled() {
		return current, nil
	}
	if reason == "" {
		reason = ReasonDefault
	}

	updated, err := s.bookings.Cancel(ctx, current.Ref, reason)
	if err != nil {
		return nil, err
	}

	s.log.Info("booking cancelled", "ref", updated.Ref, "reason", reason)
	if err := s.publish(ctx, kafka.EventBookingCancelled, updated, ""); err != nil {
		s.log.Warn("failed to publish booking event", "type", kafka.EventBookingCancelled, "ref", updated.Ref, "error", err)
	}
	return updated, nil
}

// RequestRebook issues a request reference for an agent follow-up. Nothing
// else acts on it.
func (s *BookingService) RequestRebook(ctx context.Context, flight domain.Flight) (string, error) {
	if strings.TrimSpace(flight.ID) == "" {
		return "", errors.New("flight id is required")
	}

	ref := s.newRebookRef()
	s.log.Info("rebook requested", "request_ref", ref, "flight", flight.ID)
	if err := s.publish(ctx, kafka.EventRebookRequested, &domain.Booking{Flight: flight, Ref: ref}, ""); err != nil {
		s.log.Warn("failed to publish booking event", "type", kafka.EventRebookRequested, "ref", ref, "error", err)
	}
	return ref, nil
}

func (s *BookingService) RedirectURL(flight domain.Flight, date, action string) string {
	return s.links.URL(flight, date, action)
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, link string) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		Type:         eventType,
		Ref:          booking.Ref,
		FlightID:     booking.ID,
		FromAirport:  booking.FromAirport,
		ToAirport:    booking.ToAirport,
		Departure:    booking.DepartureTime,
		Status:       string(booking.Status),
		CancelReason: booking.CancelReason,
		RedirectURL:  link,
		OccurredAt:   s.now().UTC(),
	}
	send := s.producer.Publish
	if s.publishRetries > 1 && eventType != kafka.EventRebookRequested {
		send = func(ctx context.Context, topic, key string, value any) error {
			return s.producer.PublishWithRetry(ctx, topic, key, value, s.publishRetries)
		}
	}

	if err := send(ctx, s.bookingTopic, booking.Ref, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return send(ctx, s.notificationsTopic, booking.Ref, event)
	}
	return nil
}

var (
	_ BookingUseCase = (*BookingService)(nil)
	_ Producer       = (*kafka.Producer)(nil)
)
