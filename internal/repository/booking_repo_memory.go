package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/airassist/internal/domain"
)

type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings []domain.Booking
	byRef    map[string]int
	now      func() time.Time
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		byRef: make(map[string]int),
		now:   time.Now,
	}
}

func refKey(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}

func (r *MemoryBookingRepository) Create(_ context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := refKey(booking.Ref)
	if _, exists := r.byRef[key]; exists {
		return domain.ErrDuplicateRef
	}

	now := r.now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	r.byRef[key] = len(r.bookings)
	r.bookings = append(r.bookings, *booking)
	return nil
}

func (r *MemoryBookingRepository) GetByRef(_ context.Context, ref string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byRef[refKey(ref)]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	b := r.bookings[i]
	return &b, nil
}

func (r *MemoryBookingRepository) List(_ context.Context) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Booking, len(r.bookings))
	copy(out, r.bookings)
	return out, nil
}

func (r *MemoryBookingRepository) Cancel(_ context.Context, ref, reason string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.byRef[refKey(ref)]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	b := &r.bookings[i]
	b.Status = domain.BookingStatusCancelled
	b.CancelReason = reason
	b.UpdatedAt = r.now().UTC()

	out := *b
	return &out, nil
}

var _ BookingRepository = (*MemoryBookingRepository)(nil)
