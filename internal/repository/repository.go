package repository

import (
	"context"

	"github.com/Domenick1991/airassist/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
}

// BookingRepository keeps bookings in insertion order. Bookings are never
// removed.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByRef(ctx context.Context, ref string) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	Cancel(ctx context.Context, ref, reason string) (*domain.Booking, error)
}

// Querier is the subset of *pgxpool.Pool the Postgres repositories use.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
