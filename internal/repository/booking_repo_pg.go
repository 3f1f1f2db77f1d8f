package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/airassist/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	bookingColumns = `ref, flight_id, from_airport, to_airport, departure_time, arrival_time, price, seats, status, cancel_reason, created_at, updated_at`

	uniqueViolation = "23505"
)

type PGBookingRepository struct {
	db Querier
}

func NewBookingRepository(db Querier) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (ref, flight_id, from_airport, to_airport, departure_time, arrival_time, price, seats, status, cancel_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		booking.Ref, booking.ID, booking.FromAirport, booking.ToAirport, booking.DepartureTime, booking.ArrivalTime,
		booking.Price, booking.Seats, booking.Status, booking.CancelReason).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateRef
		}
		return err
	}
	return nil
}

func (r *PGBookingRepository) GetByRef(ctx context.Context, ref string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE ref=$1`, refKey(ref))
	return scanBookingRow(row)
}

func (r *PGBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) Cancel(ctx context.Context, ref, reason string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, cancel_reason=$2, updated_at=now() WHERE ref=$3 RETURNING `+bookingColumns,
		domain.BookingStatusCancelled, reason, refKey(ref))
	return scanBookingRow(row)
}

func scanBookingRow(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func scanBooking(row pgx.Row, b *domain.Booking) error {
	return row.Scan(&b.Ref, &b.ID, &b.FromAirport, &b.ToAirport, &b.DepartureTime, &b.ArrivalTime,
		&b.Price, &b.Seats, &b.Status, &b.CancelReason, &b.CreatedAt, &b.UpdatedAt)
}

var _ BookingRepository = (*PGBookingRepository)(nil)
