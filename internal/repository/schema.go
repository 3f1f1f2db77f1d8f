package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airassist/internal/domain"
	"github.com/jackc/pgx/v5"
)

const schema = `
CREATE TABLE IF NOT EXISTS flights (
	seq            INTEGER NOT NULL DEFAULT 0,
	id             TEXT PRIMARY KEY,
	from_airport   TEXT NOT NULL,
	to_airport     TEXT NOT NULL,
	departure_time TIMESTAMPTZ NOT NULL,
	arrival_time   TIMESTAMPTZ NOT NULL,
	price          TEXT NOT NULL,
	seats          INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
	seq            BIGSERIAL,
	ref            TEXT PRIMARY KEY,
	flight_id      TEXT NOT NULL,
	from_airport   TEXT NOT NULL,
	to_airport     TEXT NOT NULL,
	departure_time TIMESTAMPTZ NOT NULL,
	arrival_time   TIMESTAMPTZ NOT NULL,
	price          TEXT NOT NULL,
	seats          INTEGER NOT NULL DEFAULT 0,
	status         TEXT NOT NULL,
	cancel_reason  TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

ALTER TABLE flights ADD COLUMN IF NOT EXISTS seq INTEGER NOT NULL DEFAULT 0;`

// Beginner is satisfied by *pgxpool.Pool.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Migrate creates the tables and upserts the given flights in a single
// transaction. A flight's seq is its position in flights, which is the order
// List returns.
func Migrate(ctx context.Context, db Beginner, flights []domain.Flight) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	batch := &pgx.Batch{}
	for i, f := range flights {
		batch.Queue(`INSERT INTO flights (seq, `+flightColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET seq=EXCLUDED.seq, from_airport=EXCLUDED.from_airport, to_airport=EXCLUDED.to_airport,
			departure_time=EXCLUDED.departure_time, arrival_time=EXCLUDED.arrival_time, price=EXCLUDED.price, seats=EXCLUDED.seats`,
			i, f.ID, f.FromAirport, f.ToAirport, f.DepartureTime, f.ArrivalTime, f.Price, f.Seats)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed flights: %w", err)
	}

	return tx.Commit(ctx)
}
