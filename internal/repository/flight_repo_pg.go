package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Domenick1991/airassist/internal/domain"
	"github.com/jackc/pgx/v5"
)

const flightColumns = `id, from_airport, to_airport, departure_time, arrival_time, price, seats`

type PGFlightRepository struct {
	db Querier
}

func NewFlightRepository(db Querier) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY seq, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := scanFlight(rows, &f); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE upper(id)=$1`, strings.ToUpper(strings.TrimSpace(id)))
	var f domain.Flight
	if err := scanFlight(row, &f); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

func scanFlight(row pgx.Row, f *domain.Flight) error {
	return row.Scan(&f.ID, &f.FromAirport, &f.ToAirport, &f.DepartureTime, &f.ArrivalTime, &f.Price, &f.Seats)
}

var _ FlightRepository = (*PGFlightRepository)(nil)
