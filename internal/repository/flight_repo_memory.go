package repository

import (
	"context"
	"slices"

	"github.com/Domenick1991/airassist/internal/catalog"
	"github.com/Domenick1991/airassist/internal/domain"
)

// MemoryFlightRepository serves a fixed flight list, by default the static
// catalog.
type MemoryFlightRepository struct {
	flights []domain.Flight
}

func NewMemoryFlightRepository(flights ...domain.Flight) *MemoryFlightRepository {
	if len(flights) == 0 {
		flights = catalog.Flights()
	}
	return &MemoryFlightRepository{flights: slices.Clone(flights)}
}

func (r *MemoryFlightRepository) List(_ context.Context) ([]domain.Flight, error) {
	return slices.Clone(r.flights), nil
}

func (r *MemoryFlightRepository) GetByID(_ context.Context, id string) (*domain.Flight, error) {
	f, ok := catalog.Find(r.flights, id)
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	return &f, nil
}

var _ FlightRepository = (*MemoryFlightRepository)(nil)
