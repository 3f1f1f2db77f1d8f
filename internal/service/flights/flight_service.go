package flights

import (
	"context"
	"time"

	"github.com/Domenick1991/airassist/internal/catalog"
	"github.com/Domenick1991/airassist/internal/domain"
	"github.com/Domenick1991/airassist/internal/logger"
	"github.com/Domenick1991/airassist/internal/repository"
	"github.com/Domenick1991/airassist/internal/risk"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	Search(ctx context.Context, criteria catalog.Criteria) ([]domain.Flight, error)
	Predict(ctx context.Context, id string, date time.Time) (*Prediction, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
}

type Prediction struct {
	Flight domain.Flight `json:"flight"`
	Risk   domain.Risk   `json:"risk"`
}

type FlightService struct {
	repo  repository.FlightRepository
	cache FlightCache
	log   *logger.Logger
}

// NewFlightService wires the repository with an optional cache; pass nil to
// disable caching.
func NewFlightService(repo repository.FlightRepository, cache FlightCache, log *logger.Logger) *FlightService {
	if log == nil {
		log = logger.Nop()
	}
	return &FlightService{repo: repo, cache: cache, log: log}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx)
		if err != nil {
			s.log.Warn("flights cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.Warn("flights cache write failed", "error", err)
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) Search(ctx context.Context, criteria catalog.Criteria) ([]domain.Flight, error) {
	flights, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Search(flights, criteria), nil
}

// Predict scores the flight for date, or for its departure when date is zero.
func (s *FlightService) Predict(ctx context.Context, id string, date time.Time) (*Prediction, error) {
	f, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Prediction{Flight: *f, Risk: risk.Estimate(*f, date)}, nil
}

var _ FlightUseCase = (*FlightService)(nil)
