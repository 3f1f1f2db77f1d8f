package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/airassist/internal/catalog"
	"github.com/Domenick1991/airassist/internal/domain"
	"github.com/Domenick1991/airassist/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func TestFlightService_List_FromCache(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, nil)
	ctx := context.Background()

	cached := []domain.Flight{{ID: "AC1601"}}
	mockCache.On("GetFlights", ctx).Return(cached, nil).Once()

	flights, err := service.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, cached, flights)

	mockRepo.AssertNotCalled(t, "List", ctx)
	mockCache.AssertExpectations(t)
}

func TestFlightService_List_CacheMissFillsCache(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, nil)
	ctx := context.Background()

	stored := catalog.Flights()
	mockCache.On("GetFlights", ctx).Return(nil, nil).Once()
	mockRepo.On("List", ctx).Return(stored, nil).Once()
	mockCache.On("SetFlights", ctx, stored).Return(nil).Once()

	flights, err := service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, flights, 17)

	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestFlightService_List_CacheErrorsAreIgnored(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, nil)
	ctx := context.Background()

	stored := catalog.Flights()
	mockCache.On("GetFlights", ctx).Return(nil, errors.New("redis down")).Once()
	mockRepo.On("List", ctx).Return(stored, nil).Once()
	mockCache.On("SetFlights", ctx, stored).Return(errors.New("redis down")).Once()

	flights, err := service.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, flights)
}

func TestFlightService_List_RepositoryError(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, nil)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return(nil, errors.New("db down")).Once()

	flights, err := service.List(ctx)
	assert.Nil(t, flights)
	assert.EqualError(t, err, "db down")
}

func TestFlightService_Search(t *testing.T) {
	service := NewFlightService(repository.NewMemoryFlightRepository(), nil, nil)
	ctx := context.Background()

	found, err := service.Search(ctx, catalog.Criteria{From: "yyz", To: "yvr", Date: "2025-10-18"})
	require.NoError(t, err)
	require.Len(t, found, 5)
	assert.Equal(t, "AC1801", found[0].ID)

	none, err := service.Search(ctx, catalog.Criteria{From: "YYZ", To: "YUL", Date: "2025-10-18"})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestFlightService_Predict(t *testing.T) {
	service := NewFlightService(repository.NewMemoryFlightRepository(), nil, nil)
	ctx := context.Background()

	p, err := service.Predict(ctx, "AC1601", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "AC1601", p.Flight.ID)
	assert.Equal(t, domain.RiskMedium, p.Risk.Label)
	assert.Equal(t, 51, p.Risk.Percent())

	_, err = service.Predict(ctx, "ZZ0000", time.Time{})
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
}
