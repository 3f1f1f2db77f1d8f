package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/airassist/internal/catalog"
	"github.com/Domenick1991/airassist/internal/chat"
	"github.com/Domenick1991/airassist/internal/domain"
	"github.com/Domenick1991/airassist/internal/service/booking"
	"github.com/Domenick1991/airassist/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Search(ctx context.Context, criteria catalog.Criteria) ([]domain.Flight, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Predict(ctx context.Context, id string, date time.Time) (*flights.Prediction, error) {
	args := m.Called(ctx, id, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flights.Prediction), args.Error(1)
}

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) List(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Get(ctx context.Context, ref string) (*domain.Booking, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Book(ctx context.Context, flight domain.Flight, date string) (*booking.Confirmation, error) {
	args := m.Called(ctx, flight, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Confirmation), args.Error(1)
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, ref, reason string) (*domain.Booking, error) {
	args := m.Called(ctx, ref, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) RequestRebook(ctx context.Context, flight domain.Flight) (string, error) {
	args := m.Called(ctx, flight)
	return args.String(0), args.Error(1)
}

func (m *MockBookingUseCase) RedirectURL(flight domain.Flight, date, action string) string {
	return m.Called(flight, date, action).String(0)
}

type MockChatUseCase struct {
	mock.Mock
}

func (m *MockChatUseCase) OpenForSearch(ctx context.Context, criteria catalog.Criteria, selectedID string) (*chat.Session, error) {
	args := m.Called(ctx, criteria, selectedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.Session), args.Error(1)
}

func (m *MockChatUseCase) OpenForBooking(ctx context.Context, ref string) (*chat.Session, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.Session), args.Error(1)
}

func (m *MockChatUseCase) Get(ctx context.Context, id string) (*chat.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.Session), args.Error(1)
}

func (m *MockChatUseCase) Send(ctx context.Context, id, text string) (*chat.Reply, error) {
	args := m.Called(ctx, id, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.Reply), args.Error(1)
}

func (m *MockChatUseCase) Close(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type testServer struct {
	router   *gin.Engine
	flights  *MockFlightUseCase
	bookings *MockBookingUseCase
	chat     *MockChatUseCase
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &testServer{
		flights:  &MockFlightUseCase{},
		bookings: &MockBookingUseCase{},
		chat:     &MockChatUseCase{},
	}
	s.router = NewRouter(s.flights, s.bookings, s.chat, nil)

	t.Cleanup(func() {
		s.flights.AssertExpectations(t)
		s.bookings.AssertExpectations(t)
		s.chat.AssertExpectations(t)
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func testFlight() domain.Flight {
	f, _ := catalog.Find(catalog.Flights(), "AC1601")
	return f
}
