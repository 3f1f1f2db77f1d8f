package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/airassist/internal/catalog"
	"github.com/Domenick1991/airassist/internal/domain"
	"github.com/Domenick1991/airassist/internal/redirect"
	"github.com/Domenick1991/airassist/internal/repository"
	"github.com/Domenick1991/airassist/internal/service/booking"
	"github.com/Domenick1991/airassist/internal/service/flights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	chat     *ChatService
	bookings *booking.BookingService
	repo     *repository.MemoryBookingRepository
	store    *MemoryStore
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	links, err := redirect.NewBuilder("https://www.aircanada.com/booking")
	require.NoError(t, err)

	repo := repository.NewMemoryBookingRepository()
	require.NoError(t, booking.Seed(context.Background(), repo, booking.DemoBookings()))

	n := 0
	bookings := booking.NewBookingService(repo, links, booking.WithRefGenerators(
		func() string { n++; return fmt.Sprintf("BK-%06d", 500000+n) },
		func() string { return "RB-4321" },
	))
	flightSvc := flights.NewFlightService(repository.NewMemoryFlightRepository(), nil, nil)
	store := NewMemoryStore(time.Hour)

	return &fixture{
		chat:     NewChatService(flightSvc, bookings, store, opts...),
		bookings: bookings,
		repo:     repo,
		store:    store,
	}
}

func (f *fixture) openSearch(t *testing.T, date string) *Session {
	t.Helper()
	sess, err := f.chat.OpenForSearch(context.Background(), catalog.Criteria{From: "YYZ", To: "YVR", Date: date}, "")
	require.NoError(t, err)
	return sess
}

func (f *fixture) send(t *testing.T, sessionID, text string) *Reply {
	t.Helper()
	reply, err := f.chat.Send(context.Background(), sessionID, text)
	require.NoError(t, err)
	return reply
}

func answer(t *testing.T, r *Reply) string {
	t.Helper()
	require.Len(t, r.Messages, 2)
	assert.Equal(t, SenderUser, r.Messages[0].Sender)
	assert.Equal(t, SenderAssistant, r.Messages[1].Sender)
	return r.Messages[1].Text
}

func TestOpenForSearch_Greeting(t *testing.T) {
	f := newFixture(t)
	sess := f.openSearch(t, "2025-10-16")

	assert.Equal(t, ModeSearch, sess.Mode)
	assert.Len(t, sess.Flights, 5)
	require.NotNil(t, sess.Selected)
	assert.Equal(t, "AC1601", sess.Selected.ID)
	assert.Equal(t, "2025-10-16", sess.SearchDate)
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, SenderAssistant, sess.Messages[0].Sender)
	assert.Equal(t, "Chat ready. Commands: predict <id>, suggest day, book <id>.", sess.Messages[0].Text)
}

func TestOpenForSearch_PreselectsRequestedFlight(t *testing.T) {
	f := newFixture(t)
	sess, err := f.chat.OpenForSearch(context.Background(), catalog.Criteria{From: "YYZ", To: "YVR", Date: "2025-10-16"}, "ac1603")
	require.NoError(t, err)
	assert.Equal(t, "AC1603", sess.Selected.ID)
}

func TestOpenForBooking_Modes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	trip, err := f.chat.OpenForBooking(ctx, "BK-123456")
	require.NoError(t, err)
	assert.Equal(t, ModeMyTrip, trip.Mode)
	assert.Len(t, trip.Flights, 2)
	assert.Equal(t, "AC1702", trip.Selected.ID)
	assert.Equal(t, "Chat ready for your trip. Commands: predict <id>, suggest rebook, rebook <id>, request rebook, cancel <bookingRef>.", trip.Messages[0].Text)

	cancelled, err := f.chat.OpenForBooking(ctx, "BK-999999")
	require.NoError(t, err)
	assert.Equal(t, ModeCancelled, cancelled.Mode)
	require.Len(t, cancelled.Flights, 1)
	assert.Equal(t, "ACX999", cancelled.Flights[0].ID)
	assert.Equal(t, "Chat ready for cancelled booking. Commands: refund, rebook <id>.", cancelled.Messages[0].Text)

	_, err = f.chat.OpenForBooking(ctx, "BK-000000")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestSend_Predict(t *testing.T) {
	f := newFixture(t)
	sess := f.openSearch(t, "2025-10-16")

	text := answer(t, f.send(t, sess.ID, "predict AC1601"))
	assert.Equal(t, "Prediction for AC1601: Medium risk (51%). Reason: Mock factors: historical route delays, weather-window and time-of-day for YYZ→YVR.", text)

	text = answer(t, f.send(t, sess.ID, "predict"))
	assert.Contains(t, text, "Prediction for AC1601")

	text = answer(t, f.send(t, sess.ID, "predict ac2002"))
	assert.Contains(t, text, "Prediction for AC2002: Low risk (15%)")

	text = answer(t, f.send(t, sess.ID, "predict ZZ9999"))
	assert.Equal(t, "Flight ZZ9999 not found.", text)
}

func TestSend_PredictWithoutContext(t *testing.T) {
	f := newFixture(t)
	sess, err := f.chat.OpenForSearch(context.Background(), catalog.Criteria{From: "LHR"}, "")
	require.NoError(t, err)
	assert.Empty(t, sess.Flights)

	assert.Equal(t, "No flight selected. Provide a flight id or select one.", answer(t, f.send(t, sess.ID, "predict")))
	assert.Equal(t, "No flights in current list to evaluate.", answer(t, f.send(t, sess.ID, "suggest day")))
	assert.Equal(t, "No flight selected to suggest rebook for.", answer(t, f.send(t, sess.ID, "suggest rebook")))
	assert.Equal(t, "No flight selected to request rebook for.", answer(t, f.send(t, sess.ID, "request rebook")))
	assert.Equal(t, "No flight selected. Provide a flight id or select one.", answer(t, f.send(t, sess.ID, "book")))
}

func TestSend_PredictBookingOnlyFlight(t *testing.T) {
	f := newFixture(t)
	sess := f.openSearch(t, "2025-10-16")

	text := answer(t, f.send(t, sess.ID, "predict ACX999"))
	assert.Contains(t, text, "Prediction for ACX999: Medium risk (50%)")
}

func TestSend_SuggestDay(t *testing.T) {
	f := newFixture(t)

	sess := f.openSearch(t, "2025-10-16")
	assert.Equal(t, "Suggestion: AC1601 at 06:00 is lowest risk (Medium, 51%).", answer(t, f.send(t, sess.ID, "suggest day")))

	sess = f.openSearch(t, "2025-10-17")
	assert.Equal(t, "Suggestion: AC1701 at 05:30 is lowest risk (Medium, 44%).", answer(t, f.send(t, sess.ID, "suggest a day")))
}

func TestSend_SuggestDayUsesLocation(t *testing.T) {
	toronto, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)

	f := newFixture(t, WithLocation(toronto))
	sess := f.openSearch(t, "2025-10-16")

	assert.Equal(t, "Suggestion: AC1601 at 02:00 is lowest risk (Medium, 51%).", answer(t, f.send(t, sess.ID, "suggest day")))
}

func TestSend_SuggestRebook(t *testing.T) {
	f := newFixture(t)
	sess, err := f.chat.OpenForBooking(context.Background(), "BK-123456")
	require.NoError(t, err)

	expected := "Suggested alternatives:\n" +
		"- AC1601 • Dep 06:00 • CAD 359\n" +
		"- AC1602 • Dep 09:00 • CAD 379\n" +
		"- AC1603 • Dep 12:00 • CAD 399\n" +
		"Reply with 'rebook <flightId>' to proceed (this will redirect you)."
	assert.Equal(t, expected, answer(t, f.send(t, sess.ID, "suggest rebook")))
}

func TestSend_SuggestRebookNoAlternatives(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	conf, err := f.bookings.Book(ctx, domain.Flight{ID: "AC9000", FromAirport: "YYZ", ToAirport: "YOW"}, "")
	require.NoError(t, err)
	sess, err := f.chat.OpenForBooking(ctx, conf.Booking.Ref)
	require.NoError(t, err)

	assert.Equal(t, "No alternative flights available in mock data.", answer(t, f.send(t, sess.ID, "suggest rebook")))
}

func TestSend_BookAppendsBookingAndClosesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.openSearch(t, "2025-10-16")

	before, _ := f.repo.List(ctx)

	reply := f.send(t, sess.ID, "book AC1602")
	assert.Equal(t, "Redirecting to Air Canada booking for AC1602.", answer(t, reply))
	assert.True(t, reply.Closed)
	assert.Equal(t, "https://www.aircanada.com/booking?flight=AC1602&from=YYZ&to=YVR&date=2025-10-16", reply.RedirectURL)
	require.NotNil(t, reply.Booking)
	assert.Equal(t, domain.BookingStatusBooked, reply.Booking.Status)
	assert.Equal(t, "BK-500001", reply.Booking.Ref)

	after, _ := f.repo.List(ctx)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, "AC1602", after[len(after)-1].ID)

	_, err := f.chat.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSend_BookSelectedAndUnknown(t *testing.T) {
	f := newFixture(t)
	sess := f.openSearch(t, "2025-10-16")

	assert.Equal(t, "Flight AC0000 not found.", answer(t, f.send(t, sess.ID, "book AC0000")))

	reply := f.send(t, sess.ID, "book")
	assert.Equal(t, "Redirecting to Air Canada booking for AC1601.", answer(t, reply))
	assert.True(t, reply.Closed)
}

func TestSend_Select(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.openSearch(t, "2025-10-16")

	assert.Equal(t, "Selected AC1604 in chat.", answer(t, f.send(t, sess.ID, "select ac1604")))
	assert.Contains(t, answer(t, f.send(t, sess.ID, "predict")), "Prediction for AC1604")
	assert.Equal(t, "Flight NOPE not found.", answer(t, f.send(t, sess.ID, "select NOPE")))

	stored, err := f.chat.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "AC1604", stored.Selected.ID)
}

func TestSend_Rebook(t *testing.T) {
	f := newFixture(t)
	sess, err := f.chat.OpenForBooking(context.Background(), "BK-999999")
	require.NoError(t, err)

	assert.Equal(t, "Please navigate to the Before Booking page to book a new trip", answer(t, f.send(t, sess.ID, "rebook")))
	assert.Equal(t, "Flight XX1 not found.", answer(t, f.send(t, sess.ID, "rebook XX1")))

	reply := f.send(t, sess.ID, "rebook AC1801")
	assert.Equal(t, "Redirecting to booking portal for AC1801.", answer(t, reply))
	assert.True(t, reply.Closed)
	assert.Nil(t, reply.Booking)
	assert.Equal(t, "https://www.aircanada.com/booking?flight=AC1801&from=YYZ&to=YVR&date=2025-10-18&action=rebook", reply.RedirectURL)
}

func TestSend_RequestRebook(t *testing.T) {
	f := newFixture(t)
	sess, err := f.chat.OpenForBooking(context.Background(), "BK-123456")
	require.NoError(t, err)

	reply := f.send(t, sess.ID, "request rebook")
	assert.Equal(t, "Rebook request created for AC1702. Request ref: RB-4321. An agent will follow up.", answer(t, reply))
	assert.False(t, reply.Closed)
}

func TestSend_CancelSelectedBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conf, err := f.bookings.Book(ctx, catalog.Flights()[0], "")
	require.NoError(t, err)

	sess, err := f.chat.OpenForBooking(ctx, "BK-123456")
	require.NoError(t, err)

	reply := f.send(t, sess.ID, "cancel")
	assert.Equal(t, "Booking BK-123456 cancelled (mock).", answer(t, reply))
	require.NotNil(t, reply.Booking)
	assert.Equal(t, booking.ReasonChatCancel, reply.Booking.CancelReason)

	cancelled, err := f.bookings.Get(ctx, "BK-123456")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)

	other, err := f.bookings.Get(ctx, conf.Booking.Ref)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusBooked, other.Status)

	assert.Equal(t, "Booking BK-123456 is already cancelled.", answer(t, f.send(t, sess.ID, "cancel BK-123456")))
}

func TestSend_CancelByRef(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.bookings.Book(ctx, catalog.Flights()[0], "")
	require.NoError(t, err)

	sess, err := f.chat.OpenForBooking(ctx, first.Booking.Ref)
	require.NoError(t, err)

	assert.Equal(t, "Booking BK-404404 not found.", answer(t, f.send(t, sess.ID, "cancel BK-404404")))

	all, _ := f.repo.List(ctx)
	for _, b := range all {
		if b.Ref == "BK-999999" {
			continue
		}
		assert.Equal(t, domain.BookingStatusBooked, b.Status, b.Ref)
	}

	assert.Equal(t, "Booking BK-123456 cancelled (mock).", answer(t, f.send(t, sess.ID, "cancel BK-123456")))
}

func TestSend_CancelFallsBackToFirstBooking(t *testing.T) {
	f := newFixture(t)
	sess := f.openSearch(t, "2025-10-18")

	assert.Equal(t, "Booking BK-123456 cancelled (mock).", answer(t, f.send(t, sess.ID, "cancel")))
}

func TestSend_CancelWithoutAnything(t *testing.T) {
	links, err := redirect.NewBuilder("https://www.aircanada.com/booking")
	require.NoError(t, err)
	bookings := booking.NewBookingService(repository.NewMemoryBookingRepository(), links)
	flightSvc := flights.NewFlightService(repository.NewMemoryFlightRepository(), nil, nil)
	svc := NewChatService(flightSvc, bookings, NewMemoryStore(0))

	sess, err := svc.OpenForSearch(context.Background(), catalog.Criteria{From: "LHR"}, "")
	require.NoError(t, err)

	reply, err := svc.Send(context.Background(), sess.ID, "cancel")
	require.NoError(t, err)
	assert.Equal(t, "No booking reference provided or selected. Provide 'cancel <bookingRef>'.", reply.Messages[1].Text)
}

func TestSend_RefundAndFallback(t *testing.T) {
	f := newFixture(t)
	sess, err := f.chat.OpenForBooking(context.Background(), "BK-999999")
	require.NoError(t, err)

	assert.Equal(t, replyRefundPolicy, answer(t, f.send(t, sess.ID, "refund policy")))
	assert.Equal(t, replyRefundPolicy, answer(t, f.send(t, sess.ID, "what's the POLICY?")))
	assert.Equal(t, replyFallback, answer(t, f.send(t, sess.ID, "hello there")))
}

func TestSend_EmptyInputIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.openSearch(t, "2025-10-16")

	reply := f.send(t, sess.ID, "   ")
	assert.Equal(t, KindEmpty, reply.Command.Kind)
	assert.Empty(t, reply.Messages)

	stored, err := f.chat.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 1)
}

func TestSend_MessagesAreAppendOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.openSearch(t, "2025-10-16")

	f.send(t, sess.ID, "predict AC1601")
	f.send(t, sess.ID, "  suggest day ")

	stored, err := f.chat.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 5)
	assert.Equal(t, sess.Messages[0].ID, stored.Messages[0].ID)
	assert.Equal(t, "predict AC1601", stored.Messages[1].Text)
	assert.Equal(t, "suggest day", stored.Messages[3].Text)

	seen := map[string]bool{}
	for _, m := range stored.Messages {
		assert.False(t, seen[m.ID], "duplicate message id %s", m.ID)
		seen[m.ID] = true
	}
}

func TestCloseAndReopenResetsLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess := f.openSearch(t, "2025-10-16")
	f.send(t, sess.ID, "predict AC1601")
	f.send(t, sess.ID, "suggest day")

	require.NoError(t, f.chat.Close(ctx, sess.ID))
	_, err := f.chat.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = f.chat.Send(ctx, sess.ID, "predict")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	reopened := f.openSearch(t, "2025-10-16")
	assert.NotEqual(t, sess.ID, reopened.ID)
	require.Len(t, reopened.Messages, 1)
	assert.Equal(t, greeting(ModeSearch), reopened.Messages[0].Text)

	assert.NoError(t, f.chat.Close(ctx, "never-opened"))
}

func TestSend_TypingDelayHonoursContext(t *testing.T) {
	f := newFixture(t, WithTypingDelay(time.Hour))
	sess := f.openSearch(t, "2025-10-16")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.chat.Send(ctx, sess.ID, "predict")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	stored, err := f.chat.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 1)
}

func TestSend_TypingDelayWaits(t *testing.T) {
	f := newFixture(t, WithTypingDelay(20*time.Millisecond))
	sess := f.openSearch(t, "2025-10-16")

	start := time.Now()
	f.send(t, sess.ID, "refund")
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func locksHeld(s *ChatService) int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}

func TestSend_AbandonedSessionsLeaveNothingBehind(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2025, 10, 16, 12, 0, 0, 0, time.UTC)
	f.store.now = func() time.Time { return now }

	for i := 0; i < 500; i++ {
		sess := f.openSearch(t, "2025-10-16")
		f.send(t, sess.ID, "predict")
	}
	assert.Zero(t, locksHeld(f.chat))

	now = now.Add(48 * time.Hour)
	f.openSearch(t, "2025-10-17")
	assert.Len(t, f.store.entries, 1)
}

func TestSend_ConcurrentMessagesReleaseLock(t *testing.T) {
	f := newFixture(t)
	sess := f.openSearch(t, "2025-10-16")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.chat.Send(context.Background(), sess.ID, "refund")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Zero(t, locksHeld(f.chat))
	stored, err := f.chat.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 41)
}
