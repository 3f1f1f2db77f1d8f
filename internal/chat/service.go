// Package chat runs the assistant conversation: it opens a session for a
// search or a booking, parses each line into a Command and answers with a
// canned reply, booking, cancelling or redirecting along the way.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/airassist/internal/catalog"
	"github.com/Domenick1991/airassist/internal/domain"
	"github.com/Domenick1991/airassist/internal/logger"
	"github.com/Domenick1991/airassist/internal/redirect"
	"github.com/Domenick1991/airassist/internal/risk"
	"github.com/Domenick1991/airassist/internal/service/booking"
	"github.com/Domenick1991/airassist/internal/service/flights"
	"github.com/google/uuid"
)

const (
	alternativesShown = 3

	replyNoFlightSelected = "No flight selected. Provide a flight id or select one."
	replyRefundPolicy     = "Refund policy (summary): Refunds depend on fare class and disruption reason. Processing 3-7 business days typically. For full details visit Air Canada site."
	replyFallback         = "Please navigate to the Before Booking page to book a new trip"
)

type ChatUseCase interface {
	OpenForSearch(ctx context.Context, criteria catalog.Criteria, selectedID string) (*Session, error)
	OpenForBooking(ctx context.Context, ref string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Send(ctx context.Context, id, text string) (*Reply, error)
	Close(ctx context.Context, id string) error
}

// Reply is the outcome of one Send. Closed is set when the command ended the
// session (book and rebook hand the customer off to the booking site).
type Reply struct {
	SessionID   string          `json:"session_id"`
	Command     Command         `json:"command"`
	Messages    []Message       `json:"messages"`
	RedirectURL string          `json:"redirect_url,omitempty"`
	Booking     *domain.Booking `json:"booking,omitempty"`
	Closed      bool            `json:"closed"`
}

type ChatService struct {
	flights     flights.FlightUseCase
	bookings    booking.BookingUseCase
	store       SessionStore
	log         *logger.Logger
	typingDelay time.Duration
	loc         *time.Location
	now         func() time.Time
	newID       func() string

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

// sessionLock is dropped from ChatService.locks once nobody holds or waits
// for it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

type Option func(*ChatService)

// WithTypingDelay pauses before each assistant reply.
func WithTypingDelay(d time.Duration) Option {
	return func(s *ChatService) {
		s.typingDelay = d
	}
}

// WithLocation sets the zone used to print departure times.
func WithLocation(loc *time.Location) Option {
	return func(s *ChatService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(s *ChatService) {
		if log != nil {
			s.log = log
		}
	}
}

func NewChatService(flights flights.FlightUseCase, bookings booking.BookingUseCase, store SessionStore, opts ...Option) *ChatService {
	s := &ChatService{
		flights:  flights,
		bookings: bookings,
		store:    store,
		log:      logger.Nop(),
		loc:      time.UTC,
		now:      time.Now,
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
		locks:    make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenForSearch starts a "before booking" chat over the search results. The
// flight named by selectedID is preselected when present, else the first
// result.
func (s *ChatService) OpenForSearch(ctx context.Context, criteria catalog.Criteria, selectedID string) (*Session, error) {
	results, err := s.flights.Search(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("search flights: %w", err)
	}

	sess := s.newSession(ModeSearch, results)
	sess.SearchDate = criteria.Normalize().Date
	if f, ok := catalog.Find(results, selectedID); ok {
		sess.Selected = &f
	} else if len(results) > 0 {
		sess.Selected = &results[0]
	}
	return s.open(ctx, sess)
}

// OpenForBooking starts a chat about a trip. A cancelled booking gets the
// cancelled flow with only itself in context; an active one gets every
// booking in context with itself selected.
func (s *ChatService) OpenForBooking(ctx context.Context, ref string) (*Session, error) {
	b, err := s.bookings.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	var sess *Session
	if b.Cancelled() {
		sess = s.newSession(ModeCancelled, []domain.Flight{b.Flight})
	} else {
		all, err := s.bookings.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list bookings: %w", err)
		}
		trips := make([]domain.Flight, 0, len(all))
		for _, x := range all {
			trips = append(trips, x.Flight)
		}
		sess = s.newSession(ModeMyTrip, trips)
	}
	selected := b.Flight
	sess.Selected = &selected
	return s.open(ctx, sess)
}

func (s *ChatService) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

// Close discards the session. Closing an unknown session is not an error.
func (s *ChatService) Close(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()

	return s.store.Delete(ctx, id)
}

// Send appends the user line and the assistant answer. Blank input is
// ignored and returns a Reply with no messages.
func (s *ChatService) Send(ctx context.Context, id, text string) (*Reply, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	cmd := Parse(text)
	reply := &Reply{SessionID: sess.ID, Command: cmd, Messages: []Message{}}
	if cmd.Kind == KindEmpty {
		return reply, nil
	}

	userMsg := s.message(SenderUser, strings.TrimSpace(text))

	if err := s.typing(ctx); err != nil {
		return nil, err
	}

	answer, err := s.dispatch(ctx, sess, cmd, reply)
	if err != nil {
		return nil, err
	}
	botMsg := s.message(SenderAssistant, answer)

	sess.Messages = append(sess.Messages, userMsg, botMsg)
	sess.UpdatedAt = botMsg.SentAt
	reply.Messages = append(reply.Messages, userMsg, botMsg)

	s.log.Debug("chat command handled", "session", sess.ID, "kind", cmd.Kind, "closed", reply.Closed)

	if reply.Closed {
		if err := s.store.Delete(ctx, sess.ID); err != nil {
			return nil, err
		}
		return reply, nil
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *ChatService) dispatch(ctx context.Context, sess *Session, cmd Command, reply *Reply) (string, error) {
	switch cmd.Kind {
	case KindBook:
		return s.book(ctx, sess, cmd.Arg, reply)
	case KindPredict:
		return s.predict(ctx, sess, cmd.Arg)
	case KindSuggestDay:
		return s.suggestDay(sess), nil
	case KindSuggestRebook:
		return s.suggestRebook(ctx, sess)
	case KindRebook:
		return s.rebook(ctx, sess, cmd.Arg, reply)
	case KindRequestRebook:
		return s.requestRebook(ctx, sess)
	case KindCancel:
		return s.cancel(ctx, sess, cmd.Arg, reply)
	case KindSelect:
		return s.selectFlight(ctx, sess, cmd.Arg)
	case KindRefund:
		return replyRefundPolicy, nil
	default:
		return replyFallback, nil
	}
}

func (s *ChatService) book(ctx context.Context, sess *Session, id string, reply *Reply) (string, error) {
	f, answer, err := s.resolve(ctx, sess, id)
	if answer != "" || err != nil {
		return answer, err
	}

	conf, err := s.bookings.Book(ctx, f, sess.SearchDate)
	if err != nil {
		return "", fmt.Errorf("book %s: %w", f.ID, err)
	}
	reply.Booking = &conf.Booking
	reply.RedirectURL = conf.RedirectURL
	reply.Closed = true
	return fmt.Sprintf("Redirecting to Air Canada booking for %s.", f.ID), nil
}

func (s *ChatService) predict(ctx context.Context, sess *Session, id string) (string, error) {
	f, answer, err := s.resolve(ctx, sess, id)
	if answer != "" || err != nil {
		return answer, err
	}

	r := risk.Estimate(f, time.Time{})
	return fmt.Sprintf("Prediction for %s: %s risk (%d%%). Reason: %s", f.ID, r.Label, r.Percent(), r.Reason), nil
}

func (s *ChatService) suggestDay(sess *Session) string {
	if len(sess.Flights) == 0 {
		return "No flights in current list to evaluate."
	}

	type scored struct {
		f domain.Flight
		r domain.Risk
	}
	ranked := make([]scored, 0, len(sess.Flights))
	for _, f := range sess.Flights {
		ranked = append(ranked, scored{f: f, r: risk.Estimate(f, time.Time{})})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].r.Score < ranked[j].r.Score })

	best := ranked[0]
	return fmt.Sprintf("Suggestion: %s at %s is lowest risk (%s, %d%%).", best.f.ID, s.clock(best.f.DepartureTime), best.r.Label, best.r.Percent())
}

func (s *ChatService) suggestRebook(ctx context.Context, sess *Session) (string, error) {
	f, ok := sess.Focus()
	if !ok {
		return "No flight selected to suggest rebook for.", nil
	}

	all, err := s.flights.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list flights: %w", err)
	}
	alts := catalog.Alternatives(all, f, alternativesShown)
	if len(alts) == 0 {
		return "No alternative flights available in mock data.", nil
	}

	lines := make([]string, 0, len(alts))
	for _, a := range alts {
		lines = append(lines, fmt.Sprintf("%s • Dep %s • %s", a.ID, s.clock(a.DepartureTime), a.Price))
	}
	return fmt.Sprintf("Suggested alternatives:\n- %s\nReply with 'rebook <flightId>' to proceed (this will redirect you).", strings.Join(lines, "\n- ")), nil
}

func (s *ChatService) rebook(ctx context.Context, sess *Session, id string, reply *Reply) (string, error) {
	f, found, err := s.lookup(ctx, sess, id)
	if err != nil {
		return "", err
	}
	if !found {
		return notFound(id), nil
	}

	reply.RedirectURL = s.bookings.RedirectURL(f, sess.SearchDate, redirect.ActionRebook)
	reply.Closed = true
	return fmt.Sprintf("Redirecting to booking portal for %s.", f.ID), nil
}

func (s *ChatService) requestRebook(ctx context.Context, sess *Session) (string, error) {
	f, ok := sess.Focus()
	if !ok {
		return "No flight selected to request rebook for.", nil
	}

	ref, err := s.bookings.RequestRebook(ctx, f)
	if err != nil {
		return "", fmt.Errorf("request rebook: %w", err)
	}
	return fmt.Sprintf("Rebook request created for %s. Request ref: %s. An agent will follow up.", f.ID, ref), nil
}

// cancel uses the given reference, else the booking on the focused flight,
// else the first booking on file.
func (s *ChatService) cancel(ctx context.Context, sess *Session, ref string, reply *Reply) (string, error) {
	if ref == "" {
		if f, ok := sess.Focus(); ok {
			all, err := s.bookings.List(ctx)
			if err != nil {
				return "", fmt.Errorf("list bookings: %w", err)
			}
			for _, b := range all {
				if b.ID == f.ID {
					ref = b.Ref
					break
				}
			}
			if ref == "" && len(all) > 0 {
				ref = all[0].Ref
			}
		}
	}
	if ref == "" {
		return "No booking reference provided or selected. Provide 'cancel <bookingRef>'.", nil
	}

	current, err := s.bookings.Get(ctx, ref)
	if errors.Is(err, domain.ErrBookingNotFound) {
		return fmt.Sprintf("Booking %s not found.", ref), nil
	}
	if err != nil {
		return "", fmt.Errorf("get booking: %w", err)
	}
	if current.Cancelled() {
		reply.Booking = current
		return fmt.Sprintf("Booking %s is already cancelled.", current.Ref), nil
	}

	updated, err := s.bookings.Cancel(ctx, current.Ref, booking.ReasonChatCancel)
	if err != nil {
		return "", fmt.Errorf("cancel booking: %w", err)
	}
	reply.Booking = updated
	return fmt.Sprintf("Booking %s cancelled (mock).", updated.Ref), nil
}

func (s *ChatService) selectFlight(ctx context.Context, sess *Session, id string) (string, error) {
	f, found, err := s.lookup(ctx, sess, id)
	if err != nil {
		return "", err
	}
	if !found {
		return notFound(id), nil
	}
	sess.Selected = &f
	return fmt.Sprintf("Selected %s in chat.", f.ID), nil
}

// resolve picks the flight for commands whose id is optional. A non-empty
// answer means there is nothing to act on and it should be sent as is.
func (s *ChatService) resolve(ctx context.Context, sess *Session, id string) (domain.Flight, string, error) {
	if id == "" {
		f, ok := sess.Focus()
		if !ok {
			return domain.Flight{}, replyNoFlightSelected, nil
		}
		return f, "", nil
	}

	f, found, err := s.lookup(ctx, sess, id)
	if err != nil {
		return domain.Flight{}, "", err
	}
	if !found {
		return domain.Flight{}, notFound(id), nil
	}
	return f, "", nil
}

// lookup searches the session context, then the catalog, then the flights
// on existing bookings.
func (s *ChatService) lookup(ctx context.Context, sess *Session, id string) (domain.Flight, bool, error) {
	if f, ok := sess.contextFlight(id); ok {
		return f, true, nil
	}

	f, err := s.flights.GetByID(ctx, id)
	switch {
	case err == nil:
		return *f, true, nil
	case !errors.Is(err, domain.ErrFlightNotFound):
		return domain.Flight{}, false, fmt.Errorf("get flight: %w", err)
	}

	all, err := s.bookings.List(ctx)
	if err != nil {
		return domain.Flight{}, false, fmt.Errorf("list bookings: %w", err)
	}
	for _, b := range all {
		if strings.EqualFold(b.ID, id) {
			return b.Flight, true, nil
		}
	}
	return domain.Flight{}, false, nil
}

func notFound(id string) string {
	return fmt.Sprintf("Flight %s not found.", id)
}

func (s *ChatService) clock(t time.Time) string {
	return t.In(s.loc).Format("15:04")
}

func (s *ChatService) typing(ctx context.Context) error {
	if s.typingDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.typingDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *ChatService) newSession(mode Mode, flights []domain.Flight) *Session {
	now := s.now().UTC()
	if flights == nil {
		flights = []domain.Flight{}
	}
	return &Session{
		ID:        s.newID(),
		Mode:      mode,
		Flights:   flights,
		Messages:  []Message{s.message(SenderAssistant, greeting(mode))},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *ChatService) open(ctx context.Context, sess *Session) (*Session, error) {
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.log.Info("chat session opened", "session", sess.ID, "mode", sess.Mode, "flights", len(sess.Flights))
	return sess, nil
}

func (s *ChatService) message(sender Sender, text string) Message {
	return Message{
		ID:     s.newID(),
		Sender: sender,
		Text:   text,
		SentAt: s.now().UTC(),
	}
}

// lock serializes Send and Close per session within this process.
func (s *ChatService) lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

var _ ChatUseCase = (*ChatService)(nil)
