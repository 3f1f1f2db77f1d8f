package chat

import (
	"time"

	"github.com/Domenick1991/airassist/internal/catalog"
	"github.com/Domenick1991/airassist/internal/domain"
)

// Mode decides the greeting and which quick actions a client offers.
type Mode string

const (
	ModeSearch    Mode = "search"
	ModeMyTrip    Mode = "mytrip"
	ModeCancelled Mode = "cancelled"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

type Message struct {
	ID     string    `json:"id"`
	Sender Sender    `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Session is one open chat panel. Messages only grow; closing the panel
// discards the session.
type Session struct {
	ID         string          `json:"id"`
	Mode       Mode            `json:"mode"`
	Flights    []domain.Flight `json:"flights"`
	Selected   *domain.Flight  `json:"selected,omitempty"`
	SearchDate string          `json:"search_date,omitempty"`
	Messages   []Message       `json:"messages"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Focus is the flight commands act on when no id is given: the selection,
// else the first context flight.
func (s *Session) Focus() (domain.Flight, bool) {
	if s.Selected != nil {
		return *s.Selected, true
	}
	if len(s.Flights) > 0 {
		return s.Flights[0], true
	}
	return domain.Flight{}, false
}

func (s *Session) contextFlight(id string) (domain.Flight, bool) {
	return catalog.Find(s.Flights, id)
}

func greeting(mode Mode) string {
	switch mode {
	case ModeSearch:
		return "Chat ready. Commands: predict <id>, suggest day, book <id>."
	case ModeMyTrip:
		return "Chat ready for your trip. Commands: predict <id>, suggest rebook, rebook <id>, request rebook, cancel <bookingRef>."
	default:
		return "Chat ready for cancelled booking. Commands: refund, rebook <id>."
	}
}
