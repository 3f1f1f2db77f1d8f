// Package catalog holds the static flight list and the search filter over it.
package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/Domenick1991/airassist/internal/domain"
)

type seed struct {
	id, from, to, dep, arr, price string
	seats                         int
}

var seeds = []seed{
	{"AC1601", "YYZ", "YVR", "2025-10-16T06:00:00Z", "2025-10-16T08:30:00Z", "CAD 359", 12},
	{"AC1602", "YYZ", "YVR", "2025-10-16T09:00:00Z", "2025-10-16T11:30:00Z", "CAD 379", 9},
	{"AC1603", "YYZ", "YVR", "2025-10-16T12:00:00Z", "2025-10-16T14:30:00Z", "CAD 399", 7},
	{"AC1604", "YYZ", "YVR", "2025-10-16T15:30:00Z", "2025-10-16T18:00:00Z", "CAD 429", 5},
	{"AC1605", "YYZ", "YVR", "2025-10-16T20:45:00Z", "2025-10-17T00:15:00Z", "CAD 459", 4},

	{"AC1701", "YYZ", "YVR", "2025-10-17T05:30:00Z", "2025-10-17T08:00:00Z", "CAD 349", 10},
	{"AC1702", "YYZ", "YVR", "2025-10-17T08:45:00Z", "2025-10-17T11:15:00Z", "CAD 369", 8},
	{"AC1703", "YYZ", "YVR", "2025-10-17T11:50:00Z", "2025-10-17T14:20:00Z", "CAD 389", 6},
	{"AC1704", "YYZ", "YVR", "2025-10-17T14:30:00Z", "2025-10-17T17:00:00Z", "CAD 419", 5},
	{"AC1705", "YYZ", "YVR", "2025-10-17T19:15:00Z", "2025-10-17T21:45:00Z", "CAD 449", 3},

	{"AC1801", "YYZ", "YVR", "2025-10-18T06:15:00Z", "2025-10-18T08:45:00Z", "CAD 339", 14},
	{"AC1802", "YYZ", "YVR", "2025-10-18T09:30:00Z", "2025-10-18T12:00:00Z", "CAD 359", 11},
	{"AC1803", "YYZ", "YVR", "2025-10-18T12:45:00Z", "2025-10-18T15:15:00Z", "CAD 389", 8},
	{"AC1804", "YYZ", "YVR", "2025-10-18T16:00:00Z", "2025-10-18T18:30:00Z", "CAD 419", 6},
	{"AC1805", "YYZ", "YVR", "2025-10-18T21:00:00Z", "2025-10-19T00:30:00Z", "CAD 479", 2},

	{"AC2001", "YYZ", "YUL", "2025-10-16T07:00:00Z", "2025-10-16T08:20:00Z", "CAD 159", 20},
	{"AC2002", "YYZ", "YUL", "2025-10-17T10:00:00Z", "2025-10-17T11:20:00Z", "CAD 179", 12},
}

var flights = func() []domain.Flight {
	out := make([]domain.Flight, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, domain.Flight{
			ID:            s.id,
			FromAirport:   s.from,
			ToAirport:     s.to,
			DepartureTime: mustParse(s.dep),
			ArrivalTime:   mustParse(s.arr),
			Price:         s.price,
			Seats:         s.seats,
		})
	}
	return out
}()

func mustParse(v string) time.Time {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		panic(err)
	}
	return t
}

// Flights returns a copy of the static catalog in definition order.
func Flights() []domain.Flight {
	return slices.Clone(flights)
}

// Criteria filters flights by exact field equality. Empty fields match
// everything; an airport code of the wrong length simply matches nothing.
type Criteria struct {
	From string `json:"from" form:"from" validate:"omitempty,alpha"`
	To   string `json:"to" form:"to" validate:"omitempty,alpha"`
	Date string `json:"date" form:"date" validate:"omitempty,datetime=2006-01-02"`
}

// Normalize trims every field and upper-cases the airport codes.
func (c Criteria) Normalize() Criteria {
	return Criteria{
		From: strings.ToUpper(strings.TrimSpace(c.From)),
		To:   strings.ToUpper(strings.TrimSpace(c.To)),
		Date: strings.TrimSpace(c.Date),
	}
}

func (c Criteria) Match(f domain.Flight) bool {
	if c.From != "" && f.FromAirport != c.From {
		return false
	}
	if c.To != "" && f.ToAirport != c.To {
		return false
	}
	if c.Date != "" && f.DepartureDate() != c.Date {
		return false
	}
	return true
}

// Search returns the flights matching c, in input order. The result is never
// nil.
func Search(list []domain.Flight, c Criteria) []domain.Flight {
	c = c.Normalize()
	out := make([]domain.Flight, 0)
	for _, f := range list {
		if c.Match(f) {
			out = append(out, f)
		}
	}
	return out
}

// Find looks a flight up by id, ignoring case.
func Find(list []domain.Flight, id string) (domain.Flight, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Flight{}, false
	}
	for _, f := range list {
		if strings.EqualFold(f.ID, id) {
			return f, true
		}
	}
	return domain.Flight{}, false
}

// Alternatives lists up to n other flights on the same route as f.
func Alternatives(list []domain.Flight, f domain.Flight, n int) []domain.Flight {
	out := make([]domain.Flight, 0, n)
	for _, x := range list {
		if len(out) == n {
			break
		}
		if x.FromAirport == f.FromAirport && x.ToAirport == f.ToAirport && x.ID != f.ID {
			out = append(out, x)
		}
	}
	return out
}
