// Package risk computes the illustrative delay-risk score shown in chat.
// It is a fixed formula over the route, flight id and day of month, not a
// trained model.
package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/Domenick1991/airassist/internal/domain"
)

const (
	MaxScore = 0.95

	highThreshold   = 0.6
	mediumThreshold = 0.3
)

// Estimate scores f for the given date. A zero date uses the flight's own
// departure.
func Estimate(f domain.Flight, date time.Time) domain.Risk {
	if date.IsZero() {
		date = f.DepartureTime
	}

	base := 0.15
	if f.ToAirport == "YVR" {
		base = 0.35
	}

	var dayPenalty float64
	switch day := date.UTC().Day(); {
	case day%3 == 0:
		dayPenalty = 0.12
	case day%2 == 0:
		dayPenalty = 0.07
	}

	var pseudo float64
	if len(f.ID) > 2 {
		pseudo = float64(f.ID[2]%10) / 100
	}

	score := math.Round((base+dayPenalty+pseudo)*100) / 100
	score = math.Max(0, math.Min(MaxScore, score))

	return domain.Risk{
		Score:  score,
		Label:  Label(score),
		Reason: fmt.Sprintf("Mock factors: historical route delays, weather-window and time-of-day for %s→%s.", f.FromAirport, f.ToAirport),
	}
}

func Label(score float64) domain.RiskLabel {
	switch {
	case score > highThreshold:
		return domain.RiskHigh
	case score > mediumThreshold:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}
