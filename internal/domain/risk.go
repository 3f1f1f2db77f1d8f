package domain

import "math"

type RiskLabel string

const (
	RiskLow    RiskLabel = "Low"
	RiskMedium RiskLabel = "Medium"
	RiskHigh   RiskLabel = "High"
)

type Risk struct {
	Score  float64   `json:"score"`
	Label  RiskLabel `json:"label"`
	Reason string    `json:"reason"`
}

// Percent is the score rounded to a whole percentage.
func (r Risk) Percent() int {
	return int(math.Round(r.Score * 100))
}
