package domain

import "time"

type Flight struct {
	ID            string    `json:"id"`
	FromAirport   string    `json:"from"`
	ToAirport     string    `json:"to"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	Price         string    `json:"price"`
	Seats         int       `json:"seats"`
}

// DepartureDate is the UTC calendar day of departure, formatted YYYY-MM-DD.
func (f Flight) DepartureDate() string {
	return f.DepartureTime.UTC().Format(DateLayout)
}

const DateLayout = "2006-01-02"
