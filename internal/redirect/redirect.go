// Package redirect builds links to the external booking site. Nothing is
// fetched; callers hand the URL to the client.
package redirect

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Domenick1991/airassist/internal/domain"
)

const (
	ActionRebook = "rebook"
)

type Builder struct {
	base *url.URL
}

func NewBuilder(baseURL string) (*Builder, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse redirect base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("redirect base url %q must be absolute", baseURL)
	}
	return &Builder{base: u}, nil
}

// URL links to f on the booking site. date is a YYYY-MM-DD string; when
// empty the flight's departure date is used. An empty action is omitted.
func (b *Builder) URL(f domain.Flight, date, action string) string {
	if len(date) > 10 {
		date = date[:10]
	}
	if strings.TrimSpace(date) == "" {
		date = f.DepartureDate()
	}

	// Parameter order is part of the link format, so url.Values.Encode
	// (which sorts keys) is not used.
	params := []string{
		"flight=" + url.QueryEscape(f.ID),
		"from=" + url.QueryEscape(f.FromAirport),
		"to=" + url.QueryEscape(f.ToAirport),
		"date=" + url.QueryEscape(date),
	}
	if action != "" {
		params = append(params, "action="+url.QueryEscape(action))
	}

	u := *b.base
	u.RawQuery = strings.Join(params, "&")
	return u.String()
}
