package pagination

import (
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const dateLayout = "2006-01-02"

// Filter narrows a list endpoint. Query matches patient names and lab
// numbers case-insensitively; From and To bound the record timestamp.
type Filter struct {
	Query string
	From  *time.Time
	To    *time.Time
}

// Match reports whether a record with the given searchable texts and
// timestamp passes the filter.
func (f Filter) Match(at time.Time, texts ...string) bool {
	if f.From != nil && at.Before(*f.From) {
		return false
	}
	if f.To != nil && at.After(*f.To) {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	for _, t := range texts {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// FilterFromContext reads q, from and to. A bare date in "to" covers the
// whole day.
func FilterFromContext(c echo.Context) (Filter, error) {
	f := Filter{Query: strings.TrimSpace(c.QueryParam("q"))}
	if s := c.QueryParam("from"); s != "" {
		t, err := parseTime(s, false)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid from: %w", err)
		}
		f.From = &t
	}
	if s := c.QueryParam("to"); s != "" {
		t, err := parseTime(s, true)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid to: %w", err)
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return Filter{}, fmt.Errorf("to must not be before from")
	}
	return f, nil
}

func parseTime(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
