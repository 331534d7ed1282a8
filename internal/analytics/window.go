package analytics

import (
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Window is a half-open time range [From, To).
type Window struct {
	Range string    `json:"range"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}

// Previous returns the window of equal length ending where w starts.
func (w Window) Previous() Window {
	return Window{Range: w.Range, From: w.From.Add(-w.To.Sub(w.From)), To: w.From}
}

// ParseWindow resolves a range name (7d, 30d, 90d, month, year, custom) at now.
// Custom ranges take inclusive from/to dates.
func ParseWindow(rangeName, from, to string, now time.Time) (Window, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)
	switch rangeName {
	case "", "30d":
		return Window{Range: "30d", From: tomorrow.AddDate(0, 0, -30), To: tomorrow}, nil
	case "7d":
		return Window{Range: rangeName, From: tomorrow.AddDate(0, 0, -7), To: tomorrow}, nil
	case "90d":
		return Window{Range: rangeName, From: tomorrow.AddDate(0, 0, -90), To: tomorrow}, nil
	case "month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Window{Range: rangeName, From: start, To: tomorrow}, nil
	case "year":
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return Window{Range: rangeName, From: start, To: tomorrow}, nil
	case "custom":
		f, err := time.ParseInLocation(dateLayout, from, now.Location())
		if err != nil {
			return Window{}, fmt.Errorf("invalid from date, expected YYYY-MM-DD: %w", err)
		}
		t, err := time.ParseInLocation(dateLayout, to, now.Location())
		if err != nil {
			return Window{}, fmt.Errorf("invalid to date, expected YYYY-MM-DD: %w", err)
		}
		if t.Before(f) {
			return Window{}, errors.New("to date must not be before from date")
		}
		return Window{Range: rangeName, From: f, To: t.AddDate(0, 0, 1)}, nil
	default:
		return Window{}, fmt.Errorf("unknown range %q", rangeName)
	}
}
