// Package timeutil turns the date and time-of-day strings submitted at
// check-in into instants anchored to the organization's regional offset.
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTimeFormat = errors.New("invalid time format")
	ErrInvalidDate       = errors.New("invalid date format, expected YYYY-MM-DD")
	ErrInvalidMonth      = errors.New("invalid month format, expected YYYY-MM")
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
	ClockLayout = "15:04"
)

// Instants holds the two readings of one submitted wall-clock time.
type Instants struct {
	// Storage is the wall clock interpreted in the regional offset.
	Storage time.Time
	// Comparison is the same wall clock in the comparison location. Only
	// used for arithmetic against a shift start built by ShiftStart.
	Comparison time.Time
}

type Normalizer struct {
	region     *time.Location
	comparison *time.Location
}

// NewNormalizer builds a normalizer for a fixed regional offset. When
// compareInProcessLocal is set, comparison instants use time.Local.
func NewNormalizer(offsetMinutes int, zoneName string, compareInProcessLocal bool) *Normalizer {
	region := time.FixedZone(zoneName, offsetMinutes*60)
	comparison := region
	if compareInProcessLocal {
		comparison = time.Local
	}
	return &Normalizer{region: region, comparison: comparison}
}

func (n *Normalizer) Region() *time.Location {
	return n.region
}

// ParseDate parses a YYYY-MM-DD calendar day. The result is midnight UTC,
// the form a Postgres date column scans into.
func (n *Normalizer) ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// ParseMonth validates a YYYY-MM key and returns it normalized.
func (n *Normalizer) ParseMonth(s string) (string, error) {
	m, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidMonth
	}
	return m.Format(MonthLayout), nil
}

// Normalize combines a calendar day with a submitted time-of-day. The clock
// may be "HH:MM", "HH:MM:SS" or RFC3339; for RFC3339 the clock components are
// taken as written and its date part is ignored.
func (n *Normalizer) Normalize(date time.Time, clock string) (Instants, error) {
	h, m, s, err := parseClock(clock)
	if err != nil {
		return Instants{}, err
	}
	y, mo, d := date.Date()
	return Instants{
		Storage:    time.Date(y, mo, d, h, m, s, 0, n.region),
		Comparison: time.Date(y, mo, d, h, m, s, 0, n.comparison),
	}, nil
}

// ShiftStart returns the shift start on date in the comparison location.
func (n *Normalizer) ShiftStart(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(hhmm))
	if err != nil {
		return time.Time{}, fmt.Errorf("shift start %q: %w", hhmm, ErrInvalidTimeFormat)
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, t.Hour(), t.Minute(), 0, 0, n.comparison), nil
}

// Today returns the current calendar day in the regional offset.
func (n *Normalizer) Today(now time.Time) time.Time {
	y, m, d := now.In(n.region).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CurrentMonth returns the YYYY-MM key of now in the regional offset.
func (n *Normalizer) CurrentMonth(now time.Time) string {
	return now.In(n.region).Format(MonthLayout)
}

// PreviousMonth returns the YYYY-MM key of the month before now in the regional offset.
func (n *Normalizer) PreviousMonth(now time.Time) string {
	local := now.In(n.region)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, n.region)
	return first.AddDate(0, -1, 0).Format(MonthLayout)
}

// MonthOf returns the YYYY-MM key of a calendar day.
func MonthOf(date time.Time) string {
	return date.Format(MonthLayout)
}

// FormatClock renders the wall clock of t as HH:MM.
func FormatClock(t time.Time) string {
	return t.Format(ClockLayout)
}

func parseClock(clock string) (hour, minute, second int, err error) {
	clock = strings.TrimSpace(clock)
	for _, layout := range []string{"15:04:05", ClockLayout, time.RFC3339Nano, time.RFC3339} {
		if t, perr := time.Parse(layout, clock); perr == nil {
			return t.Hour(), t.Minute(), t.Second(), nil
		}
	}
	return 0, 0, 0, fmt.Errorf("%q: %w", clock, ErrInvalidTimeFormat)
}
