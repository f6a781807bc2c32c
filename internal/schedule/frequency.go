package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is a maintenance cadence as tagged in the equipment registry.
type Frequency string

const (
	Monthly  Frequency = "monthly"
	BiAnnual Frequency = "bi_annual"
	Annual   Frequency = "annual"
)

// Frequencies lists the known cadences in the order their step columns
// appear on a maintenance sheet.
var Frequencies = []Frequency{Monthly, BiAnnual, Annual}

// DateLayout is the registry and request date format.
const DateLayout = "2006-01-02"

// ParseFrequency normalizes user input such as "Bi-Annual" to a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	switch Frequency(key) {
	case Monthly, BiAnnual, Annual:
		return Frequency(key), nil
	case "biannual":
		return BiAnnual, nil
	}
	return "", fmt.Errorf("unknown frequency %q (use monthly, bi_annual or annual)", s)
}

func (f Frequency) Valid() bool {
	switch f {
	case Monthly, BiAnnual, Annual:
		return true
	}
	return false
}

// Label is the human form, e.g. "Bi-Annual".
func (f Frequency) Label() string {
	switch f {
	case Monthly:
		return "Monthly"
	case BiAnnual:
		return "Bi-Annual"
	case Annual:
		return "Annual"
	}
	return string(f)
}

// Months returns the interval between two maintenances of this cadence.
func (f Frequency) Months() int {
	switch f {
	case Monthly:
		return 1
	case BiAnnual:
		return 6
	case Annual:
		return 12
	}
	return 0
}

// NextDue returns the date the next maintenance is due after last. A day
// the target month lacks falls back to its last day, so Jan 31 plus one
// month is Feb 28.
func (f Frequency) NextDue(last time.Time) time.Time {
	y, m, d := last.Date()
	hh, mm, ss := last.Clock()
	target := time.Date(y, m+time.Month(f.Months()), 1, 0, 0, 0, 0, time.UTC)
	// day 0 of the following month is the last day of the target month
	if end := time.Date(target.Year(), target.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day(); d > end {
		d = end
	}
	return time.Date(target.Year(), target.Month(), d, hh, mm, ss, last.Nanosecond(), last.Location())
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}
