package pms

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar date (UTC midnight), the unit of stay arithmetic
// =============================================================================

// Date is a calendar date normalized to UTC midnight. Stays are half-open
// [arrival, departure) ranges: the departure date itself is not occupied,
// which is what makes same-day turnover possible.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date in UTC.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func Today() Date { return DateOf(time.Now()) }

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return Date{t: t}, nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) IsZero() bool           { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Time() time.Time { return d.t }
func (d Date) String() string  { return d.t.Format(dateLayout) }

// =============================================================================
// STAY RANGE ARITHMETIC
// =============================================================================

// NightsBetween returns the number of nights in [arrival, departure).
// Zero or negative means the range does not describe an overnight stay.
func NightsBetween(arrival, departure Date) int {
	return int(departure.t.Sub(arrival.t).Hours() / 24)
}

// StayNights enumerates every occupied night in [arrival, departure).
func StayNights(arrival, departure Date) []Date {
	n := NightsBetween(arrival, departure)
	if n <= 0 {
		return nil
	}
	nights := make([]Date, 0, n)
	for d := arrival; d.Before(departure); d = d.AddDays(1) {
		nights = append(nights, d)
	}
	return nights
}

// RangesOverlap reports whether two half-open [start, end) ranges overlap.
// Touching ranges (one's end equals the other's start) do NOT overlap:
// a departure and a same-day arrival can share a room.
func RangesOverlap(aStart, aEnd, bStart, bEnd Date) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// WithinStay reports whether night falls inside [arrival, departure).
func WithinStay(night, arrival, departure Date) bool {
	return !night.Before(arrival) && night.Before(departure)
}
