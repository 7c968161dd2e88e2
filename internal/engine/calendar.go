// Package engine holds the pure calculation core of the budgeting
// domain: pay-cycle calendar math, income aggregation, allocation,
// split arithmetic and forecasting. It has no knowledge of the
// database or HTTP layers and is safe to call from anywhere.
package engine

import (
	"errors"
	"fmt"
	"time"
)

// Rule selects how cycle boundaries are derived.
type Rule string

const (
	RuleSpecificDate   Rule = "specific_date"
	RuleLastWorkingDay Rule = "last_working_day"
	RuleEvery4Weeks    Rule = "every_4_weeks"
)

var (
	ErrPayDayRange   = errors.New("pay day must be between 1 and 31")
	ErrAnchorMissing = errors.New("anchor date is required for every_4_weeks")
)

// CycleConfig is the household's pay-cycle rule. PayDay is only
// consulted for specific_date, Anchor only for every_4_weeks.
type CycleConfig struct {
	Rule   Rule
	PayDay int
	Anchor time.Time
}

// Validate reports whether the config is usable for calendar math.
func (c CycleConfig) Validate() error {
	switch c.Rule {
	case RuleSpecificDate:
		if c.PayDay < 1 || c.PayDay > 31 {
			return ErrPayDayRange
		}
	case RuleLastWorkingDay:
	case RuleEvery4Weeks:
		if c.Anchor.IsZero() {
			return ErrAnchorMissing
		}
	default:
		return fmt.Errorf("unknown pay cycle rule %q", c.Rule)
	}
	return nil
}

// Boundary is one pay cycle's date window. Both ends are inclusive,
// normalized to UTC midnight. Consecutive boundaries tile: the next
// cycle starts exactly one day after End.
type Boundary struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the boundary.
func (b Boundary) Contains(d time.Time) bool {
	d = DateOnly(d)
	return !d.Before(b.Start) && !d.After(b.End)
}

// DateOnly strips the clock and timezone, keeping the calendar date
// at UTC midnight. All calendar math operates on such values.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampedPayDay returns the payday for a month, pulling day 29-31
// back to the month's last day when the month is shorter.
func clampedPayDay(year int, month time.Month, day int) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// lastWorkingDay returns the last Monday-Friday date of the month.
func lastWorkingDay(year int, month time.Month) time.Time {
	d := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, -2)
	}
	return d
}

// toWorkingDay rolls a weekend date back to the preceding Friday.
func toWorkingDay(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, -2)
	}
	return d
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func daysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}

// BoundaryContaining returns the unique cycle window that contains the
// reference date. It is idempotent: any date inside the returned
// window maps back to the same window.
func BoundaryContaining(ref time.Time, cfg CycleConfig) (Boundary, error) {
	if err := cfg.Validate(); err != nil {
		return Boundary{}, err
	}
	ref = DateOnly(ref)

	switch cfg.Rule {
	case RuleSpecificDate:
		start := clampedPayDay(ref.Year(), ref.Month(), cfg.PayDay)
		if start.After(ref) {
			prev := ref.AddDate(0, -1, -ref.Day()+1) // first of previous month
			start = clampedPayDay(prev.Year(), prev.Month(), cfg.PayDay)
		}
		nextMonth := start.AddDate(0, 0, -start.Day()+1).AddDate(0, 1, 0)
		next := clampedPayDay(nextMonth.Year(), nextMonth.Month(), cfg.PayDay)
		return Boundary{Start: start, End: next.AddDate(0, 0, -1)}, nil

	case RuleLastWorkingDay:
		start := lastWorkingDay(ref.Year(), ref.Month())
		if start.After(ref) {
			prev := ref.AddDate(0, -1, -ref.Day()+1)
			start = lastWorkingDay(prev.Year(), prev.Month())
		}
		nextMonth := start.AddDate(0, 0, -start.Day()+1).AddDate(0, 1, 0)
		next := lastWorkingDay(nextMonth.Year(), nextMonth.Month())
		return Boundary{Start: start, End: next.AddDate(0, 0, -1)}, nil

	case RuleEvery4Weeks:
		anchor := DateOnly(cfg.Anchor)
		k := floorDiv(daysBetween(anchor, ref), 28)
		start := anchor.AddDate(0, 0, k*28)
		return Boundary{Start: start, End: start.AddDate(0, 0, 27)}, nil
	}
	return Boundary{}, fmt.Errorf("unknown pay cycle rule %q", cfg.Rule)
}

// NextBoundary returns the cycle immediately after b.
func NextBoundary(b Boundary, cfg CycleConfig) (Boundary, error) {
	return BoundaryContaining(b.End.AddDate(0, 0, 1), cfg)
}

// Advance steps n cycles forward from b. Advance(b, 0) returns b.
func Advance(b Boundary, n int, cfg CycleConfig) (Boundary, error) {
	var err error
	for i := 0; i < n; i++ {
		b, err = NextBoundary(b, cfg)
		if err != nil {
			return Boundary{}, err
		}
	}
	return b, nil
}

// CyclesBetween counts how many cycle steps separate the window
// containing from and the window containing target. Dates inside the
// same window yield 0; a target before from also yields 0.
func CyclesBetween(from, target time.Time, cfg CycleConfig) (int, error) {
	b, err := BoundaryContaining(from, cfg)
	if err != nil {
		return 0, err
	}
	target = DateOnly(target)
	n := 0
	for target.After(b.End) {
		b, err = NextBoundary(b, cfg)
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

// PaymentDatesInRange lists the dates an income source pays out within
// [from, to], both inclusive. Monthly paydays that land on a weekend
// roll back to the preceding Friday; four-weekly payments keep their
// exact 28-day grid.
func PaymentDatesInRange(from, to time.Time, cfg CycleConfig) ([]time.Time, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	from, to = DateOnly(from), DateOnly(to)
	if to.Before(from) {
		return nil, nil
	}

	var dates []time.Time
	switch cfg.Rule {
	case RuleSpecificDate, RuleLastWorkingDay:
		// Weekend adjustment can pull a payday into the previous
		// month, so scan one month either side of the range.
		cursor := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		limit := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		for !cursor.After(limit) {
			var d time.Time
			if cfg.Rule == RuleSpecificDate {
				d = toWorkingDay(clampedPayDay(cursor.Year(), cursor.Month(), cfg.PayDay))
			} else {
				d = lastWorkingDay(cursor.Year(), cursor.Month())
			}
			if !d.Before(from) && !d.After(to) {
				dates = append(dates, d)
			}
			cursor = cursor.AddDate(0, 1, 0)
		}

	case RuleEvery4Weeks:
		anchor := DateOnly(cfg.Anchor)
		k := floorDiv(daysBetween(anchor, from), 28)
		d := anchor.AddDate(0, 0, k*28)
		if d.Before(from) {
			d = d.AddDate(0, 0, 28)
		}
		for !d.After(to) {
			dates = append(dates, d)
			d = d.AddDate(0, 0, 28)
		}
	}
	return dates, nil
}
