/*
date.go - UTC calendar-day normalization and arithmetic

PURPOSE:
  Every scheduling decision in this engine is made at day granularity.
  A chore is due "on March 3rd", not "at 09:15 on March 3rd". This file
  defines Date, a time value collapsed to midnight UTC, so that two
  records captured in different time zones or with different clock
  precision always compare equal when they mean the same day.

KEY INSIGHT:
  All other packages depend on this normalization for safe comparison.
  If raw time.Time values leaked into period math, a completion stamped
  at 23:30 local could fall into the wrong payout period.

SEE ALSO:
  - schedule.go: Occurrence and period generation over Dates
  - rrule.go: Recurrence rule parsing
*/
package recurrence

import "time"

// =============================================================================
// DATE - A calendar day, midnight UTC
// =============================================================================

// Date is a calendar day. The embedded time is always midnight UTC;
// constructors enforce this, so Dates can be compared and used as map
// keys safely.
type Date struct {
	Time time.Time
}

// NewDate builds a Date from year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf collapses any time value to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// Today returns the current UTC calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a Date in 2006-01-02 form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return DateOf(d.Time.AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return DateOf(d.Time.AddDate(0, n, 0)) }
func (d Date) AddYears(n int) Date  { return DateOf(d.Time.AddDate(n, 0, 0)) }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// =============================================================================
// DAY / WEEK / MONTH DISTANCES
// =============================================================================

// DaysBetween returns the signed whole-day difference to - from.
func DaysBetween(from, to Date) int {
	return int(to.Time.Sub(from.Time).Hours() / 24)
}

// WeeksBetween returns the floored whole-week difference to - from.
// Negative distances floor toward negative infinity so that a target
// six days before the anchor still counts as week -1, not week 0.
func WeeksBetween(from, to Date) int {
	days := DaysBetween(from, to)
	if days < 0 {
		return -((-days + 6) / 7)
	}
	return days / 7
}

// MonthsBetween returns the signed calendar-month difference to - from,
// ignoring the day component.
func MonthsBetween(from, to Date) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// MinDate returns the earlier of two dates.
func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// MaxDate returns the later of two dates.
func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}
