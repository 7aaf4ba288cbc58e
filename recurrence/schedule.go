/*
schedule.go - Occurrence enumeration and period location

PURPOSE:
  A Schedule binds a parsed Rule to its anchor Date and answers the three
  questions the rest of the engine asks:

    1. Which days in [from, to] does this rule fire on?     (Between)
    2. What is the nearest occurrence around a day?         (After/Before)
    3. Which occurrence bracket contains a day?             (PeriodContaining)

  A "period" is the span from one occurrence up to the day before the
  next. Reward aggregation uses payout-schedule periods as its unit of
  account, so the boundary rules here are load-bearing.

BOUNDARY RULES:
  - The anchor day is always an occurrence, even when BYDAY or BYMONTHDAY
    would not naturally emit it. This guarantees the first real-world
    period starts exactly at the anchor.
  - Occurrences are generated strictly increasing, so Between output is
    sorted and de-duplicated by construction.
  - A day before the anchor has no period.
  - When COUNT/UNTIL exhausts the rule, the final period's end is
    synthesized by adding one frequency interval to its start, clamped to
    UNTIL. If that end lands before the start, the period collapses to a
    single day rather than erroring.

SEE ALSO:
  - rrule.go: Rule parsing
  - allowance/evaluate.go: Period-by-period reward aggregation
*/
package recurrence

import "time"

// maxScan bounds every generation loop. A rule that has not terminated
// after this many steps is treated as exhausted.
const maxScan = 10000

// =============================================================================
// SCHEDULE
// =============================================================================

// Schedule is a recurrence rule anchored to a start day.
type Schedule struct {
	Rule   Rule
	Anchor Date
}

// NewSchedule parses a rule string and anchors it.
func NewSchedule(rule string, anchor Date) (Schedule, error) {
	r, err := Parse(rule)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{Rule: r, Anchor: anchor}, nil
}

// Between returns all occurrence days in the inclusive range [from, to],
// sorted ascending.
func (s Schedule) Between(from, to Date) []Date {
	if to.Before(from) {
		return nil
	}
	var out []Date
	s.scan(func(d Date) bool {
		if d.After(to) {
			return false
		}
		if d.AfterOrEqual(from) {
			out = append(out, d)
		}
		return true
	})
	return out
}

// Includes reports whether the given day is an occurrence.
func (s Schedule) Includes(day Date) bool {
	found := false
	s.scan(func(d Date) bool {
		if d.After(day) {
			return false
		}
		if d.Equal(day) {
			found = true
			return false
		}
		return true
	})
	return found
}

// After returns the first occurrence after day (or on it, when inclusive).
func (s Schedule) After(day Date, inclusive bool) (Date, bool) {
	var result Date
	var ok bool
	s.scan(func(d Date) bool {
		if d.After(day) || (inclusive && d.Equal(day)) {
			result, ok = d, true
			return false
		}
		return true
	})
	return result, ok
}

// Before returns the last occurrence before day (or on it, when inclusive).
func (s Schedule) Before(day Date, inclusive bool) (Date, bool) {
	var result Date
	var ok bool
	s.scan(func(d Date) bool {
		if d.After(day) || (!inclusive && d.Equal(day)) {
			return false
		}
		result, ok = d, true
		return true
	})
	return result, ok
}

// =============================================================================
// PERIOD
// =============================================================================

// Period is the inclusive day range between two consecutive occurrences.
type Period struct {
	Start Date
	End   Date
}

// Contains reports whether day falls inside the period.
func (p Period) Contains(day Date) bool {
	return day.AfterOrEqual(p.Start) && day.BeforeOrEqual(p.End)
}

// Days returns the number of days the period spans, inclusive.
func (p Period) Days() int {
	return DaysBetween(p.Start, p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// PeriodContaining locates the occurrence bracket containing day.
//
// The start is the latest occurrence on or before day. The end is the
// day before the next occurrence, or a synthesized end when the rule is
// exhausted by COUNT/UNTIL. Returns false when day precedes the anchor
// or lies beyond the rule's final synthesized period.
func (s Schedule) PeriodContaining(day Date) (Period, bool) {
	if day.Before(s.Anchor) {
		return Period{}, false
	}

	start, ok := s.Before(day, true)
	if !ok {
		return Period{}, false
	}

	if next, hasNext := s.After(start, false); hasNext {
		return Period{Start: start, End: next.AddDays(-1)}, true
	}

	// Rule exhausted: synthesize one interval past the final occurrence.
	end := s.addInterval(start)
	if s.Rule.Until != nil && end.After(*s.Rule.Until) {
		end = *s.Rule.Until
	}
	if end.Before(start) {
		end = start
	}
	if day.After(end) {
		return Period{}, false
	}
	return Period{Start: start, End: end}, true
}

func (s Schedule) addInterval(d Date) Date {
	switch s.Rule.Freq {
	case Daily:
		return d.AddDays(s.Rule.Interval)
	case Weekly:
		return d.AddDays(7 * s.Rule.Interval)
	case Monthly:
		return d.AddMonths(s.Rule.Interval)
	case Yearly:
		return d.AddYears(s.Rule.Interval)
	}
	return d
}

// =============================================================================
// GENERATION
// =============================================================================

// scan walks occurrences in ascending order, starting with the anchor,
// calling visit for each until visit returns false or the rule ends.
func (s Schedule) scan(visit func(Date) bool) {
	interval := s.Rule.Interval
	if interval < 1 {
		interval = 1
	}

	emitted := 0
	// emit applies COUNT/UNTIL limits. Returns false to stop the walk.
	emit := func(d Date) bool {
		if s.Rule.Until != nil && d.After(*s.Rule.Until) {
			return false
		}
		if s.Rule.Count > 0 && emitted >= s.Rule.Count {
			return false
		}
		emitted++
		return visit(d)
	}

	// The anchor is always the first occurrence.
	if !emit(s.Anchor) {
		return
	}

	switch s.Rule.Freq {
	case Daily:
		s.scanFixedStep(emit, interval)
	case Weekly:
		if len(s.Rule.ByDay) > 0 {
			s.scanWeeklyByDay(emit, interval)
		} else {
			s.scanFixedStep(emit, 7*interval)
		}
	case Monthly:
		s.scanMonthly(emit, interval)
	case Yearly:
		s.scanYearly(emit, interval)
	}
}

func (s Schedule) scanFixedStep(emit func(Date) bool, stepDays int) {
	d := s.Anchor
	for i := 0; i < maxScan; i++ {
		d = d.AddDays(stepDays)
		if !emit(d) {
			return
		}
	}
}

func (s Schedule) scanWeeklyByDay(emit func(Date) bool, interval int) {
	week := weekStart(s.Anchor)
	offsets := weekdayOffsets(s.Rule.ByDay)

	for i := 0; i < maxScan; i++ {
		for _, off := range offsets {
			candidate := week.AddDays(off)
			if !candidate.After(s.Anchor) {
				continue // before or equal to the implicit anchor occurrence
			}
			if !emit(candidate) {
				return
			}
		}
		week = week.AddDays(7 * interval)
	}
}

func (s Schedule) scanMonthly(emit func(Date) bool, interval int) {
	day := s.Rule.ByMonthDay
	if day == 0 {
		day = s.Anchor.Day()
	}

	firstOfMonth := NewDate(s.Anchor.Year(), s.Anchor.Month(), 1)
	for i := 0; i < maxScan; i++ {
		if day <= daysInMonth(firstOfMonth.Year(), firstOfMonth.Month()) {
			// Months too short for the target day are skipped entirely,
			// e.g. the 31st never fires in February.
			candidate := NewDate(firstOfMonth.Year(), firstOfMonth.Month(), day)
			if candidate.After(s.Anchor) && !emit(candidate) {
				return
			}
		}
		firstOfMonth = firstOfMonth.AddMonths(interval)
	}
}

func (s Schedule) scanYearly(emit func(Date) bool, interval int) {
	year := s.Anchor.Year()
	for i := 0; i < maxScan; i++ {
		year += interval
		candidate := NewDate(year, s.Anchor.Month(), s.Anchor.Day())
		if candidate.Day() != s.Anchor.Day() {
			continue // Feb 29 anchor in a non-leap year
		}
		if !emit(candidate) {
			return
		}
	}
}

// weekStart returns the Monday of the week containing d.
func weekStart(d Date) Date {
	offset := int(d.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	return d.AddDays(-offset)
}

// weekdayOffsets converts weekdays to sorted offsets from Monday.
func weekdayOffsets(days []time.Weekday) []int {
	offsets := make([]int, 0, len(days))
	for _, wd := range days {
		off := int(wd) - int(time.Monday)
		if off < 0 {
			off += 7
		}
		offsets = append(offsets, off)
	}
	for i := 1; i < len(offsets); i++ {
		for j := i; j > 0 && offsets[j] < offsets[j-1]; j-- {
			offsets[j], offsets[j-1] = offsets[j-1], offsets[j]
		}
	}
	return offsets
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
