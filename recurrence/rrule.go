/*
rrule.go - RFC 5545 recurrence rule subset

PURPOSE:
  Parses and serializes the RRULE dialect stored on chores, allowance
  configurations, and task series. The subset covers the forms the
  household domain actually produces:

    FREQ=DAILY|WEEKLY|MONTHLY|YEARLY
    INTERVAL=n
    BYDAY=MO,WE,FR        (weekly only)
    BYMONTHDAY=n          (monthly only)
    COUNT=n
    UNTIL=20060102T150405Z or 20060102

POLICY:
  Parsing is strict: an unknown key or malformed value is an error, not a
  best-effort guess. Callers treat a parse error as a configuration
  problem and skip the affected record (see chores.AssignedMembers and
  allowance.Evaluate), so a typo in one rule never takes down a whole
  evaluation pass.

SEE ALSO:
  - schedule.go: Turns a Rule plus anchor Date into occurrences/periods
*/
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// FREQUENCY
// =============================================================================

type Freq int

const (
	Daily Freq = iota
	Weekly
	Monthly
	Yearly
)

var freqNames = map[Freq]string{
	Daily:   "DAILY",
	Weekly:  "WEEKLY",
	Monthly: "MONTHLY",
	Yearly:  "YEARLY",
}

var freqFromName = map[string]Freq{
	"DAILY":   Daily,
	"WEEKLY":  Weekly,
	"MONTHLY": Monthly,
	"YEARLY":  Yearly,
}

var dayFromAbbrev = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

var dayAbbrev = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// =============================================================================
// RULE
// =============================================================================

// Rule is a parsed recurrence rule. The zero value is not valid; build
// rules via Parse or set Freq and Interval explicitly.
type Rule struct {
	Freq       Freq
	Interval   int            // default 1; 2 = every other period
	ByDay      []time.Weekday // WEEKLY: which weekdays (empty = anchor's weekday)
	ByMonthDay int            // MONTHLY: day of month (0 = anchor's day)
	Count      int            // max occurrences (0 = unlimited)
	Until      *Date          // last possible occurrence day (nil = no limit)
}

// Parse parses an RRULE string like "FREQ=WEEKLY;BYDAY=MO,WE;INTERVAL=2".
func Parse(rule string) (Rule, error) {
	if rule == "" {
		return Rule{}, fmt.Errorf("empty rule")
	}

	r := Rule{Interval: 1}
	var hasFreq bool

	for _, part := range strings.Split(rule, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return Rule{}, fmt.Errorf("invalid rule part: %q", part)
		}
		key, val := kv[0], kv[1]

		switch key {
		case "FREQ":
			f, ok := freqFromName[val]
			if !ok {
				return Rule{}, fmt.Errorf("unknown frequency: %q", val)
			}
			r.Freq = f
			hasFreq = true

		case "INTERVAL":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return Rule{}, fmt.Errorf("invalid interval: %q", val)
			}
			r.Interval = n

		case "BYDAY":
			for _, abbrev := range strings.Split(val, ",") {
				wd, ok := dayFromAbbrev[strings.TrimSpace(abbrev)]
				if !ok {
					return Rule{}, fmt.Errorf("unknown day: %q", abbrev)
				}
				r.ByDay = append(r.ByDay, wd)
			}

		case "BYMONTHDAY":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 || n > 31 {
				return Rule{}, fmt.Errorf("invalid BYMONTHDAY: %q", val)
			}
			r.ByMonthDay = n

		case "COUNT":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return Rule{}, fmt.Errorf("invalid count: %q", val)
			}
			r.Count = n

		case "UNTIL":
			t, err := time.Parse("20060102T150405Z", val)
			if err != nil {
				t, err = time.Parse("20060102", val)
				if err != nil {
					return Rule{}, fmt.Errorf("invalid UNTIL: %q", val)
				}
			}
			d := DateOf(t)
			r.Until = &d

		default:
			return Rule{}, fmt.Errorf("unsupported rule key: %q", key)
		}
	}

	if !hasFreq {
		return Rule{}, fmt.Errorf("FREQ is required")
	}

	return r, nil
}

// String serializes the rule back to canonical RRULE form.
func (r Rule) String() string {
	parts := []string{"FREQ=" + freqNames[r.Freq]}

	if r.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", r.Interval))
	}

	if len(r.ByDay) > 0 {
		abbrevs := make([]string, len(r.ByDay))
		for i, d := range r.ByDay {
			abbrevs[i] = dayAbbrev[d]
		}
		parts = append(parts, "BYDAY="+strings.Join(abbrevs, ","))
	}

	if r.ByMonthDay > 0 {
		parts = append(parts, fmt.Sprintf("BYMONTHDAY=%d", r.ByMonthDay))
	}

	if r.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", r.Count))
	}

	if r.Until != nil {
		parts = append(parts, "UNTIL="+r.Until.Time.Format("20060102"))
	}

	return strings.Join(parts, ";")
}

// Describe returns a short human-readable description of the rule,
// suitable for chore detail views.
func (r Rule) Describe() string {
	switch r.Freq {
	case Daily:
		if r.Interval > 1 {
			return fmt.Sprintf("Repeats every %d days", r.Interval)
		}
		return "Repeats daily"
	case Weekly:
		prefix := "Repeats weekly"
		if r.Interval > 1 {
			prefix = fmt.Sprintf("Repeats every %d weeks", r.Interval)
		}
		if len(r.ByDay) > 0 {
			names := make([]string, len(r.ByDay))
			for i, d := range r.ByDay {
				names[i] = d.String()[:3]
			}
			return prefix + " on " + strings.Join(names, ", ")
		}
		return prefix
	case Monthly:
		if r.Interval > 1 {
			return fmt.Sprintf("Repeats every %d months", r.Interval)
		}
		return "Repeats monthly"
	case Yearly:
		if r.Interval > 1 {
			return fmt.Sprintf("Repeats every %d years", r.Interval)
		}
		return "Repeats yearly"
	}
	return ""
}
