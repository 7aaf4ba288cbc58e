/*
PURPOSE:
  Select the tasks a series presents on a given date. The pending queue
  (everything not yet completed before today) is split into day blocks;
  the view date picks which block, by an ordered list of guards.

KEY CONCEPTS:
  - Pending queue: the ordered series minus tasks completed strictly
    before today, with empty and trailing blocks collapsed.
  - Block promotion: block 0 is always "today's work", whatever its
    original position. Missing a day never skips a block; it delays it.

SEE ALSO:
  - types.go: Task, Series
  - recurrence: Occurrence enumeration for future view dates
*/
package tasklist

import (
	"log/slog"

	"github.com/warp/chore-engine/recurrence"
)

// =============================================================================
// PENDING QUEUE
// =============================================================================

// Blocks removes tasks completed strictly before today from the series,
// then splits the remainder into day blocks. Break markers themselves
// never appear in a block; blocks left empty by completed work are
// collapsed.
func (s Series) Blocks(today recurrence.Date) [][]Task {
	var blocks [][]Task
	var current []Task
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, current)
			current = nil
		}
	}
	for _, t := range s.ordered() {
		if t.IsDayBreak {
			flush()
			continue
		}
		if t.Completed && !t.completedOn(today) {
			continue
		}
		current = append(current, t)
	}
	flush()
	return blocks
}

// =============================================================================
// PER-DATE VIEW
// =============================================================================

// TasksFor returns the tasks the series presents on view, evaluated as
// of today. The guards run in strict priority order:
//
//  1. A past view date reconstructs history from completion timestamps.
//  2. Before the series start there is nothing to show.
//  3. Today (or the series start, whichever is later) shows block 0,
//     with tasks completed today kept visible at the front.
//  4. A future view date maps its occurrence index to a block; a
//     non-occurrence day shows nothing.
//  5. An exhausted queue means the series is finished.
func (s Series) TasksFor(view, today recurrence.Date) []Task {
	if view.Before(today) {
		return s.completedExactlyOn(view)
	}
	if view.Before(s.Start) {
		return nil
	}

	blocks := s.Blocks(today)
	if len(blocks) == 0 {
		return nil
	}

	anchor := today
	if s.Start.After(anchor) {
		anchor = s.Start
	}
	if view.Equal(anchor) {
		return withCompletedToday(blocks[0], s.ordered(), today)
	}

	// Future view date: needs a cadence to know which block lands there.
	if s.RecurrenceRule == "" {
		return nil
	}
	sched, err := recurrence.NewSchedule(s.RecurrenceRule, s.Anchor)
	if err != nil {
		slog.Warn("skipping series with invalid recurrence rule",
			"series", s.ID, "rule", s.RecurrenceRule, "error", err)
		return nil
	}
	occurrences := sched.Between(anchor, view)
	if len(occurrences) == 0 || !occurrences[len(occurrences)-1].Equal(view) {
		return nil
	}
	index := len(occurrences) - 1
	if index >= len(blocks) {
		return nil
	}
	return blocks[index]
}

// completedExactlyOn returns the tasks whose completion timestamp falls
// on the given calendar day, in series order.
func (s Series) completedExactlyOn(day recurrence.Date) []Task {
	var out []Task
	for _, t := range s.ordered() {
		if !t.IsDayBreak && t.completedOn(day) {
			out = append(out, t)
		}
	}
	return out
}

// withCompletedToday prepends tasks completed today to the current
// block, deduplicating items the block already carries. A just-finished
// item stays on screen for the rest of the day.
func withCompletedToday(block []Task, ordered []Task, today recurrence.Date) []Task {
	var out []Task
	seen := map[TaskID]bool{}
	for _, t := range ordered {
		if !t.IsDayBreak && t.completedOn(today) {
			out = append(out, t)
			seen[t.ID] = true
		}
	}
	for _, t := range block {
		if !seen[t.ID] {
			out = append(out, t)
		}
	}
	return out
}
