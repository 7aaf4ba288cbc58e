/*
Package tasklist implements rolling task-series schedules: a single
ordered list of items, partitioned into day blocks by break markers,
advanced one block per recurrence occurrence.

PURPOSE:
  A packing list, a cleaning routine, a homework plan: work that should
  happen over several days but must not vanish when a day is missed.
  Incomplete items stay at the front of the queue and shift forward to
  the next occurrence, so the schedule heals itself instead of leaving
  holes.

KEY CONCEPTS (types.go):
  - Task: One item in a series. A day-break task is a structural marker
    that splits the list into blocks; it is never displayed.
  - Series: The ordered item list plus its cadence (recurrence rule,
    rule anchor, series start date).
  - Mutation: A completion-state change intent produced by the cascade;
    applied by the caller, never by this package.

DESIGN PRINCIPLES:
  1. The queue is recomputed from the raw item list on every view; no
     derived schedule state is ever persisted.
  2. History is reconstructed from completion timestamps, not stored
     snapshots.

SEE ALSO:
  - queue.go: The pending queue and per-date block selection
  - cascade.go: Parent-chain completion propagation
*/
package tasklist

import (
	"sort"
	"time"

	"github.com/warp/chore-engine/recurrence"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TaskID string
type SeriesID string

// =============================================================================
// TASK
// =============================================================================

// Task is one item in a series. Items are strictly ordered by Order;
// slice position is never meaningful.
type Task struct {
	ID    TaskID
	Order int
	Text  string

	Completed   bool
	CompletedAt *time.Time

	// IsDayBreak marks a structural block separator. Break items carry
	// no text and are never shown to a member.
	IsDayBreak bool

	// ParentID groups subtasks under a heading item; empty for roots.
	ParentID TaskID
	Indent   int
}

// completedOn reports whether the task was completed on the given
// calendar day.
func (t Task) completedOn(day recurrence.Date) bool {
	if !t.Completed || t.CompletedAt == nil {
		return false
	}
	return recurrence.DateOf(*t.CompletedAt).Equal(day)
}

// =============================================================================
// SERIES
// =============================================================================

// Series is an ordered task list with a day-block cadence.
type Series struct {
	ID    SeriesID
	Title string
	Tasks []Task

	// RecurrenceRule and Anchor define when blocks are scheduled.
	// A series without a rule only ever shows its current block.
	RecurrenceRule string
	Anchor         recurrence.Date

	// Start is the first day the series applies at all.
	Start recurrence.Date
}

// ordered returns the series tasks sorted by their Order field.
func (s Series) ordered() []Task {
	out := make([]Task, len(s.Tasks))
	copy(out, s.Tasks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// =============================================================================
// MUTATION INTENT
// =============================================================================

// Mutation is a completion-state change the caller should apply to one
// task. CompletedAt is nil when Completed is false.
type Mutation struct {
	Task        TaskID
	Completed   bool
	CompletedAt *time.Time
}
