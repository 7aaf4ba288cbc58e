/*
completions.go - Read-only views over completion records

PURPOSE:
  The reward aggregator and schedule views repeatedly ask the same
  questions of a completion snapshot: "which completions belong to this
  chore?", "is there a record for this chore on this due date?", "which
  completions are still unawarded?". CompletionSet indexes a snapshot
  once and answers those lookups without rescanning.

  The set is a pure view: it never mutates the records it wraps, and the
  slices it returns are copies ordered by due date.
*/
package chores

import (
	"sort"

	"github.com/warp/chore-engine/recurrence"
)

// =============================================================================
// COMPLETION SET
// =============================================================================

// CompletionSet is an indexed, read-only view over completion records.
type CompletionSet struct {
	all     []Completion
	byID    map[CompletionID]int
	byChore map[ChoreID][]int
}

// NewCompletionSet indexes a snapshot of completions. Records are kept
// in due-date order so every lookup result is chronologically sorted.
func NewCompletionSet(records []Completion) CompletionSet {
	all := make([]Completion, len(records))
	copy(all, records)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].DueDate.Before(all[j].DueDate)
	})

	set := CompletionSet{
		all:     all,
		byID:    make(map[CompletionID]int, len(all)),
		byChore: make(map[ChoreID][]int),
	}
	for i, c := range all {
		set.byID[c.ID] = i
		set.byChore[c.ChoreID] = append(set.byChore[c.ChoreID], i)
	}
	return set
}

// All returns every completion in due-date order.
func (s CompletionSet) All() []Completion {
	out := make([]Completion, len(s.all))
	copy(out, s.all)
	return out
}

// ByID looks up a single completion.
func (s CompletionSet) ByID(id CompletionID) (Completion, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Completion{}, false
	}
	return s.all[i], true
}

// ForChore returns all completions recorded against one chore.
func (s CompletionSet) ForChore(id ChoreID) []Completion {
	indexes := s.byChore[id]
	out := make([]Completion, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, s.all[i])
	}
	return out
}

// ForMember returns all completions performed by one member.
func (s CompletionSet) ForMember(id MemberID) []Completion {
	var out []Completion
	for _, c := range s.all {
		if c.CompletedBy == id {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the completion for a chore on a specific due date.
func (s CompletionSet) Find(chore ChoreID, due recurrence.Date) (Completion, bool) {
	for _, i := range s.byChore[chore] {
		if s.all[i].DueDate.Equal(due) {
			return s.all[i], true
		}
	}
	return Completion{}, false
}

// Unawarded returns the completions that have not yet been folded into a
// paid allowance, in due-date order. This is the working set for every
// reward evaluation pass.
func (s CompletionSet) Unawarded() []Completion {
	var out []Completion
	for _, c := range s.all {
		if !c.Awarded {
			out = append(out, c)
		}
	}
	return out
}

// DueIn returns the completions whose due date falls in [from, to].
func (s CompletionSet) DueIn(from, to recurrence.Date) []Completion {
	var out []Completion
	for _, c := range s.all {
		if c.DueDate.AfterOrEqual(from) && c.DueDate.BeforeOrEqual(to) {
			out = append(out, c)
		}
	}
	return out
}
