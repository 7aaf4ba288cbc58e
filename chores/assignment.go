/*
assignment.go - Resolving who is responsible for a chore on a day

PURPOSE:
  Answers AssignedMembers(chore, day). The answer feeds two consumers:
  the daily schedule view ("what is on my list today?") and the reward
  aggregator ("how many occurrences in this period were mine?").

RESOLUTION ORDER:
  1. Outside the chore's lifetime, or day is not an occurrence -> nobody.
  2. Claimable, or no rotation -> the full static assignee set. Who
     actually performs the chore is decided at completion time.
  3. Otherwise the rotation index for the day selects exactly one member.

ROTATION INDEX:
  daily:   the number of actual rule occurrences from the anchor through
           the day, minus one. Counting occurrences rather than days
           keeps irregular intervals fair - an every-3-days chore rotates
           one member per firing, not one per calendar day.
  weekly:  floored whole-week difference between anchor and day.
  monthly: signed calendar-month difference.
  All indices floor at zero, and the rotation order is sorted by its
  explicit Order field before indexing.

FAILURE SEMANTICS:
  A malformed chore (unparsable rule, empty rotation slot) resolves to an
  empty assignee list, logged at warn level. One corrupt record must not
  blank out an entire schedule view.
*/
package chores

import (
	"log/slog"
	"sort"

	"github.com/warp/chore-engine/recurrence"
)

// AssignedMembers returns the members responsible for the chore on the
// given day. An empty result means the chore does not apply that day or
// could not be resolved.
func AssignedMembers(chore Chore, day recurrence.Date) []MemberID {
	if !chore.activeOn(day) {
		return nil
	}

	// A chore without a recurrence applies only on its exact start day.
	if chore.RecurrenceRule == "" {
		if !day.Equal(chore.Start) {
			return nil
		}
		return staticAssignees(chore)
	}

	sched, err := chore.Schedule()
	if err != nil {
		slog.Warn("skipping chore with invalid recurrence rule",
			"chore_id", chore.ID, "rule", chore.RecurrenceRule, "error", err)
		return nil
	}
	if !sched.Includes(day) {
		return nil
	}

	if chore.Claimable || len(chore.Rotation) == 0 {
		return staticAssignees(chore)
	}

	return rotationAssignee(chore, sched, day)
}

func staticAssignees(chore Chore) []MemberID {
	if len(chore.Assignees) == 0 {
		return nil
	}
	out := make([]MemberID, len(chore.Assignees))
	copy(out, chore.Assignees)
	return out
}

// rotationAssignee selects the single member on duty for the day.
func rotationAssignee(chore Chore, sched recurrence.Schedule, day recurrence.Date) []MemberID {
	order := make([]RotationEntry, len(chore.Rotation))
	copy(order, chore.Rotation)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Order < order[j].Order
	})

	index := rotationIndex(chore, sched, day)
	entry := order[index%len(order)]
	if entry.Member == "" {
		slog.Warn("rotation entry references no member", "chore_id", chore.ID, "slot", entry.Order)
		return nil
	}
	return []MemberID{entry.Member}
}

func rotationIndex(chore Chore, sched recurrence.Schedule, day recurrence.Date) int {
	var index int
	switch chore.RotationUnit {
	case RotateWeekly:
		index = recurrence.WeeksBetween(chore.Start, day)
	case RotateMonthly:
		index = recurrence.MonthsBetween(chore.Start, day)
	default: // daily
		index = len(sched.Between(chore.Start, day)) - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}
