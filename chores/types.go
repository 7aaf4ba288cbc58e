/*
Package chores defines the household obligation snapshot types and the
pure resolution logic over them: who is responsible for a chore on a
given day, and which completion records exist for it.

PURPOSE:
  The engine never talks to a database. Callers (store, api, cron pass)
  load snapshots of chores, members and completions, hand them to the
  resolution functions here and to the allowance evaluator, and apply the
  resulting mutation intents themselves.

KEY CONCEPTS (types.go):
  - Chore: A recurring or one-off obligation with an assignee set,
    optional rotation, and a reward definition.
  - Completion: The record that a chore was owed for a day and whether it
    was done. The Awarded flag is a one-way latch: once a completion has
    been folded into a paid allowance it never re-enters aggregation.
  - Claimable: An up-for-grabs chore. Any eligible member may complete
    it; it never participates in rotation and never counts toward the
    weighted baseline.

DESIGN PRINCIPLES:
  1. Immutability: Resolution functions never modify their inputs.
  2. Precision: Weights and money use decimal.Decimal, never float math.
  3. Tolerance: Misconfigured records resolve to "nobody assigned" or
     "skip this record" instead of failing a whole evaluation pass.

SEE ALSO:
  - assignment.go: Rotation and claim resolution
  - completions.go: Lookup views over completion records
  - allowance: Reward period aggregation built on this package
*/
package chores

import (
	"github.com/shopspring/decimal"

	"github.com/warp/chore-engine/recurrence"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MemberID string
type ChoreID string
type CompletionID string

// =============================================================================
// MEMBER
// =============================================================================

// Member is a household member snapshot. Only the fields the engine
// needs; profile data stays in the application shell.
type Member struct {
	ID        MemberID
	Name      string
	SortOrder int
}

// =============================================================================
// CHORE
// =============================================================================

// RewardMode selects how a completed chore is compensated.
type RewardMode string

const (
	// RewardWeighted contributes the chore's weight to the member's
	// percentage-based allowance for the payout period.
	RewardWeighted RewardMode = "weighted"

	// RewardFixed pays a flat amount per completion, tracked per
	// currency, outside the percentage calculation entirely.
	RewardFixed RewardMode = "fixed"
)

// RotationUnit is the granularity at which a rotation advances.
type RotationUnit string

const (
	RotateDaily   RotationUnit = "daily"
	RotateWeekly  RotationUnit = "weekly"
	RotateMonthly RotationUnit = "monthly"
)

// RotationEntry is one slot in a chore's rotation order. Entries are
// ordered by the explicit Order field, never by slice position.
type RotationEntry struct {
	Order  int
	Member MemberID
}

// Chore is an obligation snapshot.
type Chore struct {
	ID    ChoreID
	Title string

	// Start anchors the recurrence. A chore without a rule applies on
	// this exact day only.
	Start          recurrence.Date
	RecurrenceRule string
	End            *recurrence.Date

	// Assignees is the static set of nominally responsible members.
	Assignees []MemberID

	// Rotation, when present, narrows responsibility to one member per
	// rotation step. Ignored for claimable chores.
	Rotation     []RotationEntry
	RotationUnit RotationUnit

	// Claimable marks an up-for-grabs chore: anyone may complete it and
	// the first completion claims that occurrence.
	Claimable bool

	RewardMode  RewardMode
	Weight      decimal.Decimal
	FixedAmount decimal.Decimal
	Currency    string
}

// CountsTowardBaseline reports whether the chore participates in the
// weighted-percentage denominator. Claimable chores are bonus work and
// never set the baseline; zero-weight and fixed-reward chores are
// excluded so they cannot dilute the percentage.
func (c Chore) CountsTowardBaseline() bool {
	return !c.Claimable && c.RewardMode == RewardWeighted && c.Weight.IsPositive()
}

// Schedule parses the chore's recurrence rule anchored at its start.
func (c Chore) Schedule() (recurrence.Schedule, error) {
	return recurrence.NewSchedule(c.RecurrenceRule, c.Start)
}

// activeOn reports whether day falls inside the chore's lifetime.
func (c Chore) activeOn(day recurrence.Date) bool {
	if day.Before(c.Start) {
		return false
	}
	if c.End != nil && day.After(*c.End) {
		return false
	}
	return true
}

// =============================================================================
// COMPLETION
// =============================================================================

// Completion records that a chore was owed for a day. DueDate is the
// calendar day the chore was owed for, independent of when it was
// actually marked; it anchors the completion into exactly one occurrence
// and one reward period.
type Completion struct {
	ID          CompletionID
	ChoreID     ChoreID
	DueDate     recurrence.Date
	Completed   bool
	CompletedBy MemberID

	// Awarded is terminal: set when the completion is folded into a paid
	// allowance transaction, never unset afterwards.
	Awarded bool
}
