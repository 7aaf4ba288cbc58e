/*
Package allowance aggregates chore completions into weighted-percentage
payout periods and produces the mutation intents (completions to retire,
payout transactions to record) that an external collaborator applies.

PURPOSE:
  Each member has a payout cadence (a recurrence rule) and a base amount.
  Every cadence period, the engine asks: of all the weighted chore
  occurrences that were assigned to this member, how many were completed?
  That fraction of the base amount is the variable allowance. Fixed-price
  claimable chores are paid on top, per currency, outside the percentage.

KEY CONCEPTS (types.go):
  - Config: One member's payout settings snapshot.
  - Period: A computed reward period. Never persisted; recomputed from
    completion and chore state on every pass. Only its effects (retired
    completions, payout records) persist.
  - Review: The outcome of scanning a member's periods up to a date -
    one optional in-progress period, payable pending periods, and
    retire-only skipped periods.

DESIGN PRINCIPLES:
  1. Purity: Evaluation is a function of its snapshot inputs. Resumption
     state (the last-awarded back-reference) is threaded through Config,
     never cached in package state.
  2. Precision: decimal.Decimal end to end; percentages are never
     floated or silently capped.
  3. Tolerance: A misconfigured member yields an error the caller logs
     and skips; a dangling completion is skipped, not fatal.

SEE ALSO:
  - evaluate.go: The two-pass aggregation and period scanning
  - payout.go: Turning evaluated periods into payout intents
*/
package allowance

import (
	"github.com/shopspring/decimal"

	"github.com/warp/chore-engine/chores"
	"github.com/warp/chore-engine/recurrence"
)

// =============================================================================
// CONFIG - Per-member payout settings
// =============================================================================

// Config is a member's allowance configuration snapshot.
type Config struct {
	Member   chores.MemberID
	Amount   decimal.Decimal
	Currency string

	// Payout cadence: periods are the occurrence brackets of this rule.
	RecurrenceRule string
	Anchor         recurrence.Date

	// PayoutDelayDays is the grace period between a period's end and the
	// moment it becomes actionable.
	PayoutDelayDays int

	// LastAwarded points at the most recently awarded completion, used
	// to resume period scanning without replaying history. Nil means
	// scan from the anchor.
	LastAwarded *chores.CompletionID
}

// =============================================================================
// STATUS
// =============================================================================

// Status classifies a reward period relative to an as-of date. The
// precedence is an ordered list of guards, not nested conditionals; see
// StatusAt.
type Status string

const (
	// StatusInProgress: the as-of date is inside the period, or the
	// period has ended but its payout delay has not yet elapsed.
	StatusInProgress Status = "in-progress"

	// StatusPending: the payout delay has elapsed; the period is ready
	// for a payout decision.
	StatusPending Status = "pending"

	// StatusSkipped: pending, but nothing was earned. Its completions
	// are retired without a transaction.
	StatusSkipped Status = "skipped"

	// StatusDistributed: a payout was recorded for the period.
	StatusDistributed Status = "distributed"
)

// StatusAt classifies the period [start, end] as seen from asOf.
// The second return is false when the period lies in the future and
// should not appear in results at all.
func StatusAt(start, end recurrence.Date, delayDays int, asOf recurrence.Date) (Status, bool) {
	payoutDue := end.AddDays(delayDays)
	switch {
	case asOf.Before(start):
		return "", false
	case asOf.AfterOrEqual(payoutDue):
		return StatusPending, true
	default:
		// Inside the period, or ended with the delay still running.
		return StatusInProgress, true
	}
}

// =============================================================================
// PERIOD - Computed reward period (never persisted)
// =============================================================================

// Period is the computed reward state for one member over one payout
// cadence bracket.
type Period struct {
	Member chores.MemberID
	Start  recurrence.Date
	End    recurrence.Date

	// TotalWeight is the baseline: occurrence-count * weight summed over
	// every non-claimable weighted chore assigned to the member.
	TotalWeight decimal.Decimal

	// CompletedWeight is the earned weight, including claimable bonus
	// completions.
	CompletedWeight decimal.Decimal

	// Percentage is CompletedWeight/TotalWeight*100, 0 when TotalWeight
	// is 0. Deliberately uncapped: claimable bonus work can push a
	// period past 100%.
	Percentage decimal.Decimal

	// VariableAmount is Percentage/100 * the member's base amount.
	VariableAmount decimal.Decimal

	// FixedRewards accumulates flat-rate claimable rewards per currency.
	FixedRewards map[string]decimal.Decimal

	// CompletionsToMark lists every unawarded completion that fell into
	// this period, completed or not. Retiring them is what keeps the
	// next pass from re-processing this period.
	CompletionsToMark []chores.CompletionID

	Status Status

	// ClaimableContributionPct reports what share of Percentage came
	// from claimable bonus completions.
	ClaimableContributionPct decimal.Decimal
}

// HasActivity reports whether anything at all happened in the period.
func (p Period) HasActivity() bool {
	return len(p.CompletionsToMark) > 0 || len(p.FixedRewards) > 0
}

// Payable reports whether the period earned actual money.
func (p Period) Payable() bool {
	return p.VariableAmount.IsPositive() || len(p.FixedRewards) > 0
}

// =============================================================================
// REVIEW - A member's scanned periods as of a date
// =============================================================================

// Review is the result of EvaluateSince: every period from the
// resumption point up to the as-of date, bucketed by what should happen
// to it.
type Review struct {
	Member chores.MemberID

	// InProgress is the period containing (or still within payout delay
	// of) the as-of date, if any.
	InProgress *Period

	// Pending periods earned money and await a payout decision.
	Pending []Period

	// Skipped periods had completions to retire but earned nothing; they
	// are never surfaced for a payout action.
	Skipped []Period
}
