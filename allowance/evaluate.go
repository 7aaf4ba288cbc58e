/*
PURPOSE:
  The two-pass reward aggregation and the period scanner that drives it.

KEY CONCEPTS:
  - Evaluate: Compute one Period from snapshot inputs. Pass 1 builds the
    weighted baseline from what SHOULD have happened (assignment
    resolution per occurrence); pass 2 credits what DID happen
    (unawarded completion records).
  - EvaluateSince: Walk a member's cadence periods from the resumption
    point to the as-of date and bucket them into a Review.

DESIGN PRINCIPLES:
  1. The baseline counts obligations, the credit counts completions. A
     claimable chore is invisible to the baseline but credits on
     completion, which is exactly why Percentage is uncapped.
  2. Retirement is all-or-nothing per period: every unawarded completion
     in the window goes on CompletionsToMark, completed or not, so a
     period is processed exactly once.

SEE ALSO:
  - types.go: Period, Review, StatusAt
  - chores/assignment.go: Who was assigned on a given occurrence
*/
package allowance

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/warp/chore-engine/chores"
	"github.com/warp/chore-engine/recurrence"
)

// maxScanPeriods bounds the resumption scan so a corrupt back-reference
// or an ancient anchor cannot spin the evaluator.
const maxScanPeriods = 5000

var hundred = decimal.NewFromInt(100)

// =============================================================================
// SINGLE-PERIOD EVALUATION
// =============================================================================

// Evaluate computes the reward period [start, end] for cfg's member.
// chs is the full chore snapshot; unawarded is the member's unawarded
// completion records. Status is left for the caller to stamp via
// StatusAt.
func Evaluate(cfg Config, start, end recurrence.Date, chs []chores.Chore, unawarded []chores.Completion) Period {
	p := Period{
		Member:       cfg.Member,
		Start:        start,
		End:          end,
		FixedRewards: map[string]decimal.Decimal{},
	}

	// Pass 1: weighted baseline. For every baseline chore, count the
	// occurrences inside the window on which this member was assigned.
	byID := make(map[chores.ChoreID]chores.Chore, len(chs))
	for _, c := range chs {
		byID[c.ID] = c
		if !c.CountsTowardBaseline() {
			continue
		}
		sched, err := c.Schedule()
		if err != nil {
			slog.Warn("skipping chore with invalid recurrence rule",
				"chore", c.ID, "rule", c.RecurrenceRule, "error", err)
			continue
		}
		assigned := 0
		for _, occ := range sched.Between(start, end) {
			for _, m := range chores.AssignedMembers(c, occ) {
				if m == cfg.Member {
					assigned++
					break
				}
			}
		}
		if assigned > 0 {
			n := decimal.NewFromInt(int64(assigned))
			p.TotalWeight = p.TotalWeight.Add(c.Weight.Mul(n))
		}
	}

	// Pass 2: credit completions. Every unawarded record attributed to
	// the member in the window is retired; completed ones earn weight or
	// fixed rewards.
	var claimableWeight decimal.Decimal
	for _, comp := range unawarded {
		if comp.Awarded {
			continue
		}
		if comp.DueDate.Before(start) || comp.DueDate.After(end) {
			continue
		}
		chore, ok := byID[comp.ChoreID]
		if !ok {
			slog.Debug("skipping completion for unknown chore",
				"completion", comp.ID, "chore", comp.ChoreID)
			continue
		}
		if !attributedTo(cfg.Member, comp, chore) {
			continue
		}
		p.CompletionsToMark = append(p.CompletionsToMark, comp.ID)
		if !comp.Completed {
			continue
		}
		switch {
		case !chore.Claimable:
			if chore.RewardMode == chores.RewardWeighted {
				p.CompletedWeight = p.CompletedWeight.Add(chore.Weight)
			}
		case chore.RewardMode == chores.RewardFixed:
			cur := chore.Currency
			if cur == "" {
				cur = cfg.Currency
			}
			p.FixedRewards[cur] = p.FixedRewards[cur].Add(chore.FixedAmount)
		default:
			// Claimable weighted: bonus weight on top of the baseline.
			p.CompletedWeight = p.CompletedWeight.Add(chore.Weight)
			claimableWeight = claimableWeight.Add(chore.Weight)
		}
	}

	if p.TotalWeight.IsPositive() {
		p.Percentage = p.CompletedWeight.Div(p.TotalWeight).Mul(hundred)
		p.ClaimableContributionPct = claimableWeight.Div(p.TotalWeight).Mul(hundred)
	}
	p.VariableAmount = p.Percentage.Mul(cfg.Amount).Div(hundred)
	return p
}

// attributedTo decides whether a completion record belongs in member's
// reward period. A completed record belongs to whoever completed it; an
// open record belongs to whoever was assigned on its due date, so that
// missed duties are retired along with the period they fell in.
func attributedTo(member chores.MemberID, comp chores.Completion, chore chores.Chore) bool {
	if comp.CompletedBy != "" {
		return comp.CompletedBy == member
	}
	for _, m := range chores.AssignedMembers(chore, comp.DueDate) {
		if m == member {
			return true
		}
	}
	return false
}

// =============================================================================
// PERIOD SCANNING
// =============================================================================

// EvaluateSince scans cfg's cadence periods from the resumption point up
// to asOf and buckets each one. The resumption point is the day after
// the end of the period containing the last-awarded completion's due
// date; with no back-reference the scan starts at the anchor.
//
// A gap in the back-reference chain (the referenced completion no longer
// exists) falls back to a full scan from the anchor; already-retired
// periods then evaluate to empty and are dropped, so the fallback is
// slow but correct.
func EvaluateSince(cfg Config, chs []chores.Chore, set chores.CompletionSet, asOf recurrence.Date) (Review, error) {
	review := Review{Member: cfg.Member}
	if cfg.Currency == "" {
		return review, fmt.Errorf("allowance for %s: missing currency", cfg.Member)
	}
	if !cfg.Amount.IsPositive() {
		return review, fmt.Errorf("allowance for %s: amount must be positive, got %s", cfg.Member, cfg.Amount)
	}
	sched, err := recurrence.NewSchedule(cfg.RecurrenceRule, cfg.Anchor)
	if err != nil {
		return review, fmt.Errorf("allowance for %s: %w", cfg.Member, err)
	}

	cursor := cfg.Anchor
	if cfg.LastAwarded != nil {
		if comp, ok := set.ByID(*cfg.LastAwarded); ok {
			if p, ok := sched.PeriodContaining(comp.DueDate); ok {
				cursor = p.End.AddDays(1)
			}
		} else {
			slog.Warn("last-awarded completion not found, rescanning from anchor",
				"member", cfg.Member, "completion", *cfg.LastAwarded)
		}
	}

	unawarded := set.Unawarded()
	for i := 0; i < maxScanPeriods; i++ {
		bracket, ok := sched.PeriodContaining(cursor)
		if !ok {
			break
		}
		status, included := StatusAt(bracket.Start, bracket.End, cfg.PayoutDelayDays, asOf)
		if !included {
			break
		}
		period := Evaluate(cfg, bracket.Start, bracket.End, chs, unawarded)
		period.Status = status

		if status == StatusInProgress {
			review.InProgress = &period
			break
		}
		switch {
		case !period.HasActivity():
			// Nothing happened and nothing to retire: drop silently.
		case period.Payable():
			review.Pending = append(review.Pending, period)
		default:
			period.Status = StatusSkipped
			review.Skipped = append(review.Skipped, period)
		}
		cursor = bracket.End.AddDays(1)
	}
	return review, nil
}

// LatestAwardable returns the completion that should become the new
// last-awarded back-reference after the given periods are paid out: the
// retired completion with the latest due date.
func LatestAwardable(periods []Period, set chores.CompletionSet) (chores.CompletionID, bool) {
	var (
		best    chores.CompletionID
		bestDue recurrence.Date
		found   bool
	)
	for _, p := range periods {
		for _, id := range p.CompletionsToMark {
			comp, ok := set.ByID(id)
			if !ok {
				continue
			}
			if !found || comp.DueDate.After(bestDue) {
				best, bestDue, found = id, comp.DueDate, true
			}
		}
	}
	return best, found
}
