/*
PURPOSE:
  Turn an evaluated pending period into the payout transactions a
  balance store should record. The engine never touches balances itself;
  it hands back intents and the caller applies them together with the
  completion retirement in one transaction.

KEY CONCEPTS:
  - PayoutIntent: One signed amount in one currency with a
    human-readable description. Fixed rewards in the member's base
    currency are merged into the variable intent so a period produces at
    most one transaction per currency.

SEE ALSO:
  - evaluate.go: Producing the periods this file settles
  - store: Applying intents transactionally
*/
package allowance

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/chore-engine/chores"
)

// =============================================================================
// PAYOUT INTENTS
// =============================================================================

// PayoutIntent is a single transaction to record against a member's
// balance.
type PayoutIntent struct {
	Member      chores.MemberID
	Amount      decimal.Decimal
	Currency    string
	Description string
}

// BuildPayout converts a pending period into payout intents, one per
// currency, in deterministic currency order. A skipped period yields no
// intents; its completions are still retired by the caller.
func BuildPayout(cfg Config, p Period) []PayoutIntent {
	span := fmt.Sprintf("%s to %s", p.Start, p.End)

	amounts := map[string]decimal.Decimal{}
	if p.VariableAmount.IsPositive() {
		amounts[cfg.Currency] = p.VariableAmount
	}
	for cur, amt := range p.FixedRewards {
		amounts[cur] = amounts[cur].Add(amt)
	}

	currencies := make([]string, 0, len(amounts))
	for cur := range amounts {
		currencies = append(currencies, cur)
	}
	sort.Strings(currencies)

	intents := make([]PayoutIntent, 0, len(currencies))
	for _, cur := range currencies {
		desc := fmt.Sprintf("Chore rewards %s", span)
		if cur == cfg.Currency && p.VariableAmount.IsPositive() {
			desc = fmt.Sprintf("Allowance %s (%s%% complete)", span, p.Percentage.Round(1))
		}
		intents = append(intents, PayoutIntent{
			Member:      p.Member,
			Amount:      amounts[cur],
			Currency:    cur,
			Description: desc,
		})
	}
	return intents
}
