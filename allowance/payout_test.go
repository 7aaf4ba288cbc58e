package allowance

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/chore-engine/chores"
)

func TestBuildPayoutMergesBaseCurrency(t *testing.T) {
	// GIVEN: A period earning $5 variable plus fixed rewards in USD and EUR
	// WHEN: Building payout intents
	// THEN: Same-currency amounts merge; one intent per currency, sorted
	p := Period{
		Member:         "m1",
		Start:          d(2024, time.January, 1),
		End:            d(2024, time.January, 7),
		Percentage:     decimal.NewFromInt(50),
		VariableAmount: decimal.NewFromInt(5),
		FixedRewards: map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(2),
			"EUR": decimal.NewFromInt(3),
		},
	}

	intents := BuildPayout(weeklyConfig(), p)

	if len(intents) != 2 {
		t.Fatalf("got %d intents, want 2", len(intents))
	}
	if intents[0].Currency != "EUR" || !intents[0].Amount.Equal(decimal.NewFromInt(3)) {
		t.Errorf("intents[0] = %+v, want EUR 3", intents[0])
	}
	if intents[1].Currency != "USD" || !intents[1].Amount.Equal(decimal.NewFromInt(7)) {
		t.Errorf("intents[1] = %+v, want USD 7 (5 variable + 2 fixed)", intents[1])
	}
	if !strings.Contains(intents[1].Description, "50% complete") {
		t.Errorf("USD description = %q, want the completion percentage", intents[1].Description)
	}
	if !strings.Contains(intents[0].Description, "2024-01-01 to 2024-01-07") {
		t.Errorf("EUR description = %q, want the period span", intents[0].Description)
	}
}

func TestBuildPayoutForRetireOnlyPeriod(t *testing.T) {
	p := Period{
		Member:            "m1",
		Start:             d(2024, time.January, 8),
		End:               d(2024, time.January, 14),
		CompletionsToMark: []chores.CompletionID{"c1"},
	}
	if intents := BuildPayout(weeklyConfig(), p); len(intents) != 0 {
		t.Errorf("retire-only period produced intents: %+v", intents)
	}
}
