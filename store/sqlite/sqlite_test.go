package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/chore-engine/allowance"
	"github.com/warp/chore-engine/chores"
	"github.com/warp/chore-engine/recurrence"
	"github.com/warp/chore-engine/store"
	"github.com/warp/chore-engine/tasklist"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestChoreRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	end := recurrence.NewDate(2024, time.June, 30)
	chore := chores.Chore{
		ID:             "dishes",
		Title:          "Do the dishes",
		Start:          recurrence.NewDate(2024, time.January, 1),
		RecurrenceRule: "FREQ=DAILY",
		End:            &end,
		Assignees:      []chores.MemberID{"m1", "m2"},
		Rotation: []chores.RotationEntry{
			{Order: 0, Member: "m1"},
			{Order: 1, Member: "m2"},
		},
		RotationUnit: chores.RotateDaily,
		RewardMode:   chores.RewardWeighted,
		Weight:       decimal.RequireFromString("2.5"),
		FixedAmount:  decimal.Zero,
	}
	require.NoError(t, st.PutChore(ctx, chore))

	loaded, err := st.Chores(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	got := loaded[0]
	require.Equal(t, chore.ID, got.ID)
	require.True(t, got.Start.Equal(chore.Start))
	require.NotNil(t, got.End)
	require.True(t, got.End.Equal(end))
	require.Equal(t, chore.Assignees, got.Assignees)
	require.Equal(t, chore.Rotation, got.Rotation)
	require.True(t, got.Weight.Equal(chore.Weight))

	// Upsert replaces relations instead of accumulating them.
	chore.Rotation = chore.Rotation[:1]
	require.NoError(t, st.PutChore(ctx, chore))
	loaded, err = st.Chores(ctx)
	require.NoError(t, err)
	require.Len(t, loaded[0].Rotation, 1)
}

func TestCompletionAwardedLatchSurvivesReRecord(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	due := recurrence.NewDate(2024, time.January, 2)

	require.NoError(t, st.RecordCompletion(ctx, chores.Completion{
		ID: "c1", ChoreID: "dishes", DueDate: due, Completed: true, CompletedBy: "m1",
	}))
	require.NoError(t, st.MarkAwarded(ctx, []chores.CompletionID{"c1"}))

	// Re-recording the same chore/day must not clear the latch.
	require.NoError(t, st.RecordCompletion(ctx, chores.Completion{
		ChoreID: "dishes", DueDate: due, Completed: false,
	}))

	all, err := st.Completions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.True(t, all[0].Awarded)
	require.False(t, all[0].Completed)
}

func TestSettlePeriodsAppliesAllEffects(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cfg := allowance.Config{
		Member:         "m1",
		Amount:         decimal.NewFromInt(10),
		Currency:       "USD",
		RecurrenceRule: "FREQ=WEEKLY",
		Anchor:         recurrence.NewDate(2024, time.January, 1),
	}
	require.NoError(t, st.PutAllowanceConfig(ctx, cfg))
	require.NoError(t, st.RecordCompletion(ctx, chores.Completion{
		ID: "c1", ChoreID: "dishes",
		DueDate: recurrence.NewDate(2024, time.January, 3),
		Completed: true, CompletedBy: "m1",
	}))

	require.NoError(t, st.SettlePeriods(ctx, store.Settlement{
		Member: "m1",
		Payouts: []allowance.PayoutIntent{
			{Member: "m1", Amount: decimal.NewFromInt(5), Currency: "USD", Description: "Allowance 2024-01-01 to 2024-01-07 (50% complete)"},
		},
		MarkAwarded: []chores.CompletionID{"c1"},
		LastAwarded: "c1",
	}))

	payouts, err := st.Payouts(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	require.True(t, payouts[0].Amount.Equal(decimal.NewFromInt(5)))

	all, err := st.Completions(ctx)
	require.NoError(t, err)
	require.True(t, all[0].Awarded)

	got, err := st.AllowanceConfig(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, got.LastAwarded)
	require.Equal(t, chores.CompletionID("c1"), *got.LastAwarded)
}

func TestSeriesRoundTripAndMutations(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	sr := tasklist.Series{
		ID:             "packing",
		Title:          "Packing list",
		RecurrenceRule: "FREQ=DAILY",
		Anchor:         recurrence.NewDate(2024, time.January, 1),
		Start:          recurrence.NewDate(2024, time.January, 1),
		Tasks: []tasklist.Task{
			{ID: "A", Order: 0, Text: "Passports"},
			{ID: "brk", Order: 1, IsDayBreak: true},
			{ID: "B", Order: 2, Text: "Snacks", ParentID: "A", Indent: 1},
		},
	}
	require.NoError(t, st.PutSeries(ctx, sr))

	now := time.Date(2024, time.January, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, st.ApplyTaskMutations(ctx, "packing", []tasklist.Mutation{
		{Task: "A", Completed: true, CompletedAt: &now},
	}))

	got, err := st.Series(ctx, "packing")
	require.NoError(t, err)
	require.Len(t, got.Tasks, 3)
	require.True(t, got.Tasks[0].Completed)
	require.NotNil(t, got.Tasks[0].CompletedAt)
	require.True(t, got.Tasks[0].CompletedAt.Equal(now))
	require.True(t, got.Tasks[1].IsDayBreak)
	require.Equal(t, tasklist.TaskID("A"), got.Tasks[2].ParentID)

	_, err = st.Series(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMembersOrderedBySortOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.PutMember(ctx, chores.Member{ID: "zoe", Name: "Zoe", SortOrder: 1}))
	require.NoError(t, st.PutMember(ctx, chores.Member{ID: "amy", Name: "Amy", SortOrder: 2}))

	members, err := st.Members(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, chores.MemberID("zoe"), members[0].ID)
}
