package chores

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/chore-engine/recurrence"
)

func d(year int, month time.Month, day int) recurrence.Date {
	return recurrence.NewDate(year, month, day)
}

func dailyRotationChore() Chore {
	return Chore{
		ID:             "dishes",
		Title:          "Do the dishes",
		Start:          d(2024, time.January, 1),
		RecurrenceRule: "FREQ=DAILY",
		Assignees:      []MemberID{"m1", "m2", "m3"},
		Rotation: []RotationEntry{
			{Order: 0, Member: "m1"},
			{Order: 1, Member: "m2"},
			{Order: 2, Member: "m3"},
		},
		RotationUnit: RotateDaily,
		RewardMode:   RewardWeighted,
		Weight:       decimal.NewFromInt(5),
	}
}

// =============================================================================
// ROTATION
// =============================================================================

func TestDailyRotationWrapsAround(t *testing.T) {
	// GIVEN: Rotation [m1,m2,m3], daily granularity, anchor 2024-01-01
	// WHEN: Resolving the anchor day and three days later
	// THEN: Both land on m1 (index 0 and index 3 mod 3)
	chore := dailyRotationChore()

	got := AssignedMembers(chore, d(2024, time.January, 1))
	if len(got) != 1 || got[0] != "m1" {
		t.Errorf("anchor day assignee = %v, want [m1]", got)
	}

	got = AssignedMembers(chore, d(2024, time.January, 4))
	if len(got) != 1 || got[0] != "m1" {
		t.Errorf("2024-01-04 assignee = %v, want [m1] (index 3 mod 3)", got)
	}
}

func TestDailyRotationCountsOccurrencesNotDays(t *testing.T) {
	// An every-3-days chore advances the rotation once per firing, so
	// naive day-counting would triple-step the rotation.
	chore := dailyRotationChore()
	chore.RecurrenceRule = "FREQ=DAILY;INTERVAL=3"

	// Occurrences: Jan 1 (m1), Jan 4 (m2), Jan 7 (m3), Jan 10 (m1)
	tests := []struct {
		day  recurrence.Date
		want MemberID
	}{
		{d(2024, time.January, 1), "m1"},
		{d(2024, time.January, 4), "m2"},
		{d(2024, time.January, 7), "m3"},
		{d(2024, time.January, 10), "m1"},
	}
	for _, tt := range tests {
		got := AssignedMembers(chore, tt.day)
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("%v assignee = %v, want [%s]", tt.day, got, tt.want)
		}
	}
}

func TestWeeklyRotationGranularity(t *testing.T) {
	chore := dailyRotationChore()
	chore.RotationUnit = RotateWeekly

	// Same week as the anchor -> index 0, next week -> index 1.
	if got := AssignedMembers(chore, d(2024, time.January, 6)); got[0] != "m1" {
		t.Errorf("same-week assignee = %v, want m1", got)
	}
	if got := AssignedMembers(chore, d(2024, time.January, 8)); got[0] != "m2" {
		t.Errorf("next-week assignee = %v, want m2", got)
	}
}

func TestMonthlyRotationGranularity(t *testing.T) {
	chore := dailyRotationChore()
	chore.RotationUnit = RotateMonthly

	if got := AssignedMembers(chore, d(2024, time.January, 25)); got[0] != "m1" {
		t.Errorf("anchor-month assignee = %v, want m1", got)
	}
	if got := AssignedMembers(chore, d(2024, time.March, 2)); got[0] != "m3" {
		t.Errorf("march assignee = %v, want m3 (month diff 2)", got)
	}
}

func TestRotationOrderSortedByOrderField(t *testing.T) {
	// Slice position is deliberately scrambled; the Order field wins.
	chore := dailyRotationChore()
	chore.Rotation = []RotationEntry{
		{Order: 2, Member: "m3"},
		{Order: 0, Member: "m1"},
		{Order: 1, Member: "m2"},
	}

	if got := AssignedMembers(chore, d(2024, time.January, 2)); got[0] != "m2" {
		t.Errorf("index 1 assignee = %v, want m2", got)
	}
}

func TestRotationFairness(t *testing.T) {
	// Property: over k*N consecutive occurrences of a daily rotation,
	// every member is assigned exactly k times.
	chore := dailyRotationChore()
	counts := map[MemberID]int{}

	day := d(2024, time.January, 1)
	for i := 0; i < 30; i++ { // 10 full cycles of 3
		got := AssignedMembers(chore, day)
		if len(got) != 1 {
			t.Fatalf("%v: expected exactly one assignee, got %v", day, got)
		}
		counts[got[0]]++
		day = day.AddDays(1)
	}

	for _, m := range []MemberID{"m1", "m2", "m3"} {
		if counts[m] != 10 {
			t.Errorf("member %s assigned %d times, want 10", m, counts[m])
		}
	}
}

// =============================================================================
// CLAIMABLE AND STATIC RESOLUTION
// =============================================================================

func TestClaimableReturnsFullAssigneeSet(t *testing.T) {
	// A claimable chore ignores its rotation: everyone stays eligible
	// and the first completion claims the occurrence.
	chore := dailyRotationChore()
	chore.Claimable = true

	got := AssignedMembers(chore, d(2024, time.January, 2))
	if len(got) != 3 {
		t.Fatalf("claimable assignees = %v, want all three members", got)
	}
}

func TestNoRotationReturnsFullAssigneeSet(t *testing.T) {
	chore := dailyRotationChore()
	chore.Rotation = nil

	got := AssignedMembers(chore, d(2024, time.January, 2))
	if len(got) != 3 {
		t.Fatalf("assignees = %v, want all three members", got)
	}
}

func TestNonOccurrenceDayAssignsNobody(t *testing.T) {
	chore := dailyRotationChore()
	chore.RecurrenceRule = "FREQ=WEEKLY" // Mondays only

	if got := AssignedMembers(chore, d(2024, time.January, 3)); got != nil {
		t.Errorf("non-occurrence day assignees = %v, want none", got)
	}
}

func TestOneOffChoreAppliesOnStartDayOnly(t *testing.T) {
	chore := dailyRotationChore()
	chore.RecurrenceRule = ""
	chore.Rotation = nil

	if got := AssignedMembers(chore, d(2024, time.January, 1)); len(got) != 3 {
		t.Errorf("start-day assignees = %v, want all three", got)
	}
	if got := AssignedMembers(chore, d(2024, time.January, 2)); got != nil {
		t.Errorf("other-day assignees = %v, want none", got)
	}
}

func TestEndedChoreAssignsNobody(t *testing.T) {
	chore := dailyRotationChore()
	end := d(2024, time.January, 10)
	chore.End = &end

	if got := AssignedMembers(chore, d(2024, time.January, 11)); got != nil {
		t.Errorf("post-end assignees = %v, want none", got)
	}
}

// =============================================================================
// FAILURE SEMANTICS
// =============================================================================

func TestInvalidRuleResolvesToNobody(t *testing.T) {
	chore := dailyRotationChore()
	chore.RecurrenceRule = "FREQ=FORTNIGHTLY"

	if got := AssignedMembers(chore, d(2024, time.January, 1)); got != nil {
		t.Errorf("invalid-rule assignees = %v, want none", got)
	}
}

func TestEmptyRotationSlotResolvesToNobody(t *testing.T) {
	chore := dailyRotationChore()
	chore.Rotation = []RotationEntry{{Order: 0, Member: ""}}

	if got := AssignedMembers(chore, d(2024, time.January, 1)); got != nil {
		t.Errorf("empty-slot assignees = %v, want none", got)
	}
}

func TestBeforeStartAssignsNobody(t *testing.T) {
	chore := dailyRotationChore()

	if got := AssignedMembers(chore, d(2023, time.December, 31)); got != nil {
		t.Errorf("pre-start assignees = %v, want none", got)
	}
}

func TestCountsTowardBaseline(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Chore)
		want   bool
	}{
		{"weighted positive weight", func(c *Chore) {}, true},
		{"zero weight", func(c *Chore) { c.Weight = decimal.Zero }, false},
		{"fixed reward", func(c *Chore) { c.RewardMode = RewardFixed }, false},
		{"claimable", func(c *Chore) { c.Claimable = true }, false},
	}

	for _, tt := range tests {
		chore := dailyRotationChore()
		tt.mutate(&chore)
		if got := chore.CountsTowardBaseline(); got != tt.want {
			t.Errorf("%s: CountsTowardBaseline = %v, want %v", tt.name, got, tt.want)
		}
	}
}
