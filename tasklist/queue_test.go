package tasklist

import (
	"testing"
	"time"

	"github.com/warp/chore-engine/recurrence"
)

func d(year int, month time.Month, day int) recurrence.Date {
	return recurrence.NewDate(year, month, day)
}

// at returns a completion timestamp some hours into the given day.
func at(day recurrence.Date) *time.Time {
	ts := day.Time.Add(10 * time.Hour)
	return &ts
}

// packingSeries is [A, B, break, C, D]: two day blocks.
func packingSeries() Series {
	return Series{
		ID:    "packing",
		Title: "Packing list",
		Start: d(2024, time.January, 1),
		Tasks: []Task{
			{ID: "A", Order: 0, Text: "Passports"},
			{ID: "B", Order: 1, Text: "Chargers"},
			{ID: "brk", Order: 2, IsDayBreak: true},
			{ID: "C", Order: 3, Text: "Toiletries"},
			{ID: "D", Order: 4, Text: "Snacks"},
		},
		RecurrenceRule: "FREQ=DAILY",
		Anchor:         d(2024, time.January, 1),
	}
}

func ids(tasks []Task) []TaskID {
	out := make([]TaskID, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func sameIDs(got []Task, want ...TaskID) bool {
	if len(got) != len(want) {
		return false
	}
	for i, t := range got {
		if t.ID != want[i] {
			return false
		}
	}
	return true
}

// =============================================================================
// BLOCK PROMOTION
// =============================================================================

func TestCompletedBlockPromotesTheNext(t *testing.T) {
	// GIVEN: [A, B, break, C, D] with A and B completed yesterday
	// WHEN: Viewing today
	// THEN: The second block has moved into today's slot
	s := packingSeries()
	today := d(2024, time.January, 2)
	yesterday := d(2024, time.January, 1)
	s.Tasks[0].Completed, s.Tasks[0].CompletedAt = true, at(yesterday)
	s.Tasks[1].Completed, s.Tasks[1].CompletedAt = true, at(yesterday)

	got := s.TasksFor(today, today)
	if !sameIDs(got, "C", "D") {
		t.Errorf("TasksFor(today) = %v, want [C D]", ids(got))
	}
}

func TestHistoricalReconstruction(t *testing.T) {
	// A past view date replays what was completed that day, not what was
	// scheduled.
	s := packingSeries()
	yesterday := d(2024, time.January, 1)
	s.Tasks[0].Completed, s.Tasks[0].CompletedAt = true, at(yesterday)
	s.Tasks[1].Completed, s.Tasks[1].CompletedAt = true, at(yesterday)

	got := s.TasksFor(yesterday, d(2024, time.January, 2))
	if !sameIDs(got, "A", "B") {
		t.Errorf("TasksFor(yesterday) = %v, want [A B]", ids(got))
	}
}

func TestBeforeSeriesStart(t *testing.T) {
	s := packingSeries()
	s.Start = d(2024, time.January, 5)

	if got := s.TasksFor(d(2024, time.January, 3), d(2024, time.January, 1)); got != nil {
		t.Errorf("TasksFor before series start = %v, want empty", ids(got))
	}
}

func TestCompletedTodayStaysVisible(t *testing.T) {
	// GIVEN: B completed earlier today
	// WHEN: Viewing today
	// THEN: B is prepended to the block, not duplicated, not dropped
	s := packingSeries()
	today := d(2024, time.January, 1)
	s.Tasks[1].Completed, s.Tasks[1].CompletedAt = true, at(today)

	got := s.TasksFor(today, today)
	if !sameIDs(got, "B", "A") {
		t.Errorf("TasksFor(today) = %v, want [B A]", ids(got))
	}
}

// =============================================================================
// FUTURE VIEW DATES
// =============================================================================

func TestFutureDateSelectsBlockByOccurrenceIndex(t *testing.T) {
	s := packingSeries()
	today := d(2024, time.January, 1)

	got := s.TasksFor(d(2024, time.January, 2), today)
	if !sameIDs(got, "C", "D") {
		t.Errorf("tomorrow = %v, want [C D] (block 1)", ids(got))
	}

	// Beyond the last block there is nothing scheduled.
	if got := s.TasksFor(d(2024, time.January, 3), today); got != nil {
		t.Errorf("two days out = %v, want empty", ids(got))
	}
}

func TestFutureNonOccurrenceIsEmpty(t *testing.T) {
	s := packingSeries()
	s.RecurrenceRule = "FREQ=DAILY;INTERVAL=2"
	today := d(2024, time.January, 1)

	if got := s.TasksFor(d(2024, time.January, 2), today); got != nil {
		t.Errorf("off-day = %v, want empty", ids(got))
	}
	if got := s.TasksFor(d(2024, time.January, 3), today); !sameIDs(got, "C", "D") {
		t.Errorf("next occurrence = %v, want [C D]", ids(got))
	}
}

func TestFutureWithoutRuleIsEmpty(t *testing.T) {
	s := packingSeries()
	s.RecurrenceRule = ""
	today := d(2024, time.January, 1)

	if got := s.TasksFor(d(2024, time.January, 2), today); got != nil {
		t.Errorf("future without a rule = %v, want empty", ids(got))
	}
	if got := s.TasksFor(today, today); !sameIDs(got, "A", "B") {
		t.Errorf("today without a rule = %v, want the current block", ids(got))
	}
}

// =============================================================================
// QUEUE EXHAUSTION AND MONOTONICITY
// =============================================================================

func TestFinishedSeriesShowsNothingForward(t *testing.T) {
	s := packingSeries()
	done := d(2024, time.January, 1)
	for i := range s.Tasks {
		if !s.Tasks[i].IsDayBreak {
			s.Tasks[i].Completed, s.Tasks[i].CompletedAt = true, at(done)
		}
	}
	today := d(2024, time.January, 2)

	if got := s.TasksFor(today, today); got != nil {
		t.Errorf("finished series today = %v, want empty", ids(got))
	}
	if got := s.TasksFor(d(2024, time.January, 5), today); got != nil {
		t.Errorf("finished series future = %v, want empty", ids(got))
	}
	// History still reconstructs.
	if got := s.TasksFor(done, today); len(got) != 4 {
		t.Errorf("finished series history = %v, want all four items", ids(got))
	}
}

func TestCompletedTaskNeverReappears(t *testing.T) {
	s := packingSeries()
	s.Tasks[0].Completed, s.Tasks[0].CompletedAt = true, at(d(2024, time.January, 1))
	today := d(2024, time.January, 2)

	for offset := 0; offset < 6; offset++ {
		view := today.AddDays(offset)
		for _, task := range s.TasksFor(view, today) {
			if task.ID == "A" {
				t.Fatalf("completed task A reappeared on %v", view)
			}
		}
	}
}

func TestEmptyAndTrailingBlocksCollapse(t *testing.T) {
	s := Series{
		ID:    "odd",
		Start: d(2024, time.January, 1),
		Tasks: []Task{
			{ID: "b1", Order: 0, IsDayBreak: true},
			{ID: "A", Order: 1, Text: "Only task"},
			{ID: "b2", Order: 2, IsDayBreak: true},
			{ID: "b3", Order: 3, IsDayBreak: true},
		},
	}

	blocks := s.Blocks(d(2024, time.January, 1))
	if len(blocks) != 1 || !sameIDs(blocks[0], "A") {
		t.Errorf("Blocks = %v, want exactly [[A]]", blocks)
	}
}
