/*
handlers_test.go - HTTP handler tests against the in-memory store

Covers the full request flow for the main surfaces:
- Schedule resolution (rotation picks the right member per day)
- Completion recording, including off-schedule rejection
- Allowance review and payout settlement end to end
- Task series views and the completion cascade
*/
package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/chore-engine/allowance"
	"github.com/warp/chore-engine/chores"
	"github.com/warp/chore-engine/recurrence"
	"github.com/warp/chore-engine/store/memory"
	"github.com/warp/chore-engine/tasklist"
)

// testServer wires a handler to a memory store with a pinned clock.
func testServer(t *testing.T, today recurrence.Date) (*memory.Memory, http.Handler) {
	t.Helper()
	st := memory.New()
	h := NewHandler(st)
	h.Today = func() recurrence.Date { return today }
	return st, NewRouter(h)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec
}

func TestScheduleResolvesRotation(t *testing.T) {
	today := recurrence.NewDate(2024, time.January, 1)
	st, router := testServer(t, today)
	ctx := context.Background()

	require.NoError(t, st.PutMember(ctx, chores.Member{ID: "zoe", Name: "Zoe"}))
	require.NoError(t, st.PutMember(ctx, chores.Member{ID: "max", Name: "Max"}))
	require.NoError(t, st.PutChore(ctx, chores.Chore{
		ID: "dishes", Title: "Do the dishes",
		Start:          recurrence.NewDate(2024, time.January, 1),
		RecurrenceRule: "FREQ=DAILY",
		Assignees:      []chores.MemberID{"zoe", "max"},
		Rotation: []chores.RotationEntry{
			{Order: 0, Member: "zoe"},
			{Order: 1, Member: "max"},
		},
		RotationUnit: chores.RotateDaily,
		RewardMode:   chores.RewardWeighted,
		Weight:       decimal.NewFromInt(5),
	}))

	var entries []ScheduleEntryDTO
	rec := doJSON(t, router, http.MethodGet, "/api/schedule?date=2024-01-01", nil, &entries)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, entries, 1)
	require.Equal(t, []string{"zoe"}, entries[0].Assignees)

	rec = doJSON(t, router, http.MethodGet, "/api/schedule?date=2024-01-02", nil, &entries)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"max"}, entries[0].Assignees)
}

func TestAllowanceReviewAndPayoutFlow(t *testing.T) {
	today := recurrence.NewDate(2024, time.January, 10)
	st, router := testServer(t, today)
	ctx := context.Background()

	require.NoError(t, st.PutMember(ctx, chores.Member{ID: "zoe", Name: "Zoe"}))
	require.NoError(t, st.PutChore(ctx, chores.Chore{
		ID: "trash", Title: "Take out the trash",
		Start:          recurrence.NewDate(2024, time.January, 1),
		RecurrenceRule: "FREQ=WEEKLY;BYDAY=MO",
		Assignees:      []chores.MemberID{"zoe"},
		RewardMode:     chores.RewardWeighted,
		Weight:         decimal.NewFromInt(3),
	}))
	require.NoError(t, st.PutAllowanceConfig(ctx, allowance.Config{
		Member:         "zoe",
		Amount:         decimal.NewFromInt(10),
		Currency:       "USD",
		RecurrenceRule: "FREQ=WEEKLY",
		Anchor:         recurrence.NewDate(2024, time.January, 1),
	}))

	// Complete the single Monday occurrence of week one.
	rec := doJSON(t, router, http.MethodPost, "/api/chores/trash/completions",
		RecordCompletionRequest{Date: "2024-01-01", Member: "zoe", Completed: true}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Week one fully done: pending at 100%, week two still running.
	var review ReviewDTO
	rec = doJSON(t, router, http.MethodGet, "/api/members/zoe/allowance", nil, &review)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, review.Pending, 1)
	require.Equal(t, "100", review.Pending[0].Percentage)
	require.Equal(t, "10", review.Pending[0].VariableAmount)
	require.NotNil(t, review.InProgress)

	var result PayoutResultDTO
	rec = doJSON(t, router, http.MethodPost, "/api/members/zoe/allowance/payout", nil, &result)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, result.Payouts, 1)
	require.Equal(t, "10", result.Payouts[0].Amount)
	require.Equal(t, "USD", result.Payouts[0].Currency)
	require.Equal(t, 1, result.RetiredCount)

	// Settled periods never resurface.
	rec = doJSON(t, router, http.MethodGet, "/api/members/zoe/allowance", nil, &review)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, review.Pending)

	var payouts []PayoutDTO
	rec = doJSON(t, router, http.MethodGet, "/api/members/zoe/payouts", nil, &payouts)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, payouts, 1)
}

func TestCompletionRejectedOffSchedule(t *testing.T) {
	today := recurrence.NewDate(2024, time.January, 10)
	st, router := testServer(t, today)

	require.NoError(t, st.PutChore(context.Background(), chores.Chore{
		ID: "trash", Title: "Take out the trash",
		Start:          recurrence.NewDate(2024, time.January, 1),
		RecurrenceRule: "FREQ=WEEKLY;BYDAY=MO",
		Assignees:      []chores.MemberID{"zoe"},
		RewardMode:     chores.RewardWeighted,
		Weight:         decimal.NewFromInt(3),
	}))

	// Tuesday is not an occurrence.
	rec := doJSON(t, router, http.MethodPost, "/api/chores/trash/completions",
		RecordCompletionRequest{Date: "2024-01-02", Member: "zoe", Completed: true}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/chores/missing/completions",
		RecordCompletionRequest{Date: "2024-01-01", Member: "zoe", Completed: true}, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSeriesTasksAndCascade(t *testing.T) {
	today := recurrence.NewDate(2024, time.January, 1)
	st, router := testServer(t, today)

	require.NoError(t, st.PutSeries(context.Background(), tasklist.Series{
		ID: "packing", Title: "Packing list",
		RecurrenceRule: "FREQ=DAILY",
		Anchor:         today,
		Start:          today,
		Tasks: []tasklist.Task{
			{ID: "bag", Order: 0, Text: "Bathroom bag"},
			{ID: "brush", Order: 1, Text: "Toothbrushes", ParentID: "bag", Indent: 1},
			{ID: "brk", Order: 2, IsDayBreak: true},
			{ID: "snacks", Order: 3, Text: "Snacks"},
		},
	}))

	// Today's block, break markers hidden.
	var tasks []TaskDTO
	rec := doJSON(t, router, http.MethodGet, "/api/series/packing/tasks", nil, &tasks)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, tasks, 2)

	// Completing the only child bubbles up to the parent.
	var muts []TaskMutationDTO
	rec = doJSON(t, router, http.MethodPost, "/api/series/packing/tasks/brush",
		SetTaskRequest{Completed: true}, &muts)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, muts, 2)
	require.Equal(t, "brush", muts[0].Task)
	require.Equal(t, "bag", muts[1].Task)

	// Tomorrow maps to the second block.
	rec = doJSON(t, router, http.MethodGet, "/api/series/packing/tasks?date=2024-01-02", nil, &tasks)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, tasks, 1)
	require.Equal(t, "snacks", tasks[0].ID)

	rec = doJSON(t, router, http.MethodGet, "/api/series/missing/tasks", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAllowanceReviewForUnknownMember(t *testing.T) {
	_, router := testServer(t, recurrence.NewDate(2024, time.January, 10))
	rec := doJSON(t, router, http.MethodGet, "/api/members/nobody/allowance", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
