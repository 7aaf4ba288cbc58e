/*
handlers.go - HTTP API handlers for the household scheduling engine

PURPOSE:
  Exposes the scheduling and allowance engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Members:
    GET    /api/members                      List members
    POST   /api/members                      Create member
    GET    /api/members/{id}/allowance       Allowance review (pending periods)
    POST   /api/members/{id}/allowance/payout Settle pending periods
    GET    /api/members/{id}/payouts         Payout history

  Chores and schedule:
    GET    /api/chores                       List chores
    POST   /api/chores                       Create chore
    GET    /api/schedule?date=2006-01-02     Who owes what on a day
    POST   /api/chores/{id}/completions      Record a completion

  Task series:
    GET    /api/series                       List series
    GET    /api/series/{id}/tasks?date=...   The day's block
    POST   /api/series/{id}/tasks/{taskID}   Set completion (with cascade)

REQUEST FLOW:
  1. Parse HTTP request
  2. Load snapshots from the store
  3. Call domain logic (assignment, allowance, tasklist)
  4. Apply mutation intents back through the store
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: The nightly evaluation pass
*/
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/chore-engine/allowance"
	"github.com/warp/chore-engine/chores"
	"github.com/warp/chore-engine/recurrence"
	"github.com/warp/chore-engine/store"
	"github.com/warp/chore-engine/tasklist"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store store.Store

	// Today supplies the evaluation date; overridable in tests.
	Today func() recurrence.Date
}

// NewHandler creates a new handler backed by the given store.
func NewHandler(st store.Store) *Handler {
	return &Handler{
		Store: st,
		Today: recurrence.Today,
	}
}

// =============================================================================
// MEMBERS
// =============================================================================

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Store.Members(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load members", err)
		return
	}
	out := make([]MemberDTO, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberDTO(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	m := chores.Member{ID: chores.MemberID(req.ID), Name: req.Name, SortOrder: req.SortOrder}
	if err := h.Store.PutMember(r.Context(), m); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save member", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberDTO(m))
}

// =============================================================================
// CHORES AND SCHEDULE
// =============================================================================

func (h *Handler) ListChores(w http.ResponseWriter, r *http.Request) {
	all, err := h.Store.Chores(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load chores", err)
		return
	}
	out := make([]ChoreDTO, 0, len(all))
	for _, c := range all {
		dto := toChoreDTO(c)
		if rule, err := recurrence.Parse(c.RecurrenceRule); err == nil && c.RecurrenceRule != "" {
			dto.Schedule = rule.Describe()
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateChore(w http.ResponseWriter, r *http.Request) {
	var req CreateChoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	c, err := choreFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chore", err)
		return
	}
	if err := h.Store.PutChore(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save chore", err)
		return
	}
	writeJSON(w, http.StatusCreated, toChoreDTO(c))
}

func choreFromRequest(req CreateChoreRequest) (chores.Chore, error) {
	if req.ID == "" || req.Title == "" {
		return chores.Chore{}, fmt.Errorf("id and title are required")
	}
	start, err := recurrence.ParseDate(req.Start)
	if err != nil {
		return chores.Chore{}, fmt.Errorf("start: %w", err)
	}
	if req.RecurrenceRule != "" {
		if _, err := recurrence.Parse(req.RecurrenceRule); err != nil {
			return chores.Chore{}, fmt.Errorf("recurrence_rule: %w", err)
		}
	}

	c := chores.Chore{
		ID:             chores.ChoreID(req.ID),
		Title:          req.Title,
		Start:          start,
		RecurrenceRule: req.RecurrenceRule,
		RotationUnit:   chores.RotationUnit(req.RotationUnit),
		Claimable:      req.Claimable,
		RewardMode:     chores.RewardMode(req.RewardMode),
		Currency:       req.Currency,
	}
	if c.RewardMode == "" {
		c.RewardMode = chores.RewardWeighted
	}
	if req.End != nil {
		end, err := recurrence.ParseDate(*req.End)
		if err != nil {
			return chores.Chore{}, fmt.Errorf("end: %w", err)
		}
		c.End = &end
	}
	if req.Weight != "" {
		if c.Weight, err = decimal.NewFromString(req.Weight); err != nil {
			return chores.Chore{}, fmt.Errorf("weight: %w", err)
		}
	}
	if req.FixedAmount != "" {
		if c.FixedAmount, err = decimal.NewFromString(req.FixedAmount); err != nil {
			return chores.Chore{}, fmt.Errorf("fixed_amount: %w", err)
		}
	}
	for _, m := range req.Assignees {
		c.Assignees = append(c.Assignees, chores.MemberID(m))
	}
	for _, e := range req.Rotation {
		c.Rotation = append(c.Rotation, chores.RotationEntry{Order: e.Order, Member: chores.MemberID(e.Member)})
	}
	return c, nil
}

// GetSchedule resolves who owes which chore on a day.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	day, err := h.dateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return
	}

	all, err := h.Store.Chores(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load chores", err)
		return
	}
	records, err := h.Store.Completions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load completions", err)
		return
	}
	set := chores.NewCompletionSet(records)

	out := make([]ScheduleEntryDTO, 0)
	for _, c := range all {
		assigned := chores.AssignedMembers(c, day)
		if len(assigned) == 0 {
			continue
		}
		entry := ScheduleEntryDTO{
			Chore: toChoreDTO(c),
			Date:  day.String(),
		}
		for _, m := range assigned {
			entry.Assignees = append(entry.Assignees, string(m))
		}
		if comp, ok := set.Find(c.ID, day); ok {
			entry.Completed = comp.Completed
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) RecordCompletion(w http.ResponseWriter, r *http.Request) {
	choreID := chores.ChoreID(chi.URLParam(r, "id"))
	var req RecordCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	due, err := recurrence.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return
	}

	all, err := h.Store.Chores(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load chores", err)
		return
	}
	var chore *chores.Chore
	for i := range all {
		if all[i].ID == choreID {
			chore = &all[i]
			break
		}
	}
	if chore == nil {
		writeError(w, http.StatusNotFound, "chore not found", nil)
		return
	}
	if len(chores.AssignedMembers(*chore, due)) == 0 {
		writeError(w, http.StatusBadRequest, "chore is not due on that date", nil)
		return
	}

	comp := chores.Completion{
		ChoreID:   choreID,
		DueDate:   due,
		Completed: req.Completed,
	}
	if req.Completed {
		comp.CompletedBy = chores.MemberID(req.Member)
	}
	if err := h.Store.RecordCompletion(r.Context(), comp); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record completion", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompletionDTO(comp))
}

// =============================================================================
// ALLOWANCE
// =============================================================================

func (h *Handler) GetAllowanceReview(w http.ResponseWriter, r *http.Request) {
	member := chores.MemberID(chi.URLParam(r, "id"))
	asOf, err := h.dateParam(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of", err)
		return
	}

	review, _, _, err := h.reviewFor(r, member, asOf)
	if err != nil {
		h.writeReviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewDTO(review))
}

// SettleAllowance pays out every pending period and retires skipped
// ones, atomically.
func (h *Handler) SettleAllowance(w http.ResponseWriter, r *http.Request) {
	member := chores.MemberID(chi.URLParam(r, "id"))
	asOf, err := h.dateParam(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of", err)
		return
	}

	review, cfg, set, err := h.reviewFor(r, member, asOf)
	if err != nil {
		h.writeReviewError(w, err)
		return
	}

	settle := store.Settlement{Member: member}
	var dtos []PayoutDTO
	closing := append(append([]allowance.Period{}, review.Pending...), review.Skipped...)
	for _, p := range review.Pending {
		for _, intent := range allowance.BuildPayout(cfg, p) {
			settle.Payouts = append(settle.Payouts, intent)
			dtos = append(dtos, PayoutDTO{
				Member:      string(intent.Member),
				Amount:      intent.Amount.String(),
				Currency:    intent.Currency,
				Description: intent.Description,
			})
		}
	}
	for _, p := range closing {
		settle.MarkAwarded = append(settle.MarkAwarded, p.CompletionsToMark...)
	}
	if last, ok := allowance.LatestAwardable(closing, set); ok {
		settle.LastAwarded = last
	}

	if len(settle.Payouts) == 0 && len(settle.MarkAwarded) == 0 {
		writeJSON(w, http.StatusOK, PayoutResultDTO{})
		return
	}
	if err := h.Store.SettlePeriods(r.Context(), settle); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to settle periods", err)
		return
	}
	writeJSON(w, http.StatusOK, PayoutResultDTO{
		SettledPeriods: len(closing),
		Payouts:        dtos,
		RetiredCount:   len(settle.MarkAwarded),
	})
}

func (h *Handler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	member := chores.MemberID(chi.URLParam(r, "id"))
	payouts, err := h.Store.Payouts(r.Context(), member)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load payouts", err)
		return
	}
	out := make([]PayoutDTO, 0, len(payouts))
	for _, p := range payouts {
		out = append(out, toPayoutDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// reviewFor loads the snapshots and runs the allowance scan for one
// member.
func (h *Handler) reviewFor(r *http.Request, member chores.MemberID, asOf recurrence.Date) (allowance.Review, allowance.Config, chores.CompletionSet, error) {
	ctx := r.Context()
	cfg, err := h.Store.AllowanceConfig(ctx, member)
	if err != nil {
		return allowance.Review{}, allowance.Config{}, chores.CompletionSet{}, err
	}
	all, err := h.Store.Chores(ctx)
	if err != nil {
		return allowance.Review{}, allowance.Config{}, chores.CompletionSet{}, err
	}
	records, err := h.Store.Completions(ctx)
	if err != nil {
		return allowance.Review{}, allowance.Config{}, chores.CompletionSet{}, err
	}
	set := chores.NewCompletionSet(records)
	review, err := allowance.EvaluateSince(cfg, all, set, asOf)
	return review, cfg, set, err
}

func (h *Handler) writeReviewError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no allowance configured for member", nil)
		return
	}
	writeError(w, http.StatusInternalServerError, "allowance evaluation failed", err)
}

// =============================================================================
// TASK SERIES
// =============================================================================

func (h *Handler) ListSeries(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.SeriesList(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load series", err)
		return
	}
	out := make([]SeriesDTO, 0, len(list))
	for _, s := range list {
		out = append(out, toSeriesDTO(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetSeriesTasks(w http.ResponseWriter, r *http.Request) {
	id := tasklist.SeriesID(chi.URLParam(r, "id"))
	view, err := h.dateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return
	}

	series, err := h.Store.Series(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "series not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load series", err)
		return
	}

	tasks := series.TasksFor(view, h.Today())
	out := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskDTO(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// SetTask flips a task's completion state and applies the parent-chain
// cascade.
func (h *Handler) SetTask(w http.ResponseWriter, r *http.Request) {
	id := tasklist.SeriesID(chi.URLParam(r, "id"))
	taskID := tasklist.TaskID(chi.URLParam(r, "taskID"))

	var req SetTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	series, err := h.Store.Series(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "series not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load series", err)
		return
	}

	muts := tasklist.Cascade(taskID, req.Completed, series.Tasks, time.Now().UTC())
	if len(muts) == 0 {
		writeError(w, http.StatusNotFound, "task not found", nil)
		return
	}
	if err := h.Store.ApplyTaskMutations(r.Context(), id, muts); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to apply task changes", err)
		return
	}

	out := make([]TaskMutationDTO, 0, len(muts))
	for _, m := range muts {
		dto := TaskMutationDTO{Task: string(m.Task), Completed: m.Completed}
		if m.CompletedAt != nil {
			dto.CompletedAt = m.CompletedAt.Format(time.RFC3339)
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// HELPERS
// =============================================================================

// dateParam parses an optional date query parameter, defaulting to
// today.
func (h *Handler) dateParam(r *http.Request, name string) (recurrence.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return h.Today(), nil
	}
	return recurrence.ParseDate(raw)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
