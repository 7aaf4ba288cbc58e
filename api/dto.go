/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

CONVENTIONS:
  - Calendar days travel as "2006-01-02" strings, UTC.
  - Money and weights travel as decimal strings, never floats.

SEE ALSO:
  - handlers.go: Uses these types
  - allowance: The domain values the period DTOs mirror
*/
package api

import (
	"github.com/warp/chore-engine/allowance"
	"github.com/warp/chore-engine/chores"
	"github.com/warp/chore-engine/store"
	"github.com/warp/chore-engine/tasklist"
)

// =============================================================================
// MEMBERS
// =============================================================================

type MemberDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

type CreateMemberRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

func toMemberDTO(m chores.Member) MemberDTO {
	return MemberDTO{ID: string(m.ID), Name: m.Name, SortOrder: m.SortOrder}
}

// =============================================================================
// CHORES AND SCHEDULE
// =============================================================================

type RotationEntryDTO struct {
	Order  int    `json:"order"`
	Member string `json:"member"`
}

type ChoreDTO struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Start          string             `json:"start"`
	RecurrenceRule string             `json:"recurrence_rule,omitempty"`
	Schedule       string             `json:"schedule,omitempty"`
	End            *string            `json:"end,omitempty"`
	Assignees      []string           `json:"assignees"`
	Rotation       []RotationEntryDTO `json:"rotation,omitempty"`
	RotationUnit   string             `json:"rotation_unit,omitempty"`
	Claimable      bool               `json:"claimable"`
	RewardMode     string             `json:"reward_mode"`
	Weight         string             `json:"weight"`
	FixedAmount    string             `json:"fixed_amount,omitempty"`
	Currency       string             `json:"currency,omitempty"`
}

type CreateChoreRequest struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Start          string             `json:"start"`
	RecurrenceRule string             `json:"recurrence_rule"`
	End            *string            `json:"end"`
	Assignees      []string           `json:"assignees"`
	Rotation       []RotationEntryDTO `json:"rotation"`
	RotationUnit   string             `json:"rotation_unit"`
	Claimable      bool               `json:"claimable"`
	RewardMode     string             `json:"reward_mode"`
	Weight         string             `json:"weight"`
	FixedAmount    string             `json:"fixed_amount"`
	Currency       string             `json:"currency"`
}

func toChoreDTO(c chores.Chore) ChoreDTO {
	dto := ChoreDTO{
		ID:             string(c.ID),
		Title:          c.Title,
		Start:          c.Start.String(),
		RecurrenceRule: c.RecurrenceRule,
		RotationUnit:   string(c.RotationUnit),
		Claimable:      c.Claimable,
		RewardMode:     string(c.RewardMode),
		Weight:         c.Weight.String(),
		Currency:       c.Currency,
	}
	if !c.FixedAmount.IsZero() {
		dto.FixedAmount = c.FixedAmount.String()
	}
	if c.End != nil {
		end := c.End.String()
		dto.End = &end
	}
	for _, m := range c.Assignees {
		dto.Assignees = append(dto.Assignees, string(m))
	}
	for _, e := range c.Rotation {
		dto.Rotation = append(dto.Rotation, RotationEntryDTO{Order: e.Order, Member: string(e.Member)})
	}
	return dto
}

// ScheduleEntryDTO is one chore due on a given day, with its resolved
// assignees.
type ScheduleEntryDTO struct {
	Chore     ChoreDTO `json:"chore"`
	Date      string   `json:"date"`
	Assignees []string `json:"assignees"`
	Completed bool     `json:"completed"`
}

// =============================================================================
// COMPLETIONS
// =============================================================================

type RecordCompletionRequest struct {
	Date      string `json:"date"`
	Member    string `json:"member"`
	Completed bool   `json:"completed"`
}

type CompletionDTO struct {
	ID          string `json:"id"`
	ChoreID     string `json:"chore_id"`
	DueDate     string `json:"due_date"`
	Completed   bool   `json:"completed"`
	CompletedBy string `json:"completed_by,omitempty"`
	Awarded     bool   `json:"awarded"`
}

func toCompletionDTO(c chores.Completion) CompletionDTO {
	return CompletionDTO{
		ID:          string(c.ID),
		ChoreID:     string(c.ChoreID),
		DueDate:     c.DueDate.String(),
		Completed:   c.Completed,
		CompletedBy: string(c.CompletedBy),
		Awarded:     c.Awarded,
	}
}

// =============================================================================
// ALLOWANCE REVIEW AND PAYOUT
// =============================================================================

type PeriodDTO struct {
	Start                    string            `json:"start"`
	End                      string            `json:"end"`
	Status                   string            `json:"status"`
	TotalWeight              string            `json:"total_weight"`
	CompletedWeight          string            `json:"completed_weight"`
	Percentage               string            `json:"percentage"`
	VariableAmount           string            `json:"variable_amount"`
	FixedRewards             map[string]string `json:"fixed_rewards,omitempty"`
	Completions              []string          `json:"completions,omitempty"`
	ClaimableContributionPct string            `json:"claimable_contribution_pct"`
}

type ReviewDTO struct {
	Member     string      `json:"member"`
	InProgress *PeriodDTO  `json:"in_progress,omitempty"`
	Pending    []PeriodDTO `json:"pending,omitempty"`
	Skipped    []PeriodDTO `json:"skipped,omitempty"`
}

func toPeriodDTO(p allowance.Period) PeriodDTO {
	dto := PeriodDTO{
		Start:                    p.Start.String(),
		End:                      p.End.String(),
		Status:                   string(p.Status),
		TotalWeight:              p.TotalWeight.String(),
		CompletedWeight:          p.CompletedWeight.String(),
		Percentage:               p.Percentage.String(),
		VariableAmount:           p.VariableAmount.String(),
		ClaimableContributionPct: p.ClaimableContributionPct.String(),
	}
	if len(p.FixedRewards) > 0 {
		dto.FixedRewards = make(map[string]string, len(p.FixedRewards))
		for cur, amt := range p.FixedRewards {
			dto.FixedRewards[cur] = amt.String()
		}
	}
	for _, id := range p.CompletionsToMark {
		dto.Completions = append(dto.Completions, string(id))
	}
	return dto
}

func toReviewDTO(r allowance.Review) ReviewDTO {
	dto := ReviewDTO{Member: string(r.Member)}
	if r.InProgress != nil {
		p := toPeriodDTO(*r.InProgress)
		dto.InProgress = &p
	}
	for _, p := range r.Pending {
		dto.Pending = append(dto.Pending, toPeriodDTO(p))
	}
	for _, p := range r.Skipped {
		dto.Skipped = append(dto.Skipped, toPeriodDTO(p))
	}
	return dto
}

type PayoutResultDTO struct {
	SettledPeriods int         `json:"settled_periods"`
	Payouts        []PayoutDTO `json:"payouts"`
	RetiredCount   int         `json:"retired_count"`
}

type PayoutDTO struct {
	Member      string `json:"member"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	RecordedAt  string `json:"recorded_at,omitempty"`
}

func toPayoutDTO(p store.PayoutRecord) PayoutDTO {
	return PayoutDTO{
		Member:      string(p.Member),
		Amount:      p.Amount.String(),
		Currency:    p.Currency,
		Description: p.Description,
		RecordedAt:  p.RecordedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// =============================================================================
// TASK SERIES
// =============================================================================

type TaskDTO struct {
	ID        string `json:"id"`
	Order     int    `json:"order"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	ParentID  string `json:"parent_id,omitempty"`
	Indent    int    `json:"indent,omitempty"`
}

type SeriesDTO struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	RecurrenceRule string `json:"recurrence_rule,omitempty"`
	Start          string `json:"start"`
	TaskCount      int    `json:"task_count"`
}

type SetTaskRequest struct {
	Completed bool `json:"completed"`
}

type TaskMutationDTO struct {
	Task        string `json:"task"`
	Completed   bool   `json:"completed"`
	CompletedAt string `json:"completed_at,omitempty"`
}

func toTaskDTO(t tasklist.Task) TaskDTO {
	return TaskDTO{
		ID:        string(t.ID),
		Order:     t.Order,
		Text:      t.Text,
		Completed: t.Completed,
		ParentID:  string(t.ParentID),
		Indent:    t.Indent,
	}
}

func toSeriesDTO(s tasklist.Series) SeriesDTO {
	count := 0
	for _, t := range s.Tasks {
		if !t.IsDayBreak {
			count++
		}
	}
	return SeriesDTO{
		ID:             string(s.ID),
		Title:          s.Title,
		RecurrenceRule: s.RecurrenceRule,
		Start:          s.Start.String(),
		TaskCount:      count,
	}
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
