/*
Package factory provides YAML to Go household conversion.

PURPOSE:
  Converts a YAML household definition into members, chores, allowance
  configs and task series, and seeds them into a store. This enables
  household configuration without code changes - parents edit a YAML
  file, the factory creates the proper Go structs.

YAML SCHEMA:
  members:
    - id: zoe
      name: Zoe
  chores:
    - id: dishes
      title: Do the dishes
      start: 2024-01-01
      recurrence: FREQ=DAILY
      assignees: [zoe, max]
      rotation: [zoe, max]
      rotation_unit: daily
      weight: 5
  allowances:
    - member: zoe
      amount: "10"
      currency: USD
      recurrence: FREQ=WEEKLY
      anchor: 2024-01-01
      payout_delay_days: 2
  series:
    - id: packing
      title: Packing list
      start: 2024-01-01
      recurrence: FREQ=DAILY
      tasks: ["Passports", "Chargers", "---", "Toiletries"]

  A task of "---" is a day-break marker. A task prefixed with spaces
  nests under the previous unindented task.

VALIDATION:
  Invalid entries are logged and skipped, never fatal: a typo in one
  chore must not keep the rest of the household from loading.

USAGE:
  hh, err := factory.ParseHousehold(yamlBytes)
  err = factory.Seed(ctx, st, hh)

SEE ALSO:
  - store: Where the parsed household lands
  - factory/demo.go: A ready-made example household
*/
package factory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/chore-engine/allowance"
	"github.com/warp/chore-engine/chores"
	"github.com/warp/chore-engine/recurrence"
	"github.com/warp/chore-engine/store"
	"github.com/warp/chore-engine/tasklist"
)

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

type HouseholdYAML struct {
	Members    []MemberYAML    `yaml:"members"`
	Chores     []ChoreYAML     `yaml:"chores"`
	Allowances []AllowanceYAML `yaml:"allowances"`
	Series     []SeriesYAML    `yaml:"series"`
}

type MemberYAML struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type ChoreYAML struct {
	ID           string   `yaml:"id"`
	Title        string   `yaml:"title"`
	Start        string   `yaml:"start"`
	Recurrence   string   `yaml:"recurrence"`
	End          string   `yaml:"end"`
	Assignees    []string `yaml:"assignees"`
	Rotation     []string `yaml:"rotation"`
	RotationUnit string   `yaml:"rotation_unit"`
	Claimable    bool     `yaml:"claimable"`
	Weight       string   `yaml:"weight"`
	FixedAmount  string   `yaml:"fixed_amount"`
	Currency     string   `yaml:"currency"`
}

type AllowanceYAML struct {
	Member          string `yaml:"member"`
	Amount          string `yaml:"amount"`
	Currency        string `yaml:"currency"`
	Recurrence      string `yaml:"recurrence"`
	Anchor          string `yaml:"anchor"`
	PayoutDelayDays int    `yaml:"payout_delay_days"`
}

type SeriesYAML struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	Start      string   `yaml:"start"`
	Recurrence string   `yaml:"recurrence"`
	Tasks      []string `yaml:"tasks"`
}

// dayBreakMarker in a task list splits the series into day blocks.
const dayBreakMarker = "---"

// =============================================================================
// HOUSEHOLD
// =============================================================================

// Household is a fully parsed household definition.
type Household struct {
	Members    []chores.Member
	Chores     []chores.Chore
	Allowances []allowance.Config
	Series     []tasklist.Series
}

// ParseHousehold converts YAML into a Household. Invalid entries are
// skipped with a log line; only malformed YAML itself is an error.
func ParseHousehold(data []byte) (Household, error) {
	var raw HouseholdYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Household{}, fmt.Errorf("parsing household yaml: %w", err)
	}

	var hh Household
	for i, m := range raw.Members {
		if m.ID == "" {
			slog.Warn("skipping member without id", "index", i)
			continue
		}
		name := m.Name
		if name == "" {
			name = m.ID
		}
		hh.Members = append(hh.Members, chores.Member{
			ID:        chores.MemberID(m.ID),
			Name:      name,
			SortOrder: len(hh.Members),
		})
	}
	for _, c := range raw.Chores {
		chore, err := parseChore(c)
		if err != nil {
			slog.Warn("skipping chore", "chore", c.ID, "error", err)
			continue
		}
		hh.Chores = append(hh.Chores, chore)
	}
	for _, a := range raw.Allowances {
		cfg, err := parseAllowance(a)
		if err != nil {
			slog.Warn("skipping allowance", "member", a.Member, "error", err)
			continue
		}
		hh.Allowances = append(hh.Allowances, cfg)
	}
	for _, s := range raw.Series {
		series, err := parseSeries(s)
		if err != nil {
			slog.Warn("skipping series", "series", s.ID, "error", err)
			continue
		}
		hh.Series = append(hh.Series, series)
	}
	return hh, nil
}

func parseChore(c ChoreYAML) (chores.Chore, error) {
	if c.ID == "" || c.Title == "" {
		return chores.Chore{}, fmt.Errorf("id and title are required")
	}
	start, err := recurrence.ParseDate(c.Start)
	if err != nil {
		return chores.Chore{}, fmt.Errorf("start: %w", err)
	}
	if c.Recurrence != "" {
		if _, err := recurrence.Parse(c.Recurrence); err != nil {
			return chores.Chore{}, fmt.Errorf("recurrence: %w", err)
		}
	}

	chore := chores.Chore{
		ID:             chores.ChoreID(c.ID),
		Title:          c.Title,
		Start:          start,
		RecurrenceRule: c.Recurrence,
		RotationUnit:   chores.RotationUnit(c.RotationUnit),
		Claimable:      c.Claimable,
		RewardMode:     chores.RewardWeighted,
		Currency:       c.Currency,
	}
	if c.End != "" {
		end, err := recurrence.ParseDate(c.End)
		if err != nil {
			return chores.Chore{}, fmt.Errorf("end: %w", err)
		}
		chore.End = &end
	}
	if c.Weight != "" {
		if chore.Weight, err = decimal.NewFromString(c.Weight); err != nil {
			return chores.Chore{}, fmt.Errorf("weight: %w", err)
		}
	}
	if c.FixedAmount != "" {
		if chore.FixedAmount, err = decimal.NewFromString(c.FixedAmount); err != nil {
			return chores.Chore{}, fmt.Errorf("fixed_amount: %w", err)
		}
		chore.RewardMode = chores.RewardFixed
		if !c.Claimable {
			// Fixed rewards only pay out through claims.
			slog.Warn("fixed-reward chore is not claimable and will never pay out", "chore", c.ID)
		}
	}
	for _, m := range c.Assignees {
		chore.Assignees = append(chore.Assignees, chores.MemberID(m))
	}
	for i, m := range c.Rotation {
		chore.Rotation = append(chore.Rotation, chores.RotationEntry{
			Order:  i,
			Member: chores.MemberID(m),
		})
	}
	if len(chore.Rotation) > 0 && chore.RotationUnit == "" {
		chore.RotationUnit = chores.RotateDaily
	}
	return chore, nil
}

func parseAllowance(a AllowanceYAML) (allowance.Config, error) {
	if a.Member == "" {
		return allowance.Config{}, fmt.Errorf("member is required")
	}
	amount, err := decimal.NewFromString(a.Amount)
	if err != nil {
		return allowance.Config{}, fmt.Errorf("amount: %w", err)
	}
	anchor, err := recurrence.ParseDate(a.Anchor)
	if err != nil {
		return allowance.Config{}, fmt.Errorf("anchor: %w", err)
	}
	if _, err := recurrence.Parse(a.Recurrence); err != nil {
		return allowance.Config{}, fmt.Errorf("recurrence: %w", err)
	}
	return allowance.Config{
		Member:          chores.MemberID(a.Member),
		Amount:          amount,
		Currency:        a.Currency,
		RecurrenceRule:  a.Recurrence,
		Anchor:          anchor,
		PayoutDelayDays: a.PayoutDelayDays,
	}, nil
}

func parseSeries(s SeriesYAML) (tasklist.Series, error) {
	if s.ID == "" {
		return tasklist.Series{}, fmt.Errorf("id is required")
	}
	start, err := recurrence.ParseDate(s.Start)
	if err != nil {
		return tasklist.Series{}, fmt.Errorf("start: %w", err)
	}
	if s.Recurrence != "" {
		if _, err := recurrence.Parse(s.Recurrence); err != nil {
			return tasklist.Series{}, fmt.Errorf("recurrence: %w", err)
		}
	}

	series := tasklist.Series{
		ID:             tasklist.SeriesID(s.ID),
		Title:          s.Title,
		RecurrenceRule: s.Recurrence,
		Anchor:         start,
		Start:          start,
	}
	var lastRoot tasklist.TaskID
	for i, text := range s.Tasks {
		id := tasklist.TaskID(fmt.Sprintf("%s-%d", s.ID, i))
		if strings.TrimSpace(text) == dayBreakMarker {
			series.Tasks = append(series.Tasks, tasklist.Task{
				ID: id, Order: i, IsDayBreak: true,
			})
			continue
		}
		task := tasklist.Task{ID: id, Order: i, Text: strings.TrimSpace(text)}
		if strings.HasPrefix(text, " ") && lastRoot != "" {
			task.ParentID = lastRoot
			task.Indent = 1
		} else {
			lastRoot = id
		}
		series.Tasks = append(series.Tasks, task)
	}
	return series, nil
}

// =============================================================================
// SEEDING
// =============================================================================

// Seed writes a household into the store. Existing records with the
// same ids are replaced.
func Seed(ctx context.Context, st store.MutationStore, hh Household) error {
	for _, m := range hh.Members {
		if err := st.PutMember(ctx, m); err != nil {
			return fmt.Errorf("seeding member %s: %w", m.ID, err)
		}
	}
	for _, c := range hh.Chores {
		if err := st.PutChore(ctx, c); err != nil {
			return fmt.Errorf("seeding chore %s: %w", c.ID, err)
		}
	}
	for _, cfg := range hh.Allowances {
		if err := st.PutAllowanceConfig(ctx, cfg); err != nil {
			return fmt.Errorf("seeding allowance %s: %w", cfg.Member, err)
		}
	}
	for _, s := range hh.Series {
		if err := st.PutSeries(ctx, s); err != nil {
			return fmt.Errorf("seeding series %s: %w", s.ID, err)
		}
	}
	return nil
}
