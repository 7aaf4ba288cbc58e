/*
scheduler.go - Nightly evaluation pass

PURPOSE:
  Once a day, materialize the day's duties and surface payable allowance
  periods:
  - For every chore occurring today, ensure an open completion record
    exists, so a missed duty is retired with its period instead of
    silently never existing.
  - Run the allowance scan per member and log what became payable.

DESIGN:
  - Cron-driven (robfig/cron) with a configurable spec, default 06:00.
  - The pass is idempotent: re-running it creates no duplicate records
    and never re-surfaces awarded completions.

USAGE:
  sched := api.NewEvaluationScheduler(st)
  if err := sched.Start(); err != nil { ... }
  defer sched.Stop()

SEE ALSO:
  - allowance: EvaluateSince, the scan this pass drives
  - handlers.go: The manual payout endpoint acting on the same data
*/
package api

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/warp/chore-engine/allowance"
	"github.com/warp/chore-engine/chores"
	"github.com/warp/chore-engine/recurrence"
	"github.com/warp/chore-engine/store"
)

// DefaultCronSpec runs the pass every morning at 06:00.
const DefaultCronSpec = "0 6 * * *"

// EvaluationScheduler runs the nightly pass on a cron cadence.
type EvaluationScheduler struct {
	Store    store.Store
	CronSpec string
	Today    func() recurrence.Date

	cron *cron.Cron
}

// NewEvaluationScheduler creates a scheduler with the default cadence.
func NewEvaluationScheduler(st store.Store) *EvaluationScheduler {
	return &EvaluationScheduler{
		Store:    st,
		CronSpec: DefaultCronSpec,
		Today:    recurrence.Today,
	}
}

// Start registers the cron job and begins the schedule. The pass also
// runs once immediately so a restarted server catches up.
func (s *EvaluationScheduler) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.CronSpec, func() {
		if err := s.RunDailyPass(context.Background()); err != nil {
			slog.Error("daily evaluation pass failed", "error", err)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("evaluation scheduler started", "spec", s.CronSpec)

	go func() {
		if err := s.RunDailyPass(context.Background()); err != nil {
			slog.Error("startup evaluation pass failed", "error", err)
		}
	}()
	return nil
}

// Stop halts the cron schedule, waiting for a running pass to finish.
func (s *EvaluationScheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		slog.Info("evaluation scheduler stopped")
	}
}

// RunDailyPass materializes today's duty records and logs the allowance
// state per member.
func (s *EvaluationScheduler) RunDailyPass(ctx context.Context) error {
	today := s.Today()
	if err := s.materializeDuties(ctx, today); err != nil {
		return err
	}
	return s.reviewAllowances(ctx, today)
}

func (s *EvaluationScheduler) materializeDuties(ctx context.Context, today recurrence.Date) error {
	all, err := s.Store.Chores(ctx)
	if err != nil {
		return err
	}
	records, err := s.Store.Completions(ctx)
	if err != nil {
		return err
	}
	set := chores.NewCompletionSet(records)

	created := 0
	for _, c := range all {
		if len(chores.AssignedMembers(c, today)) == 0 {
			continue
		}
		if _, ok := set.Find(c.ID, today); ok {
			continue
		}
		if err := s.Store.RecordCompletion(ctx, chores.Completion{
			ChoreID: c.ID,
			DueDate: today,
		}); err != nil {
			return err
		}
		created++
	}
	if created > 0 {
		slog.Info("materialized duty records", "date", today, "count", created)
	}
	return nil
}

func (s *EvaluationScheduler) reviewAllowances(ctx context.Context, today recurrence.Date) error {
	configs, err := s.Store.AllowanceConfigs(ctx)
	if err != nil {
		return err
	}
	all, err := s.Store.Chores(ctx)
	if err != nil {
		return err
	}
	records, err := s.Store.Completions(ctx)
	if err != nil {
		return err
	}
	set := chores.NewCompletionSet(records)

	for _, cfg := range configs {
		review, err := allowance.EvaluateSince(cfg, all, set, today)
		if err != nil {
			// One misconfigured member never blocks the others.
			slog.Warn("skipping member in evaluation pass", "member", cfg.Member, "error", err)
			continue
		}
		if len(review.Pending) > 0 {
			slog.Info("allowance periods awaiting payout",
				"member", cfg.Member, "periods", len(review.Pending))
		}
	}
	return nil
}
