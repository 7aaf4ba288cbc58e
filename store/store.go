/*
Package store defines the persistence boundary between the scheduling
engine and its database.

PURPOSE:
  The engine computes over immutable snapshots and emits mutation
  intents; this package is where those snapshots come from and where the
  intents land. Implementations back the same interfaces with SQLite for
  production and an in-memory map store for tests.

KEY INTERFACES:
  SnapshotStore: Read-only loads of the household state the engine
                 evaluates: members, chores, completions, allowance
                 configs, task series.
  MutationStore: The write side. Settlement is the important call:
                 payout + completion retirement + back-reference update
                 applied together.

SETTLEMENT ATOMICITY:
  SettlePeriods applies a payout's three effects in one database
  transaction. A crash can still land between evaluation and
  settlement; the awarded-flag one-way latch makes a retried settlement
  idempotent instead of a double payment.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite (WAL mode)
  - store/memory: In-memory for tests and demos

SEE ALSO:
  - allowance: Producer of the settlement intents applied here
  - tasklist: Producer of task mutation intents
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/chore-engine/allowance"
	"github.com/warp/chore-engine/chores"
	"github.com/warp/chore-engine/recurrence"
	"github.com/warp/chore-engine/tasklist"
)

// ErrNotFound is returned by lookups for records that do not exist.
var ErrNotFound = errors.New("record not found")

// =============================================================================
// PAYOUT RECORD
// =============================================================================

// PayoutRecord is one settled allowance transaction. Records are
// append-only; a wrong payout is corrected by a compensating record,
// never edited.
type PayoutRecord struct {
	ID          string
	Member      chores.MemberID
	Amount      decimal.Decimal
	Currency    string
	Description string
	PeriodStart recurrence.Date
	PeriodEnd   recurrence.Date
	RecordedAt  time.Time
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// Settlement bundles the effects of paying out one or more pending
// periods for a member.
type Settlement struct {
	Member      chores.MemberID
	Payouts     []allowance.PayoutIntent
	MarkAwarded []chores.CompletionID

	// LastAwarded, when non-empty, becomes the member's new resumption
	// back-reference.
	LastAwarded chores.CompletionID
}

// =============================================================================
// INTERFACES
// =============================================================================

// SnapshotStore loads the immutable snapshots the engine evaluates.
type SnapshotStore interface {
	Members(ctx context.Context) ([]chores.Member, error)
	Chores(ctx context.Context) ([]chores.Chore, error)
	Completions(ctx context.Context) ([]chores.Completion, error)
	AllowanceConfigs(ctx context.Context) ([]allowance.Config, error)
	AllowanceConfig(ctx context.Context, member chores.MemberID) (allowance.Config, error)
	SeriesList(ctx context.Context) ([]tasklist.Series, error)
	Series(ctx context.Context, id tasklist.SeriesID) (tasklist.Series, error)
	Payouts(ctx context.Context, member chores.MemberID) ([]PayoutRecord, error)
}

// MutationStore applies engine mutation intents and household edits.
type MutationStore interface {
	PutMember(ctx context.Context, m chores.Member) error
	PutChore(ctx context.Context, c chores.Chore) error
	PutAllowanceConfig(ctx context.Context, cfg allowance.Config) error
	PutSeries(ctx context.Context, s tasklist.Series) error

	// RecordCompletion creates or replaces the completion record for a
	// chore and due date.
	RecordCompletion(ctx context.Context, c chores.Completion) error

	// MarkAwarded flips the one-way awarded latch on each completion.
	// Re-marking an already awarded completion is a no-op, which is what
	// makes settlement retries safe.
	MarkAwarded(ctx context.Context, ids []chores.CompletionID) error

	// SettlePeriods atomically records payouts, retires completions and
	// advances the member's back-reference.
	SettlePeriods(ctx context.Context, s Settlement) error

	// ApplyTaskMutations applies cascade intents to a series' tasks.
	ApplyTaskMutations(ctx context.Context, series tasklist.SeriesID, muts []tasklist.Mutation) error
}

// Store is the full persistence surface.
type Store interface {
	SnapshotStore
	MutationStore
	Close() error
}
