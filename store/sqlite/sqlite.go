/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Persists the household state the engine evaluates. In production the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  members:           Household members
  chores:            Obligations with recurrence and reward settings
  chore_assignees:   Static assignee sets
  chore_rotation:    Explicit rotation order slots
  completions:       One record per chore and due date
  allowance_configs: Per-member payout cadence and back-reference
  series / tasks:    Task-series lists with day-break markers
  payouts:           Append-only record of settled allowance amounts

STORAGE CONVENTIONS:
  - Calendar days as TEXT in ISO form (2006-01-02), UTC.
  - Money and weights as TEXT via decimal; never REAL.
  - The completions awarded flag only ever flips 0 -> 1.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers never block
  the nightly evaluation pass.

USAGE:
  st, err := sqlite.New("./data/chores.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - store/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/chore-engine/allowance"
	"github.com/warp/chore-engine/chores"
	"github.com/warp/chore-engine/recurrence"
	"github.com/warp/chore-engine/store"
	"github.com/warp/chore-engine/tasklist"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the
// schema. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return st, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS chores (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		start_date TEXT NOT NULL,
		rrule TEXT NOT NULL DEFAULT '',
		end_date TEXT,
		rotation_unit TEXT NOT NULL DEFAULT '',
		claimable INTEGER NOT NULL DEFAULT 0,
		reward_mode TEXT NOT NULL,
		weight TEXT NOT NULL DEFAULT '0',
		fixed_amount TEXT NOT NULL DEFAULT '0',
		currency TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS chore_assignees (
		chore_id TEXT NOT NULL REFERENCES chores(id) ON DELETE CASCADE,
		member_id TEXT NOT NULL,
		PRIMARY KEY (chore_id, member_id)
	);

	CREATE TABLE IF NOT EXISTS chore_rotation (
		chore_id TEXT NOT NULL REFERENCES chores(id) ON DELETE CASCADE,
		ord INTEGER NOT NULL,
		member_id TEXT NOT NULL,
		PRIMARY KEY (chore_id, ord)
	);

	CREATE TABLE IF NOT EXISTS completions (
		id TEXT PRIMARY KEY,
		chore_id TEXT NOT NULL,
		due_date TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		completed_by TEXT NOT NULL DEFAULT '',
		awarded INTEGER NOT NULL DEFAULT 0,
		UNIQUE (chore_id, due_date)
	);
	CREATE INDEX IF NOT EXISTS idx_completions_due ON completions(due_date);
	CREATE INDEX IF NOT EXISTS idx_completions_awarded ON completions(awarded);

	CREATE TABLE IF NOT EXISTS allowance_configs (
		member_id TEXT PRIMARY KEY,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		rrule TEXT NOT NULL,
		anchor TEXT NOT NULL,
		delay_days INTEGER NOT NULL DEFAULT 0,
		last_awarded TEXT
	);

	CREATE TABLE IF NOT EXISTS series (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		rrule TEXT NOT NULL DEFAULT '',
		anchor TEXT NOT NULL,
		start_date TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		series_id TEXT NOT NULL REFERENCES series(id) ON DELETE CASCADE,
		ord INTEGER NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		completed INTEGER NOT NULL DEFAULT 0,
		completed_at TEXT,
		day_break INTEGER NOT NULL DEFAULT 0,
		parent_id TEXT NOT NULL DEFAULT '',
		indent INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_series ON tasks(series_id, ord);

	CREATE TABLE IF NOT EXISTS payouts (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		description TEXT NOT NULL,
		period_start TEXT NOT NULL DEFAULT '',
		period_end TEXT NOT NULL DEFAULT '',
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_payouts_member ON payouts(member_id, recorded_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENCODING HELPERS
// =============================================================================

func encodeDate(d recurrence.Date) string { return d.String() }

func decodeDate(s string) (recurrence.Date, error) {
	return recurrence.ParseDate(s)
}

func decodeDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func (s *Store) Members(ctx context.Context) ([]chores.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, sort_order FROM members ORDER BY sort_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chores.Member
	for rows.Next() {
		var m chores.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) Chores(ctx context.Context) ([]chores.Chore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, start_date, rrule, end_date, rotation_unit,
		       claimable, reward_mode, weight, fixed_amount, currency
		FROM chores ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chores.Chore
	for rows.Next() {
		var (
			c         chores.Chore
			start     string
			end       sql.NullString
			claimable int
			weight    string
			fixed     string
		)
		if err := rows.Scan(&c.ID, &c.Title, &start, &c.RecurrenceRule, &end,
			(*string)(&c.RotationUnit), &claimable, (*string)(&c.RewardMode),
			&weight, &fixed, &c.Currency); err != nil {
			return nil, err
		}
		if c.Start, err = decodeDate(start); err != nil {
			return nil, fmt.Errorf("chore %s: %w", c.ID, err)
		}
		if end.Valid {
			d, err := decodeDate(end.String)
			if err != nil {
				return nil, fmt.Errorf("chore %s: %w", c.ID, err)
			}
			c.End = &d
		}
		c.Claimable = claimable != 0
		if c.Weight, err = decodeDecimal(weight); err != nil {
			return nil, fmt.Errorf("chore %s: %w", c.ID, err)
		}
		if c.FixedAmount, err = decodeDecimal(fixed); err != nil {
			return nil, fmt.Errorf("chore %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := s.loadChoreRelations(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) loadChoreRelations(ctx context.Context, c *chores.Chore) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT member_id FROM chore_assignees WHERE chore_id = ? ORDER BY member_id`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var m chores.MemberID
		if err := rows.Scan(&m); err != nil {
			return err
		}
		c.Assignees = append(c.Assignees, m)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rot, err := s.db.QueryContext(ctx,
		`SELECT ord, member_id FROM chore_rotation WHERE chore_id = ? ORDER BY ord`, c.ID)
	if err != nil {
		return err
	}
	defer rot.Close()
	for rot.Next() {
		var e chores.RotationEntry
		if err := rot.Scan(&e.Order, &e.Member); err != nil {
			return err
		}
		c.Rotation = append(c.Rotation, e)
	}
	return rot.Err()
}

func (s *Store) Completions(ctx context.Context) ([]chores.Completion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chore_id, due_date, completed, completed_by, awarded
		FROM completions ORDER BY due_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chores.Completion
	for rows.Next() {
		var (
			c         chores.Completion
			due       string
			completed int
			awarded   int
		)
		if err := rows.Scan(&c.ID, &c.ChoreID, &due, &completed, &c.CompletedBy, &awarded); err != nil {
			return nil, err
		}
		if c.DueDate, err = decodeDate(due); err != nil {
			return nil, fmt.Errorf("completion %s: %w", c.ID, err)
		}
		c.Completed = completed != 0
		c.Awarded = awarded != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) AllowanceConfigs(ctx context.Context) ([]allowance.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT member_id, amount, currency, rrule, anchor, delay_days, last_awarded
		FROM allowance_configs ORDER BY member_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []allowance.Config
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

func (s *Store) AllowanceConfig(ctx context.Context, member chores.MemberID) (allowance.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT member_id, amount, currency, rrule, anchor, delay_days, last_awarded
		FROM allowance_configs WHERE member_id = ?`, member)
	if err != nil {
		return allowance.Config{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return allowance.Config{}, err
		}
		return allowance.Config{}, store.ErrNotFound
	}
	return scanConfig(rows)
}

func scanConfig(rows *sql.Rows) (allowance.Config, error) {
	var (
		cfg    allowance.Config
		amount string
		anchor string
		last   sql.NullString
	)
	if err := rows.Scan(&cfg.Member, &amount, &cfg.Currency, &cfg.RecurrenceRule,
		&anchor, &cfg.PayoutDelayDays, &last); err != nil {
		return allowance.Config{}, err
	}
	var err error
	if cfg.Amount, err = decodeDecimal(amount); err != nil {
		return allowance.Config{}, fmt.Errorf("allowance %s: %w", cfg.Member, err)
	}
	if cfg.Anchor, err = decodeDate(anchor); err != nil {
		return allowance.Config{}, fmt.Errorf("allowance %s: %w", cfg.Member, err)
	}
	if last.Valid && last.String != "" {
		id := chores.CompletionID(last.String)
		cfg.LastAwarded = &id
	}
	return cfg, nil
}

func (s *Store) SeriesList(ctx context.Context) ([]tasklist.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, rrule, anchor, start_date FROM series ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tasklist.Series
	for rows.Next() {
		sr, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Tasks, err = s.loadTasks(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) Series(ctx context.Context, id tasklist.SeriesID) (tasklist.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, rrule, anchor, start_date FROM series WHERE id = ?`, id)
	if err != nil {
		return tasklist.Series{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return tasklist.Series{}, err
		}
		return tasklist.Series{}, store.ErrNotFound
	}
	sr, err := scanSeries(rows)
	if err != nil {
		return tasklist.Series{}, err
	}
	rows.Close()

	sr.Tasks, err = s.loadTasks(ctx, sr.ID)
	return sr, err
}

func scanSeries(rows *sql.Rows) (tasklist.Series, error) {
	var (
		sr     tasklist.Series
		anchor string
		start  string
	)
	if err := rows.Scan(&sr.ID, &sr.Title, &sr.RecurrenceRule, &anchor, &start); err != nil {
		return tasklist.Series{}, err
	}
	var err error
	if sr.Anchor, err = decodeDate(anchor); err != nil {
		return tasklist.Series{}, fmt.Errorf("series %s: %w", sr.ID, err)
	}
	if sr.Start, err = decodeDate(start); err != nil {
		return tasklist.Series{}, fmt.Errorf("series %s: %w", sr.ID, err)
	}
	return sr, nil
}

func (s *Store) loadTasks(ctx context.Context, id tasklist.SeriesID) ([]tasklist.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ord, text, completed, completed_at, day_break, parent_id, indent
		FROM tasks WHERE series_id = ? ORDER BY ord`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tasklist.Task
	for rows.Next() {
		var (
			t         tasklist.Task
			completed int
			at        sql.NullString
			dayBreak  int
		)
		if err := rows.Scan(&t.ID, &t.Order, &t.Text, &completed, &at,
			&dayBreak, &t.ParentID, &t.Indent); err != nil {
			return nil, err
		}
		t.Completed = completed != 0
		t.IsDayBreak = dayBreak != 0
		if at.Valid && at.String != "" {
			ts, err := time.Parse(time.RFC3339, at.String)
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", t.ID, err)
			}
			t.CompletedAt = &ts
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) Payouts(ctx context.Context, member chores.MemberID) ([]store.PayoutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, amount, currency, description, period_start, period_end, recorded_at
		FROM payouts WHERE member_id = ? ORDER BY recorded_at`, member)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.PayoutRecord
	for rows.Next() {
		var (
			p          store.PayoutRecord
			amount     string
			start, end string
			recorded   string
		)
		if err := rows.Scan(&p.ID, &p.Member, &amount, &p.Currency,
			&p.Description, &start, &end, &recorded); err != nil {
			return nil, err
		}
		if p.Amount, err = decodeDecimal(amount); err != nil {
			return nil, fmt.Errorf("payout %s: %w", p.ID, err)
		}
		if start != "" {
			if p.PeriodStart, err = decodeDate(start); err != nil {
				return nil, fmt.Errorf("payout %s: %w", p.ID, err)
			}
		}
		if end != "" {
			if p.PeriodEnd, err = decodeDate(end); err != nil {
				return nil, fmt.Errorf("payout %s: %w", p.ID, err)
			}
		}
		if p.RecordedAt, err = time.Parse(time.RFC3339, recorded); err != nil {
			return nil, fmt.Errorf("payout %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// MUTATIONS
// =============================================================================

func (s *Store) PutMember(ctx context.Context, m chores.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (id, name, sort_order) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, sort_order = excluded.sort_order`,
		m.ID, m.Name, m.SortOrder)
	return err
}

func (s *Store) PutChore(ctx context.Context, c chores.Chore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var end any
	if c.End != nil {
		end = encodeDate(*c.End)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chores
			(id, title, start_date, rrule, end_date, rotation_unit,
			 claimable, reward_mode, weight, fixed_amount, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title, start_date = excluded.start_date,
			rrule = excluded.rrule, end_date = excluded.end_date,
			rotation_unit = excluded.rotation_unit, claimable = excluded.claimable,
			reward_mode = excluded.reward_mode, weight = excluded.weight,
			fixed_amount = excluded.fixed_amount, currency = excluded.currency`,
		c.ID, c.Title, encodeDate(c.Start), c.RecurrenceRule, end,
		string(c.RotationUnit), boolToInt(c.Claimable), string(c.RewardMode),
		c.Weight.String(), c.FixedAmount.String(), c.Currency); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chore_assignees WHERE chore_id = ?`, c.ID); err != nil {
		return err
	}
	for _, m := range c.Assignees {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chore_assignees (chore_id, member_id) VALUES (?, ?)`, c.ID, m); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chore_rotation WHERE chore_id = ?`, c.ID); err != nil {
		return err
	}
	for _, e := range c.Rotation {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chore_rotation (chore_id, ord, member_id) VALUES (?, ?, ?)`,
			c.ID, e.Order, e.Member); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) PutAllowanceConfig(ctx context.Context, cfg allowance.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last any
	if cfg.LastAwarded != nil {
		last = string(*cfg.LastAwarded)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO allowance_configs
			(member_id, amount, currency, rrule, anchor, delay_days, last_awarded)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(member_id) DO UPDATE SET
			amount = excluded.amount, currency = excluded.currency,
			rrule = excluded.rrule, anchor = excluded.anchor,
			delay_days = excluded.delay_days, last_awarded = excluded.last_awarded`,
		cfg.Member, cfg.Amount.String(), cfg.Currency, cfg.RecurrenceRule,
		encodeDate(cfg.Anchor), cfg.PayoutDelayDays, last)
	return err
}

func (s *Store) PutSeries(ctx context.Context, sr tasklist.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO series (id, title, rrule, anchor, start_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title, rrule = excluded.rrule,
			anchor = excluded.anchor, start_date = excluded.start_date`,
		sr.ID, sr.Title, sr.RecurrenceRule, encodeDate(sr.Anchor), encodeDate(sr.Start)); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE series_id = ?`, sr.ID); err != nil {
		return err
	}
	for _, t := range sr.Tasks {
		var at any
		if t.CompletedAt != nil {
			at = t.CompletedAt.UTC().Format(time.RFC3339)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tasks
				(id, series_id, ord, text, completed, completed_at, day_break, parent_id, indent)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, sr.ID, t.Order, t.Text, boolToInt(t.Completed), at,
			boolToInt(t.IsDayBreak), t.ParentID, t.Indent); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) RecordCompletion(ctx context.Context, c chores.Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = chores.CompletionID(uuid.NewString())
	}
	// One record per chore and due date; the awarded latch survives a
	// re-record.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO completions (id, chore_id, due_date, completed, completed_by, awarded)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chore_id, due_date) DO UPDATE SET
			completed = excluded.completed,
			completed_by = excluded.completed_by,
			awarded = MAX(completions.awarded, excluded.awarded)`,
		c.ID, c.ChoreID, encodeDate(c.DueDate), boolToInt(c.Completed),
		c.CompletedBy, boolToInt(c.Awarded))
	return err
}

func (s *Store) MarkAwarded(ctx context.Context, ids []chores.CompletionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := markAwardedTx(ctx, tx, ids); err != nil {
		return err
	}
	return tx.Commit()
}

func markAwardedTx(ctx context.Context, tx *sql.Tx, ids []chores.CompletionID) error {
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE completions SET awarded = 1 WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) SettlePeriods(ctx context.Context, settlement store.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, intent := range settlement.Payouts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO payouts
				(id, member_id, amount, currency, description, period_start, period_end, recorded_at)
			VALUES (?, ?, ?, ?, ?, '', '', ?)`,
			uuid.NewString(), intent.Member, intent.Amount.String(),
			intent.Currency, intent.Description, now); err != nil {
			return err
		}
	}
	if err := markAwardedTx(ctx, tx, settlement.MarkAwarded); err != nil {
		return err
	}
	if settlement.LastAwarded != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE allowance_configs SET last_awarded = ? WHERE member_id = ?`,
			string(settlement.LastAwarded), settlement.Member); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ApplyTaskMutations(ctx context.Context, id tasklist.SeriesID, muts []tasklist.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, mut := range muts {
		var at any
		if mut.CompletedAt != nil {
			at = mut.CompletedAt.UTC().Format(time.RFC3339)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE tasks SET completed = ?, completed_at = ?
			WHERE id = ? AND series_id = ?`,
			boolToInt(mut.Completed), at, mut.Task, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}
