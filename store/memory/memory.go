// Package memory provides an in-memory Store implementation for tests
// and demos.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/chore-engine/allowance"
	"github.com/warp/chore-engine/chores"
	"github.com/warp/chore-engine/store"
	"github.com/warp/chore-engine/tasklist"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	members     map[chores.MemberID]chores.Member
	chores      map[chores.ChoreID]chores.Chore
	completions map[chores.CompletionID]chores.Completion
	configs     map[chores.MemberID]allowance.Config
	series      map[tasklist.SeriesID]tasklist.Series
	payouts     []store.PayoutRecord
}

func New() *Memory {
	return &Memory{
		members:     make(map[chores.MemberID]chores.Member),
		chores:      make(map[chores.ChoreID]chores.Chore),
		completions: make(map[chores.CompletionID]chores.Completion),
		configs:     make(map[chores.MemberID]allowance.Config),
		series:      make(map[tasklist.SeriesID]tasklist.Series),
	}
}

func (m *Memory) Close() error { return nil }

// =============================================================================
// SNAPSHOTS
// =============================================================================

func (m *Memory) Members(_ context.Context) ([]chores.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]chores.Member, 0, len(m.members))
	for _, v := range m.members {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) Chores(_ context.Context) ([]chores.Chore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]chores.Chore, 0, len(m.chores))
	for _, v := range m.chores {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Completions(_ context.Context) ([]chores.Completion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]chores.Completion, 0, len(m.completions))
	for _, v := range m.completions {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) AllowanceConfigs(_ context.Context) ([]allowance.Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]allowance.Config, 0, len(m.configs))
	for _, v := range m.configs {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Member < out[j].Member })
	return out, nil
}

func (m *Memory) AllowanceConfig(_ context.Context, member chores.MemberID) (allowance.Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[member]
	if !ok {
		return allowance.Config{}, store.ErrNotFound
	}
	return cfg, nil
}

func (m *Memory) SeriesList(_ context.Context) ([]tasklist.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]tasklist.Series, 0, len(m.series))
	for _, v := range m.series {
		out = append(out, copySeries(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Series(_ context.Context, id tasklist.SeriesID) (tasklist.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.series[id]
	if !ok {
		return tasklist.Series{}, store.ErrNotFound
	}
	return copySeries(s), nil
}

func (m *Memory) Payouts(_ context.Context, member chores.MemberID) ([]store.PayoutRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.PayoutRecord
	for _, p := range m.payouts {
		if p.Member == member {
			out = append(out, p)
		}
	}
	return out, nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

func (m *Memory) PutMember(_ context.Context, member chores.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[member.ID] = member
	return nil
}

func (m *Memory) PutChore(_ context.Context, c chores.Chore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chores[c.ID] = c
	return nil
}

func (m *Memory) PutAllowanceConfig(_ context.Context, cfg allowance.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.Member] = cfg
	return nil
}

func (m *Memory) PutSeries(_ context.Context, s tasklist.Series) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[s.ID] = copySeries(s)
	return nil
}

func (m *Memory) RecordCompletion(_ context.Context, c chores.Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = chores.CompletionID(uuid.NewString())
	}
	// One record per chore and due date: replace, keeping the latch.
	for id, existing := range m.completions {
		if existing.ChoreID == c.ChoreID && existing.DueDate.Equal(c.DueDate) {
			c.ID = existing.ID
			c.Awarded = c.Awarded || existing.Awarded
			delete(m.completions, id)
			break
		}
	}
	m.completions[c.ID] = c
	return nil
}

func (m *Memory) MarkAwarded(_ context.Context, ids []chores.CompletionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markAwardedLocked(ids)
	return nil
}

func (m *Memory) markAwardedLocked(ids []chores.CompletionID) {
	for _, id := range ids {
		if c, ok := m.completions[id]; ok && !c.Awarded {
			c.Awarded = true
			m.completions[id] = c
		}
	}
}

func (m *Memory) SettlePeriods(_ context.Context, s store.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, intent := range s.Payouts {
		m.payouts = append(m.payouts, store.PayoutRecord{
			ID:          uuid.NewString(),
			Member:      intent.Member,
			Amount:      intent.Amount,
			Currency:    intent.Currency,
			Description: intent.Description,
			RecordedAt:  time.Now().UTC(),
		})
	}
	m.markAwardedLocked(s.MarkAwarded)
	if s.LastAwarded != "" {
		if cfg, ok := m.configs[s.Member]; ok {
			last := s.LastAwarded
			cfg.LastAwarded = &last
			m.configs[s.Member] = cfg
		}
	}
	return nil
}

func (m *Memory) ApplyTaskMutations(_ context.Context, id tasklist.SeriesID, muts []tasklist.Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.series[id]
	if !ok {
		return store.ErrNotFound
	}
	for _, mut := range muts {
		for i := range s.Tasks {
			if s.Tasks[i].ID == mut.Task {
				s.Tasks[i].Completed = mut.Completed
				s.Tasks[i].CompletedAt = mut.CompletedAt
			}
		}
	}
	m.series[id] = s
	return nil
}

func copySeries(s tasklist.Series) tasklist.Series {
	out := s
	out.Tasks = make([]tasklist.Task, len(s.Tasks))
	copy(out.Tasks, s.Tasks)
	return out
}
