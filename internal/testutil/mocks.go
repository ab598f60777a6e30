// Package testutil provides shared fakes of domain interfaces for use in
// tests across the codebase, in the spirit of net/http/httptest.
package testutil

import (
	"context"
	"sort"
	"sync"

	"ontomaint/internal/domain"
)

// === Graph Store Fake ===

var _ domain.GraphStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory domain.GraphStore with set semantics. It does
// not evaluate queries: Select returns whatever SelectFn returns, or an empty
// result set. Every query text is recorded for assertions.
type MemoryStore struct {
	SelectFn func(ctx context.Context, query string) (*domain.ResultSet, error)
	InsertFn func(ctx context.Context, triples []domain.Triple) error
	ClearFn  func(ctx context.Context) error

	mu      sync.Mutex
	triples map[string]domain.Triple
	order   []string
	batches [][]domain.Triple
	queries []string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(initial ...domain.Triple) *MemoryStore {
	m := &MemoryStore{triples: make(map[string]domain.Triple)}
	m.add(initial)
	return m
}

func (m *MemoryStore) add(triples []domain.Triple) {
	for _, t := range triples {
		k := t.NTriples()
		if _, ok := m.triples[k]; ok {
			continue
		}
		m.triples[k] = t
		m.order = append(m.order, k)
	}
}

// Select implements domain.GraphStore.
func (m *MemoryStore) Select(ctx context.Context, query string) (*domain.ResultSet, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.SelectFn != nil {
		return m.SelectFn(ctx, query)
	}
	return &domain.ResultSet{}, nil
}

// Insert implements domain.GraphStore.
func (m *MemoryStore) Insert(ctx context.Context, triples []domain.Triple) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, triples); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, append([]domain.Triple(nil), triples...))
	m.add(triples)
	return nil
}

// Triples implements domain.GraphStore.
func (m *MemoryStore) Triples(_ context.Context) ([]domain.Triple, error) {
	return m.All(), nil
}

// Count implements domain.GraphStore.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.triples), nil
}

// Clear implements domain.GraphStore.
func (m *MemoryStore) Clear(ctx context.Context) error {
	if m.ClearFn != nil {
		if err := m.ClearFn(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triples = make(map[string]domain.Triple)
	m.order = nil
	return nil
}

// All returns the stored triples in insertion order.
func (m *MemoryStore) All() []domain.Triple {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Triple, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.triples[k])
	}
	return out
}

// Has reports whether the exact triple is stored.
func (m *MemoryStore) Has(t domain.Triple) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.triples[t.NTriples()]
	return ok
}

// InsertBatches returns every successful Insert call's triples.
func (m *MemoryStore) InsertBatches() [][]domain.Triple {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]domain.Triple(nil), m.batches...)
}

// Queries returns every query text passed to Select.
func (m *MemoryStore) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// LastQuery returns the most recent query text, or "".
func (m *MemoryStore) LastQuery() string {
	q := m.Queries()
	if len(q) == 0 {
		return ""
	}
	return q[len(q)-1]
}

// === Result Set Builders ===

// Rows builds a result set from IRI values; "" yields an unbound cell.
func Rows(vars []string, rows ...[]string) *domain.ResultSet {
	rs := &domain.ResultSet{Vars: vars, Rows: make([]domain.Row, 0, len(rows))}
	for _, r := range rows {
		row := make(domain.Row, len(r))
		for i, v := range r {
			if v == "" {
				continue
			}
			t := domain.IRI(v)
			row[i] = &t
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs
}

// === History Repository Mock ===

// MockHistoryRepo implements domain.HistoryRepository for testing.
type MockHistoryRepo struct {
	InsertFn func(ctx context.Context, e *domain.HistoryEntry) error
	ListFn   func(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryEntry, int64, error)

	mu      sync.Mutex
	Entries []*domain.HistoryEntry // collected entries for assertions
}

// Insert implements the interface method for testing.
func (m *MockHistoryRepo) Insert(ctx context.Context, e *domain.HistoryEntry) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, e)
	return nil
}

// List implements the interface method for testing.
func (m *MockHistoryRepo) List(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryEntry, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.HistoryEntry, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, *e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

// LastEntry returns the last collected entry, or nil if none.
func (m *MockHistoryRepo) LastEntry() *domain.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Entries) == 0 {
		return nil
	}
	return m.Entries[len(m.Entries)-1]
}

// HasStatus returns true if any collected entry has the given status.
func (m *MockHistoryRepo) HasStatus(status string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if e.Status == status {
			return true
		}
	}
	return false
}
