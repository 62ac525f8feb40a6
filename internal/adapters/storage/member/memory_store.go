package member

import (
	"context"
	"sync"

	domain "memberadmin/internal/domain/member"
)

// MemoryStore is a slice-backed Store. It is the default backend.
type MemoryStore struct {
	mu      sync.RWMutex
	records []domain.Member
}

// Compile-time check that *MemoryStore satisfies Store.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load replaces every record with records.
// PRE: none
// POST: List returns records in the same order, first occurrence of an id wins
func (s *MemoryStore) Load(_ context.Context, records []domain.Member) error {
	next := dedupe(records)
	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
	return nil
}

// List returns a copy of all records in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Member, len(s.records))
	copy(out, s.records)
	return out, nil
}

// GetByID retrieves a record by id.
// PRE: none
// POST: Returns domain.ErrNotFound if no record has that id
func (s *MemoryStore) GetByID(_ context.Context, id string) (domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Member{}, domain.ErrNotFound
}

// Update replaces name, email and role of the record with id.
// PRE: fields have been validated
// POST: Record updated in place; unknown id is a no-op
func (s *MemoryStore) Update(_ context.Context, id string, fields domain.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.ID == id {
			s.records[i] = r.WithFields(fields)
			return nil
		}
	}
	return nil
}

// Delete removes the record with id. Unknown id is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	return s.DeleteMany(ctx, []string{id})
}

// DeleteMany removes every record whose id is in ids under a single lock.
// POST: Observers see either all or none of the removals
func (s *MemoryStore) DeleteMany(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]domain.Member, 0, len(s.records))
	for _, r := range s.records {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}

// Count returns the number of records.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Clear removes every record.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
	return nil
}
