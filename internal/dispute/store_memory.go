package dispute

import (
	"context"
	"sort"
	"sync"

	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
)

// InMemoryStore keeps disputes in process memory with CAS semantics on
// Update.
type InMemoryStore struct {
	mu       sync.RWMutex
	disputes map[string]Dispute
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{disputes: make(map[string]Dispute)}
}

func (s *InMemoryStore) Save(_ context.Context, d Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.disputes[d.ID]; exists {
		return dErrors.New(dErrors.CodeConflict, "dispute already exists: "+d.ID)
	}
	s.disputes[d.ID] = d
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.disputes[id]
	if !ok {
		return Dispute{}, dErrors.New(dErrors.CodeNotFound, "dispute not found: "+id)
	}
	return d, nil
}

func (s *InMemoryStore) Update(_ context.Context, d Dispute, expectedStatus domain.DisputeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.disputes[d.ID]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "dispute not found: "+d.ID)
	}
	if cur.Status != expectedStatus {
		return dErrors.New(dErrors.CodeConflict, "dispute modified concurrently: "+d.ID)
	}
	s.disputes[d.ID] = d
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Dispute, 0, len(s.disputes))
	for _, d := range s.disputes {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
