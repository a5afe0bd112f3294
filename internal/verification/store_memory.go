package verification

import (
	"context"
	"sort"
	"sync"

	dErrors "veridoc/pkg/domain-errors"
)

// InMemoryStore keeps verifications in process memory. The default backend
// when no database is configured, and the test double everywhere else.
type InMemoryStore struct {
	mu            sync.RWMutex
	verifications map[string]Verification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{verifications: make(map[string]Verification)}
}

func (s *InMemoryStore) Save(_ context.Context, v Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifications[v.ID] = v
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verifications[id]
	if !ok {
		return Verification{}, dErrors.New(dErrors.CodeNotFound, "verification not found: "+id)
	}
	return v, nil
}

func (s *InMemoryStore) List(_ context.Context, customerID string) ([]Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Verification, 0, len(s.verifications))
	for _, v := range s.verifications {
		if customerID == "" || v.CustomerID == customerID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
