// Package pending holds unconfirmed registrations keyed by email.
package pending

import (
	"context"
	"sync"

	"rentmeroom/internal/identity/models"
	"rentmeroom/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.PendingRegistration
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]models.PendingRegistration)}
}

// Upsert replaces any existing record for the email.
func (s *InMemoryStore) Upsert(_ context.Context, p *models.PendingRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[p.Email] = *p
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, email string) (*models.PendingRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.records[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, email)
	return nil
}
