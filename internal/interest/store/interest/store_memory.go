package interest

import (
	"context"
	"sync"

	"rentmeroom/internal/interest/models"
	id "rentmeroom/pkg/domain"
	"rentmeroom/pkg/platform/sentinel"
)

type pairKey struct {
	tenant id.UserID
	room   id.RoomID
}

type InMemoryInterestStore struct {
	mu        sync.RWMutex
	interests map[id.InterestID]*models.Interest
	pairs     map[pairKey]id.InterestID
	// order keeps insertion order so equal timestamps stay FIFO.
	order []id.InterestID
}

func NewInMemory() *InMemoryInterestStore {
	return &InMemoryInterestStore{
		interests: make(map[id.InterestID]*models.Interest),
		pairs:     make(map[pairKey]id.InterestID),
	}
}

// Create checks the pair and inserts under one lock.
func (s *InMemoryInterestStore) Create(_ context.Context, i *models.Interest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{tenant: i.TenantID, room: i.RoomID}
	if _, taken := s.pairs[key]; taken {
		return sentinel.ErrConflict
	}
	if _, taken := s.interests[i.ID]; taken {
		return sentinel.ErrConflict
	}
	s.interests[i.ID] = clone(i)
	s.pairs[key] = i.ID
	s.order = append(s.order, i.ID)
	return nil
}

func (s *InMemoryInterestStore) FindByID(_ context.Context, interestID id.InterestID) (*models.Interest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.interests[interestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(i), nil
}

// Execute runs fn on a copy under the write lock and stores it when fn succeeds.
func (s *InMemoryInterestStore) Execute(_ context.Context, interestID id.InterestID, fn func(*models.Interest) error) (*models.Interest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.interests[interestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	i := clone(current)
	if err := fn(i); err != nil {
		return nil, err
	}
	s.interests[interestID] = clone(i)
	return i, nil
}

func (s *InMemoryInterestStore) Delete(_ context.Context, interestID id.InterestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.interests[interestID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.interests, interestID)
	delete(s.pairs, pairKey{tenant: i.TenantID, room: i.RoomID})
	for n, existing := range s.order {
		if existing == interestID {
			s.order = append(s.order[:n], s.order[n+1:]...)
			break
		}
	}
	return nil
}

// ListByTenant returns the tenant's interests oldest first.
func (s *InMemoryInterestStore) ListByTenant(_ context.Context, tenantID id.UserID) ([]*models.Interest, error) {
	return s.collect(func(i *models.Interest) bool { return i.TenantID == tenantID }), nil
}

// ListByRooms returns the interests on any of roomIDs oldest first.
func (s *InMemoryInterestStore) ListByRooms(_ context.Context, roomIDs []id.RoomID) ([]*models.Interest, error) {
	wanted := make(map[id.RoomID]bool, len(roomIDs))
	for _, roomID := range roomIDs {
		wanted[roomID] = true
	}
	return s.collect(func(i *models.Interest) bool { return wanted[i.RoomID] }), nil
}

func (s *InMemoryInterestStore) collect(match func(*models.Interest) bool) []*models.Interest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Interest, 0)
	for _, interestID := range s.order {
		if i := s.interests[interestID]; match(i) {
			out = append(out, clone(i))
		}
	}
	fifo(out)
	return out
}
