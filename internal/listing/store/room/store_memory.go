package room

import (
	"context"
	"sort"
	"sync"

	"rentmeroom/internal/listing/models"
	id "rentmeroom/pkg/domain"
	"rentmeroom/pkg/platform/sentinel"
)

type InMemoryRoomStore struct {
	mu    sync.RWMutex
	rooms map[id.RoomID]*models.Room
}

func NewInMemory() *InMemoryRoomStore {
	return &InMemoryRoomStore{rooms: make(map[id.RoomID]*models.Room)}
}

func (s *InMemoryRoomStore) Create(_ context.Context, r *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.rooms[r.ID]; taken {
		return sentinel.ErrConflict
	}
	s.rooms[r.ID] = clone(r)
	return nil
}

func (s *InMemoryRoomStore) FindByID(_ context.Context, roomID id.RoomID) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

func (s *InMemoryRoomStore) FindByIDs(_ context.Context, ids []id.RoomID) (map[id.RoomID]*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.RoomID]*models.Room, len(ids))
	for _, roomID := range ids {
		if r, ok := s.rooms[roomID]; ok {
			out[roomID] = clone(r)
		}
	}
	return out, nil
}

// Execute runs fn on a copy under the write lock and stores it when fn succeeds.
func (s *InMemoryRoomStore) Execute(_ context.Context, roomID id.RoomID, fn func(*models.Room) error) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.rooms[roomID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	r := clone(current)
	if err := fn(r); err != nil {
		return nil, err
	}
	s.rooms[roomID] = clone(r)
	return r, nil
}

func (s *InMemoryRoomStore) Delete(_ context.Context, roomID id.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.rooms, roomID)
	return nil
}

// ListVerified returns verified rooms newest first.
func (s *InMemoryRoomStore) ListVerified(_ context.Context, offset, limit int) ([]*models.Room, int, error) {
	matched := s.collect(func(r *models.Room) bool { return r.IsVerified })
	return page(matched, offset, limit), len(matched), nil
}

func (s *InMemoryRoomStore) ListAdmin(_ context.Context, f models.AdminFilter) ([]*models.Room, int, error) {
	matched := s.collect(func(r *models.Room) bool {
		return f.Verified == nil || r.IsVerified == *f.Verified
	})
	return page(matched, f.Offset(), f.Limit), len(matched), nil
}

func (s *InMemoryRoomStore) ListByOwner(_ context.Context, ownerID id.UserID) ([]*models.Room, error) {
	return s.collect(func(r *models.Room) bool { return r.OwnerID == ownerID }), nil
}

// Search orders by distance when f.Near is set, newest first otherwise.
// Rooms without a location never match a radius search.
func (s *InMemoryRoomStore) Search(_ context.Context, f models.SearchFilter) ([]models.SearchHit, int, error) {
	var hits []models.SearchHit
	for _, r := range s.collect(f.Matches) {
		if f.Near == nil {
			hits = append(hits, models.SearchHit{Room: r})
			continue
		}
		if r.Location == nil {
			continue
		}
		d := haversine(f.Near.Point, *r.Location)
		if d > f.Near.RadiusMeters {
			continue
		}
		hits = append(hits, models.SearchHit{Room: r, DistanceM: &d})
	}
	if f.Near != nil {
		sort.SliceStable(hits, func(i, j int) bool { return *hits[i].DistanceM < *hits[j].DistanceM })
	}
	return page(hits, f.Offset(), f.Limit), len(hits), nil
}

// collect returns matching rooms newest first.
func (s *InMemoryRoomStore) collect(match func(*models.Room) bool) []*models.Room {
	s.mu.RLock()
	out := make([]*models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		if match(r) {
			out = append(out, clone(r))
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
