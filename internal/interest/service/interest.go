package service

import (
	"context"
	"errors"

	"rentmeroom/internal/access"
	"rentmeroom/internal/interest/models"
	listing "rentmeroom/internal/listing/models"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/audit"
	"rentmeroom/pkg/platform/sentinel"
	"rentmeroom/pkg/requestcontext"
)

// MarkInterested records the caller's interest in a verified room. A second
// interest in the same room is a conflict.
func (s *Service) MarkInterested(ctx context.Context, caller access.Identity, roomID id.RoomID, message string) (*models.MyInterest, error) {
	if err := access.Authorize(caller, "", false); err != nil {
		return nil, err
	}
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load room")
	}
	if room == nil || !room.IsVerified {
		return nil, dErrors.New(dErrors.CodeNotFound, "room not found")
	}
	if room.OwnerID == caller.UserID {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot register interest in your own room")
	}

	interest, err := models.NewInterest(caller.UserID, roomID, message, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.interests.Create(ctx, interest); err != nil {
		return nil, wrapInterestErr(err, "record interest")
	}

	s.metrics.IncInterestsCreated()
	s.emit(ctx, audit.Event{
		Action:  string(audit.EventInterestCreated),
		UserID:  caller.UserID,
		Subject: interest.ID.String(),
		Attrs:   map[string]string{"room_id": roomID.String()},
	})
	view := myInterest(interest, room)
	return &view, nil
}

// ListMyInterests returns the caller's interests oldest first. Interests on
// rooms that no longer exist are skipped.
func (s *Service) ListMyInterests(ctx context.Context, caller access.Identity) ([]models.MyInterest, error) {
	if err := access.Authorize(caller, "", false); err != nil {
		return nil, err
	}
	interests, err := s.interests.ListByTenant(ctx, caller.UserID)
	if err != nil {
		return nil, wrapInterestErr(err, "list interests")
	}
	roomIDs := make([]id.RoomID, 0, len(interests))
	for _, i := range interests {
		roomIDs = append(roomIDs, i.RoomID)
	}
	rooms, err := s.rooms.FindByIDs(ctx, roomIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rooms")
	}
	out := make([]models.MyInterest, 0, len(interests))
	for _, i := range interests {
		room, ok := rooms[i.RoomID]
		if !ok {
			continue
		}
		out = append(out, myInterest(i, room))
	}
	return out, nil
}

// ListOwnerQueue groups the interests on the caller's rooms by room. Each
// group is first come first served, and groups are ordered by their oldest
// entry. Interests from deleted tenants are skipped.
func (s *Service) ListOwnerQueue(ctx context.Context, caller access.Identity) ([]models.QueueGroup, error) {
	if err := access.Authorize(caller, access.RoleOwner, true); err != nil {
		return nil, err
	}
	rooms, err := s.rooms.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rooms")
	}
	byID := make(map[id.RoomID]*listing.Room, len(rooms))
	roomIDs := make([]id.RoomID, 0, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
		roomIDs = append(roomIDs, r.ID)
	}
	interests, err := s.interests.ListByRooms(ctx, roomIDs)
	if err != nil {
		return nil, wrapInterestErr(err, "list interests")
	}

	seen := make(map[id.UserID]bool, len(interests))
	tenantIDs := make([]id.UserID, 0, len(interests))
	for _, i := range interests {
		if !seen[i.TenantID] {
			seen[i.TenantID] = true
			tenantIDs = append(tenantIDs, i.TenantID)
		}
	}
	tenants, err := s.users.PublicUsers(ctx, tenantIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tenants")
	}

	groups := make([]models.QueueGroup, 0)
	index := make(map[id.RoomID]int)
	for _, i := range interests {
		room, ok := byID[i.RoomID]
		if !ok {
			continue
		}
		tenant, ok := tenants[i.TenantID]
		if !ok {
			continue
		}
		n, ok := index[i.RoomID]
		if !ok {
			n = len(groups)
			index[i.RoomID] = n
			groups = append(groups, models.QueueGroup{Room: models.Snapshot(room, models.StatusPending)})
		}
		groups[n].Interests = append(groups[n].Interests, models.QueueEntry{
			ID:        i.ID,
			Tenant:    tenant,
			Message:   i.Message,
			Status:    i.Status,
			CreatedAt: i.CreatedAt,
			UpdatedAt: i.UpdatedAt,
		})
	}
	return groups, nil
}

// MarkContacted moves an interest on one of the caller's rooms to contacted.
// Repeating it is a no-op.
func (s *Service) MarkContacted(ctx context.Context, caller access.Identity, interestID id.InterestID) (*models.Interest, error) {
	if err := access.Authorize(caller, access.RoleOwner, true); err != nil {
		return nil, err
	}
	if _, err := s.ownedInterest(ctx, caller, interestID); err != nil {
		return nil, err
	}
	changed := false
	updated, err := s.interests.Execute(ctx, interestID, func(i *models.Interest) error {
		changed = i.MarkContacted(requestcontext.Now(ctx))
		return nil
	})
	if err != nil {
		return nil, wrapInterestErr(err, "update interest")
	}
	if changed {
		s.metrics.IncInterestsContacted()
		s.emit(ctx, audit.Event{
			Action:  string(audit.EventInterestContacted),
			UserID:  updated.TenantID,
			ActorID: caller.UserID.String(),
			Subject: interestID.String(),
			Attrs:   map[string]string{"room_id": updated.RoomID.String()},
		})
	}
	return updated, nil
}

// DeleteInterest removes an interest on one of the caller's rooms.
func (s *Service) DeleteInterest(ctx context.Context, caller access.Identity, interestID id.InterestID) error {
	if err := access.Authorize(caller, access.RoleOwner, true); err != nil {
		return err
	}
	interest, err := s.ownedInterest(ctx, caller, interestID)
	if err != nil {
		return err
	}
	if err := s.interests.Delete(ctx, interestID); err != nil {
		return wrapInterestErr(err, "delete interest")
	}
	s.emit(ctx, audit.Event{
		Action:  string(audit.EventInterestDeleted),
		UserID:  interest.TenantID,
		ActorID: caller.UserID.String(),
		Subject: interestID.String(),
		Attrs:   map[string]string{"room_id": interest.RoomID.String()},
	})
	return nil
}

// ownedInterest loads an interest and checks that its room belongs to caller.
// An interest whose room is gone is reported as missing.
func (s *Service) ownedInterest(ctx context.Context, caller access.Identity, interestID id.InterestID) (*models.Interest, error) {
	interest, err := s.interests.FindByID(ctx, interestID)
	if err != nil {
		return nil, wrapInterestErr(err, "load interest")
	}
	room, err := s.rooms.FindByID(ctx, interest.RoomID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "interest not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load room")
	}
	if room.OwnerID != caller.UserID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the room owner can manage this interest")
	}
	return interest, nil
}

func myInterest(i *models.Interest, room *listing.Room) models.MyInterest {
	return models.MyInterest{
		ID:        i.ID,
		Message:   i.Message,
		Status:    i.Status,
		Room:      models.Snapshot(room, i.Status),
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}
