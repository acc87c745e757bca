package service

import (
	"context"

	"rentmeroom/internal/access"
	"rentmeroom/internal/listing/models"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
)

// ListOwnerRooms returns the caller's rooms, contact and moderation state included.
func (s *Service) ListOwnerRooms(ctx context.Context, caller access.Identity) ([]models.OwnerRoom, error) {
	if err := access.Authorize(caller, access.RoleOwner, true); err != nil {
		return nil, err
	}
	rooms, err := s.rooms.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, wrapRoomErr(err, "list owner rooms")
	}
	out := make([]models.OwnerRoom, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Full())
	}
	return out, nil
}

// GetOwnerRoom returns one of the caller's rooms. Rooms of other owners are
// reported as missing.
func (s *Service) GetOwnerRoom(ctx context.Context, caller access.Identity, roomID id.RoomID) (*models.OwnerRoom, error) {
	if err := access.Authorize(caller, access.RoleOwner, true); err != nil {
		return nil, err
	}
	r, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, wrapRoomErr(err, "load room")
	}
	if r.OwnerID != caller.UserID {
		return nil, dErrors.New(dErrors.CodeNotFound, "room not found")
	}
	view := r.Full()
	return &view, nil
}
