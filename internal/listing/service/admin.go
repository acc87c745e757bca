package service

import (
	"context"
	"io"

	"rentmeroom/internal/access"
	"rentmeroom/internal/listing/export"
	"rentmeroom/internal/listing/models"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/audit"
	"rentmeroom/pkg/requestcontext"
)

const exportPageSize = 100

// AdminListAll pages every room, unverified included, with the owner's public
// identity attached.
func (s *Service) AdminListAll(ctx context.Context, caller access.Identity, f models.AdminFilter) (*models.Page[models.OwnerRoom], error) {
	if err := access.Authorize(caller, access.RoleAdmin, false); err != nil {
		return nil, err
	}
	f.Normalize()
	rooms, total, err := s.rooms.ListAdmin(ctx, f)
	if err != nil {
		return nil, wrapRoomErr(err, "list rooms")
	}
	items, err := s.withOwners(ctx, rooms)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.OwnerRoom]{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *Service) AdminGetByID(ctx context.Context, caller access.Identity, roomID id.RoomID) (*models.OwnerRoom, error) {
	if err := access.Authorize(caller, access.RoleAdmin, false); err != nil {
		return nil, err
	}
	r, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, wrapRoomErr(err, "load room")
	}
	items, err := s.withOwners(ctx, []*models.Room{r})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// VerifyRoom publishes a room. Verifying an already verified room is a no-op.
func (s *Service) VerifyRoom(ctx context.Context, caller access.Identity, roomID id.RoomID) (*models.Room, error) {
	if err := access.Authorize(caller, access.RoleAdmin, false); err != nil {
		return nil, err
	}
	changed := false
	r, err := s.rooms.Execute(ctx, roomID, func(r *models.Room) error {
		changed = r.Verify(requestcontext.Now(ctx))
		return nil
	})
	if err != nil {
		return nil, wrapRoomErr(err, "verify room")
	}
	if changed {
		s.metrics.IncListingsVerified()
		s.emit(ctx, audit.Event{
			Action:  string(audit.EventRoomVerified),
			UserID:  r.OwnerID,
			ActorID: caller.UserID.String(),
			Subject: roomID.String(),
		})
	}
	return r, nil
}

// ExportXLSX writes every room matching f to w as a spreadsheet. Paging
// fields of f are ignored.
func (s *Service) ExportXLSX(ctx context.Context, caller access.Identity, f models.AdminFilter, w io.Writer) error {
	if err := access.Authorize(caller, access.RoleAdmin, false); err != nil {
		return err
	}
	var all []models.OwnerRoom
	for page := 1; ; page++ {
		batch := models.AdminFilter{Verified: f.Verified, Page: page, Limit: exportPageSize}
		rooms, total, err := s.rooms.ListAdmin(ctx, batch)
		if err != nil {
			return wrapRoomErr(err, "export rooms")
		}
		items, err := s.withOwners(ctx, rooms)
		if err != nil {
			return err
		}
		all = append(all, items...)
		if len(rooms) < exportPageSize || len(all) >= total {
			break
		}
	}
	if err := export.WriteRooms(w, all); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to render export")
	}
	return nil
}

// withOwners attaches owner identities. Deleted owners leave Owner nil.
func (s *Service) withOwners(ctx context.Context, rooms []*models.Room) ([]models.OwnerRoom, error) {
	seen := make(map[id.UserID]bool, len(rooms))
	ids := make([]id.UserID, 0, len(rooms))
	for _, r := range rooms {
		if !seen[r.OwnerID] {
			seen[r.OwnerID] = true
			ids = append(ids, r.OwnerID)
		}
	}
	owners, err := s.owners.PublicUsers(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load room owners")
	}
	out := make([]models.OwnerRoom, 0, len(rooms))
	for _, r := range rooms {
		view := r.Full()
		if owner, ok := owners[r.OwnerID]; ok {
			view.Owner = &owner
		}
		out = append(out, view)
	}
	return out, nil
}
