package service

import (
	"context"
	"strconv"
	"strings"

	"rentmeroom/internal/access"
	"rentmeroom/internal/blob"
	"rentmeroom/internal/listing/models"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/audit"
	"rentmeroom/pkg/requestcontext"
)

// CreateListing stores an unverified room for a verified owner. Coordinates
// that are missing or out of range are replaced by a geocode of the address.
func (s *Service) CreateListing(ctx context.Context, caller access.Identity, draft models.Draft) (*models.Room, error) {
	if err := access.Authorize(caller, access.RoleOwner, true); err != nil {
		return nil, err
	}
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Contact = strings.TrimSpace(draft.Contact)
	draft.Description = strings.TrimSpace(draft.Description)
	draft.AddressText = strings.TrimSpace(draft.AddressText)
	draft.Address = models.NormalizeAddress(draft.Address)
	draft.Features = models.CleanFeatures(draft.Features)
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	room := &models.Room{
		ID:          id.NewRoomID(),
		OwnerID:     caller.UserID,
		Title:       draft.Title,
		Rent:        draft.Rent,
		AddressText: draft.AddressText,
		Address:     draft.Address,
		Contact:     draft.Contact,
		Features:    draft.Features,
		Description: draft.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if draft.Location != nil && draft.Location.Valid() {
		loc := *draft.Location
		room.Location = &loc
	} else {
		room.Location = s.locate(ctx, room.GeocodeQuery())
	}

	images, err := blob.PutAll(ctx, s.blobs, draft.Uploads)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "failed to store room images")
	}
	if images == nil {
		images = []blob.Image{}
	}
	room.Images = images

	if err := s.rooms.Create(ctx, room); err != nil {
		blob.DeleteAll(ctx, s.blobs, s.logger, images)
		return nil, wrapRoomErr(err, "create room")
	}
	s.adjustCount(ctx, caller.UserID, 1)
	s.metrics.IncListingsCreated()
	s.emit(ctx, audit.Event{
		Action:  string(audit.EventRoomCreated),
		UserID:  caller.UserID,
		Subject: room.ID.String(),
		Attrs:   map[string]string{"located": strconv.FormatBool(room.Location != nil)},
	})
	return room, nil
}
