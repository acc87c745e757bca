package service

import (
	"context"

	"rentmeroom/internal/access"
	"rentmeroom/internal/blob"
	"rentmeroom/internal/listing/models"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/audit"
	"rentmeroom/pkg/requestcontext"
)

// UpdateListing applies a partial update from the room's owner.
//
// Location: new valid coordinates win; an address change without them
// re-geocodes, and a failed geocode unsets the location; otherwise the
// location is untouched.
//
// Images: KeepImages retains the named images in the given order and appends
// the uploads; uploads alone replace every image; neither keeps them all.
// Images no longer referenced are removed from blob storage best-effort.
func (s *Service) UpdateListing(ctx context.Context, caller access.Identity, roomID id.RoomID, patch models.Patch) (*models.Room, error) {
	if err := access.Authorize(caller, access.RoleOwner, true); err != nil {
		return nil, err
	}
	current, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, wrapRoomErr(err, "load room")
	}
	if current.OwnerID != caller.UserID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the owner can update this room")
	}

	// Validate on a scratch copy so nothing is uploaded for a rejected patch.
	preview := *current
	if err := patch.Apply(&preview); err != nil {
		return nil, err
	}
	placeholders := make([]blob.Image, len(patch.Uploads))
	if final, _ := patch.MergeImages(current.Images, placeholders); len(final) > models.MaxImages {
		return nil, dErrors.Validation(dErrors.FieldError{Field: "images", Message: "a room can hold at most 5 images"})
	}

	newLocation, setLocation := s.patchLocation(ctx, patch, &preview)

	uploaded, err := blob.PutAll(ctx, s.blobs, patch.Uploads)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "failed to store room images")
	}

	var dropped []blob.Image
	updated, err := s.rooms.Execute(ctx, roomID, func(r *models.Room) error {
		if r.OwnerID != caller.UserID {
			return dErrors.New(dErrors.CodeForbidden, "only the owner can update this room")
		}
		if err := patch.Apply(r); err != nil {
			return err
		}
		if setLocation {
			r.Location = newLocation
		}
		var final []blob.Image
		final, dropped = patch.MergeImages(r.Images, uploaded)
		if len(final) > models.MaxImages {
			return dErrors.Validation(dErrors.FieldError{Field: "images", Message: "a room can hold at most 5 images"})
		}
		r.Images = final
		r.UpdatedAt = requestcontext.Now(ctx)
		return nil
	})
	if err != nil {
		blob.DeleteAll(ctx, s.blobs, s.logger, uploaded)
		return nil, wrapRoomErr(err, "update room")
	}
	blob.DeleteAll(ctx, s.blobs, s.logger, dropped)

	s.emit(ctx, audit.Event{
		Action:  string(audit.EventRoomUpdated),
		UserID:  caller.UserID,
		Subject: roomID.String(),
	})
	return updated, nil
}

// patchLocation decides the new location outside of any store lock. set is
// false when the location must stay as it is.
func (s *Service) patchLocation(ctx context.Context, patch models.Patch, patched *models.Room) (loc *models.GeoPoint, set bool) {
	if patch.Location != nil && patch.Location.Valid() {
		p := *patch.Location
		return &p, true
	}
	if patch.AddressChanged() {
		return s.locate(ctx, patched.GeocodeQuery()), true
	}
	return nil, false
}

// DeleteListing removes a room. Owners may delete their own rooms, admins any.
func (s *Service) DeleteListing(ctx context.Context, caller access.Identity, roomID id.RoomID) error {
	if err := access.AuthorizeAny(caller,
		access.Rule{Role: access.RoleOwner, RequireVerified: true},
		access.Rule{Role: access.RoleAdmin},
	); err != nil {
		return err
	}
	r, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return wrapRoomErr(err, "load room")
	}
	if !caller.IsAdmin() && r.OwnerID != caller.UserID {
		return dErrors.New(dErrors.CodeForbidden, "only the owner can delete this room")
	}
	if err := s.rooms.Delete(ctx, roomID); err != nil {
		return wrapRoomErr(err, "delete room")
	}
	blob.DeleteAll(ctx, s.blobs, s.logger, r.Images)
	s.adjustCount(ctx, r.OwnerID, -1)

	s.emit(ctx, audit.Event{
		Action:  string(audit.EventRoomDeleted),
		UserID:  r.OwnerID,
		ActorID: caller.UserID.String(),
		Subject: roomID.String(),
	})
	return nil
}
