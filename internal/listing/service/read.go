package service

import (
	"context"

	"rentmeroom/internal/listing/models"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
)

// ListPublic pages verified rooms newest first. Contact is never included.
func (s *Service) ListPublic(ctx context.Context, page, limit int) (*models.Page[models.PublicRoom], error) {
	f := models.SearchFilter{Page: page, Limit: limit}
	f.Normalize()
	rooms, total, err := s.rooms.ListVerified(ctx, f.Offset(), f.Limit)
	if err != nil {
		return nil, wrapRoomErr(err, "list rooms")
	}
	items := make([]models.PublicRoom, 0, len(rooms))
	for _, r := range rooms {
		items = append(items, r.Public())
	}
	return &models.Page[models.PublicRoom]{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// GetPublic returns a verified room. Unverified rooms are reported as missing.
func (s *Service) GetPublic(ctx context.Context, roomID id.RoomID) (*models.PublicRoom, error) {
	r, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, wrapRoomErr(err, "load room")
	}
	if !r.IsVerified {
		return nil, dErrors.New(dErrors.CodeNotFound, "room not found")
	}
	view := r.Public()
	return &view, nil
}

// Search filters verified rooms. A radius search is nearest first, anything
// else newest first.
func (s *Service) Search(ctx context.Context, f models.SearchFilter) (*models.Page[models.PublicRoom], error) {
	f.Normalize()
	if err := validateSearch(f); err != nil {
		return nil, err
	}
	hits, total, err := s.rooms.Search(ctx, f)
	if err != nil {
		return nil, wrapRoomErr(err, "search rooms")
	}
	items := make([]models.PublicRoom, 0, len(hits))
	for _, h := range hits {
		view := h.Room.Public()
		view.DistanceM = h.DistanceM
		items = append(items, view)
	}
	return &models.Page[models.PublicRoom]{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func validateSearch(f models.SearchFilter) error {
	var fields []dErrors.FieldError
	if f.MinRent != nil && *f.MinRent < 0 {
		fields = append(fields, dErrors.FieldError{Field: "minRent", Message: "must not be negative"})
	}
	if f.MinRent != nil && f.MaxRent != nil && *f.MinRent > *f.MaxRent {
		fields = append(fields, dErrors.FieldError{Field: "maxRent", Message: "must not be below minRent"})
	}
	if f.Near != nil && !f.Near.Point.Valid() {
		fields = append(fields, dErrors.FieldError{Field: "lat", Message: "coordinates out of range"})
	}
	if len(fields) > 0 {
		return dErrors.Validation(fields...)
	}
	return nil
}
