package service

import (
	"context"
	"errors"
	"strings"

	"rentmeroom/internal/blob"
	"rentmeroom/internal/identity/models"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/audit"
	"rentmeroom/pkg/platform/sentinel"
	"rentmeroom/pkg/requestcontext"
)

// PromoteToOwner records the owner profile and switches the role to an
// unverified owner. Images are uploaded before the record changes and removed
// again if the change is rejected.
func (s *Service) PromoteToOwner(ctx context.Context, userID id.UserID, app models.OwnerApplication) (*models.User, error) {
	current, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapUserErr(err, "load user")
	}
	if err := current.CanRequestOwner(); err != nil {
		return nil, err
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}

	uploads := []blob.Upload{*app.GovIDImage}
	if app.ProfileImage != nil {
		uploads = append(uploads, *app.ProfileImage)
	}
	images, err := blob.PutAll(ctx, s.blobs, uploads)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "failed to store identity images")
	}
	profile := models.OwnerProfile{
		Phone:       strings.TrimSpace(app.Phone),
		Address:     strings.TrimSpace(app.Address),
		GovIDType:   strings.TrimSpace(app.GovIDType),
		GovIDNumber: strings.TrimSpace(app.GovIDNumber),
		GovIDImage:  images[0],
		Bio:         app.Bio,
		Facebook:    app.Facebook,
		WhatsApp:    app.WhatsApp,
	}
	if len(images) > 1 {
		profile.ProfileImage = &images[1]
	}

	now := requestcontext.Now(ctx)
	user, err := s.users.Execute(ctx, userID, func(u *models.User) error {
		return u.ApplyOwnerRequest(profile, now)
	})
	if err != nil {
		blob.DeleteAll(ctx, s.blobs, s.logger, images)
		return nil, wrapUserErr(err, "promote user")
	}
	s.emit(ctx, audit.Event{Action: string(audit.EventOwnerRequested), UserID: userID})
	return user, nil
}

// AdminVerifyOwner flips ownerVerified to true. Verifying twice succeeds.
func (s *Service) AdminVerifyOwner(ctx context.Context, actor, userID id.UserID) (*models.User, error) {
	now := requestcontext.Now(ctx)
	user, err := s.users.Execute(ctx, userID, func(u *models.User) error {
		return u.VerifyOwner(now)
	})
	if err != nil {
		return nil, wrapUserErr(err, "verify owner")
	}
	s.emit(ctx, audit.Event{Action: string(audit.EventOwnerVerified), UserID: userID, ActorID: actor.String()})
	return user, nil
}

// AdjustPropertyCount moves an owner's listing counter. Unknown users are ignored
// because listings keep only an advisory owner reference.
func (s *Service) AdjustPropertyCount(ctx context.Context, ownerID id.UserID, delta int) error {
	_, err := s.users.Execute(ctx, ownerID, func(u *models.User) error {
		u.AdjustPropertyCount(delta)
		return nil
	})
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return wrapUserErr(err, "adjust property count")
	}
	return nil
}
