package service

import (
	"context"
	"math"

	"rentmeroom/internal/access"
	"rentmeroom/internal/identity/models"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/email"
	"rentmeroom/pkg/platform/audit"
	"rentmeroom/pkg/requestcontext"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func (s *Service) ListUsers(ctx context.Context, page, limit int) (*models.UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	limit = min(limit, maxPageLimit)
	page = min(page, math.MaxInt32/limit+1)
	users, total, err := s.users.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return &models.UserPage{Users: users, Total: total, Page: page, Limit: limit}, nil
}

func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapUserErr(err, "load user")
	}
	return user, nil
}

// DeleteUser hard-deletes an account. Listings keep their owner id.
func (s *Service) DeleteUser(ctx context.Context, actor, userID id.UserID) error {
	if actor == userID {
		return dErrors.New(dErrors.CodeBadRequest, "admins cannot delete their own account")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return wrapUserErr(err, "delete user")
	}
	s.emit(ctx, audit.Event{Action: string(audit.EventUserDeleted), UserID: userID, ActorID: actor.String()})
	return nil
}

// UpdateRole changes a user's role. Owner is only allowed when an owner profile
// exists and ownerVerified is never touched.
func (s *Service) UpdateRole(ctx context.Context, actor, userID id.UserID, role access.Role) (*models.User, error) {
	if !role.IsValid() {
		return nil, dErrors.Validation(dErrors.FieldError{Field: "role", Message: "must be tenant, owner or admin"})
	}
	now := requestcontext.Now(ctx)
	user, err := s.users.Execute(ctx, userID, func(u *models.User) error {
		return u.ChangeRole(role, now)
	})
	if err != nil {
		return nil, wrapUserErr(err, "update role")
	}
	s.emit(ctx, audit.Event{
		Action:  string(audit.EventRoleUpdated),
		UserID:  userID,
		ActorID: actor.String(),
		Attrs:   map[string]string{"role": string(role)},
	})
	return user, nil
}

// PromoteAdmin grants the admin role by email. Used to bootstrap the first admin.
func (s *Service) PromoteAdmin(ctx context.Context, rawEmail string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email.Normalize(rawEmail))
	if err != nil {
		return nil, wrapUserErr(err, "load user")
	}
	now := requestcontext.Now(ctx)
	user, err = s.users.Execute(ctx, user.ID, func(u *models.User) error {
		return u.ChangeRole(access.RoleAdmin, now)
	})
	if err != nil {
		return nil, wrapUserErr(err, "promote admin")
	}
	s.emit(ctx, audit.Event{Action: string(audit.EventRoleUpdated), UserID: user.ID, Attrs: map[string]string{"role": "admin", "via": "cli"}})
	return user, nil
}

// PublicUsers returns public identities for ids that still exist.
func (s *Service) PublicUsers(ctx context.Context, ids []id.UserID) (map[id.UserID]models.PublicUser, error) {
	found, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load users")
	}
	out := make(map[id.UserID]models.PublicUser, len(found))
	for userID, u := range found {
		out[userID] = u.Public()
	}
	return out, nil
}
