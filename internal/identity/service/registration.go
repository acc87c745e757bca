package service

import (
	"context"
	"errors"
	"time"

	"rentmeroom/internal/access"
	"rentmeroom/internal/auth/device"
	"rentmeroom/internal/auth/revocation"
	"rentmeroom/internal/identity/models"
	"rentmeroom/internal/identity/otp"
	"rentmeroom/internal/identity/secrets"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/email"
	"rentmeroom/pkg/platform/audit"
	"rentmeroom/pkg/platform/sentinel"
	"rentmeroom/pkg/requestcontext"
)

// Register starts a signup. A repeat signup for the same email replaces the
// previous code and expiry, and the response does not reveal which happened.
func (s *Service) Register(ctx context.Context, name, rawEmail, password string) error {
	addr := email.Normalize(rawEmail)
	if _, err := s.users.FindByEmail(ctx, addr); err == nil {
		return dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing account")
	}

	code, err := otp.Generate()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}
	pending := &models.PendingRegistration{
		Email:     addr,
		Name:      name,
		Password:  password,
		Code:      code,
		ExpiresAt: requestcontext.Now(ctx).Add(s.otpTTL),
	}
	if err := s.pending.Upsert(ctx, pending); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store registration")
	}
	s.metrics.IncRegistrationCode("issued")
	s.emit(ctx, audit.Event{Action: string(audit.EventRegistrationStarted), Email: email.Mask(addr)})

	if err := s.mailer.SendOTP(ctx, addr, code); err != nil {
		s.logger.ErrorContext(ctx, "failed to send registration code",
			"request_id", requestcontext.RequestID(ctx),
			"email", email.Mask(addr),
			"error", err,
		)
		if s.strictEmail {
			return dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "could not deliver verification code")
		}
	}
	return nil
}

// ConfirmRegistration turns a pending signup into a tenant account and opens a session.
func (s *Service) ConfirmRegistration(ctx context.Context, rawEmail, code string) (*models.Session, error) {
	addr := email.Normalize(rawEmail)
	pending, err := s.pending.Find(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncRegistrationCode("missing")
			return nil, dErrors.New(dErrors.CodeNotFound, "no pending registration, please sign up again")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	if !otp.Equal(pending.Code, code) {
		s.metrics.IncRegistrationCode("invalid")
		return nil, dErrors.New(dErrors.CodeInvalidCode, "invalid verification code")
	}
	now := requestcontext.Now(ctx)
	if pending.Expired(now) {
		s.metrics.IncRegistrationCode("expired")
		if err := s.pending.Delete(ctx, addr); err != nil {
			s.logger.WarnContext(ctx, "failed to drop expired registration", "error", err)
		}
		return nil, dErrors.New(dErrors.CodeExpired, "verification code expired, please sign up again")
	}

	hash, err := secrets.Hash(pending.Password)
	if err != nil {
		return nil, wrapUserErr(err, "hash password")
	}
	user, err := models.NewUser(id.NewUserID(), pending.Name, pending.Email, hash, now)
	if err != nil {
		return nil, wrapUserErr(err, "create user")
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return wrapUserErr(err, "create user")
		}
		if err := s.pending.Delete(ctx, addr); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear registration")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRegistrationCode("confirmed")
	s.metrics.IncUsersRegistered()
	s.emit(ctx, audit.Event{Action: string(audit.EventUserCreated), UserID: user.ID, Email: email.Mask(user.Email)})
	return s.openSession(ctx, user)
}

// Login verifies credentials. Unknown emails are reported as not found.
func (s *Service) Login(ctx context.Context, rawEmail, password string) (*models.Session, error) {
	addr := email.Normalize(rawEmail)
	user, err := s.users.FindByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncLogin("unknown_user")
			s.emit(ctx, audit.Event{Action: string(audit.EventAuthFailed), Email: email.Mask(addr), Reason: "unknown_user"})
			return nil, dErrors.New(dErrors.CodeNotFound, "user does not exist")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if err := secrets.Verify(password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidCredential) {
			s.metrics.IncLogin("invalid_password")
			s.emit(ctx, audit.Event{Action: string(audit.EventAuthFailed), UserID: user.ID, Reason: "invalid_password"})
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}
	s.metrics.IncLogin("success")
	s.emit(ctx, audit.Event{
		Action: string(audit.EventLoginSucceeded),
		UserID: user.ID,
		Attrs: map[string]string{
			"device":             device.ParseUserAgent(requestcontext.UserAgent(ctx)),
			"device_fingerprint": device.Fingerprint(requestcontext.UserAgent(ctx)),
			"client_ip":          requestcontext.ClientIP(ctx),
		},
	})
	return s.openSession(ctx, user)
}

func (s *Service) openSession(ctx context.Context, user *models.User) (*models.Session, error) {
	issued, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session")
	}
	s.logger.InfoContext(ctx, "session opened",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", user.ID.String(),
	)
	return &models.Session{Token: issued.Token, ExpiresAt: issued.ExpiresAt, User: user.Public()}, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, userID id.UserID, jti string, expiresAt time.Time) error {
	if s.revocations == nil || jti == "" {
		return nil
	}
	ttl := revocation.TTLUntil(requestcontext.Now(ctx), expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.revocations.RevokeToken(ctx, jti, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}
	s.emit(ctx, audit.Event{Action: string(audit.EventLoggedOut), UserID: userID})
	return nil
}

// Me returns the caller's own record.
func (s *Service) Me(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapUserErr(err, "load user")
	}
	return user, nil
}

// ResolveIdentity reads the live role and owner verification for a token subject.
func (s *Service) ResolveIdentity(ctx context.Context, userID id.UserID) (access.Identity, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return access.Identity{}, wrapUserErr(err, "resolve identity")
	}
	return user.Identity(), nil
}
