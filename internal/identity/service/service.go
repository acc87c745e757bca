// Package service runs registration, login, owner promotion and account
// administration.
package service

import (
	"context"
	"log/slog"
	"time"

	"rentmeroom/internal/access"
	"rentmeroom/internal/auth/token"
	"rentmeroom/internal/blob"
	"rentmeroom/internal/identity/models"
	"rentmeroom/internal/platform/metrics"
	id "rentmeroom/pkg/domain"
	"rentmeroom/pkg/platform/audit"
	"rentmeroom/pkg/platform/tx"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []id.UserID) (map[id.UserID]*models.User, error)
	List(ctx context.Context, offset, limit int) ([]*models.User, int, error)
	Execute(ctx context.Context, userID id.UserID, fn func(*models.User) error) (*models.User, error)
	Delete(ctx context.Context, userID id.UserID) error
}

type PendingStore interface {
	Upsert(ctx context.Context, p *models.PendingRegistration) error
	Find(ctx context.Context, email string) (*models.PendingRegistration, error)
	Delete(ctx context.Context, email string) error
}

type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

type TokenIssuer interface {
	Issue(userID id.UserID, email string, role access.Role) (token.Issued, error)
}

type Revoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const defaultOTPTTL = 5 * time.Minute

type Service struct {
	users       UserStore
	pending     PendingStore
	mailer      Mailer
	tokens      TokenIssuer
	revocations Revoker
	blobs       blob.Store
	tx          tx.Runner

	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	otpTTL         time.Duration
	strictEmail    bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithTx makes confirmation create the user and drop the pending record in one
// transaction.
func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		if runner != nil {
			s.tx = runner
		}
	}
}

func WithOTPTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.otpTTL = ttl
		}
	}
}

// WithStrictEmail surfaces OTP delivery failures to the caller instead of
// only logging them.
func WithStrictEmail(strict bool) Option {
	return func(s *Service) {
		s.strictEmail = strict
	}
}

func WithRevoker(r Revoker) Option {
	return func(s *Service) {
		s.revocations = r
	}
}

func New(users UserStore, pending PendingStore, mailer Mailer, tokens TokenIssuer, blobs blob.Store, opts ...Option) *Service {
	s := &Service{
		users:   users,
		pending: pending,
		mailer:  mailer,
		tokens:  tokens,
		blobs:   blobs,
		tx:      tx.NoTx{},
		logger:  slog.Default(),
		otpTTL:  defaultOTPTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}
