// Package service runs the interest ledger: tenants register interest in
// verified rooms and owners work through a first-come queue per room.
package service

import (
	"context"
	"errors"
	"log/slog"

	identity "rentmeroom/internal/identity/models"
	"rentmeroom/internal/interest/models"
	listing "rentmeroom/internal/listing/models"
	"rentmeroom/internal/platform/metrics"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/audit"
	"rentmeroom/pkg/platform/sentinel"
)

type InterestStore interface {
	Create(ctx context.Context, i *models.Interest) error
	FindByID(ctx context.Context, interestID id.InterestID) (*models.Interest, error)
	Execute(ctx context.Context, interestID id.InterestID, fn func(*models.Interest) error) (*models.Interest, error)
	Delete(ctx context.Context, interestID id.InterestID) error
	ListByTenant(ctx context.Context, tenantID id.UserID) ([]*models.Interest, error)
	ListByRooms(ctx context.Context, roomIDs []id.RoomID) ([]*models.Interest, error)
}

// Rooms is the read side of the room store.
type Rooms interface {
	FindByID(ctx context.Context, roomID id.RoomID) (*listing.Room, error)
	FindByIDs(ctx context.Context, ids []id.RoomID) (map[id.RoomID]*listing.Room, error)
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*listing.Room, error)
}

// Users resolves tenant identities. Missing ids are absent from the result.
type Users interface {
	PublicUsers(ctx context.Context, ids []id.UserID) (map[id.UserID]identity.PublicUser, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	interests InterestStore
	rooms     Rooms
	users     Users

	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
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

func New(interests InterestStore, rooms Rooms, users Users, opts ...Option) *Service {
	s := &Service{
		interests: interests,
		rooms:     rooms,
		users:     users,
		logger:    slog.Default(),
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

func wrapInterestErr(err error, action string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "interest not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "you have already marked interest in this room")
	case errors.As(err, &de):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
	}
}
