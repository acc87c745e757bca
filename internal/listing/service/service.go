// Package service runs the listing lifecycle: creation with geocoding
// fallback, public reads and search, owner edits, and admin moderation.
package service

import (
	"context"
	"errors"
	"log/slog"

	"rentmeroom/internal/blob"
	identity "rentmeroom/internal/identity/models"
	"rentmeroom/internal/listing/models"
	"rentmeroom/internal/platform/metrics"
	id "rentmeroom/pkg/domain"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/audit"
	"rentmeroom/pkg/platform/sentinel"
)

type RoomStore interface {
	Create(ctx context.Context, r *models.Room) error
	FindByID(ctx context.Context, roomID id.RoomID) (*models.Room, error)
	Execute(ctx context.Context, roomID id.RoomID, fn func(*models.Room) error) (*models.Room, error)
	Delete(ctx context.Context, roomID id.RoomID) error
	ListVerified(ctx context.Context, offset, limit int) ([]*models.Room, int, error)
	ListAdmin(ctx context.Context, f models.AdminFilter) ([]*models.Room, int, error)
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Room, error)
	Search(ctx context.Context, f models.SearchFilter) ([]models.SearchHit, int, error)
}

// Geocoder returns nil, nil when the query has no match.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*models.GeoPoint, error)
}

// Owners is the identity surface listings need.
type Owners interface {
	PublicUsers(ctx context.Context, ids []id.UserID) (map[id.UserID]identity.PublicUser, error)
	AdjustPropertyCount(ctx context.Context, ownerID id.UserID, delta int) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	rooms    RoomStore
	geocoder Geocoder
	blobs    blob.Store
	owners   Owners

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

func New(rooms RoomStore, geocoder Geocoder, blobs blob.Store, owners Owners, opts ...Option) *Service {
	s := &Service{
		rooms:    rooms,
		geocoder: geocoder,
		blobs:    blobs,
		owners:   owners,
		logger:   slog.Default(),
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

// locate geocodes query. Failures and misses leave the location unset and
// never fail the write.
func (s *Service) locate(ctx context.Context, query string) *models.GeoPoint {
	if query == "" {
		return nil
	}
	point, err := s.geocoder.Geocode(ctx, query)
	if err != nil {
		s.logger.WarnContext(ctx, "geocoding failed, location left unset", "error", err)
		return nil
	}
	if point == nil || !point.Valid() {
		return nil
	}
	return point
}

func (s *Service) adjustCount(ctx context.Context, ownerID id.UserID, delta int) {
	if err := s.owners.AdjustPropertyCount(ctx, ownerID, delta); err != nil {
		s.logger.WarnContext(ctx, "failed to adjust property count",
			"owner_id", ownerID.String(),
			"delta", delta,
			"error", err,
		)
	}
}

func wrapRoomErr(err error, action string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "room not found")
	case errors.As(err, &de):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
	}
}
