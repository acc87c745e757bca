package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"rentmeroom/internal/auth/revocation"
	"rentmeroom/internal/auth/token"
	"rentmeroom/internal/blob"
	httpapi "rentmeroom/internal/http"
	identityhandler "rentmeroom/internal/identity/handler"
	identityservice "rentmeroom/internal/identity/service"
	"rentmeroom/internal/identity/store/pending"
	"rentmeroom/internal/identity/store/user"
	interesthandler "rentmeroom/internal/interest/handler"
	interestservice "rentmeroom/internal/interest/service"
	istore "rentmeroom/internal/interest/store/interest"
	"rentmeroom/internal/listing/geocode"
	listinghandler "rentmeroom/internal/listing/handler"
	listingservice "rentmeroom/internal/listing/service"
	"rentmeroom/internal/listing/store/room"
	"rentmeroom/internal/platform/config"
	"rentmeroom/internal/platform/email"
	"rentmeroom/internal/platform/kafka"
	"rentmeroom/internal/platform/metrics"
	authmw "rentmeroom/internal/platform/middleware"
	"rentmeroom/internal/platform/postgres"
	"rentmeroom/internal/platform/redis"
	ratelimitmw "rentmeroom/internal/ratelimit/middleware"
	ratelimit "rentmeroom/internal/ratelimit/models"
	"rentmeroom/internal/ratelimit/store/bucket"
	"rentmeroom/pkg/platform/audit"
	"rentmeroom/pkg/platform/audit/publisher"
	auditmemory "rentmeroom/pkg/platform/audit/store/memory"
)

// app holds the wired services and everything that must be released on
// shutdown.
type app struct {
	identity  *identityservice.Service
	listings  *listingservice.Service
	interests *interestservice.Service
	router    http.Handler

	closers []func() error
}

func (a *app) close(logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("shutdown: release failed", "error", err)
		}
	}
}

// backends are the optional external connections. A nil field means the
// in-process fallback is used.
type backends struct {
	db    *sql.DB
	redis *redis.Client
	kafka *kafka.Producer
}

func connect(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, []func() error, error) {
	var (
		b       backends
		closers []func() error
	)
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, closers, err
		}
		b.db = db
		closers = append(closers, db.Close)
		logger.Info("postgres connected")
	}
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, closers, err
	}
	if rc != nil {
		b.redis = rc
		closers = append(closers, rc.Close)
		logger.Info("redis connected")
	}
	producer, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		return nil, closers, err
	}
	if producer != nil {
		b.kafka = producer
		closers = append(closers, func() error { producer.Close(); return nil })
		logger.Info("kafka producer ready", "topic", cfg.Kafka.Topic)
	}
	return &b, closers, nil
}

func build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	b, closers, err := connect(ctx, cfg, logger)
	a := &app{closers: closers}
	if err != nil {
		a.close(logger)
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	var auditStore audit.Store = auditmemory.NewLogStore(logger)
	if b.kafka != nil {
		auditStore = b.kafka
	}
	events := publisher.NewPublisher(auditStore, publisher.WithAsyncBuffer(256), publisher.WithLogger(logger))
	// Registered before the backends so the buffer drains while they are open.
	a.closers = append(a.closers, events.Close)

	blobs, uploads, err := blobStore(cfg.Blob)
	if err != nil {
		a.close(logger)
		return nil, err
	}

	var mailer identityservice.Mailer = email.NewLog(logger)
	if cfg.Mail.APIKey != "" && cfg.Mail.SecretKey != "" {
		mailer = email.NewMailjet(cfg.Mail)
	}

	var geocoder listingservice.Geocoder = geocode.Disabled{}
	if !cfg.Geocoder.Disabled {
		geocoder = geocode.NewNominatim(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, cfg.Geocoder.Timeout,
			geocode.WithLogger(logger),
			geocode.WithMetrics(m),
		)
	}

	tokens := token.New(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)

	var (
		users       identityservice.UserStore
		pendingRegs identityservice.PendingStore
		revoked     revocationList
		rooms       roomBackend
		interests   interestservice.InterestStore
		identityOps []identityservice.Option
	)
	if b.db != nil {
		users = user.NewPostgres(b.db)
		pendingRegs = pending.NewPostgres(b.db)
		revoked = revocation.NewPostgresList(b.db, nil)
		rooms = room.NewPostgres(b.db)
		interests = istore.NewPostgres(b.db)
		identityOps = append(identityOps, identityservice.WithTx(postgres.NewTransactor(b.db)))
	} else {
		users = user.NewInMemory()
		pendingRegs = pending.NewInMemory()
		revoked = revocation.NewInMemoryList(nil)
		rooms = room.NewInMemory()
		interests = istore.NewInMemory()
	}
	if b.redis != nil {
		pendingRegs = pending.NewRedis(b.redis.Client)
		revoked = revocation.NewRedisList(b.redis.Client)
	}

	a.identity = identityservice.New(users, pendingRegs, mailer, tokens, blobs, append(identityOps,
		identityservice.WithLogger(logger),
		identityservice.WithMetrics(m),
		identityservice.WithAuditPublisher(events),
		identityservice.WithOTPTTL(cfg.Auth.OTPTTL),
		identityservice.WithStrictEmail(cfg.Auth.OTPEmailStrict),
		identityservice.WithRevoker(revoked),
	)...)
	a.listings = listingservice.New(rooms, geocoder, blobs, a.identity,
		listingservice.WithLogger(logger),
		listingservice.WithMetrics(m),
		listingservice.WithAuditPublisher(events),
	)
	a.interests = interestservice.New(interests, rooms, a.identity,
		interestservice.WithLogger(logger),
		interestservice.WithMetrics(m),
		interestservice.WithAuditPublisher(events),
	)

	authenticate := authmw.RequireAuth(token.NewMiddlewareAdapter(tokens), revoked, a.identity, logger)
	limiter := rateLimiter(cfg.Limits, b, m, logger)

	health := map[string]httpapi.HealthCheck{}
	if b.db != nil {
		health["postgres"] = b.db.PingContext
	}
	if b.redis != nil {
		health["redis"] = b.redis.Health
	}

	routerCfg := httpapi.Config{
		Logger:  logger,
		Metrics: m,
		Health:  health,
		Handlers: []httpapi.Registrar{
			identityhandler.New(a.identity, logger, authenticate, cfg.Server.MaxUploadBytes,
				identityhandler.WithAuthRateLimit(limiter.RateLimit(ratelimit.ClassAuth)),
			),
			listinghandler.New(a.listings, logger, authenticate, cfg.Server.MaxUploadBytes),
			interesthandler.New(a.interests, logger, authenticate,
				interesthandler.WithWriteRateLimit(limiter.RateLimit(ratelimit.ClassWrite)),
			),
		},
	}
	if uploads != nil {
		routerCfg.UploadsPrefix = cfg.Blob.PublicBaseURL
		routerCfg.Uploads = uploads
	}
	a.router = httpapi.NewRouter(routerCfg)
	return a, nil
}

// rateLimiter shares budgets through Redis when it is configured.
func rateLimiter(cfg config.RateLimitConfig, b *backends, m *metrics.Metrics, logger *slog.Logger) *ratelimitmw.Middleware {
	var store ratelimitmw.BucketStore = bucket.NewInMemoryBucketStore(nil)
	if b.redis != nil {
		store = bucket.NewRedisBucketStore(b.redis.Client, nil)
	}
	limits := map[ratelimit.EndpointClass]ratelimit.Limit{
		ratelimit.ClassAuth:  {Requests: cfg.AuthPerMinute, Window: time.Minute},
		ratelimit.ClassWrite: {Requests: cfg.WritePerMinute, Window: time.Minute},
	}
	opts := []ratelimitmw.Option{ratelimitmw.WithDisabled(cfg.Disabled)}
	if m != nil {
		opts = append(opts, ratelimitmw.WithObserver(m))
	}
	return ratelimitmw.New(store, limits, logger, opts...)
}

// revocationList is both halves of token revocation.
type revocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// roomBackend is the room store seen by both listings and interests.
type roomBackend interface {
	listingservice.RoomStore
	interestservice.Rooms
}

// blobStore picks Cloudinary when configured. The local disk store also
// returns a file server for its directory.
func blobStore(cfg config.BlobConfig) (blob.Store, http.Handler, error) {
	if cfg.CloudinaryURL != "" {
		c, err := blob.NewCloudinary(cfg.CloudinaryURL, cfg.Folder)
		if err != nil {
			return nil, nil, fmt.Errorf("cloudinary: %w", err)
		}
		return c, nil, nil
	}
	d, err := blob.NewDisk(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("upload dir: %w", err)
	}
	return d, http.FileServer(http.Dir(d.Dir())), nil
}

func openDatabase(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	return postgres.Open(ctx, cfg.Database)
}
