// Package httpapi assembles the public HTTP surface: shared middleware, the
// per-domain handlers, health, metrics and local upload serving.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"rentmeroom/internal/platform/metrics"
	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/platform/httputil"
	"rentmeroom/pkg/platform/middleware/metadata"
	"rentmeroom/pkg/platform/middleware/request"
	"rentmeroom/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

// Registrar mounts a domain's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Config struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	Handlers []Registrar
	Health   map[string]HealthCheck

	// UploadsPrefix and Uploads serve images written by the local disk store.
	UploadsPrefix string
	Uploads       http.Handler
}

func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(logger))
	r.Use(request.Logger(logger))
	if cfg.Metrics != nil {
		r.Use(request.Latency(cfg.Metrics, routePattern))
	}
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed"})
	})

	r.Get("/health", healthHandler(cfg.Health))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	if cfg.Uploads != nil && cfg.UploadsPrefix != "" {
		prefix := "/" + strings.Trim(cfg.UploadsPrefix, "/")
		r.Method(http.MethodGet, prefix+"/*", http.StripPrefix(prefix, cfg.Uploads))
	}

	for _, h := range cfg.Handlers {
		h.Register(r)
	}
	return r
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type healthResponse struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

// healthHandler runs every check concurrently and answers 503 naming the
// checks that failed.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			failed []string
		)
		g, gctx := errgroup.WithContext(ctx)
		for name, check := range checks {
			g.Go(func() error {
				if err := check(gctx); err != nil {
					mu.Lock()
					failed = append(failed, name)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()

		if len(failed) > 0 {
			sort.Strings(failed)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Failed: failed})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
