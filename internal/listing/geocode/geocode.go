// Package geocode resolves postal addresses to coordinates through a
// Nominatim-compatible search API.
package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"rentmeroom/internal/listing/models"
	"rentmeroom/internal/platform/metrics"
	"rentmeroom/pkg/platform/circuit"
	"rentmeroom/pkg/platform/sentinel"
)

var tracer = otel.Tracer("rentmeroom/geocode")

const (
	resultHit     = "hit"
	resultMiss    = "miss"
	resultError   = "error"
	resultOpen    = "circuit_open"
	resultInvalid = "invalid"
)

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Nominatim calls GET {base}/search?q=...&format=json&limit=1. Concurrent
// lookups of the same query share one upstream request.
type Nominatim struct {
	client  *resty.Client
	timeout time.Duration
	group   singleflight.Group
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Nominatim)

func WithLogger(logger *slog.Logger) Option {
	return func(n *Nominatim) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Nominatim) {
		n.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(n *Nominatim) {
		if b != nil {
			n.breaker = b
		}
	}
}

// NewNominatim builds a client without retries. timeout bounds each lookup.
func NewNominatim(baseURL, userAgent string, timeout time.Duration, opts ...Option) *Nominatim {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	n := &Nominatim{
		client:  client,
		timeout: timeout,
		breaker: circuit.New("geocoder", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Geocode returns nil, nil when the query has no match.
func (n *Nominatim) Geocode(ctx context.Context, query string) (*models.GeoPoint, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if !n.breaker.Allow() {
		n.metrics.ObserveGeocode(resultOpen, 0)
		return nil, fmt.Errorf("geocoder circuit open: %w", sentinel.ErrUnavailable)
	}

	ch := n.group.DoChan(query, func() (any, error) {
		// Detached from the first caller so its cancellation does not fail the
		// callers sharing this lookup.
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()
		return n.lookup(lookupCtx, query)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		point, _ := res.Val.(*models.GeoPoint)
		return point, nil
	}
}

func (n *Nominatim) lookup(ctx context.Context, query string) (*models.GeoPoint, error) {
	ctx, span := tracer.Start(ctx, "geocode.nominatim")
	defer span.End()
	span.SetAttributes(attribute.Int("geocode.query_length", len(query)))

	start := time.Now()
	var places []place
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"q": query, "format": "json", "limit": "1"}).
		SetResult(&places).
		Get("/search")
	elapsed := time.Since(start)

	if err == nil && resp.StatusCode() != http.StatusOK {
		err = fmt.Errorf("geocoder returned status %d", resp.StatusCode())
	}
	if err != nil {
		n.recordFailure(ctx)
		n.metrics.ObserveGeocode(resultError, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, fmt.Errorf("geocode lookup: %w", err)
	}
	n.breaker.RecordSuccess()

	if len(places) == 0 {
		n.metrics.ObserveGeocode(resultMiss, elapsed)
		return nil, nil
	}
	point, ok := parsePlace(places[0])
	if !ok {
		n.metrics.ObserveGeocode(resultInvalid, elapsed)
		return nil, nil
	}
	n.metrics.ObserveGeocode(resultHit, elapsed)
	span.SetAttributes(attribute.Bool("geocode.hit", true))
	return point, nil
}

func (n *Nominatim) recordFailure(ctx context.Context) {
	if _, change := n.breaker.RecordFailure(); change.Opened {
		n.logger.WarnContext(ctx, "geocoder circuit opened", "breaker", n.breaker.Name())
	}
}

func parsePlace(p place) (*models.GeoPoint, bool) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, false
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, false
	}
	point := models.GeoPoint{Lon: lon, Lat: lat}
	if !point.Valid() {
		return nil, false
	}
	return &point, true
}

// Disabled never resolves anything. Used when geocoding is switched off.
type Disabled struct{}

func (Disabled) Geocode(context.Context, string) (*models.GeoPoint, error) {
	return nil, nil
}
