package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	UsersRegistered   prometheus.Counter
	RegistrationCodes *prometheus.CounterVec
	Logins            *prometheus.CounterVec
	ListingsCreated   prometheus.Counter
	ListingsVerified  prometheus.Counter
	GeocodeResults    *prometheus.CounterVec
	GeocodeDuration   prometheus.Histogram
	InterestsCreated  prometheus.Counter
	InterestsContact  prometheus.Counter
	RateLimited       *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
}

// New creates and registers all metrics on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		UsersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "rentmeroom_users_registered_total",
			Help: "Accounts created after OTP confirmation",
		}),
		RegistrationCodes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentmeroom_registration_codes_total",
			Help: "Registration codes issued and checked, by outcome",
		}, []string{"outcome"}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentmeroom_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		ListingsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "rentmeroom_listings_created_total",
			Help: "Rooms created by owners",
		}),
		ListingsVerified: f.NewCounter(prometheus.CounterOpts{
			Name: "rentmeroom_listings_verified_total",
			Help: "Rooms verified by admins",
		}),
		GeocodeResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentmeroom_geocode_results_total",
			Help: "Geocoding lookups by result (hit, miss, error, skipped)",
		}, []string{"result"}),
		GeocodeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentmeroom_geocode_duration_seconds",
			Help:    "Latency of upstream geocoding calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		InterestsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "rentmeroom_interests_created_total",
			Help: "Tenant interests recorded",
		}),
		InterestsContact: f.NewCounter(prometheus.CounterOpts{
			Name: "rentmeroom_interests_contacted_total",
			Help: "Interests moved to contacted",
		}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentmeroom_rate_limited_total",
			Help: "Requests rejected by the per-IP limiter, by endpoint class",
		}, []string{"class"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rentmeroom_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest satisfies the request latency middleware.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) IncUsersRegistered() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}

func (m *Metrics) IncRegistrationCode(outcome string) {
	if m == nil {
		return
	}
	m.RegistrationCodes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncListingsCreated() {
	if m == nil {
		return
	}
	m.ListingsCreated.Inc()
}

func (m *Metrics) IncListingsVerified() {
	if m == nil {
		return
	}
	m.ListingsVerified.Inc()
}

func (m *Metrics) ObserveGeocode(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.GeocodeResults.WithLabelValues(result).Inc()
	if d > 0 {
		m.GeocodeDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) IncInterestsCreated() {
	if m == nil {
		return
	}
	m.InterestsCreated.Inc()
}

func (m *Metrics) IncInterestsContacted() {
	if m == nil {
		return
	}
	m.InterestsContact.Inc()
}

func (m *Metrics) IncRateLimited(class string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(class).Inc()
}
