package observability

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oboisot/BSARGeom/core"
)

// EngineCollector bundles Prometheus metrics for the geometry engine
// and the HTTP API, with helpers to wire them into handlers.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	Snapshots         *prometheus.CounterVec
	SnapshotDurations prometheus.Histogram

	DegenerateResolutions *prometheus.CounterVec
	NoLineOfSight         prometheus.Counter

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// NewEngineCollector registers the engine metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	snapshots := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bsar_snapshots_total",
		Help: "Total geometry snapshot computations, labeled by outcome.",
	}, []string{"outcome"})
	snapshots, err := registerCounterVec(reg, snapshots, "bsar_snapshots_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bsar_snapshot_duration_seconds",
		Help:    "Geometry snapshot computation latency in seconds.",
		Buckets: []float64{1e-6, 1e-5, 1e-4, 1e-3, 0.01, 0.1, 1},
	}), "bsar_snapshot_duration_seconds")
	if err != nil {
		return nil, err
	}

	degenerate := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bsar_degenerate_resolutions_total",
		Help: "Snapshots whose resolution cell was degenerate, labeled by axis.",
	}, []string{"axis"})
	degenerate, err = registerCounterVec(reg, degenerate, "bsar_degenerate_resolutions_total")
	if err != nil {
		return nil, err
	}

	noLoS, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bsar_no_line_of_sight_total",
		Help: "Snapshots whose target was occluded by the ground plane.",
	}), "bsar_no_line_of_sight_total")
	if err != nil {
		return nil, err
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bsar_http_requests_total",
		Help: "Total handled HTTP requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "code"})
	requests, err = registerCounterVec(reg, requests, "bsar_http_requests_total")
	if err != nil {
		return nil, err
	}

	httpDurations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bsar_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"route", "method"})
	httpDurations, err = registerHistogramVec(reg, httpDurations, "bsar_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:              gatherer,
		Snapshots:             snapshots,
		SnapshotDurations:     durations,
		DegenerateResolutions: degenerate,
		NoLineOfSight:         noLoS,
		HTTPRequests:          requests,
		HTTPDurations:         httpDurations,
	}, nil
}

// ObservePublish records one snapshot computation: its duration, its
// outcome, and the degeneracy flags carried by a successful snapshot.
func (c *EngineCollector) ObservePublish(snap *core.GeometrySnapshot, err error, elapsed time.Duration) {
	if c == nil {
		return
	}

	if c.SnapshotDurations != nil {
		c.SnapshotDurations.Observe(elapsed.Seconds())
	}
	if c.Snapshots != nil {
		c.Snapshots.WithLabelValues(publishOutcome(err)).Inc()
	}
	if err != nil || snap == nil {
		return
	}

	if snap.Geometry.NoLineOfSight && c.NoLineOfSight != nil {
		c.NoLineOfSight.Inc()
	}
	if c.DegenerateResolutions != nil {
		if snap.Resolution.SlantRange.Degenerate {
			c.DegenerateResolutions.WithLabelValues("range").Inc()
		}
		if snap.Resolution.CrossRange.Degenerate {
			c.DegenerateResolutions.WithLabelValues("cross_range").Inc()
		}
	}
}

func publishOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrInvalidCoordinate):
		return "invalid_coordinate"
	case errors.Is(err, core.ErrDegenerateGeometry):
		return "degenerate_geometry"
	default:
		return "error"
	}
}

// Middleware records request counts and durations for HTTP handlers.
// route should be the pattern, not the raw URL, to keep cardinality
// bounded.
func (c *EngineCollector) Middleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(route, r.Method, fmt.Sprintf("%d", sw.code)).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *EngineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
