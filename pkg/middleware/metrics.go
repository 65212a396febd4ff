package middleware

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	lzerrors "github.com/vango-dev/lazyload/internal/errors"
	"github.com/vango-dev/lazyload/pkg/lazyload"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "lazyload").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for update duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "lazyload",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

type metrics struct {
	updatesTotal   *prometheus.CounterVec
	activations    *prometheus.CounterVec
	updateErrors   *prometheus.CounterVec
	updateDuration *prometheus.HistogramVec
	patchesSent    prometheus.Counter
	activeSessions prometheus.Gauge
	wsErrors       *prometheus.CounterVec
}

// globalMetrics is created by the first call to Prometheus. Every engine in
// the process shares it, so per-session engines do not register twice.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		updatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "updates_total",
			Help:        "Total number of dispatched lazy updates by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"tag", "outcome"}),

		activations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "activations_total",
			Help:        "Total number of activated elements",
			ConstLabels: config.ConstLabels,
		}, []string{"tag"}),

		updateErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "update_errors_total",
			Help:        "Total number of failed lazy updates by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"tag", "code"}),

		updateDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "update_duration_seconds",
			Help:        "Lazy update dispatch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"tag"}),

		patchesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_sent_total",
			Help:        "Total number of attribute patches sent to clients",
			ConstLabels: config.ConstLabels,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of active WebSocket sessions",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Prometheus creates middleware that collects metrics for lazy updates.
//
// Metrics collected:
//   - lazyload_updates_total: Counter of updates by tag and outcome
//   - lazyload_activations_total: Counter of activations by tag
//   - lazyload_update_errors_total: Counter of failed updates by tag and error code
//   - lazyload_update_duration_seconds: Histogram of dispatch duration
//   - lazyload_patches_sent_total: Counter of patches (when RecordPatches is called)
//   - lazyload_active_sessions: Gauge of sessions (when session hooks are used)
//   - lazyload_websocket_errors_total: Counter of WebSocket errors
//
// Example:
//
//	engine := lazyload.New(doc,
//	    lazyload.WithMiddleware(middleware.Prometheus()),
//	)
//
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) lazyload.Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return func(next lazyload.UpdateFunc) lazyload.UpdateFunc {
		return func(ctx context.Context, b *lazyload.Binding) (lazyload.Outcome, error) {
			tag := tagOf(b)

			start := time.Now()
			outcome, err := next(ctx, b)
			m.updateDuration.WithLabelValues(tag).Observe(time.Since(start).Seconds())

			m.updatesTotal.WithLabelValues(tag, outcome.String()).Inc()
			if outcome == lazyload.OutcomeActivated {
				m.activations.WithLabelValues(tag).Inc()
			}
			if err != nil {
				m.updateErrors.WithLabelValues(tag, errorCode(err)).Inc()
			}
			return outcome, err
		}
	}
}

// errorCode keeps the error label low-cardinality: the structured code when
// there is one, "internal" otherwise.
func errorCode(err error) string {
	var le *lzerrors.LazyError
	if errors.As(err, &le) && le.Code != "" {
		return le.Code
	}
	return "internal"
}

func tagOf(b *lazyload.Binding) string {
	return strings.ToLower(b.Element().TagName())
}

// RecordPatches records attribute patches sent to a client.
func RecordPatches(count int) {
	if m := current(); m != nil {
		m.patchesSent.Add(float64(count))
	}
}

// RecordSessionCreate records a new session.
func RecordSessionCreate() {
	if m := current(); m != nil {
		m.activeSessions.Inc()
	}
}

// RecordSessionDestroy records a closed session.
func RecordSessionDestroy() {
	if m := current(); m != nil {
		m.activeSessions.Dec()
	}
}

// RecordWebSocketError records a WebSocket error.
func RecordWebSocketError(errorType string) {
	if m := current(); m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}

func current() *metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}
