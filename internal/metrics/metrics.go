// Package metrics exposes ranking, rate refresh and HTTP metrics for
// Prometheus on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ppiankov/wayfare/internal/currency"
	"github.com/ppiankov/wayfare/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric
const Namespace = "wayfare"

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// Ranking metrics
	Candidates *prometheus.CounterVec
	Excluded   *prometheus.CounterVec
	Returned   *prometheus.CounterVec
	RankTime   *prometheus.HistogramVec

	// Rate metrics
	Refreshes *prometheus.CounterVec
	RatePairs prometheus.Gauge

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// unix nanos of the last accepted snapshot; 0 until the first refresh
	snapshotAt atomic.Int64
	now        func() time.Time
}

// NewCollector creates a collector on its own registry, so several
// collectors (one per test) never clash
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry(), now: time.Now}

	c.Candidates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "candidates_total",
			Help:      "Candidates received for ranking",
		},
		[]string{"domain"},
	)
	c.Excluded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "candidates_excluded_total",
			Help:      "Candidates removed by hard constraints",
		},
		[]string{"domain"},
	)
	c.Returned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "results_returned_total",
			Help:      "Ranked results returned",
		},
		[]string{"domain"},
	)
	c.RankTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "rank_duration_seconds",
			Help:      "Time to rank one domain",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"domain"},
	)
	c.Refreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rate_refreshes_total",
			Help:      "Exchange rate refresh attempts",
		},
		[]string{"source", "status"},
	)
	c.RatePairs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "rate_pairs",
			Help:      "Currency pairs in the current snapshot",
		},
	)
	snapshotAge := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "rate_snapshot_age_seconds",
			Help:      "Age of the current exchange rate snapshot",
		},
		c.snapshotAge,
	)
	c.HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	c.HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	c.registry.MustRegister(
		c.Candidates,
		c.Excluded,
		c.Returned,
		c.RankTime,
		c.Refreshes,
		c.RatePairs,
		snapshotAge,
		c.HTTPRequests,
		c.HTTPDuration,
	)
	return c
}

// ObserveRank records one ranking pass
func (c *Collector) ObserveRank(domain model.Domain, seen, excluded, returned int, elapsed time.Duration) {
	d := string(domain)
	c.Candidates.WithLabelValues(d).Add(float64(seen))
	c.Excluded.WithLabelValues(d).Add(float64(excluded))
	c.Returned.WithLabelValues(d).Add(float64(returned))
	c.RankTime.WithLabelValues(d).Observe(elapsed.Seconds())
}

// ObserveRefresh records a rate refresh; snapshot is nil on failure
func (c *Collector) ObserveRefresh(source string, err error, snapshot *currency.Snapshot) {
	if err != nil {
		c.Refreshes.WithLabelValues(source, "error").Inc()
		return
	}
	c.Refreshes.WithLabelValues(source, "ok").Inc()
	c.TrackSnapshot(snapshot)
}

// TrackSnapshot points the age and size gauges at s
func (c *Collector) TrackSnapshot(s *currency.Snapshot) {
	if s == nil {
		return
	}
	c.snapshotAt.Store(s.Timestamp.UnixNano())
	c.RatePairs.Set(float64(s.Len()))
}

func (c *Collector) snapshotAge() float64 {
	at := c.snapshotAt.Load()
	if at == 0 {
		return 0
	}
	return c.now().Sub(time.Unix(0, at)).Seconds()
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
