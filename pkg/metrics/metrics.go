// Package metrics wraps the Prometheus collectors for wagers and the ledger.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records wager telemetry
type Collector struct {
	registry *prometheus.Registry

	wagersTotal     *prometheus.CounterVec
	wagerLatency    *prometheus.HistogramVec
	rejectionsTotal *prometheus.CounterVec
	stakedTotal     *prometheus.CounterVec
	paidTotal       *prometheus.CounterVec
	flagsTotal      *prometheus.CounterVec
	replaysTotal    *prometheus.CounterVec
	auditFailures   prometheus.Counter
	secretRotations prometheus.Counter
	httpRequests    *prometheus.CounterVec
}

// NewCollector creates a collector on its own registry
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "gamblinghall"
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
	}

	c.wagersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wager",
			Name:      "settled_total",
			Help:      "Wagers settled by the ledger",
		},
		[]string{"game", "action"},
	)

	c.wagerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "wager",
			Name:      "duration_seconds",
			Help:      "Time from request to settlement",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"game", "result"},
	)

	c.rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wager",
			Name:      "rejected_total",
			Help:      "Wagers rejected, by error code",
		},
		[]string{"game", "code"},
	)

	c.stakedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "debited_credits_total",
			Help:      "Credits taken from wallets as bets",
		},
		[]string{"game"},
	)

	c.paidTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "credited_credits_total",
			Help:      "Credits paid to wallets",
		},
		[]string{"game"},
	)

	c.flagsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wager",
			Name:      "special_outcomes_total",
			Help:      "Jackpots, supernovas, voids, busts, blackjacks and pushes",
		},
		[]string{"game", "flag"},
	)

	c.replaysTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wager",
			Name:      "replayed_total",
			Help:      "Requests answered from the wager history",
		},
		[]string{"game"},
	)

	c.auditFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "failures_total",
			Help:      "Wagers that could not be mirrored to Elasticsearch",
		},
	)

	c.secretRotations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fairness",
			Name:      "secret_rotations_total",
			Help:      "Fairness secret rotations",
		},
	)

	c.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	c.registry.MustRegister(
		c.wagersTotal,
		c.wagerLatency,
		c.rejectionsTotal,
		c.stakedTotal,
		c.paidTotal,
		c.flagsTotal,
		c.replaysTotal,
		c.auditFailures,
		c.secretRotations,
		c.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WagerSettled records a committed wager
func (c *Collector) WagerSettled(game, action string, debit, credit int64, flags []string, started time.Time) {
	if action == "" {
		action = "play"
	}
	c.wagersTotal.WithLabelValues(game, action).Inc()
	c.wagerLatency.WithLabelValues(game, "settled").Observe(time.Since(started).Seconds())
	if debit > 0 {
		c.stakedTotal.WithLabelValues(game).Add(float64(debit))
	}
	if credit > 0 {
		c.paidTotal.WithLabelValues(game).Add(float64(credit))
	}
	for _, flag := range flags {
		c.flagsTotal.WithLabelValues(game, flag).Inc()
	}
}

// WagerReplayed records a request answered from history
func (c *Collector) WagerReplayed(game string) {
	c.replaysTotal.WithLabelValues(game).Inc()
}

// WagerRejected records a wager that failed with an error code
func (c *Collector) WagerRejected(game, code string, started time.Time) {
	c.rejectionsTotal.WithLabelValues(game, code).Inc()
	c.wagerLatency.WithLabelValues(game, "rejected").Observe(time.Since(started).Seconds())
}

// AuditFailed records a failed mirror write
func (c *Collector) AuditFailed() {
	c.auditFailures.Inc()
}

// SecretRotated records a fairness secret rotation
func (c *Collector) SecretRotated() {
	c.secretRotations.Inc()
}

// HTTPRequest records a served request
func (c *Collector) HTTPRequest(route string, status int) {
	c.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
