// Package metrics exposes prometheus counters for the cascade and the media
// proxy.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the cascade and media proxy report into.
type Recorder interface {
	RecordAttempt(platform, strategy, outcome string, elapsed time.Duration)
	RecordMediaProxy(outcome string)
}

type Collector struct {
	attempts     *prometheus.CounterVec
	attemptTime  *prometheus.HistogramVec
	mediaProxied *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fanfeed_cascade_attempts_total",
			Help: "Cascade strategy attempts by platform, strategy and outcome.",
		}, []string{"platform", "strategy", "outcome"}),
		attemptTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fanfeed_cascade_attempt_seconds",
			Help:    "Cascade strategy latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"platform", "strategy"}),
		mediaProxied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fanfeed_media_proxy_total",
			Help: "Media proxy responses by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(c.attempts, c.attemptTime, c.mediaProxied)
	return c
}

func (c *Collector) RecordAttempt(platform, strategy, outcome string, elapsed time.Duration) {
	c.attempts.WithLabelValues(platform, strategy, outcome).Inc()
	c.attemptTime.WithLabelValues(platform, strategy).Observe(elapsed.Seconds())
}

func (c *Collector) RecordMediaProxy(outcome string) {
	c.mediaProxied.WithLabelValues(outcome).Inc()
}

// Nop discards everything; used when no registry is wired.
type Nop struct{}

func (Nop) RecordAttempt(string, string, string, time.Duration) {}

func (Nop) RecordMediaProxy(string) {}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
