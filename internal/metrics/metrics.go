// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector is what the pipeline and fan-out report into.
type MetricsCollector interface {
	RecordItem(result string)
	RecordDestinationOutcome(destination, outcome string)
	RecordPublishAttempt(destination string, duration time.Duration, success bool)
	RecordCaptionSource(source string)
	RecordFetchFailure()
	RecordBatch(duration time.Duration)
}

type Collector struct {
	items         *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	attempts      *prometheus.CounterVec
	attemptTime   *prometheus.HistogramVec
	captions      *prometheus.CounterVec
	fetchFailures prometheus.Counter
	batchTime     prometheus.Histogram
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoshare_items_total",
			Help: "Feed items handled, by result.",
		}, []string{"result"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoshare_destination_outcomes_total",
			Help: "Destination outcomes recorded on share records.",
		}, []string{"destination", "outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoshare_publish_attempts_total",
			Help: "Publish calls made to destinations.",
		}, []string{"destination", "success"}),
		attemptTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "autoshare_publish_attempt_seconds",
			Help:    "Latency of single publish calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"destination"}),
		captions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoshare_captions_total",
			Help: "Composed captions, by source (generated or template).",
		}, []string{"source"}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autoshare_feed_fetch_failures_total",
			Help: "Owner feed fetches that failed.",
		}),
		batchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "autoshare_batch_seconds",
			Help:    "Duration of one owner batch.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 240, 480},
		}),
	}

	reg.MustRegister(
		c.items,
		c.outcomes,
		c.attempts,
		c.attemptTime,
		c.captions,
		c.fetchFailures,
		c.batchTime,
	)

	return c
}

func (c *Collector) RecordItem(result string) {
	c.items.WithLabelValues(result).Inc()
}

func (c *Collector) RecordDestinationOutcome(destination, outcome string) {
	c.outcomes.WithLabelValues(destination, outcome).Inc()
}

func (c *Collector) RecordPublishAttempt(destination string, duration time.Duration, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	c.attempts.WithLabelValues(destination, label).Inc()
	c.attemptTime.WithLabelValues(destination).Observe(duration.Seconds())
}

func (c *Collector) RecordCaptionSource(source string) {
	c.captions.WithLabelValues(source).Inc()
}

func (c *Collector) RecordFetchFailure() {
	c.fetchFailures.Inc()
}

func (c *Collector) RecordBatch(duration time.Duration) {
	c.batchTime.Observe(duration.Seconds())
}

// Nop satisfies MetricsCollector and records nothing.
type Nop struct{}

func (Nop) RecordItem(string) {}
func (Nop) RecordDestinationOutcome(string, string) {}
func (Nop) RecordPublishAttempt(string, time.Duration, bool) {}
func (Nop) RecordCaptionSource(string) {}
func (Nop) RecordFetchFailure() {}
func (Nop) RecordBatch(time.Duration) {}

// Handler serves the registry for Prometheus scraping.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
