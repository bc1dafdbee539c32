// Package metrics exposes ledger activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"budgetbook/internal/core"
)

// Recorder owns its registry so several instances can coexist in tests. It
// is a ledger listener counting mutations by kind.
type Recorder struct {
	registry        *prometheus.Registry
	mutations       *prometheus.CounterVec
	skippedLines    *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_mutations_total",
				Help: "Total number of applied ledger mutations",
			},
			[]string{"kind"},
		),
		skippedLines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_store_skipped_lines_total",
				Help: "Stored lines dropped while loading",
			},
			[]string{"store", "reason"},
		),
		persistFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_persist_failures_total",
				Help: "Ledger saves that failed after the in-memory change was applied",
			},
			[]string{"op"},
		),
		publishFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_event_publish_failures_total",
				Help: "Change events that could not be published",
			},
			[]string{"kind"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_http_requests_total",
				Help: "HTTP requests by method and status code",
			},
			[]string{"method", "code"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_http_request_duration_milliseconds",
				Help:    "HTTP request duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"method"},
		),
	}
}

// Registry returns the registry the metrics live in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// TrackLedgerSize registers the ledger_transactions gauge, read from size at
// scrape time.
func (r *Recorder) TrackLedgerSize(size func() int) {
	r.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ledger_transactions",
			Help: "Number of transactions currently in the ledger",
		},
		func() float64 { return float64(size()) },
	))
}

func (r *Recorder) OnTransactionAdded(context.Context, core.Transaction) {
	r.mutations.WithLabelValues("added").Inc()
}

func (r *Recorder) OnTransactionUpdated(context.Context, core.Transaction, core.Transaction) {
	r.mutations.WithLabelValues("updated").Inc()
}

func (r *Recorder) OnTransactionRemoved(context.Context, core.Transaction) {
	r.mutations.WithLabelValues("removed").Inc()
}

// SkipHook returns a callback for the storage skip hook labelled with store.
func (r *Recorder) SkipHook(store string) func(reason string) {
	return func(reason string) {
		r.skippedLines.WithLabelValues(store, reason).Inc()
	}
}

func (r *Recorder) PersistFailure(op string, _ error) {
	r.persistFailures.WithLabelValues(op).Inc()
}

// PublishFailure counts a failed change event; kind is the event kind.
func (r *Recorder) PublishFailure(kind string) {
	r.publishFailures.WithLabelValues(kind).Inc()
}

func (r *Recorder) ObserveHTTP(method string, status int, d time.Duration) {
	r.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method).Observe(float64(d.Milliseconds()))
}
