// Package metrics exposes Prometheus collectors for the HTTP surface, ledger
// mutations and event publishing.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dompet/internal/amqp"
)

const namespace = "dompet"

// Metrics owns a private registry so tests and multiple servers never
// collide on the global one.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	mutations   *prometheus.CounterVec
	published   *prometheus.CounterVec
	rateLimited prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_mutations_total",
			Help:      "Committed ledger mutations by operation.",
		}, []string{"operation"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_events_published_total",
			Help:      "Ledger events handed to the broker by event type and outcome.",
		}, []string{"type", "outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.mutations, m.published, m.rateLimited,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records every request under the pattern the mux matched. It
// must wrap the ServeMux directly: the mux sets r.Pattern on the request it
// receives.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveMutation counts a committed ledger mutation.
func (m *Metrics) ObserveMutation(op string) {
	m.mutations.WithLabelValues(op).Inc()
}

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// RegisterGauge exposes a value sampled at scrape time, e.g. a cache size.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// RegisterCounter exposes a monotonically increasing value kept elsewhere.
func (m *Metrics) RegisterCounter(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// Publisher is the event sink the ledger writes to.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, e *amqp.LedgerEvent) error
}

type instrumentedPublisher struct {
	next    Publisher
	metrics *Metrics
}

// InstrumentPublisher counts the outcome of every publish through p.
func (m *Metrics) InstrumentPublisher(p Publisher) Publisher {
	return &instrumentedPublisher{next: p, metrics: m}
}

func (p *instrumentedPublisher) PublishLedgerEvent(ctx context.Context, e *amqp.LedgerEvent) error {
	err := p.next.PublishLedgerEvent(ctx, e)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.metrics.published.WithLabelValues(string(e.Type), outcome).Inc()
	return err
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
