package reporting

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps a private Prometheus registry of live fuzz-loop counters,
// optionally exposed over HTTP when METRICS_ADDR is set. Unlike the
// teacher's monitoring subsystem (a Prometheus *query* client), this is a
// producer: the loop coordinator updates these values directly.
type Metrics struct {
	registry             *prometheus.Registry
	fingerprintsExplored prometheus.Counter
	generations          prometheus.Counter
	bugsTotal            *prometheus.CounterVec
	queueLength          prometheus.Gauge

	server *http.Server
}

// NewMetrics registers the fuzzer's counters/gauges on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		fingerprintsExplored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "difffuzz_fingerprints_explored_total",
			Help: "Total number of distinct coverage fingerprints observed.",
		}),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "difffuzz_generations_total",
			Help: "Total number of fuzz-loop generations completed.",
		}),
		bugsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "difffuzz_bugs_total",
			Help: "Total number of differential witnesses recorded, by bugprint.",
		}, []string{"bugprint"}),
		queueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "difffuzz_queue_length",
			Help: "Current size of the pending-input queue.",
		}),
	}

	registry.MustRegister(m.fingerprintsExplored, m.generations, m.bugsTotal, m.queueLength)
	return m
}

// IncFingerprintsExplored bumps the explored-fingerprint counter by n.
func (m *Metrics) IncFingerprintsExplored(n int) {
	m.fingerprintsExplored.Add(float64(n))
}

// IncGeneration bumps the generation counter by one.
func (m *Metrics) IncGeneration() {
	m.generations.Inc()
}

// IncBug bumps the per-bugprint counter.
func (m *Metrics) IncBug(bugprint string) {
	m.bugsTotal.WithLabelValues(bugprint).Inc()
}

// SetQueueLength sets the current queue-length gauge.
func (m *Metrics) SetQueueLength(n int) {
	m.queueLength.Set(float64(n))
}

// Serve starts the /metrics HTTP endpoint on addr if addr is non-empty; a
// no-op (nil error) otherwise. It never blocks.
func (m *Metrics) Serve(addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	m.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()
	return nil
}

// Shutdown stops the HTTP server, if one was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
