package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. Each instance owns its
// registry, so tests can build as many routers as they like.
type Metrics struct {
	registry *prometheus.Registry

	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	// decisions counts validator outcomes by event and state.
	decisions *prometheus.CounterVec

	// employeesInDeficit is set by the deficit scan, per leave type.
	employeesInDeficit *prometheus.GaugeVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "requests_total",
				Help: "How many HTTP requests processed, partitioned by status code and HTTP method.",
			},
			[]string{"code", "method", "url"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "request_duration_seconds",
				Help: "The HTTP request latencies in seconds.",
			},
			[]string{"code", "method", "url"},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leave_validation_decisions_total",
				Help: "Leave application validation outcomes, partitioned by lifecycle event and decision state.",
			},
			[]string{"event", "state"},
		),
		employeesInDeficit: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "leave_employees_in_deficit",
				Help: "Active employees with a negative balance at the last deficit scan, partitioned by leave type.",
			},
			[]string{"leave_type"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.requestCount,
		m.requestDuration,
		m.decisions,
		m.employeesInDeficit,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("could not register %s with Prometheus: %w", c, err)
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware updates the request counter and latency histogram. The url
// label is the chi route pattern, which keeps cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		url := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				url = pattern
			}
		}

		code := strconv.Itoa(status)
		m.requestDuration.WithLabelValues(code, r.Method, url).Observe(time.Since(start).Seconds())
		m.requestCount.WithLabelValues(code, r.Method, url).Inc()
	})
}

func (m *Metrics) observeDecision(event, state string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(event, state).Inc()
}

func (m *Metrics) setDeficit(leaveType string, n int) {
	if m == nil {
		return
	}
	m.employeesInDeficit.WithLabelValues(leaveType).Set(float64(n))
}
