package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/campus-room-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the allocation agent. All methods are nil-safe so callers can
// run without metrics wired.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	agentRuns       *prometheus.CounterVec
	agentAllocated  prometheus.Counter
	agentFailed     prometheus.Counter
	overrides       prometheus.Counter
	runDuration     prometheus.Histogram
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	agentRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_runs_total",
		Help: "Total batch allocation passes by outcome",
	}, []string{"status"})

	agentAllocated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "requests_allocated_total",
		Help: "Total requests allocated by the agent",
	})

	agentFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "requests_failed_total",
		Help: "Total requests the agent could not allocate",
	})

	overrides := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overrides_total",
		Help: "Total manual allocation overrides",
	})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "agent_run_duration_seconds",
		Help:    "Duration of batch allocation passes",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, agentRuns, agentAllocated, agentFailed, overrides, runDuration, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		agentRuns:       agentRuns,
		agentAllocated:  agentAllocated,
		agentFailed:     agentFailed,
		overrides:       overrides,
		runDuration:     runDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveAgentRun records the outcome of one batch allocation pass.
func (m *MetricsService) ObserveAgentRun(status models.AgentRunStatus, stats models.AgentRunStats, duration time.Duration) {
	if m == nil {
		return
	}
	m.agentRuns.WithLabelValues(string(status)).Inc()
	m.agentAllocated.Add(float64(stats.Allocated))
	m.agentFailed.Add(float64(stats.Failed))
	m.runDuration.Observe(duration.Seconds())
}

// ObserveOverride counts a manual allocation override.
func (m *MetricsService) ObserveOverride() {
	if m == nil {
		return
	}
	m.overrides.Inc()
}
