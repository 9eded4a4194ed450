package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/edu-erp-api/pkg/jobs"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	leadMutations   *prometheus.CounterVec
	leadsAffected   *prometheus.CounterVec
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

	leadMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_lead_mutations_total",
		Help: "Successful lead mutations by operation",
	}, []string{"operation"})

	leadsAffected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_leads_affected_total",
		Help: "Leads touched by successful mutations, by operation",
	}, []string{"operation"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, leadMutations, leadsAffected, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		leadMutations:   leadMutations,
		leadsAffected:   leadsAffected,
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

// RecordLeadMutation counts a successful mutation and the leads it touched.
func (m *MetricsService) RecordLeadMutation(operation string, count int) {
	if m == nil {
		return
	}
	m.leadMutations.WithLabelValues(operation).Inc()
	m.leadsAffected.WithLabelValues(operation).Add(float64(count))
}

// RegisterLeadGauge exposes the live lead count.
func (m *MetricsService) RegisterLeadGauge(count func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "crm_leads",
		Help: "Leads currently held in the store",
	}, func() float64 {
		return float64(count())
	}))
}

// RegisterQueue exposes depth and outcome counters of a job queue.
func (m *MetricsService) RegisterQueue(name string, stats func() jobs.Stats) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"queue": name}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "job_queue_depth", Help: "Jobs waiting in the queue", ConstLabels: labels,
		}, func() float64 { return float64(stats().Queued) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "job_queue_succeeded_total", Help: "Jobs completed", ConstLabels: labels,
		}, func() float64 { return float64(stats().Succeeded) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "job_queue_retried_total", Help: "Job retries scheduled", ConstLabels: labels,
		}, func() float64 { return float64(stats().Retried) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "job_queue_abandoned_total", Help: "Jobs abandoned after retries", ConstLabels: labels,
		}, func() float64 { return float64(stats().Abandoned) }),
	)
}
