package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "syllabus"

// Query outcomes recorded by ObserveQuery
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds the service's prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	queries          *prometheus.CounterVec
	queryDuration    prometheus.Histogram
	completionRounds prometheus.Histogram
	toolCalls        *prometheus.CounterVec
	ingestedCourses  prometheus.Counter
	ingestedChunks   prometheus.Counter
	courses          prometheus.Gauge
}

// New creates and registers every collector
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Questions answered, by outcome.",
		}, []string{"status"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "End-to-end question answering latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		completionRounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_rounds",
			Help:      "Completion rounds used per question.",
			Buckets:   []float64{1, 2},
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations requested by the model.",
		}, []string{"tool"}),
		ingestedCourses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_courses_total",
			Help:      "Courses added to the catalog.",
		}),
		ingestedChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_chunks_total",
			Help:      "Content chunks added to the store.",
		}),
		courses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "courses",
			Help:      "Courses currently in the catalog.",
		}),
	}

	m.registry.MustRegister(
		m.queries,
		m.queryDuration,
		m.completionRounds,
		m.toolCalls,
		m.ingestedCourses,
		m.ingestedChunks,
		m.courses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveQuery records one answered (or failed) question
func (m *Metrics) ObserveQuery(status string, duration time.Duration, rounds int) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(status).Inc()
	m.queryDuration.Observe(duration.Seconds())
	if rounds > 0 {
		m.completionRounds.Observe(float64(rounds))
	}
}

// IncToolCall records one tool invocation
func (m *Metrics) IncToolCall(tool string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool).Inc()
}

// AddIngested records newly ingested courses and chunks
func (m *Metrics) AddIngested(courses, chunks int) {
	if m == nil {
		return
	}
	m.ingestedCourses.Add(float64(courses))
	m.ingestedChunks.Add(float64(chunks))
}

// SetCourseCount publishes the current catalog size
func (m *Metrics) SetCourseCount(n int) {
	if m == nil {
		return
	}
	m.courses.Set(float64(n))
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
