// Package metrics instruments the deliverable lifecycle with Prometheus
// collectors registered on a private registry.
//
// A nil *Metrics is valid and records nothing, so components take one as an
// optional dependency.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/feedtrack/internal/model"
)

// Namespace prefixes every metric name.
const Namespace = "feedtrack"

// Metrics holds the lifecycle collectors.
type Metrics struct {
	registry *prometheus.Registry

	submissions        *prometheus.CounterVec
	uploads            *prometheus.CounterVec
	criteriaChanges    *prometheus.CounterVec
	evaluations        *prometheus.CounterVec
	classifierDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "submissions_total",
				Help:      "Submit attempts by outcome.",
			},
			[]string{"result"},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "uploads_total",
				Help:      "Upload attempts by outcome.",
			},
			[]string{"result"},
		),
		criteriaChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "criteria_changes_total",
				Help:      "Feedback criteria created, updated, deleted or toggled.",
			},
			[]string{"op"},
		),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "evaluations_total",
				Help:      "Compliance evaluations by outcome.",
			},
			[]string{"result"},
		),
		classifierDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "classifier_duration_seconds",
				Help:      "Duration of classifier round trips.",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation", "result"},
		),
	}

	m.registry.MustRegister(
		m.submissions,
		m.uploads,
		m.criteriaChanges,
		m.evaluations,
		m.classifierDuration,
	)
	return m
}

// Registry exposes the registry, for tests and for merging into a process registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSubmit counts a submit attempt.
func (m *Metrics) ObserveSubmit(err error) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(Outcome(err)).Inc()
}

// ObserveUpload counts an upload attempt.
func (m *Metrics) ObserveUpload(err error) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(Outcome(err)).Inc()
}

// ObserveCriteria counts n criterion changes of kind op.
func (m *Metrics) ObserveCriteria(op string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.criteriaChanges.WithLabelValues(op).Add(float64(n))
}

// ObserveEvaluation counts a compliance evaluation.
func (m *Metrics) ObserveEvaluation(err error) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(Outcome(err)).Inc()
}

// ObserveClassifier records the duration of one classifier round trip.
func (m *Metrics) ObserveClassifier(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.classifierDuration.WithLabelValues(operation, Outcome(err)).Observe(time.Since(started).Seconds())
}

// Outcome maps an operation error to a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrPreconditionFailed):
		return "precondition_failed"
	case errors.Is(err, model.ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, model.ErrContractViolation):
		return "contract_violation"
	case errors.Is(err, model.ErrLockedTask):
		return "locked"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
