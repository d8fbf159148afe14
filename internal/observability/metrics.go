// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

// Package observability records run metrics and writes them in the Prometheus
// textfile format, for collection by node_exporter's textfile collector.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
)

// Metrics contains the Prometheus metrics for a single jamhost run.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	CandidatesTotal  *prometheus.CounterVec
	TransitionsTotal *prometheus.CounterVec
	LastRunSuccess   prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
}

// NewMetrics creates metrics registered on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CandidatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jamhost_probe_candidates_total",
				Help: "Candidate libraries probed, by outcome",
			},
			[]string{"outcome"},
		),
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jamhost_lifecycle_transitions_total",
				Help: "Control plugin lifecycle transitions attempted, by transition and result",
			},
			[]string{"transition", "result"},
		),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jamhost_last_run_success",
			Help: "1 if the last run exited successfully, 0 otherwise",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jamhost_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}

	m.registry.MustRegister(m.CandidatesTotal, m.TransitionsTotal, m.LastRunSuccess, m.LastRunTimestamp)
	return m
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCandidate counts one probed candidate.
func (m *Metrics) ObserveCandidate(outcome string) {
	if m == nil {
		return
	}
	m.CandidatesTotal.WithLabelValues(outcome).Inc()
}

// ObserveTransition counts one lifecycle transition attempt.
func (m *Metrics) ObserveTransition(transition string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.TransitionsTotal.WithLabelValues(transition, result).Inc()
}

// FinishRun records the run outcome.
func (m *Metrics) FinishRun(success bool, at time.Time) {
	if m == nil {
		return
	}
	if success {
		m.LastRunSuccess.Set(1)
	} else {
		m.LastRunSuccess.Set(0)
	}
	m.LastRunTimestamp.Set(float64(at.Unix()))
}

// WriteTextfile atomically writes all metrics to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return oops.Code("METRICS_WRITE_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
