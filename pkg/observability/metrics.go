// Package observability exports pipeline timings and validation outcomes
// as Prometheus collectors, plus small sink adapters for logging and fanout.
package observability

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/ports"
)

// Metrics bundles the Prometheus collectors the engine feeds. It implements
// ports.TimingSink, so it can be handed straight to canonry.WithTimingSink.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	runsTotal     *prometheus.CounterVec
	findingsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg falls
// back to prometheus.DefaultRegisterer. Collectors that are already
// registered are tolerated, so several engines can share one registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "canonry_stage_duration_seconds",
				Help:    "Duration of each validation pipeline stage",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"stage"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canonry_validations_total",
				Help: "Completed validation runs by outcome",
			},
			[]string{"outcome"},
		),
		findingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "canonry_findings_total",
				Help: "Violations and conflicts reported, by kind and grade",
			},
			[]string{"kind", "grade"},
		),
	}

	for _, c := range []prometheus.Collector{m.stageDuration, m.runsTotal, m.findingsTotal} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, fmt.Errorf("failed to register collector: %w", err)
			}
		}
	}

	return m, nil
}

// ObserveStage implements ports.TimingSink.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveReport counts the run outcome and every finding the report carries.
// Callers invoke it once per completed validation.
func (m *Metrics) ObserveReport(r *domain.ValidationReport) {
	if r == nil {
		return
	}

	outcome := "valid"
	switch {
	case r.Incomplete:
		outcome = "incomplete"
	case !r.Valid:
		outcome = "invalid"
	}
	m.runsTotal.WithLabelValues(outcome).Inc()

	for _, v := range r.Violations {
		m.findingsTotal.WithLabelValues("violation", string(v.Severity)).Inc()
	}
	for _, c := range r.Conflicts {
		m.findingsTotal.WithLabelValues("conflict", string(c.Level)).Inc()
	}
}

var _ ports.TimingSink = (*Metrics)(nil)

// LogSink returns a sink that writes one debug line per stage. Useful while
// tuning heuristics, where Prometheus is overkill.
func LogSink(logger *slog.Logger) ports.TimingSink {
	return ports.TimingSinkFunc(func(stage string, d time.Duration) {
		logger.Debug("stage finished", "stage", stage, "duration", d)
	})
}

// Fanout duplicates every observation to all given sinks.
func Fanout(sinks ...ports.TimingSink) ports.TimingSink {
	return ports.TimingSinkFunc(func(stage string, d time.Duration) {
		for _, s := range sinks {
			s.ObserveStage(stage, d)
		}
	})
}
