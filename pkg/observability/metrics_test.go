package observability

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/ports"
)

func TestMetricsObserveStage(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveStage("constraints", 3*time.Millisecond)
	m.ObserveStage("constraints", 5*time.Millisecond)
	m.ObserveStage("conflicts", time.Millisecond)

	// Two distinct stage labels produce two histogram series.
	assert.Equal(t, 2, testutil.CollectAndCount(m.stageDuration))
}

func TestMetricsObserveReport(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveReport(&domain.ValidationReport{Valid: true})
	m.ObserveReport(&domain.ValidationReport{
		Violations: []domain.Violation{
			{Code: domain.CodeMutualExclusion, Severity: domain.SeverityCritical},
			{Code: domain.CodeDuplicateEntry, Severity: domain.SeverityMinor},
		},
		Conflicts: []domain.Conflict{
			{Source: "shipping_exclusivity", Level: domain.ConflictError},
		},
	})
	m.ObserveReport(&domain.ValidationReport{Incomplete: true})
	m.ObserveReport(nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.runsTotal.WithLabelValues("valid")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runsTotal.WithLabelValues("invalid")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runsTotal.WithLabelValues("incomplete")))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.findingsTotal.WithLabelValues("violation", "critical")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.findingsTotal.WithLabelValues("violation", "minor")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.findingsTotal.WithLabelValues("conflict", "error")))
}

func TestSharedRegistryIsTolerated(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := New(reg)
	require.NoError(t, err)

	// A second engine registering the same collectors must not fail.
	_, err = New(reg)
	require.NoError(t, err)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	LogSink(logger).ObserveStage("structural", 2*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "stage finished")
	assert.Contains(t, out, "stage=structural")
}

func TestFanout(t *testing.T) {
	var first, second []string
	sink := Fanout(
		ports.TimingSinkFunc(func(stage string, _ time.Duration) { first = append(first, stage) }),
		ports.TimingSinkFunc(func(stage string, _ time.Duration) { second = append(second, stage) }),
	)

	sink.ObserveStage("constraints", time.Millisecond)
	sink.ObserveStage("conflicts", time.Millisecond)

	assert.Equal(t, []string{"constraints", "conflicts"}, first)
	assert.Equal(t, []string{"constraints", "conflicts"}, second)
}
