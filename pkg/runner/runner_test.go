package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonry/canonry"
	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/dsl"
	"github.com/canonry/canonry/pkg/ports"
)

func testProvider(t *testing.T) ports.SnapshotProvider {
	t.Helper()

	b := dsl.New("hp")
	b.Class("class-ships").Exclusive("tag-hg", "tag-hd")
	b.Tag("tag-hg").InClass("class-ships")
	b.Tag("tag-hd").InClass("class-ships")
	b.Tag("tag-angst")

	provider, err := b.Build()
	require.NoError(t, err)
	return provider
}

func testEngine(t *testing.T, provider ports.SnapshotProvider) *canonry.Engine {
	t.Helper()

	eng, err := canonry.New("batch", canonry.WithProvider(provider))
	require.NoError(t, err)
	return eng
}

func TestRunKeepsJobOrder(t *testing.T) {
	eng := testEngine(t, testProvider(t))
	r := NewRunner(WithEngine(eng), WithWorkers(3))

	var jobs []Job
	for i := 0; i < 6; i++ {
		tags := []string{"tag-angst"}
		if i%2 == 1 {
			tags = []string{"tag-hg", "tag-hd"}
		}
		jobs = append(jobs, Job{
			Label:   fmt.Sprintf("job-%d", i),
			Pathway: domain.Pathway{FandomID: "hp", TagIDs: tags},
		})
	}

	results, err := r.Run(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, results, 6)

	for i, res := range results {
		assert.Equal(t, fmt.Sprintf("job-%d", i), res.Label)
		require.NoError(t, res.Err)
		require.NotNil(t, res.Report)
		assert.Equal(t, i%2 == 0, res.Report.Valid, "job %d", i)
	}
}

func TestRunRequiresEngine(t *testing.T) {
	_, err := NewRunner().Run(context.Background(), nil)
	require.EqualError(t, err, "runner requires an engine")
}

func TestRunRecordsJobErrors(t *testing.T) {
	eng := testEngine(t, testProvider(t))
	r := NewRunner(WithEngine(eng))

	results, err := r.Run(context.Background(), []Job{
		{Label: "missing", Pathway: domain.Pathway{FandomID: "nope"}},
		{Label: "fine", Pathway: domain.Pathway{FandomID: "hp", TagIDs: []string{"tag-angst"}}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.ErrorIs(t, results[0].Err, domain.ErrFandomNotFound)
	assert.Nil(t, results[0].Report)

	require.NoError(t, results[1].Err)
	assert.True(t, results[1].Report.Valid)
}

// gateProvider tracks how many Snapshot calls overlap.
type gateProvider struct {
	ports.SnapshotProvider
	current atomic.Int32
	peak    atomic.Int32
}

func (g *gateProvider) Snapshot(ctx context.Context, fandomID string) (*domain.Snapshot, error) {
	cur := g.current.Add(1)
	defer g.current.Add(-1)

	for {
		peak := g.peak.Load()
		if cur <= peak || g.peak.CompareAndSwap(peak, cur) {
			break
		}
	}

	time.Sleep(5 * time.Millisecond)
	return g.SnapshotProvider.Snapshot(ctx, fandomID)
}

func TestRunBoundsConcurrency(t *testing.T) {
	gate := &gateProvider{SnapshotProvider: testProvider(t)}
	r := NewRunner(WithEngine(testEngine(t, gate)), WithWorkers(2))

	var jobs []Job
	for i := 0; i < 8; i++ {
		jobs = append(jobs, Job{Pathway: domain.Pathway{FandomID: "hp"}})
	}

	_, err := r.Run(context.Background(), jobs)
	require.NoError(t, err)

	assert.LessOrEqual(t, gate.peak.Load(), int32(2))
}

func TestSummary(t *testing.T) {
	rs := Results{
		{Report: &domain.ValidationReport{Valid: true}},
		{Report: &domain.ValidationReport{}},
		{Report: &domain.ValidationReport{Incomplete: true}},
		{Err: fmt.Errorf("boom")},
	}

	s := rs.Summary()
	assert.Equal(t, 1, s.Valid)
	assert.Equal(t, 1, s.Invalid)
	assert.Equal(t, 1, s.Incomplete)
	assert.Equal(t, 1, s.Errored)
	assert.False(t, s.AllValid())
	assert.Equal(t, "1 valid, 1 invalid, 1 incomplete, 1 errored", s.String())

	clean := Results{{Report: &domain.ValidationReport{Valid: true}}}
	assert.True(t, clean.Summary().AllValid())
}
