package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture returns a catalog with one of everything the stages care about.
func fixture() *domain.Snapshot {
	return &domain.Snapshot{
		Fandom: domain.Fandom{ID: "hp", Name: "Wizarding World"},
		Tags: []domain.Tag{
			{ID: "tag-hg", FandomID: "hp", ClassID: "class-ship",
				Metadata: map[string]string{"characters": "Harry, Ginny"}},
			{ID: "tag-hd", FandomID: "hp", ClassID: "class-ship",
				Metadata: map[string]string{"characters": "Harry, Draco"}},
			{ID: "tag-angst", FandomID: "hp"},
			{ID: "tag-fluff", FandomID: "hp"},
		},
		TagClasses: []domain.TagClass{
			{ID: "class-ship", Name: "Ships", FandomID: "hp",
				Rules: domain.ClassRules{MutualExclusion: []string{"tag-hg", "tag-hd"}}},
		},
		PlotBlocks: []domain.PlotBlock{
			{ID: "block-prologue", FandomID: "hp"},
			{ID: "block-reveal", FandomID: "hp", Conditions: []domain.Condition{
				{Kind: domain.ConditionBlockCompleted, Target: "block-prologue"},
			}},
			{ID: "block-finale", FandomID: "hp", Conditions: []domain.Condition{
				{Kind: domain.ConditionTagPresent, Target: "tag-angst"},
			}},
		},
		Dependencies: []domain.BlockDependency{
			{ID: "d1", SourceBlockID: "block-reveal", TargetBlockID: "block-prologue", Active: true},
		},
	}
}

func TestEmptyPathwayIsValid(t *testing.T) {
	p := New()
	report, err := p.Run(context.Background(), fixture(), domain.Pathway{FandomID: "hp"}, domain.EvaluationContext{})

	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Violations)
	assert.Empty(t, report.Conflicts)
	assert.False(t, report.Incomplete)
}

func TestReportsAreIdempotent(t *testing.T) {
	p := New()
	pw := domain.Pathway{
		FandomID: "hp",
		TagIDs:   []string{"tag-hg", "tag-hd", "tag-angst"},
		BlockIDs: []string{"block-reveal", "block-finale"},
	}

	strip := func(r *domain.ValidationReport) *domain.ValidationReport {
		r.Timings = nil
		return r
	}

	first, err := p.Run(context.Background(), fixture(), pw, domain.EvaluationContext{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.Run(context.Background(), fixture(), pw, domain.EvaluationContext{})
		require.NoError(t, err)
		assert.Equal(t, strip(first), strip(again), "identical input must yield identical findings")
	}
}

func TestParallelAndSequentialAgree(t *testing.T) {
	pw := domain.Pathway{
		FandomID: "hp",
		TagIDs:   []string{"tag-hg", "tag-hd"},
		BlockIDs: []string{"block-finale"},
	}

	par, err := New(WithParallel(true)).Run(context.Background(), fixture(), pw, domain.EvaluationContext{})
	require.NoError(t, err)
	seq, err := New(WithParallel(false)).Run(context.Background(), fixture(), pw, domain.EvaluationContext{})
	require.NoError(t, err)

	par.Timings, seq.Timings = nil, nil
	assert.Equal(t, par, seq)
}

func TestStructuralShortCircuits(t *testing.T) {
	p := New()

	t.Run("missing fandom", func(t *testing.T) {
		_, err := p.Run(context.Background(), fixture(), domain.Pathway{}, domain.EvaluationContext{})
		var structural *domain.StructuralError
		require.True(t, errors.As(err, &structural))
		assert.Equal(t, "missing_field", structural.Kind)
	})

	t.Run("fandom mismatch", func(t *testing.T) {
		_, err := p.Run(context.Background(), fixture(), domain.Pathway{FandomID: "trek"}, domain.EvaluationContext{})
		var structural *domain.StructuralError
		require.True(t, errors.As(err, &structural))
		assert.Equal(t, "fandom_mismatch", structural.Kind)
	})

	t.Run("malformed condition in a selected block", func(t *testing.T) {
		snap := fixture()
		snap.PlotBlocks = append(snap.PlotBlocks, domain.PlotBlock{
			ID: "block-broken", FandomID: "hp",
			Conditions: []domain.Condition{{
				Kind: domain.ConditionMetadata, Target: "era",
				Operator: domain.OpIn, Value: json.RawMessage(`"not-a-list"`),
			}},
		})
		pw := domain.Pathway{FandomID: "hp", BlockIDs: []string{"block-broken"}}

		_, err := p.Run(context.Background(), snap, pw, domain.EvaluationContext{})
		var structural *domain.StructuralError
		require.True(t, errors.As(err, &structural), "malformed payloads must short-circuit, got %v", err)
	})

	t.Run("malformed condition in an unselected block does not", func(t *testing.T) {
		snap := fixture()
		snap.PlotBlocks = append(snap.PlotBlocks, domain.PlotBlock{
			ID: "block-broken", FandomID: "hp",
			Conditions: []domain.Condition{{
				Kind: domain.ConditionMetadata, Target: "era",
				Operator: domain.OpIn, Value: json.RawMessage(`"not-a-list"`),
			}},
		})
		pw := domain.Pathway{FandomID: "hp", TagIDs: []string{"tag-angst"}}

		report, err := p.Run(context.Background(), snap, pw, domain.EvaluationContext{})
		require.NoError(t, err)
		assert.True(t, report.Valid)
	})
}

func TestDuplicateSelectionsCollapse(t *testing.T) {
	p := New()
	pw := domain.Pathway{
		FandomID: "hp",
		TagIDs:   []string{"tag-angst", "tag-angst", "tag-angst"},
	}

	report, err := p.Run(context.Background(), fixture(), pw, domain.EvaluationContext{})
	require.NoError(t, err)

	require.Len(t, report.Violations, 1)
	assert.Equal(t, domain.CodeDuplicateEntry, report.Violations[0].Code)
	assert.Equal(t, domain.SeverityMinor, report.Violations[0].Severity)
	assert.Equal(t, []string{"tag-angst"}, report.Violations[0].Subjects)
	assert.True(t, report.Valid, "duplicates are noise, not an error")
}

func TestMutualExclusionBlocksValidity(t *testing.T) {
	p := New()
	pw := domain.Pathway{FandomID: "hp", TagIDs: []string{"tag-hg", "tag-hd"}}

	report, err := p.Run(context.Background(), fixture(), pw, domain.EvaluationContext{})
	require.NoError(t, err)

	assert.False(t, report.Valid)

	var exclusions, shippings int
	for _, v := range report.Violations {
		if v.Code == domain.CodeMutualExclusion {
			exclusions++
		}
	}
	for _, c := range report.Conflicts {
		if c.Source == "shipping_exclusivity" {
			shippings++
		}
	}
	assert.Equal(t, 1, exclusions, "exactly one exclusion violation")
	assert.Equal(t, 1, shippings, "the heuristic reports independently of the rule")
}

func TestUnrelatedSelectionsStayValid(t *testing.T) {
	p := New()
	pw := domain.Pathway{
		FandomID: "hp",
		TagIDs:   []string{"tag-hg", "tag-fluff"},
		BlockIDs: []string{"block-prologue"},
	}

	report, err := p.Run(context.Background(), fixture(), pw, domain.EvaluationContext{})
	require.NoError(t, err)

	assert.True(t, report.Valid)
	assert.Empty(t, report.Violations, "one tag from an exclusion set plus an unrelated tag is fine")
	assert.Empty(t, report.Conflicts)
}

func TestUnsatisfiedConditionsBlock(t *testing.T) {
	p := New()

	t.Run("missing prerequisite", func(t *testing.T) {
		pw := domain.Pathway{FandomID: "hp", BlockIDs: []string{"block-reveal"}}
		report, err := p.Run(context.Background(), fixture(), pw, domain.EvaluationContext{})
		require.NoError(t, err)

		assert.False(t, report.Valid)
		require.Len(t, report.Violations, 1)
		assert.Equal(t, domain.CodeUnsatisfiedCondition, report.Violations[0].Code)
		assert.Equal(t, []string{"block-reveal"}, report.Violations[0].Subjects)
	})

	t.Run("prerequisite selected in the same pathway satisfies it", func(t *testing.T) {
		pw := domain.Pathway{FandomID: "hp", BlockIDs: []string{"block-prologue", "block-reveal"}}
		report, err := p.Run(context.Background(), fixture(), pw, domain.EvaluationContext{})
		require.NoError(t, err)
		assert.True(t, report.Valid)
	})

	t.Run("prerequisite completed in the context satisfies it", func(t *testing.T) {
		pw := domain.Pathway{FandomID: "hp", BlockIDs: []string{"block-reveal"}}
		report, err := p.Run(context.Background(), fixture(), pw, domain.EvaluationContext{
			Completed: []string{"block-prologue"},
		})
		require.NoError(t, err)
		assert.True(t, report.Valid)
	})
}

func TestCatalogCycleGrading(t *testing.T) {
	cyclic := fixture()
	cyclic.Dependencies = append(cyclic.Dependencies,
		domain.BlockDependency{ID: "d2", SourceBlockID: "block-prologue", TargetBlockID: "block-reveal", Active: true})

	p := New()

	t.Run("cycle under the pathway is critical", func(t *testing.T) {
		pw := domain.Pathway{FandomID: "hp", BlockIDs: []string{"block-prologue", "block-reveal"}}
		report, err := p.Run(context.Background(), cyclic, pw, domain.EvaluationContext{})
		require.NoError(t, err)

		assert.False(t, report.Valid)
		found := false
		for _, v := range report.Violations {
			if v.Code == domain.CodeCircularDependency {
				found = true
				assert.Equal(t, domain.SeverityCritical, v.Severity)
				assert.Equal(t, []string{"block-prologue", "block-reveal"}, v.Subjects)
			}
		}
		assert.True(t, found)
	})

	t.Run("cycle elsewhere in the catalog only warns", func(t *testing.T) {
		pw := domain.Pathway{FandomID: "hp", TagIDs: []string{"tag-fluff"}}
		report, err := p.Run(context.Background(), cyclic, pw, domain.EvaluationContext{})
		require.NoError(t, err)

		assert.True(t, report.Valid, "a distant catalog defect must not block this pathway")
		found := false
		for _, v := range report.Violations {
			if v.Code == domain.CodeCircularDependency {
				found = true
				assert.Equal(t, domain.SeverityMinor, v.Severity)
			}
		}
		assert.True(t, found)
	})
}

func TestWarningsNeverBlock(t *testing.T) {
	snap := fixture()
	snap.PlotBlocks = append(snap.PlotBlocks,
		domain.PlotBlock{ID: "block-a", FandomID: "hp",
			Metadata: map[string]string{"timeline_start": "1", "timeline_end": "5"}},
		domain.PlotBlock{ID: "block-b", FandomID: "hp",
			Metadata: map[string]string{"timeline_start": "3", "timeline_end": "8"}},
	)
	pw := domain.Pathway{FandomID: "hp", BlockIDs: []string{"block-a", "block-b"}}

	report, err := New().Run(context.Background(), snap, pw, domain.EvaluationContext{})
	require.NoError(t, err)

	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, domain.ConflictWarning, report.Conflicts[0].Level)
	assert.True(t, report.Valid, "timeline overlap warns without blocking")
}

func TestPanickingHeuristicBecomesEngineFault(t *testing.T) {
	bomb := ports.HeuristicFunc("bomb", func(ctx context.Context, in ports.HeuristicInput) []domain.Conflict {
		panic("heuristic exploded")
	})
	p := New(WithHeuristics(bomb))

	report, err := p.Run(context.Background(), fixture(), domain.Pathway{FandomID: "hp"}, domain.EvaluationContext{})
	require.NoError(t, err, "panics must never escape the pipeline")

	assert.False(t, report.Valid)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, domain.CodeEngineFault, report.Violations[0].Code)
	assert.Contains(t, report.Violations[0].Message, StageConflicts)
}

func TestCancelledContextYieldsPartialReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pw := domain.Pathway{FandomID: "hp", TagIDs: []string{"tag-hg", "tag-hd"}}
	report, err := New().Run(ctx, fixture(), pw, domain.EvaluationContext{})

	require.NoError(t, err, "cancellation yields a partial report, not an error")
	assert.True(t, report.Incomplete)
}

func TestTimingsCoverEveryStage(t *testing.T) {
	var observed []string
	sink := ports.TimingSinkFunc(func(stage string, d time.Duration) {
		observed = append(observed, stage)
	})
	p := New(WithTimingSink(sink), WithParallel(false))

	report, err := p.Run(context.Background(), fixture(), domain.Pathway{FandomID: "hp"}, domain.EvaluationContext{})
	require.NoError(t, err)

	want := []string{StageStructural, StageConstraints, StageConditions, StageRelations, StageConflicts, StageAnalysis}
	assert.Equal(t, want, observed, "sink sees every stage in order")

	var fromReport []string
	for _, tm := range report.Timings {
		fromReport = append(fromReport, tm.Stage)
	}
	assert.Equal(t, want, fromReport)
}

func TestComplexityBands(t *testing.T) {
	snap := fixture()

	cases := []struct {
		name string
		pw   domain.Pathway
		band domain.ComplexityBand
	}{
		{"empty is simple", domain.Pathway{FandomID: "hp"}, domain.ComplexitySimple},
		{"a handful is moderate", domain.Pathway{
			FandomID: "hp",
			TagIDs:   []string{"tag-hg", "tag-angst", "tag-fluff"},
			BlockIDs: []string{"block-prologue", "block-reveal", "block-finale"},
		}, domain.ComplexityModerate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(snap, tc.pw)
			assert.Equal(t, tc.band, got.Band, "score %d", got.Score)
		})
	}

	t.Run("block weights raise the score", func(t *testing.T) {
		weighted := fixture()
		weighted.PlotBlocks = append(weighted.PlotBlocks, domain.PlotBlock{
			ID: "block-saga", FandomID: "hp", Complexity: 30,
		})
		got := Score(weighted, domain.Pathway{FandomID: "hp", BlockIDs: []string{"block-saga"}})
		assert.Equal(t, domain.ComplexityEpic, got.Band)
	})
}

func TestEpicPathwaysGetASuggestion(t *testing.T) {
	report := &domain.ValidationReport{Complexity: domain.Complexity{Score: 40, Band: domain.ComplexityEpic}}
	got := Suggest(report)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "splitting")
}
