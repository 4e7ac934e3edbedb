package rules

import (
	"testing"

	"github.com/canonry/canonry/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shipSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Fandom: domain.Fandom{ID: "hp", Name: "Wizarding World"},
		Tags: []domain.Tag{
			{ID: "tag-hg", Name: "Harry/Ginny", FandomID: "hp", ClassID: "class-ship"},
			{ID: "tag-hd", Name: "Harry/Draco", FandomID: "hp", ClassID: "class-ship"},
			{ID: "tag-angst", Name: "Angst", FandomID: "hp"},
			{ID: "tag-au", Name: "Alternate Universe", FandomID: "hp", ClassID: "class-setting"},
			{ID: "tag-timetravel", Name: "Time Travel", FandomID: "hp", ClassID: "class-setting"},
			{ID: "tag-soulbond", Name: "Soul Bond", FandomID: "hp", ClassID: "class-setting"},
			{ID: "tag-orphan", Name: "Orphaned Class", FandomID: "hp", ClassID: "class-gone"},
		},
		TagClasses: []domain.TagClass{
			{
				ID: "class-ship", Name: "Harry Ships", FandomID: "hp",
				Rules: domain.ClassRules{MutualExclusion: []string{"tag-hg", "tag-hd"}},
			},
			{
				ID: "class-setting", Name: "Settings", FandomID: "hp",
				Rules: domain.ClassRules{MaxInstances: 2, MinInstances: 1},
			},
			{
				ID: "class-era", Name: "Era", FandomID: "hp",
				Rules: domain.ClassRules{RequiredContext: []string{"era", "timeline_anchor"}},
			},
		},
		PlotBlocks: []domain.PlotBlock{
			{ID: "block-wedding", Name: "The Wedding", FandomID: "hp"},
		},
	}
}

func TestMutualExclusion(t *testing.T) {
	snap := shipSnapshot()

	t.Run("two exclusive tags produce exactly one violation", func(t *testing.T) {
		pw := domain.Pathway{FandomID: "hp", TagIDs: []string{"tag-hg", "tag-hd", "tag-angst"}}
		got := Evaluate(snap, pw, domain.EvaluationContext{})

		require.Len(t, got, 1)
		assert.Equal(t, domain.CodeMutualExclusion, got[0].Code)
		assert.Equal(t, domain.SeverityCritical, got[0].Severity)
		assert.Equal(t, []string{"tag-hd", "tag-hg"}, got[0].Subjects)
	})

	t.Run("a single tag from the set is fine", func(t *testing.T) {
		pw := domain.Pathway{FandomID: "hp", TagIDs: []string{"tag-hg", "tag-angst"}}
		assert.Empty(t, Evaluate(snap, pw, domain.EvaluationContext{}))
	})
}

func TestInstanceLimits(t *testing.T) {
	snap := shipSnapshot()

	t.Run("over the cap reports counts", func(t *testing.T) {
		pw := domain.Pathway{
			FandomID: "hp",
			TagIDs:   []string{"tag-au", "tag-timetravel", "tag-soulbond"},
		}
		got := Evaluate(snap, pw, domain.EvaluationContext{})

		require.Len(t, got, 1)
		v := got[0]
		assert.Equal(t, domain.CodeMaxInstances, v.Code)
		assert.Equal(t, "3", v.Details["current_count"])
		assert.Equal(t, "2", v.Details["max_allowed"])
		assert.Equal(t, []string{"tag-au", "tag-soulbond", "tag-timetravel"}, v.Subjects)
	})

	t.Run("untouched class never trips its minimum", func(t *testing.T) {
		pw := domain.Pathway{FandomID: "hp", TagIDs: []string{"tag-angst"}}
		assert.Empty(t, Evaluate(snap, pw, domain.EvaluationContext{}))
	})
}

func TestRequiredContext(t *testing.T) {
	snap := shipSnapshot()
	snap.Tags = append(snap.Tags, domain.Tag{
		ID: "tag-marauders", Name: "Marauders Era", FandomID: "hp", ClassID: "class-era",
	})

	pw := domain.Pathway{FandomID: "hp", TagIDs: []string{"tag-marauders"}}

	t.Run("missing keys are listed sorted", func(t *testing.T) {
		got := Evaluate(snap, pw, domain.EvaluationContext{
			Metadata: map[string]any{"era": "1977"},
		})
		require.Len(t, got, 1)
		assert.Equal(t, domain.CodeRequiredContext, got[0].Code)
		assert.Equal(t, "timeline_anchor", got[0].Details["missing_keys"])
	})

	t.Run("all keys present passes", func(t *testing.T) {
		got := Evaluate(snap, pw, domain.EvaluationContext{
			Metadata: map[string]any{"era": "1977", "timeline_anchor": "first war"},
		})
		assert.Empty(t, got)
	})
}

func TestUnknownReferences(t *testing.T) {
	snap := shipSnapshot()
	pw := domain.Pathway{
		FandomID: "hp",
		TagIDs:   []string{"tag-nope", "tag-angst"},
		BlockIDs: []string{"block-missing", "block-wedding"},
	}

	got := Evaluate(snap, pw, domain.EvaluationContext{})
	require.Len(t, got, 2)
	for _, v := range got {
		assert.Equal(t, domain.CodeUnknownReference, v.Code)
		assert.Equal(t, domain.SeverityMajor, v.Severity, "unknown references flag, they do not block")
	}
	assert.Equal(t, []string{"tag-nope"}, got[0].Subjects)
	assert.Equal(t, []string{"block-missing"}, got[1].Subjects)
}

func TestTagWithMissingClass(t *testing.T) {
	snap := shipSnapshot()
	pw := domain.Pathway{FandomID: "hp", TagIDs: []string{"tag-orphan"}}

	got := Evaluate(snap, pw, domain.EvaluationContext{})
	require.Len(t, got, 1)
	assert.Equal(t, domain.CodeUnknownReference, got[0].Code)
	assert.Contains(t, got[0].Message, "class-gone")
}
