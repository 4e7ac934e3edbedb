package conditions

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/canonry/canonry/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func testSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Fandom: domain.Fandom{ID: "hp"},
		Tags: []domain.Tag{
			{ID: "tag-harry", ClassID: "class-char"},
			{ID: "tag-draco", ClassID: "class-char"},
			{ID: "tag-angst"},
		},
	}
}

func TestCompileRejectsMalformedTrees(t *testing.T) {
	e := New(testSnapshot(), 0)

	cases := []struct {
		name string
		cond domain.Condition
		kind string
	}{
		{
			name: "unknown kind",
			cond: domain.Condition{Kind: "tag_sometimes_present", Target: "tag-harry"},
			kind: "unknown_condition_kind",
		},
		{
			name: "empty group",
			cond: domain.Condition{Kind: domain.ConditionAll},
			kind: "empty_group",
		},
		{
			name: "not with two children",
			cond: domain.Condition{Kind: domain.ConditionNot, Children: []domain.Condition{
				{Kind: domain.ConditionTagPresent, Target: "a"},
				{Kind: domain.ConditionTagPresent, Target: "b"},
			}},
			kind: "malformed_condition",
		},
		{
			name: "leaf without target",
			cond: domain.Condition{Kind: domain.ConditionTagPresent},
			kind: "malformed_condition",
		},
		{
			name: "in with scalar payload",
			cond: domain.Condition{Kind: domain.ConditionMetadata, Target: "era", Operator: domain.OpIn, Value: raw(`"war"`)},
			kind: "malformed_condition",
		},
		{
			name: "object payload",
			cond: domain.Condition{Kind: domain.ConditionMetadata, Target: "era", Operator: domain.OpEq, Value: raw(`{"x":1}`)},
			kind: "malformed_condition",
		},
		{
			name: "tag_count with string payload",
			cond: domain.Condition{Kind: domain.ConditionTagCount, Operator: domain.OpGte, Value: raw(`"many"`)},
			kind: "malformed_condition",
		},
		{
			name: "missing operator on metadata",
			cond: domain.Condition{Kind: domain.ConditionMetadata, Target: "era", Value: raw(`"war"`)},
			kind: "malformed_condition",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Compile([]domain.Condition{tc.cond})
			require.Error(t, err)

			var structural *domain.StructuralError
			require.True(t, errors.As(err, &structural), "expected a StructuralError, got %T", err)
			assert.Equal(t, tc.kind, structural.Kind)
		})
	}
}

func TestCompileEnforcesDepthLimit(t *testing.T) {
	e := New(testSnapshot(), 2)

	deep := domain.Condition{Kind: domain.ConditionAll, Children: []domain.Condition{
		{Kind: domain.ConditionAny, Children: []domain.Condition{
			{Kind: domain.ConditionTagPresent, Target: "tag-harry"},
		}},
	}}

	_, err := e.Compile([]domain.Condition{deep})
	var structural *domain.StructuralError
	require.True(t, errors.As(err, &structural))
	assert.Equal(t, "condition_too_deep", structural.Kind)
}

func TestCompileNormalizesLegacyBlockExists(t *testing.T) {
	e := New(testSnapshot(), 0)
	compiled, err := e.Compile([]domain.Condition{
		{Kind: "block_exists", Target: "block-prologue"},
	})
	require.NoError(t, err)
	require.Len(t, compiled, 1)
	assert.Equal(t, domain.ConditionBlockCompleted, compiled[0].Kind)
}

func TestEvaluateLeaves(t *testing.T) {
	e := New(testSnapshot(), 0)
	ectx := domain.EvaluationContext{
		Tags:      []string{"tag-harry", "tag-draco"},
		Completed: []string{"block-prologue"},
		Metadata: map[string]any{
			"era":        "post-war",
			"word_count": 85000,
			"chapters":   "12",
			"rating":     "teen",
			"warnings":   []any{"violence", "language"},
		},
	}

	cases := []struct {
		name      string
		cond      domain.Condition
		satisfied bool
	}{
		{"present tag", domain.Condition{Kind: domain.ConditionTagPresent, Target: "tag-harry"}, true},
		{"absent tag required absent", domain.Condition{Kind: domain.ConditionTagAbsent, Target: "tag-ginny"}, true},
		{"present tag required absent", domain.Condition{Kind: domain.ConditionTagAbsent, Target: "tag-draco"}, false},
		{"completed block", domain.Condition{Kind: domain.ConditionBlockCompleted, Target: "block-prologue"}, true},
		{"uncompleted block", domain.Condition{Kind: domain.ConditionBlockCompleted, Target: "block-epilogue"}, false},
		{"metadata string eq", domain.Condition{Kind: domain.ConditionMetadata, Target: "era", Operator: domain.OpEq, Value: raw(`"post-war"`)}, true},
		{"metadata number gte", domain.Condition{Kind: domain.ConditionMetadata, Target: "word_count", Operator: domain.OpGte, Value: raw(`50000`)}, true},
		{"numeric string coerces for ordering", domain.Condition{Kind: domain.ConditionMetadata, Target: "chapters", Operator: domain.OpGt, Value: raw(`3`)}, true},
		{"metadata in list", domain.Condition{Kind: domain.ConditionMetadata, Target: "rating", Operator: domain.OpIn, Value: raw(`["general","teen"]`)}, true},
		{"metadata not in list", domain.Condition{Kind: domain.ConditionMetadata, Target: "rating", Operator: domain.OpIn, Value: raw(`["mature","explicit"]`)}, false},
		{"metadata list contains", domain.Condition{Kind: domain.ConditionMetadata, Target: "warnings", Operator: domain.OpContains, Value: raw(`"violence"`)}, true},
		{"missing key", domain.Condition{Kind: domain.ConditionMetadata, Target: "beta_read", Operator: domain.OpEq, Value: raw(`true`)}, false},
		{"kind mismatch reads unsatisfied", domain.Condition{Kind: domain.ConditionMetadata, Target: "word_count", Operator: domain.OpEq, Value: raw(`"lots"`)}, false},
		{"class tag count", domain.Condition{Kind: domain.ConditionTagCount, Target: "class-char", Operator: domain.OpEq, Value: raw(`2`)}, true},
		{"total tag count", domain.Condition{Kind: domain.ConditionTagCount, Operator: domain.OpLte, Value: raw(`5`)}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			compiled, err := e.Compile([]domain.Condition{tc.cond})
			require.NoError(t, err)

			ok, results := e.Evaluate(compiled, ectx)
			assert.Equal(t, tc.satisfied, ok)
			require.Len(t, results, 1)
			assert.Equal(t, tc.satisfied, results[0].Satisfied)
			if !tc.satisfied {
				assert.NotEmpty(t, results[0].Message, "unsatisfied leaves must say why")
			}
		})
	}
}

func TestEvaluateGroups(t *testing.T) {
	e := New(testSnapshot(), 0)
	ectx := domain.EvaluationContext{Tags: []string{"tag-harry"}}

	t.Run("any passes with one satisfiable branch", func(t *testing.T) {
		compiled, err := e.Compile([]domain.Condition{{
			Kind: domain.ConditionAny,
			Children: []domain.Condition{
				{Kind: domain.ConditionTagPresent, Target: "tag-ginny"},
				{Kind: domain.ConditionTagPresent, Target: "tag-harry"},
			},
		}})
		require.NoError(t, err)

		ok, results := e.Evaluate(compiled, ectx)
		assert.True(t, ok)
		// Group plus both children: every node is reported.
		require.Len(t, results, 3)
		assert.Equal(t, "any[0]", results[0].Path)
		assert.True(t, results[0].Satisfied)
		assert.Equal(t, "any[0].tag_present[0]", results[1].Path)
		assert.False(t, results[1].Satisfied)
		assert.Equal(t, "any[0].tag_present[1]", results[2].Path)
		assert.True(t, results[2].Satisfied)
	})

	t.Run("any fails with no satisfiable branch", func(t *testing.T) {
		compiled, err := e.Compile([]domain.Condition{{
			Kind: domain.ConditionAny,
			Children: []domain.Condition{
				{Kind: domain.ConditionTagPresent, Target: "tag-ginny"},
				{Kind: domain.ConditionTagPresent, Target: "tag-luna"},
			},
		}})
		require.NoError(t, err)

		ok, _ := e.Evaluate(compiled, ectx)
		assert.False(t, ok)
	})

	t.Run("not inverts its child", func(t *testing.T) {
		compiled, err := e.Compile([]domain.Condition{{
			Kind: domain.ConditionNot,
			Children: []domain.Condition{
				{Kind: domain.ConditionTagPresent, Target: "tag-ginny"},
			},
		}})
		require.NoError(t, err)

		ok, _ := e.Evaluate(compiled, ectx)
		assert.True(t, ok)
	})

	t.Run("all requires every child", func(t *testing.T) {
		compiled, err := e.Compile([]domain.Condition{{
			Kind: domain.ConditionAll,
			Children: []domain.Condition{
				{Kind: domain.ConditionTagPresent, Target: "tag-harry"},
				{Kind: domain.ConditionTagPresent, Target: "tag-ginny"},
			},
		}})
		require.NoError(t, err)

		ok, _ := e.Evaluate(compiled, ectx)
		assert.False(t, ok)
	})

	t.Run("empty tree holds vacuously", func(t *testing.T) {
		ok, results := e.Evaluate(nil, ectx)
		assert.True(t, ok)
		assert.Empty(t, results)
	})
}
