package loam

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/canonry/canonry/pkg/domain"
)

// Entity kinds recognized in catalog frontmatter.
const (
	KindFandom     = "fandom"
	KindTag        = "tag"
	KindTagClass   = "tag_class"
	KindPlotBlock  = "plot_block"
	KindDependency = "dependency"
)

// EntityMetadata represents the frontmatter of one catalog document.
// It uses "mapstructure" tags to match the YAML keys authors write.
// One document describes one entity; the markdown body below the
// frontmatter is free-form prose for authors and is ignored by the engine.
type EntityMetadata struct {
	ID       string `json:"id" mapstructure:"id"`
	Kind     string `json:"kind" mapstructure:"kind"`
	Name     string `json:"name" mapstructure:"name"`
	FandomID string `json:"fandom" mapstructure:"fandom"`

	// Tag fields
	ClassID  string         `json:"class" mapstructure:"class"`
	Metadata map[string]any `json:"metadata" mapstructure:"metadata"`

	// Tag class fields
	Rules *RulesSpec `json:"rules" mapstructure:"rules"`

	// Plot block fields
	Category   string          `json:"category" mapstructure:"category"`
	ParentID   string          `json:"parent" mapstructure:"parent"`
	Complexity int             `json:"complexity" mapstructure:"complexity"`
	Conditions []ConditionSpec `json:"conditions" mapstructure:"conditions"`

	// Dependency fields. Active defaults to true when omitted.
	Source string `json:"source" mapstructure:"source"`
	Target string `json:"target" mapstructure:"target"`
	Active *bool  `json:"active" mapstructure:"active"`
}

// RulesSpec mirrors domain.ClassRules in frontmatter form.
type RulesSpec struct {
	MutualExclusion      []string `json:"mutual_exclusion" mapstructure:"mutual_exclusion"`
	RequiredContext      []string `json:"required_context" mapstructure:"required_context"`
	MaxInstances         int      `json:"max_instances" mapstructure:"max_instances"`
	MinInstances         int      `json:"min_instances" mapstructure:"min_instances"`
	ApplicableCategories []string `json:"applicable_categories" mapstructure:"applicable_categories"`
	ExcludedCategories   []string `json:"excluded_categories" mapstructure:"excluded_categories"`
}

// ConditionSpec is the frontmatter form of a condition tree node. Value stays
// untyped here; it is re-encoded to JSON so the engine's compiler sees the
// same raw payload it would get from the HTTP surface.
type ConditionSpec struct {
	Kind     string          `json:"kind" mapstructure:"kind"`
	Target   string          `json:"target" mapstructure:"target"`
	Operator string          `json:"operator" mapstructure:"operator"`
	Value    any             `json:"value" mapstructure:"value"`
	Children []ConditionSpec `json:"children" mapstructure:"children"`
}

func (m EntityMetadata) toTag(id string) domain.Tag {
	return domain.Tag{
		ID:       id,
		Name:     m.Name,
		FandomID: m.FandomID,
		ClassID:  m.ClassID,
		Metadata: flattenMetadata(m.Metadata),
	}
}

func (m EntityMetadata) toClass(id string) domain.TagClass {
	class := domain.TagClass{ID: id, Name: m.Name, FandomID: m.FandomID}
	if m.Rules != nil {
		class.Rules = domain.ClassRules{
			MutualExclusion:      m.Rules.MutualExclusion,
			RequiredContext:      m.Rules.RequiredContext,
			MaxInstances:         m.Rules.MaxInstances,
			MinInstances:         m.Rules.MinInstances,
			ApplicableCategories: m.Rules.ApplicableCategories,
			ExcludedCategories:   m.Rules.ExcludedCategories,
		}
	}
	return class
}

func (m EntityMetadata) toBlock(id string) (domain.PlotBlock, error) {
	conditions, err := convertConditions(m.Conditions)
	if err != nil {
		return domain.PlotBlock{}, fmt.Errorf("plot block %q: %w", id, err)
	}
	return domain.PlotBlock{
		ID:         id,
		Name:       m.Name,
		FandomID:   m.FandomID,
		Category:   m.Category,
		ParentID:   m.ParentID,
		Complexity: m.Complexity,
		Conditions: conditions,
		Metadata:   flattenMetadata(m.Metadata),
	}, nil
}

func (m EntityMetadata) toDependency(id string) domain.BlockDependency {
	active := true
	if m.Active != nil {
		active = *m.Active
	}
	return domain.BlockDependency{
		ID:            id,
		SourceBlockID: m.Source,
		TargetBlockID: m.Target,
		Active:        active,
	}
}

func convertConditions(specs []ConditionSpec) ([]domain.Condition, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make([]domain.Condition, 0, len(specs))
	for i, spec := range specs {
		cond := domain.Condition{
			Kind:     spec.Kind,
			Target:   spec.Target,
			Operator: spec.Operator,
		}
		if spec.Value != nil {
			raw, err := json.Marshal(spec.Value)
			if err != nil {
				return nil, fmt.Errorf("condition %d: unencodable value: %w", i, err)
			}
			cond.Value = raw
		}
		children, err := convertConditions(spec.Children)
		if err != nil {
			return nil, err
		}
		cond.Children = children
		out = append(out, cond)
	}
	return out, nil
}

// flattenMetadata converts nested frontmatter metadata into the flat
// map[string]string the domain carries. Nested keys join with dots; list
// values join with ", " so heuristics that split on commas keep working.
func flattenMetadata(src map[string]any) map[string]string {
	if len(src) == 0 {
		return nil
	}
	res := make(map[string]string)
	var visit func(prefix string, v any)

	visit = func(prefix string, v any) {
		switch val := v.(type) {
		case map[string]any:
			for k, sub := range val {
				fullKey := k
				if prefix != "" {
					fullKey = prefix + "." + k
				}
				visit(fullKey, sub)
			}
		case map[any]any: // YAML often decodes to this
			for k, sub := range val {
				fullKey := fmt.Sprintf("%v", k)
				if prefix != "" {
					fullKey = prefix + "." + fullKey
				}
				visit(fullKey, sub)
			}
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprintf("%v", item))
			}
			res[prefix] = strings.Join(parts, ", ")
		default:
			if prefix != "" {
				res[prefix] = fmt.Sprintf("%v", val)
			}
		}
	}

	for k, v := range src {
		visit(k, v)
	}
	return res
}
