package file

import (
	"encoding/json"
	"fmt"

	"github.com/canonry/canonry/pkg/domain"
)

// catalogFile is the on-disk shape of one fandom's catalog. It differs from
// domain.Snapshot only where YAML cannot express the domain type directly:
// condition values stay untyped here and are re-encoded to JSON so the
// engine's compiler sees the same raw payload every backend produces.
type catalogFile struct {
	Fandom       fandomSpec `yaml:"fandom" json:"fandom"`
	Tags         []tagSpec  `yaml:"tags" json:"tags"`
	TagClasses   []class    `yaml:"tag_classes" json:"tag_classes"`
	PlotBlocks   []block    `yaml:"plot_blocks" json:"plot_blocks"`
	Dependencies []dep      `yaml:"dependencies" json:"dependencies"`
}

type fandomSpec struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type tagSpec struct {
	ID       string            `yaml:"id" json:"id"`
	Name     string            `yaml:"name" json:"name"`
	ClassID  string            `yaml:"class" json:"class"`
	Metadata map[string]string `yaml:"metadata" json:"metadata"`
}

type class struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Rules struct {
		MutualExclusion      []string `yaml:"mutual_exclusion" json:"mutual_exclusion"`
		RequiredContext      []string `yaml:"required_context" json:"required_context"`
		MaxInstances         int      `yaml:"max_instances" json:"max_instances"`
		MinInstances         int      `yaml:"min_instances" json:"min_instances"`
		ApplicableCategories []string `yaml:"applicable_categories" json:"applicable_categories"`
		ExcludedCategories   []string `yaml:"excluded_categories" json:"excluded_categories"`
	} `yaml:"rules" json:"rules"`
}

type block struct {
	ID         string            `yaml:"id" json:"id"`
	Name       string            `yaml:"name" json:"name"`
	Category   string            `yaml:"category" json:"category"`
	ParentID   string            `yaml:"parent" json:"parent"`
	Complexity int               `yaml:"complexity" json:"complexity"`
	Metadata   map[string]string `yaml:"metadata" json:"metadata"`
	Conditions []condition       `yaml:"conditions" json:"conditions"`
}

type condition struct {
	Kind     string      `yaml:"kind" json:"kind"`
	Target   string      `yaml:"target" json:"target"`
	Operator string      `yaml:"operator" json:"operator"`
	Value    any         `yaml:"value" json:"value"`
	Children []condition `yaml:"children" json:"children"`
}

type dep struct {
	ID     string `yaml:"id" json:"id"`
	Source string `yaml:"source" json:"source"`
	Target string `yaml:"target" json:"target"`
	Active *bool  `yaml:"active" json:"active"`
}

func (c catalogFile) toSnapshot(fandomID string) (*domain.Snapshot, error) {
	if c.Fandom.ID != "" && c.Fandom.ID != fandomID {
		return nil, fmt.Errorf("catalog file for %q declares fandom %q", fandomID, c.Fandom.ID)
	}

	snap := &domain.Snapshot{
		Fandom: domain.Fandom{ID: fandomID, Name: c.Fandom.Name},
	}

	for _, t := range c.Tags {
		snap.Tags = append(snap.Tags, domain.Tag{
			ID:       t.ID,
			Name:     t.Name,
			FandomID: fandomID,
			ClassID:  t.ClassID,
			Metadata: t.Metadata,
		})
	}
	for _, cl := range c.TagClasses {
		snap.TagClasses = append(snap.TagClasses, domain.TagClass{
			ID:       cl.ID,
			Name:     cl.Name,
			FandomID: fandomID,
			Rules: domain.ClassRules{
				MutualExclusion:      cl.Rules.MutualExclusion,
				RequiredContext:      cl.Rules.RequiredContext,
				MaxInstances:         cl.Rules.MaxInstances,
				MinInstances:         cl.Rules.MinInstances,
				ApplicableCategories: cl.Rules.ApplicableCategories,
				ExcludedCategories:   cl.Rules.ExcludedCategories,
			},
		})
	}
	for _, b := range c.PlotBlocks {
		conditions, err := convertConditions(b.Conditions)
		if err != nil {
			return nil, fmt.Errorf("plot block %q: %w", b.ID, err)
		}
		snap.PlotBlocks = append(snap.PlotBlocks, domain.PlotBlock{
			ID:         b.ID,
			Name:       b.Name,
			FandomID:   fandomID,
			Category:   b.Category,
			ParentID:   b.ParentID,
			Complexity: b.Complexity,
			Metadata:   b.Metadata,
			Conditions: conditions,
		})
	}
	for _, d := range c.Dependencies {
		active := true
		if d.Active != nil {
			active = *d.Active
		}
		snap.Dependencies = append(snap.Dependencies, domain.BlockDependency{
			ID:            d.ID,
			SourceBlockID: d.Source,
			TargetBlockID: d.Target,
			Active:        active,
		})
	}

	snap.Normalize()
	return snap, nil
}

func convertConditions(specs []condition) ([]domain.Condition, error) {
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
