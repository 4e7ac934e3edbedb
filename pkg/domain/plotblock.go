package domain

import "encoding/json"

// PlotBlock represents a reusable story element. Blocks form a tree within a
// fandom via ParentID, and a directed dependency graph via BlockDependency
// records; a block cannot enter a pathway before the blocks it depends on.
type PlotBlock struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	FandomID string `json:"fandom_id" yaml:"fandom_id"`

	// Category is a free-form grouping label ("setting", "arc", "device").
	// Relationship rules may restrict which categories can co-occur.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// ParentID points at the enclosing block in the tree. Empty at a root.
	// A child implicitly depends on its parent.
	ParentID string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`

	// Conditions gate the block: every root condition must be satisfied by
	// the evaluation context for the block to be usable.
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`

	// Complexity weights the block in the pathway complexity score.
	// Zero counts as one.
	Complexity int `json:"complexity,omitempty" yaml:"complexity,omitempty"`

	// Metadata allows for extensible descriptive key-value pairs.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Group operators for composite conditions.
const (
	// ConditionAll is satisfied when every child is satisfied.
	ConditionAll = "all"
	// ConditionAny is satisfied when at least one child is satisfied.
	ConditionAny = "any"
	// ConditionNot is satisfied when its single child is not.
	ConditionNot = "not"
)

// Leaf condition kinds.
const (
	// ConditionTagPresent checks that a tag ID is in the context tag set.
	ConditionTagPresent = "tag_present"
	// ConditionTagAbsent checks that a tag ID is not in the context tag set.
	ConditionTagAbsent = "tag_absent"
	// ConditionBlockCompleted checks that a block ID is marked completed.
	// The legacy spelling "block_exists" is accepted as a synonym.
	ConditionBlockCompleted = "block_completed"
	// ConditionMetadata compares a context metadata value against Value
	// using Operator.
	ConditionMetadata = "metadata"
	// ConditionTagCount compares how many context tags belong to the class
	// named by Target (or all tags when Target is empty) against Value.
	ConditionTagCount = "tag_count"
)

// Comparison operators for leaf conditions.
const (
	OpEq       = "eq"
	OpNe       = "ne"
	OpGt       = "gt"
	OpGte      = "gte"
	OpLt       = "lt"
	OpLte      = "lte"
	OpIn       = "in"
	OpContains = "contains"
)

// Condition is one node in a block's condition tree. Group kinds carry
// Children; leaf kinds carry Target, Operator, and Value.
//
// Value stays raw here. The engine decodes it exactly once, at the validator
// boundary, so malformed payloads surface as structural errors before any
// evaluation runs.
type Condition struct {
	Kind     string          `json:"kind" yaml:"kind"`
	Target   string          `json:"target,omitempty" yaml:"target,omitempty"`
	Operator string          `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value    json.RawMessage `json:"value,omitempty" yaml:"value,omitempty"`
	Children []Condition     `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsGroup reports whether the condition is a composite node.
func (c Condition) IsGroup() bool {
	switch c.Kind {
	case ConditionAll, ConditionAny, ConditionNot:
		return true
	}
	return false
}
