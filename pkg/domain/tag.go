package domain

// Tag represents a single selectable label within a fandom, such as a
// character, a relationship, or a trope.
type Tag struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	FandomID string `json:"fandom_id" yaml:"fandom_id"`

	// ClassID links the tag to the TagClass that governs it. Empty for
	// free-standing tags, which escape class-level constraints.
	ClassID string `json:"class_id,omitempty" yaml:"class_id,omitempty"`

	// Metadata allows for extensible descriptive key-value pairs.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// TagClass groups related tags and carries the constraint rules the engine
// enforces over every pathway that touches the class.
type TagClass struct {
	ID       string     `json:"id" yaml:"id"`
	Name     string     `json:"name" yaml:"name"`
	FandomID string     `json:"fandom_id" yaml:"fandom_id"`
	Rules    ClassRules `json:"rules" yaml:"rules"`
}

// ClassRules defines the constraints attached to a TagClass.
type ClassRules struct {
	// MutualExclusion lists tag IDs of which a pathway may select at most one.
	MutualExclusion []string `json:"mutual_exclusion,omitempty" yaml:"mutual_exclusion,omitempty"`

	// RequiredContext lists metadata keys that must be present in the
	// evaluation context whenever the pathway touches this class.
	RequiredContext []string `json:"required_context,omitempty" yaml:"required_context,omitempty"`

	// MaxInstances caps how many tags of this class a pathway may carry.
	// Zero means unbounded.
	MaxInstances int `json:"max_instances,omitempty" yaml:"max_instances,omitempty"`

	// MinInstances sets a floor that applies once the pathway touches the
	// class at all. Zero disables the check.
	MinInstances int `json:"min_instances,omitempty" yaml:"min_instances,omitempty"`

	// ApplicableCategories allows tags of this class only alongside plot
	// blocks of the listed categories. Empty means any category.
	ApplicableCategories []string `json:"applicable_categories,omitempty" yaml:"applicable_categories,omitempty"`

	// ExcludedCategories forbids tags of this class alongside plot blocks
	// of the listed categories. Exclusion wins over applicability.
	ExcludedCategories []string `json:"excluded_categories,omitempty" yaml:"excluded_categories,omitempty"`
}
