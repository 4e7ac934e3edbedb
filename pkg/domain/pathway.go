package domain

// Pathway is the combination a user proposes for validation: a fandom plus
// the tags and plot blocks selected so far. The engine never mutates it.
type Pathway struct {
	FandomID string   `json:"fandom_id" yaml:"fandom_id"`
	TagIDs   []string `json:"tag_ids,omitempty" yaml:"tag_ids,omitempty"`
	BlockIDs []string `json:"block_ids,omitempty" yaml:"block_ids,omitempty"`
}

// EvaluationContext carries the runtime facts conditions are checked against.
// It is supplied by the caller alongside the pathway; the engine folds the
// pathway's own tag and block selections into it before evaluating.
type EvaluationContext struct {
	// Tags lists tag IDs considered present.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Completed lists plot block IDs the work has already incorporated.
	Completed []string `json:"completed,omitempty" yaml:"completed,omitempty"`

	// Metadata holds free-form keyed values. Metadata conditions compare
	// against these, and required-context rules check key presence here.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// HasTag reports whether the context contains the given tag ID.
func (e EvaluationContext) HasTag(id string) bool {
	for _, t := range e.Tags {
		if t == id {
			return true
		}
	}
	return false
}

// HasCompleted reports whether the context marks the given block completed.
func (e EvaluationContext) HasCompleted(id string) bool {
	for _, b := range e.Completed {
		if b == id {
			return true
		}
	}
	return false
}
