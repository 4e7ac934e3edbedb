package domain

import "time"

// Severity grades a rule violation. Only critical violations block validity.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// rank orders severities from most to least serious for sorting.
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityMajor:
		return 1
	default:
		return 2
	}
}

// MoreSevereThan reports whether s outranks other.
func (s Severity) MoreSevereThan(other Severity) bool {
	return s.rank() < other.rank()
}

// ConflictLevel grades a heuristic finding. Only error-level findings block
// validity; warnings and info never do.
type ConflictLevel string

const (
	ConflictError   ConflictLevel = "error"
	ConflictWarning ConflictLevel = "warning"
	ConflictInfo    ConflictLevel = "info"
)

// Violation is a single broken rule found during validation.
type Violation struct {
	// Code names the rule, e.g. "mutual_exclusion" or "max_instances".
	Code     string   `json:"code" yaml:"code"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`

	// Subjects lists the entity IDs involved, sorted for determinism.
	Subjects []string `json:"subjects,omitempty" yaml:"subjects,omitempty"`

	// Details carries rule-specific values such as current_count/max_allowed.
	Details map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
}

// Conflict is a heuristic finding: a combination that is allowed by the rule
// catalog but known to read as contradictory or implausible.
type Conflict struct {
	// Source names the heuristic that produced the finding.
	Source   string        `json:"source" yaml:"source"`
	Level    ConflictLevel `json:"level" yaml:"level"`
	Message  string        `json:"message" yaml:"message"`
	Subjects []string      `json:"subjects,omitempty" yaml:"subjects,omitempty"`
}

// ComplexityBand buckets a pathway's complexity score.
type ComplexityBand string

const (
	ComplexitySimple   ComplexityBand = "simple"
	ComplexityModerate ComplexityBand = "moderate"
	ComplexityComplex  ComplexityBand = "complex"
	ComplexityEpic     ComplexityBand = "epic"
)

// Complexity describes how ambitious the pathway is.
type Complexity struct {
	Score int            `json:"score" yaml:"score"`
	Band  ComplexityBand `json:"band" yaml:"band"`
}

// StageTiming records how long one pipeline stage took.
type StageTiming struct {
	Stage    string        `json:"stage" yaml:"stage"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// ValidationReport is the aggregate outcome of validating a pathway.
type ValidationReport struct {
	// Valid is true when no critical violation and no error-level conflict
	// was found. Lesser findings never flip it.
	Valid bool `json:"valid" yaml:"valid"`

	Violations []Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
	Conflicts  []Conflict  `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`

	// Suggestions offers concrete next steps derived from the findings.
	// Advisory only.
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`

	Complexity Complexity `json:"complexity" yaml:"complexity"`

	// Incomplete is set when the run was cut short by deadline or
	// cancellation; the findings gathered so far are still returned.
	Incomplete bool `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`

	// Timings records per-stage durations for observability.
	Timings []StageTiming `json:"timings,omitempty" yaml:"timings,omitempty"`
}

// BlockingCount returns how many findings block validity: critical
// violations plus error-level conflicts.
func (r *ValidationReport) BlockingCount() int {
	n := 0
	for _, v := range r.Violations {
		if v.Severity == SeverityCritical {
			n++
		}
	}
	for _, c := range r.Conflicts {
		if c.Level == ConflictError {
			n++
		}
	}
	return n
}

// ConditionResult reports the outcome of one node in a condition tree.
type ConditionResult struct {
	// Path locates the node, e.g. "all[0].tag_present[1]".
	Path      string `json:"path" yaml:"path"`
	Kind      string `json:"kind" yaml:"kind"`
	Satisfied bool   `json:"satisfied" yaml:"satisfied"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
}

// ConditionReport is the outcome of evaluating one block's condition tree.
type ConditionReport struct {
	BlockID string `json:"block_id" yaml:"block_id"`

	// Valid is true when every root condition holds.
	Valid bool `json:"valid" yaml:"valid"`

	// Conditions lists every evaluated node in document order.
	Conditions []ConditionResult `json:"conditions,omitempty" yaml:"conditions,omitempty"`

	// Summary is a one-line human account, e.g. "3 of 4 conditions satisfied".
	Summary string `json:"summary" yaml:"summary"`
}

// Edge is a proposed dependency edge: From would depend on To.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// GraphAudit is the outcome of checking a fandom's dependency graph, with or
// without a proposed extra edge.
type GraphAudit struct {
	HasCircularDependencies bool `json:"has_circular_dependencies" yaml:"has_circular_dependencies"`

	// CircularPaths lists each cycle as a node ID sequence, canonically
	// rotated so the smallest ID comes first.
	CircularPaths [][]string `json:"circular_paths,omitempty" yaml:"circular_paths,omitempty"`

	// DirectDependencies maps each block to the blocks it depends on
	// directly; AllDependencies holds the transitive closure.
	DirectDependencies map[string][]string `json:"direct_dependencies,omitempty" yaml:"direct_dependencies,omitempty"`
	AllDependencies    map[string][]string `json:"all_dependencies,omitempty" yaml:"all_dependencies,omitempty"`

	// Order is a dependency-first topological order, only set when the
	// graph is acyclic.
	Order []string `json:"order,omitempty" yaml:"order,omitempty"`

	// Warnings lists non-fatal graph defects such as dangling references.
	Warnings []Violation `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	NodeCount int `json:"node_count" yaml:"node_count"`
	EdgeCount int `json:"edge_count" yaml:"edge_count"`
}
