package domain

// Violation codes emitted by the engine. Codes are stable identifiers meant
// for programmatic handling; messages are for humans.
const (
	CodeMutualExclusion       = "mutual_exclusion"
	CodeRequiredContext       = "required_context"
	CodeMaxInstances          = "max_instances"
	CodeMinInstances          = "min_instances"
	CodeSameFandomRequired    = "same_fandom_required"
	CodeCategoryCompatibility = "category_compatibility"
	CodeCircularDependency    = "circular_dependency"
	CodeUnknownReference      = "unknown_reference"
	CodeMissingDependency     = "missing_dependency"
	CodeDanglingParent        = "dangling_parent"
	CodeUnsatisfiedCondition  = "unsatisfied_condition"
	CodeDuplicateEntry        = "duplicate_entry"
	CodeStructuralError       = "structural_error"
	CodeEngineFault           = "engine_fault"
)
