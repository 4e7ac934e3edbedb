package conditions

import (
	"fmt"
	"strings"

	"github.com/canonry/canonry/pkg/domain"
)

// DefaultMaxDepth bounds condition tree nesting when the caller does not
// override it.
const DefaultMaxDepth = 8

// Compiled is one node of a decoded condition tree. Group kinds carry
// Children; leaf kinds carry Target, Operator, and the decoded Value.
type Compiled struct {
	Kind     string
	Target   string
	Operator string
	Value    Value
	Children []Compiled

	// Path locates the node for reports, e.g. "all[0].tag_present[1]".
	Path string
}

// Evaluator compiles and evaluates condition trees against one snapshot.
type Evaluator struct {
	maxDepth   int
	tagClasses map[string]string // tag ID -> class ID
}

// New builds an evaluator for a snapshot. maxDepth <= 0 selects
// DefaultMaxDepth.
func New(snap *domain.Snapshot, maxDepth int) *Evaluator {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	idx := make(map[string]string, len(snap.Tags))
	for _, t := range snap.Tags {
		if t.ClassID != "" {
			idx[t.ID] = t.ClassID
		}
	}
	return &Evaluator{maxDepth: maxDepth, tagClasses: idx}
}

// CompileBlocks compiles the condition trees of every given block, keyed by
// block ID. The first malformed tree aborts compilation; its error names the
// offending block and node path.
func (e *Evaluator) CompileBlocks(blocks []domain.PlotBlock) (map[string][]Compiled, error) {
	out := make(map[string][]Compiled, len(blocks))
	for _, b := range blocks {
		compiled, err := e.Compile(b.Conditions)
		if err != nil {
			return nil, fmt.Errorf("block %q: %w", b.ID, err)
		}
		out[b.ID] = compiled
	}
	return out, nil
}

// Compile walks a condition tree, decoding every payload and checking shape.
// All defects are reported as *domain.StructuralError.
func (e *Evaluator) Compile(conds []domain.Condition) ([]Compiled, error) {
	out := make([]Compiled, 0, len(conds))
	for i, c := range conds {
		node, err := e.compile(c, fmt.Sprintf("%s[%d]", kindLabel(c.Kind), i), 1)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

func kindLabel(kind string) string {
	if kind == "" {
		return "condition"
	}
	return kind
}

func (e *Evaluator) compile(c domain.Condition, path string, depth int) (Compiled, error) {
	if depth > e.maxDepth {
		return Compiled{}, domain.NewStructuralError("condition_too_deep",
			"condition at %s exceeds the maximum nesting depth of %d", path, e.maxDepth)
	}

	if c.IsGroup() {
		return e.compileGroup(c, path, depth)
	}
	return e.compileLeaf(c, path)
}

func (e *Evaluator) compileGroup(c domain.Condition, path string, depth int) (Compiled, error) {
	if len(c.Children) == 0 {
		return Compiled{}, domain.NewStructuralError("empty_group",
			"group %q at %s has no children", c.Kind, path)
	}
	if c.Kind == domain.ConditionNot && len(c.Children) != 1 {
		return Compiled{}, domain.NewStructuralError("malformed_condition",
			"group %q at %s must have exactly one child, has %d", c.Kind, path, len(c.Children))
	}

	node := Compiled{Kind: c.Kind, Path: path, Children: make([]Compiled, 0, len(c.Children))}
	for i, child := range c.Children {
		childPath := fmt.Sprintf("%s.%s[%d]", path, kindLabel(child.Kind), i)
		compiled, err := e.compile(child, childPath, depth+1)
		if err != nil {
			return Compiled{}, err
		}
		node.Children = append(node.Children, compiled)
	}
	return node, nil
}

func (e *Evaluator) compileLeaf(c domain.Condition, path string) (Compiled, error) {
	if len(c.Children) > 0 {
		return Compiled{}, domain.NewStructuralError("malformed_condition",
			"leaf %q at %s must not have children", c.Kind, path)
	}

	kind := c.Kind
	// Legacy spelling from older catalogs.
	if kind == "block_exists" {
		kind = domain.ConditionBlockCompleted
	}

	value, err := decodeValue(c.Value)
	if err != nil {
		return Compiled{}, domain.NewStructuralError("malformed_condition",
			"leaf %q at %s: %v", kind, path, err)
	}

	node := Compiled{Kind: kind, Target: c.Target, Operator: c.Operator, Value: value, Path: path}

	switch kind {
	case domain.ConditionTagPresent, domain.ConditionTagAbsent, domain.ConditionBlockCompleted:
		if c.Target == "" {
			return Compiled{}, domain.NewStructuralError("malformed_condition",
				"leaf %q at %s requires a target", kind, path)
		}

	case domain.ConditionMetadata:
		if c.Target == "" {
			return Compiled{}, domain.NewStructuralError("malformed_condition",
				"metadata leaf at %s requires a target key", path)
		}
		if err := checkOperator(kind, c.Operator, value); err != nil {
			return Compiled{}, domain.NewStructuralError("malformed_condition", "leaf at %s: %v", path, err)
		}

	case domain.ConditionTagCount:
		if err := checkOperator(kind, c.Operator, value); err != nil {
			return Compiled{}, domain.NewStructuralError("malformed_condition", "leaf at %s: %v", path, err)
		}

	default:
		return Compiled{}, domain.NewStructuralError("unknown_condition_kind",
			"condition kind %q at %s is not recognized", c.Kind, path)
	}
	return node, nil
}

// checkOperator validates an operator against the decoded payload shape.
func checkOperator(kind, op string, value Value) error {
	switch op {
	case domain.OpEq, domain.OpNe:
		if value.Kind == ValueAbsent {
			return fmt.Errorf("operator %q requires a value", op)
		}
	case domain.OpGt, domain.OpGte, domain.OpLt, domain.OpLte:
		if kind == domain.ConditionTagCount && value.Kind != ValueNumber {
			return fmt.Errorf("operator %q on tag_count requires a numeric value, got %s", op, value.Kind)
		}
		if value.Kind != ValueNumber && value.Kind != ValueString {
			return fmt.Errorf("operator %q requires a number or string value, got %s", op, value.Kind)
		}
	case domain.OpIn:
		if kind == domain.ConditionTagCount {
			return fmt.Errorf("operator %q is not supported on tag_count", op)
		}
		if value.Kind != ValueList {
			return fmt.Errorf("operator %q requires a list value, got %s", op, value.Kind)
		}
	case domain.OpContains:
		if kind == domain.ConditionTagCount {
			return fmt.Errorf("operator %q is not supported on tag_count", op)
		}
		if value.Kind != ValueString && value.Kind != ValueNumber && value.Kind != ValueBool {
			return fmt.Errorf("operator %q requires a scalar value, got %s", op, value.Kind)
		}
	case "":
		return fmt.Errorf("missing operator")
	default:
		return fmt.Errorf("unknown operator %q", op)
	}

	if kind == domain.ConditionTagCount && value.Kind != ValueNumber {
		return fmt.Errorf("tag_count requires a numeric value, got %s", value.Kind)
	}
	return nil
}

// Evaluate walks a compiled tree against the context. Every node is visited,
// satisfied or not, so reports always show the full picture. The boolean is
// true when all root conditions hold; an empty tree holds vacuously.
func (e *Evaluator) Evaluate(compiled []Compiled, ectx domain.EvaluationContext) (bool, []domain.ConditionResult) {
	all := true
	var results []domain.ConditionResult
	for _, node := range compiled {
		ok := e.eval(node, ectx, &results)
		all = all && ok
	}
	return all, results
}

func (e *Evaluator) eval(node Compiled, ectx domain.EvaluationContext, results *[]domain.ConditionResult) bool {
	switch node.Kind {
	case domain.ConditionAll, domain.ConditionAny, domain.ConditionNot:
		return e.evalGroup(node, ectx, results)
	default:
		ok, msg := e.evalLeaf(node, ectx)
		*results = append(*results, domain.ConditionResult{
			Path:      node.Path,
			Kind:      node.Kind,
			Satisfied: ok,
			Message:   msg,
		})
		return ok
	}
}

func (e *Evaluator) evalGroup(node Compiled, ectx domain.EvaluationContext, results *[]domain.ConditionResult) bool {
	// Reserve the group's slot so it precedes its children in the list.
	idx := len(*results)
	*results = append(*results, domain.ConditionResult{Path: node.Path, Kind: node.Kind})

	satisfied := 0
	for _, child := range node.Children {
		if e.eval(child, ectx, results) {
			satisfied++
		}
	}

	var ok bool
	switch node.Kind {
	case domain.ConditionAll:
		ok = satisfied == len(node.Children)
	case domain.ConditionAny:
		ok = satisfied > 0
	case domain.ConditionNot:
		ok = satisfied == 0
	}
	(*results)[idx].Satisfied = ok
	return ok
}

func (e *Evaluator) evalLeaf(node Compiled, ectx domain.EvaluationContext) (bool, string) {
	switch node.Kind {
	case domain.ConditionTagPresent:
		if ectx.HasTag(node.Target) {
			return true, ""
		}
		return false, fmt.Sprintf("tag %q is not present", node.Target)

	case domain.ConditionTagAbsent:
		if !ectx.HasTag(node.Target) {
			return true, ""
		}
		return false, fmt.Sprintf("tag %q is present but must be absent", node.Target)

	case domain.ConditionBlockCompleted:
		if ectx.HasCompleted(node.Target) {
			return true, ""
		}
		return false, fmt.Sprintf("block %q is not completed", node.Target)

	case domain.ConditionMetadata:
		raw, ok := ectx.Metadata[node.Target]
		if !ok {
			return false, fmt.Sprintf("context has no value for key %q", node.Target)
		}
		left, err := classify(raw, false)
		if err != nil {
			return false, fmt.Sprintf("context value for key %q is not comparable: %v", node.Target, err)
		}
		return compare(node.Operator, left, node.Value)

	case domain.ConditionTagCount:
		n := e.countTags(node.Target, ectx)
		return compareNumbers(node.Operator, float64(n), node.Value.Num)
	}
	return false, fmt.Sprintf("condition kind %q cannot be evaluated", node.Kind)
}

// countTags counts context tags belonging to the class named by target, or
// all context tags when target is empty. Tags missing from the catalog never
// count toward a class.
func (e *Evaluator) countTags(target string, ectx domain.EvaluationContext) int {
	if target == "" {
		return len(ectx.Tags)
	}
	n := 0
	for _, id := range ectx.Tags {
		if e.tagClasses[id] == target {
			n++
		}
	}
	return n
}

// compare applies a binary operator. left comes from the context, right from
// the condition payload. Kind mismatches read as unsatisfied, never as
// errors; the message says why.
func compare(op string, left, right Value) (bool, string) {
	switch op {
	case domain.OpEq:
		if left.Kind != right.Kind {
			return false, kindMismatch(left, right)
		}
		if left.equal(right) {
			return true, ""
		}
		return false, fmt.Sprintf("%s is not equal to %s", left, right)

	case domain.OpNe:
		if left.Kind != right.Kind {
			// Different kinds are trivially not equal.
			return true, ""
		}
		if !left.equal(right) {
			return true, ""
		}
		return false, fmt.Sprintf("%s equals %s", left, right)

	case domain.OpGt, domain.OpGte, domain.OpLt, domain.OpLte:
		// A numeric string on either side is ordered as a number.
		if ln, lok := left.asNumber(); lok {
			if rn, rok := right.asNumber(); rok {
				return compareNumbers(op, ln, rn)
			}
		}
		if left.Kind == ValueString && right.Kind == ValueString {
			return compareStrings(op, left.Str, right.Str)
		}
		return false, kindMismatch(left, right)

	case domain.OpIn:
		for _, el := range right.List {
			if left.equal(el) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("%s is not in %s", left, right)

	case domain.OpContains:
		if left.Kind == ValueString && right.Kind == ValueString {
			if strings.Contains(left.Str, right.Str) {
				return true, ""
			}
			return false, fmt.Sprintf("%s does not contain %s", left, right)
		}
		if left.Kind == ValueList {
			for _, el := range left.List {
				if el.equal(right) {
					return true, ""
				}
			}
			return false, fmt.Sprintf("%s does not contain %s", left, right)
		}
		return false, kindMismatch(left, right)
	}
	return false, fmt.Sprintf("operator %q cannot be evaluated", op)
}

func compareNumbers(op string, left, right float64) (bool, string) {
	var ok bool
	switch op {
	case domain.OpEq:
		ok = left == right
	case domain.OpNe:
		ok = left != right
	case domain.OpGt:
		ok = left > right
	case domain.OpGte:
		ok = left >= right
	case domain.OpLt:
		ok = left < right
	case domain.OpLte:
		ok = left <= right
	}
	if ok {
		return true, ""
	}
	return false, fmt.Sprintf("%g does not satisfy %s %g", left, op, right)
}

func compareStrings(op string, left, right string) (bool, string) {
	var ok bool
	switch op {
	case domain.OpGt:
		ok = left > right
	case domain.OpGte:
		ok = left >= right
	case domain.OpLt:
		ok = left < right
	case domain.OpLte:
		ok = left <= right
	}
	if ok {
		return true, ""
	}
	return false, fmt.Sprintf("%q does not satisfy %s %q", left, op, right)
}

func kindMismatch(left, right Value) string {
	return fmt.Sprintf("cannot compare %s value %s with %s value %s",
		left.Kind, left, right.Kind, right)
}
