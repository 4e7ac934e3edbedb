package dsl

import (
	"encoding/json"

	"github.com/canonry/canonry/pkg/domain"
)

// All is satisfied when every child is satisfied.
func All(children ...domain.Condition) domain.Condition {
	return domain.Condition{Kind: domain.ConditionAll, Children: children}
}

// Any is satisfied when at least one child is satisfied.
func Any(children ...domain.Condition) domain.Condition {
	return domain.Condition{Kind: domain.ConditionAny, Children: children}
}

// Not is satisfied when its child is not.
func Not(child domain.Condition) domain.Condition {
	return domain.Condition{Kind: domain.ConditionNot, Children: []domain.Condition{child}}
}

// TagPresent checks that the tag is in the context tag set.
func TagPresent(tagID string) domain.Condition {
	return domain.Condition{Kind: domain.ConditionTagPresent, Target: tagID}
}

// TagAbsent checks that the tag is not in the context tag set.
func TagAbsent(tagID string) domain.Condition {
	return domain.Condition{Kind: domain.ConditionTagAbsent, Target: tagID}
}

// BlockCompleted checks that the block is marked completed or selected.
func BlockCompleted(blockID string) domain.Condition {
	return domain.Condition{Kind: domain.ConditionBlockCompleted, Target: blockID}
}

// MetadataCheck compares the context metadata value under key against value
// using the given operator.
func MetadataCheck(key, operator string, value any) domain.Condition {
	return domain.Condition{
		Kind:     domain.ConditionMetadata,
		Target:   key,
		Operator: operator,
		Value:    rawValue(value),
	}
}

// TagCount compares how many context tags belong to classID (all tags when
// classID is empty) against value using the given operator.
func TagCount(classID, operator string, value any) domain.Condition {
	return domain.Condition{
		Kind:     domain.ConditionTagCount,
		Target:   classID,
		Operator: operator,
		Value:    rawValue(value),
	}
}

// rawValue marshals v for the condition payload. Values that cannot be
// marshaled yield a nil payload, which the validator reports as a malformed
// condition.
func rawValue(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
