// Package conditions compiles and evaluates plot block condition trees.
//
// Compilation decodes every raw payload exactly once, up front, so malformed
// conditions surface as structural errors before any evaluation runs.
// Evaluation is then a pure walk over decoded values: it cannot fail, only
// report leaves as satisfied or not.
package conditions

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueKind tags which arm of a Value is populated.
type ValueKind uint8

const (
	// ValueAbsent means the condition carried no payload.
	ValueAbsent ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
	ValueList
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueNumber:
		return "number"
	case ValueBool:
		return "bool"
	case ValueList:
		return "list"
	default:
		return "absent"
	}
}

// Value is the decoded form of a condition payload or a context metadata
// entry. Exactly one arm is meaningful, selected by Kind; List elements are
// always scalar.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	List []Value
}

// decodeValue parses a raw JSON payload into a Value. Objects and nested
// lists are rejected: condition payloads are scalars or flat scalar lists.
func decodeValue(raw json.RawMessage) (Value, error) {
	if len(raw) == 0 {
		return Value{Kind: ValueAbsent}, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Value{}, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return classify(v, false)
}

// classify converts an arbitrary Go value (from JSON, YAML, or a caller's
// context map) into a Value.
func classify(v any, nested bool) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Value{Kind: ValueAbsent}, nil
	case string:
		return Value{Kind: ValueString, Str: t}, nil
	case bool:
		return Value{Kind: ValueBool, Bool: t}, nil
	case float64:
		return Value{Kind: ValueNumber, Num: t}, nil
	case float32:
		return Value{Kind: ValueNumber, Num: float64(t)}, nil
	case int:
		return Value{Kind: ValueNumber, Num: float64(t)}, nil
	case int64:
		return Value{Kind: ValueNumber, Num: float64(t)}, nil
	case uint64:
		return Value{Kind: ValueNumber, Num: float64(t)}, nil
	case []string:
		list := make([]Value, len(t))
		for i, s := range t {
			list[i] = Value{Kind: ValueString, Str: s}
		}
		return Value{Kind: ValueList, List: list}, nil
	case []any:
		if nested {
			return Value{}, fmt.Errorf("nested lists are not supported")
		}
		list := make([]Value, 0, len(t))
		for _, el := range t {
			ev, err := classify(el, true)
			if err != nil {
				return Value{}, err
			}
			if ev.Kind == ValueList {
				return Value{}, fmt.Errorf("nested lists are not supported")
			}
			list = append(list, ev)
		}
		return Value{Kind: ValueList, List: list}, nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

// asNumber reads the value as a number. Numeric strings coerce.
func (v Value) asNumber() (float64, bool) {
	switch v.Kind {
	case ValueNumber:
		return v.Num, true
	case ValueString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// equal reports scalar equality between two values of the same kind.
func (v Value) equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case ValueString:
		return v.Str == other.Str
	case ValueNumber:
		return v.Num == other.Num
	case ValueBool:
		return v.Bool == other.Bool
	case ValueAbsent:
		return true
	default:
		return false
	}
}

// String renders the value for report messages.
func (v Value) String() string {
	switch v.Kind {
	case ValueString:
		return strconv.Quote(v.Str)
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueList:
		parts := make([]string, len(v.List))
		for i, el := range v.List {
			parts[i] = el.String()
		}
		sort.Strings(parts)
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<absent>"
	}
}
