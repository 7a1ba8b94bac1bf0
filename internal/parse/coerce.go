package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okgraph/okgraph/internal/record"
	"github.com/okgraph/okgraph/internal/schema"
)

// Outcome describes how a single field coercion resolved. Coercion never
// fails the surrounding parse; a failed conversion is reported as a fallback
// instead of being silently swallowed.
type Outcome int

const (
	// OutcomeApplied means the value was converted to the target type.
	OutcomeApplied Outcome = iota

	// OutcomeFallback means the conversion failed and the raw value was
	// kept as-is (or nulled, for dates).
	OutcomeFallback
)

// Coerce applies the semantic-type conversion for a single scalar field
// value. Reference fields are not handled here, they need parser context
// (recursion and store lookups).
//
// Empty integer and float values pass through untouched: zero and nil are
// not conversion candidates, they are answers.
func Coerce(t schema.FieldType, v any) (any, Outcome) {
	switch t {
	case schema.TypeInteger:
		if record.IsEmpty(v) {
			return v, OutcomeApplied
		}
		return coerceInteger(v)
	case schema.TypeFloat:
		if record.IsEmpty(v) {
			return v, OutcomeApplied
		}
		return coerceFloat(v)
	case schema.TypeText:
		return coerceText(v)
	case schema.TypeDateTime:
		return coerceDateTime(v)
	case schema.TypeScalarList:
		return coerceScalarList(v)
	}
	return v, OutcomeApplied
}

// coerceInteger converts numeric and numeric-text values to int64.
// Fractional text like "2.7" is a fallback, matching strict integer parsing.
func coerceInteger(v any) (any, Outcome) {
	switch val := v.(type) {
	case int64:
		return val, OutcomeApplied
	case int:
		return int64(val), OutcomeApplied
	case float64:
		return int64(val), OutcomeApplied
	case bool:
		if val {
			return int64(1), OutcomeApplied
		}
		return int64(0), OutcomeApplied
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return v, OutcomeFallback
		}
		return n, OutcomeApplied
	}
	return v, OutcomeFallback
}

// coerceFloat converts numeric and numeric-text values to float64.
func coerceFloat(v any) (any, Outcome) {
	switch val := v.(type) {
	case float64:
		return val, OutcomeApplied
	case int64:
		return float64(val), OutcomeApplied
	case int:
		return float64(val), OutcomeApplied
	case bool:
		if val {
			return float64(1), OutcomeApplied
		}
		return float64(0), OutcomeApplied
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return v, OutcomeFallback
		}
		return f, OutcomeApplied
	}
	return v, OutcomeFallback
}

// coerceText renders a value as text. Booleans collapse to the empty string:
// some APIs return false for absent text fields, and "false" is not a name.
// Nil stays nil: there is no sensible text form for a missing value.
func coerceText(v any) (any, Outcome) {
	switch val := v.(type) {
	case string:
		return val, OutcomeApplied
	case bool:
		return "", OutcomeApplied
	case nil:
		return nil, OutcomeFallback
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), OutcomeApplied
	case int64:
		return strconv.FormatInt(val, 10), OutcomeApplied
	case int:
		return strconv.Itoa(val), OutcomeApplied
	}
	return fmt.Sprint(v), OutcomeApplied
}

// coerceDateTime parses the two accepted timestamp shapes. Unlike the other
// coercions the fallback is nil, never the raw value: an unparseable date is
// worse than no date.
func coerceDateTime(v any) (any, Outcome) {
	t, ok := ParseRemoteTime(v)
	if !ok {
		return nil, OutcomeFallback
	}
	return t, OutcomeApplied
}

// coerceScalarList joins list values into comma-separated text. Non-list
// values pass through unchanged; the remote already sent the joined form.
func coerceScalarList(v any) (any, Outcome) {
	list, ok := v.([]any)
	if !ok {
		return v, OutcomeFallback
	}
	parts := make([]string, len(list))
	for i, elem := range list {
		parts[i] = fmt.Sprint(elem)
	}
	return strings.Join(parts, ","), OutcomeApplied
}
