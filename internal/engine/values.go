// internal/engine/values.go
package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

/*
 * Value coercion and comparison for rule evaluation.
 *
 * Resolved values are untyped scalars (nil, bool, float64, string) as
 * decoded from form JSON. These helpers give the evaluator and function
 * library one canonical coercion story:
 *
 *   - asNumber: lenient numeric coercion (numeric strings accepted,
 *     booleans rejected, whitespace-only strings rejected)
 *   - asString: lenient string rendering for all scalar types
 *   - truthy: boolean reading of a scalar for condition results
 *   - compareEqual: strict equality with numeric type mixing
 *   - compareNumeric: three-way numeric comparison for relational ops
 *
 * Form values frequently arrive as strings ("12" for an age field), so
 * relational operators coerce through asNumber while equality stays
 * strict apart from int/float mixing. All helpers are total.
 */

// asNumber converts a scalar to float64 for numeric operations.
// Accepts float64, int, int64 and numeric strings. Rejects booleans and
// whitespace-only strings (strict mode, matching form value semantics).
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// asString renders a scalar as its form-value string representation.
// nil renders as the empty string.
func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", s)
	}
}

// truthy reads a scalar as a boolean condition result.
// nil is false; numbers are true when non-zero and not NaN; strings are
// true for "true" and any other non-empty text except "false" (form
// widgets store booleans as "true"/"false" strings).
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b != 0 && !math.IsNaN(b)
	case string:
		s := strings.TrimSpace(b)
		return s != "" && s != "false"
	default:
		return false
	}
}

// compareEqual performs strict equality with numeric type mixing.
// int/int64/float64 compare numerically; everything else compares by
// type and value. nil equals only nil.
func compareEqual(a, b any) bool {
	if na, oka := strictNumber(a); oka {
		if nb, okb := strictNumber(b); okb {
			return na == nb
		}
		return false
	}
	return a == b
}

// strictNumber converts numeric Go types without parsing strings.
func strictNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// compareNumeric performs three-way numeric comparison (-1/0/1) with
// lenient coercion. The ok result is false when either side is not
// numeric; relational operators then evaluate to false.
func compareNumeric(a, b any) (int, bool) {
	na, oka := asNumber(a)
	nb, okb := asNumber(b)
	if !oka || !okb {
		return 0, false
	}
	switch {
	case na < nb:
		return -1, true
	case na > nb:
		return 1, true
	default:
		return 0, true
	}
}
