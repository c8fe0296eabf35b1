// internal/engine/functions.go
package engine

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/caribou-health/ruleflow/internal/types"
)

/*
 * Built-in d2: function library.
 *
 * Fixed, named set of pure functions callable from rule text as
 * d2:name(args...). Every function is total: bad input degrades to a
 * safe default (0, false, empty string, unchanged input) instead of an
 * error, so one malformed value can never abort an evaluation pass.
 *
 * Functions operate on already-resolved scalars. The four variable-name
 * functions (hasValue, count, countIfValue, countIfZeroPos) are the
 * exception: their first argument is the *name* of a rule variable, and
 * the evaluator passes reference arguments through as name strings
 * rather than resolving them. They read the VariableTable via FuncEnv.
 *
 * Dates are ISO "2006-01-02" strings; unparsable dates yield 0 for the
 * *Between functions and pass through unchanged for addDays.
 */

// FuncEnv is the only state reachable from built-in functions: the
// resolved variable table plus the raw value maps (for hasDataValue).
type FuncEnv struct {
	Table           VariableTable
	DataValues      types.ValueMap
	AttributeValues types.ValueMap
}

// builtin describes one library entry. maxArgs < 0 means variadic.
// nameArg marks functions whose first argument is a variable name.
type builtin struct {
	minArgs int
	maxArgs int
	nameArg bool
	fn      func(env *FuncEnv, args []any) any
}

func (b builtin) arityLabel() string {
	switch {
	case b.maxArgs < 0:
		return fmt.Sprintf("at least %d argument(s)", b.minArgs)
	case b.minArgs == b.maxArgs:
		return fmt.Sprintf("%d argument(s)", b.minArgs)
	default:
		return fmt.Sprintf("%d to %d argument(s)", b.minArgs, b.maxArgs)
	}
}

// builtins is the complete d2: library. Parse-time validation in
// parser.go rejects unknown names and bad arity, so each fn body can
// assume the declared shape.
var builtins = map[string]builtin{
	"hasValue": {1, 1, true, func(env *FuncEnv, args []any) any {
		v, ok := env.Table[asString(args[0])]
		return ok && v != nil && asString(v) != ""
	}},
	"count": {1, 1, true, func(env *FuncEnv, args []any) any {
		v, ok := env.Table[asString(args[0])]
		if ok && v != nil && asString(v) != "" {
			return float64(1)
		}
		return float64(0)
	}},
	"countIfValue": {2, 2, true, func(env *FuncEnv, args []any) any {
		v, ok := env.Table[asString(args[0])]
		if ok && compareEqual(v, args[1]) {
			return float64(1)
		}
		return float64(0)
	}},
	"countIfZeroPos": {1, 1, true, func(env *FuncEnv, args []any) any {
		v, ok := env.Table[asString(args[0])]
		if !ok {
			return float64(0)
		}
		if n, numeric := asNumber(v); numeric && n >= 0 {
			return float64(1)
		}
		return float64(0)
	}},
	"countIfCondition": {1, 1, false, func(_ *FuncEnv, args []any) any {
		if truthy(args[0]) {
			return float64(1)
		}
		return float64(0)
	}},
	"hasDataValue": {1, 1, false, func(env *FuncEnv, args []any) any {
		id := asString(args[0])
		if v, ok := env.DataValues[id]; ok && v != nil && asString(v) != "" {
			return true
		}
		if v, ok := env.AttributeValues[id]; ok && v != nil && asString(v) != "" {
			return true
		}
		return false
	}},

	"contains": {2, 2, false, func(_ *FuncEnv, args []any) any {
		if args[0] == nil {
			return false
		}
		return strings.Contains(asString(args[0]), asString(args[1]))
	}},
	"startsWith": {2, 2, false, func(_ *FuncEnv, args []any) any {
		if args[0] == nil {
			return false
		}
		return strings.HasPrefix(asString(args[0]), asString(args[1]))
	}},
	"endsWith": {2, 2, false, func(_ *FuncEnv, args []any) any {
		if args[0] == nil {
			return false
		}
		return strings.HasSuffix(asString(args[0]), asString(args[1]))
	}},
	"validatePattern": {2, 2, false, func(_ *FuncEnv, args []any) any {
		// Full-text match; an invalid pattern is false, never an error.
		re, err := regexp.Compile("^(?:" + asString(args[1]) + ")$")
		if err != nil {
			return false
		}
		return re.MatchString(asString(args[0]))
	}},

	"left": {2, 2, false, func(_ *FuncEnv, args []any) any {
		r := []rune(asString(args[0]))
		n := clampIndex(args[1], len(r))
		return string(r[:n])
	}},
	"right": {2, 2, false, func(_ *FuncEnv, args []any) any {
		r := []rune(asString(args[0]))
		n := clampIndex(args[1], len(r))
		return string(r[len(r)-n:])
	}},
	"substring": {3, 3, false, func(_ *FuncEnv, args []any) any {
		r := []rune(asString(args[0]))
		start := clampIndex(args[1], len(r))
		end := clampIndex(args[2], len(r))
		if end < start {
			return ""
		}
		return string(r[start:end])
	}},
	"split": {3, 3, false, func(_ *FuncEnv, args []any) any {
		parts := strings.Split(asString(args[0]), asString(args[1]))
		n, ok := asNumber(args[2])
		idx := int(n)
		if !ok || idx < 0 || idx >= len(parts) {
			return ""
		}
		return parts[idx]
	}},
	"length": {1, 1, false, func(_ *FuncEnv, args []any) any {
		return float64(len([]rune(asString(args[0]))))
	}},
	"concatenate": {0, -1, false, func(_ *FuncEnv, args []any) any {
		var sb strings.Builder
		for _, a := range args {
			sb.WriteString(asString(a))
		}
		return sb.String()
	}},

	"daysBetween": {2, 2, false, func(_ *FuncEnv, args []any) any {
		d1, ok1 := parseDate(args[0])
		d2, ok2 := parseDate(args[1])
		if !ok1 || !ok2 {
			return float64(0)
		}
		return float64(int(d2.Sub(d1).Hours() / 24))
	}},
	"weeksBetween": {2, 2, false, func(_ *FuncEnv, args []any) any {
		d1, ok1 := parseDate(args[0])
		d2, ok2 := parseDate(args[1])
		if !ok1 || !ok2 {
			return float64(0)
		}
		return float64(int(d2.Sub(d1).Hours()/24) / 7)
	}},
	"monthsBetween": {2, 2, false, func(_ *FuncEnv, args []any) any {
		d1, ok1 := parseDate(args[0])
		d2, ok2 := parseDate(args[1])
		if !ok1 || !ok2 {
			return float64(0)
		}
		return float64(monthsBetween(d1, d2))
	}},
	"yearsBetween": {2, 2, false, func(_ *FuncEnv, args []any) any {
		d1, ok1 := parseDate(args[0])
		d2, ok2 := parseDate(args[1])
		if !ok1 || !ok2 {
			return float64(0)
		}
		return float64(monthsBetween(d1, d2) / 12)
	}},
	"addDays": {2, 2, false, func(_ *FuncEnv, args []any) any {
		d, ok := parseDate(args[0])
		if !ok {
			// Safe default: unparsable input passes through unchanged.
			return asString(args[0])
		}
		n, _ := asNumber(args[1])
		return d.AddDate(0, 0, int(n)).Format(isoDate)
	}},

	"floor": {1, 1, false, func(_ *FuncEnv, args []any) any {
		n, _ := asNumber(args[0])
		return math.Floor(n)
	}},
	"ceil": {1, 1, false, func(_ *FuncEnv, args []any) any {
		n, _ := asNumber(args[0])
		return math.Ceil(n)
	}},
	"round": {1, 2, false, func(_ *FuncEnv, args []any) any {
		n, _ := asNumber(args[0])
		if len(args) == 2 {
			if places, ok := asNumber(args[1]); ok && places > 0 {
				pow := math.Pow(10, math.Trunc(places))
				return math.Round(n*pow) / pow
			}
		}
		return math.Round(n)
	}},
	"modulus": {2, 2, false, func(_ *FuncEnv, args []any) any {
		a, oka := asNumber(args[0])
		b, okb := asNumber(args[1])
		if !oka || !okb || b == 0 {
			return float64(0)
		}
		return math.Mod(a, b)
	}},
	"zing": {1, 1, false, func(_ *FuncEnv, args []any) any {
		n, _ := asNumber(args[0])
		return math.Max(0, n)
	}},
	"oizp": {1, 1, false, func(_ *FuncEnv, args []any) any {
		if n, ok := asNumber(args[0]); ok && n >= 0 {
			return float64(1)
		}
		return float64(0)
	}},
	"zpvc": {1, -1, false, func(_ *FuncEnv, args []any) any {
		var sum float64
		for _, a := range args {
			if n, ok := asNumber(a); ok && n > 0 {
				sum += n
			}
		}
		return sum
	}},
	"condition": {3, 3, false, func(_ *FuncEnv, args []any) any {
		if truthy(args[0]) {
			return args[1]
		}
		return args[2]
	}},

	// Org-unit group membership is resolved server-side and never ships
	// with offline metadata; the capture client always answers false.
	"inOrgUnitGroup": {1, 1, false, func(_ *FuncEnv, _ []any) any {
		return false
	}},
}

const isoDate = "2006-01-02"

// dateLayouts accepted for date-valued arguments, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	isoDate,
}

// parseDate reads a scalar as a calendar date.
func parseDate(v any) (time.Time, bool) {
	s := strings.TrimSpace(asString(v))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// monthsBetween returns whole calendar months from d1 to d2, truncated
// toward zero.
func monthsBetween(d1, d2 time.Time) int {
	months := (d2.Year()-d1.Year())*12 + int(d2.Month()) - int(d1.Month())
	if months > 0 && d2.Day() < d1.Day() {
		months--
	} else if months < 0 && d2.Day() > d1.Day() {
		months++
	}
	return months
}

// clampIndex reads a numeric argument as a slice bound in [0, max].
func clampIndex(v any, max int) int {
	n, ok := asNumber(v)
	if !ok {
		return 0
	}
	i := int(n)
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}
