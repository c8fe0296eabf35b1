// internal/engine/variables.go
package engine

import (
	"time"

	"github.com/caribou-health/ruleflow/internal/types"
)

/*
 * Variable resolution.
 *
 * Builds the flat name -> value table that rule text references through
 * #{name}, A{name} and V{name}. Pure function of its inputs: the table
 * is rebuilt from scratch once per evaluation pass and never mutated
 * mid-pass.
 *
 * Lookup order per rule variable: data-value map first, then the
 * attribute map; absent ids resolve to nil (missing, not an error).
 * Values are copied as-is - quoting raw strings for expression text is
 * the evaluator's job, never the resolver's.
 */

// VariableTable maps a rule-variable name to its resolved scalar value
// (string, float64, bool, or nil).
type VariableTable map[string]any

// Reserved system variable names, always present in the table.
const (
	VarCurrentDate    = "current_date"
	VarEventDate      = "event_date"
	VarEnrollmentDate = "enrollment_date"
	VarEventCount     = "event_count"
)

// ResolveVariables produces the VariableTable for one evaluation pass.
func ResolveVariables(vars []types.RuleVariable, data, attrs types.ValueMap, ctx types.Context) VariableTable {
	table := make(VariableTable, len(vars)+4)

	for _, rv := range vars {
		if rv.Name == "" || rv.Source.IsZero() {
			continue
		}
		if v, ok := data[rv.Source.ID]; ok {
			table[rv.Name] = v
			continue
		}
		if v, ok := attrs[rv.Source.ID]; ok {
			table[rv.Name] = v
			continue
		}
		table[rv.Name] = nil
	}

	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := now.Format(isoDate)

	table[VarCurrentDate] = today
	if ctx.EventDate != "" {
		table[VarEventDate] = ctx.EventDate
	} else {
		table[VarEventDate] = today
	}
	if ctx.EnrollmentDate != "" {
		table[VarEnrollmentDate] = ctx.EnrollmentDate
	} else {
		table[VarEnrollmentDate] = nil
	}
	// Constant 1: historical event counts are not available offline.
	// Rule authors depend on this literal behavior; deriving a real
	// count is tracked as a capture-backend capability, not fixed here.
	table[VarEventCount] = float64(1)

	return table
}
