// internal/engine/selector.go
package engine

import (
	"github.com/caribou-health/ruleflow/internal/types"
)

/*
 * Rule selection.
 *
 * Filters the loaded rule set down to the rules whose conditions should
 * be evaluated for the current context, and individual actions down to
 * the ones whose target kind the context can carry:
 *
 *   - A declared program id must match the current program.
 *   - Registration context (no stage) rejects stage-scoped rules.
 *   - Event context rejects rules declaring a different stage; rules
 *     with no declared stage are global and included.
 *   - Registration skips data-element-targeted actions; event skips
 *     attribute-targeted actions. Actions with no field target
 *     (sections) apply in both.
 *
 * Evaluation order is rule list order. There is no priority system;
 * later rules overwrite earlier effects for the same target
 * (last-write-wins, documented on EffectSet).
 */

// SelectRules returns the ordered subset of rules applicable to ctx.
func SelectRules(rules []types.Rule, ctx types.Context) []types.Rule {
	selected := make([]types.Rule, 0, len(rules))
	for _, r := range rules {
		if r.Program != "" && r.Program != ctx.Program {
			continue
		}
		if !ctx.IsEvent() && r.Stage != "" {
			continue
		}
		if ctx.IsEvent() && r.Stage != "" && r.Stage != ctx.Stage {
			continue
		}
		selected = append(selected, r)
	}
	return selected
}

// ActionApplies reports whether an action's target kind is compatible
// with the evaluation context.
func ActionApplies(a types.Action, ctx types.Context) bool {
	switch a.Field.Kind {
	case types.SourceDataElement:
		return ctx.IsEvent()
	case types.SourceAttribute:
		return !ctx.IsEvent()
	default:
		return true
	}
}
