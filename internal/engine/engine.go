// internal/engine/engine.go
package engine

import (
	"log/slog"

	"github.com/caribou-health/ruleflow/internal/types"
)

/*
 * Cascade controller.
 *
 * Runs full evaluation passes (resolve variables -> select rules ->
 * evaluate conditions -> collect effects) and feeds each pass's
 * assignments back into the input values until no pass changes a value,
 * or the iteration cap is hit. States are Running(iteration) ->
 * Converged | Capped; both terminal states return a result, neither is
 * an error.
 *
 * The engine is a deterministic function of its inputs: every pass
 * rebuilds the VariableTable from scratch, caller maps are copied on
 * entry, and the compiled-expression cache is keyed by rule text only.
 * Concurrent Evaluate calls are safe.
 *
 * Failure policy: a condition that fails to compile or evaluate is
 * false; a value expression that fails is nil. Both are logged and the
 * remaining rules continue - evaluation never raises out of Evaluate.
 */

// Outcome is the terminal state of a cascade.
type Outcome int

const (
	// OutcomeConverged means a pass produced no new assignments.
	OutcomeConverged Outcome = iota

	// OutcomeCapped means the iteration cap was hit before convergence,
	// indicating a non-converging or oscillating rule set. The returned
	// effects are still valid; the caller may choose to surface it.
	OutcomeCapped
)

// String returns the outcome name for logs.
func (o Outcome) String() string {
	if o == OutcomeCapped {
		return "capped"
	}
	return "converged"
}

// Input carries everything one evaluation call consumes. All fields are
// read-only to the engine; maps are copied before the cascade mutates
// working state.
type Input struct {
	Rules           []types.Rule
	Variables       []types.RuleVariable
	DataValues      types.ValueMap
	AttributeValues types.ValueMap
	Context         types.Context
}

// Engine evaluates program rules. Safe for concurrent use.
type Engine struct {
	maxIterations int
	logger        *slog.Logger
	cache         *programCache
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxIterations overrides the cascade iteration cap. Values outside
// [1, types.MaxCascadeIterations] are clamped.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		if n > types.MaxCascadeIterations {
			n = types.MaxCascadeIterations
		}
		e.maxIterations = n
	}
}

// WithLogger sets the logger used for degraded-rule diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine with the default iteration cap of
// types.DefaultCascadeIterations and the process-default logger.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxIterations: types.DefaultCascadeIterations,
		logger:        slog.Default(),
		cache:         newProgramCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the bounded cascade and returns the accumulated effect
// set: the union of all passes' visibility and message effects combined
// with the final, fully merged assignment map.
func (e *Engine) Evaluate(in Input) (*EffectSet, Outcome) {
	data := cloneValues(in.DataValues)
	attrs := cloneValues(in.AttributeValues)
	merged := NewEffectSet()

	for iteration := 1; iteration <= e.maxIterations; iteration++ {
		pass := e.runPass(in, data, attrs)

		// Feed assignments back by context kind: event assignments land
		// in the data-value map, registration assignments in the
		// attribute map. Selection already guarantees a pass never
		// mixes the two.
		target := attrs
		if in.Context.IsEvent() {
			target = data
		}
		changed := false
		for id, v := range pass.Assignments {
			if !compareEqual(target[id], v) {
				target[id] = v
				changed = true
			}
		}

		merged.merge(pass)

		if !changed {
			return merged, OutcomeConverged
		}
	}

	e.logger.Warn("rule cascade hit iteration cap before converging",
		"program", in.Context.Program,
		"stage", in.Context.Stage,
		"iterations", e.maxIterations)
	return merged, OutcomeCapped
}

// runPass executes one full evaluation pass over the current values.
func (e *Engine) runPass(in Input, data, attrs types.ValueMap) *EffectSet {
	table := ResolveVariables(in.Variables, data, attrs, in.Context)
	env := &FuncEnv{Table: table, DataValues: data, AttributeValues: attrs}

	set := NewEffectSet()
	for _, rule := range SelectRules(in.Rules, in.Context) {
		if !e.evalCondition(rule, env) {
			continue
		}
		for _, action := range rule.Actions {
			if !ActionApplies(action, in.Context) {
				continue
			}
			set.apply(action, func(text string) any {
				return e.evalExpression(rule, text, env)
			})
		}
	}
	return set
}

// evalCondition compiles and evaluates a rule condition. Any failure is
// logged and reads as false, so one malformed rule degrades to "not
// applied" instead of aborting the pass.
func (e *Engine) evalCondition(rule types.Rule, env *FuncEnv) bool {
	program, err := e.cache.compile(rule.Condition, ModeCondition)
	if err != nil {
		e.logger.Warn("rule condition failed to compile",
			"rule", rule.RuleID, "name", rule.Name, "error", err)
		return false
	}
	result, err := program.EvalCondition(env)
	if err != nil {
		e.logger.Warn("rule condition failed to evaluate",
			"rule", rule.RuleID, "name", rule.Name, "error", err)
		return false
	}
	return result
}

// evalExpression compiles and evaluates an ASSIGN payload. Failures are
// logged and read as nil.
func (e *Engine) evalExpression(rule types.Rule, text string, env *FuncEnv) any {
	program, err := e.cache.compile(text, ModeExpression)
	if err != nil {
		e.logger.Warn("assignment expression failed to compile",
			"rule", rule.RuleID, "name", rule.Name, "error", err)
		return nil
	}
	v, err := program.EvalValue(env)
	if err != nil {
		e.logger.Warn("assignment expression failed to evaluate",
			"rule", rule.RuleID, "name", rule.Name, "error", err)
		return nil
	}
	return v
}

func cloneValues(m types.ValueMap) types.ValueMap {
	out := make(types.ValueMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
