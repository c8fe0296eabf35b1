// internal/engine/eval.go
package engine

import (
	"fmt"
	"math"
)

/*
 * Tree-walking evaluator.
 *
 * Interprets a compiled Program against a FuncEnv. The only symbols
 * reachable from rule text are the VariableTable entries and the d2:
 * built-ins; there is no ambient scope and no host code execution.
 *
 * Operator semantics follow the rule language the authoring backend
 * targets: strict equality with int/float mixing, lenient numeric
 * coercion for relational and arithmetic operators (form values are
 * often numeric strings), + concatenates when either side is
 * non-numeric, and &&/||/! read operands through truthy.
 *
 * Name-argument dispatch: for hasValue, count, countIfValue and
 * countIfZeroPos, a variable-reference first argument is passed as the
 * reference *name*, not its resolved value. This is a deliberate,
 * function-specific contract of the rule language and is preserved
 * exactly.
 *
 * Totality: evaluation cannot panic; the only error paths are
 * structural (a node kind the interpreter does not know), which callers
 * convert to the engine's conservative defaults.
 */

// EvalCondition evaluates a condition program to a boolean.
func (p *Program) EvalCondition(env *FuncEnv) (bool, error) {
	v, err := evalNode(p.root, env)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// EvalValue evaluates a value-expression program to a scalar
// (nil, bool, float64, or string).
func (p *Program) EvalValue(env *FuncEnv) (any, error) {
	return evalNode(p.root, env)
}

func evalNode(n Node, env *FuncEnv) (any, error) {
	switch node := n.(type) {
	case *LiteralNode:
		return node.Value, nil

	case *VarRefNode:
		// Missing variables resolve to null, not an error.
		return env.Table[node.Name], nil

	case *CallNode:
		return evalCall(node, env)

	case *UnaryNode:
		operand, err := evalNode(node.Operand, env)
		if err != nil {
			return nil, err
		}
		if node.Op == tokNot {
			return !truthy(operand), nil
		}
		num, _ := asNumber(operand)
		return -num, nil

	case *BinaryNode:
		return evalBinary(node, env)

	case *TernaryNode:
		cond, err := evalNode(node.Cond, env)
		if err != nil {
			return nil, err
		}
		if truthy(cond) {
			return evalNode(node.Then, env)
		}
		return evalNode(node.Else, env)

	default:
		return nil, fmt.Errorf("offset %d: unknown expression node %T", n.Pos(), n)
	}
}

func evalCall(node *CallNode, env *FuncEnv) (any, error) {
	fn := builtins[node.Name] // parse-time validated

	args := make([]any, len(node.Args))
	for i, argNode := range node.Args {
		// Variable-name functions receive the name, not the value.
		if fn.nameArg && i == 0 {
			if ref, ok := argNode.(*VarRefNode); ok {
				args[i] = ref.Name
				continue
			}
		}
		v, err := evalNode(argNode, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return fn.fn(env, args), nil
}

func evalBinary(node *BinaryNode, env *FuncEnv) (any, error) {
	// Short-circuit logical operators before evaluating the right side.
	if node.Op == tokAnd || node.Op == tokOr {
		left, err := evalNode(node.Left, env)
		if err != nil {
			return nil, err
		}
		if node.Op == tokAnd && !truthy(left) {
			return false, nil
		}
		if node.Op == tokOr && truthy(left) {
			return true, nil
		}
		right, err := evalNode(node.Right, env)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil
	}

	left, err := evalNode(node.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := evalNode(node.Right, env)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case tokEq:
		return compareEqual(left, right), nil
	case tokNeq:
		return !compareEqual(left, right), nil
	case tokLt:
		c, ok := compareNumeric(left, right)
		return ok && c < 0, nil
	case tokLte:
		c, ok := compareNumeric(left, right)
		return ok && c <= 0, nil
	case tokGt:
		c, ok := compareNumeric(left, right)
		return ok && c > 0, nil
	case tokGte:
		c, ok := compareNumeric(left, right)
		return ok && c >= 0, nil
	case tokPlus:
		// Numeric addition when both sides coerce, else concatenation.
		if ln, lok := asNumber(left); lok {
			if rn, rok := asNumber(right); rok {
				return ln + rn, nil
			}
		}
		return asString(left) + asString(right), nil
	case tokMinus:
		ln, _ := asNumber(left)
		rn, _ := asNumber(right)
		return ln - rn, nil
	case tokStar:
		ln, _ := asNumber(left)
		rn, _ := asNumber(right)
		return ln * rn, nil
	case tokSlash:
		ln, _ := asNumber(left)
		rn, _ := asNumber(right)
		if rn == 0 {
			return float64(0), nil
		}
		return ln / rn, nil
	case tokPercent:
		ln, _ := asNumber(left)
		rn, _ := asNumber(right)
		if rn == 0 {
			return float64(0), nil
		}
		return math.Mod(ln, rn), nil
	default:
		return nil, fmt.Errorf("offset %d: unknown operator", node.Off)
	}
}
