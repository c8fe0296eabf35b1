// internal/engine/ast.go
package engine

/*
 * Expression AST.
 *
 * Rule text compiles to a small tree of literal, variable-reference,
 * function-call, unary, binary and ternary nodes. The tree-walking
 * evaluator in eval.go interprets it against a VariableTable and the
 * built-in function library; no other bindings are reachable from rule
 * text, so rule authors can never execute host code.
 *
 * Why function/switch shape: mirrors the operator design elsewhere in
 * the codebase - a handful of node kinds dispatched by type switch is
 * simpler than interface polymorphism with minimal behavior variation.
 */

// Node is one node of a parsed rule expression.
type Node interface {
	// Pos returns the byte offset of the node in the source text,
	// used for parse/eval diagnostics.
	Pos() int
}

// RefKind discriminates the three variable reference syntaxes.
type RefKind int

const (
	// RefDataElement is a #{name} reference (data-element-sourced variable).
	RefDataElement RefKind = iota

	// RefAttribute is an A{name} reference (attribute-sourced variable).
	RefAttribute

	// RefSystem is a V{name} reference (system variable).
	RefSystem
)

// String returns the reference sigil for diagnostics.
func (k RefKind) String() string {
	switch k {
	case RefAttribute:
		return "A"
	case RefSystem:
		return "V"
	default:
		return "#"
	}
}

// LiteralNode holds a constant: float64, string, bool, or nil.
type LiteralNode struct {
	Off   int
	Value any
}

// VarRefNode references a resolved variable by name. All three reference
// kinds read the same VariableTable namespace; the kind is kept for
// diagnostics and for the name-argument dispatch in function calls.
type VarRefNode struct {
	Off  int
	Kind RefKind
	Name string
}

// CallNode is a d2:name(args...) built-in function call.
type CallNode struct {
	Off  int
	Name string
	Args []Node
}

// UnaryNode is logical not or numeric negation.
type UnaryNode struct {
	Off     int
	Op      tokenKind // tokNot or tokMinus
	Operand Node
}

// BinaryNode is a binary operation. Op is the operator token kind;
// equality is always strict (bare = in condition text lexes to tokEq).
type BinaryNode struct {
	Off   int
	Op    tokenKind
	Left  Node
	Right Node
}

// TernaryNode is cond ? then : else.
type TernaryNode struct {
	Off  int
	Cond Node
	Then Node
	Else Node
}

func (n *LiteralNode) Pos() int { return n.Off }
func (n *VarRefNode) Pos() int  { return n.Off }
func (n *CallNode) Pos() int    { return n.Off }
func (n *UnaryNode) Pos() int   { return n.Off }
func (n *BinaryNode) Pos() int  { return n.Off }
func (n *TernaryNode) Pos() int { return n.Off }
