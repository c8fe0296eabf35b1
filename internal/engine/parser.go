// internal/engine/parser.go
package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/caribou-health/ruleflow/internal/types"
)

/*
 * Recursive-descent parser for rule text.
 *
 * Grammar (lowest to highest precedence):
 *
 *   expr     = or [ "?" expr ":" expr ]
 *   or       = and { "||" and }
 *   and      = equality { "&&" equality }
 *   equality = relation { ("==" | "!=") relation }
 *   relation = additive { ("<" | "<=" | ">" | ">=") additive }
 *   additive = term { ("+" | "-") term }
 *   term     = unary { ("*" | "/" | "%") unary }
 *   unary    = ("!" | "-") unary | primary
 *   primary  = number | string | "true" | "false" | "null"
 *            | reference | call | "(" expr ")"
 *   call     = "d2:" name "(" [ expr { "," expr } ] ")"
 *
 * Function names are validated against the built-in library at parse
 * time so lint reporting catches typos before any evaluation runs.
 * Argument arity is validated here too; the evaluator can then call
 * built-ins without re-checking shape.
 */

// Program is a compiled rule expression, safe for concurrent evaluation.
type Program struct {
	root Node
	mode Mode
	src  string
}

// Source returns the original rule text.
func (p *Program) Source() string { return p.src }

// Compile parses rule text into an evaluable Program.
func Compile(text string, mode Mode) (*Program, error) {
	if strings.TrimSpace(text) == "" {
		return nil, types.ErrEmptyExpression
	}
	tokens, err := lex(text, mode)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens, src: text}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.cur(); tok.kind != tokEOF {
		return nil, fmt.Errorf("offset %d: unexpected trailing input", tok.off)
	}
	return &Program{root: root, mode: mode, src: text}, nil
}

type parser struct {
	tokens []token
	pos    int
	src    string
}

func (p *parser) cur() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

// accept consumes the current token if it matches kind.
func (p *parser) accept(kind tokenKind) (token, bool) {
	if p.cur().kind == kind {
		return p.advance(), true
	}
	return token{}, false
}

// expect consumes a token of the given kind or fails.
func (p *parser) expect(kind tokenKind, what string) (token, error) {
	tok := p.cur()
	if tok.kind != kind {
		return token{}, fmt.Errorf("offset %d: expected %s", tok.off, what)
	}
	return p.advance(), nil
}

func (p *parser) parseExpr() (Node, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	q, ok := p.accept(tokQuestion)
	if !ok {
		return cond, nil
	}

	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon, "':' in ternary"); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &TernaryNode{Off: q.off, Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) parseOr() (Node, error) {
	return p.parseBinary(p.parseAnd, tokOr)
}

func (p *parser) parseAnd() (Node, error) {
	return p.parseBinary(p.parseEquality, tokAnd)
}

func (p *parser) parseEquality() (Node, error) {
	return p.parseBinary(p.parseRelation, tokEq, tokNeq)
}

func (p *parser) parseRelation() (Node, error) {
	return p.parseBinary(p.parseAdditive, tokLt, tokLte, tokGt, tokGte)
}

func (p *parser) parseAdditive() (Node, error) {
	return p.parseBinary(p.parseTerm, tokPlus, tokMinus)
}

func (p *parser) parseTerm() (Node, error) {
	return p.parseBinary(p.parseUnary, tokStar, tokSlash, tokPercent)
}

// parseBinary parses a left-associative run of the given operators over
// the next-higher precedence level.
func (p *parser) parseBinary(next func() (Node, error), ops ...tokenKind) (Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		matched := false
		for _, op := range ops {
			if tok, ok := p.accept(op); ok {
				right, err := next()
				if err != nil {
					return nil, err
				}
				left = &BinaryNode{Off: tok.off, Op: op, Left: left, Right: right}
				matched = true
				break
			}
		}
		if !matched {
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (Node, error) {
	if tok, ok := p.accept(tokNot); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Off: tok.off, Op: tokNot, Operand: operand}, nil
	}
	if tok, ok := p.accept(tokMinus); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Off: tok.off, Op: tokMinus, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.advance()
	switch tok.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("offset %d: bad number %q", tok.off, tok.text)
		}
		return &LiteralNode{Off: tok.off, Value: f}, nil
	case tokString:
		return &LiteralNode{Off: tok.off, Value: tok.text}, nil
	case tokTrue:
		return &LiteralNode{Off: tok.off, Value: true}, nil
	case tokFalse:
		return &LiteralNode{Off: tok.off, Value: false}, nil
	case tokNull:
		return &LiteralNode{Off: tok.off, Value: nil}, nil
	case tokDataRef:
		return &VarRefNode{Off: tok.off, Kind: RefDataElement, Name: tok.text}, nil
	case tokAttrRef:
		return &VarRefNode{Off: tok.off, Kind: RefAttribute, Name: tok.text}, nil
	case tokSysRef:
		return &VarRefNode{Off: tok.off, Kind: RefSystem, Name: tok.text}, nil
	case tokCall:
		return p.parseCall(tok)
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokEOF:
		return nil, fmt.Errorf("offset %d: unexpected end of expression", tok.off)
	default:
		return nil, fmt.Errorf("offset %d: unexpected token", tok.off)
	}
}

// parseCall parses the argument list of a d2: call and validates the
// function name and arity against the built-in library.
func (p *parser) parseCall(head token) (Node, error) {
	fn, ok := builtins[head.text]
	if !ok {
		return nil, fmt.Errorf("offset %d: %w: d2:%s", head.off, types.ErrUnknownFunction, head.text)
	}

	if _, err := p.expect(tokLParen, "'(' after function name"); err != nil {
		return nil, err
	}

	var args []Node
	if _, ok := p.accept(tokRParen); !ok {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if len(args) > types.MaxFunctionArgs {
				return nil, fmt.Errorf("offset %d: %w: d2:%s", head.off, types.ErrTooManyArgs, head.text)
			}
			if _, ok := p.accept(tokComma); ok {
				continue
			}
			if _, err := p.expect(tokRParen, "')' or ',' in argument list"); err != nil {
				return nil, err
			}
			break
		}
	}

	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return nil, fmt.Errorf("offset %d: d2:%s expects %s, got %d",
			head.off, head.text, fn.arityLabel(), len(args))
	}
	return &CallNode{Off: head.off, Name: head.text, Args: args}, nil
}
