// internal/engine/lexer.go
package engine

import (
	"fmt"
	"strings"

	"github.com/caribou-health/ruleflow/internal/types"
)

/*
 * Rule text tokenizer.
 *
 * Scans condition and value-expression text into a flat token stream for
 * the recursive-descent parser. The lexer owns everything the legacy
 * string-rewriting approach got wrong:
 *
 *   - String literal state is tracked token-by-token, so operators that
 *     appear inside quoted text are never touched.
 *   - Variable references #{name}, A{name}, V{name} are single tokens;
 *     the braces cannot be confused with surrounding punctuation.
 *   - d2:name is a single call-head token, so nested calls and
 *     parenthesized arguments need no balanced-paren scanning.
 *
 * Comparison-operator normalization happens here: in condition mode a
 * bare = lexes as equality and != as inequality, alongside the strict
 * forms == / === / !==. Value-expression mode rejects bare = (it has no
 * assignment semantics inside rule text).
 */

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokTrue
	tokFalse
	tokNull
	tokDataRef  // #{name}
	tokAttrRef  // A{name}
	tokSysRef   // V{name}
	tokCall     // d2:name
	tokLParen
	tokRParen
	tokComma
	tokQuestion
	tokColon
	tokEq
	tokNeq
	tokLt
	tokLte
	tokGt
	tokGte
	tokAnd
	tokOr
	tokNot
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
)

// token is one lexical token with its source offset.
type token struct {
	kind tokenKind
	text string // literal text, reference name, or call name
	off  int
}

// Mode selects how rule text is lexed and what the compiled program
// yields. Conditions accept bare = as equality and evaluate to a
// boolean; value expressions evaluate to a scalar.
type Mode int

const (
	// ModeCondition compiles rule condition text.
	ModeCondition Mode = iota

	// ModeExpression compiles ASSIGN payloads and message interpolation.
	ModeExpression
)

// lexer scans rule text into tokens.
type lexer struct {
	input string
	pos   int
	mode  Mode
}

// lex tokenizes the whole input. Returns a token slice always terminated
// by tokEOF, or the first lexical error.
func lex(input string, mode Mode) ([]token, error) {
	if len(input) > types.MaxExpressionLength {
		return nil, types.ErrExpressionTooLong
	}
	l := &lexer{input: input, mode: mode}

	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokEOF {
			return tokens, nil
		}
	}
}

// next scans one token.
func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, off: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case c == '\'' || c == '"':
		return l.scanString(c)
	case c == '#':
		return l.scanRef(tokDataRef, 1)
	case c >= '0' && c <= '9', c == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]):
		return l.scanNumber()
	case isIdentStart(c):
		return l.scanWord()
	}

	switch c {
	case '(':
		l.pos++
		return token{kind: tokLParen, off: start}, nil
	case ')':
		l.pos++
		return token{kind: tokRParen, off: start}, nil
	case ',':
		l.pos++
		return token{kind: tokComma, off: start}, nil
	case '?':
		l.pos++
		return token{kind: tokQuestion, off: start}, nil
	case ':':
		l.pos++
		return token{kind: tokColon, off: start}, nil
	case '+':
		l.pos++
		return token{kind: tokPlus, off: start}, nil
	case '-':
		l.pos++
		return token{kind: tokMinus, off: start}, nil
	case '*':
		l.pos++
		return token{kind: tokStar, off: start}, nil
	case '/':
		l.pos++
		return token{kind: tokSlash, off: start}, nil
	case '%':
		l.pos++
		return token{kind: tokPercent, off: start}, nil
	case '=':
		// Accept =, == and === as one equality token. Bare = is only
		// legal in condition mode (the operator normalization the
		// engine guarantees for conditions).
		n := l.run('=')
		if n == 1 && l.mode != ModeCondition {
			return token{}, fmt.Errorf("offset %d: bare '=' not allowed in value expression", start)
		}
		if n > 3 {
			return token{}, fmt.Errorf("offset %d: malformed operator %q", start, l.input[start:l.pos])
		}
		return token{kind: tokEq, off: start}, nil
	case '!':
		l.pos++
		if l.peek() == '=' {
			n := l.run('=')
			if n > 2 {
				return token{}, fmt.Errorf("offset %d: malformed operator %q", start, l.input[start:l.pos])
			}
			return token{kind: tokNeq, off: start}, nil
		}
		return token{kind: tokNot, off: start}, nil
	case '<':
		l.pos++
		if l.peek() == '=' {
			l.pos++
			return token{kind: tokLte, off: start}, nil
		}
		return token{kind: tokLt, off: start}, nil
	case '>':
		l.pos++
		if l.peek() == '=' {
			l.pos++
			return token{kind: tokGte, off: start}, nil
		}
		return token{kind: tokGt, off: start}, nil
	case '&':
		l.pos++
		if l.peek() != '&' {
			return token{}, fmt.Errorf("offset %d: single '&' (expected '&&')", start)
		}
		l.pos++
		return token{kind: tokAnd, off: start}, nil
	case '|':
		l.pos++
		if l.peek() != '|' {
			return token{}, fmt.Errorf("offset %d: single '|' (expected '||')", start)
		}
		l.pos++
		return token{kind: tokOr, off: start}, nil
	}

	return token{}, fmt.Errorf("offset %d: unexpected character %q", start, string(c))
}

// scanString scans a quoted literal. Backslash escapes the quote and the
// backslash itself; any other escaped character is kept verbatim.
func (l *lexer) scanString(quote byte) (token, error) {
	start := l.pos
	l.pos++ // opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch c {
		case quote:
			l.pos++
			return token{kind: tokString, text: sb.String(), off: start}, nil
		case '\\':
			if l.pos+1 >= len(l.input) {
				return token{}, types.ErrUnterminatedString
			}
			l.pos++
			sb.WriteByte(l.input[l.pos])
			l.pos++
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return token{}, types.ErrUnterminatedString
}

// scanRef scans a {name} reference; sigilLen bytes before the brace are
// the sigil (# is 1, A and V are 1).
func (l *lexer) scanRef(kind tokenKind, sigilLen int) (token, error) {
	start := l.pos
	l.pos += sigilLen
	if l.peek() != '{' {
		return token{}, fmt.Errorf("offset %d: expected '{' after reference sigil", start)
	}
	l.pos++

	end := strings.IndexByte(l.input[l.pos:], '}')
	if end < 0 {
		return token{}, types.ErrUnterminatedReference
	}
	name := l.input[l.pos : l.pos+end]
	l.pos += end + 1
	return token{kind: kind, text: name, off: start}, nil
}

// scanNumber scans an integer or decimal literal.
func (l *lexer) scanNumber() (token, error) {
	start := l.pos
	seenDot := false
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '.' {
			if seenDot {
				break
			}
			seenDot = true
			l.pos++
			continue
		}
		if !isDigit(c) {
			break
		}
		l.pos++
	}
	return token{kind: tokNumber, text: l.input[start:l.pos], off: start}, nil
}

// scanWord scans identifiers and keyword-like tokens: true/false/null,
// the A{...}/V{...} reference sigils, and d2:name call heads.
func (l *lexer) scanWord() (token, error) {
	start := l.pos

	// A{ and V{ are reference sigils, not identifiers.
	if (l.input[l.pos] == 'A' || l.input[l.pos] == 'V') &&
		l.pos+1 < len(l.input) && l.input[l.pos+1] == '{' {
		if l.input[l.pos] == 'A' {
			return l.scanRef(tokAttrRef, 1)
		}
		return l.scanRef(tokSysRef, 1)
	}

	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	word := l.input[start:l.pos]

	// d2:name is a single call-head token.
	if word == "d2" && l.peek() == ':' {
		l.pos++
		nameStart := l.pos
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		if l.pos == nameStart {
			return token{}, fmt.Errorf("offset %d: expected function name after 'd2:'", start)
		}
		return token{kind: tokCall, text: l.input[nameStart:l.pos], off: start}, nil
	}

	switch word {
	case "true":
		return token{kind: tokTrue, off: start}, nil
	case "false":
		return token{kind: tokFalse, off: start}, nil
	case "null":
		return token{kind: tokNull, off: start}, nil
	}
	return token{}, fmt.Errorf("offset %d: unexpected identifier %q", start, word)
}

// run consumes a run of byte c and returns its length including any
// already-consumed first byte at the current position.
func (l *lexer) run(c byte) int {
	n := 0
	for l.pos < len(l.input) && l.input[l.pos] == c {
		l.pos++
		n++
	}
	return n
}

// peek returns the current byte without consuming, or 0 at end of input.
func (l *lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
