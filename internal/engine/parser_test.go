// internal/engine/parser_test.go
package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/caribou-health/ruleflow/internal/types"
)

func TestCompile_Valid(t *testing.T) {
	tests := []struct {
		name string
		text string
		mode Mode
	}{
		{"number", "42", ModeExpression},
		{"decimal", "3.14", ModeExpression},
		{"string", "'hello'", ModeExpression},
		{"boolean", "true", ModeCondition},
		{"null literal", "null", ModeExpression},
		{"data reference", "#{current_age}", ModeExpression},
		{"attribute reference", "A{first_name}", ModeExpression},
		{"system reference", "V{event_date}", ModeCondition},
		{"bare equals condition", "#{age} = 10", ModeCondition},
		{"strict equals", "#{age} === 10", ModeCondition},
		{"comparison chain", "#{age} > 5 && #{age} <= 120", ModeCondition},
		{"arithmetic", "(#{weight} / (#{height} * #{height})) * 10000", ModeExpression},
		{"unary", "!d2:hasValue(#{age}) || -#{delta} > 0", ModeCondition},
		{"ternary", "#{age} < 13 ? 'child' : 'adult'", ModeExpression},
		{"nested ternary", "#{a} ? #{b} ? 1 : 2 : 3", ModeExpression},
		{"date call", "V{event_date} == d2:addDays(V{enrollment_date}, 7)", ModeCondition},
		{"nested calls", "d2:floor(d2:daysBetween(V{enrollment_date}, V{event_date}) / 7)", ModeExpression},
		{"variadic call", "d2:concatenate('a', 'b', 'c', 'd')", ModeExpression},
		{"modulo", "d2:modulus(#{n}, 2) == 0", ModeCondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile(tt.text, tt.mode); err != nil {
				t.Errorf("Compile(%q) error = %v, want nil", tt.text, err)
			}
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		mode    Mode
		wantErr error // nil means any error
	}{
		{"empty", "", ModeCondition, types.ErrEmptyExpression},
		{"whitespace only", "   ", ModeCondition, types.ErrEmptyExpression},
		{"unknown function", "d2:frobnicate(1)", ModeCondition, types.ErrUnknownFunction},
		{"bad arity", "d2:floor(1, 2)", ModeExpression, nil},
		{"missing operand", "#{age} ==", ModeCondition, nil},
		{"dangling operator", "1 +", ModeExpression, nil},
		{"unbalanced paren", "(1 + 2", ModeExpression, nil},
		{"trailing input", "1 2", ModeExpression, nil},
		{"ternary missing colon", "true ? 1", ModeExpression, nil},
		{"bare equals in expression", "#{a} = 1", ModeExpression, nil},
		{"unterminated string", "'abc", ModeCondition, types.ErrUnterminatedString},
		{"unterminated reference", "#{abc", ModeCondition, types.ErrUnterminatedReference},
		{"empty call parens mismatch", "d2:floor(", ModeExpression, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.text, tt.mode)
			if err == nil {
				t.Fatalf("Compile(%q) error = nil, want error", tt.text)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Compile(%q) error = %v, want %v", tt.text, err, tt.wantErr)
			}
		})
	}
}

func TestCompile_TooManyArgs(t *testing.T) {
	args := make([]string, types.MaxFunctionArgs+1)
	for i := range args {
		args[i] = "1"
	}
	text := "d2:concatenate(" + strings.Join(args, ", ") + ")"
	if _, err := Compile(text, ModeExpression); !errors.Is(err, types.ErrTooManyArgs) {
		t.Errorf("Compile() error = %v, want ErrTooManyArgs", err)
	}
}

func TestCompile_Precedence(t *testing.T) {
	// 1 + 2 * 3 must parse as 1 + (2 * 3).
	p, err := Compile("1 + 2 * 3", ModeExpression)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	v, err := p.EvalValue(&FuncEnv{Table: VariableTable{}})
	if err != nil {
		t.Fatalf("EvalValue() error = %v, want nil", err)
	}
	if v != float64(7) {
		t.Errorf("EvalValue() = %v, want 7", v)
	}

	// Comparison binds tighter than &&, && tighter than ||.
	p, err = Compile("1 > 2 && true || 3 < 4", ModeCondition)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	b, err := p.EvalCondition(&FuncEnv{Table: VariableTable{}})
	if err != nil {
		t.Fatalf("EvalCondition() error = %v, want nil", err)
	}
	if !b {
		t.Error("EvalCondition() = false, want true")
	}
}

// Property-based test: compilation is total over arbitrary input
func TestCompile_PropertyNeverPanics(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("compile never panics regardless of input", prop.ForAll(
		func(text string, asCondition bool) bool {
			mode := ModeExpression
			if asCondition {
				mode = ModeCondition
			}

			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Compile(%q) panicked: %v", text, r)
				}
			}()

			_, _ = Compile(text, mode)
			return true
		},
		gen.AnyString(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property-based test: quoted literals survive compile and evaluate
func TestCompile_PropertyStringRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("escaped string literals evaluate to their source value", prop.ForAll(
		func(s string) bool {
			text := quoteLiteral(s)
			p, err := Compile(text, ModeExpression)
			if err != nil {
				return false
			}
			v, err := p.EvalValue(&FuncEnv{Table: VariableTable{}})
			if err != nil {
				return false
			}
			return v == s
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// quoteLiteral renders s as a single-quoted rule-text literal.
func quoteLiteral(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\'' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	sb.WriteByte('\'')
	return sb.String()
}
