package types

import "errors"

// Sentinel errors for RuleFlow operations.
var (
	// ErrExpressionTooLong indicates rule text exceeds MaxExpressionLength.
	ErrExpressionTooLong = errors.New("expression exceeds maximum length")

	// ErrTooManyArgs indicates a d2: call exceeds MaxFunctionArgs.
	ErrTooManyArgs = errors.New("function call has too many arguments")

	// ErrUnknownFunction indicates a d2: call names no built-in.
	ErrUnknownFunction = errors.New("unknown d2 function")

	// ErrUnterminatedString indicates rule text ends inside a string literal.
	ErrUnterminatedString = errors.New("unterminated string literal")

	// ErrUnterminatedReference indicates a #{, A{ or V{ reference with no
	// closing brace.
	ErrUnterminatedReference = errors.New("unterminated variable reference")

	// ErrEmptyExpression indicates rule text is empty or whitespace-only.
	ErrEmptyExpression = errors.New("expression is empty")

	// ErrBadIterationCap indicates a cascade iteration cap outside
	// [1, MaxCascadeIterations].
	ErrBadIterationCap = errors.New("cascade iteration cap out of range")

	// ErrUnknownSourceKind indicates metadata referenced neither a data
	// element nor a tracked-entity attribute.
	ErrUnknownSourceKind = errors.New("variable source is neither data element nor attribute")

	// ErrInvalidBundle indicates a metadata bundle failed structural
	// validation.
	ErrInvalidBundle = errors.New("invalid metadata bundle")

	// ErrProgramNotFound indicates the store holds no rules for the
	// requested program.
	ErrProgramNotFound = errors.New("program not found")
)
