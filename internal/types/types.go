// Package types provides domain models shared across RuleFlow components.
//
// Zero-dependency design: types.go, rules.go and errors.go use only the
// standard library so embedding applications can depend on the engine
// without pulling in database or CLI packages. ID utilities in ids.go
// import uuid but are isolated for selective inclusion.
package types

// Identifier aliases for metadata entities. String aliases give type
// safety at call sites while keeping JSON string serialization.
type (
	// ProgramID identifies a tracker program (the overall workflow).
	ProgramID string

	// StageID identifies one program stage (a step/form within a program).
	StageID string

	// DataElementID identifies one field of a single visit/event record.
	DataElementID string

	// AttributeID identifies one field of a person's persistent profile.
	AttributeID string

	// SectionID identifies a form section.
	SectionID string

	// OptionID identifies one option of an option set.
	OptionID string

	// OptionGroupID identifies a named group of options.
	OptionGroupID string
)

// ValueMap holds current raw field values keyed by data-element or
// attribute id. Values are scalars as decoded from JSON: string, float64,
// bool, or nil. The engine copies rather than mutates caller maps.
type ValueMap map[string]any

// Resource limits enforced at expression compile time to keep rule
// evaluation bounded regardless of what rule authors submit.
const (
	// MaxExpressionLength caps the length of a single condition or
	// assignment expression. 8KB is an order of magnitude above the
	// longest rule text observed in real program metadata.
	MaxExpressionLength = 8 * 1024

	// MaxFunctionArgs caps argument lists of d2: calls. The widest
	// built-ins (zpvc, concatenate) are variadic; 32 keeps evaluation
	// cost linear in rule text size.
	MaxFunctionArgs = 32

	// MaxCascadeIterations is the hard ceiling for the configurable
	// cascade iteration cap. The cap itself defaults to
	// DefaultCascadeIterations; callers may raise it up to this value
	// for rule sets with deeper assignment dependency chains.
	MaxCascadeIterations = 50

	// DefaultCascadeIterations is the default fixpoint iteration cap.
	DefaultCascadeIterations = 5
)
