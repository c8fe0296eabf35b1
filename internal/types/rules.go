// internal/types/rules.go
package types

import "time"

/*
 * Domain types for program rule evaluation.
 *
 * Provides Rule, RuleVariable, Action and Context structures consumed by
 * internal/engine. These types are storage-format agnostic - row-to-types
 * and bundle-to-types conversion happens in internal/metadata.
 *
 * Key types:
 *   - Rule: condition text plus ordered actions, optionally scoped to a
 *     program and program stage
 *   - RuleVariable: named alias bound to exactly one data element or
 *     tracked-entity attribute
 *   - Action: discriminated action kind with a tagged field target
 *   - Context: program/stage selectors and context dates for one
 *     evaluation call
 *
 * Dependencies: standard library only.
 */

// SourceKind discriminates where a variable or action target draws its
// value from. A single tagged kind (rather than two parallel optional id
// fields) makes context filtering exhaustiveness checkable.
type SourceKind int

const (
	// SourceNone marks an action with no field target (section, message
	// literal) or an unresolved reference.
	SourceNone SourceKind = iota

	// SourceDataElement references one field of the current event.
	SourceDataElement

	// SourceAttribute references one field of the person profile.
	SourceAttribute
)

// String returns the metadata wire name for the source kind.
func (k SourceKind) String() string {
	switch k {
	case SourceDataElement:
		return "dataElement"
	case SourceAttribute:
		return "trackedEntityAttribute"
	default:
		return "none"
	}
}

// FieldRef is a tagged reference to a data element or attribute.
// The zero value means "no field target".
type FieldRef struct {
	Kind SourceKind
	ID   string
}

// IsZero reports whether the reference points at nothing.
func (r FieldRef) IsZero() bool {
	return r.Kind == SourceNone || r.ID == ""
}

// RuleVariable binds a rule-text name to exactly one data element or
// tracked-entity attribute. Names are referenced from rule text via
// #{name} and A{name}.
type RuleVariable struct {
	Name   string
	Source FieldRef
}

// ActionType enumerates the action kinds a rule may carry.
type ActionType int

const (
	ActionUnknown ActionType = iota
	ActionAssign
	ActionHideField
	ActionShowField
	ActionHideSection
	ActionShowSection
	ActionHideOption
	ActionShowOption
	ActionHideOptionGroup
	ActionShowOptionGroup
	ActionDisplayText
	ActionError
	ActionShowError
	ActionShowWarning
)

// actionTypeNames maps metadata wire names to action kinds. Unknown names
// map to ActionUnknown, which the effect collector ignores (forward
// compatibility with newer authoring backends).
var actionTypeNames = map[string]ActionType{
	"ASSIGN":          ActionAssign,
	"HIDEFIELD":       ActionHideField,
	"SHOWFIELD":       ActionShowField,
	"HIDESECTION":     ActionHideSection,
	"SHOWSECTION":     ActionShowSection,
	"HIDEOPTION":      ActionHideOption,
	"SHOWOPTION":      ActionShowOption,
	"HIDEOPTIONGROUP": ActionHideOptionGroup,
	"SHOWOPTIONGROUP": ActionShowOptionGroup,
	"DISPLAYTEXT":     ActionDisplayText,
	"ERROR":           ActionError,
	"SHOWERROR":       ActionShowError,
	"SHOWWARNING":     ActionShowWarning,
}

// ParseActionType converts a metadata wire name to an ActionType.
// Unrecognized names return ActionUnknown without error.
func ParseActionType(name string) ActionType {
	return actionTypeNames[name]
}

// String returns the metadata wire name for the action type.
func (t ActionType) String() string {
	for name, at := range actionTypeNames {
		if at == t {
			return name
		}
	}
	return "UNKNOWN"
}

// Action is one effect a rule produces when its condition holds.
//
// Field is the data-element or attribute target for field-level actions
// (assign, hide/show field, option filtering, messages attached to a
// field). Section, Option and OptionGroup are set only for their
// respective kinds. Content carries the ASSIGN expression text or the
// literal message payload.
type Action struct {
	Type        ActionType
	Field       FieldRef
	Section     SectionID
	Option      OptionID
	OptionGroup OptionGroupID
	Content     string
}

// Rule is one program rule: a boolean condition over rule variables plus
// the ordered actions applied when it evaluates true. Immutable once
// loaded; supplied fresh on each evaluation call.
//
// Program scopes the rule to one program ("" = any program). Stage scopes
// it to one program stage; "" means the rule is global and also applies
// in registration context.
type Rule struct {
	RuleID  RuleID
	Name    string
	Program ProgramID
	Stage   StageID

	Condition string
	Actions   []Action
}

// Context carries the selectors and dates for a single evaluation call.
//
// Stage == "" selects registration context (attribute-targeted actions
// only); a non-empty Stage selects event context (data-element-targeted
// actions only). Dates are ISO "2006-01-02" strings as supplied by the
// enrollment record; empty strings fall back to today where the variable
// resolver documents it.
type Context struct {
	Program        ProgramID
	Stage          StageID
	EventDate      string
	EnrollmentDate string

	// Now anchors the current_date system variable. The zero value means
	// time.Now(); tests inject a fixed clock for determinism.
	Now time.Time
}

// IsEvent reports whether the context evaluates within a program stage.
func (c Context) IsEvent() bool {
	return c.Stage != ""
}
