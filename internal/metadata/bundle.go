// internal/metadata/bundle.go
package metadata

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/caribou-health/ruleflow/internal/types"
)

/*
 * Metadata bundle format.
 *
 * A bundle is the JSON document the authoring backend exports for one
 * program: its rules (condition text plus actions) and its rule
 * variables. Bundles are the unit of import into the metadata store and
 * can also be evaluated or linted directly from file.
 *
 * Wire shape follows the authoring backend's conventions: action types
 * are upper-case names (ASSIGN, HIDEFIELD, ...), field targets carry
 * either dataElement or trackedEntityAttribute, and rule variables carry
 * exactly one of the two.
 */

// Bundle is one program's rule metadata.
type Bundle struct {
	Program   string           `json:"program"`
	Rules     []BundleRule     `json:"programRules"`
	Variables []BundleVariable `json:"programRuleVariables"`
}

// BundleRule is the wire form of one program rule.
type BundleRule struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Program   string         `json:"program"`
	Stage     string         `json:"programStage,omitempty"`
	Condition string         `json:"condition"`
	Actions   []BundleAction `json:"actions"`
}

// BundleAction is the wire form of one rule action.
type BundleAction struct {
	Type                   string `json:"type"`
	DataElement            string `json:"dataElement,omitempty"`
	TrackedEntityAttribute string `json:"trackedEntityAttribute,omitempty"`
	Section                string `json:"programStageSection,omitempty"`
	Option                 string `json:"option,omitempty"`
	OptionGroup            string `json:"optionGroup,omitempty"`
	Content                string `json:"content,omitempty"`
}

// BundleVariable is the wire form of one rule variable.
type BundleVariable struct {
	Name                   string `json:"name"`
	DataElement            string `json:"dataElement,omitempty"`
	TrackedEntityAttribute string `json:"trackedEntityAttribute,omitempty"`
}

// ReadBundle decodes and validates a bundle document.
func ReadBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidBundle, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks structural invariants: a program id, rule ids and
// conditions present, and exactly one source per variable.
func (b *Bundle) Validate() error {
	if b.Program == "" {
		return fmt.Errorf("%w: missing program id", types.ErrInvalidBundle)
	}
	for i, r := range b.Rules {
		if r.ID == "" {
			return fmt.Errorf("%w: rule %d has no id", types.ErrInvalidBundle, i)
		}
		if r.Condition == "" {
			return fmt.Errorf("%w: rule %s has no condition", types.ErrInvalidBundle, r.ID)
		}
	}
	for _, v := range b.Variables {
		if v.Name == "" {
			return fmt.Errorf("%w: variable with empty name", types.ErrInvalidBundle)
		}
		if (v.DataElement == "") == (v.TrackedEntityAttribute == "") {
			return fmt.Errorf("%w: variable %q: %v",
				types.ErrInvalidBundle, v.Name, types.ErrUnknownSourceKind)
		}
	}
	return nil
}

// ToRules converts wire rules to engine rules. Unknown action type names
// become ActionUnknown, which the effect collector ignores.
func (b *Bundle) ToRules() []types.Rule {
	rules := make([]types.Rule, 0, len(b.Rules))
	for _, br := range b.Rules {
		rule := types.Rule{
			RuleID:    types.RuleID(br.ID),
			Name:      br.Name,
			Program:   types.ProgramID(br.Program),
			Stage:     types.StageID(br.Stage),
			Condition: br.Condition,
			Actions:   make([]types.Action, 0, len(br.Actions)),
		}
		if rule.Program == "" {
			rule.Program = types.ProgramID(b.Program)
		}
		for _, ba := range br.Actions {
			rule.Actions = append(rule.Actions, ba.toAction())
		}
		rules = append(rules, rule)
	}
	return rules
}

// ToVariables converts wire variables to engine rule variables.
func (b *Bundle) ToVariables() []types.RuleVariable {
	vars := make([]types.RuleVariable, 0, len(b.Variables))
	for _, bv := range b.Variables {
		source := types.FieldRef{Kind: types.SourceDataElement, ID: bv.DataElement}
		if bv.DataElement == "" {
			source = types.FieldRef{Kind: types.SourceAttribute, ID: bv.TrackedEntityAttribute}
		}
		vars = append(vars, types.RuleVariable{Name: bv.Name, Source: source})
	}
	return vars
}

func (ba BundleAction) toAction() types.Action {
	a := types.Action{
		Type:        types.ParseActionType(ba.Type),
		Section:     types.SectionID(ba.Section),
		Option:      types.OptionID(ba.Option),
		OptionGroup: types.OptionGroupID(ba.OptionGroup),
		Content:     ba.Content,
	}
	switch {
	case ba.DataElement != "":
		a.Field = types.FieldRef{Kind: types.SourceDataElement, ID: ba.DataElement}
	case ba.TrackedEntityAttribute != "":
		a.Field = types.FieldRef{Kind: types.SourceAttribute, ID: ba.TrackedEntityAttribute}
	}
	return a
}
