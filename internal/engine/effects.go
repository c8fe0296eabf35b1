// internal/engine/effects.go
package engine

import (
	"github.com/caribou-health/ruleflow/internal/types"
)

/*
 * Effect collection.
 *
 * Folds the applicable actions of true-evaluated rules into one
 * EffectSet. Hidden/shown pairs keep a last-writer-wins discipline:
 * adding an id to one side removes it from the other, so a target can
 * never be both hidden and shown within one set. HIDEFIELD additionally
 * forces an empty-string assignment for the target, clearing any value
 * the field held - the dual effect form logic depends on.
 *
 * Unrecognized action kinds are a forward-compatible no-op: newer
 * authoring backends may ship kinds this client does not know.
 */

// IDSet is a set of metadata ids. Marshals as {"id": true} for uniform
// JSON consumption by form callers.
type IDSet map[string]bool

// Message is one displayed text, warning or error with the field it
// attaches to.
type Message struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// EffectSet is the structured output of one evaluation: assignments,
// visibility sets, per-field option filtering and message lists. All
// collections are allocated, never nil, so callers can treat the result
// uniformly.
type EffectSet struct {
	Assignments map[string]any `json:"assignments"`

	HiddenFields   IDSet `json:"hiddenFields"`
	ShownFields    IDSet `json:"shownFields"`
	HiddenSections IDSet `json:"hiddenSections"`
	ShownSections  IDSet `json:"shownSections"`

	// Option filtering keyed by owning field id.
	HiddenOptions      map[string]IDSet `json:"hiddenOptions"`
	ShownOptions       map[string]IDSet `json:"shownOptions"`
	HiddenOptionGroups map[string]IDSet `json:"hiddenOptionGroups"`
	ShownOptionGroups  map[string]IDSet `json:"shownOptionGroups"`

	DisplayTexts []Message `json:"displayTexts"`
	Warnings     []Message `json:"warnings"`
	Errors       []Message `json:"errors"`
}

// NewEffectSet returns a fully populated, empty effect set.
func NewEffectSet() *EffectSet {
	return &EffectSet{
		Assignments:        map[string]any{},
		HiddenFields:       IDSet{},
		ShownFields:        IDSet{},
		HiddenSections:     IDSet{},
		ShownSections:      IDSet{},
		HiddenOptions:      map[string]IDSet{},
		ShownOptions:       map[string]IDSet{},
		HiddenOptionGroups: map[string]IDSet{},
		ShownOptionGroups:  map[string]IDSet{},
		DisplayTexts:       []Message{},
		Warnings:           []Message{},
		Errors:             []Message{},
	}
}

// apply folds one action into the set. evalExpr resolves ASSIGN payload
// text to a value (the cascade controller supplies it so expression
// failures degrade to nil there, not here).
func (s *EffectSet) apply(a types.Action, evalExpr func(text string) any) {
	switch a.Type {
	case types.ActionAssign:
		if a.Field.IsZero() {
			return
		}
		s.Assignments[a.Field.ID] = evalExpr(a.Content)

	case types.ActionHideField:
		if a.Field.IsZero() {
			return
		}
		setHidden(s.HiddenFields, s.ShownFields, a.Field.ID)
		// Dual effect: a hidden field also has its value cleared.
		s.Assignments[a.Field.ID] = ""

	case types.ActionShowField:
		if a.Field.IsZero() {
			return
		}
		setHidden(s.ShownFields, s.HiddenFields, a.Field.ID)

	case types.ActionHideSection:
		setHidden(s.HiddenSections, s.ShownSections, string(a.Section))

	case types.ActionShowSection:
		setHidden(s.ShownSections, s.HiddenSections, string(a.Section))

	case types.ActionHideOption:
		s.addOption(s.HiddenOptions, s.ShownOptions, a.Field.ID, string(a.Option))

	case types.ActionShowOption:
		s.addOption(s.ShownOptions, s.HiddenOptions, a.Field.ID, string(a.Option))

	case types.ActionHideOptionGroup:
		s.addOption(s.HiddenOptionGroups, s.ShownOptionGroups, a.Field.ID, string(a.OptionGroup))

	case types.ActionShowOptionGroup:
		s.addOption(s.ShownOptionGroups, s.HiddenOptionGroups, a.Field.ID, string(a.OptionGroup))

	case types.ActionDisplayText:
		s.DisplayTexts = append(s.DisplayTexts, Message{ID: a.Field.ID, Content: a.Content})

	case types.ActionError, types.ActionShowError:
		s.Errors = append(s.Errors, Message{ID: a.Field.ID, Content: a.Content})

	case types.ActionShowWarning:
		s.Warnings = append(s.Warnings, Message{ID: a.Field.ID, Content: a.Content})

	default:
		// Unknown kind: ignore.
	}
}

// setHidden adds id to dst and drops it from the counterpart set
// (last writer wins).
func setHidden(dst, counterpart IDSet, id string) {
	if id == "" {
		return
	}
	dst[id] = true
	delete(counterpart, id)
}

// addOption records an option (or option-group) id under its owning
// field, creating the per-field set on first sight, and drops it from
// the counterpart map's set for the same field.
func (s *EffectSet) addOption(dst, counterpart map[string]IDSet, fieldID, optionID string) {
	if fieldID == "" || optionID == "" {
		return
	}
	set, ok := dst[fieldID]
	if !ok {
		set = IDSet{}
		dst[fieldID] = set
	}
	set[optionID] = true
	if other, ok := counterpart[fieldID]; ok {
		delete(other, optionID)
	}
}

// merge unions another pass's effects into s. Set effects union with
// the same last-writer-wins discipline (other is the later writer);
// assignments from other overwrite; messages are deduplicated on
// (id, content) so repeated cascade passes do not repeat them.
func (s *EffectSet) merge(other *EffectSet) {
	for id, v := range other.Assignments {
		s.Assignments[id] = v
	}
	for id := range other.HiddenFields {
		setHidden(s.HiddenFields, s.ShownFields, id)
	}
	for id := range other.ShownFields {
		setHidden(s.ShownFields, s.HiddenFields, id)
	}
	for id := range other.HiddenSections {
		setHidden(s.HiddenSections, s.ShownSections, id)
	}
	for id := range other.ShownSections {
		setHidden(s.ShownSections, s.HiddenSections, id)
	}
	mergeOptions := func(dst, counterpart map[string]IDSet, src map[string]IDSet) {
		for fieldID, set := range src {
			for optionID := range set {
				s.addOption(dst, counterpart, fieldID, optionID)
			}
		}
	}
	mergeOptions(s.HiddenOptions, s.ShownOptions, other.HiddenOptions)
	mergeOptions(s.ShownOptions, s.HiddenOptions, other.ShownOptions)
	mergeOptions(s.HiddenOptionGroups, s.ShownOptionGroups, other.HiddenOptionGroups)
	mergeOptions(s.ShownOptionGroups, s.HiddenOptionGroups, other.ShownOptionGroups)

	s.DisplayTexts = appendUnique(s.DisplayTexts, other.DisplayTexts)
	s.Warnings = appendUnique(s.Warnings, other.Warnings)
	s.Errors = appendUnique(s.Errors, other.Errors)
}

func appendUnique(dst, src []Message) []Message {
	for _, m := range src {
		seen := false
		for _, have := range dst {
			if have == m {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, m)
		}
	}
	return dst
}
