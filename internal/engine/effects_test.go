// internal/engine/effects_test.go
package engine

import (
	"testing"

	"github.com/caribou-health/ruleflow/internal/types"
)

// literalEval stands in for the cascade's expression evaluator: the
// payload text is the value.
func literalEval(text string) any { return text }

func TestEffectSet_HideFieldDualEffect(t *testing.T) {
	set := NewEffectSet()
	set.apply(types.Action{
		Type:  types.ActionHideField,
		Field: types.FieldRef{Kind: types.SourceDataElement, ID: "DE1"},
	}, literalEval)

	if !set.HiddenFields["DE1"] {
		t.Error("HiddenFields missing DE1")
	}
	v, ok := set.Assignments["DE1"]
	if !ok || v != "" {
		t.Errorf("Assignments[DE1] = %v (present=%v), want empty string", v, ok)
	}
}

func TestEffectSet_LastWriterWins(t *testing.T) {
	field := types.FieldRef{Kind: types.SourceDataElement, ID: "DE1"}

	set := NewEffectSet()
	set.apply(types.Action{Type: types.ActionHideField, Field: field}, literalEval)
	set.apply(types.Action{Type: types.ActionShowField, Field: field}, literalEval)

	if set.HiddenFields["DE1"] {
		t.Error("DE1 still hidden after later SHOWFIELD")
	}
	if !set.ShownFields["DE1"] {
		t.Error("DE1 not in ShownFields")
	}

	set.apply(types.Action{Type: types.ActionHideSection, Section: "SEC"}, literalEval)
	set.apply(types.Action{Type: types.ActionShowSection, Section: "SEC"}, literalEval)
	if set.HiddenSections["SEC"] || !set.ShownSections["SEC"] {
		t.Error("section visibility did not follow last writer")
	}
}

func TestEffectSet_OptionFiltering(t *testing.T) {
	field := types.FieldRef{Kind: types.SourceDataElement, ID: "DE1"}

	set := NewEffectSet()
	set.apply(types.Action{Type: types.ActionHideOption, Field: field, Option: "OPT1"}, literalEval)
	set.apply(types.Action{Type: types.ActionHideOption, Field: field, Option: "OPT2"}, literalEval)
	set.apply(types.Action{Type: types.ActionShowOption, Field: field, Option: "OPT1"}, literalEval)
	set.apply(types.Action{Type: types.ActionHideOptionGroup, Field: field, OptionGroup: "G1"}, literalEval)

	if set.HiddenOptions["DE1"]["OPT1"] {
		t.Error("OPT1 still hidden after later SHOWOPTION")
	}
	if !set.HiddenOptions["DE1"]["OPT2"] {
		t.Error("OPT2 not hidden")
	}
	if !set.ShownOptions["DE1"]["OPT1"] {
		t.Error("OPT1 not shown")
	}
	if !set.HiddenOptionGroups["DE1"]["G1"] {
		t.Error("G1 not hidden")
	}
}

func TestEffectSet_Messages(t *testing.T) {
	field := types.FieldRef{Kind: types.SourceDataElement, ID: "DE1"}

	set := NewEffectSet()
	set.apply(types.Action{Type: types.ActionDisplayText, Field: field, Content: "info"}, literalEval)
	set.apply(types.Action{Type: types.ActionShowWarning, Field: field, Content: "careful"}, literalEval)
	set.apply(types.Action{Type: types.ActionShowError, Field: field, Content: "bad"}, literalEval)
	set.apply(types.Action{Type: types.ActionError, Field: field, Content: "also bad"}, literalEval)

	if len(set.DisplayTexts) != 1 || set.DisplayTexts[0].Content != "info" {
		t.Errorf("DisplayTexts = %v", set.DisplayTexts)
	}
	if len(set.Warnings) != 1 || set.Warnings[0].Content != "careful" {
		t.Errorf("Warnings = %v", set.Warnings)
	}
	// ERROR and SHOWERROR both land in the errors list.
	if len(set.Errors) != 2 {
		t.Errorf("Errors = %v, want 2 entries", set.Errors)
	}
}

func TestEffectSet_UnknownActionIgnored(t *testing.T) {
	set := NewEffectSet()
	set.apply(types.Action{Type: types.ActionUnknown, Content: "whatever"}, literalEval)

	if len(set.Assignments) != 0 || len(set.HiddenFields) != 0 || len(set.Errors) != 0 {
		t.Error("unknown action produced effects")
	}
}

func TestEffectSet_Merge(t *testing.T) {
	first := NewEffectSet()
	first.Assignments["DE1"] = "old"
	first.HiddenFields["DE2"] = true
	first.Warnings = append(first.Warnings, Message{ID: "DE3", Content: "w"})

	second := NewEffectSet()
	second.Assignments["DE1"] = "new"
	second.ShownFields["DE2"] = true // later pass un-hides
	second.Warnings = append(second.Warnings, Message{ID: "DE3", Content: "w"}) // duplicate
	second.Warnings = append(second.Warnings, Message{ID: "DE4", Content: "x"})

	first.merge(second)

	if first.Assignments["DE1"] != "new" {
		t.Errorf("Assignments[DE1] = %v, want new", first.Assignments["DE1"])
	}
	if first.HiddenFields["DE2"] || !first.ShownFields["DE2"] {
		t.Error("merge did not apply last-writer-wins for DE2 visibility")
	}
	if len(first.Warnings) != 2 {
		t.Errorf("Warnings = %v, want deduplicated 2 entries", first.Warnings)
	}
}
