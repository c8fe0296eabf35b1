// internal/types/rules_test.go
package types

import (
	"testing"
	"time"
)

func TestParseActionType(t *testing.T) {
	tests := []struct {
		name string
		want ActionType
	}{
		{"ASSIGN", ActionAssign},
		{"HIDEFIELD", ActionHideField},
		{"SHOWOPTIONGROUP", ActionShowOptionGroup},
		{"SHOWWARNING", ActionShowWarning},
		{"ERROR", ActionError},
		{"assign", ActionUnknown}, // wire names are upper-case
		{"FUTURETYPE", ActionUnknown},
		{"", ActionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseActionType(tt.name); got != tt.want {
				t.Errorf("ParseActionType(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestActionType_StringRoundTrip(t *testing.T) {
	for name := range map[string]ActionType{
		"ASSIGN": ActionAssign, "HIDEFIELD": ActionHideField,
		"DISPLAYTEXT": ActionDisplayText, "SHOWERROR": ActionShowError,
	} {
		if got := ParseActionType(name).String(); got != name {
			t.Errorf("ParseActionType(%q).String() = %q", name, got)
		}
	}
	if got := ActionUnknown.String(); got != "UNKNOWN" {
		t.Errorf("ActionUnknown.String() = %q, want UNKNOWN", got)
	}
}

func TestFieldRef_IsZero(t *testing.T) {
	if !(FieldRef{}).IsZero() {
		t.Error("zero FieldRef should be zero")
	}
	if !(FieldRef{Kind: SourceDataElement}).IsZero() {
		t.Error("FieldRef without id should be zero")
	}
	if !(FieldRef{ID: "DE1"}).IsZero() {
		t.Error("FieldRef without kind should be zero")
	}
	if (FieldRef{Kind: SourceAttribute, ID: "AT1"}).IsZero() {
		t.Error("complete FieldRef should not be zero")
	}
}

func TestContext_IsEvent(t *testing.T) {
	if (Context{Program: "P1"}).IsEvent() {
		t.Error("stage-less context should be registration")
	}
	if !(Context{Program: "P1", Stage: "S1"}).IsEvent() {
		t.Error("staged context should be event")
	}
}

func TestRuleID(t *testing.T) {
	id := NewRuleID()
	if id == "" {
		t.Fatal("NewRuleID() returned empty id")
	}
	parsed, err := ParseRuleID(string(id))
	if err != nil {
		t.Fatalf("ParseRuleID() error = %v, want nil", err)
	}
	if parsed != id {
		t.Errorf("ParseRuleID() = %v, want %v", parsed, id)
	}

	if _, err := ParseRuleID("not-a-uuid"); err == nil {
		t.Error("ParseRuleID() accepted malformed id")
	}

	// UUIDv7 embeds creation time.
	ts := RuleIDTime(id)
	if ts.IsZero() {
		t.Fatal("RuleIDTime() = zero time for fresh id")
	}
	if d := time.Since(ts); d < -time.Minute || d > time.Minute {
		t.Errorf("RuleIDTime() = %v, not near now", ts)
	}

	if !RuleIDTime("garbage").IsZero() {
		t.Error("RuleIDTime() on garbage should be zero time")
	}
}
