// internal/engine/variables_test.go
package engine

import (
	"testing"
	"time"

	"github.com/caribou-health/ruleflow/internal/types"
)

func TestResolveVariables_LookupOrder(t *testing.T) {
	vars := []types.RuleVariable{
		{Name: "age", Source: types.FieldRef{Kind: types.SourceDataElement, ID: "DE_age"}},
		{Name: "name", Source: types.FieldRef{Kind: types.SourceAttribute, ID: "AT_name"}},
		{Name: "both", Source: types.FieldRef{Kind: types.SourceDataElement, ID: "shared"}},
		{Name: "absent", Source: types.FieldRef{Kind: types.SourceDataElement, ID: "DE_missing"}},
	}
	data := types.ValueMap{"DE_age": float64(12), "shared": "from-data"}
	attrs := types.ValueMap{"AT_name": "Amira", "shared": "from-attrs"}

	table := ResolveVariables(vars, data, attrs, types.Context{})

	if table["age"] != float64(12) {
		t.Errorf("age = %v, want 12", table["age"])
	}
	if table["name"] != "Amira" {
		t.Errorf("name = %v, want Amira", table["name"])
	}
	// Data values shadow attributes for the same id.
	if table["both"] != "from-data" {
		t.Errorf("both = %v, want from-data", table["both"])
	}
	// Absent ids resolve to an explicit nil entry.
	v, ok := table["absent"]
	if !ok {
		t.Fatal("absent variable missing from table")
	}
	if v != nil {
		t.Errorf("absent = %v, want nil", v)
	}
}

func TestResolveVariables_SkipsMalformed(t *testing.T) {
	vars := []types.RuleVariable{
		{Name: "", Source: types.FieldRef{Kind: types.SourceDataElement, ID: "DE1"}},
		{Name: "unsourced", Source: types.FieldRef{}},
	}
	table := ResolveVariables(vars, types.ValueMap{"DE1": "x"}, nil, types.Context{})

	if _, ok := table[""]; ok {
		t.Error("table contains empty-name entry")
	}
	if _, ok := table["unsourced"]; ok {
		t.Error("table contains entry for variable without a source")
	}
}

func TestResolveVariables_SystemVariables(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	ctx := types.Context{
		EventDate:      "2026-03-10",
		EnrollmentDate: "2026-01-02",
		Now:            now,
	}
	table := ResolveVariables(nil, nil, nil, ctx)

	if table[VarCurrentDate] != "2026-03-14" {
		t.Errorf("current_date = %v, want 2026-03-14", table[VarCurrentDate])
	}
	if table[VarEventDate] != "2026-03-10" {
		t.Errorf("event_date = %v, want 2026-03-10", table[VarEventDate])
	}
	if table[VarEnrollmentDate] != "2026-01-02" {
		t.Errorf("enrollment_date = %v, want 2026-01-02", table[VarEnrollmentDate])
	}
	if table[VarEventCount] != float64(1) {
		t.Errorf("event_count = %v, want 1", table[VarEventCount])
	}
}

func TestResolveVariables_SystemDefaults(t *testing.T) {
	now := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	table := ResolveVariables(nil, nil, nil, types.Context{Now: now})

	// Without an explicit event date, today stands in.
	if table[VarEventDate] != "2026-03-14" {
		t.Errorf("event_date = %v, want 2026-03-14", table[VarEventDate])
	}
	if table[VarEnrollmentDate] != nil {
		t.Errorf("enrollment_date = %v, want nil", table[VarEnrollmentDate])
	}
}
