// internal/metadata/store_test.go
package metadata

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/caribou-health/ruleflow/internal/core/db"
	"github.com/caribou-health/ruleflow/internal/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	database, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("sqlx.Open() error = %v, want nil", err)
	}
	t.Cleanup(func() { database.Close() })
	// :memory: databases are per-connection.
	database.SetMaxOpenConns(1)

	if err := db.MigrateUp(database); err != nil {
		t.Fatalf("MigrateUp() error = %v, want nil", err)
	}
	store, err := NewStore(database)
	if err != nil {
		t.Fatalf("NewStore() error = %v, want nil", err)
	}
	return store
}

func TestStore_ImportAndLoad(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	bundle, err := ReadBundle(strings.NewReader(sampleBundle))
	if err != nil {
		t.Fatalf("ReadBundle() error = %v, want nil", err)
	}
	if err := store.Import(ctx, bundle); err != nil {
		t.Fatalf("Import() error = %v, want nil", err)
	}

	meta, err := store.LoadProgram(ctx, "P_child_health")
	if err != nil {
		t.Fatalf("LoadProgram() error = %v, want nil", err)
	}
	if len(meta.Rules) != 2 {
		t.Fatalf("LoadProgram() rules = %d, want 2", len(meta.Rules))
	}
	if len(meta.Variables) != 2 {
		t.Fatalf("LoadProgram() variables = %d, want 2", len(meta.Variables))
	}

	byID := make(map[types.RuleID]types.Rule, len(meta.Rules))
	for _, r := range meta.Rules {
		byID[r.RuleID] = r
	}

	r1, ok := byID["R1"]
	if !ok {
		t.Fatal("LoadProgram() missing rule R1")
	}
	if r1.Stage != "S_visit" || r1.Condition != "d2:hasValue(#{weight}) === false" {
		t.Errorf("R1 = %+v", r1)
	}
	if len(r1.Actions) != 1 || r1.Actions[0].Type != types.ActionHideField {
		t.Errorf("R1 actions = %+v", r1.Actions)
	}

	r2 := byID["R2"]
	if len(r2.Actions) != 4 {
		t.Fatalf("R2 actions = %d, want 4 (order preserved)", len(r2.Actions))
	}
	if r2.Actions[0].Type != types.ActionAssign ||
		r2.Actions[0].Field != (types.FieldRef{Kind: types.SourceAttribute, ID: "AT_full"}) {
		t.Errorf("R2 first action = %+v", r2.Actions[0])
	}
	if r2.Actions[3].Type != types.ActionUnknown {
		t.Errorf("R2 last action type = %v, want ActionUnknown round-tripped", r2.Actions[3].Type)
	}
}

func TestStore_ImportReplaces(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	bundle, err := ReadBundle(strings.NewReader(sampleBundle))
	if err != nil {
		t.Fatalf("ReadBundle() error = %v, want nil", err)
	}
	if err := store.Import(ctx, bundle); err != nil {
		t.Fatalf("first Import() error = %v, want nil", err)
	}

	// Re-importing the same program must replace, not accumulate.
	smaller := &Bundle{
		Program: "P_child_health",
		Rules: []BundleRule{{
			ID:        "R9",
			Name:      "only rule",
			Condition: "true",
			Actions:   []BundleAction{{Type: "HIDEFIELD", DataElement: "DE_x"}},
		}},
	}
	if err := store.Import(ctx, smaller); err != nil {
		t.Fatalf("second Import() error = %v, want nil", err)
	}

	meta, err := store.LoadProgram(ctx, "P_child_health")
	if err != nil {
		t.Fatalf("LoadProgram() error = %v, want nil", err)
	}
	if len(meta.Rules) != 1 || meta.Rules[0].RuleID != "R9" {
		t.Errorf("LoadProgram() rules = %+v, want only R9", meta.Rules)
	}
	if len(meta.Variables) != 0 {
		t.Errorf("LoadProgram() variables = %+v, want none", meta.Variables)
	}
}

func TestStore_LoadProgramNotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.LoadProgram(context.Background(), "P_nope")
	if !errors.Is(err, types.ErrProgramNotFound) {
		t.Errorf("LoadProgram() error = %v, want ErrProgramNotFound", err)
	}
}

func TestStore_ImportRejectsInvalidBundle(t *testing.T) {
	store := testStore(t)

	err := store.Import(context.Background(), &Bundle{})
	if !errors.Is(err, types.ErrInvalidBundle) {
		t.Errorf("Import() error = %v, want ErrInvalidBundle", err)
	}
}
