// internal/metadata/store.go
package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/caribou-health/ruleflow/internal/core/db"
	"github.com/caribou-health/ruleflow/internal/types"
)

/*
 * Rule metadata store.
 *
 * Loads one program's rules and variables from the database (the
 * "external metadata source" the engine consumes, loaded once per
 * program and immutable for the duration of an evaluation) and imports
 * authored bundles transactionally: an import replaces the program's
 * previous rule set atomically, so a reader never observes a half
 * imported program.
 *
 * Row-to-domain conversion lives here; internal/types stays free of
 * database tags, matching the wire-format separation used across the
 * codebase.
 */

// Store provides program rule metadata access over a sqlx database.
type Store struct {
	db *sqlx.DB
	q  *db.Queries
}

// NewStore creates a store using the shared named-query set.
func NewStore(database *sqlx.DB) (*Store, error) {
	queries, err := db.LoadQueries(database)
	if err != nil {
		return nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return &Store{db: database, q: queries}, nil
}

// ProgramMetadata is one program's complete rule set as the engine
// consumes it.
type ProgramMetadata struct {
	Program   types.ProgramID
	Rules     []types.Rule
	Variables []types.RuleVariable
}

type ruleRow struct {
	RuleID    string `db:"rule_id"`
	Name      string `db:"name"`
	ProgramID string `db:"program_id"`
	StageID   string `db:"stage_id"`
	Condition string `db:"condition"`
}

type actionRow struct {
	RuleID        string `db:"rule_id"`
	Ord           int    `db:"ord"`
	ActionType    string `db:"action_type"`
	TargetKind    string `db:"target_kind"`
	TargetID      string `db:"target_id"`
	SectionID     string `db:"section_id"`
	OptionID      string `db:"option_id"`
	OptionGroupID string `db:"option_group_id"`
	Content       string `db:"content"`
}

type variableRow struct {
	ProgramID  string `db:"program_id"`
	Name       string `db:"name"`
	SourceKind string `db:"source_kind"`
	SourceID   string `db:"source_id"`
}

// LoadProgram loads the rule set for one program.
// Returns types.ErrProgramNotFound when the store holds no rules for it.
func (s *Store) LoadProgram(ctx context.Context, program types.ProgramID) (*ProgramMetadata, error) {
	var ruleRows []ruleRow
	if err := s.selectContext(ctx, "list-rules-by-program", &ruleRows, string(program)); err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	if len(ruleRows) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrProgramNotFound, program)
	}

	var actionRows []actionRow
	if err := s.selectContext(ctx, "list-actions-by-program", &actionRows, string(program)); err != nil {
		return nil, fmt.Errorf("failed to load actions: %w", err)
	}
	actionsByRule := make(map[string][]types.Action, len(ruleRows))
	for _, ar := range actionRows {
		actionsByRule[ar.RuleID] = append(actionsByRule[ar.RuleID], ar.toAction())
	}

	var variableRows []variableRow
	if err := s.selectContext(ctx, "list-variables-by-program", &variableRows, string(program)); err != nil {
		return nil, fmt.Errorf("failed to load variables: %w", err)
	}

	meta := &ProgramMetadata{Program: program}
	for _, rr := range ruleRows {
		meta.Rules = append(meta.Rules, types.Rule{
			RuleID:    types.RuleID(rr.RuleID),
			Name:      rr.Name,
			Program:   types.ProgramID(rr.ProgramID),
			Stage:     types.StageID(rr.StageID),
			Condition: rr.Condition,
			Actions:   actionsByRule[rr.RuleID],
		})
	}
	for _, vr := range variableRows {
		kind := types.SourceDataElement
		if vr.SourceKind == types.SourceAttribute.String() {
			kind = types.SourceAttribute
		}
		meta.Variables = append(meta.Variables, types.RuleVariable{
			Name:   vr.Name,
			Source: types.FieldRef{Kind: kind, ID: vr.SourceID},
		})
	}
	return meta, nil
}

// Import replaces a program's rule metadata with the bundle's contents
// in one transaction.
func (s *Store) Import(ctx context.Context, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	// Actions are deleted explicitly rather than via ON DELETE CASCADE;
	// SQLite ships with foreign-key enforcement off.
	if err := s.execTx(ctx, tx, "delete-program-actions", b.Program); err != nil {
		return err
	}
	if err := s.execTx(ctx, tx, "delete-program-rules", b.Program); err != nil {
		return err
	}
	if err := s.execTx(ctx, tx, "delete-program-variables", b.Program); err != nil {
		return err
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	for _, rule := range b.ToRules() {
		if err := s.execTx(ctx, tx, "insert-rule",
			string(rule.RuleID), rule.Name, string(rule.Program),
			string(rule.Stage), rule.Condition, createdAt); err != nil {
			return err
		}
		for ord, a := range rule.Actions {
			targetKind := ""
			if !a.Field.IsZero() {
				targetKind = a.Field.Kind.String()
			}
			if err := s.execTx(ctx, tx, "insert-action",
				string(rule.RuleID), ord, a.Type.String(), targetKind, a.Field.ID,
				string(a.Section), string(a.Option), string(a.OptionGroup), a.Content); err != nil {
				return err
			}
		}
	}
	for _, v := range b.ToVariables() {
		if err := s.execTx(ctx, tx, "insert-variable",
			b.Program, v.Name, v.Source.Kind.String(), v.Source.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

func (s *Store) selectContext(ctx context.Context, name string, dest any, args ...any) error {
	query, err := s.q.Raw(name)
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, s.q.Rebind(query), args...)
}

func (s *Store) execTx(ctx context.Context, tx *sqlx.Tx, name string, args ...any) error {
	query, err := s.q.Raw(name)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.q.Rebind(query), args...); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

func (ar actionRow) toAction() types.Action {
	a := types.Action{
		Type:        types.ParseActionType(ar.ActionType),
		Section:     types.SectionID(ar.SectionID),
		Option:      types.OptionID(ar.OptionID),
		OptionGroup: types.OptionGroupID(ar.OptionGroupID),
		Content:     ar.Content,
	}
	switch ar.TargetKind {
	case types.SourceDataElement.String():
		a.Field = types.FieldRef{Kind: types.SourceDataElement, ID: ar.TargetID}
	case types.SourceAttribute.String():
		a.Field = types.FieldRef{Kind: types.SourceAttribute, ID: ar.TargetID}
	}
	return a
}
