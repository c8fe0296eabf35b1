package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/caribou-health/ruleflow/internal/engine"
	"github.com/caribou-health/ruleflow/internal/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate program rules against current form values",
	Long: `Runs the rule engine for one program against a JSON file of current
data and attribute values and prints the resulting effect set. Intended
for rule authors testing metadata before shipping it.`,
	RunE: runEvaluate,
}

var (
	evalProgram        string
	evalBundle         string
	evalStage          string
	evalValuesFile     string
	evalEventDate      string
	evalEnrollmentDate string
)

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evalProgram, "program", "", "program id to evaluate from the metadata store")
	evaluateCmd.Flags().StringVar(&evalBundle, "bundle", "", "evaluate a bundle JSON file instead of the store")
	evaluateCmd.Flags().StringVar(&evalStage, "stage", "", "program stage id (omit for registration context)")
	evaluateCmd.Flags().StringVar(&evalValuesFile, "values", "", "JSON file with dataValues and attributeValues (required)")
	evaluateCmd.Flags().StringVar(&evalEventDate, "event-date", "", "event date (YYYY-MM-DD)")
	evaluateCmd.Flags().StringVar(&evalEnrollmentDate, "enrollment-date", "", "enrollment date (YYYY-MM-DD)")
	evaluateCmd.MarkFlagRequired("values")
}

// valuesFile is the input document for one evaluation.
type valuesFile struct {
	DataValues      types.ValueMap `json:"dataValues"`
	AttributeValues types.ValueMap `json:"attributeValues"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	meta, err := loadMetadata(cmd, evalProgram, evalBundle)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(evalValuesFile)
	if err != nil {
		return fmt.Errorf("failed to read values file: %w", err)
	}
	var values valuesFile
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("failed to parse values file: %w", err)
	}
	if values.DataValues == nil {
		values.DataValues = types.ValueMap{}
	}
	if values.AttributeValues == nil {
		values.AttributeValues = types.ValueMap{}
	}

	eng := engine.New(
		engine.WithMaxIterations(cfg.Engine.MaxIterations),
		engine.WithLogger(log),
	)
	effects, outcome := eng.Evaluate(engine.Input{
		Rules:           meta.Rules,
		Variables:       meta.Variables,
		DataValues:      values.DataValues,
		AttributeValues: values.AttributeValues,
		Context: types.Context{
			Program:        meta.Program,
			Stage:          types.StageID(evalStage),
			EventDate:      evalEventDate,
			EnrollmentDate: evalEnrollmentDate,
		},
	})

	if outcome == engine.OutcomeCapped {
		log.Warn("evaluation hit the cascade iteration cap",
			"program", meta.Program, "max_iterations", cfg.Engine.MaxIterations)
	}

	out, err := json.MarshalIndent(effects, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
