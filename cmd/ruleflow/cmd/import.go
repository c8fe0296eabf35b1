package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/caribou-health/ruleflow/internal/core/db"
	"github.com/caribou-health/ruleflow/internal/metadata"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a program rule bundle into the metadata store",
	RunE:  runImport,
}

var importFile string

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importFile, "file", "", "bundle JSON file (required)")
	importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("failed to open bundle: %w", err)
	}
	defer f.Close()

	bundle, err := metadata.ReadBundle(f)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	store, err := metadata.NewStore(database)
	if err != nil {
		return err
	}
	if err := store.Import(cmd.Context(), bundle); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	log.Info("bundle imported",
		"program", bundle.Program,
		"rules", len(bundle.Rules),
		"variables", len(bundle.Variables))
	return nil
}
