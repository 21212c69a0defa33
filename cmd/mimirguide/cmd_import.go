/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/friendsincode/mimir_guide/internal/guide"
	"github.com/friendsincode/mimir_guide/internal/loader"
)

var (
	importFile   string
	importDryRun bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import lineup programs from a CSV file",
	Long: `Import programs from a CSV file with a program_name,start_time,end_time
header. Each valid row is inserted through the guide service so its interval
record is written in the same transaction. Invalid rows are reported and
skipped; they never abort the import.

Examples:
  # Validate a file without writing anything
  mimirguide import --file lineup.csv --dry-run

  # Import for real
  mimirguide import --file lineup.csv`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "Path to the lineup CSV file (required)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate rows without inserting")
	importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	f, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("open %s: %w", importFile, err)
	}
	defer f.Close()

	guideSvc := guide.NewService(database, nil, nil, logger)
	result, err := loader.NewService(guideSvc, logger).Load(cmd.Context(), f, importDryRun)
	if err != nil {
		return fmt.Errorf("import %s: %w", importFile, err)
	}

	for _, failure := range result.Failures {
		for _, msg := range failure.Errors {
			fmt.Fprintf(os.Stderr, "row %d: %s\n", failure.Row, msg)
		}
	}
	fmt.Printf("loaded %d programs, %d rows failed\n", result.Loaded, result.Failed)
	if importDryRun {
		fmt.Println("dry run: nothing was written")
	}
	return nil
}
