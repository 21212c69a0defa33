/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/friendsincode/mimir_guide/internal/integrity"
)

var validateExpectContiguous bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the data integrity scan and print the report",
	Long: `Run every integrity check against the lineup database and print the
validation report.

Checks performed:
- referential integrity between programs and interval records
- program time constraints (overlaps, optional gap detection)
- stored interval counts vs. recomputed values
- data quality (duplicates, empty or oversized names, zero durations)
- business rule heuristics (reported as warnings)

The command exits non-zero when any check records an error, so it can gate
deployments and scheduled health checks.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateExpectContiguous, "expect-contiguous", false, "Report gaps between consecutive programs as errors")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	svc := integrity.NewService(database, nil, logger)
	report, err := svc.ScanWithOptions(cmd.Context(), integrity.Options{
		ExpectContiguous: validateExpectContiguous,
	})
	if err != nil {
		return fmt.Errorf("integrity scan: %w", err)
	}

	fmt.Println(integrity.FormatReport(report))

	if !report.OverallValid {
		os.Exit(1)
	}
	return nil
}
