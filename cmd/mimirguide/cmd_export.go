/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/friendsincode/mimir_guide/internal/schedule"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the lineup with interval counts",
	Long: `Export every program with its derived interval count, ordered by start
time. Supported formats: json, csv, yaml.

Examples:
  mimirguide export --format csv --output lineup.csv
  mimirguide export --format yaml`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json, csv or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	format, err := schedule.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	result, err := schedule.NewExportService(database, logger).Export(cmd.Context(), format)
	if err != nil {
		return fmt.Errorf("export lineup: %w", err)
	}

	if exportOutput == "" {
		_, err = os.Stdout.Write(result.Data)
		return err
	}
	if err := os.WriteFile(exportOutput, result.Data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", exportOutput, err)
	}
	fmt.Printf("wrote %s\n", exportOutput)
	return nil
}
