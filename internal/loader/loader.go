/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package loader bulk-imports lineup CSV files through the guide service, so
// every imported program gets its interval record in the same transaction.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/friendsincode/mimir_guide/internal/guide"
	"github.com/friendsincode/mimir_guide/internal/models"
	"github.com/friendsincode/mimir_guide/internal/timeday"
)

// dangerousTokens are rejected outright at import time. The integrity scan
// reports the same tokens as warnings when they already made it into the
// database.
var dangerousTokens = []string{"drop", "delete", "insert", "update", "select", "--", ";"}

// RowError describes one rejected CSV row.
type RowError struct {
	Row    int
	Name   string
	Errors []string
}

// Result summarizes an import run.
type Result struct {
	Loaded   int
	Failed   int
	Failures []RowError
}

// Service reads lineup CSV files and feeds them to the guide.
type Service struct {
	guide  *guide.Service
	logger zerolog.Logger
}

// NewService creates a loader bound to the guide write path.
func NewService(g *guide.Service, logger zerolog.Logger) *Service {
	return &Service{
		guide:  g,
		logger: logger.With().Str("component", "loader").Logger(),
	}
}

// Load imports CSV rows with a program_name,start_time,end_time header. Rows
// that fail validation or insertion are collected, not fatal; the import
// continues with the remaining rows. With dryRun set, rows are validated but
// nothing is written.
func (s *Service) Load(ctx context.Context, r io.Reader, dryRun bool) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, RowError{
				Row:    rowNum,
				Errors: []string{fmt.Sprintf("malformed csv row: %v", err)},
			})
			continue
		}

		name, rng, rowErrs := parseRow(record, columns)
		if len(rowErrs) > 0 {
			result.Failed++
			result.Failures = append(result.Failures, RowError{Row: rowNum, Name: name, Errors: rowErrs})
			continue
		}

		if !dryRun {
			if err := s.guide.Insert(ctx, name, rng); err != nil {
				result.Failed++
				result.Failures = append(result.Failures, RowError{
					Row:    rowNum,
					Name:   name,
					Errors: []string{err.Error()},
				})
				continue
			}
		}
		result.Loaded++
	}

	s.logger.Info().
		Bool("dry_run", dryRun).
		Int("loaded", result.Loaded).
		Int("failed", result.Failed).
		Msg("lineup import completed")
	return result, nil
}

type columnIndex struct {
	name, start, end int
}

func mapColumns(header []string) (columnIndex, error) {
	idx := columnIndex{name: -1, start: -1, end: -1}
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "program_name":
			idx.name = i
		case "start_time":
			idx.start = i
		case "end_time":
			idx.end = i
		}
	}
	if idx.name < 0 || idx.start < 0 || idx.end < 0 {
		return idx, fmt.Errorf("csv header must contain program_name, start_time and end_time, got %v", header)
	}
	return idx, nil
}

func parseRow(record []string, columns columnIndex) (string, timeday.Range, []string) {
	var errs []string

	field := func(i int) string {
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	name := field(columns.name)
	startRaw := field(columns.start)
	endRaw := field(columns.end)

	switch {
	case name == "":
		errs = append(errs, "program name is missing or empty")
	case strings.Contains(strings.ToLower(name), "null"):
		errs = append(errs, "program name contains NULL value")
	case len(name) > models.MaxNameLength:
		errs = append(errs, fmt.Sprintf("program name exceeds maximum length (%d characters)", models.MaxNameLength))
	}
	for _, token := range dangerousTokens {
		if strings.Contains(strings.ToLower(name), token) {
			errs = append(errs, fmt.Sprintf("program name contains potentially dangerous pattern: %s", token))
		}
	}

	var rng timeday.Range
	start, err := parseClock(startRaw, "start_time")
	if err != nil {
		errs = append(errs, err.Error())
	}
	end, err := parseClock(endRaw, "end_time")
	if err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) == 0 {
		rng = timeday.Range{Start: start, End: end}
	}
	return name, rng, errs
}

// parseClock accepts "HH:MM" plus the legacy "24:00" spelling of midnight.
func parseClock(s, fieldName string) (timeday.Time, error) {
	if s == "" || strings.EqualFold(s, "null") {
		return 0, fmt.Errorf("%s contains NULL or empty value", fieldName)
	}
	if s == "24:00" {
		return 0, nil
	}
	t, err := timeday.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", fieldName, err)
	}
	return t, nil
}
