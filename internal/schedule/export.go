/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package schedule renders the program lineup for consumption outside the
// service, pairing each program with its derived interval count.
package schedule

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/friendsincode/mimir_guide/internal/models"
)

// Format selects an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user-supplied format name onto a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Entry is one exported lineup row.
type Entry struct {
	Name          string `json:"program_name" yaml:"program_name"`
	Start         string `json:"start_time" yaml:"start_time"`
	End           string `json:"end_time" yaml:"end_time"`
	WrapsMidnight bool   `json:"wraps_midnight" yaml:"wraps_midnight"`
	IntervalCount *int   `json:"interval_count" yaml:"interval_count"`
}

// Lineup is the full export document.
type Lineup struct {
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Programs    []Entry   `json:"programs" yaml:"programs"`
}

// ExportResult contains the encoded lineup.
type ExportResult struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ExportService renders the lineup in exportable formats.
type ExportService struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewExportService creates a new export service.
func NewExportService(db *gorm.DB, logger zerolog.Logger) *ExportService {
	return &ExportService{
		db:     db,
		logger: logger.With().Str("component", "schedule_export").Logger(),
	}
}

// Lineup loads every program ordered by start time, joined with its interval
// record. A program missing its record exports with a nil count rather than
// being dropped, so a corrupt lineup still exports completely.
func (s *ExportService) Lineup(ctx context.Context) (*Lineup, error) {
	var programs []models.Program
	if err := s.db.WithContext(ctx).Order("start_time, name").Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("load programs: %w", err)
	}

	var records []models.ProgramInterval
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load interval records: %w", err)
	}
	counts := make(map[string]int, len(records))
	for _, rec := range records {
		counts[rec.ProgramName] = rec.IntervalCount
	}

	lineup := &Lineup{
		GeneratedAt: time.Now().UTC(),
		Programs:    make([]Entry, 0, len(programs)),
	}
	for _, p := range programs {
		entry := Entry{
			Name:          p.Name,
			Start:         p.Start.String(),
			End:           p.End.String(),
			WrapsMidnight: p.Range().Wraps(),
		}
		if count, ok := counts[p.Name]; ok {
			entry.IntervalCount = &count
		}
		lineup.Programs = append(lineup.Programs, entry)
	}
	return lineup, nil
}

// Export encodes the lineup in the requested format.
func (s *ExportService) Export(ctx context.Context, format Format) (*ExportResult, error) {
	lineup, err := s.Lineup(ctx)
	if err != nil {
		return nil, err
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(lineup, "", "  ")
		contentType = "application/json"
	case FormatYAML:
		data, err = yaml.Marshal(lineup)
		contentType = "application/yaml"
	case FormatCSV:
		data, err = encodeCSV(lineup)
		contentType = "text/csv; charset=utf-8"
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode lineup as %s: %w", format, err)
	}

	s.logger.Debug().
		Str("format", string(format)).
		Int("programs", len(lineup.Programs)).
		Msg("lineup exported")

	return &ExportResult{
		Data:        data,
		Filename:    fmt.Sprintf("lineup-%s.%s", lineup.GeneratedAt.Format("2006-01-02"), format),
		ContentType: contentType,
	}, nil
}

func encodeCSV(lineup *Lineup) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"program_name", "start_time", "end_time", "wraps_midnight", "interval_count"}); err != nil {
		return nil, err
	}
	for _, entry := range lineup.Programs {
		count := ""
		if entry.IntervalCount != nil {
			count = strconv.Itoa(*entry.IntervalCount)
		}
		row := []string{
			entry.Name,
			entry.Start,
			entry.End,
			strconv.FormatBool(entry.WrapsMidnight),
			count,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
