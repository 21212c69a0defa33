/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package integrity audits the programs and program_intervals tables without
// assuming the guide service was the only writer. Every check re-derives the
// expected state from scratch, so out-of-band edits are caught too. Scans are
// read-only and deterministic.
package integrity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/mimir_guide/internal/events"
	"github.com/friendsincode/mimir_guide/internal/models"
	"github.com/friendsincode/mimir_guide/internal/telemetry"
	"github.com/friendsincode/mimir_guide/internal/timeday"
)

// suspiciousTokens flag program names that look like injection attempts.
// A heuristic carried over from the ingest side, not a correctness check.
var suspiciousTokens = []string{"drop", "delete", "insert", "update", "select", "--", ";", "script"}

// Options tune a scan.
type Options struct {
	// ExpectContiguous enables gap detection for lineups that are supposed
	// to tile the day without holes.
	ExpectContiguous bool
}

// Publisher receives scan lifecycle events.
type Publisher interface {
	Publish(events.EventType, events.Payload)
}

// Service runs integrity scans against injected store handles.
type Service struct {
	db     *gorm.DB
	bus    Publisher
	logger zerolog.Logger
}

// NewService creates the integrity service. bus may be nil.
func NewService(db *gorm.DB, bus Publisher, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		bus:    bus,
		logger: logger.With().Str("component", "integrity").Logger(),
	}
}

// Scan audits both tables with default options.
func (s *Service) Scan(ctx context.Context) (*Report, error) {
	return s.ScanWithOptions(ctx, Options{})
}

// ScanWithOptions audits both tables. It loads one consistent snapshot and
// runs every category over in-memory indexes; the database is never written.
// A load failure aborts the scan, since a partial report cannot be trusted.
func (s *Service) ScanWithOptions(ctx context.Context, opts Options) (*Report, error) {
	started := time.Now()

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	report := newReport()
	checkReferential(snap, report.Check(CategoryReferential))
	checkTimeConstraints(snap, opts, report.Check(CategoryTime))
	checkIntervalAccuracy(snap, report.Check(CategoryIntervals))
	checkDataQuality(snap, report.Check(CategoryDataQuality))
	checkBusinessRules(snap, report.Check(CategoryBusinessRule))
	report.finalize()

	telemetry.IntegrityScanDuration.Observe(time.Since(started).Seconds())
	for _, cat := range categories {
		check := report.Check(cat)
		telemetry.IntegrityFindings.WithLabelValues(string(cat), "error").Set(float64(len(check.Errors)))
		telemetry.IntegrityFindings.WithLabelValues(string(cat), "warning").Set(float64(len(check.Warnings)))
	}

	if s.bus != nil {
		s.bus.Publish(events.EventIntegrityScan, events.Payload{
			"overall_valid":  report.OverallValid,
			"total_errors":   report.Summary.TotalErrors,
			"total_warnings": report.Summary.TotalWarnings,
		})
	}

	if !report.OverallValid {
		s.logger.Warn().
			Int("total_errors", report.Summary.TotalErrors).
			Int("total_warnings", report.Summary.TotalWarnings).
			Msg("integrity scan completed with errors")
	} else {
		s.logger.Info().
			Int("total_warnings", report.Summary.TotalWarnings).
			Msg("integrity scan completed")
	}

	return report, nil
}

// snapshot is one consistent read of both tables plus name-keyed indexes.
type snapshot struct {
	programs  []models.Program
	intervals []models.ProgramInterval

	programsByName  map[string][]models.Program
	intervalsByName map[string][]models.ProgramInterval
}

func (s *Service) loadSnapshot(ctx context.Context) (*snapshot, error) {
	snap := &snapshot{
		programsByName:  make(map[string][]models.Program),
		intervalsByName: make(map[string][]models.ProgramInterval),
	}

	if err := s.db.WithContext(ctx).Order("start_time, name, id").Find(&snap.programs).Error; err != nil {
		return nil, fmt.Errorf("load programs: %w", err)
	}
	if err := s.db.WithContext(ctx).Order("program_name, id").Find(&snap.intervals).Error; err != nil {
		return nil, fmt.Errorf("load program intervals: %w", err)
	}

	for _, p := range snap.programs {
		snap.programsByName[p.Name] = append(snap.programsByName[p.Name], p)
	}
	for _, rec := range snap.intervals {
		snap.intervalsByName[rec.ProgramName] = append(snap.intervalsByName[rec.ProgramName], rec)
	}
	return snap, nil
}

// checkReferential cross-joins the two tables by name in both directions.
func checkReferential(snap *snapshot, res *CheckResult) {
	var missing []string
	for name := range snap.programsByName {
		if _, ok := snap.intervalsByName[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	if len(missing) > 0 {
		res.addError(fmt.Sprintf("Found %d programs without interval records", len(missing)), missing...)
	}

	var orphaned []string
	for name := range snap.intervalsByName {
		if _, ok := snap.programsByName[name]; !ok {
			orphaned = append(orphaned, name)
		}
	}
	sort.Strings(orphaned)
	if len(orphaned) > 0 {
		res.addError(fmt.Sprintf("Found %d orphaned interval records", len(orphaned)), orphaned...)
	}
}

// checkIntervalAccuracy recomputes the bucket count for every matched
// program/record pair and reports disagreements.
func checkIntervalAccuracy(snap *snapshot, res *CheckResult) {
	var evidence []string
	for _, p := range snap.programs {
		expected := timeday.Intervals(p.Range())
		for _, rec := range snap.intervalsByName[p.Name] {
			if rec.IntervalCount != expected {
				evidence = append(evidence,
					fmt.Sprintf("%s (%s): stored %d, expected %d", p.Name, p.Range(), rec.IntervalCount, expected))
			}
		}
	}
	if len(evidence) > 0 {
		res.addError(fmt.Sprintf("Found %d programs with incorrect interval calculations", len(evidence)), evidence...)
	}
}

// checkTimeConstraints detects pairwise overlaps among non-wraparound ranges
// and, when the lineup is expected to tile the day, gaps between adjacent
// entries in start order.
func checkTimeConstraints(snap *snapshot, opts Options, res *CheckResult) {
	// snap.programs is already ordered by start time. Only wraparound ranges
	// are excluded; zero-duration rows still take part in overlap detection
	// (a point strictly inside another range satisfies the predicate).
	var daytime []models.Program
	for _, p := range snap.programs {
		if !p.Range().Wraps() {
			daytime = append(daytime, p)
		}
	}

	var overlaps []string
	for i := 0; i < len(daytime); i++ {
		for j := i + 1; j < len(daytime); j++ {
			// Sorted by start, so once b starts after a ends nothing
			// later can overlap a either.
			if daytime[j].Start >= daytime[i].End {
				break
			}
			if daytime[i].Start < daytime[j].End && daytime[i].End > daytime[j].Start {
				overlaps = append(overlaps, fmt.Sprintf("%s (%s) overlaps %s (%s)",
					daytime[i].Name, daytime[i].Range(), daytime[j].Name, daytime[j].Range()))
			}
		}
	}
	if len(overlaps) > 0 {
		res.addError(fmt.Sprintf("Found %d overlapping program pairs", len(overlaps)), overlaps...)
	}

	if !opts.ExpectContiguous {
		return
	}
	// Zero-duration rows cannot bound a gap, so the contiguity walk runs
	// over the spanning programs only.
	var spans []models.Program
	for _, p := range daytime {
		if p.Start != p.End {
			spans = append(spans, p)
		}
	}
	var gaps []string
	for i := 0; i+1 < len(spans); i++ {
		prev, next := spans[i], spans[i+1]
		if next.Start > prev.End {
			gaps = append(gaps, fmt.Sprintf("gap between %s (ends %s) and %s (starts %s)",
				prev.Name, prev.End, next.Name, next.Start))
		}
	}
	if len(gaps) > 0 {
		res.addError(fmt.Sprintf("Found %d schedule gaps", len(gaps)), gaps...)
	}
}

// checkDataQuality flags malformed rows in either table.
func checkDataQuality(snap *snapshot, res *CheckResult) {
	var duplicates []string
	for name, entries := range snap.programsByName {
		if len(entries) > 1 {
			duplicates = append(duplicates, fmt.Sprintf("%s (%d entries)", name, len(entries)))
		}
	}
	sort.Strings(duplicates)
	if len(duplicates) > 0 {
		res.addError(fmt.Sprintf("Found %d duplicate program names", len(duplicates)), duplicates...)
	}

	var empty []string
	for _, p := range snap.programs {
		if strings.TrimSpace(p.Name) == "" {
			empty = append(empty, fmt.Sprintf("program row %s (%s)", p.ID, p.Range()))
		}
	}
	for _, rec := range snap.intervals {
		if strings.TrimSpace(rec.ProgramName) == "" {
			empty = append(empty, fmt.Sprintf("interval row %s", rec.ID))
		}
	}
	if len(empty) > 0 {
		res.addError(fmt.Sprintf("Found %d rows with empty names", len(empty)), empty...)
	}

	var long []string
	for _, p := range snap.programs {
		if len(p.Name) > models.MaxNameLength {
			long = append(long, fmt.Sprintf("%.40s... (%d characters)", p.Name, len(p.Name)))
		}
	}
	for _, rec := range snap.intervals {
		if len(rec.ProgramName) > models.MaxNameLength {
			long = append(long, fmt.Sprintf("interval row %.40s... (%d characters)", rec.ProgramName, len(rec.ProgramName)))
		}
	}
	if len(long) > 0 {
		res.addError(fmt.Sprintf("Found %d names exceeding %d characters", len(long), models.MaxNameLength), long...)
	}

	var zero []string
	for _, p := range snap.programs {
		if p.Start == p.End {
			zero = append(zero, fmt.Sprintf("%s (%s)", p.Name, p.Range()))
		}
	}
	if len(zero) > 0 {
		res.addError(fmt.Sprintf("Found %d zero-duration programs (may be valid)", len(zero)), zero...)
	}
}

// checkBusinessRules emits heuristics as warnings only; they never fail a scan.
func checkBusinessRules(snap *snapshot, res *CheckResult) {
	var suspicious []string
	for _, p := range snap.programs {
		lower := strings.ToLower(p.Name)
		for _, token := range suspiciousTokens {
			if strings.Contains(lower, token) {
				suspicious = append(suspicious, p.Name)
				break
			}
		}
	}
	sort.Strings(suspicious)
	if len(suspicious) > 0 {
		res.addWarning(fmt.Sprintf("Found %d programs with suspicious names", len(suspicious)), suspicious...)
	}

	var outOfRange []string
	for _, p := range snap.programs {
		if p.Start.Minutes() < 0 || p.Start.Minutes() >= timeday.MinutesPerDay ||
			p.End.Minutes() < 0 || p.End.Minutes() >= timeday.MinutesPerDay ||
			p.Range().Duration() > timeday.MinutesPerDay {
			outOfRange = append(outOfRange, fmt.Sprintf("%s (start=%d, end=%d minutes)",
				p.Name, p.Start.Minutes(), p.End.Minutes()))
		}
	}
	if len(outOfRange) > 0 {
		res.addWarning(fmt.Sprintf("Found %d programs with times outside a 24-hour day", len(outOfRange)), outOfRange...)
	}

	var nonStandard []string
	for _, p := range snap.programs {
		if !timeday.OnSlotBoundary(p.Start) || !timeday.OnSlotBoundary(p.End) {
			nonStandard = append(nonStandard, fmt.Sprintf("%s (%s)", p.Name, p.Range()))
		}
	}
	if len(nonStandard) > 0 {
		res.addWarning(fmt.Sprintf("Found %d programs with non-standard time slots", len(nonStandard)), nonStandard...)
	}
}
