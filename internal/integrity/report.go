/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package integrity

import (
	"fmt"
	"strings"
	"time"
)

// Category names one of the independent check groups.
type Category string

const (
	CategoryReferential  Category = "referential_integrity"
	CategoryTime         Category = "time_constraints"
	CategoryIntervals    Category = "interval_calculations"
	CategoryDataQuality  Category = "data_quality"
	CategoryBusinessRule Category = "business_rules"
)

// categories in report order.
var categories = []Category{
	CategoryReferential,
	CategoryTime,
	CategoryIntervals,
	CategoryDataQuality,
	CategoryBusinessRule,
}

// remediation hints shown per failing category.
var remediation = map[Category]string{
	CategoryReferential:  "re-sync the lineup: remove orphaned interval rows and backfill missing ones through the guide service",
	CategoryTime:         "adjust program start/end times so the lineup has no overlaps or unexpected gaps",
	CategoryIntervals:    "recompute interval records from the current program times",
	CategoryDataQuality:  "clean up program names and remove or confirm zero-duration entries",
	CategoryBusinessRule: "review the flagged programs; these are heuristics, not hard failures",
}

// Finding is one error or warning with the rows that triggered it.
type Finding struct {
	Description string   `json:"description"`
	Evidence    []string `json:"evidence,omitempty"`
}

// CheckResult aggregates one category's findings.
type CheckResult struct {
	Category Category  `json:"category"`
	Valid    bool      `json:"is_valid"`
	Errors   []Finding `json:"errors,omitempty"`
	Warnings []Finding `json:"warnings,omitempty"`
}

func (c *CheckResult) addError(description string, evidence ...string) {
	c.Valid = false
	c.Errors = append(c.Errors, Finding{Description: description, Evidence: evidence})
}

func (c *CheckResult) addWarning(description string, evidence ...string) {
	c.Warnings = append(c.Warnings, Finding{Description: description, Evidence: evidence})
}

// Summary carries the roll-up counters.
type Summary struct {
	ChecksPerformed int `json:"checks_performed"`
	TotalErrors     int `json:"total_errors"`
	TotalWarnings   int `json:"total_warnings"`
}

// Report is the outcome of one integrity scan. OverallValid is false exactly
// when some category recorded at least one error; warnings never fail a scan.
type Report struct {
	GeneratedAt  time.Time                 `json:"generated_at"`
	OverallValid bool                      `json:"overall_valid"`
	Checks       map[Category]*CheckResult `json:"checks"`
	Summary      Summary                   `json:"summary"`
}

// Check returns the result for a category, never nil.
func (r *Report) Check(cat Category) *CheckResult {
	if res, ok := r.Checks[cat]; ok {
		return res
	}
	return &CheckResult{Category: cat, Valid: true}
}

func newReport() *Report {
	checks := make(map[Category]*CheckResult, len(categories))
	for _, cat := range categories {
		checks[cat] = &CheckResult{Category: cat, Valid: true}
	}
	return &Report{
		GeneratedAt:  time.Now().UTC(),
		OverallValid: true,
		Checks:       checks,
	}
}

func (r *Report) finalize() {
	r.Summary = Summary{}
	r.OverallValid = true
	for _, cat := range categories {
		check := r.Checks[cat]
		r.Summary.ChecksPerformed++
		if !check.Valid {
			r.OverallValid = false
			r.Summary.TotalErrors += len(check.Errors)
		}
		r.Summary.TotalWarnings += len(check.Warnings)
	}
}

// FormatReport renders a report as readable text. The output is a pure
// function of the findings, so two scans of an unchanged lineup format
// identically.
func FormatReport(report *Report) string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	b.WriteString(rule + "\n")
	b.WriteString("DATA INTEGRITY VALIDATION REPORT\n")
	b.WriteString(rule + "\n")

	status := "FAIL"
	if report.OverallValid {
		status = "PASS"
	}
	fmt.Fprintf(&b, "Overall Status: %s\n", status)
	fmt.Fprintf(&b, "Checks Performed: %d\n", report.Summary.ChecksPerformed)
	fmt.Fprintf(&b, "Total Errors: %d\n", report.Summary.TotalErrors)
	fmt.Fprintf(&b, "Total Warnings: %d\n\n", report.Summary.TotalWarnings)

	for _, cat := range categories {
		check := report.Check(cat)

		title := strings.ToUpper(strings.ReplaceAll(string(cat), "_", " "))
		checkStatus := "FAIL"
		if check.Valid {
			checkStatus = "PASS"
		}
		fmt.Fprintf(&b, "%s:\n", title)
		fmt.Fprintf(&b, "  Status: %s\n", checkStatus)

		if len(check.Errors) > 0 {
			b.WriteString("  Errors:\n")
			for _, finding := range check.Errors {
				fmt.Fprintf(&b, "    - %s\n", finding.Description)
				for _, ev := range finding.Evidence {
					fmt.Fprintf(&b, "        %s\n", ev)
				}
			}
		}
		if len(check.Warnings) > 0 {
			b.WriteString("  Warnings:\n")
			for _, finding := range check.Warnings {
				fmt.Fprintf(&b, "    - %s\n", finding.Description)
				for _, ev := range finding.Evidence {
					fmt.Fprintf(&b, "        %s\n", ev)
				}
			}
		}
		if !check.Valid {
			fmt.Fprintf(&b, "  Remediation: %s\n", remediation[cat])
		}
		b.WriteString("\n")
	}

	b.WriteString(rule + "\n")
	return b.String()
}
