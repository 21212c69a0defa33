/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/friendsincode/mimir_guide/internal/integrity"
)

func (a *API) handleIntegrityReport(w http.ResponseWriter, r *http.Request) {
	if a.integritySvc == nil {
		writeError(w, http.StatusServiceUnavailable, "integrity_service_unavailable")
		return
	}

	expectContiguous, _ := strconv.ParseBool(r.URL.Query().Get("expect_contiguous"))
	report, err := a.integritySvc.ScanWithOptions(r.Context(), integrity.Options{
		ExpectContiguous: expectContiguous,
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to run integrity scan")
		writeError(w, http.StatusInternalServerError, "scan_failed")
		return
	}

	if wantsTextReport(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(integrity.FormatReport(report)))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"generated_at":  report.GeneratedAt,
		"overall_valid": report.OverallValid,
		"summary":       report.Summary,
		"checks":        report.Checks,
	})
}

func wantsTextReport(r *http.Request) bool {
	if r.URL.Query().Get("format") == "text" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/plain")
}
