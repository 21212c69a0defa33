/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/friendsincode/mimir_guide/internal/schedule"
)

func (a *API) handleLineupExport(w http.ResponseWriter, r *http.Request) {
	format, err := schedule.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_format")
		return
	}

	result, err := a.exportSvc.Export(r.Context(), format)
	if err != nil {
		a.logger.Error().Err(err).Str("format", string(format)).Msg("lineup export failed")
		writeError(w, http.StatusInternalServerError, "export_failed")
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (a *API) handleLineupImport(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))

	result, err := a.loaderSvc.Load(r.Context(), r.Body, dryRun)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_csv")
		return
	}

	failures := make([]map[string]any, len(result.Failures))
	for i, f := range result.Failures {
		failures[i] = map[string]any{
			"row":    f.Row,
			"name":   f.Name,
			"errors": f.Errors,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dry_run":  dryRun,
		"loaded":   result.Loaded,
		"failed":   result.Failed,
		"failures": failures,
	})
}
