/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/friendsincode/mimir_guide/internal/guide"
	"github.com/friendsincode/mimir_guide/internal/models"
	"github.com/friendsincode/mimir_guide/internal/timeday"
)

type programRequest struct {
	Name  string       `json:"program_name"`
	Start timeday.Time `json:"start_time"`
	End   timeday.Time `json:"end_time"`
}

// programUpdateRequest decodes the time fields through pointers so a body
// that omits them is told apart from an explicit 00:00; an omitted field
// must not silently reset an existing schedule.
type programUpdateRequest struct {
	Name  string        `json:"program_name"`
	Start *timeday.Time `json:"start_time"`
	End   *timeday.Time `json:"end_time"`
}

type programResponse struct {
	Name          string `json:"program_name"`
	Start         string `json:"start_time"`
	End           string `json:"end_time"`
	WrapsMidnight bool   `json:"wraps_midnight"`
	Intervals     int    `json:"intervals"`
}

func toProgramResponse(p models.Program) programResponse {
	r := p.Range()
	return programResponse{
		Name:          p.Name,
		Start:         p.Start.String(),
		End:           p.End.String(),
		WrapsMidnight: r.Wraps(),
		Intervals:     timeday.Intervals(r),
	}
}

// pathName decodes the {name} URL parameter; program names may contain
// spaces and other escaped characters.
func pathName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func (a *API) handleProgramsList(w http.ResponseWriter, r *http.Request) {
	sortByStart, _ := strconv.ParseBool(r.URL.Query().Get("by_start"))

	programs, err := a.guideSvc.ListPrograms(r.Context(), sortByStart)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to list programs")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	out := make([]programResponse, len(programs))
	for i, p := range programs {
		out[i] = toProgramResponse(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"programs": out,
		"total":    len(out),
	})
}

func (a *API) handleProgramsCreate(w http.ResponseWriter, r *http.Request) {
	var req programRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	err := a.guideSvc.Insert(r.Context(), req.Name, timeday.Range{Start: req.Start, End: req.End})
	switch {
	case errors.Is(err, guide.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "invalid_name")
		return
	case errors.Is(err, guide.ErrDuplicateProgram):
		writeError(w, http.StatusConflict, "duplicate_program")
		return
	case err != nil:
		a.logger.Error().Err(err).Str("program", req.Name).Msg("failed to insert program")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"program_name": req.Name,
		"intervals":    timeday.Intervals(timeday.Range{Start: req.Start, End: req.End}),
	})
}

func (a *API) handleProgramsGet(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)

	program, err := a.guideSvc.GetProgram(r.Context(), name)
	if err != nil {
		a.logger.Error().Err(err).Str("program", name).Msg("failed to load program")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if program == nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, toProgramResponse(*program))
}

func (a *API) handleProgramsUpdate(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)

	var req programUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Start == nil || req.End == nil {
		writeError(w, http.StatusBadRequest, "times_required")
		return
	}

	// A body name differing from the path renames the program.
	newName := req.Name
	if newName == "" {
		newName = name
	}

	err := a.guideSvc.Rename(r.Context(), name, newName, timeday.Range{Start: *req.Start, End: *req.End})
	switch {
	case errors.Is(err, guide.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "invalid_name")
		return
	case errors.Is(err, guide.ErrProgramNotFound):
		writeError(w, http.StatusNotFound, "not_found")
		return
	case err != nil:
		a.logger.Error().Err(err).Str("program", name).Msg("failed to update program")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"program_name": newName,
		"intervals":    timeday.Intervals(timeday.Range{Start: *req.Start, End: *req.End}),
	})
}

func (a *API) handleProgramsDelete(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)

	if err := a.guideSvc.Delete(r.Context(), name); err != nil {
		a.logger.Error().Err(err).Str("program", name).Msg("failed to delete program")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleProgramIntervals(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)

	count, found, err := a.guideSvc.IntervalCount(r.Context(), name)
	if err != nil {
		a.logger.Error().Err(err).Str("program", name).Msg("failed to read interval count")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"program_name":   name,
		"interval_count": count,
	})
}
