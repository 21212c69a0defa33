/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/mimir_guide/internal/guide"
	"github.com/friendsincode/mimir_guide/internal/integrity"
	"github.com/friendsincode/mimir_guide/internal/loader"
	"github.com/friendsincode/mimir_guide/internal/schedule"
	"github.com/friendsincode/mimir_guide/internal/version"
)

// API exposes HTTP handlers.
type API struct {
	db           *gorm.DB
	guideSvc     *guide.Service
	integritySvc *integrity.Service
	exportSvc    *schedule.ExportService
	loaderSvc    *loader.Service
	logger       zerolog.Logger
	startedAt    time.Time
}

// New creates the API router wrapper.
func New(db *gorm.DB, guideSvc *guide.Service, integritySvc *integrity.Service, exportSvc *schedule.ExportService, loaderSvc *loader.Service, logger zerolog.Logger) *API {
	return &API{
		db:           db,
		guideSvc:     guideSvc,
		integritySvc: integritySvc,
		exportSvc:    exportSvc,
		loaderSvc:    loaderSvc,
		logger:       logger.With().Str("component", "api").Logger(),
		startedAt:    time.Now(),
	}
}

// Routes mounts API routes on the provided router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Route("/programs", func(r chi.Router) {
			r.Get("/", a.handleProgramsList)
			r.Post("/", a.handleProgramsCreate)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", a.handleProgramsGet)
				r.Put("/", a.handleProgramsUpdate)
				r.Delete("/", a.handleProgramsDelete)
				r.Get("/intervals", a.handleProgramIntervals)
			})
		})

		r.Route("/lineup", func(r chi.Router) {
			r.Get("/export", a.handleLineupExport)
			r.Post("/import", a.handleLineupImport)
		})

		r.Get("/integrity/report", a.handleIntegrityReport)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	sqlDB, err := a.db.DB()
	if err != nil || sqlDB.PingContext(r.Context()) != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": version.Version(),
		"uptime":  time.Since(a.startedAt).Round(time.Second).String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
