package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/friendsincode/mimir_guide/internal/guide"
	"github.com/friendsincode/mimir_guide/internal/integrity"
	"github.com/friendsincode/mimir_guide/internal/loader"
	"github.com/friendsincode/mimir_guide/internal/models"
	"github.com/friendsincode/mimir_guide/internal/schedule"
)

func newTestAPI(t *testing.T) http.Handler {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Program{}, &models.ProgramInterval{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := zerolog.Nop()
	guideSvc := guide.NewService(db, nil, nil, logger)
	a := New(db,
		guideSvc,
		integrity.NewService(db, nil, logger),
		schedule.NewExportService(db, logger),
		loader.NewService(guideSvc, logger),
		logger)

	router := chi.NewRouter()
	a.Routes(router)
	return router
}

func createProgram(t *testing.T, h http.Handler, name, start, end string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"program_name": name,
		"start_time":   start,
		"end_time":     end,
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/programs/", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create %s: status %d body %s", name, rec.Code, rec.Body.String())
	}
}

func TestProgramLifecycle(t *testing.T) {
	h := newTestAPI(t)

	createProgram(t, h, "Morning News", "09:00", "10:30")

	// Duplicate triple is a conflict.
	body, _ := json.Marshal(map[string]string{
		"program_name": "Morning News",
		"start_time":   "09:00",
		"end_time":     "10:30",
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/programs/", bytes.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create: status %d", rec.Code)
	}

	// Get includes derived fields.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/programs/"+url.PathEscape("Morning News")+"/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	var got programResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode get: %v", err)
	}
	if got.Intervals != 6 || got.WrapsMidnight {
		t.Errorf("get = %+v", got)
	}

	// Interval record is queryable on its own.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/programs/"+url.PathEscape("Morning News")+"/intervals", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("intervals: status %d body %s", rec.Code, rec.Body.String())
	}
	var intervals struct {
		Count int `json:"interval_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &intervals); err != nil {
		t.Fatalf("decode intervals: %v", err)
	}
	if intervals.Count != 6 {
		t.Errorf("interval_count = %d, want 6", intervals.Count)
	}

	// Rename through PUT with a different body name.
	body, _ = json.Marshal(map[string]string{
		"program_name": "Breakfast News",
		"start_time":   "09:00",
		"end_time":     "11:00",
	})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/programs/"+url.PathEscape("Morning News")+"/", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/programs/"+url.PathEscape("Morning News")+"/intervals", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("old name intervals: status %d", rec.Code)
	}

	// Delete, then the program is gone.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/programs/"+url.PathEscape("Breakfast News")+"/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/programs/"+url.PathEscape("Breakfast News")+"/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d", rec.Code)
	}
}

func TestUpdateUnknownProgramReturns404(t *testing.T) {
	h := newTestAPI(t)

	body, _ := json.Marshal(map[string]string{
		"start_time": "10:00",
		"end_time":   "11:00",
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/programs/Ghost/", bytes.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateWithoutTimesIsRejected(t *testing.T) {
	h := newTestAPI(t)
	createProgram(t, h, "Drive Time", "16:00", "18:00")

	// A rename-only body must not reset the schedule to 00:00.
	body, _ := json.Marshal(map[string]string{
		"program_name": "Rush Hour",
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/programs/"+url.PathEscape("Drive Time")+"/", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("update without times: status %d body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "times_required") {
		t.Errorf("unexpected error body: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/programs/"+url.PathEscape("Drive Time")+"/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get after rejected update: status %d", rec.Code)
	}
	var got programResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode get: %v", err)
	}
	if got.Start != "16:00" || got.End != "18:00" {
		t.Errorf("schedule changed by rejected update: %+v", got)
	}
}

func TestIntegrityReportFormats(t *testing.T) {
	h := newTestAPI(t)
	createProgram(t, h, "Evening Show", "18:00", "19:30")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/integrity/report", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("json report: status %d", rec.Code)
	}
	var report struct {
		OverallValid bool `json:"overall_valid"`
		Summary      struct {
			ChecksPerformed int `json:"checks_performed"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !report.OverallValid || report.Summary.ChecksPerformed != 5 {
		t.Errorf("report = %+v", report)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/integrity/report?format=text", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("text report: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "DATA INTEGRITY VALIDATION REPORT") {
		t.Errorf("text report missing banner:\n%s", rec.Body.String())
	}
}

func TestLineupExportAndImport(t *testing.T) {
	h := newTestAPI(t)

	csvBody := "program_name,start_time,end_time\nImported Show,08:00,09:00\nBad Row,notatime,09:00\n"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/lineup/import", strings.NewReader(csvBody)))
	if rec.Code != http.StatusOK {
		t.Fatalf("import: status %d body %s", rec.Code, rec.Body.String())
	}
	var imported struct {
		Loaded int `json:"loaded"`
		Failed int `json:"failed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &imported); err != nil {
		t.Fatalf("decode import: %v", err)
	}
	if imported.Loaded != 1 || imported.Failed != 1 {
		t.Errorf("import = %+v", imported)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/lineup/export?format=csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Imported Show") {
		t.Errorf("export missing imported program:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/lineup/export?format=xml", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format: status %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestAPI(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d", rec.Code)
	}
	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("status = %q", health.Status)
	}
}
