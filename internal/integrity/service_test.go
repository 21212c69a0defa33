package integrity

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/friendsincode/mimir_guide/internal/models"
	"github.com/friendsincode/mimir_guide/internal/timeday"
)

func TestScanDetectsInjectedCorruption(t *testing.T) {
	db := openIntegrityTestDB(t)
	seedCorruptLineup(t, db)

	svc := NewService(db, nil, zerolog.Nop())
	report, err := svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if report.OverallValid {
		t.Fatal("expected overall_valid == false")
	}
	if report.Summary.TotalErrors < 5 {
		t.Fatalf("expected at least 5 errors, got %d", report.Summary.TotalErrors)
	}
	if report.Summary.ChecksPerformed != 5 {
		t.Fatalf("expected 5 checks performed, got %d", report.Summary.ChecksPerformed)
	}

	assertEvidence(t, report.Check(CategoryReferential), "Phantom Hour")   // orphaned record
	assertEvidence(t, report.Check(CategoryReferential), "Recordless")     // missing record
	assertEvidence(t, report.Check(CategoryIntervals), "Miscounted News")  // stored != expected
	assertEvidence(t, report.Check(CategoryDataQuality), "Twice Daily")    // duplicate name
	assertEvidence(t, report.Check(CategoryDataQuality), "Station Ident")  // zero duration
}

func TestScanPassesOnConsistentLineup(t *testing.T) {
	db := openIntegrityTestDB(t)
	seedProgram(t, db, "p1", "Morning Show", "06:00", "09:00")
	seedInterval(t, db, "i1", "Morning Show", 12)
	seedProgram(t, db, "p2", "Night Owl", "23:30", "01:00")
	seedInterval(t, db, "i2", "Night Owl", 6)

	svc := NewService(db, nil, zerolog.Nop())
	report, err := svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if !report.OverallValid {
		t.Fatalf("expected a clean lineup to pass, report:\n%s", FormatReport(report))
	}
	if report.Summary.TotalErrors != 0 {
		t.Fatalf("expected 0 errors, got %d", report.Summary.TotalErrors)
	}
}

func TestScanDetectsOverlapsAmongDaytimeRanges(t *testing.T) {
	db := openIntegrityTestDB(t)
	seedProgram(t, db, "p1", "Early Block", "09:00", "11:00")
	seedInterval(t, db, "i1", "Early Block", 8)
	seedProgram(t, db, "p2", "Clashing Block", "10:00", "12:00")
	seedInterval(t, db, "i2", "Clashing Block", 8)
	// Wraparound ranges are excluded from overlap detection.
	seedProgram(t, db, "p3", "Overnight", "23:00", "10:00")
	seedInterval(t, db, "i3", "Overnight", 44)

	svc := NewService(db, nil, zerolog.Nop())
	report, err := svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	check := report.Check(CategoryTime)
	if check.Valid {
		t.Fatal("expected overlapping programs to fail time constraints")
	}
	if len(check.Errors) != 1 || len(check.Errors[0].Evidence) != 1 {
		t.Fatalf("expected exactly one overlap pair, got %+v", check.Errors)
	}
	pair := check.Errors[0].Evidence[0]
	if !strings.Contains(pair, "Early Block") || !strings.Contains(pair, "Clashing Block") {
		t.Fatalf("unexpected overlap evidence: %s", pair)
	}
	if strings.Contains(pair, "Overnight") {
		t.Fatalf("wraparound range should not appear in overlap evidence: %s", pair)
	}
}

func TestScanReportsZeroDurationInsideAnotherRange(t *testing.T) {
	db := openIntegrityTestDB(t)
	seedProgram(t, db, "p1", "Container", "09:00", "11:00")
	seedInterval(t, db, "i1", "Container", 8)
	seedProgram(t, db, "p2", "Point", "10:00", "10:00")
	seedInterval(t, db, "i2", "Point", 0)

	svc := NewService(db, nil, zerolog.Nop())
	report, err := svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	check := report.Check(CategoryTime)
	if check.Valid {
		t.Fatal("expected zero-duration program inside another range to fail time constraints")
	}
	if len(check.Errors) != 1 || len(check.Errors[0].Evidence) != 1 {
		t.Fatalf("expected exactly one overlap pair, got %+v", check.Errors)
	}
	pair := check.Errors[0].Evidence[0]
	if !strings.Contains(pair, "Container") || !strings.Contains(pair, "Point") {
		t.Fatalf("unexpected overlap evidence: %s", pair)
	}
}

func TestScanIgnoresTouchingRanges(t *testing.T) {
	db := openIntegrityTestDB(t)
	// Back-to-back programs share a boundary minute but do not overlap.
	seedProgram(t, db, "p1", "First Half", "09:00", "11:00")
	seedInterval(t, db, "i1", "First Half", 8)
	seedProgram(t, db, "p2", "Second Half", "11:00", "12:00")
	seedInterval(t, db, "i2", "Second Half", 4)
	// A zero-duration row on the shared boundary does not overlap either side.
	seedProgram(t, db, "p3", "Pip", "11:00", "11:00")
	seedInterval(t, db, "i3", "Pip", 0)

	svc := NewService(db, nil, zerolog.Nop())
	report, err := svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if check := report.Check(CategoryTime); !check.Valid {
		t.Fatalf("touching ranges should pass time constraints, got %+v", check.Errors)
	}
}

func TestScanGapDetectionIsOptIn(t *testing.T) {
	db := openIntegrityTestDB(t)
	seedProgram(t, db, "p1", "Breakfast", "06:00", "09:00")
	seedInterval(t, db, "i1", "Breakfast", 12)
	seedProgram(t, db, "p2", "Lunch", "12:00", "13:00")
	seedInterval(t, db, "i2", "Lunch", 4)

	svc := NewService(db, nil, zerolog.Nop())

	report, err := svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !report.Check(CategoryTime).Valid {
		t.Fatal("gaps should not be reported by default")
	}

	report, err = svc.ScanWithOptions(context.Background(), Options{ExpectContiguous: true})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	check := report.Check(CategoryTime)
	if check.Valid {
		t.Fatal("expected gap between Breakfast and Lunch")
	}
	assertEvidence(t, check, "Breakfast")
	assertEvidence(t, check, "Lunch")
}

func TestScanBusinessRulesAreWarningsOnly(t *testing.T) {
	db := openIntegrityTestDB(t)
	seedProgram(t, db, "p1", "Robert'); DROP TABLE programs", "09:00", "10:00")
	seedInterval(t, db, "i1", "Robert'); DROP TABLE programs", 4)
	seedProgram(t, db, "p2", "Odd Slot", "09:05", "09:50")
	seedInterval(t, db, "i2", "Odd Slot", 3)

	svc := NewService(db, nil, zerolog.Nop())
	report, err := svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	check := report.Check(CategoryBusinessRule)
	if !check.Valid {
		t.Fatal("business rules must never contribute errors")
	}
	if len(check.Warnings) < 2 {
		t.Fatalf("expected suspicious-name and non-standard-slot warnings, got %+v", check.Warnings)
	}
	if !report.OverallValid {
		t.Fatalf("warnings alone must not fail validation:\n%s", FormatReport(report))
	}
	if report.Summary.TotalWarnings < 2 {
		t.Fatalf("summary should count warnings, got %d", report.Summary.TotalWarnings)
	}
}

func TestScanIsIdempotentAndReadOnly(t *testing.T) {
	db := openIntegrityTestDB(t)
	seedCorruptLineup(t, db)

	svc := NewService(db, nil, zerolog.Nop())
	first, err := svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}

	if FormatReport(first) != FormatReport(second) {
		t.Fatal("two scans of an unchanged lineup must format identically")
	}

	var programs, intervals int64
	if err := db.Model(&models.Program{}).Count(&programs).Error; err != nil {
		t.Fatalf("count programs: %v", err)
	}
	if err := db.Model(&models.ProgramInterval{}).Count(&intervals).Error; err != nil {
		t.Fatalf("count intervals: %v", err)
	}
	if programs != 7 || intervals != 6 {
		t.Fatalf("scan mutated the stores: %d programs, %d intervals", programs, intervals)
	}
}

func TestFormatReportLayout(t *testing.T) {
	db := openIntegrityTestDB(t)
	seedCorruptLineup(t, db)

	svc := NewService(db, nil, zerolog.Nop())
	report, err := svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	text := FormatReport(report)
	for _, want := range []string{
		"DATA INTEGRITY VALIDATION REPORT",
		"Overall Status: FAIL",
		"REFERENTIAL INTEGRITY:",
		"TIME CONSTRAINTS:",
		"INTERVAL CALCULATIONS:",
		"DATA QUALITY:",
		"BUSINESS RULES:",
		"Remediation:",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}

// seedCorruptLineup injects one instance of every corruption the scanner has
// to catch, writing both tables directly so no synchronizer can fix it up.
func seedCorruptLineup(t *testing.T, db *gorm.DB) {
	t.Helper()

	// Consistent baseline entry.
	seedProgram(t, db, "p-good", "Healthy Hour", "06:00", "07:00")
	seedInterval(t, db, "i-good", "Healthy Hour", 4)

	// Program without an interval record.
	seedProgram(t, db, "p-missing", "Recordless", "07:00", "08:00")

	// Interval record without a program.
	seedInterval(t, db, "i-orphan", "Phantom Hour", 4)

	// Stored count disagrees with the recomputed one.
	seedProgram(t, db, "p-wrong", "Miscounted News", "08:00", "09:00")
	seedInterval(t, db, "i-wrong", "Miscounted News", 99)

	// Duplicate name with different times.
	seedProgram(t, db, "p-dup-1", "Twice Daily", "10:00", "11:00")
	seedProgram(t, db, "p-dup-2", "Twice Daily", "14:00", "15:00")
	seedInterval(t, db, "i-dup", "Twice Daily", 4)

	// Zero-duration program.
	seedProgram(t, db, "p-zero", "Station Ident", "12:00", "12:00")
	seedInterval(t, db, "i-zero", "Station Ident", 0)

	// Innocuous wraparound entry.
	seedProgram(t, db, "p-wrap", "Overnight Mix", "23:00", "01:30")
	seedInterval(t, db, "i-wrap", "Overnight Mix", 10)
}

func seedProgram(t *testing.T, db *gorm.DB, id, name, start, end string) {
	t.Helper()
	r, err := timeday.NewRange(start, end)
	if err != nil {
		t.Fatalf("range %s-%s: %v", start, end, err)
	}
	program := models.Program{ID: id, Name: name, Start: r.Start, End: r.End}
	if err := db.Create(&program).Error; err != nil {
		t.Fatalf("seed program %s: %v", name, err)
	}
}

func seedInterval(t *testing.T, db *gorm.DB, id, name string, count int) {
	t.Helper()
	record := models.ProgramInterval{ID: id, ProgramName: name, IntervalCount: count}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed interval %s: %v", name, err)
	}
}

func assertEvidence(t *testing.T, check *CheckResult, name string) {
	t.Helper()
	for _, finding := range append(append([]Finding(nil), check.Errors...), check.Warnings...) {
		for _, ev := range finding.Evidence {
			if strings.Contains(ev, name) {
				return
			}
		}
	}
	t.Errorf("category %s evidence does not mention %q: %+v", check.Category, name, check)
}

func openIntegrityTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Program{},
		&models.ProgramInterval{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
