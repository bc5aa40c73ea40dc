package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ashtonliu88/SlugScheduler/config"
	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
	"github.com/ashtonliu88/SlugScheduler/internal/model"
)

// ── test helpers ──

func setupTestExportService() (ExportService, *mockPlanRepo) {
	repo, planRepo := newMockRepository()
	engine := DefaultEngine()
	plans := NewPlanService(repo, engine, zap.NewNop())
	svc := NewExportService(plans, engine, config.CalendarConfig{Weeks: 10, Timezone: "America/Los_Angeles"}, zap.NewNop())
	return svc, planRepo
}

// ── ExportXLSX ──

func TestExportService_ExportXLSX_NothingScheduled(t *testing.T) {
	svc, planRepo := setupTestExportService()
	planRepo.seed(testPlanID, testStudent, model.RecordList{cse101Record()}, nil)

	_, _, err := svc.ExportXLSX(context.Background(), testStudent, testPlanID)
	if !errors.Is(err, ErrExportNothingScheduled) {
		t.Errorf("expected ErrExportNothingScheduled, got %v", err)
	}
}

func TestExportService_ExportXLSX_Success(t *testing.T) {
	svc, planRepo := setupTestExportService()
	planRepo.seed(testPlanID, testStudent,
		model.RecordList{math19aRecord()},
		model.RecordList{cse101Record(), cse20Record()})

	buf, filename, err := svc.ExportXLSX(context.Background(), testStudent, testPlanID)
	if err != nil {
		t.Fatalf("ExportXLSX should succeed: %v", err)
	}
	if filename != "Fall_plan.xlsx" {
		t.Errorf("filename = %q", filename)
	}
	// .xlsx files are zip archives starting with PK
	if buf.Len() < 2 || !bytes.Equal(buf.Bytes()[:2], []byte("PK")) {
		t.Fatal("output is not an xlsx file")
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue("Schedule", "B2"); v != "Monday" {
		t.Errorf("B2 = %q", v)
	}
	// 13:00 row is the sixth hour of the 8-21 axis.
	if v, _ := f.GetCellValue("Schedule", "B8"); !strings.Contains(v, "CSE101") {
		t.Errorf("Monday 13:00 = %q", v)
	}
	if v, _ := f.GetCellValue("Schedule", "C8"); v != "" {
		t.Errorf("Tuesday 13:00 should be empty, got %q", v)
	}

	rows, err := f.GetRows("Courses")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("course rows = %d, want header + 3", len(rows))
	}
	if rows[3][0] != "MATH19A" || rows[3][5] != "recommended" {
		t.Errorf("last row = %v", rows[3])
	}
}

// ── ExportICS ──

func TestExportService_ExportICS(t *testing.T) {
	svc, planRepo := setupTestExportService()
	planRepo.seed(testPlanID, testStudent, nil, model.RecordList{cse101Record(), cse20Record()})

	// 2024-09-26 is a Thursday; the first Monday meeting is 09-30.
	buf, filename, err := svc.ExportICS(context.Background(), testStudent, testPlanID, "2024-09-26", 0)
	if err != nil {
		t.Fatalf("ExportICS should succeed: %v", err)
	}
	if filename != "Fall_plan.ics" {
		t.Errorf("filename = %q", filename)
	}
	out := buf.String()
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"DTSTART:20240930T132000",
		"DTSTART:20240927T132000",
		"DTEND:20240927T142500",
		"RRULE:FREQ=WEEKLY;COUNT=10",
		"SUMMARY:CSE101 Lecture",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("calendar missing %q", want)
		}
	}
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 3 {
		t.Errorf("events = %d, want 3", n)
	}
}

func TestExportService_ExportICS_InvalidInput(t *testing.T) {
	svc, planRepo := setupTestExportService()
	planRepo.seed(testPlanID, testStudent, nil, model.RecordList{cse101Record()})

	if _, _, err := svc.ExportICS(context.Background(), testStudent, testPlanID, "09/26/2024", 10); !errors.Is(err, ErrInvalidTermStart) {
		t.Errorf("expected ErrInvalidTermStart, got %v", err)
	}
	if _, _, err := svc.ExportICS(context.Background(), testStudent, testPlanID, "2024-09-26", 99); !errors.Is(err, ErrInvalidWeeks) {
		t.Errorf("expected ErrInvalidWeeks, got %v", err)
	}
}

func TestFirstOnOrAfter(t *testing.T) {
	start, _ := time.Parse("2006-01-02", "2024-09-26")
	tests := []struct {
		day  meeting.Weekday
		want string
	}{
		{meeting.Thursday, "2024-09-26"},
		{meeting.Friday, "2024-09-27"},
		{meeting.Monday, "2024-09-30"},
		{meeting.Wednesday, "2024-10-02"},
	}
	for _, tt := range tests {
		if got := firstOnOrAfter(start, tt.day).Format("2006-01-02"); got != tt.want {
			t.Errorf("%v: got %s, want %s", tt.day, got, tt.want)
		}
	}
}
