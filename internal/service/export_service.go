package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ashtonliu88/SlugScheduler/config"
	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
	"github.com/ashtonliu88/SlugScheduler/internal/planner"
)

// ── export module errors ──

var (
	ErrExportNothingScheduled = errors.New("plan has no scheduled courses")
	ErrExportGenerateFail     = errors.New("failed to generate export file")
	ErrInvalidTermStart       = errors.New("term_start must be a date in YYYY-MM-DD form")
	ErrInvalidWeeks           = errors.New("weeks must be between 1 and 30")
)

const maxExportWeeks = 30

// ExportService renders a plan's schedule as files.
//
// Notes:
//   - both exports cover the scheduled list only
//   - content comes back as a bytes.Buffer; the handler sets headers and writes it
//   - XLSX: sheet "Schedule" is the week grid (hour rows × weekday columns),
//     sheet "Courses" lists every entry of the plan
//   - ICS: one weekly recurring event per scheduled pattern, in floating
//     local time starting on the first matching day of the term
type ExportService interface {
	ExportXLSX(ctx context.Context, studentID, planID string) (*bytes.Buffer, string, error)
	// ExportICS takes the first day of the term as YYYY-MM-DD. weeks <= 0
	// uses the configured term length.
	ExportICS(ctx context.Context, studentID, planID, termStart string, weeks int) (*bytes.Buffer, string, error)
}

type exportService struct {
	plans  PlanService
	engine Engine
	cal    config.CalendarConfig
	logger *zap.Logger
}

// NewExportService creates an ExportService.
func NewExportService(plans PlanService, engine Engine, cal config.CalendarConfig, logger *zap.Logger) ExportService {
	return &exportService{plans: plans, engine: engine, cal: cal, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportXLSX: week grid as Excel
// ═══════════════════════════════════════════════════════════
//
// Layout of "Schedule":
//   - row 1: plan name, merged across the table
//   - row 2: "Time" then one column per weekday (Sat/Sun only when used)
//   - one row per axis hour; a cell lists every section meeting in that hour
//   - below the grid: asynchronous sections that have no slot

func (s *exportService) ExportXLSX(ctx context.Context, studentID, planID string) (*bytes.Buffer, string, error) {
	stored, working, err := s.plans.Working(ctx, studentID, planID)
	if err != nil {
		return nil, "", err
	}
	if len(working.Scheduled) == 0 {
		return nil, "", ErrExportNothingScheduled
	}

	patterns := working.Patterns()
	days := exportDays(patterns)
	axis := s.engine.Axis

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Schedule"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 10)
	for i := range days {
		col := colName(1 + i)
		f.SetColWidth(sheetName, col, col, 24)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})

	// title
	f.SetCellValue(sheetName, "A1", stored.Name)
	f.MergeCell(sheetName, "A1", cell(colName(len(days)), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// header
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "Time")
	for i, d := range days {
		f.SetCellValue(sheetName, cell(colName(1+i), row), d.String())
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(days)), row), headerStyle)

	// hour rows
	row = 3
	for i, h := range axis.Hours() {
		f.SetCellValue(sheetName, cell("A", row), axis.RowLabel(i))
		for j, d := range days {
			var lines []string
			for _, p := range patterns {
				if meetsDuring(p, d, h) {
					lines = append(lines, patternLabel(p))
				}
			}
			if len(lines) > 0 {
				f.SetCellValue(sheetName, cell(colName(1+j), row), strings.Join(lines, "\n"))
			}
		}
		row++
	}
	f.SetCellStyle(sheetName, cell("B", 3), cell(colName(len(days)), row-1), cellStyle)

	// asynchronous sections
	var async []meeting.MeetingPattern
	for _, p := range patterns {
		if !p.IsScheduled() {
			async = append(async, p)
		}
	}
	if len(async) > 0 {
		row++
		f.SetCellValue(sheetName, cell("A", row), "No fixed time")
		f.SetCellStyle(sheetName, cell("A", row), cell("A", row), headerStyle)
		for _, p := range async {
			f.SetCellValue(sheetName, cell("B", row), fmt.Sprintf("%s (%s)", p.Key(), p.Location))
			row++
		}
	}

	if err := s.writeCourseSheet(f, working); err != nil {
		s.logger.Error("write course sheet failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write excel failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, exportFilename(stored.Name, "xlsx"), nil
}

func (s *exportService) writeCourseSheet(f *excelize.File, p planner.Plan) error {
	sheetName := "Courses"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}
	headers := []string{"Course", "Section", "Title", "Meetings", "Location", "Status"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetColWidth(sheetName, "A", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 32)
	f.SetColWidth(sheetName, "D", "E", 28)

	row := 2
	write := func(e planner.Entry, status string) {
		var meetings, locations []string
		seen := make(map[string]bool)
		for _, pat := range e.Patterns {
			if pat.IsScheduled() {
				meetings = append(meetings, fmt.Sprintf("%s %s-%s", pat.Weekday.Short(), pat.Start.Kitchen(), pat.End.Kitchen()))
			} else {
				meetings = append(meetings, "async")
			}
			if !seen[pat.Location] {
				seen[pat.Location] = true
				locations = append(locations, pat.Location)
			}
		}
		values := []string{e.Key.CourseID, e.Key.SectionType, e.Title,
			strings.Join(meetings, ", "), strings.Join(locations, ", "), status}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		row++
	}
	for _, e := range p.Scheduled {
		write(e, "scheduled")
	}
	for _, e := range p.Recommendations {
		write(e, "recommended")
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// ExportICS: weekly recurring events
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportICS(ctx context.Context, studentID, planID, termStart string, weeks int) (*bytes.Buffer, string, error) {
	start, err := time.Parse("2006-01-02", termStart)
	if err != nil {
		return nil, "", ErrInvalidTermStart
	}
	if weeks <= 0 {
		weeks = s.cal.Weeks
	}
	if weeks < 1 || weeks > maxExportWeeks {
		return nil, "", ErrInvalidWeeks
	}

	stored, working, err := s.plans.Working(ctx, studentID, planID)
	if err != nil {
		return nil, "", err
	}
	if len(working.Scheduled) == 0 {
		return nil, "", ErrExportNothingScheduled
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//SlugScheduler//Course Planner//EN")
	cal.SetXWRCalName(stored.Name)
	if s.cal.Timezone != "" {
		cal.SetXWRTimezone(s.cal.Timezone)
	}

	stamp := time.Now().UTC()
	rrule := fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", weeks)
	events := 0
	for _, e := range working.Scheduled {
		for _, p := range e.Patterns {
			if !p.IsScheduled() {
				continue
			}
			day := firstOnOrAfter(start, p.Weekday)
			uid := fmt.Sprintf("%s-%s-%d@slug-scheduler", stored.PlanID, uidPart(p.Key().String()), p.Weekday)

			event := cal.AddEvent(uid)
			event.SetDtStampTime(stamp)
			event.SetProperty(ics.ComponentPropertyDtStart, floating(day, p.Start))
			event.SetProperty(ics.ComponentPropertyDtEnd, floating(day, p.End))
			event.SetProperty(ics.ComponentPropertyRrule, rrule)
			event.SetSummary(p.Key().String())
			if e.Title != "" {
				event.SetDescription(e.Title)
			}
			event.SetLocation(p.Location)
			events++
		}
	}
	if events == 0 {
		return nil, "", ErrExportNothingScheduled
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, exportFilename(stored.Name, "ics"), nil
}

// ── helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// exportDays is Monday to Friday plus any weekend day a pattern uses.
func exportDays(patterns []meeting.MeetingPattern) []meeting.Weekday {
	days := []meeting.Weekday{meeting.Monday, meeting.Tuesday, meeting.Wednesday, meeting.Thursday, meeting.Friday}
	for _, weekend := range []meeting.Weekday{meeting.Saturday, meeting.Sunday} {
		for _, p := range patterns {
			if p.IsScheduled() && p.Weekday == weekend {
				days = append(days, weekend)
				break
			}
		}
	}
	return days
}

// meetsDuring reports whether p overlaps the hour row [hour, hour+1).
func meetsDuring(p meeting.MeetingPattern, day meeting.Weekday, hour int) bool {
	if !p.IsScheduled() || p.Weekday != day {
		return false
	}
	return p.Start < meeting.TimeOfDay(hour+1) && p.End > meeting.TimeOfDay(hour)
}

func patternLabel(p meeting.MeetingPattern) string {
	return fmt.Sprintf("%s %s-%s\n%s", p.Key(), p.Start.Kitchen(), p.End.Kitchen(), p.Location)
}

// firstOnOrAfter returns the first date on or after start that falls on day.
func firstOnOrAfter(start time.Time, day meeting.Weekday) time.Time {
	offset := (int(day) - int(goWeekdayToISO(start.Weekday())) + 7) % 7
	return start.AddDate(0, 0, offset)
}

func floating(day time.Time, t meeting.TimeOfDay) string {
	h, m := t.Clock()
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, time.UTC).Format("20060102T150405")
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func exportFilename(name, ext string) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(name, "_"), "_")
	if base == "" {
		base = "schedule"
	}
	return base + "." + ext
}

func uidPart(s string) string {
	return strings.ToLower(unsafeFilename.ReplaceAllString(s, "-"))
}
