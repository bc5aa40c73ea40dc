package dto

import (
	"github.com/ashtonliu88/SlugScheduler/internal/grid"
	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
)

// ── stateless pattern API ──

// BuildPatternsRequest carries raw course records as a source produced them.
type BuildPatternsRequest struct {
	Records []meeting.RawCourseRecord `json:"records" binding:"required,min=1,max=500"`
}

// BuildPatternsResponse has one result per record, in request order.
type BuildPatternsResponse struct {
	Results []meeting.BuildResult `json:"results"`
}

// AxisRequest overrides the configured grid axis. Omitted fields keep the
// configured value.
type AxisRequest struct {
	StartHour   *int     `json:"start_hour"    form:"start_hour"`
	EndHour     *int     `json:"end_hour"      form:"end_hour"`
	RowHeightPx *float64 `json:"row_height_px" form:"row_height_px"`
}

// LayoutRequest lays out every pattern of the given records.
type LayoutRequest struct {
	Records []meeting.RawCourseRecord `json:"records" binding:"required,min=1,max=500"`
	Axis    *AxisRequest              `json:"axis"`
}

// CalendarResponse is a laid-out week plus the build problems and overlaps
// found on the way.
type CalendarResponse struct {
	grid.Calendar
	Issues    []meeting.Issue `json:"issues,omitempty"`
	Conflicts []Conflict      `json:"conflicts,omitempty"`
}

// Conflict names two sections that meet at the same time.
type Conflict struct {
	Weekday meeting.Weekday    `json:"weekday"`
	A       meeting.SectionKey `json:"a"`
	B       meeting.SectionKey `json:"b"`
}

// ValidatePlacementRequest asks whether record may be dropped on a slot.
// Weekday is a day name ("Monday", "Mon") or "1".."7".
type ValidatePlacementRequest struct {
	Record  meeting.RawCourseRecord `json:"record"  binding:"required"`
	Weekday meeting.Weekday         `json:"weekday" binding:"required"`
	Hour    *int                    `json:"hour"    binding:"required,min=0,max=23"`
}

// ValidatePlacementResponse is the decision and the patterns it was based on.
type ValidatePlacementResponse struct {
	grid.PlacementDecision
	Patterns []meeting.MeetingPattern `json:"patterns"`
}
