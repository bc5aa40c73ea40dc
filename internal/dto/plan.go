package dto

import (
	"strings"

	"github.com/ashtonliu88/SlugScheduler/internal/grid"
	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
	"github.com/ashtonliu88/SlugScheduler/internal/planner"
)

// ── plan module ──

// CreatePlanRequest creates an empty working set.
type CreatePlanRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
	Term string `json:"term" binding:"omitempty,max=20"`
}

// PlanResponse is a full working set.
type PlanResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Term            string          `json:"term,omitempty"`
	Version         int             `json:"version"`
	Recommendations []planner.Entry `json:"recommendations"`
	Scheduled       []planner.Entry `json:"scheduled"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

// PlanSummary is a list row.
type PlanSummary struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Term                string `json:"term,omitempty"`
	Version             int    `json:"version"`
	RecommendationCount int    `json:"recommendation_count"`
	ScheduledCount      int    `json:"scheduled_count"`
	UpdatedAt           string `json:"updated_at"`
}

// CourseRef names an entry of a plan. Version, when set, must match the
// stored plan or the change is refused with a conflict.
type CourseRef struct {
	CourseID    string `json:"course_id"    form:"course_id"    binding:"required,max=100"`
	SectionType string `json:"section_type" form:"section"      binding:"omitempty,max=100"`
	Section     string `json:"section"      form:"section_id"   binding:"omitempty,max=100"`
	Version     *int   `json:"version"      form:"version"`
}

// Key converts the reference to a section key. An omitted section type
// means the lecture.
func (r CourseRef) Key() meeting.SectionKey {
	st := strings.TrimSpace(r.SectionType)
	if st == "" {
		st = meeting.DefaultSectionType
	}
	return meeting.SectionKey{
		CourseID:    strings.TrimSpace(r.CourseID),
		SectionType: st,
		Section:     strings.TrimSpace(r.Section),
	}
}

// AddRecommendationsRequest appends raw records to the recommendations.
type AddRecommendationsRequest struct {
	Records []meeting.RawCourseRecord `json:"records" binding:"required,min=1,max=200"`
	Version *int                      `json:"version"`
}

// RecommendResponse reports how many records were new. Duplicates lists the
// keys of records already present in the plan word for word.
type RecommendResponse struct {
	Added      int                  `json:"added"`
	Duplicates []meeting.SectionKey `json:"duplicates,omitempty"`
	Issues     []meeting.Issue      `json:"issues,omitempty"`
	Plan       *PlanResponse        `json:"plan"`
}

// DropRequest drags a recommendation onto the grid.
type DropRequest struct {
	CourseRef
	Weekday meeting.Weekday `json:"weekday" binding:"required"`
	Hour    *int            `json:"hour"    binding:"required,min=0,max=23"`
}

// DropResponse carries the decision and the resulting plan. A rejected drop
// returns the plan unchanged.
type DropResponse struct {
	Decision grid.PlacementDecision `json:"decision"`
	Plan     *PlanResponse          `json:"plan"`
}
