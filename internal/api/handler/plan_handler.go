package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashtonliu88/SlugScheduler/internal/dto"
	"github.com/ashtonliu88/SlugScheduler/internal/service"
	pkgerrors "github.com/ashtonliu88/SlugScheduler/pkg/errors"
	"github.com/ashtonliu88/SlugScheduler/pkg/response"
)

// PlanHandler serves the student's stored working sets.
type PlanHandler struct {
	planSvc service.PlanService
}

// NewPlanHandler creates a PlanHandler.
func NewPlanHandler(planSvc service.PlanService) *PlanHandler {
	return &PlanHandler{planSvc: planSvc}
}

// CreatePlan creates an empty plan.
// POST /api/v1/plans
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid parameters", err.Error())
		return
	}

	plan, err := h.planSvc.Create(c.Request.Context(), studentID, &req)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.Created(c, plan)
}

// ListPlans lists the student's plans, most recently changed first.
// GET /api/v1/plans
func (h *PlanHandler) ListPlans(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	plans, err := h.planSvc.List(c.Request.Context(), studentID)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, gin.H{"list": plans})
}

// GetPlan returns one plan with freshly built patterns.
// GET /api/v1/plans/:id
func (h *PlanHandler) GetPlan(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	plan, err := h.planSvc.Get(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, plan)
}

// DeletePlan soft-deletes a plan.
// DELETE /api/v1/plans/:id
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	if err := h.planSvc.Delete(c.Request.Context(), studentID, c.Param("id")); err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, nil)
}

// AddRecommendations appends raw course records to the recommendations.
// POST /api/v1/plans/:id/recommendations
func (h *PlanHandler) AddRecommendations(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	var req dto.AddRecommendationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid parameters", err.Error())
		return
	}

	resp, err := h.planSvc.AddRecommendations(c.Request.Context(), studentID, c.Param("id"), req.Records, req.Version)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, resp)
}

// DismissRecommendation removes a recommendation.
// DELETE /api/v1/plans/:id/recommendations/:course?section=&version=
func (h *PlanHandler) DismissRecommendation(c *gin.Context) {
	h.courseTransition(c, h.planSvc.Dismiss)
}

// Drop handles a drag from the recommendations onto the grid. A rejected
// drop is a normal 200 answer with decision.allowed=false.
// POST /api/v1/plans/:id/drop
func (h *PlanHandler) Drop(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	var req dto.DropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid parameters", err.Error())
		return
	}

	resp, err := h.planSvc.Drop(c.Request.Context(), studentID, c.Param("id"), &req)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, resp)
}

// Schedule adds a recommendation to the schedule directly.
// POST /api/v1/plans/:id/schedule
func (h *PlanHandler) Schedule(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	var ref dto.CourseRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid parameters", err.Error())
		return
	}

	plan, err := h.planSvc.Schedule(c.Request.Context(), studentID, c.Param("id"), ref)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, plan)
}

// Unschedule moves a scheduled course back to the recommendations.
// DELETE /api/v1/plans/:id/schedule/:course?section=&version=
func (h *PlanHandler) Unschedule(c *gin.Context) {
	h.courseTransition(c, h.planSvc.Unschedule)
}

// Calendar lays out the scheduled courses.
// GET /api/v1/plans/:id/calendar?start_hour=&end_hour=&row_height_px=
func (h *PlanHandler) Calendar(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	var axis dto.AxisRequest
	if err := c.ShouldBindQuery(&axis); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid parameters", err.Error())
		return
	}

	cal, err := h.planSvc.Calendar(c.Request.Context(), studentID, c.Param("id"), &axis)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, cal)
}

// ── helpers ──

func (h *PlanHandler) courseTransition(
	c *gin.Context,
	fn func(ctx context.Context, studentID, id string, ref dto.CourseRef) (*dto.PlanResponse, error),
) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}
	ref, ok := courseRefFromPath(c)
	if !ok {
		return
	}

	plan, err := fn(c.Request.Context(), studentID, c.Param("id"), ref)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, plan)
}

func handlePlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound):
		response.NotFound(c, 13001, "plan not found")
	case errors.Is(err, service.ErrPlanNotOwner):
		response.Forbidden(c, 13002, "plan belongs to another student")
	case errors.Is(err, service.ErrCourseNotInPlan):
		response.NotFound(c, 13003, "course not found in plan")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.ErrorWithDetails(c, http.StatusConflict, 13004, "plan was modified, reload and retry", err.Error())
	case errors.Is(err, service.ErrInvalidAxis):
		handlePatternError(c, err)
	default:
		response.InternalError(c)
	}
}
