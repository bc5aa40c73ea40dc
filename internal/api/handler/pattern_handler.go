package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashtonliu88/SlugScheduler/internal/dto"
	"github.com/ashtonliu88/SlugScheduler/internal/service"
	"github.com/ashtonliu88/SlugScheduler/pkg/response"
)

// PatternHandler exposes the parser and layout without any stored state.
type PatternHandler struct {
	patternSvc service.PatternService
}

// NewPatternHandler creates a PatternHandler.
func NewPatternHandler(patternSvc service.PatternService) *PatternHandler {
	return &PatternHandler{patternSvc: patternSvc}
}

// BuildPatterns parses raw course records into meeting patterns.
// POST /api/v1/patterns
func (h *PatternHandler) BuildPatterns(c *gin.Context) {
	var req dto.BuildPatternsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid parameters", err.Error())
		return
	}
	response.OK(c, h.patternSvc.Build(c.Request.Context(), &req))
}

// Layout positions the patterns of the given records on the week grid.
// POST /api/v1/layout
func (h *PatternHandler) Layout(c *gin.Context) {
	var req dto.LayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid parameters", err.Error())
		return
	}

	cal, err := h.patternSvc.Layout(c.Request.Context(), &req)
	if err != nil {
		handlePatternError(c, err)
		return
	}
	response.OK(c, cal)
}

// ValidatePlacement answers whether a record may be dropped on a slot.
// POST /api/v1/placements/validate
func (h *PatternHandler) ValidatePlacement(c *gin.Context) {
	var req dto.ValidatePlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid parameters", err.Error())
		return
	}
	response.OK(c, h.patternSvc.ValidatePlacement(c.Request.Context(), &req))
}

func handlePatternError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAxis):
		response.ErrorWithDetails(c, http.StatusBadRequest, 12001, "invalid grid axis", err.Error())
	default:
		response.InternalError(c)
	}
}
