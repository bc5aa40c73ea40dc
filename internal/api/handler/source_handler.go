package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashtonliu88/SlugScheduler/internal/dto"
	"github.com/ashtonliu88/SlugScheduler/internal/service"
	"github.com/ashtonliu88/SlugScheduler/pkg/response"
)

// SourceHandler adds course records from external sources to a plan.
type SourceHandler struct {
	importSvc service.ImportService
}

// NewSourceHandler creates a SourceHandler.
func NewSourceHandler(importSvc service.ImportService) *SourceHandler {
	return &SourceHandler{importSvc: importSvc}
}

// Chat asks the recommendation backend and keeps the courses it suggests.
// POST /api/v1/plans/:id/sources/chat
func (h *SourceHandler) Chat(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	var req dto.ChatSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid parameters", err.Error())
		return
	}

	resp, err := h.importSvc.Chat(c.Request.Context(), studentID, c.Param("id"), &req)
	if err != nil {
		handleSourceError(c, err)
		return
	}
	response.OK(c, resp)
}

// Transcript uploads a transcript for analysis.
// POST /api/v1/plans/:id/sources/transcript (multipart, field "file")
func (h *SourceHandler) Transcript(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 14006, "transcript file is required")
		return
	}
	file, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 14006, "transcript file is unreadable")
		return
	}
	defer file.Close()

	resp, err := h.importSvc.Transcript(c.Request.Context(), studentID, c.Param("id"), fh.Filename, file)
	if err != nil {
		handleSourceError(c, err)
		return
	}
	response.OK(c, resp)
}

// Catalog pulls matching sections from the course catalog.
// POST /api/v1/plans/:id/sources/catalog
func (h *SourceHandler) Catalog(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	var req dto.CatalogSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid parameters", err.Error())
		return
	}

	resp, err := h.importSvc.Catalog(c.Request.Context(), studentID, c.Param("id"), &req)
	if err != nil {
		handleSourceError(c, err)
		return
	}
	response.OK(c, resp)
}

// ICS imports a class calendar.
// POST /api/v1/plans/:id/sources/ics
//
// Two forms:
//   - file upload: multipart/form-data, field="file"
//   - URL: application/json body {"url": "..."} or form field url
func (h *SourceHandler) ICS(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}
	planID := c.Param("id")

	if file, _, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		resp, err := h.importSvc.ICS(c.Request.Context(), studentID, planID, file)
		if err != nil {
			handleSourceError(c, err)
			return
		}
		response.OK(c, resp)
		return
	}

	var req dto.ICSSourceRequest
	if err := c.ShouldBind(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid parameters", err.Error())
		return
	}
	if req.URL == "" {
		response.BadRequest(c, 14006, "upload an .ics file or provide a calendar url")
		return
	}

	resp, err := h.importSvc.ICSFromURL(c.Request.Context(), studentID, planID, req.URL)
	if err != nil {
		handleSourceError(c, err)
		return
	}
	response.OK(c, resp)
}

func handleSourceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSourceUnavailable):
		response.ErrorWithDetails(c, http.StatusBadGateway, 14001, "course source unavailable", err.Error())
	case errors.Is(err, service.ErrSourceRejected):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 14002, "course source rejected the request", err.Error())
	case errors.Is(err, service.ErrCatalogDisabled):
		response.Error(c, http.StatusServiceUnavailable, 14003, "course catalog is not configured")
	case errors.Is(err, service.ErrICSParseFailed):
		response.ErrorWithDetails(c, http.StatusBadRequest, 14004, "calendar file could not be parsed", err.Error())
	case errors.Is(err, service.ErrNoRecords):
		response.Error(c, http.StatusUnprocessableEntity, 14005, "source returned no courses")
	default:
		handlePlanError(c, err)
	}
}
