package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashtonliu88/SlugScheduler/internal/service"
	"github.com/ashtonliu88/SlugScheduler/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler serves plan downloads.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportXLSX downloads the week grid as Excel.
// GET /api/v1/plans/:id/export.xlsx
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportXLSX(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		handleExportError(c, err)
		return
	}
	attachment(c, filename, contentTypeXLSX, buf.Bytes())
}

// ExportICS downloads the schedule as a recurring calendar.
// GET /api/v1/plans/:id/export.ics?term_start=YYYY-MM-DD&weeks=N
func (h *ExportHandler) ExportICS(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	termStart := c.Query("term_start")
	if termStart == "" {
		response.BadRequest(c, 10001, "term_start is required")
		return
	}
	weeks := 0
	if v := c.Query("weeks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(c, 10001, "weeks must be an integer")
			return
		}
		weeks = n
	}

	buf, filename, err := h.exportSvc.ExportICS(c.Request.Context(), studentID, c.Param("id"), termStart, weeks)
	if err != nil {
		handleExportError(c, err)
		return
	}
	attachment(c, filename, contentTypeICS, buf.Bytes())
}

func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, data)
}

func handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNothingScheduled):
		response.BadRequest(c, 15001, "plan has no scheduled courses")
	case errors.Is(err, service.ErrInvalidTermStart):
		response.BadRequest(c, 15002, "term_start must be YYYY-MM-DD")
	case errors.Is(err, service.ErrInvalidWeeks):
		response.BadRequest(c, 15003, "weeks must be between 1 and 30")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handlePlanError(c, err)
	}
}
