package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashtonliu88/SlugScheduler/internal/api/middleware"
	"github.com/ashtonliu88/SlugScheduler/internal/dto"
	"github.com/ashtonliu88/SlugScheduler/pkg/response"
)

// MustGetStudentID reads the student injected by JWTAuth. On failure it
// writes a 401 and returns false; the caller should return at once.
func MustGetStudentID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.ContextKeyStudentID)
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// courseRefFromPath reads /:course plus the optional section, section_id and
// version query parameters.
func courseRefFromPath(c *gin.Context) (dto.CourseRef, bool) {
	ref := dto.CourseRef{
		CourseID:    c.Param("course"),
		SectionType: c.Query("section"),
		Section:     c.Query("section_id"),
	}
	if ref.CourseID == "" {
		response.BadRequest(c, 10001, "course is required")
		return ref, false
	}
	if v := c.Query("version"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(c, 10001, "version must be an integer")
			return ref, false
		}
		ref.Version = &n
	}
	return ref, true
}
