package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashtonliu88/SlugScheduler/internal/service"
	"github.com/ashtonliu88/SlugScheduler/pkg/response"
)

// SessionHandler issues anonymous sessions.
type SessionHandler struct {
	sessionSvc service.SessionService
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessionSvc service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// CreateSession starts a session with a fresh student id.
// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	session, err := h.sessionSvc.Create(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Created(c, session)
}
