package handler

import "github.com/ashtonliu88/SlugScheduler/internal/service"

// Handler aggregates every handler.
type Handler struct {
	Session *SessionHandler
	Pattern *PatternHandler
	Plan    *PlanHandler
	Source  *SourceHandler
	Export  *ExportHandler
}

// NewHandler builds the handlers from the services.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Session: NewSessionHandler(svc.Session),
		Pattern: NewPatternHandler(svc.Pattern),
		Plan:    NewPlanHandler(svc.Plan),
		Source:  NewSourceHandler(svc.Import),
		Export:  NewExportHandler(svc.Export),
	}
}
