package service

import (
	"go.uber.org/zap"

	"github.com/ashtonliu88/SlugScheduler/config"
	"github.com/ashtonliu88/SlugScheduler/internal/repository"
	"github.com/ashtonliu88/SlugScheduler/pkg/jwt"
)

// Sources are the external course record providers. Catalog may be nil.
type Sources struct {
	Recommender Recommender
	Catalog     CatalogReader
}

// Service aggregates every service.
type Service struct {
	Session SessionService
	Pattern PatternService
	Plan    PlanService
	Import  ImportService
	Export  ExportService
}

// NewService wires the services.
func NewService(
	cfg *config.Config,
	engine Engine,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	sources Sources,
	logger *zap.Logger,
) *Service {
	plans := NewPlanService(repo, engine, logger)
	return &Service{
		Session: NewSessionService(jwtMgr, logger),
		Pattern: NewPatternService(engine, logger),
		Plan:    plans,
		Import:  NewImportService(plans, sources.Recommender, sources.Catalog, cfg.Calendar.Location(), logger),
		Export:  NewExportService(plans, engine, cfg.Calendar, logger),
	}
}
