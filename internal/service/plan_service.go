package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ashtonliu88/SlugScheduler/internal/dto"
	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
	"github.com/ashtonliu88/SlugScheduler/internal/model"
	"github.com/ashtonliu88/SlugScheduler/internal/planner"
	"github.com/ashtonliu88/SlugScheduler/internal/repository"
	pkgerrors "github.com/ashtonliu88/SlugScheduler/pkg/errors"
)

// ── plan module errors ──

var (
	ErrPlanNotFound    = errors.New("plan not found")
	ErrPlanNotOwner    = errors.New("plan belongs to another student")
	ErrCourseNotInPlan = errors.New("course not found in plan")
)

const timeLayout = "2006-01-02T15:04:05Z"

// PlanService manages stored working sets. Every method is scoped to the
// calling student.
type PlanService interface {
	Create(ctx context.Context, studentID string, req *dto.CreatePlanRequest) (*dto.PlanResponse, error)
	List(ctx context.Context, studentID string) ([]dto.PlanSummary, error)
	Get(ctx context.Context, studentID, id string) (*dto.PlanResponse, error)
	Delete(ctx context.Context, studentID, id string) error

	AddRecommendations(ctx context.Context, studentID, id string, records []meeting.RawCourseRecord, version *int) (*dto.RecommendResponse, error)
	Dismiss(ctx context.Context, studentID, id string, ref dto.CourseRef) (*dto.PlanResponse, error)
	Drop(ctx context.Context, studentID, id string, req *dto.DropRequest) (*dto.DropResponse, error)
	Schedule(ctx context.Context, studentID, id string, ref dto.CourseRef) (*dto.PlanResponse, error)
	Unschedule(ctx context.Context, studentID, id string, ref dto.CourseRef) (*dto.PlanResponse, error)

	Calendar(ctx context.Context, studentID, id string, axis *dto.AxisRequest) (*dto.CalendarResponse, error)
	// Working loads a plan and rebuilds its patterns with the current parser.
	Working(ctx context.Context, studentID, id string) (*model.Plan, planner.Plan, error)
}

type planService struct {
	repo   *repository.Repository
	engine Engine
	logger *zap.Logger
}

// NewPlanService creates a PlanService.
func NewPlanService(repo *repository.Repository, engine Engine, logger *zap.Logger) PlanService {
	return &planService{repo: repo, engine: engine, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *planService) Create(ctx context.Context, studentID string, req *dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	plan := &model.Plan{
		PlanID:          uuid.NewString(),
		StudentID:       studentID,
		Name:            req.Name,
		Term:            req.Term,
		Recommendations: model.RecordList{},
		Scheduled:       model.RecordList{},
	}
	plan.Version = 1

	if err := s.repo.Plan.Create(ctx, plan); err != nil {
		s.logger.Error("create plan failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return s.toPlanResponse(plan, planner.Plan{}), nil
}

// ────────────────────── List ──────────────────────

func (s *planService) List(ctx context.Context, studentID string) ([]dto.PlanSummary, error) {
	plans, err := s.repo.Plan.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("list plans failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.PlanSummary, 0, len(plans))
	for i := range plans {
		result = append(result, dto.PlanSummary{
			ID:                  plans[i].PlanID,
			Name:                plans[i].Name,
			Term:                plans[i].Term,
			Version:             plans[i].Version,
			RecommendationCount: len(plans[i].Recommendations),
			ScheduledCount:      len(plans[i].Scheduled),
			UpdatedAt:           plans[i].UpdatedAt.Format(timeLayout),
		})
	}
	return result, nil
}

// ────────────────────── Get ──────────────────────

func (s *planService) Get(ctx context.Context, studentID, id string) (*dto.PlanResponse, error) {
	stored, working, err := s.Working(ctx, studentID, id)
	if err != nil {
		return nil, err
	}
	return s.toPlanResponse(stored, working), nil
}

// ────────────────────── Delete ──────────────────────

func (s *planService) Delete(ctx context.Context, studentID, id string) error {
	if _, err := s.load(ctx, studentID, id); err != nil {
		return err
	}
	if err := s.repo.Plan.Delete(ctx, id); err != nil {
		s.logger.Error("delete plan failed", zap.String("plan_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── AddRecommendations ──────────────────────

func (s *planService) AddRecommendations(ctx context.Context, studentID, id string, records []meeting.RawCourseRecord, version *int) (*dto.RecommendResponse, error) {
	entries := make([]planner.Entry, 0, len(records))
	var issues []meeting.Issue
	for _, r := range records {
		e := planner.NewEntry(s.engine.Builder, r)
		issues = append(issues, e.Issues...)
		entries = append(entries, e)
	}

	var out planner.RecommendOutcome
	stored, working, err := s.mutate(ctx, studentID, id, version, func(p planner.Plan) (planner.Plan, bool, error) {
		var next planner.Plan
		next, out = p.Recommend(entries...)
		return next, len(out.Added) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	if len(out.Duplicates) > 0 {
		s.logger.Debug("skipped duplicate records",
			zap.String("plan_id", id),
			zap.Int("count", len(out.Duplicates)),
		)
	}
	return &dto.RecommendResponse{
		Added:      len(out.Added),
		Duplicates: out.Duplicates,
		Issues:     issues,
		Plan:       s.toPlanResponse(stored, working),
	}, nil
}

// ────────────────────── Dismiss ──────────────────────

func (s *planService) Dismiss(ctx context.Context, studentID, id string, ref dto.CourseRef) (*dto.PlanResponse, error) {
	return s.transition(ctx, studentID, id, ref, planner.Plan.Dismiss)
}

// ────────────────────── Drop ──────────────────────

// Drop validates a grid drop. A rejected drop is not an error: the decision
// comes back with the plan unchanged and nothing is written.
func (s *planService) Drop(ctx context.Context, studentID, id string, req *dto.DropRequest) (*dto.DropResponse, error) {
	hour := 0
	if req.Hour != nil {
		hour = *req.Hour
	}

	resp := &dto.DropResponse{}
	stored, working, err := s.mutate(ctx, studentID, id, req.Version, func(p planner.Plan) (planner.Plan, bool, error) {
		next, decision, err := p.Drop(req.Key(), req.Weekday, hour)
		if err != nil {
			return p, false, err
		}
		resp.Decision = decision
		return next, decision.Allowed, nil
	})
	if err != nil {
		return nil, err
	}
	if !resp.Decision.Allowed {
		s.logger.Debug("drop rejected",
			zap.String("plan_id", id),
			zap.String("course", req.Key().String()),
			zap.String("reason", resp.Decision.Reason))
	}
	resp.Plan = s.toPlanResponse(stored, working)
	return resp, nil
}

// ────────────────────── Schedule / Unschedule ──────────────────────

func (s *planService) Schedule(ctx context.Context, studentID, id string, ref dto.CourseRef) (*dto.PlanResponse, error) {
	return s.transition(ctx, studentID, id, ref, planner.Plan.Schedule)
}

func (s *planService) Unschedule(ctx context.Context, studentID, id string, ref dto.CourseRef) (*dto.PlanResponse, error) {
	return s.transition(ctx, studentID, id, ref, planner.Plan.Unschedule)
}

// ────────────────────── Calendar ──────────────────────

func (s *planService) Calendar(ctx context.Context, studentID, id string, axisReq *dto.AxisRequest) (*dto.CalendarResponse, error) {
	axis, err := s.engine.axis(axisReq)
	if err != nil {
		return nil, err
	}
	_, working, err := s.Working(ctx, studentID, id)
	if err != nil {
		return nil, err
	}
	return s.engine.calendar(working, axis)
}

// ────────────────────── Working ──────────────────────

func (s *planService) Working(ctx context.Context, studentID, id string) (*model.Plan, planner.Plan, error) {
	stored, err := s.load(ctx, studentID, id)
	if err != nil {
		return nil, planner.Plan{}, err
	}
	return stored, s.rebuild(stored), nil
}

// ═══════════════════════════════════════════════════════════
// internal helpers
// ═══════════════════════════════════════════════════════════

func (s *planService) load(ctx context.Context, studentID, id string) (*model.Plan, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrPlanNotFound
	}
	plan, err := s.repo.Plan.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		s.logger.Error("load plan failed", zap.String("plan_id", id), zap.Error(err))
		return nil, err
	}
	if plan.StudentID != studentID {
		return nil, ErrPlanNotOwner
	}
	return plan, nil
}

func (s *planService) rebuild(stored *model.Plan) planner.Plan {
	return planner.Rebuild(s.engine.Builder, stored.Recommendations, stored.Scheduled)
}

// mutate runs a read-modify-write on one plan. fn reports whether it changed
// anything; unchanged plans are not written. A version that no longer matches
// the stored plan fails with ErrOptimisticLock.
func (s *planService) mutate(
	ctx context.Context,
	studentID, id string,
	version *int,
	fn func(planner.Plan) (planner.Plan, bool, error),
) (*model.Plan, planner.Plan, error) {
	stored, err := s.load(ctx, studentID, id)
	if err != nil {
		return nil, planner.Plan{}, err
	}
	if version != nil && *version != stored.Version {
		return nil, planner.Plan{}, pkgerrors.ErrOptimisticLock
	}

	working := s.rebuild(stored)
	next, changed, err := fn(working)
	if err != nil {
		if errors.Is(err, planner.ErrEntryNotFound) {
			return nil, planner.Plan{}, ErrCourseNotInPlan
		}
		return nil, planner.Plan{}, err
	}
	if !changed {
		return stored, working, nil
	}

	rec, sched := next.Records()
	stored.Recommendations = rec
	stored.Scheduled = sched
	if err := s.repo.Plan.Update(ctx, stored); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("update plan failed", zap.String("plan_id", id), zap.Error(err))
		}
		return nil, planner.Plan{}, err
	}
	return stored, next, nil
}

// transition applies a single-key planner transition.
func (s *planService) transition(
	ctx context.Context,
	studentID, id string,
	ref dto.CourseRef,
	fn func(planner.Plan, meeting.SectionKey) (planner.Plan, error),
) (*dto.PlanResponse, error) {
	stored, working, err := s.mutate(ctx, studentID, id, ref.Version, func(p planner.Plan) (planner.Plan, bool, error) {
		next, err := fn(p, ref.Key())
		if err != nil {
			return p, false, err
		}
		changed := len(next.Scheduled) != len(p.Scheduled) ||
			len(next.Recommendations) != len(p.Recommendations)
		return next, changed, nil
	})
	if err != nil {
		return nil, err
	}
	return s.toPlanResponse(stored, working), nil
}

func (s *planService) toPlanResponse(stored *model.Plan, working planner.Plan) *dto.PlanResponse {
	resp := &dto.PlanResponse{
		ID:              stored.PlanID,
		Name:            stored.Name,
		Term:            stored.Term,
		Version:         stored.Version,
		Recommendations: working.Recommendations,
		Scheduled:       working.Scheduled,
		CreatedAt:       stored.CreatedAt.Format(timeLayout),
		UpdatedAt:       stored.UpdatedAt.Format(timeLayout),
	}
	if resp.Recommendations == nil {
		resp.Recommendations = []planner.Entry{}
	}
	if resp.Scheduled == nil {
		resp.Scheduled = []planner.Entry{}
	}
	return resp
}
