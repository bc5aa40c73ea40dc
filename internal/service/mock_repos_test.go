package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/ashtonliu88/SlugScheduler/internal/model"
	"github.com/ashtonliu88/SlugScheduler/internal/repository"
	pkgerrors "github.com/ashtonliu88/SlugScheduler/pkg/errors"
)

// ── Mock PlanRepository ──

type mockPlanRepo struct {
	plans   map[string]*model.Plan
	updates int
	failErr error
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{plans: make(map[string]*model.Plan)}
}

func newMockRepository() (*repository.Repository, *mockPlanRepo) {
	planRepo := newMockPlanRepo()
	return &repository.Repository{Plan: planRepo}, planRepo
}

// clonePlan keeps the stored row independent of the caller's copy, the way
// a database round trip would.
func clonePlan(p *model.Plan) *model.Plan {
	cp := *p
	cp.Recommendations = append(model.RecordList{}, p.Recommendations...)
	cp.Scheduled = append(model.RecordList{}, p.Scheduled...)
	return &cp
}

func (m *mockPlanRepo) Create(_ context.Context, plan *model.Plan) error {
	if m.failErr != nil {
		return m.failErr
	}
	now := time.Now()
	plan.CreatedAt, plan.UpdatedAt = now, now
	if plan.Version == 0 {
		plan.Version = 1
	}
	m.plans[plan.PlanID] = clonePlan(plan)
	return nil
}

func (m *mockPlanRepo) GetByID(_ context.Context, id string) (*model.Plan, error) {
	if p, ok := m.plans[id]; ok {
		return clonePlan(p), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPlanRepo) ListByStudent(_ context.Context, studentID string) ([]model.Plan, error) {
	var result []model.Plan
	for _, p := range m.plans {
		if p.StudentID == studentID {
			result = append(result, *clonePlan(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	return result, nil
}

func (m *mockPlanRepo) Update(_ context.Context, plan *model.Plan) error {
	if m.failErr != nil {
		return m.failErr
	}
	stored, ok := m.plans[plan.PlanID]
	if !ok || stored.Version != plan.Version {
		return pkgerrors.ErrOptimisticLock
	}
	plan.Version++
	plan.UpdatedAt = time.Now()
	m.plans[plan.PlanID] = clonePlan(plan)
	m.updates++
	return nil
}

func (m *mockPlanRepo) Delete(_ context.Context, id string) error {
	delete(m.plans, id)
	return nil
}

// seed stores a plan directly and returns its id.
func (m *mockPlanRepo) seed(id, studentID string, recommended, scheduled model.RecordList) string {
	m.plans[id] = &model.Plan{
		PlanID:          id,
		StudentID:       studentID,
		Name:            "Fall plan",
		Recommendations: recommended,
		Scheduled:       scheduled,
		VersionedModel:  model.VersionedModel{Version: 1},
	}
	return id
}
