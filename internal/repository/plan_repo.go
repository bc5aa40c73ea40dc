package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ashtonliu88/SlugScheduler/internal/model"
	pkgerrors "github.com/ashtonliu88/SlugScheduler/pkg/errors"
)

// PlanRepository persists working sets.
type PlanRepository interface {
	Create(ctx context.Context, plan *model.Plan) error
	GetByID(ctx context.Context, id string) (*model.Plan, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Plan, error)
	// Update writes both lists if plan.Version still matches the stored row
	// and bumps the version. A stale version gives ErrOptimisticLock.
	Update(ctx context.Context, plan *model.Plan) error
	Delete(ctx context.Context, id string) error
}

type planRepo struct {
	db *gorm.DB
}

// NewPlanRepo creates a PlanRepository.
func NewPlanRepo(db *gorm.DB) PlanRepository {
	return &planRepo{db: db}
}

func (r *planRepo) Create(ctx context.Context, plan *model.Plan) error {
	if plan.Recommendations == nil {
		plan.Recommendations = model.RecordList{}
	}
	if plan.Scheduled == nil {
		plan.Scheduled = model.RecordList{}
	}
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *planRepo) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", id).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Plan, error) {
	var plans []model.Plan
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("updated_at DESC").
		Find(&plans).Error
	return plans, err
}

func (r *planRepo) Update(ctx context.Context, plan *model.Plan) error {
	oldVersion := plan.Version
	result := r.db.WithContext(ctx).
		Model(plan).
		Where("plan_id = ? AND version = ?", plan.PlanID, oldVersion).
		Updates(map[string]interface{}{
			"name":            plan.Name,
			"term":            plan.Term,
			"recommendations": plan.Recommendations,
			"scheduled":       plan.Scheduled,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	plan.Version = oldVersion + 1
	return nil
}

func (r *planRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("plan_id = ?", id).
		Delete(&model.Plan{}).Error
}
