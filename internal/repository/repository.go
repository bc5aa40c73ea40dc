package repository

import "gorm.io/gorm"

// Repository groups the data access interfaces.
type Repository struct {
	Plan PlanRepository
}

// NewRepository wires every repository to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Plan: NewPlanRepo(db),
	}
}
