package model

// Plan is a student's stored working set, table plans.
type Plan struct {
	PlanID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"plan_id"`
	StudentID       string     `gorm:"type:varchar(64);not null;index"                json:"student_id"`
	Name            string     `gorm:"type:varchar(100);not null"                     json:"name"`
	Term            string     `gorm:"type:varchar(20)"                               json:"term,omitempty"`
	Recommendations RecordList `gorm:"type:jsonb;not null;default:'[]'"               json:"recommendations"`
	Scheduled       RecordList `gorm:"type:jsonb;not null;default:'[]'"               json:"scheduled"`
	VersionedModel
}

func (Plan) TableName() string { return "plans" }
