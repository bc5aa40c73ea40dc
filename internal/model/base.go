package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ashtonliu88/SlugScheduler/internal/meeting"
)

// ── PostgreSQL JSONB course record list ──

// RecordList maps a JSONB array of raw course records. Records are stored
// exactly as received so the builder can re-read them later.
type RecordList []meeting.RawCourseRecord

// Scan decodes a JSONB array.
func (l *RecordList) Scan(src interface{}) error {
	if src == nil {
		*l = RecordList{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("RecordList.Scan: unsupported type %T", src)
	}
	var out RecordList
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("RecordList.Scan: %w", err)
	}
	if out == nil {
		out = RecordList{}
	}
	*l = out
	return nil
}

// Value encodes the list as a JSONB array. A nil list is stored as [].
func (l RecordList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]meeting.RawCourseRecord(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// GormDataType tells gorm the column type for migrations.
func (RecordList) GormDataType() string { return "jsonb" }

// BaseModel audit columns.
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// SoftDeleteModel adds soft deletion.
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// VersionedModel adds an optimistic lock column.
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}
