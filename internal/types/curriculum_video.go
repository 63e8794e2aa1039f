package types

import (
	"time"

	"github.com/google/uuid"
)

// CurriculumVideo belongs to one outline node. CourseID is denormalized so
// course-wide cascades and reads avoid a join. At most one active row per
// outline, enforced by a partial unique index on (curriculum_outline_id)
// WHERE status = 1.
type CurriculumVideo struct {
	ID                  uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID            uuid.UUID          `gorm:"type:uuid;not null;index" json:"course_id"`
	CurriculumOutlineID uuid.UUID          `gorm:"type:uuid;not null;index" json:"curriculum_outline_id"`
	CurriculumOutline   *CurriculumOutline `gorm:"constraint:OnDelete:CASCADE;foreignKey:CurriculumOutlineID;references:ID" json:"curriculum_outline,omitempty"`

	VideoURL      string `gorm:"column:video_url" json:"video_url"`
	ThumbnailPath string `gorm:"column:thumbnail_path" json:"thumbnail_path"`

	CreatedOn time.Time `gorm:"column:created_on;not null" json:"created_on"`
	Status    int16     `gorm:"column:status;not null;default:1;index" json:"status"`
}

func (CurriculumVideo) TableName() string { return "curriculum_video" }
