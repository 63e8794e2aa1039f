package types

import (
	"time"

	"github.com/google/uuid"
)

// IntroVideo is the single introductory video of a course. Exactly one
// active row per course, enforced by a partial unique index on
// (course_id) WHERE status = 1.
type IntroVideo struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course   *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	CoachID  uuid.UUID `gorm:"type:uuid;not null;index" json:"coach_id"`

	Domain        string `gorm:"column:domain" json:"domain"`
	Subdomain     string `gorm:"column:subdomain" json:"subdomain"`
	Title         string `gorm:"column:title;not null" json:"title"`
	Description   string `gorm:"column:description;type:text" json:"description"`
	VideoURL      string `gorm:"column:video_url;not null" json:"video_url"`
	ThumbnailPath string `gorm:"column:thumbnail_path" json:"thumbnail_path"`

	CreatedOn time.Time `gorm:"column:created_on;not null" json:"created_on"`
	Status    int16     `gorm:"column:status;not null;default:1;index" json:"status"`
}

func (IntroVideo) TableName() string { return "intro_video" }
