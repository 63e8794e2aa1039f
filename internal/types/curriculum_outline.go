package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	HeaderTypeChapter = "chapter"
	HeaderTypeSection = "section"
	HeaderTypeLesson  = "lesson"
)

func ValidHeaderType(ht string) bool {
	switch ht {
	case HeaderTypeChapter, HeaderTypeSection, HeaderTypeLesson:
		return true
	}
	return false
}

type CurriculumOutline struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course   *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`

	HeaderType  string `gorm:"column:header_type;not null" json:"header_type"`
	SequenceNo  int    `gorm:"column:sequence_no;not null;index" json:"sequence_no"`
	Title       string `gorm:"column:title;not null" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description"`

	CreatedOn time.Time `gorm:"column:created_on;not null" json:"created_on"`
	Status    int16     `gorm:"column:status;not null;default:1;index" json:"status"`
}

func (CurriculumOutline) TableName() string { return "curriculum_outline" }
