package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Course struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CoachID uuid.UUID `gorm:"type:uuid;not null;index" json:"coach_id"`
	Coach   *Coach    `gorm:"constraint:OnDelete:CASCADE;foreignKey:CoachID;references:ID" json:"coach,omitempty"`

	Name                  string `gorm:"column:name;not null" json:"name"`
	TargetAudience        string `gorm:"column:target_audience" json:"target_audience"`
	LearningOutcomes      string `gorm:"column:learning_outcomes;type:text" json:"learning_outcomes"`
	CurriculumDescription string `gorm:"column:curriculum_description;type:text" json:"curriculum_description"`
	Duration              string `gorm:"column:duration" json:"duration"`

	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedOn time.Time      `gorm:"column:created_on;not null" json:"created_on"`
	Status    int16          `gorm:"column:status;not null;default:1;index" json:"status"`
}

func (Course) TableName() string { return "course" }
