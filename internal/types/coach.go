package types

import (
	"time"

	"github.com/google/uuid"
)

type Coach struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"column:password;not null" json:"-"`
	FirstName string    `gorm:"column:first_name" json:"first_name"`
	LastName  string    `gorm:"column:last_name" json:"last_name"`
	CreatedOn time.Time `gorm:"column:created_on;not null" json:"created_on"`
	Status    int16     `gorm:"column:status;not null;default:1;index" json:"status"`
}

func (Coach) TableName() string { return "coach" }
