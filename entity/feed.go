package entity

import (
	"time"

	"github.com/google/uuid"
)

type Feed struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"type:text;not null"`
	Description *string   `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null"`
}

func (Feed) TableName() string {
	return "feeds"
}
