package entity

import (
	"time"

	"github.com/google/uuid"
)

// Image is the metadata of one uploaded file. FeedID is a plain reference;
// the schema carries no foreign key to feeds.
type Image struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	FeedID      uuid.UUID `json:"feed_id" gorm:"type:uuid;not null;index"`
	Filename    string    `json:"filename" gorm:"type:text;not null"`
	Path        string    `json:"path" gorm:"type:text;not null"` // storage key, never the client filename
	ContentType string    `json:"content_type" gorm:"type:text"`
	SizeBytes   int64     `json:"size_bytes" gorm:"not null;default:0"`
	Checksum    string    `json:"checksum" gorm:"type:varchar(64)"` // hex sha-256 of the stored bytes
	CreatedAt   time.Time `json:"created_at" gorm:"not null"`
}

func (Image) TableName() string {
	return "images"
}
