package dto

import "github.com/google/uuid"

type ImageSummaryDTO struct {
	ID       uuid.UUID `json:"id"`
	Filename string    `json:"filename"`
}

type UploadImageResponseDTO struct {
	Message string    `json:"message"`
	ImageID uuid.UUID `json:"image_id"`
}
