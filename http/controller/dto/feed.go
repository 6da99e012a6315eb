package dto

type CreateFeedRequestDTO struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}
