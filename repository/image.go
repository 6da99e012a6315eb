package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tnqbao/gau-feed-service/entity"
	"gorm.io/gorm"
)

type ImageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(ctx context.Context, image *entity.Image) error {
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	return nil
}

func (r *ImageRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Image, error) {
	var image entity.Image
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&image).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &image, nil
}

func (r *ImageRepository) FindByFeedIDAndID(ctx context.Context, feedID, id uuid.UUID) (*entity.Image, error) {
	var image entity.Image
	err := r.db.WithContext(ctx).Where("feed_id = ? AND id = ?", feedID, id).First(&image).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &image, nil
}

// FindByFeedID returns the images of a feed, oldest first. An unknown feed
// yields an empty, non-nil slice.
func (r *ImageRepository) FindByFeedID(ctx context.Context, feedID uuid.UUID) ([]entity.Image, error) {
	images := make([]entity.Image, 0)
	err := r.db.WithContext(ctx).
		Where("feed_id = ?", feedID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return images, nil
}

func (r *ImageRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Image{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count images: %w", err)
	}
	return count > 0, nil
}
