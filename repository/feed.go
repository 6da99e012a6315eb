package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tnqbao/gau-feed-service/entity"
	"gorm.io/gorm"
)

type FeedRepository struct {
	db *gorm.DB
}

func NewFeedRepository(db *gorm.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

func (r *FeedRepository) Create(ctx context.Context, feed *entity.Feed) error {
	if err := r.db.WithContext(ctx).Create(feed).Error; err != nil {
		return fmt.Errorf("create feed: %w", err)
	}
	return nil
}

func (r *FeedRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Feed, error) {
	var feed entity.Feed
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&feed).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &feed, nil
}
