package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

type Repository struct {
	db        *gorm.DB
	FeedRepo  *FeedRepository
	ImageRepo *ImageRepository
}

func InitRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:        db,
		FeedRepo:  NewFeedRepository(db),
		ImageRepo: NewImageRepository(db),
	}
}

func (r *Repository) WithTransaction(tx *gorm.DB) *Repository {
	return &Repository{
		db:        tx,
		FeedRepo:  NewFeedRepository(tx),
		ImageRepo: NewImageRepository(tx),
	}
}

// Transaction runs fn against repositories bound to a single transaction.
// The transaction is committed when fn returns nil and rolled back otherwise,
// including when fn panics.
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTransaction(tx))
	})
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
