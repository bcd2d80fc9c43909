package repository

import (
	"context"

	"anoa.com/titlereview/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	FindByTitleID(ctx context.Context, titleID uuid.UUID, offset, limit int) ([]*entity.Review, int64, error)
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create relies on the (title_id, author_id) unique index; a concurrent
// duplicate surfaces as gorm.ErrDuplicatedKey, never as a second row.
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	var review entity.Review
	if err := r.db.WithContext(ctx).
		Preload("Author").
		First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindByTitleID(ctx context.Context, titleID uuid.UUID, offset, limit int) ([]*entity.Review, int64, error) {
	var reviews []*entity.Review
	var total int64

	query := r.db.WithContext(ctx).
		Preload("Author").
		Where("title_id = ?", titleID)

	if err := query.Model(&entity.Review{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("pub_date DESC").Offset(offset).Limit(limit).Find(&reviews).Error; err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

// Delete cascades to the review's comments through the FK constraint.
func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Review{}, "id = ?", id).Error
}
