package repository

import (
	"context"

	"anoa.com/titlereview/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error)
	FindByReviewID(ctx context.Context, reviewID uuid.UUID, offset, limit int) ([]*entity.Comment, int64, error)
	Update(ctx context.Context, comment *entity.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error) {
	var comment entity.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		First(&comment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) FindByReviewID(ctx context.Context, reviewID uuid.UUID, offset, limit int) ([]*entity.Comment, int64, error) {
	var comments []*entity.Comment
	var total int64

	query := r.db.WithContext(ctx).
		Preload("Author").
		Where("review_id = ?", reviewID)

	if err := query.Model(&entity.Comment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("pub_date DESC").Offset(offset).Limit(limit).Find(&comments).Error; err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Comment{}, "id = ?", id).Error
}
