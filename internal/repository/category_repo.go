package repository

import (
	"context"

	"anoa.com/titlereview/internal/entity"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	FindBySlug(ctx context.Context, slug string) (*entity.Category, error)
	FindAll(ctx context.Context, search string, offset, limit int) ([]*entity.Category, int64, error)
	DeleteBySlug(ctx context.Context, slug string) (int64, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	var category entity.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindAll(ctx context.Context, search string, offset, limit int) ([]*entity.Category, int64, error) {
	var categories []*entity.Category
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Category{})
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("slug ASC").Offset(offset).Limit(limit).Find(&categories).Error; err != nil {
		return nil, 0, err
	}

	return categories, total, nil
}

// DeleteBySlug detaches the category from its titles through the FK's
// SET NULL and reports how many rows matched so the caller can 404.
func (r *categoryRepository) DeleteBySlug(ctx context.Context, slug string) (int64, error) {
	res := r.db.WithContext(ctx).Where("slug = ?", slug).Delete(&entity.Category{})
	return res.RowsAffected, res.Error
}
