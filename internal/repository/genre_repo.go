package repository

import (
	"context"

	"anoa.com/titlereview/internal/entity"
	"gorm.io/gorm"
)

type GenreRepository interface {
	Create(ctx context.Context, genre *entity.Genre) error
	FindBySlug(ctx context.Context, slug string) (*entity.Genre, error)
	FindBySlugs(ctx context.Context, slugs []string) ([]entity.Genre, error)
	FindAll(ctx context.Context, search string, offset, limit int) ([]*entity.Genre, int64, error)
	DeleteBySlug(ctx context.Context, slug string) (int64, error)
}

type genreRepository struct {
	db *gorm.DB
}

func NewGenreRepository(db *gorm.DB) GenreRepository {
	return &genreRepository{db: db}
}

func (r *genreRepository) Create(ctx context.Context, genre *entity.Genre) error {
	return r.db.WithContext(ctx).Create(genre).Error
}

func (r *genreRepository) FindBySlug(ctx context.Context, slug string) (*entity.Genre, error) {
	var genre entity.Genre
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&genre).Error; err != nil {
		return nil, err
	}
	return &genre, nil
}

func (r *genreRepository) FindBySlugs(ctx context.Context, slugs []string) ([]entity.Genre, error) {
	var genres []entity.Genre
	if len(slugs) == 0 {
		return genres, nil
	}
	if err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&genres).Error; err != nil {
		return nil, err
	}
	return genres, nil
}

func (r *genreRepository) FindAll(ctx context.Context, search string, offset, limit int) ([]*entity.Genre, int64, error) {
	var genres []*entity.Genre
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Genre{})
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("slug ASC").Offset(offset).Limit(limit).Find(&genres).Error; err != nil {
		return nil, 0, err
	}

	return genres, total, nil
}

func (r *genreRepository) DeleteBySlug(ctx context.Context, slug string) (int64, error) {
	res := r.db.WithContext(ctx).Where("slug = ?", slug).Delete(&entity.Genre{})
	return res.RowsAffected, res.Error
}
