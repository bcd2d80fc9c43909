package repository

import (
	"context"

	"anoa.com/titlereview/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TitleQuery mirrors the list filters exposed on the titles collection.
type TitleQuery struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         *int
	IDs          []uuid.UUID
}

type TitleRepository interface {
	Create(ctx context.Context, title *entity.Title) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Title, error)
	// FindByIDWithRating fetches the title and the average review score
	// in one transaction so the rating matches the snapshot the title
	// was read from. The rating is nil when the title has no reviews.
	FindByIDWithRating(ctx context.Context, id uuid.UUID) (*entity.Title, *float64, error)
	// FindAllWithRatings lists a page of titles and their average review
	// scores in one transaction so the ratings match the snapshot the
	// page was read from. Titles without reviews are absent from the map.
	FindAllWithRatings(ctx context.Context, q TitleQuery, offset, limit int) ([]*entity.Title, map[uuid.UUID]float64, int64, error)
	Update(ctx context.Context, title *entity.Title) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type titleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

func (r *titleRepository) Create(ctx context.Context, title *entity.Title) error {
	// Omit("Genres.*") links existing genre rows without upserting them.
	return r.db.WithContext(ctx).Omit("Genres.*").Create(title).Error
}

func (r *titleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Title, error) {
	var title entity.Title
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Genres").
		First(&title, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &title, nil
}

func (r *titleRepository) FindByIDWithRating(ctx context.Context, id uuid.UUID) (*entity.Title, *float64, error) {
	var title entity.Title
	var rating *float64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Preload("Category").
			Preload("Genres").
			First(&title, "id = ?", id).Error; err != nil {
			return err
		}

		return tx.Model(&entity.Review{}).
			Where("title_id = ?", id).
			Select("AVG(score)").
			Scan(&rating).Error
	})
	if err != nil {
		return nil, nil, err
	}

	return &title, rating, nil
}

func (r *titleRepository) FindAllWithRatings(ctx context.Context, q TitleQuery, offset, limit int) ([]*entity.Title, map[uuid.UUID]float64, int64, error) {
	var titles []*entity.Title
	var total int64
	averages := make(map[uuid.UUID]float64)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&entity.Title{})

		if q.CategorySlug != "" {
			query = query.
				Joins("JOIN categories ON categories.id = titles.category_id").
				Where("categories.slug = ?", q.CategorySlug)
		}
		if q.GenreSlug != "" {
			query = query.
				Joins("JOIN title_genres ON title_genres.title_id = titles.id").
				Joins("JOIN genres ON genres.id = title_genres.genre_id").
				Where("genres.slug = ?", q.GenreSlug)
		}
		if q.Name != "" {
			query = query.Where("titles.name ILIKE ?", "%"+q.Name+"%")
		}
		if q.Year != nil {
			query = query.Where("titles.year = ?", *q.Year)
		}
		if len(q.IDs) > 0 {
			query = query.Where("titles.id IN ?", q.IDs)
		}

		// Count on a fresh session; mutating the shared builder would
		// leave its SELECT clause narrowed to the id column.
		if err := query.Session(&gorm.Session{}).Distinct("titles.id").Count(&total).Error; err != nil {
			return err
		}

		if err := query.
			Distinct("titles.*").
			Preload("Category").
			Preload("Genres").
			Order("titles.year DESC").
			Offset(offset).Limit(limit).
			Find(&titles).Error; err != nil {
			return err
		}

		if len(titles) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(titles))
		for _, t := range titles {
			ids = append(ids, t.ID)
		}

		var rows []struct {
			TitleID uuid.UUID
			Avg     float64
		}
		if err := tx.Model(&entity.Review{}).
			Select("title_id, AVG(score) AS avg").
			Where("title_id IN ?", ids).
			Group("title_id").
			Scan(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			averages[row.TitleID] = row.Avg
		}

		return nil
	})
	if err != nil {
		return nil, nil, 0, err
	}

	return titles, averages, total, nil
}

func (r *titleRepository) Update(ctx context.Context, title *entity.Title) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Genres").Save(title).Error; err != nil {
			return err
		}
		return tx.Model(title).Omit("Genres.*").Association("Genres").Replace(title.Genres)
	})
}

// Delete cascades to the title's reviews and their comments through the
// FK constraints.
func (r *titleRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&entity.Title{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
