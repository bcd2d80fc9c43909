package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"anoa.com/titlereview/internal/dto"
	"anoa.com/titlereview/internal/entity"
	"anoa.com/titlereview/internal/policy"
	"anoa.com/titlereview/internal/repository"
	"anoa.com/titlereview/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TitleService interface {
	Create(ctx context.Context, actor policy.Actor, req dto.CreateTitleRequest) (*dto.TitleResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.TitleResponse, error)
	List(ctx context.Context, filter dto.TitleFilter) (*dto.PaginatedTitleResponse, error)
	Update(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.UpdateTitleRequest) (*dto.TitleResponse, error)
	Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error
}

type titleService struct {
	titleRepo    repository.TitleRepository
	categoryRepo repository.CategoryRepository
	genreRepo    repository.GenreRepository
	search       SearchService
}

func NewTitleService(titleRepo repository.TitleRepository, categoryRepo repository.CategoryRepository, genreRepo repository.GenreRepository, search SearchService) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		search:       search,
	}
}

func (s *titleService) Create(ctx context.Context, actor policy.Actor, req dto.CreateTitleRequest) (*dto.TitleResponse, error) {
	if err := authorize(policy.CatalogWrite(actor)); err != nil {
		return nil, err
	}

	if err := validateYear(req.Year); err != nil {
		return nil, err
	}

	title := &entity.Title{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
	}

	if req.Category != "" {
		category, err := s.resolveCategory(ctx, req.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
		title.Category = category
	}

	genres, err := s.resolveGenres(ctx, req.Genres)
	if err != nil {
		return nil, err
	}
	title.Genres = genres

	if err := s.titleRepo.Create(ctx, title); err != nil {
		return nil, err
	}

	if err := s.search.IndexTitle(title); err != nil {
		log.Printf("failed to index title %s: %v", title.ID, err)
	}

	return buildTitleResponse(title, nil), nil
}

func (s *titleService) Get(ctx context.Context, id uuid.UUID) (*dto.TitleResponse, error) {
	title, avg, err := s.titleRepo.FindByIDWithRating(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("title %s: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}

	return buildTitleResponse(title, avg), nil
}

func (s *titleService) List(ctx context.Context, filter dto.TitleFilter) (*dto.PaginatedTitleResponse, error) {
	filter.Normalize()

	query := repository.TitleQuery{
		CategorySlug: filter.Category,
		GenreSlug:    filter.Genre,
		Name:         filter.Name,
		Year:         filter.Year,
	}

	// Full-text search narrows the candidate set through the index;
	// without a search backend it degrades to a name filter.
	if filter.Search != "" {
		if s.search.Enabled() {
			ids, _, err := s.search.SearchTitleIDs(filter.Search, 0, 1000)
			if err != nil {
				return nil, err
			}
			if len(ids) == 0 {
				return &dto.PaginatedTitleResponse{
					Data: []dto.TitleResponse{},
					Meta: dto.NewPaginationMeta(filter.Page, filter.Limit, 0),
				}, nil
			}
			query.IDs = ids
		} else {
			query.Name = filter.Search
		}
	}

	titles, averages, total, err := s.titleRepo.FindAllWithRatings(ctx, query, filter.Offset(), filter.Limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TitleResponse, 0, len(titles))
	for _, t := range titles {
		var avg *float64
		if v, ok := averages[t.ID]; ok {
			avg = &v
		}
		responses = append(responses, *buildTitleResponse(t, avg))
	}

	return &dto.PaginatedTitleResponse{
		Data: responses,
		Meta: dto.NewPaginationMeta(filter.Page, filter.Limit, total),
	}, nil
}

func (s *titleService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.UpdateTitleRequest) (*dto.TitleResponse, error) {
	if err := authorize(policy.CatalogWrite(actor)); err != nil {
		return nil, err
	}

	title, err := s.titleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("title %s: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}

	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		if err := validateYear(*req.Year); err != nil {
			return nil, err
		}
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = *req.Description
	}
	if req.Category != nil {
		if *req.Category == "" {
			title.CategoryID = nil
			title.Category = nil
		} else {
			category, err := s.resolveCategory(ctx, *req.Category)
			if err != nil {
				return nil, err
			}
			title.CategoryID = &category.ID
			title.Category = category
		}
	}
	if req.Genres != nil {
		genres, err := s.resolveGenres(ctx, *req.Genres)
		if err != nil {
			return nil, err
		}
		title.Genres = genres
	}

	if err := s.titleRepo.Update(ctx, title); err != nil {
		return nil, err
	}

	if err := s.search.IndexTitle(title); err != nil {
		log.Printf("failed to index title %s: %v", title.ID, err)
	}

	return s.Get(ctx, id)
}

func (s *titleService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if err := authorize(policy.CatalogWrite(actor)); err != nil {
		return err
	}

	affected, err := s.titleRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("title %s: %w", id, apperror.ErrNotFound)
	}

	if err := s.search.DeleteTitle(id.String()); err != nil {
		log.Printf("failed to remove title %s from index: %v", id, err)
	}

	return nil
}

func (s *titleService) resolveCategory(ctx context.Context, slug string) (*entity.Category, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("unknown category %s: %w", slug, apperror.ErrInvalidInput)
		}
		return nil, err
	}
	return category, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]entity.Genre, error) {
	genres, err := s.genreRepo.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	if len(genres) != len(slugs) {
		found := make(map[string]bool, len(genres))
		for _, g := range genres {
			found[g.Slug] = true
		}
		for _, slug := range slugs {
			if !found[slug] {
				return nil, fmt.Errorf("unknown genre %s: %w", slug, apperror.ErrInvalidInput)
			}
		}
	}
	return genres, nil
}

func validateYear(year int) error {
	if year > time.Now().Year() {
		return fmt.Errorf("year %d is in the future: %w", year, apperror.ErrInvalidInput)
	}
	return nil
}

// ratingValue truncates the mean score to an integer; nil means the
// title has no reviews yet.
func ratingValue(avg *float64) *int {
	if avg == nil {
		return nil
	}
	value := int(*avg)
	return &value
}

func buildTitleResponse(title *entity.Title, avg *float64) *dto.TitleResponse {
	resp := &dto.TitleResponse{
		ID:          title.ID,
		Name:        title.Name,
		Year:        title.Year,
		Description: title.Description,
		Rating:      ratingValue(avg),
		Genres:      make([]dto.SlugResponse, 0, len(title.Genres)),
	}
	if title.Category != nil {
		resp.Category = &dto.SlugResponse{Name: title.Category.Name, Slug: title.Category.Slug}
	}
	for _, g := range title.Genres {
		resp.Genres = append(resp.Genres, dto.SlugResponse{Name: g.Name, Slug: g.Slug})
	}
	return resp
}
