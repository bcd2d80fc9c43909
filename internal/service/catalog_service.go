package service

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/titlereview/internal/dto"
	"anoa.com/titlereview/internal/entity"
	"anoa.com/titlereview/internal/policy"
	"anoa.com/titlereview/internal/repository"
	"anoa.com/titlereview/pkg/apperror"
	"gorm.io/gorm"
)

// SlugCatalogService is the shared list/create/delete-by-slug surface
// behind both categories and genres. Reads are public; writes go through
// the catalog policy.
type SlugCatalogService interface {
	Create(ctx context.Context, actor policy.Actor, req dto.CreateSlugRequest) (*dto.SlugResponse, error)
	List(ctx context.Context, filter dto.SearchFilter) (*dto.PaginatedSlugResponse, error)
	Delete(ctx context.Context, actor policy.Actor, slug string) error
}

// slugStore adapts an entity-typed repository to the shared service.
type slugStore interface {
	Insert(ctx context.Context, name, slug string) error
	List(ctx context.Context, search string, offset, limit int) ([]dto.SlugResponse, int64, error)
	DeleteBySlug(ctx context.Context, slug string) (int64, error)
}

type slugCatalogService struct {
	resource string
	store    slugStore
}

func (s *slugCatalogService) Create(ctx context.Context, actor policy.Actor, req dto.CreateSlugRequest) (*dto.SlugResponse, error) {
	if err := authorize(policy.CatalogWrite(actor)); err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, req.Name, req.Slug); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%s with slug %s already exists: %w", s.resource, req.Slug, apperror.ErrConflict)
		}
		return nil, err
	}

	return &dto.SlugResponse{Name: req.Name, Slug: req.Slug}, nil
}

func (s *slugCatalogService) List(ctx context.Context, filter dto.SearchFilter) (*dto.PaginatedSlugResponse, error) {
	filter.Normalize()

	items, total, err := s.store.List(ctx, filter.Search, filter.Offset(), filter.Limit)
	if err != nil {
		return nil, err
	}

	return &dto.PaginatedSlugResponse{
		Data: items,
		Meta: dto.NewPaginationMeta(filter.Page, filter.Limit, total),
	}, nil
}

func (s *slugCatalogService) Delete(ctx context.Context, actor policy.Actor, slug string) error {
	if err := authorize(policy.CatalogWrite(actor)); err != nil {
		return err
	}

	affected, err := s.store.DeleteBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", s.resource, slug, apperror.ErrNotFound)
	}
	return nil
}

type categorySlugStore struct {
	repo repository.CategoryRepository
}

func (s categorySlugStore) Insert(ctx context.Context, name, slug string) error {
	return s.repo.Create(ctx, &entity.Category{Name: name, Slug: slug})
}

func (s categorySlugStore) List(ctx context.Context, search string, offset, limit int) ([]dto.SlugResponse, int64, error) {
	categories, total, err := s.repo.FindAll(ctx, search, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	items := make([]dto.SlugResponse, 0, len(categories))
	for _, c := range categories {
		items = append(items, dto.SlugResponse{Name: c.Name, Slug: c.Slug})
	}
	return items, total, nil
}

func (s categorySlugStore) DeleteBySlug(ctx context.Context, slug string) (int64, error) {
	return s.repo.DeleteBySlug(ctx, slug)
}

func NewCategoryService(repo repository.CategoryRepository) SlugCatalogService {
	return &slugCatalogService{resource: "category", store: categorySlugStore{repo: repo}}
}

type genreSlugStore struct {
	repo repository.GenreRepository
}

func (s genreSlugStore) Insert(ctx context.Context, name, slug string) error {
	return s.repo.Create(ctx, &entity.Genre{Name: name, Slug: slug})
}

func (s genreSlugStore) List(ctx context.Context, search string, offset, limit int) ([]dto.SlugResponse, int64, error) {
	genres, total, err := s.repo.FindAll(ctx, search, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	items := make([]dto.SlugResponse, 0, len(genres))
	for _, g := range genres {
		items = append(items, dto.SlugResponse{Name: g.Name, Slug: g.Slug})
	}
	return items, total, nil
}

func (s genreSlugStore) DeleteBySlug(ctx context.Context, slug string) (int64, error) {
	return s.repo.DeleteBySlug(ctx, slug)
}

func NewGenreService(repo repository.GenreRepository) SlugCatalogService {
	return &slugCatalogService{resource: "genre", store: genreSlugStore{repo: repo}}
}
