package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/titlereview/internal/dto"
	"anoa.com/titlereview/internal/entity"
	"anoa.com/titlereview/internal/policy"
	"anoa.com/titlereview/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCategoryRepo struct {
	bySlug map[string]*entity.Category
}

func (r *fakeCategoryRepo) Create(ctx context.Context, category *entity.Category) error {
	if _, ok := r.bySlug[category.Slug]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.bySlug[category.Slug] = category
	return nil
}

func (r *fakeCategoryRepo) FindBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	if c, ok := r.bySlug[slug]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCategoryRepo) FindAll(ctx context.Context, search string, offset, limit int) ([]*entity.Category, int64, error) {
	var categories []*entity.Category
	for _, c := range r.bySlug {
		categories = append(categories, c)
	}
	return categories, int64(len(categories)), nil
}

func (r *fakeCategoryRepo) DeleteBySlug(ctx context.Context, slug string) (int64, error) {
	if _, ok := r.bySlug[slug]; !ok {
		return 0, nil
	}
	delete(r.bySlug, slug)
	return 1, nil
}

type fakeGenreRepo struct {
	bySlug map[string]*entity.Genre
}

func (r *fakeGenreRepo) Create(ctx context.Context, genre *entity.Genre) error {
	if _, ok := r.bySlug[genre.Slug]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.bySlug[genre.Slug] = genre
	return nil
}

func (r *fakeGenreRepo) FindBySlug(ctx context.Context, slug string) (*entity.Genre, error) {
	if g, ok := r.bySlug[slug]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeGenreRepo) FindBySlugs(ctx context.Context, slugs []string) ([]entity.Genre, error) {
	var genres []entity.Genre
	for _, slug := range slugs {
		if g, ok := r.bySlug[slug]; ok {
			genres = append(genres, *g)
		}
	}
	return genres, nil
}

func (r *fakeGenreRepo) FindAll(ctx context.Context, search string, offset, limit int) ([]*entity.Genre, int64, error) {
	var genres []*entity.Genre
	for _, g := range r.bySlug {
		genres = append(genres, g)
	}
	return genres, int64(len(genres)), nil
}

func (r *fakeGenreRepo) DeleteBySlug(ctx context.Context, slug string) (int64, error) {
	if _, ok := r.bySlug[slug]; !ok {
		return 0, nil
	}
	delete(r.bySlug, slug)
	return 1, nil
}

func titleFixture() (TitleService, *fakeTitleRepo, *fakeReviewRepo) {
	titleRepo := newFakeTitleRepo()
	reviewRepo := newFakeReviewRepo()
	titleRepo.reviews = reviewRepo
	categoryRepo := &fakeCategoryRepo{bySlug: map[string]*entity.Category{
		"books": {Name: "Books", Slug: "books"},
	}}
	genreRepo := &fakeGenreRepo{bySlug: map[string]*entity.Genre{
		"sci-fi": {Name: "Science Fiction", Slug: "sci-fi"},
	}}
	svc := NewTitleService(titleRepo, categoryRepo, genreRepo, NewSearchService(nil))
	return svc, titleRepo, reviewRepo
}

func TestTitleCreateRequiresAdmin(t *testing.T) {
	svc, _, _ := titleFixture()
	ctx := context.Background()
	req := dto.CreateTitleRequest{Name: "Dune", Year: 1965}

	_, err := svc.Create(ctx, policy.Actor{}, req)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Create(ctx, authedActor(entity.RoleModerator), req)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.Create(ctx, authedActor(entity.RoleAdmin), req)
	assert.NoError(t, err)
}

func TestTitleCreateSuperuserBypassesRole(t *testing.T) {
	svc, _, _ := titleFixture()
	actor := authedActor(entity.RoleUser)
	actor.IsSuperuser = true

	_, err := svc.Create(context.Background(), actor, dto.CreateTitleRequest{Name: "Dune", Year: 1965})
	assert.NoError(t, err)
}

func TestTitleCreateFutureYearRejected(t *testing.T) {
	svc, _, _ := titleFixture()

	_, err := svc.Create(context.Background(), authedActor(entity.RoleAdmin), dto.CreateTitleRequest{
		Name: "Dune 3",
		Year: time.Now().Year() + 1,
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestTitleCreateUnknownClassifiersRejected(t *testing.T) {
	svc, _, _ := titleFixture()
	ctx := context.Background()
	admin := authedActor(entity.RoleAdmin)

	_, err := svc.Create(ctx, admin, dto.CreateTitleRequest{Name: "Dune", Year: 1965, Category: "movies"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.Create(ctx, admin, dto.CreateTitleRequest{Name: "Dune", Year: 1965, Genres: []string{"romance"}})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestTitleCreateResolvesClassifiers(t *testing.T) {
	svc, _, _ := titleFixture()

	created, err := svc.Create(context.Background(), authedActor(entity.RoleAdmin), dto.CreateTitleRequest{
		Name:     "Dune",
		Year:     1965,
		Category: "books",
		Genres:   []string{"sci-fi"},
	})
	require.NoError(t, err)
	require.NotNil(t, created.Category)
	assert.Equal(t, "books", created.Category.Slug)
	require.Len(t, created.Genres, 1)
	assert.Equal(t, "sci-fi", created.Genres[0].Slug)
	assert.Nil(t, created.Rating)
}

func TestTitleListRatingTruncates(t *testing.T) {
	svc, titleRepo, reviewRepo := titleFixture()
	ctx := context.Background()

	title := &entity.Title{Name: "Dune", Year: 1965}
	require.NoError(t, titleRepo.Create(ctx, title))

	// Scores 8 and 9 average to 8.5, which reads back as 8.
	for _, score := range []int{8, 9} {
		require.NoError(t, reviewRepo.Create(ctx, &entity.Review{
			Text:     "x",
			Score:    score,
			TitleID:  title.ID,
			AuthorID: authedActor(entity.RoleUser).ID,
		}))
	}

	list, err := svc.List(ctx, dto.TitleFilter{})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	require.NotNil(t, list.Data[0].Rating)
	assert.Equal(t, 8, *list.Data[0].Rating)
}

func TestTitleDeleteMissingIsNotFound(t *testing.T) {
	svc, _, _ := titleFixture()

	err := svc.Delete(context.Background(), authedActor(entity.RoleAdmin), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRatingValue(t *testing.T) {
	assert.Nil(t, ratingValue(nil))

	for avg, want := range map[float64]int{4.0: 4, 7.9: 7, 8.5: 8, 10.0: 10} {
		v := avg
		got := ratingValue(&v)
		require.NotNil(t, got)
		assert.Equal(t, want, *got)
	}
}
