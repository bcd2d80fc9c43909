package repository

import (
	"context"
	"testing"

	"anoa.com/titlereview/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&entity.User{},
		&entity.Category{},
		&entity.Genre{},
		&entity.Title{},
		&entity.Review{},
		&entity.Comment{},
	))

	return db
}

func seedTitles(t *testing.T, db *gorm.DB) (dune, solaris entity.Title) {
	t.Helper()

	category := entity.Category{Name: "Books", Slug: "books"}
	require.NoError(t, db.Create(&category).Error)

	genre := entity.Genre{Name: "Science Fiction", Slug: "sci-fi"}
	require.NoError(t, db.Create(&genre).Error)

	dune = entity.Title{
		Name:        "Dune",
		Year:        1965,
		Description: "Desert planet",
		CategoryID:  &category.ID,
		Genres:      []entity.Genre{genre},
	}
	require.NoError(t, db.Create(&dune).Error)

	solaris = entity.Title{Name: "Solaris", Year: 1961, Genres: []entity.Genre{genre}}
	require.NoError(t, db.Create(&solaris).Error)

	return dune, solaris
}

// The count and the page share one query builder; the count must not
// narrow the page's SELECT clause down to the id column.
func TestTitleFindAllReturnsFullRows(t *testing.T) {
	db := openTestDB(t)
	dune, _ := seedTitles(t, db)
	repo := NewTitleRepository(db)

	titles, _, total, err := repo.FindAllWithRatings(context.Background(), TitleQuery{}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, titles, 2)

	// year DESC puts Dune first.
	assert.Equal(t, dune.ID, titles[0].ID)
	assert.Equal(t, "Dune", titles[0].Name)
	assert.Equal(t, 1965, titles[0].Year)
	assert.Equal(t, "Desert planet", titles[0].Description)
	require.NotNil(t, titles[0].Category)
	assert.Equal(t, "books", titles[0].Category.Slug)
	require.Len(t, titles[0].Genres, 1)
	assert.Equal(t, "sci-fi", titles[0].Genres[0].Slug)

	assert.Equal(t, "Solaris", titles[1].Name)
	assert.Equal(t, 1961, titles[1].Year)
}

func TestTitleFindAllGenreFilterKeepsFullRows(t *testing.T) {
	db := openTestDB(t)
	seedTitles(t, db)
	repo := NewTitleRepository(db)

	titles, _, total, err := repo.FindAllWithRatings(context.Background(), TitleQuery{GenreSlug: "sci-fi"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, titles, 2)
	for _, title := range titles {
		assert.NotEmpty(t, title.Name)
		assert.NotZero(t, title.Year)
	}
}

func TestTitleFindAllComputesAverages(t *testing.T) {
	db := openTestDB(t)
	dune, solaris := seedTitles(t, db)
	repo := NewTitleRepository(db)

	for i, score := range []int{8, 9} {
		author := entity.User{Username: "user" + string(rune('a'+i)), Email: string(rune('a'+i)) + "@example.com"}
		require.NoError(t, db.Create(&author).Error)
		require.NoError(t, db.Create(&entity.Review{
			Text:     "x",
			Score:    score,
			TitleID:  dune.ID,
			AuthorID: author.ID,
		}).Error)
	}

	_, averages, _, err := repo.FindAllWithRatings(context.Background(), TitleQuery{}, 0, 10)
	require.NoError(t, err)
	assert.InDelta(t, 8.5, averages[dune.ID], 0.001)
	_, ok := averages[solaris.ID]
	assert.False(t, ok)
}

func TestTitleFindAllYearFilter(t *testing.T) {
	db := openTestDB(t)
	_, solaris := seedTitles(t, db)
	repo := NewTitleRepository(db)

	year := 1961
	titles, _, total, err := repo.FindAllWithRatings(context.Background(), TitleQuery{Year: &year}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, titles, 1)
	assert.Equal(t, solaris.ID, titles[0].ID)
	assert.Equal(t, "Solaris", titles[0].Name)
}
