package dto

import "github.com/google/uuid"

type CreateTitleRequest struct {
	Name        string   `json:"name" binding:"required,max=255"`
	Year        int      `json:"year" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Genres      []string `json:"genre"`
}

type UpdateTitleRequest struct {
	Name        *string   `json:"name" binding:"omitempty,max=255"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Genres      *[]string `json:"genre"`
}

type TitleFilter struct {
	PageFilter
	Category string `form:"category"`
	Genre    string `form:"genre"`
	Name     string `form:"name"`
	Year     *int   `form:"year"`
	Search   string `form:"search"`
}

type TitleResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Year        int       `json:"year"`
	Description string    `json:"description"`
	// Rating is the truncated mean of the title's review scores, null
	// when no reviews exist.
	Rating   *int           `json:"rating"`
	Category *SlugResponse  `json:"category"`
	Genres   []SlugResponse `json:"genre"`
}

type PaginatedTitleResponse struct {
	Data []TitleResponse `json:"data"`
	Meta PaginationMeta  `json:"meta"`
}
