package dto

type CreateSlugRequest struct {
	Name string `json:"name" binding:"required,max=100"`
	Slug string `json:"slug" binding:"required,max=100,slugfmt"`
}

type SlugResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type PaginatedSlugResponse struct {
	Data []SlugResponse `json:"data"`
	Meta PaginationMeta `json:"meta"`
}
