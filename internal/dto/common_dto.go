package dto

type PageFilter struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// Normalize applies the collection defaults (page 1, 10 items).
func (f *PageFilter) Normalize() {
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = 10
	}
}

func (f PageFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return PaginationMeta{
		CurrentPage: page,
		TotalPages:  pages,
		TotalItems:  total,
		Limit:       limit,
	}
}

type SearchFilter struct {
	PageFilter
	Search string `form:"search"`
}
