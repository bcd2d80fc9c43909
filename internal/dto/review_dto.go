package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateReviewRequest struct {
	Text  string `json:"text" binding:"required"`
	Score int    `json:"score" binding:"required,min=1,max=10"`
}

type UpdateReviewRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score" binding:"omitempty,min=1,max=10"`
}

type ReviewResponse struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

type PaginatedReviewResponse struct {
	Data []ReviewResponse `json:"data"`
	Meta PaginationMeta   `json:"meta"`
}

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type UpdateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type CommentResponse struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

type PaginatedCommentResponse struct {
	Data []CommentResponse `json:"data"`
	Meta PaginationMeta    `json:"meta"`
}
