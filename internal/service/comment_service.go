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
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentService interface {
	Create(ctx context.Context, actor policy.Actor, titleID, reviewID uuid.UUID, req dto.CreateCommentRequest) (*dto.CommentResponse, error)
	Get(ctx context.Context, titleID, reviewID, commentID uuid.UUID) (*dto.CommentResponse, error)
	ListByReview(ctx context.Context, titleID, reviewID uuid.UUID, filter dto.PageFilter) (*dto.PaginatedCommentResponse, error)
	Update(ctx context.Context, actor policy.Actor, titleID, reviewID, commentID uuid.UUID, req dto.UpdateCommentRequest) (*dto.CommentResponse, error)
	Delete(ctx context.Context, actor policy.Actor, titleID, reviewID, commentID uuid.UUID) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
}

func NewCommentService(commentRepo repository.CommentRepository, reviewRepo repository.ReviewRepository) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
	}
}

func (s *commentService) Create(ctx context.Context, actor policy.Actor, titleID, reviewID uuid.UUID, req dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if err := authorize(policy.ContentCreate(actor)); err != nil {
		return nil, err
	}

	if _, err := s.resolveReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		Text:     req.Text,
		ReviewID: reviewID,
		AuthorID: actor.ID,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	created, err := s.commentRepo.FindByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	return buildCommentResponse(created), nil
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID uuid.UUID) (*dto.CommentResponse, error) {
	comment, err := s.resolveComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	return buildCommentResponse(comment), nil
}

func (s *commentService) ListByReview(ctx context.Context, titleID, reviewID uuid.UUID, filter dto.PageFilter) (*dto.PaginatedCommentResponse, error) {
	filter.Normalize()

	if _, err := s.resolveReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comments, total, err := s.commentRepo.FindByReviewID(ctx, reviewID, filter.Offset(), filter.Limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		responses = append(responses, *buildCommentResponse(comment))
	}

	return &dto.PaginatedCommentResponse{
		Data: responses,
		Meta: dto.NewPaginationMeta(filter.Page, filter.Limit, total),
	}, nil
}

func (s *commentService) Update(ctx context.Context, actor policy.Actor, titleID, reviewID, commentID uuid.UUID, req dto.UpdateCommentRequest) (*dto.CommentResponse, error) {
	comment, err := s.resolveComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	if err := authorize(policy.ContentModify(actor, comment.AuthorID)); err != nil {
		return nil, err
	}

	comment.Text = req.Text

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return buildCommentResponse(comment), nil
}

func (s *commentService) Delete(ctx context.Context, actor policy.Actor, titleID, reviewID, commentID uuid.UUID) error {
	comment, err := s.resolveComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}

	if err := authorize(policy.ContentModify(actor, comment.AuthorID)); err != nil {
		return err
	}

	return s.commentRepo.Delete(ctx, comment.ID)
}

func (s *commentService) resolveReview(ctx context.Context, titleID, reviewID uuid.UUID) (*entity.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("review %s: %w", reviewID, apperror.ErrNotFound)
		}
		return nil, err
	}
	if review.TitleID != titleID {
		return nil, fmt.Errorf("review %s: %w", reviewID, apperror.ErrNotFound)
	}
	return review, nil
}

func (s *commentService) resolveComment(ctx context.Context, titleID, reviewID, commentID uuid.UUID) (*entity.Comment, error) {
	if _, err := s.resolveReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("comment %s: %w", commentID, apperror.ErrNotFound)
		}
		return nil, err
	}
	if comment.ReviewID != reviewID {
		return nil, fmt.Errorf("comment %s: %w", commentID, apperror.ErrNotFound)
	}
	return comment, nil
}

func buildCommentResponse(comment *entity.Comment) *dto.CommentResponse {
	return &dto.CommentResponse{
		ID:      comment.ID,
		Text:    comment.Text,
		Author:  comment.Author.Username,
		PubDate: comment.PubDate,
	}
}
