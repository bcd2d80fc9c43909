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

type ReviewService interface {
	Create(ctx context.Context, actor policy.Actor, titleID uuid.UUID, req dto.CreateReviewRequest) (*dto.ReviewResponse, error)
	Get(ctx context.Context, titleID, reviewID uuid.UUID) (*dto.ReviewResponse, error)
	ListByTitle(ctx context.Context, titleID uuid.UUID, filter dto.PageFilter) (*dto.PaginatedReviewResponse, error)
	Update(ctx context.Context, actor policy.Actor, titleID, reviewID uuid.UUID, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, actor policy.Actor, titleID, reviewID uuid.UUID) error
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  repository.TitleRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository, titleRepo repository.TitleRepository) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
	}
}

func (s *reviewService) Create(ctx context.Context, actor policy.Actor, titleID uuid.UUID, req dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	if err := authorize(policy.ContentCreate(actor)); err != nil {
		return nil, err
	}

	if _, err := s.titleRepo.FindByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("title %s: %w", titleID, apperror.ErrNotFound)
		}
		return nil, err
	}

	review := &entity.Review{
		Text:     req.Text,
		Score:    req.Score,
		TitleID:  titleID,
		AuthorID: actor.ID,
	}

	// No pre-check: the unique index decides, so concurrent duplicates
	// collapse to one row and one Conflict.
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("you have already reviewed this title: %w", apperror.ErrConflict)
		}
		if errors.Is(err, gorm.ErrCheckConstraintViolated) {
			return nil, fmt.Errorf("score must be between 1 and 10: %w", apperror.ErrInvalidInput)
		}
		return nil, err
	}

	created, err := s.reviewRepo.FindByID(ctx, review.ID)
	if err != nil {
		return nil, err
	}

	return buildReviewResponse(created), nil
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID uuid.UUID) (*dto.ReviewResponse, error) {
	review, err := s.resolve(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	return buildReviewResponse(review), nil
}

func (s *reviewService) ListByTitle(ctx context.Context, titleID uuid.UUID, filter dto.PageFilter) (*dto.PaginatedReviewResponse, error) {
	filter.Normalize()

	if _, err := s.titleRepo.FindByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("title %s: %w", titleID, apperror.ErrNotFound)
		}
		return nil, err
	}

	reviews, total, err := s.reviewRepo.FindByTitleID(ctx, titleID, filter.Offset(), filter.Limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		responses = append(responses, *buildReviewResponse(review))
	}

	return &dto.PaginatedReviewResponse{
		Data: responses,
		Meta: dto.NewPaginationMeta(filter.Page, filter.Limit, total),
	}, nil
}

func (s *reviewService) Update(ctx context.Context, actor policy.Actor, titleID, reviewID uuid.UUID, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error) {
	review, err := s.resolve(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	if err := authorize(policy.ContentModify(actor, review.AuthorID)); err != nil {
		return nil, err
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}
	// Author and pub_date are immutable.

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrCheckConstraintViolated) {
			return nil, fmt.Errorf("score must be between 1 and 10: %w", apperror.ErrInvalidInput)
		}
		return nil, err
	}

	return buildReviewResponse(review), nil
}

func (s *reviewService) Delete(ctx context.Context, actor policy.Actor, titleID, reviewID uuid.UUID) error {
	review, err := s.resolve(ctx, titleID, reviewID)
	if err != nil {
		return err
	}

	if err := authorize(policy.ContentModify(actor, review.AuthorID)); err != nil {
		return err
	}

	return s.reviewRepo.Delete(ctx, review.ID)
}

// resolve loads a review and checks it belongs to the title in the
// request path; cross-title access reads as not found.
func (s *reviewService) resolve(ctx context.Context, titleID, reviewID uuid.UUID) (*entity.Review, error) {
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

func buildReviewResponse(review *entity.Review) *dto.ReviewResponse {
	return &dto.ReviewResponse{
		ID:      review.ID,
		Text:    review.Text,
		Author:  review.Author.Username,
		Score:   review.Score,
		PubDate: review.PubDate,
	}
}
