package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/titlereview/internal/dto"
	"anoa.com/titlereview/internal/entity"
	"anoa.com/titlereview/internal/policy"
	"anoa.com/titlereview/internal/repository"
	"anoa.com/titlereview/pkg/apperror"
	"gorm.io/gorm"
)

type UserService interface {
	Create(ctx context.Context, actor policy.Actor, req dto.CreateUserRequest) (*dto.UserResponse, error)
	GetByUsername(ctx context.Context, actor policy.Actor, username string) (*dto.UserResponse, error)
	List(ctx context.Context, actor policy.Actor, filter dto.SearchFilter) (*dto.PaginatedUserResponse, error)
	Update(ctx context.Context, actor policy.Actor, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, actor policy.Actor, username string) error

	GetProfile(ctx context.Context, actor policy.Actor) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, actor policy.Actor, req dto.UpdateProfileRequest) (*dto.UserResponse, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Create(ctx context.Context, actor policy.Actor, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := authorize(policy.UserAdmin(actor)); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = entity.RoleUser
	}

	user := &entity.User{
		Username:    strings.ToLower(req.Username),
		Email:       strings.ToLower(req.Email),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Bio:         req.Bio,
		Role:        role,
		IsSuperuser: req.IsSuperuser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username or email already registered: %w", apperror.ErrConflict)
		}
		return nil, err
	}

	return buildUserResponse(user), nil
}

func (s *userService) GetByUsername(ctx context.Context, actor policy.Actor, username string) (*dto.UserResponse, error) {
	if err := authorize(policy.UserAdmin(actor)); err != nil {
		return nil, err
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return buildUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, actor policy.Actor, filter dto.SearchFilter) (*dto.PaginatedUserResponse, error) {
	if err := authorize(policy.UserAdmin(actor)); err != nil {
		return nil, err
	}

	filter.Normalize()

	users, total, err := s.repo.FindAll(ctx, filter.Search, filter.Offset(), filter.Limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, *buildUserResponse(user))
	}

	return &dto.PaginatedUserResponse{
		Data: responses,
		Meta: dto.NewPaginationMeta(filter.Page, filter.Limit, total),
	}, nil
}

func (s *userService) Update(ctx context.Context, actor policy.Actor, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := authorize(policy.UserAdmin(actor)); err != nil {
		return nil, err
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = strings.ToLower(*req.Username)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(*req.Email)
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsSuperuser != nil {
		user.IsSuperuser = *req.IsSuperuser
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username or email already registered: %w", apperror.ErrConflict)
		}
		return nil, err
	}

	return buildUserResponse(user), nil
}

// Delete removes the account; the FK constraints cascade to the user's
// reviews and comments.
func (s *userService) Delete(ctx context.Context, actor policy.Actor, username string) error {
	if err := authorize(policy.UserAdmin(actor)); err != nil {
		return err
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return err
	}

	return s.repo.Delete(ctx, user.ID)
}

func (s *userService) GetProfile(ctx context.Context, actor policy.Actor) (*dto.UserResponse, error) {
	if err := authorize(policy.SelfProfile(actor)); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return buildUserResponse(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor policy.Actor, req dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	if err := authorize(policy.SelfProfile(actor)); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = strings.ToLower(*req.Username)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(*req.Email)
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	// req.Role is deliberately ignored: role is read-only on the
	// self-service path.

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username or email already registered: %w", apperror.ErrConflict)
		}
		return nil, err
	}

	return buildUserResponse(user), nil
}

func (s *userService) findByUsername(ctx context.Context, username string) (*entity.User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.ToLower(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", username, apperror.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func buildUserResponse(user *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       user.Bio,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
