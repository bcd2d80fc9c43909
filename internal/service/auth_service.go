package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"anoa.com/titlereview/internal/dto"
	"anoa.com/titlereview/internal/entity"
	"anoa.com/titlereview/internal/repository"
	"anoa.com/titlereview/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type AuthService interface {
	// Signup registers the (username, email) pair and emails a
	// confirmation code. Retrying with the same pair re-issues the code.
	Signup(ctx context.Context, req dto.SignupRequest) error
	// Token exchanges a valid confirmation code for a bearer token.
	Token(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error)
}

type authService struct {
	repo           repository.UserRepository
	codes          CodeStore
	mailer         Mailer
	redisClient    *redis.Client
	secret         string
	tokenTTL       time.Duration
	signupCooldown time.Duration
}

func NewAuthService(repo repository.UserRepository, codes CodeStore, mailer Mailer, redisClient *redis.Client, secret string, tokenTTL, signupCooldown time.Duration) AuthService {
	return &authService{
		repo:           repo,
		codes:          codes,
		mailer:         mailer,
		redisClient:    redisClient,
		secret:         secret,
		tokenTTL:       tokenTTL,
		signupCooldown: signupCooldown,
	}
}

func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) error {
	username := strings.ToLower(req.Username)
	email := strings.ToLower(req.Email)

	user, err := s.repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if user.Email != email {
			return fmt.Errorf("username already taken: %w", apperror.ErrConflict)
		}
		// Same identity retrying: fall through and re-issue the code.
	case errors.Is(err, gorm.ErrRecordNotFound):
		if _, err := s.repo.FindByEmail(ctx, email); err == nil {
			return fmt.Errorf("email already registered: %w", apperror.ErrConflict)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		user = &entity.User{
			Username: username,
			Email:    email,
			Role:     entity.RoleUser,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			// A concurrent signup for the same username or email lost
			// the race to the unique index.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("username or email already registered: %w", apperror.ErrConflict)
			}
			return err
		}
	default:
		return err
	}

	allowed, err := CheckAndSetRateLimit(ctx, s.redisClient, user.ID, "signup", s.signupCooldown)
	if err != nil {
		return fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !allowed {
		// A code went out within the cooldown window and is still valid;
		// the retry succeeds without another email.
		return nil
	}

	code, err := s.codes.Issue(ctx, user.ID)
	if err != nil {
		_ = ClearRateLimit(ctx, s.redisClient, user.ID, "signup")
		return err
	}

	if err := s.mailer.SendConfirmationCode(ctx, user.Email, user.Username, code); err != nil {
		_ = ClearRateLimit(ctx, s.redisClient, user.ID, "signup")
		return err
	}

	return nil
}

func (s *authService) Token(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	username := strings.ToLower(req.Username)

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s not found: %w", username, apperror.ErrNotFound)
		}
		return nil, err
	}

	ok, err := s.codes.Verify(ctx, user.ID, req.ConfirmationCode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("invalid confirmation code: %w", apperror.ErrConflict)
	}

	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: expiresAt,
	}, nil
}

func (s *authService) generateToken(user *entity.User) (string, int64, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}
