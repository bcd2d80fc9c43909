package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// CodeStore issues and verifies single-use confirmation codes bound to a
// user identity. One code is valid per identity at a time; issuing again
// invalidates the previous one.
type CodeStore interface {
	Issue(ctx context.Context, userID uuid.UUID) (string, error)
	Verify(ctx context.Context, userID uuid.UUID, code string) (bool, error)
}

type redisCodeStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCodeStore(client *redis.Client, ttl time.Duration) CodeStore {
	return &redisCodeStore{client: client, ttl: ttl}
}

func codeKey(userID uuid.UUID) string {
	return fmt.Sprintf("confirmation_code:user:%s", userID.String())
}

// Issue generates a fresh code and stores only its bcrypt hash, keyed on
// the identity, overwriting whatever code was there before.
func (s *redisCodeStore) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.client == nil {
		return "", errors.New("code store unavailable: redis is not configured")
	}

	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate confirmation code: %w", err)
	}
	code := hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash confirmation code: %w", err)
	}

	if err := s.client.Set(ctx, codeKey(userID), string(hash), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store confirmation code: %w", err)
	}

	return code, nil
}

// Verify reports whether the code matches the identity's current one.
// The code is not consumed: token exchange stays repeatable until the
// code is overwritten or expires.
func (s *redisCodeStore) Verify(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	if s.client == nil {
		return false, errors.New("code store unavailable: redis is not configured")
	}

	hash, err := s.client.Get(ctx, codeKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load confirmation code: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return false, nil
	}

	return true, nil
}
