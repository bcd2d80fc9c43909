package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/titlereview/internal/dto"
	"anoa.com/titlereview/internal/entity"
	"anoa.com/titlereview/pkg/apperror"
	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	existing, ok := r.users[user.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, u := range r.users {
		if u.ID != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	*existing = *user
	return nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context, search string, offset, limit int) ([]*entity.User, int64, error) {
	var users []*entity.User
	for _, u := range r.users {
		copied := *u
		users = append(users, &copied)
	}
	return users, int64(len(users)), nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

type fakeCodeStore struct {
	codes map[uuid.UUID]string
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{codes: make(map[uuid.UUID]string)}
}

func (s *fakeCodeStore) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	code := "code-" + userID.String()
	s.codes[userID] = code
	return code, nil
}

func (s *fakeCodeStore) Verify(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	return s.codes[userID] == code, nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) SendConfirmationCode(ctx context.Context, email, username, code string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, code)
	return nil
}

func newAuthFixture() (AuthService, *fakeUserRepo, *fakeCodeStore, *fakeMailer) {
	repo := newFakeUserRepo()
	codes := newFakeCodeStore()
	mailer := &fakeMailer{}
	svc := NewAuthService(repo, codes, mailer, nil, "test-secret", time.Hour, 30*time.Second)
	return svc, repo, codes, mailer
}

func newAuthFixtureWithRedis(t *testing.T) (AuthService, *fakeMailer, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := newFakeUserRepo()
	codes := newFakeCodeStore()
	mailer := &fakeMailer{}
	svc := NewAuthService(repo, codes, mailer, client, "test-secret", time.Hour, 30*time.Second)
	return svc, mailer, mr
}

func TestSignupCreatesUserAndSendsCode(t *testing.T) {
	svc, repo, _, mailer := newAuthFixture()

	err := svc.Signup(context.Background(), dto.SignupRequest{
		Username: "Alice",
		Email:    "Alice@Example.com",
	})
	require.NoError(t, err)

	user, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, entity.RoleUser, user.Role)
	assert.Len(t, mailer.sent, 1)
}

func TestSignupRetrySameIdentityReissuesCode(t *testing.T) {
	svc, _, _, mailer := newAuthFixture()
	ctx := context.Background()

	req := dto.SignupRequest{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, svc.Signup(ctx, req))
	require.NoError(t, svc.Signup(ctx, req))

	assert.Len(t, mailer.sent, 2)
}

func TestSignupRetryWithinCooldownSucceedsWithoutResend(t *testing.T) {
	svc, mailer, _ := newAuthFixtureWithRedis(t)
	ctx := context.Background()

	req := dto.SignupRequest{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, svc.Signup(ctx, req))
	require.Len(t, mailer.sent, 1)

	// The code from the first signup is still valid; the retry succeeds
	// without dispatching another email.
	require.NoError(t, svc.Signup(ctx, req))
	assert.Len(t, mailer.sent, 1)
}

func TestSignupResendsAfterCooldownExpires(t *testing.T) {
	svc, mailer, mr := newAuthFixtureWithRedis(t)
	ctx := context.Background()

	req := dto.SignupRequest{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, svc.Signup(ctx, req))

	mr.FastForward(31 * time.Second)

	require.NoError(t, svc.Signup(ctx, req))
	assert.Len(t, mailer.sent, 2)
}

func TestSignupFailedSendReleasesCooldown(t *testing.T) {
	svc, mailer, _ := newAuthFixtureWithRedis(t)
	ctx := context.Background()

	req := dto.SignupRequest{Username: "alice", Email: "alice@example.com"}

	mailer.err = errors.New("smtp unreachable")
	require.Error(t, svc.Signup(ctx, req))
	assert.Empty(t, mailer.sent)

	// The failed dispatch must not leave the cooldown set, or the user
	// would be stuck with no code until it expires.
	mailer.err = nil
	require.NoError(t, svc.Signup(ctx, req))
	assert.Len(t, mailer.sent, 1)
}

func TestSignupUsernameTakenByOtherEmail(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, dto.SignupRequest{Username: "alice", Email: "alice@example.com"}))

	err := svc.Signup(ctx, dto.SignupRequest{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestSignupEmailTakenByOtherUsername(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, dto.SignupRequest{Username: "alice", Email: "alice@example.com"}))

	err := svc.Signup(ctx, dto.SignupRequest{Username: "bob", Email: "alice@example.com"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestTokenUnknownUser(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	_, err := svc.Token(context.Background(), dto.TokenRequest{
		Username:         "nobody",
		ConfirmationCode: "whatever",
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTokenInvalidCode(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, dto.SignupRequest{Username: "alice", Email: "alice@example.com"}))

	_, err := svc.Token(ctx, dto.TokenRequest{Username: "alice", ConfirmationCode: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestTokenIssuesSignedJWT(t *testing.T) {
	svc, repo, codes, _ := newAuthFixture()
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, dto.SignupRequest{Username: "alice", Email: "alice@example.com"}))

	user, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)

	resp, err := svc.Token(ctx, dto.TokenRequest{
		Username:         "alice",
		ConfirmationCode: codes.codes[user.ID],
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Greater(t, resp.ExpiresIn, time.Now().Unix())

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(resp.Token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, user.ID.String(), claims.Subject)
}

func TestTokenIsRepeatableUntilReissued(t *testing.T) {
	svc, repo, codes, _ := newAuthFixture()
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, dto.SignupRequest{Username: "alice", Email: "alice@example.com"}))

	user, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)

	req := dto.TokenRequest{Username: "alice", ConfirmationCode: codes.codes[user.ID]}
	_, err = svc.Token(ctx, req)
	require.NoError(t, err)
	_, err = svc.Token(ctx, req)
	assert.NoError(t, err)
}
