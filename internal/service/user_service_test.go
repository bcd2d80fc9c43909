package service

import (
	"context"
	"testing"

	"anoa.com/titlereview/internal/dto"
	"anoa.com/titlereview/internal/entity"
	"anoa.com/titlereview/internal/policy"
	"anoa.com/titlereview/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userFixture(t *testing.T) (UserService, *fakeUserRepo, policy.Actor) {
	t.Helper()
	repo := newFakeUserRepo()
	svc := NewUserService(repo)

	admin := &entity.User{Username: "root", Email: "root@example.com", Role: entity.RoleAdmin}
	require.NoError(t, repo.Create(context.Background(), admin))

	actor := policy.Actor{ID: admin.ID, Role: entity.RoleAdmin, Authenticated: true}
	return svc, repo, actor
}

func TestUserAdminSurfaceRequiresAdmin(t *testing.T) {
	svc, _, _ := userFixture(t)
	ctx := context.Background()

	_, err := svc.List(ctx, policy.Actor{}, dto.SearchFilter{})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.List(ctx, authedActor(entity.RoleModerator), dto.SearchFilter{})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestUserCreateDefaultsRole(t *testing.T) {
	svc, _, admin := userFixture(t)

	user, err := svc.Create(context.Background(), admin, dto.CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, user.Role)
}

func TestUserCreateDuplicateConflicts(t *testing.T) {
	svc, _, admin := userFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, dto.CreateUserRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin, dto.CreateUserRequest{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestUserGetUnknownIsNotFound(t *testing.T) {
	svc, _, admin := userFixture(t)

	_, err := svc.GetByUsername(context.Background(), admin, "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserAdminUpdateChangesRole(t *testing.T) {
	svc, _, admin := userFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, dto.CreateUserRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	role := entity.RoleModerator
	updated, err := svc.Update(ctx, admin, "alice", dto.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleModerator, updated.Role)
}

func TestProfileUpdateIgnoresRole(t *testing.T) {
	svc, repo, _ := userFixture(t)
	ctx := context.Background()

	user := &entity.User{Username: "alice", Email: "alice@example.com", Role: entity.RoleUser}
	require.NoError(t, repo.Create(ctx, user))

	actor := policy.Actor{ID: user.ID, Role: entity.RoleUser, Authenticated: true}
	role := entity.RoleAdmin
	bio := "hello"
	updated, err := svc.UpdateProfile(ctx, actor, dto.UpdateProfileRequest{Bio: &bio, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Bio)
	assert.Equal(t, entity.RoleUser, updated.Role)
}

func TestProfileUpdateChangesUsernameAndEmail(t *testing.T) {
	svc, repo, _ := userFixture(t)
	ctx := context.Background()

	user := &entity.User{Username: "alice", Email: "alice@example.com", Role: entity.RoleUser}
	require.NoError(t, repo.Create(ctx, user))

	actor := policy.Actor{ID: user.ID, Role: entity.RoleUser, Authenticated: true}
	username := "Alicia"
	email := "Alicia@Example.com"
	updated, err := svc.UpdateProfile(ctx, actor, dto.UpdateProfileRequest{Username: &username, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "alicia@example.com", updated.Email)
}

func TestProfileUpdateTakenUsernameConflicts(t *testing.T) {
	svc, repo, _ := userFixture(t)
	ctx := context.Background()

	user := &entity.User{Username: "alice", Email: "alice@example.com", Role: entity.RoleUser}
	require.NoError(t, repo.Create(ctx, user))

	actor := policy.Actor{ID: user.ID, Role: entity.RoleUser, Authenticated: true}
	taken := "root"
	_, err := svc.UpdateProfile(ctx, actor, dto.UpdateProfileRequest{Username: &taken})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestProfileRequiresAuth(t *testing.T) {
	svc, _, _ := userFixture(t)

	_, err := svc.GetProfile(context.Background(), policy.Actor{})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
