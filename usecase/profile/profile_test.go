package profile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/infrastructure/security"
	"github.com/fastygo/taskboard/repository"
	boltRepo "github.com/fastygo/taskboard/repository/bolt"
	"github.com/fastygo/taskboard/usecase"
)

func newUseCase(t *testing.T) (*UseCase, repository.UserRepository, *security.BcryptHasher) {
	t.Helper()
	store, err := boltRepo.Open(filepath.Join(t.TempDir(), "profile.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	clock := usecase.ClockFunc(func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) })
	users := boltRepo.NewUserRepository(store)
	return New(users, hasher, clock, nil), users, hasher
}

func addUser(t *testing.T, users repository.UserRepository, hasher *security.BcryptHasher, id, email string) *domain.User {
	t.Helper()
	digest, err := hasher.Hash("secret1")
	require.NoError(t, err)
	u := &domain.User{ID: id, Name: "User " + id, Email: email, PasswordDigest: digest, Role: domain.RoleUser}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestUpdateProfile(t *testing.T) {
	uc, users, hasher := newUseCase(t)
	ctx := context.Background()
	alice := addUser(t, users, hasher, "u1", "alice@example.com")
	addUser(t, users, hasher, "u2", "bob@example.com")

	_, err := uc.UpdateProfile(ctx, alice, Input{Name: "Alice", Email: "BOB@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.Equal(t, "alice@example.com", alice.Email, "a failed update leaves the actor unchanged")

	_, err = uc.UpdateProfile(ctx, alice, Input{Name: "A", Email: "bad"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	updated, err := uc.UpdateProfile(ctx, alice, Input{Name: " Alice Cooper ", Email: "Alice@New.example"})
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", updated.Name)
	assert.Equal(t, "alice@new.example", updated.Email)

	stored, err := uc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@new.example", stored.Email)
	assert.Equal(t, domain.RoleUser, stored.Role)
}

func TestChangePassword(t *testing.T) {
	uc, users, hasher := newUseCase(t)
	ctx := context.Background()
	alice := addUser(t, users, hasher, "u1", "alice@example.com")

	err := uc.ChangePassword(ctx, alice, "wrong", "newsecret")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	err = uc.ChangePassword(ctx, alice, "secret1", "123")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	require.NoError(t, uc.ChangePassword(ctx, alice, "secret1", "newsecret"))

	stored, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, hasher.Verify("newsecret", stored.PasswordDigest))
	assert.False(t, hasher.Verify("secret1", stored.PasswordDigest))
}

func TestAssignRole(t *testing.T) {
	uc, users, hasher := newUseCase(t)
	ctx := context.Background()
	addUser(t, users, hasher, "u1", "alice@example.com")

	promoted, err := uc.AssignRole(ctx, "ALICE@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)

	stored, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin())

	_, err = uc.AssignRole(ctx, "alice@example.com", domain.Role("owner"))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.AssignRole(ctx, "nobody@example.com", domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	admin, created, err := uc.EnsureAdmin(ctx, "Root", "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	again, created, err := uc.EnsureAdmin(ctx, "Root", "ROOT@example.com", "other-pass")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)

	_, _, err = uc.EnsureAdmin(ctx, "Root", "new@example.com", "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}
