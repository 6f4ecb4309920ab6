package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

// Input holds the fields a user may change on their own profile.
type Input struct {
	Name  string
	Email string
}

type UseCase struct {
	users  repository.UserRepository
	hasher usecase.PasswordHasher
	clock  usecase.Clock
	logger *zap.Logger
}

func New(users repository.UserRepository, hasher usecase.PasswordHasher, clock usecase.Clock, log *zap.Logger) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = usecase.SystemClock{}
	}
	return &UseCase{
		users:  users,
		hasher: hasher,
		clock:  clock,
		logger: log,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, uc.classify(ctx, "get profile", err)
	}
	return user, nil
}

// UpdateProfile changes name and email. Role and password are untouched.
func (uc *UseCase) UpdateProfile(ctx context.Context, actor *domain.User, in Input) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if problems := domain.ValidateProfile(in.Name, in.Email); len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}

	updated := *actor
	updated.Name = strings.TrimSpace(in.Name)
	updated.Email = domain.NormalizeEmail(in.Email)

	if err := uc.users.UpdateProfile(ctx, &updated); err != nil {
		return nil, uc.classify(ctx, "update profile", err)
	}
	*actor = updated
	return actor, nil
}

// ChangePassword verifies the current password and stores a new digest.
func (uc *UseCase) ChangePassword(ctx context.Context, actor *domain.User, current, next string) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	if !uc.hasher.Verify(current, actor.PasswordDigest) {
		return domain.NewValidationError("current password is incorrect")
	}
	if problems := domain.ValidatePassword(next); len(problems) > 0 {
		return domain.NewValidationError(problems...)
	}

	digest, err := uc.hasher.Hash(next)
	if err != nil {
		return uc.classify(ctx, "hash password", err)
	}
	if err := uc.users.UpdatePassword(ctx, actor.ID, digest); err != nil {
		return uc.classify(ctx, "change password", err)
	}
	actor.PasswordDigest = digest
	logger.WithRequestID(ctx, uc.logger).Info("password changed", zap.String("user_id", actor.ID))
	return nil
}

// AssignRole is the privileged path for changing a role. It is reachable
// from operator tooling only, never from the user-facing API.
func (uc *UseCase) AssignRole(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.NewValidationError("unknown role")
	}
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, uc.classify(ctx, "lookup user", err)
	}
	if err := uc.users.UpdateRole(ctx, user.ID, role); err != nil {
		return nil, uc.classify(ctx, "assign role", err)
	}
	user.Role = role
	uc.logger.Info("role assigned", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// EnsureAdmin seeds an administrator when no account uses email yet. An
// existing account is returned as is.
func (uc *UseCase) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, bool, error) {
	existing, err := uc.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, uc.classify(ctx, "lookup admin", err)
	}

	problems := domain.ValidateProfile(name, email)
	problems = append(problems, domain.ValidatePassword(password)...)
	if len(problems) > 0 {
		return nil, false, domain.NewValidationError(problems...)
	}

	digest, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, false, uc.classify(ctx, "hash password", err)
	}
	admin := &domain.User{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(name),
		Email:          domain.NormalizeEmail(email),
		PasswordDigest: digest,
		Role:           domain.RoleAdmin,
		CreatedAt:      uc.clock.Now(),
	}
	if err := uc.users.Create(ctx, admin); err != nil {
		return nil, false, uc.classify(ctx, "create admin", err)
	}
	uc.logger.Info("administrator account created", zap.String("user_id", admin.ID))
	return admin, true, nil
}

func (uc *UseCase) classify(ctx context.Context, op string, err error) error {
	if dErr, ok := domain.AsDomainError(err); ok && dErr.Code != domain.ErrCodeInternal {
		return dErr
	}
	logger.WithRequestID(ctx, uc.logger).Error("profile operation failed", zap.String("operation", op), zap.Error(err))
	return domain.NewStorageError(err)
}
