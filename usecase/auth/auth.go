package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

// RegisterInput is a self-service sign-up request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	hasher   usecase.PasswordHasher
	clock    usecase.Clock
	logger   *zap.Logger

	decoyOnce   sync.Once
	decoyDigest string
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	hasher usecase.PasswordHasher,
	clock usecase.Clock,
	log *zap.Logger,
) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = usecase.SystemClock{}
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		clock:    clock,
		logger:   log,
	}
}

// Register creates a regular user. The role is never taken from input.
func (uc *UseCase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	problems := domain.ValidateProfile(in.Name, in.Email)
	problems = append(problems, domain.ValidatePassword(in.Password)...)
	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}

	digest, err := uc.hasher.Hash(in.Password)
	if err != nil {
		logger.WithRequestID(ctx, uc.logger).Error("password hashing failed", zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeInternal, "operation failed", err)
	}

	user := &domain.User{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(in.Name),
		Email:          domain.NormalizeEmail(in.Email),
		PasswordDigest: digest,
		Role:           domain.RoleUser,
		CreatedAt:      uc.clock.Now(),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeConflict) {
			return nil, err
		}
		logger.WithRequestID(ctx, uc.logger).Error("user registration failed", zap.Error(err))
		return nil, domain.NewStorageError(err)
	}

	logger.WithRequestID(ctx, uc.logger).Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Authenticate checks credentials. Unknown email and wrong password produce
// the same error.
func (uc *UseCase) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Unknown accounts still pay for a hash comparison.
			uc.hasher.Verify(password, uc.decoy())
			return nil, domain.ErrInvalidCredentials
		}
		logger.WithRequestID(ctx, uc.logger).Error("credential lookup failed", zap.Error(err))
		return nil, domain.NewStorageError(err)
	}
	if !uc.hasher.Verify(password, user.PasswordDigest) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and opens a session.
func (uc *UseCase) Login(ctx context.Context, email, password string, ttl time.Duration) (*domain.User, *domain.Session, error) {
	user, err := uc.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	session, err := uc.CreateSession(ctx, user.ID, ttl)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (uc *UseCase) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error) {
	if _, err := uc.CurrentUser(ctx, userID); err != nil {
		return nil, err
	}
	if uc.sessions == nil {
		return nil, domain.NewError(domain.ErrCodeInternal, "sessions are not configured")
	}

	now := uc.clock.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		logger.WithRequestID(ctx, uc.logger).Error("session save failed", zap.Error(err))
		return nil, domain.NewStorageError(err)
	}
	return session, nil
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if uc.sessions == nil {
		return nil, domain.ErrSessionNotFound
	}
	if sessionID == "" {
		return nil, domain.ErrSessionNotFound
	}
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, uc.sessionFailure(ctx, "get", err)
	}
	if session.IsExpired(uc.clock.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) (*domain.Session, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, sessionID, int(ttl.Seconds())); err != nil {
		return nil, uc.sessionFailure(ctx, "extend", err)
	}
	session.ExpiresAt = uc.clock.Now().Add(ttl)
	return session, nil
}

func (uc *UseCase) RevokeSession(ctx context.Context, sessionID string) error {
	if uc.sessions == nil || sessionID == "" {
		return nil
	}
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return uc.sessionFailure(ctx, "delete", err)
	}
	return nil
}

// CurrentUser loads the account behind an authenticated session.
func (uc *UseCase) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		logger.WithRequestID(ctx, uc.logger).Error("user lookup failed", zap.Error(err))
		return nil, domain.NewStorageError(err)
	}
	return user, nil
}

// decoy is a digest no password is expected to match, computed once with the
// configured hasher so its cost matches real digests.
func (uc *UseCase) decoy() string {
	uc.decoyOnce.Do(func() {
		digest, err := uc.hasher.Hash(uuid.NewString())
		if err != nil {
			uc.logger.Warn("decoy digest unavailable", zap.Error(err))
			return
		}
		uc.decoyDigest = digest
	})
	return uc.decoyDigest
}

func (uc *UseCase) sessionFailure(ctx context.Context, op string, err error) error {
	if dErr, ok := domain.AsDomainError(err); ok && dErr.Code != domain.ErrCodeInternal {
		return dErr
	}
	logger.WithRequestID(ctx, uc.logger).Error("session operation failed", zap.String("operation", op), zap.Error(err))
	return domain.NewStorageError(err)
}
