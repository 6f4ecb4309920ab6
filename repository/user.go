package repository

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

// UserRepository persists users. Emails are unique; violations surface as
// domain.ErrEmailTaken.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	UpdateProfile(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, userID, digest string) error
	UpdateRole(ctx context.Context, userID string, role domain.Role) error
}
