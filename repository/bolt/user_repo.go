package bolt

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

// userRecord keeps the digest, which domain.User hides from JSON.
type userRecord struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	PasswordDigest string      `json:"password_digest"`
	Role           domain.Role `json:"role"`
	CreatedAt      time.Time   `json:"created_at"`
}

func newUserRecord(u *domain.User) userRecord {
	return userRecord{
		ID:             u.ID,
		Name:           u.Name,
		Email:          domain.NormalizeEmail(u.Email),
		PasswordDigest: u.PasswordDigest,
		Role:           u.Role,
		CreatedAt:      u.CreatedAt,
	}
}

func (r userRecord) user() *domain.User {
	return &domain.User{
		ID:             r.ID,
		Name:           r.Name,
		Email:          r.Email,
		PasswordDigest: r.PasswordDigest,
		Role:           r.Role,
		CreatedAt:      r.CreatedAt,
	}
}

type userRepository struct {
	store *Store
}

// NewUserRepository returns a Bolt-backed UserRepository.
func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user *domain.User
	err := r.store.view(ctx, func(tx *bbolt.Tx) error {
		rec, err := loadUser(tx, id)
		if err != nil {
			return err
		}
		user = rec.user()
		return nil
	})
	return user, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := r.store.view(ctx, func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketUserEmails).Get([]byte(domain.NormalizeEmail(email)))
		if id == nil {
			return domain.ErrUserNotFound
		}
		rec, err := loadUser(tx, string(id))
		if err != nil {
			return err
		}
		user = rec.user()
		return nil
	})
	return user, err
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.store.view(ctx, func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketUsers).ForEach(func(_, v []byte) error {
			var rec userRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			users = append(users, *rec.user())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	rec := newUserRecord(user)

	return r.store.update(ctx, func(tx *bbolt.Tx) error {
		emails := tx.Bucket(bucketUserEmails)
		if emails.Get([]byte(rec.Email)) != nil {
			return domain.ErrEmailTaken
		}
		users := tx.Bucket(bucketUsers)
		if users.Get([]byte(rec.ID)) != nil {
			return domain.WrapError(domain.ErrCodeConflict, "duplicate record", nil)
		}
		if err := put(users, rec.ID, rec); err != nil {
			return err
		}
		return emails.Put([]byte(rec.Email), []byte(rec.ID))
	})
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	email := domain.NormalizeEmail(user.Email)

	return r.store.update(ctx, func(tx *bbolt.Tx) error {
		rec, err := loadUser(tx, user.ID)
		if err != nil {
			return err
		}
		emails := tx.Bucket(bucketUserEmails)
		if email != rec.Email {
			if owner := emails.Get([]byte(email)); owner != nil && string(owner) != rec.ID {
				return domain.ErrEmailTaken
			}
			if err := emails.Delete([]byte(rec.Email)); err != nil {
				return err
			}
			if err := emails.Put([]byte(email), []byte(rec.ID)); err != nil {
				return err
			}
		}
		rec.Name = user.Name
		rec.Email = email
		return put(tx.Bucket(bucketUsers), rec.ID, rec)
	})
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, digest string) error {
	return r.modify(ctx, userID, func(rec *userRecord) { rec.PasswordDigest = digest })
}

func (r *userRepository) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	return r.modify(ctx, userID, func(rec *userRecord) { rec.Role = role })
}

func (r *userRepository) modify(ctx context.Context, userID string, apply func(rec *userRecord)) error {
	return r.store.update(ctx, func(tx *bbolt.Tx) error {
		rec, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		apply(&rec)
		return put(tx.Bucket(bucketUsers), rec.ID, rec)
	})
}

func loadUser(tx *bbolt.Tx, id string) (userRecord, error) {
	var rec userRecord
	found, err := get(tx.Bucket(bucketUsers), id, &rec)
	if err != nil {
		return rec, err
	}
	if !found {
		return rec, domain.ErrUserNotFound
	}
	return rec, nil
}

func userExists(tx *bbolt.Tx, id string) bool {
	return id != "" && tx.Bucket(bucketUsers).Get([]byte(id)) != nil
}
