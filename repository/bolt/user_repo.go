package bolt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/taskdeck/taskdeck/domain"
	boltInfra "github.com/taskdeck/taskdeck/internal/infrastructure/bolt"
	"github.com/taskdeck/taskdeck/repository"
)

// storedUser is the persistence form of domain.User. The domain type keeps
// the password hash out of JSON on purpose, so the repository carries it
// through its own record.
type storedUser struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type userRepository struct {
	db *bbolt.DB
}

// NewUserRepository instantiates a Bolt-backed user repository.
func NewUserRepository(db *bbolt.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Users are stored under their id; a secondary "email:<lowercased>" key maps
// the address to the id so email uniqueness checks stay a single lookup.
func emailKey(email string) []byte {
	return []byte("email:" + strings.ToLower(strings.TrimSpace(email)))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *domain.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(boltInfra.BucketUsers).Get([]byte(id))
		if raw == nil {
			return domain.ErrUserNotFound
		}
		var stored storedUser
		if err := json.Unmarshal(raw, &stored); err != nil {
			return domain.WrapError(domain.ErrCodeCorrupt, "stored user is not valid", err)
		}
		user = stored.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *domain.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltInfra.BucketUsers)
		id := bucket.Get(emailKey(email))
		if id == nil {
			return domain.ErrUserNotFound
		}
		raw := bucket.Get(id)
		if raw == nil {
			return domain.ErrUserNotFound
		}
		var stored storedUser
		if err := json.Unmarshal(raw, &stored); err != nil {
			return domain.WrapError(domain.ErrCodeCorrupt, "stored user is not valid", err)
		}
		user = stored.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil || user.ID == "" {
		return domain.NewError(domain.ErrCodeInvalid, "user id must not be empty")
	}

	stored := storedUser{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltInfra.BucketUsers)
		if bucket.Get(emailKey(user.Email)) != nil {
			return domain.ErrEmailTaken
		}
		if err := bucket.Put([]byte(user.ID), payload); err != nil {
			return err
		}
		return bucket.Put(emailKey(user.Email), []byte(user.ID))
	})
}

func (s storedUser) toDomain() *domain.User {
	return &domain.User{
		ID:           s.ID,
		Name:         s.Name,
		Email:        s.Email,
		PasswordHash: s.PasswordHash,
		CreatedAt:    s.CreatedAt,
	}
}
