package bolt

import (
	"context"
	"encoding/json"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/taskdeck/taskdeck/domain"
	boltInfra "github.com/taskdeck/taskdeck/internal/infrastructure/bolt"
	"github.com/taskdeck/taskdeck/repository"
)

type sessionRepository struct {
	db  *bbolt.DB
	ttl time.Duration
}

// NewSessionRepository creates a Bolt-backed session repository. Expired
// sessions are removed lazily when read.
func NewSessionRepository(db *bbolt.DB, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionRepository{db: db, ttl: ttl}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var session domain.Session
	err := r.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(boltInfra.BucketSessions).Get([]byte(id))
		if raw == nil {
			return domain.ErrSessionNotFound
		}
		return json.Unmarshal(raw, &session)
	})
	if err != nil {
		return nil, err
	}

	if session.IsExpired(time.Now()) {
		_ = r.Delete(ctx, id)
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if session == nil || session.ID == "" {
		return domain.NewError(domain.ErrCodeInvalid, "session id must not be empty")
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.ExpiresAt.Before(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltInfra.BucketSessions).Put([]byte(session.ID), payload)
	})
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltInfra.BucketSessions).Delete([]byte(id))
	})
}
