package bolt

import (
	"context"
	"encoding/json"

	bbolt "go.etcd.io/bbolt"

	"github.com/taskdeck/taskdeck/domain"
	boltInfra "github.com/taskdeck/taskdeck/internal/infrastructure/bolt"
	"github.com/taskdeck/taskdeck/repository"
)

type snapshotRepository struct {
	db *bbolt.DB
}

// NewSnapshotRepository creates a Bolt-backed snapshot repository storing one
// JSON-encoded task collection per user id. Date fields ride on
// encoding/json's time.Time handling, so they are serialized as RFC 3339
// text and come back as real time values on load.
func NewSnapshotRepository(db *bbolt.DB) repository.SnapshotRepository {
	return &snapshotRepository{db: db}
}

// Load returns the persisted collection for userID, or an empty collection
// when none was ever saved. Undecodable bytes surface as a wrapped
// domain.ErrSnapshotCorrupt instead of a plain JSON error.
func (r *snapshotRepository) Load(ctx context.Context, userID string) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(boltInfra.BucketSnapshots).Get([]byte(userID)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []domain.Task{}, nil
	}

	var tasks []domain.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, domain.WrapError(domain.ErrCodeCorrupt, domain.ErrSnapshotCorrupt.Message, err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// Save writes the full collection for userID, replacing any previous snapshot.
func (r *snapshotRepository) Save(ctx context.Context, userID string, tasks []domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	payload, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltInfra.BucketSnapshots).Put([]byte(userID), payload)
	})
}

// Delete removes the snapshot for userID. Missing snapshots are not an error.
func (r *snapshotRepository) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltInfra.BucketSnapshots).Delete([]byte(userID))
	})
}
