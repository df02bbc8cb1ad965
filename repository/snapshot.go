package repository

import (
	"context"

	"github.com/taskdeck/taskdeck/domain"
)

// SnapshotRepository persists one full task collection per user.
//
// Save always writes the whole collection; there are no delta writes. Load
// returns domain.ErrSnapshotCorrupt (wrapped) when the stored bytes cannot
// be decoded, so callers can degrade to an empty collection.
type SnapshotRepository interface {
	Load(ctx context.Context, userID string) ([]domain.Task, error)
	Save(ctx context.Context, userID string, tasks []domain.Task) error
	Delete(ctx context.Context, userID string) error
}
