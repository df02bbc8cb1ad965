package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/domain"
	"github.com/taskdeck/taskdeck/usecase/tasks"
)

func newAppForTests(t *testing.T) *App {
	t.Helper()
	t.Setenv("BOLTDB_PATH", filepath.Join(t.TempDir(), "taskdeck.db"))
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SWEEP_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")

	a, err := New(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestApp_StoreFollowsIdentity(t *testing.T) {
	a := newAppForTests(t)
	ctx := context.Background()

	// Nobody signed in yet: mutations are rejected.
	_, err := a.Store.Add(ctx, tasks.AddInput{Title: "Buy milk"})
	require.ErrorIs(t, err, domain.ErrNoActiveUser)

	_, _, err = a.Identity.Register(ctx, "Ada", "ada@example.com", "hunter22")
	require.NoError(t, err)

	added, err := a.Store.Add(ctx, tasks.AddInput{Title: "Buy milk", Category: domain.CategoryShopping})
	require.NoError(t, err)

	require.NoError(t, a.Identity.Logout(ctx))
	assert.Empty(t, a.Store.Tasks(), "logout clears the collection")

	_, _, err = a.Identity.Login(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)

	got := a.Store.Filtered(domain.CategoryShopping, true)
	require.Len(t, got, 1)
	assert.Equal(t, added.ID, got[0].ID, "login loads the persisted snapshot")
}

func TestApp_CollectionsAreScopedPerUser(t *testing.T) {
	a := newAppForTests(t)
	ctx := context.Background()

	_, _, err := a.Identity.Register(ctx, "Ada", "ada@example.com", "hunter22")
	require.NoError(t, err)
	_, err = a.Store.Add(ctx, tasks.AddInput{Title: "Ada's task"})
	require.NoError(t, err)
	require.NoError(t, a.Identity.Logout(ctx))

	_, _, err = a.Identity.Register(ctx, "Brin", "brin@example.com", "hunter22")
	require.NoError(t, err)
	assert.Empty(t, a.Store.Tasks(), "a new user starts with an empty collection")
}
