package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/domain"
	"github.com/taskdeck/taskdeck/usecase"
)

// memSnapshots is an in-memory SnapshotRepository double.
type memSnapshots struct {
	collections map[string][]domain.Task
	loadErr     error
	saveErr     error
	saves       int
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{collections: map[string][]domain.Task{}}
}

func (m *memSnapshots) Load(_ context.Context, userID string) ([]domain.Task, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]domain.Task(nil), m.collections[userID]...), nil
}

func (m *memSnapshots) Save(_ context.Context, userID string, tasks []domain.Task) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.collections[userID] = append([]domain.Task(nil), tasks...)
	return nil
}

func (m *memSnapshots) Delete(_ context.Context, userID string) error {
	delete(m.collections, userID)
	return nil
}

type capturedNote struct {
	event   usecase.Event
	title   string
	message string
}

type memNotifier struct {
	notes []capturedNote
}

func (n *memNotifier) Notify(event usecase.Event, title, message string) {
	n.notes = append(n.notes, capturedNote{event: event, title: title, message: message})
}

func newStoreForTests(t *testing.T) (*Store, *memSnapshots, *memNotifier, *FakeClock) {
	t.Helper()
	snapshots := newMemSnapshots()
	notifier := &memNotifier{}
	clock := NewFakeClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local))
	store := NewStore(snapshots, notifier, nil, clock)
	require.NoError(t, store.Load(context.Background(), "user-1"))
	return store, snapshots, notifier, clock
}

func TestStore_AddAndFilter(t *testing.T) {
	store, snapshots, notifier, _ := newStoreForTests(t)
	ctx := context.Background()

	task, err := store.Add(ctx, AddInput{Title: "Buy milk", Category: domain.CategoryShopping})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, domain.RepetitionNone, task.Repetition)

	got := store.Filtered(domain.CategoryShopping, true)
	require.Len(t, got, 1)
	assert.Equal(t, "Buy milk", got[0].Title)
	assert.False(t, got[0].Completed)

	assert.Len(t, snapshots.collections["user-1"], 1, "mutation persists the full collection")

	require.Len(t, notifier.notes, 1)
	assert.Equal(t, usecase.EventTaskAdded, notifier.notes[0].event)
	assert.Contains(t, notifier.notes[0].message, "Buy milk")
}

func TestStore_AddValidation(t *testing.T) {
	store, _, _, _ := newStoreForTests(t)
	ctx := context.Background()

	_, err := store.Add(ctx, AddInput{Title: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidTitle)

	_, err = store.Add(ctx, AddInput{Title: "Stretch", Repetition: domain.RepetitionCustom})
	assert.ErrorIs(t, err, domain.ErrInvalidRepeatInterval)

	_, err = store.Add(ctx, AddInput{Title: "Stretch", Repetition: "fortnightly"})
	assert.ErrorIs(t, err, domain.ErrInvalidRepetition)
}

func TestStore_MutationsRejectedWithoutActiveUser(t *testing.T) {
	store := NewStore(newMemSnapshots(), nil, nil, nil)
	ctx := context.Background()

	_, err := store.Add(ctx, AddInput{Title: "Buy milk"})
	assert.ErrorIs(t, err, domain.ErrNoActiveUser)
	assert.ErrorIs(t, store.Delete(ctx, "x"), domain.ErrNoActiveUser)
	assert.ErrorIs(t, store.ToggleComplete(ctx, "x"), domain.ErrNoActiveUser)
	assert.ErrorIs(t, store.ToggleImportant(ctx, "x"), domain.ErrNoActiveUser)
	assert.ErrorIs(t, store.DeleteCategory(ctx, "Groceries"), domain.ErrNoActiveUser)
}

func TestStore_ToggleCompleteRoundTrip(t *testing.T) {
	store, _, _, clock := newStoreForTests(t)
	ctx := context.Background()

	task, err := store.Add(ctx, AddInput{Title: "One-off", Category: domain.CategoryWork})
	require.NoError(t, err)

	require.NoError(t, store.ToggleComplete(ctx, task.ID))
	got := store.Tasks()[0]
	assert.True(t, got.Completed)
	require.NotNil(t, got.LastCompleted)
	assert.True(t, got.LastCompleted.Equal(clock.Now()))

	require.NoError(t, store.ToggleComplete(ctx, task.ID))
	got = store.Tasks()[0]
	assert.False(t, got.Completed)
	assert.Nil(t, got.LastCompleted)
}

func TestStore_UnknownIDsAreSilentNoOps(t *testing.T) {
	store, snapshots, notifier, _ := newStoreForTests(t)
	ctx := context.Background()

	savesBefore := snapshots.saves
	assert.NoError(t, store.Delete(ctx, "missing"))
	assert.NoError(t, store.ToggleComplete(ctx, "missing"))
	assert.NoError(t, store.ToggleImportant(ctx, "missing"))
	assert.Equal(t, savesBefore, snapshots.saves, "no-ops do not persist")
	assert.Empty(t, notifier.notes)
}

func TestStore_DeleteNotifiesOnlyOnRemoval(t *testing.T) {
	store, _, notifier, _ := newStoreForTests(t)
	ctx := context.Background()

	task, err := store.Add(ctx, AddInput{Title: "Trash day"})
	require.NoError(t, err)
	notifier.notes = nil

	require.NoError(t, store.Delete(ctx, task.ID))
	assert.Empty(t, store.Tasks())
	require.Len(t, notifier.notes, 1)
	assert.Equal(t, usecase.EventTaskDeleted, notifier.notes[0].event)
	assert.Contains(t, notifier.notes[0].message, "Trash day")
}

func TestStore_ToggleImportant(t *testing.T) {
	store, _, _, _ := newStoreForTests(t)
	ctx := context.Background()

	task, err := store.Add(ctx, AddInput{Title: "Pay rent"})
	require.NoError(t, err)

	require.NoError(t, store.ToggleImportant(ctx, task.ID))
	assert.True(t, store.Tasks()[0].Important)
	require.NoError(t, store.ToggleImportant(ctx, task.ID))
	assert.False(t, store.Tasks()[0].Important)
}

func TestStore_DeleteCategory(t *testing.T) {
	store, _, _, _ := newStoreForTests(t)
	ctx := context.Background()

	_, err := store.Add(ctx, AddInput{Title: "Milk", Category: "Groceries"})
	require.NoError(t, err)
	_, err = store.Add(ctx, AddInput{Title: "Eggs", Category: "Groceries"})
	require.NoError(t, err)
	_, err = store.Add(ctx, AddInput{Title: "Report", Category: domain.CategoryWork})
	require.NoError(t, err)

	require.NoError(t, store.DeleteCategory(ctx, "Groceries"))

	for _, task := range store.Tasks() {
		assert.NotEqual(t, "Groceries", task.Category)
	}
	assert.Len(t, store.Filtered(domain.CategoryOther, true), 2)
	assert.Len(t, store.Filtered(domain.CategoryWork, true), 1)
}

func TestStore_DeleteCategoryRejectsBuiltins(t *testing.T) {
	store, _, _, _ := newStoreForTests(t)
	err := store.DeleteCategory(context.Background(), domain.CategoryShopping)
	assert.ErrorIs(t, err, domain.ErrReservedCategory)
}

func TestStore_FilteredHonorsShowCompleted(t *testing.T) {
	store, _, _, _ := newStoreForTests(t)
	ctx := context.Background()

	first, err := store.Add(ctx, AddInput{Title: "Done already", Category: domain.CategoryHealth})
	require.NoError(t, err)
	_, err = store.Add(ctx, AddInput{Title: "Still open", Category: domain.CategoryHealth})
	require.NoError(t, err)
	require.NoError(t, store.ToggleComplete(ctx, first.ID))

	all := store.Filtered(domain.CategoryAll, true)
	assert.Len(t, all, 2)

	open := store.Filtered(domain.CategoryAll, false)
	require.Len(t, open, 1)
	assert.Equal(t, "Still open", open[0].Title)
}

func TestStore_CustomCategoriesFirstSeenOrder(t *testing.T) {
	store, _, _, _ := newStoreForTests(t)
	ctx := context.Background()

	for _, c := range []string{"Garden", domain.CategoryWork, "Garage", "Garden"} {
		_, err := store.Add(ctx, AddInput{Title: "T", Category: c})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"Garden", "Garage"}, store.CustomCategories())
}

func TestStore_LoadTreatsCorruptSnapshotAsEmpty(t *testing.T) {
	snapshots := newMemSnapshots()
	snapshots.loadErr = domain.ErrSnapshotCorrupt
	store := NewStore(snapshots, nil, nil, nil)

	require.NoError(t, store.Load(context.Background(), "user-1"))
	assert.Empty(t, store.Tasks())

	// The store must still accept mutations afterwards.
	snapshots.loadErr = nil
	_, err := store.Add(context.Background(), AddInput{Title: "Fresh start"})
	assert.NoError(t, err)
}

func TestStore_LoadEmptyUserClears(t *testing.T) {
	store, _, _, _ := newStoreForTests(t)
	ctx := context.Background()

	_, err := store.Add(ctx, AddInput{Title: "Mine"})
	require.NoError(t, err)

	require.NoError(t, store.Load(ctx, ""))
	assert.Empty(t, store.Tasks())
	_, err = store.Add(ctx, AddInput{Title: "Nobody's"})
	assert.ErrorIs(t, err, domain.ErrNoActiveUser)
}

func TestStore_CompletingOverdueRepeatingTaskSpawnsSuccessor(t *testing.T) {
	store, snapshots, notifier, clock := newStoreForTests(t)
	ctx := context.Background()

	task, err := store.Add(ctx, AddInput{Title: "Water plants", Repetition: domain.RepetitionDaily})
	require.NoError(t, err)

	require.NoError(t, store.ToggleComplete(ctx, task.ID))
	require.True(t, store.Tasks()[0].Completed, "not due yet, stays completed")

	notifier.notes = nil
	clock.Advance(24 * time.Hour)
	require.NoError(t, store.ResolveRecurrences(ctx))

	collection := store.Tasks()
	require.Len(t, collection, 1)
	succ := collection[0]
	assert.NotEqual(t, task.ID, succ.ID)
	assert.False(t, succ.Completed)
	assert.Nil(t, succ.LastCompleted)
	require.NotNil(t, succ.DueDate)

	require.Len(t, notifier.notes, 1)
	assert.Equal(t, usecase.EventRecurringCreated, notifier.notes[0].event)
	assert.Contains(t, notifier.notes[0].message, "Water plants")

	assert.Equal(t, collection, snapshots.collections["user-1"], "regeneration persists once")

	// A second pass over the unchanged collection spawns nothing.
	notifier.notes = nil
	require.NoError(t, store.ResolveRecurrences(ctx))
	assert.Empty(t, notifier.notes)
	assert.Equal(t, collection, store.Tasks())
}

func TestStore_LoadRunsRecurrencePass(t *testing.T) {
	snapshots := newMemSnapshots()
	completed := time.Date(2024, 1, 1, 20, 0, 0, 0, time.Local)
	snapshots.collections["user-1"] = []domain.Task{{
		ID:            "old",
		Title:         "Weekly review",
		Completed:     true,
		Repetition:    domain.RepetitionWeekly,
		LastCompleted: &completed,
	}}

	notifier := &memNotifier{}
	clock := NewFakeClock(completed.AddDate(0, 0, 10))
	store := NewStore(snapshots, notifier, nil, clock)

	require.NoError(t, store.Load(context.Background(), "user-1"))

	collection := store.Tasks()
	require.Len(t, collection, 1)
	assert.NotEqual(t, "old", collection[0].ID)
	assert.False(t, collection[0].Completed)
	require.Len(t, notifier.notes, 1)
	assert.Equal(t, usecase.EventRecurringCreated, notifier.notes[0].event)
}

func TestStore_PluralRecurrenceNotification(t *testing.T) {
	snapshots := newMemSnapshots()
	completed := time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local)
	snapshots.collections["user-1"] = []domain.Task{
		{ID: "a", Title: "A", Completed: true, Repetition: domain.RepetitionDaily, LastCompleted: &completed},
		{ID: "b", Title: "B", Completed: true, Repetition: domain.RepetitionDaily, LastCompleted: &completed},
	}

	notifier := &memNotifier{}
	clock := NewFakeClock(completed.AddDate(0, 0, 2))
	store := NewStore(snapshots, notifier, nil, clock)
	require.NoError(t, store.Load(context.Background(), "user-1"))

	require.Len(t, notifier.notes, 1, "one summary notification for the whole pass")
	assert.Contains(t, notifier.notes[0].message, "2 recurring tasks")
}
