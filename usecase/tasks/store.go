package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck/domain"
	"github.com/taskdeck/taskdeck/repository"
	"github.com/taskdeck/taskdeck/usecase"
)

// Store owns the in-memory task collection for the active user and writes
// the full collection back to the snapshot repository after every mutation.
//
// All operations are serialized through one mutex: callers are expected to
// be a single presentation layer, but the background sweeper runs the
// recurrence pass from its own goroutine.
type Store struct {
	snapshots repository.SnapshotRepository
	notifier  usecase.Notifier
	logger    *zap.Logger
	clock     Clock
	newID     func() string

	mu     sync.Mutex
	userID string
	tasks  []domain.Task
}

// NewStore builds a task store. notifier, logger and clock may be nil.
func NewStore(snapshots repository.SnapshotRepository, notifier usecase.Notifier, logger *zap.Logger, clock Clock) *Store {
	if notifier == nil {
		notifier = usecase.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Store{
		snapshots: snapshots,
		notifier:  notifier,
		logger:    logger,
		clock:     clock,
		newID:     uuid.NewString,
	}
}

// AddInput carries the caller-supplied fields for a new task.
type AddInput struct {
	Title          string
	Description    string
	Category       string
	Important      bool
	DueDate        *time.Time
	Repetition     domain.Repetition
	RepeatInterval int
}

// Load replaces the in-memory collection with the persisted snapshot for
// userID. An absent snapshot yields an empty collection; a corrupt one is
// logged and likewise treated as empty, never as a fatal error. An empty
// userID clears the store. Loading ends with a recurrence pass so tasks
// that went overdue while the user was away regenerate immediately.
func (s *Store) Load(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == "" {
		s.userID = ""
		s.tasks = nil
		return nil
	}

	loaded, err := s.snapshots.Load(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load task snapshot, starting empty",
			zap.String("user_id", userID), zap.Error(err))
		loaded = []domain.Task{}
	}

	s.userID = userID
	s.tasks = loaded
	s.logger.Info("tasks loaded", zap.String("user_id", userID), zap.Int("count", len(loaded)))

	return s.resolveLocked(ctx, false)
}

// Clear drops the collection and active user, for when identity becomes none.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.tasks = nil
}

// Add constructs a new task from input, appends it and persists.
func (s *Store) Add(ctx context.Context, input AddInput) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return domain.Task{}, domain.ErrNoActiveUser
	}
	if err := domain.ValidateTitle(input.Title); err != nil {
		return domain.Task{}, err
	}
	repetition := input.Repetition
	if repetition == "" {
		repetition = domain.RepetitionNone
	}
	if !repetition.IsValid() {
		return domain.Task{}, domain.ErrInvalidRepetition
	}
	interval := 0
	if repetition == domain.RepetitionCustom {
		if input.RepeatInterval < 1 {
			return domain.Task{}, domain.ErrInvalidRepeatInterval
		}
		interval = input.RepeatInterval
	}
	category := input.Category
	if category == "" {
		category = domain.CategoryOther
	}

	task := domain.Task{
		ID:             s.newID(),
		Title:          input.Title,
		Description:    input.Description,
		Category:       category,
		Important:      input.Important,
		CreatedAt:      s.clock.Now(),
		DueDate:        input.DueDate,
		Repetition:     repetition,
		RepeatInterval: interval,
	}
	s.tasks = append(s.tasks, task)

	err := s.persistLocked(ctx)
	s.notifier.Notify(usecase.EventTaskAdded, "Task added",
		fmt.Sprintf("%q has been added to your tasks.", task.Title))
	s.logger.Info("task added", zap.String("user_id", s.userID), zap.String("task_id", task.ID))
	return task, err
}

// Delete removes the task with the given id. Unknown ids are a silent no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return domain.ErrNoActiveUser
	}
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil
	}
	removed := s.tasks[idx]
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)

	err := s.persistLocked(ctx)
	s.notifier.Notify(usecase.EventTaskDeleted, "Task deleted",
		fmt.Sprintf("%q has been removed.", removed.Title))
	s.logger.Info("task deleted", zap.String("user_id", s.userID), zap.String("task_id", removed.ID))
	return err
}

// ToggleComplete flips the completion flag. Completing records the moment as
// LastCompleted and immediately runs the recurrence pass; un-completing
// clears LastCompleted. Unknown ids are a silent no-op.
func (s *Store) ToggleComplete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return domain.ErrNoActiveUser
	}
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil
	}

	task := &s.tasks[idx]
	task.Completed = !task.Completed
	if task.Completed {
		now := s.clock.Now()
		task.LastCompleted = &now
	} else {
		task.LastCompleted = nil
	}

	return s.resolveLocked(ctx, true)
}

// ToggleImportant flips the importance flag. Unknown ids are a silent no-op.
func (s *Store) ToggleImportant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return domain.ErrNoActiveUser
	}
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil
	}
	s.tasks[idx].Important = !s.tasks[idx].Important
	return s.persistLocked(ctx)
}

// DeleteCategory reassigns every task carrying the given user-defined label
// to the built-in "other" category. The five built-in labels are reserved
// and rejected.
func (s *Store) DeleteCategory(ctx context.Context, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return domain.ErrNoActiveUser
	}
	if domain.IsBuiltinCategory(label) {
		return domain.ErrReservedCategory
	}

	changed := false
	for i := range s.tasks {
		if s.tasks[i].Category == label {
			s.tasks[i].Category = domain.CategoryOther
			changed = true
		}
	}
	if !changed {
		return nil
	}
	s.logger.Info("category deleted", zap.String("user_id", s.userID), zap.String("category", label))
	return s.persistLocked(ctx)
}

// Filtered returns the tasks matching both predicates, in insertion order.
// category "all" (or empty) disables the category match; showCompleted false
// excludes completed tasks.
func (s *Store) Filtered(category string, showCompleted bool) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !showCompleted && t.Completed {
			continue
		}
		if category != "" && category != domain.CategoryAll && t.Category != category {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Tasks returns a copy of the full collection in insertion order.
func (s *Store) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Task(nil), s.tasks...)
}

// CustomCategories returns the distinct non-built-in labels in use, in
// first-seen order.
func (s *Store) CustomCategories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	var out []string
	for _, t := range s.tasks {
		if t.Category == "" || domain.IsBuiltinCategory(t.Category) || seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		out = append(out, t.Category)
	}
	return out
}

// ResolveRecurrences runs the recurrence pass on demand, persisting and
// notifying when it spawned successors. The background sweeper calls this at
// day boundaries; with no active user it is a no-op.
func (s *Store) ResolveRecurrences(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return nil
	}
	return s.resolveLocked(ctx, false)
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// resolveLocked applies the recurrence pass as one atomic collection
// replacement, then persists once and emits a single summary notification.
// forcePersist saves even when the pass spawned nothing, for mutations that
// must reach the snapshot regardless.
func (s *Store) resolveLocked(ctx context.Context, forcePersist bool) error {
	res := resolveRecurrences(s.tasks, s.clock.Now(), s.newID)
	s.tasks = res.tasks

	var err error
	if forcePersist || res.changed() {
		err = s.persistLocked(ctx)
	}
	if !res.changed() {
		return err
	}

	if len(res.spawned) == 1 {
		s.notifier.Notify(usecase.EventRecurringCreated, "Recurring task created",
			fmt.Sprintf("%q is due again.", res.spawned[0].Title))
	} else {
		s.notifier.Notify(usecase.EventRecurringCreated, "Recurring tasks created",
			fmt.Sprintf("%d recurring tasks have been created.", len(res.spawned)))
	}
	s.logger.Info("recurring tasks regenerated",
		zap.String("user_id", s.userID), zap.Int("count", len(res.spawned)))
	return err
}

// persistLocked writes the full collection. A failed save keeps the
// in-memory mutation; the error is logged and handed back to the caller.
func (s *Store) persistLocked(ctx context.Context) error {
	if err := s.snapshots.Save(ctx, s.userID, s.tasks); err != nil {
		s.logger.Error("failed to persist task snapshot",
			zap.String("user_id", s.userID), zap.Error(err))
		return domain.WrapError(domain.ErrCodeInternal, "failed to persist tasks", err)
	}
	return nil
}
