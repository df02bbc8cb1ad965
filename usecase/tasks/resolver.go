package tasks

import (
	"time"

	"github.com/taskdeck/taskdeck/domain"
)

// resolution is the outcome of one recurrence pass over a collection.
type resolution struct {
	tasks   []domain.Task
	spawned []domain.Task
}

func (r resolution) changed() bool { return len(r.spawned) > 0 }

// resolveRecurrences walks the collection and replaces every completed
// repeating task whose next occurrence is due with a fresh incomplete
// successor. Candidates are tasks with a repetition other than none, marked
// completed, and carrying a last-completion timestamp; a candidate fires
// when its next occurrence falls on today's local calendar day or earlier.
//
// The successor copies the candidate, with a new id, Completed false,
// CreatedAt now, DueDate set to the computed occurrence, and LastCompleted
// cleared — which also removes it from the candidate set, making the pass
// idempotent. A candidate overdue by several cycles still produces exactly
// one successor at the single computed occurrence; missed cycles are not
// backfilled.
//
// The input slice is never mutated; the returned collection keeps surviving
// tasks in their original relative order with successors appended.
func resolveRecurrences(collection []domain.Task, now time.Time, newID func() string) resolution {
	today := startOfDay(now)

	kept := make([]domain.Task, 0, len(collection))
	var spawned []domain.Task
	for _, t := range collection {
		if !t.Completed || !t.Repeats() {
			kept = append(kept, t)
			continue
		}
		nextDue, ok := t.NextOccurrence()
		if !ok || startOfDay(nextDue).After(today) {
			kept = append(kept, t)
			continue
		}

		successor := t
		successor.ID = newID()
		successor.Completed = false
		successor.CreatedAt = now
		due := nextDue
		successor.DueDate = &due
		successor.LastCompleted = nil
		spawned = append(spawned, successor)
	}

	if len(spawned) == 0 {
		return resolution{tasks: collection}
	}
	return resolution{tasks: append(kept, spawned...), spawned: spawned}
}

// startOfDay strips the time of day in t's location.
func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
