package domain

import (
	"strings"
	"time"
)

// Repetition describes how often a task regenerates after completion.
type Repetition string

const (
	RepetitionNone    Repetition = "none"
	RepetitionDaily   Repetition = "daily"
	RepetitionWeekly  Repetition = "weekly"
	RepetitionMonthly Repetition = "monthly"
	RepetitionYearly  Repetition = "yearly"
	RepetitionCustom  Repetition = "custom"
)

// IsValid reports whether r is one of the known repetition values.
func (r Repetition) IsValid() bool {
	switch r {
	case RepetitionNone, RepetitionDaily, RepetitionWeekly,
		RepetitionMonthly, RepetitionYearly, RepetitionCustom:
		return true
	}
	return false
}

// Built-in category labels. Any other label is a user-defined category.
const (
	CategoryPersonal = "personal"
	CategoryWork     = "work"
	CategoryShopping = "shopping"
	CategoryHealth   = "health"
	CategoryOther    = "other"
)

// CategoryAll is the filter value that disables category matching.
// It is not a category a task can carry.
const CategoryAll = "all"

// IsBuiltinCategory reports whether label is one of the five reserved
// categories. Matching is exact; user labels are case-sensitive.
func IsBuiltinCategory(label string) bool {
	switch label {
	case CategoryPersonal, CategoryWork, CategoryShopping, CategoryHealth, CategoryOther:
		return true
	}
	return false
}

// Task represents a user-owned to-do item.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Important   bool       `json:"important"`
	Category    string     `json:"category"`
	CreatedAt   time.Time  `json:"created_at"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Repetition  Repetition `json:"repetition"`
	// RepeatInterval is the custom repetition period in days.
	// Meaningful only when Repetition is "custom"; zero means absent.
	RepeatInterval int        `json:"repeat_interval,omitempty"`
	LastCompleted  *time.Time `json:"last_completed,omitempty"`
}

// ValidateTitle checks the non-empty-after-trim precondition for task titles.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrInvalidTitle
	}
	return nil
}

// Repeats reports whether the task regenerates after completion.
func (t *Task) Repeats() bool {
	return t != nil && t.Repetition != "" && t.Repetition != RepetitionNone
}

// NextOccurrence computes when the next instance of a repeating task is due,
// counted from its last completion. The second return value is false when the
// task carries no usable schedule: repetition none, no completion recorded,
// or a custom repetition without a positive interval.
//
// Monthly and yearly steps use time.AddDate, so end-of-month overflow
// normalizes forward (Jan 31 + 1 month = Mar 2 or Mar 3).
func (t *Task) NextOccurrence() (time.Time, bool) {
	if !t.Repeats() || t.LastCompleted == nil {
		return time.Time{}, false
	}
	last := *t.LastCompleted
	switch t.Repetition {
	case RepetitionDaily:
		return last.AddDate(0, 0, 1), true
	case RepetitionWeekly:
		return last.AddDate(0, 0, 7), true
	case RepetitionMonthly:
		return last.AddDate(0, 1, 0), true
	case RepetitionYearly:
		return last.AddDate(1, 0, 0), true
	case RepetitionCustom:
		if t.RepeatInterval < 1 {
			return time.Time{}, false
		}
		return last.AddDate(0, 0, t.RepeatInterval), true
	default:
		return time.Time{}, false
	}
}
