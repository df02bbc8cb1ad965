package usecase

// Event classifies a user-facing notification.
type Event string

const (
	EventTaskAdded        Event = "task_added"
	EventTaskDeleted      Event = "task_deleted"
	EventRecurringCreated Event = "recurring_created"
	EventLoggedIn         Event = "logged_in"
	EventLoggedOut        Event = "logged_out"
	EventAccountCreated   Event = "account_created"
)

// Notifier receives human-readable event descriptions for presentation
// layers to display. Notifications never affect core state; a Notifier that
// fails to display something must swallow the failure rather than report it.
type Notifier interface {
	Notify(event Event, title, message string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(Event, string, string) {}
