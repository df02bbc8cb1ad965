// Package notify provides Notifier implementations for hosts that have no
// presentation layer of their own.
package notify

import (
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck/usecase"
)

// Log writes every notification to a zap logger. Useful as a default sink
// when the embedding application has not supplied its own Notifier.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

func (l *Log) Notify(event usecase.Event, title, message string) {
	l.logger.Info("notification",
		zap.String("event", string(event)),
		zap.String("title", title),
		zap.String("message", message),
	)
}

// Func adapts a plain function to the Notifier interface.
type Func func(event usecase.Event, title, message string)

func (f Func) Notify(event usecase.Event, title, message string) {
	if f != nil {
		f(event, title, message)
	}
}
