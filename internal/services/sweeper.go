package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RecurrenceResolver is the store-side surface the sweeper drives.
type RecurrenceResolver interface {
	ResolveRecurrences(ctx context.Context) error
}

// Sweeper periodically reruns the recurrence pass so overdue repeating
// tasks regenerate as the day rolls over, not only when the user touches
// the collection. The default schedule fires just after local midnight.
type Sweeper struct {
	resolver RecurrenceResolver
	logger   *zap.Logger
	cron     *cron.Cron
	schedule string
}

func NewSweeper(resolver RecurrenceResolver, logger *zap.Logger, schedule string) (*Sweeper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schedule == "" {
		schedule = "1 0 * * *"
	}

	sw := &Sweeper{
		resolver: resolver,
		logger:   logger,
		cron:     cron.New(),
		schedule: schedule,
	}

	if _, err := sw.cron.AddFunc(schedule, sw.run); err != nil {
		return nil, err
	}
	return sw, nil
}

// Start launches the cron scheduler.
func (s *Sweeper) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("recurrence sweeper started", zap.String("schedule", s.schedule))
}

// Stop gracefully stops the scheduler, waiting for a running pass to finish.
func (s *Sweeper) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("recurrence sweeper stopped")
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := s.resolver.ResolveRecurrences(ctx); err != nil {
		s.logger.Error("recurrence sweep failed", zap.Error(err))
	}
}
