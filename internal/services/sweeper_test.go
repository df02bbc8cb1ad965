package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingResolver struct {
	calls atomic.Int32
}

func (r *countingResolver) ResolveRecurrences(context.Context) error {
	r.calls.Add(1)
	return nil
}

func TestSweeper_RejectsInvalidSchedule(t *testing.T) {
	_, err := NewSweeper(&countingResolver{}, nil, "not a schedule")
	assert.Error(t, err)
}

func TestSweeper_RunsThePassOnSchedule(t *testing.T) {
	resolver := &countingResolver{}
	sweeper, err := NewSweeper(resolver, nil, "@every 50ms")
	require.NoError(t, err)

	sweeper.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		sweeper.Stop(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for resolver.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Positive(t, resolver.calls.Load())
}
