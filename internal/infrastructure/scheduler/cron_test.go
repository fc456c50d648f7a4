package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronSchedulerRunsImmediately(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	started := make(chan struct{}, 1)
	s := NewCronScheduler("0 0 1 1 *", time.UTC, nil)

	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		runs.Add(1)
		started <- struct{}{}
	}))

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("immediate run did not happen")
	}
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, int32(1), runs.Load())
}

func TestCronSchedulerStopWaitsForRunningJob(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	var finished atomic.Bool
	s := NewCronScheduler("0 * * * *", time.UTC, nil)

	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		close(started)
		<-release
		finished.Store(true)
	}))
	<-started

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()
	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, finished.Load())
}

func TestCronSchedulerStopHonoursDeadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	started := make(chan struct{})
	s := NewCronScheduler("0 * * * *", time.UTC, nil)

	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		close(started)
		<-release
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
}

func TestCronSchedulerRejectsBadExpression(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("every hour", time.UTC, nil)
	assert.Error(t, s.Validate())
	assert.Error(t, s.Start(context.Background(), func(time.Time) {}))
	assert.NoError(t, NewCronScheduler("*/15 * * * *", nil, nil).Validate())
}
