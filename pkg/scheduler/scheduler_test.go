package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryRunsImmediatelyAndRepeats(t *testing.T) {
	s := New()
	var n atomic.Int32
	s.Every("count", 10*time.Millisecond, FuncJob(func(ctx context.Context) { n.Add(1) }))

	require.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, n.Load(), "no runs after Stop")
}

func TestPanickingJobDoesNotKillLoop(t *testing.T) {
	s := New()
	defer s.Stop()

	var n atomic.Int32
	s.Every("boom", 5*time.Millisecond, FuncJob(func(ctx context.Context) {
		n.Add(1)
		panic("boom")
	}))
	require.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestOnceAfterCancelledByStop(t *testing.T) {
	s := New()
	var ran atomic.Bool
	s.OnceAfter("late", time.Hour, FuncJob(func(ctx context.Context) { ran.Store(true) }))
	s.Stop()
	assert.False(t, ran.Load())
}

func TestCronAdd(t *testing.T) {
	c := NewCron(time.UTC)
	_, err := c.Add("*/5 * * * *", FuncJob(func(ctx context.Context) {}))
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = c.Add("not a cron expr", FuncJob(func(ctx context.Context) {}))
	assert.Error(t, err)
}
