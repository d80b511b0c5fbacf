package geo

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"RapidSafe/pkg/logger"
)

// PollingTracker turns a one-shot FixProvider into a recurring watch. It
// samples every PollInterval and emits when MinInterval has passed since
// the last emission or the fix moved MinDistance meters from it.
type PollingTracker struct {
	Provider     FixProvider
	PollInterval time.Duration
	now          func() time.Time
}

func NewPollingTracker(p FixProvider, poll time.Duration) *PollingTracker {
	if poll <= 0 {
		poll = time.Second
	}
	return &PollingTracker{Provider: p, PollInterval: poll, now: time.Now}
}

func (t *PollingTracker) Watch(ctx context.Context, opts WatchOptions, cb func(Position)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t.loop(ctx, opts, cb)
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	return stop, nil
}

func (t *PollingTracker) loop(ctx context.Context, opts WatchOptions, cb func(Position)) {
	ticker := time.NewTicker(t.PollInterval)
	defer ticker.Stop()

	var last *Position
	var lastAt time.Time
	for {
		pos, err := t.Provider.CurrentPosition(ctx)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			logger.Debug("tracker: no fix", zap.Error(err))
		default:
			now := t.now()
			if pos.Timestamp.IsZero() {
				pos.Timestamp = now
			}
			if last == nil || now.Sub(lastAt) >= opts.MinInterval || DistanceMeters(*last, pos) >= opts.MinDistance {
				p := pos
				last, lastAt = &p, now
				cb(pos)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
