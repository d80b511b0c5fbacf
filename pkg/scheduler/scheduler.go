package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"RapidSafe/pkg/logger"
)

type Job interface{ Run(ctx context.Context) }

type FuncJob func(ctx context.Context)

func (f FuncJob) Run(ctx context.Context) { f(ctx) }

// Scheduler runs jobs on tickers until Stop. Stop waits for running jobs.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{ctx: ctx, cancel: cancel}
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Every runs job every d; the first run happens immediately.
func (s *Scheduler) Every(name string, d time.Duration, job Job) {
	s.wg.Add(1)
	go s.loopEvery(name, d, job)
}

func (s *Scheduler) OnceAfter(name string, d time.Duration, job Job) {
	s.wg.Add(1)
	go s.onceAfter(name, d, job)
}

func (s *Scheduler) loopEvery(name string, d time.Duration, job Job) {
	defer s.wg.Done()
	s.run(name, job)

	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-t.C:
			s.run(name, job)
		}
	}
}

func (s *Scheduler) onceAfter(name string, d time.Duration, job Job) {
	defer s.wg.Done()
	select {
	case <-s.ctx.Done():
		return
	case <-time.After(d):
		s.run(name, job)
	}
}

func (s *Scheduler) run(name string, job Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("scheduled job panicked", zap.String("job", name), zap.Any("panic", r))
		}
	}()
	job.Run(s.ctx)
}
