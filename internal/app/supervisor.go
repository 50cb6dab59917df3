package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/okian/talentmatch/pkg/logger"
	"github.com/okian/talentmatch/pkg/metrics"
)

// supervisor tracks background pipelines so shutdown can wait for them.
// Tasks run to completion; nothing cancels them.
type supervisor struct {
	wg      sync.WaitGroup
	running atomic.Int64
	logger  logger.Logger
}

func newSupervisor(l logger.Logger) *supervisor {
	return &supervisor{logger: l}
}

// Go runs fn in a tracked goroutine and returns a channel closed when it ends.
func (s *supervisor) Go(ctx context.Context, name string, fn func(ctx context.Context)) <-chan struct{} {
	done := make(chan struct{})
	s.wg.Add(1)
	metrics.UpdateBackgroundTasks(int(s.running.Add(1)))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				buf := make([]byte, 4096)
				buf = buf[:runtime.Stack(buf, false)]
				s.logger.Error(ctx, "background task panicked",
					logger.String("task", name),
					logger.Any("panic", r),
					logger.String("stack", string(buf)),
				)
			}
			metrics.UpdateBackgroundTasks(int(s.running.Add(-1)))
			close(done)
			s.wg.Done()
		}()
		fn(ctx)
	}()
	return done
}

// Running returns the number of tasks in flight.
func (s *supervisor) Running() int { return int(s.running.Load()) }

// Wait blocks until every task finished or ctx ends.
func (s *supervisor) Wait(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%d background tasks still running: %w", s.Running(), ctx.Err())
	}
}
