// Package worker runs the delivery workers that drain the notification queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/talentmatch/internal/adapters/mq/queue"
	"github.com/okian/talentmatch/internal/domain/model"
	"github.com/okian/talentmatch/pkg/logger"
	"github.com/okian/talentmatch/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	defaultSendTimeout      = 30 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Messenger sends one delivery.
type Messenger interface {
	Send(ctx context.Context, d model.Delivery) error
}

// Queue defines how workers receive deliveries.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Event
}

// Worker processes deliveries until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called
	// or the queue is drained after closing.
	Run(ctx context.Context)

	Shutdown(ctx context.Context) error
}

// InMemoryWorker sends deliveries read from the queue.
type InMemoryWorker struct {
	queue       Queue
	messenger   Messenger
	name        string
	sendTimeout time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, messenger Messenger, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		messenger:   messenger,
		name:        "worker",
		sendTimeout: defaultSendTimeout,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	deliveries := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			if err := w.deliver(ctx, d); err != nil {
				w.logger.Error(ctx, "delivery failed",
					logger.String("notification", d.Record.ID),
					logger.String("candidate", d.Record.CandidateID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker after its current delivery.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// deliver sends one delivery. Failures are reported, never retried here:
// the record is already stored and stays visible to the candidate.
func (w *InMemoryWorker) deliver(ctx context.Context, d queue.Event) (err error) { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("messenger panicked: %v", r)
		}
		outcome := "sent"
		if err != nil {
			outcome = "failed"
			metrics.RecordErrorByComponent("worker", "delivery")
		}
		metrics.RecordDelivery(outcome, float64(time.Since(start).Milliseconds()))
	}()

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()
	return w.messenger.Send(sendCtx, d)
}

// Pool manages multiple delivery workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one selects
// a default based on the CPU count.
func NewPool(workerCount int, q Queue, messenger Messenger, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	// the pool logs through the same logger its workers were given
	probe := &InMemoryWorker{logger: logger.NewNop()}
	for _, opt := range opts {
		opt(probe)
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  probe.logger.Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, messenger, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
