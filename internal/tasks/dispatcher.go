package tasks

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/outpost-social/outpost/pkg/logging"
)

// Job is a unit of background work. Jobs receive a context detached from
// the originating request: a caller disconnecting never cancels work that
// was dispatched after commit.
type Job struct {
	Name string
	Run  func(ctx context.Context)
}

// Dispatcher runs fire-and-forget jobs on a bounded worker pool. Submit
// never blocks the request path; when the queue is full the job is
// dropped with a log line.
type Dispatcher struct {
	queue  chan Job
	wg     sync.WaitGroup
	cancel context.CancelFunc
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher and starts its workers
func NewDispatcher(workers, queueSize int) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		queue:  make(chan Job, queueSize),
		cancel: cancel,
		logger: logging.WithComponent("tasks"),
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}

	return d
}

// Submit enqueues a job. It reports whether the job was accepted.
func (d *Dispatcher) Submit(name string, run func(ctx context.Context)) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("Task rejected after shutdown", zap.String("task", name))
		return false
	}
	defer d.mu.Unlock()

	select {
	case d.queue <- Job{Name: name, Run: run}:
		return true
	default:
		d.logger.Warn("Task queue full, dropping task", zap.String("task", name))
		return false
	}
}

// Shutdown stops accepting jobs and drains the queue. Jobs already
// accepted still run to completion.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for job := range d.queue {
		d.run(ctx, job)
	}
}

func (d *Dispatcher) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Task panicked",
				zap.String("task", job.Name),
				zap.Any("panic", r))
		}
	}()

	job.Run(ctx)
}
