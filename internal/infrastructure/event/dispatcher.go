package event

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrDispatcherQueueFull is returned when a task is submitted to a saturated
// dispatcher. The caller loses the task; nothing is queued.
var ErrDispatcherQueueFull = errors.New("dispatcher queue is full")

// ErrDispatcherStopped is returned when a task is submitted after Stop
var ErrDispatcherStopped = errors.New("dispatcher is stopped")

// DispatcherConfig holds configuration for the async dispatcher
type DispatcherConfig struct {
	Workers       int
	QueueCapacity int
}

// DefaultDispatcherConfig returns default configuration
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:       5,
		QueueCapacity: 100,
	}
}

// Task is a unit of asynchronous work
type Task struct {
	Name string
	Run  func(ctx context.Context)
}

// Dispatcher runs tasks on a fixed pool of workers behind a bounded queue.
// Submission never blocks: a full queue rejects the task so that a slow or
// unreachable downstream cannot back-pressure into request handling.
//
// Tasks for the same aggregate may be picked up by different workers, so
// two status changes for one contract can execute device calls out of
// order. Callers that need strict ordering must serialize upstream.
type Dispatcher struct {
	workers int
	queue   chan Task
	logger  *zap.Logger

	wg      sync.WaitGroup
	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	stopped bool
}

// NewDispatcher creates a new dispatcher with the given configuration
func NewDispatcher(config DispatcherConfig, logger *zap.Logger) *Dispatcher {
	defaults := DefaultDispatcherConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.QueueCapacity <= 0 {
		config.QueueCapacity = defaults.QueueCapacity
	}
	return &Dispatcher{
		workers: config.Workers,
		queue:   make(chan Task, config.QueueCapacity),
		logger:  logger,
	}
}

// Start launches the worker pool
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return errors.New("dispatcher already started")
	}
	d.started = true

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.workerLoop(ctx, i)
	}

	d.logger.Info("dispatcher started",
		zap.Int("workers", d.workers),
		zap.Int("queue_capacity", cap(d.queue)),
	)
	return nil
}

// Submit enqueues a task for asynchronous execution. It returns
// ErrDispatcherQueueFull when the queue is saturated; the task is dropped
// and the rejection is logged so operators can spot overload.
func (d *Dispatcher) Submit(task Task) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return ErrDispatcherStopped
	}
	d.mu.Unlock()

	select {
	case d.queue <- task:
		return nil
	default:
		d.logger.Error("dispatcher queue full, task rejected",
			zap.String("task", task.Name),
			zap.Int("queue_capacity", cap(d.queue)),
		)
		return ErrDispatcherQueueFull
	}
}

// Stop drains the queue and waits for in-flight tasks to finish
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if d.cancel != nil {
			d.cancel()
		}
		d.logger.Info("dispatcher stopped")
		return nil
	case <-ctx.Done():
		if d.cancel != nil {
			d.cancel()
		}
		return ctx.Err()
	}
}

// QueueDepth returns the number of tasks currently waiting in the queue
func (d *Dispatcher) QueueDepth() int {
	return len(d.queue)
}

// workerLoop consumes tasks until the queue is closed
func (d *Dispatcher) workerLoop(ctx context.Context, id int) {
	defer d.wg.Done()

	for task := range d.queue {
		d.runTask(ctx, id, task)
	}
}

// runTask executes a single task, recovering from panics so one bad task
// cannot kill a worker
func (d *Dispatcher) runTask(ctx context.Context, worker int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("task panicked",
				zap.String("task", task.Name),
				zap.Int("worker", worker),
				zap.Any("panic", r),
			)
		}
	}()

	task.Run(ctx)
}
