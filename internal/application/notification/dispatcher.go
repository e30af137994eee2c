package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-notify-api/internal/metrics"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 100
)

// Job is a unit of asynchronous work. Name labels logs and metrics.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Dispatcher runs jobs on a bounded pool of workers, decoupled from the
// submitting goroutine. Jobs are not cancellable once accepted.
type Dispatcher struct {
	ctx     context.Context
	jobs    chan Job
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewDispatcher starts workers goroutines reading from a queue of queueSize.
// Values of ctx reach every job; its cancellation does not.
func NewDispatcher(ctx context.Context, workers, queueSize int, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	d := &Dispatcher{
		ctx:     context.WithoutCancel(ctx),
		jobs:    make(chan Job, queueSize),
		logger:  logger,
		metrics: m,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Submit enqueues job without blocking. It returns false, after logging,
// when the queue is full or the dispatcher is closed.
func (d *Dispatcher) Submit(job Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("dispatcher closed, dropping job", "job", job.Name)
		d.metrics.DispatchDropped.WithLabelValues(job.Name).Inc()
		return false
	}
	// Counted before the send so a worker's Dec never runs ahead of it.
	d.metrics.QueueDepth.Inc()
	select {
	case d.jobs <- job:
		return true
	default:
		d.metrics.QueueDepth.Dec()
		d.logger.Warn("dispatch queue full, dropping job", "job", job.Name)
		d.metrics.DispatchDropped.WithLabelValues(job.Name).Inc()
		return false
	}
}

// Close stops accepting jobs and waits for the queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for job := range d.jobs {
		d.metrics.QueueDepth.Dec()
		d.run(job)
	}
}

func (d *Dispatcher) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch job panicked", "job", job.Name, "panic", fmt.Sprint(r))
			d.metrics.DispatchJobs.WithLabelValues(job.Name, metrics.OutcomePanic).Inc()
		}
	}()
	if err := job.Run(d.ctx); err != nil {
		d.logger.Error("dispatch job failed", "job", job.Name, "err", err)
		d.metrics.DispatchJobs.WithLabelValues(job.Name, metrics.OutcomeFailure).Inc()
		return
	}
	d.metrics.DispatchJobs.WithLabelValues(job.Name, metrics.OutcomeSuccess).Inc()
}
