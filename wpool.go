package workerpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	lg "github.com/Andrej220/go-utils/zlog"
)

// Pool is a fixed-size set of workers fed from one shared FIFO queue.
//
// The pool owns the producer side of the queue; the consumer side is
// shared by all workers behind a mutex. The number of workers is fixed
// at construction.
type Pool struct {
	opts    Options
	workers []*Worker

	queue *fifoQueue
	rx    *receiver

	wg        sync.WaitGroup
	closeOnce sync.Once

	liveWorkers   atomic.Int32
	activeWorkers atomic.Int32
}

// Worker is one long-lived goroutine that claims jobs from the shared
// queue and runs them.
type Worker struct {
	id   int
	pool *Pool
}

// ID returns the worker's index in [0, Size()).
func (w *Worker) ID() int { return w.id }

// New creates a pool with size workers and starts them.
//
// size must be at least 1; otherwise ErrInvalidSize is returned and no
// goroutine is started. New returns once every worker is running its
// receive loop.
func New(size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}

	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	o.FillDefaults()

	q := newFifoQueue(o.QueueCapacity)
	p := &Pool{
		opts:    o,
		workers: make([]*Worker, 0, size),
		queue:   q,
		rx:      &receiver{q: q},
	}

	var ready sync.WaitGroup
	ready.Add(size)
	for id := range size {
		w := &Worker{id: id, pool: p}
		p.workers = append(p.workers, w)
		p.wg.Add(1)
		go w.run(&ready)
	}
	ready.Wait()

	lg.FromContext(o.Ctx).Info("worker pool started",
		lg.Int("workers", size),
		lg.Int("queue_capacity", o.QueueCapacity),
	)
	return p, nil
}

// MustNew is like New but panics if the pool cannot be created.
func MustNew(size int, opts ...Option) *Pool {
	p, err := New(size, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Submit enqueues job for execution by one of the workers.
//
// Jobs submitted from a single goroutine are dequeued in submission
// order. With an unbounded queue Submit never blocks; with
// WithQueueCapacity it blocks while the queue is full.
func (p *Pool) Submit(job Job) error {
	if job == nil {
		return ErrNilJob
	}
	// counted before the job is visible to workers, so Executed never
	// overtakes Submitted
	p.opts.Metrics.IncSubmitted()
	if err := p.queue.Push(job); err != nil {
		p.opts.Metrics.DecSubmitted()
		return err
	}
	return nil
}

// Close stops accepting jobs. Workers finish whatever is already queued
// and then exit. Close does not wait; use Shutdown for that.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.queue.Close()
		lg.FromContext(p.opts.Ctx).Info("worker pool closing", lg.Int("queued", p.queue.Len()))
	})
}

// Shutdown closes the pool and waits until all workers have drained the
// queue and exited, or until ctx is done.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// blocking stop
func (p *Pool) Stop() { _ = p.Shutdown(context.Background()) }

// Size returns the number of workers the pool was created with.
func (p *Pool) Size() int { return len(p.workers) }

// Workers returns the pool's workers ordered by id.
func (p *Pool) Workers() []*Worker {
	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}

// LiveWorkers returns the number of worker goroutines still running
// their receive loop.
func (p *Pool) LiveWorkers() int { return int(p.liveWorkers.Load()) }

// ActiveWorkers returns the number of workers currently executing a job.
func (p *Pool) ActiveWorkers() int { return int(p.activeWorkers.Load()) }

// Len returns the number of jobs waiting in the queue.
func (p *Pool) Len() int { return p.queue.Len() }

// run is the worker loop: claim one job under the receiver lock, release
// the lock, execute, repeat. It returns when the queue is closed and empty.
//
// ready is nil when run replaces a goroutine lost to runtime.Goexit; the
// replacement inherits its predecessor's live slot.
func (w *Worker) run(ready *sync.WaitGroup) {
	p := w.pool
	defer p.wg.Done()

	if p.opts.LockOSThread || p.opts.PinWorkers {
		runtime.LockOSThread()
		// A pinned thread must not be handed back to the scheduler with a
		// narrowed affinity mask; leaving it locked makes the runtime
		// discard it when the goroutine exits.
		if !p.opts.PinWorkers {
			defer runtime.UnlockOSThread()
		}
	}
	if p.opts.PinWorkers {
		cpu := w.id % runtime.NumCPU()
		if err := PinToCPU(cpu); err != nil {
			p.reportInternalError(fmt.Errorf("workerpool: pin worker %d to cpu %d: %w", w.id, cpu, err))
		}
	}

	if ready != nil {
		p.liveWorkers.Add(1)
		ready.Done()
	}

	logger := lg.FromContext(p.opts.Ctx)
	drained := false
	defer func() {
		if drained {
			p.liveWorkers.Add(-1)
			return
		}
		// Only runtime.Goexit inside a job gets here: panics are recovered
		// by execute. wg is still held, so the restart cannot race Shutdown.
		logger.Warn("job exited the worker goroutine; restarting worker", lg.Int("worker", w.id))
		p.reportJobError(fmt.Errorf("%w (worker %d)", ErrJobExited, w.id))
		p.wg.Add(1)
		go w.run(nil)
	}()

	for {
		job, ok := p.rx.recv()
		if !ok {
			drained = true
			logger.Info("worker exiting", lg.Int("worker", w.id))
			return
		}
		if p.opts.LogClaims {
			logger.Info("worker got a job; executing", lg.Int("worker", w.id))
		}
		p.execute(w, job)
	}
}
