package workerpool

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidSize is returned by New when the requested number of
	// workers is less than one.
	ErrInvalidSize = errors.New("workerpool: pool size must be at least 1")

	// ErrPoolClosed is returned when a job is submitted after Close.
	ErrPoolClosed = errors.New("workerpool: pool closed")

	// ErrNilJob is returned when Submit is called with a nil Job.
	ErrNilJob = errors.New("workerpool: job is nil")

	// ErrJobExited is reported to the job error handler when a job ends
	// its worker goroutine with runtime.Goexit. The worker is restarted.
	ErrJobExited = errors.New("workerpool: job called runtime.Goexit")
)

// Job is a single unit of work submitted to the pool.
//
// A job takes no arguments and returns nothing. It is executed exactly
// once by exactly one worker; results and errors, if any, must be
// communicated by the job itself.
type Job func()

// PanicError describes a job that panicked while executing.
// It is passed to the handler registered with WithJobErrorHandler.
type PanicError struct {
	Worker int
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("workerpool: job panicked on worker %d: %v", e.Worker, e.Value)
}

// receiver is the single consumer endpoint of the job queue, shared by
// every worker. Only the holder of mu may block in Pop, so at most one
// worker waits inside the queue while the others wait on the mutex or
// execute jobs.
type receiver struct {
	mu sync.Mutex
	q  *fifoQueue
}

// recv claims the next job. The lock covers the receive only; the caller
// executes the job after recv has released it.
func (r *receiver) recv() (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.q.Pop()
}
