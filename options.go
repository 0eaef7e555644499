package workerpool

import (
	"context"
)

// Options configure a worker Pool.
//
// All zero values are replaced with sensible defaults in FillDefaults.
type Options struct {
	// QueueCapacity bounds the number of queued jobs. Zero means
	// unbounded: Submit never blocks and the queue grows as needed.
	QueueCapacity int

	// LockOSThread wires each worker goroutine to its own OS thread.
	LockOSThread bool

	// PinWorkers additionally pins worker i to CPU i % NumCPU.
	// Linux only; implies LockOSThread.
	PinWorkers bool

	// LogClaims logs one line with the worker id for every claimed job.
	LogClaims bool

	// Ctx carries the logger used by the pool.
	Ctx context.Context

	Metrics MetricsPolicy

	OnJobError      func(error)
	OnInternalError func(error)
}

// Option mutates Options before the pool is built.
type Option func(*Options)

func (o *Options) FillDefaults() {
	if o.QueueCapacity < 0 {
		o.QueueCapacity = 0
	}
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}
	if o.Metrics == nil {
		o.Metrics = &NoopMetrics{}
	}
}

// WithQueueCapacity bounds the job queue; Submit blocks while it is full.
func WithQueueCapacity(n int) Option {
	return func(o *Options) { o.QueueCapacity = n }
}

// WithLockOSThread runs every worker on a dedicated OS thread.
func WithLockOSThread() Option {
	return func(o *Options) { o.LockOSThread = true }
}

// WithPinWorkers pins each worker thread to a single CPU.
func WithPinWorkers() Option {
	return func(o *Options) { o.PinWorkers = true }
}

// WithLogClaims enables the per-job diagnostic line.
func WithLogClaims(enabled bool) Option {
	return func(o *Options) { o.LogClaims = enabled }
}

// WithContext sets the context the pool takes its logger from.
func WithContext(ctx context.Context) Option {
	return func(o *Options) { o.Ctx = ctx }
}

func WithMetrics(m MetricsPolicy) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithJobErrorHandler registers a handler for recovered job panics.
func WithJobErrorHandler(fn func(error)) Option {
	return func(o *Options) { o.OnJobError = fn }
}

func WithInternalErrorHandler(fn func(error)) Option {
	return func(o *Options) { o.OnInternalError = fn }
}
