// Package workerpool provides a fixed-size worker pool fed from a single
// shared FIFO job queue.
//
// The static HTTP server in cmd/webpool is the pool's main consumer: it
// submits one job per accepted connection.
//
// Architecture overview
//
// The pool is composed of three pieces:
//
//   1. Job
//      A nullary func() submitted by the producer. It is executed
//      exactly once, by exactly one worker, and carries no result.
//
//   2. Job queue
//      An unbounded FIFO ring buffer that grows on demand. Its single
//      consumer endpoint (the receiver) is shared by every worker behind
//      a mutex, so at most one worker waits for the next job at a time.
//
//   3. Workers
//      N long-lived goroutines with ids 0..N-1. Each worker takes the
//      receiver lock, receives one job, releases the lock and only then
//      executes the job. A slow job therefore never prevents the other
//      workers from claiming queued work.
//
// Ordering
//
// Jobs are dequeued in the order they were enqueued. Completion order
// is not defined: two jobs running on different workers may finish in
// any order. A job observes every write its submitter made before
// Submit returned.
//
// Sizing and backpressure
//
// The number of workers is fixed by New and must be at least 1. By
// default the queue is unbounded and Submit never blocks; under
// sustained overload memory grows without limit. WithQueueCapacity
// turns Submit into a blocking call once the queue is full.
//
// Error handling
//
// A job that panics is recovered: the worker logs the panic, reports a
// *PanicError to the handler registered with WithJobErrorHandler and
// continues with the next job. A job that calls runtime.Goexit ends its
// goroutine; the worker is restarted under the same id and ErrJobExited
// is reported. The pool's capacity never shrinks.
//
// Shutdown
//
// Close is the channel-close signal: new submissions fail with
// ErrPoolClosed, workers drain the jobs already queued and exit.
// Shutdown additionally waits for the workers, bounded by a context.
//
// OS threads
//
// Workers are goroutines. WithLockOSThread binds each to a dedicated OS
// thread and, on Linux, WithPinWorkers restricts that thread to one CPU.
package workerpool
