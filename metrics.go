package workerpool

import (
	"sync/atomic"
)

// MetricsPolicy defines hooks used by the worker pool to report
// submission and execution activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking
type MetricsPolicy interface {

	// IncSubmitted increments the submitted jobs counter. It is called
	// before the job is enqueued.
	IncSubmitted()

	// DecSubmitted undoes IncSubmitted for a job the queue refused.
	DecSubmitted()

	// IncExecuted increments the executed jobs counter. Panicked jobs
	// count as executed.
	IncExecuted()

	// IncPanicked increments the panicked jobs counter.
	IncPanicked()
}

// AtomicMetrics is a lock-free metrics implementation backed by atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	// submitted is the total number of jobs accepted by Submit.
	submitted atomic.Uint64

	_ [56]byte // padding to avoid false sharing

	// executed is the total number of jobs processed.
	executed atomic.Uint64

	_ [56]byte

	panicked atomic.Uint64
}

// Submitted returns the total number of submitted jobs.
func (m *AtomicMetrics) Submitted() uint64 {
	return m.submitted.Load()
}

// Executed returns the total number of executed jobs.
// Intended for cold-path observation.
func (m *AtomicMetrics) Executed() uint64 {
	return m.executed.Load()
}

// Panicked returns the number of jobs that panicked.
func (m *AtomicMetrics) Panicked() uint64 {
	return m.panicked.Load()
}

func (m *AtomicMetrics) IncSubmitted() {
	m.submitted.Add(1)
}

func (m *AtomicMetrics) DecSubmitted() {
	m.submitted.Add(^uint64(0))
}

// IncExecuted increments the executed jobs counter by one.
func (m *AtomicMetrics) IncExecuted() {
	m.executed.Add(1)
}

func (m *AtomicMetrics) IncPanicked() {
	m.panicked.Add(1)
}

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a MetricsPolicy implementation that discards
// all metric updates.
//
// It can be used when metrics collection is disabled and
// zero overhead is desired.
type NoopMetrics struct{}

func (m *NoopMetrics) IncSubmitted() {}
func (m *NoopMetrics) DecSubmitted() {}
func (m *NoopMetrics) IncExecuted()  {}
func (m *NoopMetrics) IncPanicked()  {}
