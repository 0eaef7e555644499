// fifo_queue.go
package workerpool

import "sync"

const (
	initialFifoCapacity = 64
)

// fifoQueue is a first-in–first-out job queue backed by a circular buffer.
//
// With limit == 0 the queue is unbounded: the buffer doubles whenever it
// is full and Push never blocks. With limit > 0 Push blocks while the
// queue holds limit jobs.
//
// Pop blocks until a job is available or the queue is closed and
// drained. Every pushed job is returned by exactly one Pop call, in
// push order.
type fifoQueue struct {
	mu       sync.Mutex
	notEmpty sync.Cond
	notFull  sync.Cond

	buf        []Job // circular buffer
	head, tail int   // read/write indices
	size       int   // number of jobs currently buffered
	limit      int   // 0 means unbounded

	closed bool
}

// newFifoQueue creates a FIFO queue. limit <= 0 creates an unbounded queue.
func newFifoQueue(limit int) *fifoQueue {
	if limit < 0 {
		limit = 0
	}
	capacity := initialFifoCapacity
	if limit > 0 && limit < capacity {
		capacity = limit
	}
	q := &fifoQueue{
		buf:   make([]Job, capacity),
		limit: limit,
	}
	q.notEmpty.L = &q.mu
	q.notFull.L = &q.mu
	return q
}

// Len returns the number of jobs currently waiting in the queue.
func (q *fifoQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Push appends a job at the tail of the queue.
//
// It returns ErrPoolClosed once Close has been called, including when
// Close happens while Push is blocked on a full bounded queue.
func (q *fifoQueue) Push(j Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && q.limit > 0 && q.size >= q.limit {
		q.notFull.Wait()
	}
	if q.closed {
		return ErrPoolClosed
	}
	if q.size == len(q.buf) {
		q.grow()
	}

	q.buf[q.tail] = j
	q.tail++
	if q.tail == len(q.buf) {
		q.tail = 0
	}
	q.size++

	q.notEmpty.Signal()
	return nil
}

// Pop removes and returns the oldest job, blocking while the queue is
// empty. ok is false only when the queue is closed and fully drained.
func (q *fifoQueue) Pop() (j Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.size == 0 {
		return nil, false
	}

	j = q.buf[q.head]
	q.buf[q.head] = nil // release the closure for GC
	q.head++
	if q.head == len(q.buf) {
		q.head = 0
	}
	q.size--

	if q.limit > 0 {
		q.notFull.Signal()
	}
	return j, true
}

// Close marks the queue closed and wakes every blocked producer and
// consumer. Jobs already queued remain available to Pop.
func (q *fifoQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// grow doubles the buffer (capped at limit for bounded queues) and
// unwraps the ring so that head == 0. Called with mu held on a full buffer.
func (q *fifoQueue) grow() {
	n := len(q.buf) * 2
	if q.limit > 0 && n > q.limit {
		n = q.limit
	}
	buf := make([]Job, n)
	copied := copy(buf, q.buf[q.head:])
	copy(buf[copied:], q.buf[:q.head])

	q.buf = buf
	q.head = 0
	q.tail = q.size
}
