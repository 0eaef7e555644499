package workerpool

import (
	"runtime/debug"

	lg "github.com/Andrej220/go-utils/zlog"
)

// execute runs a single job on worker w.
//
// A panicking job is recovered so the worker survives and keeps serving
// the queue. The panic is logged and forwarded to the job error handler.
func (p *Pool) execute(w *Worker, job Job) {
	p.activeWorkers.Add(1)
	defer p.activeWorkers.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			p.opts.Metrics.IncPanicked()
			lg.FromContext(p.opts.Ctx).Error("job panicked",
				lg.Int("worker", w.id),
				lg.Any("panic", r),
				lg.String("stack", string(stack)),
			)
			p.reportJobError(&PanicError{Worker: w.id, Value: r, Stack: stack})
		}
		p.opts.Metrics.IncExecuted()
	}()

	job()
}
