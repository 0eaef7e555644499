package workerpool

import (
	lg "github.com/Andrej220/go-utils/zlog"
)

// reportInternalError reports an internal pool error.
//
// Internal errors are non-job-related failures such as
// a worker failing to pin itself to a CPU.
// If no handler is registered, the error is silently ignored.
func (p *Pool) reportInternalError(e error) {
	if p.opts.OnInternalError != nil {
		defer p.recoverHandler("internal error handler", e)
		p.opts.OnInternalError(e)
	}
}

// reportJobError reports a job failure: a recovered panic (*PanicError)
// or a job that called runtime.Goexit (ErrJobExited).
//
// The handler runs on the worker goroutine that executed the job.
func (p *Pool) reportJobError(err error) {
	if p.opts.OnJobError != nil {
		defer p.recoverHandler("job error handler", err)
		p.opts.OnJobError(err)
	}
}

// recoverHandler keeps a panicking user handler from taking the worker
// down with it.
func (p *Pool) recoverHandler(name string, reported error) {
	if r := recover(); r != nil {
		lg.FromContext(p.opts.Ctx).Error(name+" panicked",
			lg.Any("panic", r),
			lg.String("reported", reported.Error()),
		)
	}
}
