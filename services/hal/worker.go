package hal

import (
	"context"
	"time"

	"hardfoc-go/errcode"
	"hardfoc-go/x/timex"
)

// result is one finished measurement attempt, failed or not.
type result struct {
	devID   string
	samples []Sample
	err     error
	ts      int64
}

// measureWorker serializes measurements for one hardware unit. Requests
// are queued; priority requests (operator "read" verbs) jump ahead of
// scheduled polls.
type measureWorker struct {
	prioQ chan Adaptor
	pollQ chan Adaptor
	out   chan<- result
}

const (
	collectAttempts = 8
	backoffStart    = 2 * time.Millisecond
	backoffMax      = 50 * time.Millisecond
)

func newMeasureWorker(out chan<- result, depth int) *measureWorker {
	if depth <= 0 {
		depth = 4
	}
	return &measureWorker{
		prioQ: make(chan Adaptor, depth),
		pollQ: make(chan Adaptor, depth),
		out:   out,
	}
}

// Submit queues a measurement. Returns false when the queue is full;
// the caller decides whether a dropped poll matters.
func (w *measureWorker) Submit(dev Adaptor, prio bool) bool {
	q := w.pollQ
	if prio {
		q = w.prioQ
	}
	select {
	case q <- dev:
		return true
	default:
		return false
	}
}

// Start runs the worker loop until the context ends.
func (w *measureWorker) Start(ctx context.Context) {
	for {
		// Drain priority work first.
		select {
		case dev := <-w.prioQ:
			w.emit(ctx, w.measure(ctx, dev))
			continue
		default:
		}
		select {
		case <-ctx.Done():
			return
		case dev := <-w.prioQ:
			w.emit(ctx, w.measure(ctx, dev))
		case dev := <-w.pollQ:
			w.emit(ctx, w.measure(ctx, dev))
		}
	}
}

func (w *measureWorker) emit(ctx context.Context, r result) {
	select {
	case w.out <- r:
	case <-ctx.Done():
	}
}

// measure runs one Trigger/Collect cycle. ErrNotReady from Collect is
// retried with doubling backoff until collectAttempts is exhausted.
func (w *measureWorker) measure(ctx context.Context, dev Adaptor) result {
	r := result{devID: dev.DevID()}
	after, err := dev.Trigger()
	if err != nil {
		r.err = err
		r.ts = timex.NowMs()
		return r
	}
	if after > 0 && !sleepCtx(ctx, after) {
		r.err = errcode.OperationAborted
		r.ts = timex.NowMs()
		return r
	}
	backoff := backoffStart
	for i := 0; i < collectAttempts; i++ {
		samples, err := dev.Collect(ctx)
		if err == ErrNotReady {
			if !sleepCtx(ctx, backoff) {
				r.err = errcode.OperationAborted
				r.ts = timex.NowMs()
				return r
			}
			backoff *= 2
			if backoff > backoffMax {
				backoff = backoffMax
			}
			continue
		}
		r.samples = samples
		r.err = err
		r.ts = timex.NowMs()
		return r
	}
	r.err = &errcode.E{C: errcode.Timeout, Op: "hal.collect", Msg: dev.DevID()}
	r.ts = timex.NowMs()
	return r
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer drainTimer(t)
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
