package hal

import (
	"context"
	"testing"
	"time"

	"hardfoc-go/errcode"
	"hardfoc-go/types"
)

type fakeAdaptor struct {
	id         string
	notReady   int
	trigErr    error
	collectErr error
	samples    []Sample

	trigs    int
	collects int
}

func (f *fakeAdaptor) DevID() string    { return f.id }
func (f *fakeAdaptor) Kind() types.Kind { return types.KindPin }
func (f *fakeAdaptor) Info() types.Info { return types.Info{SchemaVersion: 1} }

func (f *fakeAdaptor) Trigger() (time.Duration, error) {
	f.trigs++
	return 0, f.trigErr
}

func (f *fakeAdaptor) Collect(context.Context) ([]Sample, error) {
	f.collects++
	if f.notReady > 0 {
		f.notReady--
		return nil, ErrNotReady
	}
	return f.samples, f.collectErr
}

func (f *fakeAdaptor) Control(string, any) (any, error) { return nil, ErrUnsupported }
func (f *fakeAdaptor) Close() error                     { return nil }

func recvResult(t *testing.T, out chan result, timeout time.Duration) result {
	t.Helper()
	select {
	case r := <-out:
		return r
	case <-time.After(timeout):
		t.Fatal("timeout waiting for result")
		return result{}
	}
}

func TestMeasureWorker_RetriesNotReady(t *testing.T) {
	out := make(chan result, 1)
	w := newMeasureWorker(out, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	fa := &fakeAdaptor{id: "d0", notReady: 2, samples: []Sample{{Kind: "value", Payload: 1}}}
	if !w.Submit(fa, false) {
		t.Fatal("submit refused")
	}

	r := recvResult(t, out, time.Second)
	if r.err != nil || r.devID != "d0" {
		t.Fatalf("result: %+v", r)
	}
	if fa.collects != 3 {
		t.Fatalf("collects=%d, want 3", fa.collects)
	}
	if len(r.samples) != 1 || r.ts == 0 {
		t.Fatalf("samples/ts: %+v", r)
	}
}

func TestMeasureWorker_GivesUpWhenNeverReady(t *testing.T) {
	out := make(chan result, 1)
	w := newMeasureWorker(out, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	fa := &fakeAdaptor{id: "stuck", notReady: 1 << 20}
	w.Submit(fa, false)

	r := recvResult(t, out, 2*time.Second)
	if errcode.Of(r.err) != errcode.Timeout {
		t.Fatalf("want Timeout, got %v", r.err)
	}
}

func TestMeasureWorker_TriggerErrorPropagates(t *testing.T) {
	out := make(chan result, 1)
	w := newMeasureWorker(out, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	fa := &fakeAdaptor{id: "broken", trigErr: errcode.HardwareFault}
	w.Submit(fa, false)

	r := recvResult(t, out, time.Second)
	if errcode.Of(r.err) != errcode.HardwareFault {
		t.Fatalf("want HardwareFault, got %v", r.err)
	}
}

func TestMeasureWorker_PriorityRunsFirst(t *testing.T) {
	out := make(chan result, 4)
	w := newMeasureWorker(out, 4)

	// Queue before the loop starts so ordering is deterministic.
	poll := &fakeAdaptor{id: "poll"}
	prio := &fakeAdaptor{id: "prio"}
	w.Submit(poll, false)
	w.Submit(prio, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	if r := recvResult(t, out, time.Second); r.devID != "prio" {
		t.Fatalf("first result from %q, want prio", r.devID)
	}
	if r := recvResult(t, out, time.Second); r.devID != "poll" {
		t.Fatalf("second result from %q, want poll", r.devID)
	}
}

func TestMeasureWorker_SubmitRefusesWhenFull(t *testing.T) {
	out := make(chan result, 1)
	w := newMeasureWorker(out, 1)

	if !w.Submit(&fakeAdaptor{id: "a"}, false) {
		t.Fatal("first submit must fit")
	}
	if w.Submit(&fakeAdaptor{id: "b"}, false) {
		t.Fatal("second submit must be refused")
	}
}
