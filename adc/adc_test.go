package adc

import (
	"context"
	"testing"
	"time"

	"hardfoc-go/errcode"
)

type fakeADC struct {
	channels int
	bits     uint8
	refMV    uint32

	inits   int
	deinits int

	// counts is consumed one value per conversion; the last value repeats.
	counts []uint32
	idx    int
	err    error
}

func (f *fakeADC) Channels() int               { return f.channels }
func (f *fakeADC) Resolution() uint8           { return f.bits }
func (f *fakeADC) ReferenceMilliVolts() uint32 { return f.refMV }
func (f *fakeADC) Init() error                 { f.inits++; return nil }
func (f *fakeADC) Deinit() error               { f.deinits++; return nil }

func (f *fakeADC) ReadCount(uint8) (uint32, error) {
	if f.err != nil {
		return 0, f.err
	}
	if len(f.counts) == 0 {
		return 0, nil
	}
	c := f.counts[f.idx]
	if f.idx < len(f.counts)-1 {
		f.idx++
	}
	return c, nil
}

func newFakeADC() *fakeADC {
	return &fakeADC{channels: 4, bits: 12, refMV: 3300}
}

func TestUnit_LazyIdempotentLifecycle(t *testing.T) {
	d := newFakeADC()
	u := New(d)

	if u.IsInitialized() {
		t.Fatal("initialized before EnsureInitialized")
	}
	if _, err := u.ReadRaw(context.Background(), 0, ReadOptions{}); errcode.Of(err) != errcode.NotInitialized {
		t.Fatalf("read before init: %v", err)
	}
	if !u.EnsureInitialized() || !u.EnsureInitialized() {
		t.Fatal("EnsureInitialized must succeed twice")
	}
	if d.inits != 1 {
		t.Fatalf("inits=%d, want 1", d.inits)
	}
	if !u.EnsureDeinitialized() {
		t.Fatal("deinit failed")
	}
	// Deinit of a released unit is a no-op success.
	if !u.EnsureDeinitialized() || d.deinits != 1 {
		t.Fatalf("deinits=%d, want 1", d.deinits)
	}
}

func TestUnit_AveragedRead(t *testing.T) {
	d := newFakeADC()
	d.counts = []uint32{100, 200, 300, 400}
	u := New(d)
	u.EnsureInitialized()

	got, err := u.ReadRaw(context.Background(), 1, ReadOptions{Samples: 4})
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if got != 250 {
		t.Fatalf("average=%d, want 250", got)
	}
}

func TestUnit_VoltageScaling(t *testing.T) {
	d := newFakeADC()
	d.counts = []uint32{4095} // full scale on 12 bits
	u := New(d)
	u.EnsureInitialized()

	mv, err := u.ReadVoltage(context.Background(), 0, ReadOptions{})
	if err != nil {
		t.Fatalf("ReadVoltage: %v", err)
	}
	if mv != 3300 {
		t.Fatalf("full scale=%dmV, want 3300", mv)
	}

	d.counts = []uint32{0}
	d.idx = 0
	mv, err = u.ReadVoltage(context.Background(), 0, ReadOptions{})
	if err != nil || mv != 0 {
		t.Fatalf("zero scale=%dmV err=%v", mv, err)
	}
}

func TestUnit_InvalidChannel(t *testing.T) {
	u := New(newFakeADC())
	u.EnsureInitialized()

	if _, err := u.ReadRaw(context.Background(), 4, ReadOptions{}); errcode.Of(err) != errcode.InvalidChannel {
		t.Fatalf("want InvalidChannel, got %v", err)
	}
}

func TestUnit_CancelledBetweenSamples(t *testing.T) {
	d := newFakeADC()
	d.counts = []uint32{1}
	u := New(d)
	u.EnsureInitialized()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := u.ReadRaw(ctx, 0, ReadOptions{Samples: 3, Interval: 50 * time.Millisecond})
	if errcode.Of(err) != errcode.OperationAborted {
		t.Fatalf("want OperationAborted, got %v", err)
	}
}

func TestUnit_DriverErrorFoldsToReadFailure(t *testing.T) {
	d := newFakeADC()
	d.err = errTest("saturated")
	u := New(d)
	u.EnsureInitialized()

	if _, err := u.ReadRaw(context.Background(), 0, ReadOptions{}); errcode.Of(err) != errcode.ReadFailure {
		t.Fatalf("want ReadFailure, got %v", err)
	}

	d.err = errcode.VoltageOutOfRange
	if _, err := u.ReadRaw(context.Background(), 0, ReadOptions{}); errcode.Of(err) != errcode.VoltageOutOfRange {
		t.Fatalf("driver code must pass through, got %v", err)
	}
}

func TestUnit_ReadMulti(t *testing.T) {
	d := newFakeADC()
	d.counts = []uint32{500}
	u := New(d)
	u.EnsureInitialized()

	rs, err := u.ReadMulti(context.Background(), []uint8{0, 1, 2}, ReadOptions{})
	if err != nil {
		t.Fatalf("ReadMulti: %v", err)
	}
	if len(rs) != 3 || rs[2].Channel != 2 || rs[0].Count != 500 {
		t.Fatalf("unexpected readings: %+v", rs)
	}
	if _, err := u.ReadMulti(context.Background(), nil, ReadOptions{}); errcode.Of(err) != errcode.InvalidArgument {
		t.Fatalf("empty channel list: %v", err)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
