// Package adc provides the MCU analog-to-digital converter abstraction. A
// Unit wraps a platform Driver with lazy initialization and sample-averaged
// channel reads; values are fixed-point (raw counts and millivolts) to stay
// TinyGo-friendly.
//
// A Unit is not safe for concurrent use.
package adc

import (
	"context"
	"time"

	"hardfoc-go/errcode"
	"hardfoc-go/x/mathx"
)

// Driver is the platform contract behind a Unit. ReadCount performs one raw
// conversion; the Unit layers validation and averaging on top.
type Driver interface {
	// Channels returns the number of channels this converter exposes.
	Channels() int
	// Resolution returns the conversion width in bits.
	Resolution() uint8
	// ReferenceMilliVolts returns the full-scale reference in mV.
	ReferenceMilliVolts() uint32

	Init() error
	Deinit() error

	ReadCount(channel uint8) (uint32, error)
}

// ReadOptions controls sample averaging. The zero value means one sample,
// no inter-sample delay.
type ReadOptions struct {
	Samples  uint8
	Interval time.Duration
}

func (o ReadOptions) samples() int {
	if o.Samples == 0 {
		return 1
	}
	return int(o.Samples)
}

// Reading is one averaged conversion result.
type Reading struct {
	Channel    uint8
	Count      uint32
	MilliVolts uint32
}

// Unit is the lazily-initialized converter front end.
type Unit struct {
	drv         Driver
	initialized bool
}

// New wraps a Driver. No hardware is touched until EnsureInitialized.
func New(drv Driver) *Unit { return &Unit{drv: drv} }

// IsInitialized reports whether the converter is claimed.
func (u *Unit) IsInitialized() bool { return u.initialized }

// Channels reports the driver's channel count, 0 with no driver.
func (u *Unit) Channels() int {
	if u.drv == nil {
		return 0
	}
	return u.drv.Channels()
}

// Resolution reports the driver's conversion width in bits.
func (u *Unit) Resolution() uint8 {
	if u.drv == nil {
		return 0
	}
	return u.drv.Resolution()
}

// ReferenceMilliVolts reports the driver's full-scale reference.
func (u *Unit) ReferenceMilliVolts() uint32 {
	if u.drv == nil {
		return 0
	}
	return u.drv.ReferenceMilliVolts()
}

// EnsureInitialized claims the converter if needed; idempotent.
func (u *Unit) EnsureInitialized() bool {
	if u.initialized {
		return true
	}
	if u.drv == nil {
		return false
	}
	if err := u.drv.Init(); err != nil {
		return false
	}
	u.initialized = true
	return true
}

// EnsureDeinitialized releases the converter; a no-op success when it was
// never claimed.
func (u *Unit) EnsureDeinitialized() bool {
	if !u.initialized {
		return true
	}
	if err := u.drv.Deinit(); err != nil {
		return false
	}
	u.initialized = false
	return true
}

func (u *Unit) validate(channel uint8) error {
	if u.drv == nil {
		return errcode.NullPointer
	}
	if !u.initialized {
		return errcode.NotInitialized
	}
	if int(channel) >= u.drv.Channels() {
		return errcode.InvalidChannel
	}
	return nil
}

// maxCount returns the full-scale raw value for the driver's resolution.
func (u *Unit) maxCount() uint32 {
	bits := u.drv.Resolution()
	if bits == 0 || bits > 31 {
		bits = 12
	}
	return (uint32(1) << bits) - 1
}

// ReadRaw returns the averaged raw conversion count for a channel. The
// context bounds the inter-sample waits; cancellation reports
// errcode.OperationAborted.
func (u *Unit) ReadRaw(ctx context.Context, channel uint8, opts ReadOptions) (uint32, error) {
	if err := u.validate(channel); err != nil {
		return 0, err
	}
	n := opts.samples()
	var sum uint64
	for i := 0; i < n; i++ {
		if i > 0 && opts.Interval > 0 {
			select {
			case <-ctx.Done():
				return 0, errcode.OperationAborted
			case <-time.After(opts.Interval):
			}
		}
		c, err := u.drv.ReadCount(channel)
		if err != nil {
			return 0, opErr("adc.read", err)
		}
		sum += uint64(c)
	}
	return uint32(mathx.RoundDiv(sum, uint64(n))), nil
}

// ReadVoltage returns the averaged conversion scaled to millivolts against
// the driver's reference.
func (u *Unit) ReadVoltage(ctx context.Context, channel uint8, opts ReadOptions) (uint32, error) {
	count, err := u.ReadRaw(ctx, channel, opts)
	if err != nil {
		return 0, err
	}
	return u.countToMilliVolts(count), nil
}

// ReadChannel returns both the averaged raw count and its millivolt value.
func (u *Unit) ReadChannel(ctx context.Context, channel uint8, opts ReadOptions) (Reading, error) {
	count, err := u.ReadRaw(ctx, channel, opts)
	if err != nil {
		return Reading{}, err
	}
	return Reading{Channel: channel, Count: count, MilliVolts: u.countToMilliVolts(count)}, nil
}

// ReadMulti reads several channels back to back with shared options. It
// stops at the first failure.
func (u *Unit) ReadMulti(ctx context.Context, channels []uint8, opts ReadOptions) ([]Reading, error) {
	if len(channels) == 0 {
		return nil, errcode.InvalidArgument
	}
	out := make([]Reading, 0, len(channels))
	for _, ch := range channels {
		r, err := u.ReadChannel(ctx, ch, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (u *Unit) countToMilliVolts(count uint32) uint32 {
	max := u.maxCount()
	if max == 0 {
		return 0
	}
	return uint32(mathx.RoundDiv(uint64(count)*uint64(u.drv.ReferenceMilliVolts()), uint64(max)))
}

func opErr(op string, err error) error {
	c := errcode.Of(err)
	if c == errcode.DriverError {
		c = errcode.ReadFailure
	}
	return &errcode.E{C: c, Op: op, Err: err}
}
