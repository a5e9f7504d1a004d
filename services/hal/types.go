package hal

import (
	"context"
	"errors"
	"time"

	"tinygo.org/x/drivers"

	"hardfoc-go/adc"
	"hardfoc-go/gpio"
	"hardfoc-go/types"
)

// ErrNotReady is returned by Collect while a measurement is still in
// flight; the worker retries with backoff.
var ErrNotReady = errors.New("hal: not ready")

// ErrUnsupported is returned by Control for verbs an adaptor does not
// implement, and by Trigger on control-only adaptors.
var ErrUnsupported = errors.New("hal: unsupported")

// Sample is one published datum from an adaptor. Kind selects the topic
// leaf: "value" samples go retained to .../value, "event" samples go
// unretained to .../event.
type Sample struct {
	Kind    string
	Payload any
}

// Adaptor is the per-device surface the service drives. Trigger/Collect
// form the split-phase measurement path; Control handles request verbs.
type Adaptor interface {
	DevID() string
	Kind() types.Kind
	Info() types.Info

	// Trigger starts a measurement and returns how long until Collect
	// should first be attempted.
	Trigger() (collectAfter time.Duration, err error)
	// Collect finishes a measurement. ErrNotReady means try again.
	Collect(ctx context.Context) ([]Sample, error)

	// Control handles one verb with its decoded-or-raw payload.
	Control(verb string, payload any) (any, error)

	Close() error
}

// eventSource is implemented by adaptors that translate interrupt
// events into samples.
type eventSource interface {
	EventSamples(ev PinEvent) []Sample
}

// ---- Platform resource factories ----

// PinFactory hands out the platform driver behind a pin number.
type PinFactory interface {
	ByNumber(n int) (gpio.Driver, bool)
}

// ADCFactory hands out converter drivers by unit id, e.g. "adc0".
type ADCFactory interface {
	ByID(id string) (adc.Driver, bool)
}

// I2CBusFactory hands out configured I2C buses by id, e.g. "i2c0".
type I2CBusFactory interface {
	ByID(id string) (drivers.I2C, bool)
}

// SerialPort is a byte-oriented port. RecvSomeContext returns as soon
// as at least one byte is available or the context ends.
type SerialPort interface {
	Write(b []byte) (int, error)
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
	SetBaudRate(baud uint32) error
}

// SerialFactory hands out serial ports by id, e.g. "uart0".
type SerialFactory interface {
	ByID(id string) (SerialPort, bool)
}

// Resources bundles the platform factories the builders draw from.
// Factories a platform does not provide may be nil.
type Resources struct {
	Pins   PinFactory
	ADCs   ADCFactory
	Buses  I2CBusFactory
	Serial SerialFactory
}
