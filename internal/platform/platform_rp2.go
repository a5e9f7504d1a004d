//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"

	"hardfoc-go/adc"
	"hardfoc-go/errcode"
	"hardfoc-go/gpio"
	"hardfoc-go/services/hal"
)

// Resources wires the RP2 peripherals: GP0..GP28 pins, the on-chip
// converter, both I2C buses at 400 kHz on board-default pins, and both
// UARTs at 115200 until reconfigured.
func Resources() hal.Resources {
	return hal.Resources{
		Pins:   rp2PinFactory{},
		ADCs:   rp2ADCFactory{},
		Buses:  newRP2I2CFactory(),
		Serial: newRP2SerialFactory(),
	}
}

// ---- pins ----

type rp2PinFactory struct{}

func (rp2PinFactory) ByNumber(n int) (gpio.Driver, bool) {
	// GP0..GP28 user GPIOs on Pico / Pico 2.
	if n < 0 || n > 28 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

type rp2Pin struct {
	p    machine.Pin
	n    int
	dir  gpio.Direction
	pull gpio.PullMode
}

func (r *rp2Pin) Number() int { return r.n }

func (r *rp2Pin) Caps() gpio.Caps {
	// No open drain stage, no both-resistor mode, edge interrupts only.
	return gpio.Caps{
		Available: true, Input: true, Output: true,
		PullUp: true, PullDown: true,
		Interrupts: true,
	}
}

func (r *rp2Pin) Init(cfg gpio.Config) error {
	r.dir = cfg.Direction
	r.pull = cfg.Pull
	if cfg.Direction == gpio.Output {
		r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		r.p.Set(bool(cfg.InitialLevel))
		return nil
	}
	r.configureInput()
	return nil
}

func (r *rp2Pin) Deinit() error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinInput})
	return nil
}

func (r *rp2Pin) configureInput() {
	var mode machine.PinMode
	switch r.pull {
	case gpio.PullUp:
		mode = machine.PinInputPullup
	case gpio.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
}

func (r *rp2Pin) SetDirection(d gpio.Direction) error {
	r.dir = d
	if d == gpio.Output {
		r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		return nil
	}
	r.configureInput()
	return nil
}

func (r *rp2Pin) SetPullMode(m gpio.PullMode) error {
	r.pull = m
	if r.dir == gpio.Input {
		r.configureInput()
	}
	return nil
}

func (r *rp2Pin) SetOutputMode(gpio.OutputMode) error {
	// Only push-pull exists; open drain is gated off by Caps.
	return nil
}

func (r *rp2Pin) WriteLevel(l gpio.Level) error {
	r.p.Set(bool(l))
	return nil
}

func (r *rp2Pin) ReadLevel() (gpio.Level, error) {
	return gpio.Level(r.p.Get()), nil
}

func (r *rp2Pin) Arm(t gpio.Trigger, cb func()) error {
	change := toPinChange(t)
	var zero machine.PinChange
	if change == zero {
		return errcode.InterruptNotSupported
	}
	return r.p.SetInterrupt(change, func(machine.Pin) { cb() })
}

func (r *rp2Pin) Disarm() error {
	var zero machine.PinChange
	return r.p.SetInterrupt(zero, nil)
}

func toPinChange(t gpio.Trigger) machine.PinChange {
	switch t {
	case gpio.RisingEdge:
		return machine.PinRising
	case gpio.FallingEdge:
		return machine.PinFalling
	case gpio.BothEdges:
		return machine.PinToggle
	default:
		var zero machine.PinChange
		return zero
	}
}

// ---- adc ----

type rp2ADCFactory struct{}

func (rp2ADCFactory) ByID(id string) (adc.Driver, bool) {
	if id != "adc0" {
		return nil, false
	}
	return &rp2ADC{}, true
}

// rp2ADC exposes channels 0..3 as GP26..GP29.
type rp2ADC struct{}

func (*rp2ADC) Channels() int               { return 4 }
func (*rp2ADC) Resolution() uint8           { return 12 }
func (*rp2ADC) ReferenceMilliVolts() uint32 { return 3300 }

func (*rp2ADC) Init() error {
	machine.InitADC()
	for ch := 0; ch < 4; ch++ {
		a := machine.ADC{Pin: machine.Pin(26 + ch)}
		a.Configure(machine.ADCConfig{})
	}
	return nil
}

func (*rp2ADC) Deinit() error { return nil }

func (*rp2ADC) ReadCount(channel uint8) (uint32, error) {
	if channel > 3 {
		return 0, errcode.InvalidChannel
	}
	a := machine.ADC{Pin: machine.Pin(26 + int(channel))}
	// Get is left-aligned 16 bit; fold back to the native 12.
	return uint32(a.Get() >> 4), nil
}

// ---- i2c ----

type rp2I2CFactory struct {
	buses map[string]drivers.I2C
}

func newRP2I2CFactory() *rp2I2CFactory {
	f := &rp2I2CFactory{buses: map[string]drivers.I2C{}}

	b0 := machine.I2C0
	_ = b0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	})
	f.buses["i2c0"] = b0

	b1 := machine.I2C1
	_ = b1.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C1_SDA_PIN,
		SCL:       machine.I2C1_SCL_PIN,
	})
	f.buses["i2c1"] = b1

	return f
}

func (f *rp2I2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// ---- serial ----

type rp2SerialFactory struct {
	ports map[string]hal.SerialPort
}

func newRP2SerialFactory() *rp2SerialFactory {
	f := &rp2SerialFactory{ports: map[string]hal.SerialPort{}}
	for id, hw := range map[string]*uartx.UART{"uart0": uartx.UART0, "uart1": uartx.UART1} {
		// Zero TX/RX picks the board-default pins inside uartx.
		_ = hw.Configure(uartx.UARTConfig{BaudRate: 115200})
		f.ports[id] = &rp2SerialPort{u: hw}
	}
	return f
}

func (f *rp2SerialFactory) ByID(id string) (hal.SerialPort, bool) {
	p, ok := f.ports[id]
	return p, ok
}

type rp2SerialPort struct{ u *uartx.UART }

func (p *rp2SerialPort) Write(b []byte) (int, error) { return p.u.Write(b) }

func (p *rp2SerialPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, buf)
}

func (p *rp2SerialPort) SetBaudRate(baud uint32) error {
	p.u.SetBaudRate(baud)
	return nil
}

// SetFormat adjusts framing; parity is "none", "even" or "odd".
func (p *rp2SerialPort) SetFormat(databits, stopbits uint8, parity string) error {
	var par uartx.UARTParity
	switch parity {
	case "even":
		par = uartx.ParityEven
	case "odd":
		par = uartx.ParityOdd
	default:
		par = uartx.ParityNone
	}
	return p.u.SetFormat(databits, stopbits, par)
}
