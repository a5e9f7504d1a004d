//go:build !rp2040 && !rp2350

package platform

import (
	"context"
	"sync"

	"tinygo.org/x/drivers"

	"hardfoc-go/adc"
	"hardfoc-go/gpio"
	"hardfoc-go/services/hal"
	"hardfoc-go/x/mathx"
)

const hostPinCount = 30

// Resources returns host-side fakes covering the full capability set.
// The returned factories hand out stable instances per id, so a test
// or selftest can fetch the same pin the service drives.
func Resources() hal.Resources {
	return hal.Resources{
		Pins:   NewPinBank(hostPinCount),
		ADCs:   &adcBank{},
		Buses:  &i2cBank{},
		Serial: &serialBank{},
	}
}

// ---- pins ----

// PinBank hands out host pins by number; the same *HostPin is returned
// for a number on every call.
type PinBank struct {
	mu   sync.Mutex
	pins map[int]*HostPin
	n    int
}

func NewPinBank(n int) *PinBank { return &PinBank{pins: map[int]*HostPin{}, n: n} }

func (b *PinBank) ByNumber(n int) (gpio.Driver, bool) {
	if n < 0 || n >= b.n {
		return nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pins[n]
	if !ok {
		p = &HostPin{n: n}
		b.pins[n] = p
	}
	return p, true
}

// Pin is ByNumber without the factory interface, for test harnesses.
func (b *PinBank) Pin(n int) *HostPin {
	d, ok := b.ByNumber(n)
	if !ok {
		return nil
	}
	return d.(*HostPin)
}

// HostPin is a pure in-memory pin with every capability enabled.
type HostPin struct {
	mu    sync.Mutex
	n     int
	level gpio.Level
	trig  gpio.Trigger
	isr   func()
}

func (p *HostPin) Number() int { return p.n }

func (p *HostPin) Caps() gpio.Caps {
	return gpio.Caps{
		Available: true, Input: true, Output: true,
		PullUp: true, PullDown: true, PullUpDown: true,
		OpenDrain: true, Interrupts: true, LevelTriggers: true,
	}
}

func (p *HostPin) Init(cfg gpio.Config) error {
	p.mu.Lock()
	p.level = cfg.InitialLevel
	p.mu.Unlock()
	return nil
}

func (p *HostPin) Deinit() error                     { return nil }
func (p *HostPin) SetDirection(gpio.Direction) error { return nil }
func (p *HostPin) SetPullMode(gpio.PullMode) error   { return nil }
func (p *HostPin) SetOutputMode(gpio.OutputMode) error {
	return nil
}

func (p *HostPin) WriteLevel(l gpio.Level) error {
	p.mu.Lock()
	p.level = l
	p.mu.Unlock()
	return nil
}

func (p *HostPin) ReadLevel() (gpio.Level, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level, nil
}

func (p *HostPin) Arm(t gpio.Trigger, cb func()) error {
	p.mu.Lock()
	p.trig, p.isr = t, cb
	p.mu.Unlock()
	return nil
}

func (p *HostPin) Disarm() error {
	p.mu.Lock()
	p.trig, p.isr = gpio.TriggerNone, nil
	p.mu.Unlock()
	return nil
}

// Drive sets the line from outside the chip and fires the armed
// handler on a transition, mimicking an edge interrupt.
func (p *HostPin) Drive(l gpio.Level) {
	p.mu.Lock()
	changed := p.level != l
	p.level = l
	isr := p.isr
	p.mu.Unlock()
	if changed && isr != nil {
		isr()
	}
}

// ---- adc ----

type adcBank struct {
	mu   sync.Mutex
	unit *hostADC
}

func (b *adcBank) ByID(id string) (adc.Driver, bool) {
	if id != "adc0" {
		return nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unit == nil {
		b.unit = &hostADC{}
	}
	return b.unit, true
}

// hostADC produces a deterministic per-channel triangle wave, enough
// to exercise averaging and millivolt scaling.
type hostADC struct {
	mu   sync.Mutex
	tick uint16
}

func (a *hostADC) Channels() int               { return 4 }
func (a *hostADC) Resolution() uint8           { return 12 }
func (a *hostADC) ReferenceMilliVolts() uint32 { return 3300 }
func (a *hostADC) Init() error                 { return nil }
func (a *hostADC) Deinit() error               { return nil }

func (a *hostADC) ReadCount(channel uint8) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tick++
	phase := (a.tick + uint16(channel)*256) % 2048
	if phase >= 1024 {
		phase = 2047 - phase
	}
	return uint32(mathx.MapU16(phase, 0, 1023, 0, 4095)), nil
}

// ---- i2c ----

type i2cBank struct {
	mu    sync.Mutex
	buses map[string]*HostI2C
}

func (b *i2cBank) ByID(id string) (drivers.I2C, bool) {
	if id != "i2c0" && id != "i2c1" {
		return nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buses == nil {
		b.buses = map[string]*HostI2C{}
	}
	bus, ok := b.buses[id]
	if !ok {
		bus = &HostI2C{mem: map[uint16][]byte{}}
		b.buses[id] = bus
	}
	return bus, true
}

// HostI2C is a memory-device bus fake: writes are stored per address
// and replayed on subsequent reads.
type HostI2C struct {
	mu  sync.Mutex
	mem map[uint16][]byte
}

func (b *HostI2C) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(w) > 0 {
		b.mem[addr] = append(b.mem[addr][:0], w...)
	}
	if len(r) > 0 {
		copy(r, b.mem[addr])
	}
	return nil
}

// ---- serial ----

type serialBank struct {
	mu    sync.Mutex
	ports map[string]*HostSerial
}

func (b *serialBank) ByID(id string) (hal.SerialPort, bool) {
	if id != "uart0" && id != "uart1" {
		return nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ports == nil {
		b.ports = map[string]*HostSerial{}
	}
	p, ok := b.ports[id]
	if !ok {
		p = &HostSerial{ch: make(chan byte, 1024)}
		b.ports[id] = p
	}
	return p, true
}

// HostSerial is a loopback port: written bytes come back on reads.
type HostSerial struct {
	ch   chan byte
	baud uint32
}

func (p *HostSerial) Write(b []byte) (int, error) {
	for i, c := range b {
		select {
		case p.ch <- c:
		default:
			return i, nil
		}
	}
	return len(b), nil
}

func (p *HostSerial) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case c := <-p.ch:
		buf[0] = c
	}
	n := 1
	for n < len(buf) {
		select {
		case c := <-p.ch:
			buf[n] = c
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

func (p *HostSerial) SetBaudRate(baud uint32) error {
	p.baud = baud
	return nil
}
