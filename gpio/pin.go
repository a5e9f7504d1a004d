package gpio

import (
	"sync/atomic"

	"hardfoc-go/errcode"
)

// PinConfig is the construction-time configuration of a Pin. The zero value
// means: input, active-high, push-pull, floating, logically inactive.
type PinConfig struct {
	Direction   Direction
	ActiveState ActiveState
	OutputMode  OutputMode
	PullMode    PullMode
	// InitialState is the logical state driven after initialization when the
	// pin is an output.
	InitialState State
}

// Pin is the platform-neutral digital pin. Construction is free of hardware
// I/O; resources are claimed lazily by EnsureInitialized and released by
// EnsureDeinitialized. All configuration and I/O operations other than the
// lifecycle pair fail with errcode.NotInitialized until the pin is
// initialized.
type Pin struct {
	drv Driver

	initialized bool
	dir         Direction
	polarity    ActiveState
	output      OutputMode
	pull        PullMode
	initial     State

	trigger  Trigger
	irqOn    bool
	cb       func()
	irqCount uint32 // incremented from interrupt context
}

// NewPin wraps a Driver. The driver supplies the pin identity and the
// hardware primitives; cfg supplies the configuration applied on first
// initialization.
func NewPin(drv Driver, cfg PinConfig) *Pin {
	return &Pin{
		drv:      drv,
		dir:      cfg.Direction,
		polarity: cfg.ActiveState,
		output:   cfg.OutputMode,
		pull:     cfg.PullMode,
		initial:  cfg.InitialState,
	}
}

// Number returns the platform-scoped pin identifier.
func (p *Pin) Number() int {
	if p.drv == nil {
		return -1
	}
	return p.drv.Number()
}

// IsInitialized reports whether hardware resources are currently claimed.
func (p *Pin) IsInitialized() bool { return p.initialized }

// EnsureInitialized claims hardware resources if they are not claimed yet.
// Calling it again while initialized is a no-op success.
func (p *Pin) EnsureInitialized() bool {
	if p.initialized {
		return true
	}
	if p.drv == nil {
		return false
	}
	cfg := Config{
		Direction:    p.dir,
		Pull:         p.pull,
		Output:       p.output,
		InitialLevel: p.polarity.LevelOf(p.initial),
	}
	if err := p.drv.Init(cfg); err != nil {
		return false
	}
	p.initialized = true
	return true
}

// EnsureDeinitialized releases hardware resources. Calling it on a pin that
// was never initialized is a no-op success. An armed interrupt is disarmed
// first so the hardware cannot call into a released pin.
func (p *Pin) EnsureDeinitialized() bool {
	if !p.initialized {
		return true
	}
	if p.irqOn {
		_ = p.drv.Disarm()
		p.irqOn = false
		p.cb = nil
		p.trigger = TriggerNone
	}
	if err := p.drv.Deinit(); err != nil {
		return false
	}
	p.initialized = false
	return true
}

// validate is the per-operation guard shared by everything except the
// lifecycle pair and pure metadata accessors.
func (p *Pin) validate() error {
	if p.drv == nil {
		return errcode.NullPointer
	}
	if !p.initialized {
		return errcode.NotInitialized
	}
	if !p.drv.Caps().Available {
		return errcode.PinAccessDenied
	}
	return nil
}

// opErr keeps a backend-supplied errcode, otherwise folds the cause into the
// operation's characteristic failure code.
func opErr(op string, err error, fallback errcode.Code) error {
	if err == nil {
		return nil
	}
	c := errcode.Of(err)
	if c == errcode.DriverError {
		c = fallback
	}
	return &errcode.E{C: c, Op: op, Err: err}
}

// SetDirection switches the pin between input and output operation.
// Direction-fixed pins report errcode.Unsupported.
func (p *Pin) SetDirection(d Direction) error {
	if err := p.validate(); err != nil {
		return err
	}
	c := p.drv.Caps()
	if (d == Input && !c.Input) || (d == Output && !c.Output) {
		return errcode.Unsupported
	}
	if err := p.drv.SetDirection(d); err != nil {
		return opErr("gpio.set_direction", err, errcode.HardwareFault)
	}
	p.dir = d
	return nil
}

// Direction returns the current direction.
func (p *Pin) Direction() (Direction, error) {
	if err := p.validate(); err != nil {
		return Input, err
	}
	return p.dir, nil
}

// SetActiveState configures the polarity mapping between logical state and
// electrical level. This is pure metadata: it does not touch hardware and
// does not force a re-read; it changes how every subsequent logical read and
// write is interpreted. It is legal before initialization.
func (p *Pin) SetActiveState(a ActiveState) { p.polarity = a }

// ActiveState returns the configured polarity.
func (p *Pin) ActiveState() ActiveState { return p.polarity }

// SetLevel drives the raw electrical level, bypassing polarity translation.
func (p *Pin) SetLevel(l Level) error {
	if err := p.validate(); err != nil {
		return err
	}
	if p.dir != Output {
		return errcode.DirectionMismatch
	}
	if err := p.drv.WriteLevel(l); err != nil {
		return opErr("gpio.set_level", err, errcode.WriteFailure)
	}
	return nil
}

// Level reads the raw electrical level.
func (p *Pin) Level() (Level, error) {
	if err := p.validate(); err != nil {
		return Low, err
	}
	l, err := p.drv.ReadLevel()
	if err != nil {
		return Low, opErr("gpio.get_level", err, errcode.ReadFailure)
	}
	return l, nil
}

// SetState drives the logical state, translated to an electrical level
// through the active-state polarity.
func (p *Pin) SetState(s State) error {
	if err := p.validate(); err != nil {
		return err
	}
	if p.dir != Output {
		return errcode.DirectionMismatch
	}
	if err := p.drv.WriteLevel(p.polarity.LevelOf(s)); err != nil {
		return opErr("gpio.set_state", err, errcode.WriteFailure)
	}
	return nil
}

// State reads the logical state, translated through the active-state
// polarity. Reads are legal for both directions.
func (p *Pin) State() (State, error) {
	l, err := p.Level()
	if err != nil {
		return Inactive, err
	}
	return p.polarity.StateOf(l), nil
}

// SetPullMode configures the internal pull resistor. A pin without any pull
// capability reports errcode.Unsupported; a pin that has pulls but cannot
// satisfy the requested combination reports errcode.PullResistorFailure.
func (p *Pin) SetPullMode(m PullMode) error {
	if err := p.validate(); err != nil {
		return err
	}
	c := p.drv.Caps()
	if m != Floating {
		if !c.PullUp && !c.PullDown {
			return errcode.Unsupported
		}
		switch m {
		case PullUp:
			if !c.PullUp {
				return errcode.PullResistorFailure
			}
		case PullDown:
			if !c.PullDown {
				return errcode.PullResistorFailure
			}
		case PullUpDown:
			if !c.PullUpDown {
				return errcode.PullResistorFailure
			}
		}
	}
	if err := p.drv.SetPullMode(m); err != nil {
		return opErr("gpio.set_pull", err, errcode.PullResistorFailure)
	}
	p.pull = m
	return nil
}

// PullMode returns the configured pull resistor mode.
func (p *Pin) PullMode() (PullMode, error) {
	if err := p.validate(); err != nil {
		return Floating, err
	}
	return p.pull, nil
}

// SetOutputMode selects push-pull or open-drain output drive. Valid only
// while the pin is an output.
func (p *Pin) SetOutputMode(m OutputMode) error {
	if err := p.validate(); err != nil {
		return err
	}
	if p.dir != Output {
		return errcode.DirectionMismatch
	}
	if m == OpenDrain && !p.drv.Caps().OpenDrain {
		return errcode.Unsupported
	}
	if err := p.drv.SetOutputMode(m); err != nil {
		return opErr("gpio.set_output_mode", err, errcode.HardwareFault)
	}
	p.output = m
	return nil
}

// OutputMode returns the configured output drive mode.
func (p *Pin) OutputMode() (OutputMode, error) {
	if err := p.validate(); err != nil {
		return PushPull, err
	}
	return p.output, nil
}

// EnableInterrupt arms the trigger and registers cb to be invoked from an
// asynchronous notification context whenever the condition occurs. The pin
// exclusively owns cb until it is replaced or the interrupt is disabled.
// Only one trigger/callback pair may be armed at a time.
func (p *Pin) EnableInterrupt(t Trigger, cb func()) error {
	if err := p.validate(); err != nil {
		return err
	}
	c := p.drv.Caps()
	if !c.Interrupts {
		return errcode.InterruptNotSupported
	}
	if !t.IsEdge() && t != TriggerNone && !c.LevelTriggers {
		return errcode.InterruptNotSupported
	}
	if p.dir != Input {
		return errcode.DirectionMismatch
	}
	if t == TriggerNone {
		return errcode.InvalidParameter
	}
	if cb == nil {
		return errcode.NullPointer
	}
	if p.irqOn {
		return errcode.InterruptAlreadyEnabled
	}
	wrapped := func() {
		atomic.AddUint32(&p.irqCount, 1)
		cb()
	}
	if err := p.drv.Arm(t, wrapped); err != nil {
		return opErr("gpio.enable_interrupt", err, errcode.HardwareFault)
	}
	p.trigger = t
	p.cb = cb
	p.irqOn = true
	return nil
}

// DisableInterrupt disarms the trigger and drops the callback. Calling it
// with no interrupt armed returns errcode.InterruptNotEnabled as an
// informative status; the pin is otherwise unchanged.
func (p *Pin) DisableInterrupt() error {
	if err := p.validate(); err != nil {
		return err
	}
	if !p.irqOn {
		return errcode.InterruptNotEnabled
	}
	if err := p.drv.Disarm(); err != nil {
		return opErr("gpio.disable_interrupt", err, errcode.HardwareFault)
	}
	p.irqOn = false
	p.cb = nil
	p.trigger = TriggerNone
	return nil
}

// IsInterruptEnabled reports whether a trigger is currently armed.
func (p *Pin) IsInterruptEnabled() bool { return p.irqOn }

// IRQStatus is a snapshot of the interrupt configuration and statistics.
type IRQStatus struct {
	Enabled     bool
	Trigger     Trigger
	Count       uint32
	HasCallback bool
}

// InterruptStatus returns the current interrupt snapshot.
func (p *Pin) InterruptStatus() IRQStatus {
	return IRQStatus{
		Enabled:     p.irqOn,
		Trigger:     p.trigger,
		Count:       atomic.LoadUint32(&p.irqCount),
		HasCallback: p.cb != nil,
	}
}

// ClearInterruptCount resets the interrupt counter.
func (p *Pin) ClearInterruptCount() { atomic.StoreUint32(&p.irqCount, 0) }

// ---- Convenience layer ----
//
// Derived purely from the operations above; collapses failure detail to a
// boolean for ergonomic call sites.

// SetActive drives the logical active state.
func (p *Pin) SetActive() bool { return p.SetState(Active) == nil }

// SetInactive drives the logical inactive state.
func (p *Pin) SetInactive() bool { return p.SetState(Inactive) == nil }

// IsActive reports whether the pin currently reads logically active.
func (p *Pin) IsActive() bool {
	s, err := p.State()
	return err == nil && s == Active
}

// Toggle reads the logical state and writes its complement.
func (p *Pin) Toggle() bool {
	s, err := p.State()
	if err != nil {
		return false
	}
	return p.SetState(!s) == nil
}

// SetHigh drives the raw electrical high level.
func (p *Pin) SetHigh() bool { return p.SetLevel(High) == nil }

// SetLow drives the raw electrical low level.
func (p *Pin) SetLow() bool { return p.SetLevel(Low) == nil }

// IsHigh reports whether the line currently reads electrically high.
func (p *Pin) IsHigh() bool {
	l, err := p.Level()
	return err == nil && l == High
}

// IsLow reports whether the line currently reads electrically low.
func (p *Pin) IsLow() bool {
	l, err := p.Level()
	return err == nil && l == Low
}
