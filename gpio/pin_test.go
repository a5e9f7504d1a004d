package gpio

import (
	"testing"

	"hardfoc-go/errcode"
)

// ---- fake driver ----

type fakeDriver struct {
	num  int
	caps Caps

	inits   int
	deinits int
	cfg     Config

	dir     Direction
	pull    PullMode
	outMode OutputMode
	level   Level

	armed Trigger
	isr   func()

	initErr  error
	writeErr error
	readErr  error
}

func fullCaps() Caps {
	return Caps{
		Available: true,
		Input:     true, Output: true,
		PullUp: true, PullDown: true, PullUpDown: true,
		OpenDrain:  true,
		Interrupts: true, LevelTriggers: true,
	}
}

func newFakeDriver(num int) *fakeDriver {
	return &fakeDriver{num: num, caps: fullCaps()}
}

func (f *fakeDriver) Number() int { return f.num }
func (f *fakeDriver) Caps() Caps  { return f.caps }

func (f *fakeDriver) Init(cfg Config) error {
	if f.initErr != nil {
		return f.initErr
	}
	f.inits++
	f.cfg = cfg
	f.dir = cfg.Direction
	f.pull = cfg.Pull
	f.outMode = cfg.Output
	if cfg.Direction == Output {
		f.level = cfg.InitialLevel
	}
	return nil
}

func (f *fakeDriver) Deinit() error { f.deinits++; return nil }

func (f *fakeDriver) SetDirection(d Direction) error  { f.dir = d; return nil }
func (f *fakeDriver) SetPullMode(m PullMode) error    { f.pull = m; return nil }
func (f *fakeDriver) SetOutputMode(m OutputMode) error { f.outMode = m; return nil }

func (f *fakeDriver) WriteLevel(l Level) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.level = l
	return nil
}

func (f *fakeDriver) ReadLevel() (Level, error) {
	if f.readErr != nil {
		return Low, f.readErr
	}
	return f.level, nil
}

func (f *fakeDriver) Arm(t Trigger, isr func()) error { f.armed, f.isr = t, isr; return nil }
func (f *fakeDriver) Disarm() error                   { f.armed, f.isr = TriggerNone, nil; return nil }

// fire simulates a hardware event on the armed trigger.
func (f *fakeDriver) fire() {
	if f.isr != nil {
		f.isr()
	}
}

var _ Driver = (*fakeDriver)(nil)

func wantCode(t *testing.T, err error, c errcode.Code) {
	t.Helper()
	if errcode.Of(err) != c {
		t.Fatalf("want %v, got %v (err=%v)", c, errcode.Of(err), err)
	}
}

func mustInit(t *testing.T, p *Pin) {
	t.Helper()
	if !p.EnsureInitialized() {
		t.Fatal("EnsureInitialized failed")
	}
}

// ---- lifecycle ----

func TestPin_OpsRejectedBeforeInit(t *testing.T) {
	p := NewPin(newFakeDriver(4), PinConfig{})

	if err := p.SetDirection(Output); errcode.Of(err) != errcode.NotInitialized {
		t.Fatalf("SetDirection: %v", err)
	}
	if _, err := p.State(); errcode.Of(err) != errcode.NotInitialized {
		t.Fatalf("State: %v", err)
	}
	if _, err := p.Level(); errcode.Of(err) != errcode.NotInitialized {
		t.Fatalf("Level: %v", err)
	}
	if err := p.SetPullMode(PullUp); errcode.Of(err) != errcode.NotInitialized {
		t.Fatalf("SetPullMode: %v", err)
	}
	if err := p.EnableInterrupt(RisingEdge, func() {}); errcode.Of(err) != errcode.NotInitialized {
		t.Fatalf("EnableInterrupt: %v", err)
	}
	if p.SetActive() || p.Toggle() || p.SetHigh() {
		t.Fatal("convenience ops must report false before init")
	}
}

func TestPin_EnsureInitializedIdempotent(t *testing.T) {
	d := newFakeDriver(4)
	p := NewPin(d, PinConfig{})

	if !p.EnsureInitialized() || !p.EnsureInitialized() {
		t.Fatal("EnsureInitialized must succeed both times")
	}
	if d.inits != 1 {
		t.Fatalf("hardware allocated %d times, want 1", d.inits)
	}
	if !p.IsInitialized() {
		t.Fatal("IsInitialized false after init")
	}
}

func TestPin_EnsureDeinitializedOnFreshPin(t *testing.T) {
	d := newFakeDriver(4)
	p := NewPin(d, PinConfig{})

	if !p.EnsureDeinitialized() {
		t.Fatal("deinit of never-initialized pin must be a no-op success")
	}
	if d.deinits != 0 {
		t.Fatal("driver touched on no-op deinit")
	}
}

func TestPin_InitFailurePropagates(t *testing.T) {
	d := newFakeDriver(4)
	d.initErr = errcode.HardwareFault
	p := NewPin(d, PinConfig{})

	if p.EnsureInitialized() {
		t.Fatal("init must fail")
	}
	if p.IsInitialized() {
		t.Fatal("pin marked initialized after failed init")
	}
}

func TestPin_DeinitReleasesAndAllowsReinit(t *testing.T) {
	d := newFakeDriver(4)
	p := NewPin(d, PinConfig{})
	mustInit(t, p)

	if !p.EnsureDeinitialized() {
		t.Fatal("deinit failed")
	}
	if d.deinits != 1 {
		t.Fatalf("deinits=%d, want 1", d.deinits)
	}
	mustInit(t, p)
	if d.inits != 2 {
		t.Fatalf("inits=%d, want 2", d.inits)
	}
}

// ---- polarity ----

func TestPin_StateLevelPolarityMatrix(t *testing.T) {
	cases := []struct {
		polarity ActiveState
		state    State
		want     Level
	}{
		{ActiveHigh, Active, High},
		{ActiveHigh, Inactive, Low},
		{ActiveLow, Active, Low},
		{ActiveLow, Inactive, High},
	}
	for _, c := range cases {
		d := newFakeDriver(1)
		p := NewPin(d, PinConfig{Direction: Output, ActiveState: c.polarity})
		mustInit(t, p)

		if err := p.SetState(c.state); err != nil {
			t.Fatalf("%v/%v: SetState: %v", c.polarity, c.state, err)
		}
		l, err := p.Level()
		if err != nil {
			t.Fatalf("%v/%v: Level: %v", c.polarity, c.state, err)
		}
		if l != c.want {
			t.Fatalf("%v/%v: level=%v, want %v", c.polarity, c.state, l, c.want)
		}
	}
}

func TestPin_SetActiveStateIsMetadataOnly(t *testing.T) {
	d := newFakeDriver(1)
	p := NewPin(d, PinConfig{Direction: Output})
	mustInit(t, p)

	if !p.SetActive() {
		t.Fatal("SetActive failed")
	}
	if d.level != High {
		t.Fatalf("line=%v, want High", d.level)
	}

	// Flipping polarity must not move the line, only its interpretation.
	p.SetActiveState(ActiveLow)
	if d.level != High {
		t.Fatal("polarity change moved the electrical level")
	}
	if p.IsActive() {
		t.Fatal("line High must read Inactive under ActiveLow")
	}
}

func TestPin_ToggleRoundTrip(t *testing.T) {
	d := newFakeDriver(1)
	p := NewPin(d, PinConfig{Direction: Output})
	mustInit(t, p)

	if !p.SetActive() {
		t.Fatal("SetActive failed")
	}
	if !p.Toggle() {
		t.Fatal("first toggle failed")
	}
	if p.IsActive() {
		t.Fatal("still active after one toggle")
	}
	if !p.Toggle() {
		t.Fatal("second toggle failed")
	}
	if !p.IsActive() {
		t.Fatal("toggle twice did not restore the original state")
	}
}

// ---- direction ----

func TestPin_WriteOnInputIsDirectionMismatch(t *testing.T) {
	d := newFakeDriver(1)
	p := NewPin(d, PinConfig{Direction: Input})
	mustInit(t, p)

	wantCode(t, p.SetState(Active), errcode.DirectionMismatch)
	wantCode(t, p.SetLevel(High), errcode.DirectionMismatch)

	// Reads stay legal on inputs.
	d.level = High
	if _, err := p.State(); err != nil {
		t.Fatalf("State on input: %v", err)
	}
	if !p.IsHigh() {
		t.Fatal("IsHigh on input")
	}
}

func TestPin_DirectionFixedPin(t *testing.T) {
	d := newFakeDriver(1)
	d.caps.Output = false // input-only pin
	p := NewPin(d, PinConfig{Direction: Input})
	mustInit(t, p)

	wantCode(t, p.SetDirection(Output), errcode.Unsupported)
	got, err := p.Direction()
	if err != nil || got != Input {
		t.Fatalf("direction after rejected switch: %v, %v", got, err)
	}
}

// ---- pull + output mode ----

func TestPin_PullModeCapabilities(t *testing.T) {
	d := newFakeDriver(1)
	p := NewPin(d, PinConfig{})
	mustInit(t, p)

	if err := p.SetPullMode(PullUp); err != nil {
		t.Fatalf("PullUp: %v", err)
	}
	if d.pull != PullUp {
		t.Fatalf("driver pull=%v", d.pull)
	}

	d.caps.PullUpDown = false
	wantCode(t, p.SetPullMode(PullUpDown), errcode.PullResistorFailure)

	d.caps.PullUp, d.caps.PullDown = false, false
	wantCode(t, p.SetPullMode(PullDown), errcode.Unsupported)

	// Floating is always allowed.
	if err := p.SetPullMode(Floating); err != nil {
		t.Fatalf("Floating: %v", err)
	}
}

func TestPin_OutputMode(t *testing.T) {
	d := newFakeDriver(1)
	p := NewPin(d, PinConfig{Direction: Input})
	mustInit(t, p)

	wantCode(t, p.SetOutputMode(OpenDrain), errcode.DirectionMismatch)

	if err := p.SetDirection(Output); err != nil {
		t.Fatalf("SetDirection: %v", err)
	}
	if err := p.SetOutputMode(OpenDrain); err != nil {
		t.Fatalf("OpenDrain: %v", err)
	}

	d.caps.OpenDrain = false
	wantCode(t, p.SetOutputMode(OpenDrain), errcode.Unsupported)
}

// ---- interrupts ----

func TestPin_InterruptNotSupported(t *testing.T) {
	d := newFakeDriver(1)
	d.caps.Interrupts = false
	p := NewPin(d, PinConfig{Direction: Input})
	mustInit(t, p)

	wantCode(t, p.EnableInterrupt(RisingEdge, func() {}), errcode.InterruptNotSupported)
	if p.IsInterruptEnabled() {
		t.Fatal("interrupt reported enabled after rejection")
	}
}

func TestPin_LevelTriggerCapability(t *testing.T) {
	d := newFakeDriver(1)
	d.caps.LevelTriggers = false
	p := NewPin(d, PinConfig{Direction: Input})
	mustInit(t, p)

	wantCode(t, p.EnableInterrupt(LowLevel, func() {}), errcode.InterruptNotSupported)
	if err := p.EnableInterrupt(FallingEdge, func() {}); err != nil {
		t.Fatalf("edge trigger: %v", err)
	}
}

func TestPin_InterruptOnOutputIsDirectionMismatch(t *testing.T) {
	d := newFakeDriver(1)
	p := NewPin(d, PinConfig{Direction: Output})
	mustInit(t, p)

	wantCode(t, p.EnableInterrupt(BothEdges, func() {}), errcode.DirectionMismatch)
}

func TestPin_InterruptSingleOwner(t *testing.T) {
	d := newFakeDriver(1)
	p := NewPin(d, PinConfig{Direction: Input})
	mustInit(t, p)

	first := 0
	if err := p.EnableInterrupt(RisingEdge, func() { first++ }); err != nil {
		t.Fatalf("enable: %v", err)
	}
	wantCode(t, p.EnableInterrupt(FallingEdge, func() {}), errcode.InterruptAlreadyEnabled)

	// The originally registered callback stays armed.
	d.fire()
	if first != 1 {
		t.Fatalf("original callback fired %d times, want 1", first)
	}
	st := p.InterruptStatus()
	if !st.Enabled || st.Trigger != RisingEdge || st.Count != 1 || !st.HasCallback {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestPin_DisableInterrupt(t *testing.T) {
	d := newFakeDriver(1)
	p := NewPin(d, PinConfig{Direction: Input})
	mustInit(t, p)

	wantCode(t, p.DisableInterrupt(), errcode.InterruptNotEnabled)

	if err := p.EnableInterrupt(BothEdges, func() {}); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := p.DisableInterrupt(); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if p.IsInterruptEnabled() || d.isr != nil {
		t.Fatal("interrupt still armed after disable")
	}
	// Re-arming after disable is legal.
	if err := p.EnableInterrupt(RisingEdge, func() {}); err != nil {
		t.Fatalf("re-enable: %v", err)
	}
}

func TestPin_DeinitDisarmsInterrupt(t *testing.T) {
	d := newFakeDriver(1)
	p := NewPin(d, PinConfig{Direction: Input})
	mustInit(t, p)

	if err := p.EnableInterrupt(RisingEdge, func() {}); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !p.EnsureDeinitialized() {
		t.Fatal("deinit failed")
	}
	if d.isr != nil {
		t.Fatal("hardware still armed after deinit")
	}
	if p.IsInterruptEnabled() {
		t.Fatal("interrupt flag survived deinit")
	}
}

func TestPin_ClearInterruptCount(t *testing.T) {
	d := newFakeDriver(1)
	p := NewPin(d, PinConfig{Direction: Input})
	mustInit(t, p)

	if err := p.EnableInterrupt(BothEdges, func() {}); err != nil {
		t.Fatalf("enable: %v", err)
	}
	d.fire()
	d.fire()
	if got := p.InterruptStatus().Count; got != 2 {
		t.Fatalf("count=%d, want 2", got)
	}
	p.ClearInterruptCount()
	if got := p.InterruptStatus().Count; got != 0 {
		t.Fatalf("count=%d after clear, want 0", got)
	}
}

// ---- scenario from the data sheet walk-through ----

func TestPin_ActiveLowInputWithPullUp(t *testing.T) {
	d := newFakeDriver(9)
	p := NewPin(d, PinConfig{
		Direction:   Input,
		ActiveState: ActiveLow,
		PullMode:    PullUp,
	})
	mustInit(t, p)

	// Pulled-up line reads High -> logically inactive.
	d.level = High
	if p.IsActive() {
		t.Fatal("pulled-up ActiveLow input must read inactive")
	}
	// External pulldown event brings the line Low -> logically active.
	d.level = Low
	if !p.IsActive() {
		t.Fatal("grounded ActiveLow input must read active")
	}
}

// ---- error folding ----

func TestPin_DriverErrorsFoldToOperationCodes(t *testing.T) {
	d := newFakeDriver(1)
	p := NewPin(d, PinConfig{Direction: Output})
	mustInit(t, p)

	d.writeErr = errTest("bus glitch")
	wantCode(t, p.SetLevel(High), errcode.WriteFailure)
	d.writeErr = nil

	d.readErr = errTest("bus glitch")
	if _, err := p.Level(); errcode.Of(err) != errcode.ReadFailure {
		t.Fatalf("read: %v", err)
	}
}

func TestPin_DriverSuppliedCodePassesThrough(t *testing.T) {
	d := newFakeDriver(1)
	p := NewPin(d, PinConfig{Direction: Output})
	mustInit(t, p)

	d.writeErr = errcode.Timeout
	wantCode(t, p.SetLevel(High), errcode.Timeout)
}

func TestPin_UnavailablePinIsAccessDenied(t *testing.T) {
	d := newFakeDriver(1)
	p := NewPin(d, PinConfig{Direction: Output})
	mustInit(t, p)

	d.caps.Available = false
	wantCode(t, p.SetLevel(High), errcode.PinAccessDenied)
}

type errTest string

func (e errTest) Error() string { return string(e) }
