package gpio

// Caps describes what a concrete pin backend can do. The Pin core checks
// capabilities before touching hardware so unsupported requests fail fast
// with a specific code instead of a backend-dependent error.
type Caps struct {
	// Available is false while the pin is reserved for a non-GPIO function
	// (strapping, flash, debug).
	Available bool

	Input  bool
	Output bool

	PullUp     bool
	PullDown   bool
	PullUpDown bool

	OpenDrain bool

	// Interrupts covers edge triggers; LevelTriggers additionally covers
	// LowLevel/HighLevel arming.
	Interrupts    bool
	LevelTriggers bool
}

// Config is the hardware configuration a Driver applies on Init.
type Config struct {
	Direction    Direction
	Pull         PullMode
	Output       OutputMode
	InitialLevel Level // applied only when Direction is Output
}

// Driver is the platform contract behind a Pin. Implementations talk to a
// register block, an expander, or a test fake; they do not keep logical
// state — that is the Pin's job.
//
// Arm registers an interrupt handler that fires on the given trigger. The
// handler runs in interrupt (or interrupt-adjacent) context and must not
// block.
type Driver interface {
	Number() int
	Caps() Caps

	Init(cfg Config) error
	Deinit() error

	SetDirection(d Direction) error
	SetPullMode(m PullMode) error
	SetOutputMode(m OutputMode) error

	WriteLevel(l Level) error
	ReadLevel() (Level, error)

	Arm(t Trigger, isr func()) error
	Disarm() error
}
