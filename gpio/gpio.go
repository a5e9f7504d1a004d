// Package gpio provides the digital pin abstraction shared by every GPIO
// backend (on-chip MCU pins today, expander-style drivers later). A Pin pairs
// platform-neutral state keeping with a small Driver contract that concrete
// backends implement.
//
// A Pin is not safe for concurrent use from multiple goroutines. The one
// exception is the interrupt callback, which the backend invokes from an
// asynchronous notification context; callback bodies must be short and must
// not call back into the same Pin's configuration methods.
package gpio

// Level is the electrical level of a pin: Low or High.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l == High {
		return "High"
	}
	return "Low"
}

// State is the logical state of a pin, independent of electrical polarity.
type State bool

const (
	Inactive State = false
	Active   State = true
)

func (s State) String() string {
	if s == Active {
		return "Active"
	}
	return "Inactive"
}

// Direction selects input or output operation.
type Direction uint8

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "Input"
	case Output:
		return "Output"
	default:
		return "Unknown"
	}
}

// ActiveState maps the logical Active state onto an electrical level.
type ActiveState uint8

const (
	ActiveHigh ActiveState = iota
	ActiveLow
)

func (a ActiveState) String() string {
	switch a {
	case ActiveHigh:
		return "ActiveHigh"
	case ActiveLow:
		return "ActiveLow"
	default:
		return "Unknown"
	}
}

// LevelOf translates a logical state to the electrical level under this
// polarity.
func (a ActiveState) LevelOf(s State) Level {
	if a == ActiveHigh {
		return Level(s == Active)
	}
	return Level(s == Inactive)
}

// StateOf translates an electrical level to the logical state under this
// polarity.
func (a ActiveState) StateOf(l Level) State {
	if a == ActiveHigh {
		return State(l == High)
	}
	return State(l == Low)
}

// PullMode configures the internal pull resistor of a pin.
type PullMode uint8

const (
	Floating PullMode = iota
	PullUp
	PullDown
	PullUpDown
)

func (m PullMode) String() string {
	switch m {
	case Floating:
		return "Floating"
	case PullUp:
		return "PullUp"
	case PullDown:
		return "PullDown"
	case PullUpDown:
		return "PullUpDown"
	default:
		return "Unknown"
	}
}

// OutputMode selects the output driver stage.
type OutputMode uint8

const (
	PushPull OutputMode = iota
	OpenDrain
)

func (m OutputMode) String() string {
	switch m {
	case PushPull:
		return "PushPull"
	case OpenDrain:
		return "OpenDrain"
	default:
		return "Unknown"
	}
}

// Trigger selects the interrupt arming condition.
type Trigger uint8

const (
	TriggerNone Trigger = iota
	RisingEdge
	FallingEdge
	BothEdges
	LowLevel
	HighLevel
)

func (t Trigger) String() string {
	switch t {
	case TriggerNone:
		return "None"
	case RisingEdge:
		return "RisingEdge"
	case FallingEdge:
		return "FallingEdge"
	case BothEdges:
		return "BothEdges"
	case LowLevel:
		return "LowLevel"
	case HighLevel:
		return "HighLevel"
	default:
		return "Unknown"
	}
}

// IsEdge reports whether the trigger fires on transitions rather than
// sustained levels.
func (t Trigger) IsEdge() bool {
	return t == RisingEdge || t == FallingEdge || t == BothEdges
}
