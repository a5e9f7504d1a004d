package gpio

import (
	"hardfoc-go/errcode"
)

// OutputGuard drives a pin active for the duration of a scope: construction
// ensures the pin is an output and sets it active, Close sets it inactive
// again. Intended for defer-based use around enable lines, chip selects and
// similar "held active" signals.
type OutputGuard struct {
	pin  *Pin
	held bool
}

// NewOutputGuard switches p to output mode if needed and drives it active.
// The pin must already be initialized.
func NewOutputGuard(p *Pin) (*OutputGuard, error) {
	if p == nil {
		return nil, errcode.NullPointer
	}
	d, err := p.Direction()
	if err != nil {
		return nil, err
	}
	if d != Output {
		if err := p.SetDirection(Output); err != nil {
			return nil, err
		}
	}
	if err := p.SetState(Active); err != nil {
		return nil, err
	}
	return &OutputGuard{pin: p, held: true}, nil
}

// Close drives the pin inactive. Closing an already-closed guard is a no-op.
func (g *OutputGuard) Close() error {
	if g == nil || !g.held {
		return nil
	}
	g.held = false
	return g.pin.SetState(Inactive)
}
