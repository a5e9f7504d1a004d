package hal

import (
	"context"
	"time"

	"hardfoc-go/errcode"
	"hardfoc-go/gpio"
	"hardfoc-go/types"
)

func init() { RegisterBuilder("pin", pinBuilder{}) }

type pinBuilder struct{}

func (pinBuilder) Build(in BuildInput) (BuildOutput, error) {
	p, ok := decodeJSON[types.PinParams](in.Params)
	if !ok {
		return BuildOutput{}, &errcode.E{C: errcode.InvalidConfiguration, Op: "hal.build", Msg: in.DevID + ": bad pin params"}
	}
	if in.Res.Pins == nil {
		return BuildOutput{}, &errcode.E{C: errcode.ResourceUnavailable, Op: "hal.build", Msg: "no pin factory"}
	}
	drv, ok := in.Res.Pins.ByNumber(p.Pin)
	if !ok {
		return BuildOutput{}, &errcode.E{C: errcode.PinNotFound, Op: "hal.build", Msg: in.DevID}
	}

	dir, err := parseDirection(p.Direction)
	if err != nil {
		return BuildOutput{}, err
	}
	pull, err := parsePull(p.Pull)
	if err != nil {
		return BuildOutput{}, err
	}
	om, err := parseOutputMode(p.OutputMode)
	if err != nil {
		return BuildOutput{}, err
	}
	active := gpio.ActiveHigh
	if p.ActiveLow {
		active = gpio.ActiveLow
	}

	pin := gpio.NewPin(drv, gpio.PinConfig{
		Direction:    dir,
		ActiveState:  active,
		OutputMode:   om,
		PullMode:     pull,
		InitialState: gpio.State(p.Initial),
	})
	if !pin.EnsureInitialized() {
		return BuildOutput{}, &errcode.E{C: errcode.Failure, Op: "hal.build", Msg: in.DevID + ": pin init"}
	}

	out := BuildOutput{
		Adaptor:   &pinAdaptor{id: in.DevID, pin: pin, params: p},
		WorkerKey: "gpio",
	}
	if dir == gpio.Input && p.IRQ != nil {
		trig, err := parseTrigger(p.IRQ.Trigger)
		if err != nil {
			pin.EnsureDeinitialized()
			return BuildOutput{}, err
		}
		out.IRQ = &IRQRequest{Pin: pin, Trigger: trig, DebounceMS: p.IRQ.DebounceMS}
	}
	return out, nil
}

// pinAdaptor exposes one GPIO line as a "pin" capability: polled or
// on-demand value reads plus the full configuration verb set.
type pinAdaptor struct {
	id     string
	pin    *gpio.Pin
	params types.PinParams
}

func (a *pinAdaptor) DevID() string    { return a.id }
func (a *pinAdaptor) Kind() types.Kind { return types.KindPin }

func (a *pinAdaptor) Info() types.Info {
	dir := a.params.Direction
	if d, err := a.pin.Direction(); err == nil {
		if d == gpio.Output {
			dir = "output"
		} else {
			dir = "input"
		}
	}
	return types.Info{
		SchemaVersion: 1,
		Driver:        "gpio",
		Detail: types.PinInfo{
			Pin:       a.params.Pin,
			Direction: dir,
			ActiveLow: a.params.ActiveLow,
			Pull:      a.params.Pull,
		},
	}
}

func (a *pinAdaptor) Trigger() (time.Duration, error) { return 0, nil }

func (a *pinAdaptor) Collect(context.Context) ([]Sample, error) {
	v, err := a.read()
	if err != nil {
		return nil, err
	}
	return []Sample{{Kind: "value", Payload: v}}, nil
}

func (a *pinAdaptor) read() (types.PinValue, error) {
	s, err := a.pin.State()
	if err != nil {
		return types.PinValue{}, err
	}
	l, err := a.pin.Level()
	if err != nil {
		return types.PinValue{}, err
	}
	return types.PinValue{State: boolToInt(bool(s)), Level: boolToInt(bool(l))}, nil
}

func (a *pinAdaptor) Control(verb string, payload any) (any, error) {
	switch verb {
	case "set_state":
		req, ok := decodeJSON[struct {
			State bool `json:"state"`
		}](payload)
		if !ok {
			return nil, errcode.InvalidArgument
		}
		return nil, a.pin.SetState(gpio.State(req.State))

	case "get_state", "get_level":
		return a.read()

	case "set_level":
		req, ok := decodeJSON[struct {
			Level bool `json:"level"`
		}](payload)
		if !ok {
			return nil, errcode.InvalidArgument
		}
		return nil, a.pin.SetLevel(gpio.Level(req.Level))

	case "toggle":
		s, err := a.pin.State()
		if err != nil {
			return nil, err
		}
		return nil, a.pin.SetState(!s)

	case "set_direction":
		req, ok := decodeJSON[struct {
			Direction string `json:"direction"`
		}](payload)
		if !ok {
			return nil, errcode.InvalidArgument
		}
		d, err := parseDirection(req.Direction)
		if err != nil {
			return nil, err
		}
		return nil, a.pin.SetDirection(d)

	case "set_active_state":
		req, ok := decodeJSON[struct {
			ActiveLow bool `json:"active_low"`
		}](payload)
		if !ok {
			return nil, errcode.InvalidArgument
		}
		as := gpio.ActiveHigh
		if req.ActiveLow {
			as = gpio.ActiveLow
		}
		a.params.ActiveLow = req.ActiveLow
		a.pin.SetActiveState(as)
		return nil, nil

	case "set_pull":
		req, ok := decodeJSON[struct {
			Pull string `json:"pull"`
		}](payload)
		if !ok {
			return nil, errcode.InvalidArgument
		}
		pm, err := parsePull(req.Pull)
		if err != nil {
			return nil, err
		}
		if err := a.pin.SetPullMode(pm); err != nil {
			return nil, err
		}
		a.params.Pull = req.Pull
		return nil, nil

	case "set_output_mode":
		req, ok := decodeJSON[struct {
			Output string `json:"output"`
		}](payload)
		if !ok {
			return nil, errcode.InvalidArgument
		}
		m, err := parseOutputMode(req.Output)
		if err != nil {
			return nil, err
		}
		return nil, a.pin.SetOutputMode(m)

	case "irq_status":
		st := a.pin.InterruptStatus()
		return map[string]any{
			"enabled":      st.Enabled,
			"trigger":      edgeWord(st.Trigger),
			"count":        st.Count,
			"has_callback": st.HasCallback,
		}, nil

	case "clear_irq_count":
		a.pin.ClearInterruptCount()
		return nil, nil

	case "init":
		if !a.pin.EnsureInitialized() {
			return nil, errcode.Failure
		}
		return nil, nil

	case "deinit":
		if !a.pin.EnsureDeinitialized() {
			return nil, errcode.Failure
		}
		return nil, nil
	}
	return nil, ErrUnsupported
}

func (a *pinAdaptor) EventSamples(ev PinEvent) []Sample {
	out := []Sample{{Kind: "event", Payload: types.PinEvent{
		Edge:  edgeWord(ev.Trigger),
		Level: boolToInt(bool(ev.Level)),
		TS:    ev.TS,
	}}}
	if v, err := a.read(); err == nil {
		out = append(out, Sample{Kind: "value", Payload: v})
	}
	return out
}

func (a *pinAdaptor) Close() error {
	if !a.pin.EnsureDeinitialized() {
		return errcode.Failure
	}
	return nil
}
