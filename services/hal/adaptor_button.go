package hal

import (
	"context"
	"time"

	"hardfoc-go/errcode"
	"hardfoc-go/gpio"
	"hardfoc-go/types"
)

func init() { RegisterBuilder("button", buttonBuilder{}) }

const buttonDebounceMS = 20

type buttonBuilder struct{}

func (buttonBuilder) Build(in BuildInput) (BuildOutput, error) {
	p, ok := decodeJSON[types.ButtonParams](in.Params)
	if !ok {
		return BuildOutput{}, &errcode.E{C: errcode.InvalidConfiguration, Op: "hal.build", Msg: in.DevID + ": bad button params"}
	}
	if in.Res.Pins == nil {
		return BuildOutput{}, &errcode.E{C: errcode.ResourceUnavailable, Op: "hal.build", Msg: "no pin factory"}
	}
	drv, ok := in.Res.Pins.ByNumber(p.Pin)
	if !ok {
		return BuildOutput{}, &errcode.E{C: errcode.PinNotFound, Op: "hal.build", Msg: in.DevID}
	}
	pull, err := parsePull(p.Pull)
	if err != nil {
		return BuildOutput{}, err
	}
	active := gpio.ActiveHigh
	if p.ActiveLow {
		active = gpio.ActiveLow
	}
	pin := gpio.NewPin(drv, gpio.PinConfig{
		Direction:   gpio.Input,
		ActiveState: active,
		PullMode:    pull,
	})
	if !pin.EnsureInitialized() {
		return BuildOutput{}, &errcode.E{C: errcode.Failure, Op: "hal.build", Msg: in.DevID + ": pin init"}
	}
	debounce := p.DebounceMS
	if debounce == 0 {
		debounce = buttonDebounceMS
	}
	return BuildOutput{
		Adaptor:   &buttonAdaptor{id: in.DevID, pin: pin, params: p},
		WorkerKey: "gpio",
		IRQ:       &IRQRequest{Pin: pin, Trigger: gpio.BothEdges, DebounceMS: debounce},
	}, nil
}

// buttonAdaptor reduces a debounced input line to a pressed flag. The
// interrupt path drives the retained value; polls and "read" verbs do
// a direct sample.
type buttonAdaptor struct {
	id     string
	pin    *gpio.Pin
	params types.ButtonParams
}

func (a *buttonAdaptor) DevID() string    { return a.id }
func (a *buttonAdaptor) Kind() types.Kind { return types.KindButton }

func (a *buttonAdaptor) Info() types.Info {
	return types.Info{SchemaVersion: 1, Driver: "gpio", Detail: types.ButtonInfo{Pin: a.params.Pin}}
}

func (a *buttonAdaptor) Trigger() (time.Duration, error) { return 0, nil }

func (a *buttonAdaptor) Collect(context.Context) ([]Sample, error) {
	s, err := a.pin.State()
	if err != nil {
		return nil, err
	}
	return []Sample{{Kind: "value", Payload: types.ButtonValue{Pressed: s == gpio.Active}}}, nil
}

func (a *buttonAdaptor) Control(verb string, payload any) (any, error) {
	switch verb {
	case "get_state":
		s, err := a.pin.State()
		if err != nil {
			return nil, err
		}
		return types.ButtonValue{Pressed: s == gpio.Active}, nil
	case "irq_status":
		st := a.pin.InterruptStatus()
		return map[string]any{
			"enabled": st.Enabled,
			"trigger": edgeWord(st.Trigger),
			"count":   st.Count,
		}, nil
	}
	return nil, ErrUnsupported
}

func (a *buttonAdaptor) EventSamples(ev PinEvent) []Sample {
	pressed := a.pin.ActiveState().StateOf(ev.Level) == gpio.Active
	return []Sample{
		{Kind: "event", Payload: types.PinEvent{
			Edge:  edgeWord(ev.Trigger),
			Level: boolToInt(bool(ev.Level)),
			TS:    ev.TS,
		}},
		{Kind: "value", Payload: types.ButtonValue{Pressed: pressed}},
	}
}

func (a *buttonAdaptor) Close() error {
	if !a.pin.EnsureDeinitialized() {
		return errcode.Failure
	}
	return nil
}
