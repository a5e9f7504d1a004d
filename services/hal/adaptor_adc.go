package hal

import (
	"context"
	"time"

	"hardfoc-go/adc"
	"hardfoc-go/errcode"
	"hardfoc-go/types"
)

func init() { RegisterBuilder("adc_channel", adcBuilder{}) }

const defaultADCUnit = "adc0"

type adcBuilder struct{}

func (adcBuilder) Build(in BuildInput) (BuildOutput, error) {
	p, ok := decodeJSON[types.ADCParams](in.Params)
	if !ok {
		return BuildOutput{}, &errcode.E{C: errcode.InvalidConfiguration, Op: "hal.build", Msg: in.DevID + ": bad adc params"}
	}
	uid := p.Unit
	if uid == "" {
		uid = defaultADCUnit
	}

	unit, claimed := in.Units[uid]
	if !claimed {
		if in.Res.ADCs == nil {
			return BuildOutput{}, &errcode.E{C: errcode.ResourceUnavailable, Op: "hal.build", Msg: "no adc factory"}
		}
		drv, ok := in.Res.ADCs.ByID(uid)
		if !ok {
			return BuildOutput{}, &errcode.E{C: errcode.ResourceUnavailable, Op: "hal.build", Msg: "adc unit " + uid}
		}
		unit = adc.New(drv)
		if !unit.EnsureInitialized() {
			return BuildOutput{}, &errcode.E{C: errcode.Failure, Op: "hal.build", Msg: uid + ": adc init"}
		}
		in.Units[uid] = unit
	}

	return BuildOutput{
		Adaptor: &adcAdaptor{
			id:   in.DevID,
			unit: unit,
			ch:   p.Channel,
			opts: adc.ReadOptions{
				Samples:  p.Samples,
				Interval: time.Duration(p.IntervalMS) * time.Millisecond,
			},
		},
		WorkerKey: uid,
	}, nil
}

// adcAdaptor exposes one converter channel as an "adc" capability with
// sample-averaged reads.
type adcAdaptor struct {
	id   string
	unit *adc.Unit
	ch   uint8
	opts adc.ReadOptions
}

func (a *adcAdaptor) DevID() string    { return a.id }
func (a *adcAdaptor) Kind() types.Kind { return types.KindADC }

func (a *adcAdaptor) Info() types.Info {
	return types.Info{
		SchemaVersion: 1,
		Driver:        "adc",
		Detail: types.ADCInfo{
			Channel: a.ch,
			Bits:    a.unit.Resolution(),
			RefMV:   a.unit.ReferenceMilliVolts(),
		},
	}
}

func (a *adcAdaptor) Trigger() (time.Duration, error) { return 0, nil }

func (a *adcAdaptor) Collect(ctx context.Context) ([]Sample, error) {
	r, err := a.unit.ReadChannel(ctx, a.ch, a.opts)
	if err != nil {
		return nil, err
	}
	return []Sample{{Kind: "value", Payload: types.ADCValue{Count: r.Count, MilliVolts: r.MilliVolts}}}, nil
}

func (a *adcAdaptor) Control(verb string, payload any) (any, error) {
	switch verb {
	case "set_sampling":
		req, ok := decodeJSON[struct {
			Samples    uint8  `json:"samples"`
			IntervalMS uint16 `json:"interval_ms"`
		}](payload)
		if !ok {
			return nil, errcode.InvalidArgument
		}
		a.opts = adc.ReadOptions{
			Samples:  req.Samples,
			Interval: time.Duration(req.IntervalMS) * time.Millisecond,
		}
		return nil, nil
	}
	return nil, ErrUnsupported
}

// Close leaves the shared converter unit claimed; the service releases
// units after the last adaptor is gone.
func (a *adcAdaptor) Close() error { return nil }
