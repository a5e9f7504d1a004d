package hal

import (
	"context"
	"time"

	"tinygo.org/x/drivers"

	"hardfoc-go/errcode"
	"hardfoc-go/types"
	"hardfoc-go/x/mathx"
)

func init() { RegisterBuilder("i2c_dev", i2cBuilder{}) }

const i2cReadMax = 64

type i2cBuilder struct{}

func (i2cBuilder) Build(in BuildInput) (BuildOutput, error) {
	p, ok := decodeJSON[types.I2CParams](in.Params)
	if !ok {
		return BuildOutput{}, &errcode.E{C: errcode.InvalidConfiguration, Op: "hal.build", Msg: in.DevID + ": bad i2c params"}
	}
	if in.Res.Buses == nil {
		return BuildOutput{}, &errcode.E{C: errcode.ResourceUnavailable, Op: "hal.build", Msg: "no i2c factory"}
	}
	b, ok := in.Res.Buses.ByID(p.Bus)
	if !ok {
		return BuildOutput{}, &errcode.E{C: errcode.ResourceUnavailable, Op: "hal.build", Msg: "bus " + p.Bus}
	}
	if p.Addr == 0 || p.Addr > 0x7f {
		return BuildOutput{}, &errcode.E{C: errcode.InvalidConfiguration, Op: "hal.build", Msg: in.DevID + ": i2c addr"}
	}
	return BuildOutput{
		Adaptor:   &i2cAdaptor{id: in.DevID, bus: b, params: p},
		WorkerKey: "i2c/" + p.Bus,
	}, nil
}

// i2cAdaptor gives raw transfer access to one bus address. Higher-level
// device protocols live in client code, not here.
type i2cAdaptor struct {
	id     string
	bus    drivers.I2C
	params types.I2CParams
}

func (a *i2cAdaptor) DevID() string    { return a.id }
func (a *i2cAdaptor) Kind() types.Kind { return types.KindI2C }

func (a *i2cAdaptor) Info() types.Info {
	return types.Info{
		SchemaVersion: 1,
		Driver:        "i2c",
		Detail:        types.I2CInfo{Bus: a.params.Bus, Addr: a.params.Addr},
	}
}

func (a *i2cAdaptor) Trigger() (time.Duration, error) { return 0, ErrUnsupported }

func (a *i2cAdaptor) Collect(context.Context) ([]Sample, error) { return nil, ErrUnsupported }

func (a *i2cAdaptor) Control(verb string, payload any) (any, error) {
	switch verb {
	case "write":
		req, ok := decodeJSON[struct {
			Data []byte `json:"data"` // base64 on the wire
		}](payload)
		if !ok || len(req.Data) == 0 {
			return nil, errcode.InvalidArgument
		}
		if err := a.bus.Tx(uint16(a.params.Addr), req.Data, nil); err != nil {
			return nil, &errcode.E{C: errcode.CommunicationFail, Op: "i2c.write", Err: err}
		}
		return map[string]any{"n": len(req.Data)}, nil

	case "read":
		req, ok := decodeJSON[struct {
			Len int `json:"len"`
		}](payload)
		if !ok {
			return nil, errcode.InvalidArgument
		}
		buf := make([]byte, mathx.Clamp(req.Len, 1, i2cReadMax))
		if err := a.bus.Tx(uint16(a.params.Addr), nil, buf); err != nil {
			return nil, &errcode.E{C: errcode.CommunicationFail, Op: "i2c.read", Err: err}
		}
		return map[string]any{"data": buf}, nil

	case "write_read":
		req, ok := decodeJSON[struct {
			Data []byte `json:"data"`
			Len  int    `json:"len"`
		}](payload)
		if !ok || len(req.Data) == 0 {
			return nil, errcode.InvalidArgument
		}
		buf := make([]byte, mathx.Clamp(req.Len, 1, i2cReadMax))
		if err := a.bus.Tx(uint16(a.params.Addr), req.Data, buf); err != nil {
			return nil, &errcode.E{C: errcode.CommunicationFail, Op: "i2c.write_read", Err: err}
		}
		return map[string]any{"data": buf}, nil
	}
	return nil, ErrUnsupported
}

func (a *i2cAdaptor) Close() error { return nil }
