package hal

import (
	"context"
	"time"

	"hardfoc-go/errcode"
	"hardfoc-go/types"
	"hardfoc-go/x/mathx"
)

func init() { RegisterBuilder("serial", serialBuilder{}) }

const serialReadMax = 256

type serialBuilder struct{}

func (serialBuilder) Build(in BuildInput) (BuildOutput, error) {
	p, ok := decodeJSON[types.SerialParams](in.Params)
	if !ok {
		return BuildOutput{}, &errcode.E{C: errcode.InvalidConfiguration, Op: "hal.build", Msg: in.DevID + ": bad serial params"}
	}
	if in.Res.Serial == nil {
		return BuildOutput{}, &errcode.E{C: errcode.ResourceUnavailable, Op: "hal.build", Msg: "no serial factory"}
	}
	port, ok := in.Res.Serial.ByID(p.Port)
	if !ok {
		return BuildOutput{}, &errcode.E{C: errcode.ResourceUnavailable, Op: "hal.build", Msg: "port " + p.Port}
	}
	if p.Baud > 0 {
		if err := port.SetBaudRate(p.Baud); err != nil {
			return BuildOutput{}, &errcode.E{C: errcode.InvalidConfiguration, Op: "hal.build", Msg: in.DevID + ": baud", Err: err}
		}
	}
	return BuildOutput{
		Adaptor:   &serialAdaptor{id: in.DevID, port: port, params: p},
		WorkerKey: "serial/" + p.Port,
	}, nil
}

// serialAdaptor is control-only: write/read verbs over a UART port.
type serialAdaptor struct {
	id     string
	port   SerialPort
	params types.SerialParams
}

func (a *serialAdaptor) DevID() string    { return a.id }
func (a *serialAdaptor) Kind() types.Kind { return types.KindSerial }

func (a *serialAdaptor) Info() types.Info {
	return types.Info{
		SchemaVersion: 1,
		Driver:        "uart",
		Detail:        types.SerialInfo{Port: a.params.Port, Baud: a.params.Baud},
	}
}

func (a *serialAdaptor) Trigger() (time.Duration, error) { return 0, ErrUnsupported }

func (a *serialAdaptor) Collect(context.Context) ([]Sample, error) { return nil, ErrUnsupported }

func (a *serialAdaptor) Control(verb string, payload any) (any, error) {
	switch verb {
	case "write":
		req, ok := decodeJSON[struct {
			Data string `json:"data"`
		}](payload)
		if !ok {
			return nil, errcode.InvalidArgument
		}
		n, err := a.port.Write([]byte(req.Data))
		if err != nil {
			return nil, &errcode.E{C: errcode.WriteFailure, Op: "serial.write", Err: err}
		}
		return map[string]any{"n": n}, nil

	case "read":
		req, ok := decodeJSON[struct {
			Max       int `json:"max"`
			TimeoutMS int `json:"timeout_ms"`
		}](payload)
		if !ok {
			return nil, errcode.InvalidArgument
		}
		max := mathx.Clamp(req.Max, 1, serialReadMax)
		timeout := time.Duration(mathx.Clamp(req.TimeoutMS, 1, 5000)) * time.Millisecond
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		buf := make([]byte, max)
		n, err := a.port.RecvSomeContext(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &errcode.E{C: errcode.Timeout, Op: "serial.read", Err: err}
			}
			return nil, &errcode.E{C: errcode.ReadFailure, Op: "serial.read", Err: err}
		}
		return map[string]any{"data": string(buf[:n]), "n": n}, nil

	case "set_baud":
		req, ok := decodeJSON[struct {
			Baud uint32 `json:"baud"`
		}](payload)
		if !ok || req.Baud == 0 {
			return nil, errcode.InvalidArgument
		}
		if err := a.port.SetBaudRate(req.Baud); err != nil {
			return nil, &errcode.E{C: errcode.CommunicationFail, Op: "serial.set_baud", Err: err}
		}
		a.params.Baud = req.Baud
		return nil, nil
	}
	return nil, ErrUnsupported
}

func (a *serialAdaptor) Close() error { return nil }
