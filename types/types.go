// Package types holds the payload shapes that cross the bus: HAL state,
// capability info/value documents and configuration. Values are fixed-point
// and small to suit TinyGo targets.
package types

// ---- Common HAL state (retained) ----

type HALState struct {
	Level  string `json:"level"`  // "idle", "ready", "stopped", "error"
	Status string `json:"status"` // freeform short code
	TS     int64  `json:"ts_ms"`
}

// ---- Capability kinds ----

type Kind string

const (
	KindPin    Kind = "pin"
	KindADC    Kind = "adc"
	KindButton Kind = "button"
	KindSerial Kind = "serial"
	KindI2C    Kind = "i2c"
)

// Info envelope each capability exposes (retained).
type Info struct {
	SchemaVersion int    `json:"schema_version"`
	Driver        string `json:"driver"`
	Detail        any    `json:"detail,omitempty"`
}

// ---- Pin capability ----

// PinParams is the config shape for a "pin" device.
type PinParams struct {
	Pin        int     `json:"pin"`
	Direction  string  `json:"direction,omitempty"` // "input" | "output"
	ActiveLow  bool    `json:"active_low,omitempty"`
	Pull       string  `json:"pull,omitempty"`   // "floating","up","down","updown"
	OutputMode string  `json:"output,omitempty"` // "pushpull" | "opendrain"
	Initial    bool    `json:"initial,omitempty"` // logical initial state for outputs
	IRQ        *PinIRQ `json:"irq,omitempty"`
}

// PinIRQ configures the optional interrupt watch on an input pin.
type PinIRQ struct {
	Trigger    string `json:"trigger"` // "rising","falling","both","low","high","none"
	DebounceMS int    `json:"debounce_ms,omitempty"`
}

// PinInfo is published as Info.Detail for pin capabilities.
type PinInfo struct {
	Pin       int    `json:"pin"`
	Direction string `json:"direction"`
	ActiveLow bool   `json:"active_low,omitempty"`
	Pull      string `json:"pull,omitempty"`
}

// PinValue carries both views of the line.
type PinValue struct {
	State uint8 `json:"state"` // logical, 0/1
	Level uint8 `json:"level"` // electrical, 0/1
}

// PinEvent is emitted on interrupt-driven changes.
type PinEvent struct {
	Edge  string `json:"edge"` // "rising","falling"; "low","high" for level watches
	Level uint8  `json:"level"`
	TS    int64  `json:"ts_ms"`
}

// ---- ADC capability ----

type ADCParams struct {
	Unit       string `json:"unit,omitempty"` // converter unit id, default "adc0"
	Channel    uint8  `json:"channel"`
	Samples    uint8  `json:"samples,omitempty"`     // per averaged read
	IntervalMS uint16 `json:"interval_ms,omitempty"` // between samples
}

type ADCInfo struct {
	Channel uint8  `json:"channel"`
	Bits    uint8  `json:"bits"`
	RefMV   uint32 `json:"ref_mv"`
}

type ADCValue struct {
	Count      uint32 `json:"count"`
	MilliVolts uint32 `json:"mv"`
}

// ---- Button capability ----

type ButtonParams struct {
	Pin        int    `json:"pin"`
	ActiveLow  bool   `json:"active_low,omitempty"`
	Pull       string `json:"pull,omitempty"`
	DebounceMS int    `json:"debounce_ms,omitempty"`
}

type ButtonInfo struct {
	Pin int `json:"pin"`
}

type ButtonValue struct {
	Pressed bool `json:"pressed"`
}

// ---- Serial capability ----

type SerialParams struct {
	Port string `json:"port"`
	Baud uint32 `json:"baud,omitempty"`
}

type SerialInfo struct {
	Port string `json:"port"`
	Baud uint32 `json:"baud,omitempty"`
}

// ---- I2C device capability ----

type I2CParams struct {
	Bus  string `json:"bus"`  // e.g. "i2c0"
	Addr uint8  `json:"addr"` // 7-bit address
}

type I2CInfo struct {
	Bus  string `json:"bus"`
	Addr uint8  `json:"addr"`
}

// ---- Generic envelopes ----

// Value wraps a capability value document with its sample timestamp;
// published retained at .../value.
type Value struct {
	TS int64 `json:"ts_ms"`
	V  any   `json:"v"`
}

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`          // machine-readable errcode
	Desc  string `json:"desc,omitempty"` // human-readable description
}

// ---- HAL configuration ----

type HALConfig struct {
	Devices []HALDevice `json:"devices"`
	Pollers []PollSpec  `json:"pollers,omitempty"`
}

type HALDevice struct {
	ID     string `json:"id"`   // logical device id, e.g. "relay0"
	Type   string `json:"type"` // e.g. "pin", "adc_channel"
	Params any    `json:"params"`
}

// PollSpec is a declarative, config-time schedule applied at startup.
type PollSpec struct {
	Kind       Kind   `json:"kind"`
	Name       string `json:"name"`
	Verb       string `json:"verb"` // typically "read"
	IntervalMs uint32 `json:"interval_ms"`
	JitterMs   uint16 `json:"jitter_ms,omitempty"`
}

// PollStart is the strictly-typed payload for the set_rate verb.
// IntervalMs zero stops the schedule.
type PollStart struct {
	Verb       string `json:"verb"`
	IntervalMs uint32 `json:"interval_ms"`
	JitterMs   uint16 `json:"jitter_ms,omitempty"`
}
