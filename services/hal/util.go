package hal

import (
	"encoding/json"
	"time"

	"hardfoc-go/errcode"
	"hardfoc-go/gpio"
)

// decodeJSON coerces a bus payload into T. Payloads arrive either as
// raw JSON (from external bridges), as the target type itself, or as a
// loosely-typed map from in-process publishers; the last case round
// trips through the JSON codec.
func decodeJSON[T any](v any) (T, bool) {
	var out T
	switch p := v.(type) {
	case nil:
		return out, false
	case T:
		return p, true
	case []byte:
		if json.Unmarshal(p, &out) != nil {
			return out, false
		}
	case string:
		if json.Unmarshal([]byte(p), &out) != nil {
			return out, false
		}
	default:
		raw, err := json.Marshal(v)
		if err != nil || json.Unmarshal(raw, &out) != nil {
			return out, false
		}
	}
	return out, true
}

func parseDirection(s string) (gpio.Direction, error) {
	switch s {
	case "", "input", "in":
		return gpio.Input, nil
	case "output", "out":
		return gpio.Output, nil
	}
	return gpio.Input, &errcode.E{C: errcode.InvalidConfiguration, Op: "hal.parse", Msg: "direction " + s}
}

func parsePull(s string) (gpio.PullMode, error) {
	switch s {
	case "", "floating", "none":
		return gpio.Floating, nil
	case "up", "pullup":
		return gpio.PullUp, nil
	case "down", "pulldown":
		return gpio.PullDown, nil
	case "updown":
		return gpio.PullUpDown, nil
	}
	return gpio.Floating, &errcode.E{C: errcode.InvalidConfiguration, Op: "hal.parse", Msg: "pull " + s}
}

func parseOutputMode(s string) (gpio.OutputMode, error) {
	switch s {
	case "", "pushpull":
		return gpio.PushPull, nil
	case "opendrain":
		return gpio.OpenDrain, nil
	}
	return gpio.PushPull, &errcode.E{C: errcode.InvalidConfiguration, Op: "hal.parse", Msg: "output " + s}
}

func parseTrigger(s string) (gpio.Trigger, error) {
	switch s {
	case "", "none":
		return gpio.TriggerNone, nil
	case "rising":
		return gpio.RisingEdge, nil
	case "falling":
		return gpio.FallingEdge, nil
	case "both":
		return gpio.BothEdges, nil
	case "low":
		return gpio.LowLevel, nil
	case "high":
		return gpio.HighLevel, nil
	}
	return gpio.TriggerNone, &errcode.E{C: errcode.InvalidConfiguration, Op: "hal.parse", Msg: "trigger " + s}
}

// edgeWord is the wire spelling of a trigger cause in event payloads.
func edgeWord(t gpio.Trigger) string {
	switch t {
	case gpio.RisingEdge:
		return "rising"
	case gpio.FallingEdge:
		return "falling"
	case gpio.LowLevel:
		return "low"
	case gpio.HighLevel:
		return "high"
	}
	return "none"
}

func boolToInt(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// drainTimer makes a stopped timer safe to Reset.
func drainTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
