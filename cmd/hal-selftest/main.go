//go:build !rp2040 && !rp2350

// Command hal-selftest runs the whole service stack against the host
// fakes and walks each capability: drives a pin, reads the converter,
// round-trips the loopback UART and an I2C transfer.
package main

import (
	"context"
	"encoding/json"
	"time"

	"hardfoc-go/bus"
	"hardfoc-go/internal/platform"
	"hardfoc-go/services/hal"
	"hardfoc-go/types"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(16)
	svc := hal.New(b.NewConnection("hal"), platform.Resources())
	go svc.Run(ctx)

	ui := b.NewConnection("ui")
	state := ui.Subscribe(bus.T("hal", "state"))

	vals := ui.Subscribe(bus.T("hal", "cap", "+", "+", "value"))
	go func() {
		for m := range vals.Channel() {
			raw, _ := json.Marshal(m.Payload)
			println("value", m.Topic.String()+":", string(raw))
		}
	}()

	cfg := types.HALConfig{
		Devices: []types.HALDevice{
			{ID: "led0", Type: "pin", Params: types.PinParams{Pin: 25, Direction: "output"}},
			{ID: "sense0", Type: "adc_channel", Params: types.ADCParams{Channel: 0, Samples: 4}},
			{ID: "console", Type: "serial", Params: types.SerialParams{Port: "uart0", Baud: 115200}},
			{ID: "eeprom", Type: "i2c_dev", Params: types.I2CParams{Bus: "i2c0", Addr: 0x50}},
		},
	}
	// Retained so the config survives even if the service has not
	// finished subscribing yet; the config service publishes the same way.
	ui.Publish(ui.NewMessage(bus.T("config", "hal"), cfg, true))
	waitReady(state)

	request(ui, "pin", "led0", "set_state", map[string]any{"state": true})
	request(ui, "pin", "led0", "get_state", nil)
	request(ui, "pin", "led0", "toggle", nil)
	request(ui, "adc", "sense0", "read", nil)
	request(ui, "serial", "console", "write", map[string]any{"data": "hello"})
	request(ui, "serial", "console", "read", map[string]any{"max": 16, "timeout_ms": 200})
	request(ui, "i2c", "eeprom", "write", map[string]any{"data": []byte{0x01, 0x02}})
	request(ui, "i2c", "eeprom", "read", map[string]any{"len": 2})

	// Give the async adc read time to publish.
	time.Sleep(200 * time.Millisecond)
	println("selftest done")
}

func waitReady(sub *bus.Subscription) {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.HALState); ok && st.Level == "ready" {
				return
			}
		case <-deadline:
			println("selftest: hal never became ready")
			return
		}
	}
}

func request(c *bus.Connection, kind, name, verb string, payload any) {
	replyTo := bus.T("selftest", "reply", kind, name, verb)
	sub := c.Subscribe(replyTo)
	defer sub.Unsubscribe()

	c.Publish(&bus.Message{
		Topic:   bus.T("hal", "cap", kind, name, "control", verb),
		Payload: payload,
		ReplyTo: replyTo,
	})
	select {
	case m := <-sub.Channel():
		raw, _ := json.Marshal(m.Payload)
		println(kind+"/"+name+"/"+verb+":", string(raw))
	case <-time.After(500 * time.Millisecond):
		println(kind + "/" + name + "/" + verb + ": timeout")
	}
}
