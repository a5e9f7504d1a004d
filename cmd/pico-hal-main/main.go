// Command pico-hal-main is the device firmware entry: it bootstraps
// the bus, starts the HAL against the platform resources, and lets the
// embedded config bring the capability set up.
package main

import (
	"context"
	"time"

	"hardfoc-go/bus"
	"hardfoc-go/internal/platform"
	"hardfoc-go/services/config"
	"hardfoc-go/services/hal"
	"hardfoc-go/services/heartbeat"
	"hardfoc-go/x/conv"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, "pico")
	b := bus.NewBus(8)

	// Diagnostics tap on all HAL traffic.
	mon := b.NewConnection("monitor")
	sub := mon.Subscribe(bus.T("hal", "#"))
	go func() {
		var n int64
		var buf [20]byte
		for m := range sub.Channel() {
			n++
			print("[", string(conv.Itoa(buf[:], n)), "] ")
			println(m.Topic.String())
		}
	}()

	svc := hal.New(b.NewConnection("hal"), platform.Resources())
	go svc.Run(ctx)

	_ = (&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat"))

	// Config goes last so its retained sections land on live services.
	config.New().Start(ctx, b.NewConnection("config"))

	select {}
}
