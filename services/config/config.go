// Package config publishes the device's embedded configuration onto
// the bus as one retained message per top-level key, so each service
// picks up its own section (config/hal, config/heartbeat, ...) whenever
// it subscribes.
package config

import (
	"context"
	"encoding/json"
	"errors"

	"hardfoc-go/bus"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	// CtxDeviceKey is the context key carrying the device ID.
	CtxDeviceKey = "device"
)

// EmbeddedConfigLookup resolves a device ID to its raw JSON config.
// Tests and alternative build pipelines may override it.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

type Service struct {
	Name string
}

func New() *Service { return &Service{Name: serviceName} }

func (s *Service) publish(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("config: missing device ID in context")
	}
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("config: no embedded config for device: " + device)
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return err
	}
	// Sections travel as raw JSON; consumers decode their own shapes.
	for k, v := range sections {
		conn.Publish(&bus.Message{
			Topic:    bus.T(configPrefix, k),
			Payload:  []byte(v),
			Retained: true,
		})
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publish(ctx, conn); err != nil {
			println("config:", err.Error())
		}
	}()
}
