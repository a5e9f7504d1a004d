package hal

import (
	"sync"

	"hardfoc-go/adc"
	"hardfoc-go/gpio"
)

// BuildInput is what a Builder gets to work with. Units is the shared
// cache of claimed converter units, keyed by unit id; builders that
// need one go through adcUnit.
type BuildInput struct {
	Res    Resources
	Units  map[string]*adc.Unit
	DevID  string
	Type   string
	Params any
}

// IRQRequest asks the service to watch an input pin and route its
// events to the device's adaptor.
type IRQRequest struct {
	Pin        *gpio.Pin
	Trigger    gpio.Trigger
	DebounceMS int
}

// BuildOutput is what a Builder returns. WorkerKey buckets the device
// onto a measure worker; devices sharing hardware share a key.
type BuildOutput struct {
	Adaptor   Adaptor
	WorkerKey string
	IRQ       *IRQRequest
}

// Builder constructs the adaptor for one device type.
type Builder interface {
	Build(in BuildInput) (BuildOutput, error)
}

var (
	buildersMu sync.Mutex
	builders   = map[string]Builder{}
)

// RegisterBuilder installs a device-type builder. Duplicate or empty
// registrations are programming errors.
func RegisterBuilder(devType string, b Builder) {
	buildersMu.Lock()
	defer buildersMu.Unlock()
	if devType == "" || b == nil {
		panic("hal: empty builder registration")
	}
	if _, dup := builders[devType]; dup {
		panic("hal: duplicate builder: " + devType)
	}
	builders[devType] = b
}

func findBuilder(devType string) (Builder, bool) {
	buildersMu.Lock()
	defer buildersMu.Unlock()
	b, ok := builders[devType]
	return b, ok
}
