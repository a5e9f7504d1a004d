// Package sfgpio wraps a gpio.Pin with a mutex for callers that must share
// one pin across goroutines. The underlying Pin is documented as
// single-context only; this wrapper serializes every operation so each call
// is atomic with respect to the others.
//
// Interrupt callbacks still run in the backend's notification context and
// are not serialized against these methods; keep callback bodies short and
// do not call back into the same pin from them.
package sfgpio

import (
	"sync"

	"hardfoc-go/gpio"
)

// Pin is a mutex-guarded view of a gpio.Pin.
type Pin struct {
	mu  sync.Mutex
	pin *gpio.Pin
}

// New wraps p. The wrapper takes over all access; callers must not keep
// using p directly.
func New(p *gpio.Pin) *Pin { return &Pin{pin: p} }

func (s *Pin) Number() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.Number()
}

func (s *Pin) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.IsInitialized()
}

func (s *Pin) EnsureInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.EnsureInitialized()
}

func (s *Pin) EnsureDeinitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.EnsureDeinitialized()
}

func (s *Pin) SetDirection(d gpio.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.SetDirection(d)
}

func (s *Pin) Direction() (gpio.Direction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.Direction()
}

func (s *Pin) SetActiveState(a gpio.ActiveState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pin.SetActiveState(a)
}

func (s *Pin) ActiveState() gpio.ActiveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.ActiveState()
}

func (s *Pin) SetState(st gpio.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.SetState(st)
}

func (s *Pin) State() (gpio.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.State()
}

func (s *Pin) SetLevel(l gpio.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.SetLevel(l)
}

func (s *Pin) Level() (gpio.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.Level()
}

func (s *Pin) SetPullMode(m gpio.PullMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.SetPullMode(m)
}

func (s *Pin) PullMode() (gpio.PullMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.PullMode()
}

func (s *Pin) SetOutputMode(m gpio.OutputMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.SetOutputMode(m)
}

func (s *Pin) OutputMode() (gpio.OutputMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.OutputMode()
}

func (s *Pin) EnableInterrupt(t gpio.Trigger, cb func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.EnableInterrupt(t, cb)
}

func (s *Pin) DisableInterrupt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.DisableInterrupt()
}

func (s *Pin) IsInterruptEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.IsInterruptEnabled()
}

func (s *Pin) InterruptStatus() gpio.IRQStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.InterruptStatus()
}

// Toggle is the one compound convenience kept on the wrapper: the read and
// the write happen under a single lock acquisition.
func (s *Pin) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.Toggle()
}

func (s *Pin) SetActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.SetActive()
}

func (s *Pin) SetInactive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.SetInactive()
}

func (s *Pin) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin.IsActive()
}
