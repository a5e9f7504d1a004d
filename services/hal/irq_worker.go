package hal

import (
	"context"
	"sync"
	"sync/atomic"

	"hardfoc-go/gpio"
	"hardfoc-go/x/timex"
)

// PinEvent is one debounced, classified interrupt delivered to the
// service loop. Trigger is the classified cause (RisingEdge,
// FallingEdge, or the level trigger that fired), Level the electrical
// line level sampled in the handler.
type PinEvent struct {
	DevID   string
	Trigger gpio.Trigger
	Level   gpio.Level
	TS      int64
}

// isrEvent is the raw handler capture. It must stay small: handlers
// run in interrupt context on hardware targets.
type isrEvent struct {
	devID string
	level gpio.Level
	ts    int64
}

type watch struct {
	trigger    gpio.Trigger
	debounceMS int64
	lastLevel  gpio.Level
	lastTS     int64
}

// irqWorker fans interrupt callbacks out of handler context: handlers
// do a non-blocking push onto isrQ, the Run loop debounces and
// classifies, and clean events land on out. A full isrQ drops the
// event and bumps a counter rather than blocking the handler.
type irqWorker struct {
	isrQ  chan isrEvent
	out   chan<- PinEvent
	drops uint32

	mu      sync.Mutex
	watches map[string]*watch
}

func newIRQWorker(out chan<- PinEvent, depth int) *irqWorker {
	if depth <= 0 {
		depth = 16
	}
	return &irqWorker{
		isrQ:    make(chan isrEvent, depth),
		out:     out,
		watches: map[string]*watch{},
	}
}

// ISRDrops reports how many handler events were shed on a full queue.
func (w *irqWorker) ISRDrops() uint32 { return atomic.LoadUint32(&w.drops) }

// RegisterInput arms pin for the device and returns a cancel func that
// disarms it. A TriggerNone request is a successful no-op.
func (w *irqWorker) RegisterInput(devID string, pin *gpio.Pin, trig gpio.Trigger, debounceMS int) (func(), error) {
	if trig == gpio.TriggerNone {
		return func() {}, nil
	}

	level, err := pin.Level()
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.watches[devID] = &watch{
		trigger:    trig,
		debounceMS: int64(debounceMS),
		lastLevel:  level,
	}
	w.mu.Unlock()

	handler := func() {
		l, err := pin.Level()
		if err != nil {
			return
		}
		select {
		case w.isrQ <- isrEvent{devID: devID, level: l, ts: timex.NowMs()}:
		default:
			atomic.AddUint32(&w.drops, 1)
		}
	}
	if err := pin.EnableInterrupt(trig, handler); err != nil {
		w.mu.Lock()
		delete(w.watches, devID)
		w.mu.Unlock()
		return nil, err
	}

	cancel := func() {
		pin.DisableInterrupt()
		w.mu.Lock()
		delete(w.watches, devID)
		w.mu.Unlock()
	}
	return cancel, nil
}

// Run consumes raw handler events until the context ends.
func (w *irqWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-w.isrQ:
			if out, ok := w.classify(ev); ok {
				select {
				case w.out <- out:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// classify applies debounce and edge classification against the watch
// state. Repeated samples at the same level are suppressed for edge
// triggers; level triggers re-fire as long as the level matches.
func (w *irqWorker) classify(ev isrEvent) (PinEvent, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	wt, ok := w.watches[ev.devID]
	if !ok {
		return PinEvent{}, false
	}
	if wt.debounceMS > 0 && ev.ts-wt.lastTS < wt.debounceMS {
		return PinEvent{}, false
	}

	switch wt.trigger {
	case gpio.LowLevel:
		wt.lastTS = ev.ts
		wt.lastLevel = ev.level
		if ev.level != gpio.Low {
			return PinEvent{}, false
		}
		return PinEvent{DevID: ev.devID, Trigger: gpio.LowLevel, Level: ev.level, TS: ev.ts}, true
	case gpio.HighLevel:
		wt.lastTS = ev.ts
		wt.lastLevel = ev.level
		if ev.level != gpio.High {
			return PinEvent{}, false
		}
		return PinEvent{DevID: ev.devID, Trigger: gpio.HighLevel, Level: ev.level, TS: ev.ts}, true
	}

	if ev.level == wt.lastLevel {
		// Glitch or re-delivery at an unchanged level.
		return PinEvent{}, false
	}
	wt.lastLevel = ev.level
	wt.lastTS = ev.ts

	edge := gpio.FallingEdge
	if ev.level == gpio.High {
		edge = gpio.RisingEdge
	}
	if wt.trigger != gpio.BothEdges && wt.trigger != edge {
		return PinEvent{}, false
	}
	return PinEvent{DevID: ev.devID, Trigger: edge, Level: ev.level, TS: ev.ts}, true
}
