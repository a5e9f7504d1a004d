// Package hal is the hardware abstraction service. It owns the platform
// resources (pins, converter units, buses, ports), builds per-device
// adaptors from bus-delivered configuration, and exposes each device as
// a capability subtree:
//
//	hal/cap/<kind>/<name>/info           retained descriptor
//	hal/cap/<kind>/<name>/value          retained last sample
//	hal/cap/<kind>/<name>/event          unretained edges and faults
//	hal/cap/<kind>/<name>/control/<verb> request topics
//
// Measurements run on per-hardware-unit workers so a slow device never
// stalls an unrelated one; interrupt events are drained out of handler
// context by a dedicated worker.
package hal

import (
	"context"
	"time"

	"hardfoc-go/adc"
	"hardfoc-go/bus"
	"hardfoc-go/errcode"
	"hardfoc-go/types"
	"hardfoc-go/x/timex"
)

type device struct {
	adaptor   Adaptor
	workerKey string
	cancelIRQ func()

	// Poll schedule; periodMS==0 means not polled.
	periodMS int64
	nextDue  int64
}

// Service is the HAL bus service. Create with New, drive with Run.
type Service struct {
	conn *bus.Connection
	res  Resources

	units   map[string]*adc.Unit
	devs    map[string]*device
	workers map[string]*measureWorker

	results chan result
	events  chan PinEvent
	irq     *irqWorker
}

func New(conn *bus.Connection, res Resources) *Service {
	events := make(chan PinEvent, 8)
	return &Service{
		conn:    conn,
		res:     res,
		units:   map[string]*adc.Unit{},
		devs:    map[string]*device{},
		workers: map[string]*measureWorker{},
		results: make(chan result, 8),
		events:  events,
		irq:     newIRQWorker(events, 16),
	}
}

// Run processes config, control and measurement traffic until the
// context ends, then tears every device down.
func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(bus.T("config", "hal"))
	ctrlSub := s.conn.Subscribe(bus.T("hal", "cap", "+", "+", "control", "+"))
	defer cfgSub.Unsubscribe()
	defer ctrlSub.Unsubscribe()

	go s.irq.Run(ctx)

	s.publishState("idle", "waiting_config")

	timer := time.NewTimer(time.Hour)
	defer drainTimer(timer)

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case m := <-cfgSub.Channel():
			s.applyConfig(ctx, m.Payload)
		case m := <-ctrlSub.Channel():
			s.handleControl(m)
		case r := <-s.results:
			s.handleResult(r)
		case ev := <-s.events:
			s.handleEvent(ev)
		case <-timer.C:
			s.pollDue()
		}
		s.rearm(timer)
	}
}

// ---- configuration ----

func (s *Service) applyConfig(ctx context.Context, payload any) {
	cfg, ok := decodeJSON[types.HALConfig](payload)
	if !ok {
		println("hal: undecodable config")
		s.publishState("error", "bad_config")
		return
	}

	seen := map[string]bool{}
	for _, d := range cfg.Devices {
		if d.ID == "" || d.Type == "" {
			println("hal: config entry missing id or type")
			continue
		}
		seen[d.ID] = true

		if old, exists := s.devs[d.ID]; exists {
			s.teardown(d.ID, old)
			delete(s.devs, d.ID)
		}

		b, ok := findBuilder(d.Type)
		if !ok {
			println("hal: no builder for type", d.Type)
			continue
		}
		out, err := b.Build(BuildInput{Res: s.res, Units: s.units, DevID: d.ID, Type: d.Type, Params: d.Params})
		if err != nil {
			println("hal: build", d.ID, "failed:", err.Error())
			continue
		}

		dev := &device{adaptor: out.Adaptor, workerKey: out.WorkerKey}
		if out.IRQ != nil {
			cancel, err := s.irq.RegisterInput(d.ID, out.IRQ.Pin, out.IRQ.Trigger, out.IRQ.DebounceMS)
			if err != nil {
				println("hal: irq arm", d.ID, "failed:", err.Error())
			} else {
				dev.cancelIRQ = cancel
			}
		}
		s.devs[d.ID] = dev
		s.workerFor(ctx, out.WorkerKey)
		s.pubRet(s.capTopic(dev, "info"), out.Adaptor.Info())
	}

	// Devices dropped from the config: release hardware, clear topics.
	for id, dev := range s.devs {
		if seen[id] {
			continue
		}
		s.teardown(id, dev)
		s.pubRet(s.capTopic(dev, "info"), nil)
		s.pubRet(s.capTopic(dev, "value"), nil)
		delete(s.devs, id)
	}

	now := timex.NowMs()
	for _, ps := range cfg.Pollers {
		dev := s.devByName(string(ps.Kind), ps.Name)
		if dev == nil {
			println("hal: poller for unknown device", ps.Name)
			continue
		}
		if ps.IntervalMs == 0 {
			dev.periodMS = 0
			continue
		}
		dev.periodMS = int64(ps.IntervalMs)
		dev.nextDue = now + int64(ps.JitterMs)
	}

	s.publishState("ready", "configured")
}

func (s *Service) teardown(id string, dev *device) {
	if dev.cancelIRQ != nil {
		dev.cancelIRQ()
		dev.cancelIRQ = nil
	}
	if err := dev.adaptor.Close(); err != nil {
		println("hal: close", id, "failed:", err.Error())
	}
}

func (s *Service) workerFor(ctx context.Context, key string) *measureWorker {
	if w, ok := s.workers[key]; ok {
		return w
	}
	w := newMeasureWorker(s.results, 4)
	s.workers[key] = w
	go w.Start(ctx)
	return w
}

// ---- control ----

func (s *Service) handleControl(m *bus.Message) {
	t := m.Topic
	if len(t) != 6 {
		return
	}
	kind, name, verb := t[2], t[3], t[5]

	dev := s.devByName(kind, name)
	if dev == nil {
		s.replyErr(m, &errcode.E{C: errcode.ResourceUnavailable, Op: "hal.control", Msg: kind + "/" + name})
		return
	}

	switch verb {
	case "set_rate":
		req, ok := decodeJSON[types.PollStart](m.Payload)
		if !ok {
			s.replyErr(m, errcode.InvalidArgument)
			return
		}
		dev.periodMS = int64(req.IntervalMs)
		if dev.periodMS > 0 {
			dev.nextDue = timex.NowMs() + dev.periodMS
		}
		s.replyOK(m, nil)

	default:
		// The adaptor answers first: control-only devices (serial, i2c)
		// implement read themselves. For the rest, read schedules an
		// on-demand measurement ahead of the poll queue.
		res, err := dev.adaptor.Control(verb, m.Payload)
		if err == ErrUnsupported {
			if verb == "read" {
				w := s.workers[dev.workerKey]
				if w == nil || !w.Submit(dev.adaptor, true) {
					s.replyErr(m, errcode.ResourceBusy)
					return
				}
				s.replyOK(m, nil)
				return
			}
			s.replyErr(m, errcode.Unsupported)
			return
		}
		if err != nil {
			s.replyErr(m, err)
			return
		}
		s.replyOK(m, res)
	}
}

// ---- measurement plumbing ----

func (s *Service) pollDue() {
	now := timex.NowMs()
	for id, dev := range s.devs {
		if dev.periodMS <= 0 || dev.nextDue > now {
			continue
		}
		if w := s.workers[dev.workerKey]; w != nil {
			if !w.Submit(dev.adaptor, false) {
				println("hal: poll queue full, skipping", id)
			}
		}
		dev.nextDue = now + dev.periodMS
	}
}

// rearm points the poll timer at the earliest due device, or far out
// when nothing is scheduled.
func (s *Service) rearm(timer *time.Timer) {
	drainTimer(timer)
	var earliest int64
	for _, dev := range s.devs {
		if dev.periodMS <= 0 {
			continue
		}
		if earliest == 0 || dev.nextDue < earliest {
			earliest = dev.nextDue
		}
	}
	if earliest == 0 {
		timer.Reset(time.Hour)
		return
	}
	d := time.Duration(earliest-timex.NowMs()) * time.Millisecond
	if d < time.Millisecond {
		d = time.Millisecond
	}
	timer.Reset(d)
}

func (s *Service) handleResult(r result) {
	dev := s.devs[r.devID]
	if dev == nil {
		return
	}
	if r.err != nil {
		c := errcode.Of(r.err)
		s.pub(s.capTopic(dev, "event"), types.ErrorReply{Error: string(c), Desc: errcode.Describe(c)})
		println("hal: measure", r.devID, "failed:", r.err.Error())
		return
	}
	s.publishSamples(dev, r.samples, r.ts)
}

func (s *Service) handleEvent(ev PinEvent) {
	dev := s.devs[ev.DevID]
	if dev == nil {
		return
	}
	es, ok := dev.adaptor.(eventSource)
	if !ok {
		return
	}
	s.publishSamples(dev, es.EventSamples(ev), ev.TS)
}

func (s *Service) publishSamples(dev *device, samples []Sample, ts int64) {
	for _, smp := range samples {
		switch smp.Kind {
		case "value":
			s.pubRet(s.capTopic(dev, "value"), types.Value{TS: ts, V: smp.Payload})
		case "event":
			s.pub(s.capTopic(dev, "event"), smp.Payload)
		}
	}
}

// ---- shutdown ----

func (s *Service) shutdown() {
	for id, dev := range s.devs {
		s.teardown(id, dev)
	}
	for id, unit := range s.units {
		if !unit.EnsureDeinitialized() {
			println("hal: adc release failed:", id)
		}
	}
	s.publishState("stopped", "shutdown")
}

// ---- bus helpers ----

func (s *Service) devByName(kind, name string) *device {
	dev, ok := s.devs[name]
	if !ok || string(dev.adaptor.Kind()) != kind {
		return nil
	}
	return dev
}

func (s *Service) capTopic(dev *device, leaf string) bus.Topic {
	return bus.T("hal", "cap", string(dev.adaptor.Kind()), dev.adaptor.DevID(), leaf)
}

func (s *Service) pub(t bus.Topic, payload any) {
	s.conn.Publish(s.conn.NewMessage(t, payload, false))
}

func (s *Service) pubRet(t bus.Topic, payload any) {
	s.conn.Publish(s.conn.NewMessage(t, payload, true))
}

func (s *Service) publishState(level, status string) {
	s.pubRet(bus.T("hal", "state"), types.HALState{Level: level, Status: status, TS: timex.NowMs()})
}

func (s *Service) replyOK(req *bus.Message, detail any) {
	if detail == nil {
		s.conn.Reply(req, types.OKReply{OK: true}, false)
		return
	}
	s.conn.Reply(req, map[string]any{"ok": true, "result": detail}, false)
}

func (s *Service) replyErr(req *bus.Message, err error) {
	c := errcode.Of(err)
	println("hal: control error:", err.Error())
	s.conn.Reply(req, types.ErrorReply{Error: string(c), Desc: errcode.Describe(c)}, false)
}
