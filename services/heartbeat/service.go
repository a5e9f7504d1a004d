// Package heartbeat emits a periodic liveness beat, both to the console
// and as a bus message other services or bridges can watch.
package heartbeat

import (
	"context"
	"encoding/json"
	"time"

	"hardfoc-go/bus"
	"hardfoc-go/x/timex"
)

var (
	topicConfig = bus.T("config", "heartbeat")
	topicBeat   = bus.T("heartbeat", "beat")
)

type beat struct {
	Seq uint32 `json:"seq"`
	TS  int64  `json:"ts_ms"`
}

type Service struct{}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfig)
	defer cfgSub.Unsubscribe()

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	var seq uint32
	for {
		select {
		case <-ctx.Done():
			println("heartbeat: stopping")
			return
		case <-tick.C:
			seq++
			conn.Publish(conn.NewMessage(topicBeat, beat{Seq: seq, TS: timex.NowMs()}, false))
		case msg := <-cfgSub.Channel():
			if iv, ok := interval(msg.Payload); ok {
				tick.Reset(iv)
				println("heartbeat: interval set to", int64(iv/time.Second), "s")
			}
		}
	}
}

func interval(payload any) (time.Duration, bool) {
	var cfg struct {
		Interval int `json:"interval"` // seconds
	}
	switch p := payload.(type) {
	case []byte:
		if json.Unmarshal(p, &cfg) != nil {
			return 0, false
		}
	case map[string]any:
		if f, ok := p["interval"].(float64); ok {
			cfg.Interval = int(f)
		}
	default:
		return 0, false
	}
	if cfg.Interval <= 0 {
		return 0, false
	}
	return time.Duration(cfg.Interval) * time.Second, true
}

// Start launches the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
