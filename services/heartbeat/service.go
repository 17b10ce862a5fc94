package heartbeat

import (
	"context"
	"time"

	"parkmeter-go/bus"
	"parkmeter-go/types"
	"parkmeter-go/x/logx"
	"parkmeter-go/x/timex"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	TopicValue           = bus.T("heartbeat", "value")
)

type Service struct {
	log   logx.Logger
	beats uint32
}

func New() *Service { return &Service{log: logx.New("heartbeat")} }

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	interval := types.HeartbeatConfig{}.Interval()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	// loop until context is cancelled, respond to tick and config changes
	for {
		select {
		case <-ctx.Done():
			s.log.Infof("stopping")
			return
		case t := <-tick.C:
			s.beats++
			s.log.Infof("%s Heartbeat", t.Format("15:04:05"))
			conn.Publish(conn.NewMessage(TopicValue, types.HeartbeatValue{
				UptimeMs: int64(timex.Millis()),
				Beats:    s.beats,
				TSms:     t.UnixMilli(),
			}, true))
		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(types.HeartbeatConfig)
			if !ok {
				s.log.Warnf("ignoring config of type %T", msg.Payload)
				continue
			}
			if iv := cfg.Interval(); iv != interval {
				interval = iv
				tick.Reset(interval)
				s.log.Infof("interval set to %s", interval)
			}
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

// Run blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) error {
	s.serviceLoop(ctx, conn)
	return nil
}
