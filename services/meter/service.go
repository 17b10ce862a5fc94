package meter

import (
	"context"
	"time"

	"parkmeter-go/bus"
	"parkmeter-go/errcode"
	"parkmeter-go/types"
	"parkmeter-go/x/logx"
)

var (
	TopicConfig   = bus.T("config", "meter")
	TopicState    = bus.T("meter", "state")
	TopicDistance = bus.T("meter", "distance", "value")
	TopicTimer    = bus.T("meter", "timer", "value")
	TopicSession  = bus.T("meter", "session", "event")
	TopicReport   = bus.T("meter", "report", "event")
)

// PinFactory claims the trigger and echo pins and returns the combined
// capability. Providers live in services/meter/platform.
type PinFactory func(trigger, echo int) (GPIO, error)

// SinkFactory builds a report sink from configuration. services/report.New
// is the usual implementation.
type SinkFactory func(cfg types.SinkConfig) (Sink, error)

// Resources are the platform pieces the service cannot build itself.
type Resources struct {
	Pins    PinFactory
	NewSink SinkFactory
	Clock   Clock // nil = SystemClock
}

// Service waits for a retained config/meter document, builds the loop and
// publishes its telemetry. Configuration is read once; later documents are
// logged and ignored until restart.
type Service struct {
	conn *bus.Connection
	res  Resources
	log  logx.Logger
}

func NewService(conn *bus.Connection, res Resources) *Service {
	if res.Clock == nil {
		res.Clock = SystemClock()
	}
	return &Service{conn: conn, res: res, log: logx.New("meter")}
}

// Run blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(TopicConfig)
	defer s.conn.Unsubscribe(cfgSub)

	s.publishState(types.LevelIdle, "awaiting_config")

	var loop *Loop
	for loop == nil {
		select {
		case <-ctx.Done():
			s.publishState(types.LevelStopped, "context_cancelled")
			return
		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(types.MeterConfig)
			if !ok {
				s.log.Warnf("config wrong type")
				s.publishState(types.LevelFailed, "config_wrong_type")
				continue
			}
			l, err := s.build(cfg)
			if err != nil {
				s.log.Errorf("build failed: %v", err)
				s.publishState(types.LevelFailed, string(errcode.Of(err)))
				continue
			}
			loop = l
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(ctx)
	}()
	s.publishState(types.LevelRunning, "configured")

	for {
		select {
		case <-ctx.Done():
			<-done
			s.publishState(types.LevelStopped, "context_cancelled")
			return
		case msg := <-cfgSub.Channel():
			if msg != nil {
				s.log.Infof("config update ignored while running")
			}
		}
	}
}

// build validates cfg and assembles the loop from the injected resources.
func (s *Service) build(cfg types.MeterConfig) (*Loop, error) {
	const op = "meter.build"
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s.res.Pins == nil {
		return nil, errcode.Wrap(errcode.NotReady, op, errcode.UnknownPin)
	}
	if s.res.NewSink == nil {
		return nil, errcode.Wrap(errcode.NotReady, op, errcode.UnknownSink)
	}
	io, err := s.res.Pins(cfg.TriggerPin, cfg.EchoPin)
	if err != nil {
		return nil, errcode.Wrap(errcode.UnknownPin, op, err)
	}
	sink, err := s.res.NewSink(cfg.Sink)
	if err != nil {
		return nil, err
	}
	if cfg.LogLevel != "" {
		logx.SetLevel(logx.ParseLevel(cfg.LogLevel))
	}

	s.log.Infof("threshold=%.1fcm rate=%.0f/h timeout=%dus tick=%dms sink=%s",
		cfg.ThresholdCm, cfg.RatePerHour, cfg.TimeoutUs, cfg.TickIntervalMs, cfg.Sink.Type)

	clock := s.res.Clock
	return NewLoop(
		LoopConfig{TimeoutUs: cfg.TimeoutUs, TickInterval: cfg.TickInterval(), SinkName: cfg.Sink.Type},
		NewSensor(io, cfg.TimeoutUs),
		NewTimer(cfg.ThresholdCm, cfg.RatePerHour),
		NewReporter(sink, cfg.UTCOffset(), clock.Now, cfg.Sink.Timeout()),
		clock,
		busEmitter{conn: s.conn},
	), nil
}

func (s *Service) publishState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(TopicState, types.ServiceState{
		Level:  level,
		Status: status,
		TSms:   time.Now().UnixMilli(),
	}, true))
}

// busEmitter publishes loop events. Bus delivery never blocks.
type busEmitter struct {
	conn *bus.Connection
}

func (e busEmitter) Emit(ev Event) bool {
	var (
		topic    bus.Topic
		retained bool
	)
	switch ev.Kind {
	case EventDistance:
		topic, retained = TopicDistance, true
	case EventTimer:
		topic, retained = TopicTimer, true
	case EventSession:
		topic = TopicSession
	case EventReport:
		topic = TopicReport
	default:
		return false
	}
	e.conn.Publish(e.conn.NewMessage(topic, ev.Payload, retained))
	return true
}
