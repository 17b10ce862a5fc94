package config

import (
	"context"

	"parkmeter-go/bus"
	"parkmeter-go/errcode"
	"parkmeter-go/types"
	"parkmeter-go/x/logx"

	"gopkg.in/yaml.v2"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

var (
	TopicMeter     = bus.T(configPrefix, "meter")
	TopicHeartbeat = bus.T(configPrefix, "heartbeat")
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Document is one device's configuration.
type Document struct {
	Meter     types.MeterConfig     `yaml:"meter"`
	Heartbeat types.HeartbeatConfig `yaml:"heartbeat"`
}

func defaults() Document {
	return Document{
		Meter:     types.DefaultMeterConfig(),
		Heartbeat: types.HeartbeatConfig{IntervalMs: 1000},
	}
}

// Load resolves the embedded document for device, decodes it over the
// defaults, applies environment overrides and validates the result.
func Load(device string) (Document, error) {
	const op = "config.load"
	if device == "" {
		return Document{}, &errcode.E{C: errcode.MissingConfig, Op: op, Msg: "missing device ID"}
	}
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return Document{}, &errcode.E{C: errcode.MissingConfig, Op: op, Msg: "no embedded config for device " + device}
	}

	doc := defaults()
	if err := yaml.UnmarshalStrict(raw, &doc); err != nil {
		return Document{}, errcode.Wrap(errcode.InvalidConfig, op, err)
	}
	if err := applyEnv(&doc.Meter); err != nil {
		return Document{}, err
	}
	if err := doc.Meter.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
	log  logx.Logger
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName, log: logx.New(serviceName)}
}

// Publish loads the device config named in ctx and publishes each section as
// a retained message.
func (s *ConfigService) Publish(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	doc, err := Load(device)
	if err != nil {
		s.log.Errorf("%v", err)
		return err
	}
	conn.Publish(conn.NewMessage(TopicMeter, doc.Meter, true))
	conn.Publish(conn.NewMessage(TopicHeartbeat, doc.Heartbeat, true))
	s.log.Infof("published config for %s (sink=%s)", device, doc.Meter.Sink.Type)
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		_ = s.Publish(ctx, conn)
	}()
}
