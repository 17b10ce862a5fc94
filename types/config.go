package types

import (
	"time"

	"parkmeter-go/errcode"
)

// ------------------------
// Meter configuration
// ------------------------

const (
	DefaultThresholdCm    = 30.0
	DefaultRatePerHour    = 6000.0
	DefaultTimeoutUs      = 30000
	DefaultTickIntervalMs = 1000
	DefaultUTCOffsetMin   = 9 * 60
	DefaultTriggerPin     = 4
	DefaultEchoPin        = 15
	DefaultSendTimeoutMs  = 5000
)

type MeterConfig struct {
	ThresholdCm    float64 `json:"threshold_cm" yaml:"threshold_cm"`
	RatePerHour    float64 `json:"rate_per_hour" yaml:"rate_per_hour"` // currency units per hour, >=0
	TimeoutUs      uint32  `json:"timeout_us" yaml:"timeout_us"`
	TickIntervalMs uint32  `json:"tick_interval_ms" yaml:"tick_interval_ms"`
	UTCOffsetMin   int32   `json:"utc_offset_min" yaml:"utc_offset_min"` // report timestamp offset from UTC

	TriggerPin int `json:"trigger_pin" yaml:"trigger_pin"`
	EchoPin    int `json:"echo_pin" yaml:"echo_pin"`

	Sink SinkConfig `json:"sink" yaml:"sink"`

	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// DefaultMeterConfig is the document that embedded YAML is decoded over, so
// keys absent from YAML keep these values.
func DefaultMeterConfig() MeterConfig {
	return MeterConfig{
		ThresholdCm:    DefaultThresholdCm,
		RatePerHour:    DefaultRatePerHour,
		TimeoutUs:      DefaultTimeoutUs,
		TickIntervalMs: DefaultTickIntervalMs,
		UTCOffsetMin:   DefaultUTCOffsetMin,
		TriggerPin:     DefaultTriggerPin,
		EchoPin:        DefaultEchoPin,
		Sink:           SinkConfig{Type: SinkLog, TimeoutMs: DefaultSendTimeoutMs},
		LogLevel:       "info",
	}
}

func (c MeterConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

func (c MeterConfig) UTCOffset() time.Duration {
	return time.Duration(c.UTCOffsetMin) * time.Minute
}

// Validate checks the documented ranges of a meter configuration.
func (c MeterConfig) Validate() error {
	const op = "config.validate"
	switch {
	case c.ThresholdCm <= 0:
		return &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "threshold_cm must be > 0"}
	case c.RatePerHour < 0:
		return &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "rate_per_hour must be >= 0"}
	case c.TimeoutUs == 0:
		return &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "timeout_us must be > 0"}
	case c.TickIntervalMs == 0:
		return &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "tick_interval_ms must be > 0"}
	case c.TriggerPin < 0 || c.EchoPin < 0:
		return &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "pins must be >= 0"}
	case c.TriggerPin == c.EchoPin:
		return &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "trigger_pin and echo_pin must differ"}
	case c.Sink.Type == "":
		return &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "sink.type is required"}
	}
	return nil
}

// ------------------------
// Report sink configuration
// ------------------------

// Sink types understood by services/report.
const (
	SinkHTTP   = "http"
	SinkSerial = "serial"
	SinkAMQP   = "amqp"
	SinkLog    = "log"
)

type SinkConfig struct {
	Type      string `json:"type" yaml:"type"`
	TimeoutMs uint32 `json:"timeout_ms" yaml:"timeout_ms"`

	HTTP   *HTTPSinkConfig   `json:"http,omitempty" yaml:"http,omitempty"`
	Serial *SerialSinkConfig `json:"serial,omitempty" yaml:"serial,omitempty"`
	AMQP   *AMQPSinkConfig   `json:"amqp,omitempty" yaml:"amqp,omitempty"`
}

func (s SinkConfig) Timeout() time.Duration {
	if s.TimeoutMs == 0 {
		return DefaultSendTimeoutMs * time.Millisecond
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

type HTTPSinkConfig struct {
	URL string `json:"url" yaml:"url"`
}

type SerialSinkConfig struct {
	Port string `json:"port" yaml:"port"` // "uart0"/"uart1" on RP2, a device path on hosts
	Baud uint32 `json:"baud" yaml:"baud"`
	TX   int    `json:"tx_pin,omitempty" yaml:"tx_pin,omitempty"` // RP2 only
	RX   int    `json:"rx_pin,omitempty" yaml:"rx_pin,omitempty"` // RP2 only
}

type AMQPSinkConfig struct {
	URL        string `json:"url" yaml:"url"`
	Exchange   string `json:"exchange" yaml:"exchange"`
	RoutingKey string `json:"routing_key" yaml:"routing_key"`
}

// ------------------------
// Heartbeat configuration
// ------------------------

type HeartbeatConfig struct {
	IntervalMs uint32 `json:"interval_ms" yaml:"interval_ms"`
}

func (c HeartbeatConfig) Interval() time.Duration {
	if c.IntervalMs == 0 {
		return time.Second
	}
	return time.Duration(c.IntervalMs) * time.Millisecond
}
