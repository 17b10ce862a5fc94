//go:build !(rp2040 || rp2350)

package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"parkmeter-go/errcode"
	"parkmeter-go/types"

	"github.com/joho/godotenv"
)

// EnvFile is loaded before overrides are read; a missing file is ignored.
// Variables already set in the process environment win over the file.
var EnvFile = ".env"

var lookupEnv = os.LookupEnv

// envReader applies METER_* variables and keeps the first parse error.
type envReader struct {
	err error
}

func (r *envReader) fail(key string, err error) {
	if r.err == nil {
		r.err = &errcode.E{C: errcode.InvalidConfig, Op: "config.env", Msg: key, Err: err}
	}
}

func (r *envReader) float(key string, dst *float64) {
	if v, ok := lookupEnv(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			r.fail(key, err)
			return
		}
		*dst = f
	}
}

func (r *envReader) unsigned(key string, dst *uint32) {
	if v, ok := lookupEnv(key); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			r.fail(key, err)
			return
		}
		*dst = uint32(n)
	}
}

func (r *envReader) signed(key string, dst *int) {
	if v, ok := lookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.fail(key, err)
			return
		}
		*dst = n
	}
}

func (r *envReader) text(key string, dst *string) {
	if v, ok := lookupEnv(key); ok {
		*dst = v
	}
}

func applyEnv(c *types.MeterConfig) error {
	if EnvFile != "" {
		if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errcode.Wrap(errcode.InvalidConfig, "config.env", err)
		}
	}

	var r envReader
	r.float("METER_THRESHOLD_CM", &c.ThresholdCm)
	r.float("METER_RATE_PER_HOUR", &c.RatePerHour)
	r.unsigned("METER_TIMEOUT_US", &c.TimeoutUs)
	r.unsigned("METER_TICK_INTERVAL_MS", &c.TickIntervalMs)
	r.signed("METER_TRIGGER_PIN", &c.TriggerPin)
	r.signed("METER_ECHO_PIN", &c.EchoPin)
	r.text("METER_LOG_LEVEL", &c.LogLevel)

	offset := int(c.UTCOffsetMin)
	r.signed("METER_UTC_OFFSET_MIN", &offset)
	c.UTCOffsetMin = int32(offset)

	r.text("METER_SINK", &c.Sink.Type)
	r.unsigned("METER_SINK_TIMEOUT_MS", &c.Sink.TimeoutMs)
	if v, ok := lookupEnv("METER_HTTP_URL"); ok {
		c.Sink.HTTP = &types.HTTPSinkConfig{URL: v}
	}
	if v, ok := lookupEnv("METER_SERIAL_PORT"); ok {
		if c.Sink.Serial == nil {
			c.Sink.Serial = &types.SerialSinkConfig{}
		}
		c.Sink.Serial.Port = v
	}
	if c.Sink.Serial != nil {
		r.unsigned("METER_SERIAL_BAUD", &c.Sink.Serial.Baud)
	}
	if v, ok := lookupEnv("METER_AMQP_URL"); ok {
		if c.Sink.AMQP == nil {
			c.Sink.AMQP = &types.AMQPSinkConfig{}
		}
		c.Sink.AMQP.URL = v
	}
	if c.Sink.AMQP != nil {
		r.text("METER_AMQP_EXCHANGE", &c.Sink.AMQP.Exchange)
		r.text("METER_AMQP_ROUTING_KEY", &c.Sink.AMQP.RoutingKey)
	}
	return r.err
}
