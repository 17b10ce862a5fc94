package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: YAML document for that device. Keys left out keep their defaults.
// -----------------------------------------------------------------------------

const cfgPico = `
meter:
  threshold_cm: 30
  rate_per_hour: 6000
  timeout_us: 30000
  tick_interval_ms: 1000
  utc_offset_min: 540
  trigger_pin: 4
  echo_pin: 15
  sink:
    type: serial
    timeout_ms: 2000
    serial:
      port: uart0
      baud: 115200
      tx_pin: 0
      rx_pin: 1
heartbeat:
  interval_ms: 2000
`

const cfgHost = `
meter:
  trigger_pin: 23
  echo_pin: 24
  sink:
    type: log
heartbeat:
  interval_ms: 10000
`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"host": []byte(cfgHost),
}
