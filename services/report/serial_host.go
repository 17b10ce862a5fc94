//go:build !(rp2040 || rp2350)

package report

import (
	"parkmeter-go/errcode"
	"parkmeter-go/services/meter"
	"parkmeter-go/types"

	"go.bug.st/serial"
)

func init() {
	RegisterBuilder(types.SinkSerial, BuilderFunc(buildSerial))
}

// openPort is swapped in tests.
var openPort = func(path string, baud int) (serial.Port, error) {
	return serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
}

func buildSerial(cfg types.SinkConfig) (meter.Sink, error) {
	p, err := serialParams(cfg)
	if err != nil {
		return nil, err
	}
	port, err := openPort(p.Port, int(p.Baud))
	if err != nil {
		return nil, errcode.Wrap(errcode.NotReady, "report.serial", err)
	}
	return NewLineSink(port), nil
}
