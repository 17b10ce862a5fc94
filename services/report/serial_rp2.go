//go:build rp2040 || rp2350

package report

import (
	"machine"

	"parkmeter-go/errcode"
	"parkmeter-go/services/meter"
	"parkmeter-go/types"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

func init() {
	RegisterBuilder(types.SinkSerial, BuilderFunc(buildSerial))
}

func buildSerial(cfg types.SinkConfig) (meter.Sink, error) {
	p, err := serialParams(cfg)
	if err != nil {
		return nil, err
	}
	var hw *uartx.UART
	switch p.Port {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "report.serial", Msg: "unknown port " + p.Port}
	}
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: p.Baud,
		TX:       machine.Pin(p.TX),
		RX:       machine.Pin(p.RX),
	}); err != nil {
		return nil, errcode.Wrap(errcode.NotReady, "report.serial", err)
	}
	return NewLineSink(hw), nil
}
