//go:build linux && !rpio && !(rp2040 || rp2350)

package platform

import (
	"strconv"

	"parkmeter-go/errcode"
	"parkmeter-go/services/meter"
	"parkmeter-go/x/timex"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

const Provider = "periph"

type periphPins struct {
	trig gpio.PinIO
	echo gpio.PinIO
}

func (p *periphPins) SetOutput(level bool) {
	l := gpio.Low
	if level {
		l = gpio.High
	}
	_ = p.trig.Out(l)
}

func (p *periphPins) ReadInput() bool   { return p.echo.Read() == gpio.High }
func (p *periphPins) NowMicros() uint32 { return timex.Micros() }

// Pins opens BCM-numbered pins through periph.io's host drivers.
func Pins(trigger, echo int) (meter.GPIO, error) {
	const op = "platform.pins"
	if _, err := host.Init(); err != nil {
		return nil, errcode.Wrap(errcode.Unsupported, op, err)
	}
	p := &periphPins{
		trig: gpioreg.ByName(strconv.Itoa(trigger)),
		echo: gpioreg.ByName(strconv.Itoa(echo)),
	}
	if p.trig == nil || p.echo == nil {
		return nil, errcode.UnknownPin
	}
	if err := p.trig.Out(gpio.Low); err != nil {
		return nil, errcode.Wrap(errcode.UnknownPin, op, err)
	}
	if err := p.echo.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, errcode.Wrap(errcode.UnknownPin, op, err)
	}
	return p, nil
}
