//go:build linux && rpio && !(rp2040 || rp2350)

package platform

import (
	"parkmeter-go/errcode"
	"parkmeter-go/services/meter"
	"parkmeter-go/x/timex"

	"github.com/stianeikeland/go-rpio"
)

const Provider = "rpio"

type rpioPins struct {
	trig rpio.Pin
	echo rpio.Pin
}

func (p *rpioPins) SetOutput(level bool) {
	if level {
		p.trig.High()
	} else {
		p.trig.Low()
	}
}

func (p *rpioPins) ReadInput() bool   { return p.echo.Read() == rpio.High }
func (p *rpioPins) NowMicros() uint32 { return timex.Micros() }

// Pins maps /dev/gpiomem and claims BCM-numbered pins. The mapping stays
// open for the life of the process.
func Pins(trigger, echo int) (meter.GPIO, error) {
	if trigger < 0 || echo < 0 {
		return nil, errcode.UnknownPin
	}
	if err := rpio.Open(); err != nil {
		return nil, errcode.Wrap(errcode.Unsupported, "platform.pins", err)
	}
	p := &rpioPins{trig: rpio.Pin(trigger), echo: rpio.Pin(echo)}
	p.trig.Output()
	p.trig.Low()
	p.echo.Input()
	p.echo.PullDown()
	return p, nil
}
