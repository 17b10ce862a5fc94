//go:build rp2040 || rp2350

package platform

import (
	"machine"

	"parkmeter-go/errcode"
	"parkmeter-go/services/meter"
	"parkmeter-go/x/timex"
)

const Provider = "rp2"

const maxPin = 29

type rp2Pins struct {
	trig machine.Pin
	echo machine.Pin
}

func (p *rp2Pins) SetOutput(level bool) { p.trig.Set(level) }
func (p *rp2Pins) ReadInput() bool      { return p.echo.Get() }
func (p *rp2Pins) NowMicros() uint32    { return timex.Micros() }

// Pins configures GPIO trigger as a push-pull output (low) and GPIO echo as
// a pulled-down input.
func Pins(trigger, echo int) (meter.GPIO, error) {
	if trigger < 0 || trigger > maxPin || echo < 0 || echo > maxPin {
		return nil, errcode.UnknownPin
	}
	p := &rp2Pins{trig: machine.Pin(trigger), echo: machine.Pin(echo)}
	p.trig.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.trig.Low()
	p.echo.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	return p, nil
}
