//go:build !linux && !(rp2040 || rp2350)

package platform

import "parkmeter-go/services/meter"

const Provider = "sim"

// Pins has no hardware to claim here and returns a simulated sensor that
// reads 100 cm.
func Pins(trigger, echo int) (meter.GPIO, error) {
	return NewSim(nil), nil
}
