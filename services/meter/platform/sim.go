// Package platform provides the trigger/echo capability for each build
// target, plus a simulated sensor for hosts and tests.
package platform

import (
	"sync"

	"parkmeter-go/services/meter"
	"parkmeter-go/x/timex"
)

// SimEchoDelayUs is the gap between the trigger's falling edge and the echo
// rise on the simulated sensor.
const SimEchoDelayUs = 200

// Sim is a simulated HC-SR04. Each trigger pulse takes the next entry of a
// cyclic distance script; a negative entry produces no echo.
type Sim struct {
	mu     sync.Mutex
	now    func() uint32
	script []float64
	idx    int

	trig    bool
	fired   bool
	silent  bool
	fall    uint32
	widthUs uint32
}

var _ meter.GPIO = (*Sim)(nil)

// NewSim returns a simulated sensor. now is the µs counter (nil = the
// process counter). With no script the sensor reads 100 cm.
func NewSim(now func() uint32, script ...float64) *Sim {
	if now == nil {
		now = timex.Micros
	}
	if len(script) == 0 {
		script = []float64{100}
	}
	return &Sim{now: now, script: append([]float64(nil), script...)}
}

// Set replaces the script with a single distance.
func (s *Sim) Set(cm float64) {
	s.mu.Lock()
	s.script = []float64{cm}
	s.idx = 0
	s.mu.Unlock()
}

func (s *Sim) NowMicros() uint32 { return s.now() }

func (s *Sim) SetOutput(level bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trig && !level {
		cm := s.script[s.idx%len(s.script)]
		s.idx++
		s.fired = true
		s.fall = s.now()
		s.silent = cm < 0
		if !s.silent {
			s.widthUs = uint32(cm * 2 / meter.SpeedOfSoundCmPerUs)
		}
	}
	s.trig = level
}

func (s *Sim) ReadInput() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fired || s.silent {
		return false
	}
	el := timex.Since(s.fall, s.now())
	return el >= SimEchoDelayUs && el < SimEchoDelayUs+s.widthUs
}

// SimPins returns a pin factory that hands out one shared Sim.
func SimPins(sim *Sim) meter.PinFactory {
	return func(trigger, echo int) (meter.GPIO, error) { return sim, nil }
}
