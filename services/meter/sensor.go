package meter

import (
	"parkmeter-go/x/mathx"
	"parkmeter-go/x/timex"

	"tinygo.org/x/drivers"
)

const (
	// SpeedOfSoundCmPerUs is the speed of sound in air at ~20 °C.
	SpeedOfSoundCmPerUs = 0.0343
	// MinDistanceCm is the sensor's minimum reliable range; shorter readings
	// are reported as this value.
	MinDistanceCm = 2.0

	settleUs  = 2
	triggerUs = 10
)

// GPIO is the pin capability the sensor drives: one trigger output, one echo
// input and a free-running microsecond counter that may wrap.
type GPIO interface {
	SetOutput(level bool)
	ReadInput() bool
	NowMicros() uint32
}

// Sample is one measurement: either a distance or a timeout.
type Sample struct {
	Centimeters float64
	TimedOut    bool
}

// Reading returns a valid sample.
func Reading(cm float64) Sample { return Sample{Centimeters: cm} }

// Timeout returns the no-echo sample.
func Timeout() Sample { return Sample{TimedOut: true} }

// Valid reports whether s carries a distance.
func (s Sample) Valid() bool { return !s.TimedOut }

// DistanceForPulse converts an echo pulse width to centimetres, floored at
// MinDistanceCm.
func DistanceForPulse(widthUs uint32) float64 {
	return mathx.Max(float64(widthUs)*SpeedOfSoundCmPerUs/2, MinDistanceCm)
}

// Sensor times HC-SR04 style echo pulses by polling.
type Sensor struct {
	io GPIO

	timeoutUs uint32
	last      Sample
}

var _ drivers.Sensor = (*Sensor)(nil)

// NewSensor returns a sensor on io. timeoutUs bounds Update; Sample takes
// its own timeout.
func NewSensor(io GPIO, timeoutUs uint32) *Sensor {
	io.SetOutput(false)
	return &Sensor{io: io, timeoutUs: timeoutUs, last: Timeout()}
}

// Sample fires one trigger pulse and times the echo.
//
// The rise wait and the fall wait share one deadline, anchored at the start
// of the trigger sequence. A late rise leaves less time for the fall.
func (s *Sensor) Sample(timeoutUs uint32) Sample {
	anchor := s.io.NowMicros()

	s.io.SetOutput(false)
	s.delay(settleUs)
	s.io.SetOutput(true)
	s.delay(triggerUs)
	s.io.SetOutput(false)

	for !s.io.ReadInput() {
		if timex.Exceeded(anchor, s.io.NowMicros(), timeoutUs) {
			return Timeout()
		}
	}
	pulseStart := s.io.NowMicros()

	for s.io.ReadInput() {
		if timex.Exceeded(anchor, s.io.NowMicros(), timeoutUs) {
			return Timeout()
		}
	}
	pulseEnd := s.io.NowMicros()

	return Reading(DistanceForPulse(timex.Since(pulseStart, pulseEnd)))
}

// Update implements drivers.Sensor. Only drivers.Distance triggers IO.
func (s *Sensor) Update(which drivers.Measurement) error {
	if which&drivers.Distance == 0 {
		return nil
	}
	s.last = s.Sample(s.timeoutUs)
	return nil
}

// Distance returns the last Update result in millimetres, or 0 after a
// timeout.
func (s *Sensor) Distance() int32 {
	if s.last.TimedOut {
		return 0
	}
	return int32(s.last.Centimeters * 10)
}

// Last returns the sample taken by the most recent Update.
func (s *Sensor) Last() Sample { return s.last }

// delay busy-waits on the µs counter; time.Sleep is too coarse here.
func (s *Sensor) delay(us uint32) {
	start := s.io.NowMicros()
	for timex.Since(start, s.io.NowMicros()) < us {
	}
}
