package meter

import (
	"math"
	"testing"

	"tinygo.org/x/drivers"
)

// fakeEcho is a scripted HC-SR04. Its µs counter advances by one on every
// NowMicros call. The echo line rises riseUs after the trigger's falling
// edge and stays high for widthUs.
type fakeEcho struct {
	now       uint32
	trig      bool
	fired     bool
	fall      uint32
	riseUs    uint32
	widthUs   uint32
	noRise    bool
	stuckHigh bool

	writes int
}

func (f *fakeEcho) NowMicros() uint32 {
	f.now++
	return f.now
}

func (f *fakeEcho) SetOutput(level bool) {
	f.writes++
	if f.trig && !level {
		f.fired = true
		f.fall = f.now
	}
	f.trig = level
}

func (f *fakeEcho) ReadInput() bool {
	if f.stuckHigh {
		return true
	}
	if !f.fired || f.noRise {
		return false
	}
	el := f.now - f.fall
	return el >= f.riseUs && el < f.riseUs+f.widthUs
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDistanceForPulse(t *testing.T) {
	cases := []struct {
		us   uint32
		want float64
	}{
		{0, 2.0},
		{100, 2.0}, // 1.715 cm is below the floor
		{117, 117 * 0.01715},
		{1000, 17.15},
		{1750, 1750 * 0.01715},
	}
	for _, c := range cases {
		if got := DistanceForPulse(c.us); !near(got, c.want) {
			t.Errorf("DistanceForPulse(%d)=%v want %v", c.us, got, c.want)
		}
	}
}

func TestSensor_MeasuresPulseWidth(t *testing.T) {
	f := &fakeEcho{riseUs: 50, widthUs: 1000}
	s := NewSensor(f, 30000)

	got := s.Sample(30000)
	if got.TimedOut {
		t.Fatal("unexpected timeout")
	}
	if !near(got.Centimeters, 17.15) {
		t.Fatalf("cm=%v want 17.15", got.Centimeters)
	}
}

func TestSensor_EchoAlreadyHighCountsAsRise(t *testing.T) {
	f := &fakeEcho{riseUs: 0, widthUs: 600}
	got := NewSensor(f, 30000).Sample(30000)
	if got.TimedOut || !near(got.Centimeters, 600*0.01715) {
		t.Fatalf("got %+v", got)
	}
}

func TestSensor_ShortPulseClampsToMinimum(t *testing.T) {
	f := &fakeEcho{riseUs: 5, widthUs: 3}
	got := NewSensor(f, 30000).Sample(30000)
	if got.TimedOut || got.Centimeters != MinDistanceCm {
		t.Fatalf("got %+v want %v cm", got, MinDistanceCm)
	}
}

func TestSensor_NoRiseTimesOut(t *testing.T) {
	f := &fakeEcho{noRise: true}
	start := f.now
	got := NewSensor(f, 500).Sample(500)
	if !got.TimedOut {
		t.Fatalf("expected timeout, got %+v", got)
	}
	// Gives up within one poll of the deadline.
	if el := f.now - start; el < 500 || el > 510 {
		t.Fatalf("gave up after %dus", el)
	}
}

func TestSensor_NoFallTimesOut(t *testing.T) {
	f := &fakeEcho{riseUs: 10, widthUs: 1 << 30}
	got := NewSensor(f, 2000).Sample(2000)
	if !got.TimedOut {
		t.Fatalf("expected timeout, got %+v", got)
	}
}

func TestSensor_StuckHighTimesOut(t *testing.T) {
	f := &fakeEcho{stuckHigh: true}
	if got := NewSensor(f, 300).Sample(300); !got.TimedOut {
		t.Fatalf("expected timeout, got %+v", got)
	}
}

func TestSensor_SharedDeadline(t *testing.T) {
	// Each wait alone fits in 1000us; together they do not.
	late := &fakeEcho{riseUs: 600, widthUs: 500}
	if got := NewSensor(late, 1000).Sample(1000); !got.TimedOut {
		t.Fatalf("late rise: expected timeout, got %+v", got)
	}

	early := &fakeEcho{riseUs: 10, widthUs: 500}
	got := NewSensor(early, 1000).Sample(1000)
	if got.TimedOut || !near(got.Centimeters, 500*0.01715) {
		t.Fatalf("early rise: got %+v", got)
	}
}

func TestSensor_CounterWrap(t *testing.T) {
	f := &fakeEcho{now: math.MaxUint32 - 300, riseUs: 20, widthUs: 1000}
	got := NewSensor(f, 30000).Sample(30000)
	if got.TimedOut || !near(got.Centimeters, 17.15) {
		t.Fatalf("got %+v", got)
	}
	if f.now > 2000 {
		t.Fatalf("counter did not wrap: now=%d", f.now)
	}
}

func TestSensor_TriggerSequence(t *testing.T) {
	f := &fakeEcho{riseUs: 10, widthUs: 100}
	s := NewSensor(f, 30000)
	f.writes = 0
	s.Sample(30000)
	if f.writes != 3 || f.trig {
		t.Fatalf("writes=%d trig=%v, want low-high-low", f.writes, f.trig)
	}
}

func TestSensor_DriversUpdate(t *testing.T) {
	f := &fakeEcho{riseUs: 10, widthUs: 1000}
	s := NewSensor(f, 30000)

	if got := s.Distance(); got != 0 {
		t.Fatalf("distance before update=%d", got)
	}
	f.writes = 0
	if err := s.Update(drivers.Temperature); err != nil {
		t.Fatal(err)
	}
	if f.writes != 0 {
		t.Fatal("non-distance update touched the trigger")
	}
	if err := s.Update(drivers.Distance); err != nil {
		t.Fatal(err)
	}
	if got := s.Distance(); got != 171 {
		t.Fatalf("distance=%dmm want 171", got)
	}
	if !s.Last().Valid() {
		t.Fatal("last sample not valid")
	}
}
