package meter

import (
	"time"

	"parkmeter-go/types"
	"parkmeter-go/x/timex"
)

// Instant pairs the monotonic millisecond counter with wall-clock time.
// Elapsed time is always measured on Ms; Wall only stamps closed sessions.
type Instant struct {
	Ms   uint32
	Wall time.Time
}

// Session is one completed occupancy interval.
type Session struct {
	ElapsedSeconds  float64
	Cost            float64
	DistanceAtClose float64
	ClosedAt        time.Time
}

// State is the timer state. startedAt is meaningful only while Running.
type State struct {
	running   bool
	startedAt uint32
}

func (s State) Running() bool { return s.running }

func (s State) String() string {
	if s.running {
		return string(types.TimerRunning)
	}
	return string(types.TimerIdle)
}

// Timer is the Idle/Running occupancy machine. It is not safe for concurrent
// use; the control loop owns it.
type Timer struct {
	thresholdCm float64
	ratePerHour float64
	state       State
}

func NewTimer(thresholdCm, ratePerHour float64) *Timer {
	return &Timer{thresholdCm: thresholdCm, ratePerHour: ratePerHour}
}

func (t *Timer) State() State { return t.state }

// Elapsed returns the running time at now, or false while Idle.
func (t *Timer) Elapsed(now Instant) (time.Duration, bool) {
	if !t.state.running {
		return 0, false
	}
	return msDuration(timex.Since(t.state.startedAt, now.Ms)), true
}

// Update feeds one sample. A reading at or below the threshold starts a
// session from Idle; a reading strictly above it closes a running one.
// Timeouts never change state. At most one Session is returned per call.
func (t *Timer) Update(s Sample, now Instant) (Session, bool) {
	if s.TimedOut {
		return Session{}, false
	}
	if !t.state.running {
		if s.Centimeters <= t.thresholdCm {
			t.state = State{running: true, startedAt: now.Ms}
		}
		return Session{}, false
	}
	if s.Centimeters <= t.thresholdCm {
		return Session{}, false
	}

	elapsed, _ := t.Elapsed(now)
	t.state = State{}
	if elapsed <= 0 {
		// Opened and closed inside one millisecond: not a session.
		return Session{}, false
	}
	secs := elapsed.Seconds()
	return Session{
		ElapsedSeconds:  secs,
		Cost:            secs / 3600 * t.ratePerHour,
		DistanceAtClose: s.Centimeters,
		ClosedAt:        now.Wall,
	}, true
}

func msDuration(ms uint32) time.Duration { return time.Duration(ms) * time.Millisecond }
