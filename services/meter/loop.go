package meter

import (
	"context"
	"time"

	"parkmeter-go/errcode"
	"parkmeter-go/types"
	"parkmeter-go/x/logx"
	"parkmeter-go/x/timex"
)

// DistanceSource produces one sample per call. *Sensor implements it.
type DistanceSource interface {
	Sample(timeoutUs uint32) Sample
}

// Clock supplies the millisecond counter for elapsed time and wall-clock
// time for report stamps.
type Clock interface {
	NowMs() uint32
	Now() time.Time
}

type systemClock struct{}

func (systemClock) NowMs() uint32  { return timex.Millis() }
func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the process clocks.
func SystemClock() Clock { return systemClock{} }

// ---- Loop → observer telemetry ----

type EventKind uint8

const (
	EventDistance EventKind = iota // Payload: types.DistanceValue
	EventTimer                     // Payload: types.TimerValue
	EventSession                   // Payload: types.SessionRecord
	EventReport                    // Payload: types.ReportResult
)

type Event struct {
	Kind    EventKind
	Payload any
}

// Emitter receives loop telemetry. Emit must not block; false means the
// event was dropped.
type Emitter interface {
	Emit(ev Event) bool
}

type nopEmitter struct{}

func (nopEmitter) Emit(Event) bool { return true }

// LoopConfig holds the per-tick parameters.
type LoopConfig struct {
	TimeoutUs    uint32
	TickInterval time.Duration
	SinkName     string // reported in types.ReportResult
}

// Loop runs sample → update → report → sleep. One goroutine owns it.
type Loop struct {
	cfg      LoopConfig
	sensor   DistanceSource
	timer    *Timer
	reporter *Reporter
	clock    Clock
	pub      Emitter
	log      logx.Logger
}

func NewLoop(cfg LoopConfig, sensor DistanceSource, timer *Timer, reporter *Reporter, clock Clock, pub Emitter) *Loop {
	if clock == nil {
		clock = SystemClock()
	}
	if pub == nil {
		pub = nopEmitter{}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = types.DefaultTickIntervalMs * time.Millisecond
	}
	return &Loop{
		cfg:      cfg,
		sensor:   sensor,
		timer:    timer,
		reporter: reporter,
		clock:    clock,
		pub:      pub,
		log:      logx.New("meter"),
	}
}

// Run ticks until ctx is cancelled. Cancellation is checked between ticks
// and during the sleep, never inside a measurement.
func (l *Loop) Run(ctx context.Context) {
	sleep := time.NewTimer(time.Hour)
	defer sleep.Stop()
	for {
		if ctx.Err() != nil {
			return
		}
		l.Tick(ctx)
		timex.ResetTimer(sleep, l.cfg.TickInterval)
		select {
		case <-ctx.Done():
			return
		case <-sleep.C:
		}
	}
}

// Tick runs one iteration without the sleep and returns the session it
// closed, if any. Sensor timeouts and send failures are logged, never
// returned.
func (l *Loop) Tick(ctx context.Context) (Session, bool) {
	sample := l.sensor.Sample(l.cfg.TimeoutUs)
	now := Instant{Ms: l.clock.NowMs(), Wall: l.clock.Now()}
	ts := now.Wall.UnixMilli()

	if sample.TimedOut {
		l.log.Infof("Distance: below minimum range")
	} else {
		l.log.Infof("Distance: %.2f cm", sample.Centimeters)
	}
	l.pub.Emit(Event{Kind: EventDistance, Payload: types.DistanceValue{
		Centimeters: sample.Centimeters, TimedOut: sample.TimedOut, TSms: ts,
	}})

	wasRunning := l.timer.State().Running()
	sess, closed := l.timer.Update(sample, now)

	tv := types.TimerValue{State: types.TimerIdle, TSms: ts}
	if el, ok := l.timer.Elapsed(now); ok {
		if !wasRunning {
			l.log.Infof("Timer started")
		}
		l.log.Infof("Timer running: %.2f seconds", el.Seconds())
		tv.State = types.TimerRunning
		tv.ElapsedMs = uint32(el.Milliseconds())
	} else if closed {
		l.log.Infof("Timer running: %.2f seconds", sess.ElapsedSeconds)
	}
	l.pub.Emit(Event{Kind: EventTimer, Payload: tv})

	if !closed {
		return Session{}, false
	}

	l.log.Infof("Timer stopped")
	l.log.Infof("Total elapsed time: %.2f seconds", sess.ElapsedSeconds)
	l.log.Infof("Charge: approx %.2f", sess.Cost)
	l.report(ctx, sess)
	return sess, true
}

func (l *Loop) report(ctx context.Context, sess Session) {
	rec, err := l.reporter.Send(ctx, sess)
	l.log.Infof("Sending payload: elapsed_sec=%.2f cost=%.2f distance=%.2f timestamp=%s",
		rec.ElapsedSec, rec.Cost, rec.Distance, rec.Timestamp)
	l.pub.Emit(Event{Kind: EventSession, Payload: rec})

	res := types.ReportResult{OK: true, Sink: l.cfg.SinkName, Rec: rec}
	if err != nil {
		l.log.Errorf("Failed to send data: %v", err)
		res.OK = false
		res.Error = string(errcode.Of(err))
	} else {
		l.log.Infof("Sent session record to %s", l.cfg.SinkName)
	}
	l.pub.Emit(Event{Kind: EventReport, Payload: res})
}
