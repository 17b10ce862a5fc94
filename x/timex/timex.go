package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// boot anchors the monotonic counters below. time.Since uses the
// monotonic clock reading carried by boot.
var boot = time.Now()

// Micros returns a free-running microsecond counter that wraps at 2^32
// (about 71.6 minutes).
func Micros() uint32 { return uint32(time.Since(boot).Microseconds()) }

// Millis returns a free-running millisecond counter that wraps at 2^32
// (about 49.7 days).
func Millis() uint32 { return uint32(time.Since(boot).Milliseconds()) }

// Since returns now-then on a wrapping u32 counter. The result is correct
// across one wrap as long as the real interval is below 2^32 ticks.
func Since(then, now uint32) uint32 { return now - then }

// Exceeded reports whether more than limit ticks separate start and now.
func Exceeded(start, now, limit uint32) bool { return Since(start, now) > limit }

// ResetTimer stops t, drains a pending fire and re-arms it for d.
func ResetTimer(t *time.Timer, d time.Duration) {
	if d < 0 {
		d = 0
	}
	if !t.Stop() {
		DrainTimer(t)
	}
	t.Reset(d)
}

// DrainTimer consumes a pending fire without blocking.
func DrainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
