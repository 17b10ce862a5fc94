package types

// ------------------------
// Distance
// ------------------------

// DistanceValue is the last sample, retained on meter/distance/value.
// TimedOut means no echo inside the window; Centimeters is then zero.
type DistanceValue struct {
	Centimeters float64 `json:"cm"`
	TimedOut    bool    `json:"timed_out"`
	TSms        int64   `json:"ts_ms"`
}

// ------------------------
// Timer
// ------------------------

type TimerState string

const (
	TimerIdle    TimerState = "idle"
	TimerRunning TimerState = "running"
)

// TimerValue is retained on meter/timer/value.
type TimerValue struct {
	State     TimerState `json:"state"`
	ElapsedMs uint32     `json:"elapsed_ms,omitempty"`
	TSms      int64      `json:"ts_ms"`
}

// ------------------------
// Session record
// ------------------------

// SessionRecord is the document handed to report sinks. Numeric fields are
// rounded to two decimals; Timestamp is "YYYY-MM-DD HH:MM:SS" local time.
type SessionRecord struct {
	ElapsedSec float64 `json:"elapsed_sec"`
	Cost       float64 `json:"cost"`
	Distance   float64 `json:"distance"`
	Timestamp  string  `json:"timestamp"`
}

// ReportResult is published on meter/report/event after each send attempt.
type ReportResult struct {
	OK    bool          `json:"ok"`
	Sink  string        `json:"sink"`
	Error string        `json:"error,omitempty"` // errcode string when !OK
	Rec   SessionRecord `json:"record"`
}
