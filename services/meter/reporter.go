package meter

import (
	"context"
	"time"

	"parkmeter-go/errcode"
	"parkmeter-go/types"
	"parkmeter-go/x/mathx"
)

// TimestampLayout is the record timestamp format.
const TimestampLayout = "2006-01-02 15:04:05"

// Sink accepts a session record. Implementations live in services/report.
type Sink interface {
	Send(ctx context.Context, rec types.SessionRecord) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec types.SessionRecord) error

func (f SinkFunc) Send(ctx context.Context, rec types.SessionRecord) error { return f(ctx, rec) }

// Reporter turns sessions into records and makes one best-effort send.
type Reporter struct {
	sink    Sink
	offset  time.Duration
	now     func() time.Time
	timeout time.Duration
}

// NewReporter builds a reporter. now is the wall-clock source used when a
// session carries no close time; timeout bounds each send (0 = ctx only).
func NewReporter(sink Sink, utcOffset time.Duration, now func() time.Time, timeout time.Duration) *Reporter {
	if now == nil {
		now = time.Now
	}
	return &Reporter{sink: sink, offset: utcOffset, now: now, timeout: timeout}
}

// Record formats s: numbers rounded to two decimals, timestamp in UTC plus
// the configured offset.
func (r *Reporter) Record(s Session) types.SessionRecord {
	at := s.ClosedAt
	if at.IsZero() {
		at = r.now()
	}
	return types.SessionRecord{
		ElapsedSec: mathx.RoundTo(s.ElapsedSeconds, 2),
		Cost:       mathx.RoundTo(s.Cost, 2),
		Distance:   mathx.RoundTo(s.DistanceAtClose, 2),
		Timestamp:  at.UTC().Add(r.offset).Format(TimestampLayout),
	}
}

// Send builds the record and hands it to the sink once. A sink failure is
// returned as errcode.SendFailed; there is no retry and no queueing.
func (r *Reporter) Send(ctx context.Context, s Session) (types.SessionRecord, error) {
	rec := r.Record(s)
	if r.sink == nil {
		return rec, errcode.Wrap(errcode.SendFailed, "report", errcode.UnknownSink)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if err := r.sink.Send(ctx, rec); err != nil {
		return rec, errcode.Wrap(errcode.SendFailed, "report", err)
	}
	return rec, nil
}
