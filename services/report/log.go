package report

import (
	"context"

	"parkmeter-go/services/meter"
	"parkmeter-go/types"
	"parkmeter-go/x/logx"
)

func init() {
	RegisterBuilder(types.SinkLog, BuilderFunc(func(types.SinkConfig) (meter.Sink, error) {
		return NewLogSink(), nil
	}))
}

// LogSink writes each record to the console log.
type LogSink struct {
	log logx.Logger
}

func NewLogSink() *LogSink { return &LogSink{log: logx.New("report")} }

func (s *LogSink) Send(ctx context.Context, rec types.SessionRecord) error {
	b, err := encode(rec)
	if err != nil {
		return err
	}
	s.log.Infof("record %s", b)
	return nil
}
