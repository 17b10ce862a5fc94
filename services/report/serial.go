package report

import (
	"context"
	"io"
	"sync"

	"parkmeter-go/errcode"
	"parkmeter-go/types"
)

const defaultBaud = 115200

// LineSink writes one JSON document per line to a byte stream, typically a
// UART or a host serial port.
type LineSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewLineSink(w io.Writer) *LineSink { return &LineSink{w: w} }

func (s *LineSink) Send(ctx context.Context, rec types.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return errcode.Wrap(errcode.Timeout, "report.serial", err)
	}
	b, err := encode(rec)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(b) > 0 {
		n, err := s.w.Write(b)
		if err != nil {
			return errcode.Wrap(errcode.SendFailed, "report.serial", err)
		}
		if n == 0 {
			return errcode.Wrap(errcode.SendFailed, "report.serial", io.ErrShortWrite)
		}
		b = b[n:]
	}
	return nil
}

func serialParams(cfg types.SinkConfig) (types.SerialSinkConfig, error) {
	if cfg.Serial == nil || cfg.Serial.Port == "" {
		return types.SerialSinkConfig{}, &errcode.E{C: errcode.InvalidConfig, Op: "report.serial", Msg: "serial.port is required"}
	}
	p := *cfg.Serial
	if p.Baud == 0 {
		p.Baud = defaultBaud
	}
	return p, nil
}
