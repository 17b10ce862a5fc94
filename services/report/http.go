//go:build !(rp2040 || rp2350)

package report

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"

	"parkmeter-go/errcode"
	"parkmeter-go/services/meter"
	"parkmeter-go/types"

	"github.com/google/uuid"
)

func init() {
	RegisterBuilder(types.SinkHTTP, BuilderFunc(func(cfg types.SinkConfig) (meter.Sink, error) {
		if cfg.HTTP == nil || cfg.HTTP.URL == "" {
			return nil, &errcode.E{C: errcode.InvalidConfig, Op: "report.http", Msg: "http.url is required"}
		}
		return NewHTTPSink(cfg.HTTP.URL, nil), nil
	}))
}

// HTTPSink POSTs each record as JSON. Every request carries a fresh
// X-Request-ID.
type HTTPSink struct {
	url    string
	client *http.Client
}

// NewHTTPSink posts to url with client (nil = http.DefaultClient). The
// per-send deadline comes from the caller's context.
func NewHTTPSink(url string, client *http.Client) *HTTPSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSink{url: url, client: client}
}

func (s *HTTPSink) Send(ctx context.Context, rec types.SessionRecord) error {
	const op = "report.http"
	body, err := encode(rec)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return errcode.Wrap(errcode.InvalidConfig, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errcode.Wrap(errcode.Timeout, op, err)
		}
		return errcode.Wrap(errcode.SendFailed, op, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &errcode.E{C: errcode.SendFailed, Op: op, Msg: "status " + strconv.Itoa(resp.StatusCode)}
	}
	return nil
}
