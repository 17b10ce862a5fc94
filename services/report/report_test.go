package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"parkmeter-go/errcode"
	"parkmeter-go/types"
	"parkmeter-go/x/logx"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

var sample = types.SessionRecord{ElapsedSec: 10, Cost: 16.67, Distance: 35, Timestamp: "2024-03-01 21:00:10"}

func TestRegistry(t *testing.T) {
	got := Types()
	want := []string{types.SinkAMQP, types.SinkHTTP, types.SinkLog, types.SinkSerial}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("types (-want +got):\n%s", diff)
	}

	if _, err := New(types.SinkConfig{Type: "carrier-pigeon"}); errcode.Of(err) != errcode.UnknownSink {
		t.Fatalf("err=%v", err)
	}
	for _, cfg := range []types.SinkConfig{
		{Type: types.SinkHTTP},
		{Type: types.SinkAMQP},
		{Type: types.SinkSerial},
		{Type: types.SinkSerial, Serial: &types.SerialSinkConfig{}},
	} {
		if _, err := New(cfg); errcode.Of(err) != errcode.InvalidConfig {
			t.Errorf("%s: err=%v", cfg.Type, err)
		}
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	RegisterBuilder(types.SinkLog, BuilderFunc(nil))
}

func TestLogSink(t *testing.T) {
	var lines []string
	logx.SetOutput(func(l string) { lines = append(lines, l) })
	defer logx.SetOutput(nil)

	s, err := New(types.SinkConfig{Type: types.SinkLog})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Send(context.Background(), sample); err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], `"elapsed_sec":10`) || !strings.HasPrefix(lines[0], "[report]") {
		t.Fatalf("lines=%q", lines)
	}
}

func TestLineSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewLineSink(&buf)
	for i := 0; i < 2; i++ {
		if err := s.Send(context.Background(), sample); err != nil {
			t.Fatal(err)
		}
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines=%q", lines)
	}
	var got types.SessionRecord
	if err := json.Unmarshal([]byte(lines[1]), &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sample, got); diff != "" {
		t.Fatalf("decoded (-want +got):\n%s", diff)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("port gone") }

func TestLineSink_Errors(t *testing.T) {
	if err := NewLineSink(failWriter{}).Send(context.Background(), sample); errcode.Of(err) != errcode.SendFailed {
		t.Fatalf("err=%v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewLineSink(io.Discard).Send(ctx, sample); errcode.Of(err) != errcode.Timeout {
		t.Fatalf("err=%v", err)
	}
}

func TestHTTPSink(t *testing.T) {
	var (
		gotBody types.SessionRecord
		gotID   string
		gotCT   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gotID = r.Header.Get("X-Request-ID")
		gotCT = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := New(types.SinkConfig{Type: types.SinkHTTP, HTTP: &types.HTTPSinkConfig{URL: srv.URL}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Send(context.Background(), sample); err != nil {
		t.Fatalf("send: %v", err)
	}
	if diff := cmp.Diff(sample, gotBody); diff != "" {
		t.Fatalf("body (-want +got):\n%s", diff)
	}
	if _, err := uuid.Parse(gotID); err != nil {
		t.Fatalf("request id %q: %v", gotID, err)
	}
	if gotCT != "application/json" {
		t.Fatalf("content type %q", gotCT)
	}
}

func TestHTTPSink_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewHTTPSink(srv.URL, srv.Client()).Send(context.Background(), sample)
	if errcode.Of(err) != errcode.SendFailed || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("err=%v", err)
	}
}

func TestHTTPSink_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := NewHTTPSink(srv.URL, srv.Client()).Send(ctx, sample)
	if errcode.Of(err) != errcode.Timeout {
		t.Fatalf("err=%v", err)
	}
}

type fakePublisher struct {
	msgs   []amqp.Publishing
	keys   []string
	err    error
	closed bool
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, exchange+"/"+key)
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func TestAMQPSink(t *testing.T) {
	pubs := []*fakePublisher{{err: errors.New("channel closed")}, {}}
	dials := 0
	dial := func(ctx context.Context, url string) (Publisher, error) {
		p := pubs[dials]
		dials++
		return p, nil
	}
	s := NewAMQPSink(types.AMQPSinkConfig{URL: "amqp://x", Exchange: "meter", RoutingKey: "session.closed"}, dial)

	if err := s.Send(context.Background(), sample); errcode.Of(err) != errcode.SendFailed {
		t.Fatalf("first send err=%v", err)
	}
	if !pubs[0].closed {
		t.Fatal("failed publisher not closed")
	}
	if err := s.Send(context.Background(), sample); err != nil {
		t.Fatalf("second send: %v", err)
	}
	if dials != 2 {
		t.Fatalf("dials=%d", dials)
	}

	got := pubs[1]
	if len(got.msgs) != 1 || got.keys[0] != "meter/session.closed" {
		t.Fatalf("published %v to %v", got.msgs, got.keys)
	}
	m := got.msgs[0]
	if m.ContentType != "application/json" {
		t.Fatalf("content type %q", m.ContentType)
	}
	if _, err := uuid.Parse(m.MessageId); err != nil {
		t.Fatalf("message id %q", m.MessageId)
	}
	var rec types.SessionRecord
	if err := json.Unmarshal(m.Body, &rec); err != nil || rec != sample {
		t.Fatalf("body %s err=%v", m.Body, err)
	}

	if err := s.Close(); err != nil || !got.closed {
		t.Fatalf("close err=%v closed=%v", err, got.closed)
	}
}

func TestAMQPSink_DialFailure(t *testing.T) {
	s := NewAMQPSink(types.AMQPSinkConfig{URL: "amqp://x"}, func(context.Context, string) (Publisher, error) {
		return nil, errors.New("refused")
	})
	if err := s.Send(context.Background(), sample); errcode.Of(err) != errcode.NotReady {
		t.Fatalf("err=%v", err)
	}
}

func TestAMQPSink_SilentBrokerHonoursDeadline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	conns := make(chan net.Conn, 4)
	go func() {
		defer close(conns)
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			conns <- c // held open, never answers the handshake
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		for c := range conns {
			c.Close()
		}
	})

	s := NewAMQPSink(types.AMQPSinkConfig{URL: "amqp://guest:guest@" + ln.Addr().String() + "/"}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = s.Send(ctx, sample)
	if el := time.Since(start); el > 2*time.Second {
		t.Fatalf("send took %v with a 200ms deadline", el)
	}
	if errcode.Of(err) != errcode.NotReady {
		t.Fatalf("err=%v", err)
	}
}
