package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"ok":             OK,
		"unsupported":    Unsupported,
		"invalid_config": InvalidConfig,
		"missing_config": MissingConfig,
		"not_ready":      NotReady,
		"unknown_pin":    UnknownPin,
		"unknown_sink":   UnknownSink,
		"timeout":        Timeout,
		"send_failed":    SendFailed,
		"encode_failed":  Encode,
		"error":          Error,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestOf(t *testing.T) {
	cause := errors.New("connection refused")
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", Timeout, Timeout},
		{"wrapped E", Wrap(SendFailed, "report", cause), SendFailed},
		{"fmt wrapped E", fmt.Errorf("tick: %w", Wrap(UnknownSink, "sink", nil)), UnknownSink},
		{"fmt wrapped code", fmt.Errorf("cfg: %w", InvalidConfig), InvalidConfig},
		{"plain error", cause, Error},
	}
	for _, c := range cases {
		if got := Of(c.err); got != c.want {
			t.Fatalf("%s: Of() = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestEErrorAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := &E{C: SendFailed, Op: "report", Msg: "http 500", Err: cause}
	if got, want := e.Error(), "report: send_failed: http 500: boom"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(e, cause) {
		t.Fatal("errors.Is should reach the cause")
	}
	var target *E
	if !errors.As(fmt.Errorf("outer: %w", e), &target) || target.Code() != SendFailed {
		t.Fatal("errors.As should find *E")
	}
}
