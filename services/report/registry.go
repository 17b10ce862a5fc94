// Package report holds the session-record sinks and a registry that builds
// one from types.SinkConfig.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"parkmeter-go/errcode"
	"parkmeter-go/services/meter"
	"parkmeter-go/types"
)

// Builder creates a sink from configuration.
type Builder interface {
	Build(cfg types.SinkConfig) (meter.Sink, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(cfg types.SinkConfig) (meter.Sink, error)

func (f BuilderFunc) Build(cfg types.SinkConfig) (meter.Sink, error) { return f(cfg) }

var (
	mu       sync.RWMutex
	builders = map[string]Builder{}
)

func RegisterBuilder(sinkType string, b Builder) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := builders[sinkType]; exists {
		panic(fmt.Sprintf("sink builder already registered for type %q", sinkType))
	}
	builders[sinkType] = b
}

func Lookup(sinkType string) (Builder, bool) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := builders[sinkType]
	return b, ok
}

// Types lists the registered sink types in order.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(builders))
	for k := range builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New builds the sink named by cfg.Type. It satisfies meter.SinkFactory.
func New(cfg types.SinkConfig) (meter.Sink, error) {
	b, ok := Lookup(cfg.Type)
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownSink, Op: "report.new", Msg: cfg.Type}
	}
	return b.Build(cfg)
}

// encode renders rec as the JSON document every sink sends.
func encode(rec types.SessionRecord) ([]byte, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, errcode.Wrap(errcode.Encode, "report.encode", err)
	}
	return b, nil
}
