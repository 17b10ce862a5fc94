//go:build rp2040 || rp2350

package report

import (
	"parkmeter-go/errcode"
	"parkmeter-go/services/meter"
	"parkmeter-go/types"
)

// RP2 builds have no network stack.
func init() {
	for _, t := range []string{types.SinkHTTP, types.SinkAMQP} {
		sinkType := t
		RegisterBuilder(sinkType, BuilderFunc(func(types.SinkConfig) (meter.Sink, error) {
			return nil, &errcode.E{C: errcode.Unsupported, Op: "report.new", Msg: sinkType}
		}))
	}
}
