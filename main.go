package main

import (
	"context"
	"time"

	"parkmeter-go/bus"
	"parkmeter-go/services/config"
	"parkmeter-go/services/heartbeat"
	"parkmeter-go/services/meter"
	"parkmeter-go/services/meter/platform"
	"parkmeter-go/services/report"
)

const device = "pico"

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] parkmeter boot, pins:", platform.Provider)

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, device)
	b := bus.NewBus(8)

	config.NewConfigService().Start(ctx, b.NewConnection("config"))
	_ = heartbeat.New().Start(ctx, b.NewConnection("heartbeat"))

	meter.NewService(b.NewConnection("meter"), meter.Resources{
		Pins:    platform.Pins,
		NewSink: report.New,
	}).Run(ctx)
}
