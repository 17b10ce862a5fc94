//go:build !(rp2040 || rp2350)

// Command meter-host runs the meter on a Linux or desktop host: real GPIO
// through periph.io (or go-rpio with -tags rpio), or a simulated sensor.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"parkmeter-go/bus"
	"parkmeter-go/services/config"
	"parkmeter-go/services/heartbeat"
	"parkmeter-go/services/meter"
	"parkmeter-go/services/meter/platform"
	"parkmeter-go/services/report"
	"parkmeter-go/x/logx"

	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		device   = flag.String("device", "host", "embedded config document to load")
		envFile  = flag.String("env", ".env", "dotenv file with METER_* overrides (\"\" to skip)")
		sim      = flag.String("sim", "", "simulate the sensor with a comma-separated cm script, e.g. 80,20,20,45 (-1 = no echo)")
		monitor  = flag.Bool("monitor", false, "log every meter/# bus message")
		logLevel = flag.String("log-level", "info", "debug|info|warn|error")
	)
	flag.Parse()

	logx.SetOutput(func(line string) { fmt.Fprintln(os.Stderr, line) })
	logx.SetLevel(logx.ParseLevel(*logLevel))
	log := logx.New("main")

	pins := platform.Pins
	if *sim != "" {
		script, err := parseScript(*sim)
		if err != nil {
			log.Errorf("bad -sim: %v", err)
			os.Exit(2)
		}
		pins = platform.SimPins(platform.NewSim(nil, script...))
	}
	config.EnvFile = *envFile

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = context.WithValue(ctx, config.CtxDeviceKey, *device)

	b := bus.NewBus(16)
	g, ctx := errgroup.WithContext(ctx)

	if *monitor {
		mon := b.NewConnection("monitor")
		sub := mon.Subscribe(bus.T("meter", bus.MultiLevel))
		g.Go(func() error {
			defer mon.Disconnect()
			for {
				select {
				case <-ctx.Done():
					return nil
				case m := <-sub.Channel():
					body, _ := json.Marshal(m.Payload)
					log.Infof("%s %s", m.Topic, body)
				}
			}
		})
	}

	g.Go(func() error {
		return config.NewConfigService().Publish(ctx, b.NewConnection("config"))
	})
	g.Go(func() error {
		return heartbeat.New().Run(ctx, b.NewConnection("heartbeat"))
	})
	g.Go(func() error {
		meter.NewService(b.NewConnection("meter"), meter.Resources{
			Pins:    pins,
			NewSink: report.New,
		}).Run(ctx)
		return nil
	})

	log.Infof("running device=%s pins=%s sinks=%s", *device, pinsName(*sim), strings.Join(report.Types(), ","))
	if err := g.Wait(); err != nil {
		log.Errorf("exit: %v", err)
		os.Exit(1)
	}
}

func parseScript(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func pinsName(sim string) string {
	if sim != "" {
		return "sim"
	}
	return platform.Provider
}
