//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"sparkgfx/app"
	"sparkgfx/gfx"
	"sparkgfx/gfx/virtual"
	"sparkgfx/hal"
	"sparkgfx/kernel"
)

func main() {
	var cfg hal.HeadlessConfig
	var termDemo bool
	var remote string
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&cfg.Hz, "hz", 60, "Tick rate in headless and remote mode.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.BoolVar(&termDemo, "term-demo", false, "Run VT100 terminal demo.")
	flag.StringVar(&remote, "remote", "", "Draw on a vscreen server at this address instead of the emulated panel.")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch {
	case remote != "":
		err = runRemote(ctx, remote, cfg.Hz, app.Config{TermDemo: termDemo})
	case cfg.Enabled:
		err = hal.RunHeadless(ctx, func(h hal.HAL) func() error {
			return app.NewWithConfig(h, app.Config{TermDemo: termDemo})
		}, cfg)
	default:
		err = hal.RunWindow(func(h hal.HAL) func() error {
			return app.NewWithConfig(h, app.Config{TermDemo: termDemo})
		})
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, app.ErrQuit) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runRemote runs the demo against a virtual screen. Touches steer the
// ball.
func runRemote(ctx context.Context, addr string, hz int, cfg app.Config) error {
	if hz <= 0 {
		hz = 60
	}
	cfg.Logger = hal.NewLogrusLogger(logrus.NewEntry(logrus.StandardLogger()).WithField("remote", addr))

	sys := kernel.NewSystem()
	d, err := virtual.Dial(ctx, addr, virtual.Config{Scheduler: sys, Logger: cfg.Logger})
	if err != nil {
		return err
	}
	defer d.Close()
	a := app.New(sys, d, nil, cfg)

	t := time.NewTicker(time.Second / time.Duration(hz))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case touch := <-d.Touches():
			if touch.Pressed {
				a.MoveTo(gfx.Point{X: touch.X, Y: touch.Y})
			}
		case <-t.C:
			if err := d.Err(); err != nil {
				return err
			}
			if err := a.Step(); err != nil {
				return err
			}
		}
	}
}
