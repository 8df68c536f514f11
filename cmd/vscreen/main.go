//go:build !tinygo

// Command vscreen shows a virtual screen that sparkgfx clients draw on over
// TCP. Clicks in the window are sent back to the clients as touches, and a
// small HTTP API serves snapshots and connection stats.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"sparkgfx/gfx"
	"sparkgfx/gfx/virtual"
	"sparkgfx/hal"
	"sparkgfx/internal/buildinfo"
)

type options struct {
	Listen   string `long:"listen" default:"127.0.0.1:7788" description:"address display clients connect to"`
	HTTP     string `long:"http" default:"127.0.0.1:7789" description:"address of the status API, empty to disable"`
	Width    uint16 `long:"width" default:"320" description:"screen width until a client sets it"`
	Height   uint16 `long:"height" default:"480" description:"screen height until a client sets it"`
	Headless bool   `long:"headless" description:"run without a window"`
	LogLevel string `long:"log-level" default:"info" description:"log level"`
}

var errWindowClosed = errors.New("window closed")

func main() {
	opts := getCLIArgs()
	level, err := log.ParseLevel(opts.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("Invalid log level")
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, opts); err != nil {
		log.WithError(err).Fatal("vscreen failed")
	}
}

func getCLIArgs() options {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	return opts
}

func run(ctx context.Context, opts options) error {
	srv := virtual.NewServer(virtual.ServerConfig{
		Size:   gfx.Size{W: opts.Width, H: opts.Height},
		Logger: log.StandardLogger(),
	})
	ln, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return err
	}
	log.WithField("addr", ln.Addr().String()).Info("Listening for display clients")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx, ln) })
	if opts.HTTP != "" {
		hs := &http.Server{Addr: opts.HTTP, Handler: newRouter(srv)}
		g.Go(func() error {
			log.WithField("addr", opts.HTTP).Info("Serving status API")
			if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return hs.Shutdown(context.Background())
		})
	}

	if opts.Headless {
		return g.Wait()
	}

	// The window has to own the main goroutine.
	title := "vscreen (" + buildinfo.Short() + ")"
	werr := hal.RunFramebufferWindow(title, srv.Screen(), windowStep(ctx, srv))
	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if werr != nil && !errors.Is(werr, errWindowClosed) {
		return werr
	}
	return nil
}

// windowStep forwards pointer changes as touches and ends the window once
// ctx is done.
func windowStep(ctx context.Context, srv *virtual.Server) func() error {
	var last virtual.Touch
	return func() error {
		if ctx.Err() != nil {
			return errWindowClosed
		}
		x, y, pressed := hal.PointerState()
		t := virtual.Touch{X: int16(x), Y: int16(y), Pressed: pressed}
		if t != last && (pressed || last.Pressed) {
			srv.SendTouch(t)
		}
		last = t
		return nil
	}
}
