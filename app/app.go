// Package app is the sparkgfx demo. It bounces a ball across the screen
// through the render queue, or runs a VT100 console, on whatever display
// the platform provides.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tinygo.org/x/tinyfont/proggy"

	"sparkgfx/gfx"
	"sparkgfx/gfx/device"
	"sparkgfx/gfx/displayer"
	"sparkgfx/gfx/renderqueue"
	"sparkgfx/hal"
	"sparkgfx/kernel"
)

// ErrQuit is returned by Step once Escape has been pressed.
var ErrQuit = errors.New("app: quit")

const (
	ballRadius = 8
	statusH    = 12
	waitLimit  = 2 * time.Second
)

var (
	background = gfx.Navy
	ballColor  = gfx.Yellow
)

type Config struct {
	// TermDemo runs the console demo instead of the ball.
	TermDemo bool
	Logger   hal.Logger
}

// App is one demo instance. Step must be called from a single goroutine,
// which also runs the scheduler's callbacks.
type App struct {
	sys    *kernel.System
	target renderqueue.Target
	queue  *renderqueue.Queue
	keys   <-chan hal.KeyEvent
	logger hal.Logger

	console *displayer.Console
	spin    int

	size    gfx.Size
	ball    gfx.Point
	vel     gfx.Point
	drawn   gfx.Rect
	cleared bool
	paused  bool
	frames  uint64
	steps   uint64
}

// New runs the demo on target. sys must be the scheduler the target
// completes presents on. in may be nil.
func New(sys *kernel.System, target renderqueue.Target, in hal.Input, cfg Config) *App {
	a := &App{
		sys:    sys,
		target: target,
		logger: cfg.Logger,
		size:   target.Size(),
		vel:    gfx.Point{X: 2, Y: 1},
	}
	a.ball = gfx.Point{X: int16(a.size.W / 2), Y: int16(a.size.H / 2)}
	if in != nil && in.Keyboard() != nil {
		a.keys = in.Keyboard().Events()
	}
	if cfg.TermDemo {
		d := displayer.New(target.CreateSurface(0), a.wait)
		a.console = displayer.NewConsole(d, displayer.ConsoleConfig{})
	} else {
		a.queue = renderqueue.New(target, renderqueue.Config{Scheduler: sys, Logger: cfg.Logger})
	}
	a.logf("app: demo running on %v", a.size)
	return a
}

// NewDevice brings up the PicoCalc panel behind h and runs the demo on it.
func NewDevice(ctx context.Context, h hal.HAL, cfg Config) (*App, error) {
	hw := h.Display()
	if hw == nil {
		return nil, errors.New("app: no display")
	}
	if cfg.Logger == nil {
		cfg.Logger = h.Logger()
	}
	sys := kernel.NewSystem()
	disp := device.New(hw, device.Config{
		Controller: device.PicoCalc,
		Scheduler:  sys,
		Logger:     cfg.Logger,
	})
	if err := disp.Init(ctx); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return New(sys, disp, h.Input(), cfg), nil
}

// NewWithConfig adapts NewDevice to the host runners, which want a step
// function. Setup errors are returned by the first step.
func NewWithConfig(h hal.HAL, cfg Config) func() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a, err := NewDevice(ctx, h, cfg)
	if err != nil {
		return func() error { return err }
	}
	return a.Step
}

// Run steps the demo at roughly 60 Hz until it quits.
func Run(ctx context.Context, h hal.HAL, cfg Config) error {
	a, err := NewDevice(ctx, h, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if v := recover(); v != nil {
			a.showPanic(v)
			panic(v)
		}
	}()
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		if err := a.Step(); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			return err
		}
	}
}

func (a *App) logf(format string, args ...any) {
	if a.logger == nil {
		return
	}
	a.logger.WriteLineString(fmt.Sprintf(format, args...))
}

// Frames is the number of ball frames that have been drawn.
func (a *App) Frames() uint64 { return a.frames }

// Ball returns the ball centre.
func (a *App) Ball() gfx.Point { return a.ball }

// Paused reports whether the ball is held.
func (a *App) Paused() bool { return a.paused }

// MoveTo puts the ball at pt, clamped to the playfield.
func (a *App) MoveTo(pt gfx.Point) {
	a.ball = a.clamp(pt)
}

// Step handles pending input, runs due callbacks and draws the next frame
// if the previous one is done.
func (a *App) Step() error {
	if err := a.drainKeys(); err != nil {
		return err
	}
	a.sys.RunPending()
	a.steps++
	if a.console != nil {
		return a.stepConsole()
	}
	if !a.queue.Active() {
		a.drawFrame()
	}
	return nil
}

func (a *App) drainKeys() error {
	for {
		select {
		case ev := <-a.keys:
			if err := a.key(ev); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (a *App) key(ev hal.KeyEvent) error {
	if !ev.Press {
		return nil
	}
	switch ev.Code {
	case hal.KeyEscape:
		return ErrQuit
	case hal.KeyEnter:
		a.paused = !a.paused
	case hal.KeyUp:
		a.vel.Y--
	case hal.KeyDown:
		a.vel.Y++
	case hal.KeyLeft:
		a.vel.X--
	case hal.KeyRight:
		a.vel.X++
	default:
		if a.console != nil && ev.Rune != 0 {
			_, err := fmt.Fprintf(a.console, "%c", ev.Rune)
			return err
		}
	}
	return nil
}

func (a *App) clamp(pt gfx.Point) gfx.Point {
	pt.X = max(ballRadius, min(pt.X, int16(a.size.W)-ballRadius-1))
	pt.Y = max(statusH+ballRadius, min(pt.Y, int16(a.size.H)-ballRadius-1))
	return pt
}

func (a *App) advance() {
	next := gfx.Point{X: a.ball.X + a.vel.X, Y: a.ball.Y + a.vel.Y}
	c := a.clamp(next)
	if c.X != next.X {
		a.vel.X = -a.vel.X
	}
	if c.Y != next.Y {
		a.vel.Y = -a.vel.Y
	}
	a.ball = c
}

// drawFrame queues a scene that erases the previous ball, draws the new
// one and refreshes the status line. Only the first frame clears.
func (a *App) drawFrame() {
	if !a.paused {
		a.advance()
	}
	scene := gfx.NewScene(a.size, "frame")
	if !a.cleared {
		scene.Clear(background)
		a.cleared = true
	} else if !a.drawn.Empty() {
		scene.FillRect(gfx.SolidBrush(background), a.drawn)
	}
	scene.FillCircle(gfx.SolidBrush(ballColor), a.ball, ballRadius)
	a.drawn = gfx.Rect{
		X: a.ball.X - ballRadius,
		Y: a.ball.Y - ballRadius,
		W: 2*ballRadius + 1,
		H: 2*ballRadius + 1,
	}

	status := gfx.Rect{W: a.size.W, H: statusH}
	scene.FillRect(gfx.SolidBrush(gfx.Black), status)
	text := fmt.Sprintf("frame %d", a.frames)
	if a.paused {
		text += " (paused)"
	}
	scene.DrawText(&proggy.TinySZ8pt7b, gfx.SolidBrush(gfx.White), gfx.Point{X: 2, Y: 9}, text)

	a.queue.Render(scene, gfx.Rect{}, func(gfx.Object) { a.frames++ }, 0)
}

// wait runs scheduler callbacks until done holds. The console uses it to
// block on presents.
func (a *App) wait(done func() bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), waitLimit)
	defer cancel()
	return a.sys.RunUntil(ctx, done)
}

var spinner = []byte(`-\|/`)

func (a *App) stepConsole() error {
	c := a.console
	switch {
	case a.steps == 1:
		fmt.Fprintf(c, "\x1b[1msparkgfx console (tinyterm)\x1b[0m\n")
		fmt.Fprintf(c, "\x1b[31mred \x1b[32mgreen \x1b[34mblue\x1b[0m\n\n")
		fmt.Fprintf(c, "working  ")
	case a.steps%40 == 0:
		fmt.Fprintf(c, "\nnow tick: %d\nworking  ", a.steps)
	case a.steps%4 == 0:
		a.spin = (a.spin + 1) % len(spinner)
		fmt.Fprintf(c, "\x1b[D%c", spinner[a.spin])
	default:
		return nil
	}
	return c.Flush()
}
