package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"sparkgfx/gfx"
	"sparkgfx/hal"
	"sparkgfx/kernel"
)

type memTarget struct {
	img *gfx.MemoryImage
}

func (m memTarget) Size() gfx.Size                { return m.img.Size() }
func (m memTarget) CreateSurface(int) gfx.Surface { return m.img.CreateSurface(nil) }

type keys chan hal.KeyEvent

func (k keys) Events() <-chan hal.KeyEvent { return k }
func (k keys) Keyboard() hal.Keyboard      { return k }

func newMemApp(t *testing.T, w, h uint16, cfg Config) (*App, *gfx.MemoryImage, keys) {
	t.Helper()
	img := gfx.NewMemoryImage(gfx.PixelFormatRGB24, gfx.Size{W: w, H: h})
	k := make(keys, 8)
	return New(kernel.NewSystem(), memTarget{img}, k, cfg), img, k
}

func pixel(img *gfx.MemoryImage, pt gfx.Point) gfx.Color {
	off := (int(pt.Y)*int(img.Size().W) + int(pt.X)) * 3
	return gfx.ReadColor(img.Data()[off:off+3], gfx.PixelFormatRGB24)
}

// settle steps until n frames are drawn and the queue is idle.
func settle(t *testing.T, a *App, n uint64) {
	t.Helper()
	for i := 0; a.Frames() < n; i++ {
		if i == 1000 {
			t.Fatalf("Frames() = %d after %d steps, want %d", a.Frames(), i, n)
		}
		if err := a.Step(); err != nil {
			t.Fatalf("Step() = %v", err)
		}
	}
	for a.queue.Active() {
		a.sys.RunPending()
	}
	a.sys.RunPending()
}

func TestBallIsDrawn(t *testing.T) {
	a, img, k := newMemApp(t, 128, 64, Config{})
	k <- hal.KeyEvent{Code: hal.KeyEnter, Press: true}
	settle(t, a, 3)

	if !a.Paused() {
		t.Fatalf("Paused() = false after Enter")
	}
	if got := pixel(img, a.Ball()); got != ballColor {
		t.Fatalf("ball centre %v = %v, want %v", a.Ball(), got, ballColor)
	}
	if got := pixel(img, gfx.Point{X: 1, Y: 63}); got != background {
		t.Fatalf("corner = %v, want %v", got, background)
	}
	if got := pixel(img, gfx.Point{X: 127, Y: 5}); got != gfx.Black {
		t.Fatalf("status line = %v, want %v", got, gfx.Black)
	}
}

func TestBallMovesAndBounces(t *testing.T) {
	a, img, _ := newMemApp(t, 40, 40, Config{})
	start := a.Ball()
	settle(t, a, 1)
	if a.Ball() == start {
		t.Fatalf("ball did not move from %v", start)
	}
	for i := 0; i < 200; i++ {
		if err := a.Step(); err != nil {
			t.Fatalf("Step() = %v", err)
		}
		b := a.Ball()
		if b.X < ballRadius || b.X > 40-ballRadius-1 || b.Y < statusH+ballRadius || b.Y > 40-ballRadius-1 {
			t.Fatalf("ball %v left the playfield", b)
		}
	}

	// Only one ball is left on screen.
	settle(t, a, a.Frames()+1)
	far := gfx.Point{X: a.Ball().X, Y: a.Ball().Y}
	if far.X > 20 {
		far.X -= 2*ballRadius + 2
	} else {
		far.X += 2*ballRadius + 2
	}
	if got := pixel(img, far); got == ballColor {
		t.Fatalf("pixel %v = ball colour, want the old ball erased", far)
	}
}

func TestMoveToClamps(t *testing.T) {
	a, _, _ := newMemApp(t, 64, 64, Config{})
	a.MoveTo(gfx.Point{X: -5, Y: 1000})
	if got, want := a.Ball(), (gfx.Point{X: ballRadius, Y: 64 - ballRadius - 1}); got != want {
		t.Fatalf("Ball() = %v, want %v", got, want)
	}
}

func TestKeys(t *testing.T) {
	a, _, k := newMemApp(t, 64, 64, Config{})
	k <- hal.KeyEvent{Code: hal.KeyRight, Press: true}
	k <- hal.KeyEvent{Code: hal.KeyDown, Press: true}
	k <- hal.KeyEvent{Code: hal.KeyDown}
	if err := a.Step(); err != nil {
		t.Fatalf("Step() = %v", err)
	}
	if a.vel != (gfx.Point{X: 3, Y: 2}) {
		t.Fatalf("velocity = %v, want {3 2}", a.vel)
	}
	k <- hal.KeyEvent{Code: hal.KeyEscape, Press: true}
	if err := a.Step(); !errors.Is(err, ErrQuit) {
		t.Fatalf("Step() = %v, want %v", err, ErrQuit)
	}
}

func TestConsoleDemo(t *testing.T) {
	a, img, k := newMemApp(t, 96, 64, Config{TermDemo: true})
	if err := a.Step(); err != nil {
		t.Fatalf("Step() = %v", err)
	}
	inked := false
	for x := int16(0); x < 96 && !inked; x++ {
		for y := int16(0); y < 9; y++ {
			if pixel(img, gfx.Point{X: x, Y: y}) != gfx.Black {
				inked = true
				break
			}
		}
	}
	if !inked {
		t.Fatalf("banner line is blank")
	}

	k <- hal.KeyEvent{Press: true, Rune: 'x'}
	for i := 0; i < 80; i++ {
		if err := a.Step(); err != nil {
			t.Fatalf("Step() = %v", err)
		}
	}
}

type noDisplayHAL struct{}

func (noDisplayHAL) Logger() hal.Logger   { return nil }
func (noDisplayHAL) Display() hal.Display { return nil }
func (noDisplayHAL) Input() hal.Input     { return nil }
func (noDisplayHAL) Time() hal.Time       { return nil }

func TestNewDeviceWithoutDisplay(t *testing.T) {
	if _, err := NewDevice(context.Background(), noDisplayHAL{}, Config{}); err == nil {
		t.Fatalf("NewDevice() = nil error, want one")
	}
	if err := NewWithConfig(noDisplayHAL{}, Config{})(); err == nil {
		t.Fatalf("step = nil, want the setup error")
	}
}

func TestNewDeviceOnHostPanel(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := hal.NewHost(hal.HostConfig{Width: 64, Height: 48, Logger: logger})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a, err := NewDevice(ctx, h, Config{})
	if err != nil {
		t.Fatalf("NewDevice() = %v", err)
	}
	for a.Frames() < 2 {
		if ctx.Err() != nil {
			t.Fatalf("only %d frames drawn", a.Frames())
		}
		if err := a.Step(); err != nil {
			t.Fatalf("Step() = %v", err)
		}
		time.Sleep(time.Millisecond)
	}
}
