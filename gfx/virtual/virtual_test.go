package virtual

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"sparkgfx/gfx"
	"sparkgfx/kernel"
)

type harness struct {
	srv *Server
	d   *Display
	sys *kernel.System
}

func newHarness(t *testing.T, size gfx.Size, debug bool) *harness {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	srv := NewServer(ServerConfig{Logger: logger})

	client, server := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.ServeConn(ctx, server)
	}()

	sys := kernel.NewSystem()
	h := &harness{srv: srv, d: New(client, Config{Size: size, Scheduler: sys, Debug: debug}), sys: sys}
	t.Cleanup(func() {
		h.d.Close()
		cancel()
		<-done
	})
	h.sync(t)
	return h
}

// pump runs scheduled callbacks until cond holds.
func (h *harness) pump(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if h.sys.RunPending() == 0 {
			time.Sleep(time.Millisecond)
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out")
		}
	}
}

// sync waits until the server has played every list the client sent.
func (h *harness) sync(t *testing.T) {
	t.Helper()
	h.pump(t, func() bool {
		return h.d.Pending() == 0 && h.srv.Screen().Lists() == h.d.Lists()
	})
}

func (h *harness) present(t *testing.T, s *Surface) {
	t.Helper()
	done := false
	if !s.Present(func() { done = true }) {
		return
	}
	h.pump(t, func() bool { return done })
}

func (h *harness) render(t *testing.T, s *Surface, obj gfx.Object) {
	t.Helper()
	loc := gfx.SizeRect(s.Size())
	var r gfx.Renderer
	var ok bool
	for pass := 0; ; pass++ {
		if r, ok = s.Render(obj, loc); ok {
			break
		}
		if pass > 1000 {
			t.Fatalf("Render(%v) never fitted", obj.Kind())
		}
		h.present(t, s)
	}
	for pass := 0; !gfx.Execute(s, &r); pass++ {
		if pass > 100000 {
			t.Fatalf("renderer did not finish after %d passes", pass)
		}
		h.present(t, s)
		h.sys.RunPending()
	}
	h.present(t, s)
	h.sync(t)
}

func testScene(size gfx.Size) *gfx.SceneObject {
	scene := gfx.NewScene(size, "scene")
	scene.Clear(gfx.Black)
	scene.FillRect(gfx.SolidBrush(gfx.Red), gfx.Rect{X: 2, Y: 3, W: 10, H: 10})
	scene.FillCircle(gfx.SolidBrush(gfx.Green), gfx.Point{X: 13, Y: 12}, 5)
	scene.FillRect(gfx.SolidBrush(gfx.RGBA(0, 0, 255, 128)), gfx.Rect{X: 8, Y: 0, W: 6, H: 4})
	scene.DrawLine(gfx.SolidPen(gfx.White), gfx.Point{X: 0, Y: 19}, gfx.Point{X: 19, Y: 0})
	scene.Add(&gfx.CopyObject{Source: gfx.Rect{X: 2, Y: 3, W: 6, H: 6}, Dest: gfx.Point{X: 12, Y: 1}})
	scene.Add(&gfx.ScrollObject{Area: gfx.Rect{X: 0, Y: 10, W: 20, H: 10}, Shift: gfx.Point{Y: -1}, Fill: gfx.Blue})
	return scene
}

func TestRemoteRenderMatchesMemory(t *testing.T) {
	for _, debug := range []bool{false, true} {
		size := gfx.Size{W: 20, H: 20}
		scene := testScene(size)
		want := gfx.NewMemoryImage(Format, size)
		if !gfx.RenderNow(want.CreateSurface(nil), scene, gfx.SizeRect(size)) {
			t.Fatalf("memory RenderNow() = false, want true")
		}

		h := newHarness(t, size, debug)
		if got := h.srv.Screen().Size(); got != size {
			t.Fatalf("screen Size() = %v, want %v", got, size)
		}
		s := h.d.NewSurface(256)
		h.render(t, s, scene)

		if err := h.d.Err(); err != nil {
			t.Fatalf("Err() = %v, want nil", err)
		}
		data := want.Data()
		for y := 0; y < 20; y++ {
			for x := 0; x < 20; x++ {
				off := (y*20 + x) * 3
				exp := gfx.ReadColor(data[off:off+3], Format)
				if got := h.srv.Screen().Pixel(x, y); got != exp {
					t.Fatalf("debug = %v: pixel %d,%d = %v, want %v", debug, x, y, got, exp)
				}
			}
		}
		if s.Busy() || s.Stat().Used != 0 {
			t.Fatalf("surface busy = %v, used = %d after render", s.Busy(), s.Stat().Used)
		}
	}
}

func TestRemoteReadDataBuffer(t *testing.T) {
	h := newHarness(t, gfx.Size{W: 8, H: 4}, false)
	s := h.d.NewSurface(0)
	s.FillRect(gfx.Pack(gfx.Blue, Format), gfx.Rect{X: 0, Y: 1, W: 8, H: 1})
	s.FillRect(gfx.Pack(gfx.Red, Format), gfx.Rect{X: 2, Y: 1, W: 1, H: 1})
	s.SetAddrWindow(gfx.Rect{X: 1, Y: 1, W: 3, H: 1})

	buf := gfx.NewReadStatusBuffer(gfx.PixelFormatRGB565, 32)
	calls := 0
	n := s.ReadDataBuffer(&buf.ReadBuffer, &buf.Status, func(_ *gfx.ReadBuffer, length int) {
		calls++
	})
	if n != 3 {
		t.Fatalf("ReadDataBuffer() = %d, want 3", n)
	}
	if buf.Status.ReadComplete {
		t.Fatalf("status complete before present")
	}
	h.present(t, s)
	h.pump(t, func() bool { return calls == 1 })

	if !buf.Status.ReadComplete || buf.Status.BytesRead != 6 || buf.Status.Format != gfx.PixelFormatRGB565 {
		t.Fatalf("status = %+v, want 6 complete RGB565 bytes", buf.Status)
	}
	px := buf.Bytes()
	for i, want := range []gfx.Color{gfx.Blue, gfx.Red, gfx.Blue} {
		if got := gfx.ReadColor(px[i*2:], gfx.PixelFormatRGB565); got != want {
			t.Fatalf("pixel %d = %v, want %v", i, got, want)
		}
	}
	if refs := buf.Data.RefCount(); refs != 1 {
		t.Fatalf("RefCount() = %d after present, want 1", refs)
	}
}

func TestRemoteScrollOffset(t *testing.T) {
	h := newHarness(t, gfx.Size{W: 8, H: 8}, false)
	if h.d.SetScrollMargins(5, 3) {
		t.Fatalf("SetScrollMargins(5, 3) = true, want false without rows left to scroll")
	}
	if !h.d.SetScrollMargins(2, 2) || !h.d.SetScrollOffset(5) {
		t.Fatalf("scroll setup failed")
	}
	s := h.d.NewSurface(0)
	s.FillRect(gfx.Pack(gfx.Red, Format), gfx.Rect{X: 0, Y: 3, W: 8, H: 1})
	h.present(t, s)
	h.sync(t)

	scr := h.srv.Screen()
	if got := scr.Pixel(0, 3); got != gfx.Red {
		t.Fatalf("visible row 3 = %v, want %v", got, gfx.Red)
	}
	for _, y := range []int{0, 2, 4, 5, 7} {
		if got := scr.Pixel(0, y); got != gfx.Black {
			t.Fatalf("visible row %d = %v, want %v", y, got, gfx.Black)
		}
	}
	// Offset 5 wraps to 1 in a four row area, so row 3 lives in memory row 4.
	img := scr.Image()
	h.d.SetScrollOffset(0)
	h.sync(t)
	if got := scr.Pixel(0, 4); got != gfx.Red {
		t.Fatalf("row 4 after clearing the offset = %v, want %v", got, gfx.Red)
	}
	if px := img.RGBAAt(0, 3); px.R != 255 || px.G != 0 || px.B != 0 || px.A != 255 {
		t.Fatalf("Image() row 3 = %v, want opaque red", px)
	}
}

func TestTouchReachesClient(t *testing.T) {
	h := newHarness(t, gfx.Size{W: 4, H: 4}, false)
	if n := len(h.srv.Sessions()); n != 1 {
		t.Fatalf("Sessions() = %d, want 1", n)
	}
	h.srv.SendTouch(Touch{X: 3, Y: -2, Pressed: true})
	select {
	case got := <-h.d.Touches():
		if got != (Touch{X: 3, Y: -2, Pressed: true}) {
			t.Fatalf("touch = %+v, want {3 -2 true}", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no touch received")
	}
	info := h.srv.Sessions()[0]
	if info.Lists != h.d.Lists() || info.Bytes == 0 {
		t.Fatalf("session info = %+v, want %d lists", info, h.d.Lists())
	}
}

func TestClosedDisplayCompletesPresents(t *testing.T) {
	h := newHarness(t, gfx.Size{W: 4, H: 4}, false)
	h.d.Close()
	s := h.d.NewSurface(0)
	s.SetPixel(gfx.Pack(gfx.White, Format), gfx.Point{X: 1, Y: 1})
	done := false
	if !s.Present(func() { done = true }) {
		t.Fatalf("Present() = false, want true")
	}
	h.pump(t, func() bool { return done })
	if !errors.Is(h.d.Err(), ErrClosed) {
		t.Fatalf("Err() = %v, want %v", h.d.Err(), ErrClosed)
	}
}

func TestPacketRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := writePacket(&buf, touchMagic, Touch{X: -1, Y: 7}.marshal()); err != nil {
		t.Fatalf("writePacket() = %v", err)
	}
	magic, data, err := readPacket(&buf)
	if err != nil || magic != touchMagic {
		t.Fatalf("readPacket() = %#x, %v, want touch packet", magic, err)
	}
	if got, ok := unmarshalTouch(data); !ok || got != (Touch{X: -1, Y: 7}) {
		t.Fatalf("unmarshalTouch() = %+v, %v", got, ok)
	}

	bad := []byte{1, 2, 3, 4, 0, 0, 0, 0}
	if _, _, err := readPacket(bytes.NewReader(bad)); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("readPacket(bad magic) = %v, want %v", err, ErrBadMagic)
	}
	short := []byte{0x5a, 0xbe, 0xac, 0x3f, 4, 0, 0, 0, 1}
	if _, _, err := readPacket(bytes.NewReader(short)); err != io.ErrUnexpectedEOF {
		t.Fatalf("readPacket(short) = %v, want %v", err, io.ErrUnexpectedEOF)
	}
}

func TestServerRejectsUnknownCommand(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	srv := NewServer(ServerConfig{Logger: logger, Size: gfx.Size{W: 4, H: 4}})
	client, server := net.Pipe()
	defer client.Close()
	errc := make(chan error, 1)
	go func() { errc <- srv.ServeConn(context.Background(), server) }()

	// One command entry, no arguments, command byte 0x7f.
	if err := writePacket(client, packetMagic, []byte{0x01, 0x7f}); err != nil {
		t.Fatalf("writePacket() = %v", err)
	}
	select {
	case err := <-errc:
		if err == nil {
			t.Fatalf("ServeConn() = nil, want an error")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("ServeConn() did not return")
	}
}
