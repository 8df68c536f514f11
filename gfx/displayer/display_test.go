package displayer

import (
	"errors"
	"image/color"
	"testing"

	"tinygo.org/x/drivers"

	"sparkgfx/gfx"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func newMemory(w, h uint16) (*gfx.MemoryImage, *Display) {
	img := gfx.NewMemoryImage(gfx.PixelFormatRGB24, gfx.Size{W: w, H: h})
	return img, New(img.CreateSurface(nil), nil)
}

func pixel(img *gfx.MemoryImage, x, y int) gfx.Color {
	off := (y*int(img.Size().W) + x) * 3
	return gfx.ReadColor(img.Data()[off:off+3], gfx.PixelFormatRGB24)
}

func TestRotation(t *testing.T) {
	tests := []struct {
		rot  drivers.Rotation
		want gfx.Point
	}{
		{drivers.Rotation0, gfx.Point{X: 1, Y: 2}},
		{drivers.Rotation90, gfx.Point{X: 5, Y: 1}},
		{drivers.Rotation180, gfx.Point{X: 6, Y: 1}},
		{drivers.Rotation270, gfx.Point{X: 2, Y: 2}},
	}
	for _, tt := range tests {
		img, d := newMemory(8, 4)
		if err := d.SetRotation(tt.rot); err != nil {
			t.Fatalf("SetRotation(%d) = %v", tt.rot, err)
		}
		d.SetPixel(1, 2, red)
		if err := d.Display(); err != nil {
			t.Fatalf("Display() = %v", err)
		}
		if got := pixel(img, int(tt.want.X), int(tt.want.Y)); got != gfx.Red {
			t.Fatalf("rotation %d: pixel %v = %v, want %v", tt.rot, tt.want, got, gfx.Red)
		}
	}

	_, d := newMemory(8, 4)
	d.SetRotation(drivers.Rotation90)
	if w, h := d.Size(); w != 4 || h != 8 {
		t.Fatalf("Size() = %d, %d, want 4, 8", w, h)
	}
	if err := d.SetRotation(drivers.Rotation(9)); err == nil {
		t.Fatalf("SetRotation(9) = nil, want an error")
	}
}

func TestFillRectangleRotatedAndClipped(t *testing.T) {
	img, d := newMemory(8, 4)
	d.SetRotation(drivers.Rotation180)
	// Covers native x 5..7, y 2..3 plus an off-screen part.
	if err := d.FillRectangle(-2, 0, 5, 2, white); err != nil {
		t.Fatalf("FillRectangle() = %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			want := gfx.Black
			if x >= 5 && y >= 2 {
				want = gfx.White
			}
			if got := pixel(img, x, y); got != want {
				t.Fatalf("pixel %d,%d = %v, want %v", x, y, got, want)
			}
		}
	}
	if err := d.FillRectangle(0, 0, 0, 3, white); err != nil {
		t.Fatalf("FillRectangle(empty) = %v", err)
	}
}

func TestScrollUp(t *testing.T) {
	img, d := newMemory(4, 4)
	d.SetPixel(0, 3, red)
	if err := d.ScrollUp(2, white); err != nil {
		t.Fatalf("ScrollUp() = %v", err)
	}
	if got := pixel(img, 0, 1); got != gfx.Red {
		t.Fatalf("pixel 0,1 = %v, want %v", got, gfx.Red)
	}
	if got := pixel(img, 3, 3); got != gfx.White {
		t.Fatalf("exposed pixel = %v, want %v", got, gfx.White)
	}
}

func TestSetScrollFollowsRing(t *testing.T) {
	img, d := newMemory(2, 6)
	d.SetScrollHeight(4)
	d.SetPixel(0, 1, red)
	d.SetScroll(1)
	// Ring row 1 now shows at the top; later drawing follows the ring.
	if got := pixel(img, 0, 0); got != gfx.Red {
		t.Fatalf("pixel 0,0 after SetScroll(1) = %v, want %v", got, gfx.Red)
	}
	d.SetPixel(1, 0, white)
	if got := pixel(img, 1, 3); got != gfx.White {
		t.Fatalf("pixel 1,3 = %v, want ring row 0 drawn there", got)
	}
	// Ring rows 0 and 1 straddle the wrap: screen rows 3 and 0.
	d.FillRectangle(0, 0, 2, 2, white)
	for y, want := range []gfx.Color{gfx.White, gfx.Black, gfx.Black, gfx.White} {
		if got := pixel(img, 0, y); got != want {
			t.Fatalf("pixel 0,%d = %v, want %v", y, got, want)
		}
	}
	// Rows below the ring are not remapped.
	d.SetPixel(0, 5, red)
	if got := pixel(img, 0, 5); got != gfx.Red {
		t.Fatalf("pixel 0,5 = %v, want %v", got, gfx.Red)
	}
}

// tightSurface accepts a limited number of operations per present and
// completes presents through the waiter, like a list-backed surface.
type tightSurface struct {
	*gfx.ImageSurface
	budget  int
	used    int
	pending []func()
}

func (s *tightSurface) take() bool {
	if s.used == s.budget {
		return false
	}
	s.used++
	return true
}

func (s *tightSurface) SetPixel(c gfx.PackedColor, pt gfx.Point) bool {
	return s.take() && s.ImageSurface.SetPixel(c, pt)
}

func (s *tightSurface) FillRect(c gfx.PackedColor, r gfx.Rect) bool {
	return s.take() && s.ImageSurface.FillRect(c, r)
}

func (s *tightSurface) Present(cb func()) bool {
	if s.used == 0 {
		return false
	}
	s.used = 0
	s.pending = append(s.pending, cb)
	return true
}

func (s *tightSurface) run(done func() bool) error {
	for !done() {
		if len(s.pending) == 0 {
			return errors.New("nothing pending")
		}
		cb := s.pending[0]
		s.pending = s.pending[1:]
		cb()
	}
	return nil
}

func TestFullSurfaceIsPresented(t *testing.T) {
	img := gfx.NewMemoryImage(gfx.PixelFormatRGB24, gfx.Size{W: 4, H: 4})
	s := &tightSurface{ImageSurface: img.CreateSurface(nil), budget: 2}
	d := New(s, s.run)
	for x := int16(0); x < 4; x++ {
		d.SetPixel(x, 0, red)
	}
	if err := d.Display(); err != nil {
		t.Fatalf("Display() = %v", err)
	}
	for x := 0; x < 4; x++ {
		if got := pixel(img, x, 0); got != gfx.Red {
			t.Fatalf("pixel %d,0 = %v, want %v", x, got, gfx.Red)
		}
	}

	s.budget = 0
	d.SetPixel(0, 1, red)
	if err := d.Display(); !errors.Is(err, ErrSurfaceFull) {
		t.Fatalf("Display() = %v, want %v", err, ErrSurfaceFull)
	}
	if err := d.Display(); err != nil {
		t.Fatalf("second Display() = %v, want the error cleared", err)
	}
}

func TestConsoleScrolls(t *testing.T) {
	img, d := newMemory(48, 40)
	c := NewConsole(d, ConsoleConfig{})
	if _, err := c.Write([]byte("Z")); err != nil {
		t.Fatalf("Write() = %v", err)
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
	if !inked(img, 0, 9) {
		t.Fatalf("first line is blank after writing")
	}

	// 40 rows of a 9 pixel font hold four lines; ten more push the Z off.
	for i := 0; i < 10; i++ {
		c.Write([]byte("\n"))
	}
	c.Write([]byte("Z"))
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush() = %v", err)
	}
	if inked(img, 0, 18) {
		t.Fatalf("old lines still visible after scrolling")
	}
	if !inked(img, 27, 36) {
		t.Fatalf("last line is blank, want the new Z there")
	}
}

// inked reports whether any pixel in rows [y0, y1) is not black.
func inked(img *gfx.MemoryImage, y0, y1 int) bool {
	for y := y0; y < y1; y++ {
		for x := 0; x < int(img.Size().W); x++ {
			if pixel(img, x, y) != gfx.Black {
				return true
			}
		}
	}
	return false
}
