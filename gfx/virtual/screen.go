package virtual

import (
	"fmt"
	"image"
	"sync"

	"sparkgfx/gfx"
)

// Screen is the framebuffer behind a Server. What it shows follows the
// scroll area the way a panel controller does: rows inside the area are
// read from memory offset by the scroll position.
type Screen struct {
	mu      sync.Mutex
	img     *gfx.MemoryImage
	surface *gfx.ImageSurface
	scroll  scrollArea
	lists   uint64
}

func NewScreen(size gfx.Size) *Screen {
	s := &Screen{}
	s.resize(size)
	return s
}

func (s *Screen) resize(size gfx.Size) {
	s.img = gfx.NewMemoryImage(Format, size)
	s.surface = s.img.CreateSurface(nil)
	s.scroll = scrollArea{}
}

func (s *Screen) Size() gfx.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img.Size()
}

func (s *Screen) Width() int  { return int(s.Size().W) }
func (s *Screen) Height() int { return int(s.Size().H) }

// Lists is the number of display lists played so far.
func (s *Screen) Lists() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

// Pixel returns the colour shown at x, y.
func (s *Screen) Pixel(x, y int) gfx.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	size := s.img.Size()
	if x < 0 || y < 0 || x >= int(size.W) || y >= int(size.H) {
		return 0
	}
	bpp := Format.BytesPerPixel()
	off := (s.scroll.memoryRow(y)*int(size.W) + x) * bpp
	return gfx.ReadColor(s.img.Data()[off:off+bpp], Format)
}

// SnapshotRGBA copies the visible image into dst. dst is left alone when
// it is too small, as happens for one frame after a resize.
func (s *Screen) SnapshotRGBA(dst []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot(dst)
}

func (s *Screen) snapshot(dst []byte) {
	size := s.img.Size()
	w, h := int(size.W), int(size.H)
	if len(dst) < w*h*4 {
		return
	}
	data := s.img.Data()
	for y := 0; y < h; y++ {
		src := data[s.scroll.memoryRow(y)*w*3:]
		out := dst[y*w*4:]
		for x := 0; x < w; x++ {
			out[x*4] = src[x*3]
			out[x*4+1] = src[x*3+1]
			out[x*4+2] = src[x*3+2]
			out[x*4+3] = 0xff
		}
	}
}

// Image returns a copy of the visible image.
func (s *Screen) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	size := s.img.Size()
	img := image.NewRGBA(image.Rect(0, 0, int(size.W), int(size.H)))
	s.snapshot(img.Pix)
	return img
}

// command runs one server-side command. Callers hold mu.
func (s *Screen) command(cmd uint8, p []byte) error {
	d := decoder{b: p}
	bounds := gfx.SizeRect(s.img.Size())
	switch cmd {
	case cmdSetSize:
		size := d.size()
		if d.err == nil && size.Pixels() == 0 {
			return fmt.Errorf("%w: empty screen size", ErrBadParams)
		}
		if d.err == nil && size != s.img.Size() {
			s.resize(size)
		}
	case cmdCopyPixels:
		src, dst := d.rect(), d.point()
		if d.err == nil {
			gfx.RenderNow(s.surface, &gfx.CopyObject{Source: src, Dest: dst}, bounds)
		}
	case cmdScroll:
		o := &gfx.ScrollObject{Area: d.rect(), Shift: d.point()}
		flags := d.u8()
		o.WrapX = flags&scrollWrapX != 0
		o.WrapY = flags&scrollWrapY != 0
		o.Fill = gfx.Color(d.u32())
		if d.err == nil {
			gfx.RenderNow(s.surface, o, bounds)
		}
	case cmdFill:
		r, c := d.rect(), gfx.Color(d.u32())
		if d.err == nil {
			s.surface.FillRect(gfx.Pack(c, Format), r)
		}
	case cmdSetScrollMargins:
		top, bottom := d.u16(), d.u16()
		if d.err == nil {
			s.scroll.setMargins(bounds.H, top, bottom)
		}
	case cmdSetScrollOffset:
		line := d.u16()
		if d.err == nil {
			s.scroll.setOffset(line)
		}
	default:
		return fmt.Errorf("virtual: unknown command %#x", cmd)
	}
	if d.err != nil {
		return fmt.Errorf("%w for command %d", d.err, cmd)
	}
	return nil
}
