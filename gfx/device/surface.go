package device

import (
	"sync"

	"sparkgfx/gfx"
	"sparkgfx/gfx/displaylist"
)

// maxFillPixels bounds each read-blend-write block queued by FillRect.
const maxFillPixels = 32

// Surface records drawing into a display list. Present hands the list to
// the Display; the surface is busy until playback has finished with it.
type Surface struct {
	d    *Display
	list *displaylist.List

	mu      sync.Mutex
	busy    bool
	waiting []func()
}

var _ gfx.Surface = (*Surface)(nil)

func (s *Surface) Type() gfx.SurfaceType { return gfx.SurfaceDevice }

func (s *Surface) Stat() gfx.Stat {
	return gfx.Stat{Used: s.list.Used(), Available: s.list.FreeSpace()}
}

func (s *Surface) Size() gfx.Size               { return s.d.size }
func (s *Surface) PixelFormat() gfx.PixelFormat { return s.d.ctrl.Format }

// List exposes the display list being recorded.
func (s *Surface) List() *displaylist.List { return s.list }

// Busy reports whether the surface is waiting for playback to finish.
func (s *Surface) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Surface) SetAddrWindow(r gfx.Rect) bool {
	return s.list.SetAddrWindow(s.d.deviceRect(r))
}

func (s *Surface) Buffer(minBytes int) []byte { return s.list.Buffer(minBytes) }
func (s *Surface) Commit(n int)               { s.list.Commit(n) }

func (s *Surface) BlockFill(data []byte, repeat uint32) bool {
	return s.list.BlockFill(data, repeat)
}

func (s *Surface) WriteDataBuffer(buf *gfx.SharedBuffer, offset, length int) bool {
	return s.list.WriteDataBuffer(buf, offset, length)
}

func (s *Surface) SetPixel(c gfx.PackedColor, pt gfx.Point) bool {
	if !gfx.SizeRect(s.d.size).Contains(pt) {
		return true
	}
	r := s.d.deviceRect(gfx.Rect{X: pt.X, Y: pt.Y, W: 1, H: 1})
	return s.list.SetPixel(c, s.d.ctrl.Format.BytesPerPixel(), r.TopLeft())
}

func (s *Surface) WritePixels(data []byte) bool { return gfx.WritePixelsVia(s, data) }

func (s *Surface) SetScrollMargins(top, bottom uint16) bool {
	return s.d.writeScrollMargins(s.list, top, bottom)
}

func (s *Surface) SetScrollOffset(line uint16) bool {
	return s.d.writeScrollOffset(s.list, line)
}

// ReadDataBuffer queues a read of the current window. The controller
// returns RGB24; the completion converts it to buf.Format in place, which
// is why buf must have room for the wider of the two.
func (s *Surface) ReadDataBuffer(buf *gfx.ReadBuffer, status *gfx.ReadStatus, cb gfx.ReadCallback) int {
	format := buf.Format
	if format == gfx.PixelFormatNone {
		format = gfx.PixelFormatRGB24
	}
	dst := buf.Bytes()
	pixels := len(dst) / max(gfx.ReadPixelSize, format.BytesPerPixel())

	w := s.list.Window()
	avail := w.PixelCount()
	if w.Mode != gfx.WindowRead {
		avail = w.Initial().Pixels()
	}
	if pixels == 0 || avail == 0 {
		return 0
	}
	need := displaylist.CodeLen(displaylist.CodeReadStart) + displaylist.CodeLen(displaylist.CodeCallback)
	if !s.list.Require(need) || !s.list.CanLockBuffer() {
		return -1
	}
	pixels = min(pixels, avail, displaylist.MaxVar/gfx.ReadPixelSize)
	if status != nil {
		*status = gfx.ReadStatus{}
	}
	data := dst[:pixels*gfx.ReadPixelSize]
	s.list.ReadMem(data)
	w.Seek(pixels)

	d := s.d
	s.list.WriteCallback(func([]byte) {
		n := gfx.ConvertInPlace(dst, gfx.PixelFormatRGB24, format, pixels)
		d.later(func() {
			if status != nil {
				*status = gfx.ReadStatus{BytesRead: n, Format: format, ReadComplete: true}
			}
			if cb != nil {
				cb(buf, n)
			}
		})
	}, nil)
	s.list.LockBuffer(buf.Data)
	return pixels
}

// Render blends small translucent rectangles on the controller side and
// leaves everything else to the generic path.
func (s *Surface) Render(obj gfx.Object, location gfx.Rect) (gfx.Renderer, bool) {
	if o, ok := obj.(*gfx.FilledRectObject); ok && o.Blender == nil && o.Radius == 0 &&
		o.Brush.IsSolid() && o.Brush.IsTransparent() && o.Rect.Pixels() <= maxFillPixels {
		abs := o.Rect.Add(location.TopLeft()).Clip(location)
		return nil, s.FillRect(o.Brush.PackedColor(s.PixelFormat()), abs)
	}
	return gfx.RenderInline(s, obj, location)
}

// FillRect fills r with c. Translucent colours become read-blend-write
// blocks that run during playback; either all blocks fit or none is queued.
func (s *Surface) FillRect(c gfx.PackedColor, r gfx.Rect) bool {
	r = r.Clip(gfx.SizeRect(s.d.size))
	if r.Empty() {
		return true
	}
	if c.Alpha == 255 {
		return gfx.BlockFillRect(s, c, r)
	}
	if c.Alpha == 0 {
		return true
	}
	tw := min(r.W, maxFillPixels)
	th := max(uint16(maxFillPixels)/tw, 1)
	need := 0
	for y := uint16(0); y < r.H; y += th {
		for x := uint16(0); x < r.W; x += tw {
			need += displaylist.FillSize(int(min(tw, r.W-x)) * int(min(th, r.H-y)))
		}
	}
	if !s.list.Require(need) {
		return false
	}
	format := s.d.ctrl.Format
	for y := uint16(0); y < r.H; y += th {
		for x := uint16(0); x < r.W; x += tw {
			tile := gfx.Rect{X: r.X + int16(x), Y: r.Y + int16(y), W: min(tw, r.W-x), H: min(th, r.H-y)}
			s.list.Fill(s.d.deviceRect(tile), c, format, blendFill)
		}
	}
	return true
}

func blendFill(info displaylist.FillInfo) {
	gfx.BlendColor(info.Format, info.Color, info.Dst)
}

// Reset drops recorded drawing. It does nothing while the surface is busy.
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.busy {
		s.list.Reset()
	}
}

// Present queues the recorded list for playback. While an earlier present
// is still playing, cb joins its completion.
func (s *Surface) Present(cb func()) bool {
	s.mu.Lock()
	if s.busy {
		if cb != nil {
			s.waiting = append(s.waiting, cb)
		}
		s.mu.Unlock()
		return true
	}
	if s.list.IsEmpty() {
		s.mu.Unlock()
		return false
	}
	s.busy = true
	if cb != nil {
		s.waiting = append(s.waiting, cb)
	}
	s.mu.Unlock()
	s.d.submit(s.list, s.presented)
	return true
}

func (s *Surface) presented() {
	s.mu.Lock()
	s.list.Reset()
	s.busy = false
	waiting := s.waiting
	s.waiting = nil
	s.mu.Unlock()
	for _, fn := range waiting {
		fn()
	}
}
