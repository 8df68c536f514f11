package virtual

import (
	"sync"

	"sparkgfx/gfx"
	"sparkgfx/gfx/displaylist"
)

// Surface records drawing for a virtual screen. Copies, scrolls and
// translucent fills are sent as commands and run on the server.
type Surface struct {
	d    *Display
	list *displaylist.List

	mu      sync.Mutex
	busy    bool
	waiting []func()
}

var _ gfx.Surface = (*Surface)(nil)

func (s *Surface) Type() gfx.SurfaceType        { return gfx.SurfaceVirtual }
func (s *Surface) Size() gfx.Size               { return s.d.size }
func (s *Surface) PixelFormat() gfx.PixelFormat { return Format }

func (s *Surface) Stat() gfx.Stat {
	return gfx.Stat{Used: s.list.Used(), Available: s.list.FreeSpace()}
}

// List exposes the display list being recorded.
func (s *Surface) List() *displaylist.List { return s.list }

func (s *Surface) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Surface) SetAddrWindow(r gfx.Rect) bool {
	return s.list.SetAddrWindow(s.d.screenRect(r))
}

func (s *Surface) Buffer(minBytes int) []byte { return s.list.Buffer(minBytes) }
func (s *Surface) Commit(n int)               { s.list.Commit(n) }
func (s *Surface) WritePixels(data []byte) bool {
	return gfx.WritePixelsVia(s, data)
}

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
	r := s.d.screenRect(gfx.Rect{X: pt.X, Y: pt.Y, W: 1, H: 1})
	return s.list.SetPixel(c, Format.BytesPerPixel(), r.TopLeft())
}

func (s *Surface) SetScrollMargins(top, bottom uint16) bool {
	return s.d.writeScrollMargins(s.list, top, bottom)
}

func (s *Surface) SetScrollOffset(line uint16) bool {
	return s.d.writeScrollOffset(s.list, line)
}

// ReadDataBuffer queues a read of the current window. Replies arrive in
// the screen format and are converted to buf.Format in place.
func (s *Surface) ReadDataBuffer(buf *gfx.ReadBuffer, status *gfx.ReadStatus, cb gfx.ReadCallback) int {
	format := buf.Format
	if format == gfx.PixelFormatNone {
		format = Format
	}
	srcBpp := Format.BytesPerPixel()
	dst := buf.Bytes()
	pixels := len(dst) / max(srcBpp, format.BytesPerPixel())

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
	pixels = min(pixels, avail, displaylist.MaxVar/srcBpp)
	if status != nil {
		*status = gfx.ReadStatus{}
	}
	s.list.ReadMem(dst[:pixels*srcBpp])
	w.Seek(pixels)

	d := s.d
	s.list.WriteCallback(func([]byte) {
		n := gfx.ConvertInPlace(dst, Format, format, pixels)
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

// Render turns copies, scrolls and translucent rectangles into server
// commands. Everything else takes the generic path.
func (s *Surface) Render(obj gfx.Object, location gfx.Rect) (gfx.Renderer, bool) {
	if s.d.debug {
		return gfx.RenderInline(s, obj, location)
	}
	origin := location.TopLeft()
	switch o := obj.(type) {
	case *gfx.FilledRectObject:
		if o.Blender == nil && o.Radius == 0 && o.Brush.IsSolid() && o.Brush.IsTransparent() {
			return nil, s.fill(o.Rect.Add(origin).Clip(location), o.Brush.Color())
		}
	case *gfx.CopyObject:
		src := o.Source.Add(origin).Clip(location)
		dst := gfx.NewRect(o.Dest, o.Source.Size()).Add(origin).Clip(location)
		src.W, src.H = min(src.W, dst.W), min(src.H, dst.H)
		if src.Empty() {
			return nil, true
		}
		src = s.d.screenRect(src)
		dst = s.d.screenRect(dst)
		return nil, s.list.WriteCommand(cmdCopyPixels, params(nil).rect(src).point(dst.TopLeft()))
	case *gfx.ScrollObject:
		area := o.Area.Add(origin).Clip(location)
		if area.Empty() {
			return nil, true
		}
		var flags uint8
		if o.WrapX {
			flags |= scrollWrapX
		}
		if o.WrapY {
			flags |= scrollWrapY
		}
		p := params(nil).rect(s.d.screenRect(area)).point(o.Shift)
		p = append(p, flags)
		return nil, s.list.WriteCommand(cmdScroll, p.u32(uint32(o.Fill)))
	}
	return gfx.RenderInline(s, obj, location)
}

// FillRect fills r with c. Translucent colours are blended by the server.
func (s *Surface) FillRect(c gfx.PackedColor, r gfx.Rect) bool {
	return s.fill(r, gfx.Unpack(c, Format))
}

func (s *Surface) fill(r gfx.Rect, c gfx.Color) bool {
	r = r.Clip(gfx.SizeRect(s.d.size))
	switch {
	case r.Empty() || c.A() == 0:
		return true
	case c.A() == 255:
		return gfx.BlockFillRect(s, gfx.Pack(c, Format), r)
	}
	return s.list.WriteCommand(cmdFill, params(nil).rect(s.d.screenRect(r)).u32(uint32(c)))
}

// Reset drops recorded drawing. It does nothing while the surface is busy.
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.busy {
		s.list.Reset()
	}
}

// Present sends the recorded list. While an earlier present is still in
// flight, cb joins its completion.
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
