package gfx

// SurfaceType identifies the backing of a surface.
type SurfaceType uint8

const (
	SurfaceDevice SurfaceType = iota
	SurfaceMemory
	SurfaceFile
	SurfaceVirtual
)

func (t SurfaceType) String() string {
	switch t {
	case SurfaceDevice:
		return "Device"
	case SurfaceMemory:
		return "Memory"
	case SurfaceFile:
		return "File"
	case SurfaceVirtual:
		return "Virtual"
	}
	return "Unknown"
}

// Stat reports command buffer usage. Surfaces without one report zero.
type Stat struct {
	Used      int
	Available int
}

// Surface is a render target. Operations that need space return false (or
// a negative count) when the surface is full; the caller presents it and
// retries on a fresh one.
type Surface interface {
	Type() SurfaceType
	Stat() Stat
	Size() Size
	PixelFormat() PixelFormat

	SetAddrWindow(r Rect) bool
	// Buffer returns space for at least minBytes of pixel data in the
	// current window, or nil. Follow with Commit.
	Buffer(minBytes int) []byte
	Commit(n int)
	BlockFill(data []byte, repeat uint32) bool
	WriteDataBuffer(buf *SharedBuffer, offset, length int) bool
	SetPixel(c PackedColor, pt Point) bool
	WritePixels(data []byte) bool
	SetScrollMargins(top, bottom uint16) bool
	SetScrollOffset(line uint16) bool

	// ReadDataBuffer queues a read from the current window into buf. It
	// returns the number of pixels queued, zero when there is nothing left
	// to read and a negative value when the surface is full. status is
	// filled and cb called once the data is in buf.
	ReadDataBuffer(buf *ReadBuffer, status *ReadStatus, cb ReadCallback) int

	// Render draws obj into location. Simple objects are drawn straight
	// away; otherwise a renderer is returned for the caller to execute.
	Render(obj Object, location Rect) (Renderer, bool)
	FillRect(c PackedColor, r Rect) bool

	Reset()
	// Present hands the surface contents to its target. It returns false
	// when there was nothing to present; otherwise cb runs once the surface
	// may be reused.
	Present(cb func()) bool
}

const maxInlineFillPixels = 16

// RenderInline is the shared part of Surface.Render: it draws opaque
// points, solid rectangles, short solid lines and small textured fills
// directly, handles scroll objects, and creates a renderer for the rest.
func RenderInline(s Surface, obj Object, location Rect) (Renderer, bool) {
	small := func(r Rect) bool { return r.Pixels() <= maxInlineFillPixels }

	switch o := obj.(type) {
	case *PointObject:
		if o.Brush.IsTransparent() {
			break
		}
		f := s.PixelFormat()
		c := o.Brush.PackedColor(f)
		if !o.Brush.IsSolid() {
			var px [4]byte
			o.Brush.WritePixels(Location{Dest: location, Pos: o.Point}, f, px[:], 1)
			c = ReadPacked(px[:], f)
		}
		pt := o.Point.Add(location.TopLeft())
		if !location.Contains(pt) {
			return nil, true
		}
		return nil, s.SetPixel(c, pt)

	case *FilledRectObject:
		if o.Blender != nil || o.Radius != 0 || o.Brush.IsTransparent() {
			break
		}
		if !o.Brush.IsSolid() && !small(o.Rect) {
			break
		}
		return nil, FillSmallRect(s, o.Brush, location, o.Rect)

	case *LineObject:
		if o.Pen.IsTransparent() {
			break
		}
		p1, p2 := o.P1, o.P2
		w := o.Pen.LineWidth()
		var r Rect
		switch {
		case p1.X == p2.X:
			if p1.Y > p2.Y {
				p1.Y, p2.Y = p2.Y, p1.Y
			}
			r = Rect{X: p1.X, Y: p1.Y, W: w, H: uint16(1 + p2.Y - p1.Y)}
		case p1.Y == p2.Y:
			if p1.X > p2.X {
				p1.X, p2.X = p2.X, p1.X
			}
			r = Rect{X: p1.X, Y: p1.Y, W: uint16(1 + p2.X - p1.X), H: w}
		default:
			return obj.CreateRenderer(Location{Dest: location, Source: SizeRect(location.Size())}), true
		}
		if !o.Pen.IsSolid() || !small(r) {
			break
		}
		return nil, FillSmallRect(s, o.Pen.Brush, location, r)

	case *ScrollMarginsObject:
		return nil, s.SetScrollMargins(o.Top, o.Bottom)

	case *ScrollOffsetObject:
		return nil, s.SetScrollOffset(o.Offset)
	}

	return obj.CreateRenderer(Location{Dest: location, Source: SizeRect(location.Size())}), true
}

// FillSmallRect fills r, given relative to location, without a renderer.
func FillSmallRect(s Surface, b Brush, location, r Rect) bool {
	abs := r.Add(location.TopLeft()).Clip(location)
	if abs.Empty() {
		return true
	}
	f := s.PixelFormat()
	if b.IsSolid() {
		return s.FillRect(b.PackedColor(f), abs)
	}
	if !s.SetAddrWindow(abs) {
		return false
	}
	count := abs.Pixels()
	buf := s.Buffer(count * f.BytesPerPixel())
	if buf == nil {
		return false
	}
	loc := Location{Dest: location, Source: r, Pos: abs.TopLeft().Sub(location.TopLeft())}
	s.Commit(b.WritePixels(loc, f, buf, count))
	return true
}

// BlockFillColor writes count pixels of c at the current window position.
func BlockFillColor(s Surface, c PackedColor, count int) bool {
	var px [4]byte
	n := WriteColor(px[:], c, s.PixelFormat())
	return s.BlockFill(px[:n], uint32(count))
}

// BlockFillRect fills r with c by streaming repeated pixels.
func BlockFillRect(s Surface, c PackedColor, r Rect) bool {
	if r.Empty() {
		return true
	}
	if !s.SetAddrWindow(r) {
		return false
	}
	return BlockFillColor(s, c, r.Pixels())
}

func DrawHLine(s Surface, c PackedColor, x0, x1, y int16, w uint16) bool {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	return s.FillRect(c, Rect{X: x0, Y: y, W: uint16(x1-x0) + 1, H: w})
}

func DrawVLine(s Surface, c PackedColor, x, y0, y1 int16, w uint16) bool {
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return s.FillRect(c, Rect{X: x, Y: y0, W: w, H: uint16(y1-y0) + 1})
}

// Clear fills the whole surface with c.
func Clear(s Surface, c Color) bool {
	return s.FillRect(Pack(c, s.PixelFormat()), SizeRect(s.Size()))
}

// WritePixelsVia implements WritePixels in terms of Buffer and Commit.
func WritePixelsVia(s Surface, data []byte) bool {
	if len(data) == 0 {
		return true
	}
	buf := s.Buffer(len(data))
	if buf == nil {
		return false
	}
	s.Commit(copy(buf, data))
	return true
}

// ReadDataBufferStatus queues a read into b, recording completion in b.Status.
func ReadDataBufferStatus(s Surface, b *ReadStatusBuffer) int {
	return s.ReadDataBuffer(&b.ReadBuffer, &b.Status, nil)
}

// Execute runs *r on s. It returns true and clears *r once the renderer has
// finished; a nil renderer counts as finished.
func Execute(s Surface, r *Renderer) bool {
	if *r == nil {
		return true
	}
	if !(*r).Execute(s) {
		return false
	}
	*r = nil
	return true
}

// RenderNow draws obj in a single pass. It returns false if the surface
// filled up before drawing finished.
func RenderNow(s Surface, obj Object, location Rect) bool {
	r, ok := s.Render(obj, location)
	if !ok {
		return false
	}
	return Execute(s, &r)
}
