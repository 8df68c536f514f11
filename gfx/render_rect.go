package gfx

// RectRenderer draws a rectangle outline as up to four filled strips.
type RectRenderer struct {
	rects RectList
}

func NewRectRenderer(loc Location, pen Pen, r Rect) *RectRenderer {
	rr := &RectRenderer{rects: NewRectList(loc.Dest, pen.Brush, 4)}
	w := pen.LineWidth()
	if 2*w >= r.W || 2*w >= r.H {
		rr.rects.Add(r)
		return rr
	}
	iw := int16(w)
	rr.rects.Add(Rect{X: r.X, Y: r.Y, W: r.W - w, H: w})
	rr.rects.Add(Rect{X: r.X, Y: r.Y + iw, W: w, H: r.H - w})
	rr.rects.Add(Rect{X: r.X + int16(r.W) - iw, Y: r.Y, W: w, H: r.H - w})
	rr.rects.Add(Rect{X: r.X + iw, Y: r.Y + int16(r.H) - iw, W: r.W - w, H: w})
	return rr
}

func (r *RectRenderer) Execute(s Surface) bool { return r.rects.Render(s) }

const (
	fillBufferSize   = 256
	fillBufferPixels = fillBufferSize / ReadPixelSize
)

type fillBuffer struct {
	ReadStatusBuffer
	r        Rect
	prepared bool
}

// FilledRectRenderer fills a rectangle in blocks small enough for its two
// pixel buffers. Opaque fills are written directly. Transparent or blended
// fills read each block back, combine it, and write it out again; one
// block is read while the other is being written.
type FilledRectRenderer struct {
	loc     Location
	brush   Brush
	object  Rect
	rect    Rect
	blender Blender

	format  PixelFormat
	block   Size
	pos     Point
	buffers [2]fillBuffer
	readIdx uint8
	busy    uint8
	done    bool
	started bool
}

func NewFilledRectRenderer(loc Location, b Brush, r Rect, blender Blender) *FilledRectRenderer {
	return &FilledRectRenderer{loc: loc, brush: b, object: r, blender: blender}
}

func (r *FilledRectRenderer) needsRead() bool {
	return r.blender != nil || r.brush.IsTransparent()
}

func (r *FilledRectRenderer) init(s Surface) bool {
	r.started = true
	r.object = r.object.Add(r.loc.Dest.TopLeft())
	r.rect = r.object.Clip(r.loc.Dest)
	if r.rect.Empty() {
		return false
	}
	r.format = s.PixelFormat()
	if r.rect.W <= fillBufferPixels {
		r.block = Size{r.rect.W, min(r.rect.H, uint16(fillBufferPixels/int(r.rect.W)))}
	} else {
		r.block = Size{fillBufferPixels, 1}
	}
	for i := range r.buffers {
		r.buffers[i].ReadStatusBuffer = NewReadStatusBuffer(r.format, fillBufferSize)
	}
	return true
}

func (r *FilledRectRenderer) Execute(s Surface) bool {
	if !r.started && !r.init(s) {
		return true
	}
	for {
		for !r.done && r.busy < 2 {
			if r.queueRead(s) < 0 {
				return false
			}
		}
		if r.busy == 0 {
			return true
		}
		buf := r.oldest()
		if !buf.Status.ReadComplete {
			return false
		}
		if !r.writeBlock(s, buf) {
			return false
		}
		buf.Status = ReadStatus{}
		r.busy--
	}
}

// oldest returns the buffer holding the earliest queued block.
func (r *FilledRectRenderer) oldest() *fillBuffer {
	if r.busy == 2 {
		return &r.buffers[r.readIdx]
	}
	return &r.buffers[r.readIdx^1]
}

func (r *FilledRectRenderer) queueRead(s Surface) int {
	if int(r.pos.Y) >= int(r.rect.H) {
		r.done = true
		return 0
	}
	buf := &r.buffers[r.readIdx]
	w := min(r.block.W, r.rect.W-uint16(r.pos.X))
	h := min(r.block.H, r.rect.H-uint16(r.pos.Y))
	buf.r = Rect{X: r.rect.X + r.pos.X, Y: r.rect.Y + r.pos.Y, W: w, H: h}
	buf.prepared = false
	bpp := r.format.BytesPerPixel()
	if r.needsRead() {
		if !s.SetAddrWindow(buf.r) {
			return -1
		}
		buf.Format = r.format
		buf.Offset = 0
		n := ReadDataBufferStatus(s, &buf.ReadStatusBuffer)
		if n < 0 {
			return -1
		}
		if n == 0 {
			buf.Status = ReadStatus{Format: r.format, ReadComplete: true}
		}
	} else {
		buf.Status = ReadStatus{BytesRead: buf.r.Pixels() * bpp, Format: r.format, ReadComplete: true}
	}
	r.readIdx ^= 1
	r.pos.X += int16(w)
	if r.pos.X == int16(r.rect.W) {
		r.pos.X = 0
		r.pos.Y += int16(h)
	}
	r.busy++
	return int(w)
}

func (r *FilledRectRenderer) writeBlock(s Surface, buf *fillBuffer) bool {
	if buf.r.Empty() || buf.Status.BytesRead == 0 {
		return true
	}
	data := buf.Bytes()[:buf.Status.BytesRead]
	if !buf.prepared {
		c := r.brush.PackedColor(r.format)
		switch {
		case r.blender != nil:
			r.blender.TransformColor(r.format, c, data)
		case r.brush.IsTransparent():
			BlendColor(r.format, c, data)
		default:
			loc := Location{
				Dest:   r.rect,
				Source: r.object,
				Pos:    buf.r.TopLeft().Sub(r.rect.TopLeft()),
			}
			r.brush.WritePixels(loc, r.format, data, buf.r.Pixels())
		}
		buf.prepared = true
	}
	if !s.SetAddrWindow(buf.r) {
		return false
	}
	return s.WriteDataBuffer(buf.Data, buf.Offset, len(data))
}

// RoundedRectRenderer draws the straight edges of a rounded rectangle and
// then the four corner arcs.
type RoundedRectRenderer struct {
	loc      Location
	pen      Pen
	rect     Rect
	radius   uint8
	state    uint8
	renderer Renderer
}

func NewRoundedRectRenderer(loc Location, o *RectObject) *RoundedRectRenderer {
	r := &RoundedRectRenderer{loc: loc, pen: o.Pen, rect: o.Rect, radius: o.Radius}
	r.renderer = NewPolylineRenderer(loc, RectOutline(o.Pen, o.Rect, o.Radius))
	return r
}

func (r *RoundedRectRenderer) Execute(s Surface) bool {
	for {
		if !Execute(s, &r.renderer) {
			return false
		}
		t := uint16(r.radius) * 2
		it := int16(t)
		rc := r.rect
		switch r.state {
		case 0:
			r.renderer = NewArcRenderer(r.loc, r.pen, Rect{X: rc.Left(), Y: rc.Top(), W: t, H: t}, 90, 180)
		case 1:
			r.renderer = NewArcRenderer(r.loc, r.pen, Rect{X: rc.Right() - it, Y: rc.Top(), W: t, H: t}, 0, 90)
		case 2:
			r.renderer = NewArcRenderer(r.loc, r.pen, Rect{X: rc.Right() - it, Y: rc.Bottom() - it, W: t, H: t}, 270, 360)
		case 3:
			r.renderer = NewArcRenderer(r.loc, r.pen, Rect{X: rc.Left(), Y: rc.Bottom() - it, W: t, H: t}, 180, 270)
		default:
			return true
		}
		r.state++
	}
}

// FilledRoundedRectRenderer fills the top and bottom bands with circle
// halves stretched across the width, then the centre.
type FilledRoundedRectRenderer struct {
	loc      Location
	object   FilledRectObject
	corners  [2]Point
	state    uint8
	renderer Renderer
}

func NewFilledRoundedRectRenderer(loc Location, o *FilledRectObject) *FilledRoundedRectRenderer {
	r := &FilledRoundedRectRenderer{loc: loc, object: *o}
	rad := int16(o.Radius)
	r.corners[0] = Point{o.Rect.X + rad, o.Rect.Y + rad}
	r.corners[1] = Point{o.Rect.X + rad, o.Rect.Bottom() - rad}
	return r
}

func (r *FilledRoundedRectRenderer) Execute(s Surface) bool {
	for {
		if !Execute(s, &r.renderer) {
			return false
		}
		switch r.state {
		case 0, 1:
			rad := uint16(r.object.Radius)
			delta := int(r.object.Rect.W) - 2*int(rad) - 1
			r.renderer = NewFilledCircleRenderer(r.loc, r.object.Brush, r.corners[r.state], rad,
				uint16(max(delta, 0)), HalfTop<<r.state)
		case 2:
			centre := r.object
			rad := uint16(centre.Radius)
			centre.Rect.Y += int16(rad)
			centre.Rect.H -= min(centre.Rect.H, 2*rad)
			centre.Radius = 0
			rr, ok := s.Render(&centre, r.loc.Dest)
			if !ok {
				return false
			}
			r.renderer = rr
		default:
			return true
		}
		r.state++
	}
}
