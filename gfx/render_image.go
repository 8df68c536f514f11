package gfx

import "time"

// imageRenderTimeout bounds one pass of an image renderer so a slow image
// source cannot hog the render loop.
const imageRenderTimeout = 50 * time.Millisecond

// ImageRenderer streams an image into the surface through Buffer and
// Commit. The window is set afresh on every pass, so it resumes correctly
// on a new surface.
type ImageRenderer struct {
	loc     Location
	image   ImageObject
	format  PixelFormat
	started bool
}

func NewImageRenderer(loc Location, img ImageObject) *ImageRenderer {
	return &ImageRenderer{loc: loc, image: img}
}

func (r *ImageRenderer) crop(s Surface) {
	size := s.Size()
	d := &r.loc.Dest
	d.W = uint16(max(min(int(d.W), int(size.W)-int(d.X)), 0))
	d.H = uint16(max(min(int(d.H), int(size.H)-int(d.Y)), 0))
	img := r.image.Size()
	d.W = min(d.W, img.W, r.loc.Source.W)
	d.H = min(d.H, img.H, r.loc.Source.H)
}

// window covers what is left to draw: the rest of the current row when
// resuming part way along it, otherwise all remaining rows.
func (r *ImageRenderer) window() Rect {
	d, p := r.loc.Dest, r.loc.Pos
	if p.X != 0 {
		return Rect{X: d.X + p.X, Y: d.Y + p.Y, W: d.W - uint16(p.X), H: 1}
	}
	return Rect{X: d.X, Y: d.Y + p.Y, W: d.W, H: d.H - uint16(p.Y)}
}

func (r *ImageRenderer) Execute(s Surface) bool {
	if !r.started {
		r.crop(s)
		r.format = s.PixelFormat()
		r.started = true
	}
	loc := &r.loc
	if int(loc.Pos.Y) >= int(loc.Dest.H) || loc.Dest.W == 0 {
		return true
	}
	if !s.SetAddrWindow(r.window()) {
		return false
	}
	partial := loc.Pos.X != 0

	bpp := r.format.BytesPerPixel()
	deadline := time.Now().Add(imageRenderTimeout)
	var buf []byte
	used := 0
	commit := func() {
		if used != 0 {
			s.Commit(used)
		}
		buf, used = nil, 0
	}
	for int(loc.Pos.Y) < int(loc.Dest.H) {
		// Refill once fewer than 8 pixels fit. A short buffer means the
		// surface is nearly full, so stop after using it.
		room := (len(buf) - used) / bpp
		if room == 0 || (room < 8 && used != 0) {
			short := buf != nil && len(buf)/bpp < 8
			commit()
			if short || time.Now().After(deadline) {
				return false
			}
			if buf = s.Buffer(bpp); buf == nil {
				return false
			}
			continue
		}
		count := min((len(buf)-used)/bpp, int(loc.Dest.W)-int(loc.Pos.X))
		if count != 0 {
			used += r.image.ReadPixels(*loc, r.format, buf[used:], count)
			loc.Pos.X += int16(count)
		}
		if loc.Pos.X == int16(loc.Dest.W) {
			loc.Pos.X = 0
			loc.Pos.Y++
			if partial {
				commit()
				partial = false
				if int(loc.Pos.Y) < int(loc.Dest.H) && !s.SetAddrWindow(r.window()) {
					return false
				}
			}
		}
	}
	commit()
	return true
}

const surfaceCopyBufferSize = 512

// SurfaceRenderer copies an area of the surface being rendered into
// another surface, typically display memory into an image. Each read
// carries its own window on both sides.
type SurfaceRenderer struct {
	loc     Location
	target  Surface
	dest    Rect
	source  Point
	buffers [2]ReadBuffer
	index   uint8
	busy    uint8
	block   Size
	pos     Point
	done    bool
	started bool
}

func NewSurfaceRenderer(loc Location, o *SurfaceObject) *SurfaceRenderer {
	return newSurfaceCopy(loc, o.Surface, o.Dest, o.Source)
}

func newSurfaceCopy(loc Location, target Surface, dest Rect, source Point) *SurfaceRenderer {
	return &SurfaceRenderer{loc: loc, target: target, dest: dest, source: source}
}

func (r *SurfaceRenderer) init() {
	f := r.target.PixelFormat()
	for i := range r.buffers {
		r.buffers[i] = NewReadBuffer(f, surfaceCopyBufferSize)
	}
	const pixels = surfaceCopyBufferSize / ReadPixelSize
	if r.dest.W <= pixels {
		r.block = Size{r.dest.W, min(r.dest.H, uint16(pixels/max(int(r.dest.W), 1)))}
	} else {
		r.block = Size{pixels, 1}
	}
	r.started = true
}

// next returns the next block to copy, relative to dest.
func (r *SurfaceRenderer) next() (Rect, bool) {
	if r.dest.Empty() || int(r.pos.Y) >= int(r.dest.H) {
		return Rect{}, false
	}
	w := min(r.block.W, r.dest.W-uint16(r.pos.X))
	h := min(r.block.H, r.dest.H-uint16(r.pos.Y))
	return Rect{X: r.pos.X, Y: r.pos.Y, W: w, H: h}, true
}

func (r *SurfaceRenderer) advance(b Rect) {
	r.pos.X += int16(b.W)
	if r.pos.X >= int16(r.dest.W) {
		r.pos.X = 0
		r.pos.Y += int16(b.H)
	}
}

func (r *SurfaceRenderer) Execute(s Surface) bool {
	if r.done {
		return r.busy == 0
	}
	if s == r.target {
		return true
	}
	if !r.started {
		r.init()
	}
	for r.busy < 2 {
		b, ok := r.next()
		if !ok {
			r.done = true
			return r.busy == 0
		}
		src := b.Add(r.loc.Source.TopLeft().Add(r.source))
		dst := b.Add(r.dest.TopLeft())
		if !s.SetAddrWindow(src) {
			return false
		}
		r.busy++
		n := s.ReadDataBuffer(&r.buffers[r.index], nil, func(buf *ReadBuffer, length int) {
			r.target.SetAddrWindow(dst)
			r.target.WriteDataBuffer(buf.Data, buf.Offset, length)
			r.busy--
		})
		if n < 0 {
			r.busy--
			return false
		}
		if n == 0 {
			r.busy--
			r.done = true
			return r.busy == 0
		}
		r.advance(b)
		r.index ^= 1
	}
	return false
}

// CopyRenderer moves an area within one surface a line at a time, with
// two line buffers so one line can be read while another is written.
// Lines are taken from the far end when moving towards it so nothing is
// overwritten before it has been read.
type CopyRenderer struct {
	src, dst   Rect
	format     PixelFormat
	vertical   bool
	lines      [2]ReadStatusBuffer
	lineCount  uint16
	readIndex  uint16
	writeIndex uint16
	shift      Point
	started    bool
	prepared   bool

	// readComplete, if set, may modify each line before it is written.
	readComplete func(data []byte)
}

func NewCopyRenderer(loc Location, source Rect, dest Point) *CopyRenderer {
	origin := loc.Dest.TopLeft()
	src := source.Add(origin).Clip(loc.Dest)
	dst := NewRect(dest, source.Size()).Add(origin).Clip(loc.Dest)
	w, h := min(src.W, dst.W), min(src.H, dst.H)
	src.W, dst.W = w, w
	src.H, dst.H = h, h
	return &CopyRenderer{src: src, dst: dst}
}

func (r *CopyRenderer) init(s Surface) {
	r.format = s.PixelFormat()
	xshift := abs16(r.src.X - r.dst.X)
	yshift := abs16(r.src.Y - r.dst.Y)
	var lineSize uint16
	if xshift > yshift {
		r.vertical = true
		r.lineCount = r.src.W
		if r.src.X < r.dst.X {
			r.src.X = r.src.Right()
			r.dst.X = r.dst.Right()
			r.shift.X = -1
		} else {
			r.shift.X = 1
		}
		r.src.W, r.dst.W = 1, 1
		lineSize = r.src.H
	} else {
		r.lineCount = r.src.H
		if r.src.Y < r.dst.Y {
			r.src.Y = r.src.Bottom()
			r.dst.Y = r.dst.Bottom()
			r.shift.Y = -1
		} else {
			r.shift.Y = 1
		}
		r.src.H, r.dst.H = 1, 1
		lineSize = r.src.W
	}
	for i := range r.lines {
		r.lines[i] = NewReadStatusBuffer(r.format, int(lineSize)*ReadPixelSize)
	}
	r.started = true
}

func (r *CopyRenderer) Execute(s Surface) bool {
	if !r.started {
		r.init(s)
	}
	for {
		if r.writeIndex >= r.lineCount {
			return true
		}
		progress := false
		buf := &r.lines[r.writeIndex%2]
		if r.readIndex > r.writeIndex && buf.Status.ReadComplete {
			data := buf.Bytes()[:buf.Status.BytesRead]
			if r.readComplete != nil && !r.prepared {
				r.readComplete(data)
				r.prepared = true
			}
			if !s.SetAddrWindow(r.dst) || !s.WriteDataBuffer(buf.Data, buf.Offset, len(data)) {
				return false
			}
			r.prepared = false
			buf.Status = ReadStatus{}
			r.dst = r.dst.Add(r.shift)
			r.writeIndex++
			progress = true
		}
		if r.readIndex < r.lineCount && r.readIndex < r.writeIndex+2 {
			if !r.startRead(s) {
				return false
			}
			progress = true
		}
		if !progress {
			return false
		}
	}
}

func (r *CopyRenderer) startRead(s Surface) bool {
	if !s.SetAddrWindow(r.src) {
		return false
	}
	buf := &r.lines[r.readIndex%2]
	buf.Status = ReadStatus{}
	if ReadDataBufferStatus(s, buf) <= 0 {
		return false
	}
	r.src = r.src.Add(r.shift)
	r.readIndex++
	return true
}

// NewImageCopyRenderer blends an image over the area it covers: each row is
// read back, combined with the image through blend and written again.
func NewImageCopyRenderer(loc Location, img ImageObject, blend Blender) *CopyRenderer {
	d := loc.Dest
	size := img.Size()
	d.W = min(d.W, size.W)
	d.H = min(d.H, size.H)
	r := &CopyRenderer{src: d, dst: d}
	if blend == nil {
		return r
	}
	var row int16
	r.readComplete = func(data []byte) {
		f := r.format
		line := make([]byte, int(d.W)*f.BytesPerPixel())
		l := Location{Dest: d, Pos: Point{0, row}}
		n := img.ReadPixels(l, f, line, int(d.W))
		blend.Transform(f, line[:n], data)
		row++
	}
	return r
}

// ScrollRenderer shifts the content of an area by whole pixels, in place.
// Lines are moved along the cycles of the shift so each line is read
// before the line it lands on is overwritten. Exposed lines take the fill
// colour unless the axis wraps.
type ScrollRenderer struct {
	object *ScrollObject
	origin Point
	area   Size

	src, dst    Rect
	readArea    Rect
	writeArea   Rect
	cx, cy      int16
	readOffset  int
	writeOffset int
	lines       [2]ReadStatusBuffer
	lineCount   uint16
	readIndex   uint16
	writeIndex  uint16
	fill        PackedColor
	format      PixelFormat
	bpp         int
	vertical    bool
	started     bool
}

func NewScrollRenderer(loc Location, o *ScrollObject) *ScrollRenderer {
	area := o.Area.Add(loc.Dest.TopLeft())
	return &ScrollRenderer{object: o, origin: area.TopLeft(), area: area.Size()}
}

func (r *ScrollRenderer) init(s Surface) {
	o := r.object
	r.format = s.PixelFormat()
	r.bpp = r.format.BytesPerPixel()
	r.fill = Pack(o.Fill, r.format)
	r.cx, r.cy = o.Shift.X, o.Shift.Y
	cx, cy := r.cx, r.cy
	aw, ah := int16(r.area.W), int16(r.area.H)

	src := Rect{W: r.area.W, H: r.area.H}
	dst := src
	r.readArea, r.writeArea = src, dst
	if cx < 0 {
		dst.X = aw + cx
	} else {
		dst.X = cx
	}
	if cy < 0 {
		dst.Y = ah + cy
	} else {
		dst.Y = cy
	}
	if o.Fill == 0 {
		if !o.WrapX {
			dst.W -= uint16(abs16(cx))
		}
		if !o.WrapY {
			dst.H -= uint16(abs16(cy))
		}
	}

	if src.H > src.W {
		// Copy columns
		r.vertical = true
		if cy != 0 {
			switch {
			case o.WrapY:
				if cy > 0 {
					r.writeOffset = int(cy)
				} else {
					r.writeOffset = int(int16(dst.H) + cy)
				}
				r.writeOffset *= r.bpp
			case cy > 0:
				r.readOffset = int(cy) * r.bpp
				src.H -= uint16(cy)
			default:
				src.Y = -cy
				src.H -= uint16(-cy)
			}
			dst.Y = 0
		}
		r.lineCount = src.W
		if !o.WrapX {
			if cx > 0 {
				src.W -= uint16(cx)
				r.writeArea.X = cx
			} else {
				src.W -= uint16(-cx)
				r.readArea.X = -cx
			}
			r.readArea.W, r.writeArea.W = src.W, src.W
		}
		if cx < 0 {
			src.X = r.checkx(src.X + int16(src.W) - 1)
			dst.X = r.checkx(dst.X + int16(src.W) - 1)
		}
		src.W, dst.W = 1, 1
	} else {
		// Copy rows
		if cx != 0 {
			switch {
			case o.WrapX:
				if cx > 0 {
					r.writeOffset = int(cx)
				} else {
					r.writeOffset = int(int16(dst.W) + cx)
				}
				r.writeOffset *= r.bpp
			case cx > 0:
				r.readOffset = int(cx) * r.bpp
				src.W -= uint16(cx)
			default:
				src.X = -cx
				src.W -= uint16(-cx)
			}
			dst.X = 0
		}
		r.lineCount = src.H
		if !o.WrapY {
			if cy > 0 {
				src.H -= uint16(cy)
				r.writeArea.Y = cy
			} else {
				src.H -= uint16(-cy)
				r.readArea.Y = -cy
			}
			r.readArea.H, r.writeArea.H = src.H, src.H
		}
		if cy < 0 {
			src.Y = r.checky(src.Y + int16(src.H) - 1)
			dst.Y = r.checky(dst.Y + int16(src.H) - 1)
		}
		src.H, dst.H = 1, 1
	}
	r.src, r.dst = src, dst

	lineSize := r.area.W
	if r.vertical {
		lineSize = r.area.H
	}
	for i := range r.lines {
		r.lines[i] = NewReadStatusBuffer(r.format, int(lineSize)*ReadPixelSize)
	}
	r.started = true
}

func (r *ScrollRenderer) Execute(s Surface) bool {
	if !r.started {
		r.init(s)
	}
	if r.object.Shift == (Point{}) || r.area.Pixels() == 0 {
		return true
	}
	for {
		if r.writeIndex >= r.lineCount {
			return true
		}
		progress := false
		buf := &r.lines[r.writeIndex%2]
		ready := r.readIndex >= r.writeIndex+2 || r.readIndex == r.lineCount
		if ready && buf.Status.ReadComplete {
			if !r.writeLine(s, buf) {
				return false
			}
			buf.Status = ReadStatus{}
			progress = true
		}
		if r.readIndex < r.lineCount && r.readIndex < r.writeIndex+2 {
			if !r.startRead(s) {
				return false
			}
			progress = true
		}
		if !progress {
			return false
		}
	}
}

func (r *ScrollRenderer) writeLine(s Surface, buf *ReadStatusBuffer) bool {
	o := r.object
	data := buf.Data.Bytes()
	n := int(r.dst.W)
	if r.vertical {
		n = int(r.dst.H)
	}
	length := n * r.bpp

	if wo := r.writeOffset; wo != 0 && wo < length {
		tail := append([]byte(nil), data[length-wo:length]...)
		copy(data[wo:length], data[:length-wo])
		copy(data, tail)
	}

	if !o.WrapX {
		switch {
		case r.vertical:
			if r.dst.X < r.writeArea.Left() || r.dst.X > r.writeArea.Right() {
				WriteColorN(data, r.fill, r.format, int(r.dst.H))
			}
		case r.cx > 0:
			WriteColorN(data, r.fill, r.format, int(r.cx))
		case r.cx < 0:
			WriteColorN(data[int(r.src.W)*r.bpp:], r.fill, r.format, int(-r.cx))
		}
	}
	if !o.WrapY {
		switch {
		case !r.vertical:
			if r.dst.Y < r.writeArea.Top() || r.dst.Y > r.writeArea.Bottom() {
				WriteColorN(data, r.fill, r.format, int(r.dst.W))
			}
		case r.cy > 0:
			WriteColorN(data, r.fill, r.format, int(r.cy))
		case r.cy < 0:
			WriteColorN(data[int(r.src.H)*r.bpp:], r.fill, r.format, int(-r.cy))
		}
	}

	if !s.SetAddrWindow(r.dst.Add(r.origin)) || !s.WriteDataBuffer(buf.Data, 0, length) {
		return false
	}
	if r.vertical {
		r.stepx(&r.writeIndex, &r.dst.X)
	} else {
		r.stepy(&r.writeIndex, &r.dst.Y)
	}
	return true
}

func (r *ScrollRenderer) startRead(s Surface) bool {
	buf := &r.lines[r.readIndex%2]
	o := r.object

	// Lines outside the read area are not needed, only filled.
	if r.vertical && !o.WrapX {
		if r.src.X < r.readArea.Left() || r.src.X > r.readArea.Right() {
			buf.Status = ReadStatus{ReadComplete: true}
			r.stepx(&r.readIndex, &r.src.X)
			return true
		}
	} else if !r.vertical && !o.WrapY {
		if r.src.Y < r.readArea.Top() || r.src.Y > r.readArea.Bottom() {
			buf.Status = ReadStatus{ReadComplete: true}
			r.stepy(&r.readIndex, &r.src.Y)
			return true
		}
	}

	if !s.SetAddrWindow(r.src.Add(r.origin)) {
		return false
	}
	buf.Format = r.format
	buf.Offset = r.readOffset
	buf.Status = ReadStatus{}
	if ReadDataBufferStatus(s, buf) <= 0 {
		return false
	}
	if r.vertical {
		r.stepx(&r.readIndex, &r.src.X)
	} else {
		r.stepy(&r.readIndex, &r.src.Y)
	}
	return true
}

func (r *ScrollRenderer) checkx(x int16) int16 {
	w := int16(r.area.W)
	switch {
	case x < 0:
		x += w
	case x >= w:
		x -= w
	}
	return x
}

func (r *ScrollRenderer) checky(y int16) int16 {
	h := int16(r.area.H)
	switch {
	case y < 0:
		y += h
	case y >= h:
		y -= h
	}
	return y
}

func sign16(v int16) int16 {
	if v < 0 {
		return -1
	}
	return 1
}

// stepx moves to the next column in the shift cycle. When a cycle closes
// it starts the next one from the neighbouring column.
func (r *ScrollRenderer) stepx(index *uint16, x *int16) {
	*index++
	if (int(*index)*int(r.cx))%int(r.area.W) == 0 {
		*x = r.checkx(*x + sign16(r.cx))
	} else {
		*x = r.checkx(*x + r.cx)
	}
}

func (r *ScrollRenderer) stepy(index *uint16, y *int16) {
	*index++
	if (int(*index)*int(r.cy))%int(r.area.H) == 0 {
		*y = r.checky(*y + sign16(r.cy))
	} else {
		*y = r.checky(*y + r.cy)
	}
}

type blendState uint8

const (
	blendInit blendState = iota
	blendDraw
	blendDone
)

// BlendRenderer draws an object through a blender: the area is copied
// into a memory image, the object drawn onto that with the blend applied,
// and the result written back.
type BlendRenderer struct {
	loc      Location
	object   Object
	blend    Blender
	state    blendState
	image    *MemoryImage
	renderer Renderer
}

func NewBlendRenderer(loc Location, obj Object, blend Blender) *BlendRenderer {
	return &BlendRenderer{loc: loc, object: obj, blend: blend}
}

func (r *BlendRenderer) Execute(s Surface) bool {
	for {
		if !Execute(s, &r.renderer) {
			return false
		}
		switch r.state {
		case blendInit:
			img := NewMemoryImage(s.PixelFormat(), r.loc.Dest.Size())
			if !img.Valid() {
				// Nothing to blend into; draw normally.
				rr, ok := s.Render(r.object, r.loc.Dest)
				if !ok {
					return false
				}
				r.renderer = rr
				r.state = blendDone
				continue
			}
			r.image = img
			bounds := SizeRect(img.Size())
			r.renderer = newSurfaceCopy(Location{Dest: bounds, Source: r.loc.Source}, img.CreateSurface(nil), bounds, r.loc.Dest.TopLeft())
			r.state = blendDraw

		case blendDraw:
			drawAll(r.image.CreateSurface(r.blend), r.object, SizeRect(r.image.Size()))
			r.renderer = NewImageRenderer(LocationFor(r.loc.Dest), r.image)
			r.state = blendDone

		default:
			return true
		}
	}
}

// drawAll renders obj to completion on a surface that never fills up.
func drawAll(s Surface, obj Object, location Rect) {
	r, ok := s.Render(obj, location)
	if !ok || r == nil {
		return
	}
	for pass := 0; pass < maxDrawPasses && !r.Execute(s); pass++ {
	}
}

// maxDrawPasses stops drawAll spinning on a renderer that cannot finish.
const maxDrawPasses = 1 << 16
