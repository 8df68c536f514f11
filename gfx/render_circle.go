package gfx

// Quadrant masks for partial circles.
const (
	CornerTopLeft     uint8 = 0x01
	CornerTopRight    uint8 = 0x02
	CornerBottomRight uint8 = 0x04
	CornerBottomLeft  uint8 = 0x08
	CornersAll              = CornerTopLeft | CornerTopRight | CornerBottomRight | CornerBottomLeft
)

// Half masks for filled circles.
const (
	HalfTop    uint8 = 0x01
	HalfBottom uint8 = 0x02
	HalvesBoth       = HalfTop | HalfBottom
)

// CircleRenderer traces a one pixel circle outline with the midpoint
// algorithm, plotting up to eight points per step.
type CircleRenderer struct {
	pixels     PointList
	x0, y0     int16
	f          int16
	ddFx, ddFy int16
	x, y       int16
	corners    uint8
}

// NewCircleRenderer draws the quadrants of the circle selected by corners.
// A full circle also gets its four axis points.
func NewCircleRenderer(loc Location, pen Pen, centre Point, radius uint16, corners uint8) *CircleRenderer {
	rad := int16(radius)
	r := &CircleRenderer{
		pixels:  NewPointList(loc.Dest, pen.Brush, 8),
		x0:      centre.X,
		y0:      centre.Y,
		f:       1 - rad,
		ddFx:    1,
		ddFy:    -2 * rad,
		y:       rad,
		corners: corners,
	}
	if corners == CornersAll {
		r.pixels.Add(r.x0, r.y0+rad)
		r.pixels.Add(r.x0, r.y0-rad)
		r.pixels.Add(r.x0+rad, r.y0)
		r.pixels.Add(r.x0-rad, r.y0)
	}
	return r
}

func (r *CircleRenderer) Execute(s Surface) bool {
	for {
		if !r.pixels.Render(s) {
			return false
		}
		if r.x >= r.y {
			return true
		}
		if r.f >= 0 {
			r.y--
			r.ddFy += 2
			r.f += r.ddFy
		}
		r.x++
		r.ddFx += 2
		r.f += r.ddFx

		x0, y0, x, y := r.x0, r.y0, r.x, r.y
		if r.corners&CornerBottomRight != 0 {
			r.pixels.Add(x0+x, y0+y)
			r.pixels.Add(x0+y, y0+x)
		}
		if r.corners&CornerTopRight != 0 {
			r.pixels.Add(x0+x, y0-y)
			r.pixels.Add(x0+y, y0-x)
		}
		if r.corners&CornerBottomLeft != 0 {
			r.pixels.Add(x0-y, y0+x)
			r.pixels.Add(x0-x, y0+y)
		}
		if r.corners&CornerTopLeft != 0 {
			r.pixels.Add(x0-y, y0-x)
			r.pixels.Add(x0-x, y0-y)
		}
	}
}

// FilledCircleRenderer fills a circle with horizontal lines, never drawing
// the same line twice. delta stretches each line to the right, which is
// how rounded rectangles get their top and bottom bands.
type FilledCircleRenderer struct {
	rects      RectList
	x0, y0     int16
	f          int16
	ddFx, ddFy int16
	x, y       int16
	px, py     int16
	delta      int16
	halves     uint8
}

func NewFilledCircleRenderer(loc Location, b Brush, centre Point, radius, delta uint16, halves uint8) *FilledCircleRenderer {
	rad := int16(radius)
	r := &FilledCircleRenderer{
		rects:  NewRectList(loc.Dest, b, 4),
		x0:     centre.X,
		y0:     centre.Y,
		f:      1 - rad,
		ddFx:   -2 * rad,
		ddFy:   1,
		x:      rad,
		px:     rad,
		delta:  int16(delta),
		halves: halves,
	}
	if halves == HalvesBoth {
		r.addLine(r.x0-rad, r.x0+rad+r.delta, r.y0)
	}
	return r
}

func (r *FilledCircleRenderer) addLine(x0, x1, y int16) {
	r.rects.Add(Rect{X: x0, Y: y, W: uint16(1 + x1 - x0), H: 1})
}

func (r *FilledCircleRenderer) Execute(s Surface) bool {
	for {
		if !r.rects.Render(s) {
			return false
		}
		if r.y >= r.x {
			return true
		}
		if r.f >= 0 {
			r.x--
			r.ddFx += 2
			r.f += r.ddFx
		}
		r.y++
		r.ddFy += 2
		r.f += r.ddFy

		x0, y0 := r.x0, r.y0
		if r.y <= r.x {
			if r.halves&HalfTop != 0 {
				r.addLine(x0-r.x, x0+r.x+r.delta, y0-r.y)
			}
			if r.halves&HalfBottom != 0 {
				r.addLine(x0-r.x, x0+r.x+r.delta, y0+r.y)
			}
		}
		if r.x != r.px {
			if r.halves&HalfTop != 0 {
				r.addLine(x0-r.py, x0+r.py+r.delta, y0-r.px)
			}
			if r.halves&HalfBottom != 0 {
				r.addLine(x0-r.py, x0+r.py+r.delta, y0+r.px)
			}
			r.px = r.x
		}
		r.py = r.y
	}
}
