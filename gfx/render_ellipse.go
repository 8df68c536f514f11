package gfx

import "math"

// The ellipse, arc and their filled forms follow the scan-line method at
// http://enchantia.com/graphapp/doc/tech/ellipses.html: both halves are
// drawn inwards from the top and bottom edges at once, merging adjacent
// lines of equal width into single rectangles.

type ellipseMove uint8

const (
	moveDown ellipseMove = 1 << iota
	moveOut
)

// ellipse walks one quadrant of e(x,y) = b²x² + a²y² - a²b², starting at
// the top (0, b) and finishing on the x axis.
type ellipse struct {
	a, b       int32
	x, y       int32
	a2, b2     int32
	xcrit      int32
	ycrit      int32
	t          int32
	dxt, dyt   int32
	d2xt, d2yt int32
}

func newEllipse(s Size) ellipse {
	e := ellipse{a: int32(s.W / 2), b: int32(s.H / 2)}
	e.y = e.b
	e.a2 = e.a * e.a
	e.b2 = e.b * e.b
	e.xcrit = 3*e.a2/4 + 1
	e.ycrit = 3*e.b2/4 + 1
	e.t = e.b2 + e.a2 - 2*e.a2*e.b
	e.dxt = e.b2 * (3 + 2*e.x)
	e.dyt = e.a2 * (3 - 2*e.y)
	e.d2xt = 2 * e.b2
	e.d2yt = 2 * e.a2
	return e
}

func (e *ellipse) step() ellipseMove {
	// e(x+1, y-1/2) <= 0
	if e.t+e.a2*e.y < e.xcrit {
		e.x++
		e.t += e.dxt
		e.dxt += e.d2xt
		return moveOut
	}
	// e(x+1/2, y-1) > 0
	if e.t-e.b2*e.x >= e.ycrit {
		e.y--
		e.t += e.dyt
		e.dyt += e.d2yt
		return moveDown
	}
	e.x++
	e.y--
	e.t += e.dxt + e.dyt
	e.dxt += e.d2xt
	e.dyt += e.d2yt
	return moveDown | moveOut
}

// span is a rectangle in plain ints so the tracers can go negative
// without wrapping.
type span struct {
	x, y, w, h int
}

func spanOf(r Rect) span { return span{int(r.X), int(r.Y), int(r.W), int(r.H)} }

func (s span) rect() Rect {
	if s.w <= 0 || s.h <= 0 {
		return Rect{}
	}
	return Rect{X: int16(s.x), Y: int16(s.y), W: uint16(s.w), H: uint16(s.h)}
}

func (s span) bottom() int { return s.y + s.h - 1 }

func (s *span) grow() {
	s.x--
	s.w += 2
}

type ipoint struct {
	x, y int
}

// arcWedge clips rectangles to the wedge between two angles, measured
// anticlockwise from three o'clock about the centre of the bounding box.
type arcWedge struct {
	p0, p1, p2 ipoint
	start, end int
}

// NormaliseAngle maps angle into 0..359 degrees.
func NormaliseAngle(angle int) int {
	angle %= 360
	if angle < 0 {
		angle += 360
	}
	return angle
}

func newArcWedge(r span, start, end int) *arcWedge {
	return &arcWedge{
		p0:    ipoint{r.x + r.w/2, r.y + r.h/2},
		p1:    boundaryPoint(r, start),
		p2:    boundaryPoint(r, end),
		start: start,
		end:   end,
	}
}

// boundaryPoint is where a line from the centre at angle meets the edge
// of r.
func boundaryPoint(r span, angle int) ipoint {
	cx, cy := r.x+r.w/2, r.y+r.h/2
	switch angle {
	case 0:
		return ipoint{r.x + r.w, cy}
	case 45:
		return ipoint{r.x + r.w, r.y}
	case 90:
		return ipoint{cx, r.y}
	case 135:
		return ipoint{r.x, r.y}
	case 180:
		return ipoint{r.x, cy}
	case 225:
		return ipoint{r.x, r.y + r.h}
	case 270:
		return ipoint{cx, r.y + r.h}
	case 315:
		return ipoint{r.x + r.w, r.y + r.h}
	}

	tangent := math.Tan(float64(angle) * math.Pi / 180)
	w, h := float64(r.w), float64(r.h)
	switch {
	case angle > 315:
		return ipoint{r.x + r.w, int(float64(cy) - w*tangent/2)}
	case angle > 225:
		return ipoint{int(float64(cx) - h/tangent/2), r.y + r.h}
	case angle > 135:
		return ipoint{r.x, int(float64(cy) + w*tangent/2)}
	}
	return ipoint{int(float64(cx) + h/tangent/2), r.y}
}

// intersect returns the x where the scan line at y crosses the line from
// p0 through p.
func (a *arcWedge) intersect(p ipoint, y int) int {
	rise := p.y - a.p0.y
	if rise == 0 {
		return p.x
	}
	return a.p0.x + (y-a.p0.y)*(p.x-a.p0.x)/rise
}

// fill adds the parts of r lying inside the wedge. Above the centre that
// is left of the start line and right of the end line; below it the sides
// swap.
func (a *arcWedge) fill(l *RectList, r span) {
	add := func(x, w int) { l.Add(span{x, r.y, w, r.h}.rect()) }
	clamp := func(x int) int { return min(max(x, r.x), r.x+r.w) }
	right := r.x + r.w

	var x1, x2 int
	var startAbove, endAbove bool

	if r.y <= a.p0.y {
		switch {
		case a.p1.y <= r.y:
			x1, startAbove = a.intersect(a.p1, r.y), true
		case a.start <= 180:
			x1, startAbove = a.p1.x, true
		default:
			x1 = right
		}
		switch {
		case a.p2.y <= r.y:
			x2, endAbove = a.intersect(a.p2, r.y), true
		case a.end <= 180:
			x2, endAbove = a.p2.x, true
		default:
			x2 = r.x
		}
		x1, x2 = clamp(x1), clamp(x2)

		switch {
		case startAbove && endAbove:
			if a.start > a.end {
				add(r.x, x1-r.x)
				add(x2, right-x2)
				return
			}
			add(x2, x1-x2)
		case startAbove:
			add(r.x, x1-r.x)
		case endAbove:
			add(x2, right-x2)
		case a.start > a.end:
			add(r.x, r.w)
		}
		return
	}

	switch {
	case a.p1.y >= r.y:
		x1 = a.intersect(a.p1, r.y)
	case a.start >= 180:
		x1 = a.p1.x
	default:
		x1, startAbove = r.x, true
	}
	switch {
	case a.p2.y >= r.y:
		x2 = a.intersect(a.p2, r.y)
	case a.end >= 180:
		x2 = a.p2.x
	default:
		x2, endAbove = right, true
	}
	x1, x2 = clamp(x1), clamp(x2)

	switch {
	case startAbove && endAbove:
		if a.start > a.end {
			add(r.x, r.w)
		}
	case startAbove:
		add(r.x, x2-r.x)
	case endAbove:
		add(x1, right-x1)
	case a.start > a.end:
		add(r.x, x2-r.x)
		add(x1, right-x1)
	default:
		add(x1, x2-x1)
	}
}

type ellipseState uint8

const (
	ellipseInit ellipseState = iota
	ellipseRunning
	ellipseFinal1
	ellipseFinal2
	ellipseDone
)

// EllipseRenderer draws an ellipse outline of any pen width by tracing an
// outer and an inner ellipse and filling the gap between them.
type EllipseRenderer struct {
	rects  RectList
	r      span
	r1, r2 span
	w      int
	band   int
	state  ellipseState
	outer  ellipse
	inner  ellipse
	prev   ipoint
	innerX int
	arc    *arcWedge
}

func NewEllipseRenderer(loc Location, pen Pen, r Rect) *EllipseRenderer {
	return &EllipseRenderer{
		rects: NewRectList(loc.Dest, pen.Brush, 8),
		r:     spanOf(r),
		w:     int(pen.LineWidth()),
	}
}

// ArcRenderer draws part of an ellipse outline, anticlockwise from the
// start angle to the end angle. Equal angles draw nothing.
type ArcRenderer struct {
	EllipseRenderer
}

func NewArcRenderer(loc Location, pen Pen, r Rect, startAngle, endAngle int16) *ArcRenderer {
	a := &ArcRenderer{EllipseRenderer: *NewEllipseRenderer(loc, pen, r)}
	start, end := NormaliseAngle(int(startAngle)), NormaliseAngle(int(endAngle))
	if start == end {
		a.state = ellipseDone
		return a
	}
	a.arc = newArcWedge(a.r, start, end)
	return a
}

func (e *EllipseRenderer) add(s span) {
	if e.arc != nil {
		e.arc.fill(&e.rects, s)
		return
	}
	e.rects.Add(s.rect())
}

func (e *EllipseRenderer) init() {
	r := e.r
	if r.w <= 2 || r.h <= 2 {
		e.add(r)
		e.state = ellipseDone
		return
	}
	size := Size{uint16(r.w), uint16(r.h)}
	e.outer = newEllipse(size)
	w2 := uint16(2 * e.w)
	size.W = max(size.W, w2) - w2
	size.H = max(size.H, w2) - w2
	e.inner = newEllipse(size)

	e.r1 = span{r.x + int(e.outer.a), r.y, r.w % 2, 1}
	e.r2 = span{e.r1.x, r.bottom(), e.r1.w, 1}
	e.prev = ipoint{e.r1.x, e.r1.y}
	e.state = ellipseRunning
}

func (e *EllipseRenderer) Execute(s Surface) bool {
	if e.state == ellipseInit {
		e.init()
	}
	for {
		if e.rects.Len() != 0 && !e.rects.Render(s) {
			return false
		}
		switch e.state {
		case ellipseDone:
			return true
		case ellipseFinal1, ellipseFinal2:
			e.final()
			continue
		}

		r, r1, r2 := e.r, &e.r1, &e.r2
		if e.outer.y == 0 {
			if e.outer.x > e.outer.a || e.prev.y >= r2.y {
				e.state = ellipseDone
				continue
			}
			r1.h = r1.y + r1.h - r2.y
			r1.y = r2.y
			e.band = e.w
			if r.x+e.band != e.prev.x {
				e.band = max(e.band, e.prev.x-r.x)
			}
			if 2*e.band >= r.w {
				e.state = ellipseFinal1
			} else {
				e.state = ellipseFinal2
			}
			continue
		}

		for e.inner.y == e.outer.y {
			e.innerX = int(e.inner.x)
			e.inner.step()
		}
		e.band = int(e.outer.x) - e.innerX
		if r1.x+e.band < e.prev.x {
			e.band = e.prev.x - r1.x
		}
		e.band = max(e.band, e.w)

		move := e.outer.step()
		if move&moveDown != 0 {
			if r1.w == 0 {
				r1.grow()
				r2.grow()
				move &^= moveOut
			}
			if r1.y == r2.y-1 {
				r1.x, r2.x = r.x, r.x
				r1.w, r2.w = r.w, r.w
			} else {
				if r1.x < r.x {
					r1.x, r2.x = r.x, r.x
				}
				if r1.w > r.w {
					r1.w, r2.w = r.w, r.w
				}
			}

			if r1.y < r.y+e.w || r1.x+e.band >= r1.x+r1.w-e.band {
				e.add(*r1)
				e.add(*r2)
				e.prev = ipoint{r1.x, r1.y}
			} else if r1.y+r1.h < r2.y {
				b := e.band
				e.add(span{r1.x, r1.y, b, 1})
				e.add(span{r1.x + r1.w - b, r1.y, b, 1})
				e.add(span{r2.x, r2.y, b, 1})
				e.add(span{r2.x + r2.w - b, r2.y, b, 1})
				e.prev = ipoint{r1.x, r1.y}
			}
			r1.y++
			r2.y--
		}
		if move&moveOut != 0 {
			r1.grow()
			r2.grow()
		}
	}
}

// final draws the last band across the middle. Arcs take it a row at a
// time since each row is clipped differently.
func (e *EllipseRenderer) final() {
	r, r1 := e.r, &e.r1
	if e.arc == nil {
		if e.state == ellipseFinal1 {
			e.add(span{r.x, r1.y, r.w, r1.h})
		} else {
			e.add(span{r.x, r1.y, e.band, r1.h})
			e.add(span{r.x + r.w - e.band, r1.y, e.band, r1.h})
		}
		e.state = ellipseDone
		return
	}
	if r1.h <= 0 {
		e.state = ellipseDone
		return
	}
	if e.state == ellipseFinal2 {
		e.add(span{r.x, r1.y, e.band, 1})
		e.add(span{r.x + r.w - e.band, r1.y, e.band, 1})
	} else {
		e.add(span{r.x, r1.y, r.w, 1})
	}
	r1.y++
	r1.h--
}

type filledEllipseState uint8

const (
	filledInit filledEllipseState = iota
	filledRunning
	filledFinal
	filledDone
)

// FilledEllipseRenderer fills an ellipse using as few rectangles as
// possible.
type FilledEllipseRenderer struct {
	rects  RectList
	r      span
	e      ellipse
	r1, r2 span
	state  filledEllipseState
	arc    *arcWedge
}

func NewFilledEllipseRenderer(loc Location, b Brush, r Rect) *FilledEllipseRenderer {
	return &FilledEllipseRenderer{rects: NewRectList(loc.Dest, b, 4), r: spanOf(r)}
}

// FilledArcRenderer fills the wedge of an ellipse between two angles.
type FilledArcRenderer struct {
	FilledEllipseRenderer
}

func NewFilledArcRenderer(loc Location, b Brush, r Rect, startAngle, endAngle int16) *FilledArcRenderer {
	a := &FilledArcRenderer{FilledEllipseRenderer: *NewFilledEllipseRenderer(loc, b, r)}
	start, end := NormaliseAngle(int(startAngle)), NormaliseAngle(int(endAngle))
	if start == end {
		a.state = filledDone
		return a
	}
	a.arc = newArcWedge(a.r, start, end)
	return a
}

func (f *FilledEllipseRenderer) add(s span) {
	if f.arc != nil {
		f.arc.fill(&f.rects, s)
		return
	}
	f.rects.Add(s.rect())
}

func (f *FilledEllipseRenderer) Execute(s Surface) bool {
	if f.state == filledInit {
		r := f.r
		if r.w <= 2 || r.h <= 2 {
			f.add(r)
			f.state = filledDone
		} else {
			f.e = newEllipse(Size{uint16(r.w), uint16(r.h)})
			f.r1 = span{r.x + int(f.e.a), r.y, r.w % 2, 1}
			f.r2 = span{f.r1.x, r.bottom(), f.r1.w, 1}
			f.state = filledRunning
		}
	}
	for {
		if f.rects.Len() != 0 && !f.rects.Render(s) {
			return false
		}
		switch f.state {
		case filledDone:
			return true
		case filledFinal:
			f.final()
			continue
		}

		if f.e.y == 0 {
			f.state = filledFinal
			r, r1, r2 := f.r, f.r1, f.r2
			switch {
			case r1.y < r2.y:
				// overlap
				f.r1 = span{r.x, r1.y, r.w, r2.y + r2.h - r1.y}
			case f.e.x <= f.e.a:
				// crossover
				f.r1 = span{r.x, r2.y, r.w, r1.y + r1.h - r2.y}
			default:
				f.state = filledDone
			}
			continue
		}

		if f.arc != nil {
			f.stepArc(f.e.step())
		} else {
			f.step(f.e.step())
		}
	}
}

func (f *FilledEllipseRenderer) step(move ellipseMove) {
	r1, r2 := &f.r1, &f.r2
	if move == moveDown|moveOut && r1.w > 0 && r1.h > 0 {
		if r1.y+r1.h < r2.y {
			f.add(*r1)
			f.add(*r2)
		}
		r1.y += r1.h
		r1.h = 1
		r2.y--
		r2.h = 1
		move &^= moveDown
	}
	if move&moveOut != 0 {
		r1.grow()
		r2.grow()
	}
	if move&moveDown != 0 {
		r1.h++
		r2.h++
		r2.y--
	}
}

// stepArc emits every row separately since the wedge clips each one
// differently.
func (f *FilledEllipseRenderer) stepArc(move ellipseMove) {
	r, r1, r2 := f.r, &f.r1, &f.r2
	if move&moveDown != 0 {
		if r1.w == 0 {
			r1.grow()
			r2.grow()
			move &^= moveOut
		}
		if r1.y == r2.y-1 {
			r1.x, r2.x = r.x, r.x
			r1.w, r2.w = r.w, r.w
		} else {
			if r1.x < r.x {
				r1.x, r2.x = r.x, r.x
			}
			if r1.w > r.w {
				r1.w, r2.w = r.w, r.w
			}
		}
		if r1.w > 0 && r1.y+r1.h < r2.y {
			f.add(*r1)
			f.add(*r2)
		}
		r1.y++
		r2.y--
	}
	if move&moveOut != 0 {
		r1.grow()
		r2.grow()
	}
}

func (f *FilledEllipseRenderer) final() {
	if f.arc == nil {
		f.add(f.r1)
		f.state = filledDone
		return
	}
	r1 := &f.r1
	if r1.h <= 0 {
		f.state = filledDone
		return
	}
	f.add(span{r1.x, r1.y, r1.w, 1})
	r1.y++
	r1.h--
}
