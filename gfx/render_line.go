package gfx

// GfxLineRenderer plots a one-pixel line point by point with Bresenham's
// algorithm. Coordinates are relative to the location.
type GfxLineRenderer struct {
	loc            Location
	pen            Pen
	x0, y0, x1, y1 int16
	dx, dy, err    int16
	ystep          int16
	steep          bool
}

func NewGfxLineRenderer(loc Location, pen Pen, p1, p2 Point) *GfxLineRenderer {
	r := &GfxLineRenderer{loc: loc, pen: pen, x0: p1.X, y0: p1.Y, x1: p2.X, y1: p2.Y}
	r.steep = abs16(r.y1-r.y0) > abs16(r.x1-r.x0)
	if r.steep {
		r.x0, r.y0 = r.y0, r.x0
		r.x1, r.y1 = r.y1, r.x1
	}
	if r.x0 > r.x1 {
		r.x0, r.x1 = r.x1, r.x0
		r.y0, r.y1 = r.y1, r.y0
	}
	r.dx = r.x1 - r.x0
	r.dy = abs16(r.y1 - r.y0)
	r.err = r.dx / 2
	r.ystep = -1
	if r.y0 < r.y1 {
		r.ystep = 1
	}
	return r
}

func (r *GfxLineRenderer) Execute(s Surface) bool {
	c := r.pen.PackedColor(s.PixelFormat())
	for ; r.x0 <= r.x1; r.x0++ {
		pt := Point{r.x0, r.y0}
		if r.steep {
			pt = Point{r.y0, r.x0}
		}
		pt = pt.Add(r.loc.Dest.TopLeft())
		if r.loc.Dest.Contains(pt) && !s.SetPixel(c, pt) {
			return false
		}
		r.err -= r.dy
		if r.err < 0 {
			r.y0 += r.ystep
			r.err += r.dx
		}
	}
	return true
}

type lineMode uint8

const (
	lineSimple lineMode = iota
	lineDiagonal
	lineHorizontal
	lineVertical
	lineDone
)

// LineRenderer draws lines of any width as runs of rectangles using
// Bresenham's run-slice variant. Thick lines hang below and to the right
// of the end points.
type LineRenderer struct {
	rects    RectList
	x1, y1   int16
	x2, y2   int16
	w        uint16
	xadvance int16
	dx, dy   int16
	mode     lineMode

	r          Rect
	runPos     int16
	wholeStep  int16
	adjUp      int16
	adjDown    int16
	errorTerm  int16
	initialRun int16
	finalRun   int16
}

func NewLineRenderer(loc Location, pen Pen, p1, p2 Point) *LineRenderer {
	r := &LineRenderer{
		rects: NewRectList(loc.Dest, pen.Brush, 4),
		x1:    p1.X, y1: p1.Y, x2: p2.X, y2: p2.Y,
		w: pen.LineWidth(),
	}
	r.init()
	return r
}

func (r *LineRenderer) init() {
	if r.x2 < r.x1 {
		r.xadvance = -1
		r.dx = r.x1 - r.x2
	} else {
		r.xadvance = 1
		r.dx = r.x2 - r.x1
	}
	// Always draw downwards.
	if r.y2 < r.y1 {
		r.x1, r.x2 = r.x2, r.x1
		r.y1, r.y2 = r.y2, r.y1
		r.xadvance = -r.xadvance
	}
	r.dy = r.y2 - r.y1

	switch {
	case r.dx == 0:
		r.rects.Add(Rect{X: r.x1, Y: r.y1, W: r.w, H: uint16(r.dy) + 1})
	case r.dy == 0:
		r.rects.Add(Rect{X: min(r.x1, r.x2), Y: r.y1, W: uint16(r.dx) + 1, H: r.w})
	case r.dx == r.dy:
		r.mode = lineDiagonal
		r.r = Rect{X: r.x1, Y: r.y1, W: r.w, H: 1}
	case r.dx > r.dy:
		r.initHorizontal()
	default:
		r.initVertical()
	}
}

func (r *LineRenderer) Execute(s Surface) bool {
	for {
		if r.rects.Len() != 0 && !r.rects.Render(s) {
			return false
		}
		switch r.mode {
		case lineDiagonal:
			r.drawDiagonal()
		case lineHorizontal:
			r.drawHorizontal()
		case lineVertical:
			r.drawVertical()
		default:
			return true
		}
	}
}

func (r *LineRenderer) drawDiagonal() {
	if r.runPos == r.dx+1 {
		r.mode = lineDone
		return
	}
	r.runPos++
	r.rects.Add(r.r)
	r.r.X += r.xadvance
	r.r.Y++
}

// setupRuns computes the run lengths along the major axis. major and minor
// are the line extents in each direction.
func (r *LineRenderer) setupRuns(major, minor int16) {
	r.wholeStep = major / minor
	r.adjUp = (major % minor) * 2
	r.adjDown = minor * 2
	r.errorTerm = (major % minor) - minor*2
	// The first and last runs are partial and share one whole run.
	r.initialRun = r.wholeStep/2 + 1
	r.finalRun = r.initialRun
	if r.adjUp == 0 && r.wholeStep%2 == 0 {
		r.initialRun--
	}
	if r.wholeStep%2 != 0 {
		r.errorTerm += minor
	}
}

func (r *LineRenderer) nextRun() int16 {
	n := r.wholeStep
	r.errorTerm += r.adjUp
	if r.errorTerm > 0 {
		n++
		r.errorTerm -= r.adjDown
	}
	return n
}

func (r *LineRenderer) addHorizontalRun() {
	if r.xadvance < 0 {
		r.r.X -= int16(r.r.W)
		r.rects.Add(r.r)
	} else {
		r.rects.Add(r.r)
		r.r.X += int16(r.r.W)
	}
	r.r.Y++
}

func (r *LineRenderer) initHorizontal() {
	r.mode = lineHorizontal
	if r.xadvance < 0 {
		r.x1++
		r.x2++
	}
	r.setupRuns(r.dx, r.dy)
	r.r = Rect{X: r.x1, Y: r.y1, W: uint16(r.initialRun), H: r.w}
	r.addHorizontalRun()
}

func (r *LineRenderer) drawHorizontal() {
	r.runPos++
	if r.runPos == r.dy {
		r.r.W = uint16(r.finalRun)
		if r.xadvance < 0 {
			r.r.X -= int16(r.r.W)
		}
		r.rects.Add(r.r)
		r.mode = lineDone
		return
	}
	r.r.W = uint16(r.nextRun())
	r.addHorizontalRun()
}

func (r *LineRenderer) initVertical() {
	r.mode = lineVertical
	r.setupRuns(r.dy, r.dx)
	r.r = Rect{X: r.x1, Y: r.y1, W: r.w, H: uint16(r.initialRun)}
	r.rects.Add(r.r)
	r.r.X += r.xadvance
	r.r.Y += int16(r.r.H)
}

func (r *LineRenderer) drawVertical() {
	r.runPos++
	if r.runPos == r.dx {
		r.r.H = uint16(r.finalRun)
		r.rects.Add(r.r)
		r.mode = lineDone
		return
	}
	r.r.H = uint16(r.nextRun())
	r.rects.Add(r.r)
	r.r.X += r.xadvance
	r.r.Y += int16(r.r.H)
}

// PolylineRenderer draws each segment of a polyline through Surface.Render
// so straight segments can take the inline path.
type PolylineRenderer struct {
	loc      Location
	object   *PolylineObject
	line     LineObject
	index    int
	renderer Renderer
}

func NewPolylineRenderer(loc Location, object *PolylineObject) *PolylineRenderer {
	return &PolylineRenderer{loc: loc, object: object, line: LineObject{Pen: object.Pen}}
}

func (r *PolylineRenderer) Execute(s Surface) bool {
	for {
		if !Execute(s, &r.renderer) {
			return false
		}
		pts := r.object.Points
		if r.index+1 >= len(pts) {
			return true
		}
		r.line.P1 = pts[r.index]
		r.line.P2 = pts[r.index+1]
		rr, ok := s.Render(&r.line, r.loc.Dest)
		if !ok {
			return false
		}
		r.renderer = rr
		if r.object.Connected {
			r.index++
		} else {
			r.index += 2
		}
	}
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}
