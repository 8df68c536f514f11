// Package gfx is the rendering core: geometry, colours and pixel formats,
// the Surface contract and the resumable renderers that draw objects onto it.
package gfx

import "fmt"

// Point is a signed pixel coordinate.
type Point struct {
	X, Y int16
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

func (p Point) String() string { return fmt.Sprintf("%d, %d", p.X, p.Y) }

// Size is an unsigned extent in pixels.
type Size struct {
	W, H uint16
}

func (s Size) Pixels() int { return int(s.W) * int(s.H) }

func (s Size) String() string { return fmt.Sprintf("%d x %d", s.W, s.H) }

// Rect is an axis-aligned rectangle. Right and Bottom are inclusive.
type Rect struct {
	X, Y int16
	W, H uint16
}

// SizeRect returns a rectangle of the given size at the origin.
func SizeRect(s Size) Rect { return Rect{W: s.W, H: s.H} }

func NewRect(pt Point, s Size) Rect { return Rect{pt.X, pt.Y, s.W, s.H} }

func (r Rect) Left() int16      { return r.X }
func (r Rect) Top() int16       { return r.Y }
func (r Rect) Right() int16     { return r.X + int16(r.W) - 1 }
func (r Rect) Bottom() int16    { return r.Y + int16(r.H) - 1 }
func (r Rect) TopLeft() Point   { return Point{r.X, r.Y} }
func (r Rect) Size() Size       { return Size{r.W, r.H} }
func (r Rect) Empty() bool      { return r.W == 0 || r.H == 0 }
func (r Rect) Pixels() int      { return int(r.W) * int(r.H) }
func (r Rect) Centre() Point    { return Point{r.X + int16(r.W/2), r.Y + int16(r.H/2)} }
func (r Rect) Add(p Point) Rect { return Rect{r.X + p.X, r.Y + p.Y, r.W, r.H} }
func (r Rect) Sub(p Point) Rect { return Rect{r.X - p.X, r.Y - p.Y, r.W, r.H} }

func (r Rect) Contains(pt Point) bool {
	return int(pt.X) >= int(r.X) && int(pt.X) < int(r.X)+int(r.W) &&
		int(pt.Y) >= int(r.Y) && int(pt.Y) < int(r.Y)+int(r.H)
}

// Intersect returns the overlap of a and b, or an empty rectangle.
func Intersect(a, b Rect) Rect {
	x0 := max(int(a.X), int(b.X))
	y0 := max(int(a.Y), int(b.Y))
	x1 := min(int(a.X)+int(a.W), int(b.X)+int(b.W))
	y1 := min(int(a.Y)+int(a.H), int(b.Y)+int(b.H))
	if x0 >= x1 || y0 >= y1 {
		return Rect{}
	}
	return Rect{int16(x0), int16(y0), uint16(x1 - x0), uint16(y1 - y0)}
}

// Clip is Intersect(r, c).
func (r Rect) Clip(c Rect) Rect { return Intersect(r, c) }

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0 := min(int(r.X), int(o.X))
	y0 := min(int(r.Y), int(o.Y))
	x1 := max(int(r.X)+int(r.W), int(o.X)+int(o.W))
	y1 := max(int(r.Y)+int(r.H), int(o.Y)+int(o.H))
	return Rect{int16(x0), int16(y0), uint16(x1 - x0), uint16(y1 - y0)}
}

// Inflate grows r by dx, dy on every side. Negative values shrink it.
func (r Rect) Inflate(dx, dy int16) Rect {
	w := int(r.W) + 2*int(dx)
	h := int(r.H) + 2*int(dy)
	if w <= 0 || h <= 0 {
		return Rect{r.X + dx, r.Y + dy, 0, 0}
	}
	return Rect{r.X - dx, r.Y - dy, uint16(w), uint16(h)}
}

func (r Rect) String() string { return fmt.Sprintf("%d, %d, %d, %d", r.X, r.Y, r.W, r.H) }

// Location tells a renderer where it draws. Dest is the clip area on the
// surface, Source the area of the object being drawn, and Pos the resume
// cursor relative to both.
type Location struct {
	Dest   Rect
	Source Rect
	Pos    Point
}

// LocationFor returns a location covering r with an identical source size.
func LocationFor(r Rect) Location {
	return Location{Dest: r, Source: SizeRect(r.Size())}
}

func (l Location) DestPos() Point   { return l.Dest.TopLeft().Add(l.Pos) }
func (l Location) SourcePos() Point { return l.Source.TopLeft().Add(l.Pos) }

func (l Location) String() string {
	return fmt.Sprintf("dest(%s) source(%s) pos(%s)", l.Dest, l.Source, l.Pos)
}
