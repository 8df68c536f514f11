package gfx

import "tinygo.org/x/tinyfont"

// Kind identifies a drawable object.
type Kind uint8

const (
	KindReference Kind = iota
	KindPoint
	KindRect
	KindFilledRect
	KindLine
	KindPolyline
	KindCircle
	KindFilledCircle
	KindEllipse
	KindFilledEllipse
	KindArc
	KindFilledArc
	KindImage
	KindText
	KindSurface
	KindCopy
	KindScroll
	KindScene
	KindScrollMargins
	KindScrollOffset
)

var kindNames = [...]string{
	"Reference", "Point", "Rect", "FilledRect", "Line", "Polyline", "Circle",
	"FilledCircle", "Ellipse", "FilledEllipse", "Arc", "FilledArc", "Image",
	"Text", "Surface", "Copy", "Scroll", "Scene", "ScrollMargins", "ScrollOffset",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Object is something that can be drawn. Coordinates are relative to the
// top-left corner of the location it is rendered into.
type Object interface {
	Kind() Kind
	CreateRenderer(loc Location) Renderer
}

// ReferenceObject draws another object offset by Pos and clipped to its
// size, optionally through a blender.
type ReferenceObject struct {
	Object Object
	Pos    Rect
	Blend  Blender
}

func (*ReferenceObject) Kind() Kind { return KindReference }

func (o *ReferenceObject) CreateRenderer(loc Location) Renderer {
	r := &loc.Dest
	*r = r.Add(o.Pos.TopLeft())
	w := int(r.W) - int(o.Pos.X)
	h := int(r.H) - int(o.Pos.Y)
	r.W = uint16(max(min(w, int(o.Pos.W)), 0))
	r.H = uint16(max(min(h, int(o.Pos.H)), 0))
	if o.Blend == nil {
		return o.Object.CreateRenderer(loc)
	}
	if img, ok := o.Object.(ImageObject); ok {
		return NewImageCopyRenderer(loc, img, o.Blend)
	}
	return NewBlendRenderer(loc, o.Object, o.Blend)
}

type PointObject struct {
	Brush Brush
	Point Point
}

func (*PointObject) Kind() Kind { return KindPoint }

func (o *PointObject) CreateRenderer(loc Location) Renderer {
	return NewFilledRectRenderer(loc, o.Brush, Rect{X: o.Point.X, Y: o.Point.Y, W: 1, H: 1}, nil)
}

// RectObject is a rectangle outline, optionally with rounded corners.
type RectObject struct {
	Pen    Pen
	Rect   Rect
	Radius uint8
}

func (*RectObject) Kind() Kind { return KindRect }

func (o *RectObject) CreateRenderer(loc Location) Renderer {
	if o.Radius == 0 {
		return NewRectRenderer(loc, o.Pen, o.Rect)
	}
	return NewRoundedRectRenderer(loc, o)
}

// FilledRectObject is a filled rectangle. A non-nil Blender combines the
// brush with what is already on the surface.
type FilledRectObject struct {
	Brush   Brush
	Rect    Rect
	Radius  uint8
	Blender Blender
}

func (*FilledRectObject) Kind() Kind { return KindFilledRect }

func (o *FilledRectObject) CreateRenderer(loc Location) Renderer {
	if o.Radius == 0 {
		return NewFilledRectRenderer(loc, o.Brush, o.Rect, o.Blender)
	}
	return NewFilledRoundedRectRenderer(loc, o)
}

type LineObject struct {
	Pen    Pen
	P1, P2 Point
}

func (*LineObject) Kind() Kind { return KindLine }

func (o *LineObject) CreateRenderer(loc Location) Renderer {
	return NewLineRenderer(loc, o.Pen, o.P1, o.P2)
}

// PolylineObject is a sequence of lines. Unconnected polylines take the
// points in pairs.
type PolylineObject struct {
	Pen       Pen
	Points    []Point
	Connected bool
}

func (*PolylineObject) Kind() Kind { return KindPolyline }

func (o *PolylineObject) CreateRenderer(loc Location) Renderer {
	return NewPolylineRenderer(loc, o)
}

// RectOutline returns the polyline tracing r. With a radius the four
// straight edges are returned as separate segments, leaving the corners to
// the caller.
func RectOutline(pen Pen, r Rect, radius uint8) *PolylineObject {
	p1 := r.TopLeft()
	p2 := Point{r.Right(), r.Bottom()}
	if radius == 0 {
		return &PolylineObject{Pen: pen, Connected: true, Points: []Point{
			p1, {p2.X, p1.Y}, p2, {p1.X, p2.Y}, p1,
		}}
	}
	rad := int16(radius)
	t := int16(pen.LineWidth()) - 1
	return &PolylineObject{Pen: pen, Points: []Point{
		{p1.X + rad, p1.Y}, {p2.X - rad, p1.Y},
		{p1.X + rad, p2.Y - t}, {p2.X - rad, p2.Y - t},
		{p1.X, p1.Y + rad}, {p1.X, p2.Y - rad},
		{p2.X - t, p1.Y + rad}, {p2.X - t, p2.Y - rad},
	}}
}

type CircleObject struct {
	Pen    Pen
	Centre Point
	Radius uint16
}

func (*CircleObject) Kind() Kind { return KindCircle }

func (o *CircleObject) Bounds() Rect {
	r := int16(o.Radius)
	return Rect{X: o.Centre.X - r, Y: o.Centre.Y - r, W: 2*o.Radius + 1, H: 2*o.Radius + 1}
}

func (o *CircleObject) CreateRenderer(loc Location) Renderer {
	if o.Pen.LineWidth() <= 1 && !o.Pen.IsTransparent() {
		return NewCircleRenderer(loc, o.Pen, o.Centre, o.Radius, CornersAll)
	}
	return NewEllipseRenderer(loc, o.Pen, o.Bounds())
}

type FilledCircleObject struct {
	Brush  Brush
	Centre Point
	Radius uint16
}

func (*FilledCircleObject) Kind() Kind { return KindFilledCircle }

func (o *FilledCircleObject) Bounds() Rect {
	r := int16(o.Radius)
	return Rect{X: o.Centre.X - r, Y: o.Centre.Y - r, W: 2*o.Radius + 1, H: 2*o.Radius + 1}
}

func (o *FilledCircleObject) CreateRenderer(loc Location) Renderer {
	if o.Brush.IsTransparent() {
		return NewFilledEllipseRenderer(loc, o.Brush, o.Bounds())
	}
	return NewFilledCircleRenderer(loc, o.Brush, o.Centre, o.Radius, 0, HalvesBoth)
}

type EllipseObject struct {
	Pen  Pen
	Rect Rect
}

func (*EllipseObject) Kind() Kind { return KindEllipse }

func (o *EllipseObject) CreateRenderer(loc Location) Renderer {
	return NewEllipseRenderer(loc, o.Pen, o.Rect)
}

type FilledEllipseObject struct {
	Brush Brush
	Rect  Rect
}

func (*FilledEllipseObject) Kind() Kind { return KindFilledEllipse }

func (o *FilledEllipseObject) CreateRenderer(loc Location) Renderer {
	return NewFilledEllipseRenderer(loc, o.Brush, o.Rect)
}

// ArcObject is an elliptical arc inside Rect. Angles are in degrees,
// anticlockwise from three o'clock.
type ArcObject struct {
	Pen        Pen
	Rect       Rect
	StartAngle int16
	EndAngle   int16
}

func (*ArcObject) Kind() Kind { return KindArc }

func (o *ArcObject) CreateRenderer(loc Location) Renderer {
	if fullTurn(o.StartAngle, o.EndAngle) {
		return NewEllipseRenderer(loc, o.Pen, o.Rect)
	}
	return NewArcRenderer(loc, o.Pen, o.Rect, o.StartAngle, o.EndAngle)
}

type FilledArcObject struct {
	Brush      Brush
	Rect       Rect
	StartAngle int16
	EndAngle   int16
}

func (*FilledArcObject) Kind() Kind { return KindFilledArc }

func (o *FilledArcObject) CreateRenderer(loc Location) Renderer {
	if fullTurn(o.StartAngle, o.EndAngle) {
		return NewFilledEllipseRenderer(loc, o.Brush, o.Rect)
	}
	return NewFilledArcRenderer(loc, o.Brush, o.Rect, o.StartAngle, o.EndAngle)
}

func fullTurn(start, end int16) bool {
	return int(start)+360 <= int(end) || int(start)-360 >= int(end)
}

// ImageObject is a source of pixels.
type ImageObject interface {
	Object
	Size() Size
	PixelFormat() PixelFormat
	// ReadPixels copies count pixels starting at loc.SourcePos() into dst
	// in format f, staying within one row. It returns the bytes written.
	ReadPixels(loc Location, f PixelFormat, dst []byte, count int) int
}

// TextObject draws a single line of text. Pos is the left end of the
// baseline. Back, when not BrushNone, fills each glyph cell first.
type TextObject struct {
	Font  tinyfont.Fonter
	Brush Brush
	Back  Brush
	Pos   Point
	Text  string
}

func (*TextObject) Kind() Kind { return KindText }

func (o *TextObject) CreateRenderer(loc Location) Renderer {
	return NewTextRenderer(loc, o)
}

// SurfaceObject copies pixels from another surface. Dest is where they go
// and Source the top-left of the area read.
type SurfaceObject struct {
	Surface Surface
	Dest    Rect
	Source  Point
}

func (*SurfaceObject) Kind() Kind { return KindSurface }

func (o *SurfaceObject) CreateRenderer(loc Location) Renderer {
	return NewSurfaceRenderer(loc, o)
}

// CopyObject moves an area of the surface onto itself.
type CopyObject struct {
	Source Rect
	Dest   Point
}

func (*CopyObject) Kind() Kind { return KindCopy }

func (o *CopyObject) CreateRenderer(loc Location) Renderer {
	return NewCopyRenderer(loc, o.Source, o.Dest)
}

// ScrollObject shifts the contents of Area. Pixels leaving one edge come in
// on the other when wrapping, otherwise the exposed area takes Fill.
type ScrollObject struct {
	Area  Rect
	Shift Point
	WrapX bool
	WrapY bool
	Fill  Color
}

func (*ScrollObject) Kind() Kind { return KindScroll }

func (o *ScrollObject) CreateRenderer(loc Location) Renderer {
	return NewScrollRenderer(loc, o)
}

// ScrollMarginsObject sets the fixed top and bottom areas for hardware
// scrolling.
type ScrollMarginsObject struct {
	Top, Bottom uint16
}

func (*ScrollMarginsObject) Kind() Kind { return KindScrollMargins }

func (*ScrollMarginsObject) CreateRenderer(Location) Renderer { return nil }

type ScrollOffsetObject struct {
	Offset uint16
}

func (*ScrollOffsetObject) Kind() Kind { return KindScrollOffset }

func (*ScrollOffsetObject) CreateRenderer(Location) Renderer { return nil }

// SceneObject is an ordered collection of objects drawn as one.
type SceneObject struct {
	Name    string
	Size    Size
	Objects []Object
}

func NewScene(size Size, name string) *SceneObject {
	return &SceneObject{Name: name, Size: size}
}

func (*SceneObject) Kind() Kind { return KindScene }

func (o *SceneObject) CreateRenderer(loc Location) Renderer {
	return NewSceneRenderer(loc, o)
}

func (o *SceneObject) Add(obj Object) Object {
	o.Objects = append(o.Objects, obj)
	return obj
}

func (o *SceneObject) Clear(c Color) {
	o.Objects = o.Objects[:0]
	o.Add(&FilledRectObject{Brush: SolidBrush(c), Rect: SizeRect(o.Size)})
}

func (o *SceneObject) DrawRect(pen Pen, r Rect) {
	o.Add(&RectObject{Pen: pen, Rect: r})
}

func (o *SceneObject) FillRect(b Brush, r Rect) {
	o.Add(&FilledRectObject{Brush: b, Rect: r})
}

func (o *SceneObject) DrawLine(pen Pen, p1, p2 Point) {
	o.Add(&LineObject{Pen: pen, P1: p1, P2: p2})
}

func (o *SceneObject) DrawCircle(pen Pen, centre Point, radius uint16) {
	o.Add(&CircleObject{Pen: pen, Centre: centre, Radius: radius})
}

func (o *SceneObject) FillCircle(b Brush, centre Point, radius uint16) {
	o.Add(&FilledCircleObject{Brush: b, Centre: centre, Radius: radius})
}

func (o *SceneObject) DrawText(font tinyfont.Fonter, b Brush, pos Point, text string) {
	o.Add(&TextObject{Font: font, Brush: b, Pos: pos, Text: text})
}
