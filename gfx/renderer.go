package gfx

// Renderer draws one object incrementally. Execute returns true once the
// object is complete; false means the surface filled up or is waiting on a
// read, and Execute must be called again, normally on another surface.
type Renderer interface {
	Execute(s Surface) bool
}

// PointList buffers a few points generated by an algorithm step and plots
// them. Points are relative to bounds and dropped when outside it.
type PointList struct {
	bounds   Rect
	object   PointObject
	items    []Point
	index    int
	renderer Renderer
}

func NewPointList(bounds Rect, b Brush, capacity int) PointList {
	return PointList{bounds: bounds, object: PointObject{Brush: b}, items: make([]Point, 0, capacity)}
}

func (l *PointList) Add(x, y int16) {
	pt := Point{x, y}
	if SizeRect(l.bounds.Size()).Contains(pt) {
		l.items = append(l.items, pt)
	}
}

func (l *PointList) Len() int { return len(l.items) - l.index }

// Render plots every buffered point. It returns false if the surface filled
// up, keeping the remaining points for the next call.
func (l *PointList) Render(s Surface) bool {
	for {
		if !Execute(s, &l.renderer) {
			return false
		}
		if l.index >= len(l.items) {
			break
		}
		l.object.Point = l.items[l.index]
		r, ok := s.Render(&l.object, l.bounds)
		if !ok {
			return false
		}
		l.renderer = r
		l.index++
	}
	l.items = l.items[:0]
	l.index = 0
	return true
}

// RectList is PointList for rectangles. Rectangles are clipped to the
// bounds on entry.
type RectList struct {
	bounds   Rect
	object   FilledRectObject
	items    []Rect
	index    int
	renderer Renderer
}

func NewRectList(bounds Rect, b Brush, capacity int) RectList {
	return RectList{bounds: bounds, object: FilledRectObject{Brush: b}, items: make([]Rect, 0, capacity)}
}

func (l *RectList) Add(r Rect) {
	r = Intersect(r, SizeRect(l.bounds.Size()))
	if !r.Empty() {
		l.items = append(l.items, r)
	}
}

func (l *RectList) Len() int { return len(l.items) - l.index }

func (l *RectList) Render(s Surface) bool {
	for {
		if !Execute(s, &l.renderer) {
			return false
		}
		if l.index >= len(l.items) {
			break
		}
		l.object.Rect = l.items[l.index]
		r, ok := s.Render(&l.object, l.bounds)
		if !ok {
			return false
		}
		l.renderer = r
		l.index++
	}
	l.items = l.items[:0]
	l.index = 0
	return true
}

// MultiRenderer draws a sequence of objects, one at a time. Next supplies
// the objects and returns nil at the end; Done, if set, is told when each
// one has been drawn.
type MultiRenderer struct {
	Location Location
	Next     func() Object
	Done     func(obj Object)

	object   Object
	renderer Renderer
}

func (m *MultiRenderer) finish() {
	if m.Done != nil {
		m.Done(m.object)
	}
	m.object = nil
}

func (m *MultiRenderer) Execute(s Surface) bool {
	for {
		if m.renderer != nil {
			if !Execute(s, &m.renderer) {
				return false
			}
			m.finish()
		}
		if m.object == nil {
			m.object = m.Next()
			if m.object == nil {
				return true
			}
		}
		r, ok := s.Render(m.object, m.Location.Dest)
		if !ok {
			return false
		}
		m.renderer = r
		if r == nil {
			m.finish()
		}
	}
}

// SceneRenderer walks the objects of a scene in order.
type SceneRenderer struct {
	MultiRenderer
	scene *SceneObject
	index int
}

func NewSceneRenderer(loc Location, scene *SceneObject) *SceneRenderer {
	r := &SceneRenderer{scene: scene}
	r.Location = loc
	r.Next = r.next
	return r
}

func (r *SceneRenderer) next() Object {
	if r.index >= len(r.scene.Objects) {
		return nil
	}
	obj := r.scene.Objects[r.index]
	r.index++
	return obj
}
