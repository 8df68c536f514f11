package gfx

// WindowMode is the direction of streamed pixel I/O.
type WindowMode uint8

const (
	WindowNone WindowMode = iota
	WindowRead
	WindowWrite
)

func (m WindowMode) String() string {
	switch m {
	case WindowRead:
		return "read"
	case WindowWrite:
		return "write"
	}
	return "none"
}

// AddressWindow tracks where the next streamed pixel goes. Bounds shrinks
// from the top as whole rows are consumed; Column is the position within
// the current row.
type AddressWindow struct {
	Bounds  Rect
	Column  uint16
	Mode    WindowMode
	initial Rect
}

func NewAddressWindow(r Rect) AddressWindow {
	return AddressWindow{Bounds: r, initial: r}
}

// SetRect makes r the new window and clears the mode.
func (w *AddressWindow) SetRect(r Rect) {
	w.initial = r
	w.Mode = WindowNone
	w.Reset()
}

func (w *AddressWindow) Initial() Rect { return w.initial }

// Reset rewinds to the start of the window.
func (w *AddressWindow) Reset() {
	w.Column = 0
	w.Bounds = w.initial
}

// SetMode switches direction. A change rewinds the window and returns true.
func (w *AddressWindow) SetMode(m WindowMode) bool {
	if w.Mode == m {
		return false
	}
	w.Mode = m
	w.Reset()
	return true
}

// Left is the x coordinate of the next pixel.
func (w *AddressWindow) Left() int16 { return w.Bounds.X + int16(w.Column) }

func (w *AddressWindow) Top() int16 { return w.Bounds.Y }

// PixelCount is the number of pixels left in the window.
func (w *AddressWindow) PixelCount() int {
	return int(w.Bounds.W)*int(w.Bounds.H) - int(w.Column)
}

// Seek advances by count pixels, wrapping rows, and returns how many were
// consumed. It stops short once the window is exhausted.
func (w *AddressWindow) Seek(count int) int {
	if w.Bounds.H == 0 || w.Bounds.W == 0 {
		return 0
	}
	pos := int(w.Column)
	col := pos + count
	res := 0
	width := int(w.Bounds.W)
	for col >= width && w.Bounds.H != 0 {
		col -= width
		w.Bounds.Y++
		w.Bounds.H--
		res += width
	}
	if w.Bounds.H == 0 {
		w.Column = 0
		return res - pos
	}
	w.Column = uint16(col)
	return res + col - pos
}
