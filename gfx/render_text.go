package gfx

import (
	"image/color"

	"tinygo.org/x/tinyfont"
)

// glyphMask captures the pixels tinyfont draws for one glyph. It is a
// drivers.Displayer so the font package can rasterise into it directly.
type glyphMask struct {
	w, h int16
	bits []bool
}

func (m *glyphMask) reset(w, h int16) {
	m.w, m.h = w, h
	n := int(w) * int(h)
	if cap(m.bits) < n {
		m.bits = make([]bool, n)
	}
	m.bits = m.bits[:n]
	clear(m.bits)
}

func (m *glyphMask) Size() (x, y int16) { return m.w, m.h }

func (m *glyphMask) SetPixel(x, y int16, _ color.RGBA) {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return
	}
	m.bits[int(y)*int(m.w)+int(x)] = true
}

func (m *glyphMask) Display() error { return nil }

func (m *glyphMask) at(x, y int16) bool { return m.bits[int(y)*int(m.w)+int(x)] }

// TextRenderer draws a line of text one glyph at a time. Each glyph is
// rasterised into a mask and emitted as horizontal runs, so the brush can
// be anything a filled rectangle accepts.
type TextRenderer struct {
	object *TextObject
	fore   RectList
	back   RectList
	runes  []rune
	index  int
	x      int16

	// Vertical extent of a glyph cell relative to the baseline.
	top    int16
	height int16

	mask    glyphMask
	loaded  bool
	advance int16
	offset  int16
	row     int16
	col     int16
	started bool
}

func NewTextRenderer(loc Location, o *TextObject) *TextRenderer {
	return &TextRenderer{
		object: o,
		fore:   NewRectList(loc.Dest, o.Brush, 8),
		back:   NewRectList(loc.Dest, o.Back, 1),
		x:      o.Pos.X,
	}
}

func (r *TextRenderer) init() {
	r.started = true
	r.runes = []rune(r.object.Text)
	if r.object.Font == nil {
		r.runes = nil
		return
	}
	var top, bottom int16
	for i, c := range r.runes {
		info := r.object.Font.GetGlyph(c).Info()
		t := int16(info.YOffset)
		b := t + int16(info.Height)
		if i == 0 || t < top {
			top = t
		}
		if i == 0 || b > bottom {
			bottom = b
		}
	}
	r.top = top
	r.height = bottom - top
}

// load rasterises the next glyph and queues its background cell.
func (r *TextRenderer) load() {
	font := r.object.Font
	c := r.runes[r.index]
	info := font.GetGlyph(c).Info()
	r.advance = int16(info.XAdvance)
	// Glyphs may start left of the pen position.
	r.offset = min(int16(info.XOffset), 0)
	w := max(r.advance, int16(info.XOffset)+int16(info.Width)) - r.offset
	r.mask.reset(w, r.height)
	tinyfont.DrawChar(&r.mask, font, -r.offset, -r.top, c, color.RGBA{A: 255})
	r.row, r.col = 0, 0
	r.loaded = true
	if !r.object.Back.IsNone() && r.advance > 0 && r.height > 0 {
		r.back.Add(Rect{X: r.x, Y: r.object.Pos.Y + r.top, W: uint16(r.advance), H: uint16(r.height)})
	}
}

// scan queues runs of set pixels until the list is full or the glyph has
// been covered.
func (r *TextRenderer) scan() {
	m := &r.mask
	y0 := r.object.Pos.Y + r.top
	x0 := r.x + r.offset
	for r.row < m.h && r.fore.Len() < 8 {
		for r.col < m.w && !m.at(r.col, r.row) {
			r.col++
		}
		if r.col == m.w {
			r.row++
			r.col = 0
			continue
		}
		start := r.col
		for r.col < m.w && m.at(r.col, r.row) {
			r.col++
		}
		r.fore.Add(Rect{X: x0 + start, Y: y0 + r.row, W: uint16(r.col - start), H: 1})
	}
	if r.row >= m.h {
		r.loaded = false
		r.x += r.advance
		r.index++
	}
}

func (r *TextRenderer) Execute(s Surface) bool {
	if !r.started {
		r.init()
	}
	for {
		if r.back.Len() != 0 && !r.back.Render(s) {
			return false
		}
		if r.fore.Len() != 0 && !r.fore.Render(s) {
			return false
		}
		if r.loaded {
			r.scan()
			continue
		}
		if r.index >= len(r.runes) {
			return true
		}
		r.load()
	}
}

// TextWidth returns the advance of text in pixels.
func TextWidth(font tinyfont.Fonter, text string) int {
	w, _ := tinyfont.LineWidth(font, text)
	return int(w)
}
