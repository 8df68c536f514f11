// Package displayer lets code written against the TinyGo drivers
// interfaces, tinyfont and tinyterm among them, draw onto a gfx.Surface.
package displayer

import (
	"errors"
	"fmt"
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyterm"

	"sparkgfx/gfx"
)

// ErrSurfaceFull is returned when a single operation does not fit into an
// empty surface.
var ErrSurfaceFull = errors.New("displayer: operation does not fit the surface")

// WaitFunc blocks until done reports true, running whatever completes a
// present in the meantime. kernel.System.RunUntil wrapped in a context
// is the usual choice.
type WaitFunc func(done func() bool) error

// Display implements tinyterm.Displayer on top of a surface. Drawing is
// recorded and sent on Display, or earlier whenever the surface fills.
// Colours are drawn opaque. Rotation and scrolling are done in software,
// so they work the same on every surface.
type Display struct {
	surface  gfx.Surface
	wait     WaitFunc
	format   gfx.PixelFormat
	native   gfx.Size
	rotation drivers.Rotation

	// Rows [0, wrap) form a ring shown from row scroll onwards. Zero
	// wrap means the whole height.
	scroll int16
	wrap   int16

	err error
}

var _ tinyterm.Displayer = (*Display)(nil)

// New draws onto s. A nil wait is only safe for surfaces whose present
// completes before Present returns, such as image surfaces without a
// scheduler.
func New(s gfx.Surface, wait WaitFunc) *Display {
	return &Display{
		surface: s,
		wait:    wait,
		format:  s.PixelFormat(),
		native:  s.Size(),
	}
}

// Surface returns the surface being drawn on.
func (d *Display) Surface() gfx.Surface { return d.surface }

// Err returns the first error seen since the last Display call.
func (d *Display) Err() error { return d.err }

// Size returns the size after rotation.
func (d *Display) Size() (x, y int16) {
	if d.rotation == drivers.Rotation90 || d.rotation == drivers.Rotation270 {
		return int16(d.native.H), int16(d.native.W)
	}
	return int16(d.native.W), int16(d.native.H)
}

func (d *Display) SetPixel(x, y int16, c color.RGBA) {
	if wrap := d.ringHeight(); d.scroll != 0 && y >= 0 && y < wrap {
		y = (y - d.scroll + wrap) % wrap
	}
	pt := d.toNative(gfx.Point{X: x, Y: y})
	if !gfx.SizeRect(d.native).Contains(pt) {
		return
	}
	pc := gfx.Pack(opaque(c), d.format)
	d.do(func() bool { return d.surface.SetPixel(pc, pt) })
}

func (d *Display) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	wrap := d.ringHeight()
	if d.scroll == 0 || y < 0 || y+height > wrap {
		d.fill(gfx.Rect{X: x, Y: y, W: uint16(width), H: uint16(height)}, c)
		return d.err
	}
	y = (y - d.scroll + wrap) % wrap
	first := min(height, wrap-y)
	d.fill(gfx.Rect{X: x, Y: y, W: uint16(width), H: uint16(first)}, c)
	if first < height {
		d.fill(gfx.Rect{X: x, W: uint16(width), H: uint16(height - first)}, c)
	}
	return d.err
}

func (d *Display) fill(r gfx.Rect, c color.RGBA) {
	r = d.rectToNative(r).Clip(gfx.SizeRect(d.native))
	if r.Empty() {
		return
	}
	pc := gfx.Pack(opaque(c), d.format)
	d.do(func() bool { return d.surface.FillRect(pc, r) })
}

// ScrollUp moves everything up by lines rows and fills the bottom with bg.
// tinyterm calls it when software scrolling is enabled.
func (d *Display) ScrollUp(lines int16, bg color.RGBA) error {
	if lines <= 0 {
		return nil
	}
	w, h := d.Size()
	return d.scrollUp(gfx.Rect{W: uint16(w), H: uint16(h)}, lines, opaque(bg))
}

// scrollUp scrolls area, given in rotated coordinates.
func (d *Display) scrollUp(area gfx.Rect, lines int16, bg gfx.Color) error {
	var shift gfx.Point
	switch d.rotation {
	case drivers.Rotation90:
		shift.X = lines
	case drivers.Rotation180:
		shift.Y = lines
	case drivers.Rotation270:
		shift.X = -lines
	default:
		shift.Y = -lines
	}
	return d.Draw(&gfx.ScrollObject{Area: d.rectToNative(area), Shift: shift, Fill: bg})
}

// Draw renders obj over the whole surface, presenting as often as it
// needs to. Coordinates are native; rotation does not apply.
func (d *Display) Draw(obj gfx.Object) error {
	loc := gfx.SizeRect(d.native)
	var r gfx.Renderer
	ok := false
	for attempt := 0; !ok; attempt++ {
		if attempt == 2 {
			return d.setErr(fmt.Errorf("%w: %v", ErrSurfaceFull, obj.Kind()))
		}
		if attempt > 0 {
			if err := d.flush(); err != nil {
				return err
			}
		}
		r, ok = d.surface.Render(obj, loc)
	}
	for !gfx.Execute(d.surface, &r) {
		if err := d.flush(); err != nil {
			return err
		}
	}
	return d.err
}

// SetScroll shows the ring of rows starting at line, the way a panel's
// vertical scroll does. The surface content is moved to match, and later
// drawing lands where the new position puts it.
func (d *Display) SetScroll(line int16) {
	wrap := d.ringHeight()
	if wrap <= 0 {
		return
	}
	line = (line%wrap + wrap) % wrap
	delta := (line - d.scroll + wrap) % wrap
	if delta == 0 {
		return
	}
	w, _ := d.Size()
	d.scrollUp(gfx.Rect{W: uint16(w), H: uint16(wrap)}, delta, gfx.Black)
	d.scroll = line
}

// SetScrollHeight limits the scroll ring to the top h rows and resets the
// scroll position. Zero or less selects the whole height.
func (d *Display) SetScrollHeight(h int16) {
	d.scroll = 0
	d.wrap = max(h, 0)
}

func (d *Display) ringHeight() int16 {
	_, h := d.Size()
	if d.wrap > 0 && d.wrap < h {
		return d.wrap
	}
	return h
}

func (d *Display) SetRotation(rotation drivers.Rotation) error {
	if rotation > drivers.Rotation270 {
		return fmt.Errorf("displayer: invalid rotation %d", rotation)
	}
	d.rotation = rotation
	return nil
}

// Display sends what has been drawn and waits for it to arrive. It
// returns and clears the first error since the previous call.
func (d *Display) Display() error {
	d.flush()
	err := d.err
	d.err = nil
	return err
}

func (d *Display) setErr(err error) error {
	if d.err == nil {
		d.err = err
	}
	return err
}

// do runs op, presenting and retrying once if the surface was full.
func (d *Display) do(op func() bool) {
	if op() {
		return
	}
	if d.flush() != nil {
		return
	}
	if !op() {
		d.setErr(ErrSurfaceFull)
	}
}

func (d *Display) flush() error {
	done := false
	if !d.surface.Present(func() { done = true }) || done {
		return nil
	}
	if d.wait == nil {
		return d.setErr(errors.New("displayer: present did not complete"))
	}
	if err := d.wait(func() bool { return done }); err != nil {
		return d.setErr(err)
	}
	return nil
}

func (d *Display) toNative(p gfx.Point) gfx.Point {
	w, h := int16(d.native.W), int16(d.native.H)
	switch d.rotation {
	case drivers.Rotation90:
		return gfx.Point{X: w - 1 - p.Y, Y: p.X}
	case drivers.Rotation180:
		return gfx.Point{X: w - 1 - p.X, Y: h - 1 - p.Y}
	case drivers.Rotation270:
		return gfx.Point{X: p.Y, Y: h - 1 - p.X}
	}
	return p
}

func (d *Display) rectToNative(r gfx.Rect) gfx.Rect {
	a := d.toNative(r.TopLeft())
	b := d.toNative(gfx.Point{X: r.Right(), Y: r.Bottom()})
	if a.X > b.X {
		a.X, b.X = b.X, a.X
	}
	if a.Y > b.Y {
		a.Y, b.Y = b.Y, a.Y
	}
	return gfx.Rect{X: a.X, Y: a.Y, W: uint16(b.X-a.X) + 1, H: uint16(b.Y-a.Y) + 1}
}

func opaque(c color.RGBA) gfx.Color { return gfx.RGB(c.R, c.G, c.B) }
