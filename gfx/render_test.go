package gfx

import (
	"bytes"
	"testing"

	"tinygo.org/x/tinyfont/proggy"
)

func TestFilledRectIsRelativeToLocation(t *testing.T) {
	img, s := newCanvas(20, 20)
	obj := &FilledRectObject{Brush: SolidBrush(Red), Rect: Rect{X: 1, Y: 1, W: 4, H: 5}}
	if !RenderNow(s, obj, Rect{X: 10, Y: 10, W: 8, H: 8}) {
		t.Fatalf("RenderNow() = false, want true")
	}
	if got := countColor(img, Red); got != 20 {
		t.Fatalf("red pixels = %d, want 20", got)
	}
	if got := colorAt(img, 11, 11); got != Red {
		t.Fatalf("pixel 11,11 = %v, want %v", got, Red)
	}
	if got := colorAt(img, 1, 1); got == Red {
		t.Fatalf("pixel 1,1 painted, want it untouched")
	}
}

func TestFilledRectClipsToLocation(t *testing.T) {
	img, s := newCanvas(20, 20)
	obj := &FilledRectObject{Brush: SolidBrush(Red), Rect: Rect{X: 2, Y: 2, W: 10, H: 10}}
	if !RenderNow(s, obj, Rect{X: 0, Y: 0, W: 5, H: 5}) {
		t.Fatalf("RenderNow() = false, want true")
	}
	if got := countColor(img, Red); got != 9 {
		t.Fatalf("red pixels = %d, want 9", got)
	}
}

func TestTexturedFillUsesBrush(t *testing.T) {
	img, s := newCanvas(8, 8)
	draw(t, s, &FilledRectObject{
		Brush: TextureBrush(GradientBrush{Color1: Black, Color2: White}),
		Rect:  Rect{X: 0, Y: 0, W: 8, H: 8},
	})
	if got := colorAt(img, 3, 0); got != Black {
		t.Fatalf("top row = %v, want %v", got, Black)
	}
	top, bottom := colorAt(img, 0, 1), colorAt(img, 0, 7)
	if top.R() >= bottom.R() {
		t.Fatalf("gradient runs %v to %v, want it to brighten downwards", top, bottom)
	}
}

func TestImageBrushTiles(t *testing.T) {
	tile := NewMemoryImage(PixelFormatRGB24, Size{2, 1})
	ts := tile.CreateSurface(nil)
	ts.FillRect(Pack(Red, PixelFormatRGB24), Rect{X: 0, Y: 0, W: 1, H: 1})
	ts.FillRect(Pack(Blue, PixelFormatRGB24), Rect{X: 1, Y: 0, W: 1, H: 1})

	img, s := newCanvas(8, 2)
	draw(t, s, &FilledRectObject{Brush: TextureBrush(ImageBrush{Image: tile}), Rect: SizeRect(Size{8, 2})})
	for y := 0; y < 2; y++ {
		for x := 0; x < 8; x++ {
			want := Red
			if x%2 == 1 {
				want = Blue
			}
			if got := colorAt(img, x, y); got != want {
				t.Fatalf("pixel %d,%d = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRectOutline(t *testing.T) {
	img, s := newCanvas(10, 10)
	draw(t, s, &RectObject{Pen: SolidPen(Red), Rect: Rect{X: 1, Y: 1, W: 6, H: 5}})
	if got := countColor(img, Red); got != 18 {
		t.Fatalf("red pixels = %d, want 18", got)
	}
	for _, pt := range []Point{{1, 1}, {6, 1}, {6, 5}, {1, 5}} {
		if got := colorAt(img, int(pt.X), int(pt.Y)); got != Red {
			t.Fatalf("corner %v = %v, want %v", pt, got, Red)
		}
	}
	if got := colorAt(img, 3, 3); got == Red {
		t.Fatalf("inside of outline painted")
	}
}

func TestDiagonalLine(t *testing.T) {
	img, s := newCanvas(10, 10)
	draw(t, s, &LineObject{Pen: SolidPen(Red), P1: Point{5, 5}, P2: Point{0, 0}})
	if got := countColor(img, Red); got != 6 {
		t.Fatalf("red pixels = %d, want 6", got)
	}
	for i := 0; i <= 5; i++ {
		if got := colorAt(img, i, i); got != Red {
			t.Fatalf("pixel %d,%d = %v, want %v", i, i, got, Red)
		}
	}
}

func TestShallowLineHasOnePixelPerColumn(t *testing.T) {
	img, s := newCanvas(12, 6)
	draw(t, s, &LineObject{Pen: SolidPen(Red), P1: Point{0, 0}, P2: Point{9, 3}})
	if got := countColor(img, Red); got != 10 {
		t.Fatalf("red pixels = %d, want 10", got)
	}
	for x := 0; x <= 9; x++ {
		n := 0
		for y := 0; y < 6; y++ {
			if colorAt(img, x, y) == Red {
				n++
			}
		}
		if n != 1 {
			t.Fatalf("column %d has %d pixels, want 1", x, n)
		}
	}
	if colorAt(img, 0, 0) != Red || colorAt(img, 9, 3) != Red {
		t.Fatalf("line does not reach both end points")
	}
}

func TestSteepLineHasOnePixelPerRow(t *testing.T) {
	img, s := newCanvas(6, 12)
	draw(t, s, &LineObject{Pen: SolidPen(Red), P1: Point{4, 0}, P2: Point{1, 9}})
	for y := 0; y <= 9; y++ {
		n := 0
		for x := 0; x < 6; x++ {
			if colorAt(img, x, y) == Red {
				n++
			}
		}
		if n != 1 {
			t.Fatalf("row %d has %d pixels, want 1", y, n)
		}
	}
	if colorAt(img, 4, 0) != Red || colorAt(img, 1, 9) != Red {
		t.Fatalf("line does not reach both end points")
	}
}

func TestGfxLineRenderer(t *testing.T) {
	img, s := newCanvas(8, 8)
	r := NewGfxLineRenderer(LocationFor(SizeRect(s.Size())), SolidPen(Red), Point{0, 7}, Point{7, 0})
	if !r.Execute(s) {
		t.Fatalf("Execute() = false, want true")
	}
	if got := countColor(img, Red); got != 8 {
		t.Fatalf("red pixels = %d, want 8", got)
	}
}

func TestPolylineConnected(t *testing.T) {
	img, s := newCanvas(10, 10)
	draw(t, s, &PolylineObject{Pen: SolidPen(Red), Connected: true, Points: []Point{{0, 0}, {4, 0}, {4, 4}}})
	if got := countColor(img, Red); got != 9 {
		t.Fatalf("red pixels = %d, want 9", got)
	}
}

func symmetric(t *testing.T, img *MemoryImage, c Color, cx, cy int) {
	t.Helper()
	for y := 0; y < int(img.Size().H); y++ {
		for x := 0; x < int(img.Size().W); x++ {
			if colorAt(img, x, y) != c {
				continue
			}
			mx, my := 2*cx-x, 2*cy-y
			if colorAt(img, mx, y) != c || colorAt(img, x, my) != c {
				t.Fatalf("pixel %d,%d has no mirror about %d,%d", x, y, cx, cy)
			}
		}
	}
}

func TestCircleOutline(t *testing.T) {
	img, s := newCanvas(21, 21)
	draw(t, s, &CircleObject{Pen: SolidPen(Red), Centre: Point{10, 10}, Radius: 5})
	for _, pt := range []Point{{10, 5}, {10, 15}, {5, 10}, {15, 10}} {
		if got := colorAt(img, int(pt.X), int(pt.Y)); got != Red {
			t.Fatalf("pixel %v = %v, want %v", pt, got, Red)
		}
	}
	if got := colorAt(img, 10, 10); got == Red {
		t.Fatalf("centre painted")
	}
	symmetric(t, img, Red, 10, 10)
}

func TestFilledCircle(t *testing.T) {
	img, s := newCanvas(21, 21)
	draw(t, s, &FilledCircleObject{Brush: SolidBrush(Red), Centre: Point{10, 10}, Radius: 5})
	for _, pt := range []Point{{10, 10}, {10, 5}, {10, 15}, {5, 10}, {15, 10}, {12, 12}} {
		if got := colorAt(img, int(pt.X), int(pt.Y)); got != Red {
			t.Fatalf("pixel %v = %v, want %v", pt, got, Red)
		}
	}
	for _, pt := range []Point{{15, 15}, {14, 14}, {4, 10}, {10, 16}} {
		if got := colorAt(img, int(pt.X), int(pt.Y)); got == Red {
			t.Fatalf("pixel %v painted, want it outside the circle", pt)
		}
	}
	symmetric(t, img, Red, 10, 10)
}

func TestFilledEllipse(t *testing.T) {
	img, s := newCanvas(20, 14)
	draw(t, s, &FilledEllipseObject{Brush: SolidBrush(Red), Rect: Rect{X: 2, Y: 2, W: 16, H: 10}})
	if got := colorAt(img, 10, 7); got != Red {
		t.Fatalf("centre = %v, want %v", got, Red)
	}
	for _, pt := range []Point{{2, 2}, {17, 2}, {2, 11}, {17, 11}, {0, 7}, {19, 7}} {
		if got := colorAt(img, int(pt.X), int(pt.Y)); got == Red {
			t.Fatalf("pixel %v painted, want it outside the ellipse", pt)
		}
	}
	for y := 0; y < 14; y++ {
		for x := 0; x < 20; x++ {
			if colorAt(img, x, y) == Red && !(Rect{X: 2, Y: 2, W: 16, H: 10}).Contains(Point{int16(x), int16(y)}) {
				t.Fatalf("pixel %d,%d painted outside the bounding rectangle", x, y)
			}
		}
	}
}

func TestEllipseOutlineLeavesCentre(t *testing.T) {
	img, s := newCanvas(20, 14)
	draw(t, s, &EllipseObject{Pen: SolidPen(Red), Rect: Rect{X: 2, Y: 2, W: 16, H: 10}})
	if got := colorAt(img, 10, 7); got == Red {
		t.Fatalf("centre painted")
	}
	if countColor(img, Red) == 0 {
		t.Fatalf("no pixels painted")
	}
}

func TestFilledArcQuadrant(t *testing.T) {
	img, s := newCanvas(21, 21)
	draw(t, s, &FilledArcObject{Brush: SolidBrush(Red), Rect: Rect{X: 0, Y: 0, W: 21, H: 21}, StartAngle: 0, EndAngle: 90})
	if got := colorAt(img, 15, 5); got != Red {
		t.Fatalf("pixel in the arc = %v, want %v", got, Red)
	}
	for _, pt := range []Point{{5, 5}, {5, 15}, {15, 15}} {
		if got := colorAt(img, int(pt.X), int(pt.Y)); got == Red {
			t.Fatalf("pixel %v painted, want it outside the arc", pt)
		}
	}
}

func TestArcWithEqualAnglesDrawsNothing(t *testing.T) {
	img, s := newCanvas(21, 21)
	draw(t, s, &ArcObject{Pen: SolidPen(Red), Rect: Rect{X: 0, Y: 0, W: 21, H: 21}, StartAngle: 45, EndAngle: 45})
	if got := countColor(img, Red); got != 0 {
		t.Fatalf("red pixels = %d, want 0", got)
	}
}

func TestNormaliseAngle(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 0}, {90, 90}, {360, 0}, {-90, 270}, {450, 90}, {-720, 0},
	}
	for _, tt := range tests {
		if got := NormaliseAngle(tt.in); got != tt.want {
			t.Fatalf("NormaliseAngle(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRoundedRectSkipsCorners(t *testing.T) {
	img, s := newCanvas(20, 20)
	draw(t, s, &FilledRectObject{Brush: SolidBrush(Red), Rect: Rect{X: 0, Y: 0, W: 20, H: 20}, Radius: 5})
	if got := colorAt(img, 0, 0); got == Red {
		t.Fatalf("corner painted")
	}
	for _, pt := range []Point{{10, 10}, {10, 0}, {0, 10}, {19, 10}, {10, 19}} {
		if got := colorAt(img, int(pt.X), int(pt.Y)); got != Red {
			t.Fatalf("pixel %v = %v, want %v", pt, got, Red)
		}
	}
}

func textPixels(t *testing.T, text string) int {
	t.Helper()
	img, s := newCanvas(64, 16)
	draw(t, s, &TextObject{Font: &proggy.TinySZ8pt7b, Brush: SolidBrush(White), Pos: Point{2, 12}, Text: text})
	return countColor(img, White)
}

func TestTextRenderer(t *testing.T) {
	if got := textPixels(t, " "); got != 0 {
		t.Fatalf("space painted %d pixels, want 0", got)
	}
	one := textPixels(t, "I")
	if one == 0 {
		t.Fatalf("glyph painted no pixels")
	}
	if got := textPixels(t, "II"); got != 2*one {
		t.Fatalf("two glyphs painted %d pixels, want %d", got, 2*one)
	}
}

func TestTextBackground(t *testing.T) {
	img, s := newCanvas(64, 16)
	draw(t, s, &TextObject{
		Font:  &proggy.TinySZ8pt7b,
		Brush: SolidBrush(White),
		Back:  SolidBrush(Blue),
		Pos:   Point{2, 12},
		Text:  "ab",
	})
	if countColor(img, Blue) == 0 || countColor(img, White) == 0 {
		t.Fatalf("text cell background or glyph missing")
	}
	w := TextWidth(&proggy.TinySZ8pt7b, "ab")
	if w == 0 {
		t.Fatalf("TextWidth() = 0, want the advance of two glyphs")
	}
	if got := colorAt(img, 63, 8); got == Blue {
		t.Fatalf("background extends past the text")
	}
}

func patternCanvas(w, h uint16) (*MemoryImage, *ImageSurface) {
	img, s := newCanvas(w, h)
	for y := 0; y < int(h); y++ {
		for x := 0; x < int(w); x++ {
			s.FillRect(Pack(RGB(uint8(x*16), uint8(y*16), 0x80), s.PixelFormat()), Rect{X: int16(x), Y: int16(y), W: 1, H: 1})
		}
	}
	return img, s
}

func TestCopyOverlapping(t *testing.T) {
	tests := []struct {
		name string
		src  Rect
		dst  Point
	}{
		{"right", Rect{X: 0, Y: 0, W: 4, H: 4}, Point{2, 0}},
		{"left", Rect{X: 3, Y: 1, W: 4, H: 4}, Point{1, 1}},
		{"down", Rect{X: 1, Y: 0, W: 5, H: 4}, Point{1, 1}},
		{"up", Rect{X: 1, Y: 3, W: 5, H: 4}, Point{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig, _ := patternCanvas(8, 8)
			img, s := patternCanvas(8, 8)
			draw(t, s, &CopyObject{Source: tt.src, Dest: tt.dst})
			for y := 0; y < int(tt.src.H); y++ {
				for x := 0; x < int(tt.src.W); x++ {
					want := colorAt(orig, int(tt.src.X)+x, int(tt.src.Y)+y)
					got := colorAt(img, int(tt.dst.X)+x, int(tt.dst.Y)+y)
					if got != want {
						t.Fatalf("pixel %d,%d = %v, want %v", x, y, got, want)
					}
				}
			}
		})
	}
}

func TestScrollUpWithFill(t *testing.T) {
	orig, _ := patternCanvas(8, 8)
	img, s := patternCanvas(8, 8)
	area := Rect{X: 2, Y: 2, W: 4, H: 4}
	draw(t, s, &ScrollObject{Area: area, Shift: Point{0, -1}, Fill: Blue})
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := Blue
			if y < 3 {
				want = colorAt(orig, 2+x, 2+y+1)
			}
			if got := colorAt(img, 2+x, 2+y); got != want {
				t.Fatalf("pixel %d,%d = %v, want %v", x, y, got, want)
			}
		}
	}
	if got, want := colorAt(img, 1, 2), colorAt(orig, 1, 2); got != want {
		t.Fatalf("pixel outside the area changed: %v, want %v", got, want)
	}
}

func TestScrollWrapsRows(t *testing.T) {
	orig, _ := patternCanvas(6, 6)
	img, s := patternCanvas(6, 6)
	draw(t, s, &ScrollObject{Area: SizeRect(Size{6, 6}), Shift: Point{0, 2}, WrapY: true})
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			want := colorAt(orig, x, (y+4)%6)
			if got := colorAt(img, x, y); got != want {
				t.Fatalf("pixel %d,%d = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestImageRenderer(t *testing.T) {
	src, _ := patternCanvas(3, 2)
	img, s := newCanvas(8, 8)
	if !RenderNow(s, src, Rect{X: 4, Y: 5, W: 8, H: 8}) {
		t.Fatalf("RenderNow() = false, want true")
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			if got, want := colorAt(img, 4+x, 5+y), colorAt(src, x, y); got != want {
				t.Fatalf("pixel %d,%d = %v, want %v", x, y, got, want)
			}
		}
	}
	if got := colorAt(img, 3, 5); got != Black {
		t.Fatalf("pixel left of the image = %v, want black", got)
	}
}

func TestSurfaceObjectCopiesIntoTarget(t *testing.T) {
	src, s := patternCanvas(8, 8)
	dst := NewMemoryImage(PixelFormatRGB565, Size{4, 4})
	obj := &SurfaceObject{Surface: dst.CreateSurface(nil), Dest: Rect{X: 0, Y: 0, W: 4, H: 4}, Source: Point{2, 3}}
	draw(t, s, obj)

	want := make([]byte, 4*2)
	for y := 0; y < 4; y++ {
		row := src.Data()[((3+y)*8+2)*3:]
		Convert(row, PixelFormatRGB24, want, PixelFormatRGB565, 4)
		if got := dst.Data()[y*8 : y*8+8]; !bytes.Equal(got, want) {
			t.Fatalf("row %d = % x, want % x", y, got, want)
		}
	}
}

func TestBlendXorReference(t *testing.T) {
	img, s := newCanvas(8, 8)
	Clear(s, Red)
	draw(t, s, &ReferenceObject{
		Object: &FilledRectObject{Brush: SolidBrush(Blue), Rect: SizeRect(Size{4, 4})},
		Pos:    Rect{X: 2, Y: 2, W: 4, H: 4},
		Blend:  BlendXor{},
	})
	if got := countColor(img, Magenta); got != 16 {
		t.Fatalf("magenta pixels = %d, want 16", got)
	}
	if got := colorAt(img, 2, 2); got != Magenta {
		t.Fatalf("pixel 2,2 = %v, want %v", got, Magenta)
	}
	if got := colorAt(img, 6, 6); got != Red {
		t.Fatalf("pixel 6,6 = %v, want %v", got, Red)
	}
}

func TestBlendedImageReference(t *testing.T) {
	img, s := newCanvas(8, 8)
	Clear(s, Red)
	overlay := NewMemoryImage(PixelFormatRGB24, Size{2, 2})
	Clear(overlay.CreateSurface(nil), Blue)
	draw(t, s, &ReferenceObject{Object: overlay, Pos: Rect{X: 1, Y: 1, W: 2, H: 2}, Blend: BlendXor{}})
	if got := countColor(img, Magenta); got != 4 {
		t.Fatalf("magenta pixels = %d, want 4", got)
	}
	if got := colorAt(img, 1, 1); got != Magenta {
		t.Fatalf("pixel 1,1 = %v, want %v", got, Magenta)
	}
}

func TestSceneDrawsInOrder(t *testing.T) {
	img, s := newCanvas(10, 10)
	scene := NewScene(Size{10, 10}, "order")
	scene.Clear(Black)
	scene.FillRect(SolidBrush(Red), Rect{X: 0, Y: 0, W: 6, H: 6})
	scene.FillRect(SolidBrush(Blue), Rect{X: 3, Y: 3, W: 6, H: 6})
	draw(t, s, scene)
	if got := colorAt(img, 4, 4); got != Blue {
		t.Fatalf("overlap = %v, want %v", got, Blue)
	}
	if got := colorAt(img, 1, 1); got != Red {
		t.Fatalf("pixel 1,1 = %v, want %v", got, Red)
	}
	if got := colorAt(img, 9, 0); got != Black {
		t.Fatalf("pixel 9,0 = %v, want %v", got, Black)
	}
}

func TestMultiRendererReportsEachObject(t *testing.T) {
	_, s := newCanvas(10, 10)
	objs := []Object{
		&FilledRectObject{Brush: SolidBrush(Red), Rect: Rect{W: 2, H: 2}},
		&LineObject{Pen: SolidPen(Blue), P1: Point{0, 0}, P2: Point{9, 9}},
	}
	i := 0
	var done []Object
	m := &MultiRenderer{
		Location: LocationFor(SizeRect(s.Size())),
		Next: func() Object {
			if i == len(objs) {
				return nil
			}
			i++
			return objs[i-1]
		},
		Done: func(obj Object) { done = append(done, obj) },
	}
	if !m.Execute(s) {
		t.Fatalf("Execute() = false, want true")
	}
	if len(done) != 2 || done[0] != objs[0] || done[1] != objs[1] {
		t.Fatalf("done = %v, want both objects in order", done)
	}
}
