package gfx

// BrushKind says where a brush takes its colour from.
type BrushKind uint8

const (
	BrushNone BrushKind = iota
	BrushColor
	BrushPacked
	BrushTexture
)

func (k BrushKind) String() string {
	switch k {
	case BrushColor:
		return "Color"
	case BrushPacked:
		return "PackedColor"
	case BrushTexture:
		return "Texture"
	}
	return "None"
}

// Texture supplies pixels for a brush. loc.Dest is the area being filled,
// loc.Source the object's own area and loc.Pos the first pixel wanted,
// relative to both. Pixels run left to right and wrap at loc.Dest.W.
type Texture interface {
	ReadPixels(loc Location, f PixelFormat, dst []byte, count int) int
}

// Brush is the source of colour for filling.
type Brush struct {
	kind    BrushKind
	color   Color
	packed  PackedColor
	texture Texture
}

func SolidBrush(c Color) Brush { return Brush{kind: BrushColor, color: c} }

// PackedBrush uses a colour already in the target's pixel format.
func PackedBrush(c PackedColor) Brush { return Brush{kind: BrushPacked, packed: c} }

func TextureBrush(t Texture) Brush {
	if t == nil {
		return Brush{}
	}
	return Brush{kind: BrushTexture, texture: t}
}

func (b Brush) Kind() BrushKind { return b.kind }
func (b Brush) IsNone() bool    { return b.kind == BrushNone }
func (b Brush) IsSolid() bool   { return b.kind == BrushColor || b.kind == BrushPacked }

func (b Brush) IsTransparent() bool {
	switch b.kind {
	case BrushColor:
		return b.color.A() < 255
	case BrushPacked:
		return b.packed.Alpha < 255
	}
	return false
}

// Color returns the brush colour. Textures report yellow.
func (b Brush) Color() Color {
	switch b.kind {
	case BrushColor:
		return b.color
	case BrushTexture:
		return Yellow
	}
	return Red
}

// PackedColor returns the solid colour in format f.
func (b Brush) PackedColor(f PixelFormat) PackedColor {
	switch b.kind {
	case BrushColor:
		return Pack(b.color, f)
	case BrushPacked:
		return b.packed
	case BrushTexture:
		return Pack(Yellow, f)
	}
	return Pack(Red, f)
}

// WritePixels fills dst with count pixels and returns the bytes written.
func (b Brush) WritePixels(loc Location, f PixelFormat, dst []byte, count int) int {
	switch b.kind {
	case BrushTexture:
		return b.texture.ReadPixels(loc, f, dst, count)
	case BrushNone:
		return 0
	}
	return WriteColorN(dst, b.PackedColor(f), f, count)
}

// Pen is a brush with a line width.
type Pen struct {
	Brush
	Width uint16
}

func NewPen(b Brush, width uint16) Pen { return Pen{Brush: b, Width: width} }

// SolidPen returns a one-pixel pen of colour c.
func SolidPen(c Color) Pen { return Pen{Brush: SolidBrush(c), Width: 1} }

// LineWidth is Width, treating zero as one.
func (p Pen) LineWidth() uint16 {
	if p.Width == 0 {
		return 1
	}
	return p.Width
}

// GradientBrush fades vertically from Color1 at the top of the object to
// Color2 at the bottom.
type GradientBrush struct {
	Color1, Color2 Color
}

func (g GradientBrush) ReadPixels(loc Location, f PixelFormat, dst []byte, count int) int {
	h := int(loc.Source.H)
	if h == 0 {
		h = int(loc.Dest.H)
	}
	h = max(h, 1)
	w := max(int(loc.Dest.W), 1)
	c1, c2 := g.Color1, g.Color2
	pos := loc.Pos
	off := 0
	for count > 0 && off < len(dst) {
		y := int(pos.Y)
		mix := func(a, b uint8) uint8 { return uint8(int(a) + y*(int(b)-int(a))/h) }
		c := RGBA(mix(c1.R(), c2.R()), mix(c1.G(), c2.G()), mix(c1.B(), c2.B()), mix(c1.A(), c2.A()))
		n := w - int(pos.X)
		if n <= 0 {
			n = count
		}
		n = min(n, count)
		off += WriteColorN(dst[off:], Pack(c, f), f, n)
		count -= n
		pos.X = 0
		pos.Y++
	}
	return off
}

// ImageBrush tiles an image. SourceLocal anchors the tiling to the object
// rather than to the surface.
type ImageBrush struct {
	Image       ImageObject
	SourceLocal bool
}

func (ib ImageBrush) ReadPixels(loc Location, f PixelFormat, dst []byte, count int) int {
	size := ib.Image.Size()
	if size.W == 0 || size.H == 0 {
		return 0
	}
	origin := loc.Dest.TopLeft()
	if ib.SourceLocal {
		origin = loc.Source.TopLeft()
	}
	w := max(int(loc.Dest.W), 1)
	col, row := int(loc.Pos.X), int(loc.Pos.Y)
	src := Location{Source: SizeRect(size)}
	off := 0
	for count > 0 && off < len(dst) {
		if col >= w {
			col = 0
			row++
		}
		px := wrap(int(origin.X)+col, int(size.W))
		py := wrap(int(origin.Y)+row, int(size.H))
		n := min(count, int(size.W)-px, w-col)
		src.Pos = Point{int16(px), int16(py)}
		got := ib.Image.ReadPixels(src, f, dst[off:], n)
		if got == 0 {
			break
		}
		off += got
		count -= n
		col += n
	}
	return off
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
