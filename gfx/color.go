package gfx

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a 32-bit ARGB value.
type Color uint32

const (
	Black       Color = 0xff000000
	Navy        Color = 0xff000080
	DarkGreen   Color = 0xff008000
	DarkCyan    Color = 0xff008080
	Maroon      Color = 0xff800000
	Purple      Color = 0xff800080
	Olive       Color = 0xff808000
	LightGrey   Color = 0xffc0c0c0
	DarkGrey    Color = 0xff808080
	Blue        Color = 0xff0000ff
	Green       Color = 0xff00ff00
	Cyan        Color = 0xff00ffff
	Red         Color = 0xffff0000
	Magenta     Color = 0xffff00ff
	Yellow      Color = 0xffffff00
	White       Color = 0xffffffff
	Orange      Color = 0xffffa500
	GreenYellow Color = 0xffadff2f
	Pink        Color = 0xffffc0cb
)

var colorNames = []struct {
	name  string
	color Color
}{
	{"black", Black},
	{"navy", Navy},
	{"darkgreen", DarkGreen},
	{"darkcyan", DarkCyan},
	{"maroon", Maroon},
	{"purple", Purple},
	{"olive", Olive},
	{"lightgrey", LightGrey},
	{"darkgrey", DarkGrey},
	{"blue", Blue},
	{"green", Green},
	{"cyan", Cyan},
	{"red", Red},
	{"magenta", Magenta},
	{"yellow", Yellow},
	{"white", White},
	{"orange", Orange},
	{"greenyellow", GreenYellow},
	{"pink", Pink},
}

var errBadColor = errors.New("gfx: invalid colour")

func RGB(r, g, b uint8) Color { return RGBA(r, g, b, 255) }

func RGBA(r, g, b, a uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }
func (c Color) A() uint8 { return uint8(c >> 24) }

func (c Color) WithAlpha(a uint8) Color { return c&0x00ffffff | Color(a)<<24 }

// RGBA implements image/color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R(), G: c.G(), B: c.B(), A: c.A()}.RGBA()
}

// NRGBA returns the colour as a non-premultiplied image/color value.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R(), G: c.G(), B: c.B(), A: c.A()}
}

// ColorOf converts any image/color value.
func ColorOf(c color.Color) Color {
	if v, ok := c.(Color); ok {
		return v
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA(n.R, n.G, n.B, n.A)
}

func (c Color) String() string {
	for _, n := range colorNames {
		if n.color == c {
			return n.name
		}
	}
	if c.A() == 255 {
		return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
	}
	return fmt.Sprintf("#%08x", uint32(c))
}

// ParseColor accepts "#rrggbb", "#aarrggbb" or a colour name.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) == 0 || len(hex) > 8 {
			return 0, fmt.Errorf("%w: %q", errBadColor, s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errBadColor, s)
		}
		if len(hex) <= 6 {
			v |= 0xff000000
		}
		return Color(v), nil
	}
	for _, n := range colorNames {
		if strings.EqualFold(n.name, s) {
			return n.color, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", errBadColor, s)
}
