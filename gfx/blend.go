package gfx

import "math/bits"

// BlendMode identifies how source pixels combine with what is already on
// the surface.
type BlendMode uint8

const (
	BlendModeWrite BlendMode = iota
	BlendModeXor
	BlendModeXNor
	BlendModeMask
	BlendModeTransparent
	BlendModeAlpha
)

func (m BlendMode) String() string {
	switch m {
	case BlendModeWrite:
		return "Write"
	case BlendModeXor:
		return "Xor"
	case BlendModeXNor:
		return "XNor"
	case BlendModeMask:
		return "Mask"
	case BlendModeTransparent:
		return "Transparent"
	case BlendModeAlpha:
		return "Alpha"
	}
	return "Unknown"
}

// Blender combines pixels in place. dst is always a whole number of pixels.
type Blender interface {
	Mode() BlendMode
	// TransformColor combines a single colour into every pixel of dst.
	TransformColor(f PixelFormat, src PackedColor, dst []byte)
	// Transform combines src into dst pixel by pixel.
	Transform(f PixelFormat, src, dst []byte)
}

type BlendWrite struct{}

func (BlendWrite) Mode() BlendMode { return BlendModeWrite }

func (BlendWrite) TransformColor(f PixelFormat, src PackedColor, dst []byte) {
	WriteColorN(dst, src, f, len(dst)/f.BytesPerPixel())
}

func (BlendWrite) Transform(_ PixelFormat, src, dst []byte) { copy(dst, src) }

type BlendXor struct{}

func (BlendXor) Mode() BlendMode { return BlendModeXor }

func (BlendXor) TransformColor(f PixelFormat, src PackedColor, dst []byte) {
	eachPixelByte(f, src, dst, func(d *byte, s byte) { *d ^= s })
}

func (BlendXor) Transform(_ PixelFormat, src, dst []byte) {
	for i := 0; i < len(dst) && i < len(src); i++ {
		dst[i] ^= src[i]
	}
}

type BlendXNor struct{}

func (BlendXNor) Mode() BlendMode { return BlendModeXNor }

func (BlendXNor) TransformColor(f PixelFormat, src PackedColor, dst []byte) {
	src.Value = ^src.Value
	BlendXor{}.TransformColor(f, src, dst)
}

func (BlendXNor) Transform(_ PixelFormat, src, dst []byte) {
	for i := 0; i < len(dst) && i < len(src); i++ {
		dst[i] ^= ^src[i]
	}
}

type BlendMask struct{}

func (BlendMask) Mode() BlendMode { return BlendModeMask }

func (BlendMask) TransformColor(f PixelFormat, src PackedColor, dst []byte) {
	eachPixelByte(f, src, dst, func(d *byte, s byte) { *d &= s })
}

func (BlendMask) Transform(_ PixelFormat, src, dst []byte) {
	for i := 0; i < len(dst) && i < len(src); i++ {
		dst[i] &= src[i]
	}
}

// BlendTransparent copies source pixels no brighter than Key, so everything
// brighter than the key shows the existing content.
type BlendTransparent struct {
	Key Color
}

func (BlendTransparent) Mode() BlendMode { return BlendModeTransparent }

func (b BlendTransparent) TransformColor(f PixelFormat, src PackedColor, dst []byte) {
	n := f.BytesPerPixel()
	var px [4]byte
	WriteColor(px[:], src, f)
	for off := 0; off+n <= len(dst); off += n {
		b.Transform(f, px[:n], dst[off:off+n])
	}
}

func (b BlendTransparent) Transform(f PixelFormat, src, dst []byte) {
	n := f.BytesPerPixel()
	if f == PixelFormatNone {
		return
	}
	kr, kg, kb := b.Key.R(), b.Key.G(), b.Key.B()
	for off := 0; off+n <= len(dst) && off+n <= len(src); off += n {
		c := ReadColor(src[off:], f)
		var keep bool
		if f == PixelFormatRGB565 {
			keep = int(c.R())+int(c.G())+int(c.B()) <= int(kr)+int(kg)+int(kb)
		} else {
			keep = c.R() <= kr && c.G() <= kg && c.B() <= kb
		}
		if keep {
			copy(dst[off:off+n], src[off:off+n])
		}
	}
}

// BlendAlpha mixes using the source alpha. Transform uses Alpha for the
// whole source block.
type BlendAlpha struct {
	Alpha uint8
}

func (BlendAlpha) Mode() BlendMode { return BlendModeAlpha }

func (BlendAlpha) TransformColor(f PixelFormat, src PackedColor, dst []byte) {
	BlendColor(f, src, dst)
}

func (b BlendAlpha) Transform(f PixelFormat, src, dst []byte) {
	BlendPixels(f, src, dst, b.Alpha)
}

func eachPixelByte(f PixelFormat, src PackedColor, dst []byte, op func(d *byte, s byte)) {
	n := f.BytesPerPixel()
	var px [4]byte
	WriteColor(px[:], src, f)
	for off := 0; off < len(dst); off++ {
		op(&dst[off], px[off%n])
	}
}

const rgb565Mask = 0x07e0f81f

// BlendRGB565 mixes two native-order RGB565 values using 5-bit alpha.
func BlendRGB565(src, dst uint16, alpha uint8) uint16 {
	a := (uint32(alpha) + 4) >> 3
	bg := (uint32(dst) | uint32(dst)<<16) & rgb565Mask
	fg := (uint32(src) | uint32(src)<<16) & rgb565Mask
	res := (fg - bg) * a
	res >>= 5
	res += bg
	res &= rgb565Mask
	return uint16(res>>16 | res)
}

// BlendChannel mixes one 8-bit channel.
func BlendChannel(fg, bg, alpha uint8) uint8 {
	total := uint32(alpha)*uint32(fg) + uint32(255-alpha)*uint32(bg)
	return uint8(total / 255)
}

// BlendPacked mixes src over dst, both in format f.
func BlendPacked(f PixelFormat, src, dst PackedColor) PackedColor {
	if src.Alpha == 0 {
		return dst
	}
	if src.Alpha == 255 {
		return src
	}
	switch f {
	case PixelFormatRGB565:
		s := bits.ReverseBytes16(uint16(src.Value))
		d := bits.ReverseBytes16(uint16(dst.Value))
		dst.Value = uint32(bits.ReverseBytes16(BlendRGB565(s, d, src.Alpha)))
		return dst
	default:
		fg := Unpack(src, f)
		bg := Unpack(dst, f)
		c := RGBA(
			BlendChannel(fg.R(), bg.R(), src.Alpha),
			BlendChannel(fg.G(), bg.G(), src.Alpha),
			BlendChannel(fg.B(), bg.B(), src.Alpha),
			dst.Alpha,
		)
		return Pack(c, f)
	}
}

// BlendColor mixes a single packed colour into every pixel of dst.
func BlendColor(f PixelFormat, src PackedColor, dst []byte) {
	if src.Alpha == 0 {
		return
	}
	n := f.BytesPerPixel()
	if src.Alpha == 255 {
		WriteColorN(dst, src, f, len(dst)/n)
		return
	}
	switch f {
	case PixelFormatRGB565:
		s := bits.ReverseBytes16(uint16(src.Value))
		for off := 0; off+2 <= len(dst); off += 2 {
			d := uint16(dst[off])<<8 | uint16(dst[off+1])
			d = BlendRGB565(s, d, src.Alpha)
			dst[off] = byte(d >> 8)
			dst[off+1] = byte(d)
		}
	case PixelFormatRGB24:
		var px [4]byte
		WriteColor(px[:], src, f)
		for off := 0; off+3 <= len(dst); off += 3 {
			dst[off] = BlendChannel(px[0], dst[off], src.Alpha)
			dst[off+1] = BlendChannel(px[1], dst[off+1], src.Alpha)
			dst[off+2] = BlendChannel(px[2], dst[off+2], src.Alpha)
		}
	default:
		for off := 0; off+n <= len(dst); off += n {
			cur := ReadPacked(dst[off:], f)
			WriteColor(dst[off:], BlendPacked(f, src, cur), f)
		}
	}
}

// BlendPixels mixes a block of source pixels into dst with a fixed alpha.
func BlendPixels(f PixelFormat, src, dst []byte, alpha uint8) {
	if alpha == 0 {
		return
	}
	length := min(len(src), len(dst))
	if alpha == 255 {
		copy(dst, src[:length])
		return
	}
	switch f {
	case PixelFormatRGB565:
		for off := 0; off+2 <= length; off += 2 {
			s := uint16(src[off])<<8 | uint16(src[off+1])
			d := uint16(dst[off])<<8 | uint16(dst[off+1])
			d = BlendRGB565(s, d, alpha)
			dst[off] = byte(d >> 8)
			dst[off+1] = byte(d)
		}
	case PixelFormatRGB24:
		for i := 0; i < length; i++ {
			dst[i] = BlendChannel(src[i], dst[i], alpha)
		}
	default:
		n := f.BytesPerPixel()
		for off := 0; off+n <= length; off += n {
			s := ReadPacked(src[off:], f)
			s.Alpha = alpha
			d := ReadPacked(dst[off:], f)
			WriteColor(dst[off:], BlendPacked(f, s, d), f)
		}
	}
}
