package gfx

import "math/bits"

// PixelFormat encodes bytes-per-pixel minus one in the low two bits.
type PixelFormat uint8

const (
	PixelFormatNone   PixelFormat = 0x00
	PixelFormatRGB24  PixelFormat = 0x32
	PixelFormatBGRA32 PixelFormat = 0x43
	PixelFormatBGR24  PixelFormat = 0xb2
	PixelFormatRGB565 PixelFormat = 0x21
)

// ReadPixelSize is the worst-case bytes per pixel for device reads, which
// return 24-bit colour regardless of the write format.
const ReadPixelSize = 3

func (f PixelFormat) BytesPerPixel() int { return int(f&0x03) + 1 }

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatNone:
		return "None"
	case PixelFormatRGB24:
		return "RGB24"
	case PixelFormatBGRA32:
		return "BGRA32"
	case PixelFormatBGR24:
		return "BGR24"
	case PixelFormatRGB565:
		return "RGB565"
	}
	return "Unknown"
}

// PackedColor is a colour in the native byte layout of a pixel format.
// Writing Value little-endian for BytesPerPixel bytes yields the pixel.
type PackedColor struct {
	Value uint32
	Alpha uint8
}

func (p PackedColor) IsTransparent() bool { return p.Alpha < 255 }

// Pack converts c into the layout of f.
func Pack(c Color, f PixelFormat) PackedColor {
	p := PackedColor{Alpha: c.A()}
	switch f {
	case PixelFormatRGB565:
		v := uint16(c.R()>>3)<<11 | uint16(c.G()>>2)<<5 | uint16(c.B()>>3)
		p.Value = uint32(bits.ReverseBytes16(v))
	case PixelFormatRGB24:
		p.Value = uint32(c.B())<<16 | uint32(c.G())<<8 | uint32(c.R())
	case PixelFormatBGR24:
		p.Value = uint32(c) & 0x00ffffff
	default:
		p.Value = uint32(c)
	}
	return p
}

// Unpack reverses Pack. The alpha channel is taken from p.Alpha.
func Unpack(p PackedColor, f PixelFormat) Color {
	var r, g, b uint8
	switch f {
	case PixelFormatRGB565:
		v := bits.ReverseBytes16(uint16(p.Value))
		r = uint8(uint32(v>>11&0x1f) * 255 / 31)
		g = uint8(uint32(v>>5&0x3f) * 255 / 63)
		b = uint8(uint32(v&0x1f) * 255 / 31)
	case PixelFormatRGB24:
		r, g, b = uint8(p.Value), uint8(p.Value>>8), uint8(p.Value>>16)
	default:
		b, g, r = uint8(p.Value), uint8(p.Value>>8), uint8(p.Value>>16)
	}
	return RGBA(r, g, b, p.Alpha)
}

// ReadPacked loads one pixel from src. Alpha is 255 except for BGRA32.
func ReadPacked(src []byte, f PixelFormat) PackedColor {
	p := PackedColor{Alpha: 255}
	n := f.BytesPerPixel()
	for i := 0; i < n && i < len(src); i++ {
		p.Value |= uint32(src[i]) << (8 * i)
	}
	if f == PixelFormatBGRA32 {
		p.Alpha = uint8(p.Value >> 24)
	}
	return p
}

// ReadColor loads one pixel from src as a Color.
func ReadColor(src []byte, f PixelFormat) Color {
	return Unpack(ReadPacked(src, f), f)
}

// WriteColor stores one pixel and returns the number of bytes written.
func WriteColor(dst []byte, c PackedColor, f PixelFormat) int {
	n := f.BytesPerPixel()
	if len(dst) < n {
		return 0
	}
	for i := 0; i < n; i++ {
		dst[i] = byte(c.Value >> (8 * i))
	}
	return n
}

// WriteColorN stores count copies of c and returns the bytes written.
func WriteColorN(dst []byte, c PackedColor, f PixelFormat, count int) int {
	n := f.BytesPerPixel()
	if count*n > len(dst) {
		count = len(dst) / n
	}
	if count <= 0 {
		return 0
	}
	WriteColor(dst, c, f)
	// Doubling copy.
	for done := n; done < count*n; done *= 2 {
		copy(dst[done:count*n], dst[:done])
	}
	return count * n
}

// Convert translates numPixels from srcFormat to dstFormat and returns the
// number of bytes written to dst.
func Convert(src []byte, srcFormat PixelFormat, dst []byte, dstFormat PixelFormat, numPixels int) int {
	sn := srcFormat.BytesPerPixel()
	dn := dstFormat.BytesPerPixel()
	numPixels = min(numPixels, len(src)/sn, len(dst)/dn)
	if srcFormat == dstFormat {
		return copy(dst, src[:numPixels*sn])
	}
	off := 0
	for i := 0; i < numPixels; i++ {
		c := ReadColor(src[i*sn:], srcFormat)
		off += WriteColor(dst[off:], Pack(c, dstFormat), dstFormat)
	}
	return off
}

// ConvertInPlace rewrites numPixels at the start of buf from srcFormat to
// dstFormat and returns the converted length. buf must have room for the
// wider of the two.
func ConvertInPlace(buf []byte, srcFormat, dstFormat PixelFormat, numPixels int) int {
	sn := srcFormat.BytesPerPixel()
	dn := dstFormat.BytesPerPixel()
	if dn <= sn {
		return Convert(buf, srcFormat, buf, dstFormat, numPixels)
	}
	numPixels = min(numPixels, len(buf)/dn)
	// Expanding has to run backwards.
	for i := numPixels - 1; i >= 0; i-- {
		c := ReadColor(buf[i*sn:], srcFormat)
		WriteColor(buf[i*dn:], Pack(c, dstFormat), dstFormat)
	}
	return numPixels * dn
}
