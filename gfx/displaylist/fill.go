package displaylist

import (
	"encoding/binary"

	"sparkgfx/gfx"
)

// FillInfo describes a read-modify-write fill once the read has landed.
// Dst holds the current pixels of the area in Format.
type FillInfo struct {
	Dst    []byte
	Color  gfx.PackedColor
	Format gfx.PixelFormat
}

// Pixels is the number of pixels in Dst.
func (f FillInfo) Pixels() int { return len(f.Dst) / f.Format.BytesPerPixel() }

// FillCallback blends Color into Dst. It runs during playback.
type FillCallback func(info FillInfo)

// fillInfoSize is the encoded FillInfo: colour value, alpha, format and
// pixel count. The read scratch area follows it in the same parameter
// block.
const fillInfoSize = 4 + 1 + 1 + 2

// Fill queues a read of r into space reserved inside the list, a callback
// that converts the read-back pixels to format and blends color into them,
// and a write of the result back to r.
//
// Device reads always return RGB24, so formats wider than that cannot be
// filled this way.
func (l *List) Fill(r gfx.Rect, color gfx.PackedColor, format gfx.PixelFormat, cb FillCallback) bool {
	bpp := format.BytesPerPixel()
	pixels := r.Pixels()
	readLen := pixels * gfx.ReadPixelSize
	if r.Empty() || cb == nil || bpp > gfx.ReadPixelSize || fillInfoSize+readLen > MaxVar {
		return false
	}
	if !l.Require(FillSize(pixels)) {
		return false
	}
	l.internalSetAddrWindow(r)

	l.writeHeader(CodeReadStart, readLen)
	readRef := l.size
	l.size += PtrSize

	l.writeHeader(CodeCallback, fillInfoSize+readLen)
	l.writeRef(reference{cb: fillCallback(cb)})
	l.alignSize()
	info := l.buf[l.size : l.size+fillInfoSize]
	binary.LittleEndian.PutUint32(info, color.Value)
	info[4] = color.Alpha
	info[5] = byte(format)
	binary.LittleEndian.PutUint16(info[6:], uint16(pixels))
	l.size += fillInfoSize
	scratch := l.buf[l.size : l.size+readLen : l.size+readLen]
	clear(scratch)
	l.size += readLen

	l.writeHeader(CodeWriteStart, 0)
	l.writeHeader(CodeWriteDataBuffer, pixels*bpp)
	l.writeRef(reference{data: scratch[:pixels*bpp]})

	binary.LittleEndian.PutUint32(l.buf[readRef:], l.addRef(reference{data: scratch}))
	l.window.Mode = gfx.WindowWrite
	return true
}

// FillSize is the most list space a Fill of pixels needs, including
// alignment padding.
func FillSize(pixels int) int {
	return CodeLen(CodeSetColumn) + CodeLen(CodeSetRow) + CodeLen(CodeReadStart) + CodeLen(CodeCallback) +
		fillInfoSize + pixels*gfx.ReadPixelSize + CodeLen(CodeWriteStart) + CodeLen(CodeWriteDataBuffer)
}

// fillCallback adapts cb to the parameter block written by Fill. The block
// lives inside the list, so the conversion happens in place.
func fillCallback(cb FillCallback) Callback {
	return func(params []byte) {
		if len(params) < fillInfoSize {
			return
		}
		format := gfx.PixelFormat(params[5])
		pixels := int(binary.LittleEndian.Uint16(params[6:]))
		scratch := params[fillInfoSize:]
		if len(scratch) < pixels*gfx.ReadPixelSize {
			return
		}
		n := gfx.Convert(scratch, gfx.PixelFormatRGB24, scratch, format, pixels)
		cb(FillInfo{
			Dst:    scratch[:n],
			Color:  gfx.PackedColor{Value: binary.LittleEndian.Uint32(params), Alpha: params[4]},
			Format: format,
		})
	}
}

// Skip advances the read cursor by n bytes.
func (l *List) Skip(n int) {
	l.offset = min(l.offset+n, l.size)
}
