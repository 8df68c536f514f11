package gfx

import (
	"errors"
	"fmt"
	"io"
)

// Scheduler defers a callback to the main loop. It is how surfaces run
// completion callbacks outside the operation that triggered them.
type Scheduler interface {
	QueueCallback(fn func()) bool
}

// PixelStore backs an image surface with random-access storage. *os.File
// satisfies it.
type PixelStore interface {
	io.ReaderAt
	io.WriterAt
}

// ErrOutOfRange reports an access past the end of the pixel store.
var ErrOutOfRange = errors.New("gfx: pixel offset out of range")

const defaultImageSurfaceBuffer = 512

// ImageSurface renders straight into pixel storage. Operations complete
// immediately, so reads are always complete by the time they return and
// the surface never fills up.
type ImageSurface struct {
	typ    SurfaceType
	store  PixelStore
	size   Size
	format PixelFormat
	bytes  int64
	window AddressWindow
	buffer []byte
	blend  Blender
	sched  Scheduler
	err    error
}

// ImageSurfaceConfig holds the optional parts of an image surface.
type ImageSurfaceConfig struct {
	// Blend, if set, combines every write with the existing pixels.
	Blend Blender
	// Scheduler runs present and read callbacks. Nil runs them inline.
	Scheduler Scheduler
	// BufferSize is the space handed out by Buffer. Zero means 512 bytes.
	BufferSize int
}

func NewImageSurface(typ SurfaceType, store PixelStore, size Size, format PixelFormat, cfg ImageSurfaceConfig) *ImageSurface {
	bufSize := cfg.BufferSize
	if bufSize == 0 {
		bufSize = defaultImageSurfaceBuffer
	}
	return &ImageSurface{
		typ:    typ,
		store:  store,
		size:   size,
		format: format,
		bytes:  int64(size.Pixels() * format.BytesPerPixel()),
		buffer: make([]byte, bufSize),
		blend:  cfg.Blend,
		sched:  cfg.Scheduler,
	}
}

func (s *ImageSurface) Type() SurfaceType        { return s.typ }
func (s *ImageSurface) Stat() Stat               { return Stat{Available: len(s.buffer)} }
func (s *ImageSurface) Size() Size               { return s.size }
func (s *ImageSurface) PixelFormat() PixelFormat { return s.format }

// Err returns the first storage error seen, if any.
func (s *ImageSurface) Err() error  { return s.err }
func (s *ImageSurface) Valid() bool { return s.err == nil }

func (s *ImageSurface) setErr(err error) {
	if s.err == nil && err != nil {
		s.err = fmt.Errorf("gfx: %s surface: %w", s.typ, err)
	}
}

func (s *ImageSurface) later(fn func()) {
	if s.sched == nil || !s.sched.QueueCallback(fn) {
		fn()
	}
}

func (s *ImageSurface) read(off int64, dst []byte) {
	if _, err := s.store.ReadAt(dst, off); err != nil && err != io.EOF {
		s.setErr(err)
	}
}

func (s *ImageSurface) write(off int64, data []byte) {
	if off > s.bytes {
		return
	}
	data = data[:min(int64(len(data)), s.bytes-off)]
	if s.blend != nil {
		cur := make([]byte, len(data))
		s.read(off, cur)
		s.blend.Transform(s.format, data, cur)
		data = cur
	}
	if _, err := s.store.WriteAt(data, off); err != nil {
		s.setErr(err)
	}
}

func (s *ImageSurface) offset(x, y int16) int64 {
	return (int64(y)*int64(s.size.W) + int64(x)) * int64(s.format.BytesPerPixel())
}

func (s *ImageSurface) SetAddrWindow(r Rect) bool {
	s.window.SetRect(r)
	return true
}

func (s *ImageSurface) Buffer(minBytes int) []byte {
	if len(s.buffer) < minBytes {
		return nil
	}
	return s.buffer
}

func (s *ImageSurface) Commit(n int) { s.WritePixels(s.buffer[:n]) }

func (s *ImageSurface) WritePixels(data []byte) bool {
	w := &s.window
	w.SetMode(WindowWrite)
	bpp := s.format.BytesPerPixel()
	pixels := len(data) / bpp
	for pixels > 0 && w.Bounds.H != 0 {
		count := min(pixels, int(w.Bounds.W)-int(w.Column))
		s.write(s.offset(w.Left(), w.Top()), data[:count*bpp])
		data = data[count*bpp:]
		pixels -= count
		if w.Seek(count) != count {
			break
		}
	}
	return true
}

func (s *ImageSurface) BlockFill(data []byte, repeat uint32) bool {
	for ; repeat != 0; repeat-- {
		s.WritePixels(data)
	}
	return true
}

func (s *ImageSurface) WriteDataBuffer(buf *SharedBuffer, offset, length int) bool {
	data := buf.Bytes()
	if offset > len(data) {
		return true
	}
	return s.WritePixels(data[offset:min(offset+length, len(data))])
}

func (s *ImageSurface) SetPixel(c PackedColor, pt Point) bool {
	if !SizeRect(s.size).Contains(pt) {
		return true
	}
	bpp := s.format.BytesPerPixel()
	off := s.offset(pt.X, pt.Y)
	var px [4]byte
	if c.Alpha < 255 {
		s.read(off, px[:bpp])
		c = BlendPacked(s.format, c, ReadPacked(px[:], s.format))
	}
	WriteColor(px[:], c, s.format)
	s.write(off, px[:bpp])
	return true
}

func (s *ImageSurface) SetScrollMargins(top, bottom uint16) bool { return false }
func (s *ImageSurface) SetScrollOffset(line uint16) bool         { return false }

func (s *ImageSurface) ReadDataBuffer(buf *ReadBuffer, status *ReadStatus, cb ReadCallback) int {
	w := &s.window
	w.SetMode(WindowRead)
	srcBpp := s.format.BytesPerPixel()
	bpp := buf.Format.BytesPerPixel()
	dst := buf.Bytes()
	pixels := min(len(dst)/bpp, w.PixelCount())
	row := make([]byte, int(w.Bounds.W)*srcBpp)
	n := 0
	for pixels > 0 {
		count := min(pixels, int(w.Bounds.W)-int(w.Column))
		src := row[:count*srcBpp]
		s.read(s.offset(w.Left(), w.Top()), src)
		n += Convert(src, s.format, dst[n:], buf.Format, count)
		pixels -= count
		if w.Seek(count) != count {
			break
		}
	}
	if status != nil {
		*status = ReadStatus{BytesRead: n, Format: buf.Format, ReadComplete: true}
	}
	if n != 0 && cb != nil {
		s.later(func() { cb(buf, n) })
	}
	return n / bpp
}

func (s *ImageSurface) Render(obj Object, location Rect) (Renderer, bool) {
	return RenderInline(s, obj, location)
}

func (s *ImageSurface) FillRect(c PackedColor, r Rect) bool {
	r = Intersect(r, SizeRect(s.size))
	s.SetAddrWindow(r)
	if r.Empty() {
		return true
	}
	bpp := s.format.BytesPerPixel()
	rowBytes := int(r.W) * bpp
	row := make([]byte, rowBytes)
	if c.Alpha == 255 {
		WriteColorN(row, c, s.format, int(r.W))
	}
	for y := r.Y; y <= r.Bottom(); y++ {
		off := s.offset(r.X, y)
		if c.Alpha < 255 {
			s.read(off, row)
			BlendColor(s.format, c, row)
		}
		s.write(off, row)
	}
	return true
}

func (s *ImageSurface) Reset() {}

func (s *ImageSurface) Present(cb func()) bool {
	if cb != nil {
		s.later(cb)
	}
	return true
}
