package gfx

import "io"

// MemoryImage is a raw pixel image held in RAM, rows top to bottom with no
// padding.
type MemoryImage struct {
	format PixelFormat
	size   Size
	data   []byte
}

// NewMemoryImage allocates a blank image. An empty size gives an invalid
// image.
func NewMemoryImage(f PixelFormat, size Size) *MemoryImage {
	img := &MemoryImage{format: f, size: size}
	if size.Pixels() != 0 && f != PixelFormatNone {
		img.data = make([]byte, size.Pixels()*f.BytesPerPixel())
	}
	return img
}

// MemoryImageFrom wraps existing pixel data without copying. It returns
// nil when data is too short for the size.
func MemoryImageFrom(f PixelFormat, size Size, data []byte) *MemoryImage {
	if len(data) < size.Pixels()*f.BytesPerPixel() {
		return nil
	}
	return &MemoryImage{format: f, size: size, data: data}
}

func (*MemoryImage) Kind() Kind { return KindImage }

func (img *MemoryImage) CreateRenderer(loc Location) Renderer {
	return NewImageRenderer(loc, img)
}

func (img *MemoryImage) Size() Size               { return img.size }
func (img *MemoryImage) PixelFormat() PixelFormat { return img.format }
func (img *MemoryImage) Data() []byte             { return img.data }
func (img *MemoryImage) Valid() bool              { return img.data != nil }

func (img *MemoryImage) ReadPixels(loc Location, f PixelFormat, dst []byte, count int) int {
	return ReadImagePixels(img, img.format, img.size, loc, f, dst, count)
}

func (img *MemoryImage) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(img.data)) {
		return 0, ErrOutOfRange
	}
	n := copy(p, img.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (img *MemoryImage) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(img.data)) {
		return 0, ErrOutOfRange
	}
	return copy(img.data[off:], p), nil
}

// CreateSurface returns a surface drawing into the image. A non-nil blend
// combines everything drawn with the existing pixels.
func (img *MemoryImage) CreateSurface(blend Blender) *ImageSurface {
	return NewImageSurface(SurfaceMemory, img, img.size, img.format, ImageSurfaceConfig{Blend: blend})
}

// ReadImagePixels serves ImageObject.ReadPixels for images stored as raw
// rows in src. It reads from loc.SourcePos(), never past the end of the
// row, converting to f.
func ReadImagePixels(src io.ReaderAt, format PixelFormat, size Size, loc Location, f PixelFormat, dst []byte, count int) int {
	pos := loc.SourcePos()
	if !SizeRect(size).Contains(pos) {
		return 0
	}
	count = min(count, int(size.W)-int(pos.X), len(dst)/f.BytesPerPixel())
	if count <= 0 {
		return 0
	}
	bpp := format.BytesPerPixel()
	off := (int64(pos.Y)*int64(size.W) + int64(pos.X)) * int64(bpp)
	if format == f {
		n, _ := src.ReadAt(dst[:count*bpp], off)
		return n
	}
	row := make([]byte, count*bpp)
	n, _ := src.ReadAt(row, off)
	return Convert(row[:n], format, dst, f, n/bpp)
}
