package imagesurface

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"sparkgfx/gfx"
)

// Format is an encoded image file format.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatBMP
	FormatPNG
	FormatJPEG
)

func (f Format) String() string {
	switch f {
	case FormatBMP:
		return "bmp"
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	}
	return "unknown"
}

var ErrUnknownFormat = errors.New("imagesurface: unsupported image format")

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

// DetectFormat looks at the first bytes of a file and falls back to the
// extension of name.
func DetectFormat(head []byte, name string) Format {
	switch {
	case len(head) >= 2 && head[0] == 'B' && head[1] == 'M':
		return FormatBMP
	case len(head) >= len(pngMagic) && string(head[:len(pngMagic)]) == string(pngMagic):
		return FormatPNG
	case len(head) >= 2 && head[0] == 0xff && head[1] == 0xd8:
		return FormatJPEG
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".bmp":
		return FormatBMP
	case ".png":
		return FormatPNG
	case ".jpg", ".jpeg":
		return FormatJPEG
	}
	return FormatUnknown
}

// FromImage converts img to a memory image in format.
func FromImage(img image.Image, format gfx.PixelFormat) *gfx.MemoryImage {
	b := img.Bounds()
	size := gfx.Size{W: uint16(b.Dx()), H: uint16(b.Dy())}
	out := gfx.NewMemoryImage(format, size)
	data := out.Data()
	off := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			off += gfx.WriteColor(data[off:], gfx.Pack(gfx.ColorOf(img.At(x, y)), format), format)
		}
	}
	return out
}

// DecodeBMP reads an uncompressed BMP.
func DecodeBMP(r io.Reader, format gfx.PixelFormat) (*gfx.MemoryImage, error) {
	img, err := bmp.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("imagesurface: decode bmp: %w", err)
	}
	return FromImage(img, format), nil
}

// Decode reads a BMP, PNG or JPEG image.
func Decode(r io.Reader, format gfx.PixelFormat) (*gfx.MemoryImage, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(pngMagic))
	switch DetectFormat(head, "") {
	case FormatBMP:
		return DecodeBMP(br, format)
	case FormatUnknown:
		return nil, ErrUnknownFormat
	}
	img, _, err := image.Decode(br)
	if err != nil {
		return nil, fmt.Errorf("imagesurface: decode: %w", err)
	}
	return FromImage(img, format), nil
}

// Load decodes the image file at path.
func Load(path string, format gfx.PixelFormat) (*gfx.MemoryImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imagesurface: %w", err)
	}
	defer f.Close()
	img, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return img, nil
}

// ToImage converts a memory image for the standard image encoders.
func ToImage(img *gfx.MemoryImage) *image.NRGBA {
	size := img.Size()
	out := image.NewNRGBA(image.Rect(0, 0, int(size.W), int(size.H)))
	data := img.Data()
	bpp := img.PixelFormat().BytesPerPixel()
	for i := 0; i < size.Pixels(); i++ {
		c := gfx.ReadColor(data[i*bpp:], img.PixelFormat())
		copy(out.Pix[i*4:], []byte{c.R(), c.G(), c.B(), c.A()})
	}
	return out
}

// EncodeBMP writes img as a BMP. Opaque images get 24-bit pixels.
func EncodeBMP(w io.Writer, img image.Image) error {
	if err := bmp.Encode(w, img); err != nil {
		return fmt.Errorf("imagesurface: encode bmp: %w", err)
	}
	return nil
}
