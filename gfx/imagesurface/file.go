// Package imagesurface keeps pixels outside the renderer: raw pixel files
// drawn through gfx.ImageSurface, and decoded BMP, PNG and JPEG images.
package imagesurface

import (
	"errors"
	"fmt"
	"os"

	"sparkgfx/gfx"
)

// FileSurface renders into a raw pixel file, rows top to bottom with no
// header. Every operation goes straight to the file.
type FileSurface struct {
	*gfx.ImageSurface
	f      *os.File
	size   gfx.Size
	format gfx.PixelFormat
}

// Create makes a blank raw pixel file at path, replacing any existing one.
func Create(path string, format gfx.PixelFormat, size gfx.Size, cfg gfx.ImageSurfaceConfig) (*FileSurface, error) {
	if size.Pixels() == 0 || format == gfx.PixelFormatNone {
		return nil, fmt.Errorf("imagesurface: create %s: empty %v %s image", path, size, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("imagesurface: create: %w", err)
	}
	if err := f.Truncate(int64(size.Pixels() * format.BytesPerPixel())); err != nil {
		f.Close()
		return nil, fmt.Errorf("imagesurface: create %s: %w", path, err)
	}
	return newFileSurface(f, format, size, cfg), nil
}

// Open draws into an existing raw pixel file. The file must hold at least
// a full image.
func Open(path string, format gfx.PixelFormat, size gfx.Size, cfg gfx.ImageSurfaceConfig) (*FileSurface, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("imagesurface: open: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("imagesurface: open %s: %w", path, err)
	}
	if want := int64(size.Pixels() * format.BytesPerPixel()); st.Size() < want {
		f.Close()
		return nil, fmt.Errorf("imagesurface: open %s: %d bytes, want %d for %v %s", path, st.Size(), want, size, format)
	}
	return newFileSurface(f, format, size, cfg), nil
}

func newFileSurface(f *os.File, format gfx.PixelFormat, size gfx.Size, cfg gfx.ImageSurfaceConfig) *FileSurface {
	return &FileSurface{
		ImageSurface: gfx.NewImageSurface(gfx.SurfaceFile, f, size, format, cfg),
		f:            f,
		size:         size,
		format:       format,
	}
}

func (s *FileSurface) Name() string { return s.f.Name() }

// Image reads the whole file back into memory.
func (s *FileSurface) Image() (*gfx.MemoryImage, error) {
	img := gfx.NewMemoryImage(s.format, s.size)
	if _, err := s.f.ReadAt(img.Data(), 0); err != nil {
		return nil, fmt.Errorf("imagesurface: read %s: %w", s.f.Name(), err)
	}
	return img, nil
}

// Close flushes and closes the file. It also reports the first error any
// drawing operation ran into.
func (s *FileSurface) Close() error {
	return errors.Join(s.Err(), s.f.Sync(), s.f.Close())
}
