package imagesurface

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"sparkgfx/gfx"
)

func testScene(size gfx.Size) *gfx.SceneObject {
	scene := gfx.NewScene(size, "scene")
	scene.Clear(gfx.Navy)
	scene.FillRect(gfx.SolidBrush(gfx.Red), gfx.Rect{X: 1, Y: 1, W: 4, H: 3})
	scene.FillCircle(gfx.SolidBrush(gfx.Yellow), gfx.Point{X: 5, Y: 5}, 2)
	scene.FillRect(gfx.SolidBrush(gfx.RGBA(255, 255, 255, 100)), gfx.Rect{X: 0, Y: 6, W: 8, H: 2})
	return scene
}

func TestFileSurfaceMatchesMemory(t *testing.T) {
	size := gfx.Size{W: 8, H: 8}
	want := gfx.NewMemoryImage(gfx.PixelFormatRGB565, size)
	if !gfx.RenderNow(want.CreateSurface(nil), testScene(size), gfx.SizeRect(size)) {
		t.Fatalf("memory RenderNow() = false, want true")
	}

	path := filepath.Join(t.TempDir(), "screen.raw")
	s, err := Create(path, gfx.PixelFormatRGB565, size, gfx.ImageSurfaceConfig{})
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}
	if s.Type() != gfx.SurfaceFile {
		t.Fatalf("Type() = %v, want %v", s.Type(), gfx.SurfaceFile)
	}
	if !gfx.RenderNow(s, testScene(size), gfx.SizeRect(size)) {
		t.Fatalf("file RenderNow() = false, want true")
	}
	got, err := s.Image()
	if err != nil {
		t.Fatalf("Image() = %v", err)
	}
	if !bytes.Equal(got.Data(), want.Data()) {
		t.Fatalf("file pixels differ from memory render")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() = %v", err)
	}
	if !bytes.Equal(raw, want.Data()) {
		t.Fatalf("file contents differ from memory render")
	}

	s, err = Open(path, gfx.PixelFormatRGB565, size, gfx.ImageSurfaceConfig{})
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	defer s.Close()
	s.SetAddrWindow(gfx.Rect{X: 1, Y: 1, W: 1, H: 1})
	buf := gfx.NewReadStatusBuffer(gfx.PixelFormatRGB24, 3)
	if n := gfx.ReadDataBufferStatus(s, &buf); n != 1 {
		t.Fatalf("ReadDataBuffer() = %d, want 1", n)
	}
	if c := gfx.ReadColor(buf.Bytes(), gfx.PixelFormatRGB24); c != gfx.Red {
		t.Fatalf("pixel 1,1 = %v, want %v", c, gfx.Red)
	}
}

func TestOpenRejectsShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.raw")
	if err := os.WriteFile(path, make([]byte, 10), 0o644); err != nil {
		t.Fatalf("WriteFile() = %v", err)
	}
	if _, err := Open(path, gfx.PixelFormatRGB24, gfx.Size{W: 4, H: 4}, gfx.ImageSurfaceConfig{}); err == nil {
		t.Fatalf("Open() of a short file = nil, want error")
	}
}

func testImage() *gfx.MemoryImage {
	img := gfx.NewMemoryImage(gfx.PixelFormatRGB24, gfx.Size{W: 3, H: 2})
	data := img.Data()
	for i, c := range []gfx.Color{gfx.Red, gfx.Green, gfx.Blue, gfx.White, gfx.Black, gfx.Orange} {
		gfx.WriteColor(data[i*3:], gfx.Pack(c, gfx.PixelFormatRGB24), gfx.PixelFormatRGB24)
	}
	return img
}

func TestBMPRoundTrip(t *testing.T) {
	src := testImage()
	var buf bytes.Buffer
	if err := EncodeBMP(&buf, ToImage(src)); err != nil {
		t.Fatalf("EncodeBMP() = %v", err)
	}
	if f := DetectFormat(buf.Bytes(), ""); f != FormatBMP {
		t.Fatalf("DetectFormat() = %v, want bmp", f)
	}
	got, err := Decode(&buf, gfx.PixelFormatRGB24)
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if got.Size() != src.Size() || !bytes.Equal(got.Data(), src.Data()) {
		t.Fatalf("decoded %v % x, want %v % x", got.Size(), got.Data(), src.Size(), src.Data())
	}
}

func TestDecodePNGConvertsFormat(t *testing.T) {
	src := testImage()
	var buf bytes.Buffer
	if err := png.Encode(&buf, ToImage(src)); err != nil {
		t.Fatalf("png.Encode() = %v", err)
	}
	got, err := Decode(&buf, gfx.PixelFormatRGB565)
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if c := gfx.ReadColor(got.Data()[2*2:], gfx.PixelFormatRGB565); c != gfx.Blue {
		t.Fatalf("pixel 2 = %v, want %v", c, gfx.Blue)
	}
}

func TestDecodeUnknown(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("GIF89a")), gfx.PixelFormatRGB24); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("Decode(gif) = %v, want %v", err, ErrUnknownFormat)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		head []byte
		name string
		want Format
	}{
		{[]byte("BM"), "", FormatBMP},
		{[]byte{0xff, 0xd8, 0xff}, "", FormatJPEG},
		{nil, "photo.JPG", FormatJPEG},
		{nil, "icon.png", FormatPNG},
		{[]byte("xx"), "notes.txt", FormatUnknown},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.head, tt.name); got != tt.want {
			t.Fatalf("DetectFormat(%q, %q) = %v, want %v", tt.head, tt.name, got, tt.want)
		}
	}
}
