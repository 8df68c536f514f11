package gfx

import (
	"bytes"
	"testing"
)

func TestPackRGB565BigEndianBytes(t *testing.T) {
	var buf [2]byte
	WriteColor(buf[:], Pack(Red, PixelFormatRGB565), PixelFormatRGB565)
	if buf != [2]byte{0xf8, 0x00} {
		t.Fatalf("red = % x, want f8 00", buf)
	}
	WriteColor(buf[:], Pack(Blue, PixelFormatRGB565), PixelFormatRGB565)
	if buf != [2]byte{0x00, 0x1f} {
		t.Fatalf("blue = % x, want 00 1f", buf)
	}
}

func TestPackByteOrder(t *testing.T) {
	c := RGB(0x11, 0x22, 0x33)
	tests := []struct {
		format PixelFormat
		want   []byte
	}{
		{PixelFormatRGB24, []byte{0x11, 0x22, 0x33}},
		{PixelFormatBGR24, []byte{0x33, 0x22, 0x11}},
		{PixelFormatBGRA32, []byte{0x33, 0x22, 0x11, 0xff}},
	}
	for _, tt := range tests {
		buf := make([]byte, tt.format.BytesPerPixel())
		WriteColor(buf, Pack(c, tt.format), tt.format)
		if !bytes.Equal(buf, tt.want) {
			t.Fatalf("%v: % x, want % x", tt.format, buf, tt.want)
		}
		if got := ReadColor(buf, tt.format); got != c {
			t.Fatalf("%v: ReadColor() = %v, want %v", tt.format, got, c)
		}
	}
}

func TestBytesPerPixel(t *testing.T) {
	tests := map[PixelFormat]int{
		PixelFormatRGB565: 2,
		PixelFormatRGB24:  3,
		PixelFormatBGR24:  3,
		PixelFormatBGRA32: 4,
	}
	for f, want := range tests {
		if got := f.BytesPerPixel(); got != want {
			t.Fatalf("%v.BytesPerPixel() = %d, want %d", f, got, want)
		}
	}
}

func TestWriteColorN(t *testing.T) {
	buf := make([]byte, 10)
	n := WriteColorN(buf, Pack(Red, PixelFormatRGB565), PixelFormatRGB565, 5)
	if n != 10 {
		t.Fatalf("WriteColorN() = %d, want 10", n)
	}
	want := []byte{0xf8, 0, 0xf8, 0, 0xf8, 0, 0xf8, 0, 0xf8, 0}
	if !bytes.Equal(buf, want) {
		t.Fatalf("buf = % x, want % x", buf, want)
	}
}

func TestConvertRGB24ToRGB565(t *testing.T) {
	src := []byte{0xff, 0, 0, 0, 0, 0xff}
	dst := make([]byte, 4)
	if n := Convert(src, PixelFormatRGB24, dst, PixelFormatRGB565, 2); n != 4 {
		t.Fatalf("Convert() = %d, want 4", n)
	}
	if !bytes.Equal(dst, []byte{0xf8, 0, 0, 0x1f}) {
		t.Fatalf("dst = % x, want f8 00 00 1f", dst)
	}
}

func TestConvertInPlaceExpands(t *testing.T) {
	buf := make([]byte, 8)
	copy(buf, []byte{0xff, 0, 0, 0, 0, 0xff})
	if n := ConvertInPlace(buf, PixelFormatRGB24, PixelFormatBGRA32, 2); n != 8 {
		t.Fatalf("ConvertInPlace() = %d, want 8", n)
	}
	if c := ReadColor(buf, PixelFormatBGRA32); c != Red {
		t.Fatalf("pixel 0 = %v, want %v", c, Red)
	}
	if c := ReadColor(buf[4:], PixelFormatBGRA32); c != Blue {
		t.Fatalf("pixel 1 = %v, want %v", c, Blue)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#ff0000", Red},
		{"#80ff0000", Red.WithAlpha(0x80)},
		{"orange", Orange},
		{"LightGrey", LightGrey},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Fatalf("ParseColor(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseColor("chartreuse"); err == nil {
		t.Fatalf("ParseColor(chartreuse) error = nil, want error")
	}
}

func TestBlendRGB565Extremes(t *testing.T) {
	dst := []byte{0x00, 0x00}
	BlendColor(PixelFormatRGB565, Pack(White.WithAlpha(255), PixelFormatRGB565), dst)
	if !bytes.Equal(dst, []byte{0xff, 0xff}) {
		t.Fatalf("opaque blend = % x, want ff ff", dst)
	}
	dst = []byte{0x12, 0x34}
	BlendColor(PixelFormatRGB565, Pack(White.WithAlpha(0), PixelFormatRGB565), dst)
	if !bytes.Equal(dst, []byte{0x12, 0x34}) {
		t.Fatalf("transparent blend = % x, want 12 34", dst)
	}
}

func TestBlendRGB565Half(t *testing.T) {
	// Red over blue at half alpha lands between the two.
	got := BlendRGB565(0xf800, 0x001f, 128)
	r := got >> 11
	b := got & 0x1f
	if r < 14 || r > 17 || b < 14 || b > 17 {
		t.Fatalf("BlendRGB565() = 0x%04x, want r and b near 16", got)
	}
}

func TestBlendChannel(t *testing.T) {
	if got := BlendChannel(255, 0, 255); got != 255 {
		t.Fatalf("BlendChannel(255, 0, 255) = %d, want 255", got)
	}
	if got := BlendChannel(200, 100, 0); got != 100 {
		t.Fatalf("BlendChannel(200, 100, 0) = %d, want 100", got)
	}
}

func TestBlendXorTwiceRestores(t *testing.T) {
	dst := []byte{1, 2, 3, 4}
	c := PackedColor{Value: 0xa55a, Alpha: 255}
	BlendXor{}.TransformColor(PixelFormatRGB565, c, dst)
	BlendXor{}.TransformColor(PixelFormatRGB565, c, dst)
	if !bytes.Equal(dst, []byte{1, 2, 3, 4}) {
		t.Fatalf("dst = % x, want 01 02 03 04", dst)
	}
}
