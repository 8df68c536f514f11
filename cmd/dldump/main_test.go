package main

import (
	"bytes"
	"strings"
	"testing"

	"sparkgfx/gfx"
	"sparkgfx/gfx/displaylist"
)

func sampleList(t *testing.T) []byte {
	t.Helper()
	l := displaylist.New(&gfx.AddressWindow{}, 64)
	ok := l.SetAddrWindow(gfx.Rect{X: 2, Y: 3, W: 4, H: 1}) &&
		l.BlockFill([]byte{0xf8, 0x00}, 4) &&
		l.WriteCommand(0x2a, []byte{1, 2}) &&
		l.WriteDelay(5) &&
		l.WriteCallback(func([]byte) {}, []byte{9})
	if !ok {
		t.Fatalf("building the sample list failed")
	}
	return append([]byte(nil), l.Content()...)
}

func TestDump(t *testing.T) {
	var out bytes.Buffer
	if err := dump(&out, sampleList(t), true); err != nil {
		t.Fatalf("dump() = %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"setColumn       start=2 end=5",
		"setRow          start=3 end=3",
		"writeStart      bytes=0",
		"repeat          pattern=2 count=4",
		"f800",
		"command         cmd=0x2a args=2",
		"delay           ms=5",
		"callback        ref=0 params=1",
		"7 entries, 21 bytes",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("dump() output lacks %q:\n%s", want, got)
		}
	}
}

func TestDumpRejectsBadLists(t *testing.T) {
	data := sampleList(t)
	if err := dump(&bytes.Buffer{}, data[:len(data)-1], false); err == nil || !strings.Contains(err.Error(), "truncated callback") {
		t.Fatalf("dump(truncated) = %v, want a truncated callback error", err)
	}
	if err := dump(&bytes.Buffer{}, []byte{0x0c}, false); err == nil || !strings.Contains(err.Error(), "unknown") {
		t.Fatalf("dump(code 12) = %v, want an unknown entry error", err)
	}
}
