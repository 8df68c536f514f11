package hal

import (
	"bytes"
	"testing"
	"time"
)

func be16(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }

func window(x0, y0, x1, y1 uint16) []*BusRequest {
	return []*BusRequest{
		{Cmd: dcsSetColumn, CmdLen: 1, Out: append(be16(x0), be16(x1)...)},
		{Cmd: dcsSetPage, CmdLen: 1, Out: append(be16(y0), be16(y1)...)},
	}
}

func transferAll(p *Panel, reqs ...*BusRequest) {
	for _, r := range reqs {
		p.Transfer(r)
	}
}

func TestPanelWriteReadRGB565(t *testing.T) {
	p := NewPanel(8, 8)
	transferAll(p, &BusRequest{Cmd: dcsSetPixelFormat, CmdLen: 1, Out: []byte{0x55}})
	transferAll(p, window(2, 3, 3, 3)...)

	px := append(be565(255, 0, 0), be565(0, 0, 255)...)
	transferAll(p, &BusRequest{Cmd: dcsWriteMemory, CmdLen: 1, Out: px})

	if r, g, b := p.PixelRGB(2, 3); r != 255 || g != 0 || b != 0 {
		t.Fatalf("PixelRGB(2,3) = %d,%d,%d, want 255,0,0", r, g, b)
	}
	if r, g, b := p.PixelRGB(3, 3); r != 0 || g != 0 || b != 255 {
		t.Fatalf("PixelRGB(3,3) = %d,%d,%d, want 0,0,255", r, g, b)
	}

	in := make([]byte, 6)
	transferAll(p, &BusRequest{Cmd: dcsReadMemory, CmdLen: 1, Dummy: 8, In: in})
	if want := []byte{255, 0, 0, 0, 0, 255}; !bytes.Equal(in, want) {
		t.Fatalf("read = % x, want % x", in, want)
	}
}

func TestPanelRepeatAndContinue(t *testing.T) {
	p := NewPanel(4, 2)
	transferAll(p, window(0, 0, 3, 1)...)
	transferAll(p,
		&BusRequest{Cmd: dcsWriteMemory, CmdLen: 1, Out: []byte{1, 2, 3}, Repeat: 5},
		&BusRequest{Cmd: dcsWriteMemoryCont, CmdLen: 1, Out: []byte{9, 9, 9, 8, 8, 8, 7, 7, 7}},
	)
	if r, _, _ := p.PixelRGB(0, 1); r != 1 {
		t.Fatalf("pixel 0,1 = %d, want 1", r)
	}
	if r, _, _ := p.PixelRGB(1, 1); r != 9 {
		t.Fatalf("pixel 1,1 = %d, want 9", r)
	}
	if r, _, _ := p.PixelRGB(3, 1); r != 7 {
		t.Fatalf("pixel 3,1 = %d, want 7", r)
	}
}

func TestPanelArgumentsAcrossTransactions(t *testing.T) {
	p := NewPanel(4, 4)
	transferAll(p,
		&BusRequest{Cmd: dcsSetScrollArea, CmdLen: 1},
		&BusRequest{Out: []byte{0, 1, 0, 2}},
		&BusRequest{Out: []byte{0, 1}},
		&BusRequest{Cmd: dcsSetScrollStart, CmdLen: 1, Out: be16(2)},
	)
	s := p.State()
	if s.ScrollTop != 1 || s.ScrollHeight != 2 || s.ScrollBottom != 1 || s.ScrollStart != 2 {
		t.Fatalf("State() = %+v, want scroll area 1/2/1 start 2", s)
	}
	for row, want := range []int{0, 2, 1, 3} {
		if got := p.visibleRow(row); got != want {
			t.Fatalf("visibleRow(%d) = %d, want %d", row, got, want)
		}
	}
}

func TestPanelAddressModeSwap(t *testing.T) {
	p := NewPanel(4, 2)
	transferAll(p, &BusRequest{Cmd: dcsSetAddressMode, CmdLen: 1, Out: []byte{madctlMV}})
	// Logical space is 2 wide and 4 tall; logical (1, 3) is native (3, 1).
	transferAll(p, window(1, 3, 1, 3)...)
	transferAll(p, &BusRequest{Cmd: dcsWriteMemory, CmdLen: 1, Out: []byte{5, 6, 7}})
	if r, g, b := p.PixelRGB(3, 1); r != 5 || g != 6 || b != 7 {
		t.Fatalf("PixelRGB(3,1) = %d,%d,%d, want 5,6,7", r, g, b)
	}
}

func TestPanelSnapshotBlankUntilDisplayOn(t *testing.T) {
	p := NewPanel(2, 1)
	transferAll(p, window(0, 0, 1, 0)...)
	transferAll(p, &BusRequest{Cmd: dcsWriteMemory, CmdLen: 1, Out: []byte{10, 20, 30, 40, 50, 60}})

	dst := make([]byte, 8)
	p.SnapshotRGBA(dst)
	if !bytes.Equal(dst, []byte{0, 0, 0, 0xff, 0, 0, 0, 0xff}) {
		t.Fatalf("snapshot while asleep = % x, want black", dst)
	}

	transferAll(p, &BusRequest{Cmd: dcsSleepOut, CmdLen: 1}, &BusRequest{Cmd: dcsDisplayOn, CmdLen: 1})
	p.SnapshotRGBA(dst)
	if want := []byte{10, 20, 30, 0xff, 40, 50, 60, 0xff}; !bytes.Equal(dst, want) {
		t.Fatalf("snapshot = % x, want % x", dst, want)
	}
}

func TestAsyncBusCompletes(t *testing.T) {
	p := NewPanel(2, 2)
	b := NewAsyncBus(p)
	defer b.Close()

	done := make(chan *BusRequest, 1)
	req := &BusRequest{Cmd: dcsDisplayOn, CmdLen: 1, Out: []byte{1, 2}, Repeat: 3}
	req.Callback = func(r *BusRequest) { done <- r }
	if !b.Execute(req) {
		t.Fatalf("Execute() = false, want true")
	}
	select {
	case got := <-done:
		if got != req {
			t.Fatalf("callback request = %p, want %p", got, req)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("callback did not run")
	}
	if s := b.Stats(); s.Transactions != 1 || s.BytesOut != 7 {
		t.Fatalf("Stats() = %+v, want 1 transaction of 7 bytes", s)
	}
	if !p.State().DisplayOn {
		t.Fatalf("DisplayOn = false after command")
	}
}
