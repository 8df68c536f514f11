package hal

import (
	"encoding/binary"
	"sync"
)

// MIPI DCS commands understood by the panel emulator.
const (
	dcsSoftReset       = 0x01
	dcsSleepIn         = 0x10
	dcsSleepOut        = 0x11
	dcsInversionOff    = 0x20
	dcsInversionOn     = 0x21
	dcsDisplayOff      = 0x28
	dcsDisplayOn       = 0x29
	dcsSetColumn       = 0x2a
	dcsSetPage         = 0x2b
	dcsWriteMemory     = 0x2c
	dcsReadMemory      = 0x2e
	dcsSetScrollArea   = 0x33
	dcsSetAddressMode  = 0x36
	dcsSetScrollStart  = 0x37
	dcsSetPixelFormat  = 0x3a
	dcsWriteMemoryCont = 0x3c
	dcsReadMemoryCont  = 0x3e
)

// Address mode bits.
const (
	madctlMY = 0x80
	madctlMX = 0x40
	madctlMV = 0x20
)

// PanelState is a snapshot of the emulated controller registers.
type PanelState struct {
	AddressMode  uint8
	PixelFormat  uint8
	Sleeping     bool
	DisplayOn    bool
	Inverted     bool
	ScrollTop    uint16
	ScrollHeight uint16
	ScrollBottom uint16
	ScrollStart  uint16
	Commands     uint64
}

// Panel emulates a MIPI DCS display controller with 18-bit pixel memory.
// Writes accept 16-bit (big-endian RGB565) or 24-bit pixels depending on
// the pixel format register; reads always return 3 bytes per pixel.
type Panel struct {
	mu     sync.Mutex
	width  int
	height int
	ram    []byte

	state PanelState

	cmd  uint8
	args []byte

	xs, xe, ys, ye int
	x, y           int
	partial        [3]byte
	npartial       int
	readByte       int
}

// NewPanel returns a panel with a native pixel array of w by h, as after a
// hardware reset.
func NewPanel(w, h int) *Panel {
	p := &Panel{width: w, height: h, ram: make([]byte, w*h*3)}
	p.Reset()
	return p
}

// Reset restores the power-on register values. Pixel memory is kept.
func (p *Panel) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

func (p *Panel) reset() {
	p.state = PanelState{
		PixelFormat:  0x66,
		Sleeping:     true,
		ScrollHeight: uint16(p.height),
	}
	p.xs, p.xe = 0, p.width-1
	p.ys, p.ye = 0, p.height-1
	p.cmd = 0
	p.args = p.args[:0]
}

func (p *Panel) Width() int  { return p.width }
func (p *Panel) Height() int { return p.height }

// State returns the controller registers.
func (p *Panel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Transfer applies one bus transaction.
func (p *Panel) Transfer(req *BusRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if req.CmdLen != 0 {
		p.command(req.Cmd)
	}
	for i := uint32(0); i < max(req.Repeat, 1); i++ {
		p.write(req.Out)
	}
	if len(req.In) != 0 {
		p.read(req.In)
	}
}

func (p *Panel) command(c uint8) {
	p.state.Commands++
	p.cmd = c
	p.args = p.args[:0]
	switch c {
	case dcsSoftReset:
		p.reset()
	case dcsSleepIn:
		p.state.Sleeping = true
	case dcsSleepOut:
		p.state.Sleeping = false
	case dcsDisplayOff:
		p.state.DisplayOn = false
	case dcsDisplayOn:
		p.state.DisplayOn = true
	case dcsInversionOff:
		p.state.Inverted = false
	case dcsInversionOn:
		p.state.Inverted = true
	case dcsWriteMemory, dcsReadMemory:
		p.x, p.y = p.xs, p.ys
		p.npartial = 0
		p.readByte = 0
	case dcsWriteMemoryCont:
		p.npartial = 0
	case dcsReadMemoryCont:
		p.readByte = 0
	}
}

// argCount is the number of parameter bytes each register command takes.
func argCount(c uint8) int {
	switch c {
	case dcsSetColumn, dcsSetPage:
		return 4
	case dcsSetScrollArea:
		return 6
	case dcsSetScrollStart:
		return 2
	case dcsSetAddressMode, dcsSetPixelFormat:
		return 1
	}
	return 0
}

func (p *Panel) write(data []byte) {
	switch p.cmd {
	case dcsWriteMemory, dcsWriteMemoryCont:
		p.writePixels(data)
		return
	}
	n := argCount(p.cmd)
	if n == 0 || len(p.args) >= n {
		return
	}
	p.args = append(p.args, data[:min(len(data), n-len(p.args))]...)
	if len(p.args) < n {
		return
	}
	a := p.args
	switch p.cmd {
	case dcsSetColumn:
		p.xs, p.xe = int(binary.BigEndian.Uint16(a)), int(binary.BigEndian.Uint16(a[2:]))
	case dcsSetPage:
		p.ys, p.ye = int(binary.BigEndian.Uint16(a)), int(binary.BigEndian.Uint16(a[2:]))
	case dcsSetScrollArea:
		p.state.ScrollTop = binary.BigEndian.Uint16(a)
		p.state.ScrollHeight = binary.BigEndian.Uint16(a[2:])
		p.state.ScrollBottom = binary.BigEndian.Uint16(a[4:])
	case dcsSetScrollStart:
		p.state.ScrollStart = binary.BigEndian.Uint16(a)
	case dcsSetAddressMode:
		p.state.AddressMode = a[0]
	case dcsSetPixelFormat:
		p.state.PixelFormat = a[0]
	}
}

func (p *Panel) bytesPerPixel() int {
	if p.state.PixelFormat&0x0f == 0x05 {
		return 2
	}
	return 3
}

// logicalSize is the size of the address space after rotation.
func (p *Panel) logicalSize() (int, int) {
	if p.state.AddressMode&madctlMV != 0 {
		return p.height, p.width
	}
	return p.width, p.height
}

// ramOffset maps a logical address to pixel memory, or -1 when it falls
// outside the array.
func (p *Panel) ramOffset(x, y int) int {
	w, h := p.logicalSize()
	if x < 0 || y < 0 || x >= w || y >= h {
		return -1
	}
	mode := p.state.AddressMode
	if mode&madctlMX != 0 {
		x = w - 1 - x
	}
	if mode&madctlMY != 0 {
		y = h - 1 - y
	}
	if mode&madctlMV != 0 {
		x, y = y, x
	}
	return (y*p.width + x) * 3
}

func (p *Panel) advance() {
	p.x++
	if p.x <= p.xe {
		return
	}
	p.x = p.xs
	p.y++
	if p.y > p.ye {
		p.y = p.ys
	}
}

func (p *Panel) writePixels(data []byte) {
	bpp := p.bytesPerPixel()
	for _, b := range data {
		p.partial[p.npartial] = b
		p.npartial++
		if p.npartial < bpp {
			continue
		}
		p.npartial = 0
		if off := p.ramOffset(p.x, p.y); off >= 0 {
			panelPixel(p.ram[off:off+3], p.partial[:bpp])
		}
		p.advance()
	}
}

func (p *Panel) read(dst []byte) {
	if p.cmd != dcsReadMemory && p.cmd != dcsReadMemoryCont {
		clear(dst)
		return
	}
	for i := range dst {
		var b byte
		if off := p.ramOffset(p.x, p.y); off >= 0 {
			b = p.ram[off+p.readByte]
		}
		dst[i] = b
		p.readByte++
		if p.readByte == 3 {
			p.readByte = 0
			p.advance()
		}
	}
}

// visibleRow maps a panel row to the memory row shown there, applying the
// vertical scroll area.
func (p *Panel) visibleRow(row int) int {
	top := int(p.state.ScrollTop)
	vsa := int(p.state.ScrollHeight)
	if vsa == 0 || row < top || row >= top+vsa {
		return row
	}
	start := int(p.state.ScrollStart) - top
	return top + ((row-top+start)%vsa+vsa)%vsa
}

// SnapshotRGBA copies what the panel shows into dst, w*h*4 bytes.
func (p *Panel) SnapshotRGBA(dst []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	on := p.state.DisplayOn && !p.state.Sleeping
	for y := 0; y < p.height; y++ {
		src := p.ram[p.visibleRow(y)*p.width*3:]
		row := dst[y*p.width*4:]
		for x := 0; x < p.width; x++ {
			r, g, b := src[x*3], src[x*3+1], src[x*3+2]
			if !on {
				r, g, b = 0, 0, 0
			}
			row[x*4+0] = r
			row[x*4+1] = g
			row[x*4+2] = b
			row[x*4+3] = 0xff
		}
	}
}

// PixelRGB returns one pixel of memory in native coordinates.
func (p *Panel) PixelRGB(x, y int) (r, g, b uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return 0, 0, 0
	}
	px := p.ram[(y*p.width+x)*3:]
	return px[0], px[1], px[2]
}
