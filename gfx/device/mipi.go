// Package device renders onto MIPI DCS panel controllers. A Display owns
// the controller state and the bus; each Surface records drawing into its
// own display list and hands it to the Display for playback.
package device

import (
	"sparkgfx/gfx"
	"sparkgfx/gfx/displaylist"
)

// MIPI Display Command Set.
const (
	DCSSoftReset      = 0x01
	DCSExitSleepMode  = 0x11
	DCSEnterInvert    = 0x21
	DCSSetDisplayOn   = 0x29
	DCSSetColumn      = 0x2a
	DCSSetPage        = 0x2b
	DCSWriteMemory    = 0x2c
	DCSReadMemory     = 0x2e
	DCSSetScrollArea  = 0x33
	DCSSetAddressMode = 0x36
	DCSSetScrollStart = 0x37
	DCSSetPixelFormat = 0x3a
	DCSReadMemoryCont = 0x3e
)

// Address mode bits for DCSSetAddressMode.
const (
	AddressModeMirrorY = 0x80
	AddressModeMirrorX = 0x40
	AddressModeSwapXY  = 0x20
	AddressModeBGR     = 0x08
)

// ILI9488 manufacturer commands.
const (
	ili9488IfModeCtl = 0xb0
	ili9488FrmCtr1   = 0xb1
	ili9488InvCtr    = 0xb4
	ili9488DFunCtr   = 0xb6
	ili9488EMSet     = 0xb7
	ili9488PwCtr1    = 0xc0
	ili9488PwCtr2    = 0xc1
	ili9488VmCtr1    = 0xc5
	ili9488PGamCtrl  = 0xe0
	ili9488NGamCtrl  = 0xe1
	ili9488AdjCtrl3  = 0xf7
)

// Controller describes one panel controller model.
type Controller struct {
	Name string
	// Format is the pixel format written to display memory.
	Format gfx.PixelFormat
	// AddressMode is the DCSSetAddressMode value for unrotated output.
	AddressMode uint8
	// Init is an encoded display list of commands and delays.
	Init []byte
}

type initStep struct {
	cmd   uint8
	data  []byte
	delay uint8
}

func encodeInit(steps ...initStep) []byte {
	l := displaylist.New(nil, 256)
	for _, s := range steps {
		if s.delay != 0 {
			l.WriteDelay(s.delay)
			continue
		}
		l.WriteCommand(s.cmd, s.data)
	}
	return append([]byte(nil), l.Content()...)
}

// ILI9488 in SPI mode only accepts 18-bit pixels.
var ILI9488 = Controller{
	Name:        "ILI9488",
	Format:      gfx.PixelFormatRGB24,
	AddressMode: AddressModeMirrorX | AddressModeBGR,
	Init: encodeInit(
		initStep{cmd: DCSSoftReset},
		initStep{delay: 5},
		initStep{cmd: ili9488PwCtr1, data: []byte{0x17, 0x15}},
		initStep{cmd: ili9488PwCtr2, data: []byte{0x41}},
		initStep{cmd: ili9488VmCtr1, data: []byte{0x00, 0x12, 0x80}},
		initStep{cmd: DCSSetPixelFormat, data: []byte{0x66}},
		initStep{cmd: ili9488FrmCtr1, data: []byte{0xa0}},
		initStep{cmd: ili9488DFunCtr, data: []byte{0x02, 0x02, 0x3b}},
		initStep{cmd: ili9488PGamCtrl, data: []byte{0x00, 0x03, 0x09, 0x08, 0x16, 0x0a, 0x3f, 0x78, 0x4c, 0x09, 0x0a, 0x08, 0x16, 0x1a, 0x0f}},
		initStep{cmd: ili9488NGamCtrl, data: []byte{0x00, 0x16, 0x19, 0x03, 0x0f, 0x05, 0x32, 0x45, 0x46, 0x04, 0x0e, 0x0d, 0x35, 0x37, 0x0f}},
		initStep{cmd: ili9488IfModeCtl, data: []byte{0x00}},
		initStep{cmd: ili9488InvCtr, data: []byte{0x02}},
		initStep{cmd: ili9488EMSet, data: []byte{0xc6}},
		initStep{cmd: ili9488AdjCtrl3, data: []byte{0xa9, 0x51, 0x2c, 0x82}},
		initStep{cmd: DCSExitSleepMode},
		initStep{delay: 120},
		initStep{cmd: DCSSetDisplayOn},
	),
}

// PicoCalc is the ILI9488 wired to the PicoCalc carrier, which runs the
// panel at 16 bits per pixel with inversion on.
var PicoCalc = Controller{
	Name:        "PicoCalc",
	Format:      gfx.PixelFormatRGB565,
	AddressMode: AddressModeMirrorX | AddressModeBGR | 0x04,
	Init: encodeInit(
		initStep{cmd: ili9488PwCtr1, data: []byte{0x17, 0x15}},
		initStep{cmd: ili9488PwCtr2, data: []byte{0x41}},
		initStep{cmd: ili9488VmCtr1, data: []byte{0x00, 0x12, 0x80, 0x40}},
		initStep{cmd: DCSSetPixelFormat, data: []byte{0x55}},
		initStep{cmd: ili9488FrmCtr1, data: []byte{0xa0, 0x11}},
		initStep{cmd: ili9488DFunCtr, data: []byte{0x02, 0x22, 0x27}},
		initStep{cmd: DCSEnterInvert},
		initStep{cmd: DCSExitSleepMode},
		initStep{delay: 120},
		initStep{cmd: DCSSetDisplayOn},
	),
}
