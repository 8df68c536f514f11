//go:build tinygo && baremetal && picocalc

package hal

import (
	"errors"
	"machine"
	"time"
)

// ili9488 drives the panel's SPI lines. Controller setup is left to the
// caller's init sequence; this type only moves bytes.
type ili9488 struct {
	spi machine.SPI
	cs  machine.Pin
	dc  machine.Pin
	rst machine.Pin
	bus *AsyncBus
}

func initILI9488() (*ili9488, error) {
	if machine.SPI1 == nil {
		return nil, errors.New("SPI1 unavailable")
	}

	machine.SPI1.Configure(machine.SPIConfig{
		SCK:       machine.GP10,
		SDO:       machine.GP11,
		SDI:       machine.GP12,
		Frequency: 40_000_000,
	})

	lcd := &ili9488{
		spi: *machine.SPI1,
		cs:  machine.GP13,
		dc:  machine.GP14,
		rst: machine.GP15,
	}

	lcd.cs.Configure(machine.PinConfig{Mode: machine.PinOutput})
	lcd.dc.Configure(machine.PinConfig{Mode: machine.PinOutput})
	lcd.rst.Configure(machine.PinConfig{Mode: machine.PinOutput})
	lcd.cs.High()
	lcd.dc.High()
	lcd.rst.High()

	lcd.bus = NewAsyncBus(lcd)
	return lcd, nil
}

func (d *ili9488) Bus() Bus                 { return d.bus }
func (d *ili9488) NativeSize() (int, int)   { return 320, 480 }
func (d *ili9488) Framebuffer() Framebuffer { return nil }

func (d *ili9488) Reset() {
	d.rst.Low()
	time.Sleep(64 * time.Millisecond)
	d.rst.High()
	time.Sleep(140 * time.Millisecond)
}

// Transfer clocks one request out with chip select held low.
func (d *ili9488) Transfer(req *BusRequest) {
	d.cs.Low()
	if req.CmdLen != 0 {
		d.dc.Low()
		d.spi.Transfer(req.Cmd)
	}
	d.dc.High()
	if len(req.Out) != 0 {
		for i := uint32(0); i < max(req.Repeat, 1); i++ {
			d.spi.Tx(req.Out, nil)
		}
	}
	if len(req.In) != 0 {
		for i := 0; i < int(req.Dummy)/8; i++ {
			d.spi.Transfer(0)
		}
		d.spi.Tx(nil, req.In)
	}
	d.cs.High()
}
