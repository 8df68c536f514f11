//go:build tinygo && baremetal && picocalc

package hal

type picoCalcHAL struct {
	logger *uartLogger
	disp   Display
	t      *tinyGoTime
}

// New returns a PicoCalc HAL implementation (Pico/Pico2 on the PicoCalc
// carrier): UART0 logging and the ILI9488 panel on SPI1.
func New() HAL {
	h := &picoCalcHAL{logger: newUARTLogger(), t: newTinyGoTime()}
	if lcd, err := initILI9488(); err == nil {
		h.disp = lcd
	} else {
		h.logger.WriteLineString("hal: display: " + err.Error())
	}
	return h
}

func (h *picoCalcHAL) Logger() Logger   { return h.logger }
func (h *picoCalcHAL) Display() Display { return h.disp }
func (h *picoCalcHAL) Input() Input     { return noInput{} }
func (h *picoCalcHAL) Time() Time       { return h.t }
