//go:build tinygo && baremetal && !picocalc

package hal

type tinyGoHAL struct {
	logger *uartLogger
	t      *tinyGoTime
}

// New returns a Pico 2 (RP2350) HAL implementation without a display.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
func New() HAL {
	return &tinyGoHAL{logger: newUARTLogger(), t: newTinyGoTime()}
}

func (h *tinyGoHAL) Logger() Logger   { return h.logger }
func (h *tinyGoHAL) Display() Display { return nil }
func (h *tinyGoHAL) Input() Input     { return noInput{} }
func (h *tinyGoHAL) Time() Time       { return h.t }
