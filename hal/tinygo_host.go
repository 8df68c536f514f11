//go:build tinygo && !baremetal

package hal

import "time"

type tinyGoHostHAL struct {
	logger tinyGoHostLogger
	panel  *Panel
	bus    *AsyncBus
	t      *tinyGoTime
}

// New returns a TinyGo-on-host HAL implementation.
//
// This is used by `tinygo run` targets like linux/wasm where there is no MCU
// pin mapping. The display is the panel emulator.
func New() HAL {
	panel := NewPanel(320, 320)
	return &tinyGoHostHAL{
		panel: panel,
		bus:   NewAsyncBus(panel),
		t:     newTinyGoTime(),
	}
}

func (h *tinyGoHostHAL) Logger() Logger   { return h.logger }
func (h *tinyGoHostHAL) Display() Display { return tinyGoHostDisplay{h: h} }
func (h *tinyGoHostHAL) Input() Input     { return noInput{} }
func (h *tinyGoHostHAL) Time() Time       { return h.t }

type tinyGoHostDisplay struct {
	h *tinyGoHostHAL
}

func (d tinyGoHostDisplay) Bus() Bus                 { return d.h.bus }
func (d tinyGoHostDisplay) NativeSize() (int, int)   { return d.h.panel.Width(), d.h.panel.Height() }
func (d tinyGoHostDisplay) Reset()                   { d.h.panel.Reset() }
func (d tinyGoHostDisplay) Framebuffer() Framebuffer { return d.h.panel }

type tinyGoHostLogger struct{}

func (tinyGoHostLogger) WriteLineString(s string) { println(s) }
func (tinyGoHostLogger) WriteLineBytes(b []byte)  { println(string(b)) }

type noInput struct{}

func (noInput) Keyboard() Keyboard { return noKeyboard{} }

type noKeyboard struct{}

func (noKeyboard) Events() <-chan KeyEvent { return nil }

type tinyGoTime struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoTime() *tinyGoTime {
	t := &tinyGoTime{ch: make(chan uint64, 16)}
	go func() {
		ticker := time.NewTicker(1 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoTime) Ticks() <-chan uint64 { return t.ch }
