//go:build !tinygo

package hal

import (
	"os"

	"github.com/sirupsen/logrus"
)

// HostConfig sizes the emulated panel.
type HostConfig struct {
	Width  int
	Height int
	Logger *logrus.Logger
}

type hostHAL struct {
	logger Logger
	panel  *Panel
	bus    *AsyncBus
	kbd    *hostKeyboard
	t      *hostTime
}

// New returns a host HAL with a 320x320 emulated panel.
func New() HAL {
	return NewHost(HostConfig{})
}

// NewHost returns a host HAL whose display is a Panel behind an AsyncBus.
func NewHost(cfg HostConfig) HAL {
	if cfg.Width <= 0 {
		cfg.Width = 320
	}
	if cfg.Height <= 0 {
		cfg.Height = 320
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
		cfg.Logger.SetOutput(os.Stdout)
	}
	panel := NewPanel(cfg.Width, cfg.Height)
	return &hostHAL{
		logger: NewLogrusLogger(logrus.NewEntry(cfg.Logger)),
		panel:  panel,
		bus:    NewAsyncBus(panel),
		kbd:    newHostKeyboard(),
		t:      newHostTime(),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Display() Display { return hostDisplay{h: h} }
func (h *hostHAL) Input() Input     { return hostInput{kbd: h.kbd} }
func (h *hostHAL) Time() Time       { return h.t }

type hostDisplay struct {
	h *hostHAL
}

func (d hostDisplay) Bus() Bus                 { return d.h.bus }
func (d hostDisplay) NativeSize() (int, int)   { return d.h.panel.Width(), d.h.panel.Height() }
func (d hostDisplay) Reset()                   { d.h.panel.Reset() }
func (d hostDisplay) Framebuffer() Framebuffer { return d.h.panel }

type hostInput struct {
	kbd *hostKeyboard
}

func (in hostInput) Keyboard() Keyboard { return in.kbd }

// PanelOf returns the emulated panel behind a host display, or nil.
func PanelOf(d Display) *Panel {
	if hd, ok := d.(hostDisplay); ok {
		return hd.h.panel
	}
	return nil
}

// BusStatsOf returns the counters of a host display bus.
func BusStatsOf(d Display) (BusStats, bool) {
	if hd, ok := d.(hostDisplay); ok {
		return hd.h.bus.Stats(), true
	}
	return BusStats{}, false
}
