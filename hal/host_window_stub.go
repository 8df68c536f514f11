//go:build !tinygo && !cgo

package hal

import "errors"

var errNoWindow = errors.New("hal: window mode requires cgo (build/run with CGO_ENABLED=1)")

func RunWindow(_ func(h HAL) func() error) error {
	return errNoWindow
}

// RunFramebufferWindow is unavailable without cgo.
func RunFramebufferWindow(_ string, _ Framebuffer, _ func() error) error {
	return errNoWindow
}

func PointerState() (x, y int, pressed bool) { return 0, 0, false }
