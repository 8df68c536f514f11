package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// BusRequest is one transaction on the display bus: an optional command
// byte sent with DC low, then Out sent Repeat times (once when Repeat is
// zero), then Dummy clock bits and a read into In.
//
// The bus owns the request from Execute until Callback returns.
type BusRequest struct {
	Cmd    uint8
	CmdLen uint8
	Out    []byte
	Repeat uint32
	Dummy  uint8
	In     []byte

	// MaxTransaction, when non-zero, caps the bytes the hardware moves in
	// one burst. Controllers that cannot sustain long reads need it.
	MaxTransaction uint16

	// Callback runs in the bus completion context once the transfer is
	// done. It may submit the next request.
	Callback func(req *BusRequest)
}

// Reset clears everything but the callback.
func (r *BusRequest) Reset() {
	cb := r.Callback
	*r = BusRequest{Callback: cb}
}

// OutLen is the number of bytes the data phase sends.
func (r *BusRequest) OutLen() int {
	return len(r.Out) * int(max(r.Repeat, 1))
}

// Bus runs transactions asynchronously, one at a time. Execute returns
// false when a transaction is already in flight.
type Bus interface {
	Execute(req *BusRequest) bool
}

// Framebuffer is the visible image of a display, read back for previews.
type Framebuffer interface {
	Width() int
	Height() int
	// SnapshotRGBA copies the visible pixels into dst as 8-bit RGBA rows.
	SnapshotRGBA(dst []byte)
}

// Display is a panel controller reached through a bus.
type Display interface {
	Bus() Bus
	// NativeSize is the controller's pixel array before rotation.
	NativeSize() (w, h int)
	// Reset pulses the hardware reset line, where there is one.
	Reset()
	// Framebuffer is nil on real hardware.
	Framebuffer() Framebuffer
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
)

// KeyEvent is a keyboard event.
type KeyEvent struct {
	Code  KeyCode
	Press bool
	Rune  rune
}

// Keyboard provides key events (best-effort on each platform).
type Keyboard interface {
	Events() <-chan KeyEvent
}

// Input provides access to input devices (if available).
type Input interface {
	Keyboard() Keyboard
}

// Time provides a base tick stream.
//
// The tick duration is platform-defined; higher-level timers live in the
// kernel.
type Time interface {
	Ticks() <-chan uint64
}

// HAL provides the only contact point between the renderer and the outside
// world.
type HAL interface {
	Logger() Logger
	Display() Display
	Input() Input
	Time() Time
}
