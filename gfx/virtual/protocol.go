// Package virtual draws on a remote screen. The client sends display lists
// over a stream connection; the server replays them into a framebuffer.
//
// Every message is a packet: a little-endian header {magic, length}
// followed by length bytes. A list travels as one packet, then each
// writeDataBuffer entry sends its data as a further packet and each read
// entry waits for a reply packet of exactly the requested size. Touch
// packets from the server may arrive between replies.
package virtual

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"sparkgfx/gfx"
)

const (
	packetMagic uint32 = 0x3facbe5a
	touchMagic  uint32 = 0x3facbe5b

	headerSize = 8
	// maxPacket bounds what a peer may ask us to allocate.
	maxPacket = 1 << 20
)

// Format is the pixel layout of the remote framebuffer and of read replies.
const Format = gfx.PixelFormatRGB24

// Commands carried in display list command entries. They take the place of
// controller commands and run on the server.
const (
	cmdSetSize          uint8 = 0
	cmdCopyPixels       uint8 = 1
	cmdScroll           uint8 = 2
	cmdFill             uint8 = 3
	cmdSetScrollMargins uint8 = 4
	cmdSetScrollOffset  uint8 = 5
)

var (
	ErrBadMagic  = errors.New("virtual: bad packet magic")
	ErrTooLarge  = errors.New("virtual: packet too large")
	ErrBadList   = errors.New("virtual: malformed display list")
	ErrBadReply  = errors.New("virtual: read reply size mismatch")
	ErrClosed    = errors.New("virtual: display closed")
	ErrBadParams = errors.New("virtual: bad command parameters")
)

func writePacket(w io.Writer, magic uint32, data []byte) error {
	var hdr [headerSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], magic)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(data)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// readPacket returns the magic and payload of the next packet. A short
// read after the header is io.ErrUnexpectedEOF.
func readPacket(r io.Reader) (uint32, []byte, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}
	magic := binary.LittleEndian.Uint32(hdr[0:])
	if magic != packetMagic && magic != touchMagic {
		return 0, nil, fmt.Errorf("%w %#x", ErrBadMagic, magic)
	}
	n := binary.LittleEndian.Uint32(hdr[4:])
	if n > maxPacket {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, err
	}
	return magic, data, nil
}

// Touch is a pointer event reported by the server.
type Touch struct {
	X, Y    int16
	Pressed bool
}

const touchSize = 5

func (t Touch) marshal() []byte {
	b := make([]byte, touchSize)
	binary.LittleEndian.PutUint16(b[0:], uint16(t.X))
	binary.LittleEndian.PutUint16(b[2:], uint16(t.Y))
	if t.Pressed {
		b[4] = 1
	}
	return b
}

func unmarshalTouch(b []byte) (Touch, bool) {
	if len(b) < touchSize {
		return Touch{}, false
	}
	return Touch{
		X:       int16(binary.LittleEndian.Uint16(b[0:])),
		Y:       int16(binary.LittleEndian.Uint16(b[2:])),
		Pressed: b[4]&1 != 0,
	}, true
}

// params packs command arguments, all little-endian.
type params []byte

func (p params) u16(v uint16) params { return binary.LittleEndian.AppendUint16(p, v) }
func (p params) i16(v int16) params  { return p.u16(uint16(v)) }
func (p params) u32(v uint32) params { return binary.LittleEndian.AppendUint32(p, v) }

func (p params) point(pt gfx.Point) params { return p.i16(pt.X).i16(pt.Y) }
func (p params) rect(r gfx.Rect) params    { return p.i16(r.X).i16(r.Y).u16(r.W).u16(r.H) }

// decoder reads command arguments back. A short buffer leaves err set and
// yields zeros.
type decoder struct {
	b   []byte
	err error
}

func (d *decoder) take(n int) []byte {
	if len(d.b) < n {
		d.err = ErrBadParams
		d.b = nil
		return make([]byte, n)
	}
	v := d.b[:n]
	d.b = d.b[n:]
	return v
}

func (d *decoder) u8() uint8   { return d.take(1)[0] }
func (d *decoder) u16() uint16 { return binary.LittleEndian.Uint16(d.take(2)) }
func (d *decoder) i16() int16  { return int16(d.u16()) }
func (d *decoder) u32() uint32 { return binary.LittleEndian.Uint32(d.take(4)) }

func (d *decoder) point() gfx.Point { return gfx.Point{X: d.i16(), Y: d.i16()} }

func (d *decoder) rect() gfx.Rect {
	return gfx.Rect{X: d.i16(), Y: d.i16(), W: d.u16(), H: d.u16()}
}

func (d *decoder) size() gfx.Size { return gfx.Size{W: d.u16(), H: d.u16()} }

const (
	scrollWrapX = 1 << iota
	scrollWrapY
)

// scrollArea is a vertical scroll region. Screen rows inside it show
// memory rows offset further down, wrapping within the area.
type scrollArea struct {
	top, height, offset uint16
}

func (a scrollArea) memoryRow(y int) int {
	top, vsa := int(a.top), int(a.height)
	if vsa == 0 || y < top || y >= top+vsa {
		return y
	}
	return top + (y-top+int(a.offset))%vsa
}

// setMargins fixes top and bottom rows of a screen h rows high. The area
// must keep at least one row.
func (a *scrollArea) setMargins(h, top, bottom uint16) bool {
	if uint32(top)+uint32(bottom) >= uint32(h) {
		return false
	}
	*a = scrollArea{top: top, height: h - top - bottom}
	return true
}

func (a *scrollArea) setOffset(line uint16) uint16 {
	if a.height == 0 {
		a.offset = 0
	} else {
		a.offset = line % a.height
	}
	return a.offset
}
