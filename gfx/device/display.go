package device

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"sparkgfx/gfx"
	"sparkgfx/gfx/displaylist"
	"sparkgfx/gfx/playback"
	"sparkgfx/hal"
)

// Orientation is the rotation applied through the controller address mode.
type Orientation uint8

const (
	Deg0 Orientation = iota
	Deg90
	Deg180
	Deg270
)

func (o Orientation) String() string {
	switch o {
	case Deg0:
		return "0"
	case Deg90:
		return "90"
	case Deg180:
		return "180"
	case Deg270:
		return "270"
	}
	return fmt.Sprintf("Orientation(%d)", uint8(o))
}

// rotations are XORed into the controller's default address mode.
var rotations = [...]uint8{
	Deg0:   0,
	Deg90:  AddressModeMirrorX | AddressModeSwapXY,
	Deg180: AddressModeMirrorX | AddressModeMirrorY,
	Deg270: AddressModeSwapXY | AddressModeMirrorY,
}

const (
	defaultSurfaceBuffer = 2048
	commandListSize      = 16
)

// Config describes how a Display drives its hardware.
type Config struct {
	Controller Controller
	// Resolution is the controller's pixel memory. Panels smaller than
	// their controller leave part of it unused. Zero means the panel size.
	Resolution  gfx.Size
	Orientation Orientation
	// Scheduler runs present and read callbacks. Nil runs them in the bus
	// completion context.
	Scheduler gfx.Scheduler
	Logger    hal.Logger
}

type job struct {
	list *displaylist.List
	done func()
}

// Display owns a panel controller. Surfaces created from it share its
// address window, so a window left half written by one surface carries on
// in the next.
type Display struct {
	hw     hal.Display
	bus    hal.Bus
	ctrl   Controller
	player *playback.Player
	sched  gfx.Scheduler
	logger hal.Logger

	window     gfx.AddressWindow
	native     gfx.Size
	resolution gfx.Size

	orientation Orientation
	size        gfx.Size
	addrOffset  gfx.Point

	scrollTop    uint16
	scrollHeight uint16
	scrollOffset uint16

	mu      sync.Mutex
	queue   []job
	playing bool
}

// New binds a controller to hw. Call Init before drawing.
func New(hw hal.Display, cfg Config) *Display {
	w, h := hw.NativeSize()
	native := gfx.Size{W: uint16(w), H: uint16(h)}
	res := cfg.Resolution
	if res.W == 0 || res.H == 0 {
		res = native
	}
	d := &Display{
		hw:           hw,
		bus:          hw.Bus(),
		ctrl:         cfg.Controller,
		player:       playback.New(playback.DCS, cfg.Scheduler, cfg.Logger),
		sched:        cfg.Scheduler,
		logger:       cfg.Logger,
		native:       native,
		resolution:   res,
		scrollHeight: res.H,
	}
	d.applyOrientation(cfg.Orientation)
	return d
}

func (d *Display) Controller() Controller       { return d.ctrl }
func (d *Display) Size() gfx.Size               { return d.size }
func (d *Display) NativeSize() gfx.Size         { return d.native }
func (d *Display) Orientation() Orientation     { return d.orientation }
func (d *Display) PixelFormat() gfx.PixelFormat { return d.ctrl.Format }

// Player is the display list player feeding the bus.
func (d *Display) Player() *playback.Player { return d.player }

func (d *Display) logf(format string, args ...any) {
	if d.logger == nil {
		return
	}
	d.logger.WriteLineString(fmt.Sprintf(format, args...))
}

// Init resets the controller, plays its init table and applies the
// configured orientation. It blocks until the panel is ready.
func (d *Display) Init(ctx context.Context) error {
	d.hw.Reset()

	table := displaylist.NewFromBytes(nil, d.ctrl.Init)
	seg := displaylist.New(&d.window, max(len(d.ctrl.Init), commandListSize))
	var e displaylist.Entry
	for table.ReadEntry(&e) {
		switch e.Code {
		case displaylist.CodeCommand:
			seg.WriteCommand(uint8(e.Value), e.Data)
		case displaylist.CodeDelay:
			if err := d.run(ctx, seg); err != nil {
				return err
			}
			if err := sleep(ctx, time.Duration(e.Value)*time.Millisecond); err != nil {
				return err
			}
		default:
			return fmt.Errorf("device: %s init: unexpected %s entry", d.ctrl.Name, e.Code)
		}
	}
	if !table.AtEnd() {
		return fmt.Errorf("device: %s init: bad table at offset %d", d.ctrl.Name, table.ReadOffset())
	}
	d.writeAddressMode(seg)
	if err := d.run(ctx, seg); err != nil {
		return err
	}
	d.logf("device: %s ready, %v %s", d.ctrl.Name, d.size, d.orientation)
	return nil
}

func (d *Display) run(ctx context.Context, l *displaylist.List) error {
	if l.IsEmpty() {
		return nil
	}
	defer l.Reset()
	if err := d.player.Run(ctx, d.bus, l); err != nil {
		return fmt.Errorf("device: %s: %w", d.ctrl.Name, err)
	}
	return nil
}

func sleep(ctx context.Context, dur time.Duration) error {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Display) applyOrientation(o Orientation) {
	if int(o) >= len(rotations) {
		o = Deg0
	}
	d.orientation = o
	d.size = d.native
	d.addrOffset = gfx.Point{}
	switch o {
	case Deg90:
		d.size = gfx.Size{W: d.native.H, H: d.native.W}
	case Deg180:
		d.addrOffset.Y = int16(d.resolution.H) - int16(d.native.H)
	case Deg270:
		d.size = gfx.Size{W: d.native.H, H: d.native.W}
		d.addrOffset.X = int16(d.resolution.H) - int16(d.native.H)
	}
}

func (d *Display) writeAddressMode(l *displaylist.List) bool {
	return l.WriteCommand(DCSSetAddressMode, []byte{d.ctrl.AddressMode ^ rotations[d.orientation]})
}

// SetOrientation rotates subsequent drawing. Existing screen content is
// not moved.
func (d *Display) SetOrientation(o Orientation) bool {
	if int(o) >= len(rotations) {
		return false
	}
	d.applyOrientation(o)
	l := displaylist.New(&d.window, commandListSize)
	d.writeAddressMode(l)
	d.submit(l, nil)
	return true
}

// SetScrollMargins fixes top and bottom rows and scrolls the rest.
func (d *Display) SetScrollMargins(top, bottom uint16) bool {
	l := displaylist.New(&d.window, commandListSize)
	if !d.writeScrollMargins(l, top, bottom) {
		return false
	}
	d.submit(l, nil)
	return true
}

// SetScrollOffset shows the scroll area starting line rows down.
func (d *Display) SetScrollOffset(line uint16) bool {
	l := displaylist.New(&d.window, commandListSize)
	if !d.writeScrollOffset(l, line) {
		return false
	}
	d.submit(l, nil)
	return true
}

func (d *Display) writeScrollMargins(l *displaylist.List, top, bottom uint16) bool {
	h := d.resolution.H
	if uint32(top)+uint32(bottom) > uint32(h) {
		return false
	}
	var b [6]byte
	binary.BigEndian.PutUint16(b[0:], top)
	binary.BigEndian.PutUint16(b[2:], h-top-bottom)
	binary.BigEndian.PutUint16(b[4:], bottom)
	if !l.WriteCommand(DCSSetScrollArea, b[:]) {
		return false
	}
	d.scrollTop = top
	d.scrollHeight = h - top - bottom
	d.scrollOffset = 0
	return true
}

func (d *Display) writeScrollOffset(l *displaylist.List, line uint16) bool {
	if d.scrollHeight != 0 {
		line %= d.scrollHeight
	} else {
		line = 0
	}
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], d.scrollTop+line)
	if !l.WriteCommand(DCSSetScrollStart, b[:]) {
		return false
	}
	d.scrollOffset = line
	return true
}

// swapped reports whether rows and columns are exchanged.
func (d *Display) swapped() bool { return d.orientation == Deg90 || d.orientation == Deg270 }

// deviceRect maps screen coordinates to controller memory, following the
// scroll offset and the unused part of a larger pixel memory. Scrolling
// moves memory rows, so it only shifts y while they are screen rows.
func (d *Display) deviceRect(r gfx.Rect) gfx.Rect {
	y := int(r.Y)
	h := int(d.resolution.H)
	if d.swapped() {
		h = int(d.resolution.W)
	} else if top, vsa := int(d.scrollTop), int(d.scrollHeight); vsa != 0 && y >= top && y < top+vsa {
		y = top + (y-top+int(d.scrollOffset))%vsa
	}
	y += int(d.addrOffset.Y)
	if h != 0 && (y < 0 || y >= h) {
		y = (y%h + h) % h
	}
	r.X += d.addrOffset.X
	r.Y = int16(y)
	return r
}

func (d *Display) later(fn func()) {
	if d.sched == nil || !d.sched.QueueCallback(fn) {
		fn()
	}
}

// submit queues l for playback. Lists play in submission order; done runs
// once l has been sent.
func (d *Display) submit(l *displaylist.List, done func()) {
	d.mu.Lock()
	d.queue = append(d.queue, job{list: l, done: done})
	start := !d.playing
	d.playing = true
	d.mu.Unlock()
	if start {
		d.playNext()
	}
}

func (d *Display) playNext() {
	d.mu.Lock()
	if len(d.queue) == 0 {
		d.playing = false
		d.mu.Unlock()
		return
	}
	j := d.queue[0]
	d.mu.Unlock()
	if !d.player.Play(d.bus, j.list, d.finished) {
		d.logf("device: %s: bus refused display list (%d bytes)", d.ctrl.Name, j.list.Used())
		d.later(d.finished)
	}
}

func (d *Display) finished() {
	d.mu.Lock()
	j := d.queue[0]
	d.queue[0] = job{}
	d.queue = d.queue[1:]
	d.mu.Unlock()
	if j.done != nil {
		j.done()
	}
	d.playNext()
}

// Pending is the number of lists waiting for or in playback.
func (d *Display) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// NewSurface returns a surface recording into a display list of
// bufferSize bytes. Zero picks a default.
func (d *Display) NewSurface(bufferSize int) *Surface {
	if bufferSize <= 0 {
		bufferSize = defaultSurfaceBuffer
	}
	return &Surface{d: d, list: displaylist.New(&d.window, bufferSize)}
}

// CreateSurface is NewSurface for callers that only need a gfx.Surface.
func (d *Display) CreateSurface(bufferSize int) gfx.Surface { return d.NewSurface(bufferSize) }
