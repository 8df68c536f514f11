package virtual

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"sparkgfx/gfx"
	"sparkgfx/gfx/displaylist"
	"sparkgfx/hal"
)

const (
	defaultSurfaceBuffer = 512
	commandListSize      = 32
	jobQueueSize         = 16
	touchQueueSize       = 32
)

// DefaultSize is the screen size used when Config leaves it empty.
var DefaultSize = gfx.Size{W: 320, H: 480}

// Config describes a connection to a virtual screen.
type Config struct {
	Size gfx.Size
	// Scheduler runs present and read callbacks. Nil runs them on the
	// connection goroutine.
	Scheduler gfx.Scheduler
	Logger    hal.Logger
	// Debug disables the server-side copy, scroll and fill commands so
	// everything goes through the generic renderers.
	Debug bool
}

type job struct {
	list *displaylist.List
	done func()
}

// Display is the client end of a virtual screen. Lists are sent in order
// on one goroutine; replies and touch events are read on another.
type Display struct {
	conn   net.Conn
	w      *bufio.Writer
	sched  gfx.Scheduler
	logger hal.Logger
	debug  bool

	size   gfx.Size
	window gfx.AddressWindow
	scroll scrollArea

	jobs    chan job
	replies chan []byte
	touches chan Touch
	quit    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	lists   atomic.Uint64
	pending atomic.Int32

	mu  sync.Mutex
	err error
}

// Dial connects to a virtual screen server at addr.
func Dial(ctx context.Context, addr string, cfg Config) (*Display, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("virtual: dial %s: %w", addr, err)
	}
	return New(conn, cfg), nil
}

// New runs the protocol over conn and tells the server the screen size.
// The Display owns conn from here on.
func New(conn net.Conn, cfg Config) *Display {
	size := cfg.Size
	if size.Pixels() == 0 {
		size = DefaultSize
	}
	d := &Display{
		conn:    conn,
		w:       bufio.NewWriter(conn),
		sched:   cfg.Scheduler,
		logger:  cfg.Logger,
		debug:   cfg.Debug,
		size:    size,
		jobs:    make(chan job, jobQueueSize),
		replies: make(chan []byte),
		touches: make(chan Touch, touchQueueSize),
		quit:    make(chan struct{}),
	}
	d.wg.Add(2)
	go d.readLoop()
	go d.sendLoop()
	d.command(cmdSetSize, params(nil).u16(size.W).u16(size.H))
	return d
}

func (d *Display) Size() gfx.Size               { return d.size }
func (d *Display) PixelFormat() gfx.PixelFormat { return Format }

// Touches delivers pointer events from the server. Events are dropped
// while the channel is full.
func (d *Display) Touches() <-chan Touch { return d.touches }

// Lists is the number of display lists the server has accepted.
func (d *Display) Lists() uint64 { return d.lists.Load() }

// Pending is the number of lists queued or being sent.
func (d *Display) Pending() int { return int(d.pending.Load()) }

// Err returns the error that stopped the connection, if any.
func (d *Display) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Display) fail(err error) {
	d.mu.Lock()
	first := d.err == nil
	if first {
		d.err = err
	}
	d.mu.Unlock()
	if first && err != ErrClosed {
		d.logf("virtual: connection failed: %v", err)
	}
}

// Close stops both goroutines and closes the connection. Lists submitted
// afterwards complete without being sent.
func (d *Display) Close() error {
	var err error
	d.once.Do(func() {
		d.fail(ErrClosed)
		close(d.quit)
		err = d.conn.Close()
		d.wg.Wait()
		d.drain()
	})
	return err
}

// drain completes lists that were queued but never sent.
func (d *Display) drain() {
	for {
		select {
		case j := <-d.jobs:
			d.finish(j)
		default:
			return
		}
	}
}

func (d *Display) finish(j job) {
	d.pending.Add(-1)
	if j.done != nil {
		d.later(j.done)
	}
}

func (d *Display) logf(format string, args ...any) {
	if d.logger == nil {
		return
	}
	d.logger.WriteLineString(fmt.Sprintf(format, args...))
}

func (d *Display) later(fn func()) {
	if d.sched == nil || !d.sched.QueueCallback(fn) {
		fn()
	}
}

func (d *Display) readLoop() {
	defer d.wg.Done()
	defer close(d.replies)
	r := bufio.NewReader(d.conn)
	for {
		magic, data, err := readPacket(r)
		if err != nil {
			d.fail(err)
			return
		}
		if magic == touchMagic {
			if t, ok := unmarshalTouch(data); ok {
				select {
				case d.touches <- t:
				default:
				}
			}
			continue
		}
		select {
		case d.replies <- data:
		case <-d.quit:
			return
		}
	}
}

func (d *Display) sendLoop() {
	defer d.wg.Done()
	for {
		select {
		case j := <-d.jobs:
			if d.Err() == nil {
				if err := d.send(j.list); err != nil {
					d.fail(err)
				}
			}
			d.finish(j)
		case <-d.quit:
			return
		}
	}
}

// send plays l against the server: the list itself, then the data of
// each writeDataBuffer entry, waiting for the reply of each read and
// running callbacks where they fall.
func (d *Display) send(l *displaylist.List) error {
	l.Prepare(nil)
	if err := writePacket(d.w, packetMagic, l.Content()); err != nil {
		return err
	}
	var e displaylist.Entry
	for l.ReadEntry(&e) {
		switch e.Code {
		case displaylist.CodeWriteDataBuffer:
			if err := writePacket(d.w, packetMagic, e.Data); err != nil {
				return err
			}
		case displaylist.CodeReadStart, displaylist.CodeRead:
			if err := d.w.Flush(); err != nil {
				return err
			}
			reply, ok := <-d.replies
			if !ok {
				if err := d.Err(); err != nil {
					return err
				}
				return io.ErrUnexpectedEOF
			}
			if len(reply) != len(e.Data) {
				return fmt.Errorf("%w: got %d bytes, want %d", ErrBadReply, len(reply), len(e.Data))
			}
			copy(e.Data, reply)
		case displaylist.CodeCallback:
			e.Callback(e.Data)
		}
	}
	if !l.AtEnd() {
		return fmt.Errorf("%w at offset %d", ErrBadList, l.ReadOffset())
	}
	if err := d.w.Flush(); err != nil {
		return err
	}
	d.lists.Add(1)
	return nil
}

// submit queues l for sending; done runs once it has been sent or
// dropped.
func (d *Display) submit(l *displaylist.List, done func()) {
	j := job{list: l, done: done}
	d.pending.Add(1)
	select {
	case <-d.quit:
		d.finish(j)
		return
	default:
	}
	select {
	case d.jobs <- j:
	case <-d.quit:
		d.finish(j)
	}
}

func (d *Display) command(cmd uint8, p params) bool {
	l := displaylist.New(&d.window, commandListSize)
	if !l.WriteCommand(cmd, p) {
		return false
	}
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
	a := d.scroll
	if !a.setMargins(d.size.H, top, bottom) {
		return false
	}
	if !l.WriteCommand(cmdSetScrollMargins, params(nil).u16(top).u16(bottom)) {
		return false
	}
	d.scroll = a
	return true
}

func (d *Display) writeScrollOffset(l *displaylist.List, line uint16) bool {
	a := d.scroll
	line = a.setOffset(line)
	if !l.WriteCommand(cmdSetScrollOffset, params(nil).u16(line)) {
		return false
	}
	d.scroll = a
	return true
}

// screenRect maps screen coordinates to framebuffer rows, following the
// scroll offset.
func (d *Display) screenRect(r gfx.Rect) gfx.Rect {
	r.Y = int16(d.scroll.memoryRow(int(r.Y)))
	return r
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
