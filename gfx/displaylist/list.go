package displaylist

import (
	"encoding/binary"

	"sparkgfx/gfx"
)

type reference struct {
	data []byte
	cb   Callback
}

// List is a fixed-capacity display list. Appends either fit completely or
// write nothing and return false; the caller then stops and retries once
// the list has been played back and reset.
//
// A List is owned by one goroutine at a time: the producer while idle, the
// player while a transaction is running.
type List struct {
	buf    []byte
	size   int
	offset int

	window *gfx.AddressWindow
	locks  [MaxLockedBuffers]*gfx.SharedBuffer
	locked int
	refs   []reference

	done func()
}

// New returns an empty list of the given capacity bound to window.
func New(window *gfx.AddressWindow, capacity int) *List {
	if window == nil {
		window = &gfx.AddressWindow{}
	}
	return &List{buf: make([]byte, capacity), window: window}
}

// NewFromBytes wraps an already encoded table, such as a controller init
// sequence. It must contain inline entries only.
func NewFromBytes(window *gfx.AddressWindow, data []byte) *List {
	l := New(window, len(data))
	l.size = copy(l.buf, data)
	return l
}

// Reset empties the list and drops every lock and reference.
func (l *List) Reset() {
	l.size = 0
	l.offset = 0
	for i := 0; i < l.locked; i++ {
		l.locks[i].Release()
		l.locks[i] = nil
	}
	l.locked = 0
	clear(l.refs)
	l.refs = l.refs[:0]
	l.done = nil
}

func (l *List) Capacity() int       { return len(l.buf) }
func (l *List) Used() int           { return l.size }
func (l *List) FreeSpace() int      { return len(l.buf) - l.size }
func (l *List) IsEmpty() bool       { return l.size == 0 }
func (l *List) Require(n int) bool  { return n <= l.FreeSpace() }
func (l *List) Content() []byte     { return l.buf[:l.size] }
func (l *List) ReadOffset() int     { return l.offset }
func (l *List) Locked() int         { return l.locked }
func (l *List) CanLockBuffer() bool { return l.locked < MaxLockedBuffers }

// Window is the address window the list keeps up to date.
func (l *List) Window() *gfx.AddressWindow { return l.window }

// LockBuffer keeps buf alive until the next Reset. It fails when the lock
// table is full.
func (l *List) LockBuffer(buf *gfx.SharedBuffer) bool {
	if !l.CanLockBuffer() {
		return false
	}
	l.locks[l.locked] = buf.AddRef()
	l.locked++
	return true
}

// Prepare rewinds the read cursor and records the function to run once
// playback reaches the end.
func (l *List) Prepare(done func()) {
	l.offset = 0
	l.done = done
}

// Completion returns the function given to Prepare.
func (l *List) Completion() func() { return l.done }

func (l *List) writeCode() Code {
	if l.window.SetMode(gfx.WindowWrite) {
		return CodeWriteStart
	}
	return CodeWriteData
}

func (l *List) readCode() Code {
	if l.window.SetMode(gfx.WindowRead) {
		return CodeReadStart
	}
	return CodeRead
}

func (l *List) writeVar(v int) {
	if v < 0x80 {
		l.buf[l.size] = byte(v)
		l.size++
		return
	}
	l.buf[l.size] = byte(v>>8) | 0x80
	l.buf[l.size+1] = byte(v)
	l.size += 2
}

func (l *List) writeHeader(code Code, length int) {
	if length < lenMax {
		l.buf[l.size] = byte(code) | byte(length)<<4
		l.size++
		return
	}
	l.buf[l.size] = byte(code) | lenMax<<4
	l.size++
	l.writeVar(length)
}

func (l *List) write(data []byte) {
	l.size += copy(l.buf[l.size:], data)
}

func (l *List) addRef(r reference) uint32 {
	l.refs = append(l.refs, r)
	return uint32(len(l.refs) - 1)
}

func (l *List) writeRef(r reference) {
	binary.LittleEndian.PutUint32(l.buf[l.size:], l.addRef(r))
	l.size += PtrSize
}

func (l *List) alignSize() {
	for l.size&3 != 0 {
		l.buf[l.size] = 0
		l.size++
	}
}

// Buffer hands out free space for direct pixel writes, or nil when fewer
// than minBytes remain. Follow with Commit.
func (l *List) Buffer(minBytes int) []byte {
	avail := l.FreeSpace() - headerSize
	if avail <= 0 || avail < minBytes {
		return nil
	}
	return l.buf[l.size+headerSize:]
}

// Commit publishes n bytes written into the slice returned by Buffer.
func (l *List) Commit(n int) {
	if n <= 0 {
		return
	}
	l.writeHeader(l.writeCode(), 0x8000|n)
	l.size += n
}

// WriteCommand appends a raw controller command. It leaves the window mode
// undefined so the next pixel write restarts memory access.
func (l *List) WriteCommand(cmd uint8, data []byte) bool {
	if len(data) > MaxVar || !l.Require(CodeLen(CodeCommand)+len(data)) {
		return false
	}
	l.window.Mode = gfx.WindowNone
	l.writeHeader(CodeCommand, len(data))
	l.buf[l.size] = cmd
	l.size++
	l.write(data)
	return true
}

// WriteData appends inline pixel data.
func (l *List) WriteData(data []byte) bool {
	if len(data) > MaxVar || !l.Require(CodeLen(CodeWriteData)+len(data)) {
		return false
	}
	l.writeHeader(l.writeCode(), len(data))
	l.write(data)
	return true
}

// WriteDataBuffer appends a reference to length bytes of buf from offset
// and locks buf. A full lock table is reported as false like a full list.
func (l *List) WriteDataBuffer(buf *gfx.SharedBuffer, offset, length int) bool {
	if !buf.Valid() || offset < 0 || length > MaxVar || offset+length > buf.Size() {
		return false
	}
	if !l.CanLockBuffer() {
		return false
	}
	need := CodeLen(CodeWriteDataBuffer)
	if l.window.Mode != gfx.WindowWrite {
		need += CodeLen(CodeWriteStart)
	}
	if !l.Require(need) {
		return false
	}
	if l.window.SetMode(gfx.WindowWrite) {
		l.writeHeader(CodeWriteStart, 0)
	}
	l.writeHeader(CodeWriteDataBuffer, length)
	l.writeRef(reference{data: buf.Bytes()[offset : offset+length]})
	l.LockBuffer(buf)
	return true
}

// BlockFill writes data repeat times. Large counts are handled by storing
// several copies of the pattern so the count fits a var field; any
// remainder follows as inline data.
func (l *List) BlockFill(data []byte, repeat uint32) bool {
	if repeat < 2 {
		return l.WriteData(data)
	}
	if len(data) == 0 {
		return true
	}
	copies := 1
	if repeat > MaxVar {
		copies = int((repeat + MaxVar - 1) / MaxVar)
	}
	blockLength := copies * len(data)
	count := int(repeat) / copies
	rem := int(repeat) % copies
	if blockLength > MaxVar {
		return false
	}
	need := CodeLen(CodeWriteStart) + CodeLen(CodeRepeat) + blockLength
	if rem != 0 {
		need += CodeLen(CodeWriteData) + rem*len(data)
	}
	if !l.Require(need) {
		return false
	}
	if l.window.SetMode(gfx.WindowWrite) {
		l.writeHeader(CodeWriteStart, 0)
	}
	l.writeHeader(CodeRepeat, blockLength)
	l.writeVar(count)
	for i := 0; i < copies; i++ {
		l.write(data)
	}
	if rem != 0 {
		l.writeHeader(CodeWriteData, rem*len(data))
		for i := 0; i < rem; i++ {
			l.write(data)
		}
	}
	return true
}

func (l *List) windowLen() int { return CodeLen(CodeSetColumn) + CodeLen(CodeSetRow) }

// SetAddrWindow appends column and row entries and rebinds the window.
// An empty rectangle only updates the window.
func (l *List) SetAddrWindow(r gfx.Rect) bool {
	if r.Empty() {
		l.window.SetRect(r)
		return true
	}
	if !l.Require(l.windowLen()) {
		return false
	}
	l.internalSetAddrWindow(r)
	return true
}

func (l *List) internalSetAddrWindow(r gfx.Rect) {
	l.writeHeader(CodeSetColumn, int(r.W)-1)
	l.writeVar(int(uint16(r.X)) & MaxVar)
	l.writeHeader(CodeSetRow, int(r.H)-1)
	l.writeVar(int(uint16(r.Y)) & MaxVar)
	l.window.SetRect(r)
}

// SetPixel writes one pixel of bpp bytes.
func (l *List) SetPixel(c gfx.PackedColor, bpp int, pt gfx.Point) bool {
	if !l.Require(l.windowLen() + CodeLen(CodeWriteStart) + bpp) {
		return false
	}
	l.internalSetAddrWindow(gfx.Rect{X: pt.X, Y: pt.Y, W: 1, H: 1})
	var px [4]byte
	for i := 0; i < bpp && i < len(px); i++ {
		px[i] = byte(c.Value >> (8 * i))
	}
	return l.WriteData(px[:bpp])
}

// ReadMem queues a read into dst. The caller keeps dst alive, normally by
// locking its shared buffer.
func (l *List) ReadMem(dst []byte) bool {
	if len(dst) == 0 || len(dst) > MaxVar || !l.Require(CodeLen(CodeRead)) {
		return false
	}
	l.writeHeader(l.readCode(), len(dst))
	l.writeRef(reference{data: dst})
	return true
}

// WriteCallback queues cb to run during playback with a copy of params.
func (l *List) WriteCallback(cb Callback, params []byte) bool {
	if cb == nil || len(params) > MaxVar || !l.Require(CodeLen(CodeCallback)+len(params)) {
		return false
	}
	l.writeHeader(CodeCallback, len(params))
	l.writeRef(reference{cb: cb})
	if len(params) != 0 {
		l.alignSize()
		l.write(params)
	}
	return true
}

// WriteDelay pauses playback for ms milliseconds.
func (l *List) WriteDelay(ms uint8) bool {
	if !l.Require(CodeLen(CodeDelay)) {
		return false
	}
	l.writeHeader(CodeDelay, 0)
	l.buf[l.size] = ms
	l.size++
	return true
}
