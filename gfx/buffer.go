package gfx

// SharedBuffer is a reference-counted block of pixel memory. It is not
// safe for concurrent use; counts change only on the render goroutine.
type SharedBuffer struct {
	data []byte
	refs int
}

// NewSharedBuffer returns a buffer holding one reference.
func NewSharedBuffer(size int) *SharedBuffer {
	return &SharedBuffer{data: make([]byte, size), refs: 1}
}

// AddRef takes another reference and returns b.
func (b *SharedBuffer) AddRef() *SharedBuffer {
	if b != nil && b.data != nil {
		b.refs++
	}
	return b
}

// Release drops a reference. The memory goes when the last one does.
func (b *SharedBuffer) Release() {
	if b == nil || b.refs == 0 {
		return
	}
	b.refs--
	if b.refs == 0 {
		b.data = nil
	}
}

func (b *SharedBuffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

func (b *SharedBuffer) Size() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

func (b *SharedBuffer) RefCount() int {
	if b == nil {
		return 0
	}
	return b.refs
}

func (b *SharedBuffer) Valid() bool { return b != nil && b.data != nil }

// ReadBuffer is the destination of a surface read. Offset is where the
// first byte lands within Data.
type ReadBuffer struct {
	Data   *SharedBuffer
	Offset int
	Format PixelFormat
}

func NewReadBuffer(format PixelFormat, size int) ReadBuffer {
	return ReadBuffer{Data: NewSharedBuffer(size), Format: format}
}

// Size is the space available for pixel data.
func (rb *ReadBuffer) Size() int {
	return max(rb.Data.Size()-rb.Offset, 0)
}

// Bytes returns the writable region.
func (rb *ReadBuffer) Bytes() []byte {
	if !rb.Data.Valid() || rb.Offset > rb.Data.Size() {
		return nil
	}
	return rb.Data.Bytes()[rb.Offset:]
}

// ReadStatus reports a completed read.
type ReadStatus struct {
	BytesRead    int
	Format       PixelFormat
	ReadComplete bool
}

// ReadStatusBuffer pairs a buffer with its status for double-buffered
// read-modify-write loops.
type ReadStatusBuffer struct {
	ReadBuffer
	Status ReadStatus
}

func NewReadStatusBuffer(format PixelFormat, size int) ReadStatusBuffer {
	return ReadStatusBuffer{ReadBuffer: NewReadBuffer(format, size)}
}

// ReadCallback runs once a queued read has landed. length is in bytes.
type ReadCallback func(buf *ReadBuffer, length int)
