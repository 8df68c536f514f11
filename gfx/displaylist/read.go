package displaylist

import "encoding/binary"

// The cursor methods below walk the list from ReadOffset. They do not
// allocate and are safe to call from the bus completion context.

// AtEnd reports whether the read cursor has consumed the list.
func (l *List) AtEnd() bool { return l.offset >= l.size }

// ReadHeader decodes the next entry header.
func (l *List) ReadHeader() (Code, int, bool) {
	if l.offset >= l.size {
		return CodeNone, 0, false
	}
	b := l.buf[l.offset]
	l.offset++
	code := Code(b & 0x0f)
	length := int(b >> 4)
	if length == lenMax {
		length = l.ReadVar()
	}
	return code, length, true
}

// ReadVar decodes a var field.
func (l *List) ReadVar() int {
	if l.offset >= l.size {
		return 0
	}
	v := int(l.buf[l.offset])
	l.offset++
	if v&0x80 == 0 {
		return v
	}
	if l.offset >= l.size {
		return 0
	}
	v = (v&0x7f)<<8 | int(l.buf[l.offset])
	l.offset++
	return v
}

// ReadUint8 consumes one byte.
func (l *List) ReadUint8() uint8 {
	if l.offset >= l.size {
		return 0
	}
	b := l.buf[l.offset]
	l.offset++
	return b
}

// ReadBytes consumes n inline bytes and returns them without copying.
func (l *List) ReadBytes(n int) []byte {
	end := min(l.offset+n, l.size)
	b := l.buf[l.offset:end]
	l.offset = end
	return b
}

func (l *List) readRef() (reference, bool) {
	if l.offset+PtrSize > l.size {
		l.offset = l.size
		return reference{}, false
	}
	h := binary.LittleEndian.Uint32(l.buf[l.offset:])
	l.offset += PtrSize
	if int(h) >= len(l.refs) {
		return reference{}, false
	}
	return l.refs[h], true
}

// ReadData consumes a reference field that points at memory.
func (l *List) ReadData() ([]byte, bool) {
	r, ok := l.readRef()
	return r.data, ok && r.data != nil
}

// ReadCallback consumes a reference field that names a callback.
func (l *List) ReadCallback() (Callback, bool) {
	r, ok := l.readRef()
	return r.cb, ok && r.cb != nil
}

// AlignRead moves the cursor to the next 4-byte boundary.
func (l *List) AlignRead() {
	l.offset = min((l.offset+3)&^3, l.size)
}

// ReadEntry decodes the next entry into e. It returns false at the end of
// the list or on an entry it cannot decode.
func (l *List) ReadEntry(e *Entry) bool {
	code, length, ok := l.ReadHeader()
	if !ok {
		return false
	}
	*e = Entry{Code: code, Length: uint16(length)}
	switch code {
	case CodeCommand:
		e.Value = uint16(l.ReadUint8())
		e.Data = l.ReadBytes(length)
	case CodeRepeat:
		e.Value = uint16(l.ReadVar())
		e.Data = l.ReadBytes(length)
	case CodeSetColumn, CodeSetRow:
		e.Value = uint16(l.ReadVar())
	case CodeWriteStart, CodeWriteData:
		e.Data = l.ReadBytes(length)
	case CodeWriteDataBuffer, CodeReadStart, CodeRead:
		e.Data, ok = l.ReadData()
	case CodeCallback:
		e.Callback, ok = l.ReadCallback()
		if length != 0 {
			l.AlignRead()
			e.Data = l.ReadBytes(length)
		}
	case CodeDelay:
		e.Value = uint16(l.ReadUint8())
		if length != 0 {
			e.Data = l.ReadBytes(length)
		}
	default:
		return false
	}
	return ok
}
