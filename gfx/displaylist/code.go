// Package displaylist encodes display commands into a compact byte buffer
// that a bus driver can stream to the panel without further help from the
// renderer.
//
// Each entry starts with a header byte holding the code in the low nibble
// and a length in the high nibble. A length of 15 means the real length
// follows as a variable-length number: one byte for values below 0x80,
// otherwise two bytes big-endian with the top bit set.
package displaylist

import "fmt"

// Code identifies a display list entry.
type Code uint8

const (
	CodeNone Code = iota
	// CodeCommand carries a controller command byte and its arguments.
	CodeCommand
	// CodeRepeat sends a short pattern many times.
	CodeRepeat
	// CodeSetColumn and CodeSetRow set the address window. The header length
	// holds the extent minus one, the start follows as a var.
	CodeSetColumn
	CodeSetRow
	// CodeWriteStart begins a memory write, CodeWriteData continues one.
	CodeWriteStart
	CodeWriteData
	// CodeWriteDataBuffer writes from a locked shared buffer.
	CodeWriteDataBuffer
	// CodeReadStart begins a memory read, CodeRead continues one.
	CodeReadStart
	CodeRead
	// CodeCallback runs a function during playback, with 4-byte aligned
	// parameters copied into the list.
	CodeCallback
	// CodeDelay pauses playback for a number of milliseconds.
	CodeDelay
)

var codeNames = [...]string{
	"none", "command", "repeat", "setColumn", "setRow", "writeStart",
	"writeData", "writeDataBuffer", "readStart", "read", "callback", "delay",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("code(%d)", uint8(c))
}

const (
	// PtrSize is the width of a reference field. References are
	// little-endian indices into the list's reference table.
	PtrSize = 4

	// MaxLockedBuffers is the size of the lock table.
	MaxLockedBuffers = 8

	// MaxVar is the largest value a var field can hold.
	MaxVar = 0x7fff

	lenMax     = 15
	headerSize = 3
)

var argLens = [...]int{
	CodeNone:            0,
	CodeCommand:         3,
	CodeRepeat:          5,
	CodeSetColumn:       4,
	CodeSetRow:          4,
	CodeWriteStart:      2,
	CodeWriteData:       2,
	CodeWriteDataBuffer: 2 + PtrSize,
	CodeReadStart:       2 + PtrSize,
	CodeRead:            2 + PtrSize,
	CodeCallback:        2 + PtrSize + 3,
	CodeDelay:           1,
}

// CodeLen is the most bytes an entry of this code needs, excluding any
// payload.
func CodeLen(c Code) int {
	if int(c) >= len(argLens) {
		return 1
	}
	return 1 + argLens[c]
}

// Entry is one decoded display list entry.
type Entry struct {
	Code Code
	// Length is the header length: payload size, or extent minus one for
	// set-window entries.
	Length uint16
	// Value is the command byte, window start, repeat count or delay.
	Value uint16
	// Data is the payload or the referenced memory.
	Data     []byte
	Callback Callback
}

func (e Entry) String() string {
	switch e.Code {
	case CodeCommand:
		return fmt.Sprintf("%s 0x%02x % x", e.Code, e.Value, e.Data)
	case CodeSetColumn, CodeSetRow:
		return fmt.Sprintf("%s %d..%d", e.Code, e.Value, int(e.Value)+int(e.Length))
	case CodeRepeat:
		return fmt.Sprintf("%s %d x % x", e.Code, e.Value, e.Data)
	case CodeDelay:
		return fmt.Sprintf("%s %dms", e.Code, e.Value)
	case CodeWriteDataBuffer, CodeReadStart, CodeRead:
		return fmt.Sprintf("%s %d bytes", e.Code, e.Length)
	case CodeCallback:
		return fmt.Sprintf("%s params % x", e.Code, e.Data)
	}
	if len(e.Data) > 16 {
		return fmt.Sprintf("%s %d bytes % x ...", e.Code, e.Length, e.Data[:16])
	}
	return fmt.Sprintf("%s %d bytes % x", e.Code, e.Length, e.Data)
}

// Callback runs during playback with the parameter blob stored in the list.
// It must not block.
type Callback func(params []byte)
