// Command dldump prints the entries of an encoded display list.
//
//	dldump [-x] list.bin
//
// Reference fields are shown as raw indices since the buffers and
// callbacks they name only exist in the process that built the list.
package main

import (
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	"sparkgfx/gfx/displaylist"
)

func main() {
	showData := flag.Bool("x", false, "Print inline data as hex.")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: dldump [-x] <list-file>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := dump(os.Stdout, data, *showData); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// dump writes one line per entry of the list in data.
func dump(w io.Writer, data []byte, showData bool) error {
	l := displaylist.NewFromBytes(nil, data)
	entries := 0
	for !l.AtEnd() {
		off := l.ReadOffset()
		code, n, _ := l.ReadHeader()
		var line string
		var inline []byte
		short := false
		take := func(k int) []byte {
			b := l.ReadBytes(k)
			short = short || len(b) < k
			return b
		}
		ref := func() uint32 {
			b := take(displaylist.PtrSize)
			if short {
				return 0
			}
			return binary.LittleEndian.Uint32(b)
		}
		switch code {
		case displaylist.CodeCommand:
			cmd := l.ReadUint8()
			inline = take(n)
			line = fmt.Sprintf("cmd=%#02x args=%d", cmd, n)
		case displaylist.CodeRepeat:
			count := l.ReadVar()
			inline = take(n)
			line = fmt.Sprintf("pattern=%d count=%d", n, count)
		case displaylist.CodeSetColumn, displaylist.CodeSetRow:
			start := l.ReadVar()
			line = fmt.Sprintf("start=%d end=%d", start, start+n)
		case displaylist.CodeWriteStart, displaylist.CodeWriteData:
			inline = take(n)
			line = fmt.Sprintf("bytes=%d", n)
		case displaylist.CodeWriteDataBuffer, displaylist.CodeReadStart, displaylist.CodeRead:
			line = fmt.Sprintf("bytes=%d ref=%d", n, ref())
		case displaylist.CodeCallback:
			idx := ref()
			if n != 0 {
				l.AlignRead()
				inline = take(n)
			}
			line = fmt.Sprintf("ref=%d params=%d", idx, n)
		case displaylist.CodeDelay:
			ms := l.ReadUint8()
			inline = take(n)
			line = fmt.Sprintf("ms=%d", ms)
		default:
			return fmt.Errorf("dldump: unknown %s entry at offset %d", code, off)
		}
		if short {
			return fmt.Errorf("dldump: truncated %s entry at offset %d", code, off)
		}
		fmt.Fprintf(w, "%6d  %-15s %s\n", off, code, line)
		if showData && len(inline) != 0 {
			fmt.Fprintf(w, "        %s\n", hex.EncodeToString(inline))
		}
		entries++
	}
	fmt.Fprintf(w, "%d entries, %d bytes\n", entries, len(data))
	return nil
}
