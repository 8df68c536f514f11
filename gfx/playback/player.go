// Package playback streams a display list to a panel bus. The player runs
// in the bus completion context: it turns the next list entry into a bus
// request each time the previous one finishes.
package playback

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"

	"sparkgfx/gfx"
	"sparkgfx/gfx/displaylist"
	"sparkgfx/hal"
)

// Commands are the controller command bytes for the window and memory
// access entries.
type Commands struct {
	SetColumn  uint8
	SetRow     uint8
	ReadStart  uint8
	Read       uint8
	WriteStart uint8
}

// DCS is the MIPI Display Command Set.
var DCS = Commands{
	SetColumn:  0x2a,
	SetRow:     0x2b,
	ReadStart:  0x2e,
	Read:       0x3e,
	WriteStart: 0x2c,
}

const (
	// repeatScratch holds pre-expanded copies of short repeat patterns.
	repeatScratch = 64
	// readDummyBits is clocked between a read command and its data.
	readDummyBits = 8
	// maxReadTransaction is the longest read burst the controller supports.
	maxReadTransaction = 63
)

// Player plays one display list at a time.
type Player struct {
	commands Commands
	sched    gfx.Scheduler
	logger   hal.Logger

	bus  hal.Bus
	list *displaylist.List
	req  hal.BusRequest
	busy atomic.Bool

	// Entry in progress.
	code    displaylist.Code
	length  int
	repeats uint32

	window  [4]byte
	scratch [repeatScratch]byte

	// inline runs the completion in the bus context instead of through
	// the scheduler.
	inline bool

	plays  atomic.Uint64
	faults atomic.Uint64
}

var (
	// ErrBusy is returned by Run when another list is playing.
	ErrBusy = errors.New("playback: player busy")
	// ErrRefused is returned by Run when the bus will not take a request.
	ErrRefused = errors.New("playback: bus refused request")
)

// New returns a player for a controller using commands. Completion
// callbacks go through sched; a nil sched runs them in the bus context.
func New(commands Commands, sched gfx.Scheduler, logger hal.Logger) *Player {
	p := &Player{commands: commands, sched: sched, logger: logger}
	p.req.Callback = p.onComplete
	return p
}

// Busy reports whether a list is being played.
func (p *Player) Busy() bool { return p.busy.Load() }

// Faults counts lists abandoned because of an undecodable entry.
func (p *Player) Faults() uint64 { return p.faults.Load() }

// Plays counts lists started.
func (p *Player) Plays() uint64 { return p.plays.Load() }

// Play starts streaming list to bus and returns immediately. done runs once
// the last transaction completes. Play returns false if a list is already
// playing or the bus refused the first request.
func (p *Player) Play(bus hal.Bus, list *displaylist.List, done func()) bool {
	return p.play(bus, list, done, false)
}

// Run plays list and waits for it to finish. The completion does not go
// through the scheduler, so Run may be used before the main loop starts.
func (p *Player) Run(ctx context.Context, bus hal.Bus, list *displaylist.List) error {
	finished := make(chan struct{})
	if !p.play(bus, list, func() { close(finished) }, true) {
		if p.Busy() {
			return ErrBusy
		}
		return ErrRefused
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Player) play(bus hal.Bus, list *displaylist.List, done func(), inline bool) bool {
	if !p.busy.CompareAndSwap(false, true) {
		return false
	}
	p.inline = inline
	p.plays.Add(1)
	p.bus = bus
	p.list = list
	p.code = displaylist.CodeNone
	p.length = 0
	p.repeats = 0
	list.Prepare(done)
	if !p.FillRequest(&p.req) {
		p.finish()
		return true
	}
	if !bus.Execute(&p.req) {
		p.list = nil
		p.busy.Store(false)
		return false
	}
	return true
}

func (p *Player) onComplete(req *hal.BusRequest) {
	if p.FillRequest(req) {
		if p.bus.Execute(req) {
			return
		}
		p.logf("playback: bus refused request at offset %d", p.list.ReadOffset())
		p.faults.Add(1)
	}
	p.finish()
}

// finish queues the list completion exactly once.
func (p *Player) finish() {
	done := p.list.Completion()
	inline := p.inline
	p.list = nil
	p.busy.Store(false)
	if done == nil {
		return
	}
	if inline || p.sched == nil || !p.sched.QueueCallback(done) {
		done()
	}
}

func (p *Player) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.WriteLineString(fmt.Sprintf(format, args...))
	}
}

// FillRequest sets up req for the next transaction of the list. It returns
// false when the list is exhausted or cannot be decoded. It does not
// allocate.
func (p *Player) FillRequest(req *hal.BusRequest) bool {
	l := p.list
	for {
		req.Reset()
		switch p.code {
		case displaylist.CodeSetColumn, displaylist.CodeSetRow:
			v := uint16(l.ReadVar())
			binary.BigEndian.PutUint16(p.window[0:], v)
			binary.BigEndian.PutUint16(p.window[2:], v+uint16(p.length))
			req.Out = p.window[:]
			p.code = displaylist.CodeNone
			return true
		case displaylist.CodeRepeat:
			req.Out = p.scratch[:p.length]
			req.Repeat = p.repeats
			p.code = displaylist.CodeNone
			return true
		case displaylist.CodeNone:
		default:
			// Payload following a command or write start.
			if p.length != 0 {
				req.Out = l.ReadBytes(p.length)
				p.code = displaylist.CodeNone
				return true
			}
		}

		if l.AtEnd() {
			return false
		}
		code, length, _ := l.ReadHeader()
		p.code, p.length = code, length

		var cmd uint8
		switch code {
		case displaylist.CodeWriteData:
			continue
		case displaylist.CodeWriteDataBuffer:
			data, ok := l.ReadData()
			if !ok {
				return p.fault(code)
			}
			req.Out = data[:min(length, len(data))]
			p.code = displaylist.CodeNone
			return true
		case displaylist.CodeRepeat:
			if p.fillRepeat(req, uint32(l.ReadVar()), l.ReadBytes(length)) {
				return true
			}
			continue
		case displaylist.CodeCallback:
			cb, ok := l.ReadCallback()
			if !ok {
				return p.fault(code)
			}
			var params []byte
			if length != 0 {
				l.AlignRead()
				params = l.ReadBytes(length)
			}
			p.code = displaylist.CodeNone
			cb(params)
			continue
		case displaylist.CodeCommand:
			cmd = l.ReadUint8()
		case displaylist.CodeSetColumn:
			cmd = p.commands.SetColumn
		case displaylist.CodeSetRow:
			cmd = p.commands.SetRow
		case displaylist.CodeWriteStart:
			cmd = p.commands.WriteStart
		case displaylist.CodeReadStart, displaylist.CodeRead:
			cmd = p.commands.Read
			if code == displaylist.CodeReadStart {
				cmd = p.commands.ReadStart
			}
			data, ok := l.ReadData()
			if !ok {
				return p.fault(code)
			}
			req.Dummy = readDummyBits
			req.MaxTransaction = maxReadTransaction
			req.In = data[:min(length, len(data))]
			p.code = displaylist.CodeNone
		case displaylist.CodeDelay:
			l.ReadUint8()
			l.Skip(length)
			p.code = displaylist.CodeNone
			continue
		default:
			return p.fault(code)
		}
		req.Cmd = cmd
		req.CmdLen = 1
		return true
	}
}

// fillRepeat sends a repeated pattern. Short patterns are expanded into
// the scratch block so the bus moves them in longer bursts: a first
// transaction carries the leftover copies, the next one the whole blocks.
// It returns false when there is nothing to send.
func (p *Player) fillRepeat(req *hal.BusRequest, repeats uint32, pattern []byte) bool {
	p.code = displaylist.CodeNone
	n := len(pattern)
	if n == 0 || repeats == 0 {
		return false
	}
	if repeats == 1 || n > repeatScratch/2 {
		req.Out = pattern
		req.Repeat = repeats
		return true
	}
	reps := uint32(repeatScratch / n)
	if reps >= repeats {
		reps = repeats
	}
	blockLen := 0
	for i := uint32(0); i < reps; i++ {
		blockLen += copy(p.scratch[blockLen:], pattern)
	}
	blocks, rem := repeats/reps, repeats%reps
	if rem == 0 {
		req.Out = p.scratch[:blockLen]
		req.Repeat = blocks
		return true
	}
	req.Out = p.scratch[:int(rem)*n]
	p.code = displaylist.CodeRepeat
	p.length = blockLen
	p.repeats = blocks
	return true
}

func (p *Player) fault(code displaylist.Code) bool {
	p.faults.Add(1)
	p.logf("playback: cannot decode %v at offset %d", code, p.list.ReadOffset())
	p.code = displaylist.CodeNone
	return false
}
