package kernel

import (
	"runtime"
	"sync/atomic"
)

// mailboxSlots must be a power of two.
const mailboxSlots = 64

type mailboxSlot struct {
	// seq is stored relative to the slot index so the zero value is a ready
	// empty ring.
	seq atomic.Uint32
	fn  func()
}

// Mailbox is a fixed-size multi-producer queue of callbacks. It carries
// work from the bus completion context, or any other goroutine, into the
// loop that calls RunPending. It never allocates.
type Mailbox struct {
	_     [0]func() // prevent accidental copying.
	head  atomic.Uint32
	tail  atomic.Uint32
	slots [mailboxSlots]mailboxSlot
}

func (mb *Mailbox) slot(pos uint32) (*mailboxSlot, uint32) {
	i := pos % mailboxSlots
	s := &mb.slots[i]
	return s, s.seq.Load() + i
}

func (mb *Mailbox) publish(s *mailboxSlot, pos, seq uint32) {
	s.seq.Store(seq - pos%mailboxSlots)
}

// TrySend enqueues fn, returning false if the mailbox is full.
func (mb *Mailbox) TrySend(fn func()) bool {
	for {
		head := mb.head.Load()
		s, seq := mb.slot(head)
		switch diff := int32(seq - head); {
		case diff == 0:
			if !mb.head.CompareAndSwap(head, head+1) {
				continue
			}
			s.fn = fn
			mb.publish(s, head, head+1)
			return true
		case diff < 0:
			return false
		}
	}
}

// Send enqueues fn, blocking until there is room.
func (mb *Mailbox) Send(fn func()) {
	for !mb.TrySend(fn) {
		runtime.Gosched()
	}
}

// TryRecv dequeues one callback, returning false if empty.
func (mb *Mailbox) TryRecv() (func(), bool) {
	for {
		tail := mb.tail.Load()
		s, seq := mb.slot(tail)
		switch diff := int32(seq - (tail + 1)); {
		case diff == 0:
			if !mb.tail.CompareAndSwap(tail, tail+1) {
				continue
			}
			fn := s.fn
			s.fn = nil
			mb.publish(s, tail, tail+mailboxSlots)
			return fn, true
		case diff < 0:
			return nil, false
		}
	}
}

// Recv blocks until one callback is available.
func (mb *Mailbox) Recv() func() {
	for {
		fn, ok := mb.TryRecv()
		if ok {
			return fn
		}
		runtime.Gosched()
	}
}

// Len is a snapshot of the number of queued callbacks.
func (mb *Mailbox) Len() int {
	return int(mb.head.Load() - mb.tail.Load())
}
