package kernel

import (
	"container/heap"
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler defers work to the main loop. Both calls are safe from any
// goroutine and report false when the work could not be queued.
type Scheduler interface {
	QueueCallback(fn func()) bool
	AfterFunc(d time.Duration, fn func()) bool
}

type timer struct {
	due time.Time
	seq uint64
	fn  func()
}

type timerHeap []timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(timer)) }
func (h *timerHeap) Pop() any {
	old := *h
	t := old[len(old)-1]
	old[len(old)-1] = timer{}
	*h = old[:len(old)-1]
	return t
}

// System is the cooperative core: a callback mailbox, delayed callbacks
// and a millisecond timebase. Callbacks run one at a time on whichever
// goroutine calls RunPending or Run.
type System struct {
	mbox  Mailbox
	ticks atomic.Uint64
	wake  chan struct{}

	mu     sync.Mutex
	timers timerHeap
	seq    uint64
	now    func() time.Time
}

// NewSystem creates a kernel instance.
func NewSystem() *System {
	return &System{wake: make(chan struct{}, 1), now: time.Now}
}

func (s *System) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// QueueCallback runs fn on the next pass of the main loop. It returns
// false when the mailbox is full.
func (s *System) QueueCallback(fn func()) bool {
	if fn == nil || !s.mbox.TrySend(fn) {
		return false
	}
	s.notify()
	return true
}

// AfterFunc runs fn on the main loop once d has elapsed. A zero delay
// behaves like QueueCallback but never fails.
func (s *System) AfterFunc(d time.Duration, fn func()) bool {
	if fn == nil {
		return false
	}
	s.mu.Lock()
	s.seq++
	heap.Push(&s.timers, timer{due: s.now().Add(d), seq: s.seq, fn: fn})
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *System) popDue(now time.Time) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 || s.timers[0].due.After(now) {
		return nil
	}
	return heap.Pop(&s.timers).(timer).fn
}

// nextDue returns the time until the earliest timer.
func (s *System) nextDue() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return 0, false
	}
	return max(s.timers[0].due.Sub(s.now()), 0), true
}

// RunPending runs the callbacks queued and the timers due when it was
// called, and returns how many ran. Work queued by those callbacks waits
// for the next pass.
func (s *System) RunPending() int {
	now := s.now()
	n := 0
	for queued := s.mbox.Len(); n < queued; n++ {
		fn, ok := s.mbox.TryRecv()
		if !ok {
			break
		}
		fn()
	}
	for fn := s.popDue(now); fn != nil; fn = s.popDue(now) {
		fn()
		n++
	}
	return n
}

// Pending reports whether work is queued or a timer is outstanding.
func (s *System) Pending() bool {
	if s.mbox.Len() != 0 {
		return true
	}
	_, ok := s.nextDue()
	return ok
}

// Run services callbacks until ctx is done.
func (s *System) Run(ctx context.Context) error {
	return s.RunUntil(ctx, func() bool { return false })
}

// RunUntil services callbacks until cond holds or ctx is done. cond is
// checked after every pass, starting with the first.
func (s *System) RunUntil(ctx context.Context, cond func() bool) error {
	t := time.NewTimer(time.Hour)
	defer t.Stop()
	for {
		s.RunPending()
		if cond() {
			return nil
		}
		d, ok := s.nextDue()
		if !ok {
			d = time.Hour
		}
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
		t.Reset(d)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		case <-t.C:
		}
	}
}

// StartTick starts a 1ms ticker that increments the kernel tick counter.
func (s *System) StartTick(ctx context.Context) {
	go func() {
		t := time.NewTicker(1 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.ticks.Add(1)
			}
		}
	}()
}

// Ticks returns the current tick count (1ms per tick).
func (s *System) Ticks() uint64 {
	return s.ticks.Load()
}

// Yield yields execution to let other goroutines run.
func (s *System) Yield() {
	runtime.Gosched()
}
