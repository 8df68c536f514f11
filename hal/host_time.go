//go:build !tinygo

package hal

import "time"

// hostTime turns wall-clock progress between runner steps into 1ms ticks.
// Ticks are dropped when nobody drains the channel.
type hostTime struct {
	ch   chan uint64
	seq  uint64
	last time.Time
	acc  time.Duration
}

const hostTick = time.Millisecond

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 1024)}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

// step emits the ticks elapsed since the previous call, or first on the
// first call.
func (t *hostTime) step(first uint64) {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
		t.emit(first)
		return
	}
	t.acc += now.Sub(t.last)
	t.last = now
	n := uint64(t.acc / hostTick)
	t.acc %= hostTick
	t.emit(n)
}

func (t *hostTime) emit(n uint64) {
	for ; n > 0; n-- {
		t.seq++
		select {
		case t.ch <- t.seq:
		default:
		}
	}
}
