// Package renderqueue draws objects onto a display through a small pool of
// surfaces, so one surface can be filled while another is being sent.
package renderqueue

import (
	"fmt"
	"time"

	"sparkgfx/gfx"
	"sparkgfx/hal"
	"sparkgfx/kernel"
)

// Target creates the surfaces a queue renders through.
type Target interface {
	Size() gfx.Size
	CreateSurface(bufferSize int) gfx.Surface
}

// Callback runs once obj has been drawn. The last surface holding it may
// still be on its way to the display.
type Callback func(obj gfx.Object)

// Config tunes a Queue. The zero value uses two surfaces of the target's
// default size.
type Config struct {
	Surfaces   int
	BufferSize int
	// Scheduler runs completion callbacks and retries. Required.
	Scheduler kernel.Scheduler
	Logger    hal.Logger
}

type item struct {
	obj   gfx.Object
	loc   gfx.Rect
	cb    Callback
	delay time.Duration
}

// Queue renders objects in order. It is not safe for concurrent use; call
// it from the goroutine running the scheduler.
type Queue struct {
	target Target
	sched  kernel.Scheduler
	logger hal.Logger

	items []item
	cur   *item
	r     gfx.Renderer
	began bool

	free   []gfx.Surface
	active int

	running bool
	rerun   bool
	retry   bool

	rendered uint64
	presents uint64
}

// New creates cfg.Surfaces surfaces on target.
func New(target Target, cfg Config) *Queue {
	n := cfg.Surfaces
	if n <= 0 {
		n = 2
	}
	q := &Queue{target: target, sched: cfg.Scheduler, logger: cfg.Logger}
	for range n {
		q.free = append(q.free, target.CreateSurface(cfg.BufferSize))
	}
	return q
}

func (q *Queue) logf(format string, args ...any) {
	if q.logger == nil {
		return
	}
	q.logger.WriteLineString(fmt.Sprintf(format, args...))
}

// Render queues obj for drawing into loc, or the whole target when loc is
// empty, and starts rendering if the queue was idle. cb, if set, runs delay
// after the object has been drawn.
func (q *Queue) Render(obj gfx.Object, loc gfx.Rect, cb Callback, delay time.Duration) {
	if obj == nil {
		return
	}
	if loc.Empty() {
		loc = gfx.SizeRect(q.target.Size())
	}
	q.items = append(q.items, item{obj: obj, loc: loc, cb: cb, delay: delay})
	q.run()
}

// Active reports whether objects are waiting or being drawn.
func (q *Queue) Active() bool { return q.cur != nil || len(q.items) != 0 }

// InFlight is the number of surfaces handed to the target.
func (q *Queue) InFlight() int { return q.active }

// FreeSurfaces is the number of surfaces ready for drawing.
func (q *Queue) FreeSurfaces() int { return len(q.free) }

// Rendered counts finished objects.
func (q *Queue) Rendered() uint64 { return q.rendered }

// Presents counts surfaces handed to the target.
func (q *Queue) Presents() uint64 { return q.presents }

func (q *Queue) run() {
	if q.running {
		q.rerun = true
		return
	}
	q.running = true
	defer func() { q.running = false }()
	for {
		q.rerun = false
		q.pass()
		if !q.rerun {
			return
		}
	}
}

func (q *Queue) pass() {
	var s gfx.Surface
	for q.Active() {
		if s == nil {
			if len(q.free) == 0 {
				return
			}
			s = q.free[len(q.free)-1]
			q.free = q.free[:len(q.free)-1]
		}
		if q.execute(s) && q.Active() {
			continue
		}
		q.active++
		surface := s
		s = nil
		if !surface.Present(func() { q.reclaim(surface) }) {
			// Nothing was drawn, so no callback will come. Try again from
			// the main loop so pending reads can complete.
			q.active--
			surface.Reset()
			q.free = append(q.free, surface)
			q.scheduleRetry()
			return
		}
		q.presents++
	}
	if s != nil {
		s.Reset()
		q.free = append(q.free, s)
	}
}

func (q *Queue) scheduleRetry() {
	if q.retry {
		return
	}
	q.retry = true
	if !q.sched.QueueCallback(func() {
		q.retry = false
		q.run()
	}) {
		q.retry = false
		q.logf("renderqueue: scheduler full, render stalled")
	}
}

func (q *Queue) reclaim(s gfx.Surface) {
	q.active--
	s.Reset()
	q.free = append(q.free, s)
	q.run()
}

// execute draws queued objects onto s until it fills up or the queue
// drains. It returns true when everything queued has been drawn.
func (q *Queue) execute(s gfx.Surface) bool {
	for {
		if q.cur == nil {
			if len(q.items) == 0 {
				return true
			}
			it := q.items[0]
			q.items[0] = item{}
			q.items = q.items[1:]
			q.cur = &it
			q.r = nil
			q.began = false
		}
		if !q.began {
			r, ok := s.Render(q.cur.obj, q.cur.loc)
			if !ok {
				return false
			}
			q.r = r
			q.began = true
		}
		if !gfx.Execute(s, &q.r) {
			return false
		}
		q.done()
	}
}

func (q *Queue) done() {
	it := q.cur
	q.cur = nil
	q.began = false
	q.rendered++
	if it.cb == nil {
		return
	}
	fn := func() { it.cb(it.obj) }
	var ok bool
	if it.delay > 0 {
		ok = q.sched.AfterFunc(it.delay, fn)
	} else {
		ok = q.sched.QueueCallback(fn)
	}
	if !ok {
		q.logf("renderqueue: dropped completion for %v", it.obj.Kind())
	}
}
