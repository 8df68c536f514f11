package kernel

import (
	"context"
	"testing"
	"time"
)

func TestSystemQueueCallback(t *testing.T) {
	s := NewSystem()
	ran := 0
	if !s.QueueCallback(func() { ran++ }) {
		t.Fatalf("QueueCallback() = false, want true")
	}
	if s.QueueCallback(nil) {
		t.Fatalf("QueueCallback(nil) = true, want false")
	}
	if ran != 0 {
		t.Fatalf("callback ran before RunPending")
	}
	if n := s.RunPending(); n != 1 || ran != 1 {
		t.Fatalf("RunPending() = %d, ran %d, want 1 and 1", n, ran)
	}
	if s.Pending() {
		t.Fatalf("Pending() = true after draining")
	}
}

func TestSystemRequeueWaitsForNextPass(t *testing.T) {
	s := NewSystem()
	count := 0
	var again func()
	again = func() {
		count++
		if count < 3 {
			s.QueueCallback(again)
		}
	}
	s.QueueCallback(again)

	for pass := 1; pass <= 3; pass++ {
		if n := s.RunPending(); n != 1 {
			t.Fatalf("pass %d: RunPending() = %d, want 1", pass, n)
		}
		if count != pass {
			t.Fatalf("pass %d: count = %d, want %d", pass, count, pass)
		}
	}
	if n := s.RunPending(); n != 0 {
		t.Fatalf("RunPending() = %d after chain ended, want 0", n)
	}
}

func TestSystemAfterFunc(t *testing.T) {
	s := NewSystem()
	base := time.Unix(1000, 0)
	now := base
	s.now = func() time.Time { return now }

	var got []string
	s.AfterFunc(20*time.Millisecond, func() { got = append(got, "late") })
	s.AfterFunc(10*time.Millisecond, func() { got = append(got, "early") })

	if n := s.RunPending(); n != 0 {
		t.Fatalf("RunPending() = %d before any timer is due, want 0", n)
	}
	if d, ok := s.nextDue(); !ok || d != 10*time.Millisecond {
		t.Fatalf("nextDue() = %v, %v, want 10ms, true", d, ok)
	}

	now = base.Add(25 * time.Millisecond)
	if n := s.RunPending(); n != 2 {
		t.Fatalf("RunPending() = %d, want 2", n)
	}
	if len(got) != 2 || got[0] != "early" || got[1] != "late" {
		t.Fatalf("timer order = %v, want [early late]", got)
	}
}

func TestSystemRun(t *testing.T) {
	s := NewSystem()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	fired := make(chan struct{})
	s.AfterFunc(time.Millisecond, func() {
		s.QueueCallback(func() { close(fired) })
	})

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatalf("Run() did not service the callbacks")
	}
	cancel()
	<-done
}

func TestSystemRunUntil(t *testing.T) {
	s := NewSystem()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := false
	go func() {
		time.Sleep(time.Millisecond)
		s.QueueCallback(func() { done = true })
	}()
	if err := s.RunUntil(ctx, func() bool { return done }); err != nil {
		t.Fatalf("RunUntil() = %v, want nil", err)
	}
	if !done {
		t.Fatalf("RunUntil() returned before the callback ran")
	}

	short, stop := context.WithTimeout(ctx, 10*time.Millisecond)
	defer stop()
	if err := s.RunUntil(short, func() bool { return false }); err != context.DeadlineExceeded {
		t.Fatalf("RunUntil() = %v, want %v", err, context.DeadlineExceeded)
	}
}
