package gpio

import (
	"errors"
	"testing"
	"time"

	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/hal"
)

func TestSimReadWrite(t *testing.T) {
	p := OpenSim(NewSim())
	defer p.Close()

	if err := p.SetDirection(DirOut); err != nil {
		t.Fatal(err)
	}
	if err := p.Write(5); err != nil {
		t.Fatal(err)
	}
	if v, _ := p.Read(); v != 1 {
		t.Fatalf("Read = %d, want 1 (nonzero write normalizes)", v)
	}
	if err := p.Write(0); err != nil {
		t.Fatal(err)
	}
	if v, _ := p.Read(); v != 0 {
		t.Fatalf("Read = %d, want 0", v)
	}
}

func TestWatchInvokesCallbackWithArg(t *testing.T) {
	sim := NewSim()
	p := OpenSim(sim)
	defer p.Close()

	type token struct{ id int }
	arg := &token{id: 7}
	got := make(chan any, 4)
	if err := p.Watch(EdgeRising, func(a any) { got <- a }, arg); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if p.Edge() != EdgeRising {
		t.Fatalf("Edge = %v, want rising", p.Edge())
	}

	sim.Trigger(1)
	select {
	case a := <-got:
		if a != arg {
			t.Fatalf("callback argument = %v, want the registered pointer", a)
		}
	case <-time.After(time.Second):
		t.Fatalf("callback not invoked for rising edge")
	}
	// Exactly once for one edge.
	select {
	case <-got:
		t.Fatalf("callback invoked more than once")
	case <-time.After(20 * time.Millisecond):
	}

	// A falling transition must not match a rising registration.
	sim.Trigger(0)
	select {
	case <-got:
		t.Fatalf("callback invoked for falling edge")
	case <-time.After(20 * time.Millisecond):
	}

	if err := p.Unwatch(); err != nil {
		t.Fatalf("Unwatch: %v", err)
	}
	if p.Edge() != EdgeNone {
		t.Fatalf("Edge after Unwatch = %v", p.Edge())
	}
	if sim.Edge() != EdgeNone {
		t.Fatalf("backend edge after Unwatch = %v", sim.Edge())
	}

	// Further edges fire nothing.
	sim.Trigger(1)
	select {
	case <-got:
		t.Fatalf("callback invoked after Unwatch")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestWatchDuplicateRegistration(t *testing.T) {
	p := OpenSim(NewSim())
	defer p.Close()
	if err := p.Watch(EdgeBoth, func(any) {}, nil); err != nil {
		t.Fatal(err)
	}
	if err := p.Watch(EdgeBoth, func(any) {}, nil); !errors.Is(err, hal.ErrAlreadyActive) {
		t.Fatalf("second Watch = %v, want ErrAlreadyActive", err)
	}
	if err := p.Unwatch(); err != nil {
		t.Fatal(err)
	}
	// After Unwatch a new registration is allowed again.
	if err := p.Watch(EdgeFalling, func(any) {}, nil); err != nil {
		t.Fatalf("Watch after Unwatch: %v", err)
	}
}

func TestWatchNilCallback(t *testing.T) {
	p := OpenSim(NewSim())
	defer p.Close()
	if err := p.Watch(EdgeBoth, nil, nil); !errors.Is(err, hal.ErrInvalidArgument) {
		t.Fatalf("nil callback error = %v, want ErrInvalidArgument", err)
	}
}

func TestUnwatchWithoutWatcher(t *testing.T) {
	p := OpenSim(NewSim())
	defer p.Close()
	if err := p.Unwatch(); err != nil {
		t.Fatalf("Unwatch with no watcher: %v", err)
	}
}

func TestSetEdgeNoneStopsWatcher(t *testing.T) {
	sim := NewSim()
	p := OpenSim(sim)
	defer p.Close()
	got := make(chan any, 1)
	if err := p.Watch(EdgeBoth, func(a any) { got <- a }, nil); err != nil {
		t.Fatal(err)
	}
	if err := p.SetEdge(EdgeNone); err != nil {
		t.Fatalf("SetEdge(none): %v", err)
	}
	sim.Trigger(1)
	select {
	case <-got:
		t.Fatalf("callback invoked after edge reset to none")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCloseStopsWatcherAndReleasesOnce(t *testing.T) {
	sim := NewSim()
	p := OpenSim(sim)
	got := make(chan any, 1)
	if err := p.Watch(EdgeBoth, func(a any) { got <- a }, nil); err != nil {
		t.Fatal(err)
	}
	// Unwatch immediately followed by Close must neither block nor leak.
	if err := p.Unwatch(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n := sim.Releases(); n != 1 {
		t.Fatalf("releases = %d, want 1", n)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if n := sim.Releases(); n != 1 {
		t.Fatalf("second Close released again: %d", n)
	}
	sim.Trigger(1)
	select {
	case <-got:
		t.Fatalf("callback invoked after Close")
	case <-time.After(20 * time.Millisecond):
	}
}

// brokenEdgeBackend hands out waiters that fail immediately, emulating an
// attribute removed underneath an active watcher.
type brokenEdgeBackend struct{ SimBackend }

func (b *brokenEdgeBackend) Waiter() (EdgeWaiter, error) {
	return &failWaiter{woken: make(chan struct{})}, nil
}

func TestEdgeReportsNoneAfterWatcherFailure(t *testing.T) {
	p := &Pin{logical: -1, number: -1, dir: DirIn, sys: &brokenEdgeBackend{}}
	if err := p.Watch(EdgeRising, func(any) {}, nil); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for p.Edge() != EdgeNone {
		if time.Now().After(deadline) {
			t.Fatalf("Edge still %v after watcher failure", p.Edge())
		}
		time.Sleep(time.Millisecond)
	}
	// The registration is still occupied until the caller cleans up.
	if err := p.Watch(EdgeRising, func(any) {}, nil); !errors.Is(err, hal.ErrAlreadyActive) {
		t.Fatalf("re-register before Unwatch = %v, want ErrAlreadyActive", err)
	}
	if err := p.Unwatch(); err != nil {
		t.Fatalf("Unwatch after failure: %v", err)
	}
}
