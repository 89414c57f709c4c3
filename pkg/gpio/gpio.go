// Package gpio exposes general-purpose I/O pins on embedded Linux boards
// through two interchangeable backends: kernel sysfs attributes and direct
// memory-mapped register access. Reads and writes dispatch on the backend
// selected with UseMem; edge-triggered callbacks always arrive through the
// sysfs notification path, which is the only interrupt delivery mechanism on
// this class of hardware.
//
// A Pin's configuration surface is not safe for concurrent use: the design
// assumes single-threaded ownership, with only the watcher goroutine running
// concurrently, and only on the read side of edge detection.
package gpio

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/board"
	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/hal"
)

// Pin is the context for one GPIO pin. Obtain one with Open, OpenRaw, or
// OpenSim; release it with Close.
type Pin struct {
	logical int // -1 when opened raw
	number  int // raw sysfs pin number, -1 for simulators

	dir    Direction
	mode   Mode
	edge   Edge
	owner  bool
	useMem bool

	sys EdgeBackend     // always present; edge detection lives here
	reg *board.RegBlock // register description, nil when unavailable
	mem *MemBackend     // opened lazily on first UseMem(true)

	w      *watcher
	closed bool
}

// Open resolves a logical pin through the board map, exports it, and applies
// the map's default direction. Opening a pin that another owner already
// exported succeeds; the new context simply does not own it.
func Open(m board.Map, logical int) (*Pin, error) {
	entry, err := m.ResolveGPIO(logical)
	if err != nil {
		return nil, err
	}
	p, err := openSysfs(entry.Pin)
	if err != nil {
		return nil, err
	}
	p.logical = logical
	p.reg = entry.Reg
	switch entry.Direction {
	case "in":
		err = p.SetDirection(DirIn)
	case "out":
		err = p.SetDirection(DirOut)
	}
	if err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// OpenRaw exports a pin by its kernel sysfs number, bypassing the board
// map. Memory-mapped access is unavailable on raw pins: without a board
// entry there is no register description.
func OpenRaw(sysfsPin int) (*Pin, error) {
	return openSysfs(sysfsPin)
}

func openSysfs(pin int) (*Pin, error) {
	sys, exported, err := newSysfsBackend(pin)
	if err != nil {
		return nil, err
	}
	// The kernel exports pins as inputs.
	return &Pin{
		logical: -1,
		number:  pin,
		dir:     DirIn,
		sys:     sys,
		owner:   exported,
	}, nil
}

// OpenSim wraps a simulator backend in a Pin context. Used by tests and the
// CLI to exercise the full lifecycle without hardware.
func OpenSim(sim *SimBackend) *Pin {
	return &Pin{logical: -1, number: -1, dir: DirIn, sys: sim, owner: true}
}

// Number returns the raw sysfs pin number.
func (p *Pin) Number() int { return p.number }

func (p *Pin) String() string {
	if p.logical >= 0 {
		return fmt.Sprintf("io%d(gpio%d)", p.logical, p.number)
	}
	return fmt.Sprintf("gpio%d", p.number)
}

// Direction returns the last configured direction.
func (p *Pin) Direction() Direction { return p.dir }

// Edge returns the configured edge. A watcher that stopped on its own (for
// example because the attribute was removed externally) reports EdgeNone.
func (p *Pin) Edge() Edge {
	if p.w != nil && p.w.exited() {
		return EdgeNone
	}
	return p.edge
}

// active returns the backend reads and writes currently dispatch to.
func (p *Pin) active() Backend {
	if p.useMem {
		return p.mem
	}
	return p.sys
}

// SetDirection configures the pin as input or output through the active
// backend.
func (p *Pin) SetDirection(d Direction) error {
	if err := p.active().SetDirection(d); err != nil {
		return err
	}
	p.dir = d
	return nil
}

// SetMode sets the output drive mode. Platforms without mode pins treat
// this as a no-op success; callers must not depend on the mode applying.
func (p *Pin) SetMode(m Mode) error {
	if err := p.sys.SetMode(m); err != nil {
		return err
	}
	p.mode = m
	return nil
}

// SetEdge configures edge detection. Setting EdgeNone while a watcher is
// active stops the watcher first: an active watcher and EdgeNone cannot
// coexist.
func (p *Pin) SetEdge(e Edge) error {
	if e == EdgeNone && p.w != nil {
		return p.Unwatch()
	}
	if err := p.sys.SetEdge(e); err != nil {
		return err
	}
	p.edge = e
	return nil
}

// Read returns the pin level through the active backend.
func (p *Pin) Read() (int, error) {
	return p.active().Read()
}

// Write drives the pin; any nonzero value means 1.
func (p *Pin) Write(v int) error {
	if v != 0 {
		v = 1
	}
	return p.active().Write(v)
}

// UseMem switches reads, writes, and direction changes to the memory-mapped
// backend. It fails with hal.ErrUnsupported when the pin has no register
// description, leaving the sysfs selection unchanged.
func (p *Pin) UseMem(enable bool) error {
	if !enable {
		p.useMem = false
		return nil
	}
	if p.mem == nil {
		if p.reg == nil {
			return fmt.Errorf("gpio%d: no register block on this platform: %w", p.number, hal.ErrUnsupported)
		}
		mem, err := newMemBackend(p.reg)
		if err != nil {
			return err
		}
		p.mem = mem
	}
	p.useMem = true
	return nil
}

// Watch sets the edge mode and starts a watcher that invokes fn(arg) on its
// own goroutine once per detected edge. Callbacks must be fast and
// non-blocking. A second registration fails with hal.ErrAlreadyActive until
// Unwatch is called, even if the previous watcher already stopped on error.
func (p *Pin) Watch(e Edge, fn func(arg any), arg any) error {
	if fn == nil {
		return fmt.Errorf("gpio%d: nil callback: %w", p.number, hal.ErrInvalidArgument)
	}
	if p.w != nil {
		return fmt.Errorf("gpio%d: %w", p.number, hal.ErrAlreadyActive)
	}
	if err := p.SetEdge(e); err != nil {
		return err
	}
	waiter, err := p.sys.Waiter()
	if err != nil {
		p.sys.SetEdge(EdgeNone)
		p.edge = EdgeNone
		return err
	}
	p.w = startWatcher(waiter, fn, arg)
	return nil
}

// Unwatch stops the watcher, joins its goroutine, and resets the edge to
// none. Calling it with no active watcher is a no-op success.
func (p *Pin) Unwatch() error {
	if p.w == nil {
		return nil
	}
	p.w.stop()
	p.w = nil
	p.edge = EdgeNone
	return p.sys.SetEdge(EdgeNone)
}

// SetOwner records whether this context owns the pin. Ownership is an
// advisory hint consulted only at Close to decide whether to unexport; it
// does not arbitrate between two contexts driving the same pin.
func (p *Pin) SetOwner(own bool) { p.owner = own }

// Close stops any active watcher, closes handles and mappings, and, when
// this context owns the pin, unexports it. A failed unexport is reported
// but local resources are released regardless. Close is idempotent.
func (p *Pin) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.Unwatch()
	if p.mem != nil {
		p.mem.Close()
		p.mem = nil
	}
	err := p.sys.Close()
	if p.owner {
		if rerr := p.sys.Release(); rerr != nil {
			err = rerr
		}
	}
	return err
}
