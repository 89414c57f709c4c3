package gpio

// Backend performs the raw I/O for one pin. Implementations exist for
// kernel sysfs attributes, memory-mapped registers, and an in-memory
// simulator. A Pin owns its backends exclusively; backends are never shared
// across contexts.
type Backend interface {
	SetDirection(Direction) error
	// Read returns the pin level as 0 or 1.
	Read() (int, error)
	// Write drives the pin; the value is already normalized to 0 or 1.
	Write(int) error
	// Close releases local resources (handles, mappings). It must be safe
	// to call more than once.
	Close() error
	// Release gives the pin back to the kernel (unexport for sysfs).
	// Backends with nothing to give back return nil.
	Release() error
}

// EdgeBackend is a Backend that can configure edge detection and produce an
// edge-notification primitive. Memory-mapped backends have no interrupt
// delivery path on this class of hardware, so edge detection always runs
// through the sysfs (or simulated) backend even when reads and writes go
// through registers.
type EdgeBackend interface {
	Backend
	SetMode(Mode) error
	SetEdge(Edge) error
	// Waiter returns a fresh notification primitive for the current edge
	// configuration. The caller owns it and must Close it.
	Waiter() (EdgeWaiter, error)
}

// EdgeWaiter blocks until an edge fires or the waiter is woken for
// shutdown. Wake must reliably unblock a concurrent Wait; a waiter that can
// block uninterruptibly would leak its goroutine on Close.
type EdgeWaiter interface {
	// Wait returns (true, nil) when an edge fired, (false, nil) when woken.
	Wait() (bool, error)
	Wake() error
	Close() error
}
