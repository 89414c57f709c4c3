package gpio

import "sync"

// SimBackend is an in-memory EdgeBackend for unit tests and the CLI --sim
// path. It records configuration calls and lets the test drive the input
// level and fire edge notifications without hardware.
type SimBackend struct {
	mu       sync.Mutex
	dir      Direction
	mode     Mode
	edge     Edge
	out      int
	in       int
	released int
	closed   bool
	waiters  []*simWaiter
}

// NewSim returns a simulator pin configured as an input reading low.
func NewSim() *SimBackend {
	return &SimBackend{dir: DirIn}
}

func (s *SimBackend) SetDirection(d Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = d
	return nil
}

func (s *SimBackend) SetMode(m Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	return nil
}

func (s *SimBackend) SetEdge(e Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edge = e
	return nil
}

func (s *SimBackend) Read() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dir == DirIn {
		return s.in, nil
	}
	return s.out, nil
}

func (s *SimBackend) Write(v int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = v
	return nil
}

func (s *SimBackend) Waiter() (EdgeWaiter, error) {
	w := &simWaiter{
		owner: s,
		fire:  make(chan struct{}, 1),
		wake:  make(chan struct{}, 1),
	}
	s.mu.Lock()
	s.waiters = append(s.waiters, w)
	s.mu.Unlock()
	return w, nil
}

func (s *SimBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *SimBackend) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released++
	return nil
}

// SetInput drives the externally observed level without firing an edge.
func (s *SimBackend) SetInput(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.in = v
}

// Trigger moves the input to level and notifies waiters whose edge
// configuration matches the transition.
func (s *SimBackend) Trigger(level int) {
	s.mu.Lock()
	old := s.in
	s.in = level
	match := false
	switch s.edge {
	case EdgeBoth:
		match = old != level
	case EdgeRising:
		match = old == 0 && level != 0
	case EdgeFalling:
		match = old != 0 && level == 0
	}
	waiters := s.waiters
	s.mu.Unlock()
	if !match {
		return
	}
	for _, w := range waiters {
		select {
		case w.fire <- struct{}{}:
		default:
		}
	}
}

// Mode reports the last configured mode.
func (s *SimBackend) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Edge reports the last configured edge.
func (s *SimBackend) Edge() Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edge
}

// Releases reports how many times the pin was given back.
func (s *SimBackend) Releases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

type simWaiter struct {
	owner *SimBackend
	fire  chan struct{}
	wake  chan struct{}
}

func (w *simWaiter) Wait() (bool, error) {
	select {
	case <-w.fire:
		return true, nil
	case <-w.wake:
		return false, nil
	}
}

func (w *simWaiter) Wake() error {
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

func (w *simWaiter) Close() error {
	s := w.owner
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sw := range s.waiters {
		if sw == w {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			break
		}
	}
	return nil
}
