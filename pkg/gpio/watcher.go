package gpio

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// pollWaiter waits for sysfs edge notifications with poll(2). The value fd
// raises POLLPRI|POLLERR on a transition; a self-pipe provides the wake path
// so a blocked Wait can always be unblocked for shutdown.
type pollWaiter struct {
	value *os.File
	r, w  *os.File
}

func newPollWaiter(path string) (*pollWaiter, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0600)
	if err != nil {
		return nil, err
	}
	r, w, err := os.Pipe()
	if err != nil {
		f.Close()
		return nil, err
	}
	pw := &pollWaiter{value: f, r: r, w: w}
	// Consume the current state: a freshly opened sysfs value fd reports an
	// immediate POLLPRI until it has been read once.
	var buf [4]byte
	pw.value.ReadAt(buf[:], 0)
	return pw, nil
}

func (pw *pollWaiter) Wait() (bool, error) {
	fds := []unix.PollFd{
		{Fd: int32(pw.value.Fd()), Events: unix.POLLPRI | unix.POLLERR},
		{Fd: int32(pw.r.Fd()), Events: unix.POLLIN},
	}
	for {
		fds[0].Revents = 0
		fds[1].Revents = 0
		n, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		if n == 0 {
			continue
		}
		if fds[1].Revents != 0 {
			var b [1]byte
			pw.r.Read(b[:])
			return false, nil
		}
		if fds[0].Revents&unix.POLLPRI != 0 {
			// Re-read at offset 0 to consume the event and re-arm.
			var buf [4]byte
			if _, rerr := pw.value.ReadAt(buf[:], 0); rerr != nil {
				return false, rerr
			}
			return true, nil
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			// POLLERR without POLLPRI: the attribute went away underneath
			// us, e.g. an external unexport.
			return false, fmt.Errorf("gpio: edge source invalid (revents %#x)", fds[0].Revents)
		}
	}
}

func (pw *pollWaiter) Wake() error {
	_, err := pw.w.Write([]byte{0})
	return err
}

func (pw *pollWaiter) Close() error {
	err := pw.value.Close()
	pw.r.Close()
	pw.w.Close()
	return err
}

// watcher runs one registration: it blocks on the waiter and invokes the
// callback with the registered opaque argument on its own goroutine. It
// holds no reference to the Pin, so it can never call back into the
// configuration surface.
type watcher struct {
	waiter EdgeWaiter
	fn     func(any)
	arg    any
	done   chan struct{}
}

func startWatcher(waiter EdgeWaiter, fn func(any), arg any) *watcher {
	w := &watcher{waiter: waiter, fn: fn, arg: arg, done: make(chan struct{})}
	go w.run()
	return w
}

func (w *watcher) run() {
	defer close(w.done)
	for {
		fired, err := w.waiter.Wait()
		if err != nil {
			// Notification primitive failed (e.g. externally removed
			// attribute). Stop rather than spin on a dead fd; the context
			// reports its edge as none from here on.
			return
		}
		if !fired {
			return
		}
		w.fn(w.arg)
	}
}

// exited reports whether the goroutine has terminated on its own.
func (w *watcher) exited() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// stop wakes the waiter, joins the goroutine, and closes the waiter. It
// returns only after the goroutine can no longer be scheduled.
func (w *watcher) stop() {
	w.waiter.Wake()
	<-w.done
	w.waiter.Close()
}
