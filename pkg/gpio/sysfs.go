package gpio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/OpenTraceLab/OpenTraceGPIO/internal/sysfs"
)

// Overridable for tests; the retry bounds cover the window between writing
// to export and the kernel/udev making the attribute files accessible.
var (
	gpioRoot     = "/sys/class/gpio"
	openAttempts = 10
	openDelay    = 10 * time.Millisecond
)

// SysfsBackend drives one pin through /sys/class/gpio/gpio{N}. The value
// handle is kept open and accessed at offset 0; sysfs value files are
// singleton pseudo-files and re-seeking is mandatory between reads.
type SysfsBackend struct {
	pin   int
	base  string
	value *sysfs.Attr
}

// newSysfsBackend exports the pin if needed and opens its value attribute.
// The returned bool reports whether this call performed the export: a pin
// that was already exported belongs to someone else until the caller says
// otherwise.
func newSysfsBackend(pin int) (*SysfsBackend, bool, error) {
	b := &SysfsBackend{
		pin:  pin,
		base: filepath.Join(gpioRoot, fmt.Sprintf("gpio%d", pin)),
	}
	exported := false
	if _, err := os.Stat(filepath.Join(b.base, "value")); err != nil {
		werr := sysfs.Export(filepath.Join(gpioRoot, "export"), pin)
		// EBUSY means another owner exported the pin first; re-opening an
		// already-exported pin is valid.
		if werr != nil && !errors.Is(werr, syscall.EBUSY) {
			return nil, false, fmt.Errorf("gpio%d: export: %w", pin, werr)
		}
		exported = werr == nil
	}
	value, err := sysfs.OpenAttr(filepath.Join(b.base, "value"), openAttempts, openDelay)
	if err != nil {
		return nil, false, fmt.Errorf("gpio%d: value: %w", pin, err)
	}
	b.value = value
	return b, exported, nil
}

// SetDirection writes the direction attribute. The kernel may reset the
// value file content on a direction change, so the kept-open value handle is
// reopened before the next access.
func (b *SysfsBackend) SetDirection(d Direction) error {
	if err := sysfs.WriteString(filepath.Join(b.base, "direction"), d.String()); err != nil {
		return fmt.Errorf("gpio%d: direction: %w", b.pin, err)
	}
	b.value.Close()
	value, err := sysfs.OpenAttr(filepath.Join(b.base, "value"), openAttempts, openDelay)
	if err != nil {
		return fmt.Errorf("gpio%d: reopen value: %w", b.pin, err)
	}
	b.value = value
	return nil
}

// SetMode writes the drive attribute on platforms that expose one (Intel
// Galileo-style kernels). Platforms without mode pins report success so
// portable callers need no board-specific branches.
func (b *SysfsBackend) SetMode(m Mode) error {
	path := filepath.Join(b.base, "drive")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := sysfs.WriteString(path, m.String()); err != nil {
		return fmt.Errorf("gpio%d: drive: %w", b.pin, err)
	}
	return nil
}

// SetEdge writes the edge attribute.
func (b *SysfsBackend) SetEdge(e Edge) error {
	if err := sysfs.WriteString(filepath.Join(b.base, "edge"), e.String()); err != nil {
		return fmt.Errorf("gpio%d: edge: %w", b.pin, err)
	}
	return nil
}

// Read parses the value attribute.
func (b *SysfsBackend) Read() (int, error) {
	c, err := b.value.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("gpio%d: read: %w", b.pin, err)
	}
	switch c {
	case '0':
		return 0, nil
	case '1':
		return 1, nil
	}
	return 0, fmt.Errorf("gpio%d: read: unexpected value %q", b.pin, c)
}

// Write drives the value attribute.
func (b *SysfsBackend) Write(v int) error {
	c := byte('0')
	if v != 0 {
		c = '1'
	}
	if err := b.value.WriteByte(c); err != nil {
		return fmt.Errorf("gpio%d: write: %w", b.pin, err)
	}
	return nil
}

// Waiter opens an independent handle on the value attribute for poll(2).
// The watcher owning it survives direction-change reopens of the main
// handle.
func (b *SysfsBackend) Waiter() (EdgeWaiter, error) {
	w, err := newPollWaiter(filepath.Join(b.base, "value"))
	if err != nil {
		return nil, fmt.Errorf("gpio%d: waiter: %w", b.pin, err)
	}
	return w, nil
}

// Close closes the value handle. Unexport is a separate step (Release) so a
// failed unexport never blocks local resource release.
func (b *SysfsBackend) Close() error {
	return b.value.Close()
}

// Release unexports the pin.
func (b *SysfsBackend) Release() error {
	if err := sysfs.WriteString(filepath.Join(gpioRoot, "unexport"), strconv.Itoa(b.pin)); err != nil {
		return fmt.Errorf("gpio%d: unexport: %w", b.pin, err)
	}
	return nil
}
