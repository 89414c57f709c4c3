// Package sysfs contains the pseudo-file plumbing shared by the GPIO and PWM
// backends: one-shot attribute writes, kept-open handles that re-seek to
// offset 0 on every access, and a bounded retry open for attributes the
// kernel creates asynchronously after an export.
package sysfs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Export writes a decimal pin number to an export/unexport control file.
func Export(path string, n int) error {
	return WriteString(path, strconv.Itoa(n))
}

// WriteString writes s to an existing attribute file and closes it. The
// kernel consumes the write as a whole; no trailing newline is added.
// O_TRUNC is a no-op on sysfs and keeps regular files deterministic.
func WriteString(path, s string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(s)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// ReadString reads an attribute file and returns its content with
// surrounding whitespace trimmed.
func ReadString(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// ReadInt64 reads an attribute file containing a single ASCII decimal.
func ReadInt64(path string) (int64, error) {
	s, err := ReadString(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sysfs: %s: %w", path, err)
	}
	return v, nil
}

// WriteInt64 writes a single ASCII decimal to an attribute file.
func WriteInt64(path string, v int64) error {
	return WriteString(path, strconv.FormatInt(v, 10))
}

// OpenRetry opens an attribute file, retrying a bounded number of times.
// Writing to an export file creates the attribute directory synchronously,
// but udev permission fixups and some PWM chip drivers lag behind, so the
// first open after an export can fail with ENOENT or EACCES.
func OpenRetry(path string, flag int, attempts int, delay time.Duration) (*os.File, error) {
	var (
		f   *os.File
		err error
	)
	for i := 0; i < attempts; i++ {
		f, err = os.OpenFile(path, flag, 0600)
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) && !os.IsPermission(err) {
			return nil, err
		}
		time.Sleep(delay)
	}
	return nil, err
}

// Attr is a kept-open attribute handle. Sysfs value-style files are
// singleton pseudo-files: every read and write must happen at offset 0.
type Attr struct {
	f *os.File
}

// OpenAttr opens path read/write with bounded retry.
func OpenAttr(path string, attempts int, delay time.Duration) (*Attr, error) {
	f, err := OpenRetry(path, os.O_RDWR, attempts, delay)
	if err != nil {
		return nil, err
	}
	return &Attr{f: f}, nil
}

// Fd returns the underlying descriptor for poll(2).
func (a *Attr) Fd() int {
	return int(a.f.Fd())
}

// ReadByte returns the first byte of the attribute.
func (a *Attr) ReadByte() (byte, error) {
	var buf [4]byte
	n, err := a.f.ReadAt(buf[:], 0)
	if n == 0 && err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WriteByte writes a single byte at offset 0.
func (a *Attr) WriteByte(b byte) error {
	_, err := a.f.WriteAt([]byte{b}, 0)
	return err
}

// Close closes the handle. Safe on a nil receiver so teardown paths can
// close unconditionally.
func (a *Attr) Close() error {
	if a == nil || a.f == nil {
		return nil
	}
	err := a.f.Close()
	a.f = nil
	return err
}
