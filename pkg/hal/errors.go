// Package hal defines the error vocabulary shared by the GPIO and PWM
// contexts. I/O failures are not given a sentinel of their own: backends wrap
// the underlying *os.PathError or syscall error with %w so callers can still
// reach it through errors.Is/errors.As.
package hal

import "errors"

var (
	// ErrInvalidResource reports a logical pin with no board mapping.
	ErrInvalidResource = errors.New("hal: invalid resource")

	// ErrUnsupported reports a capability the current platform or pin does
	// not provide, such as memory-mapped access without a register block.
	ErrUnsupported = errors.New("hal: unsupported")

	// ErrAlreadyActive reports a duplicate interrupt registration on a
	// context that already has a watcher.
	ErrAlreadyActive = errors.New("hal: already active")

	// ErrInvalidArgument reports malformed numeric input, e.g. a negative
	// period.
	ErrInvalidArgument = errors.New("hal: invalid argument")
)
