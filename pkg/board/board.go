// Package board maps logical pin numbers to the raw identities the kernel
// and the SoC expose. A Map is injected into the GPIO and PWM initializers
// so applications (and tests) choose the board description explicitly; there
// is no hidden global and no auto-detection.
package board

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/hal"
)

// RegBit addresses a single bit inside a 32-bit register: Reg is the word
// index into the mapped block, Mask the bit within it.
type RegBit struct {
	Reg  uint32
	Mask uint32
}

// RegBlock describes the memory-mapped GPIO registers for one pin. Pins on
// SoCs with dedicated set/clear registers fill Set and Clear; SoCs with a
// plain data register fill Data instead and writes become read/modify/write.
// Direction is always read/modify/write on DirReg: the bits under DirMask
// are replaced with DirOut or DirIn.
type RegBlock struct {
	Device string // e.g. /dev/gpiomem or /dev/mem
	Offset int64  // mmap offset of the register block
	Length int    // mapping length in bytes

	Level RegBit
	Set   RegBit
	Clear RegBit
	Data  RegBit

	DirReg  uint32
	DirMask uint32
	DirOut  uint32
	DirIn   uint32
}

// GPIOEntry is the resolved identity of one GPIO pin.
type GPIOEntry struct {
	Pin       int    // raw sysfs pin number
	Direction string // default direction, "in" or "out"; empty means leave as-is
	Reg       *RegBlock
}

// PWMEntry is the resolved identity of one PWM channel.
type PWMEntry struct {
	Chip    int
	Channel int
}

// Map resolves logical pin numbers for one board. Implementations are
// read-only after construction.
type Map interface {
	Name() string
	ResolveGPIO(logical int) (GPIOEntry, error)
	ResolvePWM(logical int) (PWMEntry, error)
}

// Static is a Map backed by fixed tables.
type Static struct {
	BoardName string
	GPIO      map[int]GPIOEntry
	PWM       map[int]PWMEntry
}

// Name returns the board name.
func (s *Static) Name() string { return s.BoardName }

// ResolveGPIO implements Map.
func (s *Static) ResolveGPIO(logical int) (GPIOEntry, error) {
	e, ok := s.GPIO[logical]
	if !ok {
		return GPIOEntry{}, fmt.Errorf("board %s: gpio %d: %w", s.BoardName, logical, hal.ErrInvalidResource)
	}
	return e, nil
}

// ResolvePWM implements Map.
func (s *Static) ResolvePWM(logical int) (PWMEntry, error) {
	e, ok := s.PWM[logical]
	if !ok {
		return PWMEntry{}, fmt.Errorf("board %s: pwm %d: %w", s.BoardName, logical, hal.ErrInvalidResource)
	}
	return e, nil
}
