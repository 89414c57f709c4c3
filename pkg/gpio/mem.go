package gpio

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/board"
	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/hal"
)

// MemBackend accesses one pin through a mapped register block, bypassing
// sysfs for lower latency. It implements Backend only: there is no
// interrupt delivery through registers, edge detection stays on sysfs.
type MemBackend struct {
	reg  board.RegBlock
	mem8 []byte
	mem  []uint32

	// Guards read/modify/write sequences; plain 32-bit loads and stores on
	// set/clear/level registers do not need it.
	mu sync.Mutex
}

func newMemBackend(rb *board.RegBlock) (*MemBackend, error) {
	if rb.Device == "" || rb.Length < 4 {
		return nil, fmt.Errorf("gpio: register block incomplete: %w", hal.ErrInvalidArgument)
	}
	f, err := os.OpenFile(rb.Device, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("gpio: %s: %w", rb.Device, err)
	}
	defer f.Close()
	mem8, err := unix.Mmap(int(f.Fd()), rb.Offset, rb.Length,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("gpio: mmap %s: %w", rb.Device, err)
	}
	b := &MemBackend{
		reg:  *rb,
		mem8: mem8,
		mem:  unsafe.Slice((*uint32)(unsafe.Pointer(&mem8[0])), len(mem8)/4),
	}
	if err := b.validate(); err != nil {
		unix.Munmap(mem8)
		return nil, err
	}
	return b, nil
}

func (b *MemBackend) validate() error {
	words := uint32(len(b.mem))
	for _, r := range []uint32{b.reg.Level.Reg, b.reg.Set.Reg, b.reg.Clear.Reg, b.reg.Data.Reg, b.reg.DirReg} {
		if r >= words {
			return fmt.Errorf("gpio: register index %d outside %d-word block: %w", r, words, hal.ErrInvalidArgument)
		}
	}
	return nil
}

// SetDirection performs a 32-bit read/modify/write on the direction (or
// function-select) register.
func (b *MemBackend) SetDirection(d Direction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.mem[b.reg.DirReg] &^ b.reg.DirMask
	if d == DirOut {
		v |= b.reg.DirOut
	} else {
		v |= b.reg.DirIn
	}
	b.mem[b.reg.DirReg] = v
	return nil
}

// Read masks the level register.
func (b *MemBackend) Read() (int, error) {
	if b.mem[b.reg.Level.Reg]&b.reg.Level.Mask != 0 {
		return 1, nil
	}
	return 0, nil
}

// Write uses dedicated set/clear registers when the SoC has them, otherwise
// a read/modify/write on the data register.
func (b *MemBackend) Write(v int) error {
	if b.reg.Set.Mask != 0 {
		if v != 0 {
			b.mem[b.reg.Set.Reg] = b.reg.Set.Mask
		} else {
			b.mem[b.reg.Clear.Reg] = b.reg.Clear.Mask
		}
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if v != 0 {
		b.mem[b.reg.Data.Reg] |= b.reg.Data.Mask
	} else {
		b.mem[b.reg.Data.Reg] &^= b.reg.Data.Mask
	}
	return nil
}

// Close unmaps the register block.
func (b *MemBackend) Close() error {
	if b.mem8 == nil {
		return nil
	}
	err := unix.Munmap(b.mem8)
	b.mem8 = nil
	b.mem = nil
	return err
}

// Release is a no-op: mapped registers are not kernel-exported state.
func (b *MemBackend) Release() error { return nil }
