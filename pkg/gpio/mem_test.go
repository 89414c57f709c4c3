package gpio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/board"
	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/hal"
)

// fakeRegDevice creates a zeroed file standing in for the register device;
// mmap works the same on a regular file.
func fakeRegDevice(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gpiomem")
	if err := os.WriteFile(path, make([]byte, 4096), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// rmwBlock models a SoC with a single data register: level and data share a
// word, so writes read back without hardware.
func rmwBlock(dev string) *board.RegBlock {
	return &board.RegBlock{
		Device:  dev,
		Length:  4096,
		Level:   board.RegBit{Reg: 13, Mask: 1 << 17},
		Data:    board.RegBit{Reg: 13, Mask: 1 << 17},
		DirReg:  1,
		DirMask: 7 << 21,
		DirOut:  1 << 21,
	}
}

func TestMemBackendReadModifyWrite(t *testing.T) {
	b, err := newMemBackend(rmwBlock(fakeRegDevice(t)))
	if err != nil {
		t.Fatalf("newMemBackend: %v", err)
	}
	defer b.Close()

	if err := b.SetDirection(DirOut); err != nil {
		t.Fatal(err)
	}
	if got := b.mem[1]; got != 1<<21 {
		t.Fatalf("direction word = %#x, want %#x", got, 1<<21)
	}
	// Neighboring function-select bits survive the read/modify/write.
	b.mem[1] |= 1 << 3
	if err := b.SetDirection(DirIn); err != nil {
		t.Fatal(err)
	}
	if got := b.mem[1]; got != 1<<3 {
		t.Fatalf("direction word = %#x, want %#x", got, 1<<3)
	}

	if err := b.Write(1); err != nil {
		t.Fatal(err)
	}
	if v, _ := b.Read(); v != 1 {
		t.Fatalf("Read = %d, want 1", v)
	}
	if err := b.Write(0); err != nil {
		t.Fatal(err)
	}
	if v, _ := b.Read(); v != 0 {
		t.Fatalf("Read = %d, want 0", v)
	}
}

func TestMemBackendSetClearRegisters(t *testing.T) {
	rb := rmwBlock(fakeRegDevice(t))
	rb.Data = board.RegBit{}
	rb.Set = board.RegBit{Reg: 7, Mask: 1 << 17}
	rb.Clear = board.RegBit{Reg: 10, Mask: 1 << 17}
	b, err := newMemBackend(rb)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if err := b.Write(1); err != nil {
		t.Fatal(err)
	}
	if b.mem[7] != 1<<17 {
		t.Fatalf("set register = %#x", b.mem[7])
	}
	if err := b.Write(0); err != nil {
		t.Fatal(err)
	}
	if b.mem[10] != 1<<17 {
		t.Fatalf("clear register = %#x", b.mem[10])
	}
}

func TestMemBackendValidation(t *testing.T) {
	rb := rmwBlock(fakeRegDevice(t))
	rb.Level.Reg = 4096 // outside a 1024-word block
	if _, err := newMemBackend(rb); !errors.Is(err, hal.ErrInvalidArgument) {
		t.Fatalf("out-of-block register error = %v, want ErrInvalidArgument", err)
	}

	if _, err := newMemBackend(&board.RegBlock{Length: 4096}); !errors.Is(err, hal.ErrInvalidArgument) {
		t.Fatalf("missing device error = %v, want ErrInvalidArgument", err)
	}

	rb = rmwBlock(filepath.Join(t.TempDir(), "missing"))
	if _, err := newMemBackend(rb); err == nil {
		t.Fatalf("expected error for missing device")
	}
}

func TestMemBackendCloseIdempotent(t *testing.T) {
	b, err := newMemBackend(rmwBlock(fakeRegDevice(t)))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestUseMemSwitchesBackend(t *testing.T) {
	root := fakeGPIOTree(t, 17)
	dev := fakeRegDevice(t)
	m := &board.Static{
		BoardName: "test",
		GPIO: map[int]board.GPIOEntry{
			3: {Pin: 17, Reg: rmwBlock(dev)},
		},
	}
	p, err := Open(m, 3)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	if err := p.UseMem(true); err != nil {
		t.Fatalf("UseMem(true): %v", err)
	}
	if err := p.SetDirection(DirOut); err != nil {
		t.Fatal(err)
	}
	if err := p.Write(1); err != nil {
		t.Fatal(err)
	}
	if v, err := p.Read(); err != nil || v != 1 {
		t.Fatalf("mmap Read = %d, %v, want 1", v, err)
	}
	// The sysfs value file was never touched.
	if got := readBack(t, filepath.Join(root, "gpio17", "value")); got != "0" {
		t.Fatalf("sysfs value = %q after mmap write", got)
	}

	// Switching back lands on sysfs state.
	if err := p.UseMem(false); err != nil {
		t.Fatal(err)
	}
	if v, err := p.Read(); err != nil || v != 0 {
		t.Fatalf("sysfs Read = %d, %v, want 0", v, err)
	}
}
