package board

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/hal"
)

// BCM2835 register layout, one word index per register group. The GPIO block
// starts at offset 0 of /dev/gpiomem; function select packs three bits per
// pin, set/clear/level pack one bit per pin across two words each.
const (
	bcmFSel  = 0  // GPFSEL0
	bcmSet   = 7  // GPSET0
	bcmClear = 10 // GPCLR0
	bcmLevel = 13 // GPLEV0
)

// RaspberryPi returns the map for Raspberry Pi boards with the 40-pin
// header. Logical numbers are BCM GPIO numbers; every pin carries a register
// block so the memory-mapped backend is available.
func RaspberryPi() *Static {
	gpio := make(map[int]GPIOEntry, 28)
	for pin := 0; pin <= 27; pin++ {
		gpio[pin] = GPIOEntry{
			Pin:       pin,
			Direction: "in",
			Reg:       bcm2835Reg(pin),
		}
	}
	return &Static{
		BoardName: "raspberrypi",
		GPIO:      gpio,
		// BCM2835 PWM0/PWM1 as exposed by the pwm-bcm2835 overlay.
		PWM: map[int]PWMEntry{
			0: {Chip: 0, Channel: 0},
			1: {Chip: 0, Channel: 1},
		},
	}
}

func bcm2835Reg(pin int) *RegBlock {
	shift := uint32(pin%10) * 3
	bank := uint32(pin / 32)
	bit := uint32(1) << uint(pin%32)
	return &RegBlock{
		Device:  "/dev/gpiomem",
		Offset:  0,
		Length:  4096,
		Level:   RegBit{Reg: bcmLevel + bank, Mask: bit},
		Set:     RegBit{Reg: bcmSet + bank, Mask: bit},
		Clear:   RegBit{Reg: bcmClear + bank, Mask: bit},
		DirReg:  bcmFSel + uint32(pin/10),
		DirMask: 7 << shift,
		DirOut:  1 << shift,
		DirIn:   0,
	}
}

// Generic returns a sysfs-only map listing the given kernel pin numbers
// one-to-one. Memory-mapped access is unavailable on it.
func Generic(pins ...int) *Static {
	gpio := make(map[int]GPIOEntry, len(pins))
	for _, pin := range pins {
		gpio[pin] = GPIOEntry{Pin: pin}
	}
	return &Static{BoardName: "generic", GPIO: gpio}
}

// Passthrough resolves every logical GPIO number to the identical kernel
// pin number. It is the fallback for boards without a description; PWM
// channels cannot be guessed this way and always fail to resolve.
type Passthrough struct{}

func (Passthrough) Name() string { return "passthrough" }

func (Passthrough) ResolveGPIO(logical int) (GPIOEntry, error) {
	if logical < 0 {
		return GPIOEntry{}, fmt.Errorf("board passthrough: gpio %d: %w", logical, hal.ErrInvalidResource)
	}
	return GPIOEntry{Pin: logical}, nil
}

func (Passthrough) ResolvePWM(logical int) (PWMEntry, error) {
	return PWMEntry{}, fmt.Errorf("board passthrough: pwm %d: %w", logical, hal.ErrInvalidResource)
}
