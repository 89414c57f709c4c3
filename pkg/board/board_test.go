package board

import (
	"errors"
	"testing"

	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/hal"
)

func TestStaticResolve(t *testing.T) {
	m := &Static{
		BoardName: "test",
		GPIO:      map[int]GPIOEntry{3: {Pin: 17, Direction: "out"}},
		PWM:       map[int]PWMEntry{1: {Chip: 0, Channel: 1}},
	}
	g, err := m.ResolveGPIO(3)
	if err != nil {
		t.Fatalf("ResolveGPIO: %v", err)
	}
	if g.Pin != 17 || g.Direction != "out" {
		t.Fatalf("unexpected entry: %+v", g)
	}
	p, err := m.ResolvePWM(1)
	if err != nil || p.Channel != 1 {
		t.Fatalf("ResolvePWM: %+v, %v", p, err)
	}

	if _, err := m.ResolveGPIO(99); !errors.Is(err, hal.ErrInvalidResource) {
		t.Fatalf("unmapped pin error = %v, want ErrInvalidResource", err)
	}
	if _, err := m.ResolvePWM(99); !errors.Is(err, hal.ErrInvalidResource) {
		t.Fatalf("unmapped pwm error = %v, want ErrInvalidResource", err)
	}
}

func TestRaspberryPiRegisters(t *testing.T) {
	m := RaspberryPi()
	g, err := m.ResolveGPIO(17)
	if err != nil {
		t.Fatal(err)
	}
	r := g.Reg
	if r == nil {
		t.Fatal("pin 17 has no register block")
	}
	// GPIO17: FSEL1 bits 23:21, bank 0 bit 17.
	if r.DirReg != 1 || r.DirMask != 7<<21 || r.DirOut != 1<<21 {
		t.Fatalf("direction registers: %+v", r)
	}
	if r.Set.Reg != 7 || r.Set.Mask != 1<<17 {
		t.Fatalf("set register: %+v", r.Set)
	}
	if r.Clear.Reg != 10 || r.Level.Reg != 13 {
		t.Fatalf("clear/level registers: %+v", r)
	}

	// GPIO33 would live in bank 1; the header stops at 27.
	if _, err := m.ResolveGPIO(33); !errors.Is(err, hal.ErrInvalidResource) {
		t.Fatalf("pin 33 error = %v", err)
	}
}

func TestPassthrough(t *testing.T) {
	var m Map = Passthrough{}
	g, err := m.ResolveGPIO(42)
	if err != nil || g.Pin != 42 {
		t.Fatalf("ResolveGPIO(42) = %+v, %v", g, err)
	}
	if g.Reg != nil {
		t.Fatalf("passthrough must not claim register support")
	}
	if _, err := m.ResolveGPIO(-1); !errors.Is(err, hal.ErrInvalidResource) {
		t.Fatalf("negative pin error = %v", err)
	}
	if _, err := m.ResolvePWM(0); !errors.Is(err, hal.ErrInvalidResource) {
		t.Fatalf("pwm error = %v", err)
	}
}
