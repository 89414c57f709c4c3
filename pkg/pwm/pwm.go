// Package pwm drives pulse-width-modulation channels through the kernel
// sysfs interface under /sys/class/pwm. Duty cycle is expressed as a
// fraction of the current period; the conversion and its clamping rules
// live in this package so every write obeys duty <= period.
package pwm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/OpenTraceLab/OpenTraceGPIO/internal/sysfs"
	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/board"
	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/hal"
)

// Overridable for tests, same bounds rationale as the GPIO backend.
var (
	pwmRoot      = "/sys/class/pwm"
	openAttempts = 10
	openDelay    = 10 * time.Millisecond
)

// PWM is the context for one PWM channel.
type PWM struct {
	chip    int
	channel int
	base    string // /sys/class/pwm/pwmchip{C}/pwm{N}

	period  float64 // seconds, mirrors the period attribute
	enabled bool
	owner   bool
	closed  bool
}

// Open resolves a logical PWM pin through the board map and opens the
// channel.
func Open(m board.Map, logical int) (*PWM, error) {
	entry, err := m.ResolvePWM(logical)
	if err != nil {
		return nil, err
	}
	return OpenRaw(entry.Chip, entry.Channel)
}

// OpenRaw exports and opens a channel by chip id and channel number. No
// period is assumed: the existing period is read from sysfs, and a channel
// whose period cannot be read is an error.
func OpenRaw(chip, channel int) (*PWM, error) {
	chipBase := filepath.Join(pwmRoot, fmt.Sprintf("pwmchip%d", chip))
	p := &PWM{
		chip:    chip,
		channel: channel,
		base:    filepath.Join(chipBase, fmt.Sprintf("pwm%d", channel)),
	}
	if _, err := os.Stat(p.base); err != nil {
		werr := sysfs.Export(filepath.Join(chipBase, "export"), channel)
		if werr != nil && !errors.Is(werr, syscall.EBUSY) {
			return nil, fmt.Errorf("%s: export: %w", p, werr)
		}
		p.owner = werr == nil
		if err := p.waitExported(); err != nil {
			return nil, err
		}
	}
	ns, err := p.readAttrInt("period")
	if err != nil {
		return nil, fmt.Errorf("%s: period: %w", p, err)
	}
	p.period = Seconds(ns)
	return p, nil
}

// waitExported waits for the channel directory to appear. The PWM chip
// driver creates it asynchronously after the export write.
func (p *PWM) waitExported() error {
	var err error
	for i := 0; i < openAttempts; i++ {
		if _, err = os.Stat(p.base); err == nil {
			return nil
		}
		time.Sleep(openDelay)
	}
	return fmt.Errorf("%s: not exported: %w", p, err)
}

func (p *PWM) String() string {
	return fmt.Sprintf("pwmchip%d/pwm%d", p.chip, p.channel)
}

func (p *PWM) readAttrInt(name string) (int64, error) {
	return sysfs.ReadInt64(filepath.Join(p.base, name))
}

func (p *PWM) writeAttrInt(name string, v int64) error {
	if err := sysfs.WriteInt64(filepath.Join(p.base, name), v); err != nil {
		return fmt.Errorf("%s: %s: %w", p, name, err)
	}
	return nil
}

// Write sets the duty cycle as a fraction of the current period. Values
// outside [0.0, 1.0] are silently clamped.
func (p *PWM) Write(fraction float64) error {
	fraction = ClampFraction(fraction)
	return p.writeAttrInt("duty_cycle", Nanos(p.period*fraction))
}

// Read returns the current duty cycle as a fraction of the period, 0 when
// no period is configured.
func (p *PWM) Read() (float64, error) {
	duty, err := p.readAttrInt("duty_cycle")
	if err != nil {
		return 0, fmt.Errorf("%s: duty_cycle: %w", p, err)
	}
	return FractionOf(duty, Nanos(p.period)), nil
}

// Period sets the period in seconds. Shrinking the period below the current
// duty value clamps the duty down first: the kernel rejects duty > period,
// and a duty larger than the period is never left behind.
func (p *PWM) Period(seconds float64) error {
	if seconds < 0 {
		return fmt.Errorf("%s: negative period: %w", p, hal.ErrInvalidArgument)
	}
	ns := Nanos(seconds)
	if duty, err := p.readAttrInt("duty_cycle"); err == nil && duty > ns {
		if err := p.writeAttrInt("duty_cycle", ns); err != nil {
			return err
		}
	}
	if err := p.writeAttrInt("period", ns); err != nil {
		return err
	}
	p.period = seconds
	return nil
}

// PeriodMs sets the period in milliseconds.
func (p *PWM) PeriodMs(ms int) error { return p.Period(float64(ms) / 1e3) }

// PeriodUs sets the period in microseconds.
func (p *PWM) PeriodUs(us int) error { return p.Period(float64(us) / 1e6) }

// Pulsewidth sets the absolute duty value in seconds, independent of any
// fraction previously written. The value is clamped to [0, period].
func (p *PWM) Pulsewidth(seconds float64) error {
	if seconds < 0 {
		return fmt.Errorf("%s: negative pulsewidth: %w", p, hal.ErrInvalidArgument)
	}
	ns := Nanos(seconds)
	if limit := Nanos(p.period); ns > limit {
		ns = limit
	}
	return p.writeAttrInt("duty_cycle", ns)
}

// PulsewidthMs sets the pulsewidth in milliseconds.
func (p *PWM) PulsewidthMs(ms int) error { return p.Pulsewidth(float64(ms) / 1e3) }

// PulsewidthUs sets the pulsewidth in microseconds.
func (p *PWM) PulsewidthUs(us int) error { return p.Pulsewidth(float64(us) / 1e6) }

// Enable starts or stops driving the output.
func (p *PWM) Enable(on bool) error {
	v := int64(0)
	if on {
		v = 1
	}
	if err := p.writeAttrInt("enable", v); err != nil {
		return err
	}
	p.enabled = on
	return nil
}

// Polarity selects normal or inverted drive. Kernels without the polarity
// attribute report hal.ErrUnsupported.
func (p *PWM) Polarity(inverted bool) error {
	path := filepath.Join(p.base, "polarity")
	s := "normal"
	if inverted {
		s = "inversed"
	}
	err := sysfs.WriteString(path, s)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s: polarity: %w", p, hal.ErrUnsupported)
	}
	if err != nil {
		return fmt.Errorf("%s: polarity: %w", p, err)
	}
	return nil
}

// CurrentPeriod returns the mirrored period in seconds.
func (p *PWM) CurrentPeriod() float64 { return p.period }

// Enabled reports whether the output is being driven.
func (p *PWM) Enabled() bool { return p.enabled }

// SetOwner records the advisory ownership hint consulted at Close.
func (p *PWM) SetOwner(own bool) { p.owner = own }

// Close releases the channel; when this context owns it, the channel is
// unexported. Idempotent: a second Close does nothing.
func (p *PWM) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if !p.owner {
		return nil
	}
	chipBase := filepath.Join(pwmRoot, fmt.Sprintf("pwmchip%d", p.chip))
	if err := sysfs.WriteString(filepath.Join(chipBase, "unexport"), strconv.Itoa(p.channel)); err != nil {
		return fmt.Errorf("%s: unexport: %w", p, err)
	}
	return nil
}
