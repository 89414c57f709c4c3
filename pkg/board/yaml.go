package board

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/OpenTraceGPIO/pkg/hal"
)

// Board descriptor file format:
//
//	name: carrier-rev2
//	gpio:
//	  - pin: 3        # logical number
//	    sysfs: 17     # kernel pin number
//	    direction: out
//	pwm:
//	  - pin: 1
//	    chip: 0
//	    channel: 1
type boardDoc struct {
	Name string `yaml:"name"`
	GPIO []struct {
		Pin       int    `yaml:"pin"`
		Sysfs     int    `yaml:"sysfs"`
		Direction string `yaml:"direction"`
	} `yaml:"gpio"`
	PWM []struct {
		Pin     int `yaml:"pin"`
		Chip    int `yaml:"chip"`
		Channel int `yaml:"channel"`
	} `yaml:"pwm"`
}

// Load parses a YAML board descriptor. Descriptors cannot carry register
// blocks; boards that want memory-mapped access need a built-in map.
func Load(data []byte) (*Static, error) {
	var doc boardDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("board: descriptor has no name: %w", hal.ErrInvalidArgument)
	}
	s := &Static{
		BoardName: doc.Name,
		GPIO:      make(map[int]GPIOEntry, len(doc.GPIO)),
		PWM:       make(map[int]PWMEntry, len(doc.PWM)),
	}
	for _, g := range doc.GPIO {
		switch g.Direction {
		case "", "in", "out":
		default:
			return nil, fmt.Errorf("board %s: gpio %d: direction %q: %w", doc.Name, g.Pin, g.Direction, hal.ErrInvalidArgument)
		}
		if _, dup := s.GPIO[g.Pin]; dup {
			return nil, fmt.Errorf("board %s: gpio %d defined twice: %w", doc.Name, g.Pin, hal.ErrInvalidArgument)
		}
		s.GPIO[g.Pin] = GPIOEntry{Pin: g.Sysfs, Direction: g.Direction}
	}
	for _, p := range doc.PWM {
		if _, dup := s.PWM[p.Pin]; dup {
			return nil, fmt.Errorf("board %s: pwm %d defined twice: %w", doc.Name, p.Pin, hal.ErrInvalidArgument)
		}
		s.PWM[p.Pin] = PWMEntry{Chip: p.Chip, Channel: p.Channel}
	}
	return s, nil
}

// LoadFile reads and parses a YAML board descriptor from disk.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}
