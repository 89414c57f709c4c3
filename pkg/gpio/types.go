package gpio

// Direction configures a pin as input or output.
type Direction int

const (
	DirOut Direction = iota
	DirIn
)

func (d Direction) String() string {
	if d == DirIn {
		return "in"
	}
	return "out"
}

// Mode selects the output drive of a pin. Not every platform has mode pins;
// where the kernel exposes no drive control, setting a mode is a silent
// success so portable code does not have to special-case boards.
type Mode int

const (
	ModeStrong Mode = iota
	ModePullUp
	ModePullDown
	ModeHiZ
)

func (m Mode) String() string {
	switch m {
	case ModePullUp:
		return "pullup"
	case ModePullDown:
		return "pulldown"
	case ModeHiZ:
		return "hiz"
	default:
		return "strong"
	}
}

// Edge selects which value transitions raise an interrupt.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeBoth
	EdgeRising
	EdgeFalling
)

func (e Edge) String() string {
	switch e {
	case EdgeBoth:
		return "both"
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	default:
		return "none"
	}
}
