package charsim

// CollisionFlags is the public collision bitmask assembled at the step
// boundary from the tagged per-phase results.
type CollisionFlags uint8

const (
	// FlagSides is set when lateral movement was blocked or redirected.
	FlagSides CollisionFlags = 1 << iota
	// FlagUp is set when upward movement hit a ceiling.
	FlagUp
	// FlagDown is set when downward movement hit ground.
	FlagDown
)

// Sides reports whether the sides bit is set.
func (f CollisionFlags) Sides() bool { return f&FlagSides != 0 }

// Up reports whether the up bit is set.
func (f CollisionFlags) Up() bool { return f&FlagUp != 0 }

// Down reports whether the down bit is set.
func (f CollisionFlags) Down() bool { return f&FlagDown != 0 }

// phase tags a sweep pass; per-phase contact records stay separate until the
// orchestrator combines them into the public bitmask.
type phase uint8

const (
	phaseUp phase = iota
	phaseSide
	phaseDown
	phaseSensor
)

func (p phase) String() string {
	switch p {
	case phaseUp:
		return "up"
	case phaseSide:
		return "side"
	case phaseDown:
		return "down"
	default:
		return "sensor"
	}
}

func (p phase) flag() CollisionFlags {
	switch p {
	case phaseUp:
		return FlagUp
	case phaseSide:
		return FlagSides
	case phaseDown:
		return FlagDown
	default:
		// The sensor probe detects, it does not collide.
		return 0
	}
}
