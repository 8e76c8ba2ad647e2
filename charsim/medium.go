package charsim

import "github.com/strideworks/stride/geo"

// Medium classifies how the character should move this tick.
type Medium uint8

const (
	// MediumWalk is ordinary collide-and-slide ground movement.
	MediumWalk Medium = iota
	// MediumSwim is liquid movement: no step offset and no ground snap.
	MediumSwim
)

func (m Medium) String() string {
	if m == MediumSwim {
		return "swim"
	}
	return "walk"
}

// ClassifyMedium reports the medium for a volume based on the liquid surface
// at its horizontal position. The character swims once its center is at or
// below the liquid surface.
func ClassifyMedium(vol geo.Volume, liquid geo.LiquidSource) Medium {
	if liquid == nil {
		return MediumWalk
	}
	h, ok := liquid.LiquidHeight(vol.Center.X(), vol.Center.Z())
	if !ok {
		return MediumWalk
	}
	if vol.Center.Y() <= h {
		return MediumSwim
	}
	return MediumWalk
}
