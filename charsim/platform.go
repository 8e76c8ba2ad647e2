package charsim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/strideworks/stride/geo"
	"github.com/strideworks/stride/vmath"
)

// PlatformState is the bookkeeping that lets a character ride a moving
// surface: the surface touched by the last DOWN-pass contact, the world
// contact point at that time, and the same point in the surface's local
// frame.
type PlatformState struct {
	Active  bool
	Surface geo.Handle

	WorldContact mgl64.Vec3
	LocalContact mgl64.Vec3
}

// applyPlatformDelta replays the tracked surface's motion since the previous
// step, before the character's own displacement is decomposed. The vertical
// part of the delta is applied to the position immediately and fully; the
// horizontal part is folded into the requested displacement so the ordinary
// sweep loop still resolves collisions against other geometry while riding.
// It returns the adjusted displacement.
func (s *Simulator) applyPlatformDelta(state *State, disp mgl64.Vec3, up mgl64.Vec3) mgl64.Vec3 {
	if !state.Platform.Active || s.Transforms == nil {
		return disp
	}
	origin, ok := s.Transforms.SurfaceOrigin(state.Platform.Surface)
	if !ok {
		state.Platform = PlatformState{}
		return disp
	}

	worldNow := origin.Add(state.Platform.LocalContact)
	delta := worldNow.Sub(state.Platform.WorldContact)
	if !vmath.Finite(delta) || delta.LenSqr() < 1e-12 {
		return disp
	}

	vertical := vmath.Project(delta, up)
	horizontal := delta.Sub(vertical)

	state.Position = state.Position.Add(vertical)
	state.Platform.WorldContact = worldNow
	s.debugf("platform delta: vertical=%v horizontal=%v", vertical, horizontal)
	return disp.Add(horizontal)
}

// recordPlatform refreshes the tracking state from the step's standing
// contact, or clears it when the character is not standing on anything whose
// transform can be queried.
func (s *Simulator) recordPlatform(state *State, ground GroundResult, grounded bool) {
	if !grounded || !ground.Found || s.Transforms == nil {
		state.Platform = PlatformState{}
		return
	}
	origin, ok := s.Transforms.SurfaceOrigin(ground.Surface.Handle)
	if !ok {
		state.Platform = PlatformState{}
		return
	}
	state.Platform = PlatformState{
		Active:       true,
		Surface:      ground.Surface.Handle,
		WorldContact: ground.Point,
		LocalContact: ground.Point.Sub(origin),
	}
}
