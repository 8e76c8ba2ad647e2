package charsim

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/strideworks/stride/geo"
	"github.com/zeebo/xxh3"
)

// State is the movement state that survives across steps. It is owned by the
// calling character entity; every field is fully overwritten each step.
type State struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3

	Grounded      bool
	GroundNormal  mgl64.Vec3
	GroundSurface geo.SurfaceRef

	Flags          CollisionFlags
	TouchedSurface geo.Handle

	Platform PlatformState

	// StuckSteps counts consecutive steps in which the character was
	// colliding but failed to move materially. The core only maintains the
	// counter; sustained stuck conditions are a caller-level concern.
	StuckSteps int
}

// Input is a single step's request.
type Input struct {
	// Displacement is the requested movement for the step.
	Displacement mgl64.Vec3
	// Elapsed is the simulated time covered by the step, used only to derive
	// the resulting velocity.
	Elapsed float64
	// Shape describes the collision volume; its center is taken from the
	// state's position.
	Shape geo.Volume

	Jumping  bool
	Flying   bool
	Swimming bool

	// ConstrainedClimb rejects side contacts above the step offset even
	// when their face angle is walkable.
	ConstrainedClimb bool

	// Filter excludes geometry from all queries of the step.
	Filter geo.Filter
}

// Result is the assembled outcome of one step.
type Result struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3

	Flags         CollisionFlags
	Grounded      bool
	GroundNormal  mgl64.Vec3
	GroundSurface geo.SurfaceRef

	Platform PlatformState
}

// Checksum returns a hash of the state's observable fields, quantized to a
// tenth of a millimeter. Identical inputs must produce identical checksums;
// callers use it for determinism checks and cheap stuck heuristics.
func Checksum(s *State) uint64 {
	var buf [56]byte
	for i := range 3 {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(int64(math.Round(s.Position[i]*1e4))))
		binary.LittleEndian.PutUint64(buf[24+i*8:], uint64(int64(math.Round(s.Velocity[i]*1e4))))
	}
	var tail uint64
	if s.Grounded {
		tail = 1 << 8
	}
	tail |= uint64(s.Flags)
	binary.LittleEndian.PutUint64(buf[48:], tail)
	return xxh3.Hash(buf[:])
}
