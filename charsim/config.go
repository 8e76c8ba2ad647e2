package charsim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/strideworks/stride/vmath"
)

// Config holds the tuning constants of the movement simulator. The zero value
// is usable: unset fields fall back to the package defaults. A Config is
// immutable for the duration of a step.
type Config struct {
	// MaxIterations caps the sweep-and-slide iterations of a full phase.
	MaxIterations int
	// MinMoveDistance is the anti-jitter convergence threshold; remaining
	// displacement at or below it is treated as resolved.
	MinMoveDistance float64
	// ContactOffset is the skin width kept between the volume surface and
	// world geometry.
	ContactOffset float64
	// StepOffset is the maximum ledge height climbed automatically during
	// lateral movement.
	StepOffset float64
	// SnapDistance is how far below the volume a walkable surface may be for
	// the ground snap to commit.
	SnapDistance float64
	// WalkableThreshold is the cosine of the maximum walkable slope angle.
	WalkableThreshold float64
	// CacheGrowth is the growth factor for the geometry query cache bounds.
	CacheGrowth float64
	// MaxOverlapCorrection bounds the positional correction applied by a
	// single overlap recovery, so deep wedges resolve over several steps
	// instead of one discontinuous jump.
	MaxOverlapCorrection float64
	// Up is the world up axis. Defaults to +Y; box volumes remain
	// axis-aligned regardless.
	Up mgl64.Vec3
}

// DefaultConfig returns the package default tuning.
func DefaultConfig() Config {
	return Config{
		MaxIterations:        DefaultMaxIterations,
		MinMoveDistance:      DefaultMinMoveDistance,
		ContactOffset:        DefaultContactOffset,
		StepOffset:           DefaultStepOffset,
		SnapDistance:         DefaultSnapDistance,
		WalkableThreshold:    math.Cos(DefaultMaxSlopeDegrees * math.Pi / 180),
		CacheGrowth:          DefaultCacheGrowth,
		MaxOverlapCorrection: DefaultMaxOverlapCorrection,
		Up:                   mgl64.Vec3{0, 1, 0},
	}
}

// normalized fills unset fields with defaults and unit-normalizes the up axis.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = def.MaxIterations
	}
	if c.MinMoveDistance <= 0 {
		c.MinMoveDistance = def.MinMoveDistance
	}
	if c.ContactOffset <= 0 {
		c.ContactOffset = def.ContactOffset
	}
	if c.StepOffset == 0 {
		c.StepOffset = def.StepOffset
	} else if c.StepOffset < 0 {
		// Negative disables auto-stepping.
		c.StepOffset = 0
	}
	if c.SnapDistance <= 0 {
		c.SnapDistance = def.SnapDistance
	}
	if c.WalkableThreshold <= 0 || c.WalkableThreshold > 1 {
		c.WalkableThreshold = def.WalkableThreshold
	}
	if c.CacheGrowth < 1 {
		c.CacheGrowth = def.CacheGrowth
	}
	if c.MaxOverlapCorrection <= 0 {
		c.MaxOverlapCorrection = def.MaxOverlapCorrection
	}
	c.Up = vmath.SafeNormalize(c.Up, def.Up)
	return c
}

// Walkable reports whether a contact normal permits standing, the cosine test
// against the configured maximum slope angle.
func (c Config) Walkable(normal mgl64.Vec3) bool {
	return normal.Dot(c.Up) >= c.WalkableThreshold
}
