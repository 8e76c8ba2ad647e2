package charsim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/strideworks/stride/geo"
)

// GroundResult is the outcome of a downward ground probe.
type GroundResult struct {
	Found    bool
	Walkable bool
	// Distance is the gap between the volume surface and the surface below,
	// excluding the contact offset.
	Distance float64
	Normal   mgl64.Vec3
	Surface  geo.SurfaceRef
	Point    mgl64.Vec3
}

// probeGround performs a single downward sweep of up to maxDist below the
// volume and classifies the found surface.
func (ctx *stepContext) probeGround(maxDist float64) GroundResult {
	down := ctx.cfg.Up.Mul(-1)
	contact, hit := ctx.sim.Geometry.Sweep(ctx.volume, down, maxDist+ctx.cfg.ContactOffset, ctx.filter)
	if !hit || !finiteContact(contact) {
		return GroundResult{}
	}
	return GroundResult{
		Found:    true,
		Walkable: ctx.cfg.Walkable(contact.Normal),
		Distance: math.Max(0, contact.Distance-ctx.cfg.ContactOffset),
		Normal:   contact.Normal,
		Surface:  contact.Surface,
		Point:    contact.Point,
	}
}

// snapToGround commits a downward snap only when the surface below is
// walkable and within the snap distance; the character is never glued onto a
// slope it could not stand on. Snapping an already-grounded volume is a
// no-op, so the operation is idempotent.
func (ctx *stepContext) snapToGround() (GroundResult, bool) {
	res := ctx.probeGround(ctx.cfg.SnapDistance)
	if !res.Found || !res.Walkable {
		return res, false
	}
	if res.Distance > ctx.cfg.SnapDistance {
		return res, false
	}
	if res.Distance > 0 {
		ctx.advance(ctx.cfg.Up.Mul(-res.Distance))
	}
	return res, true
}
