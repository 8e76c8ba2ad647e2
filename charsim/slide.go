package charsim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/strideworks/stride/geo"
	"github.com/strideworks/stride/vmath"
)

// sweepAndSlide iteratively moves the volume along dir for up to dist,
// redirecting the remaining displacement along contacted surfaces. The volume
// center is mutated in place. The boolean return reports whether at least one
// collision occurred; the count is the number of recorded contacts.
//
// The loop never raises an error: iteration exhaustion while still blocked
// leaves the volume at its last valid advanced position, which callers
// observe as reduced progress plus collision flags.
func (ctx *stepContext) sweepAndSlide(dir mgl64.Vec3, dist float64, maxIter int, p phase) (bool, int) {
	cfg := ctx.cfg
	if dist <= cfg.MinMoveDistance {
		return false, 0
	}
	original := vmath.SafeNormalize(dir, mgl64.Vec3{})
	if original.LenSqr() == 0 {
		return false, 0
	}

	target := ctx.volume.Center.Add(original.Mul(dist))
	var prevNormal mgl64.Vec3
	hasPrev := false
	collisions := 0

	for iter := 0; iter < maxIter; iter++ {
		if ctx.totalIters >= SafetyIterationCeiling {
			ctx.sim.debugf("%s: safety iteration ceiling reached", p)
			break
		}
		ctx.totalIters++

		remainingVec := target.Sub(ctx.volume.Center)
		remaining := remainingVec.Len()
		// Sub-threshold residue counts as converged; without this guard,
		// floating-point crumbs cause endless re-querying.
		if remaining <= cfg.MinMoveDistance {
			break
		}
		d := remainingVec.Mul(1 / remaining)
		// Oscillation guard: once a slide response reverses net progress
		// relative to the original intent, iterating only produces jitter.
		if d.Dot(original) <= 0 {
			break
		}

		// The skin width is added to the sweep so contacts already inside it
		// are not missed; omitting it lets the volume tunnel quietly.
		contact, hit := ctx.sim.Geometry.Sweep(ctx.volume, d, remaining+cfg.ContactOffset, ctx.filter)
		if !hit {
			ctx.advance(remainingVec)
			break
		}
		if !finiteContact(contact) {
			ctx.sim.debugf("%s: discarded non-finite contact", p)
			break
		}
		if contact.Distance == 0 {
			// Starting overlap: recover, never slide from inside geometry.
			ctx.overlapped = true
			ctx.record(p, contact)
			collisions++
			ctx.recoverOverlap()
			break
		}

		adv := math.Max(0, contact.Distance-cfg.ContactOffset)
		if adv > 0 {
			ctx.advance(d.Mul(adv))
		}
		ctx.record(p, contact)
		collisions++

		remaining = math.Max(0, remaining-adv)
		if remaining <= cfg.MinMoveDistance {
			break
		}

		if hasPrev {
			// Two non-parallel surfaces form a crease; slide along its line,
			// oriented to agree with the original intent. Parallel normals
			// mean a flat corner reached twice: fully blocked.
			crease := prevNormal.Cross(contact.Normal)
			if crease.LenSqr() <= 1e-10 {
				break
			}
			creaseDir := crease.Normalize()
			amount := remaining * creaseDir.Dot(original)
			if amount < 0 {
				creaseDir = creaseDir.Mul(-1)
				amount = -amount
			}
			if amount <= cfg.MinMoveDistance {
				break
			}
			target = ctx.volume.Center.Add(creaseDir.Mul(amount))
		} else {
			target = collideResponse(ctx.volume.Center, d, remaining, contact.Normal, 0, 1, ctx.normalizeResponse, cfg.Up)
		}
		prevNormal = contact.Normal
		hasPrev = true
	}
	return collisions > 0, collisions
}

func finiteContact(c geo.Contact) bool {
	return vmath.Finite(c.Normal) && vmath.Finite(c.Point) &&
		!math.IsNaN(c.Distance) && !math.IsInf(c.Distance, 0)
}
