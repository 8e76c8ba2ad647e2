package charsim

import (
	"math"

	"github.com/strideworks/stride/geo"
)

// recoverOverlap resolves a starting-in-penetration state by pushing the
// volume along the deepest eligible contact's minimum-translation direction.
// Static geometry is always eligible, kinematic geometry too; ordinary
// dynamic bodies are left to a separate dynamics step.
//
// The total correction of one call is bounded, so a deeply wedged character
// is freed across consecutive steps rather than in one discontinuous jump.
func (ctx *stepContext) recoverOverlap() {
	cfg := ctx.cfg
	budget := cfg.MaxOverlapCorrection

	for pass := 0; pass < overlapPasses && budget > 0; pass++ {
		contacts := ctx.sim.Geometry.Overlap(ctx.volume, ctx.filter)

		best := geo.Contact{Depth: -1}
		for _, c := range contacts {
			if c.Kind == geo.KindDynamic {
				continue
			}
			if !finiteContact(c) {
				continue
			}
			if c.Depth > best.Depth {
				best = c
			}
		}
		if best.Depth <= 0 {
			return
		}

		// Push slightly past the surface so the skin-width invariant is
		// restored, not merely the penetration.
		push := math.Min(best.Depth+cfg.ContactOffset*0.5, budget)
		ctx.advance(best.Normal.Mul(push))
		budget -= push
		ctx.sim.debugf("overlap recovery: pushed %.4f along %v", push, best.Normal)
	}
}
