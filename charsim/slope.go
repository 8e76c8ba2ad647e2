package charsim

import "github.com/strideworks/stride/geo"

// sideContactTooHigh is the secondary walkability test of the
// constrained-climb mode: a ledge whose contact point sits above the step
// allowance is rejected regardless of its face angle. The test uses the
// allowance actually granted to the sequence, which jumping can revoke.
func (ctx *stepContext) sideContactTooHigh(c geo.Contact) bool {
	return c.Point.Dot(ctx.cfg.Up) > ctx.originalBottom+ctx.stepAllowance
}

// steepSlope reports whether a contact normal belongs to an actual
// non-walkable slope, as opposed to a vertical wall. Only slopes engage the
// walk experiment; walls are handled by the ordinary slide response.
func (ctx *stepContext) steepSlope(c geo.Contact) bool {
	d := c.Normal.Dot(ctx.cfg.Up)
	return d > slopeEpsilon && d < ctx.cfg.WalkableThreshold
}

// needsWalkExperiment decides whether the step must be retried with sliding
// forced, based on the contacts recorded by the DOWN pass, the slope sensor
// and, in constrained-climb mode, the SIDE pass ledge test.
func (ctx *stepContext) needsWalkExperiment() bool {
	if down := ctx.results[phaseDown]; down.hasContact && ctx.steepSlope(down.contact) {
		return true
	}
	if sensor := ctx.results[phaseSensor]; sensor.hasContact && ctx.steepSlope(sensor.contact) {
		return true
	}
	if !ctx.constrained {
		return false
	}
	side := ctx.results[phaseSide]
	return side.hasContact && ctx.cfg.Walkable(side.contact.Normal) && ctx.sideContactTooHigh(side.contact)
}
