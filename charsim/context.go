package charsim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/strideworks/stride/geo"
	"github.com/strideworks/stride/vmath"
)

// phaseResult is the tagged outcome of a single sweep pass. Results are held
// per phase and combined into the public collision bitmask only at the step
// boundary.
type phaseResult struct {
	collided   bool
	count      int
	contact    geo.Contact
	hasContact bool
}

// stepContext carries the mutable state of one step call. Contexts are pooled
// and never escape the step.
type stepContext struct {
	sim *Simulator
	cfg Config

	volume geo.Volume
	filter geo.Filter

	// originalBottom is the height of the volume's lowest point at step
	// start, the reference for the constrained-climb ledge test.
	originalBottom float64
	constrained    bool

	// stepAllowance is the auto-step height actually granted to this
	// sequence, after the jumping and lateral-movement rules. It can be
	// smaller than the configured step offset.
	stepAllowance float64

	// normalizeResponse enables the magnitude-preserving response mode
	// during the walk-experiment retry.
	normalizeResponse bool

	// totalIters counts sweep iterations across all phases of one sequence
	// and is bounded by the safety ceiling.
	totalIters int

	results    [4]phaseResult
	overlapped bool
}

func (ctx *stepContext) reset() {
	ctx.sim = nil
	ctx.cfg = Config{}
	ctx.volume = geo.Volume{}
	ctx.filter = geo.Filter{}
	ctx.originalBottom = 0
	ctx.constrained = false
	ctx.stepAllowance = 0
	ctx.normalizeResponse = false
	ctx.totalIters = 0
	ctx.results = [4]phaseResult{}
	ctx.overlapped = false
}

// restart rewinds the context for the walk-experiment retry of the same step.
// The retry is a fresh sequence and gets a fresh safety iteration budget; a
// side-heavy first pass must not starve the retry's full-cap DOWN pass.
func (ctx *stepContext) restart(pos mgl64.Vec3) {
	ctx.volume.Center = pos
	ctx.results = [4]phaseResult{}
	ctx.overlapped = false
	ctx.normalizeResponse = true
	ctx.totalIters = 0
}

// advance moves the volume, discarding non-finite updates so a bad geometry
// query can never corrupt the last known-valid position.
func (ctx *stepContext) advance(delta mgl64.Vec3) {
	next := ctx.volume.Center.Add(delta)
	if vmath.Finite(next) {
		ctx.volume.Center = next
	} else {
		ctx.sim.debugf("discarded non-finite advance %v", delta)
	}
}

func (ctx *stepContext) record(p phase, c geo.Contact) {
	r := &ctx.results[p]
	r.collided = true
	r.count++
	r.contact = c
	r.hasContact = true
}

// combinedFlags folds the tagged per-phase results into the public bitmask.
func (ctx *stepContext) combinedFlags() CollisionFlags {
	var f CollisionFlags
	for p := phaseUp; p <= phaseSensor; p++ {
		if ctx.results[p].collided {
			f |= p.flag()
		}
	}
	return f
}

func (ctx *stepContext) collisionCount() int {
	total := 0
	for p := phaseUp; p <= phaseDown; p++ {
		total += ctx.results[p].count
	}
	return total
}
