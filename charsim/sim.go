package charsim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/strideworks/stride/geo"
	"github.com/strideworks/stride/vmath"
)

// Simulator resolves one character's motion for one simulation tick. It is
// stateless between calls: all mutable state is passed in and returned out,
// so one Simulator may step many characters concurrently as long as the
// geometry snapshot is read-only and each State is owned by one goroutine.
type Simulator struct {
	// Geometry answers the swept closest-hit and overlap queries.
	Geometry geo.Sweeper
	// Transforms optionally reports surface origins for platform tracking.
	Transforms geo.TransformSource
	// Config is the tuning; zero fields fall back to defaults.
	Config Config

	// Debugf receives internal simulation trace logs for callers that need
	// deep diagnostics.
	Debugf func(format string, args ...any)
}

func (s *Simulator) debugf(format string, args ...any) {
	if s.Debugf != nil {
		s.Debugf(format, args...)
	}
}

// Step resolves the requested displacement against world geometry and
// returns the character's end-of-step state. The step never errors: all
// abnormal conditions degrade to "the character moved less than requested",
// with the collision flags reporting what was hit.
func (s *Simulator) Step(state *State, input Input) Result {
	if state == nil {
		return Result{}
	}
	cfg := s.Config.normalized()
	ctx := newCtx(s, cfg)
	defer putCtx(ctx)

	disp := input.Displacement
	if !vmath.Finite(disp) {
		s.debugf("discarded non-finite displacement %v", disp)
		disp = mgl64.Vec3{}
	}
	requested := disp

	// Replay the tracked platform's motion before the character's own
	// displacement is decomposed.
	disp = s.applyPlatformDelta(state, disp, cfg.Up)
	start := state.Position

	airborne := input.Flying || input.Swimming
	stepOffset := cfg.StepOffset
	if airborne {
		stepOffset = 0
	}
	dec := decompose(disp, cfg.Up, stepOffset, input.Jumping, state.Platform.Active)

	ctx.volume = input.Shape
	ctx.volume.Center = start
	ctx.filter = input.Filter
	ctx.originalBottom = ctx.volume.Bottom()
	ctx.constrained = input.ConstrainedClimb
	ctx.stepAllowance = dec.StepOffset

	s.primeCache(ctx, disp)
	s.runSequence(ctx, dec, false)

	if ctx.needsWalkExperiment() {
		// Retry the whole step with upward intent stripped and sliding
		// forced, so the character runs down the forbidden slope instead of
		// climbing or stopping on it.
		s.debugf("walk experiment engaged at %v", ctx.volume.Center)
		stripped := disp
		if upAmount := disp.Dot(cfg.Up); upAmount > 0 {
			stripped = disp.Sub(cfg.Up.Mul(upAmount))
		}
		ctx.restart(start)
		retry := decompose(stripped, cfg.Up, 0, input.Jumping, state.Platform.Active)
		ctx.stepAllowance = retry.StepOffset
		s.runSequence(ctx, retry, true)
	}

	var ground GroundResult
	grounded := false
	if !airborne {
		if !dec.MovingUp && !input.Jumping {
			ground, grounded = ctx.snapToGround()
		} else if down := ctx.results[phaseDown]; down.hasContact {
			ground = GroundResult{
				Found:    true,
				Walkable: cfg.Walkable(down.contact.Normal),
				Normal:   down.contact.Normal,
				Surface:  down.contact.Surface,
				Point:    down.contact.Point,
			}
			grounded = ground.Walkable
		}
	}

	state.Position = ctx.volume.Center
	own := state.Position.Sub(start)
	if input.Elapsed > 0 {
		state.Velocity = own.Mul(1 / input.Elapsed)
	} else {
		state.Velocity = mgl64.Vec3{}
	}

	state.Flags = ctx.combinedFlags()
	state.Grounded = grounded
	state.GroundNormal = mgl64.Vec3{}
	state.GroundSurface = geo.SurfaceRef{}
	if ground.Found {
		state.GroundNormal = ground.Normal
		state.GroundSurface = ground.Surface
	}
	state.TouchedSurface = ctx.touchedSurface()
	s.recordPlatform(state, ground, grounded)

	// The stuck test compares the character's own request against its net
	// motion; platform carry folded into disp is not the character's intent.
	if requested.Len() > cfg.MinMoveDistance && own.Len() < cfg.MinMoveDistance && state.Flags != 0 {
		state.StuckSteps++
	} else {
		state.StuckSteps = 0
	}
	s.debugf("step resolved: %d contacts, flags=%03b, grounded=%v, overlapped=%v",
		ctx.collisionCount(), state.Flags, grounded, ctx.overlapped)

	return Result{
		Position:      state.Position,
		Velocity:      state.Velocity,
		Flags:         state.Flags,
		Grounded:      state.Grounded,
		GroundNormal:  state.GroundNormal,
		GroundSurface: state.GroundSurface,
		Platform:      state.Platform,
	}
}

// runSequence executes the UP, SIDE and DOWN passes plus the slope sensor.
// During the walk-experiment retry the UP pass is skipped and the DOWN pass
// runs with the full iteration cap.
func (s *Simulator) runSequence(ctx *stepContext, dec Decomposed, experiment bool) {
	cfg := ctx.cfg

	if !experiment {
		if upLen := vecLen(dec.Up); upLen > 0 {
			upCap := 1
			if !dec.HasSide {
				upCap = cfg.MaxIterations
			}
			ctx.sweepAndSlide(cfg.Up, upLen, upCap, phaseUp)
		}
	}

	if sideLen := vecLen(dec.Side); sideLen > 0 {
		sideDir := dec.Side.Mul(1 / sideLen)
		ctx.sweepAndSlide(sideDir, sideLen, cfg.MaxIterations, phaseSide)

		// Slope sensor: a non-displacing sweep extended to at least one
		// lateral extent, so slopes a too-short side sweep would miss are
		// still observed. It must run after the side sweep; running before
		// would observe the wrong starting position.
		sensorDist := sideLen
		if ext := ctx.volume.LateralExtent(); sensorDist < ext {
			sensorDist = ext
		}
		contact, hit := s.Geometry.Sweep(ctx.volume, sideDir, sensorDist+cfg.ContactOffset, ctx.filter)
		if hit && finiteContact(contact) && contact.Distance > 0 {
			ctx.record(phaseSensor, contact)
		}
	}

	if downLen := vecLen(dec.Down); downLen > 0 {
		downCap := 1
		if experiment {
			downCap = cfg.MaxIterations
		}
		downDir := dec.Down.Mul(1 / downLen)
		ctx.sweepAndSlide(downDir, downLen, downCap, phaseDown)
	}
}

// primeCache announces the whole frame's motion bounds to a caching geometry
// adapter, so its working set covers every sweep of the iterative loop.
func (s *Simulator) primeCache(ctx *stepContext, disp mgl64.Vec3) {
	primer, ok := s.Geometry.(geo.Primer)
	if !ok {
		return
	}
	cfg := ctx.cfg
	min, max := ctx.volume.Bounds()
	min = vmath.MinVec64(min, min.Add(disp))
	max = vmath.MaxVec64(max, max.Add(disp))
	m := cfg.StepOffset + cfg.SnapDistance + cfg.ContactOffset
	margin := mgl64.Vec3{m, m, m}
	primer.Prime(min.Sub(margin), max.Add(margin))
}

// touchedSurface picks the step's reported touched surface, preferring the
// supporting DOWN contact.
func (ctx *stepContext) touchedSurface() geo.Handle {
	for _, p := range [4]phase{phaseDown, phaseSide, phaseSensor, phaseUp} {
		if ctx.results[p].hasContact {
			return ctx.results[p].contact.Surface.Handle
		}
	}
	return geo.NoHandle
}
