package charsim

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/strideworks/stride/geo"
	"github.com/strideworks/stride/mesh"
)

// triWorld is a mock geometry provider answering queries straight from a
// triangle slice.
type triWorld struct {
	tris []geo.Tri
}

func (w *triWorld) Sweep(vol geo.Volume, dir mgl64.Vec3, maxDist float64, f geo.Filter) (geo.Contact, bool) {
	return geo.SweepTris(vol, dir, maxDist, w.tris, f)
}

func (w *triWorld) Overlap(vol geo.Volume, f geo.Filter) []geo.Contact {
	return geo.OverlapTris(vol, w.tris, f)
}

func quad(h geo.Handle, kind geo.GeomKind, a, b, c, d mgl64.Vec3) []geo.Tri {
	return []geo.Tri{
		{A: a, B: b, C: c, Surface: geo.SurfaceRef{Handle: h, Triangle: 0}, Kind: kind},
		{A: a, B: c, C: d, Surface: geo.SurfaceRef{Handle: h, Triangle: 1}, Kind: kind},
	}
}

func wall(h geo.Handle, x0 float64) []geo.Tri {
	return quad(h, geo.KindStatic,
		mgl64.Vec3{x0, -10, -10}, mgl64.Vec3{x0, 10, -10},
		mgl64.Vec3{x0, 10, 10}, mgl64.Vec3{x0, -10, 10})
}

func floor64(h geo.Handle, y0 float64) []geo.Tri {
	return quad(h, geo.KindStatic,
		mgl64.Vec3{-10, y0, -10}, mgl64.Vec3{10, y0, -10},
		mgl64.Vec3{10, y0, 10}, mgl64.Vec3{-10, y0, 10})
}

func testCapsule() geo.Volume {
	return geo.Capsule(mgl64.Vec3{}, 0.4, 0.5)
}

func TestStepWalkIntoWall(t *testing.T) {
	world := &triWorld{tris: append(floor64(1, 0), wall(2, 3)...)}
	sim := &Simulator{Geometry: world}

	state := &State{Position: mgl64.Vec3{0, 0.91, 0}}
	res := sim.Step(state, Input{
		Displacement: mgl64.Vec3{5, -0.1, 0},
		Elapsed:      0.05,
		Shape:        testCapsule(),
	})

	// Capsule surface stops one skin width short of the wall.
	if math.Abs(res.Position.X()-2.59) > 2e-3 {
		t.Fatalf("expected x near 2.59, got %v", res.Position.X())
	}
	if math.Abs(res.Position.Y()-0.91) > 2e-3 {
		t.Fatalf("expected grounded height 0.91, got %v", res.Position.Y())
	}
	if !res.Flags.Sides() || !res.Flags.Down() {
		t.Fatalf("expected sides+down flags, got %b", res.Flags)
	}
	if res.Flags.Up() {
		t.Fatalf("expected no ceiling flag, got %b", res.Flags)
	}
	if !res.Grounded {
		t.Fatal("expected grounded")
	}
	if state.TouchedSurface == geo.NoHandle {
		t.Fatal("expected a touched surface")
	}
	if res.Velocity.X() <= 0 {
		t.Fatalf("expected forward velocity, got %v", res.Velocity)
	}
}

func TestStepSlidesAlongObliqueWall(t *testing.T) {
	// Wall plane x+z = 1.5, 45 degrees to the movement.
	world := &triWorld{tris: quad(1, geo.KindStatic,
		mgl64.Vec3{6.5, -5, -5}, mgl64.Vec3{6.5, 5, -5},
		mgl64.Vec3{-5, 5, 6.5}, mgl64.Vec3{-5, -5, 6.5})}
	sim := &Simulator{Geometry: world}

	state := &State{Position: mgl64.Vec3{0, 1, 0}}
	res := sim.Step(state, Input{
		Displacement: mgl64.Vec3{3, 0, 0},
		Elapsed:      0.05,
		Shape:        testCapsule(),
		Flying:       true,
	})

	if !res.Flags.Sides() {
		t.Fatalf("expected sides flag, got %b", res.Flags)
	}
	if res.Position.Z() > -0.9 {
		t.Fatalf("expected deflection in -z, got %v", res.Position)
	}
	// Never closer to the plane than the capsule radius.
	planeDist := (1.5 - res.Position.X() - res.Position.Z()) / math.Sqrt2
	if planeDist < 0.4-1e-3 {
		t.Fatalf("penetrated the wall, plane distance %v", planeDist)
	}
	if res.Grounded {
		t.Fatal("expected airborne while flying")
	}
}

// steepSlopeTris is a 60 degree incline rising in +x, through the origin.
func steepSlopeTris(h geo.Handle) []geo.Tri {
	top := 4 * math.Tan(60*math.Pi/180)
	return quad(h, geo.KindStatic,
		mgl64.Vec3{0, 0, -5}, mgl64.Vec3{0, 0, 5},
		mgl64.Vec3{4, top, 5}, mgl64.Vec3{4, top, -5})
}

func TestStepWalkExperimentSlidesDownSteepSlope(t *testing.T) {
	world := &triWorld{tris: steepSlopeTris(1)}
	sim := &Simulator{Geometry: world}

	state := &State{Position: mgl64.Vec3{1, 4, 0}}
	res := sim.Step(state, Input{
		Displacement: mgl64.Vec3{0.3, -0.5, 0},
		Elapsed:      0.05,
		Shape:        testCapsule(),
	})

	if res.Grounded {
		t.Fatal("a 60 degree slope must not count as ground")
	}
	if !res.Flags.Down() {
		t.Fatalf("expected down contact, got %b", res.Flags)
	}
	// Forced sliding carries the character down the incline.
	if res.Position.Y() > 3.7 || res.Position.Y() < 3.4 {
		t.Fatalf("expected slide down to y in [3.4,3.7], got %v", res.Position.Y())
	}
	if res.Position.X() < 0.9 || res.Position.X() > 1.5 {
		t.Fatalf("unexpected x %v", res.Position.X())
	}
	if res.Velocity.Y() >= 0 {
		t.Fatalf("expected downward velocity, got %v", res.Velocity)
	}
}

func TestStepClimbsWalkableSlope(t *testing.T) {
	// 30 degree incline rising in +x.
	top := 6 * math.Tan(30*math.Pi/180)
	world := &triWorld{tris: quad(1, geo.KindStatic,
		mgl64.Vec3{0, 0, -5}, mgl64.Vec3{0, 0, 5},
		mgl64.Vec3{6, top, 5}, mgl64.Vec3{6, top, -5})}
	sim := &Simulator{Geometry: world}

	state := &State{Position: mgl64.Vec3{0.2, 1.489, 0}}
	startY := state.Position.Y()
	res := sim.Step(state, Input{
		Displacement: mgl64.Vec3{0.5, -0.3, 0},
		Elapsed:      0.05,
		Shape:        testCapsule(),
	})

	if !res.Grounded {
		t.Fatal("expected grounded on a walkable slope")
	}
	if math.Abs(res.Position.X()-0.7) > 2e-3 {
		t.Fatalf("expected full lateral progress to x=0.7, got %v", res.Position.X())
	}
	if res.Position.Y() < startY+0.2 {
		t.Fatalf("expected to climb, got y %v from %v", res.Position.Y(), startY)
	}
	if math.Abs(res.GroundNormal.Y()-math.Cos(30*math.Pi/180)) > 0.01 {
		t.Fatalf("unexpected ground normal %v", res.GroundNormal)
	}
	if !res.Flags.Down() {
		t.Fatalf("expected down flag, got %b", res.Flags)
	}
}

func TestStepRecoversFromOverlap(t *testing.T) {
	world := &triWorld{tris: wall(1, 0)}
	sim := &Simulator{Geometry: world}
	var traces []string
	sim.Debugf = func(format string, args ...any) {
		traces = append(traces, fmt.Sprintf(format, args...))
	}

	// Capsule surface 0.2 past the wall plane.
	state := &State{Position: mgl64.Vec3{-0.2, 1, 0}}
	res := sim.Step(state, Input{
		Displacement: mgl64.Vec3{0.1, 0, 0},
		Elapsed:      0.05,
		Shape:        testCapsule(),
		Flying:       true,
	})

	if res.Position.X() > -0.4 {
		t.Fatalf("still penetrating at x=%v", res.Position.X())
	}
	if res.Position.X() < -0.45 {
		t.Fatalf("overshot the recovery, x=%v", res.Position.X())
	}
	if !res.Flags.Sides() {
		t.Fatalf("expected sides flag, got %b", res.Flags)
	}

	reported := false
	for _, line := range traces {
		if strings.Contains(line, "overlapped=true") {
			reported = true
		}
	}
	if !reported {
		t.Fatal("expected the step trace to report the overlap")
	}
}

func TestStepHitsCeiling(t *testing.T) {
	ceiling := quad(1, geo.KindStatic,
		mgl64.Vec3{-10, 2, -10}, mgl64.Vec3{-10, 2, 10},
		mgl64.Vec3{10, 2, 10}, mgl64.Vec3{10, 2, -10})
	world := &triWorld{tris: append(floor64(2, 0), ceiling...)}
	sim := &Simulator{Geometry: world}

	state := &State{Position: mgl64.Vec3{0, 0.91, 0}}
	res := sim.Step(state, Input{
		Displacement: mgl64.Vec3{0, 1.5, 0},
		Elapsed:      0.05,
		Shape:        testCapsule(),
		Jumping:      true,
	})

	if !res.Flags.Up() {
		t.Fatalf("expected ceiling flag, got %b", res.Flags)
	}
	// Capsule top stops one skin width below the ceiling.
	if math.Abs(res.Position.Y()-1.09) > 2e-3 {
		t.Fatalf("expected y near 1.09, got %v", res.Position.Y())
	}
	if res.Grounded {
		t.Fatal("expected airborne while jumping")
	}
}

func TestStepClimbsLowLedge(t *testing.T) {
	lower := quad(1, geo.KindStatic,
		mgl64.Vec3{-10, 0, -10}, mgl64.Vec3{1, 0, -10},
		mgl64.Vec3{1, 0, 10}, mgl64.Vec3{-10, 0, 10})
	upper := quad(2, geo.KindStatic,
		mgl64.Vec3{1, 0.3, -10}, mgl64.Vec3{10, 0.3, -10},
		mgl64.Vec3{10, 0.3, 10}, mgl64.Vec3{1, 0.3, 10})
	riser := quad(3, geo.KindStatic,
		mgl64.Vec3{1, 0, -10}, mgl64.Vec3{1, 0.3, -10},
		mgl64.Vec3{1, 0.3, 10}, mgl64.Vec3{1, 0, 10})
	world := &triWorld{tris: append(append(lower, upper...), riser...)}
	sim := &Simulator{Geometry: world}

	state := &State{Position: mgl64.Vec3{0.5, 0.91, 0}}
	res := sim.Step(state, Input{
		Displacement: mgl64.Vec3{1, -0.1, 0},
		Elapsed:      0.05,
		Shape:        testCapsule(),
	})

	if !res.Grounded {
		t.Fatal("expected grounded on the upper floor")
	}
	if math.Abs(res.Position.X()-1.5) > 2e-3 {
		t.Fatalf("expected full lateral progress, got x=%v", res.Position.X())
	}
	if math.Abs(res.Position.Y()-1.21) > 2e-3 {
		t.Fatalf("expected stepped-up height 1.21, got %v", res.Position.Y())
	}
	if res.GroundSurface.Handle != 2 {
		t.Fatalf("expected to stand on the upper floor, got handle %v", res.GroundSurface.Handle)
	}
}

func TestStepSnapIsIdempotent(t *testing.T) {
	world := &triWorld{tris: floor64(1, 0)}
	sim := &Simulator{Geometry: world}

	state := &State{Position: mgl64.Vec3{0, 1.2, 0}}
	in := Input{Displacement: mgl64.Vec3{0, -0.1, 0}, Elapsed: 0.05, Shape: testCapsule()}

	res1 := sim.Step(state, in)
	if !res1.Grounded || math.Abs(res1.Position.Y()-0.91) > 2e-3 {
		t.Fatalf("expected snap to 0.91, got %+v", res1)
	}
	res2 := sim.Step(state, in)
	if !res2.Grounded {
		t.Fatal("expected to stay grounded")
	}
	if math.Abs(res2.Position.Y()-res1.Position.Y()) > 1e-9 {
		t.Fatalf("snap moved an already grounded character: %v -> %v",
			res1.Position.Y(), res2.Position.Y())
	}
}

// countingWorld wraps a provider and counts sweep queries.
type countingWorld struct {
	inner  *triWorld
	sweeps int
}

func (w *countingWorld) Sweep(vol geo.Volume, dir mgl64.Vec3, maxDist float64, f geo.Filter) (geo.Contact, bool) {
	w.sweeps++
	return w.inner.Sweep(vol, dir, maxDist, f)
}

func (w *countingWorld) Overlap(vol geo.Volume, f geo.Filter) []geo.Contact {
	return w.inner.Overlap(vol, f)
}

func TestStepTerminatesInWedge(t *testing.T) {
	// Two vertical walls forming a V the character pushes into.
	w1 := quad(1, geo.KindStatic,
		mgl64.Vec3{6, -5, -5}, mgl64.Vec3{6, 5, -5},
		mgl64.Vec3{-4, 5, 5}, mgl64.Vec3{-4, -5, 5})
	w2 := quad(2, geo.KindStatic,
		mgl64.Vec3{-4, -5, -5}, mgl64.Vec3{-4, 5, -5},
		mgl64.Vec3{6, 5, 5}, mgl64.Vec3{6, -5, 5})
	world := &countingWorld{inner: &triWorld{tris: append(w1, w2...)}}
	sim := &Simulator{Geometry: world}

	state := &State{Position: mgl64.Vec3{0, 1, 0}}
	res := sim.Step(state, Input{
		Displacement: mgl64.Vec3{3, 0, 0},
		Elapsed:      0.05,
		Shape:        testCapsule(),
		Flying:       true,
	})

	if !vecFinite(res.Position) {
		t.Fatalf("non-finite position %v", res.Position)
	}
	if !res.Flags.Sides() {
		t.Fatalf("expected sides flag, got %b", res.Flags)
	}
	if world.sweeps > 12 {
		t.Fatalf("expected bounded sweep count, got %d", world.sweeps)
	}
}

// nanWorld reports corrupted contacts.
type nanWorld struct{}

func (nanWorld) Sweep(vol geo.Volume, dir mgl64.Vec3, maxDist float64, f geo.Filter) (geo.Contact, bool) {
	nan := math.NaN()
	return geo.Contact{Distance: 0.1, Normal: mgl64.Vec3{nan, nan, nan}}, true
}

func (nanWorld) Overlap(vol geo.Volume, f geo.Filter) []geo.Contact { return nil }

func TestStepSurvivesCorruptGeometry(t *testing.T) {
	sim := &Simulator{Geometry: nanWorld{}}

	start := mgl64.Vec3{1, 2, 3}
	state := &State{Position: start}
	res := sim.Step(state, Input{
		Displacement: mgl64.Vec3{1, 0, 0},
		Elapsed:      0.05,
		Shape:        testCapsule(),
		Flying:       true,
	})
	if res.Position != start {
		t.Fatalf("corrupt contact moved the character to %v", res.Position)
	}

	// Non-finite input displacement is discarded outright.
	res = sim.Step(state, Input{
		Displacement: mgl64.Vec3{math.Inf(1), 0, 0},
		Elapsed:      0.05,
		Shape:        testCapsule(),
		Flying:       true,
	})
	if res.Position != start {
		t.Fatalf("non-finite displacement moved the character to %v", res.Position)
	}
}

func TestStepStuckCounter(t *testing.T) {
	world := &triWorld{tris: wall(1, 0.41)}
	sim := &Simulator{Geometry: world}

	// At skin distance from the wall, pushing straight in.
	state := &State{Position: mgl64.Vec3{0, 1, 0}}
	in := Input{Displacement: mgl64.Vec3{1, 0, 0}, Elapsed: 0.05, Shape: testCapsule(), Flying: true}

	sim.Step(state, in)
	if state.StuckSteps != 1 {
		t.Fatalf("expected stuck count 1, got %d", state.StuckSteps)
	}
	sim.Step(state, in)
	if state.StuckSteps != 2 {
		t.Fatalf("expected stuck count 2, got %d", state.StuckSteps)
	}

	in.Displacement = mgl64.Vec3{-1, 0, 0}
	sim.Step(state, in)
	if state.StuckSteps != 0 {
		t.Fatalf("expected stuck count reset, got %d", state.StuckSteps)
	}
}

// platformWorld pairs a triangle provider with a movable surface origin.
type platformWorld struct {
	triWorld
	origin mgl64.Vec3
}

func (w *platformWorld) SurfaceOrigin(h geo.Handle) (mgl64.Vec3, bool) {
	return w.origin, true
}

func TestStuckCounterIgnoresPlatformCarry(t *testing.T) {
	deck := quad(1, geo.KindKinematic,
		mgl64.Vec3{-10, 1, -10}, mgl64.Vec3{10, 1, -10},
		mgl64.Vec3{10, 1, 10}, mgl64.Vec3{-10, 1, 10})
	world := &platformWorld{triWorld: triWorld{tris: append(deck, wall(2, 0.41)...)}}
	sim := &Simulator{Geometry: world, Transforms: world}

	state := &State{Position: mgl64.Vec3{0, 1.91, 0}}
	res := sim.Step(state, Input{
		Displacement: mgl64.Vec3{0, -0.1, 0},
		Elapsed:      0.05,
		Shape:        testCapsule(),
	})
	if !res.Platform.Active {
		t.Fatalf("expected platform tracking, got %+v", res.Platform)
	}

	// The deck slides toward the wall while the rider commands nothing;
	// the blocked carry must not count the rider as stuck.
	world.origin = mgl64.Vec3{0.05, 0, 0}
	sim.Step(state, Input{Elapsed: 0.05, Shape: testCapsule()})
	if !state.Flags.Sides() {
		t.Fatalf("expected the carried rider to press the wall, got %b", state.Flags)
	}
	if state.StuckSteps != 0 {
		t.Fatalf("expected no stuck steps without own movement, got %d", state.StuckSteps)
	}
}

func TestStepDeterministicChecksum(t *testing.T) {
	run := func() uint64 {
		world := &triWorld{tris: append(floor64(1, 0), wall(2, 3)...)}
		sim := &Simulator{Geometry: world}
		state := &State{Position: mgl64.Vec3{0, 0.91, 0}}
		for range 10 {
			sim.Step(state, Input{
				Displacement: mgl64.Vec3{0.4, -0.1, 0},
				Elapsed:      0.05,
				Shape:        testCapsule(),
			})
		}
		return Checksum(state)
	}
	if a, b := run(), run(); a != b {
		t.Fatalf("expected identical checksums, got %x and %x", a, b)
	}
}

func TestStepRidesMovingPlatform(t *testing.T) {
	m := mesh.New()
	platform := m.AddBox(geo.KindKinematic, mgl64.Vec3{-2, 0, -2}, mgl64.Vec3{2, 1, 2})
	cached := geo.NewCachedSource(m, 1.5)
	sim := &Simulator{Geometry: cached, Transforms: m}

	state := &State{Position: mgl64.Vec3{0, 1.91, 0}}
	in := Input{Displacement: mgl64.Vec3{0, -0.1, 0}, Elapsed: 0.05, Shape: testCapsule()}

	res := sim.Step(state, in)
	if !res.Grounded || !res.Platform.Active {
		t.Fatalf("expected platform tracking, got %+v", res.Platform)
	}
	if res.Platform.Surface != platform {
		t.Fatalf("expected platform handle %v, got %v", platform, res.Platform.Surface)
	}

	// The platform moves up 2 and sideways 1; the rider must follow both.
	m.SetOrigin(platform, mgl64.Vec3{1, 2, 0})
	cached.Invalidate()

	res = sim.Step(state, in)
	if !res.Grounded || !res.Platform.Active {
		t.Fatalf("expected to stay on the platform, got %+v", res)
	}
	if math.Abs(res.Position.X()-1) > 2e-2 {
		t.Fatalf("expected x carried to 1, got %v", res.Position.X())
	}
	if math.Abs(res.Position.Y()-3.91) > 2e-2 {
		t.Fatalf("expected y carried to 3.91, got %v", res.Position.Y())
	}

	// Once the surface vanishes from the transform source, tracking clears.
	sim.Transforms = nil
	res = sim.Step(state, in)
	if res.Platform.Active {
		t.Fatal("expected tracking cleared without transforms")
	}
}

func TestClassifyMedium(t *testing.T) {
	m := mesh.New()
	vol := geo.Capsule(mgl64.Vec3{0, 1, 0}, 0.4, 0.5)

	if got := ClassifyMedium(vol, nil); got != MediumWalk {
		t.Fatalf("expected walk without a liquid source, got %v", got)
	}
	if got := ClassifyMedium(vol, m); got != MediumWalk {
		t.Fatalf("expected walk without liquid, got %v", got)
	}
	m.SetLiquidHeight(2)
	if got := ClassifyMedium(vol, m); got != MediumSwim {
		t.Fatalf("expected swim below the surface, got %v", got)
	}
	m.SetLiquidHeight(0.5)
	if got := ClassifyMedium(vol, m); got != MediumWalk {
		t.Fatalf("expected walk above the surface, got %v", got)
	}
}

func vecFinite(v mgl64.Vec3) bool {
	for i := range 3 {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}
