package geo

import "github.com/go-gl/mathgl/mgl64"

// Source is the external spatial-index collaborator: a read-only snapshot of
// world geometry queryable by region. Implementations must be safe for
// concurrent readers; the mesh package provides the bundled implementation.
type Source interface {
	// Collect calls fn for every triangle whose bounds intersect the given
	// region. Iteration stops early when fn returns false. Iteration order
	// must be deterministic for a given snapshot.
	Collect(min, max mgl64.Vec3, fn func(Tri) bool)
}

// Sweeper is the query contract consumed by the movement core.
type Sweeper interface {
	// Sweep moves the volume along the unit direction for at most maxDist
	// and reports the first blocking contact, if any.
	Sweep(vol Volume, dir mgl64.Vec3, maxDist float64, f Filter) (Contact, bool)
	// Overlap reports all geometry currently penetrating the volume.
	Overlap(vol Volume, f Filter) []Contact
}

// Primer is optionally implemented by Sweepers that cache candidate geometry.
// Callers announce the bounds of a whole frame's motion up front so the cache
// covers every sweep of the iterative loop.
type Primer interface {
	Prime(min, max mgl64.Vec3)
}

// TransformSource reports the current world origin of a geometry instance,
// consumed by platform tracking to replay moving-surface deltas.
type TransformSource interface {
	SurfaceOrigin(h Handle) (mgl64.Vec3, bool)
}

// LiquidSource reports the liquid surface height at a horizontal position,
// consumed upstream of the movement core to classify swim vs. walk mode.
type LiquidSource interface {
	LiquidHeight(x, z float64) (float64, bool)
}
