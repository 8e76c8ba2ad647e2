// Package geo implements the geometry query layer of the character movement
// simulator: volume and contact types, the interfaces implemented by external
// spatial-index collaborators, swept closest-hit and overlap queries against
// triangle candidates, and a caching adapter that amortizes candidate
// collection across the iterative sweep loop.
package geo

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/strideworks/stride/vmath"
)

// Handle identifies a piece of registered geometry (a mesh instance).
type Handle uint64

// NoHandle is the zero value of Handle and never refers to real geometry.
const NoHandle Handle = 0

// SurfaceRef identifies a single triangle of a geometry instance. It stays
// stable for the lifetime of the instance and is safe to persist across steps.
type SurfaceRef struct {
	Handle   Handle
	Triangle int
}

// GeomKind classifies geometry for collision and overlap-recovery eligibility.
type GeomKind uint8

const (
	// KindStatic is immutable world geometry.
	KindStatic GeomKind = iota
	// KindKinematic is script-driven geometry such as moving platforms.
	KindKinematic
	// KindDynamic is simulated geometry. It is swept against but excluded
	// from overlap recovery, which is left to a separate dynamics step.
	KindDynamic
)

// Filter excludes geometry handles from queries, typically the character's
// own collision proxy and ignored obstacles. The zero value excludes nothing.
type Filter struct {
	Exclude map[Handle]struct{}
}

// Skip reports whether the given handle is excluded by the filter.
func (f Filter) Skip(h Handle) bool {
	if f.Exclude == nil {
		return false
	}
	_, ok := f.Exclude[h]
	return ok
}

// Contact is a single swept or overlapping contact. Distance is the travel
// distance of the volume until its surface touches the geometry; a Distance
// of exactly 0 is the overlap sentinel distinguishing "already penetrating"
// from "touching", in which case Depth holds the penetration depth.
type Contact struct {
	Distance float64
	Normal   mgl64.Vec3
	Point    mgl64.Vec3
	Depth    float64
	Surface  SurfaceRef
	Kind     GeomKind
}

// Tri is a world-space triangle candidate produced by a Source.
type Tri struct {
	A, B, C mgl64.Vec3
	Surface SurfaceRef
	Kind    GeomKind
}

// Normal returns the unit face normal of the triangle, or the zero vector
// for degenerate triangles.
func (t Tri) Normal() mgl64.Vec3 {
	n := t.B.Sub(t.A).Cross(t.C.Sub(t.A))
	return vmath.SafeNormalize(n, mgl64.Vec3{})
}

// Bounds returns the axis-aligned bounds of the triangle.
func (t Tri) Bounds() (min, max mgl64.Vec3) {
	min = vmath.MinVec64(t.A, vmath.MinVec64(t.B, t.C))
	max = vmath.MaxVec64(t.A, vmath.MaxVec64(t.B, t.C))
	return min, max
}
