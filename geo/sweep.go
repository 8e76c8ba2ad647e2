package geo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/strideworks/stride/vmath"
)

const (
	// collisionTol is the surface distance at which a sweep counts as
	// touching. It must stay well below any configured contact offset so
	// that a volume resting at its skin width is not mistaken for
	// penetrating.
	collisionTol = 1e-4

	// advanceIterations bounds the conservative-advancement loop per
	// triangle. Advancement shrinks the remaining gap geometrically, so the
	// bound is only reached on extreme grazing sweeps, which then resolve
	// through the post-loop proximity check.
	advanceIterations = 32
)

// volumeTriDistance returns the signed distance between the volume surface and
// the triangle, along with the closest point on the volume core (capsule
// segment or box) and on the triangle. Negative distance means penetration.
func volumeTriDistance(vol Volume, t Tri) (dist float64, onCore, onTri mgl64.Vec3) {
	if vol.Kind == ShapeCapsule {
		p, q := vol.segment()
		onCore, onTri = segTriClosest(p, q, t.A, t.B, t.C)
		return onCore.Sub(onTri).Len() - vol.Radius, onCore, onTri
	}
	min, max := vol.Bounds()
	onCore, onTri, dist = triBoxClosest(min, max, t.A, t.B, t.C)
	return dist, onCore, onTri
}

// contactNormal derives the contact normal from the closest-feature pair,
// falling back to the triangle face normal oriented against the reference
// direction when the pair is degenerate.
func contactNormal(onCore, onTri mgl64.Vec3, t Tri, against mgl64.Vec3) mgl64.Vec3 {
	delta := onCore.Sub(onTri)
	if delta.LenSqr() > 1e-14 {
		return delta.Normalize()
	}
	n := t.Normal()
	if n.Dot(against) > 0 {
		n = n.Mul(-1)
	}
	return n
}

// SweepTris sweeps the volume along the unit direction dir for at most
// maxDist against the candidate triangles and returns the closest contact.
// A starting penetration is reported as a contact with Distance 0 and the
// penetration depth in Depth.
func SweepTris(vol Volume, dir mgl64.Vec3, maxDist float64, tris []Tri, f Filter) (Contact, bool) {
	best := Contact{Distance: math.MaxFloat64}
	found := false
	overlapDepth := -1.0

	for _, t := range tris {
		if f.Skip(t.Surface.Handle) {
			continue
		}
		c, hit := sweepTri(vol, dir, maxDist, t)
		if !hit {
			continue
		}
		if c.Distance == 0 {
			// Prefer the deepest starting overlap.
			if c.Depth > overlapDepth {
				overlapDepth = c.Depth
				best = c
				found = true
			}
			continue
		}
		if overlapDepth < 0 && c.Distance < best.Distance {
			best = c
			found = true
		}
	}
	return best, found
}

// sweepTri performs conservative advancement of the volume against a single
// triangle: each step advances by the current surface distance, a safe lower
// bound on the remaining free travel at unit speed.
func sweepTri(vol Volume, dir mgl64.Vec3, maxDist float64, tri Tri) (Contact, bool) {
	d, onCore, onTri := volumeTriDistance(vol, tri)
	if d <= 0 {
		return Contact{
			Distance: 0,
			Depth:    -d,
			Normal:   penetrationNormal(vol, onCore, onTri, tri),
			Point:    onTri,
			Surface:  tri.Surface,
			Kind:     tri.Kind,
		}, true
	}

	travelled := 0.0
	for range advanceIterations {
		if d <= collisionTol {
			return Contact{
				Distance: travelled,
				Normal:   contactNormal(onCore, onTri, tri, dir),
				Point:    onTri,
				Surface:  tri.Surface,
				Kind:     tri.Kind,
			}, true
		}
		travelled += d
		if travelled > maxDist {
			return Contact{}, false
		}
		d, onCore, onTri = volumeTriDistance(vol.Translated(dir.Mul(travelled)), tri)
	}

	// Grazing sweeps can stall above the touch tolerance; treat near
	// proximity as a hit rather than letting the caller tunnel past.
	if d <= collisionTol*10 {
		return Contact{
			Distance: travelled,
			Normal:   contactNormal(onCore, onTri, tri, dir),
			Point:    onTri,
			Surface:  tri.Surface,
			Kind:     tri.Kind,
		}, true
	}
	return Contact{}, false
}

// penetrationNormal points from the geometry toward the volume, the direction
// that separates a starting overlap.
func penetrationNormal(vol Volume, onCore, onTri mgl64.Vec3, tri Tri) mgl64.Vec3 {
	delta := onCore.Sub(onTri)
	if delta.LenSqr() > 1e-14 {
		return delta.Normalize()
	}
	n := tri.Normal()
	if n.Dot(vol.Center.Sub(onTri)) < 0 {
		n = n.Mul(-1)
	}
	return vmath.SafeNormalize(n, mgl64.Vec3{0, 1, 0})
}

// OverlapTris reports every candidate triangle currently penetrating the
// volume, with the minimum-translation direction in Normal and the depth in
// Depth.
func OverlapTris(vol Volume, tris []Tri, f Filter) []Contact {
	var out []Contact
	for _, t := range tris {
		if f.Skip(t.Surface.Handle) {
			continue
		}
		d, onCore, onTri := volumeTriDistance(vol, t)
		if d > 0 {
			continue
		}
		c := Contact{
			Distance: 0,
			Normal:   penetrationNormal(vol, onCore, onTri, t),
			Point:    onTri,
			Surface:  t.Surface,
			Kind:     t.Kind,
		}
		if vol.Kind == ShapeCapsule {
			c.Depth = -d
		} else {
			c.Depth = boxPlaneDepth(vol, t)
			c.Normal = boxPlaneNormal(vol, t)
		}
		out = append(out, c)
	}
	return out
}

// boxPlaneDepth estimates box penetration depth along the triangle plane,
// the projection radius of the box minus the center's plane distance.
func boxPlaneDepth(vol Volume, t Tri) float64 {
	n := t.Normal()
	if n.LenSqr() < 0.5 {
		return 0
	}
	r := vol.HalfExtents.X()*math.Abs(n.X()) +
		vol.HalfExtents.Y()*math.Abs(n.Y()) +
		vol.HalfExtents.Z()*math.Abs(n.Z())
	s := vol.Center.Sub(t.A).Dot(n)
	return math.Max(0, r-math.Abs(s))
}

func boxPlaneNormal(vol Volume, t Tri) mgl64.Vec3 {
	n := t.Normal()
	if vol.Center.Sub(t.A).Dot(n) < 0 {
		n = n.Mul(-1)
	}
	return vmath.SafeNormalize(n, mgl64.Vec3{0, 1, 0})
}
