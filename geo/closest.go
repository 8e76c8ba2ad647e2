package geo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/strideworks/stride/vmath"
)

// Closest-feature primitives for the narrowphase. The formulations follow the
// usual real-time collision detection derivations; everything operates on
// float64 world-space coordinates.

// closestPointTriangle returns the point on triangle abc closest to p.
func closestPointTriangle(p, a, b, c mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}

// closestSegSeg returns the closest points between segments p1q1 and p2q2.
func closestSegSeg(p1, q1, p2, q2 mgl64.Vec3) (c1, c2 mgl64.Vec3) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	const eps = 1e-12
	var s, t float64
	switch {
	case a <= eps && e <= eps:
		return p1, p2
	case a <= eps:
		t = clamp01(f / e)
	default:
		c := d1.Dot(r)
		if e <= eps {
			s = clamp01(-c / a)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom > eps {
				s = clamp01((b*f - c*e) / denom)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clamp01(-c / a)
			} else if t > 1 {
				t = 1
				s = clamp01((b - c) / a)
			}
		}
	}
	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// pointInTriangle reports whether x, already on the triangle plane, lies
// within triangle abc. n is the (unnormalized) face normal.
func pointInTriangle(x, a, b, c, n mgl64.Vec3) bool {
	if b.Sub(a).Cross(x.Sub(a)).Dot(n) < 0 {
		return false
	}
	if c.Sub(b).Cross(x.Sub(b)).Dot(n) < 0 {
		return false
	}
	if a.Sub(c).Cross(x.Sub(c)).Dot(n) < 0 {
		return false
	}
	return true
}

// segTriClosest returns the closest points between segment pq and triangle
// abc. When the segment crosses the triangle face both points coincide.
func segTriClosest(p, q, a, b, c mgl64.Vec3) (onSeg, onTri mgl64.Vec3) {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.LenSqr() > 1e-18 {
		dp := p.Sub(a).Dot(n)
		dq := q.Sub(a).Dot(n)
		if (dp < 0) != (dq < 0) && dp != dq {
			t := dp / (dp - dq)
			x := p.Add(q.Sub(p).Mul(t))
			if pointInTriangle(x, a, b, c, n) {
				return x, x
			}
		}
	}

	bestSeg, bestTri := p, closestPointTriangle(p, a, b, c)
	bestSq := bestSeg.Sub(bestTri).LenSqr()

	consider := func(s, t mgl64.Vec3) {
		if d := s.Sub(t).LenSqr(); d < bestSq {
			bestSeg, bestTri, bestSq = s, t, d
		}
	}
	consider(q, closestPointTriangle(q, a, b, c))

	edges := [3][2]mgl64.Vec3{{a, b}, {b, c}, {c, a}}
	for _, e := range edges {
		s, t := closestSegSeg(p, q, e[0], e[1])
		consider(s, t)
	}
	return bestSeg, bestTri
}

// clampToBox returns the point of the axis-aligned box closest to p.
func clampToBox(p, min, max mgl64.Vec3) mgl64.Vec3 {
	var out mgl64.Vec3
	for i := range 3 {
		out[i] = vmath.Clamp(p[i], min[i], max[i])
	}
	return out
}

// triBoxIntersects performs a separating-axis test between triangle abc and
// the axis-aligned box given by its center and half extents.
func triBoxIntersects(center, ext, a, b, c mgl64.Vec3) bool {
	v0 := a.Sub(center)
	v1 := b.Sub(center)
	v2 := c.Sub(center)

	f0 := v1.Sub(v0)
	f1 := v2.Sub(v1)
	f2 := v0.Sub(v2)

	axes := [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for _, u := range axes {
		for _, f := range [3]mgl64.Vec3{f0, f1, f2} {
			axis := u.Cross(f)
			if axis.LenSqr() < 1e-18 {
				continue
			}
			p0 := v0.Dot(axis)
			p1 := v1.Dot(axis)
			p2 := v2.Dot(axis)
			r := ext.X()*math.Abs(axis.X()) + ext.Y()*math.Abs(axis.Y()) + ext.Z()*math.Abs(axis.Z())
			if math.Min(p0, math.Min(p1, p2)) > r || math.Max(p0, math.Max(p1, p2)) < -r {
				return false
			}
		}
	}

	for i := range 3 {
		lo := math.Min(v0[i], math.Min(v1[i], v2[i]))
		hi := math.Max(v0[i], math.Max(v1[i], v2[i]))
		if lo > ext[i] || hi < -ext[i] {
			return false
		}
	}

	n := f0.Cross(f1)
	d := n.Dot(v0)
	r := ext.X()*math.Abs(n.X()) + ext.Y()*math.Abs(n.Y()) + ext.Z()*math.Abs(n.Z())
	return math.Abs(d) <= r
}

// triBoxClosest returns the closest points between triangle abc and the
// axis-aligned box, with their distance. A distance of 0 means intersection.
func triBoxClosest(min, max, a, b, c mgl64.Vec3) (onBox, onTri mgl64.Vec3, dist float64) {
	center := min.Add(max).Mul(0.5)
	ext := max.Sub(min).Mul(0.5)
	if triBoxIntersects(center, ext, a, b, c) {
		return center, center, 0
	}

	bestSq := math.MaxFloat64
	consider := func(pb, pt mgl64.Vec3) {
		if d := pb.Sub(pt).LenSqr(); d < bestSq {
			onBox, onTri, bestSq = pb, pt, d
		}
	}

	for _, v := range [3]mgl64.Vec3{a, b, c} {
		consider(clampToBox(v, min, max), v)
	}

	var corners [8]mgl64.Vec3
	for i := range 8 {
		corners[i] = mgl64.Vec3{
			pick(i&1 != 0, max.X(), min.X()),
			pick(i&2 != 0, max.Y(), min.Y()),
			pick(i&4 != 0, max.Z(), min.Z()),
		}
	}
	for _, corner := range corners {
		consider(corner, closestPointTriangle(corner, a, b, c))
	}

	// Box edges against triangle edges.
	edgePairs := [12][2]int{
		{0, 1}, {2, 3}, {4, 5}, {6, 7},
		{0, 2}, {1, 3}, {4, 6}, {5, 7},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	triEdges := [3][2]mgl64.Vec3{{a, b}, {b, c}, {c, a}}
	for _, ep := range edgePairs {
		for _, te := range triEdges {
			pb, pt := closestSegSeg(corners[ep[0]], corners[ep[1]], te[0], te[1])
			consider(pb, pt)
		}
	}
	return onBox, onTri, math.Sqrt(bestSq)
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
