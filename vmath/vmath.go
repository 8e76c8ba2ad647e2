package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Clamp clamps the given value to the given range.
func Clamp(num, min, max float64) float64 {
	if num < min {
		return min
	}
	return math.Min(num, max)
}

// Finite reports whether every component of the vector is a finite number.
func Finite(v mgl64.Vec3) bool {
	for i := range 3 {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}

// SafeNormalize normalizes v, falling back to the given vector when v is
// degenerate (near-zero length or non-finite).
func SafeNormalize(v, fallback mgl64.Vec3) mgl64.Vec3 {
	lenSq := v.LenSqr()
	if !Finite(v) || lenSq < 1e-12 {
		return fallback
	}
	return v.Mul(1 / math.Sqrt(lenSq))
}

// HzDistSqr returns the squared horizontal distance in a vector.
func HzDistSqr(v mgl64.Vec3) float64 {
	return v.X()*v.X() + v.Z()*v.Z()
}

// Vec32To64 converts a 32-bit vector to a 64-bit one.
func Vec32To64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

// Vec64To32 converts a 64-bit vector to a 32-bit one.
func Vec64To32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// MinVec64 returns the component-wise minimum of two vectors.
func MinVec64(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

// MaxVec64 returns the component-wise maximum of two vectors.
func MaxVec64(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}

// Project returns the projection of v onto the unit vector onto.
func Project(v, onto mgl64.Vec3) mgl64.Vec3 {
	return onto.Mul(v.Dot(onto))
}

// Reject returns the component of v perpendicular to the unit vector onto.
func Reject(v, onto mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(Project(v, onto))
}
