package geo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Shape is the kind of a character collision volume.
type Shape uint8

const (
	// ShapeCapsule is a vertical capsule: a segment of half-length
	// HalfHeight along the world Y axis, inflated by Radius.
	ShapeCapsule Shape = iota
	// ShapeBox is an axis-aligned box with the given half extents.
	ShapeBox
)

// Volume is a character collision volume. It is owned exclusively by a single
// step call; only the sweep loop mutates Center during a step, and the caller
// persists only the resulting position.
type Volume struct {
	Kind        Shape
	Center      mgl64.Vec3
	Radius      float64
	HalfHeight  float64
	HalfExtents mgl64.Vec3
}

// Capsule returns a vertical capsule volume. halfHeight is the half-length of
// the core segment, so the total height is 2*(halfHeight+radius).
func Capsule(center mgl64.Vec3, radius, halfHeight float64) Volume {
	return Volume{Kind: ShapeCapsule, Center: center, Radius: radius, HalfHeight: halfHeight}
}

// Box returns an axis-aligned box volume.
func Box(center, halfExtents mgl64.Vec3) Volume {
	return Volume{Kind: ShapeBox, Center: center, HalfExtents: halfExtents}
}

// Translated returns a copy of the volume moved by the given delta.
func (v Volume) Translated(delta mgl64.Vec3) Volume {
	v.Center = v.Center.Add(delta)
	return v
}

// Bounds returns the axis-aligned bounds of the volume.
func (v Volume) Bounds() (min, max mgl64.Vec3) {
	switch v.Kind {
	case ShapeCapsule:
		ext := mgl64.Vec3{v.Radius, v.HalfHeight + v.Radius, v.Radius}
		return v.Center.Sub(ext), v.Center.Add(ext)
	default:
		return v.Center.Sub(v.HalfExtents), v.Center.Add(v.HalfExtents)
	}
}

// Bottom returns the world height of the lowest point of the volume.
func (v Volume) Bottom() float64 {
	if v.Kind == ShapeCapsule {
		return v.Center.Y() - v.HalfHeight - v.Radius
	}
	return v.Center.Y() - v.HalfExtents.Y()
}

// LateralExtent returns the horizontal reach of the volume from its center,
// used to size the slope sensor sweep.
func (v Volume) LateralExtent() float64 {
	if v.Kind == ShapeCapsule {
		return v.Radius
	}
	return math.Max(v.HalfExtents.X(), v.HalfExtents.Z())
}

// segment returns the capsule core segment endpoints, bottom first.
func (v Volume) segment() (p, q mgl64.Vec3) {
	h := mgl64.Vec3{0, v.HalfHeight, 0}
	return v.Center.Sub(h), v.Center.Add(h)
}
