package charsim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/strideworks/stride/vmath"
)

// collideResponse computes the new movement target after a contact: the
// reflection of dir about the hit normal is decomposed into its components
// perpendicular and tangential to the surface, and the target is rebuilt from
// current as normal*bump*remaining + tangent*friction*remaining.
//
// bump=0, friction=1 is the standard walkable-surface tuning: a pure
// tangential slide with no bounce. The normalize mode unit-normalizes both
// components before scaling, which preserves slide magnitude at acute contact
// angles during the non-walkable retry pass.
//
// A degenerate hit normal falls back to the up axis.
func collideResponse(current, dir mgl64.Vec3, remaining float64, normal mgl64.Vec3, bump, friction float64, normalize bool, up mgl64.Vec3) mgl64.Vec3 {
	n := vmath.SafeNormalize(normal, up)

	refl := dir.Sub(n.Mul(2 * dir.Dot(n)))
	normalComp := vmath.Project(refl, n)
	tangentComp := refl.Sub(normalComp)

	if normalize {
		normalComp = vmath.SafeNormalize(normalComp, mgl64.Vec3{})
		tangentComp = vmath.SafeNormalize(tangentComp, mgl64.Vec3{})
	}

	target := current
	if bump != 0 {
		target = target.Add(normalComp.Mul(bump * remaining))
	}
	if friction != 0 {
		target = target.Add(tangentComp.Mul(friction * remaining))
	}
	return target
}
