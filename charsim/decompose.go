package charsim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/strideworks/stride/vmath"
)

// Decomposed is a step's requested displacement split into the UP, SIDE and
// DOWN phase vectors. It is derived once per step and read-only afterwards.
type Decomposed struct {
	Up   mgl64.Vec3
	Side mgl64.Vec3
	Down mgl64.Vec3

	// StepOffset is the auto-step allowance actually applied to this step,
	// after the jumping and lateral-movement rules.
	StepOffset float64

	MovingUp bool
	HasSide  bool
}

// decompose splits the requested displacement along the up axis. The step
// offset is granted only when there is non-trivial lateral movement (lateral
// motion is what justifies auto-stepping) and is revoked while jumping unless
// the character is riding a moving surface. The UP vector gains the offset
// and the DOWN vector is extended by it so the volume returns to the surface
// after stepping.
func decompose(disp, up mgl64.Vec3, stepOffset float64, jumping, onPlatform bool) Decomposed {
	vertDot := disp.Dot(up)
	vertical := up.Mul(vertDot)
	side := disp.Sub(vertical)

	d := Decomposed{
		HasSide:  side.LenSqr() > 1e-10,
		MovingUp: vertDot > 0,
	}
	if d.HasSide {
		d.Side = side
	}

	step := stepOffset
	if !d.HasSide {
		step = 0
	}
	if jumping && !onPlatform {
		step = 0
	}
	d.StepOffset = step

	if d.MovingUp {
		d.Up = vertical
	} else {
		d.Down = vertical
	}
	d.Up = d.Up.Add(up.Mul(step))
	d.Down = d.Down.Sub(up.Mul(step))
	return d
}

// vecLen is a small helper for phase vector magnitudes.
func vecLen(v mgl64.Vec3) float64 {
	if !vmath.Finite(v) {
		return 0
	}
	return v.Len()
}
