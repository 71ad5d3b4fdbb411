package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
)

// Fixed welds two bodies: no relative translation and no relative rotation
type Fixed struct {
	BodyA, BodyB *actor.RigidBody
	Correction   float64

	anchorA, anchorB anchor
	// relative is the rotation of B in A's frame when the joint was created
	relative mgl64.Quat
	rows     [6]Row
}

// NewFixed welds the bodies in their current relative pose; pivot is the world point the anchor rows pin
func NewFixed(a, b *actor.RigidBody, pivot mgl64.Vec3) *Fixed {
	return &Fixed{
		BodyA:      a,
		BodyB:      b,
		Correction: DefaultCorrection,
		anchorA:    newAnchor(a, pivot),
		anchorB:    newAnchor(b, pivot),
		relative:   a.Transform.Rotation.Conjugate().Mul(b.Transform.Rotation).Normalize(),
	}
}

func (j *Fixed) Bodies() (*actor.RigidBody, *actor.RigidBody) {
	return j.BodyA, j.BodyB
}

// RotationError returns the world rotation vector taking B's welded orientation to its actual one
func (j *Fixed) RotationError() mgl64.Vec3 {
	target := j.BodyA.Transform.Rotation.Mul(j.relative)
	e := j.BodyB.Transform.Rotation.Mul(target.Conjugate())
	if e.W < 0 {
		e = e.Scale(-1)
	}

	return e.V.Mul(2)
}

func (j *Fixed) ApplyConstraints(dt float64, rows []*Row) []*Row {
	a, b := j.BodyA, j.BodyB
	applyPoint(j.rows[:3], a, b, j.anchorA, j.anchorB, dt, j.Correction)

	rotationError := j.RotationError()
	for i, axis := range axes {
		row := &j.rows[3+i]
		row.angular(a, b, axis)
		biased(row, dt, j.Correction, rotationError.Dot(axis))
	}

	return appendRows(rows, j.rows[:])
}
