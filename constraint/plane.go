package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
)

// PlaneJoint keeps a point of B on a plane fixed in A and B's copy of the
// plane normal parallel to A's. B slides in the plane and spins about its normal.
type PlaneJoint struct {
	BodyA, BodyB *actor.RigidBody
	Correction   float64

	anchorA, anchorB anchor
	normalA, normalB direction
	rows             [3]Row
}

// NewPlaneJoint constrains B to the plane through point with the given world normal
func NewPlaneJoint(a, b *actor.RigidBody, point, normal mgl64.Vec3) *PlaneJoint {
	return &PlaneJoint{
		BodyA:      a,
		BodyB:      b,
		Correction: DefaultCorrection,
		anchorA:    newAnchor(a, point),
		anchorB:    newAnchor(b, point),
		normalA:    newDirection(a, normal),
		normalB:    newDirection(b, normal),
	}
}

func (j *PlaneJoint) Bodies() (*actor.RigidBody, *actor.RigidBody) {
	return j.BodyA, j.BodyB
}

// Distance returns the signed distance of B's anchor from A's plane
func (j *PlaneJoint) Distance() float64 {
	normal := j.normalA.world(j.BodyA)

	return j.anchorB.world(j.BodyB).Sub(j.anchorA.world(j.BodyA)).Dot(normal)
}

func (j *PlaneJoint) ApplyConstraints(dt float64, rows []*Row) []*Row {
	a, b := j.BodyA, j.BodyB
	normal := j.normalA.world(a)

	// the plane moves with A: take the lever arm of A at B's anchor
	pointB := j.anchorB.world(b)
	rA := pointB.Sub(a.Transform.Position)
	rB := j.anchorB.offset(b)
	j.rows[0].linear(a, b, rA, rB, normal)
	biased(&j.rows[0], dt, j.Correction, j.Distance())

	misalignment := normal.Cross(j.normalB.world(b))
	t1, t2 := actor.TangentBasis(normal)
	for i, tangent := range [2]mgl64.Vec3{t1, t2} {
		row := &j.rows[1+i]
		row.angular(a, b, tangent)
		biased(row, dt, j.Correction, misalignment.Dot(tangent))
	}

	return appendRows(rows, j.rows[:])
}
