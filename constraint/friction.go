package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
)

// FrictionJoint resists relative motion of two bodies with bounded force and
// torque. Joined to a fixed body it acts as drag on the other one.
type FrictionJoint struct {
	BodyA, BodyB *actor.RigidBody
	MaxForce     float64
	MaxTorque    float64

	rows [6]Row
}

func NewFrictionJoint(a, b *actor.RigidBody, maxForce, maxTorque float64) *FrictionJoint {
	return &FrictionJoint{BodyA: a, BodyB: b, MaxForce: maxForce, MaxTorque: maxTorque}
}

func (j *FrictionJoint) Bodies() (*actor.RigidBody, *actor.RigidBody) {
	return j.BodyA, j.BodyB
}

func (j *FrictionJoint) ApplyConstraints(dt float64, rows []*Row) []*Row {
	a, b := j.BodyA, j.BodyB
	// the relative motion is measured at B's center of mass
	rA := b.Transform.Position.Sub(a.Transform.Position)

	for i, axis := range axes {
		linear := &j.rows[i]
		linear.linear(a, b, rA, mgl64.Vec3{}, axis)
		linear.Lower, linear.Upper = -j.MaxForce*dt, j.MaxForce*dt
		linear.B = linear.Velocity()

		angular := &j.rows[3+i]
		angular.angular(a, b, axis)
		angular.Lower, angular.Upper = -j.MaxTorque*dt, j.MaxTorque*dt
		angular.B = angular.Velocity()
	}

	return appendRows(rows, j.rows[:])
}
