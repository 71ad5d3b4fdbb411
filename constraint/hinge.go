package constraint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
)

// Hinge lets B rotate about one axis of A around a shared pivot.
//
// Rows: three pin the pivot, two keep the axes aligned, and the last one
// enforces the angle limits or drives the motor. The last row is inactive
// (zero bounds) when neither applies.
type Hinge struct {
	BodyA, BodyB *actor.RigidBody
	Correction   float64

	// LowerLimit and UpperLimit bound the hinge angle in radians; equal limits disable them
	LowerLimit, UpperLimit float64

	// MotorSpeed is the target relative angular velocity, reached with at most MotorForce
	MotorSpeed float64
	MotorForce float64

	anchorA, anchorB       anchor
	axisA, axisB           direction
	referenceA, referenceB direction
	rows                   [6]Row
}

// NewHinge joins the bodies at a world pivot, rotating about a world axis
func NewHinge(a, b *actor.RigidBody, pivot, axis mgl64.Vec3) *Hinge {
	axis = actor.Normalize(axis)
	reference, _ := actor.TangentBasis(axis)

	return &Hinge{
		BodyA:      a,
		BodyB:      b,
		Correction: DefaultCorrection,
		anchorA:    newAnchor(a, pivot),
		anchorB:    newAnchor(b, pivot),
		axisA:      newDirection(a, axis),
		axisB:      newDirection(b, axis),
		referenceA: newDirection(a, reference),
		referenceB: newDirection(b, reference),
	}
}

func (j *Hinge) Bodies() (*actor.RigidBody, *actor.RigidBody) {
	return j.BodyA, j.BodyB
}

// SetLimits bounds the hinge angle
func (j *Hinge) SetLimits(lower, upper float64) {
	j.LowerLimit, j.UpperLimit = lower, upper
}

// SetMotor drives the hinge at speed (rad/s) with a bounded force
func (j *Hinge) SetMotor(speed, force float64) {
	j.MotorSpeed, j.MotorForce = speed, force
}

// Angle returns the rotation of B relative to A about the hinge axis, in (-π, π]
func (j *Hinge) Angle() float64 {
	axis := j.axisA.world(j.BodyA)
	ra := j.referenceA.world(j.BodyA)
	rb := j.referenceB.world(j.BodyB)

	return math.Atan2(ra.Cross(rb).Dot(axis), ra.Dot(rb))
}

func (j *Hinge) ApplyConstraints(dt float64, rows []*Row) []*Row {
	a, b := j.BodyA, j.BodyB
	applyPoint(j.rows[:3], a, b, j.anchorA, j.anchorB, dt, j.Correction)

	axisA := j.axisA.world(a)
	axisB := j.axisB.world(b)
	misalignment := axisA.Cross(axisB)
	t1, t2 := actor.TangentBasis(axisA)
	for i, tangent := range [2]mgl64.Vec3{t1, t2} {
		row := &j.rows[3+i]
		row.angular(a, b, tangent)
		biased(row, dt, j.Correction, misalignment.Dot(tangent))
	}

	j.applyLimitOrMotor(dt, axisA)

	return appendRows(rows, j.rows[:])
}

func (j *Hinge) applyLimitOrMotor(dt float64, axis mgl64.Vec3) {
	row := &j.rows[5]
	row.angular(j.BodyA, j.BodyB, axis)
	velocity := row.Velocity()
	angle := j.Angle()

	limited := j.UpperLimit > j.LowerLimit
	switch {
	case limited && angle <= j.LowerLimit:
		row.Lower, row.Upper = 0, math.Inf(1)
		row.B = velocity + j.Correction*(angle-j.LowerLimit)/dt
	case limited && angle >= j.UpperLimit:
		row.Lower, row.Upper = math.Inf(-1), 0
		row.B = velocity + j.Correction*(angle-j.UpperLimit)/dt
	case j.MotorForce > 0:
		impulse := j.MotorForce * dt
		row.Lower, row.Upper = -impulse, impulse
		row.B = velocity - j.MotorSpeed
	default:
		row.Lower, row.Upper = 0, 0
		row.B = velocity
		row.Lambda = 0
	}
}
