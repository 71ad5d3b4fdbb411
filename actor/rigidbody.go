package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/sheldonrobinson/jinngine-sub001/arena"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	BodyTypeStatic
)

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	// ID identifies the body for collaborators outside the world (scene, presentation)
	ID uuid.UUID

	Transform Transform

	Velocity        mgl64.Vec3 // Linear velocity (m/s)
	AngularVelocity mgl64.Vec3 // rad/s

	// Velocity change from external forces over the current step
	ExternalDeltaVelocity        mgl64.Vec3
	ExternalDeltaAngularVelocity mgl64.Vec3

	// Velocity change accumulated by the constraint solver over the current step
	DeltaVelocity        mgl64.Vec3
	DeltaAngularVelocity mgl64.Vec3

	Mass        float64
	InverseMass float64

	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3
	// InverseInertiaWorld is R * I⁻¹ * Rᵀ, refreshed on every integration
	InverseInertiaWorld mgl64.Mat3

	LinearDamping  float64 // 0.0 - 1.0, typical: 0.01
	AngularDamping float64 // 0.0 - 1.0, typical: 0.05

	BodyType BodyType

	// Geometries lists the handles of the attached geometries
	Geometries []arena.Handle

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3
}

// NewRigidBody creates a body with unit mass properties; attaching geometries
// through the world recomputes them from the shapes
func NewRigidBody(transform Transform, bodyType BodyType) *RigidBody {
	rb := &RigidBody{
		ID:        uuid.New(),
		Transform: transform,
		BodyType:  bodyType,
	}
	rb.SetMassProperties(1, mgl64.Ident3())

	return rb
}

func (rb *RigidBody) IsStatic() bool {
	return rb.BodyType == BodyTypeStatic
}

// SetMassProperties sets the mass and the body-frame inertia. Static bodies keep zero inverses.
func (rb *RigidBody) SetMassProperties(mass float64, inertia mgl64.Mat3) {
	rb.Mass = mass
	rb.InertiaLocal = inertia

	if rb.IsStatic() || mass <= 0 {
		rb.Mass = math.Inf(1)
		rb.InverseMass = 0
		rb.InverseInertiaLocal = mgl64.Mat3{}
	} else {
		rb.InverseMass = 1.0 / mass
		rb.InverseInertiaLocal = inertia.Inv()
	}

	rb.UpdateInertia()
}

// UpdateInertia refreshes the world-frame inverse inertia from the orientation
func (rb *RigidBody) UpdateInertia() {
	if rb.IsStatic() {
		rb.InverseInertiaWorld = mgl64.Mat3{}
		return
	}

	// I_world^(-1) = R * I_local^(-1) * R^T
	R := rb.Transform.Matrix()
	rb.InverseInertiaWorld = R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}

// GetInertiaWorld returns R * I_local * R^T
func (rb *RigidBody) GetInertiaWorld() mgl64.Mat3 {
	R := rb.Transform.Matrix()

	return R.Mul3(rb.InertiaLocal).Mul3(R.Transpose())
}

// AddForce accumulates a force through the center of mass, in N
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if !rb.IsStatic() {
		rb.accumulatedForce = rb.accumulatedForce.Add(force)
	}
}

// AddTorque accumulates a torque, in N⋅m
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if !rb.IsStatic() {
		rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
	}
}

// AddForceAtPoint accumulates a force applied at a world point
func (rb *RigidBody) AddForceAtPoint(force, point mgl64.Vec3) {
	rb.AddForce(force)
	rb.AddTorque(point.Sub(rb.Transform.Position).Cross(force))
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

// ApplyExternal turns gravity and the accumulated forces into the external
// delta-velocity of the step, then clears the accumulators
func (rb *RigidBody) ApplyExternal(dt float64, gravity mgl64.Vec3) {
	if rb.IsStatic() {
		rb.ExternalDeltaVelocity = mgl64.Vec3{}
		rb.ExternalDeltaAngularVelocity = mgl64.Vec3{}
		rb.ClearForces()
		return
	}

	rb.ExternalDeltaVelocity = gravity.Add(rb.accumulatedForce.Mul(rb.InverseMass)).Mul(dt)
	rb.ExternalDeltaAngularVelocity = rb.InverseInertiaWorld.Mul3x1(rb.accumulatedTorque).Mul(dt)
	rb.ClearForces()
}

// Integrate advances the body by dt with the semi-implicit Euler scheme:
// the velocity absorbs both delta-velocities first, the pose then moves with it.
func (rb *RigidBody) Integrate(dt float64) {
	if rb.IsStatic() {
		rb.ResetDeltas()
		return
	}

	rb.Velocity = rb.Velocity.Add(rb.ExternalDeltaVelocity).Add(rb.DeltaVelocity)
	rb.AngularVelocity = rb.AngularVelocity.Add(rb.ExternalDeltaAngularVelocity).Add(rb.DeltaAngularVelocity)

	if rb.LinearDamping > 0 {
		rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.LinearDamping * dt))
	}
	if rb.AngularDamping > 0 {
		rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.AngularDamping * dt))
	}

	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	// q' = q + 0.5*dt*(0,ω)*q
	omegaQuat := mgl64.Quat{V: rb.AngularVelocity, W: 0}
	qDot := omegaQuat.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.Rotation = rb.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()

	rb.UpdateInertia()
	rb.ResetDeltas()
}

// ResetDeltas clears both delta-velocity accumulators
func (rb *RigidBody) ResetDeltas() {
	rb.ExternalDeltaVelocity = mgl64.Vec3{}
	rb.ExternalDeltaAngularVelocity = mgl64.Vec3{}
	rb.DeltaVelocity = mgl64.Vec3{}
	rb.DeltaAngularVelocity = mgl64.Vec3{}
}

// Sanitize zeroes the velocities when any of them or of the delta-velocities
// is not finite, and reports whether it had to
func (rb *RigidBody) Sanitize() bool {
	if finite(rb.Velocity) && finite(rb.AngularVelocity) &&
		finite(rb.ExternalDeltaVelocity) && finite(rb.ExternalDeltaAngularVelocity) &&
		finite(rb.DeltaVelocity) && finite(rb.DeltaAngularVelocity) {
		return false
	}

	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
	rb.ResetDeltas()

	return true
}

// VelocityAt returns the velocity of the body material at a world point
func (rb *RigidBody) VelocityAt(point mgl64.Vec3) mgl64.Vec3 {
	r := point.Sub(rb.Transform.Position)

	return rb.Velocity.Add(rb.AngularVelocity.Cross(r))
}

// KineticEnergy returns ½mv² + ½ωᵀIω
func (rb *RigidBody) KineticEnergy() float64 {
	if rb.IsStatic() {
		return 0
	}
	linear := 0.5 * rb.Mass * rb.Velocity.LenSqr()
	angular := 0.5 * rb.AngularVelocity.Dot(rb.GetInertiaWorld().Mul3x1(rb.AngularVelocity))

	return linear + angular
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
