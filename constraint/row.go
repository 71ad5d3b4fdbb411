package constraint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
)

// Coupling bounds a row by a multiple of another row's impulse. Friction rows
// are coupled to their normal row, so the friction cone follows the current
// normal impulse during the iterations.
type Coupling struct {
	Row         *Row
	Coefficient float64
}

// Row is one scalar constraint between two bodies, in the velocity form
//
//	w = J·(v + Δv) + B
//
// with the Jacobian split in four blocks: linear and angular for A (J1, J2),
// then for B (J3, J4). B1..B4 cache M⁻¹Jᵀ so applying an impulse is four
// multiply-adds.
type Row struct {
	BodyA, BodyB *actor.RigidBody

	J1, J2, J3, J4 mgl64.Vec3
	B1, B2, B3, B4 mgl64.Vec3

	// Diagonal is J·M⁻¹·Jᵀ plus Damper
	Diagonal float64
	// Damper softens the row (constraint force mixing)
	Damper float64

	Lower, Upper float64
	Coupling     Coupling

	// B is the right-hand side: the unconstrained row velocity plus any bias
	B      float64
	Lambda float64
}

// Set fills the Jacobian and the derived blocks and resets the bounds to an equality row.
// Lambda is kept for warm starting.
func (r *Row) Set(a, b *actor.RigidBody, j1, j2, j3, j4 mgl64.Vec3) {
	r.BodyA, r.BodyB = a, b
	r.J1, r.J2, r.J3, r.J4 = j1, j2, j3, j4

	r.B1 = j1.Mul(a.InverseMass)
	r.B2 = a.InverseInertiaWorld.Mul3x1(j2)
	r.B3 = j3.Mul(b.InverseMass)
	r.B4 = b.InverseInertiaWorld.Mul3x1(j4)

	r.Diagonal = j1.Dot(r.B1) + j2.Dot(r.B2) + j3.Dot(r.B3) + j4.Dot(r.B4) + r.Damper

	r.Lower, r.Upper = math.Inf(-1), math.Inf(1)
	r.Coupling = Coupling{}
	r.B = 0
}

// Velocity returns J·(v + Δv_ext): the row velocity before the solver acts
func (r *Row) Velocity() float64 {
	a, b := r.BodyA, r.BodyB

	return r.J1.Dot(a.Velocity.Add(a.ExternalDeltaVelocity)) +
		r.J2.Dot(a.AngularVelocity.Add(a.ExternalDeltaAngularVelocity)) +
		r.J3.Dot(b.Velocity.Add(b.ExternalDeltaVelocity)) +
		r.J4.Dot(b.AngularVelocity.Add(b.ExternalDeltaAngularVelocity))
}

// Delta returns J·Δv_solver: the row velocity produced by the impulses applied so far
func (r *Row) Delta() float64 {
	a, b := r.BodyA, r.BodyB

	return r.J1.Dot(a.DeltaVelocity) + r.J2.Dot(a.DeltaAngularVelocity) +
		r.J3.Dot(b.DeltaVelocity) + r.J4.Dot(b.DeltaAngularVelocity)
}

// Apply adds the impulse delta to the solver accumulators of both bodies.
// Fixed bodies are never written, so islands sharing one can run concurrently.
func (r *Row) Apply(delta float64) {
	if a := r.BodyA; !a.IsStatic() {
		a.DeltaVelocity = a.DeltaVelocity.Add(r.B1.Mul(delta))
		a.DeltaAngularVelocity = a.DeltaAngularVelocity.Add(r.B2.Mul(delta))
	}
	if b := r.BodyB; !b.IsStatic() {
		b.DeltaVelocity = b.DeltaVelocity.Add(r.B3.Mul(delta))
		b.DeltaAngularVelocity = b.DeltaAngularVelocity.Add(r.B4.Mul(delta))
	}
}

// Bounds returns the current impulse interval. A coupled row reads it from
// the present impulse of the row it is coupled to.
func (r *Row) Bounds() (float64, float64) {
	if r.Coupling.Row != nil {
		limit := r.Coupling.Coefficient * math.Abs(r.Coupling.Row.Lambda)
		return -limit, limit
	}

	return r.Lower, r.Upper
}

// Clamp projects lambda on the row bounds
func (r *Row) Clamp(lambda float64) float64 {
	lower, upper := r.Bounds()

	return math.Max(lower, math.Min(upper, lambda))
}

// linear fills an equality row constraining the relative motion of two anchor
// points along a world direction
func (r *Row) linear(a, b *actor.RigidBody, rA, rB, direction mgl64.Vec3) {
	r.Set(a, b, direction.Mul(-1), rA.Cross(direction).Mul(-1), direction, rB.Cross(direction))
}

// angular fills an equality row constraining the relative rotation about a world axis
func (r *Row) angular(a, b *actor.RigidBody, axis mgl64.Vec3) {
	r.Set(a, b, mgl64.Vec3{}, axis.Mul(-1), mgl64.Vec3{}, axis)
}
