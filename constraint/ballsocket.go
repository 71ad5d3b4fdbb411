package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
)

// BallSocket keeps a point of A and a point of B together, leaving rotation free
type BallSocket struct {
	BodyA, BodyB *actor.RigidBody
	// Correction is the fraction of the anchor separation removed per step
	Correction float64

	anchorA, anchorB anchor
	rows             [3]Row
}

// NewBallSocket joins the bodies at a world pivot
func NewBallSocket(a, b *actor.RigidBody, pivot mgl64.Vec3) *BallSocket {
	return &BallSocket{
		BodyA:      a,
		BodyB:      b,
		Correction: DefaultCorrection,
		anchorA:    newAnchor(a, pivot),
		anchorB:    newAnchor(b, pivot),
	}
}

func (j *BallSocket) Bodies() (*actor.RigidBody, *actor.RigidBody) {
	return j.BodyA, j.BodyB
}

// Separation returns the world vector from A's anchor to B's anchor
func (j *BallSocket) Separation() mgl64.Vec3 {
	return j.anchorB.world(j.BodyB).Sub(j.anchorA.world(j.BodyA))
}

func (j *BallSocket) ApplyConstraints(dt float64, rows []*Row) []*Row {
	applyPoint(j.rows[:], j.BodyA, j.BodyB, j.anchorA, j.anchorB, dt, j.Correction)

	return appendRows(rows, j.rows[:])
}

// applyPoint fills three rows pinning anchorA on anchorB, one per world axis
func applyPoint(rows []Row, a, b *actor.RigidBody, anchorA, anchorB anchor, dt, correction float64) {
	rA := anchorA.offset(a)
	rB := anchorB.offset(b)
	separation := b.Transform.Position.Add(rB).Sub(a.Transform.Position.Add(rA))

	for i, axis := range axes {
		rows[i].linear(a, b, rA, rB, axis)
		biased(&rows[i], dt, correction, separation.Dot(axis))
	}
}
