// Package constraint turns contacts and joints into NCP rows for the solver.
//
// Every constraint produces its rows again each step from the current poses.
// Rows carry their impulse between steps so the solver can warm start.
package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
)

// DefaultCorrection is the fraction of a joint's position error removed per step
const DefaultCorrection = 0.2

// Constraint links two bodies
type Constraint interface {
	// ApplyConstraints appends the rows of the current step to rows
	ApplyConstraints(dt float64, rows []*Row) []*Row
	Bodies() (*actor.RigidBody, *actor.RigidBody)
}

// anchor is a point fixed in a body frame
type anchor struct {
	local mgl64.Vec3
}

func newAnchor(body *actor.RigidBody, world mgl64.Vec3) anchor {
	return anchor{local: body.Transform.ApplyInverse(world)}
}

// offset returns the anchor relative to the body position, in world space
func (p anchor) offset(body *actor.RigidBody) mgl64.Vec3 {
	return body.Transform.Rotation.Rotate(p.local)
}

func (p anchor) world(body *actor.RigidBody) mgl64.Vec3 {
	return body.Transform.Apply(p.local)
}

// direction is a unit vector fixed in a body frame
type direction struct {
	local mgl64.Vec3
}

func newDirection(body *actor.RigidBody, world mgl64.Vec3) direction {
	return direction{local: body.Transform.Rotation.Conjugate().Rotate(actor.Normalize(world))}
}

func (d direction) world(body *actor.RigidBody) mgl64.Vec3 {
	return body.Transform.Rotation.Rotate(d.local)
}

var axes = [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// biased sets the right-hand side of an equality row: the current row
// velocity plus the velocity that removes a fraction of the position error
func biased(r *Row, dt, correction, positionError float64) {
	r.B = r.Velocity() + correction*positionError/dt
}

func appendRows(rows []*Row, own []Row) []*Row {
	for i := range own {
		rows = append(rows, &own[i])
	}

	return rows
}
