package constraint

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
	"github.com/stretchr/testify/assert"
)

func createBody(position mgl64.Vec3) *actor.RigidBody {
	return actor.NewRigidBody(actor.Transform{Position: position, Rotation: mgl64.QuatIdent()}, actor.BodyTypeDynamic)
}

func createStatic(position mgl64.Vec3) *actor.RigidBody {
	return actor.NewRigidBody(actor.Transform{Position: position, Rotation: mgl64.QuatIdent()}, actor.BodyTypeStatic)
}

func TestRow_SetDiagonal(t *testing.T) {
	a := createBody(mgl64.Vec3{0, 0, 0})
	b := createBody(mgl64.Vec3{2, 0, 0})
	b.SetMassProperties(2, mgl64.Ident3())

	var row Row
	row.linear(a, b, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	assert.InDelta(t, 1.5, row.Diagonal, 1e-12)

	// a lever arm adds the angular term |r×n|² / I
	row.linear(a, b, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	assert.InDelta(t, 2.5, row.Diagonal, 1e-12)

	row.Damper = 0.5
	row.angular(a, b, mgl64.Vec3{0, 0, 1})
	assert.InDelta(t, 2.5, row.Diagonal, 1e-12)
	assert.True(t, math.IsInf(row.Lower, -1) && math.IsInf(row.Upper, 1))
}

func TestRow_ApplySkipsStaticBodies(t *testing.T) {
	ground := createStatic(mgl64.Vec3{0, 0, 0})
	body := createBody(mgl64.Vec3{0, 1, 0})

	var row Row
	row.linear(ground, body, mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{0, -0.5, 0}, mgl64.Vec3{0, 1, 0})
	assert.InDelta(t, 1, row.Diagonal, 1e-12)

	row.Apply(2)
	assert.Equal(t, mgl64.Vec3{}, ground.DeltaVelocity)
	assert.Equal(t, mgl64.Vec3{}, ground.DeltaAngularVelocity)
	assert.InDelta(t, 2, body.DeltaVelocity.Y(), 1e-12)

	// the impulse is seen back through Delta
	assert.InDelta(t, 2, row.Delta(), 1e-12)
}

func TestRow_CoupledBounds(t *testing.T) {
	a := createBody(mgl64.Vec3{0, 0, 0})
	b := createBody(mgl64.Vec3{0, 1, 0})

	var normal, friction Row
	normal.linear(a, b, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0})
	friction.linear(a, b, mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	friction.Coupling = Coupling{Row: &normal, Coefficient: 0.5}

	normal.Lambda = 4
	lower, upper := friction.Bounds()
	assert.Equal(t, -2.0, lower)
	assert.Equal(t, 2.0, upper)
	assert.Equal(t, 2.0, friction.Clamp(10))
	assert.Equal(t, -1.0, friction.Clamp(-1))

	normal.Lambda = 0
	assert.Equal(t, 0.0, friction.Clamp(3))
}
