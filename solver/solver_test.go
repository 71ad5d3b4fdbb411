package solver

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
	"github.com/sheldonrobinson/jinngine-sub001/constraint"
	"github.com/sheldonrobinson/jinngine-sub001/contact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDt = 1.0 / 60.0

type fixedGenerator struct {
	points []contact.Point
}

func (g *fixedGenerator) Generate() []contact.Point { return g.points }

func (g *fixedGenerator) Geometries() (*actor.Geometry, *actor.Geometry) { return nil, nil }

func (g *fixedGenerator) Stats() contact.Stats { return contact.Stats{} }

func newBody(position mgl64.Vec3, bodyType actor.BodyType) *actor.RigidBody {
	return actor.NewRigidBody(actor.Transform{Position: position, Rotation: mgl64.QuatIdent()}, bodyType)
}

// boxOnGround returns the contact rows of a unit box touching a static ground on its four bottom corners
func boxOnGround(velocity mgl64.Vec3) ([]*constraint.Row, *actor.RigidBody, *actor.RigidBody) {
	ground := newBody(mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic)
	box := newBody(mgl64.Vec3{0, 1, 0}, actor.BodyTypeDynamic)
	box.SetMassProperties(1, mgl64.Diag3(mgl64.Vec3{1.0 / 6, 1.0 / 6, 1.0 / 6}))
	box.Velocity = velocity

	var points []contact.Point
	for _, corner := range [4][2]float64{{0.5, 0.5}, {0.5, -0.5}, {-0.5, -0.5}, {-0.5, 0.5}} {
		position := mgl64.Vec3{corner[0], 0.5, corner[1]}
		points = append(points, contact.Point{
			PointA:   position,
			PointB:   position,
			Normal:   mgl64.Vec3{0, 1, 0},
			Friction: 0.5,
		})
	}

	c := constraint.NewContactConstraint(ground, box, contact.DefaultConfig())
	c.AddGenerator(&fixedGenerator{points: points}, false)
	c.Update()

	return c.ApplyConstraints(testDt, nil), ground, box
}

// finalVelocity returns the velocity the box would integrate with
func finalVelocity(box *actor.RigidBody) (mgl64.Vec3, mgl64.Vec3) {
	return box.Velocity.Add(box.DeltaVelocity), box.AngularVelocity.Add(box.DeltaAngularVelocity)
}

// chain links dynamic bodies along Y to a static anchor with equality rows
func chain(n int) ([]*constraint.Row, []*actor.RigidBody) {
	previous := newBody(mgl64.Vec3{}, actor.BodyTypeStatic)
	var rows []*constraint.Row
	var bodies []*actor.RigidBody

	for i := 1; i <= n; i++ {
		body := newBody(mgl64.Vec3{0, -float64(i), 0}, actor.BodyTypeDynamic)
		body.Velocity = mgl64.Vec3{0, -float64(i), 0}
		bodies = append(bodies, body)

		row := &constraint.Row{}
		axis := mgl64.Vec3{0, 1, 0}
		row.Set(previous, body, axis.Mul(-1), mgl64.Vec3{}, axis, mgl64.Vec3{})
		row.B = row.Velocity()
		rows = append(rows, row)

		previous = body
	}

	return rows, bodies
}

func residual(rows []*constraint.Row) float64 {
	sum := 0.0
	for _, row := range rows {
		w := row.B + row.Delta()
		sum += w * w
	}

	return math.Sqrt(sum)
}

func TestSolvers_EqualityChain(t *testing.T) {
	solvers := map[string]Solver{
		"pgs":  NewProjectedGaussSeidel(200),
		"nncg": NewNNCG(200),
	}

	for name, solver := range solvers {
		t.Run(name, func(t *testing.T) {
			rows, bodies := chain(5)
			solver.Solve(rows, bodies)

			assert.Less(t, residual(rows), 1e-6)
			for _, body := range bodies {
				v := body.Velocity.Add(body.DeltaVelocity)
				assert.InDelta(t, 0, v.Len(), 1e-6)
			}
		})
	}
}

func TestSolvers_SlidingBox(t *testing.T) {
	solvers := map[string]Solver{
		"pgs":  NewProjectedGaussSeidel(500),
		"nncg": NewNNCG(500),
	}

	for name, solver := range solvers {
		t.Run(name, func(t *testing.T) {
			rows, ground, box := boxOnGround(mgl64.Vec3{1, -1, 0})
			solver.Solve(rows, []*actor.RigidBody{box})

			// the fall stops and friction removes μ times the normal impulse
			v, w := finalVelocity(box)
			assert.InDelta(t, 0.5, v.X(), 1e-3)
			assert.InDelta(t, 0, v.Y(), 1e-3)
			assert.InDelta(t, 0, v.Z(), 1e-3)
			assert.InDelta(t, 0, w.Len(), 1e-3)

			total := 0.0
			for i := 0; i < len(rows); i += 3 {
				assert.GreaterOrEqual(t, rows[i].Lambda, 0.0)
				total += rows[i].Lambda
				for _, friction := range rows[i+1 : i+3] {
					assert.LessOrEqual(t, math.Abs(friction.Lambda), 0.5*rows[i].Lambda+1e-12)
				}
			}
			assert.InDelta(t, 1, total, 1e-3)

			assert.Equal(t, mgl64.Vec3{}, ground.DeltaVelocity)
			assert.Equal(t, mgl64.Vec3{}, ground.DeltaAngularVelocity)
		})
	}
}

func TestSolvers_SeparatingContactsPushNothing(t *testing.T) {
	rows, _, box := boxOnGround(mgl64.Vec3{0, 2, 0})
	NewProjectedGaussSeidel(20).Solve(rows, []*actor.RigidBody{box})

	for _, row := range rows {
		assert.Equal(t, 0.0, row.Lambda)
	}
	assert.Equal(t, mgl64.Vec3{}, box.DeltaVelocity)
}

func TestSolvers_DegenerateRowSkipped(t *testing.T) {
	a := newBody(mgl64.Vec3{}, actor.BodyTypeStatic)
	b := newBody(mgl64.Vec3{1, 0, 0}, actor.BodyTypeStatic)

	var row constraint.Row
	row.Set(a, b, mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{})
	row.B = 5
	row.Lambda = 3
	require.Less(t, row.Diagonal, degenerateDiagonal)

	for _, solver := range []Solver{NewProjectedGaussSeidel(10), NewNNCG(10)} {
		solver.Solve([]*constraint.Row{&row}, nil)
		assert.Equal(t, 0.0, row.Lambda)
		assert.False(t, math.IsNaN(row.Lambda))
	}
}

func TestProjectedGaussSeidel_WarmStart(t *testing.T) {
	rows, _, box := boxOnGround(mgl64.Vec3{0.3, -1, 0.1})
	bodies := []*actor.RigidBody{box}

	NewProjectedGaussSeidel(300).Solve(rows, bodies)
	converged := make([]float64, len(rows))
	for i, row := range rows {
		converged[i] = row.Lambda
	}
	v, w := finalVelocity(box)

	t.Run("replaying the impulses restores the velocities", func(t *testing.T) {
		NewProjectedGaussSeidel(0).Solve(rows, bodies)
		replayed, angular := finalVelocity(box)
		assert.True(t, replayed.Sub(v).Len() <= 1e-12, "%v vs %v", replayed, v)
		assert.True(t, angular.Sub(w).Len() <= 1e-12, "%v vs %v", angular, w)
	})

	t.Run("decay scales the initial guess", func(t *testing.T) {
		pgs := &ProjectedGaussSeidel{Iterations: 0, WarmStart: true, Decay: 0.5}
		pgs.Solve(rows, bodies)
		assert.InDelta(t, 0.5*converged[0], rows[0].Lambda, 1e-12)

		for i, row := range rows {
			row.Lambda = converged[i]
		}
	})

	t.Run("a warm start beats a cold start", func(t *testing.T) {
		NewProjectedGaussSeidel(1).Solve(rows, bodies)
		warm, _ := finalVelocity(box)

		cold := &ProjectedGaussSeidel{Iterations: 1}
		cold.Solve(rows, bodies)
		coldVelocity, _ := finalVelocity(box)

		assert.Less(t, math.Abs(warm.Y()), 1e-4)
		assert.Greater(t, coldVelocity.Sub(v).Len(), warm.Sub(v).Len())
	})
}

func TestNNCG_RescaleRestoresRows(t *testing.T) {
	rows, bodies := chain(3)
	rows[0].Lower, rows[0].Upper = -100, 100
	B := rows[1].B

	NewNNCG(50).Solve(rows, bodies)

	assert.Equal(t, -100.0, rows[0].Lower)
	assert.Equal(t, 100.0, rows[0].Upper)
	assert.InDelta(t, B, rows[1].B, 1e-12)
	assert.Less(t, residual(rows), 1e-6)
}

func TestNNCG_MatchesProjectedGaussSeidel(t *testing.T) {
	pgsRows, _, pgsBox := boxOnGround(mgl64.Vec3{-0.4, -2, 0.7})
	nncgRows, _, nncgBox := boxOnGround(mgl64.Vec3{-0.4, -2, 0.7})

	NewProjectedGaussSeidel(1000).Solve(pgsRows, []*actor.RigidBody{pgsBox})
	NewNNCG(1000).Solve(nncgRows, []*actor.RigidBody{nncgBox})

	pv, pw := finalVelocity(pgsBox)
	nv, nw := finalVelocity(nncgBox)
	assert.True(t, pv.Sub(nv).Len() <= 1e-3, "%v vs %v", pv, nv)
	assert.True(t, pw.Sub(nw).Len() <= 1e-3, "%v vs %v", pw, nw)
}

func BenchmarkSolvers(b *testing.B) {
	for name, solver := range map[string]Solver{"pgs": NewProjectedGaussSeidel(20), "nncg": NewNNCG(20)} {
		b.Run(name, func(b *testing.B) {
			rows, _, box := boxOnGround(mgl64.Vec3{1, -1, 0})
			bodies := []*actor.RigidBody{box}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				solver.Solve(rows, bodies)
			}
		})
	}
}
