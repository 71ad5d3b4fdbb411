// Package solver computes the constraint impulses of an island.
//
// The rows form a nonlinear complementarity problem: each row impulse λ lies
// in its bounds and the row velocity w is zero, or λ sits on a bound and w
// pushes against it. Friction bounds depend on the normal impulse, hence the
// nonlinearity. Impulses are applied to the solver delta-velocities of the
// bodies as soon as they change.
package solver

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
	"github.com/sheldonrobinson/jinngine-sub001/constraint"
)

// degenerateDiagonal is the effective mass under which a row is ignored
const degenerateDiagonal = 1e-12

// Solver computes the impulses of rows, leaving the result in the rows' Lambda
// and the bodies' solver delta-velocities. bodies lists the non-fixed bodies the rows touch.
type Solver interface {
	Solve(rows []*constraint.Row, bodies []*actor.RigidBody)
}

// start clears the solver delta-velocities, then either applies the decayed
// impulses of the previous step or zeroes them
func start(rows []*constraint.Row, bodies []*actor.RigidBody, warm bool, decay float64) {
	for _, body := range bodies {
		body.DeltaVelocity = mgl64.Vec3{}
		body.DeltaAngularVelocity = mgl64.Vec3{}
	}

	for _, row := range rows {
		if !warm || row.Diagonal < degenerateDiagonal {
			row.Lambda = 0
			continue
		}
		row.Lambda *= decay
	}

	// clamping needs every decayed normal impulse first
	for _, row := range rows {
		if row.Lambda == 0 {
			continue
		}
		row.Lambda = row.Clamp(row.Lambda)
		row.Apply(row.Lambda)
	}
}

// sweep is one projected Gauss-Seidel pass over the rows
func sweep(rows []*constraint.Row) {
	for _, row := range rows {
		if row.Diagonal < degenerateDiagonal {
			continue
		}

		w := row.B + row.Delta() + row.Damper*row.Lambda
		lambda := row.Clamp(row.Lambda - w/row.Diagonal)
		if delta := lambda - row.Lambda; delta != 0 {
			row.Apply(delta)
			row.Lambda = lambda
		}
	}
}

// ProjectedGaussSeidel sweeps the rows a fixed number of times
type ProjectedGaussSeidel struct {
	Iterations int
	// WarmStart starts from the impulses of the previous step scaled by Decay
	WarmStart bool
	Decay     float64
}

func NewProjectedGaussSeidel(iterations int) *ProjectedGaussSeidel {
	return &ProjectedGaussSeidel{Iterations: iterations, WarmStart: true, Decay: 1}
}

func (s *ProjectedGaussSeidel) Solve(rows []*constraint.Row, bodies []*actor.RigidBody) {
	start(rows, bodies, s.WarmStart, s.Decay)

	for i := 0; i < s.Iterations; i++ {
		sweep(rows)
	}
}
