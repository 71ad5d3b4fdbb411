package solver

import (
	"math"

	"github.com/sheldonrobinson/jinngine-sub001/actor"
	"github.com/sheldonrobinson/jinngine-sub001/constraint"
	"gonum.org/v1/gonum/floats"
)

// NNCG is the nonsmooth nonlinear conjugate gradient method: each projected
// Gauss-Seidel sweep is taken as a gradient step and accelerated with a
// Fletcher-Reeves direction. The direction restarts whenever the residual grows.
//
// Reference: Silcowitz, Niebe, Erleben, "A nonsmooth nonlinear conjugate
// gradient method for interactive contact force problems" (2010).
type NNCG struct {
	Iterations int
	WarmStart  bool
	Decay      float64

	// Rescale divides the problem by the norm of the right-hand side, keeping
	// the residual norms of tiny and huge islands in the same range
	Rescale bool

	lambda, previous, gradient, direction []float64
	lower, upper                          []float64
}

func NewNNCG(iterations int) *NNCG {
	return &NNCG{Iterations: iterations, WarmStart: true, Decay: 1, Rescale: true}
}

func (s *NNCG) Solve(rows []*constraint.Row, bodies []*actor.RigidBody) {
	start(rows, bodies, s.WarmStart, s.Decay)
	if len(rows) == 0 || s.Iterations <= 0 {
		return
	}

	scale := 1.0
	if s.Rescale {
		scale = s.rescale(rows, bodies)
	}

	s.resize(len(rows))
	s.read(rows, s.previous)
	for i := range s.direction {
		s.direction[i] = 0
	}

	residual := 0.0
	for k := 0; k < s.Iterations; k++ {
		sweep(rows)
		s.read(rows, s.lambda)
		floats.SubTo(s.gradient, s.lambda, s.previous)
		current := floats.Dot(s.gradient, s.gradient)

		if k > 0 && k+1 < s.Iterations && residual > 0 {
			beta := current / residual
			if beta >= 1 {
				// the sweep made things worse: forget the direction
				for i := range s.direction {
					s.direction[i] = 0
				}
			} else {
				for i, row := range rows {
					step := beta * s.direction[i]
					if step != 0 && row.Diagonal >= degenerateDiagonal {
						row.Apply(step)
						row.Lambda += step
					}
				}
				floats.Scale(beta, s.direction)
			}
		}

		floats.Add(s.direction, s.gradient)
		residual = current
		s.read(rows, s.previous)
	}

	if scale != 1 {
		s.restore(rows, bodies, scale)
	}
}

func (s *NNCG) resize(n int) {
	if cap(s.lambda) < n {
		s.lambda = make([]float64, n)
		s.previous = make([]float64, n)
		s.gradient = make([]float64, n)
		s.direction = make([]float64, n)
		s.lower = make([]float64, n)
		s.upper = make([]float64, n)
	}
	s.lambda = s.lambda[:n]
	s.previous = s.previous[:n]
	s.gradient = s.gradient[:n]
	s.direction = s.direction[:n]
	s.lower = s.lower[:n]
	s.upper = s.upper[:n]
}

func (s *NNCG) read(rows []*constraint.Row, dst []float64) {
	for i, row := range rows {
		dst[i] = row.Lambda
	}
}

// rescale divides the right-hand sides, the fixed bounds, the impulses and
// the delta-velocities by the right-hand side norm and returns that norm.
// Coupled bounds follow their normal impulse and need no change.
func (s *NNCG) rescale(rows []*constraint.Row, bodies []*actor.RigidBody) float64 {
	s.resize(len(rows))
	for i, row := range rows {
		s.lambda[i] = row.B
	}
	scale := floats.Norm(s.lambda, 2)
	if scale < 1e-12 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return 1
	}

	for i, row := range rows {
		s.lower[i], s.upper[i] = row.Lower, row.Upper
		row.B /= scale
		row.Lower /= scale
		row.Upper /= scale
		row.Lambda /= scale
	}
	scaleDeltas(bodies, 1/scale)

	return scale
}

func (s *NNCG) restore(rows []*constraint.Row, bodies []*actor.RigidBody, scale float64) {
	for i, row := range rows {
		row.B *= scale
		row.Lower, row.Upper = s.lower[i], s.upper[i]
		row.Lambda *= scale
	}
	scaleDeltas(bodies, scale)
}

func scaleDeltas(bodies []*actor.RigidBody, factor float64) {
	for _, body := range bodies {
		body.DeltaVelocity = body.DeltaVelocity.Mul(factor)
		body.DeltaAngularVelocity = body.DeltaAngularVelocity.Mul(factor)
	}
}
