// Package epa implements the Expanding Polytope Algorithm for computing penetration depth.
//
// EPA is run after GJK reports that two shapes overlap. It expands a polytope
// (starting from GJK's final simplex) inside the Minkowski difference A - B until
// the boundary point closest to the origin is found, which gives:
//   - Penetration depth (how far shapes overlap)
//   - Contact normal (direction to separate shapes)
//   - Witness points on both shapes
//
// Candidate faces are kept in a min-priority queue keyed by the distance of the
// origin's projection, so each iteration pops the nearest face in O(log n).
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/gjk"
)

const (
	// degenerateTolerance rejects flat tetrahedra and sliver faces.
	degenerateTolerance = 1e-14

	// barycentricTolerance lets the projection sit on a face edge despite rounding.
	barycentricTolerance = 1e-10

	// minimumSeparation is the distance under which two support points are considered equal
	// while completing a simplex.
	minimumSeparation = 1e-10
)

// Result describes the penetration of A into B.
type Result struct {
	// PointA is the point of A deepest inside B, PointB the point of B deepest inside A
	PointA, PointB mgl64.Vec3
	// Normal points from A toward B: moving B by Normal*Depth separates the shapes
	Normal mgl64.Vec3
	Depth  float64
	// Iterations counts the expansion steps
	Iterations int
	// Converged is false when the result is the best face found before the budget ran out
	Converged bool
}

// Penetration computes the penetration depth of two overlapping convex shapes.
//
// Algorithm overview:
//  1. Build the initial polytope from a tetrahedron enclosing the origin
//  2. Pop the face nearest to the origin from the priority queue
//  3. Query the support point along the face's outward normal
//  4. If it does not move the boundary by more than epsilon → done
//  5. Otherwise replace the faces seen from the new point by faces joining it
//     to the horizon, and repeat from step 2
//
// Parameters:
//   - a, b: The two overlapping shapes
//   - tetra: A non-degenerate tetrahedron of A - B containing the origin (see Tetrahedron)
//   - epsilon: relative convergence tolerance
//   - maxIterations: expansion budget
//
// Returns the best result found and false only when no usable face exists.
func Penetration(a, b gjk.Support, tetra [4]gjk.Vertex, epsilon float64, maxIterations int) (Result, bool) {
	p, ok := newPolytope(tetra)
	if !ok {
		return Result{}, false
	}

	var best *face
	var result Result

	for result.Iterations < maxIterations {
		f, ok := p.pop()
		if !ok || math.IsInf(f.distance, 1) {
			break
		}
		best = f
		result.Iterations++

		w := gjk.MinkowskiSupport(a, b, f.normal)
		gap := w.Point.Dot(f.normal) - f.distance
		if gap <= epsilon*math.Max(1, f.distance) {
			result.Converged = true
			break
		}

		p.expand(w)
	}

	if best == nil {
		return Result{}, false
	}

	result.PointA, result.PointB = p.witnesses(best)
	result.Normal = best.normal
	result.Depth = best.distance

	return result, true
}

// Tetrahedron grows a GJK simplex of 1 to 4 vertices into a non-degenerate
// tetrahedron of A - B. GJK stops with a smaller simplex when the origin lies on
// its boundary (touching shapes); EPA needs a full-dimensional start.
func Tetrahedron(a, b gjk.Support, simplex []gjk.Vertex) ([4]gjk.Vertex, bool) {
	var tetra [4]gjk.Vertex
	n := 0
	for _, v := range simplex {
		if n == 4 {
			break
		}
		if accepts(tetra[:n], v.Point) {
			tetra[n] = v
			n++
		}
	}

	if n == 0 {
		tetra[0] = gjk.MinkowskiSupport(a, b, mgl64.Vec3{1, 0, 0})
		n = 1
	}

	axes := [6]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

	if n == 1 {
		for _, axis := range axes {
			if w := gjk.MinkowskiSupport(a, b, axis); accepts(tetra[:1], w.Point) {
				tetra[1] = w
				n = 2
				break
			}
		}
	}

	if n == 2 {
		t1, t2 := orthogonal(tetra[1].Point.Sub(tetra[0].Point))
		for _, direction := range [4]mgl64.Vec3{t1, t1.Mul(-1), t2, t2.Mul(-1)} {
			if w := gjk.MinkowskiSupport(a, b, direction); accepts(tetra[:2], w.Point) {
				tetra[2] = w
				n = 3
				break
			}
		}
	}

	if n == 3 {
		normal := tetra[1].Point.Sub(tetra[0].Point).Cross(tetra[2].Point.Sub(tetra[0].Point))
		for _, direction := range [2]mgl64.Vec3{normal, normal.Mul(-1)} {
			if w := gjk.MinkowskiSupport(a, b, direction); accepts(tetra[:3], w.Point) {
				tetra[3] = w
				n = 4
				break
			}
		}
	}

	return tetra, n == 4
}

// accepts reports whether point raises the dimension of the affine hull of points.
func accepts(points []gjk.Vertex, point mgl64.Vec3) bool {
	switch len(points) {
	case 0:
		return true
	case 1:
		return point.Sub(points[0].Point).Len() > minimumSeparation
	case 2:
		e := points[1].Point.Sub(points[0].Point)
		return e.Cross(point.Sub(points[0].Point)).Len() > minimumSeparation*e.Len()
	case 3:
		normal := points[1].Point.Sub(points[0].Point).Cross(points[2].Point.Sub(points[0].Point))
		return math.Abs(normal.Dot(point.Sub(points[0].Point))) > minimumSeparation*normal.Len()
	}

	return false
}

// orthogonal returns two unit vectors orthogonal to v (Gram-Schmidt).
func orthogonal(v mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	n := v.Normalize()
	t := mgl64.Vec3{1, 0, 0}
	if math.Abs(n.X()) > 0.9 {
		t = mgl64.Vec3{0, 1, 0}
	}

	t1 := t.Sub(n.Mul(t.Dot(n))).Normalize()

	return t1, n.Cross(t1)
}
