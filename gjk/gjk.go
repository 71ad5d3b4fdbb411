// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) distance algorithm.
//
// GJK computes the closest points of two convex shapes by searching the point of
// their Minkowski difference A - B closest to the origin. The simplex is kept in a
// per-pair State between calls, so the search of the next simulation step starts
// from the previous closest direction and typically converges in 1-3 iterations.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// touchingTolerance is the squared distance under which the shapes are considered in contact.
	touchingTolerance = 1e-20
)

// Support is a convex set queried through its support mapping.
type Support interface {
	// SupportPoint returns the point of the set farthest along direction, in world space.
	SupportPoint(direction mgl64.Vec3) mgl64.Vec3
}

// Vertex is a point of the Minkowski difference A - B together with its witnesses.
type Vertex struct {
	Point mgl64.Vec3 // A - B
	A     mgl64.Vec3
	B     mgl64.Vec3
}

// MinkowskiSupport computes the support vertex of A - B along direction.
//
// The Minkowski difference A - B is the set of all vectors (a - b) where a ∈ A and b ∈ B.
// Its support point is furthestPoint(A, direction) - furthestPoint(B, -direction).
func MinkowskiSupport(a, b Support, direction mgl64.Vec3) Vertex {
	supportA := a.SupportPoint(direction)
	supportB := b.SupportPoint(direction.Mul(-1))

	return Vertex{Point: supportA.Sub(supportB), A: supportA, B: supportB}
}

// State is the simplex cache of one ordered pair of shapes.
//
// Vertices live in fixed slots; perm lists the active slots first, so reducing
// the simplex only rearranges indices and the free slot for the next vertex is
// always perm[size].
type State struct {
	vertices [4]Vertex
	perm     [4]int
	lambda   [4]float64 // barycentric weight per slot
	size     int

	// V is the last closest point of A - B, used to seed the next search.
	V mgl64.Vec3
	// Iterations counts the support queries of the last call.
	Iterations int
	// Separated is set when the last call stopped on the envelope test.
	Separated bool
}

// Reset forgets the cached simplex and direction.
func (s *State) Reset() {
	*s = State{}
}

// Size returns the number of simplex vertices.
func (s *State) Size() int {
	return s.size
}

// Simplex returns the active vertices.
func (s *State) Simplex() []Vertex {
	result := make([]Vertex, s.size)
	for i := 0; i < s.size; i++ {
		result[i] = s.vertices[s.perm[i]]
	}

	return result
}

// Weights returns the barycentric weights of the active vertices, in Simplex order.
func (s *State) Weights() []float64 {
	result := make([]float64, s.size)
	for i := 0; i < s.size; i++ {
		result[i] = s.lambda[s.perm[i]]
	}

	return result
}

// ClosestPoints runs GJK on the pair (a, b), reusing and updating the cache s.
//
// Algorithm overview:
//  1. Seed the search direction v from the cached closest point
//  2. Query w = supportA(-v) - supportB(v)
//  3. If v·w > envelope·|v| the shapes are farther apart than envelope: stop
//  4. If |v|² - v·w < ε²·max(1, |v|²) the distance has converged: stop
//  5. Add w, reduce the simplex to the sub-simplex holding the closest point, repeat
//
// Parameters:
//   - envelope: early-out distance, math.Inf(1) for a plain distance query
//   - epsilon: relative convergence tolerance
//   - maxIterations: support query budget
//
// Returns:
//   - pa, pb: closest points on A and B (best estimate when separated early or capped)
//   - intersect: true when the simplex encloses the origin or touches it
func ClosestPoints(a, b Support, s *State, envelope, epsilon float64, maxIterations int) (mgl64.Vec3, mgl64.Vec3, bool) {
	s.Separated = false
	s.Iterations = 0
	s.size = 0
	for i := range s.perm {
		s.perm[i] = i
	}

	v := s.V
	if !finite(v) || v.LenSqr() < touchingTolerance {
		v = MinkowskiSupport(a, b, mgl64.Vec3{1, 0, 0}).Point
		if v.LenSqr() < touchingTolerance {
			v = mgl64.Vec3{1, 0, 0}
		}
	}

	eps2 := epsilon * epsilon
	intersect := false

	for s.Iterations < maxIterations {
		s.Iterations++

		w := MinkowskiSupport(a, b, v.Mul(-1))
		vv := v.LenSqr()
		vw := v.Dot(w.Point)

		if vw > envelope*math.Sqrt(vv) {
			s.Separated = true
			if s.size == 0 {
				s.V = w.Point
				return w.A, w.B, false
			}
			break
		}

		// a repeated support vertex is not an exit by itself: the simplex is
		// solved again with it and the progress test below decides
		previous := s.size
		if previous > 0 && vv-vw <= eps2*math.Max(1, vv) {
			break
		}

		backup := *s
		s.vertices[s.perm[s.size]] = w
		s.size++
		if !s.reduce() {
			restore(s, &backup)
			break
		}

		next := s.closest()
		if s.size == 4 || next.LenSqr() < touchingTolerance {
			v = next
			intersect = true
			break
		}
		if previous > 0 && next.LenSqr() >= vv {
			// no progress: the distance is as good as the arithmetic allows
			if next.LenSqr() > vv {
				restore(s, &backup)
			} else {
				v = next
			}
			break
		}
		v = next
	}

	s.V = v
	pa, pb := s.witnesses()

	return pa, pb, intersect
}

// restore rolls the simplex back to a previous one, keeping the query counters.
func restore(s *State, backup *State) {
	iterations, separated := s.Iterations, s.Separated
	*s = *backup
	s.Iterations, s.Separated = iterations, separated
}

// closest returns the weighted point of the simplex.
func (s *State) closest() mgl64.Vec3 {
	var x mgl64.Vec3
	for i := 0; i < s.size; i++ {
		slot := s.perm[i]
		x = x.Add(s.vertices[slot].Point.Mul(s.lambda[slot]))
	}

	return x
}

func (s *State) witnesses() (mgl64.Vec3, mgl64.Vec3) {
	var pa, pb mgl64.Vec3
	for i := 0; i < s.size; i++ {
		slot := s.perm[i]
		pa = pa.Add(s.vertices[slot].A.Mul(s.lambda[slot]))
		pb = pb.Add(s.vertices[slot].B.Mul(s.lambda[slot]))
	}

	return pa, pb
}

// reduce replaces the simplex by its sub-simplex supporting the point closest
// to the origin. Vertices with a zero weight are dropped.
func (s *State) reduce() bool {
	var points [4]mgl64.Vec3
	for i := 0; i < s.size; i++ {
		points[i] = s.vertices[s.perm[i]].Point
	}

	weights := signedVolumes(points[:s.size])

	var perm [4]int
	var lambda [4]float64
	k := 0
	for i := 0; i < s.size; i++ {
		if !(weights[i] > 0) {
			continue
		}
		if math.IsInf(weights[i], 0) {
			return false
		}
		perm[k] = s.perm[i]
		lambda[s.perm[i]] = weights[i]
		k++
	}
	if k == 0 {
		return false
	}

	size := k
	for i := 0; i < 4; i++ {
		if i >= s.size || !(weights[i] > 0) {
			perm[k] = s.perm[i]
			k++
		}
	}

	s.perm = perm
	s.size = size
	s.lambda = lambda

	return true
}

// signedVolumes returns the barycentric weights of the point of the convex hull
// of points closest to the origin (Montanari, Petrinic, Barbieri 2017). The
// weights come from signed areas and volumes measured on the largest
// projection, so sliver triangles and flat tetrahedra keep full precision.
func signedVolumes(points []mgl64.Vec3) [4]float64 {
	switch len(points) {
	case 1:
		return [4]float64{1}
	case 2:
		return closestOnSegment(points, 0, 1)
	case 3:
		return closestOnTriangle(points, 0, 1, 2)
	default:
		return closestOnTetrahedron(points)
	}
}

func closestOnSegment(points []mgl64.Vec3, i, j int) [4]float64 {
	var weights [4]float64
	a, b := points[i], points[j]

	t := b.Sub(a)
	d := t.LenSqr()
	if d == 0 {
		weights[i] = 1
		return weights
	}

	mu := -a.Dot(t) / d
	switch {
	case mu <= 0:
		weights[i] = 1
	case mu >= 1:
		weights[j] = 1
	default:
		weights[i], weights[j] = 1-mu, mu
	}

	return weights
}

func closestOnTriangle(points []mgl64.Vec3, i, j, k int) [4]float64 {
	a, b, c := points[i], points[j], points[k]
	n := b.Sub(a).Cross(c.Sub(a))

	axis := 0
	for m := 1; m < 3; m++ {
		if math.Abs(n[m]) > math.Abs(n[axis]) {
			axis = m
		}
	}
	mu := n[axis]

	var areas [3]float64
	if mu != 0 {
		origin := n.Mul(a.Dot(n) / n.LenSqr())
		x, y := (axis+1)%3, (axis+2)%3
		area := func(u, v mgl64.Vec3) float64 {
			u, v = u.Sub(origin), v.Sub(origin)
			return u[x]*v[y] - u[y]*v[x]
		}
		areas = [3]float64{area(b, c), area(c, a), area(a, b)}

		if sameSign(mu, areas[0]) && sameSign(mu, areas[1]) && sameSign(mu, areas[2]) {
			var weights [4]float64
			weights[i], weights[j], weights[k] = areas[0]/mu, areas[1]/mu, areas[2]/mu
			return weights
		}
	}

	// the closest point is on an edge facing the origin
	edges := [3][2]int{{j, k}, {k, i}, {i, j}}
	best := math.Inf(1)
	var weights [4]float64
	for m, edge := range edges {
		if sameSign(mu, areas[m]) {
			continue
		}
		candidate := closestOnSegment(points, edge[0], edge[1])
		if d := weightedPoint(points, candidate).LenSqr(); d < best {
			best = d
			weights = candidate
		}
	}

	return weights
}

func closestOnTetrahedron(points []mgl64.Vec3) [4]float64 {
	a, b, c, d := points[0], points[1], points[2], points[3]
	var zero mgl64.Vec3
	volume := func(p, q, r, s mgl64.Vec3) float64 {
		return q.Sub(p).Dot(r.Sub(p).Cross(s.Sub(p)))
	}

	mu := volume(a, b, c, d)
	volumes := [4]float64{
		volume(zero, b, c, d),
		volume(a, zero, c, d),
		volume(a, b, zero, d),
		volume(a, b, c, zero),
	}

	if sameSign(mu, volumes[0]) && sameSign(mu, volumes[1]) && sameSign(mu, volumes[2]) && sameSign(mu, volumes[3]) {
		return [4]float64{volumes[0] / mu, volumes[1] / mu, volumes[2] / mu, volumes[3] / mu}
	}

	// the closest point is on a face facing the origin
	faces := [4][3]int{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}}
	best := math.Inf(1)
	var weights [4]float64
	for m, face := range faces {
		if sameSign(mu, volumes[m]) {
			continue
		}
		candidate := closestOnTriangle(points, face[0], face[1], face[2])
		if dist := weightedPoint(points, candidate).LenSqr(); dist < best {
			best = dist
			weights = candidate
		}
	}

	return weights
}

func weightedPoint(points []mgl64.Vec3, weights [4]float64) mgl64.Vec3 {
	var x mgl64.Vec3
	for i, p := range points {
		x = x.Add(p.Mul(weights[i]))
	}

	return x
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
