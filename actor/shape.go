package actor

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// Shape is the interface that all convex collision shapes must implement.
// Every query works in the shape's local frame.
type Shape interface {
	// Support returns the point of the shape farthest along direction.
	Support(direction mgl64.Vec3) mgl64.Vec3
	// SupportFeature returns the vertex, edge (2 points) or face (>=3 points, convex order)
	// whose outward normal lies within tolerance radians of direction.
	SupportFeature(direction mgl64.Vec3, tolerance float64) []mgl64.Vec3
	// ComputeMass calculates the mass of the shape given a density
	ComputeMass(density float64) float64
	// ComputeInertia returns the inertia tensor about the shape origin
	ComputeInertia(mass float64) mgl64.Mat3
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
}

// ComputeMass calculates mass data for the box
func (b *Box) ComputeMass(density float64) float64 {
	// Volume = 8 * hx * hy * hz (full dimensions are 2*halfExtents)
	volume := 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()

	return density * volume
}

func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	x := b.HalfExtents.X() * 2
	y := b.HalfExtents.Y() * 2
	z := b.HalfExtents.Z() * 2

	// I = (m/12) * (d1² + d2²)
	factor := mass / 12.0

	return mgl64.Diag3(mgl64.Vec3{
		factor * (y*y + z*z),
		factor * (x*x + z*z),
		factor * (x*x + y*y),
	})
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

// SupportFeature picks a face when direction is within tolerance of a face normal,
// an edge when it is within tolerance of the plane orthogonal to that edge, a vertex otherwise.
func (b *Box) SupportFeature(direction mgl64.Vec3, tolerance float64) []mgl64.Vec3 {
	dir := Normalize(direction)
	sinTol := math.Sin(tolerance)
	corner := b.Support(dir)

	// dominant axis: the only candidate face
	major := 0
	for i := 1; i < 3; i++ {
		if math.Abs(dir[i]) > math.Abs(dir[major]) {
			major = i
		}
	}
	a, c := (major+1)%3, (major+2)%3
	if math.Hypot(dir[a], dir[c]) < sinTol {
		return boxFace(corner, b.HalfExtents, a, c)
	}

	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < sinTol {
			from, to := corner, corner
			from[i] = -b.HalfExtents[i]
			to[i] = b.HalfExtents[i]

			return []mgl64.Vec3{from, to}
		}
	}

	return []mgl64.Vec3{corner}
}

// boxFace walks the face spanned by the free axes a and c around corner, in convex order.
func boxFace(corner, half mgl64.Vec3, a, c int) []mgl64.Vec3 {
	signs := [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	face := make([]mgl64.Vec3, 4)
	for i, s := range signs {
		v := corner
		v[a] = s[0] * half[a]
		v[c] = s[1] * half[c]
		face[i] = v
	}

	return face
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
}

// ComputeMass calculates mass data for the sphere
func (s *Sphere) ComputeMass(density float64) float64 {
	// Volume of sphere = (4/3) * π * r³
	volume := (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3)

	return density * volume
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	// I = (2/5) * m * r²
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius

	return mgl64.Diag3(mgl64.Vec3{i, i, i})
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	return Normalize(direction).Mul(s.Radius)
}

func (s *Sphere) SupportFeature(direction mgl64.Vec3, _ float64) []mgl64.Vec3 {
	return []mgl64.Vec3{s.Support(direction)}
}

// Capsule is a segment along the local Y axis swept by a sphere
type Capsule struct {
	HalfHeight float64
	Radius     float64
}

func (c *Capsule) ComputeMass(density float64) float64 {
	r := c.Radius
	cylinder := math.Pi * r * r * 2 * c.HalfHeight
	caps := (4.0 / 3.0) * math.Pi * r * r * r

	return density * (cylinder + caps)
}

func (c *Capsule) ComputeInertia(mass float64) mgl64.Mat3 {
	r, h := c.Radius, 2*c.HalfHeight
	cylinderVolume := math.Pi * r * r * h
	sphereVolume := (4.0 / 3.0) * math.Pi * r * r * r
	total := cylinderVolume + sphereVolume
	if total <= 0 {
		return mgl64.Mat3{}
	}
	mc := mass * cylinderVolume / total
	ms := mass * sphereVolume / total

	// the hemispheres are offset by half the cylinder plus 3r/8
	axial := mc*r*r/2 + ms*2*r*r/5
	offset := h/2 + 3*r/8
	lateral := mc*(3*r*r+h*h)/12 + ms*(83*r*r/320+offset*offset)

	return mgl64.Diag3(mgl64.Vec3{lateral, axial, lateral})
}

func (c *Capsule) Support(direction mgl64.Vec3) mgl64.Vec3 {
	tip := mgl64.Vec3{0, c.HalfHeight, 0}
	if direction.Y() < 0 {
		tip[1] = -c.HalfHeight
	}

	return tip.Add(Normalize(direction).Mul(c.Radius))
}

func (c *Capsule) SupportFeature(direction mgl64.Vec3, tolerance float64) []mgl64.Vec3 {
	dir := Normalize(direction)
	if math.Abs(dir.Y()) >= math.Sin(tolerance) {
		return []mgl64.Vec3{c.Support(dir)}
	}

	side := Normalize(mgl64.Vec3{dir.X(), 0, dir.Z()}).Mul(c.Radius)

	return []mgl64.Vec3{
		side.Add(mgl64.Vec3{0, -c.HalfHeight, 0}),
		side.Add(mgl64.Vec3{0, c.HalfHeight, 0}),
	}
}

// ConvexHull is the convex hull of a point cloud centered on its local origin
type ConvexHull struct {
	Vertices []mgl64.Vec3
}

// ComputeMass integrates the hull volume exactly
func (h *ConvexHull) ComputeMass(density float64) float64 {
	volume, _, _ := h.volumeProperties()

	return volume * density
}

// ComputeInertia returns the inertia about the hull centroid, which is
// expected at the local origin
func (h *ConvexHull) ComputeInertia(mass float64) mgl64.Mat3 {
	volume, _, covariance := h.volumeProperties()
	if volume <= 0 {
		return mgl64.Mat3{}
	}

	trace := covariance.At(0, 0) + covariance.At(1, 1) + covariance.At(2, 2)

	return mgl64.Ident3().Mul(trace).Sub(covariance).Mul(mass / volume)
}

// volumeProperties decomposes the hull into tetrahedra joining every face
// triangle to an interior point, and sums their volume, centroid and second
// moment ∫ x xᵀ dV (Blow and Binstock). The second moment is taken about the centroid.
func (h *ConvexHull) volumeProperties() (float64, mgl64.Vec3, mgl64.Mat3) {
	if len(h.Vertices) < 4 {
		return 0, mgl64.Vec3{}, mgl64.Mat3{}
	}

	var apex mgl64.Vec3
	for _, v := range h.Vertices {
		apex = apex.Add(v)
	}
	apex = apex.Mul(1.0 / float64(len(h.Vertices)))

	// second moment of the unit tetrahedron (0, e1, e2, e3)
	canonical := mgl64.Mat3{2, 1, 1, 1, 2, 1, 1, 1, 2}.Mul(1.0 / 120)

	var volume float64
	var moment mgl64.Vec3
	var covariance mgl64.Mat3
	for _, face := range h.faces() {
		for i := 1; i+1 < len(face); i++ {
			a, b, c := face[0].Sub(apex), face[i].Sub(apex), face[i+1].Sub(apex)
			A := mgl64.Mat3FromCols(a, b, c)
			det := math.Abs(A.Det())

			volume += det / 6
			moment = moment.Add(a.Add(b).Add(c).Mul(det / 24))
			covariance = covariance.Add(A.Mul3(canonical).Mul3(A.Transpose()).Mul(det))
		}
	}
	if volume <= 0 {
		return 0, mgl64.Vec3{}, mgl64.Mat3{}
	}

	offset := moment.Mul(1 / volume)
	covariance = covariance.Sub(offset.OuterProd3(offset).Mul(volume))

	return volume, apex.Add(offset), covariance
}

// faces returns the planar faces of the hull, each with its vertices ordered
// around the face. Interior points are ignored.
func (h *ConvexHull) faces() [][]mgl64.Vec3 {
	vertices := h.Vertices
	var scale float64
	for _, v := range vertices {
		scale = math.Max(scale, v.Len())
	}
	tolerance := 1e-9 * math.Max(scale, 1e-12)

	seen := make(map[string]struct{})
	var faces [][]mgl64.Vec3

	for i := 0; i < len(vertices); i++ {
		for j := i + 1; j < len(vertices); j++ {
			for k := j + 1; k < len(vertices); k++ {
				normal := vertices[j].Sub(vertices[i]).Cross(vertices[k].Sub(vertices[i]))
				if normal.Len() <= tolerance*scale {
					continue
				}
				normal = normal.Normalize()
				offset := normal.Dot(vertices[i])

				var above, below bool
				var plane []int
				for m, v := range vertices {
					switch d := normal.Dot(v) - offset; {
					case d > tolerance:
						above = true
					case d < -tolerance:
						below = true
					default:
						plane = append(plane, m)
					}
				}
				if above && below {
					continue
				}

				key := fmt.Sprint(plane)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}

				face := make([]mgl64.Vec3, len(plane))
				for n, m := range plane {
					face[n] = vertices[m]
				}
				faces = append(faces, orderAround(face, normal))
			}
		}
	}

	return faces
}

func (h *ConvexHull) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if len(h.Vertices) == 0 {
		return mgl64.Vec3{}
	}

	best := h.Vertices[0]
	bestDot := best.Dot(direction)
	for _, v := range h.Vertices[1:] {
		if d := v.Dot(direction); d > bestDot {
			best, bestDot = v, d
		}
	}

	return best
}

// SupportFeature gathers every vertex lying within tolerance radians of the
// supporting plane, then orders them around their centroid.
func (h *ConvexHull) SupportFeature(direction mgl64.Vec3, tolerance float64) []mgl64.Vec3 {
	dir := Normalize(direction)
	top := h.Support(dir)
	sinTol := math.Sin(tolerance)

	feature := []mgl64.Vec3{top}
	for _, v := range h.Vertices {
		delta := v.Sub(top)
		length := delta.Len()
		if length < 1e-12 {
			continue
		}
		if math.Abs(delta.Dot(dir)) <= sinTol*length {
			feature = append(feature, v)
		}
	}

	if len(feature) < 3 {
		return feature
	}

	return orderAround(feature, dir)
}

// orderAround sorts coplanar points by angle around their centroid, seen along normal
func orderAround(points []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	t1, t2 := TangentBasis(normal)
	var center mgl64.Vec3
	for _, v := range points {
		center = center.Add(v)
	}
	center = center.Mul(1.0 / float64(len(points)))

	slices.SortFunc(points, func(p, q mgl64.Vec3) int {
		ap := math.Atan2(p.Sub(center).Dot(t2), p.Sub(center).Dot(t1))
		aq := math.Atan2(q.Sub(center).Dot(t2), q.Sub(center).Dot(t1))
		switch {
		case ap < aq:
			return -1
		case ap > aq:
			return 1
		}
		return 0
	})

	return points
}

// Normalize returns v with unit length, or the X axis when v is degenerate.
func Normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-12 || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec3{1, 0, 0}
	}

	return v.Mul(1.0 / l)
}

// TangentBasis builds two unit vectors orthogonal to normal and to each other (Gram-Schmidt).
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = Normalize(tangent1.Sub(normal.Mul(tangent1.Dot(normal))))
	tangent2 := Normalize(normal.Cross(tangent1))

	return tangent1, tangent2
}
