package actor

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/arena"
)

// Geometry attaches a convex shape to a body. It refers to its body by handle;
// the owning world resolves it.
type Geometry struct {
	Shape    Shape
	Material Material
	// Local places the shape relative to the body frame
	Local Transform
	// Body is the handle of the owning body, zero while detached
	Body arena.Handle
	// Envelope expands the bounding box so contacts are found before the shapes touch
	Envelope float64

	world Transform
	aabb  AABB
}

func NewGeometry(shape Shape, material Material) *Geometry {
	g := &Geometry{
		Shape:    shape,
		Material: material,
		Local:    NewTransform(),
	}
	g.Update(NewTransform())

	return g
}

// Update recomputes the world transform and bounds from the body pose
func (g *Geometry) Update(body Transform) {
	g.world = body.Mul(g.Local)
	g.aabb = ComputeAABB(g.Shape, g.world).Expand(g.Envelope)
}

func (g *Geometry) World() Transform {
	return g.world
}

func (g *Geometry) AABB() AABB {
	return g.aabb
}

// SupportPoint returns the world-space support point along a world direction
func (g *Geometry) SupportPoint(direction mgl64.Vec3) mgl64.Vec3 {
	local := g.world.Rotation.Conjugate().Rotate(direction)

	return g.world.Apply(g.Shape.Support(local))
}

// SupportFeature returns the world-space supporting feature along a world direction
func (g *Geometry) SupportFeature(direction mgl64.Vec3, tolerance float64) []mgl64.Vec3 {
	local := g.world.Rotation.Conjugate().Rotate(direction)
	feature := g.Shape.SupportFeature(local, tolerance)

	result := make([]mgl64.Vec3, len(feature))
	for i, point := range feature {
		result[i] = g.world.Apply(point)
	}

	return result
}

// MassProperties sums the mass of geometries and returns their centre of mass
// in the body frame with the inertia about it. Each contribution is rotated
// into the body frame and shifted with the parallel axis theorem.
func MassProperties(geometries []*Geometry) (float64, mgl64.Vec3, mgl64.Mat3) {
	var mass float64
	var moment mgl64.Vec3
	for _, g := range geometries {
		if m := g.Shape.ComputeMass(g.Material.Density); m > 0 {
			mass += m
			moment = moment.Add(g.Local.Position.Mul(m))
		}
	}
	if mass <= 0 {
		return 0, mgl64.Vec3{}, mgl64.Mat3{}
	}
	center := moment.Mul(1 / mass)

	var inertia mgl64.Mat3
	for _, g := range geometries {
		m := g.Shape.ComputeMass(g.Material.Density)
		if m <= 0 {
			continue
		}

		R := g.Local.Matrix()
		local := R.Mul3(g.Shape.ComputeInertia(m)).Mul3(R.Transpose())

		p := g.Local.Position.Sub(center)
		shift := mgl64.Ident3().Mul(p.Dot(p)).Sub(p.OuterProd3(p)).Mul(m)

		inertia = inertia.Add(local.Add(shift))
	}

	return mass, center, inertia
}

// Recenter moves the body frame origin by offset (body frame) while keeping
// the geometries where they are in the world
func Recenter(body *RigidBody, geometries []*Geometry, offset mgl64.Vec3) {
	body.Transform.Position = body.Transform.Apply(offset)
	for _, g := range geometries {
		g.Local.Position = g.Local.Position.Sub(offset)
		g.Update(body.Transform)
	}
}
