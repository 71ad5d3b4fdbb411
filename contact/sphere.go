package contact

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
)

// SphereGenerator computes the single contact of two spheres in closed form
type SphereGenerator struct {
	a, b   *actor.Geometry
	ra, rb float64
	cfg    Config
	points [1]Point
}

// ClassifySpheres accepts pairs of spheres only
func ClassifySpheres(a, b *actor.Geometry, cfg Config) (Generator, bool) {
	sa, ok := a.Shape.(*actor.Sphere)
	if !ok {
		return nil, false
	}
	sb, ok := b.Shape.(*actor.Sphere)
	if !ok {
		return nil, false
	}

	return &SphereGenerator{a: a, b: b, ra: sa.Radius, rb: sb.Radius, cfg: cfg}, true
}

func (g *SphereGenerator) Geometries() (*actor.Geometry, *actor.Geometry) {
	return g.a, g.b
}

func (g *SphereGenerator) Stats() Stats {
	return Stats{}
}

func (g *SphereGenerator) Generate() []Point {
	centerA := g.a.World().Position
	centerB := g.b.World().Position

	delta := centerB.Sub(centerA)
	length := delta.Len()
	distance := length - g.ra - g.rb
	if distance > g.cfg.Envelope {
		return nil
	}

	normal := mgl64.Vec3{0, 1, 0}
	if length > touchingDistance {
		normal = delta.Mul(1 / length)
	}

	pointA := centerA.Add(normal.Mul(g.ra))
	pointB := centerB.Sub(normal.Mul(g.rb))
	g.points[0] = g.cfg.newPoint(g.a, g.b, pointA, pointB, normal, distance)

	return g.points[:]
}
