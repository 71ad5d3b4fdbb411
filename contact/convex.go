package contact

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
	"github.com/sheldonrobinson/jinngine-sub001/epa"
	"github.com/sheldonrobinson/jinngine-sub001/gjk"
)

// touchingDistance is the GJK distance under which the pair is handed to EPA
const touchingDistance = 1e-10

// ConvexGenerator handles any pair of convex shapes with support mappings.
//
// Each step:
//  1. GJK, seeded from the cached simplex, gives the distance or reports overlap
//  2. Overlapping pairs get their normal and depth from EPA
//  3. The supporting features of both shapes along the normal are projected on
//     the contact plane and intersected
//  4. Every point of the intersection is lifted back on both features; points
//     separated by more than the envelope are dropped
type ConvexGenerator struct {
	a, b *actor.Geometry
	cfg  Config

	state    gjk.State
	normal   mgl64.Vec3
	manifold *Manifold
	stats    Stats
}

func NewConvexGenerator(a, b *actor.Geometry, cfg Config) *ConvexGenerator {
	return &ConvexGenerator{
		a:        a,
		b:        b,
		cfg:      cfg,
		manifold: NewManifold(mgl64.Vec3{0, 1, 0}),
	}
}

// ClassifyConvex accepts every pair and is meant to close a classifier chain
func ClassifyConvex(a, b *actor.Geometry, cfg Config) (Generator, bool) {
	return NewConvexGenerator(a, b, cfg), true
}

func (g *ConvexGenerator) Geometries() (*actor.Geometry, *actor.Geometry) {
	return g.a, g.b
}

func (g *ConvexGenerator) Stats() Stats {
	return g.stats
}

// Normal returns the last contact normal, from A toward B
func (g *ConvexGenerator) Normal() mgl64.Vec3 {
	return g.normal
}

func (g *ConvexGenerator) Generate() []Point {
	g.stats = Stats{}

	pa, pb, intersect := gjk.ClosestPoints(g.a, g.b, &g.state, g.cfg.Envelope, g.cfg.Epsilon, g.cfg.GJKMaxIterations)
	g.stats.GJKIterations = g.state.Iterations
	if g.state.Separated {
		g.manifold.points = g.manifold.points[:0]
		return nil
	}

	var normal mgl64.Vec3
	var distance float64
	if !intersect {
		delta := pb.Sub(pa)
		distance = delta.Len()
		if distance > g.cfg.Envelope {
			g.manifold.points = g.manifold.points[:0]
			return nil
		}
		if distance > touchingDistance {
			normal = delta.Mul(1 / distance)
		} else {
			intersect = true
		}
	}
	if intersect {
		normal, distance, pa, pb = g.penetration()
	}

	g.normal = normal
	g.manifold.Reset(normal)
	frame := g.manifold.frame

	featureA := g.a.SupportFeature(normal, g.cfg.FeatureTolerance)
	featureB := g.b.SupportFeature(normal.Mul(-1), g.cfg.FeatureTolerance)

	for _, q := range intersect2(frame.projectAll(featureA), frame.projectAll(featureB)) {
		pointA := frame.lift(q, featureA)
		pointB := frame.lift(q, featureB)

		separation := pointB.Sub(pointA).Dot(normal)
		if separation > g.cfg.Envelope {
			continue
		}
		g.manifold.Add(g.cfg.newPoint(g.a, g.b, pointA, pointB, normal, separation))
	}

	if g.manifold.Len() == 0 && distance <= g.cfg.Envelope {
		g.manifold.Add(g.cfg.newPoint(g.a, g.b, pa, pb, normal, distance))
	}

	return g.manifold.Points()
}

// penetration runs EPA on the cached simplex. When EPA cannot produce a face the
// previous normal is reused, or the direction between the geometry centers.
func (g *ConvexGenerator) penetration() (mgl64.Vec3, float64, mgl64.Vec3, mgl64.Vec3) {
	tetra, ok := epa.Tetrahedron(g.a, g.b, g.state.Simplex())
	if ok {
		var result epa.Result
		result, ok = epa.Penetration(g.a, g.b, tetra, g.cfg.Epsilon, g.cfg.EPAMaxIterations)
		if ok && !math.IsInf(result.Depth, 0) && !math.IsNaN(result.Depth) {
			g.stats.EPAIterations = result.Iterations
			return result.Normal, -result.Depth, result.PointA, result.PointB
		}
	}

	g.stats.EPAFallback = true
	normal := g.normal
	if normal.LenSqr() < 0.5 {
		normal = actor.Normalize(g.b.World().Position.Sub(g.a.World().Position))
	}
	pa := g.a.SupportPoint(normal)
	pb := g.b.SupportPoint(normal.Mul(-1))

	return normal, pb.Sub(pa).Dot(normal), pa, pb
}
