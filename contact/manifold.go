package contact

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
)

// Manifold accumulates up to MaxPoints contacts of one pair. Once full, a new
// point replaces whichever existing point leaves the widest quadrilateral, so
// the kept points span the contact region.
type Manifold struct {
	points []Point
	frame  plane
}

// NewManifold starts an empty manifold on the plane orthogonal to normal
func NewManifold(normal mgl64.Vec3) *Manifold {
	m := &Manifold{points: make([]Point, 0, MaxPoints)}
	m.Reset(normal)

	return m
}

// Reset empties the manifold and moves it to a new contact plane
func (m *Manifold) Reset(normal mgl64.Vec3) {
	t1, t2 := actor.TangentBasis(normal)
	m.frame = plane{normal: normal, t1: t1, t2: t2}
	m.points = m.points[:0]
}

func (m *Manifold) Points() []Point {
	return m.points
}

func (m *Manifold) Len() int {
	return len(m.points)
}

// Add inserts p, replacing an existing point when the manifold is full
func (m *Manifold) Add(p Point) {
	if len(m.points) < MaxPoints {
		m.points = append(m.points, p)
		return
	}

	var candidate [MaxPoints]mgl64.Vec2
	incoming := m.frame.project(p.PointA)

	best, bestArea := -1, -1.0
	for replace := range m.points {
		for i, existing := range m.points {
			if i == replace {
				candidate[i] = incoming
			} else {
				candidate[i] = m.frame.project(existing.PointA)
			}
		}
		if area := quadArea(candidate); area > bestArea {
			best, bestArea = replace, area
		}
	}

	m.points[best] = p
}

// quadArea returns the area of a quadrilateral given in any vertex order: half
// the cross product of its diagonals, maximized over the three ways to pair them.
func quadArea(q [MaxPoints]mgl64.Vec2) float64 {
	a := math.Abs(cross2(q[0].Sub(q[2]), q[1].Sub(q[3])))
	b := math.Abs(cross2(q[0].Sub(q[1]), q[2].Sub(q[3])))
	c := math.Abs(cross2(q[0].Sub(q[3]), q[1].Sub(q[2])))

	return 0.5 * math.Max(a, math.Max(b, c))
}
