package constraint

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
	"github.com/sheldonrobinson/jinngine-sub001/contact"
)

type generatorEntry struct {
	generator contact.Generator
	// flipped is set when the generator's first geometry belongs to BodyB
	flipped bool
}

// warmPoint is the impulse of a contact point of the previous step
type warmPoint struct {
	position mgl64.Vec3
	normal   float64
	// friction is the tangential impulse as a world vector, so it survives a change of tangent basis
	friction mgl64.Vec3
}

// ContactConstraint is the single constraint between two bodies in contact.
// It owns one generator per overlapping geometry pair of the two bodies; the
// points of all generators are gathered into one set of rows.
type ContactConstraint struct {
	BodyA, BodyB *actor.RigidBody

	cfg        contact.Config
	generators []generatorEntry
	points     []contact.Point

	rows      []Row
	positions []mgl64.Vec3
	previous  []warmPoint
}

func NewContactConstraint(a, b *actor.RigidBody, cfg contact.Config) *ContactConstraint {
	return &ContactConstraint{BodyA: a, BodyB: b, cfg: cfg}
}

func (c *ContactConstraint) Bodies() (*actor.RigidBody, *actor.RigidBody) {
	return c.BodyA, c.BodyB
}

// AddGenerator attaches a generator; flipped tells that its geometries are in (B, A) order
func (c *ContactConstraint) AddGenerator(generator contact.Generator, flipped bool) int {
	c.generators = append(c.generators, generatorEntry{generator: generator, flipped: flipped})

	return len(c.generators)
}

// RemoveGenerator detaches a generator and returns how many remain
func (c *ContactConstraint) RemoveGenerator(generator contact.Generator) int {
	c.generators = slices.DeleteFunc(c.generators, func(entry generatorEntry) bool {
		return entry.generator == generator
	})

	return len(c.generators)
}

func (c *ContactConstraint) Generators() int {
	return len(c.generators)
}

// Update regenerates the contact points from the current poses. Constraints
// share no state, so different constraints may be updated concurrently.
func (c *ContactConstraint) Update() {
	c.points = c.points[:0]
	for _, entry := range c.generators {
		for _, p := range entry.generator.Generate() {
			if entry.flipped {
				p = p.Flip()
			}
			c.points = append(c.points, p)
		}
	}
}

// Points returns the contact points of the last Update, normals pointing from BodyA to BodyB
func (c *ContactConstraint) Points() []contact.Point {
	return c.points
}

// Stats sums the narrow-phase statistics of the generators
func (c *ContactConstraint) Stats() contact.Stats {
	var stats contact.Stats
	for _, entry := range c.generators {
		s := entry.generator.Stats()
		stats.GJKIterations += s.GJKIterations
		stats.EPAIterations += s.EPAIterations
		stats.EPAFallback = stats.EPAFallback || s.EPAFallback
	}

	return stats
}

// ApplyConstraints emits one normal row and two friction rows per point.
//
// The normal row keeps the bodies from approaching faster than the gap allows
// (or pushes them apart when penetrating, see contact.Point.Bias). A contact
// inside the shell that would close during the step bounces with the combined
// restitution. Friction rows are bounded by μ times the normal impulse.
func (c *ContactConstraint) ApplyConstraints(dt float64, rows []*Row) []*Row {
	c.remember()

	n := 3 * len(c.points)
	if cap(c.rows) < n {
		c.rows = make([]Row, n)
	}
	c.rows = c.rows[:n]
	c.positions = c.positions[:0]

	a, b := c.BodyA, c.BodyB
	for i, p := range c.points {
		normal := &c.rows[3*i]
		rA := p.PointA.Sub(a.Transform.Position)
		rB := p.PointB.Sub(b.Transform.Position)

		normal.linear(a, b, rA, rB, p.Normal)
		normal.Lower, normal.Upper = 0, math.Inf(1)

		velocity := normal.Velocity()
		target := p.Bias / dt
		if p.Restitution > 0 && p.Distance < c.cfg.Shell && velocity < 0 && velocity*dt+p.Distance < 0 {
			target = math.Min(target, p.Restitution*velocity)
		}
		normal.B = velocity + target

		t1, t2 := actor.TangentBasis(p.Normal)
		friction := [2]*Row{&c.rows[3*i+1], &c.rows[3*i+2]}
		for k, tangent := range [2]mgl64.Vec3{t1, t2} {
			friction[k].linear(a, b, rA, rB, tangent)
			friction[k].Coupling = Coupling{Row: normal, Coefficient: p.Friction}
			friction[k].B = friction[k].Velocity()
		}

		normal.Lambda, friction[0].Lambda, friction[1].Lambda = 0, 0, 0
		if warm, ok := c.match(p.Position()); ok {
			normal.Lambda = warm.normal
			friction[0].Lambda = warm.friction.Dot(t1)
			friction[1].Lambda = warm.friction.Dot(t2)
		}

		c.positions = append(c.positions, p.Position())
		rows = append(rows, normal, friction[0], friction[1])
	}

	return rows
}

// remember keeps the impulses of the rows of the previous step
func (c *ContactConstraint) remember() {
	c.previous = c.previous[:0]
	for i := 0; i+2 < len(c.rows); i += 3 {
		normal, f1, f2 := &c.rows[i], &c.rows[i+1], &c.rows[i+2]
		c.previous = append(c.previous, warmPoint{
			position: c.positions[i/3],
			normal:   normal.Lambda,
			friction: f1.J3.Mul(f1.Lambda).Add(f2.J3.Mul(f2.Lambda)),
		})
	}
}

// match finds the previous point closest to position, within the envelope
func (c *ContactConstraint) match(position mgl64.Vec3) (warmPoint, bool) {
	best, bestDistance := -1, c.cfg.Envelope*c.cfg.Envelope
	for i, warm := range c.previous {
		if d := warm.position.Sub(position).LenSqr(); d <= bestDistance {
			best, bestDistance = i, d
		}
	}
	if best < 0 {
		return warmPoint{}, false
	}

	return c.previous[best], true
}
