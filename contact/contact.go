// Package contact turns pairs of overlapping geometries into contact points.
//
// A Generator is created once per geometry pair when the broad-phase reports an
// overlap and lives until the pair separates, so it can keep per-pair state such
// as the GJK simplex cache. Generators are chosen by walking an ordered chain of
// classifiers; the first classifier accepting the pair wins.
package contact

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
)

// MaxPoints caps the size of a contact manifold
const MaxPoints = 4

// Config holds the narrow-phase tunables
type Config struct {
	// Envelope is the distance under which contacts are generated before the shapes touch
	Envelope float64
	// Shell is the separation under which an approaching contact is treated as an impact
	Shell float64
	// Epsilon is the relative convergence tolerance of GJK and EPA
	Epsilon          float64
	GJKMaxIterations int
	EPAMaxIterations int
	// FeatureTolerance is the angle (radians) under which a face or edge counts as supporting
	FeatureTolerance float64
	// Correction is the fraction of the penetration recovered per step
	Correction float64
	// MaxCorrection caps the recovered distance per step
	MaxCorrection float64
}

func DefaultConfig() Config {
	return Config{
		Envelope:         0.125,
		Shell:            0.125 * 0.75,
		Epsilon:          1e-6,
		GJKMaxIterations: 64,
		EPAMaxIterations: 64,
		FeatureTolerance: 0.05,
		Correction:       0.2,
		MaxCorrection:    0.05,
	}
}

// Point is a single contact between two geometries, regenerated every step
type Point struct {
	// PointA and PointB are the world positions of the contact on each geometry
	PointA, PointB mgl64.Vec3
	// Normal points from A toward B
	Normal mgl64.Vec3
	// Distance is the signed separation along Normal, negative when penetrating
	Distance float64
	// Bias is the distance the normal row may close (positive) or must recover (negative) in one step
	Bias float64

	Restitution float64
	Friction    float64
}

// Position returns the midpoint of the two contact positions
func (p Point) Position() mgl64.Vec3 {
	return p.PointA.Add(p.PointB).Mul(0.5)
}

// Flip returns the same contact seen from B
func (p Point) Flip() Point {
	p.PointA, p.PointB = p.PointB, p.PointA
	p.Normal = p.Normal.Mul(-1)

	return p
}

// bias converts a signed separation into the per-step target of the normal row
func (c Config) bias(distance float64) float64 {
	if distance > 0 {
		return distance
	}

	return max(c.Correction*distance, -c.MaxCorrection)
}

// newPoint fills the material and bias fields of a contact
func (c Config) newPoint(a, b *actor.Geometry, pointA, pointB, normal mgl64.Vec3, distance float64) Point {
	return Point{
		PointA:      pointA,
		PointB:      pointB,
		Normal:      normal,
		Distance:    distance,
		Bias:        c.bias(distance),
		Restitution: actor.CombineRestitution(a.Material, b.Material),
		Friction:    actor.CombineFriction(a.Material, b.Material),
	}
}

// Stats reports the work of the last Generate call
type Stats struct {
	GJKIterations int
	EPAIterations int
	// EPAFallback is set when EPA could not produce a face and the previous normal was reused
	EPAFallback bool
}

// Generator produces the contact points of one geometry pair
type Generator interface {
	// Generate recomputes the contacts for the current geometry poses.
	// The returned slice is owned by the generator and valid until the next call.
	Generate() []Point
	Geometries() (*actor.Geometry, *actor.Geometry)
	Stats() Stats
}

// Classifier decides whether it can produce a generator for a pair
type Classifier interface {
	Classify(a, b *actor.Geometry, cfg Config) (Generator, bool)
}

// ClassifierFunc adapts a function to Classifier
type ClassifierFunc func(a, b *actor.Geometry, cfg Config) (Generator, bool)

func (f ClassifierFunc) Classify(a, b *actor.Geometry, cfg Config) (Generator, bool) {
	return f(a, b, cfg)
}

// Classify walks the chain in order; the first match wins
func Classify(chain []Classifier, a, b *actor.Geometry, cfg Config) (Generator, bool) {
	for _, classifier := range chain {
		if generator, ok := classifier.Classify(a, b, cfg); ok {
			return generator, true
		}
	}

	return nil, false
}

// DefaultClassifiers returns the analytic sphere pair first, then the general convex path
func DefaultClassifiers() []Classifier {
	return []Classifier{
		ClassifierFunc(ClassifySpheres),
		ClassifierFunc(ClassifyConvex),
	}
}
