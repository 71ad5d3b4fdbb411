package jinngine

import (
	"fmt"
	"slices"

	"github.com/sheldonrobinson/jinngine-sub001/arena"
	"github.com/sheldonrobinson/jinngine-sub001/broadphase"
	"github.com/sheldonrobinson/jinngine-sub001/constraint"
	"github.com/sheldonrobinson/jinngine-sub001/contact"
)

// bodyPair identifies the contact constraint of two bodies, A before B
type bodyPair struct {
	a, b arena.Handle
}

type generatorEntry struct {
	generator contact.Generator
	bodies    bodyPair
}

// contactManager keeps one ContactConstraint per pair of bodies with at least
// one overlapping geometry pair. It receives the broad-phase transitions:
// an overlap classifies the geometry pair and attaches the generator to the
// constraint of the two bodies (creating it and its graph edge on first use),
// a separation detaches it (destroying both once no generator is left).
type contactManager struct {
	world *World

	generators  map[broadphase.Pair]generatorEntry
	constraints map[bodyPair]*constraint.ContactConstraint
	// active lists the constraints in creation order
	active []*constraint.ContactConstraint
}

func newContactManager(world *World) *contactManager {
	return &contactManager{
		world:       world,
		generators:  make(map[broadphase.Pair]generatorEntry),
		constraints: make(map[bodyPair]*constraint.ContactConstraint),
	}
}

func (m *contactManager) Overlap(pair broadphase.Pair) {
	w := m.world
	geometryA, okA := w.geometries.Get(pair.A)
	geometryB, okB := w.geometries.Get(pair.B)
	if !okA || !okB {
		return
	}

	generator, ok := contact.Classify(w.classifiers, geometryA, geometryB, w.cfg.Contact())
	if !ok {
		w.logger.Debugw("no contact generator for geometry pair",
			"shapeA", fmt.Sprintf("%T", geometryA.Shape), "shapeB", fmt.Sprintf("%T", geometryB.Shape))
		return
	}

	bodies := bodyPair{a: geometryA.Body, b: geometryB.Body}
	flipped := false
	if bodies.b.Less(bodies.a) {
		bodies.a, bodies.b = bodies.b, bodies.a
		flipped = true
	}

	c, ok := m.constraints[bodies]
	if !ok {
		bodyA, _ := w.bodies.Get(bodies.a)
		bodyB, _ := w.bodies.Get(bodies.b)
		c = constraint.NewContactConstraint(bodyA, bodyB, w.cfg.Contact())

		if err := w.graph.AddEdge(bodyA, bodyB, c); err != nil {
			w.logger.Errorw("cannot link contact constraint", "error", err)
			return
		}
		m.constraints[bodies] = c
		m.active = append(m.active, c)
		w.Events.emit(ContactBeginEvent{BodyA: bodyA, BodyB: bodyB})
	}

	c.AddGenerator(generator, flipped)
	m.generators[pair] = generatorEntry{generator: generator, bodies: bodies}
}

func (m *contactManager) Separation(pair broadphase.Pair) {
	entry, ok := m.generators[pair]
	if !ok {
		return
	}
	delete(m.generators, pair)

	c := m.constraints[entry.bodies]
	if c.RemoveGenerator(entry.generator) > 0 {
		return
	}

	w := m.world
	if err := w.graph.RemoveEdge(c); err != nil {
		w.logger.Errorw("cannot unlink contact constraint", "error", err)
	}
	delete(m.constraints, entry.bodies)
	m.active = slices.DeleteFunc(m.active, func(other *constraint.ContactConstraint) bool {
		return other == c
	})
	w.Events.emit(ContactEndEvent{BodyA: c.BodyA, BodyB: c.BodyB})
}

// update regenerates the points of every contact constraint. Generators of
// different constraints share nothing, so constraints are spread over the workers.
func (m *contactManager) update(workers int) {
	task(workers, m.active, func(c *constraint.ContactConstraint) {
		c.Update()
	})

	for _, c := range m.active {
		if c.Stats().EPAFallback {
			m.world.logger.Debugw("penetration depth fell back to the previous normal",
				"bodyA", c.BodyA.ID, "bodyB", c.BodyB.ID)
		}
	}
}
