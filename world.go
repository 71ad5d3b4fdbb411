// Package jinngine is a rigid-body simulation core.
//
// A World owns bodies and their convex geometries and advances them with
// Tick. Each tick runs a fixed pipeline: external forces, broad-phase pair
// tracking, contact lifecycle, contact refresh, per-island constraint solve,
// integration, bounds refresh and event delivery.
package jinngine

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
	"github.com/sheldonrobinson/jinngine-sub001/arena"
	"github.com/sheldonrobinson/jinngine-sub001/broadphase"
	"github.com/sheldonrobinson/jinngine-sub001/constraint"
	"github.com/sheldonrobinson/jinngine-sub001/contact"
	"github.com/sheldonrobinson/jinngine-sub001/graph"
	"github.com/sheldonrobinson/jinngine-sub001/solver"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/graph/simple"
)

var (
	ErrUnknownBody       = errors.New("unknown body")
	ErrUnknownGeometry   = errors.New("unknown geometry")
	ErrUnknownConstraint = errors.New("unknown constraint")
)

// Island is a set of bodies linked by constraints, solved independently of other islands
type Island struct {
	Bodies      []*actor.RigidBody
	Constraints []constraint.Constraint
}

type World struct {
	cfg    Config
	logger *zap.SugaredLogger

	bodies     *arena.Arena[*actor.RigidBody]
	geometries *arena.Arena[*actor.Geometry]
	handles    map[*actor.RigidBody]arena.Handle

	broadphase  broadphase.Strategy
	classifiers []contact.Classifier
	contacts    *contactManager
	graph       *graph.Graph[*actor.RigidBody, constraint.Constraint]
	joints      map[constraint.Constraint]struct{}

	// solvers are pooled: an island borrows one for the duration of its solve
	solvers sync.Pool

	bodyList []*actor.RigidBody

	Events Events
}

type Option func(*World)

// WithLogger sets the logger; the default discards everything
func WithLogger(logger *zap.Logger) Option {
	return func(w *World) {
		w.logger = logger.Sugar()
	}
}

// WithClassifiers replaces the classifier chain used to pick contact generators
func WithClassifiers(classifiers ...contact.Classifier) Option {
	return func(w *World) {
		w.classifiers = classifiers
	}
}

// WithSolver replaces the configured solver. newSolver may be called once per
// concurrently solved island.
func WithSolver(newSolver func() solver.Solver) Option {
	return func(w *World) {
		w.solvers.New = func() any { return newSolver() }
	}
}

// NewWorld validates cfg and creates an empty world
func NewWorld(cfg Config, options ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid world config")
	}

	w := &World{
		cfg:         cfg,
		logger:      zap.NewNop().Sugar(),
		bodies:      arena.New[*actor.RigidBody](64),
		geometries:  arena.New[*actor.Geometry](64),
		handles:     make(map[*actor.RigidBody]arena.Handle),
		classifiers: contact.DefaultClassifiers(),
		graph:       graph.New[*actor.RigidBody, constraint.Constraint](),
		joints:      make(map[constraint.Constraint]struct{}),
		Events:      NewEvents(),
	}
	w.solvers.New = func() any { return cfg.NewSolver() }
	w.broadphase = cfg.NewBroadPhase(w.acceptPair)
	w.contacts = newContactManager(w)

	for _, option := range options {
		option(w)
	}

	w.logger.Infow("world created", "solver", cfg.Solver, "iterations", cfg.Iterations,
		"broadphase", cfg.BroadPhase, "workers", cfg.Workers)

	return w, nil
}

func (w *World) Config() Config {
	return w.cfg
}

// acceptPair rejects two geometries of one body and two geometries of fixed bodies
func (w *World) acceptPair(a, b arena.Handle) bool {
	geometryA, okA := w.geometries.Get(a)
	geometryB, okB := w.geometries.Get(b)
	if !okA || !okB || geometryA.Body == geometryB.Body {
		return false
	}

	bodyA, _ := w.bodies.Get(geometryA.Body)
	bodyB, _ := w.bodies.Get(geometryB.Body)

	return !(bodyA.IsStatic() && bodyB.IsStatic())
}

// AddBody adds a rigid body to the world
func (w *World) AddBody(body *actor.RigidBody) arena.Handle {
	if h, ok := w.handles[body]; ok {
		return h
	}

	h := w.bodies.Insert(body)
	w.handles[body] = h
	w.graph.AddNode(body, body.IsStatic())
	body.UpdateInertia()

	return h
}

// RemoveBody removes a body with its geometries and every constraint attached to it
func (w *World) RemoveBody(h arena.Handle) error {
	body, ok := w.bodies.Get(h)
	if !ok {
		return errors.Wrapf(ErrUnknownBody, "remove body %v", h)
	}

	// separations destroy the contact constraints
	for _, g := range slices.Clone(body.Geometries) {
		if err := w.RemoveGeometry(g); err != nil {
			return err
		}
	}

	removed, err := w.graph.RemoveNode(body)
	if err != nil {
		return errors.Wrap(err, "remove body")
	}
	for _, c := range removed {
		delete(w.joints, c)
	}

	w.bodies.Remove(h)
	delete(w.handles, body)

	return nil
}

func (w *World) Body(h arena.Handle) (*actor.RigidBody, bool) {
	return w.bodies.Get(h)
}

// BodyByID finds a body by its stable identifier
func (w *World) BodyByID(id uuid.UUID) (*actor.RigidBody, arena.Handle, bool) {
	for h, body := range w.bodies.All() {
		if body.ID == id {
			return body, h, true
		}
	}

	return nil, arena.Handle{}, false
}

// Bodies returns every body, in handle order
func (w *World) Bodies() []*actor.RigidBody {
	bodies := make([]*actor.RigidBody, 0, w.bodies.Len())
	for _, body := range w.bodies.All() {
		bodies = append(bodies, body)
	}

	return bodies
}

// AddGeometry attaches g to a body. The mass properties of a dynamic body are
// recomputed from all its geometries and its origin moves to their centre of
// mass, geometries staying in place. Attach geometries before the joints.
func (w *World) AddGeometry(body arena.Handle, g *actor.Geometry) (arena.Handle, error) {
	rb, ok := w.bodies.Get(body)
	if !ok {
		return arena.Handle{}, errors.Wrapf(ErrUnknownBody, "add geometry to %v", body)
	}

	g.Body = body
	g.Envelope = w.cfg.Envelope
	g.Update(rb.Transform)

	h := w.geometries.Insert(g)
	rb.Geometries = append(rb.Geometries, h)
	w.updateMass(rb)
	w.broadphase.Add(h, g)

	return h, nil
}

// RemoveGeometry detaches a geometry, ending its contacts
func (w *World) RemoveGeometry(h arena.Handle) error {
	g, ok := w.geometries.Get(h)
	if !ok {
		return errors.Wrapf(ErrUnknownGeometry, "remove geometry %v", h)
	}

	w.broadphase.Remove(h, w.contacts)
	w.geometries.Remove(h)

	if rb, ok := w.bodies.Get(g.Body); ok {
		rb.Geometries = slices.DeleteFunc(rb.Geometries, func(other arena.Handle) bool { return other == h })
		w.updateMass(rb)
	}
	g.Body = arena.Handle{}

	return nil
}

func (w *World) Geometry(h arena.Handle) (*actor.Geometry, bool) {
	return w.geometries.Get(h)
}

func (w *World) updateMass(rb *actor.RigidBody) {
	if rb.IsStatic() {
		return
	}

	geometries := make([]*actor.Geometry, 0, len(rb.Geometries))
	for _, h := range rb.Geometries {
		if g, ok := w.geometries.Get(h); ok {
			geometries = append(geometries, g)
		}
	}

	mass, center, inertia := actor.MassProperties(geometries)
	if mass <= 0 {
		return
	}
	// the body integrates about its origin, which has to be the centre of mass
	if center.LenSqr() > 0 {
		actor.Recenter(rb, geometries, center)
	}
	rb.SetMassProperties(mass, inertia)
}

// AddConstraint links two bodies of the world with a joint
func (w *World) AddConstraint(c constraint.Constraint) error {
	a, b := c.Bodies()
	if _, ok := w.handles[a]; !ok {
		return errors.Wrap(ErrUnknownBody, "add constraint")
	}
	if _, ok := w.handles[b]; !ok {
		return errors.Wrap(ErrUnknownBody, "add constraint")
	}

	if err := w.graph.AddEdge(a, b, c); err != nil {
		return errors.Wrap(err, "add constraint")
	}
	w.joints[c] = struct{}{}

	return nil
}

// RemoveConstraint removes a joint added with AddConstraint
func (w *World) RemoveConstraint(c constraint.Constraint) error {
	if _, ok := w.joints[c]; !ok {
		return errors.Wrap(ErrUnknownConstraint, "remove constraint")
	}

	delete(w.joints, c)

	return errors.Wrap(w.graph.RemoveEdge(c), "remove constraint")
}

// Contacts returns the live contact constraints in creation order
func (w *World) Contacts() []*constraint.ContactConstraint {
	return slices.Clone(w.contacts.active)
}

// Islands returns the connected components of the constraint graph. Bodies
// without constraints and fixed bodies belong to none.
func (w *World) Islands() []Island {
	components := w.graph.Components()
	islands := make([]Island, len(components))
	for i, component := range components {
		islands[i] = Island{Bodies: component.Nodes(), Constraints: component.Edges()}
	}

	return islands
}

// ConstraintGraph exports the constraint graph between non-fixed bodies,
// node IDs being the body handle indices
func (w *World) ConstraintGraph() *simple.UndirectedGraph {
	return w.graph.Snapshot(func(body *actor.RigidBody) int64 {
		return int64(w.handles[body].Index())
	})
}

// Tick advances the world by dt seconds
func (w *World) Tick(dt float64) {
	w.bodyList = w.bodyList[:0]
	for _, body := range w.bodies.All() {
		w.bodyList = append(w.bodyList, body)
	}

	// Phase 1: gravity and accumulated forces
	for _, body := range w.bodyList {
		body.ApplyExternal(dt, w.cfg.Gravity)
	}

	// Phase 2: broad-phase transitions drive the contact lifecycle
	w.broadphase.Run(w.contacts)

	// Phase 3: contact points from the current poses
	w.contacts.update(w.cfg.Workers)

	// Phase 4: islands are independent problems
	islands := w.graph.Components()
	task(w.cfg.Workers, islands, func(island *graph.Component[*actor.RigidBody, constraint.Constraint]) {
		w.solveIsland(dt, island)
	})
	w.logger.Debugw("tick", "bodies", len(w.bodyList), "islands", len(islands), "contacts", len(w.contacts.active))

	// Phase 5: velocities and poses
	for _, body := range w.bodyList {
		if body.Sanitize() {
			w.logger.Warnw("non-finite velocity reset", "body", body.ID)
		}
	}
	task(w.cfg.Workers, w.bodyList, func(body *actor.RigidBody) {
		body.Integrate(dt)
	})

	// Phase 6: bounds for the next broad-phase run
	for _, g := range w.geometries.All() {
		if body, ok := w.bodies.Get(g.Body); ok {
			g.Update(body.Transform)
		}
	}

	w.Events.flush()
}

func (w *World) solveIsland(dt float64, island *graph.Component[*actor.RigidBody, constraint.Constraint]) {
	var rows []*constraint.Row
	for _, c := range island.Edges() {
		rows = c.ApplyConstraints(dt, rows)
	}

	s := w.solvers.Get().(solver.Solver)
	s.Solve(rows, island.Nodes())
	w.solvers.Put(s)
}
