package jinngine

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
	"github.com/sheldonrobinson/jinngine-sub001/arena"
	"github.com/sheldonrobinson/jinngine-sub001/constraint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/graph/topo"
)

const testDt = 1.0 / 60.0

func newTestWorld(t *testing.T, cfg Config) *World {
	t.Helper()

	w, err := NewWorld(cfg, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	return w
}

func addBody(t *testing.T, w *World, position mgl64.Vec3, bodyType actor.BodyType, shape actor.Shape, material actor.Material) (*actor.RigidBody, arena.Handle) {
	t.Helper()

	body := actor.NewRigidBody(actor.Transform{Position: position, Rotation: mgl64.QuatIdent()}, bodyType)
	h := w.AddBody(body)
	_, err := w.AddGeometry(h, actor.NewGeometry(shape, material))
	require.NoError(t, err)

	return body, h
}

func addGround(t *testing.T, w *World, material actor.Material) *actor.RigidBody {
	t.Helper()

	ground, _ := addBody(t, w, mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic, &actor.Box{HalfExtents: mgl64.Vec3{10, 0.5, 10}}, material)

	return ground
}

func unitBox() *actor.Box {
	return &actor.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}
}

// assertAtRest checks a box came to rest upright at position
func assertAtRest(t *testing.T, box *actor.RigidBody, position mgl64.Vec3, tolerance float64) {
	t.Helper()

	assert.Less(t, box.Transform.Position.Sub(position).Len(), tolerance, "position %v", box.Transform.Position)
	assert.Less(t, box.Velocity.Len(), 0.05, "velocity %v", box.Velocity)
	assert.Less(t, box.AngularVelocity.Len(), 0.05, "angular velocity %v", box.AngularVelocity)

	up := box.Transform.Rotation.Rotate(mgl64.Vec3{0, 1, 0})
	assert.Greater(t, up.Y(), 0.999)
}

func TestWorld_Scenes(t *testing.T) {
	tests := []struct {
		name  string
		ticks int
		// setup builds the scene and returns the check run after the last tick
		setup func(t *testing.T, w *World) func(t *testing.T)
	}{
		{
			name:  "box rests on ground",
			ticks: 180,
			setup: func(t *testing.T, w *World) func(t *testing.T) {
				addGround(t, w, actor.DefaultMaterial())
				box, _ := addBody(t, w, mgl64.Vec3{0, 1.05, 0}, actor.BodyTypeDynamic, unitBox(), actor.DefaultMaterial())

				return func(t *testing.T) {
					assertAtRest(t, box, mgl64.Vec3{0, 1, 0}, 0.02)

					require.Len(t, w.Contacts(), 1)
					assert.Len(t, w.Contacts()[0].Points(), 4)
				}
			},
		},
		{
			name:  "five box stack settles",
			ticks: 300,
			setup: func(t *testing.T, w *World) func(t *testing.T) {
				addGround(t, w, actor.DefaultMaterial())
				boxes := make([]*actor.RigidBody, 5)
				for i := range boxes {
					boxes[i], _ = addBody(t, w, mgl64.Vec3{0, 1 + float64(i), 0}, actor.BodyTypeDynamic, unitBox(), actor.DefaultMaterial())
				}

				return func(t *testing.T) {
					for i, box := range boxes {
						assertAtRest(t, box, mgl64.Vec3{0, 1 + float64(i), 0}, 0.05)
					}

					// every face pair keeps a full manifold
					require.Len(t, w.Contacts(), 5)
					for _, c := range w.Contacts() {
						assert.Len(t, c.Points(), 4)
					}
				}
			},
		},
		{
			name:  "box holds on a frictional incline",
			ticks: 120,
			setup: func(t *testing.T, w *World) func(t *testing.T) {
				rough := actor.Material{Density: 1, Friction: 0.6}
				tilt := mgl64.QuatRotate(0.2, mgl64.Vec3{0, 0, 1})
				normal := tilt.Rotate(mgl64.Vec3{0, 1, 0})

				slope := actor.NewRigidBody(actor.Transform{Position: mgl64.Vec3{}, Rotation: tilt}, actor.BodyTypeStatic)
				h := w.AddBody(slope)
				_, err := w.AddGeometry(h, actor.NewGeometry(&actor.Box{HalfExtents: mgl64.Vec3{10, 0.5, 10}}, rough))
				require.NoError(t, err)

				start := normal.Mul(1)
				box := actor.NewRigidBody(actor.Transform{Position: start, Rotation: tilt}, actor.BodyTypeDynamic)
				h = w.AddBody(box)
				_, err = w.AddGeometry(h, actor.NewGeometry(unitBox(), rough))
				require.NoError(t, err)

				return func(t *testing.T) {
					tangential := box.Velocity.Sub(normal.Mul(box.Velocity.Dot(normal)))
					assert.Less(t, tangential.Len(), 1e-3, "tangential velocity %v", tangential)

					drift := box.Transform.Position.Sub(start)
					drift = drift.Sub(normal.Mul(drift.Dot(normal)))
					assert.Less(t, drift.Len(), 0.01, "slid by %v", drift)
				}
			},
		},
		{
			name:  "hinged pendulum keeps its radius",
			ticks: 40,
			setup: func(t *testing.T, w *World) func(t *testing.T) {
				pivot := mgl64.Vec3{0, 6, 0}
				post := actor.NewRigidBody(actor.Transform{Position: pivot, Rotation: mgl64.QuatIdent()}, actor.BodyTypeStatic)
				w.AddBody(post)

				bob, _ := addBody(t, w, mgl64.Vec3{1.5, 6, 0}, actor.BodyTypeDynamic,
					&actor.Box{HalfExtents: mgl64.Vec3{0.25, 0.25, 0.25}}, actor.DefaultMaterial())

				hinge := constraint.NewHinge(post, bob, pivot, mgl64.Vec3{0, 0, 1})
				require.NoError(t, w.AddConstraint(hinge))

				return func(t *testing.T) {
					arm := bob.Transform.Position.Sub(pivot)
					assert.InDelta(t, 1.5, arm.Len(), 0.03, "arm %v", arm)
					assert.InDelta(t, 0, bob.Transform.Position.Z(), 1e-3)
					// released horizontally, close to the bottom of its swing after 2/3 s
					assert.Less(t, arm.Y(), -0.5)
					assert.InDelta(t, math.Atan2(arm.Y(), arm.X()), hinge.Angle(), 0.05)
				}
			},
		},
	}

	for _, tt := range tests {
		for _, solverName := range []string{SolverPGS, SolverNNCG} {
			t.Run(tt.name+"/"+solverName, func(t *testing.T) {
				cfg := DefaultConfig()
				cfg.Solver = solverName
				w := newTestWorld(t, cfg)

				check := tt.setup(t, w)
				for i := 0; i < tt.ticks; i++ {
					w.Tick(testDt)
				}
				check(t)
			})
		}
	}
}

func TestWorld_FrictionlessSlide(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())

	ice := actor.Material{Density: 1, Friction: 0}
	addGround(t, w, ice)
	box, _ := addBody(t, w, mgl64.Vec3{0, 1.01, 0}, actor.BodyTypeDynamic, unitBox(), ice)
	box.Velocity = mgl64.Vec3{2, 0, 0}

	for i := 0; i < 60; i++ {
		w.Tick(testDt)
	}

	assert.InDelta(t, 2, box.Velocity.X(), 1e-3)
	assert.InDelta(t, 0, box.Velocity.Z(), 1e-3)
	assert.InDelta(t, 2, box.Transform.Position.X(), 0.05)
}

func TestWorld_ElasticCollisionConservesEnergy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = mgl64.Vec3{}
	w := newTestWorld(t, cfg)

	bouncy := actor.Material{Density: 1, Restitution: 1, Friction: 0.5}
	a, _ := addBody(t, w, mgl64.Vec3{-1, 0, 0}, actor.BodyTypeDynamic, &actor.Sphere{Radius: 0.5}, bouncy)
	b, _ := addBody(t, w, mgl64.Vec3{1, 0, 0}, actor.BodyTypeDynamic, &actor.Sphere{Radius: 0.5}, bouncy)
	a.Velocity = mgl64.Vec3{1, 0, 0}
	b.Velocity = mgl64.Vec3{-1, 0, 0}

	energy := a.KineticEnergy() + b.KineticEnergy()
	for i := 0; i < 60; i++ {
		w.Tick(testDt)
	}

	assert.InDelta(t, -1, a.Velocity.X(), 1e-6)
	assert.InDelta(t, 1, b.Velocity.X(), 1e-6)
	assert.InDelta(t, energy, a.KineticEnergy()+b.KineticEnergy(), 1e-6*energy)

	// the spheres never interpenetrate
	assert.Greater(t, b.Transform.Position.X()-a.Transform.Position.X(), 1.0-1e-9)
}

func TestWorld_Islands(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 4
	cfg.BroadPhase = BroadPhaseGrid
	w := newTestWorld(t, cfg)

	addGround(t, w, actor.DefaultMaterial())
	left, _ := addBody(t, w, mgl64.Vec3{-3, 1, 0}, actor.BodyTypeDynamic, unitBox(), actor.DefaultMaterial())
	right, _ := addBody(t, w, mgl64.Vec3{3, 1, 0}, actor.BodyTypeDynamic, unitBox(), actor.DefaultMaterial())
	addBody(t, w, mgl64.Vec3{3, 2, 0}, actor.BodyTypeDynamic, unitBox(), actor.DefaultMaterial())
	// floating far away: no constraint, no island
	addBody(t, w, mgl64.Vec3{0, 20, 0}, actor.BodyTypeDynamic, unitBox(), actor.DefaultMaterial())

	w.Tick(testDt)

	// the static ground does not join the two piles
	islands := w.Islands()
	require.Len(t, islands, 2)
	sizes := []int{len(islands[0].Bodies), len(islands[1].Bodies)}
	assert.ElementsMatch(t, []int{1, 2}, sizes)

	joint := constraint.NewBallSocket(left, right, mgl64.Vec3{0, 1, 0})
	require.NoError(t, w.AddConstraint(joint))
	require.Len(t, w.Islands(), 1)
	assert.Len(t, w.Islands()[0].Bodies, 3)

	// the incremental components agree with a full recount
	snapshot := w.ConstraintGraph()
	components := 0
	for _, component := range topo.ConnectedComponents(snapshot) {
		if len(component) > 1 {
			components++
		}
	}
	assert.Equal(t, len(w.Islands()), components)

	require.NoError(t, w.RemoveConstraint(joint))
	assert.Len(t, w.Islands(), 2)
}

func TestWorld_ContactEvents(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())

	var events []Event
	w.Events.Subscribe(CONTACT_BEGIN, func(event Event) { events = append(events, event) })
	w.Events.Subscribe(CONTACT_END, func(event Event) { events = append(events, event) })

	ground := addGround(t, w, actor.DefaultMaterial())
	ball, h := addBody(t, w, mgl64.Vec3{0, 1.5, 0}, actor.BodyTypeDynamic, &actor.Sphere{Radius: 0.5}, actor.DefaultMaterial())

	for i := 0; i < 120; i++ {
		w.Tick(testDt)
	}

	require.Len(t, events, 1)
	begin, ok := events[0].(ContactBeginEvent)
	require.True(t, ok)
	assert.ElementsMatch(t, []*actor.RigidBody{ground, ball}, []*actor.RigidBody{begin.BodyA, begin.BodyB})

	require.NoError(t, w.RemoveBody(h))
	assert.Empty(t, w.Contacts())
	assert.Empty(t, w.Islands())

	// events are delivered when the next tick ends
	assert.Len(t, events, 1)
	w.Tick(testDt)
	require.Len(t, events, 2)
	assert.Equal(t, CONTACT_END, events[1].Type())
}

func TestWorld_GeometryMassProperties(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())

	body, h := addBody(t, w, mgl64.Vec3{}, actor.BodyTypeDynamic, unitBox(), actor.Material{Density: 2})
	assert.InDelta(t, 2, body.Mass, 1e-12)
	assert.InDelta(t, 0.5, body.InverseMass, 1e-12)

	second := actor.NewGeometry(unitBox(), actor.Material{Density: 2})
	second.Local.Position = mgl64.Vec3{1, 0, 0}
	gh, err := w.AddGeometry(h, second)
	require.NoError(t, err)
	assert.InDelta(t, 4, body.Mass, 1e-12)
	assert.Len(t, body.Geometries, 2)

	// the origin moved to the centre of mass, the boxes did not move
	assert.InDelta(t, 0.5, body.Transform.Position.X(), 1e-12)
	assert.InDelta(t, 1, second.World().Position.X(), 1e-12)
	// two boxes of mass 2 at ±0.5: 2·(2/6) on X, 2·(2/6 + 2·0.25) on Y and Z
	assert.InDelta(t, 2.0/3, body.InertiaLocal.At(0, 0), 1e-12)
	assert.InDelta(t, 5.0/3, body.InertiaLocal.At(1, 1), 1e-12)

	require.NoError(t, w.RemoveGeometry(gh))
	assert.InDelta(t, 2, body.Mass, 1e-12)
	assert.Len(t, body.Geometries, 1)
	assert.InDelta(t, 0, body.Transform.Position.X(), 1e-12)

	ground := addGround(t, w, actor.DefaultMaterial())
	assert.Equal(t, 0.0, ground.InverseMass)
}

func TestWorld_OffsetGeometrySpinsAboutItsCenter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = mgl64.Vec3{}
	w := newTestWorld(t, cfg)

	body := actor.NewRigidBody(actor.NewTransform(), actor.BodyTypeDynamic)
	h := w.AddBody(body)
	g := actor.NewGeometry(&actor.Sphere{Radius: 0.5}, actor.DefaultMaterial())
	g.Local.Position = mgl64.Vec3{2, 0, 0}
	_, err := w.AddGeometry(h, g)
	require.NoError(t, err)
	body.AngularVelocity = mgl64.Vec3{0, 3, 0}

	for i := 0; i < 60; i++ {
		w.Tick(testDt)
	}

	assert.Less(t, g.World().Position.Sub(mgl64.Vec3{2, 0, 0}).Len(), 1e-9, "moved to %v", g.World().Position)
	assert.Less(t, body.Velocity.Len(), 1e-12)
}

func TestWorld_Errors(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	body, h := addBody(t, w, mgl64.Vec3{}, actor.BodyTypeDynamic, unitBox(), actor.DefaultMaterial())
	stranger := actor.NewRigidBody(actor.NewTransform(), actor.BodyTypeDynamic)

	require.NoError(t, w.RemoveBody(h))

	err := w.RemoveBody(h)
	assert.True(t, errors.Is(err, ErrUnknownBody), "got %v", err)

	_, err = w.AddGeometry(h, actor.NewGeometry(unitBox(), actor.DefaultMaterial()))
	assert.True(t, errors.Is(err, ErrUnknownBody), "got %v", err)

	err = w.AddConstraint(constraint.NewBallSocket(body, stranger, mgl64.Vec3{}))
	assert.True(t, errors.Is(err, ErrUnknownBody), "got %v", err)

	err = w.RemoveConstraint(constraint.NewBallSocket(body, stranger, mgl64.Vec3{}))
	assert.True(t, errors.Is(err, ErrUnknownConstraint), "got %v", err)

	err = w.RemoveGeometry(arena.Handle{})
	assert.True(t, errors.Is(err, ErrUnknownGeometry), "got %v", err)
}

func TestWorld_BodyByID(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	body, h := addBody(t, w, mgl64.Vec3{}, actor.BodyTypeDynamic, unitBox(), actor.DefaultMaterial())

	found, fh, ok := w.BodyByID(body.ID)
	require.True(t, ok)
	assert.Same(t, body, found)
	assert.Equal(t, h, fh)

	_, _, ok = w.BodyByID(actor.NewRigidBody(actor.NewTransform(), actor.BodyTypeStatic).ID)
	assert.False(t, ok)
}

func TestWorld_Logging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	w, err := NewWorld(DefaultConfig(), WithLogger(zap.New(core)))
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("world created").Len())

	body, _ := addBody(t, w, mgl64.Vec3{}, actor.BodyTypeDynamic, unitBox(), actor.DefaultMaterial())
	w.Tick(testDt)
	assert.Equal(t, 1, logs.FilterMessage("tick").Len())

	body.Velocity = mgl64.Vec3{math.NaN(), 0, 0}
	w.Tick(testDt)
	warnings := logs.FilterMessage("non-finite velocity reset").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zap.WarnLevel, warnings[0].Level)
	assert.Equal(t, mgl64.Vec3{}, body.Velocity)
}

func TestNewWorld_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0

	_, err := NewWorld(cfg)
	assert.Error(t, err)
}

func TestTask_VisitsEveryItem(t *testing.T) {
	for _, workers := range []int{1, 3, 8, 64} {
		data := make([]*int, 50)
		for i := range data {
			data[i] = new(int)
		}

		task(workers, data, func(v *int) { *v++ })

		for i, v := range data {
			assert.Equal(t, 1, *v, "item %d with %d workers", i, workers)
		}
	}
}
