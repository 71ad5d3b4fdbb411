package main

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	jinngine "github.com/sheldonrobinson/jinngine-sub001"
	"github.com/sheldonrobinson/jinngine-sub001/actor"
	"github.com/sheldonrobinson/jinngine-sub001/arena"
	"github.com/sheldonrobinson/jinngine-sub001/constraint"
	"go.uber.org/zap"
)

// SetupScene creates a ground, a tilted cube falling on it with restitution,
// a small stack and a pendulum hinged on a static post
func SetupScene(world *jinngine.World) (*actor.RigidBody, *actor.RigidBody, error) {
	ground := actor.NewRigidBody(actor.NewTransform(), actor.BodyTypeStatic)
	groundHandle := world.AddBody(ground)
	if _, err := world.AddGeometry(groundHandle, actor.NewGeometry(&actor.Box{HalfExtents: mgl64.Vec3{20, 0.5, 20}}, actor.DefaultMaterial())); err != nil {
		return nil, nil, err
	}

	cube := actor.NewRigidBody(actor.Transform{
		Position: mgl64.Vec3{-5.0, 5.0, -5.0},
		Rotation: mgl64.QuatRotate(mgl64.DegToRad(70), mgl64.Vec3{0, 0, 1}),
	}, actor.BodyTypeDynamic)
	material := actor.DefaultMaterial()
	material.Restitution = 0.8
	if _, err := addShape(world, cube, &actor.Box{HalfExtents: mgl64.Vec3{1.5, 1.5, 1.5}}, material); err != nil {
		return nil, nil, err
	}

	for i := 0; i < 4; i++ {
		box := actor.NewRigidBody(actor.Transform{
			Position: mgl64.Vec3{4, 1 + float64(i)*1.01, 0},
			Rotation: mgl64.QuatIdent(),
		}, actor.BodyTypeDynamic)
		if _, err := addShape(world, box, &actor.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}, actor.DefaultMaterial()); err != nil {
			return nil, nil, err
		}
	}

	post := actor.NewRigidBody(actor.Transform{Position: mgl64.Vec3{0, 6, 6}, Rotation: mgl64.QuatIdent()}, actor.BodyTypeStatic)
	world.AddBody(post)
	bob := actor.NewRigidBody(actor.Transform{Position: mgl64.Vec3{2, 6, 6}, Rotation: mgl64.QuatIdent()}, actor.BodyTypeDynamic)
	if _, err := addShape(world, bob, &actor.Sphere{Radius: 0.4}, actor.DefaultMaterial()); err != nil {
		return nil, nil, err
	}
	if err := world.AddConstraint(constraint.NewHinge(post, bob, mgl64.Vec3{0, 6, 6}, mgl64.Vec3{0, 0, 1})); err != nil {
		return nil, nil, err
	}

	return cube, bob, nil
}

func addShape(world *jinngine.World, body *actor.RigidBody, shape actor.Shape, material actor.Material) (arena.Handle, error) {
	h := world.AddBody(body)
	return world.AddGeometry(h, actor.NewGeometry(shape, material))
}

func run(logger *zap.Logger) error {
	cfg := jinngine.DefaultConfig()
	if len(os.Args) > 1 {
		loaded, err := jinngine.LoadConfig(os.Args[1])
		if err != nil {
			return err
		}
		cfg = loaded
	}

	world, err := jinngine.NewWorld(cfg, jinngine.WithLogger(logger))
	if err != nil {
		return err
	}

	world.Events.Subscribe(jinngine.CONTACT_BEGIN, func(event jinngine.Event) {
		e := event.(jinngine.ContactBeginEvent)
		logger.Sugar().Infow("contact begin", "bodyA", e.BodyA.ID, "bodyB", e.BodyB.ID)
	})

	cube, bob, err := SetupScene(world)
	if err != nil {
		return err
	}

	const dt float64 = 1.0 / 60.0
	const maxSteps int = 300

	for step := 0; step < maxSteps; step++ {
		world.Tick(dt)

		if step%30 == 0 {
			fmt.Printf("step %3d  cube %v  bob %v  islands %d  contacts %d\n",
				step, cube.Transform.Position, bob.Transform.Position, len(world.Islands()), len(world.Contacts()))
		}
	}

	return nil
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("simulation failed", zap.Error(err))
		os.Exit(1)
	}
}
