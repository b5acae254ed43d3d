package kbox2d_test

import (
	"math"
	"strings"
	"testing"

	"github.com/ByteArena/kbox2d"
)

func staticAt(world *kbox2d.World, p kbox2d.Vec2) *kbox2d.Body {
	bd := kbox2d.MakeBodyDef()
	bd.Position = p
	return world.CreateBody(&bd)
}

func mustPanic(t *testing.T, contains string, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("no panic, want %q", contains)
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, contains) {
			t.Fatalf("panic %v, want %q", r, contains)
		}
	}()
	f()
}

func TestDistanceJointKeepsLength(t *testing.T) {
	world, _ := quietWorld(v(0, -10))
	anchor := staticAt(world, v(0, 10))
	ball := newDynamic(t, world, v(3.0, 10.0), circleDef(t, 0.25, 1.0))

	jd := kbox2d.MakeDistanceJointDef()
	jd.Initialize(anchor, ball, anchor.Position(), ball.Position())
	j := world.CreateJoint(&jd).(*kbox2d.DistanceJointImpl)

	if math.Abs(j.Length()-3.0) > 1e-12 {
		t.Fatalf("initial length %v", j.Length())
	}

	lowest := ball.Position().Y
	for i := 0; i < 120; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
		if d := kbox2d.Vec2Distance(ball.Position(), anchor.Position()); math.Abs(d-3.0) > 0.05 {
			t.Fatalf("step %d: length %v", i, d)
		}
		lowest = math.Min(lowest, ball.Position().Y)
	}

	// It swung through the bottom of the arc.
	if lowest > 7.1 {
		t.Fatalf("ball never swung down: lowest y %v", lowest)
	}
}

func TestRevoluteJointPendulum(t *testing.T) {
	world, _ := quietWorld(v(0, -10))
	pivot := staticAt(world, v(0, 5))
	bob := newDynamic(t, world, v(2.0, 5.0), boxDef(t, 0.25, 0.25, 1.0))

	jd := kbox2d.MakeRevoluteJointDef()
	jd.Initialize(pivot, bob, pivot.Position())
	j := world.CreateJoint(&jd).(*kbox2d.RevoluteJointImpl)

	minAngle := 0.0
	for i := 0; i < 120; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
		if d := kbox2d.Vec2Distance(j.AnchorA(), j.AnchorB()); d > 0.01 {
			t.Fatalf("step %d: anchors %v apart", i, d)
		}
		minAngle = math.Min(minAngle, j.JointAngle())
	}

	if minAngle > -1.4 {
		t.Fatalf("free pendulum reached only %v rad", minAngle)
	}
}

func TestRevoluteJointLimit(t *testing.T) {
	world, _ := quietWorld(v(0, -10))
	pivot := staticAt(world, v(0, 5))
	bob := newDynamic(t, world, v(2.0, 5.0), boxDef(t, 0.25, 0.25, 1.0))

	jd := kbox2d.MakeRevoluteJointDef()
	jd.Initialize(pivot, bob, pivot.Position())
	jd.EnableLimit = true
	jd.LowerAngle = -0.25
	jd.UpperAngle = 0.25
	j := world.CreateJoint(&jd).(*kbox2d.RevoluteJointImpl)

	for i := 0; i < 120; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
		if a := j.JointAngle(); a < -0.3 || a > 0.3 {
			t.Fatalf("step %d: angle %v outside the limit", i, a)
		}
	}

	if !j.IsLimitEnabled() || j.LowerLimit() != -0.25 || j.UpperLimit() != 0.25 {
		t.Fatalf("limit settings lost")
	}
	if a := j.JointAngle(); math.Abs(a+0.25) > 0.05 {
		t.Fatalf("pendulum should rest on the lower stop, angle %v", a)
	}
}

func TestRevoluteJointMotor(t *testing.T) {
	world, _ := quietWorld(v(0, 0))
	axle := staticAt(world, v(0, 5))
	wheel := newDynamic(t, world, v(0, 5), circleDef(t, 1.0, 1.0))

	jd := kbox2d.MakeRevoluteJointDef()
	jd.Initialize(axle, wheel, axle.Position())
	jd.EnableMotor = true
	jd.MotorSpeed = 2.0
	jd.MaxMotorTorque = 1000.0
	j := world.CreateJoint(&jd).(*kbox2d.RevoluteJointImpl)

	for i := 0; i < 30; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
	}

	if s := j.JointSpeed(); math.Abs(s-2.0) > 1e-3 {
		t.Fatalf("motor speed %v, want 2", s)
	}
	if p := wheel.Position(); kbox2d.Vec2Distance(p, v(0, 5)) > 1e-6 {
		t.Fatalf("wheel drifted to %v", p)
	}
	if torque := math.Abs(j.MotorTorque(1.0 / timeStep)); torque > 1000.0+1e-9 {
		t.Fatalf("motor torque %v above its maximum", torque)
	}

	// A weak motor cannot reach speed at once.
	j.SetMotorSpeed(-2.0)
	j.SetMaxMotorTorque(0.1)
	world.Step(timeStep, velocityIterations, positionIterations)
	if s := j.JointSpeed(); s < 1.9 {
		t.Fatalf("weak motor reversed the wheel to %v in one step", s)
	}
}

func TestWeldJointHoldsPose(t *testing.T) {
	world, _ := quietWorld(v(0, -10))
	wall := staticAt(world, v(0, 5))
	arm := newDynamic(t, world, v(1.0, 5.0), boxDef(t, 1.0, 0.1, 1.0))

	jd := kbox2d.MakeWeldJointDef()
	jd.Initialize(wall, arm, v(0, 5))
	world.CreateJoint(&jd)

	for i := 0; i < 120; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
	}

	if p := arm.Position(); kbox2d.Vec2Distance(p, v(1.0, 5.0)) > 0.05 {
		t.Fatalf("welded arm moved to %v", p)
	}
	if a := arm.Angle(); math.Abs(a) > 0.05 {
		t.Fatalf("welded arm rotated to %v", a)
	}
}

func TestMouseJointPullsToTarget(t *testing.T) {
	world, _ := quietWorld(v(0, 0))
	ground := staticAt(world, v(0, 0))
	ball := newDynamic(t, world, v(0, 0), circleDef(t, 0.5, 1.0))

	md := kbox2d.MakeMouseJointDef()
	md.BodyA = ground
	md.BodyB = ball
	md.Target = ball.Position()
	md.MaxForce = 1000.0 * ball.Mass()
	mouse := world.CreateJoint(&md).(*kbox2d.MouseJointImpl)

	ball.SetAwake(false)
	mouse.SetTarget(v(5.0, 0.0))
	if !ball.IsAwake() {
		t.Fatalf("moving the target did not wake the body")
	}

	for i := 0; i < 180; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
	}

	if p := ball.Position(); kbox2d.Vec2Distance(p, v(5.0, 0.0)) > 0.05 {
		t.Fatalf("ball at %v, want near the target", p)
	}

	world.DestroyJoint(mouse)
	if world.JointCount() != 0 || ball.JointList() != nil || ground.JointList() != nil {
		t.Fatalf("mouse joint not unlinked")
	}
}

func TestFrictionJointSlowsBody(t *testing.T) {
	world, _ := quietWorld(v(0, 0))
	ground := staticAt(world, v(0, 0))
	puck := newDynamic(t, world, v(0, 0), circleDef(t, 0.5, 1.0))
	puck.SetLinearVelocity(v(5.0, 0.0))

	fd := kbox2d.MakeFrictionJointDef()
	fd.Initialize(ground, puck, puck.Position())
	fd.MaxForce = 10.0 * puck.Mass()
	fd.MaxTorque = 1.0
	world.CreateJoint(&fd)

	for i := 0; i < 60; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
	}

	if s := puck.LinearVelocity().Length(); s > 1e-3 {
		t.Fatalf("puck still moving at %v", s)
	}
	// v^2 / 2a = 1.25
	if x := puck.Position().X; x < 1.1 || x > 1.4 {
		t.Fatalf("puck stopped at x = %v", x)
	}
}

func TestJointCollideConnected(t *testing.T) {
	contacts := func(collide bool) int {
		world, _ := quietWorld(v(0, 0))
		a := newDynamic(t, world, v(0, 0), boxDef(t, 0.5, 0.5, 1.0))
		b := newDynamic(t, world, v(0.5, 0), boxDef(t, 0.5, 0.5, 1.0))

		jd := kbox2d.MakeRevoluteJointDef()
		jd.Initialize(a, b, v(0.25, 0))
		jd.CollideConnected = collide
		world.CreateJoint(&jd)

		world.Step(timeStep, velocityIterations, positionIterations)
		return world.ContactCount()
	}

	if n := contacts(false); n != 0 {
		t.Fatalf("connected bodies made %d contacts", n)
	}
	if n := contacts(true); n != 1 {
		t.Fatalf("collide-connected bodies made %d contacts, want 1", n)
	}
}

func TestJointOnSingleBodyPanics(t *testing.T) {
	world, _ := quietWorld(v(0, 0))
	body := newDynamic(t, world, v(0, 0), circleDef(t, 0.5, 1.0))

	jd := kbox2d.MakeWeldJointDef()
	jd.Initialize(body, body, v(0, 0))
	mustPanic(t, "joint between a body and itself", func() {
		world.CreateJoint(&jd)
	})
}
