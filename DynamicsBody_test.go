package kbox2d_test

import (
	"math"
	"testing"

	"github.com/ByteArena/kbox2d"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBodyImpulses(t *testing.T) {
	world, _ := quietWorld(v(0, 0))
	box := newDynamic(t, world, v(0, 0), boxDef(t, 0.5, 0.5, 1.0))

	// m = 1, I = m (w^2 + h^2) / 12 = 1/6
	if !near(box.Mass(), 1.0) || !near(box.Inertia(), 1.0/6.0) {
		t.Fatalf("mass %v inertia %v", box.Mass(), box.Inertia())
	}

	box.ApplyLinearImpulseToCenter(v(2.0, 0.0), true)
	box.ApplyLinearImpulse(v(0.0, 1.0), v(0.5, 0.0), true)
	box.ApplyAngularImpulse(1.0/6.0, true)

	if lv := box.LinearVelocity(); !near(lv.X, 2.0) || !near(lv.Y, 1.0) {
		t.Fatalf("linear velocity %v", lv)
	}
	if w := box.AngularVelocity(); !near(w, 4.0) {
		t.Fatalf("angular velocity %v, want 4", w)
	}

	// A sleeping body ignores impulses unless asked to wake.
	box.SetAwake(false)
	if box.LinearVelocity() != v(0, 0) {
		t.Fatalf("sleeping body keeps velocity %v", box.LinearVelocity())
	}
	box.ApplyLinearImpulseToCenter(v(1.0, 0.0), false)
	box.ApplyTorque(10.0, false)
	if box.IsAwake() || box.LinearVelocity() != v(0, 0) {
		t.Fatalf("impulse without wake changed a sleeping body: %v", box)
	}

	box.ApplyForceToCenter(v(60.0, 0.0), true)
	world.Step(timeStep, velocityIterations, positionIterations)
	if lv := box.LinearVelocity(); !near(lv.X, 1.0) {
		t.Fatalf("force for one step gave %v", lv)
	}

	// Forces were cleared after the step.
	world.Step(timeStep, velocityIterations, positionIterations)
	if lv := box.LinearVelocity(); !near(lv.X, 1.0) {
		t.Fatalf("force survived the step: %v", lv)
	}
}

func TestBodyMassData(t *testing.T) {
	world, _ := quietWorld(v(0, 0))
	body := newDynamic(t, world, v(0, 0), boxDef(t, 1.0, 0.5, 1.0))

	extra, _ := kbox2d.NewCircleShape(v(2.0, 0.0), 0.5)
	fixture, err := body.CreateFixture(extra, 4.0/kbox2d.Pi)
	if err != nil {
		t.Fatal(err)
	}

	// 2 for the box plus 1 for the circle, balanced at x = 2/3.
	if !near(body.Mass(), 3.0) || !near(body.LocalCenter().X, 2.0/3.0) {
		t.Fatalf("mass %v center %v", body.Mass(), body.LocalCenter())
	}
	if !near(body.WorldCenter().X, 2.0/3.0) || body.Position() != v(0, 0) {
		t.Fatalf("world center %v position %v", body.WorldCenter(), body.Position())
	}

	body.DestroyFixture(fixture)
	if !near(body.Mass(), 2.0) || body.LocalCenter().Length() > 1e-12 {
		t.Fatalf("after DestroyFixture: mass %v center %v", body.Mass(), body.LocalCenter())
	}
	if world.ProxyCount() != 1 {
		t.Fatalf("proxy count %d", world.ProxyCount())
	}

	body.SetMassData(kbox2d.MassData{Mass: 10.0, I: 20.0})
	if !near(body.Mass(), 10.0) || !near(body.Inertia(), 20.0) {
		t.Fatalf("override mass %v inertia %v", body.Mass(), body.Inertia())
	}
	body.ResetMassData()
	if !near(body.Mass(), 2.0) {
		t.Fatalf("reset mass %v", body.Mass())
	}

	body.SetFixedRotation(true)
	body.ApplyAngularImpulse(5.0, true)
	if body.AngularVelocity() != 0.0 || !body.IsFixedRotation() {
		t.Fatalf("fixed rotation body spins at %v", body.AngularVelocity())
	}
}

func TestBodySetTypeAndActive(t *testing.T) {
	world, _ := quietWorld(v(0, -10))
	newGround(t, world)
	ball := newDynamic(t, world, v(0, 3.0), circleDef(t, 0.5, 1.0))

	for i := 0; i < 30; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
	}

	ball.SetType(kbox2d.StaticBody)
	if ball.LinearVelocity() != v(0, 0) || ball.Mass() != 0.0 || ball.IsAwake() {
		t.Fatalf("static conversion kept motion: %v", ball)
	}
	frozen := ball.Position()
	for i := 0; i < 30; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
	}
	if ball.Position() != frozen {
		t.Fatalf("static ball moved from %v to %v", frozen, ball.Position())
	}

	ball.SetType(kbox2d.DynamicBody)
	ball.SetGravityScale(0.0)
	ball.SetLinearVelocity(v(0, 0))
	if !ball.IsAwake() || !near(ball.Mass(), 0.25*kbox2d.Pi) {
		t.Fatalf("dynamic conversion: %v mass %v", ball, ball.Mass())
	}

	proxies := world.ProxyCount()
	ball.SetActive(false)
	if ball.IsActive() || world.ProxyCount() != proxies-1 || ball.ContactList() != nil {
		t.Fatalf("inactive body still in the broad phase")
	}
	world.Step(timeStep, velocityIterations, positionIterations)
	if ball.Position() != frozen {
		t.Fatalf("inactive ball moved to %v", ball.Position())
	}

	ball.SetActive(true)
	if world.ProxyCount() != proxies {
		t.Fatalf("proxy count %d after reactivation, want %d", world.ProxyCount(), proxies)
	}
}

func TestSetTransformMovesProxies(t *testing.T) {
	world, _ := quietWorld(v(0, 0))
	box := newDynamic(t, world, v(0, 0), boxDef(t, 0.5, 0.5, 1.0))

	box.SetTransform(v(50.0, 50.0), kbox2d.Pi/2.0)
	if box.Position() != v(50.0, 50.0) || !near(box.Angle(), kbox2d.Pi/2.0) {
		t.Fatalf("transform %v angle %v", box.Position(), box.Angle())
	}

	var found *kbox2d.Body
	world.QueryAABB(func(f *kbox2d.Fixture) bool {
		found = f.Body()
		return false
	}, kbox2d.MakeAABB(v(49.9, 49.9), v(50.1, 50.1)))
	if found != box {
		t.Fatalf("proxy not moved with the body")
	}

	if p := box.WorldPoint(v(0.5, 0.0)); kbox2d.Vec2Distance(p, v(50.0, 50.5)) > 1e-12 {
		t.Fatalf("world point %v", p)
	}
	if p := box.LocalPoint(v(50.0, 50.5)); kbox2d.Vec2Distance(p, v(0.5, 0.0)) > 1e-12 {
		t.Fatalf("local point %v", p)
	}
}
