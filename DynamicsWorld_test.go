package kbox2d_test

import (
	"bytes"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/ByteArena/kbox2d"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	timeStep           = 1.0 / 60.0
	velocityIterations = 8
	positionIterations = 3
)

func newGround(t *testing.T, world *kbox2d.World) *kbox2d.Body {
	t.Helper()
	bd := kbox2d.MakeBodyDef()
	bd.Position = v(0.0, -0.5)
	ground := world.CreateBody(&bd)

	box, err := kbox2d.NewBoxShape(40.0, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ground.CreateFixture(box, 0.0); err != nil {
		t.Fatal(err)
	}
	return ground
}

func newDynamic(t *testing.T, world *kbox2d.World, position kbox2d.Vec2, fd kbox2d.FixtureDef) *kbox2d.Body {
	t.Helper()
	bd := kbox2d.MakeBodyDef()
	bd.Type = kbox2d.DynamicBody
	bd.Position = position
	body := world.CreateBody(&bd)
	if _, err := body.CreateFixtureFromDef(&fd); err != nil {
		t.Fatal(err)
	}
	return body
}

func boxDef(t *testing.T, hx, hy, density float64) kbox2d.FixtureDef {
	t.Helper()
	box, err := kbox2d.NewBoxShape(hx, hy)
	if err != nil {
		t.Fatal(err)
	}
	fd := kbox2d.MakeFixtureDef()
	fd.Shape = box
	fd.Density = density
	return fd
}

func circleDef(t *testing.T, radius, density float64) kbox2d.FixtureDef {
	t.Helper()
	circle, err := kbox2d.NewCircleShape(v(0, 0), radius)
	if err != nil {
		t.Fatal(err)
	}
	fd := kbox2d.MakeFixtureDef()
	fd.Shape = circle
	fd.Density = density
	return fd
}

func quietWorld(gravity kbox2d.Vec2) (*kbox2d.World, *bytes.Buffer) {
	var buf bytes.Buffer
	world := kbox2d.NewWorld(gravity)
	world.SetLogger(log.New(&buf, "", 0))
	return world, &buf
}

func TestRestingBoxFallsAsleep(t *testing.T) {
	world, _ := quietWorld(v(0, -10))
	newGround(t, world)
	box := newDynamic(t, world, v(0, 2.0), boxDef(t, 0.5, 0.5, 1.0))

	for i := 0; i < 300; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
		if d := world.Pool().Depth(); d != 0 {
			t.Fatalf("step %d: pool depth %d", i, d)
		}
	}

	p := box.Position()
	if math.Abs(p.Y-0.5) > 0.05 || math.Abs(p.X) > 0.01 {
		t.Fatalf("resting box at %v", p)
	}
	if math.Abs(box.Angle()) > 0.01 {
		t.Fatalf("resting box rotated to %v", box.Angle())
	}
	if box.IsAwake() {
		t.Fatalf("box still awake after 5s at rest: %v", box)
	}
	if world.ContactCount() != 1 {
		t.Fatalf("contact count %d", world.ContactCount())
	}
}

func TestRestitutionBounceHeight(t *testing.T) {
	drop := func(restitution float64) float64 {
		world, _ := quietWorld(v(0, -10))
		newGround(t, world)

		fd := circleDef(t, 0.5, 1.0)
		fd.Restitution = restitution
		ball := newDynamic(t, world, v(0, 5.0), fd)

		bounced := false
		peak := 0.0
		for i := 0; i < 240; i++ {
			world.Step(timeStep, velocityIterations, positionIterations)
			vy := ball.LinearVelocity().Y
			if !bounced && vy > 0.0 {
				bounced = true
			}
			if bounced && ball.Position().Y > peak {
				peak = ball.Position().Y
			}
		}
		return peak - 0.5
	}

	const height = 4.5

	if h := drop(1.0); h < 0.85*height || h > 1.05*height {
		t.Fatalf("elastic bounce reached %v of %v", h, height)
	}
	if h := drop(0.5); h < 0.15*height || h > 0.35*height {
		t.Fatalf("half restitution bounce reached %v, want about %v", h, 0.25*height)
	}
	if h := drop(0.0); h > 0.1 {
		t.Fatalf("inelastic ball bounced to %v", h)
	}
}

func TestContinuousPhysicsPreventsTunneling(t *testing.T) {
	run := func(t *testing.T, wallShape kbox2d.Shape, continuous bool) float64 {
		world, _ := quietWorld(v(0, 0))
		world.SetContinuousPhysics(continuous)

		bd := kbox2d.MakeBodyDef()
		wall := world.CreateBody(&bd)
		if _, err := wall.CreateFixture(wallShape, 0.0); err != nil {
			t.Fatal(err)
		}

		ball := newDynamic(t, world, v(-5.0, 0.0), circleDef(t, 0.1, 1.0))
		ball.SetLinearVelocity(v(500.0, 0.0))

		for i := 0; i < 30; i++ {
			world.Step(timeStep, velocityIterations, positionIterations)
		}
		return ball.Position().X
	}

	box, _ := kbox2d.NewBoxShape(0.05, 5.0)
	edge, err := kbox2d.NewEdgeShape(v(0.0, -5.0), v(0.0, 5.0))
	if err != nil {
		t.Fatal(err)
	}
	walls := map[string]kbox2d.Shape{"box": box, "edge": edge}

	for name, wallShape := range walls {
		t.Run(name, func(t *testing.T) {
			if x := run(t, wallShape, true); x > 0.0 {
				t.Fatalf("with continuous physics the ball crossed the wall: x = %v", x)
			}
			if x := run(t, wallShape, false); x < 0.0 {
				t.Fatalf("without continuous physics the ball should tunnel: x = %v", x)
			}
		})
	}
}

type bodyState struct {
	Position kbox2d.Vec2
	Angle    float64
	Velocity kbox2d.Vec2
	Spin     float64
	Awake    bool
}

func pyramidTrace(t *testing.T) string {
	world, _ := quietWorld(v(0, -10))
	newGround(t, world)

	var bodies []*kbox2d.Body
	for row := 0; row < 6; row++ {
		for i := 0; i < 6-row; i++ {
			x := -2.75 + float64(row)*0.55 + float64(i)*1.1
			bodies = append(bodies, newDynamic(t, world, v(x, 0.5+float64(row)), boxDef(t, 0.5, 0.5, 1.0)))
		}
	}
	bodies = append(bodies, newDynamic(t, world, v(-8.0, 3.0), circleDef(t, 0.4, 3.0)))
	bodies[len(bodies)-1].SetLinearVelocity(v(15.0, 0.0))

	config := spew.ConfigState{Indent: " ", SortKeys: true, DisablePointerAddresses: true}

	var out strings.Builder
	for i := 0; i < 120; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
		if i%10 != 0 {
			continue
		}

		states := make([]bodyState, len(bodies))
		for k, b := range bodies {
			states[k] = bodyState{b.Position(), b.Angle(), b.LinearVelocity(), b.AngularVelocity(), b.IsAwake()}
		}
		out.WriteString(config.Sdump(i, states))
	}
	return out.String()
}

func TestStepIsDeterministic(t *testing.T) {
	first := pyramidTrace(t)
	second := pyramidTrace(t)

	if first != second {
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(first),
			B:        difflib.SplitLines(second),
			FromFile: "First",
			ToFile:   "Second",
			Context:  1,
		}
		text, _ := difflib.GetUnifiedDiffString(diff)
		t.Fatalf("two runs of the same scene differ:\n%s", text)
	}
}

func TestStepIgnoresInvalidTimeStep(t *testing.T) {
	world, _ := quietWorld(v(0, -10))
	ball := newDynamic(t, world, v(0, 5.0), circleDef(t, 0.5, 1.0))

	for _, dt := range []float64{0.0, -timeStep, math.NaN(), math.Inf(1)} {
		world.Step(dt, velocityIterations, positionIterations)
	}

	if ball.Position() != v(0, 5.0) || ball.LinearVelocity() != v(0, 0) {
		t.Fatalf("invalid dt moved the ball: %v", ball)
	}
}

func TestNonFiniteStateIsRestored(t *testing.T) {
	world, logs := quietWorld(v(0, 0))
	ball := newDynamic(t, world, v(1.0, 2.0), circleDef(t, 0.5, 1.0))
	ball.SetLinearVelocity(v(1.0, 0.0))

	ball.ApplyForceToCenter(v(math.Inf(1), 0.0), true)
	world.Step(timeStep, velocityIterations, positionIterations)

	if got := world.Profile().RestoredBodies; got != 1 {
		t.Fatalf("restored %d bodies, want 1", got)
	}
	if ball.Position() != v(1.0, 2.0) || ball.LinearVelocity() != v(1.0, 0.0) {
		t.Fatalf("ball not rewound: %v", ball)
	}
	if !strings.Contains(logs.String(), "restored body") {
		t.Fatalf("restore not logged:\n%s", logs.String())
	}

	// The next step is clean.
	world.Step(timeStep, velocityIterations, positionIterations)
	if world.Profile().RestoredBodies != 0 || math.Abs(ball.Position().X-(1.0+timeStep)) > 1e-9 {
		t.Fatalf("after recovery: %v", ball)
	}
}

func stackedBoxes(t *testing.T) (*kbox2d.World, *bytes.Buffer, *kbox2d.Body, *kbox2d.Body) {
	t.Helper()
	world, logs := quietWorld(v(0, -10))
	newGround(t, world)
	lower := newDynamic(t, world, v(0, 0.5), boxDef(t, 0.5, 0.5, 1.0))
	upper := newDynamic(t, world, v(0, 1.5), boxDef(t, 0.5, 0.5, 1.0))

	for i := 0; i < 60; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
	}
	return world, logs, lower, upper
}

func checkStackRecovers(t *testing.T, world *kbox2d.World, lower, upper *kbox2d.Body) {
	t.Helper()
	for i := 0; i < 60; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
		if n := world.Profile().RestoredBodies; n != 0 {
			t.Fatalf("step %d: %d bodies restored again", i, n)
		}
	}

	for _, b := range []*kbox2d.Body{lower, upper} {
		if !b.Position().IsValid() || !b.LinearVelocity().IsValid() || math.IsNaN(b.AngularVelocity()) {
			t.Fatalf("body left non-finite: %v", b)
		}
	}
	if y := lower.Position().Y; math.Abs(y-0.5) > 0.02 {
		t.Fatalf("lower box at y = %v", y)
	}
	if y := upper.Position().Y; math.Abs(y-1.5) > 0.03 {
		t.Fatalf("upper box at y = %v", y)
	}
}

func TestNonFiniteInputIsRejected(t *testing.T) {
	world, logs, lower, upper := stackedBoxes(t)
	before := upper.Position()

	upper.SetLinearVelocity(v(math.NaN(), 0.0))
	upper.SetAngularVelocity(math.Inf(-1))
	upper.SetTransform(v(math.NaN(), 0.0), 0.0)
	upper.SetTransform(v(0.0, 1.5), math.NaN())

	if !upper.LinearVelocity().IsValid() || math.IsInf(upper.AngularVelocity(), 0) {
		t.Fatalf("non-finite velocity accepted: %v", upper)
	}
	if upper.Position() != before {
		t.Fatalf("non-finite pose accepted: %v", upper.Position())
	}
	for _, op := range []string{"SetLinearVelocity ignored", "SetAngularVelocity ignored", "SetTransform ignored"} {
		if !strings.Contains(logs.String(), op) {
			t.Fatalf("%q not logged:\n%s", op, logs.String())
		}
	}

	checkStackRecovers(t, world, lower, upper)
}

func TestNonFiniteSolveRecovers(t *testing.T) {
	world, logs, lower, upper := stackedBoxes(t)

	upper.ApplyForceToCenter(v(math.Inf(1), 0.0), true)
	world.Step(timeStep, velocityIterations, positionIterations)

	if world.Profile().RestoredBodies == 0 {
		t.Fatalf("no body restored after an infinite force")
	}
	if !strings.Contains(logs.String(), "restored body") {
		t.Fatalf("restore not logged:\n%s", logs.String())
	}
	logged := logs.Len()

	checkStackRecovers(t, world, lower, upper)

	if logs.Len() != logged {
		t.Fatalf("warnings kept coming after recovery:\n%s", logs.String()[logged:])
	}
}

// structuralListener changes the world from inside the step.
type structuralListener struct {
	t        *testing.T
	world    *kbox2d.World
	target   *kbox2d.Body
	created  *kbox2d.Body
	begins   int
	ends     int
	shiftErr error
	handles  []kbox2d.ContactHandle
}

func (l *structuralListener) BeginContact(c *kbox2d.Contact) {
	l.begins++
	l.handles = append(l.handles, c.Handle())
	if l.world.Contact(c.Handle()) != c {
		l.t.Errorf("live contact handle does not resolve")
	}

	if l.target != nil && !l.target.IsDestroyed() {
		bodyCount := l.world.BodyCount()

		// Twice on purpose: the second request is dropped at flush.
		l.world.DestroyBody(l.target)
		l.world.DestroyBody(l.target)

		bd := kbox2d.MakeBodyDef()
		bd.Position = v(10.0, 10.0)
		l.created = l.world.CreateBody(&bd)

		if l.world.BodyCount() != bodyCount {
			l.t.Errorf("body count changed while locked")
		}
		l.target = nil
	}

	l.shiftErr = l.world.ShiftOrigin(v(1.0, 0.0))
}

func (l *structuralListener) EndContact(c *kbox2d.Contact) { l.ends++ }
func (l *structuralListener) PreSolve(c *kbox2d.Contact, oldManifold *kbox2d.Manifold) {}
func (l *structuralListener) PostSolve(c *kbox2d.Contact, impulse *kbox2d.ContactImpulse) {}

func TestDeferredOperationsDuringStep(t *testing.T) {
	world, logs := quietWorld(v(0, -10))
	newGround(t, world)
	// Touching from the first step.
	ball := newDynamic(t, world, v(0, 0.5), circleDef(t, 0.5, 1.0))

	listener := &structuralListener{t: t, world: world, target: ball}
	world.SetContactListener(listener)

	world.Step(timeStep, velocityIterations, positionIterations)

	if listener.begins == 0 {
		t.Fatalf("no contact began")
	}
	if !ball.IsDestroyed() {
		t.Fatalf("queued destroy not applied")
	}
	if listener.created == nil || listener.created.World() != world {
		t.Fatalf("queued create not applied")
	}
	if world.BodyCount() != 2 {
		t.Fatalf("body count %d, want ground plus created body", world.BodyCount())
	}
	found := false
	for b := world.BodyList(); b != nil; b = b.Next() {
		if b == listener.created {
			found = true
		}
		if b == ball {
			t.Fatalf("destroyed body still listed")
		}
	}
	if !found {
		t.Fatalf("created body not in the body list")
	}

	if !errors.Is(listener.shiftErr, kbox2d.ErrWorldLocked) {
		t.Fatalf("ShiftOrigin while locked = %v", listener.shiftErr)
	}
	if !strings.Contains(logs.String(), "deferred destroy body dropped") {
		t.Fatalf("duplicate destroy not reported:\n%s", logs.String())
	}

	// The destroyed ball's contact was recycled.
	for _, h := range listener.handles {
		if world.Contact(h) != nil {
			t.Fatalf("handle %+v still resolves after its body was destroyed", h)
		}
	}

	if world.ContactCount() != 0 {
		t.Fatalf("%d contacts left", world.ContactCount())
	}
	if err := world.ShiftOrigin(v(1.0, 0.0)); err != nil {
		t.Fatalf("ShiftOrigin outside a step: %v", err)
	}
	if p := listener.created.Position(); p != v(9.0, 10.0) {
		t.Fatalf("shifted body at %v", p)
	}
}

func TestSensorReportsWithoutCollision(t *testing.T) {
	world, _ := quietWorld(v(0, -10))
	newGround(t, world)

	bd := kbox2d.MakeBodyDef()
	bd.Position = v(0, 3.0)
	sensorBody := world.CreateBody(&bd)
	fd := boxDef(t, 2.0, 0.25, 0.0)
	fd.IsSensor = true
	if _, err := sensorBody.CreateFixtureFromDef(&fd); err != nil {
		t.Fatal(err)
	}

	ball := newDynamic(t, world, v(0, 6.0), circleDef(t, 0.25, 1.0))

	listener := &structuralListener{t: t, world: world}
	world.SetContactListener(listener)

	for i := 0; i < 120; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
	}

	// Sensor begin and end, then the ground.
	if listener.begins != 2 || listener.ends != 1 {
		t.Fatalf("begins %d ends %d", listener.begins, listener.ends)
	}
	if y := ball.Position().Y; y > 0.3 {
		t.Fatalf("ball stopped by the sensor at y = %v", y)
	}
}

func TestNegativeGroupNeverCollides(t *testing.T) {
	world, _ := quietWorld(v(0, -10))
	newGround(t, world)

	fd := boxDef(t, 0.5, 0.5, 1.0)
	fd.Filter.GroupIndex = -1

	bottom := newDynamic(t, world, v(0, 0.5), fd)
	top := newDynamic(t, world, v(0, 3.0), fd)

	for i := 0; i < 120; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
	}

	if math.Abs(top.Position().Y-bottom.Position().Y) > 0.05 {
		t.Fatalf("grouped boxes collided: %v and %v", top.Position(), bottom.Position())
	}

	// Same group, positive: they collide again after refiltering.
	for _, b := range []*kbox2d.Body{bottom, top} {
		f := b.FixtureList()
		filter := f.FilterData()
		filter.GroupIndex = 1
		f.SetFilterData(filter)
	}
	top.SetTransform(v(0, 3.0), 0.0)
	top.SetAwake(true)
	for i := 0; i < 120; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
	}
	if top.Position().Y < 1.3 {
		t.Fatalf("refiltered box fell through: %v", top.Position())
	}
}

func TestWorldQueries(t *testing.T) {
	world, _ := quietWorld(v(0, 0))
	ground := newGround(t, world)
	ball := newDynamic(t, world, v(5.0, 3.0), circleDef(t, 0.5, 1.0))
	world.Step(timeStep, velocityIterations, positionIterations)

	var hits []*kbox2d.Body
	world.QueryAABB(func(f *kbox2d.Fixture) bool {
		hits = append(hits, f.Body())
		return true
	}, kbox2d.MakeAABB(v(4.0, 2.0), v(6.0, 4.0)))
	if len(hits) != 1 || hits[0] != ball {
		t.Fatalf("query hits %v", hits)
	}

	// Closest hit along a downward ray: clip at every hit.
	var closest *kbox2d.Fixture
	var point kbox2d.Vec2
	world.RayCast(func(f *kbox2d.Fixture, p, n kbox2d.Vec2, fraction float64) float64 {
		closest = f
		point = p
		return fraction
	}, v(5.0, 10.0), v(5.0, -10.0))

	if closest == nil || closest.Body() != ball {
		t.Fatalf("ray hit %v, want the ball", closest)
	}
	if math.Abs(point.Y-3.5) > 1e-9 {
		t.Fatalf("ray hit point %v", point)
	}

	// Ignoring the ball lets the ray reach the ground.
	closest = nil
	world.RayCast(func(f *kbox2d.Fixture, p, n kbox2d.Vec2, fraction float64) float64 {
		if f.Body() == ball {
			return -1.0
		}
		closest = f
		return fraction
	}, v(5.0, 10.0), v(5.0, -10.0))
	if closest == nil || closest.Body() != ground {
		t.Fatalf("filtered ray hit %v, want the ground", closest)
	}

	// A zero length ray inside the ball reports nothing.
	world.RayCast(func(f *kbox2d.Fixture, p, n kbox2d.Vec2, fraction float64) float64 {
		t.Fatalf("zero length ray hit %v", f)
		return 0.0
	}, ball.Position(), ball.Position())
}

type goodbyes struct {
	fixtures int
	joints   int
}

func (g *goodbyes) SayGoodbyeToFixture(*kbox2d.Fixture) { g.fixtures++ }
func (g *goodbyes) SayGoodbyeToJoint(kbox2d.Joint)      { g.joints++ }

func TestDestroyBodyCascades(t *testing.T) {
	world, _ := quietWorld(v(0, -10))
	ground := newGround(t, world)
	a := newDynamic(t, world, v(0, 0.5), boxDef(t, 0.5, 0.5, 1.0))
	b := newDynamic(t, world, v(0, 3.0), boxDef(t, 0.5, 0.5, 1.0))

	jd := kbox2d.MakeRevoluteJointDef()
	jd.Initialize(ground, a, v(0, 0.5))
	world.CreateJoint(&jd)

	dd := kbox2d.MakeDistanceJointDef()
	dd.Initialize(a, b, a.Position(), b.Position())
	world.CreateJoint(&dd)

	g := &goodbyes{}
	world.SetDestructionListener(g)

	for i := 0; i < 10; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
	}
	proxies := world.ProxyCount()

	world.DestroyBody(a)

	if g.joints != 2 || g.fixtures != 1 {
		t.Fatalf("goodbyes: %d joints %d fixtures", g.joints, g.fixtures)
	}
	if world.JointCount() != 0 || world.JointList() != nil {
		t.Fatalf("joints left: %d", world.JointCount())
	}
	if ground.JointList() != nil || b.JointList() != nil {
		t.Fatalf("joint edges left on the other bodies")
	}
	if world.ProxyCount() != proxies-1 {
		t.Fatalf("proxy count %d, want %d", world.ProxyCount(), proxies-1)
	}
	for c := world.ContactList(); c != nil; c = c.Next() {
		if c.FixtureA().Body() == a || c.FixtureB().Body() == a {
			t.Fatalf("contact with destroyed body survives")
		}
	}

	for i := 0; i < 10; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
	}
	if world.Pool().Depth() != 0 {
		t.Fatalf("pool depth %d", world.Pool().Depth())
	}
}
