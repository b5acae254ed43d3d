package kbox2d_test

import (
	"math"
	"strings"
	"testing"

	"github.com/ByteArena/kbox2d"
	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

const sampleScene = `
name: sample
bodies:
  - name: ground
    fixtures:
      - shape: edge
        vertices: [{x: -10, y: 0}, {x: 10, y: 0}]
      - shape: chain
        vertices: [{x: -10, y: 5}, {x: -10, y: 0}, {x: -12, y: 0}]
      - shape: loop
        vertices: [{x: 20, y: 0}, {x: 22, y: 0}, {x: 22, y: 2}, {x: 20, y: 2}]
  - name: crate
    type: dynamic
    position: {x: 0, y: 2}
    fixtures:
      - shape: box
        half_width: 0.5
        half_height: 0.5
        density: 1
        friction: 0.6
  - name: wheel
    type: dynamic
    position: {x: 3, y: 2}
    bullet: true
    allow_sleep: false
    gravity_scale: 0.5
    fixtures:
      - shape: circle
        radius: 0.5
        density: 2
        restitution: 0.3
  - name: wedge
    type: kinematic
    position: {x: -3, y: 2}
    linear_velocity: {x: 1, y: 0}
    fixtures:
      - shape: polygon
        vertices: [{x: 0, y: 0}, {x: 1, y: 0}, {x: 0, y: 1}]
        sensor: true
        filter: {category: 2, mask: 65535, group: -3}
joints:
  - type: revolute
    body_a: 0
    body_b: 2
    anchor: {x: 3, y: 2}
    enable_motor: true
    motor_speed: 1.5
    max_motor_torque: 50
  - type: distance
    body_a: 1
    body_b: 2
    anchor: {x: 0, y: 2}
    anchor_b: {x: 3, y: 2}
  - type: weld
    body_a: 0
    body_b: 3
    anchor: {x: -3, y: 2}
  - type: friction
    body_a: 0
    body_b: 1
    anchor: {x: 0, y: 2}
    max_force: 5
    collide_connected: true
`

func fixturesByKind(body *kbox2d.Body) map[kbox2d.ShapeKind]*kbox2d.Fixture {
	out := make(map[kbox2d.ShapeKind]*kbox2d.Fixture)
	for f := body.FixtureList(); f != nil; f = f.Next() {
		out[f.Type()] = f
	}
	return out
}

func TestBuildScene(t *testing.T) {
	def, err := kbox2d.ParseScene([]byte(sampleScene))
	if err != nil {
		t.Fatal(err)
	}

	world, _ := quietWorld(v(0, -10))
	scene, err := kbox2d.BuildScene(world, def)
	if err != nil {
		t.Fatal(err)
	}

	if len(scene.Bodies) != 4 || len(scene.Joints) != 4 {
		t.Fatalf("built %d bodies %d joints", len(scene.Bodies), len(scene.Joints))
	}
	if world.BodyCount() != 4 || world.JointCount() != 4 {
		t.Fatalf("world has %d bodies %d joints", world.BodyCount(), world.JointCount())
	}
	// edge + 2 chain edges + 4 loop edges + crate + wheel + wedge
	if world.ProxyCount() != 10 {
		t.Fatalf("proxy count %d", world.ProxyCount())
	}

	ground := scene.Body("ground")
	if ground == nil || ground.Type() != kbox2d.StaticBody || ground.UserData() != "ground" {
		t.Fatalf("ground body %v", ground)
	}
	gf := fixturesByKind(ground)
	if len(gf) != 2 || gf[kbox2d.EdgeShapeKind] == nil || gf[kbox2d.ChainShapeKind] == nil {
		t.Fatalf("ground fixtures %v", gf)
	}

	crate := scene.Body("crate")
	cf := crate.FixtureList()
	if crate.Type() != kbox2d.DynamicBody || crate.Position() != v(0, 2) {
		t.Fatalf("crate %v", crate)
	}
	if cf.Type() != kbox2d.PolygonShapeKind || cf.Friction() != 0.6 || math.Abs(crate.Mass()-1.0) > 1e-9 {
		t.Fatalf("crate fixture friction %v mass %v", cf.Friction(), crate.Mass())
	}

	wheel := scene.Body("wheel")
	wf := wheel.FixtureList()
	if !wheel.IsBullet() || wheel.IsSleepingAllowed() || wheel.GravityScale() != 0.5 {
		t.Fatalf("wheel flags: bullet %v sleep %v gravity %v", wheel.IsBullet(), wheel.IsSleepingAllowed(), wheel.GravityScale())
	}
	if wf.Restitution() != 0.3 || wf.Friction() != kbox2d.MakeFixtureDef().Friction {
		t.Fatalf("wheel fixture restitution %v friction %v", wf.Restitution(), wf.Friction())
	}

	wedge := scene.Body("wedge")
	pf := wedge.FixtureList()
	if wedge.Type() != kbox2d.KinematicBody || wedge.LinearVelocity() != v(1, 0) {
		t.Fatalf("wedge %v", wedge)
	}
	if !pf.IsSensor() || pf.FilterData() != (kbox2d.Filter{CategoryBits: 2, MaskBits: 0xFFFF, GroupIndex: -3}) {
		t.Fatalf("wedge fixture sensor %v filter %+v", pf.IsSensor(), pf.FilterData())
	}

	if scene.Body("missing") != nil {
		t.Fatalf("unknown name resolved")
	}

	rj, ok := scene.Joints[0].(*kbox2d.RevoluteJointImpl)
	if !ok || !rj.IsMotorEnabled() || rj.MotorSpeed() != 1.5 || rj.MaxMotorTorque() != 50.0 {
		t.Fatalf("revolute joint %v", scene.Joints[0])
	}
	dj, ok := scene.Joints[1].(*kbox2d.DistanceJointImpl)
	if !ok || math.Abs(dj.Length()-3.0) > 1e-12 {
		t.Fatalf("distance joint %v", scene.Joints[1])
	}
	if _, ok := scene.Joints[2].(*kbox2d.WeldJointImpl); !ok {
		t.Fatalf("weld joint %v", scene.Joints[2])
	}
	fj, ok := scene.Joints[3].(*kbox2d.FrictionJointImpl)
	if !ok || fj.MaxForce() != 5.0 || !fj.CollideConnected() || scene.Joints[0].CollideConnected() {
		t.Fatalf("friction joint %v", scene.Joints[3])
	}

	for i := 0; i < 60; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
	}
	if world.Pool().Depth() != 0 {
		t.Fatalf("pool depth %d", world.Pool().Depth())
	}
}

func TestBuildSceneErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown shape", "bodies:\n  - fixtures:\n      - shape: blob\n", `unknown shape "blob"`},
		{"bad circle", "bodies:\n  - fixtures:\n      - shape: circle\n        radius: -1\n", "fixture 0"},
		{"short edge", "bodies:\n  - fixtures:\n      - shape: edge\n        vertices: [{x: 0, y: 0}]\n", "needs 2 vertices"},
		{"joint index", "bodies:\n  - {}\n  - {}\njoints:\n  - type: weld\n    body_a: 0\n    body_b: 5\n", "out of range"},
		{"joint self", "bodies:\n  - {}\njoints:\n  - type: weld\n    body_a: 0\n    body_b: 0\n", "itself"},
		{"joint type", "bodies:\n  - {}\n  - {}\njoints:\n  - type: rope\n    body_a: 0\n    body_b: 1\n", `unknown joint type "rope"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := kbox2d.ParseScene([]byte(tt.yaml))
			if err != nil {
				t.Fatal(err)
			}
			world, _ := quietWorld(v(0, -10))
			if _, err := kbox2d.BuildScene(world, def); err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %v, want %q", err, tt.want)
			}
		})
	}

	if _, err := kbox2d.ParseScene([]byte("bodies:\n  - type: floating\n")); err == nil || !strings.Contains(err.Error(), "unknown body type") {
		t.Fatalf("invalid body type: %v", err)
	}
}

func TestMarshalScene(t *testing.T) {
	def, err := kbox2d.ParseScene([]byte(sampleScene))
	if err != nil {
		t.Fatal(err)
	}

	data, err := kbox2d.MarshalScene(def)
	if err != nil {
		t.Fatal(err)
	}
	again, err := kbox2d.ParseScene(data)
	if err != nil {
		t.Fatalf("re-parse:\n%s\n%v", data, err)
	}

	config := spew.ConfigState{Indent: " ", DisablePointerAddresses: true}
	a := config.Sdump(def)
	b := config.Sdump(again)
	if a != b {
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(a),
			B:        difflib.SplitLines(b),
			FromFile: "Parsed",
			ToFile:   "Reparsed",
			Context:  2,
		}
		text, _ := difflib.GetUnifiedDiffString(diff)
		t.Fatalf("scene changed through MarshalScene:\n%s", text)
	}
}

func TestLoadSceneFile(t *testing.T) {
	def, err := kbox2d.LoadScene("testdata/seesaw.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if def.Name != "seesaw" {
		t.Fatalf("scene name %q", def.Name)
	}

	world, _ := quietWorld(v(0, -10))
	scene, err := kbox2d.BuildScene(world, def)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 180; i++ {
		world.Step(timeStep, velocityIterations, positionIterations)
	}

	// The weight lands on the left end and tips the plank onto its stop.
	plank := scene.Body("plank")
	if a := plank.Angle(); a < 0.25 || a > 0.4 {
		t.Fatalf("plank angle %v", a)
	}

	if _, err := kbox2d.LoadScene("testdata/absent.yaml"); err == nil {
		t.Fatalf("missing scene file loaded")
	}
}
