package kbox2d_test

import (
	"math"
	"testing"

	"github.com/ByteArena/kbox2d"
	"github.com/pkg/errors"
)

func v(x, y float64) kbox2d.Vec2 { return kbox2d.MakeVec2(x, y) }

func TestShapeValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func() (kbox2d.Shape, error)
		kind  kbox2d.ShapeKind
		ok    bool
	}{
		{"circle", func() (kbox2d.Shape, error) { return kbox2d.NewCircleShape(v(0, 0), 0.5) }, kbox2d.CircleShapeKind, true},
		{"circle zero radius", func() (kbox2d.Shape, error) { return kbox2d.NewCircleShape(v(0, 0), 0.0) }, kbox2d.CircleShapeKind, false},
		{"circle negative radius", func() (kbox2d.Shape, error) { return kbox2d.NewCircleShape(v(0, 0), -1.0) }, kbox2d.CircleShapeKind, false},
		{"circle NaN center", func() (kbox2d.Shape, error) { return kbox2d.NewCircleShape(v(math.NaN(), 0), 1.0) }, kbox2d.CircleShapeKind, false},
		{"box", func() (kbox2d.Shape, error) { return kbox2d.NewBoxShape(1.0, 2.0) }, kbox2d.PolygonShapeKind, true},
		{"triangle", func() (kbox2d.Shape, error) {
			return kbox2d.NewPolygonShape([]kbox2d.Vec2{v(0, 0), v(1, 0), v(0, 1)})
		}, kbox2d.PolygonShapeKind, true},
		{"polygon collinear", func() (kbox2d.Shape, error) {
			return kbox2d.NewPolygonShape([]kbox2d.Vec2{v(0, 0), v(1, 0), v(2, 0)})
		}, kbox2d.PolygonShapeKind, false},
		{"polygon welded", func() (kbox2d.Shape, error) {
			return kbox2d.NewPolygonShape([]kbox2d.Vec2{v(0, 0), v(0.0001, 0), v(1, 1)})
		}, kbox2d.PolygonShapeKind, false},
		{"polygon non-convex", func() (kbox2d.Shape, error) {
			return kbox2d.NewPolygonShape([]kbox2d.Vec2{v(0, 0), v(2, 0), v(1, 0.2), v(1, 2)})
		}, kbox2d.PolygonShapeKind, false},
		{"polygon clockwise", func() (kbox2d.Shape, error) {
			return kbox2d.NewPolygonShape([]kbox2d.Vec2{v(0, 0), v(0, 1), v(1, 1), v(1, 0)})
		}, kbox2d.PolygonShapeKind, false},
		{"polygon crossed", func() (kbox2d.Shape, error) {
			return kbox2d.NewPolygonShape([]kbox2d.Vec2{v(0, 0), v(1, 1), v(1, 0), v(0, 1)})
		}, kbox2d.PolygonShapeKind, false},
		{"polygon midpoint", func() (kbox2d.Shape, error) {
			return kbox2d.NewPolygonShape([]kbox2d.Vec2{v(0, 0), v(1, 0), v(2, 0), v(2, 1), v(0, 1)})
		}, kbox2d.PolygonShapeKind, false},
		{"polygon too few", func() (kbox2d.Shape, error) {
			return kbox2d.NewPolygonShape([]kbox2d.Vec2{v(0, 0), v(1, 0)})
		}, kbox2d.PolygonShapeKind, false},
		{"edge", func() (kbox2d.Shape, error) { return kbox2d.NewEdgeShape(v(0, 0), v(1, 0)) }, kbox2d.EdgeShapeKind, true},
		{"edge degenerate", func() (kbox2d.Shape, error) { return kbox2d.NewEdgeShape(v(1, 1), v(1, 1)) }, kbox2d.EdgeShapeKind, false},
		{"chain", func() (kbox2d.Shape, error) {
			return kbox2d.NewChain([]kbox2d.Vec2{v(0, 0), v(1, 0), v(2, 1)})
		}, kbox2d.ChainShapeKind, true},
		{"chain one vertex", func() (kbox2d.Shape, error) { return kbox2d.NewChain([]kbox2d.Vec2{v(0, 0)}) }, kbox2d.ChainShapeKind, false},
		{"chain duplicate", func() (kbox2d.Shape, error) {
			return kbox2d.NewChain([]kbox2d.Vec2{v(0, 0), v(0, 0), v(1, 0)})
		}, kbox2d.ChainShapeKind, false},
		{"loop", func() (kbox2d.Shape, error) {
			return kbox2d.NewChainLoop([]kbox2d.Vec2{v(0, 0), v(1, 0), v(1, 1), v(0, 1)})
		}, kbox2d.ChainShapeKind, true},
		{"loop two vertices", func() (kbox2d.Shape, error) {
			return kbox2d.NewChainLoop([]kbox2d.Vec2{v(0, 0), v(1, 0)})
		}, kbox2d.ChainShapeKind, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, err := tt.build()
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if shape.Kind() != tt.kind {
					t.Fatalf("kind = %v, want %v", shape.Kind(), tt.kind)
				}
				if err := shape.Validate(); err != nil {
					t.Fatalf("valid shape fails Validate: %v", err)
				}
				return
			}

			var invalid *kbox2d.InvalidShapeError
			if !errors.As(err, &invalid) {
				t.Fatalf("error %v is not an *InvalidShapeError", err)
			}
			if invalid.Kind != tt.kind {
				t.Fatalf("error kind = %v, want %v", invalid.Kind, tt.kind)
			}
		})
	}
}

func TestPolygonKeepsVertexOrder(t *testing.T) {
	in := []kbox2d.Vec2{v(1, 1), v(-1, 1), v(-1, -1), v(1, -1)}
	poly, err := kbox2d.NewPolygonShape(in)
	if err != nil {
		t.Fatal(err)
	}
	if poly.Count != len(in) {
		t.Fatalf("count %d, want %d", poly.Count, len(in))
	}
	for i, p := range in {
		if poly.Vertices[i] != p {
			t.Fatalf("vertex %d = %v, want %v", i, poly.Vertices[i], p)
		}
	}
	if poly.Normals[0] != v(0, 1) {
		t.Fatalf("first normal %v", poly.Normals[0])
	}
}

func TestFixtureRejectsInvalidShape(t *testing.T) {
	world := kbox2d.NewWorld(v(0, -10))
	bd := kbox2d.MakeBodyDef()
	bd.Type = kbox2d.DynamicBody
	body := world.CreateBody(&bd)

	// A polygon mutated after construction is checked again.
	poly, err := kbox2d.NewBoxShape(1.0, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	poly.Vertices[0], poly.Vertices[1] = poly.Vertices[1], poly.Vertices[0]

	fixture, err := body.CreateFixture(poly, 1.0)
	if fixture != nil || !kbox2d.IsInvalidShape(err) {
		t.Fatalf("CreateFixture = %v, %v; want invalid shape error", fixture, err)
	}
	if body.FixtureList() != nil || world.ProxyCount() != 0 {
		t.Fatalf("rejected fixture left state behind")
	}

	circle, _ := kbox2d.NewCircleShape(v(0, 0), 1.0)
	if _, err := body.CreateFixture(circle, -1.0); err == nil {
		t.Fatalf("negative density accepted")
	}
}

func TestPolygonMass(t *testing.T) {
	box, err := kbox2d.NewBoxShape(1.0, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	md := box.ComputeMass(2.0)
	if math.Abs(md.Mass-4.0) > 1e-9 {
		t.Fatalf("box mass = %v, want 4", md.Mass)
	}
	if md.Center.Length() > 1e-9 {
		t.Fatalf("box center = %v", md.Center)
	}

	// I = m (w^2 + h^2) / 12 about the centroid.
	want := 4.0 * (2.0*2.0 + 1.0*1.0) / 12.0
	if math.Abs(md.I-want) > 1e-9 {
		t.Fatalf("box inertia = %v, want %v", md.I, want)
	}

	circle, _ := kbox2d.NewCircleShape(v(1, 0), 0.5)
	cm := circle.ComputeMass(1.0)
	if math.Abs(cm.Mass-kbox2d.Pi*0.25) > 1e-9 || cm.Center != v(1, 0) {
		t.Fatalf("circle mass data = %+v", cm)
	}
}

func TestShapeRayCastAndTestPoint(t *testing.T) {
	box, _ := kbox2d.NewBoxShape(1.0, 1.0)
	xf := kbox2d.MakeTransform(v(5, 0), 0.0)

	if !box.TestPoint(xf, v(5.5, 0.5)) || box.TestPoint(xf, v(3.5, 0)) {
		t.Fatalf("box TestPoint wrong")
	}

	var out kbox2d.RayCastOutput
	in := kbox2d.RayCastInput{P1: v(0, 0), P2: v(10, 0), MaxFraction: 1.0}
	if !box.RayCast(&out, in, xf, 0) {
		t.Fatalf("ray missed box")
	}
	if math.Abs(out.Fraction-0.4) > 1e-9 || out.Normal != v(-1, 0) {
		t.Fatalf("ray hit fraction %v normal %v", out.Fraction, out.Normal)
	}

	edge, _ := kbox2d.NewEdgeShape(v(-1, 1), v(1, 1))
	in = kbox2d.RayCastInput{P1: v(0, 3), P2: v(0, -1), MaxFraction: 1.0}
	if !edge.RayCast(&out, in, kbox2d.MakeTransformIdentity(), 0) {
		t.Fatalf("ray missed edge")
	}
	if math.Abs(out.Fraction-0.5) > 1e-9 {
		t.Fatalf("edge hit fraction %v", out.Fraction)
	}
}
