package kbox2d

import "math"

/// A solid circle shape.
type CircleShape struct {
	/// Position of the center in the body frame.
	P Vec2

	radius float64
}

/// NewCircleShape builds a circle; the radius must be positive and finite.
func NewCircleShape(center Vec2, radius float64) (*CircleShape, error) {
	shape := &CircleShape{P: center, radius: radius}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return shape, nil
}

func (shape *CircleShape) SetRadius(radius float64) {
	shape.radius = radius
}

func (shape *CircleShape) Kind() ShapeKind { return CircleShapeKind }
func (shape *CircleShape) Radius() float64 { return shape.radius }
func (shape *CircleShape) ChildCount() int { return 1 }

func (shape *CircleShape) Clone() Shape {
	clone := *shape
	return &clone
}

func (shape *CircleShape) Validate() error {
	if !IsValid(shape.radius) || shape.radius <= 0.0 {
		return invalidShape(CircleShapeKind, "radius %v must be positive", shape.radius)
	}
	if !shape.P.IsValid() {
		return invalidShape(CircleShapeKind, "center is not finite")
	}
	return nil
}

func (shape *CircleShape) TestPoint(xf Transform, p Vec2) bool {
	center := xf.P.Add(RotMulVec(xf.Q, shape.P))
	d := p.Sub(center)
	return d.Dot(d) <= shape.radius*shape.radius
}

/// RayCast solves the quadratic from Collision Detection in Interactive 3D
/// Environments by Gino van den Bergen, section 3.1.2:
/// x = s + a * r, norm(x) = radius.
func (shape *CircleShape) RayCast(output *RayCastOutput, input RayCastInput, xf Transform, childIndex int) bool {
	position := xf.P.Add(RotMulVec(xf.Q, shape.P))
	s := input.P1.Sub(position)
	b := s.Dot(s) - shape.radius*shape.radius

	// Solve quadratic equation.
	r := input.P2.Sub(input.P1)
	c := s.Dot(r)
	rr := r.Dot(r)
	sigma := c*c - rr*b

	// Check for negative discriminant and short segment.
	if sigma < 0.0 || rr < Epsilon {
		return false
	}

	// Find the point of intersection of the line with the circle.
	a := -(c + math.Sqrt(sigma))

	// Is the intersection point on the segment?
	if 0.0 <= a && a <= input.MaxFraction*rr {
		a /= rr
		output.Fraction = a
		output.Normal = s.Add(r.Mul(a)).Normalized()
		return true
	}

	return false
}

func (shape *CircleShape) ComputeAABB(xf Transform, childIndex int) AABB {
	p := xf.P.Add(RotMulVec(xf.Q, shape.P))
	return AABB{
		LowerBound: Vec2{p.X - shape.radius, p.Y - shape.radius},
		UpperBound: Vec2{p.X + shape.radius, p.Y + shape.radius},
	}
}

func (shape *CircleShape) ComputeMass(density float64) MassData {
	mass := density * Pi * shape.radius * shape.radius
	return MassData{
		Mass:   mass,
		Center: shape.P,
		// inertia about the local origin
		I: mass * (0.5*shape.radius*shape.radius + shape.P.Dot(shape.P)),
	}
}
