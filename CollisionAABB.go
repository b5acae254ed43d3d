package kbox2d

import "math"

/// Ray-cast input data. The ray extends from P1 to P1 + MaxFraction * (P2 - P1).
type RayCastInput struct {
	P1, P2      Vec2
	MaxFraction float64
}

/// Ray-cast output data. The ray hits at P1 + Fraction * (P2 - P1), where P1
/// and P2 come from RayCastInput.
type RayCastOutput struct {
	Normal   Vec2
	Fraction float64
}

/// An axis aligned bounding box.
type AABB struct {
	LowerBound Vec2
	UpperBound Vec2
}

func MakeAABB(lower, upper Vec2) AABB {
	return AABB{LowerBound: lower, UpperBound: upper}
}

func (bb AABB) Center() Vec2 {
	return bb.LowerBound.Add(bb.UpperBound).Mul(0.5)
}

/// Extents returns the half-widths.
func (bb AABB) Extents() Vec2 {
	return bb.UpperBound.Sub(bb.LowerBound).Mul(0.5)
}

func (bb AABB) Perimeter() float64 {
	wx := bb.UpperBound.X - bb.LowerBound.X
	wy := bb.UpperBound.Y - bb.LowerBound.Y
	return 2.0 * (wx + wy)
}

func (bb *AABB) CombineInPlace(aabb AABB) {
	bb.LowerBound = Vec2Min(bb.LowerBound, aabb.LowerBound)
	bb.UpperBound = Vec2Max(bb.UpperBound, aabb.UpperBound)
}

func (bb *AABB) CombineTwoInPlace(aabb1, aabb2 AABB) {
	bb.LowerBound = Vec2Min(aabb1.LowerBound, aabb2.LowerBound)
	bb.UpperBound = Vec2Max(aabb1.UpperBound, aabb2.UpperBound)
}

/// Contains reports whether aabb lies inside bb.
func (bb AABB) Contains(aabb AABB) bool {
	return bb.LowerBound.X <= aabb.LowerBound.X &&
		bb.LowerBound.Y <= aabb.LowerBound.Y &&
		aabb.UpperBound.X <= bb.UpperBound.X &&
		aabb.UpperBound.Y <= bb.UpperBound.Y
}

/// IsValid checks that the bounds are sorted and finite.
func (bb AABB) IsValid() bool {
	d := bb.UpperBound.Sub(bb.LowerBound)
	return d.X >= 0.0 && d.Y >= 0.0 && bb.LowerBound.IsValid() && bb.UpperBound.IsValid()
}

func TestOverlapAABB(a, b AABB) bool {
	d1 := b.LowerBound.Sub(a.UpperBound)
	d2 := a.LowerBound.Sub(b.UpperBound)

	if d1.X > 0.0 || d1.Y > 0.0 {
		return false
	}
	if d2.X > 0.0 || d2.Y > 0.0 {
		return false
	}
	return true
}

/// RayCast clips the ray against the box slabs. From Real-time Collision
/// Detection, p179.
func (bb AABB) RayCast(output *RayCastOutput, input RayCastInput) bool {
	tmin := -MaxFloat
	tmax := MaxFloat

	p := [2]float64{input.P1.X, input.P1.Y}
	d := [2]float64{input.P2.X - input.P1.X, input.P2.Y - input.P1.Y}
	lower := [2]float64{bb.LowerBound.X, bb.LowerBound.Y}
	upper := [2]float64{bb.UpperBound.X, bb.UpperBound.Y}

	var normal [2]float64

	for i := 0; i < 2; i++ {
		if math.Abs(d[i]) < Epsilon {
			// Parallel.
			if p[i] < lower[i] || upper[i] < p[i] {
				return false
			}
			continue
		}

		invD := 1.0 / d[i]
		t1 := (lower[i] - p[i]) * invD
		t2 := (upper[i] - p[i]) * invD

		// Sign of the normal vector.
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1.0
		}

		// Push the min up
		if t1 > tmin {
			normal = [2]float64{}
			normal[i] = s
			tmin = t1
		}

		// Pull the max down
		tmax = math.Min(tmax, t2)

		if tmin > tmax {
			return false
		}
	}

	// Does the ray start inside the box?
	// Does the ray intersect beyond the max fraction?
	if tmin < 0.0 || input.MaxFraction < tmin {
		return false
	}

	output.Fraction = tmin
	output.Normal = Vec2{normal[0], normal[1]}
	return true
}
