package kbox2d

import "math"

const nullFeature uint8 = math.MaxUint8

// ContactFeatureType tells whether a feature index names a vertex or a face.
type ContactFeatureType uint8

const (
	FeatureVertex ContactFeatureType = iota
	FeatureFace
)

/// ContactID identifies the features of both shapes that produced a contact
/// point. Points keep their warm starting impulses across steps only while
/// their ids match.
type ContactID struct {
	IndexA uint8              // feature index on shape A
	IndexB uint8              // feature index on shape B
	TypeA  ContactFeatureType // feature type on shape A
	TypeB  ContactFeatureType // feature type on shape B
}

/// Key packs the id into a single comparable value.
func (id ContactID) Key() uint32 {
	return uint32(id.IndexA) | uint32(id.IndexB)<<8 | uint32(id.TypeA)<<16 | uint32(id.TypeB)<<24
}

// swapped returns the id seen from the other shape.
func (id ContactID) swapped() ContactID {
	return ContactID{IndexA: id.IndexB, IndexB: id.IndexA, TypeA: id.TypeB, TypeB: id.TypeA}
}

/// A manifold point is a contact point belonging to a contact manifold.
/// LocalPoint usage depends on the manifold type:
/// circles: the local center of circle B;
/// faceA: the local center of circle B or the clip point of polygon B;
/// faceB: the clip point of polygon A.
/// The impulses are used for warm starting.
type ManifoldPoint struct {
	LocalPoint     Vec2
	NormalImpulse  float64
	TangentImpulse float64
	ID             ContactID
}

type ManifoldType uint8

const (
	ManifoldCircles ManifoldType = iota
	ManifoldFaceA
	ManifoldFaceB
)

/// A manifold for two touching convex shapes, stored in local coordinates so
/// it stays valid while the bodies move a little between evaluation and
/// solving.
type Manifold struct {
	Points      [MaxManifoldPoints]ManifoldPoint
	LocalNormal Vec2 // not used for ManifoldCircles
	LocalPoint  Vec2 // usage depends on manifold type
	Type        ManifoldType
	PointCount  int
}

// dropInvalidPoints removes points carrying non-finite data. A manifold whose
// frame is broken loses all of its points.
func (m *Manifold) dropInvalidPoints() int {
	if !m.LocalNormal.IsValid() || !m.LocalPoint.IsValid() {
		dropped := m.PointCount
		m.PointCount = 0
		return dropped
	}

	n := 0
	for i := 0; i < m.PointCount; i++ {
		p := m.Points[i]
		if !p.LocalPoint.IsValid() {
			continue
		}
		m.Points[n] = p
		n++
	}
	dropped := m.PointCount - n
	m.PointCount = n
	return dropped
}

/// WorldManifold is a manifold evaluated in world coordinates.
type WorldManifold struct {
	Normal      Vec2                       // world vector pointing from A to B
	Points      [MaxManifoldPoints]Vec2    // world contact points (midpoints between the surfaces)
	Separations [MaxManifoldPoints]float64 // negative means overlap, in meters
}

/// Initialize evaluates the manifold with the given transforms and shape radii.
func (wm *WorldManifold) Initialize(manifold *Manifold, xfA Transform, radiusA float64, xfB Transform, radiusB float64) {
	if manifold.PointCount == 0 {
		return
	}

	switch manifold.Type {
	case ManifoldCircles:
		wm.Normal = Vec2{1.0, 0.0}
		pointA := TransformMulVec(xfA, manifold.LocalPoint)
		pointB := TransformMulVec(xfB, manifold.Points[0].LocalPoint)
		if Vec2DistanceSquared(pointA, pointB) > Epsilon*Epsilon {
			wm.Normal = pointB.Sub(pointA).Normalized()
		}

		cA := pointA.Add(wm.Normal.Mul(radiusA))
		cB := pointB.Sub(wm.Normal.Mul(radiusB))
		wm.Points[0] = cA.Add(cB).Mul(0.5)
		wm.Separations[0] = cB.Sub(cA).Dot(wm.Normal)

	case ManifoldFaceA:
		wm.Normal = RotMulVec(xfA.Q, manifold.LocalNormal)
		planePoint := TransformMulVec(xfA, manifold.LocalPoint)

		for i := 0; i < manifold.PointCount; i++ {
			clipPoint := TransformMulVec(xfB, manifold.Points[i].LocalPoint)
			cA := clipPoint.Add(wm.Normal.Mul(radiusA - clipPoint.Sub(planePoint).Dot(wm.Normal)))
			cB := clipPoint.Sub(wm.Normal.Mul(radiusB))
			wm.Points[i] = cA.Add(cB).Mul(0.5)
			wm.Separations[i] = cB.Sub(cA).Dot(wm.Normal)
		}

	case ManifoldFaceB:
		wm.Normal = RotMulVec(xfB.Q, manifold.LocalNormal)
		planePoint := TransformMulVec(xfB, manifold.LocalPoint)

		for i := 0; i < manifold.PointCount; i++ {
			clipPoint := TransformMulVec(xfA, manifold.Points[i].LocalPoint)
			cB := clipPoint.Add(wm.Normal.Mul(radiusB - clipPoint.Sub(planePoint).Dot(wm.Normal)))
			cA := clipPoint.Sub(wm.Normal.Mul(radiusA))
			wm.Points[i] = cA.Add(cB).Mul(0.5)
			wm.Separations[i] = cA.Sub(cB).Dot(wm.Normal)
		}

		// Ensure normal points from A to B.
		wm.Normal = wm.Normal.Neg()
	}
}

/// PointState describes what happened to a manifold point across an update.
type PointState uint8

const (
	NullState    PointState = iota // point does not exist
	AddState                       // point was added in the update
	PersistState                   // point persisted across the update
	RemoveState                    // point was removed in the update
)

/// GetPointStates compares two manifolds by contact id and reports which
/// points were removed from manifold1 and added in manifold2.
func GetPointStates(state1, state2 *[MaxManifoldPoints]PointState, manifold1, manifold2 *Manifold) {
	for i := 0; i < MaxManifoldPoints; i++ {
		state1[i] = NullState
		state2[i] = NullState
	}

	for i := 0; i < manifold1.PointCount; i++ {
		key := manifold1.Points[i].ID.Key()
		state1[i] = RemoveState
		for j := 0; j < manifold2.PointCount; j++ {
			if manifold2.Points[j].ID.Key() == key {
				state1[i] = PersistState
				break
			}
		}
	}

	for i := 0; i < manifold2.PointCount; i++ {
		key := manifold2.Points[i].ID.Key()
		state2[i] = AddState
		for j := 0; j < manifold1.PointCount; j++ {
			if manifold1.Points[j].ID.Key() == key {
				state2[i] = PersistState
				break
			}
		}
	}
}

/// ClipVertex is used for computing contact manifolds.
type ClipVertex struct {
	V  Vec2
	ID ContactID
}

/// clipSegmentToLine is the Sutherland-Hodgman step: keep the part of the
/// segment vIn behind the plane (normal, offset). Returns the number of
/// output points.
func clipSegmentToLine(vOut *[2]ClipVertex, vIn *[2]ClipVertex, normal Vec2, offset float64, vertexIndexA int) int {
	numOut := 0

	// Calculate the distance of end points to the line
	distance0 := normal.Dot(vIn[0].V) - offset
	distance1 := normal.Dot(vIn[1].V) - offset

	// If the points are behind the plane
	if distance0 <= 0.0 {
		vOut[numOut] = vIn[0]
		numOut++
	}
	if distance1 <= 0.0 {
		vOut[numOut] = vIn[1]
		numOut++
	}

	// If the points are on different sides of the plane
	if distance0*distance1 < 0.0 {
		// Find intersection point of edge and plane
		interp := distance0 / (distance0 - distance1)
		vOut[numOut].V = vIn[0].V.Add(vIn[1].V.Sub(vIn[0].V).Mul(interp))

		// VertexA is hitting edgeB.
		vOut[numOut].ID = ContactID{
			IndexA: uint8(vertexIndexA),
			IndexB: vIn[0].ID.IndexB,
			TypeA:  FeatureVertex,
			TypeB:  FeatureFace,
		}
		numOut++
	}

	return numOut
}
