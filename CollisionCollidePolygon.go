package kbox2d

// findMaxSeparation finds the max separation between poly1 and poly2 using
// edge normals from poly1.
func findMaxSeparation(poly1 *PolygonShape, xf1 Transform, poly2 *PolygonShape, xf2 Transform) (edgeIndex int, maxSeparation float64) {
	count1 := poly1.Count
	count2 := poly2.Count
	n1s := &poly1.Normals
	v1s := &poly1.Vertices
	v2s := &poly2.Vertices
	xf := TransformMulT(xf2, xf1)

	bestIndex := 0
	maxSeparation = -MaxFloat
	for i := 0; i < count1; i++ {
		// Get poly1 normal in frame2.
		n := RotMulVec(xf.Q, n1s[i])
		v1 := TransformMulVec(xf, v1s[i])

		// Find deepest point for normal i.
		si := MaxFloat
		for j := 0; j < count2; j++ {
			sij := n.Dot(v2s[j].Sub(v1))
			if sij < si {
				si = sij
			}
		}

		if si > maxSeparation {
			maxSeparation = si
			bestIndex = i
		}
	}

	return bestIndex, maxSeparation
}

func findIncidentEdge(c *[2]ClipVertex, poly1 *PolygonShape, xf1 Transform, edge1 int, poly2 *PolygonShape, xf2 Transform) {
	count2 := poly2.Count
	vertices2 := &poly2.Vertices
	normals2 := &poly2.Normals

	assert(0 <= edge1 && edge1 < poly1.Count, "reference edge out of range")

	// Get the normal of the reference edge in poly2's frame.
	normal1 := RotMulTVec(xf2.Q, RotMulVec(xf1.Q, poly1.Normals[edge1]))

	// Find the incident edge on poly2.
	index := 0
	minDot := MaxFloat
	for i := 0; i < count2; i++ {
		dot := normal1.Dot(normals2[i])
		if dot < minDot {
			minDot = dot
			index = i
		}
	}

	// Build the clip vertices for the incident edge.
	i1 := index
	i2 := 0
	if i1+1 < count2 {
		i2 = i1 + 1
	}

	c[0] = ClipVertex{
		V:  TransformMulVec(xf2, vertices2[i1]),
		ID: ContactID{IndexA: uint8(edge1), IndexB: uint8(i1), TypeA: FeatureFace, TypeB: FeatureVertex},
	}
	c[1] = ClipVertex{
		V:  TransformMulVec(xf2, vertices2[i2]),
		ID: ContactID{IndexA: uint8(edge1), IndexB: uint8(i2), TypeA: FeatureFace, TypeB: FeatureVertex},
	}
}

/// CollidePolygons computes the collision manifold between two polygons.
///
/// Find edge normal of max separation on A, return if a separating axis is found.
/// Find edge normal of max separation on B, return if a separating axis is found.
/// Choose the reference edge as min(minA, minB), find the incident edge and
/// clip. The normal points from 1 to 2.
func CollidePolygons(pool *WorldPool, manifold *Manifold, polyA *PolygonShape, xfA Transform, polyB *PolygonShape, xfB Transform) {
	manifold.PointCount = 0
	totalRadius := polyA.radius + polyB.radius

	edgeA, separationA := findMaxSeparation(polyA, xfA, polyB, xfB)
	if separationA > totalRadius {
		return
	}

	edgeB, separationB := findMaxSeparation(polyB, xfB, polyA, xfA)
	if separationB > totalRadius {
		return
	}

	poly1, poly2 := polyA, polyB // reference and incident polygons
	xf1, xf2 := xfA, xfB
	edge1 := edgeA // reference edge
	flip := false

	const tol = 0.1 * LinearSlop

	if separationB > separationA+tol {
		poly1, poly2 = polyB, polyA
		xf1, xf2 = xfB, xfA
		edge1 = edgeB
		manifold.Type = ManifoldFaceB
		flip = true
	} else {
		manifold.Type = ManifoldFaceA
	}

	incidentEdge := pool.popClipPair()
	clipPoints1 := pool.popClipPair()
	clipPoints2 := pool.popClipPair()
	defer pool.pushClipPair(3)

	findIncidentEdge(incidentEdge, poly1, xf1, edge1, poly2, xf2)

	count1 := poly1.Count
	vertices1 := &poly1.Vertices

	iv1 := edge1
	iv2 := 0
	if edge1+1 < count1 {
		iv2 = edge1 + 1
	}

	v11 := vertices1[iv1]
	v12 := vertices1[iv2]

	localTangent := v12.Sub(v11).Normalized()

	localNormal := CrossVS(localTangent, 1.0)
	planePoint := v11.Add(v12).Mul(0.5)

	tangent := RotMulVec(xf1.Q, localTangent)
	normal := CrossVS(tangent, 1.0)

	v11 = TransformMulVec(xf1, v11)
	v12 = TransformMulVec(xf1, v12)

	// Face offset.
	frontOffset := normal.Dot(v11)

	// Side offsets, extended by polytope skin thickness.
	sideOffset1 := -tangent.Dot(v11) + totalRadius
	sideOffset2 := tangent.Dot(v12) + totalRadius

	// Clip incident edge against extruded edge1 side edges.

	// Clip to box side 1
	if np := clipSegmentToLine(clipPoints1, incidentEdge, tangent.Neg(), sideOffset1, iv1); np < 2 {
		return
	}

	// Clip to negative box side 1
	if np := clipSegmentToLine(clipPoints2, clipPoints1, tangent, sideOffset2, iv2); np < 2 {
		return
	}

	// Now clipPoints2 contains the clipped points.
	manifold.LocalNormal = localNormal
	manifold.LocalPoint = planePoint

	pointCount := 0
	for i := 0; i < MaxManifoldPoints; i++ {
		separation := normal.Dot(clipPoints2[i].V) - frontOffset

		if separation <= totalRadius {
			cp := &manifold.Points[pointCount]
			cp.LocalPoint = TransformMulTVec(xf2, clipPoints2[i].V)
			cp.ID = clipPoints2[i].ID
			if flip {
				// Swap features
				cp.ID = cp.ID.swapped()
			}
			pointCount++
		}
	}

	manifold.PointCount = pointCount
}
