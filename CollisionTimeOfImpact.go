package kbox2d

import "math"

/// Input parameters for TimeOfImpact.
type TOIInput struct {
	ProxyA DistanceProxy
	ProxyB DistanceProxy
	SweepA Sweep
	SweepB Sweep
	TMax   float64 // defines sweep interval [0, tMax]
}

type TOIState uint8

const (
	TOIUnknown TOIState = iota
	TOIFailed
	TOIOverlapped
	TOITouching
	TOISeparated
)

func (s TOIState) String() string {
	switch s {
	case TOIFailed:
		return "failed"
	case TOIOverlapped:
		return "overlapped"
	case TOITouching:
		return "touching"
	case TOISeparated:
		return "separated"
	}
	return "unknown"
}

/// Output parameters for TimeOfImpact.
type TOIOutput struct {
	State TOIState
	T     float64

	Iterations     int // outer iterations (separating axes tried)
	RootIterations int // total root finder iterations
}

const (
	toiMaxIterations     = 20
	toiMaxRootIterations = 50
)

type separationType uint8

const (
	separationPoints separationType = iota
	separationFaceA
	separationFaceB
)

type separationFunction struct {
	proxyA, proxyB *DistanceProxy
	sweepA, sweepB Sweep
	kind           separationType
	localPoint     Vec2
	axis           Vec2
}

func (f *separationFunction) initialize(cache *SimplexCache, proxyA *DistanceProxy, sweepA Sweep, proxyB *DistanceProxy, sweepB Sweep, t1 float64) float64 {
	f.proxyA = proxyA
	f.proxyB = proxyB
	count := cache.Count
	assert(0 < count && count < 3, "separation function needs 1 or 2 cached vertices")

	f.sweepA = sweepA
	f.sweepB = sweepB

	var xfA, xfB Transform
	f.sweepA.Transform(&xfA, t1)
	f.sweepB.Transform(&xfB, t1)

	if count == 1 {
		f.kind = separationPoints
		pointA := TransformMulVec(xfA, proxyA.Vertex(cache.IndexA[0]))
		pointB := TransformMulVec(xfB, proxyB.Vertex(cache.IndexB[0]))
		f.axis = pointB.Sub(pointA)
		return f.axis.Normalize()
	}

	if cache.IndexA[0] == cache.IndexA[1] {
		// Two points on B and one on A.
		f.kind = separationFaceB
		localPointB1 := proxyB.Vertex(cache.IndexB[0])
		localPointB2 := proxyB.Vertex(cache.IndexB[1])

		f.axis = CrossVS(localPointB2.Sub(localPointB1), 1.0)
		f.axis.Normalize()
		normal := RotMulVec(xfB.Q, f.axis)

		f.localPoint = localPointB1.Add(localPointB2).Mul(0.5)
		pointB := TransformMulVec(xfB, f.localPoint)
		pointA := TransformMulVec(xfA, proxyA.Vertex(cache.IndexA[0]))

		s := pointA.Sub(pointB).Dot(normal)
		if s < 0.0 {
			f.axis = f.axis.Neg()
			s = -s
		}
		return s
	}

	// Two points on A and one or two points on B.
	f.kind = separationFaceA
	localPointA1 := proxyA.Vertex(cache.IndexA[0])
	localPointA2 := proxyA.Vertex(cache.IndexA[1])

	f.axis = CrossVS(localPointA2.Sub(localPointA1), 1.0)
	f.axis.Normalize()
	normal := RotMulVec(xfA.Q, f.axis)

	f.localPoint = localPointA1.Add(localPointA2).Mul(0.5)
	pointA := TransformMulVec(xfA, f.localPoint)
	pointB := TransformMulVec(xfB, proxyB.Vertex(cache.IndexB[0]))

	s := pointB.Sub(pointA).Dot(normal)
	if s < 0.0 {
		f.axis = f.axis.Neg()
		s = -s
	}
	return s
}

// findMinSeparation returns the deepest points at time t and their separation.
// A face-based function reports -1 for the face side index.
func (f *separationFunction) findMinSeparation(t float64) (indexA, indexB int, separation float64) {
	var xfA, xfB Transform
	f.sweepA.Transform(&xfA, t)
	f.sweepB.Transform(&xfB, t)

	switch f.kind {
	case separationPoints:
		axisA := RotMulTVec(xfA.Q, f.axis)
		axisB := RotMulTVec(xfB.Q, f.axis.Neg())

		indexA = f.proxyA.Support(axisA)
		indexB = f.proxyB.Support(axisB)

		pointA := TransformMulVec(xfA, f.proxyA.Vertex(indexA))
		pointB := TransformMulVec(xfB, f.proxyB.Vertex(indexB))
		return indexA, indexB, pointB.Sub(pointA).Dot(f.axis)

	case separationFaceA:
		normal := RotMulVec(xfA.Q, f.axis)
		pointA := TransformMulVec(xfA, f.localPoint)

		axisB := RotMulTVec(xfB.Q, normal.Neg())
		indexB = f.proxyB.Support(axisB)

		pointB := TransformMulVec(xfB, f.proxyB.Vertex(indexB))
		return -1, indexB, pointB.Sub(pointA).Dot(normal)

	case separationFaceB:
		normal := RotMulVec(xfB.Q, f.axis)
		pointB := TransformMulVec(xfB, f.localPoint)

		axisA := RotMulTVec(xfA.Q, normal.Neg())
		indexA = f.proxyA.Support(axisA)

		pointA := TransformMulVec(xfA, f.proxyA.Vertex(indexA))
		return indexA, -1, pointA.Sub(pointB).Dot(normal)
	}

	assert(false, "unknown separation function")
	return -1, -1, 0.0
}

func (f *separationFunction) evaluate(indexA, indexB int, t float64) float64 {
	var xfA, xfB Transform
	f.sweepA.Transform(&xfA, t)
	f.sweepB.Transform(&xfB, t)

	switch f.kind {
	case separationPoints:
		pointA := TransformMulVec(xfA, f.proxyA.Vertex(indexA))
		pointB := TransformMulVec(xfB, f.proxyB.Vertex(indexB))
		return pointB.Sub(pointA).Dot(f.axis)

	case separationFaceA:
		normal := RotMulVec(xfA.Q, f.axis)
		pointA := TransformMulVec(xfA, f.localPoint)
		pointB := TransformMulVec(xfB, f.proxyB.Vertex(indexB))
		return pointB.Sub(pointA).Dot(normal)

	case separationFaceB:
		normal := RotMulVec(xfB.Q, f.axis)
		pointB := TransformMulVec(xfB, f.localPoint)
		pointA := TransformMulVec(xfA, f.proxyA.Vertex(indexA))
		return pointA.Sub(pointB).Dot(normal)
	}

	assert(false, "unknown separation function")
	return 0.0
}

/// TimeOfImpact computes the upper bound on time before two shapes penetrate.
/// Time is a fraction in [0, tMax]. It uses a swept separating axis and may
/// miss some intermediate, non-tunneling collision.
///
/// CCD via the local separating axis method: seek progression by computing
/// the largest time at which separation is maintained. Failed and Unknown
/// outcomes carry no usable time of impact.
func TimeOfImpact(pool *WorldPool, output *TOIOutput, input *TOIInput) {
	output.State = TOIUnknown
	output.T = input.TMax
	output.Iterations = 0
	output.RootIterations = 0

	proxyA := &input.ProxyA
	proxyB := &input.ProxyB

	sweepA := input.SweepA
	sweepB := input.SweepB

	// Large rotations can make the root finder fail, so we normalize the
	// sweep angles.
	sweepA.Normalize()
	sweepB.Normalize()

	tMax := input.TMax

	totalRadius := proxyA.Radius + proxyB.Radius
	target := math.Max(LinearSlop, totalRadius-3.0*LinearSlop)
	tolerance := 0.25 * LinearSlop
	assert(target > tolerance, "time of impact target below tolerance")

	t1 := 0.0
	iter := 0

	// Prepare input for distance query.
	var cache SimplexCache
	var distanceInput DistanceInput
	distanceInput.ProxyA = input.ProxyA
	distanceInput.ProxyB = input.ProxyB
	distanceInput.UseRadii = false

	// The outer loop progressively attempts to compute new separating axes.
	// This loop terminates when an axis is repeated (no progress is made).
	for {
		var xfA, xfB Transform
		sweepA.Transform(&xfA, t1)
		sweepB.Transform(&xfB, t1)

		// Get the distance between shapes. We can also use the results
		// to get a separating axis.
		distanceInput.TransformA = xfA
		distanceInput.TransformB = xfB
		var distanceOutput DistanceOutput
		Distance(pool, &distanceOutput, &cache, &distanceInput)

		// If the shapes are overlapped, we give up on continuous collision.
		if distanceOutput.Distance <= 0.0 {
			output.State = TOIOverlapped
			output.T = 0.0
			break
		}

		if distanceOutput.Distance < target+tolerance {
			output.State = TOITouching
			output.T = t1
			break
		}

		// Initialize the separating axis.
		var fcn separationFunction
		fcn.initialize(&cache, proxyA, sweepA, proxyB, sweepB, t1)

		// Compute the TOI on the separating axis. We do this by successively
		// resolving the deepest point. This loop is bounded by the number of vertices.
		done := false
		t2 := tMax
		pushBackIter := 0
		for {
			// Find the deepest point at t2. Store the witness point indices.
			indexA, indexB, s2 := fcn.findMinSeparation(t2)

			// Is the final configuration separated?
			if s2 > target+tolerance {
				output.State = TOISeparated
				output.T = tMax
				done = true
				break
			}

			// Has the separation reached tolerance?
			if s2 > target-tolerance {
				// Advance the sweeps
				t1 = t2
				break
			}

			// Compute the initial separation of the witness points.
			s1 := fcn.evaluate(indexA, indexB, t1)

			// Check for initial overlap. This might happen if the root finder
			// runs out of iterations.
			if s1 < target-tolerance {
				output.State = TOIFailed
				output.T = t1
				done = true
				break
			}

			// Check for touching
			if s1 <= target+tolerance {
				// t1 should hold the TOI (could be 0.0).
				output.State = TOITouching
				output.T = t1
				done = true
				break
			}

			// Compute 1D root of: f(x) - target = 0
			rootIterCount := 0
			a1, a2 := t1, t2
			for rootIterCount < toiMaxRootIterations {
				// Use a mix of the secant rule and bisection.
				var t float64
				if rootIterCount&1 != 0 {
					// Secant rule to improve convergence.
					t = a1 + (target-s1)*(a2-a1)/(s2-s1)
				} else {
					// Bisection to guarantee progress.
					t = 0.5 * (a1 + a2)
				}
				rootIterCount++

				s := fcn.evaluate(indexA, indexB, t)

				if math.Abs(s-target) < tolerance {
					// t2 holds a tentative value for t1
					t2 = t
					break
				}

				// Ensure we continue to bracket the root.
				if s > target {
					a1 = t
					s1 = s
				} else {
					a2 = t
					s2 = s
				}
			}
			output.RootIterations += rootIterCount

			pushBackIter++
			if pushBackIter == MaxPolygonVertices {
				break
			}
		}

		iter++
		output.Iterations = iter

		if done {
			break
		}

		if iter == toiMaxIterations {
			// Root finder got stuck. Semi-victory.
			output.State = TOIFailed
			output.T = t1
			break
		}
	}
}
