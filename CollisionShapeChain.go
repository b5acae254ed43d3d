package kbox2d

/// A chain is a free form sequence of line segments. Every child is a
/// one-sided edge colliding on its right side (looking from one vertex to the
/// next), so a counter-clockwise loop collides on the outside and a floor
/// should run from right to left. Connectivity gives smooth collision across
/// vertices.
/// WARNING: The chain will not collide properly if there are self-intersections.
type ChainShape struct {
	Vertices []Vec2

	PrevVertex Vec2
	NextVertex Vec2

	radius float64
}

/// NewChainLoop builds a closed loop; the last vertex connects to the first.
func NewChainLoop(vertices []Vec2) (*ChainShape, error) {
	chain := &ChainShape{}
	if err := chain.CreateLoop(vertices); err != nil {
		return nil, err
	}
	return chain, nil
}

/// NewChain builds an open chain whose ghost vertices extend the end
/// segments in a straight line.
func NewChain(vertices []Vec2) (*ChainShape, error) {
	if len(vertices) < 2 {
		return nil, invalidShape(ChainShapeKind, "%d vertices, want at least 2", len(vertices))
	}
	n := len(vertices)
	prev := vertices[0].Mul(2.0).Sub(vertices[1])
	next := vertices[n-1].Mul(2.0).Sub(vertices[n-2])

	chain := &ChainShape{}
	if err := chain.CreateChain(vertices, prev, next); err != nil {
		return nil, err
	}
	return chain, nil
}

func checkChainVertices(vertices []Vec2) error {
	for i, v := range vertices {
		if !v.IsValid() {
			return invalidShape(ChainShapeKind, "vertex %d is not finite", i)
		}
		if i > 0 && Vec2DistanceSquared(vertices[i-1], v) <= LinearSlop*LinearSlop {
			return invalidShape(ChainShapeKind, "vertices %d and %d are too close", i-1, i)
		}
	}
	return nil
}

/// CreateLoop makes a closed loop of at least 3 vertices.
func (chain *ChainShape) CreateLoop(vertices []Vec2) error {
	if len(vertices) < 3 {
		return invalidShape(ChainShapeKind, "loop has %d vertices, want at least 3", len(vertices))
	}
	if err := checkChainVertices(vertices); err != nil {
		return err
	}

	count := len(vertices) + 1
	vs := make([]Vec2, count)
	copy(vs, vertices)
	vs[count-1] = vs[0]

	chain.Vertices = vs
	chain.PrevVertex = vs[count-2]
	chain.NextVertex = vs[1]
	chain.radius = PolygonRadius
	return nil
}

/// CreateChain makes an open chain with explicit ghost vertices before the
/// first and after the last vertex.
func (chain *ChainShape) CreateChain(vertices []Vec2, prevVertex, nextVertex Vec2) error {
	if len(vertices) < 2 {
		return invalidShape(ChainShapeKind, "%d vertices, want at least 2", len(vertices))
	}
	if err := checkChainVertices(vertices); err != nil {
		return err
	}

	chain.Vertices = append([]Vec2(nil), vertices...)
	chain.PrevVertex = prevVertex
	chain.NextVertex = nextVertex
	chain.radius = PolygonRadius
	return nil
}

func (chain *ChainShape) Kind() ShapeKind { return ChainShapeKind }
func (chain *ChainShape) Radius() float64 { return chain.radius }

/// ChildCount is the number of edges.
func (chain *ChainShape) ChildCount() int {
	return len(chain.Vertices) - 1
}

func (chain *ChainShape) Clone() Shape {
	clone := *chain
	clone.Vertices = append([]Vec2(nil), chain.Vertices...)
	return &clone
}

func (chain *ChainShape) Validate() error {
	if len(chain.Vertices) < 2 {
		return invalidShape(ChainShapeKind, "%d vertices, want at least 2", len(chain.Vertices))
	}
	if !chain.PrevVertex.IsValid() || !chain.NextVertex.IsValid() {
		return invalidShape(ChainShapeKind, "ghost vertex is not finite")
	}
	return checkChainVertices(chain.Vertices)
}

/// ChildEdge fills edge with the one-sided child at index.
func (chain *ChainShape) ChildEdge(edge *EdgeShape, index int) {
	assert(0 <= index && index < len(chain.Vertices)-1, "chain child index out of range")

	edge.radius = chain.radius
	edge.OneSided = true

	edge.Vertex1 = chain.Vertices[index+0]
	edge.Vertex2 = chain.Vertices[index+1]

	if index > 0 {
		edge.Vertex0 = chain.Vertices[index-1]
	} else {
		edge.Vertex0 = chain.PrevVertex
	}

	if index < len(chain.Vertices)-2 {
		edge.Vertex3 = chain.Vertices[index+2]
	} else {
		edge.Vertex3 = chain.NextVertex
	}
}

func (chain *ChainShape) TestPoint(xf Transform, p Vec2) bool {
	return false
}

func (chain *ChainShape) RayCast(output *RayCastOutput, input RayCastInput, xf Transform, childIndex int) bool {
	var edge EdgeShape
	chain.ChildEdge(&edge, childIndex)
	return edge.RayCast(output, input, xf, 0)
}

func (chain *ChainShape) ComputeAABB(xf Transform, childIndex int) AABB {
	v1 := TransformMulVec(xf, chain.Vertices[childIndex])
	v2 := TransformMulVec(xf, chain.Vertices[childIndex+1])

	r := Vec2{chain.radius, chain.radius}
	return AABB{
		LowerBound: Vec2Min(v1, v2).Sub(r),
		UpperBound: Vec2Max(v1, v2).Add(r),
	}
}

/// ComputeMass: chains have no mass.
func (chain *ChainShape) ComputeMass(density float64) MassData {
	return MassData{}
}
