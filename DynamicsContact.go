package kbox2d

/// ContactKind names the shape pair a contact handles. Each kind has its own
/// free-list in the WorldPool.
type ContactKind uint8

const (
	CircleContactKind ContactKind = iota
	PolygonAndCircleContactKind
	PolygonContactKind
	EdgeAndCircleContactKind
	EdgeAndPolygonContactKind
	ChainAndCircleContactKind
	ChainAndPolygonContactKind
	contactKindCount
)

func (k ContactKind) String() string {
	switch k {
	case CircleContactKind:
		return "circle-circle"
	case PolygonAndCircleContactKind:
		return "polygon-circle"
	case PolygonContactKind:
		return "polygon-polygon"
	case EdgeAndCircleContactKind:
		return "edge-circle"
	case EdgeAndPolygonContactKind:
		return "edge-polygon"
	case ChainAndCircleContactKind:
		return "chain-circle"
	case ChainAndPolygonContactKind:
		return "chain-polygon"
	}
	return "unknown"
}

// evaluateFunc computes the manifold of a contact of one kind. Shapes are in
// the contact's fixture order.
type evaluateFunc func(c *Contact, pool *WorldPool, manifold *Manifold, xfA, xfB Transform)

var contactEvaluators = [contactKindCount]evaluateFunc{
	CircleContactKind: func(c *Contact, pool *WorldPool, manifold *Manifold, xfA, xfB Transform) {
		CollideCircles(manifold, c.fixtureA.shape.(*CircleShape), xfA, c.fixtureB.shape.(*CircleShape), xfB)
	},
	PolygonAndCircleContactKind: func(c *Contact, pool *WorldPool, manifold *Manifold, xfA, xfB Transform) {
		CollidePolygonAndCircle(manifold, c.fixtureA.shape.(*PolygonShape), xfA, c.fixtureB.shape.(*CircleShape), xfB)
	},
	PolygonContactKind: func(c *Contact, pool *WorldPool, manifold *Manifold, xfA, xfB Transform) {
		CollidePolygons(pool, manifold, c.fixtureA.shape.(*PolygonShape), xfA, c.fixtureB.shape.(*PolygonShape), xfB)
	},
	EdgeAndCircleContactKind: func(c *Contact, pool *WorldPool, manifold *Manifold, xfA, xfB Transform) {
		CollideEdgeAndCircle(manifold, c.fixtureA.shape.(*EdgeShape), xfA, c.fixtureB.shape.(*CircleShape), xfB)
	},
	EdgeAndPolygonContactKind: func(c *Contact, pool *WorldPool, manifold *Manifold, xfA, xfB Transform) {
		CollideEdgeAndPolygon(pool, manifold, c.fixtureA.shape.(*EdgeShape), xfA, c.fixtureB.shape.(*PolygonShape), xfB)
	},
	ChainAndCircleContactKind: func(c *Contact, pool *WorldPool, manifold *Manifold, xfA, xfB Transform) {
		var edge EdgeShape
		c.fixtureA.shape.(*ChainShape).ChildEdge(&edge, c.indexA)
		CollideEdgeAndCircle(manifold, &edge, xfA, c.fixtureB.shape.(*CircleShape), xfB)
	},
	ChainAndPolygonContactKind: func(c *Contact, pool *WorldPool, manifold *Manifold, xfA, xfB Transform) {
		var edge EdgeShape
		c.fixtureA.shape.(*ChainShape).ChildEdge(&edge, c.indexA)
		CollideEdgeAndPolygon(pool, manifold, &edge, xfA, c.fixtureB.shape.(*PolygonShape), xfB)
	},
}

type contactRegister struct {
	kind    ContactKind
	primary bool // false when fixtures must be swapped
	valid   bool
}

// contactRegistry maps a (kindA, kindB) shape pair to its contact kind.
// Pairs without an entry never collide (edge-edge, chain-chain, edge-chain).
var contactRegistry = func() (table [shapeKindCount][shapeKindCount]contactRegister) {
	add := func(kind ContactKind, a, b ShapeKind) {
		table[a][b] = contactRegister{kind: kind, primary: true, valid: true}
		if a != b {
			table[b][a] = contactRegister{kind: kind, primary: false, valid: true}
		}
	}

	add(CircleContactKind, CircleShapeKind, CircleShapeKind)
	add(PolygonAndCircleContactKind, PolygonShapeKind, CircleShapeKind)
	add(PolygonContactKind, PolygonShapeKind, PolygonShapeKind)
	add(EdgeAndCircleContactKind, EdgeShapeKind, CircleShapeKind)
	add(EdgeAndPolygonContactKind, EdgeShapeKind, PolygonShapeKind)
	add(ChainAndCircleContactKind, ChainShapeKind, CircleShapeKind)
	add(ChainAndPolygonContactKind, ChainShapeKind, PolygonShapeKind)
	return table
}()

const (
	// Used when crawling contact graph when forming islands.
	contactIslandFlag uint32 = 0x0001

	// Set when the shapes are touching.
	contactTouchingFlag uint32 = 0x0002

	// This contact can be disabled (by user)
	contactEnabledFlag uint32 = 0x0004

	// This contact needs filtering because a fixture filter was changed.
	contactFilterFlag uint32 = 0x0008

	// This bullet contact had a TOI event
	contactBulletHitFlag uint32 = 0x0010

	// This contact has a valid TOI in toi
	contactTOIFlag uint32 = 0x0020
)

/// A contact edge is used to connect bodies and contacts together in a
/// contact graph where each body is a node and each contact is an edge. A
/// contact edge belongs to a doubly linked list maintained in each attached
/// body. Each contact has two contact nodes, one for each attached body.
type ContactEdge struct {
	Other   *Body        ///< provides quick access to the other body attached.
	Contact *Contact     ///< the contact
	Prev    *ContactEdge ///< the previous contact edge in the body's contact list
	Next    *ContactEdge ///< the next contact edge in the body's contact list
}

/// The class manages contact between two shapes. A contact exists for each
/// overlapping AABB in the broad-phase (except if filtered). Therefore a
/// contact object may exist that has no contact points.
///
/// Contacts are recycled through per-kind free-lists; a *Contact must not be
/// kept across steps. Keep Handle() and resolve it with World.Contact.
type Contact struct {
	handle ContactHandle
	flags  uint32

	// World pool and list pointers.
	prev *Contact
	next *Contact

	// Nodes for connecting bodies.
	nodeA ContactEdge
	nodeB ContactEdge

	fixtureA *Fixture
	fixtureB *Fixture

	indexA int
	indexB int

	manifold Manifold

	toiCount int
	toi      float64

	friction     float64
	restitution  float64
	tangentSpeed float64
}

func (c *Contact) Handle() ContactHandle { return c.handle }
func (c *Contact) Kind() ContactKind     { return c.handle.Kind }

/// Manifold returns the contact manifold. Do not modify the manifold
/// unless you understand the internals.
func (c *Contact) Manifold() *Manifold { return &c.manifold }

/// WorldManifold evaluates the manifold with the current body transforms.
func (c *Contact) WorldManifold(worldManifold *WorldManifold) {
	bodyA := c.fixtureA.body
	bodyB := c.fixtureB.body
	worldManifold.Initialize(&c.manifold, bodyA.xf, c.fixtureA.shape.Radius(), bodyB.xf, c.fixtureB.shape.Radius())
}

/// IsTouching reports whether the manifold has points.
func (c *Contact) IsTouching() bool {
	return c.flags&contactTouchingFlag == contactTouchingFlag
}

/// SetEnabled enables or disables the contact. This can be used inside the
/// pre-solve contact listener. The contact is only disabled for the current
/// time step (or sub-step in continuous collisions).
func (c *Contact) SetEnabled(flag bool) {
	if flag {
		c.flags |= contactEnabledFlag
	} else {
		c.flags &^= contactEnabledFlag
	}
}

func (c *Contact) IsEnabled() bool {
	return c.flags&contactEnabledFlag == contactEnabledFlag
}

/// Next returns the next contact in the world's contact list.
func (c *Contact) Next() *Contact { return c.next }

func (c *Contact) FixtureA() *Fixture { return c.fixtureA }
func (c *Contact) ChildIndexA() int   { return c.indexA }
func (c *Contact) FixtureB() *Fixture { return c.fixtureB }
func (c *Contact) ChildIndexB() int   { return c.indexB }

/// Override the default friction mixture. You can call this in
/// PreSolve. The value persists until set or reset.
func (c *Contact) SetFriction(friction float64) { c.friction = friction }
func (c *Contact) Friction() float64            { return c.friction }

/// ResetFriction restores the mixed fixture friction.
func (c *Contact) ResetFriction() {
	c.friction = MixFriction(c.fixtureA.friction, c.fixtureB.friction)
}

func (c *Contact) SetRestitution(restitution float64) { c.restitution = restitution }
func (c *Contact) Restitution() float64               { return c.restitution }

func (c *Contact) ResetRestitution() {
	c.restitution = MixRestitution(c.fixtureA.restitution, c.fixtureB.restitution)
}

/// SetTangentSpeed sets the desired tangent speed for a conveyor belt
/// behavior, in meters per second.
func (c *Contact) SetTangentSpeed(speed float64) { c.tangentSpeed = speed }
func (c *Contact) TangentSpeed() float64         { return c.tangentSpeed }

/// FlagForFiltering makes the next Collide re-run the filter on this contact.
func (c *Contact) FlagForFiltering() {
	c.flags |= contactFilterFlag
}

// newContact takes a contact for the fixture pair from the pool. Fixtures are
// swapped when the registry stores the pair the other way around. Returns
// nil for pairs that never collide.
func newContact(pool *WorldPool, fixtureA *Fixture, indexA int, fixtureB *Fixture, indexB int) *Contact {
	reg := contactRegistry[fixtureA.shape.Kind()][fixtureB.shape.Kind()]
	if !reg.valid {
		return nil
	}

	if !reg.primary {
		fixtureA, fixtureB = fixtureB, fixtureA
		indexA, indexB = indexB, indexA
	}

	c := pool.allocContact(reg.kind)
	c.flags = contactEnabledFlag
	c.fixtureA = fixtureA
	c.fixtureB = fixtureB
	c.indexA = indexA
	c.indexB = indexB
	c.friction = MixFriction(fixtureA.friction, fixtureB.friction)
	c.restitution = MixRestitution(fixtureA.restitution, fixtureB.restitution)
	return c
}

// evaluate runs the narrow phase for this contact.
func (c *Contact) evaluate(pool *WorldPool, manifold *Manifold, xfA, xfB Transform) {
	contactEvaluators[c.handle.Kind](c, pool, manifold, xfA, xfB)
}

// update refreshes the manifold, carries warm starting impulses over by
// contact id and reports touch transitions to the listener. It returns the
// number of manifold points dropped for non-finite data.
func (c *Contact) update(pool *WorldPool, listener ContactListener) int {
	oldManifold := c.manifold

	// Re-enable this contact.
	c.flags |= contactEnabledFlag

	touching := false
	wasTouching := c.flags&contactTouchingFlag == contactTouchingFlag

	sensor := c.fixtureA.isSensor || c.fixtureB.isSensor

	bodyA := c.fixtureA.body
	bodyB := c.fixtureB.body
	xfA := bodyA.xf
	xfB := bodyB.xf

	dropped := 0

	// Is this contact a sensor?
	if sensor {
		touching = TestOverlap(pool, c.fixtureA.shape, c.indexA, c.fixtureB.shape, c.indexB, xfA, xfB)

		// Sensors don't generate manifolds.
		c.manifold.PointCount = 0
	} else {
		c.evaluate(pool, &c.manifold, xfA, xfB)
		dropped = c.manifold.dropInvalidPoints()
		touching = c.manifold.PointCount > 0

		// Match old contact ids to new contact ids and copy the
		// stored impulses to warm start the solver. Points whose id
		// changed start cold.
		for i := 0; i < c.manifold.PointCount; i++ {
			mp2 := &c.manifold.Points[i]
			mp2.NormalImpulse = 0.0
			mp2.TangentImpulse = 0.0
			key := mp2.ID.Key()

			for j := 0; j < oldManifold.PointCount; j++ {
				mp1 := &oldManifold.Points[j]

				if mp1.ID.Key() == key {
					mp2.NormalImpulse = mp1.NormalImpulse
					mp2.TangentImpulse = mp1.TangentImpulse
					break
				}
			}
		}

		if touching != wasTouching {
			bodyA.SetAwake(true)
			bodyB.SetAwake(true)
		}
	}

	if touching {
		c.flags |= contactTouchingFlag
	} else {
		c.flags &^= contactTouchingFlag
	}

	if listener != nil {
		if !wasTouching && touching {
			listener.BeginContact(c)
		}

		if wasTouching && !touching {
			listener.EndContact(c)
		}

		if !sensor && touching {
			listener.PreSolve(c, &oldManifold)
		}
	}

	return dropped
}
