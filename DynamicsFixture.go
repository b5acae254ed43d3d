package kbox2d

import "github.com/pkg/errors"

/// This holds contact filtering data.
type Filter struct {
	/// The collision category bits. Normally you would just set one bit.
	CategoryBits uint16 `yaml:"category"`

	/// The collision mask bits. This states the categories that this
	/// shape would accept for collision.
	MaskBits uint16 `yaml:"mask"`

	/// Collision groups allow a certain group of objects to never collide (negative)
	/// or always collide (positive). Zero means no collision group. Non-zero group
	/// filtering always wins against the mask bits.
	GroupIndex int16 `yaml:"group"`
}

func MakeFilter() Filter {
	return Filter{
		CategoryBits: 0x0001,
		MaskBits:     0xFFFF,
	}
}

/// A fixture definition is used to create a fixture. You can reuse fixture
/// definitions safely.
type FixtureDef struct {
	/// The shape, this must be set. The shape will be cloned, so you
	/// can reuse it.
	Shape Shape

	/// Use this to store application specific fixture data.
	UserData interface{}

	/// The friction coefficient, usually in the range [0,1].
	Friction float64

	/// The restitution (elasticity) usually in the range [0,1].
	Restitution float64

	/// The density, usually in kg/m^2.
	Density float64

	/// A sensor shape collects contact information but never generates a collision
	/// response.
	IsSensor bool

	/// Contact filtering data.
	Filter Filter
}

/// MakeFixtureDef returns a definition with the default friction and filter.
func MakeFixtureDef() FixtureDef {
	return FixtureDef{
		Friction: 0.2,
		Filter:   MakeFilter(),
	}
}

/// This proxy is used internally to connect fixtures to the broad-phase.
type FixtureProxy struct {
	AABB       AABB
	Fixture    *Fixture
	ChildIndex int
	ProxyID    int
}

/// A fixture is used to attach a shape to a body for collision detection. A
/// fixture inherits its transform from its parent. Fixtures hold additional
/// non-geometric data such as friction, collision filters, etc.
/// Fixtures are created via Body.CreateFixture and cannot be reused.
type Fixture struct {
	density float64

	next *Fixture
	body *Body

	shape Shape

	friction    float64
	restitution float64

	// One per shape child while the body is active, empty otherwise.
	proxies []FixtureProxy

	filter Filter

	isSensor bool

	userData interface{}
}

// newFixture validates and clones the definition's shape.
func newFixture(body *Body, def *FixtureDef) (*Fixture, error) {
	if def.Shape == nil {
		return nil, errors.New("kbox2d: fixture definition has no shape")
	}

	if err := def.Shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "kbox2d: create fixture")
	}

	if !IsValid(def.Density) || def.Density < 0.0 {
		return nil, errors.Errorf("kbox2d: create fixture: invalid density %v", def.Density)
	}

	return &Fixture{
		body:        body,
		shape:       def.Shape.Clone(),
		density:     def.Density,
		friction:    def.Friction,
		restitution: def.Restitution,
		filter:      def.Filter,
		isSensor:    def.IsSensor,
		userData:    def.UserData,
	}, nil
}

/// Type returns the kind of the child shape.
func (fix *Fixture) Type() ShapeKind { return fix.shape.Kind() }

/// Shape returns the fixture's private copy of the shape. Do not modify it.
func (fix *Fixture) Shape() Shape { return fix.shape }

func (fix *Fixture) Body() *Body           { return fix.body }
func (fix *Fixture) Next() *Fixture        { return fix.next }
func (fix *Fixture) IsSensor() bool        { return fix.isSensor }
func (fix *Fixture) FilterData() Filter    { return fix.filter }
func (fix *Fixture) UserData() interface{} { return fix.userData }

func (fix *Fixture) SetUserData(data interface{}) { fix.userData = data }

/// SetSensor wakes the body; the contacts pick the change up on the next step.
func (fix *Fixture) SetSensor(sensor bool) {
	if sensor != fix.isSensor {
		fix.body.SetAwake(true)
		fix.isSensor = sensor
	}
}

/// SetDensity does not update the body mass. Call Body.ResetMassData.
func (fix *Fixture) SetDensity(density float64) {
	assert(IsValid(density) && density >= 0.0, "invalid density")
	fix.density = density
}

func (fix *Fixture) Density() float64 { return fix.density }

/// SetFriction does not change the friction of existing contacts.
func (fix *Fixture) SetFriction(friction float64) { fix.friction = friction }
func (fix *Fixture) Friction() float64            { return fix.friction }

func (fix *Fixture) SetRestitution(restitution float64) { fix.restitution = restitution }
func (fix *Fixture) Restitution() float64               { return fix.restitution }

/// TestPoint tests a world point for containment.
func (fix *Fixture) TestPoint(p Vec2) bool {
	return fix.shape.TestPoint(fix.body.xf, p)
}

/// RayCast casts a ray against one shape child.
func (fix *Fixture) RayCast(output *RayCastOutput, input RayCastInput, childIndex int) bool {
	return fix.shape.RayCast(output, input, fix.body.xf, childIndex)
}

/// MassData is computed from the shape and density.
func (fix *Fixture) MassData() MassData {
	return fix.shape.ComputeMass(fix.density)
}

/// AABB returns the bounds of a shape child swept over the last step. Valid
/// only while the body is active.
func (fix *Fixture) AABB(childIndex int) AABB {
	assert(0 <= childIndex && childIndex < len(fix.proxies), "child index out of range")
	return fix.proxies[childIndex].AABB
}

func (fix *Fixture) createProxies(broadPhase *BroadPhase, xf Transform) {
	assert(len(fix.proxies) == 0, "fixture proxies already exist")

	// Create proxies in the broad-phase.
	count := fix.shape.ChildCount()
	fix.proxies = make([]FixtureProxy, count)
	for i := range fix.proxies {
		proxy := &fix.proxies[i]
		proxy.AABB = fix.shape.ComputeAABB(xf, i)
		proxy.Fixture = fix
		proxy.ChildIndex = i
		proxy.ProxyID = broadPhase.CreateProxy(proxy.AABB, proxy)
	}
}

func (fix *Fixture) destroyProxies(broadPhase *BroadPhase) {
	// Destroy proxies in the broad-phase.
	for i := range fix.proxies {
		proxy := &fix.proxies[i]
		broadPhase.DestroyProxy(proxy.ProxyID)
		proxy.ProxyID = nullProxy
	}

	fix.proxies = nil
}

// synchronize moves the proxies to cover the swept shape between the two
// transforms.
func (fix *Fixture) synchronize(pool *WorldPool, broadPhase *BroadPhase, transform1, transform2 Transform) {
	if len(fix.proxies) == 0 {
		return
	}

	aabb1 := pool.popAABB()
	aabb2 := pool.popAABB()
	defer pool.pushAABB(2)

	for i := range fix.proxies {
		proxy := &fix.proxies[i]

		// Compute an AABB that covers the swept shape (may miss some rotation effect).
		*aabb1 = fix.shape.ComputeAABB(transform1, proxy.ChildIndex)
		*aabb2 = fix.shape.ComputeAABB(transform2, proxy.ChildIndex)

		proxy.AABB.CombineTwoInPlace(*aabb1, *aabb2)

		displacement := aabb2.Center().Sub(aabb1.Center())

		broadPhase.MoveProxy(proxy.ProxyID, proxy.AABB, displacement)
	}
}

/// SetFilterData sets the contact filtering data. This will not update
/// contacts until the next time step when either parent body is active and
/// awake. This automatically calls Refilter.
func (fix *Fixture) SetFilterData(filter Filter) {
	fix.filter = filter
	fix.Refilter()
}

/// Refilter flags the fixture's contacts for filtering and touches its proxies
/// so that new pairs may be created.
func (fix *Fixture) Refilter() {
	if fix.body == nil {
		return
	}

	// Flag associated contacts for filtering.
	for edge := fix.body.contactList; edge != nil; edge = edge.Next {
		contact := edge.Contact
		if contact.fixtureA == fix || contact.fixtureB == fix {
			contact.FlagForFiltering()
		}
	}

	world := fix.body.world
	if world == nil {
		return
	}

	// Touch each proxy so that new pairs may be created
	broadPhase := world.contactManager.broadPhase
	for i := range fix.proxies {
		broadPhase.TouchProxy(fix.proxies[i].ProxyID)
	}
}
