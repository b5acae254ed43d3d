package kbox2d

/// Joints and fixtures are destroyed when their associated body is
/// destroyed. Implement this listener so that you may nullify references to
/// these joints and fixtures.
type DestructionListener interface {
	/// Called when any fixture is about to be destroyed due to the
	/// destruction of its parent body.
	SayGoodbyeToFixture(fixture *Fixture)

	/// Called when any joint is about to be destroyed due to the
	/// destruction of one of its attached bodies.
	SayGoodbyeToJoint(joint Joint)
}

/// Implement this to provide collision filtering.
type ContactFilter interface {
	/// Return true if contact calculations should be performed between these
	/// two fixtures.
	ShouldCollide(fixtureA, fixtureB *Fixture) bool
}

/// DefaultContactFilter collides fixtures that share a positive group
/// index, never those sharing a negative one, and otherwise consults the
/// category and mask bits.
type DefaultContactFilter struct{}

func (DefaultContactFilter) ShouldCollide(fixtureA, fixtureB *Fixture) bool {
	filterA := fixtureA.FilterData()
	filterB := fixtureB.FilterData()

	if filterA.GroupIndex == filterB.GroupIndex && filterA.GroupIndex != 0 {
		return filterA.GroupIndex > 0
	}

	return filterA.MaskBits&filterB.CategoryBits != 0 && filterA.CategoryBits&filterB.MaskBits != 0
}

/// Contact impulses for reporting. Impulses are used instead of forces
/// because sub-step forces may approach infinity for rigid body collisions.
/// These match up one-to-one with the contact points in the manifold.
type ContactImpulse struct {
	NormalImpulses  [MaxManifoldPoints]float64
	TangentImpulses [MaxManifoldPoints]float64
	Count           int
}

/// Implement this to get contact information. Contacts handed to the
/// listener are pooled: keep Contact.Handle() and resolve it with
/// World.Contact instead of holding on to the pointer.
///
/// You cannot create or destroy bodies, fixtures or joints inside these
/// callbacks synchronously; such requests are queued and applied when the
/// step finishes.
type ContactListener interface {
	/// Called when two fixtures begin to touch.
	BeginContact(contact *Contact)

	/// Called when two fixtures cease to touch.
	EndContact(contact *Contact)

	/// Called after a contact is updated and before it goes to the solver.
	/// oldManifold is the manifold from the previous step. Disabling the
	/// contact here skips it for the current step only.
	PreSolve(contact *Contact, oldManifold *Manifold)

	/// Called after the solver has finished, with the applied impulses.
	PostSolve(contact *Contact, impulse *ContactImpulse)
}

/// QueryCallback is called for each fixture found in the query AABB.
/// Return false to terminate the query.
type QueryCallback func(fixture *Fixture) bool

/// RayCastCallback is called for each fixture found by the ray cast, with
/// the intersection point, normal and fraction along the ray. The return
/// value controls the cast:
///   -1 ignores this fixture and continues,
///    0 terminates the ray cast,
///    fraction clips the ray to this point,
///    1 continues as if there was no hit.
type RayCastCallback func(fixture *Fixture, point, normal Vec2, fraction float64) float64
