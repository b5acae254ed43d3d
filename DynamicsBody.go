package kbox2d

import (
	"fmt"
	"math"
)

/// The body type.
/// static: zero mass, zero velocity, may be manually moved
/// kinematic: zero mass, non-zero velocity set by user, moved by solver
/// dynamic: positive mass, non-zero velocity determined by forces, moved by solver
type BodyType uint8

const (
	StaticBody BodyType = iota
	KinematicBody
	DynamicBody
)

func (t BodyType) String() string {
	switch t {
	case StaticBody:
		return "static"
	case KinematicBody:
		return "kinematic"
	case DynamicBody:
		return "dynamic"
	}
	return fmt.Sprintf("BodyType(%d)", uint8(t))
}

/// A body definition holds all the data needed to construct a rigid body.
/// You can safely re-use body definitions. Shapes are added to a body after construction.
type BodyDef struct {
	/// The body type: static, kinematic, or dynamic.
	/// Note: if a dynamic body would have zero mass, the mass is set to one.
	Type BodyType

	/// The world position of the body. Avoid creating bodies at the origin
	/// since this can lead to many overlapping shapes.
	Position Vec2

	/// The world angle of the body in radians.
	Angle float64

	/// The linear velocity of the body's origin in world co-ordinates.
	LinearVelocity Vec2

	/// The angular velocity of the body.
	AngularVelocity float64

	/// Linear damping is use to reduce the linear velocity. The damping parameter
	/// can be larger than 1.0 but the damping effect becomes sensitive to the
	/// time step when the damping parameter is large.
	/// Units are 1/time
	LinearDamping float64

	/// Angular damping is use to reduce the angular velocity.
	/// Units are 1/time
	AngularDamping float64

	/// Set this flag to false if this body should never fall asleep. Note that
	/// this increases CPU usage.
	AllowSleep bool

	/// Is this body initially awake or sleeping?
	Awake bool

	/// Should this body be prevented from rotating? Useful for characters.
	FixedRotation bool

	/// Is this a fast moving body that should be prevented from tunneling through
	/// other moving bodies? Note that all bodies are prevented from tunneling through
	/// kinematic and static bodies. This setting is only considered on dynamic bodies.
	Bullet bool

	/// Does this body start out active?
	Active bool

	/// Use this to store application specific body data.
	UserData interface{}

	/// Scale the gravity applied to this body.
	GravityScale float64
}

/// MakeBodyDef returns a static body definition with the default values.
func MakeBodyDef() BodyDef {
	return BodyDef{
		AllowSleep:   true,
		Awake:        true,
		Active:       true,
		GravityScale: 1.0,
	}
}

func (bd *BodyDef) validate() {
	assert(bd.Position.IsValid(), "body position is not finite")
	assert(bd.LinearVelocity.IsValid(), "body velocity is not finite")
	assert(IsValid(bd.Angle), "body angle is not finite")
	assert(IsValid(bd.AngularVelocity), "body angular velocity is not finite")
	assert(IsValid(bd.AngularDamping) && bd.AngularDamping >= 0.0, "invalid angular damping")
	assert(IsValid(bd.LinearDamping) && bd.LinearDamping >= 0.0, "invalid linear damping")
}

const (
	bodyIslandFlag        uint32 = 0x0001
	bodyAwakeFlag         uint32 = 0x0002
	bodyAutoSleepFlag     uint32 = 0x0004
	bodyBulletFlag        uint32 = 0x0008
	bodyFixedRotationFlag uint32 = 0x0010
	bodyActiveFlag        uint32 = 0x0020
	bodyTOIFlag           uint32 = 0x0040
)

/// A rigid body. These are created via World.CreateBody.
type Body struct {
	bodyType BodyType

	flags uint32

	islandIndex int

	xf    Transform // the body origin transform
	sweep Sweep     // the swept motion for CCD

	linearVelocity  Vec2
	angularVelocity float64

	// Last state that passed the end of step check. A non-finite solve
	// rewinds the body here.
	validPosition        Vec2
	validAngle           float64
	validLinearVelocity  Vec2
	validAngularVelocity float64

	force  Vec2
	torque float64

	world *World
	prev  *Body
	next  *Body

	fixtureList  *Fixture // linked list
	fixtureCount int

	jointList   *JointEdge   // linked list
	contactList *ContactEdge // linked list

	mass, invMass float64

	// Rotational inertia about the center of mass.
	I, invI float64

	linearDamping  float64
	angularDamping float64
	gravityScale   float64

	sleepTime float64

	userData interface{}

	// Set once the body has left the world; pending operations on it are
	// dropped.
	destroyed bool
}

func newBody(bd *BodyDef, world *World) *Body {
	bd.validate()

	body := &Body{
		bodyType:        bd.Type,
		world:           world,
		linearVelocity:  bd.LinearVelocity,
		angularVelocity: bd.AngularVelocity,
		linearDamping:   bd.LinearDamping,
		angularDamping:  bd.AngularDamping,
		gravityScale:    bd.GravityScale,
		userData:        bd.UserData,
	}

	if bd.Bullet {
		body.flags |= bodyBulletFlag
	}
	if bd.FixedRotation {
		body.flags |= bodyFixedRotationFlag
	}
	if bd.AllowSleep {
		body.flags |= bodyAutoSleepFlag
	}
	if bd.Awake && bd.Type != StaticBody {
		body.flags |= bodyAwakeFlag
	}
	if bd.Active {
		body.flags |= bodyActiveFlag
	}

	body.xf.P = bd.Position
	body.xf.Q.Set(bd.Angle)

	body.sweep.C0 = body.xf.P
	body.sweep.C = body.xf.P
	body.sweep.A0 = bd.Angle
	body.sweep.A = bd.Angle

	if body.bodyType == DynamicBody {
		body.mass = 1.0
		body.invMass = 1.0
	}

	body.saveValidState()

	return body
}

func (body *Body) Type() BodyType { return body.bodyType }

/// Transform returns the body origin transform.
func (body *Body) Transform() Transform { return body.xf }

/// Position returns the world position of the body origin.
func (body *Body) Position() Vec2 { return body.xf.P }

/// Angle returns the body angle in radians.
func (body *Body) Angle() float64 { return body.sweep.A }

/// WorldCenter returns the world position of the center of mass.
func (body *Body) WorldCenter() Vec2 { return body.sweep.C }

/// LocalCenter returns the local position of the center of mass.
func (body *Body) LocalCenter() Vec2 { return body.sweep.LocalCenter }

func (body *Body) LinearVelocity() Vec2     { return body.linearVelocity }
func (body *Body) AngularVelocity() float64 { return body.angularVelocity }

/// SetLinearVelocity sets the velocity of the center of mass. Static bodies
/// ignore it.
func (body *Body) SetLinearVelocity(v Vec2) {
	if body.bodyType == StaticBody {
		return
	}

	if !v.IsValid() {
		body.world.logf("SetLinearVelocity ignored: non-finite velocity %v", v)
		return
	}

	if v.Dot(v) > 0.0 {
		body.SetAwake(true)
	}

	body.linearVelocity = v
	body.validLinearVelocity = v
}

func (body *Body) SetAngularVelocity(w float64) {
	if body.bodyType == StaticBody {
		return
	}

	if !IsValid(w) {
		body.world.logf("SetAngularVelocity ignored: non-finite velocity %v", w)
		return
	}

	if w*w > 0.0 {
		body.SetAwake(true)
	}

	body.angularVelocity = w
	body.validAngularVelocity = w
}

func (body *Body) Mass() float64 { return body.mass }

/// Inertia returns the rotational inertia about the local origin.
func (body *Body) Inertia() float64 {
	return body.I + body.mass*body.sweep.LocalCenter.Dot(body.sweep.LocalCenter)
}

func (body *Body) MassData() MassData {
	return MassData{
		Mass:   body.mass,
		I:      body.Inertia(),
		Center: body.sweep.LocalCenter,
	}
}

func (body *Body) WorldPoint(localPoint Vec2) Vec2   { return TransformMulVec(body.xf, localPoint) }
func (body *Body) WorldVector(localVector Vec2) Vec2 { return RotMulVec(body.xf.Q, localVector) }
func (body *Body) LocalPoint(worldPoint Vec2) Vec2   { return TransformMulTVec(body.xf, worldPoint) }
func (body *Body) LocalVector(worldVector Vec2) Vec2 { return RotMulTVec(body.xf.Q, worldVector) }

func (body *Body) LinearVelocityFromWorldPoint(worldPoint Vec2) Vec2 {
	return body.linearVelocity.Add(CrossSV(body.angularVelocity, worldPoint.Sub(body.sweep.C)))
}

func (body *Body) LinearVelocityFromLocalPoint(localPoint Vec2) Vec2 {
	return body.LinearVelocityFromWorldPoint(body.WorldPoint(localPoint))
}

func (body *Body) LinearDamping() float64  { return body.linearDamping }
func (body *Body) AngularDamping() float64 { return body.angularDamping }
func (body *Body) GravityScale() float64   { return body.gravityScale }

func (body *Body) SetLinearDamping(linearDamping float64)   { body.linearDamping = linearDamping }
func (body *Body) SetAngularDamping(angularDamping float64) { body.angularDamping = angularDamping }
func (body *Body) SetGravityScale(scale float64)            { body.gravityScale = scale }

/// SetBullet treats the body like a bullet for continuous collision detection.
func (body *Body) SetBullet(flag bool) {
	if flag {
		body.flags |= bodyBulletFlag
	} else {
		body.flags &^= bodyBulletFlag
	}
}

func (body *Body) IsBullet() bool {
	return body.flags&bodyBulletFlag == bodyBulletFlag
}

/// SetAwake wakes the body or puts it to sleep. A sleeping body has very low
/// CPU cost and loses its velocity and accumulated forces.
func (body *Body) SetAwake(flag bool) {
	if body.bodyType == StaticBody {
		return
	}

	if flag {
		body.flags |= bodyAwakeFlag
		body.sleepTime = 0.0
	} else {
		body.flags &^= bodyAwakeFlag
		body.sleepTime = 0.0
		body.linearVelocity.SetZero()
		body.angularVelocity = 0.0
		body.validLinearVelocity.SetZero()
		body.validAngularVelocity = 0.0
		body.force.SetZero()
		body.torque = 0.0
	}
}

func (body *Body) IsAwake() bool {
	return body.flags&bodyAwakeFlag == bodyAwakeFlag
}

func (body *Body) IsActive() bool {
	return body.flags&bodyActiveFlag == bodyActiveFlag
}

func (body *Body) IsFixedRotation() bool {
	return body.flags&bodyFixedRotationFlag == bodyFixedRotationFlag
}

/// SetSleepingAllowed disables sleeping on this body when flag is false. The
/// body is woken up in that case.
func (body *Body) SetSleepingAllowed(flag bool) {
	if flag {
		body.flags |= bodyAutoSleepFlag
	} else {
		body.flags &^= bodyAutoSleepFlag
		body.SetAwake(true)
	}
}

func (body *Body) IsSleepingAllowed() bool {
	return body.flags&bodyAutoSleepFlag == bodyAutoSleepFlag
}

func (body *Body) FixtureList() *Fixture     { return body.fixtureList }
func (body *Body) JointList() *JointEdge     { return body.jointList }
func (body *Body) ContactList() *ContactEdge { return body.contactList }
func (body *Body) Next() *Body               { return body.next }
func (body *Body) UserData() interface{}     { return body.userData }
func (body *Body) SetUserData(d interface{}) { body.userData = d }
func (body *Body) World() *World             { return body.world }
func (body *Body) IsDestroyed() bool         { return body.destroyed }

// wake reports whether the body accepts forces, waking it when asked to.
func (body *Body) wake(wake bool) bool {
	if body.bodyType != DynamicBody {
		return false
	}

	if wake && body.flags&bodyAwakeFlag == 0 {
		body.SetAwake(true)
	}

	// Don't accumulate a force if the body is sleeping.
	return body.flags&bodyAwakeFlag != 0
}

/// ApplyForce applies a force at a world point. If the force is not applied
/// at the center of mass, it will generate a torque and affect the angular
/// velocity.
func (body *Body) ApplyForce(force, point Vec2, wake bool) {
	if body.wake(wake) {
		body.force = body.force.Add(force)
		body.torque += point.Sub(body.sweep.C).Cross(force)
	}
}

func (body *Body) ApplyForceToCenter(force Vec2, wake bool) {
	if body.wake(wake) {
		body.force = body.force.Add(force)
	}
}

/// ApplyTorque affects the angular velocity without affecting the linear
/// velocity of the center of mass.
func (body *Body) ApplyTorque(torque float64, wake bool) {
	if body.wake(wake) {
		body.torque += torque
	}
}

/// ApplyLinearImpulse applies an impulse at a point. This immediately
/// modifies the velocity. It also modifies the angular velocity if the point
/// of application is not at the center of mass.
func (body *Body) ApplyLinearImpulse(impulse, point Vec2, wake bool) {
	if body.wake(wake) {
		body.linearVelocity = body.linearVelocity.Add(impulse.Mul(body.invMass))
		body.angularVelocity += body.invI * point.Sub(body.sweep.C).Cross(impulse)
	}
}

func (body *Body) ApplyLinearImpulseToCenter(impulse Vec2, wake bool) {
	if body.wake(wake) {
		body.linearVelocity = body.linearVelocity.Add(impulse.Mul(body.invMass))
	}
}

func (body *Body) ApplyAngularImpulse(impulse float64, wake bool) {
	if body.wake(wake) {
		body.angularVelocity += body.invI * impulse
	}
}

func (body *Body) synchronizeTransform() {
	body.xf.Q.Set(body.sweep.A)
	body.xf.P = body.sweep.C.Sub(RotMulVec(body.xf.Q, body.sweep.LocalCenter))
}

// advance moves the body to the new safe time. This doesn't sync the
// broad-phase.
func (body *Body) advance(alpha float64) {
	body.sweep.Advance(alpha)
	body.sweep.C = body.sweep.C0
	body.sweep.A = body.sweep.A0
	body.synchronizeTransform()
}

// stateIsValid checks the solved pose and velocity.
func (body *Body) stateIsValid() bool {
	return body.sweep.C.IsValid() && IsValid(body.sweep.A) &&
		body.linearVelocity.IsValid() && IsValid(body.angularVelocity)
}

// saveValidState records the current pose and velocity as the rewind
// target. Only finite states are saved.
func (body *Body) saveValidState() {
	body.validPosition = body.xf.P
	body.validAngle = body.sweep.A
	body.validLinearVelocity = body.linearVelocity
	body.validAngularVelocity = body.angularVelocity
}

// restoreValidState rewinds the body to its last saved state. The pose is
// kept as the origin transform so a mass change since the save is honored.
func (body *Body) restoreValidState() {
	body.xf.P = body.validPosition
	body.xf.Q.Set(body.validAngle)

	body.sweep.C = TransformMulVec(body.xf, body.sweep.LocalCenter)
	body.sweep.C0 = body.sweep.C
	body.sweep.A = body.validAngle
	body.sweep.A0 = body.validAngle

	body.linearVelocity = body.validLinearVelocity
	body.angularVelocity = body.validAngularVelocity
	body.force.SetZero()
	body.torque = 0.0
}

/// SetType changes the body type. This may alter the mass and velocity.
/// Ignored while the world is stepping.
func (body *Body) SetType(bodyType BodyType) {
	if body.world.IsLocked() {
		body.world.logf("SetType ignored while the world is locked")
		return
	}

	if body.bodyType == bodyType {
		return
	}

	body.bodyType = bodyType

	body.ResetMassData()

	if body.bodyType == StaticBody {
		body.linearVelocity.SetZero()
		body.angularVelocity = 0.0
		body.sweep.A0 = body.sweep.A
		body.sweep.C0 = body.sweep.C
		body.flags &^= bodyAwakeFlag
		body.synchronizeFixtures()
	} else {
		body.SetAwake(true)
	}

	body.force.SetZero()
	body.torque = 0.0

	// Delete the attached contacts.
	body.destroyContacts()

	// Touch the proxies so that new contacts will be created (when appropriate)
	broadPhase := body.world.contactManager.broadPhase
	for f := body.fixtureList; f != nil; f = f.next {
		for i := range f.proxies {
			broadPhase.TouchProxy(f.proxies[i].ProxyID)
		}
	}
}

func (body *Body) destroyContacts() {
	ce := body.contactList
	for ce != nil {
		ce0 := ce
		ce = ce.Next
		body.world.contactManager.destroy(ce0.Contact)
	}
	body.contactList = nil
}

/// CreateFixtureFromDef creates a fixture and attaches it to this body. The
/// shape is validated and cloned; an invalid shape yields an
/// *InvalidShapeError. Contacts are created on the next step. While the
/// world is stepping the attachment is queued and applied when the step
/// ends.
func (body *Body) CreateFixtureFromDef(def *FixtureDef) (*Fixture, error) {
	assert(!body.destroyed, "create fixture on a destroyed body")

	fixture, err := newFixture(body, def)
	if err != nil {
		return nil, err
	}

	if body.world.IsLocked() {
		body.world.enqueue(deferredOp{kind: opCreateFixture, body: body, fixture: fixture})
		return fixture, nil
	}

	body.attachFixture(fixture)
	return fixture, nil
}

/// CreateFixture creates a fixture from a shape with default friction and
/// filtering.
func (body *Body) CreateFixture(shape Shape, density float64) (*Fixture, error) {
	def := MakeFixtureDef()
	def.Shape = shape
	def.Density = density
	return body.CreateFixtureFromDef(&def)
}

func (body *Body) attachFixture(fixture *Fixture) {
	if body.IsActive() {
		fixture.createProxies(body.world.contactManager.broadPhase, body.xf)
	}

	fixture.next = body.fixtureList
	body.fixtureList = fixture
	body.fixtureCount++

	fixture.body = body

	// Adjust mass properties if needed.
	if fixture.density > 0.0 {
		body.ResetMassData()
	}

	// Let the world know we have a new fixture. This will cause new contacts
	// to be created at the beginning of the next time step.
	body.world.flags |= worldNewFixtureFlag
}

/// DestroyFixture removes the fixture from the body and the broad-phase and
/// destroys its contacts. The mass is reset. While the world is stepping the
/// removal is queued.
func (body *Body) DestroyFixture(fixture *Fixture) {
	if fixture == nil {
		return
	}

	if body.world.IsLocked() {
		body.world.enqueue(deferredOp{kind: opDestroyFixture, body: body, fixture: fixture})
		return
	}

	body.detachFixture(fixture)
	body.ResetMassData()
}

// detachFixture leaves the mass untouched.
func (body *Body) detachFixture(fixture *Fixture) {
	assert(fixture.body == body, "fixture belongs to another body")
	assert(body.fixtureCount > 0, "body has no fixtures")

	// Remove the fixture from this body's singly linked list.
	node := &body.fixtureList
	found := false
	for *node != nil {
		if *node == fixture {
			*node = fixture.next
			found = true
			break
		}
		node = &(*node).next
	}

	// You tried to remove a shape that is not attached to this body.
	assert(found, "fixture is not attached to this body")

	// Destroy any contacts associated with the fixture.
	edge := body.contactList
	for edge != nil {
		c := edge.Contact
		edge = edge.Next

		if fixture == c.fixtureA || fixture == c.fixtureB {
			// This destroys the contact and removes it from
			// this body's contact list.
			body.world.contactManager.destroy(c)
		}
	}

	fixture.destroyProxies(body.world.contactManager.broadPhase)

	fixture.body = nil
	fixture.next = nil
	body.fixtureCount--
}

/// ResetMassData recomputes the mass from the fixture densities. This
/// normally does not need to be called unless SetMassData was used to
/// override the mass.
func (body *Body) ResetMassData() {
	// Compute mass data from shapes. Each shape has its own density.
	body.mass = 0.0
	body.invMass = 0.0
	body.I = 0.0
	body.invI = 0.0
	body.sweep.LocalCenter.SetZero()

	// Static and kinematic bodies have zero mass.
	if body.bodyType == StaticBody || body.bodyType == KinematicBody {
		body.sweep.C0 = body.xf.P
		body.sweep.C = body.xf.P
		body.sweep.A0 = body.sweep.A
		return
	}

	// Accumulate mass over all fixtures.
	localCenter := Vec2{}
	for f := body.fixtureList; f != nil; f = f.next {
		if f.density == 0.0 {
			continue
		}

		massData := f.MassData()
		body.mass += massData.Mass
		localCenter = localCenter.Add(massData.Center.Mul(massData.Mass))
		body.I += massData.I
	}

	// Compute center of mass.
	if body.mass > 0.0 {
		body.invMass = 1.0 / body.mass
		localCenter = localCenter.Mul(body.invMass)
	} else {
		// Force all dynamic bodies to have a positive mass.
		body.mass = 1.0
		body.invMass = 1.0
	}

	if body.I > 0.0 && body.flags&bodyFixedRotationFlag == 0 {
		// Center the inertia about the center of mass.
		body.I -= body.mass * localCenter.Dot(localCenter)
		assert(body.I > 0.0, "non-positive rotational inertia")
		body.invI = 1.0 / body.I
	} else {
		body.I = 0.0
		body.invI = 0.0
	}

	body.moveCenterOfMass(localCenter)
}

func (body *Body) moveCenterOfMass(localCenter Vec2) {
	oldCenter := body.sweep.C
	body.sweep.LocalCenter = localCenter
	body.sweep.C = TransformMulVec(body.xf, body.sweep.LocalCenter)
	body.sweep.C0 = body.sweep.C

	// Update center of mass velocity.
	body.linearVelocity = body.linearVelocity.Add(CrossSV(body.angularVelocity, body.sweep.C.Sub(oldCenter)))
}

/// SetMassData overrides the mass properties computed from the fixtures.
/// Only dynamic bodies accept it. Ignored while the world is stepping.
func (body *Body) SetMassData(massData MassData) {
	if body.world.IsLocked() {
		body.world.logf("SetMassData ignored while the world is locked")
		return
	}

	if body.bodyType != DynamicBody {
		return
	}

	body.invMass = 0.0
	body.I = 0.0
	body.invI = 0.0

	body.mass = massData.Mass
	if body.mass <= 0.0 {
		body.mass = 1.0
	}

	body.invMass = 1.0 / body.mass

	if massData.I > 0.0 && body.flags&bodyFixedRotationFlag == 0 {
		body.I = massData.I - body.mass*massData.Center.Dot(massData.Center)
		assert(body.I > 0.0, "non-positive rotational inertia")
		body.invI = 1.0 / body.I
	}

	body.moveCenterOfMass(massData.Center)
}

// shouldCollide is false unless one body is dynamic and no joint between
// the two disables collision.
func (body *Body) shouldCollide(other *Body) bool {
	// At least one body should be dynamic.
	if body.bodyType != DynamicBody && other.bodyType != DynamicBody {
		return false
	}

	// Does a joint prevent collision?
	for jn := body.jointList; jn != nil; jn = jn.Next {
		if jn.Other == other && !jn.Joint.CollideConnected() {
			return false
		}
	}

	return true
}

/// SetTransform sets the position of the body's origin and rotation. This
/// breaks any contacts and wakes the other bodies. It is ignored while the
/// world is stepping.
func (body *Body) SetTransform(position Vec2, angle float64) {
	if body.world.IsLocked() {
		return
	}

	if !position.IsValid() || !IsValid(angle) {
		body.world.logf("SetTransform ignored: non-finite pose %v %v", position, angle)
		return
	}

	body.xf.Q.Set(angle)
	body.xf.P = position

	body.sweep.C = TransformMulVec(body.xf, body.sweep.LocalCenter)
	body.sweep.A = angle

	body.sweep.C0 = body.sweep.C
	body.sweep.A0 = angle

	body.validPosition = position
	body.validAngle = angle

	broadPhase := body.world.contactManager.broadPhase
	for f := body.fixtureList; f != nil; f = f.next {
		f.synchronize(body.world.pool, broadPhase, body.xf, body.xf)
	}

	// Check for new contacts the next step
	body.world.flags |= worldNewFixtureFlag
}

func (body *Body) synchronizeFixtures() {
	pool := body.world.pool
	xf1 := pool.popTransform()
	defer pool.pushTransform(1)

	xf1.Q.Set(body.sweep.A0)
	xf1.P = body.sweep.C0.Sub(RotMulVec(xf1.Q, body.sweep.LocalCenter))

	broadPhase := body.world.contactManager.broadPhase
	for f := body.fixtureList; f != nil; f = f.next {
		f.synchronize(pool, broadPhase, *xf1, body.xf)
	}
}

/// SetActive adds the body to or removes it from the simulation. An inactive
/// body is not simulated, cannot be collided with and keeps its fixtures and
/// joints. Ignored while the world is stepping.
func (body *Body) SetActive(flag bool) {
	if body.world.IsLocked() {
		body.world.logf("SetActive ignored while the world is locked")
		return
	}

	if flag == body.IsActive() {
		return
	}

	broadPhase := body.world.contactManager.broadPhase
	if flag {
		body.flags |= bodyActiveFlag

		// Create all proxies.
		for f := body.fixtureList; f != nil; f = f.next {
			f.createProxies(broadPhase, body.xf)
		}

		// Contacts are created the next time step.
		body.world.flags |= worldNewFixtureFlag
	} else {
		body.flags &^= bodyActiveFlag

		// Destroy all proxies.
		for f := body.fixtureList; f != nil; f = f.next {
			f.destroyProxies(broadPhase)
		}

		// Destroy the attached contacts.
		body.destroyContacts()
	}
}

/// SetFixedRotation prevents the body from rotating. The angular velocity is
/// cleared and the mass data reset.
func (body *Body) SetFixedRotation(flag bool) {
	if flag == body.IsFixedRotation() {
		return
	}

	if flag {
		body.flags |= bodyFixedRotationFlag
	} else {
		body.flags &^= bodyFixedRotationFlag
	}

	body.angularVelocity = 0.0

	body.ResetMassData()
}

/// String is a one line summary used in logs.
func (body *Body) String() string {
	return fmt.Sprintf("%s body at (%.3f, %.3f) angle %.3f v (%.3f, %.3f) w %.3f",
		body.bodyType, body.xf.P.X, body.xf.P.Y, body.sweep.A,
		body.linearVelocity.X, body.linearVelocity.Y, body.angularVelocity)
}

// clampedStep limits the step motion to MaxTranslation and MaxRotation.
func clampedStep(v Vec2, w, h float64) (Vec2, float64) {
	translation := v.Mul(h)
	if translation.Dot(translation) > maxTranslationSquared {
		ratio := MaxTranslation / translation.Length()
		v = v.Mul(ratio)
	}

	rotation := h * w
	if rotation*rotation > maxRotationSquared {
		ratio := MaxRotation / math.Abs(rotation)
		w *= ratio
	}

	return v, w
}
