package kbox2d

import (
	"log"
	"math"
	"os"

	"github.com/pkg/errors"
)

/// ErrWorldLocked is returned by operations that cannot run or be queued
/// while the world is stepping.
var ErrWorldLocked = errors.New("kbox2d: world is locked")

const (
	worldNewFixtureFlag  uint32 = 0x0001
	worldLockedFlag      uint32 = 0x0002
	worldClearForcesFlag uint32 = 0x0004
)

type deferredKind uint8

const (
	opCreateBody deferredKind = iota
	opDestroyBody
	opCreateFixture
	opDestroyFixture
	opCreateJoint
	opDestroyJoint
)

func (k deferredKind) String() string {
	switch k {
	case opCreateBody:
		return "create body"
	case opDestroyBody:
		return "destroy body"
	case opCreateFixture:
		return "create fixture"
	case opDestroyFixture:
		return "destroy fixture"
	case opCreateJoint:
		return "create joint"
	}
	return "destroy joint"
}

// deferredOp is a structural change requested while the world was locked.
type deferredOp struct {
	kind    deferredKind
	body    *Body
	fixture *Fixture
	joint   Joint
}

/// The world class manages all physics entities, dynamic simulation,
/// and asynchronous queries. Each world owns its scratch pool; worlds share
/// no state and a world must only be used from one goroutine at a time.
type World struct {
	flags uint32

	contactManager *ContactManager
	pool           *WorldPool
	logger         *log.Logger

	bodyList  *Body // linked list
	jointList Joint // linked list

	bodyCount  int
	jointCount int

	gravity    Vec2
	allowSleep bool

	destructionListener DestructionListener

	// This is used to compute the time step ratio to
	// support a variable time step.
	invDt0 float64

	// These are for debugging the solver.
	warmStarting      bool
	continuousPhysics bool
	subStepping       bool

	stepComplete bool

	profile Profile

	// Reused across steps.
	island island
	stack  []*Body

	// Structural changes requested while locked, applied in FIFO order
	// when the step ends.
	pending []deferredOp
}

func defaultLogger() *log.Logger {
	return log.New(os.Stderr, "kbox2d: ", log.LstdFlags)
}

/// NewWorld constructs a world object with the default settings and the
/// given gravity.
func NewWorld(gravity Vec2) *World {
	settings := DefaultSettings()
	settings.Gravity = gravity
	return NewWorldFromSettings(settings)
}

/// NewWorldFromSettings constructs a world from loaded settings.
func NewWorldFromSettings(settings Settings) *World {
	logger := defaultLogger()

	capacity := settings.PoolCapacity
	if capacity <= 0 {
		capacity = DefaultPoolCapacity
	}
	pool := NewWorldPool(capacity, logger)

	w := &World{
		contactManager:    newContactManager(pool, logger),
		pool:              pool,
		logger:            logger,
		gravity:           settings.Gravity,
		allowSleep:        settings.AllowSleep,
		warmStarting:      settings.WarmStarting,
		continuousPhysics: settings.ContinuousPhysics,
		subStepping:       settings.SubStepping,
		stepComplete:      true,
	}

	if settings.AutoClearForces {
		w.flags |= worldClearForcesFlag
	}

	w.island.pool = pool

	return w
}

/// SetLogger replaces the logger used for engine warnings. A nil logger
/// silences them.
func (w *World) SetLogger(logger *log.Logger) {
	w.logger = logger
	w.pool.logger = logger
	w.contactManager.logger = logger
}

func (w *World) logf(format string, args ...interface{}) {
	if w.logger != nil {
		w.logger.Printf(format, args...)
	}
}

/// Register a destruction listener. The listener is owned by you and must
/// remain in scope.
func (w *World) SetDestructionListener(listener DestructionListener) {
	w.destructionListener = listener
}

/// Register a contact filter to provide specific control over collision.
/// Otherwise the default filter is used.
func (w *World) SetContactFilter(filter ContactFilter) {
	w.contactManager.contactFilter = filter
}

/// Register a contact event listener.
func (w *World) SetContactListener(listener ContactListener) {
	w.contactManager.contactListener = listener
}

func (w *World) BodyList() *Body                  { return w.bodyList }
func (w *World) JointList() Joint                 { return w.jointList }
func (w *World) ContactList() *Contact            { return w.contactManager.contactList }
func (w *World) BodyCount() int                   { return w.bodyCount }
func (w *World) JointCount() int                  { return w.jointCount }
func (w *World) ContactCount() int                { return w.contactManager.contactCount }
func (w *World) SetGravity(gravity Vec2)          { w.gravity = gravity }
func (w *World) Gravity() Vec2                    { return w.gravity }
func (w *World) IsLocked() bool                   { return w.flags&worldLockedFlag != 0 }
func (w *World) ContactManager() *ContactManager  { return w.contactManager }
func (w *World) Pool() *WorldPool                 { return w.pool }
func (w *World) Profile() Profile                 { return w.profile }
func (w *World) AllowSleeping() bool              { return w.allowSleep }
func (w *World) SetWarmStarting(flag bool)        { w.warmStarting = flag }
func (w *World) WarmStarting() bool               { return w.warmStarting }
func (w *World) SetContinuousPhysics(flag bool)   { w.continuousPhysics = flag }
func (w *World) ContinuousPhysics() bool          { return w.continuousPhysics }
func (w *World) SetSubStepping(flag bool)         { w.subStepping = flag }
func (w *World) SubStepping() bool                { return w.subStepping }
func (w *World) AutoClearForces() bool            { return w.flags&worldClearForcesFlag != 0 }
func (w *World) ProxyCount() int                  { return w.contactManager.broadPhase.ProxyCount() }
func (w *World) TreeHeight() int                  { return w.contactManager.broadPhase.TreeHeight() }
func (w *World) TreeBalance() int                 { return w.contactManager.broadPhase.TreeBalance() }
func (w *World) TreeQuality() float64             { return w.contactManager.broadPhase.TreeQuality() }
func (w *World) Contact(h ContactHandle) *Contact { return w.pool.resolveContact(h) }

/// Set flag to control automatic clearing of forces after each time step.
func (w *World) SetAutoClearForces(flag bool) {
	if flag {
		w.flags |= worldClearForcesFlag
	} else {
		w.flags &^= worldClearForcesFlag
	}
}

/// Enable/disable sleep. Disabling wakes every body.
func (w *World) SetAllowSleeping(flag bool) {
	if flag == w.allowSleep {
		return
	}

	w.allowSleep = flag
	if !w.allowSleep {
		for b := w.bodyList; b != nil; b = b.next {
			b.SetAwake(true)
		}
	}
}

func (w *World) enqueue(op deferredOp) {
	w.pending = append(w.pending, op)
}

/// CreateBody creates a rigid body given a definition. While the world is
/// stepping the body is returned immediately but joins the world when the
/// step ends.
func (w *World) CreateBody(def *BodyDef) *Body {
	b := newBody(def, w)

	if w.IsLocked() {
		w.enqueue(deferredOp{kind: opCreateBody, body: b})
		return b
	}

	w.linkBody(b)
	return b
}

func (w *World) linkBody(b *Body) {
	// Add to world doubly linked list.
	b.prev = nil
	b.next = w.bodyList
	if w.bodyList != nil {
		w.bodyList.prev = b
	}
	w.bodyList = b
	w.bodyCount++
}

/// DestroyBody destroys a rigid body with its fixtures, joints and contacts.
/// The destruction listener is told about the fixtures and joints. While the
/// world is stepping the destruction is queued.
func (w *World) DestroyBody(b *Body) {
	assert(!b.destroyed, "body destroyed twice")

	if w.IsLocked() {
		w.enqueue(deferredOp{kind: opDestroyBody, body: b})
		return
	}

	w.destroyBody(b)
}

func (w *World) destroyBody(b *Body) {
	assert(w.bodyCount > 0, "world has no bodies")

	// Delete the attached joints.
	je := b.jointList
	for je != nil {
		je0 := je
		je = je.Next

		if w.destructionListener != nil {
			w.destructionListener.SayGoodbyeToJoint(je0.Joint)
		}

		w.destroyJoint(je0.Joint)

		b.jointList = je
	}
	b.jointList = nil

	// Delete the attached contacts.
	b.destroyContacts()

	// Delete the attached fixtures. This destroys broad-phase proxies.
	f := b.fixtureList
	for f != nil {
		f0 := f
		f = f.next

		if w.destructionListener != nil {
			w.destructionListener.SayGoodbyeToFixture(f0)
		}

		f0.destroyProxies(w.contactManager.broadPhase)
		f0.body = nil
		f0.next = nil
	}
	b.fixtureList = nil
	b.fixtureCount = 0

	// Remove world body list.
	if b.prev != nil {
		b.prev.next = b.next
	}

	if b.next != nil {
		b.next.prev = b.prev
	}

	if b == w.bodyList {
		w.bodyList = b.next
	}

	b.prev = nil
	b.next = nil
	b.destroyed = true
	w.bodyCount--
}

/// CreateJoint creates a joint to constrain bodies together. This may cause
/// the connected bodies to cease colliding. While the world is stepping the
/// joint is returned immediately but joins the world when the step ends.
func (w *World) CreateJoint(def JointDefinition) Joint {
	j := newJoint(def)

	if w.IsLocked() {
		w.enqueue(deferredOp{kind: opCreateJoint, joint: j})
		return j
	}

	w.linkJoint(j)
	return j
}

func (w *World) linkJoint(j Joint) {
	base := j.base()

	// Connect to the world list.
	base.prev = nil
	base.next = w.jointList
	if w.jointList != nil {
		w.jointList.base().prev = j
	}
	w.jointList = j
	w.jointCount++

	bodyA := base.bodyA
	bodyB := base.bodyB

	// Connect to the bodies' doubly linked lists.
	base.edgeA = JointEdge{Joint: j, Other: bodyB, Next: bodyA.jointList}
	if bodyA.jointList != nil {
		bodyA.jointList.Prev = &base.edgeA
	}
	bodyA.jointList = &base.edgeA

	base.edgeB = JointEdge{Joint: j, Other: bodyA, Next: bodyB.jointList}
	if bodyB.jointList != nil {
		bodyB.jointList.Prev = &base.edgeB
	}
	bodyB.jointList = &base.edgeB

	// If the joint prevents collisions, then flag any contacts for filtering.
	if !base.collideConnected {
		flagContactsBetween(bodyA, bodyB)
	}

	// Note: creating a joint doesn't wake the bodies.
}

// flagContactsBetween flags the contacts of the two bodies for filtering at
// the next time step where either body is awake.
func flagContactsBetween(bodyA, bodyB *Body) {
	for edge := bodyB.contactList; edge != nil; edge = edge.Next {
		if edge.Other == bodyA {
			edge.Contact.FlagForFiltering()
		}
	}
}

/// DestroyJoint destroys a joint. This may cause the connected bodies to
/// begin colliding. While the world is stepping the destruction is queued.
func (w *World) DestroyJoint(j Joint) {
	assert(!j.base().destroyed, "joint destroyed twice")

	if w.IsLocked() {
		w.enqueue(deferredOp{kind: opDestroyJoint, joint: j})
		return
	}

	w.destroyJoint(j)
}

func (w *World) destroyJoint(j Joint) {
	base := j.base()
	collideConnected := base.collideConnected

	// Remove from the doubly linked list.
	if base.prev != nil {
		base.prev.base().next = base.next
	}

	if base.next != nil {
		base.next.base().prev = base.prev
	}

	if j == w.jointList {
		w.jointList = base.next
	}

	base.prev = nil
	base.next = nil

	// Disconnect from island graph.
	bodyA := base.bodyA
	bodyB := base.bodyB

	// Wake up connected bodies.
	bodyA.SetAwake(true)
	bodyB.SetAwake(true)

	unlinkJointEdge(&base.edgeA, &bodyA.jointList)
	unlinkJointEdge(&base.edgeB, &bodyB.jointList)

	base.destroyed = true

	assert(w.jointCount > 0, "world has no joints")
	w.jointCount--

	// If the joint prevents collisions, then flag any contacts for filtering.
	if !collideConnected {
		flagContactsBetween(bodyA, bodyB)
	}
}

func unlinkJointEdge(edge *JointEdge, head **JointEdge) {
	if edge.Prev != nil {
		edge.Prev.Next = edge.Next
	}

	if edge.Next != nil {
		edge.Next.Prev = edge.Prev
	}

	if edge == *head {
		*head = edge.Next
	}

	edge.Prev = nil
	edge.Next = nil
}

// flushDeferred applies the operations queued while the world was locked.
// Operations whose target has been destroyed in the meantime are dropped.
func (w *World) flushDeferred() {
	for i := 0; i < len(w.pending); i++ {
		op := w.pending[i]
		w.pending[i] = deferredOp{}

		switch op.kind {
		case opCreateBody:
			w.linkBody(op.body)

		case opDestroyBody:
			if op.body.destroyed {
				w.dropDeferred(op)
				continue
			}
			w.destroyBody(op.body)

		case opCreateFixture:
			if op.body.destroyed {
				w.dropDeferred(op)
				continue
			}
			op.body.attachFixture(op.fixture)

		case opDestroyFixture:
			if op.fixture.body == nil || op.fixture.body.destroyed {
				w.dropDeferred(op)
				continue
			}
			op.body.detachFixture(op.fixture)
			op.body.ResetMassData()

		case opCreateJoint:
			base := op.joint.base()
			if base.bodyA.destroyed || base.bodyB.destroyed {
				base.destroyed = true
				w.dropDeferred(op)
				continue
			}
			w.linkJoint(op.joint)

		case opDestroyJoint:
			if op.joint.base().destroyed {
				w.dropDeferred(op)
				continue
			}
			w.destroyJoint(op.joint)
		}
	}

	w.pending = w.pending[:0]
}

func (w *World) dropDeferred(op deferredOp) {
	w.logf("deferred %s dropped: target already destroyed", op.kind)
}

/// Step takes a time step. This performs collision detection, integration,
/// and constraint solution. A non-positive or NaN dt does nothing.
func (w *World) Step(dt float64, velocityIterations, positionIterations int) {
	if !(dt > 0.0) || math.IsInf(dt, 0) {
		return
	}

	if w.IsLocked() {
		w.logf("Step ignored while the world is locked")
		return
	}

	stepTimer := MakeTimer()
	w.profile = Profile{}

	// If new fixtures were added, we need to find the new contacts.
	if w.flags&worldNewFixtureFlag != 0 {
		w.contactManager.findNewContacts()
		w.flags &^= worldNewFixtureFlag
	}

	w.flags |= worldLockedFlag

	step := TimeStep{
		Dt:                 dt,
		InvDt:              1.0 / dt,
		DtRatio:            w.invDt0 * dt,
		VelocityIterations: velocityIterations,
		PositionIterations: positionIterations,
		WarmStarting:       w.warmStarting,
	}

	w.island.listener = w.contactManager.contactListener

	// Update contacts. This is where some contacts are destroyed.
	timer := MakeTimer()
	w.contactManager.collide()
	w.profile.Collide = timer.Milliseconds()

	// Integrate velocities, solve velocity constraints, and integrate positions.
	if w.stepComplete {
		timer.Reset()
		w.solve(step)
		w.profile.Solve = timer.Milliseconds()
	}

	// Handle TOI events.
	if w.continuousPhysics {
		timer.Reset()
		w.solveTOI(step)
		w.profile.SolveTOI = timer.Milliseconds()
	}

	w.invDt0 = step.InvDt

	if w.flags&worldClearForcesFlag != 0 {
		w.ClearForces()
	}

	w.flags &^= worldLockedFlag

	w.flushDeferred()

	w.profile.Step = stepTimer.Milliseconds()
}

/// ClearForces manually clears the force buffer on all bodies. By default,
/// forces are cleared automatically after each call to Step.
func (w *World) ClearForces() {
	for body := w.bodyList; body != nil; body = body.next {
		body.force.SetZero()
		body.torque = 0.0
	}
}

// guardBody rewinds a body whose solved state went non-finite and records
// a finite one as the new rewind target.
func (w *World) guardBody(b *Body) {
	if b.stateIsValid() {
		b.saveValidState()
		return
	}

	b.restoreValidState()
	w.profile.RestoredBodies++
	w.logf("restored body at %v after a non-finite solve", b.sweep.C)
}

// solve finds islands, integrates and solves constraints, and solves
// position constraints.
func (w *World) solve(step TimeStep) {
	isl := &w.island

	// Clear all the island flags.
	for b := w.bodyList; b != nil; b = b.next {
		b.flags &^= bodyIslandFlag
	}
	for c := w.contactManager.contactList; c != nil; c = c.next {
		c.flags &^= contactIslandFlag
	}
	for j := w.jointList; j != nil; j = j.Next() {
		j.base().islandFlag = false
	}

	// Build and simulate all awake islands.
	stack := w.stack[:0]
	for seed := w.bodyList; seed != nil; seed = seed.next {
		if seed.flags&bodyIslandFlag != 0 {
			continue
		}

		if !seed.IsAwake() || !seed.IsActive() {
			continue
		}

		// The seed can be dynamic or kinematic.
		if seed.bodyType == StaticBody {
			continue
		}

		// Reset island and stack.
		isl.clear()
		stack = append(stack[:0], seed)
		seed.flags |= bodyIslandFlag

		// Perform a depth first search (DFS) on the constraint graph.
		for len(stack) > 0 {
			// Grab the next body off the stack and add it to the island.
			b := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			assert(b.IsActive(), "inactive body in island")
			isl.addBody(b)

			// Make sure the body is awake (without resetting sleep timer).
			b.flags |= bodyAwakeFlag

			// To keep islands as small as possible, we don't
			// propagate islands across static bodies.
			if b.bodyType == StaticBody {
				continue
			}

			// Search all contacts connected to this body.
			for ce := b.contactList; ce != nil; ce = ce.Next {
				contact := ce.Contact

				// Has this contact already been added to an island?
				if contact.flags&contactIslandFlag != 0 {
					continue
				}

				// Is this contact solid and touching?
				if !contact.IsEnabled() || !contact.IsTouching() {
					continue
				}

				// Skip sensors.
				if contact.fixtureA.isSensor || contact.fixtureB.isSensor {
					continue
				}

				isl.addContact(contact)
				contact.flags |= contactIslandFlag

				other := ce.Other

				// Was the other body already added to this island?
				if other.flags&bodyIslandFlag != 0 {
					continue
				}

				stack = append(stack, other)
				other.flags |= bodyIslandFlag
			}

			// Search all joints connect to this body.
			for je := b.jointList; je != nil; je = je.Next {
				jb := je.Joint.base()
				if jb.islandFlag {
					continue
				}

				other := je.Other

				// Don't simulate joints connected to inactive bodies.
				if !other.IsActive() {
					continue
				}

				isl.addJoint(je.Joint)
				jb.islandFlag = true

				if other.flags&bodyIslandFlag != 0 {
					continue
				}

				stack = append(stack, other)
				other.flags |= bodyIslandFlag
			}
		}

		isl.solve(&w.profile, step, w.gravity, w.allowSleep)

		// Post solve cleanup.
		for _, b := range isl.bodies {
			// Allow static bodies to participate in other islands.
			if b.bodyType == StaticBody {
				b.flags &^= bodyIslandFlag
			}
		}
	}
	w.stack = stack[:0]

	timer := MakeTimer()

	// Synchronize fixtures, check for out of range bodies.
	for b := w.bodyList; b != nil; b = b.next {
		// If a body was not in an island then it did not move.
		if b.flags&bodyIslandFlag == 0 {
			continue
		}

		if b.bodyType == StaticBody {
			continue
		}

		w.guardBody(b)

		// Update fixtures (for broad-phase).
		b.synchronizeFixtures()
	}

	// Look for new contacts.
	w.contactManager.findNewContacts()
	w.profile.Broadphase = timer.Milliseconds()
}

// computeTOI returns the cached or freshly computed time of impact of a
// contact as a fraction of the step, and false when the contact takes no
// part in the continuous pass.
func (w *World) computeTOI(c *Contact) (float64, bool) {
	if c.flags&contactTOIFlag != 0 {
		// This contact has a valid cached TOI.
		return c.toi, true
	}

	fA := c.fixtureA
	fB := c.fixtureB

	// Is there a sensor?
	if fA.isSensor || fB.isSensor {
		return 0.0, false
	}

	bA := fA.body
	bB := fB.body

	typeA := bA.bodyType
	typeB := bB.bodyType
	assert(typeA == DynamicBody || typeB == DynamicBody, "contact without a dynamic body")

	activeA := bA.IsAwake() && typeA != StaticBody
	activeB := bB.IsAwake() && typeB != StaticBody

	// Is at least one body active (awake and dynamic or kinematic)?
	if !activeA && !activeB {
		return 0.0, false
	}

	collideA := bA.IsBullet() || typeA != DynamicBody
	collideB := bB.IsBullet() || typeB != DynamicBody

	// Are these two non-bullet dynamic bodies?
	if !collideA && !collideB {
		return 0.0, false
	}

	// Compute the TOI for this contact.
	// Put the sweeps onto the same time interval.
	alpha0 := bA.sweep.Alpha0

	if bA.sweep.Alpha0 < bB.sweep.Alpha0 {
		alpha0 = bB.sweep.Alpha0
		bA.sweep.Advance(alpha0)
	} else if bB.sweep.Alpha0 < bA.sweep.Alpha0 {
		alpha0 = bA.sweep.Alpha0
		bB.sweep.Advance(alpha0)
	}

	assert(alpha0 < 1.0, "sweep already at the end of the step")

	// Compute the time of impact in interval [0, minTOI]
	var input TOIInput
	input.ProxyA.Set(fA.shape, c.indexA)
	input.ProxyB.Set(fB.shape, c.indexB)
	input.SweepA = bA.sweep
	input.SweepB = bB.sweep
	input.TMax = 1.0

	var output TOIOutput
	TimeOfImpact(w.pool, &output, &input)

	// Beta is the fraction of the remaining portion of the step. Failed
	// and unknown results count as no impact.
	alpha := 1.0
	if output.State == TOITouching {
		alpha = math.Min(alpha0+(1.0-alpha0)*output.T, 1.0)
	}

	c.toi = alpha
	c.flags |= contactTOIFlag
	return alpha, true
}

// solveTOI finds TOI contacts and solves them.
func (w *World) solveTOI(step TimeStep) {
	isl := &w.island

	if w.stepComplete {
		for b := w.bodyList; b != nil; b = b.next {
			b.flags &^= bodyIslandFlag
			b.sweep.Alpha0 = 0.0
		}

		for c := w.contactManager.contactList; c != nil; c = c.next {
			// Invalidate TOI
			c.flags &^= contactTOIFlag | contactIslandFlag
			c.toiCount = 0
			c.toi = 1.0
		}
	}

	// Find TOI events and solve them.
	for {
		// Find the first TOI.
		var minContact *Contact
		minAlpha := 1.0

		for c := w.contactManager.contactList; c != nil; c = c.next {
			// Is this contact disabled?
			if !c.IsEnabled() {
				continue
			}

			// Prevent excessive sub-stepping.
			if c.toiCount > MaxSubSteps {
				continue
			}

			alpha, ok := w.computeTOI(c)
			if !ok {
				continue
			}

			if alpha < minAlpha {
				// This is the minimum TOI found so far.
				minContact = c
				minAlpha = alpha
			}
		}

		if minContact == nil || 1.0-10.0*Epsilon < minAlpha {
			// No more TOI events. Done!
			w.stepComplete = true
			break
		}

		// Advance the bodies to the TOI.
		bA := minContact.fixtureA.body
		bB := minContact.fixtureB.body

		backup1 := bA.sweep
		backup2 := bB.sweep

		bA.advance(minAlpha)
		bB.advance(minAlpha)

		// The TOI contact likely has some new contact points.
		w.contactManager.update(minContact)
		minContact.flags &^= contactTOIFlag
		minContact.toiCount++

		// Is the contact solid?
		if !minContact.IsEnabled() || !minContact.IsTouching() {
			// Restore the sweeps.
			minContact.SetEnabled(false)
			bA.sweep = backup1
			bB.sweep = backup2
			bA.synchronizeTransform()
			bB.synchronizeTransform()
			continue
		}

		bA.SetAwake(true)
		bB.SetAwake(true)

		// Build the island
		isl.clear()
		isl.addBody(bA)
		isl.addBody(bB)
		isl.addContact(minContact)

		bA.flags |= bodyIslandFlag
		bB.flags |= bodyIslandFlag
		minContact.flags |= contactIslandFlag

		// Get contacts on bodyA and bodyB.
		w.gatherTOIContacts(bA, minAlpha)
		w.gatherTOIContacts(bB, minAlpha)

		subStep := TimeStep{
			Dt:                 (1.0 - minAlpha) * step.Dt,
			DtRatio:            1.0,
			PositionIterations: 20,
			VelocityIterations: step.VelocityIterations,
			WarmStarting:       false,
		}
		subStep.InvDt = 1.0 / subStep.Dt
		isl.solveTOI(subStep, bA.islandIndex, bB.islandIndex)

		// Reset island flags and synchronize broad-phase proxies.
		for _, body := range isl.bodies {
			body.flags &^= bodyIslandFlag

			if body.bodyType != DynamicBody {
				continue
			}

			w.guardBody(body)
			body.synchronizeFixtures()

			// Invalidate all contact TOIs on this displaced body.
			for ce := body.contactList; ce != nil; ce = ce.Next {
				ce.Contact.flags &^= contactTOIFlag | contactIslandFlag
			}
		}

		// Commit fixture proxy movements to the broad-phase so that new contacts are created.
		// Also, some contacts can be destroyed.
		w.contactManager.findNewContacts()

		if w.subStepping {
			w.stepComplete = false
			break
		}
	}
}

// gatherTOIContacts adds the touching contacts of a dynamic body against
// static, kinematic or bullet bodies to the TOI island, advancing the other
// body to the TOI.
func (w *World) gatherTOIContacts(body *Body, minAlpha float64) {
	if body.bodyType != DynamicBody {
		return
	}

	isl := &w.island

	for ce := body.contactList; ce != nil; ce = ce.Next {
		if len(isl.bodies) == 2*MaxTOIContacts || len(isl.contacts) == MaxTOIContacts {
			break
		}

		contact := ce.Contact

		// Has this contact already been added to the island?
		if contact.flags&contactIslandFlag != 0 {
			continue
		}

		// Only add static, kinematic, or bullet bodies.
		other := ce.Other
		if other.bodyType == DynamicBody && !body.IsBullet() && !other.IsBullet() {
			continue
		}

		// Skip sensors.
		if contact.fixtureA.isSensor || contact.fixtureB.isSensor {
			continue
		}

		// Tentatively advance the body to the TOI.
		backup := other.sweep
		if other.flags&bodyIslandFlag == 0 {
			other.advance(minAlpha)
		}

		// Update the contact points
		w.contactManager.update(contact)

		// Was the contact disabled by the user? Are there contact points?
		if !contact.IsEnabled() || !contact.IsTouching() {
			other.sweep = backup
			other.synchronizeTransform()
			continue
		}

		// Add the contact to the island
		contact.flags |= contactIslandFlag
		isl.addContact(contact)

		// Has the other body already been added to the island?
		if other.flags&bodyIslandFlag != 0 {
			continue
		}

		// Add the other body to the island.
		other.flags |= bodyIslandFlag

		if other.bodyType != StaticBody {
			other.SetAwake(true)
		}

		isl.addBody(other)
	}
}

/// QueryAABB queries the world for all fixtures that potentially overlap
/// the provided AABB.
func (w *World) QueryAABB(callback QueryCallback, aabb AABB) {
	bp := w.contactManager.broadPhase
	bp.Query(func(proxyID int) bool {
		proxy := bp.UserData(proxyID).(*FixtureProxy)
		return callback(proxy.Fixture)
	}, aabb)
}

/// RayCast casts a ray through the world from point1 to point2 and reports
/// every fixture in its path to the callback. A zero length ray hits nothing.
func (w *World) RayCast(callback RayCastCallback, point1, point2 Vec2) {
	if point1 == point2 {
		return
	}

	bp := w.contactManager.broadPhase
	input := RayCastInput{P1: point1, P2: point2, MaxFraction: 1.0}

	bp.RayCast(func(input RayCastInput, proxyID int) float64 {
		proxy := bp.UserData(proxyID).(*FixtureProxy)
		fixture := proxy.Fixture

		var output RayCastOutput
		if !fixture.RayCast(&output, input, proxy.ChildIndex) {
			return input.MaxFraction
		}

		fraction := output.Fraction
		point := input.P1.Mul(1.0 - fraction).Add(input.P2.Mul(fraction))
		return callback(fixture, point, output.Normal, fraction)
	}, input)
}

/// ShiftOrigin shifts the world origin. Useful for large worlds. The body
/// shift formula is: position -= newOrigin. It fails with ErrWorldLocked
/// while the world is stepping.
func (w *World) ShiftOrigin(newOrigin Vec2) error {
	if w.IsLocked() {
		return errors.Wrap(ErrWorldLocked, "shift origin")
	}

	for b := w.bodyList; b != nil; b = b.next {
		b.xf.P = b.xf.P.Sub(newOrigin)
		b.sweep.C0 = b.sweep.C0.Sub(newOrigin)
		b.sweep.C = b.sweep.C.Sub(newOrigin)
	}

	for j := w.jointList; j != nil; j = j.Next() {
		j.ShiftOrigin(newOrigin)
	}

	w.contactManager.broadPhase.ShiftOrigin(newOrigin)
	return nil
}
