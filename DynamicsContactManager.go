package kbox2d

import "log"

// Delegate of World.
type ContactManager struct {
	broadPhase      *BroadPhase
	contactList     *Contact
	contactCount    int
	contactFilter   ContactFilter
	contactListener ContactListener

	pool   *WorldPool
	logger *log.Logger

	// Manifold points dropped for non-finite data since the world was
	// created.
	droppedPoints int
}

func newContactManager(pool *WorldPool, logger *log.Logger) *ContactManager {
	return &ContactManager{
		broadPhase:    NewBroadPhase(),
		contactFilter: DefaultContactFilter{},
		pool:          pool,
		logger:        logger,
	}
}

// destroy reports the end of touch, unlinks the contact from the world and
// both bodies, and returns it to its free-list.
func (mgr *ContactManager) destroy(c *Contact) {
	fixtureA := c.fixtureA
	fixtureB := c.fixtureB
	bodyA := fixtureA.body
	bodyB := fixtureB.body

	if mgr.contactListener != nil && c.IsTouching() {
		mgr.contactListener.EndContact(c)
	}

	// Remove from the world.
	if c.prev != nil {
		c.prev.next = c.next
	}

	if c.next != nil {
		c.next.prev = c.prev
	}

	if c == mgr.contactList {
		mgr.contactList = c.next
	}

	// Remove from body 1
	if c.nodeA.Prev != nil {
		c.nodeA.Prev.Next = c.nodeA.Next
	}

	if c.nodeA.Next != nil {
		c.nodeA.Next.Prev = c.nodeA.Prev
	}

	if &c.nodeA == bodyA.contactList {
		bodyA.contactList = c.nodeA.Next
	}

	// Remove from body 2
	if c.nodeB.Prev != nil {
		c.nodeB.Prev.Next = c.nodeB.Next
	}

	if c.nodeB.Next != nil {
		c.nodeB.Next.Prev = c.nodeB.Prev
	}

	if &c.nodeB == bodyB.contactList {
		bodyB.contactList = c.nodeB.Next
	}

	// A touching contact going away wakes the bodies.
	if c.manifold.PointCount > 0 && !fixtureA.isSensor && !fixtureB.isSensor {
		bodyA.SetAwake(true)
		bodyB.SetAwake(true)
	}

	mgr.pool.freeContact(c)
	mgr.contactCount--
}

// collide is the top level collision call for the time step. Here all the
// narrow phase collision is processed for the world contact list.
func (mgr *ContactManager) collide() {
	// Update awake contacts.
	c := mgr.contactList
	for c != nil {
		fixtureA := c.fixtureA
		fixtureB := c.fixtureB
		indexA := c.indexA
		indexB := c.indexB
		bodyA := fixtureA.body
		bodyB := fixtureB.body

		// Is this contact flagged for filtering?
		if c.flags&contactFilterFlag != 0 {
			// Should these bodies collide?
			if !bodyB.shouldCollide(bodyA) {
				cNuke := c
				c = c.next
				mgr.destroy(cNuke)
				continue
			}

			// Check user filtering.
			if mgr.contactFilter != nil && !mgr.contactFilter.ShouldCollide(fixtureA, fixtureB) {
				cNuke := c
				c = c.next
				mgr.destroy(cNuke)
				continue
			}

			// Clear the filtering flag.
			c.flags &^= contactFilterFlag
		}

		activeA := bodyA.IsAwake() && bodyA.bodyType != StaticBody
		activeB := bodyB.IsAwake() && bodyB.bodyType != StaticBody

		// At least one body must be awake and it must be dynamic or kinematic.
		if !activeA && !activeB {
			c = c.next
			continue
		}

		proxyIDA := fixtureA.proxies[indexA].ProxyID
		proxyIDB := fixtureB.proxies[indexB].ProxyID

		// Here we destroy contacts that cease to overlap in the broad-phase.
		if !mgr.broadPhase.TestOverlap(proxyIDA, proxyIDB) {
			cNuke := c
			c = c.next
			mgr.destroy(cNuke)
			continue
		}

		// The contact persists.
		mgr.update(c)
		c = c.next
	}
}

// update refreshes one contact and accounts for dropped manifold points.
// Only the first drop is logged.
func (mgr *ContactManager) update(c *Contact) {
	dropped := c.update(mgr.pool, mgr.contactListener)
	if dropped == 0 {
		return
	}

	if mgr.droppedPoints == 0 && mgr.logger != nil {
		mgr.logger.Printf("dropped %d non-finite manifold point(s) in %s contact", dropped, c.Kind())
	}
	mgr.droppedPoints += dropped
}

/// DroppedPoints counts the manifold points discarded for non-finite data.
func (mgr *ContactManager) DroppedPoints() int { return mgr.droppedPoints }

func (mgr *ContactManager) findNewContacts() {
	mgr.broadPhase.UpdatePairs(mgr.addPair)
}

// addPair is the broad-phase callback.
func (mgr *ContactManager) addPair(proxyUserDataA, proxyUserDataB interface{}) {
	proxyA := proxyUserDataA.(*FixtureProxy)
	proxyB := proxyUserDataB.(*FixtureProxy)

	fixtureA := proxyA.Fixture
	fixtureB := proxyB.Fixture

	indexA := proxyA.ChildIndex
	indexB := proxyB.ChildIndex

	bodyA := fixtureA.body
	bodyB := fixtureB.body

	// Are the fixtures on the same body?
	if bodyA == bodyB {
		return
	}

	// Does a contact already exist?
	for edge := bodyB.contactList; edge != nil; edge = edge.Next {
		if edge.Other != bodyA {
			continue
		}

		fA := edge.Contact.fixtureA
		fB := edge.Contact.fixtureB
		iA := edge.Contact.indexA
		iB := edge.Contact.indexB

		if fA == fixtureA && fB == fixtureB && iA == indexA && iB == indexB {
			return
		}

		if fA == fixtureB && fB == fixtureA && iA == indexB && iB == indexA {
			return
		}
	}

	// Does a joint override collision? Is at least one body dynamic?
	if !bodyB.shouldCollide(bodyA) {
		return
	}

	// Check user filtering.
	if mgr.contactFilter != nil && !mgr.contactFilter.ShouldCollide(fixtureA, fixtureB) {
		return
	}

	// Call the factory.
	c := newContact(mgr.pool, fixtureA, indexA, fixtureB, indexB)
	if c == nil {
		return
	}

	// Contact creation may swap fixtures.
	bodyA = c.fixtureA.body
	bodyB = c.fixtureB.body

	// Insert into the world.
	c.prev = nil
	c.next = mgr.contactList
	if mgr.contactList != nil {
		mgr.contactList.prev = c
	}
	mgr.contactList = c

	// Connect to island graph.

	// Connect to body A
	c.nodeA.Contact = c
	c.nodeA.Other = bodyB

	c.nodeA.Prev = nil
	c.nodeA.Next = bodyA.contactList
	if bodyA.contactList != nil {
		bodyA.contactList.Prev = &c.nodeA
	}
	bodyA.contactList = &c.nodeA

	// Connect to body B
	c.nodeB.Contact = c
	c.nodeB.Other = bodyA

	c.nodeB.Prev = nil
	c.nodeB.Next = bodyB.contactList
	if bodyB.contactList != nil {
		bodyB.contactList.Prev = &c.nodeB
	}
	bodyB.contactList = &c.nodeB

	mgr.contactCount++
}
