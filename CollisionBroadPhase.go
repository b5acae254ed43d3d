package kbox2d

import "sort"

/// PairCallback receives the user data of a new overlapping proxy pair.
type PairCallback func(userDataA, userDataB interface{})

type proxyPair struct {
	proxyIDA int
	proxyIDB int
}

type pairsByID []proxyPair

func (a pairsByID) Len() int      { return len(a) }
func (a pairsByID) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a pairsByID) Less(i, j int) bool {
	if a[i].proxyIDA != a[j].proxyIDA {
		return a[i].proxyIDA < a[j].proxyIDA
	}
	return a[i].proxyIDB < a[j].proxyIDB
}

const nullProxy = -1

/// The broad-phase is used for computing pairs and performing volume queries
/// and ray casts. It does not persist pairs; instead it reports potentially
/// new pairs. It is up to the client to consume the new pairs and to track
/// subsequent overlap.
type BroadPhase struct {
	tree *DynamicTree

	proxyCount int

	moveBuffer []int
	pairBuffer []proxyPair

	queryProxyID int
}

func NewBroadPhase() *BroadPhase {
	return &BroadPhase{
		tree:       NewDynamicTree(),
		moveBuffer: make([]int, 0, 16),
		pairBuffer: make([]proxyPair, 0, 16),
	}
}

/// CreateProxy creates a proxy with an initial AABB. Pairs are not reported
/// until UpdatePairs is called.
func (bp *BroadPhase) CreateProxy(aabb AABB, userData interface{}) int {
	proxyID := bp.tree.CreateProxy(aabb, userData)
	bp.proxyCount++
	bp.bufferMove(proxyID)
	return proxyID
}

/// DestroyProxy destroys a proxy. It is up to the client to remove any pairs.
func (bp *BroadPhase) DestroyProxy(proxyID int) {
	bp.unbufferMove(proxyID)
	bp.proxyCount--
	bp.tree.DestroyProxy(proxyID)
}

/// MoveProxy updates a proxy for its new AABB and the displacement since the
/// last move. Reinserted proxies are queued for pair updates.
func (bp *BroadPhase) MoveProxy(proxyID int, aabb AABB, displacement Vec2) {
	if bp.tree.MoveProxy(proxyID, aabb, displacement) {
		bp.bufferMove(proxyID)
	}
}

/// TouchProxy forces a proxy to be reconsidered on the next UpdatePairs.
func (bp *BroadPhase) TouchProxy(proxyID int) {
	bp.bufferMove(proxyID)
}

func (bp *BroadPhase) FatAABB(proxyID int) AABB {
	return bp.tree.FatAABB(proxyID)
}

func (bp *BroadPhase) UserData(proxyID int) interface{} {
	return bp.tree.UserData(proxyID)
}

/// TestOverlap tests the fat AABBs of two proxies for overlap.
func (bp *BroadPhase) TestOverlap(proxyIDA, proxyIDB int) bool {
	return TestOverlapAABB(bp.tree.FatAABB(proxyIDA), bp.tree.FatAABB(proxyIDB))
}

func (bp *BroadPhase) ProxyCount() int      { return bp.proxyCount }
func (bp *BroadPhase) TreeHeight() int      { return bp.tree.Height() }
func (bp *BroadPhase) TreeBalance() int     { return bp.tree.MaxBalance() }
func (bp *BroadPhase) TreeQuality() float64 { return bp.tree.AreaRatio() }

func (bp *BroadPhase) bufferMove(proxyID int) {
	bp.moveBuffer = append(bp.moveBuffer, proxyID)
}

func (bp *BroadPhase) unbufferMove(proxyID int) {
	for i, id := range bp.moveBuffer {
		if id == proxyID {
			bp.moveBuffer[i] = nullProxy
		}
	}
}

// queryCallback is called from DynamicTree.Query while gathering pairs.
func (bp *BroadPhase) queryCallback(proxyID int) bool {
	// A proxy cannot form a pair with itself.
	if proxyID == bp.queryProxyID {
		return true
	}

	// Both proxies are moving. Avoid duplicate pairs.
	if bp.tree.WasMoved(proxyID) && proxyID > bp.queryProxyID {
		return true
	}

	bp.pairBuffer = append(bp.pairBuffer, proxyPair{
		proxyIDA: minInt(proxyID, bp.queryProxyID),
		proxyIDB: maxInt(proxyID, bp.queryProxyID),
	})
	return true
}

/// UpdatePairs reports every new overlapping pair to callback exactly once,
/// in ascending proxy id order.
func (bp *BroadPhase) UpdatePairs(callback PairCallback) {
	// Reset pair buffer
	bp.pairBuffer = bp.pairBuffer[:0]

	// Perform tree queries for all moving proxies.
	for _, queryProxyID := range bp.moveBuffer {
		if queryProxyID == nullProxy {
			continue
		}
		bp.queryProxyID = queryProxyID

		// We have to query the tree with the fat AABB so that
		// we don't fail to create a pair that may touch later.
		fatAABB := bp.tree.FatAABB(queryProxyID)

		// Query tree, create pairs and add them pair buffer.
		bp.tree.Query(bp.queryCallback, fatAABB)
	}

	// Sort the pair buffer to expose duplicates.
	sort.Sort(pairsByID(bp.pairBuffer))

	// Send the pairs back to the client.
	for i := 0; i < len(bp.pairBuffer); {
		primaryPair := bp.pairBuffer[i]
		callback(bp.tree.UserData(primaryPair.proxyIDA), bp.tree.UserData(primaryPair.proxyIDB))
		i++

		// Skip any duplicate pairs.
		for i < len(bp.pairBuffer) && bp.pairBuffer[i] == primaryPair {
			i++
		}
	}

	// Clear move flags
	for _, proxyID := range bp.moveBuffer {
		if proxyID == nullProxy {
			continue
		}
		bp.tree.ClearMoved(proxyID)
	}

	// Reset move buffer
	bp.moveBuffer = bp.moveBuffer[:0]
}

/// Query calls callback for each proxy whose fat AABB overlaps aabb.
func (bp *BroadPhase) Query(callback TreeQueryCallback, aabb AABB) {
	bp.tree.Query(callback, aabb)
}

/// RayCast calls callback for each proxy whose fat AABB the ray touches.
func (bp *BroadPhase) RayCast(callback TreeRayCastCallback, input RayCastInput) {
	bp.tree.RayCast(callback, input)
}

/// ShiftOrigin translates all proxies. newOrigin is expressed in the old
/// coordinate system.
func (bp *BroadPhase) ShiftOrigin(newOrigin Vec2) {
	bp.tree.ShiftOrigin(newOrigin)
}
