package kbox2d

import (
	"math"

	"github.com/pkg/errors"
)

/// TreeQueryCallback is called for each leaf overlapping the query box.
/// Return false to stop the query.
type TreeQueryCallback func(proxyID int) bool

/// TreeRayCastCallback is called for each leaf whose box the ray touches. It
/// returns the new max fraction: 0 terminates, a negative value ignores the
/// proxy, otherwise the ray is clipped to the returned fraction.
type TreeRayCastCallback func(input RayCastInput, proxyID int) float64

const nullNode = -1

type treeNode struct {
	// Enlarged AABB
	aabb AABB

	userData interface{}

	// parent while allocated, next while on the free list
	parent int
	next   int

	child1 int
	child2 int

	// leaf = 0, free node = -1
	height int

	moved bool
}

func (node *treeNode) isLeaf() bool {
	return node.child1 == nullNode
}

/// DynamicTree is a dynamic AABB tree broad-phase, inspired by Nathanael
/// Presson's btDbvt. Leaves are proxies with an AABB fattened by
/// AABBExtension so that the client object can move by small amounts without
/// triggering a tree update. Nodes are pooled and relocatable, so proxies are
/// node indices rather than pointers.
type DynamicTree struct {
	root int

	nodes     []treeNode
	nodeCount int

	freeList int

	insertionCount int

	// traversal stacks, one per nesting level of queries
	stacks     []*growableStack[int]
	stackDepth int
}

func NewDynamicTree() *DynamicTree {
	tree := &DynamicTree{root: nullNode}
	tree.nodes = make([]treeNode, 16)
	tree.linkFree(0)
	tree.freeList = 0
	return tree
}

// linkFree chains nodes [from, capacity) into the free list.
func (tree *DynamicTree) linkFree(from int) {
	capacity := len(tree.nodes)
	for i := from; i < capacity-1; i++ {
		tree.nodes[i].next = i + 1
		tree.nodes[i].height = -1
	}
	tree.nodes[capacity-1].next = nullNode
	tree.nodes[capacity-1].height = -1
}

// Allocate a node from the pool. Grow the pool if necessary.
func (tree *DynamicTree) allocateNode() int {
	// Expand the node pool as needed.
	if tree.freeList == nullNode {
		assert(tree.nodeCount == len(tree.nodes), "tree free list is empty but nodes are free")

		// The free list is empty. Rebuild a bigger pool.
		tree.nodes = append(tree.nodes, make([]treeNode, len(tree.nodes))...)
		tree.linkFree(tree.nodeCount)
		tree.freeList = tree.nodeCount
	}

	// Peel a node off the free list.
	nodeID := tree.freeList
	node := &tree.nodes[nodeID]
	tree.freeList = node.next
	node.parent = nullNode
	node.child1 = nullNode
	node.child2 = nullNode
	node.height = 0
	node.userData = nil
	node.moved = false
	tree.nodeCount++
	return nodeID
}

// Return a node to the pool.
func (tree *DynamicTree) freeNode(nodeID int) {
	assert(0 <= nodeID && nodeID < len(tree.nodes), "tree node out of range")
	assert(0 < tree.nodeCount, "tree has no nodes to free")
	tree.nodes[nodeID].next = tree.freeList
	tree.nodes[nodeID].height = -1
	tree.nodes[nodeID].userData = nil
	tree.freeList = nodeID
	tree.nodeCount--
}

func (tree *DynamicTree) checkProxy(proxyID int) {
	assert(0 <= proxyID && proxyID < len(tree.nodes), "proxy id out of range")
	assert(tree.nodes[proxyID].height == 0, "proxy id is not a leaf")
}

/// CreateProxy creates a leaf for aabb, fattened by AABBExtension, and
/// returns its id.
func (tree *DynamicTree) CreateProxy(aabb AABB, userData interface{}) int {
	proxyID := tree.allocateNode()

	// Fatten the aabb.
	r := Vec2{AABBExtension, AABBExtension}
	node := &tree.nodes[proxyID]
	node.aabb.LowerBound = aabb.LowerBound.Sub(r)
	node.aabb.UpperBound = aabb.UpperBound.Add(r)
	node.userData = userData
	node.height = 0
	node.moved = true

	tree.insertLeaf(proxyID)
	return proxyID
}

func (tree *DynamicTree) DestroyProxy(proxyID int) {
	tree.checkProxy(proxyID)

	tree.removeLeaf(proxyID)
	tree.freeNode(proxyID)
}

/// MoveProxy moves a proxy with a swept AABB. When the new AABB still fits in
/// the fat AABB nothing changes and false is returned. Otherwise the proxy is
/// reinserted with an AABB fattened by AABBExtension and extended by
/// AABBMultiplier times the displacement.
func (tree *DynamicTree) MoveProxy(proxyID int, aabb AABB, displacement Vec2) bool {
	tree.checkProxy(proxyID)

	// Extend AABB
	r := Vec2{AABBExtension, AABBExtension}
	fatAABB := AABB{LowerBound: aabb.LowerBound.Sub(r), UpperBound: aabb.UpperBound.Add(r)}

	// Predict AABB movement
	d := displacement.Mul(AABBMultiplier)
	if d.X < 0.0 {
		fatAABB.LowerBound.X += d.X
	} else {
		fatAABB.UpperBound.X += d.X
	}
	if d.Y < 0.0 {
		fatAABB.LowerBound.Y += d.Y
	} else {
		fatAABB.UpperBound.Y += d.Y
	}

	treeAABB := tree.nodes[proxyID].aabb
	if treeAABB.Contains(aabb) {
		// The tree AABB still contains the object, but it might be too large.
		// Perhaps the object was moving fast but has since gone to sleep.
		// The huge AABB is larger than the new fat AABB.
		huge := AABB{
			LowerBound: fatAABB.LowerBound.Sub(r.Mul(4.0)),
			UpperBound: fatAABB.UpperBound.Add(r.Mul(4.0)),
		}
		if huge.Contains(treeAABB) {
			// The tree AABB contains the object AABB and the tree AABB is
			// not too large. No tree update needed.
			return false
		}

		// Otherwise the tree AABB is huge and needs to be shrunk
	}

	tree.removeLeaf(proxyID)
	tree.nodes[proxyID].aabb = fatAABB
	tree.insertLeaf(proxyID)
	tree.nodes[proxyID].moved = true
	return true
}

func (tree *DynamicTree) UserData(proxyID int) interface{} {
	assert(0 <= proxyID && proxyID < len(tree.nodes), "proxy id out of range")
	return tree.nodes[proxyID].userData
}

func (tree *DynamicTree) WasMoved(proxyID int) bool {
	assert(0 <= proxyID && proxyID < len(tree.nodes), "proxy id out of range")
	return tree.nodes[proxyID].moved
}

func (tree *DynamicTree) ClearMoved(proxyID int) {
	assert(0 <= proxyID && proxyID < len(tree.nodes), "proxy id out of range")
	tree.nodes[proxyID].moved = false
}

/// FatAABB returns the fat AABB stored for a proxy.
func (tree *DynamicTree) FatAABB(proxyID int) AABB {
	assert(0 <= proxyID && proxyID < len(tree.nodes), "proxy id out of range")
	return tree.nodes[proxyID].aabb
}

func (tree *DynamicTree) acquireStack() *growableStack[int] {
	if tree.stackDepth == len(tree.stacks) {
		tree.stacks = append(tree.stacks, &growableStack[int]{})
	}
	stack := tree.stacks[tree.stackDepth]
	tree.stackDepth++
	stack.Reset()
	return stack
}

func (tree *DynamicTree) releaseStack() {
	tree.stackDepth--
}

/// Query calls callback for each proxy whose fat AABB overlaps aabb.
/// Callbacks may start nested queries.
func (tree *DynamicTree) Query(callback TreeQueryCallback, aabb AABB) {
	stack := tree.acquireStack()
	defer tree.releaseStack()

	stack.Push(tree.root)

	for stack.Count() > 0 {
		nodeID, _ := stack.Pop()
		if nodeID == nullNode {
			continue
		}

		node := &tree.nodes[nodeID]

		if TestOverlapAABB(node.aabb, aabb) {
			if node.isLeaf() {
				if !callback(nodeID) {
					return
				}
			} else {
				stack.Push(node.child1)
				stack.Push(node.child2)
			}
		}
	}
}

/// RayCast casts a ray against the proxies. The callback performs the exact
/// ray cast against the client object and controls clipping of the ray.
func (tree *DynamicTree) RayCast(callback TreeRayCastCallback, input RayCastInput) {
	p1 := input.P1
	p2 := input.P2
	r := p2.Sub(p1)
	assert(r.LengthSquared() > 0.0, "ray has zero length")
	r.Normalize()

	// v is perpendicular to the segment.
	v := CrossSV(1.0, r)
	absV := Vec2Abs(v)

	// Separating axis for segment (Gino, p80).
	// |dot(v, p1 - c)| > dot(|v|, h)

	maxFraction := input.MaxFraction

	// Build a bounding box for the segment.
	t := p1.Add(p2.Sub(p1).Mul(maxFraction))
	segmentAABB := AABB{LowerBound: Vec2Min(p1, t), UpperBound: Vec2Max(p1, t)}

	stack := tree.acquireStack()
	defer tree.releaseStack()

	stack.Push(tree.root)

	for stack.Count() > 0 {
		nodeID, _ := stack.Pop()
		if nodeID == nullNode {
			continue
		}

		node := &tree.nodes[nodeID]

		if !TestOverlapAABB(node.aabb, segmentAABB) {
			continue
		}

		c := node.aabb.Center()
		h := node.aabb.Extents()
		separation := math.Abs(v.Dot(p1.Sub(c))) - absV.Dot(h)
		if separation > 0.0 {
			continue
		}

		if !node.isLeaf() {
			stack.Push(node.child1)
			stack.Push(node.child2)
			continue
		}

		subInput := RayCastInput{P1: input.P1, P2: input.P2, MaxFraction: maxFraction}

		value := callback(subInput, nodeID)
		if value == 0.0 {
			// The client has terminated the ray cast.
			return
		}

		if value > 0.0 {
			// Update segment bounding box.
			maxFraction = value
			t := p1.Add(p2.Sub(p1).Mul(maxFraction))
			segmentAABB = AABB{LowerBound: Vec2Min(p1, t), UpperBound: Vec2Max(p1, t)}
		}
	}
}

func (tree *DynamicTree) insertLeaf(leaf int) {
	tree.insertionCount++

	if tree.root == nullNode {
		tree.root = leaf
		tree.nodes[tree.root].parent = nullNode
		return
	}

	// Find the best sibling for this node
	leafAABB := tree.nodes[leaf].aabb
	index := tree.root
	for !tree.nodes[index].isLeaf() {
		child1 := tree.nodes[index].child1
		child2 := tree.nodes[index].child2

		area := tree.nodes[index].aabb.Perimeter()

		var combinedAABB AABB
		combinedAABB.CombineTwoInPlace(tree.nodes[index].aabb, leafAABB)
		combinedArea := combinedAABB.Perimeter()

		// Cost of creating a new parent for this node and the new leaf
		cost := 2.0 * combinedArea

		// Minimum cost of pushing the leaf further down the tree
		inheritanceCost := 2.0 * (combinedArea - area)

		// Cost of descending into each child
		cost1 := tree.descendCost(child1, leafAABB) + inheritanceCost
		cost2 := tree.descendCost(child2, leafAABB) + inheritanceCost

		// Descend according to the minimum cost.
		if cost < cost1 && cost < cost2 {
			break
		}

		if cost1 < cost2 {
			index = child1
		} else {
			index = child2
		}
	}

	sibling := index

	// Create a new parent.
	oldParent := tree.nodes[sibling].parent
	newParent := tree.allocateNode()
	tree.nodes[newParent].parent = oldParent
	tree.nodes[newParent].aabb.CombineTwoInPlace(leafAABB, tree.nodes[sibling].aabb)
	tree.nodes[newParent].height = tree.nodes[sibling].height + 1
	tree.nodes[newParent].child1 = sibling
	tree.nodes[newParent].child2 = leaf
	tree.nodes[sibling].parent = newParent
	tree.nodes[leaf].parent = newParent

	if oldParent != nullNode {
		// The sibling was not the root.
		if tree.nodes[oldParent].child1 == sibling {
			tree.nodes[oldParent].child1 = newParent
		} else {
			tree.nodes[oldParent].child2 = newParent
		}
	} else {
		// The sibling was the root.
		tree.root = newParent
	}

	// Walk back up the tree fixing heights and AABBs
	tree.refit(tree.nodes[leaf].parent)
}

// descendCost is the perimeter growth of pushing leafAABB into child.
func (tree *DynamicTree) descendCost(child int, leafAABB AABB) float64 {
	var aabb AABB
	aabb.CombineTwoInPlace(leafAABB, tree.nodes[child].aabb)
	if tree.nodes[child].isLeaf() {
		return aabb.Perimeter()
	}
	return aabb.Perimeter() - tree.nodes[child].aabb.Perimeter()
}

// refit rebalances and recomputes bounds from index up to the root.
func (tree *DynamicTree) refit(index int) {
	for index != nullNode {
		index = tree.balance(index)

		child1 := tree.nodes[index].child1
		child2 := tree.nodes[index].child2

		assert(child1 != nullNode && child2 != nullNode, "internal node without children")

		tree.nodes[index].height = 1 + maxInt(tree.nodes[child1].height, tree.nodes[child2].height)
		tree.nodes[index].aabb.CombineTwoInPlace(tree.nodes[child1].aabb, tree.nodes[child2].aabb)

		index = tree.nodes[index].parent
	}
}

func (tree *DynamicTree) removeLeaf(leaf int) {
	if leaf == tree.root {
		tree.root = nullNode
		return
	}

	parent := tree.nodes[leaf].parent
	grandParent := tree.nodes[parent].parent
	sibling := tree.nodes[parent].child1
	if sibling == leaf {
		sibling = tree.nodes[parent].child2
	}

	if grandParent == nullNode {
		tree.root = sibling
		tree.nodes[sibling].parent = nullNode
		tree.freeNode(parent)
		return
	}

	// Destroy parent and connect sibling to grandParent.
	if tree.nodes[grandParent].child1 == parent {
		tree.nodes[grandParent].child1 = sibling
	} else {
		tree.nodes[grandParent].child2 = sibling
	}
	tree.nodes[sibling].parent = grandParent
	tree.freeNode(parent)

	// Adjust ancestor bounds.
	tree.refit(grandParent)
}

// Perform a left or right rotation if node A is imbalanced.
// Returns the new root index.
func (tree *DynamicTree) balance(iA int) int {
	assert(iA != nullNode, "balance on null node")

	A := &tree.nodes[iA]
	if A.isLeaf() || A.height < 2 {
		return iA
	}

	iB := A.child1
	iC := A.child2
	B := &tree.nodes[iB]
	C := &tree.nodes[iC]

	balance := C.height - B.height

	// Rotate C up
	if balance > 1 {
		iF := C.child1
		iG := C.child2
		F := &tree.nodes[iF]
		G := &tree.nodes[iG]

		// Swap A and C
		C.child1 = iA
		C.parent = A.parent
		A.parent = iC

		// A's old parent should point to C
		tree.replaceChild(C.parent, iA, iC)

		// Rotate
		if F.height > G.height {
			C.child2 = iF
			A.child2 = iG
			G.parent = iA
			A.aabb.CombineTwoInPlace(B.aabb, G.aabb)
			C.aabb.CombineTwoInPlace(A.aabb, F.aabb)

			A.height = 1 + maxInt(B.height, G.height)
			C.height = 1 + maxInt(A.height, F.height)
		} else {
			C.child2 = iG
			A.child2 = iF
			F.parent = iA
			A.aabb.CombineTwoInPlace(B.aabb, F.aabb)
			C.aabb.CombineTwoInPlace(A.aabb, G.aabb)

			A.height = 1 + maxInt(B.height, F.height)
			C.height = 1 + maxInt(A.height, G.height)
		}

		return iC
	}

	// Rotate B up
	if balance < -1 {
		iD := B.child1
		iE := B.child2
		D := &tree.nodes[iD]
		E := &tree.nodes[iE]

		// Swap A and B
		B.child1 = iA
		B.parent = A.parent
		A.parent = iB

		// A's old parent should point to B
		tree.replaceChild(B.parent, iA, iB)

		// Rotate
		if D.height > E.height {
			B.child2 = iD
			A.child1 = iE
			E.parent = iA
			A.aabb.CombineTwoInPlace(C.aabb, E.aabb)
			B.aabb.CombineTwoInPlace(A.aabb, D.aabb)

			A.height = 1 + maxInt(C.height, E.height)
			B.height = 1 + maxInt(A.height, D.height)
		} else {
			B.child2 = iE
			A.child1 = iD
			D.parent = iA
			A.aabb.CombineTwoInPlace(C.aabb, D.aabb)
			B.aabb.CombineTwoInPlace(A.aabb, E.aabb)

			A.height = 1 + maxInt(C.height, D.height)
			B.height = 1 + maxInt(A.height, E.height)
		}

		return iB
	}

	return iA
}

// replaceChild points parent at newChild instead of oldChild, or makes
// newChild the root when parent is null.
func (tree *DynamicTree) replaceChild(parent, oldChild, newChild int) {
	if parent == nullNode {
		tree.root = newChild
		return
	}
	if tree.nodes[parent].child1 == oldChild {
		tree.nodes[parent].child1 = newChild
	} else {
		assert(tree.nodes[parent].child2 == oldChild, "parent does not own child")
		tree.nodes[parent].child2 = newChild
	}
}

/// Height is the height of the binary tree in O(1).
func (tree *DynamicTree) Height() int {
	if tree.root == nullNode {
		return 0
	}
	return tree.nodes[tree.root].height
}

/// AreaRatio is the ratio of the sum of the node areas to the root area.
func (tree *DynamicTree) AreaRatio() float64 {
	if tree.root == nullNode {
		return 0.0
	}

	rootArea := tree.nodes[tree.root].aabb.Perimeter()

	totalArea := 0.0
	for i := range tree.nodes {
		node := &tree.nodes[i]
		if node.height < 0 {
			// Free node in pool
			continue
		}
		totalArea += node.aabb.Perimeter()
	}

	return totalArea / rootArea
}

/// MaxBalance is the maximum height difference between the two children
/// of any node.
func (tree *DynamicTree) MaxBalance() int {
	maxBalance := 0
	for i := range tree.nodes {
		node := &tree.nodes[i]
		if node.height <= 1 {
			continue
		}

		balance := absInt(tree.nodes[node.child2].height - tree.nodes[node.child1].height)
		maxBalance = maxInt(maxBalance, balance)
	}

	return maxBalance
}

func (tree *DynamicTree) computeHeight(nodeID int) int {
	node := &tree.nodes[nodeID]
	if node.isLeaf() {
		return 0
	}
	return 1 + maxInt(tree.computeHeight(node.child1), tree.computeHeight(node.child2))
}

/// Validate checks the structure and the cached metrics of the tree.
func (tree *DynamicTree) Validate() error {
	if err := tree.validateNode(tree.root); err != nil {
		return err
	}

	freeCount := 0
	for freeIndex := tree.freeList; freeIndex != nullNode; freeIndex = tree.nodes[freeIndex].next {
		freeCount++
	}

	if tree.Height() != tree.computeTotalHeight() {
		return errors.Errorf("tree height %d, computed %d", tree.Height(), tree.computeTotalHeight())
	}
	if tree.nodeCount+freeCount != len(tree.nodes) {
		return errors.Errorf("tree has %d nodes and %d free of capacity %d", tree.nodeCount, freeCount, len(tree.nodes))
	}
	return nil
}

func (tree *DynamicTree) computeTotalHeight() int {
	if tree.root == nullNode {
		return 0
	}
	return tree.computeHeight(tree.root)
}

func (tree *DynamicTree) validateNode(index int) error {
	if index == nullNode {
		return nil
	}

	node := &tree.nodes[index]
	if index == tree.root && node.parent != nullNode {
		return errors.Errorf("root %d has parent %d", index, node.parent)
	}

	if node.isLeaf() {
		if node.child2 != nullNode || node.height != 0 {
			return errors.Errorf("leaf %d has child %d height %d", index, node.child2, node.height)
		}
		return nil
	}

	child1, child2 := node.child1, node.child2
	if tree.nodes[child1].parent != index || tree.nodes[child2].parent != index {
		return errors.Errorf("children of %d do not point back", index)
	}

	if node.height != 1+maxInt(tree.nodes[child1].height, tree.nodes[child2].height) {
		return errors.Errorf("node %d has stale height %d", index, node.height)
	}

	var aabb AABB
	aabb.CombineTwoInPlace(tree.nodes[child1].aabb, tree.nodes[child2].aabb)
	if aabb != node.aabb {
		return errors.Errorf("node %d has stale bounds", index)
	}

	if err := tree.validateNode(child1); err != nil {
		return err
	}
	return tree.validateNode(child2)
}

/// RebuildBottomUp builds an optimal tree. Very expensive; for testing.
func (tree *DynamicTree) RebuildBottomUp() {
	nodes := make([]int, 0, tree.nodeCount)

	// Build array of leaves. Free the rest.
	for i := range tree.nodes {
		if tree.nodes[i].height < 0 {
			// free node in pool
			continue
		}

		if tree.nodes[i].isLeaf() {
			tree.nodes[i].parent = nullNode
			nodes = append(nodes, i)
		} else {
			tree.freeNode(i)
		}
	}

	count := len(nodes)
	for count > 1 {
		minCost := MaxFloat
		iMin, jMin := -1, -1
		for i := 0; i < count; i++ {
			aabbi := tree.nodes[nodes[i]].aabb

			for j := i + 1; j < count; j++ {
				var b AABB
				b.CombineTwoInPlace(aabbi, tree.nodes[nodes[j]].aabb)
				if cost := b.Perimeter(); cost < minCost {
					iMin, jMin = i, j
					minCost = cost
				}
			}
		}

		index1 := nodes[iMin]
		index2 := nodes[jMin]

		// allocateNode may grow the node slice, so take pointers afterwards.
		parentIndex := tree.allocateNode()
		child1 := &tree.nodes[index1]
		child2 := &tree.nodes[index2]
		parent := &tree.nodes[parentIndex]
		parent.child1 = index1
		parent.child2 = index2
		parent.height = 1 + maxInt(child1.height, child2.height)
		parent.aabb.CombineTwoInPlace(child1.aabb, child2.aabb)
		parent.parent = nullNode

		child1.parent = parentIndex
		child2.parent = parentIndex

		nodes[jMin] = nodes[count-1]
		nodes[iMin] = parentIndex
		count--
	}

	if count == 1 {
		tree.root = nodes[0]
	} else {
		tree.root = nullNode
	}
}

/// ShiftOrigin translates every node. newOrigin is the new origin expressed
/// in the old coordinate system.
func (tree *DynamicTree) ShiftOrigin(newOrigin Vec2) {
	for i := range tree.nodes {
		tree.nodes[i].aabb.LowerBound = tree.nodes[i].aabb.LowerBound.Sub(newOrigin)
		tree.nodes[i].aabb.UpperBound = tree.nodes[i].aabb.UpperBound.Sub(newOrigin)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
