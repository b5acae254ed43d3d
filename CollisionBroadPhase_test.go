package kbox2d

import (
	"math/rand"
	"sort"
	"testing"
)

func randomAABB(rng *rand.Rand, extent float64) AABB {
	c := MakeVec2(rng.Float64()*extent, rng.Float64()*extent)
	h := MakeVec2(0.1+rng.Float64(), 0.1+rng.Float64())
	return MakeAABB(c.Sub(h), c.Add(h))
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBroadPhaseQueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bp := NewBroadPhase()

	live := make(map[int]bool)
	for i := 0; i < 300; i++ {
		id := bp.CreateProxy(randomAABB(rng, 50.0), i)
		live[id] = true
	}

	// Move a third, destroy a sixth.
	for _, id := range sortedKeys(live) {
		switch rng.Intn(6) {
		case 0, 1:
			aabb := randomAABB(rng, 50.0)
			bp.MoveProxy(id, aabb, MakeVec2(rng.Float64()-0.5, rng.Float64()-0.5))
		case 2:
			bp.DestroyProxy(id)
			delete(live, id)
		}
	}

	if bp.ProxyCount() != len(live) {
		t.Fatalf("proxy count %d, want %d", bp.ProxyCount(), len(live))
	}
	if err := bp.tree.Validate(); err != nil {
		t.Fatalf("tree invalid after updates: %v", err)
	}

	check := func(stage string) {
		for q := 0; q < 100; q++ {
			query := randomAABB(rng, 50.0)

			got := make(map[int]bool)
			bp.Query(func(proxyID int) bool {
				got[proxyID] = true
				return true
			}, query)

			want := make(map[int]bool)
			for id := range live {
				if TestOverlapAABB(bp.FatAABB(id), query) {
					want[id] = true
				}
			}

			if g, w := sortedKeys(got), sortedKeys(want); !equalInts(g, w) {
				t.Fatalf("%s query %d: got %v, want %v", stage, q, g, w)
			}
		}
	}

	check("incremental")

	bp.tree.RebuildBottomUp()
	if err := bp.tree.Validate(); err != nil {
		t.Fatalf("tree invalid after rebuild: %v", err)
	}
	check("rebuilt")

	if bp.TreeBalance() < 0 || bp.TreeQuality() < 1.0 {
		t.Fatalf("balance %d quality %v", bp.TreeBalance(), bp.TreeQuality())
	}
}

func TestBroadPhaseUpdatePairs(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	bp := NewBroadPhase()

	const n = 120
	ids := make([]int, n)
	for i := range ids {
		ids[i] = bp.CreateProxy(randomAABB(rng, 20.0), i)
	}

	type pair struct{ a, b int }
	var got []pair
	bp.UpdatePairs(func(userDataA, userDataB interface{}) {
		got = append(got, pair{userDataA.(int), userDataB.(int)})
	})

	var want []pair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if bp.TestOverlap(ids[i], ids[j]) {
				want = append(want, pair{i, j})
			}
		}
	}

	// Proxy ids follow creation order here, so user data order matches.
	if len(got) != len(want) {
		t.Fatalf("%d pairs, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("pair %d = %v, want %v", i, got[i], want[i])
		}
	}

	// Nothing moved: no pairs.
	count := 0
	bp.UpdatePairs(func(interface{}, interface{}) { count++ })
	if count != 0 {
		t.Fatalf("%d pairs reported without movement", count)
	}
}

func TestDynamicTreeShiftOrigin(t *testing.T) {
	tree := NewDynamicTree()
	id := tree.CreateProxy(MakeAABB(MakeVec2(10, 10), MakeVec2(11, 11)), nil)

	tree.ShiftOrigin(MakeVec2(10, 10))

	fat := tree.FatAABB(id)
	want := MakeAABB(MakeVec2(-AABBExtension, -AABBExtension), MakeVec2(1+AABBExtension, 1+AABBExtension))
	if Vec2Distance(fat.LowerBound, want.LowerBound) > 1e-12 || Vec2Distance(fat.UpperBound, want.UpperBound) > 1e-12 {
		t.Fatalf("shifted aabb %v, want %v", fat, want)
	}
	if err := tree.Validate(); err != nil {
		t.Fatal(err)
	}
}
