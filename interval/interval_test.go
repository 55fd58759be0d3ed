package interval

import (
	"testing"
	"time"

	"go.viam.com/test"
)

func t0() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

func at(minutes int) time.Time {
	return t0().Add(time.Duration(minutes) * time.Minute)
}

func TestSearchPointFindsOverlapping(t *testing.T) {
	tree := New()
	tree.Add(CostInterval{ID: "a", Start: at(0), End: at(10), Cost: 5})
	tree.Add(CostInterval{ID: "b", Start: at(5), End: at(15), Cost: 7})
	tree.Add(CostInterval{ID: "c", Start: at(20), End: at(30), Cost: 1})

	found := tree.SearchPoint(at(6))
	test.That(t, len(found), test.ShouldEqual, 2)

	found = tree.SearchPoint(at(25))
	test.That(t, len(found), test.ShouldEqual, 1)
	test.That(t, found[0].ID, test.ShouldEqual, "c")
}

func TestSearchRange(t *testing.T) {
	tree := New()
	tree.Add(CostInterval{ID: "a", Start: at(0), End: at(10), Cost: 5})
	tree.Add(CostInterval{ID: "b", Start: at(100), End: at(110), Cost: 7})

	found := tree.SearchRange(at(5), at(105))
	test.That(t, len(found), test.ShouldEqual, 2)
}

func TestDedupByIDYieldsSameAggregate(t *testing.T) {
	// Testable property 4: aggregating with two intervals sharing the same
	// id yields the same value as with a single copy.
	single := New()
	single.Add(CostInterval{ID: "x", Start: at(0), End: at(10), Cost: 100})

	dup := New()
	dup.Add(CostInterval{ID: "x", Start: at(0), End: at(10), Cost: 100})
	dup.Add(CostInterval{ID: "x", Start: at(2), End: at(12), Cost: 100})

	test.That(t, dup.AggregateCost(at(0), at(12), false), test.ShouldEqual, single.AggregateCost(at(0), at(10), false))
}

func TestAggregateCostSumsUniqueIDs(t *testing.T) {
	tree := New()
	tree.Add(CostInterval{ID: "a", Start: at(0), End: at(10), Cost: 5})
	tree.Add(CostInterval{ID: "b", Start: at(0), End: at(10), Cost: 7})
	test.That(t, tree.AggregateCost(at(0), at(10), false), test.ShouldEqual, 12)
}

func TestAggregateCostWeighted(t *testing.T) {
	tree := New()
	tree.Add(CostInterval{ID: "a", Start: at(0), End: at(10), Cost: 10, Weight: 0.5})
	test.That(t, tree.AggregateCost(at(0), at(10), true), test.ShouldEqual, 5)
}

func TestRemove(t *testing.T) {
	tree := New()
	tree.Add(CostInterval{ID: "a", Start: at(0), End: at(10), Cost: 5})
	test.That(t, tree.Len(), test.ShouldEqual, 1)
	ok := tree.Remove("a")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, tree.Len(), test.ShouldEqual, 0)
	test.That(t, len(tree.SearchPoint(at(5))), test.ShouldEqual, 0)
}

func TestAddManyThenSearchPointFindsOverlaps(t *testing.T) {
	tree := New()
	for i := 0; i < 200; i++ {
		tree.Add(CostInterval{ID: string(rune('a' + i%26)) + string(rune(i)), Start: at(i), End: at(i + 5), Cost: 1})
	}
	found := tree.SearchPoint(at(100))
	test.That(t, len(found), test.ShouldBeGreaterThan, 0)
}
