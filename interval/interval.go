// Package interval implements the Interval Tree of Cost Intervals: a
// balanced BST keyed by start time and augmented with subtree-max end,
// supporting point and range queries in O(log n + k).
package interval

import (
	"time"

	"github.com/google/uuid"
)

// CostInterval is a time-bounded cost or hazard magnitude. IDs must be
// stable across re-receipts of the same phenomenon
// so that aggregation can dedupe overlapping observations.
type CostInterval struct {
	ID     string
	Start  time.Time
	End    time.Time
	Cost   float64
	Weight float64 // optional; zero means unweighted
}

// NewCostInterval builds a CostInterval with a freshly generated random ID.
// Callers that re-receive updates for the same phenomenon overwrite ID with
// their own stable value after construction.
func NewCostInterval(start, end time.Time, cost float64) CostInterval {
	return CostInterval{ID: uuid.NewString(), Start: start, End: end, Cost: cost}
}

// WeightedCost returns Cost*Weight when Weight is set, else Cost.
func (c CostInterval) WeightedCost() float64 {
	if c.Weight == 0 {
		return c.Cost
	}
	return c.Cost * c.Weight
}

func (c CostInterval) overlapsPoint(t time.Time) bool {
	return !t.Before(c.Start) && !t.After(c.End)
}

func (c CostInterval) overlapsRange(a, b time.Time) bool {
	return !c.Start.After(b) && !c.End.Before(a)
}

type node struct {
	interval    CostInterval
	maxEnd      time.Time
	left, right *node
	height      int
}

// Tree is an AVL-balanced interval tree keyed by CostInterval.Start.
type Tree struct {
	root *node
	size int
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{}
}

// Len returns the number of intervals currently stored.
func (t *Tree) Len() int {
	return t.size
}

// Add inserts a CostInterval into the tree.
func (t *Tree) Add(ci CostInterval) {
	t.root = insert(t.root, ci)
	t.size++
}

// Remove deletes the first interval matching id, reporting whether one was
// found. When multiple intervals share an id (re-receipt with updated
// bounds), only the first encountered by tree order is removed; callers
// that embed validity-window updates should Remove then Add.
func (t *Tree) Remove(id string) bool {
	var removed bool
	t.root, removed = remove(t.root, id)
	if removed {
		t.size--
	}
	return removed
}

// SearchPoint returns every interval containing instant t.
func (t *Tree) SearchPoint(at time.Time) []CostInterval {
	var out []CostInterval
	searchPoint(t.root, at, &out)
	return out
}

// SearchRange returns every interval intersecting [a,b].
func (t *Tree) SearchRange(a, b time.Time) []CostInterval {
	var out []CostInterval
	searchRange(t.root, a, b, &out)
	return out
}

// AggregateCost sums the (deduplicated by ID, first occurrence wins) cost of
// every interval overlapping [start,end]. weighted selects WeightedCost
// over Cost.
func (t *Tree) AggregateCost(start, end time.Time, weighted bool) float64 {
	matches := t.SearchRange(start, end)
	seen := make(map[string]struct{}, len(matches))
	var total float64
	for _, ci := range matches {
		if _, ok := seen[ci.ID]; ok {
			continue
		}
		seen[ci.ID] = struct{}{}
		if weighted {
			total += ci.WeightedCost()
		} else {
			total += ci.Cost
		}
	}
	return total
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func height(n *node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func nodeMaxEnd(n *node) time.Time {
	if n == nil {
		return time.Time{}
	}
	return n.maxEnd
}

func recompute(n *node) {
	n.height = 1 + max(height(n.left), height(n.right))
	m := n.interval.End
	if l := nodeMaxEnd(n.left); l.After(m) {
		m = l
	}
	if r := nodeMaxEnd(n.right); r.After(m) {
		m = r
	}
	n.maxEnd = m
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func balanceFactor(n *node) int {
	return height(n.left) - height(n.right)
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	recompute(y)
	recompute(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	recompute(x)
	recompute(y)
	return y
}

func rebalance(n *node) *node {
	recompute(n)
	bf := balanceFactor(n)
	if bf > 1 {
		if balanceFactor(n.left) < 0 {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	}
	if bf < -1 {
		if balanceFactor(n.right) > 0 {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}

func insert(n *node, ci CostInterval) *node {
	if n == nil {
		return &node{interval: ci, maxEnd: ci.End, height: 1}
	}
	if ci.Start.Before(n.interval.Start) {
		n.left = insert(n.left, ci)
	} else {
		n.right = insert(n.right, ci)
	}
	return rebalance(n)
}

func minNode(n *node) *node {
	for n.left != nil {
		n = n.left
	}
	return n
}

func remove(n *node, id string) (*node, bool) {
	if n == nil {
		return nil, false
	}
	if n.interval.ID == id {
		if n.left == nil {
			return n.right, true
		}
		if n.right == nil {
			return n.left, true
		}
		succ := minNode(n.right)
		n.interval = succ.interval
		n.right, _ = remove(n.right, succ.interval.ID)
		return rebalance(n), true
	}
	var removed bool
	n.left, removed = remove(n.left, id)
	if !removed {
		n.right, removed = remove(n.right, id)
	}
	if !removed {
		return n, false
	}
	return rebalance(n), true
}

func searchPoint(n *node, at time.Time, out *[]CostInterval) {
	if n == nil || at.After(nodeMaxEnd(n)) {
		return
	}
	searchPoint(n.left, at, out)
	if n.interval.overlapsPoint(at) {
		*out = append(*out, n.interval)
	}
	if at.Before(n.interval.Start) {
		return
	}
	searchPoint(n.right, at, out)
}

func searchRange(n *node, a, b time.Time, out *[]CostInterval) {
	if n == nil || a.After(nodeMaxEnd(n)) {
		return
	}
	searchRange(n.left, a, b, out)
	if n.interval.overlapsRange(a, b) {
		*out = append(*out, n.interval)
	}
	if b.Before(n.interval.Start) {
		return
	}
	searchRange(n.right, a, b, out)
}
