// Package collision implements the versioned quadtree spatial index and
// triangle-triangle intersection test used to find colliding entity pairs.
package collision

import (
	"github.com/radiusengine/willow-radius/internal/entity"
)

// SplitThreshold is the entry count above which a leaf is eligible to
// split into four children.
const SplitThreshold = 15

// Default world rectangle, matching the original engine's collision
// bounds: entities outside this range are never strictly contained by any
// node and stay at the root.
const (
	DefaultMinX = -500000
	DefaultMinY = -500000
	DefaultMaxX = 500000
	DefaultMaxY = 500000
)

const childCount = 4

const (
	childNE = iota
	childNW
	childSW
	childSE
)

type nodeEntry struct {
	e       *entity.Entity
	version uint32 // 0 is the "invalid, pending removal" sentinel
}

type node struct {
	min, max [2]float64
	entries  []nodeEntry
	children []*node // nil when this node is a leaf
	parent   *node
}

func newNode(parent *node, minX, minY, maxX, maxY float64) *node {
	return &node{
		min:    [2]float64{minX, minY},
		max:    [2]float64{maxX, maxY},
		parent: parent,
	}
}

func (n *node) validateEntity(b entity.Rect) bool {
	return b.MinX > n.min[0] && b.MinY > n.min[1] && b.MaxX < n.max[0] && b.MaxY < n.max[1]
}

// Tree is a quadtree over entity bounds keyed by strict rectangle
// containment, with a hash index from entity to containing node.
type Tree struct {
	root  *node
	index map[*entity.Entity]*node
}

// NewTree returns an empty tree covering the default world rectangle.
func NewTree() *Tree {
	return NewTreeWithBounds(DefaultMinX, DefaultMinY, DefaultMaxX, DefaultMaxY)
}

// NewTreeWithBounds returns an empty tree covering the given world
// rectangle.
func NewTreeWithBounds(minX, minY, maxX, maxY float64) *Tree {
	return &Tree{
		root:  newNode(nil, minX, minY, maxX, maxY),
		index: make(map[*entity.Entity]*node),
	}
}

// Insert adds e to the tree at the smallest node that strictly contains
// its current bounds.
func (t *Tree) Insert(e *entity.Entity) {
	t.insertInto(t.root, e, e.Bounds())
}

func (t *Tree) tryInsertIntoChild(n *node, e *entity.Entity, b entity.Rect) bool {
	if n.children == nil {
		return false
	}
	for _, c := range n.children {
		if c.validateEntity(b) {
			t.insertInto(c, e, b)
			return true
		}
	}
	return false
}

func (t *Tree) insertInto(n *node, e *entity.Entity, b entity.Rect) {
	inserted := false
	if n.children != nil {
		inserted = t.tryInsertIntoChild(n, e, b)
	}
	if inserted {
		return
	}
	n.entries = append(n.entries, nodeEntry{e: e, version: e.Version()})
	t.index[e] = n
	if n.children == nil && len(n.entries) > SplitThreshold {
		t.split(n)
	}
}

// split computes the split point as the mean of all entries' min/max
// corners, creates four children sharing that center, and pushes down
// every entry that is now strictly contained by exactly one child.
func (t *Tree) split(n *node) {
	var sumX, sumY float64
	count := 0
	for _, ent := range n.entries {
		b := ent.e.Bounds()
		sumX += b.MinX + b.MaxX
		sumY += b.MinY + b.MaxY
		count += 2
	}
	if count == 0 {
		return
	}
	cx := sumX / float64(count)
	cy := sumY / float64(count)

	children := make([]*node, childCount)
	children[childNE] = newNode(n, cx, cy, n.max[0], n.max[1])
	children[childNW] = newNode(n, n.min[0], cy, cx, n.max[1])
	children[childSW] = newNode(n, n.min[0], n.min[1], cx, cy)
	children[childSE] = newNode(n, cx, n.min[1], n.max[0], cy)
	n.children = children

	remaining := n.entries[:0]
	for _, ent := range n.entries {
		b := ent.e.Bounds()
		if t.tryInsertIntoChild(n, ent.e, b) {
			continue
		}
		remaining = append(remaining, ent)
	}
	n.entries = remaining
}

// Remove drops e from whichever node currently holds it.
func (t *Tree) Remove(e *entity.Entity) bool {
	n, ok := t.index[e]
	if !ok {
		return false
	}
	for i, ent := range n.entries {
		if ent.e == e {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			delete(t.index, e)
			return true
		}
	}
	delete(t.index, e)
	return false
}

// Update runs the lazy validate -> purge invalid -> reinsert -> prune
// cycle. ForEachCollision and ForEachCollisionFiltered run it first.
func (t *Tree) Update() {
	invalid := t.validate(t.root)
	if len(invalid) > 0 {
		t.purgeInvalid(t.root)
		for _, e := range invalid {
			t.Insert(e)
		}
	}
	t.prune(t.root)
}

// validate walks the tree checking every entry whose stamped version is
// stale against the entity's current version, pushing still-valid
// entries down into children when possible and marking entries whose
// bounds no longer fit this node (version sentinel 0) for purge+reinsert.
func (t *Tree) validate(n *node) []*entity.Entity {
	var invalid []*entity.Entity
	for i := 0; i < len(n.entries); i++ {
		ent := &n.entries[i]
		if ent.version == ent.e.Version() {
			continue
		}
		b := ent.e.Bounds()
		if !n.validateEntity(b) {
			ent.version = 0
			invalid = append(invalid, ent.e)
			continue
		}
		if t.tryInsertIntoChild(n, ent.e, b) {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			i--
			continue
		}
		ent.version = ent.e.Version()
	}
	if n.children != nil {
		for _, c := range n.children {
			invalid = append(invalid, t.validate(c)...)
		}
	}
	return invalid
}

func (t *Tree) purgeInvalid(n *node) {
	kept := n.entries[:0]
	for _, ent := range n.entries {
		if ent.version == 0 {
			delete(t.index, ent.e)
			continue
		}
		kept = append(kept, ent)
	}
	n.entries = kept
	if n.children != nil {
		for _, c := range n.children {
			t.purgeInvalid(c)
		}
	}
}

// prune frees any node whose four children are all empty leaves.
func (t *Tree) prune(n *node) {
	if n.children == nil {
		return
	}
	for _, c := range n.children {
		t.prune(c)
	}
	allEmpty := true
	for _, c := range n.children {
		if c.children != nil || len(c.entries) > 0 {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		n.children = nil
	}
}

// NodeOf reports the node currently indexed for e, for test assertions
// (e.g. "promoted to its ancestor" after a version invalidation).
func (t *Tree) NodeOf(e *entity.Entity) (any, bool) {
	n, ok := t.index[e]
	return n, ok
}

// CollisionFunc is invoked for every intersecting pair found by a
// for-each traversal. Order within the pair is traversal order, not
// meaningful otherwise.
type CollisionFunc func(a, b *entity.Entity)

// ForEachCollision validates the tree, then depth-first visits every
// node testing each entry against later entries in the same node and
// against every entry in every descendant, visiting each pair once.
func (t *Tree) ForEachCollision(fn CollisionFunc) {
	t.Update()
	t.forEachCollision(t.root, fn)
}

func (t *Tree) forEachCollision(n *node, fn CollisionFunc) {
	for i := range n.entries {
		e1 := n.entries[i].e
		t.testAgainstNode(n, i+1, e1, fn)
		t.testAgainstDescendants(n, e1, fn)
	}
	if n.children != nil {
		for _, c := range n.children {
			t.forEachCollision(c, fn)
		}
	}
}

func (t *Tree) testAgainstNode(n *node, fromIndex int, e1 *entity.Entity, fn CollisionFunc) {
	for j := fromIndex; j < len(n.entries); j++ {
		e2 := n.entries[j].e
		if Intersect(e1, e2) {
			fn(e1, e2)
		}
	}
}

func (t *Tree) testAgainstDescendants(n *node, e1 *entity.Entity, fn CollisionFunc) {
	if n.children == nil {
		return
	}
	for _, c := range n.children {
		t.testAgainstNode(c, 0, e1, fn)
		t.testAgainstDescendants(c, e1, fn)
	}
}

// ForEachCollisionFiltered validates the tree, then reports every pair
// (A, B) where A.Group == group1 and B matches group2 (or B.Group !=
// group1 when group2 == 0), searching the same node, all descendants,
// and all strict ancestors of A's node — ancestors are tested against but
// never drive their own entries into this traversal.
func (t *Tree) ForEachCollisionFiltered(group1, group2 uint32, fn CollisionFunc) {
	t.Update()
	t.forEachFiltered(t.root, group1, group2, fn)
}

func (t *Tree) forEachFiltered(n *node, group1, group2 uint32, fn CollisionFunc) {
	for i := range n.entries {
		e1 := n.entries[i].e
		if e1.Group != group1 {
			continue
		}
		t.testNodeFiltered(n, e1, group1, group2, fn)
		for p := n.parent; p != nil; p = p.parent {
			t.testSingleNodeFiltered(p, e1, group1, group2, fn)
		}
	}
	if n.children != nil {
		for _, c := range n.children {
			t.forEachFiltered(c, group1, group2, fn)
		}
	}
}

// testNodeFiltered tests e1 against every matching entry in n and (for
// the node itself) recurses into its descendants, matching the source's
// "check this node, then recursively check child nodes" pairing used by
// both the direct node and every descendant in a for-each-filtered pass.
func (t *Tree) testNodeFiltered(n *node, e1 *entity.Entity, group1, group2 uint32, fn CollisionFunc) {
	t.testSingleNodeFiltered(n, e1, group1, group2, fn)
	if n.children != nil {
		for _, c := range n.children {
			t.testNodeFiltered(c, e1, group1, group2, fn)
		}
	}
}

func (t *Tree) testSingleNodeFiltered(n *node, e1 *entity.Entity, group1, group2 uint32, fn CollisionFunc) {
	for _, ent := range n.entries {
		e2 := ent.e
		matches := e2.Group == group2
		if group2 == 0 {
			matches = e2.Group != group1
		}
		if !matches {
			continue
		}
		if Intersect(e1, e2) {
			fn(e1, e2)
		}
	}
}

// Clear removes every entry from the tree.
func (t *Tree) Clear() {
	t.root = newNode(nil, t.root.min[0], t.root.min[1], t.root.max[0], t.root.max[1])
	t.index = make(map[*entity.Entity]*node)
}
