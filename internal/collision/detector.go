package collision

import (
	"github.com/radiusengine/willow-radius/internal/deferredlist"
	"github.com/radiusengine/willow-radius/internal/entity"
)

// Detector is the script-facing handle a layer uses to add/remove
// collision-tested entities. It wraps a Tree with a deferred children
// list: while iteration (or any other locked scope) is in progress,
// AddChild/RemoveChild queue into the children list and are only
// replayed into the tree on final unlock.
type Detector struct {
	children *deferredlist.List[childOp]
	tree     *Tree
	locks    int
}

type childOp struct {
	entity *entity.Entity
}

// NewDetector returns an empty detector backed by a tree covering the
// default world rectangle.
func NewDetector() *Detector {
	return &Detector{
		children: deferredlist.New[childOp](),
		tree:     NewTree(),
	}
}

// NewDetectorWithBounds returns an empty detector backed by a tree
// covering the given world rectangle, used by the scene glue layer to
// honor a host-supplied config.Rect.
func NewDetectorWithBounds(minX, minY, maxX, maxY float64) *Detector {
	return &Detector{
		children: deferredlist.New[childOp](),
		tree:     NewTreeWithBounds(minX, minY, maxX, maxY),
	}
}

// Tree exposes the underlying quadtree for direct queries.
func (d *Detector) Tree() *Tree { return d.tree }

// AddChild inserts e. If the detector is currently locked (mid
// iteration), the insert is queued and replayed into the tree on unlock;
// otherwise it is applied immediately.
func (d *Detector) AddChild(e *entity.Entity) {
	d.children.Add(childOp{entity: e})
	if d.locks <= 0 {
		d.tree.Insert(e)
	}
}

// RemoveChild removes e. Same locked/unlocked split as AddChild.
func (d *Detector) RemoveChild(e *entity.Entity) {
	if d.locks <= 0 {
		d.tree.Remove(e)
	}
	d.children.Remove(childOp{entity: e}, func(a, b childOp) bool { return a.entity == b.entity })
}

// ClearChildren drops every child, immediately if unlocked.
func (d *Detector) ClearChildren() {
	if d.locks <= 0 {
		d.tree.Clear()
	}
	d.children.Clear()
}

// lock increments the lock count and locks the children list.
func (d *Detector) lock() {
	d.locks++
	d.children.Lock()
}

// unlock decrements the lock count; on transition to zero it replays
// every queued op into the tree (Add -> tree.Insert, Remove ->
// tree.Remove) — the deferred list itself only tracks valid/removed
// membership, so replay is driven here rather than via the list's own
// insert hook.
func (d *Detector) unlock() {
	d.locks--
	if d.locks > 0 {
		d.children.Unlock(nil)
		return
	}
	// Snapshot pending ops before committing, since Unlock drops
	// removed entries and we still need to know which they were.
	var toRemove []*entity.Entity
	d.children.EachPendingRemove(func(op childOp) { toRemove = append(toRemove, op.entity) })
	var toAdd []*entity.Entity
	d.children.EachPendingAdd(func(op childOp) { toAdd = append(toAdd, op.entity) })

	d.children.Unlock(nil)

	for _, e := range toRemove {
		d.tree.Remove(e)
	}
	for _, e := range toAdd {
		d.tree.Insert(e)
	}
}

// ForEachCollision locks the detector, runs the tree's unfiltered
// for-each, then unlocks and replays any mutations queued during
// iteration.
func (d *Detector) ForEachCollision(fn CollisionFunc) {
	d.lock()
	d.tree.ForEachCollision(fn)
	d.unlock()
}

// ForEachCollisionFiltered is ForEachCollision with the group1/group2
// filter.
func (d *Detector) ForEachCollisionFiltered(group1, group2 uint32, fn CollisionFunc) {
	d.lock()
	d.tree.ForEachCollisionFiltered(group1, group2, fn)
	d.unlock()
}

// CheckCollision is a direct pairwise test, independent of tree
// membership.
func (d *Detector) CheckCollision(a, b *entity.Entity) bool {
	return Intersect(a, b)
}
