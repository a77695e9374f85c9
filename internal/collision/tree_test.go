package collision

import (
	"testing"

	"github.com/radiusengine/willow-radius/internal/entity"
)

func square(x, y, half float64) []entity.Triangle {
	return []entity.Triangle{
		{x - half, y - half, x + half, y - half, x + half, y + half},
		{x - half, y - half, x + half, y + half, x - half, y + half},
	}
}

func newEntityAt(x, y, half float64) *entity.Entity {
	e := entity.New()
	e.SetMesh(square(x, y, half))
	return e
}

func TestSplitOnSixteenthInsert(t *testing.T) {
	tree := NewTree()
	var entities []*entity.Entity
	// Sixteen well-separated, non-overlapping 2x2 squares.
	for i := 0; i < 16; i++ {
		e := newEntityAt(float64(i)*100, float64(i)*100, 1)
		entities = append(entities, e)
		tree.Insert(e)
	}

	if tree.root.children == nil {
		t.Fatal("expected root to have split after 16th insert")
	}
	if len(tree.root.entries) > 12 {
		t.Fatalf("root entries after split = %d, want <= 12", len(tree.root.entries))
	}

	for _, e := range entities {
		tree.Remove(e)
	}
	tree.Update()
	if tree.root.children != nil {
		t.Fatal("expected root pruned back to empty leaf after removing all entities")
	}
}

func TestVersionInvalidationPromotesToAncestor(t *testing.T) {
	tree := NewTree()
	var entities []*entity.Entity
	for i := 0; i < 16; i++ {
		e := newEntityAt(float64(i)*1000, float64(i)*1000, 1)
		entities = append(entities, e)
		tree.Insert(e)
	}
	if tree.root.children == nil {
		t.Fatal("expected split")
	}

	target := entities[0]
	nBefore, _ := tree.NodeOf(target)

	// Move the entity far enough that its bounds can no longer be
	// strictly contained by the child it was assigned to.
	target.SetMesh(square(1e9, 1e9, 1))

	tree.ForEachCollision(func(a, b *entity.Entity) {})

	nAfter, ok := tree.NodeOf(target)
	if !ok {
		t.Fatal("target should remain indexed")
	}
	if nAfter == nBefore {
		t.Fatal("expected target to be promoted to a different (ancestor) node")
	}
}

func TestForEachCollisionFindsOverlappingPair(t *testing.T) {
	tree := NewTree()
	a := newEntityAt(0, 0, 5)
	b := newEntityAt(3, 0, 5)
	c := newEntityAt(1000, 1000, 5)
	tree.Insert(a)
	tree.Insert(b)
	tree.Insert(c)

	var pairs [][2]*entity.Entity
	tree.ForEachCollision(func(x, y *entity.Entity) {
		pairs = append(pairs, [2]*entity.Entity{x, y})
	})

	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	got := pairs[0]
	if !(got[0] == a && got[1] == b) && !(got[0] == b && got[1] == a) {
		t.Fatalf("unexpected pair: %v", got)
	}
}

func TestFilteredForEachHonorsGroups(t *testing.T) {
	tree := NewTree()
	a := newEntityAt(0, 0, 5)
	a.Group = 1
	b := newEntityAt(3, 0, 5)
	b.Group = 2
	c := newEntityAt(3, 0, 5)
	c.Group = 1 // same group as a: a and c are never paired, but c drives its own test against b

	tree.Insert(a)
	tree.Insert(b)
	tree.Insert(c)

	var pairs int
	tree.ForEachCollisionFiltered(1, 2, func(x, y *entity.Entity) { pairs++ })
	if pairs != 2 {
		t.Fatalf("got %d filtered pairs, want 2", pairs)
	}
}

func TestTriangleIntersectCCWSelfOverlap(t *testing.T) {
	a := newEntityAt(0, 0, 1)
	b := newEntityAt(0.5, 0.5, 1)
	if !Intersect(a, b) {
		t.Fatal("expected overlapping squares to intersect")
	}

	c := newEntityAt(100, 100, 1)
	if Intersect(a, c) {
		t.Fatal("expected far-apart squares not to intersect")
	}
}
