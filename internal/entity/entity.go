// Package entity implements the versioned scene-graph node: pose, mesh,
// parent/child structure, and the transform/bounds caches that invalidate
// off a monotonic version counter rather than a boolean dirty flag.
package entity

import (
	"math"

	"github.com/radiusengine/willow-radius/internal/deferredlist"
	"github.com/radiusengine/willow-radius/internal/transform2d"
)

// Rect is an axis-aligned rectangle in absolute coordinates, [Min, Max).
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether the rectangle contains no area.
func (r Rect) Empty() bool {
	return r.MaxX <= r.MinX || r.MaxY <= r.MinY
}

// Contains reports whether other is strictly contained within r:
// other.Min > r.Min and other.Max < r.Max on both axes.
func (r Rect) Contains(other Rect) bool {
	return other.MinX > r.MinX && other.MinY > r.MinY &&
		other.MaxX < r.MaxX && other.MaxY < r.MaxY
}

// Intersects reports whether r and other overlap (half-open AABB test).
func (r Rect) Intersects(other Rect) bool {
	return r.MinX < other.MaxX && r.MaxX > other.MinX &&
		r.MinY < other.MaxY && r.MaxY > other.MinY
}

// Triangle is one CCW-ordered collision triangle in an entity's local mesh
// space. CCW ordering must be enforced by the caller on insertion (signed
// area positive).
type Triangle struct {
	AX, AY, BX, BY, CX, CY float64
}

// SignedArea returns twice the signed area of the triangle; positive for
// CCW ordering.
func (t Triangle) SignedArea() float64 {
	return (t.BX-t.AX)*(t.CY-t.AY) - (t.BY-t.AY)*(t.CX-t.AX)
}

// Color is a non-premultiplied RGBA tint in [0, 1].
type Color struct {
	R, G, B, A float64
}

// Entity is a node in the scene graph: pose, optional collision mesh,
// ordered children, and cached transforms/bounds keyed by version.
type Entity struct {
	// Pose.
	X, Y, Z       float64
	Width, Height float64
	Angle         float64 // degrees
	Tint          Color

	// Filtering/sort.
	Group uint32
	Order float64

	// Mesh (local-space, CCW triangles). Nil means no collision shape.
	Mesh []Triangle

	Parent   *Entity
	children *deferredlist.ZList[*Entity] // ordered by Z for display

	// OnUpdate is the host script's per-tick hook for this entity, called
	// with the frame delta in seconds. Nil means no script behavior. A
	// returned error is routed to the active layer's error handler by
	// internal/scripthost rather than aborting the tick.
	OnUpdate func(dt float64) error

	// version is bumped on every pose/parent mutation of self and,
	// atomically from the mutator's viewpoint, every descendant.
	version uint32

	cachedL2A        transform2d.Transform2D
	cachedL2AVersion uint32
	l2aValid         bool

	cachedA2L        transform2d.Transform2D
	cachedA2LVersion uint32
	a2lValid         bool

	cachedBounds        Rect
	cachedBoundsVersion uint32
	cachedBoundsMeshLen int
	boundsValid         bool
}

func zOrder(a, b *Entity) int {
	switch {
	case a.Z < b.Z:
		return -1
	case a.Z > b.Z:
		return 1
	default:
		return 0
	}
}

// New returns an empty entity with identity scale (Width=Height=1).
func New() *Entity {
	e := &Entity{Width: 1, Height: 1, Tint: Color{1, 1, 1, 1}}
	e.children = deferredlist.NewZList[*Entity](zOrder)
	return e
}

// Version returns the entity's current monotonic version.
func (e *Entity) Version() uint32 { return e.version }

// bump increments e's version and recurses into every descendant, as one
// logical action from the mutator's point of view (script thread only).
func (e *Entity) bump() {
	e.version++
	e.children.Each(func(c *Entity) { c.bump() })
}

// SetPose sets x, y, angle (degrees) and bumps version on self and all
// descendants.
func (e *Entity) SetPose(x, y, angle float64) {
	e.X, e.Y, e.Angle = x, y, angle
	e.bump()
}

// SetSize sets width/height and bumps version.
func (e *Entity) SetSize(w, h float64) {
	e.Width, e.Height = w, h
	e.bump()
}

// SetZ sets display-order Z. Re-sorts this entity within its parent's
// child list (the list enforces Z order itself) and bumps version, since
// world bounds do not change but cached transforms are keyed uniformly on
// version for simplicity.
func (e *Entity) SetZ(z float64) {
	e.Z = z
	if p := e.Parent; p != nil {
		if p.children.Remove(e, func(a, b *Entity) bool { return a == b }) {
			p.children.Add(e)
		}
	}
	e.bump()
}

// SetMesh replaces the local collision mesh. Triangles are expected CCW;
// callers that cannot guarantee this should flip winding before calling.
func (e *Entity) SetMesh(tris []Triangle) {
	e.Mesh = tris
	e.bump()
}

// AddChild appends c to e's children (Z-ordered) and reparents c,
// bumping c's version (and its descendants').
func (e *Entity) AddChild(c *Entity) {
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	c.Parent = e
	e.children.Add(c)
	c.bump()
}

// RemoveChild removes c from e's children. While e's children list is
// locked (mid-iteration), the removal is deferred per the list's contract.
func (e *Entity) RemoveChild(c *Entity) bool {
	removed := e.children.Remove(c, func(a, b *Entity) bool { return a == b })
	if removed {
		c.Parent = nil
		c.bump()
	}
	return removed
}

// LockChildren locks the children list for safe iteration with concurrent
// Add/RemoveChild calls.
func (e *Entity) LockChildren() { e.children.Lock() }

// UnlockChildren commits deferred child mutations queued since the
// matching LockChildren.
func (e *Entity) UnlockChildren() { e.children.Unlock() }

// EachChild visits every currently-valid child in Z order.
func (e *Entity) EachChild(fn func(*Entity)) { e.children.Each(fn) }

// ChildCount returns the number of currently-valid children.
func (e *Entity) ChildCount() int { return e.children.Len() }

// LocalToAbsolute returns the cached local-to-absolute transform,
// recomputing by walking the ancestor chain root-ward if e's version has
// advanced past the cache. Composition is translate -> rotate -> scale,
// applied within each ancestor's frame in turn.
func (e *Entity) LocalToAbsolute() transform2d.Transform2D {
	if e.l2aValid && e.cachedL2AVersion == e.version {
		return e.cachedL2A
	}
	local := transform2d.Local(e.X, e.Y, e.Angle, e.Width, e.Height)
	var t transform2d.Transform2D
	if e.Parent != nil {
		t = transform2d.Multiply(e.Parent.LocalToAbsolute(), local)
	} else {
		t = local
	}
	e.cachedL2A = t
	e.cachedL2AVersion = e.version
	e.l2aValid = true
	return t
}

// AbsoluteToLocal returns the cached absolute-to-local transform,
// recomputing from the parent's absolute-to-local plus the inverse of e's
// own local pose if stale.
func (e *Entity) AbsoluteToLocal() transform2d.Transform2D {
	if e.a2lValid && e.cachedA2LVersion == e.version {
		return e.cachedA2L
	}
	var parentA2L transform2d.Transform2D
	if e.Parent != nil {
		parentA2L = e.Parent.AbsoluteToLocal()
	} else {
		parentA2L = transform2d.Identity()
	}
	sx, sy := 1.0, 1.0
	if e.Width != 0 {
		sx = 1 / e.Width
	}
	if e.Height != 0 {
		sy = 1 / e.Height
	}
	// Inverse of T*R*S is S^-1 * R^-1 * T^-1, applied after the parent's
	// absolute-to-local.
	localInv := transform2d.Identity().Scale(sx, sy)
	localInv = localInv.Rotate(-e.Angle)
	localInv = localInv.Translate(-e.X, -e.Y)
	inv := transform2d.Multiply(localInv, parentA2L)
	e.cachedA2L = inv
	e.cachedA2LVersion = e.version
	e.a2lValid = true
	return inv
}

// Bounds returns the cached absolute-space axis-aligned bounding rectangle
// over every mesh triangle vertex, recomputing when stale: the version
// differs from the cached one, or len(Mesh) differs from the cached
// length. SetMesh bumps the version, so a mesh replaced through SetMesh
// always recomputes; a different mesh of the same length assigned
// directly to Mesh is not detected.
func (e *Entity) Bounds() Rect {
	if e.boundsValid && e.cachedBoundsVersion == e.version && e.cachedBoundsMeshLen == len(e.Mesh) {
		return e.cachedBounds
	}
	if len(e.Mesh) == 0 {
		e.cachedBounds = Rect{}
		e.cachedBoundsVersion = e.version
		e.cachedBoundsMeshLen = 0
		e.boundsValid = true
		return e.cachedBounds
	}
	t := e.LocalToAbsolute()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, tri := range e.Mesh {
		for _, p := range [3][2]float64{{tri.AX, tri.AY}, {tri.BX, tri.BY}, {tri.CX, tri.CY}} {
			x, y := t.Apply(p[0], p[1])
			minX = math.Min(minX, x)
			minY = math.Min(minY, y)
			maxX = math.Max(maxX, x)
			maxY = math.Max(maxY, y)
		}
	}
	e.cachedBounds = Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	e.cachedBoundsVersion = e.version
	e.cachedBoundsMeshLen = len(e.Mesh)
	e.boundsValid = true
	return e.cachedBounds
}

// AbsoluteMesh returns the mesh triangles transformed into absolute space,
// used by the collision intersection test.
func (e *Entity) AbsoluteMesh() []Triangle {
	if len(e.Mesh) == 0 {
		return nil
	}
	t := e.LocalToAbsolute()
	out := make([]Triangle, len(e.Mesh))
	for i, tri := range e.Mesh {
		ax, ay := t.Apply(tri.AX, tri.AY)
		bx, by := t.Apply(tri.BX, tri.BY)
		cx, cy := t.Apply(tri.CX, tri.CY)
		out[i] = Triangle{ax, ay, bx, by, cx, cy}
	}
	return out
}
