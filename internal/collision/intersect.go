package collision

import "github.com/radiusengine/willow-radius/internal/entity"

type point struct{ x, y float64 }

// signedArea is twice the signed area of triangle (p, q, r); positive for
// CCW ordering. This is the orientation predicate the Devillers-Guigue
// case table is built on.
func signedArea(p, q, r point) float64 {
	return (p.x-r.x)*(q.y-r.y) - (p.y-r.y)*(q.x-r.x)
}

// trianglePoint handles the case where t2's vertex r2 is the only vertex
// of t2 outside the half-plane bounded by t1's edge (p1, q1) — the
// "vertex region" case of the Devillers-Guigue algorithm.
func trianglePoint(p1, q1, r1, p2, q2, r2 point) bool {
	if signedArea(r2, p2, q1) >= 0 {
		if signedArea(r2, q2, q1) <= 0 {
			if signedArea(p1, p2, q1) > 0 {
				return signedArea(p1, q2, q1) <= 0
			}
			if signedArea(p1, p2, r1) >= 0 {
				return signedArea(q1, r1, p2) >= 0
			}
			return false
		}
		if signedArea(p1, q2, q1) <= 0 {
			if signedArea(r2, q2, r1) <= 0 {
				return signedArea(q1, r1, q2) >= 0
			}
		}
		return false
	}
	if signedArea(r2, p2, r1) >= 0 {
		if signedArea(q1, r1, r2) >= 0 {
			return signedArea(p1, p2, r1) >= 0
		}
		if signedArea(q1, r1, q2) >= 0 {
			return signedArea(r2, r1, q2) >= 0
		}
	}
	return false
}

// triangleEdge handles the case where t1's edge (p1, q1) crosses an edge
// of t2.
func triangleEdge(p1, q1, r1, p2, q2, r2 point) bool {
	if signedArea(r2, p2, q1) >= 0 {
		if signedArea(p1, p2, q1) >= 0 {
			return signedArea(p1, q1, r2) >= 0
		}
		if signedArea(q1, r1, p2) >= 0 {
			return signedArea(r1, p1, p2) >= 0
		}
		return false
	}
	if signedArea(r2, p2, r1) >= 0 {
		if signedArea(p1, p2, r1) >= 0 {
			if signedArea(p1, r1, r2) >= 0 {
				return true
			}
			return signedArea(q1, r1, r2) >= 0
		}
	}
	return false
}

// triangleIntersectCCW tests two CCW-ordered triangles for intersection,
// using t1's first vertex to select which of the point/edge sub-tests
// applies against t2's three edges.
func triangleIntersectCCW(t1, t2 [3]point) bool {
	if signedArea(t2[0], t2[1], t1[0]) >= 0 {
		if signedArea(t2[1], t2[2], t1[0]) >= 0 {
			if signedArea(t2[2], t2[0], t1[0]) >= 0 {
				return true
			}
			return triangleEdge(t1[0], t1[1], t1[2], t2[0], t2[1], t2[2])
		}
		if signedArea(t2[2], t2[0], t1[0]) >= 0 {
			return triangleEdge(t1[0], t1[1], t1[2], t2[2], t2[0], t2[1])
		}
		return trianglePoint(t1[0], t1[1], t1[2], t2[0], t2[1], t2[2])
	}
	if signedArea(t2[1], t2[2], t1[0]) >= 0 {
		if signedArea(t2[2], t2[0], t1[0]) >= 0 {
			return triangleEdge(t1[0], t1[1], t1[2], t2[1], t2[2], t2[0])
		}
		return trianglePoint(t1[0], t1[1], t1[2], t2[1], t2[2], t2[0])
	}
	return trianglePoint(t1[0], t1[1], t1[2], t2[2], t2[0], t2[1])
}

// Intersect tests two entities for collision: an axis-aligned bounds
// pre-check on cached absolute bounds, then (if not disjoint) a full
// triangle-triangle test over every pair of triangles transformed into
// absolute space. Entities with no mesh never intersect.
func Intersect(e1, e2 *entity.Entity) bool {
	if len(e1.Mesh) == 0 || len(e2.Mesh) == 0 {
		return false
	}
	if !boundsOverlap(e1.Bounds(), e2.Bounds()) {
		return false
	}
	tris1 := e1.AbsoluteMesh()
	tris2 := e2.AbsoluteMesh()
	for _, t1 := range tris1 {
		p1 := [3]point{{t1.AX, t1.AY}, {t1.BX, t1.BY}, {t1.CX, t1.CY}}
		for _, t2 := range tris2 {
			p2 := [3]point{{t2.AX, t2.AY}, {t2.BX, t2.BY}, {t2.CX, t2.CY}}
			if triangleIntersectCCW(p1, p2) {
				return true
			}
		}
	}
	return false
}

func boundsOverlap(a, b entity.Rect) bool {
	return a.MinX <= b.MaxX && b.MinX <= a.MaxX && a.MinY <= b.MaxY && b.MinY <= a.MaxY
}
