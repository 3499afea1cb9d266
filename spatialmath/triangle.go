package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Triangle is an oriented triangle with a cached unit normal. It is a value type; the
// transforming methods return new triangles and never touch the receiver.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle creates a triangle whose normal follows the right hand rule over p0, p1, p2.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// NewTriangleWithNormal creates a triangle that keeps a normal decided elsewhere, e.g. one
// read from a geometry file. The normal is used as given.
func NewTriangleWithNormal(p0, p1, p2, normal r3.Vector) *Triangle {
	return &Triangle{p0: p0, p1: p1, p2: p2, normal: normal}
}

// Points returns the three vertices.
func (t *Triangle) Points() [3]r3.Vector {
	return [3]r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the unit normal.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Constant returns d in the plane equation n·x + d = 0.
func (t *Triangle) Constant() float64 {
	return -t.normal.Dot(t.p0)
}

// SignedDistance is positive on the side the normal points to.
func (t *Triangle) SignedDistance(pt r3.Vector) float64 {
	return t.normal.Dot(pt) + t.Constant()
}

// Area returns the area of the triangle.
func (t *Triangle) Area() float64 {
	return 0.5 * t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm()
}

// Centroid returns the average of the vertices.
func (t *Triangle) Centroid() r3.Vector {
	return t.p0.Add(t.p1).Add(t.p2).Mul(1. / 3.)
}

// Contains reports whether a point on the triangle's plane lies inside it, see PointInTriangle.
func (t *Triangle) Contains(pt r3.Vector, margin float64) bool {
	return PointInTriangle(t.p0, t.p1, t.p2, pt, margin)
}

// Scale multiplies every vertex component-wise by factors. The normal is recomputed and keeps the
// orientation of the original one. All factors must be positive.
func (t *Triangle) Scale(factors r3.Vector) *Triangle {
	p0 := mulElem(t.p0, factors)
	p1 := mulElem(t.p1, factors)
	p2 := mulElem(t.p2, factors)
	// normals transform by the inverse transpose, which for a diagonal scale is a division
	hint := r3.Vector{X: t.normal.X / factors.X, Y: t.normal.Y / factors.Y, Z: t.normal.Z / factors.Z}
	return &Triangle{p0: p0, p1: p1, p2: p2, normal: orientedNormal(p0, p1, p2, hint)}
}

// Transform applies an affine matrix to the vertices and recomputes the normal from the moved
// vertices, oriented to agree with the moved original normal.
func (t *Triangle) Transform(m mgl64.Mat4) *Triangle {
	p0 := TransformPoint(m, t.p0)
	p1 := TransformPoint(m, t.p1)
	p2 := TransformPoint(m, t.p2)
	return &Triangle{p0: p0, p1: p1, p2: p2, normal: orientedNormal(p0, p1, p2, TransformDirection(m, t.normal))}
}

// ClosestPointToPoint returns the point of the triangle nearest to point.
func (t *Triangle) ClosestPointToPoint(point r3.Vector) r3.Vector {
	closestPtInside, inside := t.ClosestInsidePoint(point)
	if inside {
		return closestPtInside
	}

	// Outside the prism over the triangle the closest point is on an edge.
	closestPt := ClosestPointSegmentPoint(t.p0, t.p1, point)
	bestDist := point.Sub(closestPt).Norm2()

	newPt := ClosestPointSegmentPoint(t.p1, t.p2, point)
	if newDist := point.Sub(newPt).Norm2(); newDist < bestDist {
		closestPt = newPt
		bestDist = newDist
	}

	newPt = ClosestPointSegmentPoint(t.p2, t.p0, point)
	if newDist := point.Sub(newPt).Norm2(); newDist < bestDist {
		return newPt
	}
	return closestPt
}

// ClosestInsidePoint projects point onto the triangle's plane and reports whether the projection
// lands inside the triangle.
func (t *Triangle) ClosestInsidePoint(point r3.Vector) (r3.Vector, bool) {
	eps := 1e-6

	// Q = p0 + u*e0 + v*e1 is inside when u, v >= 0 and u+v <= 1.
	e0 := t.p1.Sub(t.p0)
	e1 := t.p2.Sub(t.p0)
	a := e0.Norm2()
	b := e0.Dot(e1)
	c := e1.Norm2()
	d := point.Sub(t.p0)
	det := a*c - b*b
	if det == 0 {
		return point, false
	}
	u := (c*e0.Dot(d) - b*e1.Dot(d)) / det
	v := (-b*e0.Dot(d) + a*e1.Dot(d)) / det
	inside := (0 <= u+eps) && (u <= 1+eps) && (0 <= v+eps) && (v <= 1+eps) && (u+v <= 1+eps)
	return t.p0.Add(e0.Mul(u)).Add(e1.Mul(v)), inside
}

func mulElem(v, factors r3.Vector) r3.Vector {
	return r3.Vector{X: v.X * factors.X, Y: v.Y * factors.Y, Z: v.Z * factors.Z}
}

// orientedNormal is the unit cross product normal of p0, p1, p2, flipped if needed so it
// points the same way as hint.
func orientedNormal(p0, p1, p2, hint r3.Vector) r3.Vector {
	n := PlaneNormal(p0, p1, p2)
	if n.Dot(hint) < 0 {
		return n.Mul(-1)
	}
	return n
}
