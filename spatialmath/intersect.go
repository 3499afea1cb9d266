package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// PlaneNormal returns the unit normal of the plane through p0, p1, p2 following the right hand
// rule. Degenerate triangles yield the zero vector.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}

// RayPlane intersects the segment origin + t*dir with a one sided plane n·x + d = 0. It returns
// false when origin is behind the plane or the direction is parallel to it; t is unbounded
// otherwise and callers clip it to their own range.
func RayPlane(origin, dir, normal r3.Vector, constant float64) (float64, bool) {
	dist := normal.Dot(origin) + constant
	modDir := normal.Dot(dir)
	if dist < 0 || modDir == 0 {
		return 0, false
	}
	return -dist / modDir, true
}

// PointInTriangle is a barycentric inclusion test for a point already on the triangle's plane.
// With u measured along v3-v1 and v along v2-v1 the point is inside when u >= -margin,
// v >= -margin and u+v < 1. The margin widens only the two edges meeting at v1; the far edge
// stays exclusive. Collision tuning depends on that asymmetry.
func PointInTriangle(v1, v2, v3, pt r3.Vector, margin float64) bool {
	e0 := v3.Sub(v1)
	e1 := v2.Sub(v1)
	e2 := pt.Sub(v1)

	dot00 := e0.Dot(e0)
	dot01 := e0.Dot(e1)
	dot02 := e0.Dot(e2)
	dot11 := e1.Dot(e1)
	dot12 := e1.Dot(e2)

	denom := dot00*dot11 - dot01*dot01
	if denom == 0 {
		return false
	}
	invDenom := 1 / denom
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return u >= -margin && v >= -margin && u+v < 1
}

// LowestRoot solves a*x^2 + b*x + c = 0 and returns the smaller root in (0, maxR), else the larger
// one if it is in that range. There is no root when a is zero, the discriminant is negative, or
// both roots fall outside the range.
func LowestRoot(a, b, c, maxR float64) (float64, bool) {
	if a == 0 {
		return 0, false
	}
	det := b*b - 4*a*c
	if det < 0 {
		return 0, false
	}
	sqrtD := math.Sqrt(det)
	r1 := (-b - sqrtD) / (2 * a)
	r2 := (-b + sqrtD) / (2 * a)
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	if r1 > 0 && r1 < maxR {
		return r1, true
	}
	if r2 > 0 && r2 < maxR {
		return r2, true
	}
	return 0, false
}

// ClosestPointSegmentPoint returns the point on segment [a, b] nearest to p.
func ClosestPointSegmentPoint(a, b, p r3.Vector) r3.Vector {
	ab := b.Sub(a)
	lenSq := ab.Norm2()
	if lenSq == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Mul(t))
}

// TransformPoint applies m to a position (w = 1).
func TransformPoint(m mgl64.Mat4, p r3.Vector) r3.Vector {
	v := m.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// TransformDirection applies m to a direction (w = 0), ignoring translation.
func TransformDirection(m mgl64.Mat4, d r3.Vector) r3.Vector {
	v := m.Mul4x1(mgl64.Vec4{d.X, d.Y, d.Z, 0})
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}
