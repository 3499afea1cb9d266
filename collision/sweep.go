package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"go.kartsim.dev/collision/kcl"
	"go.kartsim.dev/collision/spatialmath"
)

// embeddedThreshold is the length below which the center to contact vector, measured in unit
// sphere space, means the ellipsoid already overlaps the plane.
const embeddedThreshold = 0.98

// SweptHit is the first contact of an ellipsoid moving along a segment.
type SweptHit struct {
	// T is the fraction of the motion travelled before contact, in [0, 1].
	T     float64
	Plane *kcl.Plane
	// Center is the ellipsoid center at T.
	Center r3.Vector
	// Point is the contact point.
	Point r3.Vector
	// Normal is the direction from Point to Center, scaled back by the radii and normalized to
	// unit length. For vertex and edge contacts it differs from the face normal.
	Normal r3.Vector
	// PlaneNormal is the face normal of Plane, not scaled by the radii.
	PlaneNormal r3.Vector
	// Embedded is set when the ellipsoid already overlapped the plane at T.
	Embedded bool
	// Source is the dynamic collider owning Plane, nil for static geometry.
	Source DynamicCollider
}

// sweepState is the running best of one query, in unit sphere space.
type sweepState struct {
	pos, dir r3.Vector
	t        float64
	contact  r3.Vector
	plane    *kcl.Plane
	source   DynamicCollider
	found    bool
}

// SweepEllipsoid moves an axis aligned ellipsoid with the given radii from origin along dir and
// returns its first contact with a front facing plane. The problem is solved for a unit sphere by
// scaling everything by 1/radii; Point, Center and Normal are scaled back. Candidates are sampled
// once at the segment midpoint, like Raycast. Planes in ignore are skipped. Radii must be positive.
func (e *Engine) SweepEllipsoid(origin, dir r3.Vector, world World, radii r3.Vector, ignore []*kcl.Plane) (SweptHit, bool) {
	inv := r3.Vector{X: 1 / radii.X, Y: 1 / radii.Y, Z: 1 / radii.Z}
	st := sweepState{pos: mulElem(origin, inv), dir: mulElem(dir, inv), t: 1}

	for _, set := range e.candidates(world, origin.Add(dir.Mul(0.5))) {
		for _, p := range set.planes {
			if ignored(ignore, p) {
				continue
			}
			if st.sweepTriangle(p.Scale(inv)) {
				st.plane = p
				st.source = set.source
				st.found = true
			}
		}
	}
	if !st.found {
		return SweptHit{}, false
	}

	center := st.pos.Add(st.dir.Mul(st.t))
	n := center.Sub(st.contact)
	return SweptHit{
		T:           st.t,
		Plane:       st.plane,
		Center:      mulElem(center, radii),
		Point:       mulElem(st.contact, radii),
		Normal:      mulElem(n, radii).Normalize(),
		PlaneNormal: st.plane.Normal(),
		Embedded:    n.Norm() < embeddedThreshold,
		Source:      st.source,
	}, true
}

// sweepTriangle tests the unit sphere against one scaled triangle and records a contact earlier
// than the current best. It reports whether the best changed.
func (st *sweepState) sweepTriangle(tri *spatialmath.Triangle) bool {
	normal := tri.Normal()
	dist := tri.SignedDistance(st.pos)
	modDir := normal.Dot(st.dir)

	embedded := false
	var t0 float64
	if modDir == 0 {
		if math.Abs(dist) >= 1 {
			return false
		}
		embedded = true
	} else {
		t0 = (1 - dist) / modDir
		t1 := (-1 - dist) / modDir
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > 1 || t1 < 0 {
			return false
		}
		// one sided unless the motion runs parallel to the plane
		if dist < 0 {
			return false
		}
		if t0 < 0 {
			t0 = 0
			embedded = true
		}
	}

	pts := tri.Points()
	var contact r3.Vector
	if embedded {
		contact = st.pos.Sub(normal.Mul(dist))
	} else {
		contact = st.pos.Add(st.dir.Mul(t0)).Sub(normal)
	}
	if spatialmath.PointInTriangle(pts[0], pts[1], pts[2], contact, 0) {
		if t0 < st.t {
			st.t = t0
			st.contact = contact
			return true
		}
		return false
	}

	hit := false
	velSq := st.dir.Norm2()
	for _, v := range pts {
		b := 2 * st.dir.Dot(st.pos.Sub(v))
		c := v.Sub(st.pos).Norm2() - 1
		if t, ok := spatialmath.LowestRoot(velSq, b, c, st.t); ok {
			st.t = t
			st.contact = v
			hit = true
		}
	}

	for i := range pts {
		from, to := pts[i], pts[(i+1)%3]
		edge := to.Sub(from)
		baseToVertex := from.Sub(st.pos)
		edgeSq := edge.Norm2()
		edgeDotVel := edge.Dot(st.dir)
		edgeDotBTV := edge.Dot(baseToVertex)

		a := edgeSq*-velSq + edgeDotVel*edgeDotVel
		b := edgeSq*2*st.dir.Dot(baseToVertex) - 2*edgeDotVel*edgeDotBTV
		c := edgeSq*(1-baseToVertex.Norm2()) + edgeDotBTV*edgeDotBTV
		t, ok := spatialmath.LowestRoot(a, b, c, st.t)
		if !ok {
			continue
		}
		f := (edgeDotVel*t - edgeDotBTV) / edgeSq
		if f < 0 || f > 1 {
			continue
		}
		st.t = t
		st.contact = from.Add(edge.Mul(f))
		hit = true
	}
	return hit
}

func mulElem(v, factors r3.Vector) r3.Vector {
	return r3.Vector{X: v.X * factors.X, Y: v.Y * factors.Y, Z: v.Z * factors.Z}
}
