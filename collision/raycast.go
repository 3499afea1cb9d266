package collision

import (
	"github.com/golang/geo/r3"

	"go.kartsim.dev/collision/kcl"
	"go.kartsim.dev/collision/spatialmath"
)

// Hit is the first plane a segment crosses.
type Hit struct {
	// T is the fraction of the segment travelled before the hit, in (0, 1).
	T     float64
	Plane *kcl.Plane
	Point r3.Vector
	// Normal is the face normal of Plane.
	Normal r3.Vector
	// Source is the dynamic collider owning Plane, nil for static geometry.
	Source DynamicCollider
}

// Raycast finds the nearest front facing plane crossed by the segment origin + t*dir, 0 < t < 1.
// Static geometry is sampled once, at the segment midpoint, so segments much longer than an octree
// cell can miss planes away from the middle. errorMargin widens the triangle test around each
// plane's first vertex. Planes in ignore are skipped.
func (e *Engine) Raycast(origin, dir r3.Vector, world World, errorMargin float64, ignore []*kcl.Plane) (Hit, bool) {
	mid := origin.Add(dir.Mul(0.5))
	best := Hit{T: 1}
	found := false

	for _, set := range e.candidates(world, mid) {
		for _, p := range set.planes {
			if ignored(ignore, p) {
				continue
			}
			t, ok := spatialmath.RayPlane(origin, dir, p.Normal(), p.Constant())
			if !ok || t <= 0 || t >= best.T {
				continue
			}
			pt := origin.Add(dir.Mul(t))
			pts := p.Points()
			if !spatialmath.PointInTriangle(pts[0], pts[1], pts[2], pt, errorMargin) {
				continue
			}
			best = Hit{T: t, Plane: p, Point: pt, Normal: p.Normal(), Source: set.source}
			found = true
		}
	}
	if !found {
		return Hit{}, false
	}
	return best, true
}
