package kcl

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.kartsim.dev/collision/spatialmath"
)

// Plane is one collision triangle with its surface tag. Planes are values owned by the table they
// were loaded or built into and are never modified afterwards.
type Plane struct {
	spatialmath.Triangle

	height        float64
	collisionType CollisionType
	index         int
}

// NewPlane creates a plane whose normal follows the right hand rule over p0, p1, p2.
func NewPlane(p0, p1, p2 r3.Vector, collisionType CollisionType) Plane {
	return newPlane(*spatialmath.NewTriangle(p0, p1, p2), collisionType)
}

// NewPlaneWithNormal creates a plane that keeps the given unit normal.
func NewPlaneWithNormal(p0, p1, p2, normal r3.Vector, collisionType CollisionType) Plane {
	return newPlane(*spatialmath.NewTriangleWithNormal(p0, p1, p2, normal), collisionType)
}

func newPlane(tri spatialmath.Triangle, collisionType CollisionType) Plane {
	p := Plane{Triangle: tri, collisionType: collisionType, index: -1}
	if _, _, c, err := edgeNormals(&p); err == nil {
		pts := p.Points()
		p.height = c.Dot(pts[1].Sub(pts[0]))
	}
	return p
}

// CollisionType returns the surface tag.
func (p *Plane) CollisionType() CollisionType {
	return p.collisionType
}

// Height is the distance from the first vertex to the opposite edge, the "prism height" stored
// in geometry files.
func (p *Plane) Height() float64 {
	return p.height
}

// Index is the plane's position in its owning table, or -1 for a free standing plane.
func (p *Plane) Index() int {
	return p.index
}

// TransformPlane returns a copy of p moved by m, keeping its tag and index.
func (p *Plane) TransformPlane(m mgl64.Mat4) Plane {
	out := *p
	out.Triangle = *p.Transform(m)
	return out
}

// reconstructPlane rebuilds the two missing vertices of a stored plane. The second vertex lies
// along b×n and the third along a×n, each at the distance where it meets the edge whose normal
// is c at `height` from v1.
func reconstructPlane(v1, n, a, b, c r3.Vector, height float64) (r3.Vector, r3.Vector, bool) {
	crossA := a.Cross(n)
	crossB := b.Cross(n)
	dotB := crossB.Dot(c)
	dotA := crossA.Dot(c)
	if dotA == 0 || dotB == 0 {
		return r3.Vector{}, r3.Vector{}, false
	}
	v2 := v1.Add(crossB.Mul(height / dotB))
	v3 := v1.Add(crossA.Mul(height / dotA))
	return v2, v3, true
}

// edgeNormals computes the edge normals reconstructPlane expects for p: a is perpendicular to
// v1→v3, b to v1→v2, and c to v2→v3 facing away from v1.
func edgeNormals(p *Plane) (r3.Vector, r3.Vector, r3.Vector, error) {
	pts := p.Points()
	n := p.Normal()
	e12 := pts[1].Sub(pts[0])
	e13 := pts[2].Sub(pts[0])
	e23 := pts[2].Sub(pts[1])
	if n.Norm2() == 0 || e12.Norm2() == 0 || e13.Norm2() == 0 || e23.Norm2() == 0 {
		return r3.Vector{}, r3.Vector{}, r3.Vector{}, errors.New("degenerate plane")
	}

	a := n.Cross(e13).Normalize()
	b := n.Cross(e12).Normalize()
	c := n.Cross(e23).Normalize()
	if c.Dot(e12) < 0 {
		c = c.Mul(-1)
	}
	if c.Dot(e12) == 0 {
		return r3.Vector{}, r3.Vector{}, r3.Vector{}, errors.New("degenerate plane")
	}
	return a, b, c, nil
}
