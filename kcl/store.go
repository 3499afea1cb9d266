package kcl

import (
	"github.com/golang/geo/r3"

	"go.kartsim.dev/collision/logging"
)

// Params are the spatial index parameters of a store. A world position p maps to the integer
// coordinate floor(p - Origin) on each axis. A coordinate with any bit of the axis mask set lies
// outside the indexed volume. The remaining bits above CoordShift select the root cell and the
// bits below it walk down the octree one level at a time.
type Params struct {
	Origin    r3.Vector
	Thickness float64

	XMask uint32
	YMask uint32
	ZMask uint32

	CoordShift uint32
	YShift     uint32
	ZShift     uint32
}

// Extent returns the size of the indexed volume on each axis.
func (p Params) Extent() r3.Vector {
	return r3.Vector{
		X: float64(uint64(^p.XMask) + 1),
		Y: float64(uint64(^p.YMask) + 1),
		Z: float64(uint64(^p.ZMask) + 1),
	}
}

func (p Params) rootCells() (uint32, uint32, uint32) {
	return (^p.XMask >> p.CoordShift) + 1, (^p.YMask >> p.CoordShift) + 1, (^p.ZMask >> p.CoordShift) + 1
}

// Store is static collision geometry: the plane table plus its octree. A Store is read only once
// constructed and may be shared by any number of readers.
type Store struct {
	logger logging.Logger
	params Params
	planes []Plane
	tree   octree
}

// Params returns the index parameters.
func (s *Store) Params() Params {
	return s.params
}

// Origin returns the minimum corner of the indexed volume.
func (s *Store) Origin() r3.Vector {
	return s.params.Origin
}

// Thickness returns the prism thickness recorded in the header. It is carried for tools and not
// used by queries.
func (s *Store) Thickness() float64 {
	return s.params.Thickness
}

// Bounds returns the minimum and maximum corners of the indexed volume.
func (s *Store) Bounds() (r3.Vector, r3.Vector) {
	return s.params.Origin, s.params.Origin.Add(s.params.Extent())
}

// NumPlanes returns the number of planes.
func (s *Store) NumPlanes() int {
	return len(s.planes)
}

// Plane returns the plane at index i.
func (s *Store) Plane(i int) *Plane {
	return &s.planes[i]
}

// Planes returns the plane table. Callers must not modify it.
func (s *Store) Planes() []Plane {
	return s.planes
}

// NumCells returns the number of octree cells, leaves and internal nodes.
func (s *Store) NumCells() int {
	return len(s.tree.cells)
}
