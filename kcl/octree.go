package kcl

import (
	"math"

	"github.com/golang/geo/r3"
)

// octreeCell is one node of the arena. Internal cells own the 8 consecutive cells starting at
// first, ordered x | y<<1 | z<<2. Leaves own refs[first : first+count].
type octreeCell struct {
	leaf  bool
	first int32
	count int32
}

// octree is an arena of cells. The first rootCount cells form the root grid, indexed the same
// way as the root table of a geometry file.
type octree struct {
	cells     []octreeCell
	refs      []*Plane
	rootCount int
}

// CellBounds is the world space box covered by an octree leaf.
type CellBounds struct {
	Min   r3.Vector
	Size  float64
	Depth int
}

// Max returns the maximum corner.
func (b CellBounds) Max() r3.Vector {
	return b.Min.Add(r3.Vector{X: b.Size, Y: b.Size, Z: b.Size})
}

// Contains reports whether p is inside the half open box [Min, Max).
func (b CellBounds) Contains(p r3.Vector) bool {
	max := b.Max()
	return p.X >= b.Min.X && p.X < max.X &&
		p.Y >= b.Min.Y && p.Y < max.Y &&
		p.Z >= b.Min.Z && p.Z < max.Z
}

// PlanesAt returns the planes of the octree leaf containing (x, y, z). Positions outside the
// indexed volume have no planes. The returned slice is shared and must not be modified.
func (s *Store) PlanesAt(x, y, z float64) []*Plane {
	cell, _, ok := s.descend(x, y, z)
	if !ok {
		return nil
	}
	end := cell.first + cell.count
	return s.tree.refs[cell.first:end:end]
}

// Locate returns the bounds of the octree leaf containing (x, y, z).
func (s *Store) Locate(x, y, z float64) (CellBounds, bool) {
	_, bounds, ok := s.descend(x, y, z)
	return bounds, ok
}

func (s *Store) descend(x, y, z float64) (octreeCell, CellBounds, bool) {
	p := s.params
	xi, okX := gridCoord(x - p.Origin.X)
	yi, okY := gridCoord(y - p.Origin.Y)
	zi, okZ := gridCoord(z - p.Origin.Z)
	if !okX || !okY || !okZ {
		return octreeCell{}, CellBounds{}, false
	}
	if xi&p.XMask != 0 || yi&p.YMask != 0 || zi&p.ZMask != 0 {
		return octreeCell{}, CellBounds{}, false
	}

	shift := p.CoordShift
	index := int(xi>>shift | (yi>>shift)<<p.YShift | (zi>>shift)<<p.ZShift)
	if index >= s.tree.rootCount {
		return octreeCell{}, CellBounds{}, false
	}
	cell := s.tree.cells[index]
	depth := 0
	for !cell.leaf {
		shift--
		child := (xi>>shift)&1 | ((yi>>shift)&1)<<1 | ((zi>>shift)&1)<<2
		cell = s.tree.cells[cell.first+int32(child)]
		depth++
	}

	bounds := CellBounds{
		Min: p.Origin.Add(r3.Vector{
			X: float64(xi >> shift << shift),
			Y: float64(yi >> shift << shift),
			Z: float64(zi >> shift << shift),
		}),
		Size:  float64(uint64(1) << shift),
		Depth: depth,
	}
	return cell, bounds, true
}

// gridCoord floors a coordinate relative to the origin. Negative and unrepresentable values are
// outside every index.
func gridCoord(v float64) (uint32, bool) {
	if !(v >= 0) || v >= math.MaxUint32 {
		return 0, false
	}
	return uint32(v), true
}
