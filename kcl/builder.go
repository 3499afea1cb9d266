package kcl

import (
	"math"
	"math/bits"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.kartsim.dev/collision/logging"
)

// overlapEpsilon widens every cell when deciding which planes it holds. Planes on a cell boundary
// are listed on both sides, and the margin stays above fixed point rounding after a round trip.
const overlapEpsilon = 1.0 / 16

// BuildOptions control how Build lays out the octree.
type BuildOptions struct {
	// MaxPlanesPerLeaf is the plane count at which a cell stops splitting.
	MaxPlanesPerLeaf int
	// MinCellShift is log2 of the smallest cell size.
	MinCellShift uint32
	// BlockShift is log2 of the root cell size. Zero picks a size that gives at most 8 root cells
	// per axis.
	BlockShift uint32
	// Thickness is written to the header as is.
	Thickness float64
}

// DefaultBuildOptions returns the options used by course tools.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{MaxPlanesPerLeaf: 12, MinCellShift: 2, Thickness: 30}
}

type buildCell struct {
	cell       int
	corner     [3]uint32
	shift      uint32
	candidates []int
}

// Build creates a store from free standing planes. Plane indices are assigned in input order.
func Build(planes []Plane, opts BuildOptions, logger logging.Logger) (*Store, error) {
	if len(planes) == 0 {
		return nil, errors.New("cannot build collision geometry without planes")
	}
	if len(planes) > MaxPlanes {
		return nil, errors.Errorf("%d planes exceed the limit of %d", len(planes), MaxPlanes)
	}
	if opts.MaxPlanesPerLeaf <= 0 {
		opts.MaxPlanesPerLeaf = DefaultBuildOptions().MaxPlanesPerLeaf
	}

	owned := make([]Plane, len(planes))
	for i := range planes {
		if _, _, _, err := edgeNormals(&planes[i]); err != nil {
			return nil, errors.Wrapf(err, "plane %d", i)
		}
		owned[i] = planes[i]
		owned[i].index = i
	}

	params, err := buildParams(owned, opts)
	if err != nil {
		return nil, err
	}
	store := &Store{logger: logger, params: params, planes: owned}
	store.tree, err = buildTree(owned, params, opts)
	if err != nil {
		return nil, err
	}

	logger.Debugw("built collision geometry",
		"planes", len(owned),
		"cells", len(store.tree.cells),
		"root_cells", store.tree.rootCount,
		"coord_shift", params.CoordShift)
	return store, nil
}

func buildParams(planes []Plane, opts BuildOptions) (Params, error) {
	low, high := planeBounds(planes)
	origin := r3.Vector{X: math.Floor(low.X) - 1, Y: math.Floor(low.Y) - 1, Z: math.Floor(low.Z) - 1}
	extent := high.Sub(origin)

	var axisBits [3]uint32
	maxBits := uint32(0)
	for i, e := range [3]float64{extent.X, extent.Y, extent.Z} {
		if e >= 1<<31 {
			return Params{}, errors.Errorf("geometry spans %.0f units, more than an index can address", e)
		}
		axisBits[i] = uint32(bits.Len64(uint64(math.Ceil(e))))
		if axisBits[i] > maxBits {
			maxBits = axisBits[i]
		}
	}

	shift := opts.BlockShift
	if shift == 0 {
		if maxBits > 3 {
			shift = maxBits - 3
		}
		if shift < opts.MinCellShift {
			shift = opts.MinCellShift
		}
	}
	if shift > 31 {
		return Params{}, errors.Errorf("block shift %d is too large", shift)
	}
	for i := range axisBits {
		if axisBits[i] < shift {
			axisBits[i] = shift
		}
	}
	if axisBits[0]+axisBits[1]+axisBits[2]-3*shift > 24 {
		return Params{}, errors.Errorf("block shift %d gives too many root cells", shift)
	}

	return Params{
		Origin:     origin,
		Thickness:  opts.Thickness,
		XMask:      axisMask(axisBits[0]),
		YMask:      axisMask(axisBits[1]),
		ZMask:      axisMask(axisBits[2]),
		CoordShift: shift,
		YShift:     axisBits[0] - shift,
		ZShift:     axisBits[0] - shift + axisBits[1] - shift,
	}, nil
}

func axisMask(k uint32) uint32 {
	return ^uint32((uint64(1) << k) - 1)
}

func planeBounds(planes []Plane) (r3.Vector, r3.Vector) {
	first := planes[0].Points()[0]
	low, high := first, first
	for i := range planes {
		for _, pt := range planes[i].Points() {
			low = r3.Vector{X: math.Min(low.X, pt.X), Y: math.Min(low.Y, pt.Y), Z: math.Min(low.Z, pt.Z)}
			high = r3.Vector{X: math.Max(high.X, pt.X), Y: math.Max(high.Y, pt.Y), Z: math.Max(high.Z, pt.Z)}
		}
	}
	return low, high
}

func buildTree(planes []Plane, params Params, opts BuildOptions) (octree, error) {
	xr, yr, zr := params.rootCells()
	rootCount := int(xr * yr * zr)
	tree := octree{cells: make([]octreeCell, rootCount), rootCount: rootCount}

	all := make([]int, len(planes))
	for i := range all {
		all[i] = i
	}

	shift := params.CoordShift
	queue := make([]buildCell, 0, rootCount)
	for z := uint32(0); z < zr; z++ {
		for y := uint32(0); y < yr; y++ {
			for x := uint32(0); x < xr; x++ {
				index := int(x | y<<params.YShift | z<<params.ZShift)
				corner := [3]uint32{x << shift, y << shift, z << shift}
				queue = append(queue, buildCell{
					cell:       index,
					corner:     corner,
					shift:      shift,
					candidates: overlapping(planes, all, params.Origin, corner, shift),
				})
			}
		}
	}

	for head := 0; head < len(queue); head++ {
		b := queue[head]
		queue[head].candidates = nil

		if len(b.candidates) <= opts.MaxPlanesPerLeaf || b.shift == 0 || b.shift <= opts.MinCellShift {
			first := int32(len(tree.refs))
			for _, idx := range b.candidates {
				tree.refs = append(tree.refs, &planes[idx])
			}
			tree.cells[b.cell] = octreeCell{leaf: true, first: first, count: int32(len(b.candidates))}
			continue
		}

		if len(tree.cells)+8 > maxCells {
			return octree{}, errors.Errorf("octree exceeds %d cells", maxCells)
		}
		first := len(tree.cells)
		tree.cells = append(tree.cells, make([]octreeCell, 8)...)
		tree.cells[b.cell] = octreeCell{first: int32(first)}

		half := b.shift - 1
		for child := 0; child < 8; child++ {
			corner := b.corner
			for axis := 0; axis < 3; axis++ {
				if child>>axis&1 != 0 {
					corner[axis] += 1 << half
				}
			}
			queue = append(queue, buildCell{
				cell:       first + child,
				corner:     corner,
				shift:      half,
				candidates: overlapping(planes, b.candidates, params.Origin, corner, half),
			})
		}
	}
	return tree, nil
}

// overlapping filters candidates down to the planes whose bounding box touches the cell. This
// keeps a few planes a cell does not strictly need, never drops one it does.
func overlapping(planes []Plane, candidates []int, origin r3.Vector, corner [3]uint32, shift uint32) []int {
	size := float64(uint64(1) << shift)
	cellMin := origin.Add(r3.Vector{X: float64(corner[0]), Y: float64(corner[1]), Z: float64(corner[2])})
	cellMax := cellMin.Add(r3.Vector{X: size, Y: size, Z: size})

	var out []int
	for _, idx := range candidates {
		low, high := planeBounds(planes[idx : idx+1])
		if high.X < cellMin.X-overlapEpsilon || low.X > cellMax.X+overlapEpsilon ||
			high.Y < cellMin.Y-overlapEpsilon || low.Y > cellMax.Y+overlapEpsilon ||
			high.Z < cellMin.Z-overlapEpsilon || low.Z > cellMax.Z+overlapEpsilon {
			continue
		}
		out = append(out, idx)
	}
	return out
}
