package kcl

import (
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.kartsim.dev/collision/logging"
)

// maxCells bounds the octree a file may describe. Well formed files stay far below it; it keeps a
// file with self referencing blocks from exhausting memory.
const maxCells = 1 << 24

// LoadFile reads and decodes a geometry file.
func LoadFile(path string, enc Encoding, logger logging.Logger) (*Store, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading collision geometry %q", path)
	}
	store, err := Load(data, enc, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "loading collision geometry %q", path)
	}
	return store, nil
}

// Load decodes geometry from data. Every table offset and index is checked up front, so a
// store that loads can be queried without further failure. Problems are reported as a
// *ParseError.
func Load(data []byte, enc Encoding, logger logging.Logger) (*Store, error) {
	d := &decoder{data: data, enc: enc}
	hdr, err := d.header()
	if err != nil {
		return nil, err
	}

	store := &Store{logger: logger, params: hdr.params}
	if store.planes, err = d.planes(hdr); err != nil {
		return nil, err
	}
	if store.tree, err = d.octree(hdr, store.planes); err != nil {
		return nil, err
	}

	logger.Debugw("loaded collision geometry",
		"encoding", enc.String(),
		"planes", len(store.planes),
		"cells", len(store.tree.cells),
		"root_cells", store.tree.rootCount)
	return store, nil
}

type decoder struct {
	data []byte
	enc  Encoding
}

func (d *decoder) u32(off int) uint32 {
	return d.enc.order().Uint32(d.data[off:])
}

func (d *decoder) u16(off int) uint16 {
	return d.enc.order().Uint16(d.data[off:])
}

func (d *decoder) planes(hdr header) ([]Plane, error) {
	vertexCount := int(hdr.normalOffset-hdr.vertexOffset) / vertexSize
	normalSize := d.enc.normalSize()
	planeStart := int(hdr.planeOffset) + planeTableBias
	normalCount := (planeStart - int(hdr.normalOffset)) / normalSize
	planeCount := (int(hdr.octreeOffset) - planeStart) / planeSize

	planes := make([]Plane, 0, planeCount)
	for i := 0; i < planeCount; i++ {
		off := planeStart + i*planeSize
		height := d.enc.coord(d.data[off:])
		vertexIdx := int(d.u16(off + 0x4))
		if vertexIdx >= vertexCount {
			return nil, newParseError(off+0x4, "plane %d references vertex %d of %d", i+1, vertexIdx, vertexCount)
		}
		var normals [4]int
		for j := range normals {
			normals[j] = int(d.u16(off + 0x6 + 2*j))
			if normals[j] >= normalCount {
				return nil, newParseError(off+0x6+2*j, "plane %d references normal %d of %d", i+1, normals[j], normalCount)
			}
		}

		v1 := d.enc.vector(d.data[int(hdr.vertexOffset)+vertexIdx*vertexSize:])
		normal := d.normal(hdr, normals[0])
		v2, v3, ok := reconstructPlane(v1, normal,
			d.normal(hdr, normals[1]), d.normal(hdr, normals[2]), d.normal(hdr, normals[3]), height)
		if !ok {
			return nil, newParseError(off, "plane %d has degenerate edge normals", i+1)
		}

		plane := NewPlaneWithNormal(v1, v2, v3, normal, CollisionType(d.u16(off+0xE)))
		plane.height = height
		plane.index = i
		planes = append(planes, plane)
	}
	return planes, nil
}

func (d *decoder) normal(hdr header, idx int) r3.Vector {
	return d.enc.normal(d.data[int(hdr.normalOffset)+idx*d.enc.normalSize():])
}

type span struct {
	first int32
	count int32
}

type pendingCell struct {
	cell     int
	entryOff int
	base     int
	shift    uint32
}

// octree decodes the node table breadth first into an arena. Leaf lists are shared between
// leaves that point at the same offset.
func (d *decoder) octree(hdr header, planes []Plane) (octree, error) {
	xr, yr, zr := hdr.params.rootCells()
	rootCount := int(xr * yr * zr)
	octOff := int(hdr.octreeOffset)
	if octOff+4*rootCount > len(d.data) {
		return octree{}, newParseError(octOff, "root table of %d cells does not fit in the file", rootCount)
	}

	tree := octree{cells: make([]octreeCell, rootCount), rootCount: rootCount}
	lists := map[int]span{}
	queue := make([]pendingCell, 0, rootCount)
	for i := 0; i < rootCount; i++ {
		queue = append(queue, pendingCell{cell: i, entryOff: octOff + 4*i, base: octOff, shift: hdr.params.CoordShift})
	}

	for head := 0; head < len(queue); head++ {
		p := queue[head]
		entry := d.u32(p.entryOff)

		if entry&leafFlag != 0 {
			listOff := p.base + int(entry&^leafFlag) + 2
			s, ok := lists[listOff]
			if !ok {
				var err error
				if s, err = d.leafList(&tree, listOff, planes); err != nil {
					return octree{}, err
				}
				lists[listOff] = s
			}
			tree.cells[p.cell] = octreeCell{leaf: true, first: s.first, count: s.count}
			continue
		}

		if p.shift == 0 {
			return octree{}, newParseError(p.entryOff, "octree branch below the smallest cell size")
		}
		childBase := p.base + int(entry)
		if childBase+32 > len(d.data) || childBase < octOff {
			return octree{}, newParseError(p.entryOff, "octree branch points to 0x%x outside the node table", childBase)
		}
		if len(tree.cells)+8 > maxCells {
			return octree{}, newParseError(p.entryOff, "octree exceeds %d cells", maxCells)
		}

		first := len(tree.cells)
		tree.cells = append(tree.cells, make([]octreeCell, 8)...)
		tree.cells[p.cell] = octreeCell{first: int32(first)}
		for i := 0; i < 8; i++ {
			queue = append(queue, pendingCell{cell: first + i, entryOff: childBase + 4*i, base: childBase, shift: p.shift - 1})
		}
	}
	return tree, nil
}

// leafList reads a zero terminated list of 1-based plane indices.
func (d *decoder) leafList(tree *octree, off int, planes []Plane) (span, error) {
	s := span{first: int32(len(tree.refs))}
	for {
		if off < 0 || off+2 > len(d.data) {
			return span{}, newParseError(off, "plane list runs past the end of the file")
		}
		idx := int(d.u16(off))
		if idx == 0 {
			return s, nil
		}
		if idx > len(planes) {
			return span{}, newParseError(off, "plane list references plane %d of %d", idx, len(planes))
		}
		tree.refs = append(tree.refs, &planes[idx-1])
		s.count++
		off += 2
	}
}
