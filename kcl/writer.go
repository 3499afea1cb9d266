package kcl

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

type tableIndex struct {
	entries map[string]uint16
	data    []byte
}

func (t *tableIndex) add(encoded []byte) (uint16, error) {
	if idx, ok := t.entries[string(encoded)]; ok {
		return idx, nil
	}
	count := len(t.entries)
	if count > math.MaxUint16 {
		return 0, errors.Errorf("table exceeds %d entries", math.MaxUint16+1)
	}
	t.entries[string(encoded)] = uint16(count)
	t.data = append(t.data, encoded...)
	return uint16(count), nil
}

// Encode serializes the store in the given encoding. Identical vertices, normals and leaf lists
// are stored once. Loading the result gives back the same planes up to the precision of the
// encoding.
func (s *Store) Encode(enc Encoding) ([]byte, error) {
	vertices := &tableIndex{entries: map[string]uint16{}}
	normals := &tableIndex{entries: map[string]uint16{}}
	records := make([]byte, planeSize*len(s.planes))

	vbuf := make([]byte, vertexSize)
	nbuf := make([]byte, enc.normalSize())
	for i := range s.planes {
		p := &s.planes[i]
		a, b, c, err := edgeNormals(p)
		if err != nil {
			return nil, errors.Wrapf(err, "plane %d", i)
		}

		rec := records[i*planeSize:]
		enc.putCoord(rec, p.height)

		enc.putVector(vbuf, p.Points()[0])
		idx, err := vertices.add(vbuf)
		if err != nil {
			return nil, errors.Wrap(err, "vertex table")
		}
		enc.order().PutUint16(rec[0x4:], idx)

		for j, n := range [4]r3.Vector{p.Normal(), a, b, c} {
			enc.putNormal(nbuf, n)
			if idx, err = normals.add(nbuf); err != nil {
				return nil, errors.Wrap(err, "normal table")
			}
			enc.order().PutUint16(rec[0x6+2*j:], idx)
		}
		enc.order().PutUint16(rec[0xE:], uint16(p.collisionType))
	}

	vertexOffset := headerSize
	normalOffset := vertexOffset + len(vertices.data)
	planeStart := normalOffset + len(normals.data)
	planeStart += (4 - planeStart%4) % 4
	octOff := planeStart + len(records)
	listStart := octOff + 4*len(s.tree.cells)

	lists, listOffsets := s.encodeLeafLists(enc, listStart)
	size := listStart + len(lists)
	if size > math.MaxInt32 {
		return nil, errors.Errorf("encoded geometry of %d bytes is too large", size)
	}

	out := make([]byte, size)
	writeHeader(out, enc, header{
		vertexOffset: uint32(vertexOffset),
		normalOffset: uint32(normalOffset),
		planeOffset:  uint32(planeStart - planeTableBias),
		octreeOffset: uint32(octOff),
		params:       s.params,
	})

	copy(out[vertexOffset:], vertices.data)
	copy(out[normalOffset:], normals.data)
	copy(out[planeStart:], records)
	copy(out[listStart:], lists)

	// Each cell's pointer is relative to the start of the block holding it. Roots share the
	// root table as their block and children are always stored after their parent.
	bases := make([]int, len(s.tree.cells))
	for i := 0; i < s.tree.rootCount; i++ {
		bases[i] = octOff
	}
	for i, cell := range s.tree.cells {
		var value uint32
		if cell.leaf {
			value = leafFlag | uint32(listOffsets[i]-2-bases[i])
		} else {
			block := octOff + 4*int(cell.first)
			for j := 0; j < 8; j++ {
				bases[int(cell.first)+j] = block
			}
			value = uint32(block - bases[i])
		}
		enc.order().PutUint32(out[octOff+4*i:], value)
	}

	s.logger.Debugw("encoded collision geometry",
		"encoding", enc.String(),
		"bytes", size,
		"vertices", len(vertices.entries),
		"normals", len(normals.entries),
		"list_bytes", len(lists))
	return out, nil
}

// encodeLeafLists writes one zero terminated index list per distinct leaf content and returns
// the file offset of each leaf's list.
func (s *Store) encodeLeafLists(enc Encoding, start int) ([]byte, []int) {
	var lists []byte
	seen := map[string]int{}
	offsets := make([]int, len(s.tree.cells))

	for i, cell := range s.tree.cells {
		if !cell.leaf {
			continue
		}
		list := make([]byte, 2*(cell.count+1))
		for j, p := range s.tree.refs[cell.first : cell.first+cell.count] {
			enc.order().PutUint16(list[2*j:], uint16(p.index+1))
		}
		off, ok := seen[string(list)]
		if !ok {
			off = start + len(lists)
			seen[string(list)] = off
			lists = append(lists, list...)
		}
		offsets[i] = off
	}
	return lists, offsets
}
