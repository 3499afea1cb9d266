package kcl

import "math/bits"

type header struct {
	vertexOffset uint32
	normalOffset uint32
	planeOffset  uint32
	octreeOffset uint32
	params       Params
}

func (d *decoder) header() (header, error) {
	if len(d.data) < headerSize {
		return header{}, newParseError(0, "file is %d bytes, shorter than the %d byte header", len(d.data), headerSize)
	}

	hdr := header{
		vertexOffset: d.u32(0x00),
		normalOffset: d.u32(0x04),
		planeOffset:  d.u32(0x08),
		octreeOffset: d.u32(0x0C),
		params: Params{
			Thickness:  d.enc.coord(d.data[0x10:]),
			Origin:     d.enc.vector(d.data[0x14:]),
			XMask:      d.u32(0x20),
			YMask:      d.u32(0x24),
			ZMask:      d.u32(0x28),
			CoordShift: d.u32(0x2C),
			YShift:     d.u32(0x30),
			ZShift:     d.u32(0x34),
		},
	}

	size := uint64(len(d.data))
	planeStart := uint64(hdr.planeOffset) + planeTableBias
	switch {
	case hdr.vertexOffset < headerSize:
		return header{}, newParseError(0x00, "vertex table offset 0x%x overlaps the header", hdr.vertexOffset)
	case hdr.normalOffset < hdr.vertexOffset:
		return header{}, newParseError(0x04, "normal table offset 0x%x precedes vertex table 0x%x", hdr.normalOffset, hdr.vertexOffset)
	case planeStart < uint64(hdr.normalOffset):
		return header{}, newParseError(0x08, "plane table 0x%x precedes normal table 0x%x", planeStart, hdr.normalOffset)
	case uint64(hdr.octreeOffset) < planeStart:
		return header{}, newParseError(0x0C, "octree offset 0x%x precedes plane table 0x%x", hdr.octreeOffset, planeStart)
	case uint64(hdr.octreeOffset) > size:
		return header{}, newParseError(0x0C, "octree offset 0x%x is past the end of the file (%d bytes)", hdr.octreeOffset, size)
	}

	if err := checkIndexParams(hdr.params); err != nil {
		return header{}, err
	}
	return hdr, nil
}

// checkIndexParams makes sure every coordinate that passes the masks maps to a root cell that
// exists, and that the octree can be walked one bit per level.
func checkIndexParams(p Params) error {
	if p.CoordShift > 31 {
		return newParseError(0x2C, "coordinate shift %d is too large", p.CoordShift)
	}
	axisBits := [3]int{}
	for i, mask := range [3]uint32{p.XMask, p.YMask, p.ZMask} {
		width := uint64(^mask) + 1
		if width&(width-1) != 0 {
			return newParseError(0x20+4*i, "axis mask 0x%08x is not a power of two boundary", mask)
		}
		axisBits[i] = bits.TrailingZeros64(width)
		if axisBits[i] < int(p.CoordShift) {
			return newParseError(0x20+4*i, "axis mask 0x%08x is finer than the root cell size", mask)
		}
		if axisBits[i] > 31 {
			return newParseError(0x20+4*i, "axis mask 0x%08x leaves no bits for bounds checks", mask)
		}
	}

	xBits := axisBits[0] - int(p.CoordShift)
	yBits := axisBits[1] - int(p.CoordShift)
	zBits := axisBits[2] - int(p.CoordShift)
	if int(p.YShift) != xBits {
		return newParseError(0x30, "y shift %d does not match %d x root bits", p.YShift, xBits)
	}
	if int(p.ZShift) != xBits+yBits {
		return newParseError(0x34, "z shift %d does not match %d x+y root bits", p.ZShift, xBits+yBits)
	}
	if xBits+yBits+zBits > 24 {
		return newParseError(0x20, "root grid of 2^%d cells is too large", xBits+yBits+zBits)
	}
	return nil
}

func writeHeader(out []byte, enc Encoding, hdr header) {
	order := enc.order()
	order.PutUint32(out[0x00:], hdr.vertexOffset)
	order.PutUint32(out[0x04:], hdr.normalOffset)
	order.PutUint32(out[0x08:], hdr.planeOffset)
	order.PutUint32(out[0x0C:], hdr.octreeOffset)
	enc.putCoord(out[0x10:], hdr.params.Thickness)
	enc.putVector(out[0x14:], hdr.params.Origin)
	order.PutUint32(out[0x20:], hdr.params.XMask)
	order.PutUint32(out[0x24:], hdr.params.YMask)
	order.PutUint32(out[0x28:], hdr.params.ZMask)
	order.PutUint32(out[0x2C:], hdr.params.CoordShift)
	order.PutUint32(out[0x30:], hdr.params.YShift)
	order.PutUint32(out[0x34:], hdr.params.ZShift)
}
