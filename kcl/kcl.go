// Package kcl loads static collision geometry: triangles ("planes") tagged with a surface type,
// and the octree that maps a world position to the handful of planes that can matter there.
//
// Geometry files are produced by course tools and come in two encodings. FixedPointLE stores
// coordinates as little-endian 20.12 fixed point and normals as 4.12 fixed point; Float32BE
// stores both as big-endian IEEE floats. The table layout is the same for both.
package kcl

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Encoding selects how numbers are stored in a geometry file.
type Encoding int

const (
	// FixedPointLE is the default little-endian fixed point encoding.
	FixedPointLE Encoding = iota
	// Float32BE is the big-endian float32 encoding.
	Float32BE
)

const (
	headerSize = 0x38
	// the stored plane table offset points this far before the first record, plane indices are 1-based
	planeTableBias = 0x10
	planeSize      = 0x10
	vertexSize     = 12
	fixedScale     = 4096

	leafFlag = uint32(1) << 31
	// MaxPlanes is the number of planes addressable by the u16 indices of the octree lists.
	MaxPlanes = math.MaxUint16
)

func (enc Encoding) String() string {
	switch enc {
	case FixedPointLE:
		return "fx32le"
	case Float32BE:
		return "f32be"
	}
	return "unknown"
}

// ParseEncoding accepts the names printed by Encoding.String plus a few aliases.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(name) {
	case "", "fx32le", "fixed", "ds":
		return FixedPointLE, nil
	case "f32be", "float", "float32be", "wii":
		return Float32BE, nil
	}
	return FixedPointLE, errors.Errorf("unknown geometry encoding %q", name)
}

func (enc Encoding) order() binary.ByteOrder {
	if enc == Float32BE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (enc Encoding) normalSize() int {
	if enc == Float32BE {
		return 12
	}
	return 6
}

func (enc Encoding) coord(b []byte) float64 {
	raw := enc.order().Uint32(b)
	if enc == Float32BE {
		return float64(math.Float32frombits(raw))
	}
	return float64(int32(raw)) / fixedScale
}

func (enc Encoding) putCoord(b []byte, v float64) {
	if enc == Float32BE {
		enc.order().PutUint32(b, math.Float32bits(float32(v)))
		return
	}
	enc.order().PutUint32(b, uint32(int32(math.Round(v*fixedScale))))
}

func (enc Encoding) vector(b []byte) r3.Vector {
	return r3.Vector{X: enc.coord(b), Y: enc.coord(b[4:]), Z: enc.coord(b[8:])}
}

func (enc Encoding) putVector(b []byte, v r3.Vector) {
	enc.putCoord(b, v.X)
	enc.putCoord(b[4:], v.Y)
	enc.putCoord(b[8:], v.Z)
}

func (enc Encoding) normal(b []byte) r3.Vector {
	if enc == Float32BE {
		return enc.vector(b)
	}
	order := enc.order()
	return r3.Vector{
		X: float64(int16(order.Uint16(b))) / fixedScale,
		Y: float64(int16(order.Uint16(b[2:]))) / fixedScale,
		Z: float64(int16(order.Uint16(b[4:]))) / fixedScale,
	}
}

func (enc Encoding) putNormal(b []byte, n r3.Vector) {
	if enc == Float32BE {
		enc.putVector(b, n)
		return
	}
	order := enc.order()
	order.PutUint16(b, uint16(int16(math.Round(n.X*fixedScale))))
	order.PutUint16(b[2:], uint16(int16(math.Round(n.Y*fixedScale))))
	order.PutUint16(b[4:], uint16(int16(math.Round(n.Z*fixedScale))))
}
