package record

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

// Fixed values held by every Record
const (
	Magic   int32   = 0x13371337
	Ratio   float32 = 3.14159
	Size            = 32 // bytes, matches the C layout {int; float; double[3]}
	NumAxes         = 3
)

// Coords is the fixed coordinate triple
var Coords = [NumAxes]float64{1.0, 2.0, 3.0}

// Field offsets within the encoded record
const (
	offMagic  = 0
	offRatio  = 4
	offCoords = 8
)

// Record is the fixed-layout structure exposed to an external inspector
type Record struct {
	Magic  int32
	Ratio  float32
	Coords [NumAxes]float64
}

// New returns a heap-allocated record holding the fixed values.
// The Go heap does not move objects, so the address stays valid while the
// record is reachable. Kept out of line so the result always escapes to the
// heap instead of a goroutine stack, which may be copied on growth.
//
//go:noinline
func New() *Record {
	return &Record{
		Magic:  Magic,
		Ratio:  Ratio,
		Coords: Coords,
	}
}

// Addr returns the address of the record in this process
func (r *Record) Addr() uintptr {
	return uintptr(unsafe.Pointer(r))
}

// Bytes returns a view over the record's own memory, not a copy
func (r *Record) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(r)), unsafe.Sizeof(*r))
}

// Valid reports whether every field still holds its fixed value
func (r Record) Valid() bool {
	return r.Magic == Magic && r.Ratio == Ratio && r.Coords == Coords
}

// Encode returns the canonical image of the fixed record in native byte order
func Encode() []byte {
	buf := make([]byte, Size)
	binary.NativeEndian.PutUint32(buf[offMagic:], uint32(Magic))
	binary.NativeEndian.PutUint32(buf[offRatio:], math.Float32bits(Ratio))
	for i, c := range Coords {
		binary.NativeEndian.PutUint64(buf[offCoords+8*i:], math.Float64bits(c))
	}
	return buf
}

// MagicPattern returns the 4-byte marker image an inspector searches for
func MagicPattern() []byte {
	return Encode()[offMagic:offRatio]
}

// Decode parses a native byte order record image
func Decode(b []byte) (Record, error) {
	var r Record
	if len(b) < Size {
		return r, fmt.Errorf("short record image: %d bytes, need %d", len(b), Size)
	}

	r.Magic = int32(binary.NativeEndian.Uint32(b[offMagic:]))
	r.Ratio = math.Float32frombits(binary.NativeEndian.Uint32(b[offRatio:]))
	for i := range r.Coords {
		r.Coords[i] = math.Float64frombits(binary.NativeEndian.Uint64(b[offCoords+8*i:]))
	}

	return r, nil
}
