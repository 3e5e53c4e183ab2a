package testutils

import (
	"encoding/binary"
	"math"
	"strings"
)

/*
General purpose test utilities, mostly builders for little-endian CDR byte
sequences.
*/

////////////////////////////////////////////////////////////////////////////////

// Flatten concatenates slices of the same type.
func Flatten[T any](slices ...[]T) []T {
	var result = []T{}
	for _, s := range slices {
		result = append(result, s...)
	}
	return result
}

// Header returns a CDR encapsulation header for the given kind byte.
func Header(kind byte) []byte {
	return []byte{0x00, kind, 0x00, 0x00}
}

// Pad returns n zero bytes.
func Pad(n int) []byte {
	return make([]byte, n)
}

// U8b returns a byte slice containing a single uint8 value.
func U8b(v uint8) []byte {
	return []byte{v}
}

// U16b returns a byte slice containing a single uint16 value.
func U16b(v uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return buf
}

// U32b returns a byte slice containing a single uint32 value.
func U32b(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

// U64b returns a byte slice containing a single uint64 value.
func U64b(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

// I8b returns a byte slice containing a single int8 value.
func I8b(v int8) []byte {
	return U8b(uint8(v))
}

// I16b returns a byte slice containing a single int16 value.
func I16b(v int16) []byte {
	return U16b(uint16(v))
}

// I32b returns a byte slice containing a single int32 value.
func I32b(v int32) []byte {
	return U32b(uint32(v))
}

// I64b returns a byte slice containing a single int64 value.
func I64b(v int64) []byte {
	return U64b(uint64(v))
}

// F32b returns a byte slice containing a single float32 value.
func F32b(v float32) []byte {
	return U32b(math.Float32bits(v))
}

// F64b returns a byte slice containing a single float64 value.
func F64b(v float64) []byte {
	return U64b(math.Float64bits(v))
}

// Boolb returns a single byte holding 0 or 1.
func Boolb(v bool) []byte {
	if v {
		return U8b(1)
	}
	return U8b(0)
}

// CDRString returns a string prefixed with its length, including the NUL
// terminator that follows it.
func CDRString(s string) []byte {
	buf := make([]byte, 4+len(s)+1)
	binary.LittleEndian.PutUint32(buf, uint32(len(s)+1))
	copy(buf[4:], s)
	return buf
}

// BigEndian reverses each fixed-width value produced by the little-endian
// builders above.
func BigEndian(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}

// TrimLeadingSpace removes leading spaces from each line in a string.
func TrimLeadingSpace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimLeft(line, " \t")
	}
	return strings.Join(lines, "\n")
}

