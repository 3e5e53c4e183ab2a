package schema

import (
	"fmt"
)

/*
Primitive types of the ROS message languages and their CDR layout. Alignment
and size are pure lookups keyed by the type tag. Variable-length types (strings)
have no fixed size.
*/

////////////////////////////////////////////////////////////////////////////////

// PrimitiveType is an enumeration of the primitive types.
type PrimitiveType int

const (
	BOOL PrimitiveType = iota + 1
	INT8
	INT16
	INT32
	INT64
	UINT8
	UINT16
	UINT32
	UINT64
	FLOAT32
	FLOAT64
	STRING
	WSTRING
	BYTE
	CHAR
	TIME
	DURATION
)

type primitiveLayout struct {
	name      string
	alignment int
	size      int // zero for variable-length types
}

// nolint: gochecknoglobals
var primitiveLayouts = [...]primitiveLayout{
	BOOL:     {"bool", 1, 1},
	INT8:     {"int8", 1, 1},
	INT16:    {"int16", 2, 2},
	INT32:    {"int32", 4, 4},
	INT64:    {"int64", 8, 8},
	UINT8:    {"uint8", 1, 1},
	UINT16:   {"uint16", 2, 2},
	UINT32:   {"uint32", 4, 4},
	UINT64:   {"uint64", 8, 8},
	FLOAT32:  {"float32", 4, 4},
	FLOAT64:  {"float64", 8, 8},
	STRING:   {"string", 4, 0},
	WSTRING:  {"wstring", 4, 0},
	BYTE:     {"byte", 1, 1},
	CHAR:     {"char", 1, 1},
	TIME:     {"time", 4, 8},
	DURATION: {"duration", 4, 8},
}

// nolint: gochecknoglobals
var primitiveAliases = map[string]PrimitiveType{
	"boolean": BOOL,
	"float":   FLOAT32,
	"double":  FLOAT64,
	"octet":   UINT8,
}

func (p PrimitiveType) valid() bool {
	return p > 0 && int(p) < len(primitiveLayouts)
}

func (p PrimitiveType) String() string {
	if !p.valid() {
		return "unknown"
	}
	return primitiveLayouts[p].name
}

// Alignment returns the CDR alignment of the primitive in bytes.
func (p PrimitiveType) Alignment() int {
	if !p.valid() {
		return 1
	}
	return primitiveLayouts[p].alignment
}

// Size returns the fixed wire size of the primitive. The second return value
// is false for variable-length types.
func (p PrimitiveType) Size() (int, bool) {
	if !p.valid() || primitiveLayouts[p].size == 0 {
		return 0, false
	}
	return primitiveLayouts[p].size, true
}

// IsString reports whether the primitive is a string or wide string.
func (p PrimitiveType) IsString() bool {
	return p == STRING || p == WSTRING
}

// IsTemporal reports whether the primitive is a time or duration.
func (p PrimitiveType) IsTemporal() bool {
	return p == TIME || p == DURATION
}

// Canonical folds aliases onto the kind values are decoded into. Byte and char
// decode as uint8 and wide strings as strings.
func (p PrimitiveType) Canonical() PrimitiveType {
	switch p {
	case BYTE, CHAR:
		return UINT8
	case WSTRING:
		return STRING
	default:
		return p
	}
}

// ParsePrimitiveType looks up a primitive by its name in a message
// definition, including the common aliases.
func ParsePrimitiveType(name string) (PrimitiveType, bool) {
	for i := range primitiveLayouts {
		p := PrimitiveType(i)
		if p.valid() && primitiveLayouts[i].name == name {
			return p, true
		}
	}
	p, ok := primitiveAliases[name]
	return p, ok
}

// MarshalJSON returns the JSON representation of the primitive type.
func (p PrimitiveType) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, p.String())), nil
}

func (p *PrimitiveType) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("unknown primitive type: %s", data)
	}
	parsed, ok := ParsePrimitiveType(string(data[1 : len(data)-1]))
	if !ok {
		return fmt.Errorf("unknown primitive type: %s", data)
	}
	*p = parsed
	return nil
}
