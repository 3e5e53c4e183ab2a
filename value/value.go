package value

import (
	"math"
	"strconv"
	"strings"
)

/*
Value is the canonical in-memory representation of a decoded field. It is a
tagged union: the Kind says which variant is populated. Scalars are packed into
a single 64-bit word and containers live behind an interface reference, so a
Value is three words wide regardless of its kind.

Values are built bottom-up by the CDR decoder and consumed top-down by the
encoder. They carry no back-references and can be cloned freely.
*/

////////////////////////////////////////////////////////////////////////////////

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	NullKind Kind = iota
	BoolKind
	Int8Kind
	Int16Kind
	Int32Kind
	Int64Kind
	Uint8Kind
	Uint16Kind
	Uint32Kind
	Uint64Kind
	Float32Kind
	Float64Kind
	StringKind
	BytesKind
	TimestampKind
	DurationKind
	ArrayKind
	StructKind
)

// nolint: gochecknoglobals
var kindNames = [...]string{
	NullKind:      "null",
	BoolKind:      "bool",
	Int8Kind:      "int8",
	Int16Kind:     "int16",
	Int32Kind:     "int32",
	Int64Kind:     "int64",
	Uint8Kind:     "uint8",
	Uint16Kind:    "uint16",
	Uint32Kind:    "uint32",
	Uint64Kind:    "uint64",
	Float32Kind:   "float32",
	Float64Kind:   "float64",
	StringKind:    "string",
	BytesKind:     "bytes",
	TimestampKind: "timestamp",
	DurationKind:  "duration",
	ArrayKind:     "array",
	StructKind:    "struct",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Message is a decoded message: a mapping from field name to value.
type Message map[string]Value

// Value is a single decoded field value.
type Value struct {
	kind Kind
	bits uint64
	ref  any
}

// Null returns the null value, used for absent fields.
func Null() Value { return Value{} }

func Bool(v bool) Value {
	if v {
		return Value{kind: BoolKind, bits: 1}
	}
	return Value{kind: BoolKind}
}

func Int8(v int8) Value { return Value{kind: Int8Kind, bits: uint64(int64(v))} }
func Int16(v int16) Value { return Value{kind: Int16Kind, bits: uint64(int64(v))} }
func Int32(v int32) Value { return Value{kind: Int32Kind, bits: uint64(int64(v))} }
func Int64(v int64) Value { return Value{kind: Int64Kind, bits: uint64(v)} }
func Uint8(v uint8) Value { return Value{kind: Uint8Kind, bits: uint64(v)} }
func Uint16(v uint16) Value { return Value{kind: Uint16Kind, bits: uint64(v)} }
func Uint32(v uint32) Value { return Value{kind: Uint32Kind, bits: uint64(v)} }
func Uint64(v uint64) Value { return Value{kind: Uint64Kind, bits: v} }

func Float32(v float32) Value {
	return Value{kind: Float32Kind, bits: uint64(math.Float32bits(v))}
}

func Float64(v float64) Value {
	return Value{kind: Float64Kind, bits: math.Float64bits(v)}
}

func String(v string) Value { return Value{kind: StringKind, ref: v} }

// Bytes returns a raw byte sequence value. The slice is not copied.
func Bytes(v []byte) Value { return Value{kind: BytesKind, ref: v} }

// Timestamp returns a timestamp value in nanoseconds since the Unix epoch.
func Timestamp(nanos int64) Value { return Value{kind: TimestampKind, bits: uint64(nanos)} }

// Duration returns a signed duration value in nanoseconds.
func Duration(nanos int64) Value { return Value{kind: DurationKind, bits: uint64(nanos)} }

// Array returns an array value. The slice is not copied.
func Array(v []Value) Value { return Value{kind: ArrayKind, ref: v} }

// Struct returns a struct value. The map is not copied.
func Struct(m Message) Value { return Value{kind: StructKind, ref: m} }

// TimestampFromParts combines ROS seconds and nanoseconds into a timestamp.
func TimestampFromParts(sec int32, nsec uint32) Value {
	return Timestamp(SaturatingAdd(SaturatingMul(int64(sec), 1e9), int64(nsec)))
}

// DurationFromParts combines ROS seconds and nanoseconds into a duration. A
// negative seconds part makes the whole duration negative, so the nanoseconds
// are subtracted.
func DurationFromParts(sec int32, nsec uint32) Value {
	base := SaturatingMul(int64(sec), 1e9)
	if sec < 0 {
		return Duration(SaturatingSub(base, int64(nsec)))
	}
	return Duration(SaturatingAdd(base, int64(nsec)))
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// TypeName returns the name of the variant held by v.
func (v Value) TypeName() string { return v.kind.String() }

func (v Value) IsNull() bool { return v.kind == NullKind }

func (v Value) IsSignedInteger() bool {
	return v.kind >= Int8Kind && v.kind <= Int64Kind
}

func (v Value) IsUnsignedInteger() bool {
	return v.kind >= Uint8Kind && v.kind <= Uint64Kind
}

func (v Value) IsInteger() bool {
	return v.IsSignedInteger() || v.IsUnsignedInteger()
}

func (v Value) IsFloat() bool {
	return v.kind == Float32Kind || v.kind == Float64Kind
}

func (v Value) IsNumeric() bool {
	return v.IsInteger() || v.IsFloat()
}

func (v Value) IsTemporal() bool {
	return v.kind == TimestampKind || v.kind == DurationKind
}

func (v Value) IsContainer() bool {
	return v.kind == ArrayKind || v.kind == StructKind
}

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.bits != 0, v.kind == BoolKind
}

// AsInt64 returns v as a signed integer. Unsigned values above the int64 range
// have no value.
func (v Value) AsInt64() (int64, bool) {
	switch {
	case v.IsSignedInteger():
		return int64(v.bits), true
	case v.IsUnsignedInteger():
		if v.bits > math.MaxInt64 {
			return 0, false
		}
		return int64(v.bits), true
	default:
		return 0, false
	}
}

// AsUint64 returns v as an unsigned integer. Negative values have no value.
func (v Value) AsUint64() (uint64, bool) {
	switch {
	case v.IsUnsignedInteger():
		return v.bits, true
	case v.IsSignedInteger():
		if int64(v.bits) < 0 {
			return 0, false
		}
		return v.bits, true
	default:
		return 0, false
	}
}

// AsFloat64 returns any numeric value as a float64, possibly losing precision
// for large integers.
func (v Value) AsFloat64() (float64, bool) {
	switch {
	case v.kind == Float32Kind:
		return float64(math.Float32frombits(uint32(v.bits))), true
	case v.kind == Float64Kind:
		return math.Float64frombits(v.bits), true
	case v.IsSignedInteger():
		return float64(int64(v.bits)), true
	case v.IsUnsignedInteger():
		return float64(v.bits), true
	default:
		return 0, false
	}
}

func (v Value) AsString() (string, bool) {
	s, ok := v.ref.(string)
	return s, ok && v.kind == StringKind
}

func (v Value) AsBytes() ([]byte, bool) {
	b, ok := v.ref.([]byte)
	return b, ok && v.kind == BytesKind
}

func (v Value) AsArray() ([]Value, bool) {
	a, ok := v.ref.([]Value)
	return a, ok && v.kind == ArrayKind
}

func (v Value) AsStruct() (Message, bool) {
	m, ok := v.ref.(Message)
	return m, ok && v.kind == StructKind
}

// AsTimestamp returns the nanoseconds of a timestamp value.
func (v Value) AsTimestamp() (int64, bool) {
	return int64(v.bits), v.kind == TimestampKind
}

// AsDuration returns the nanoseconds of a duration value.
func (v Value) AsDuration() (int64, bool) {
	return int64(v.bits), v.kind == DurationKind
}

// SizeHint returns an approximate in-memory cost of the value in bytes. It is
// advisory only.
func (v Value) SizeHint() int {
	switch v.kind {
	case NullKind:
		return 0
	case BoolKind, Int8Kind, Uint8Kind:
		return 1
	case Int16Kind, Uint16Kind:
		return 2
	case Int32Kind, Uint32Kind, Float32Kind:
		return 4
	case StringKind:
		s, _ := v.AsString()
		return len(s)
	case BytesKind:
		b, _ := v.AsBytes()
		return len(b)
	case ArrayKind:
		items, _ := v.AsArray()
		size := len(items) * 8
		for _, item := range items {
			size += item.SizeHint()
		}
		return size
	case StructKind:
		m, _ := v.AsStruct()
		return m.SizeHint()
	default:
		return 8
	}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case BytesKind:
		b, _ := v.AsBytes()
		return Bytes(append([]byte(nil), b...))
	case ArrayKind:
		items, _ := v.AsArray()
		out := make([]Value, len(items))
		for i, item := range items {
			out[i] = item.Clone()
		}
		return Array(out)
	case StructKind:
		m, _ := v.AsStruct()
		return Struct(m.Clone())
	default:
		return v
	}
}

// String returns a human-readable rendering of the value.
func (v Value) String() string {
	sb := &strings.Builder{}
	v.format(sb)
	return sb.String()
}

func (v Value) format(sb *strings.Builder) {
	switch v.kind {
	case NullKind:
		sb.WriteString("null")
	case BoolKind:
		sb.WriteString(strconv.FormatBool(v.bits != 0))
	case Int8Kind, Int16Kind, Int32Kind, Int64Kind:
		sb.WriteString(strconv.FormatInt(int64(v.bits), 10))
	case Uint8Kind, Uint16Kind, Uint32Kind, Uint64Kind:
		sb.WriteString(strconv.FormatUint(v.bits, 10))
	case Float32Kind:
		f, _ := v.AsFloat64()
		sb.WriteString(strconv.FormatFloat(f, 'g', -1, 32))
	case Float64Kind:
		f, _ := v.AsFloat64()
		sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case StringKind:
		s, _ := v.AsString()
		sb.WriteString(strconv.Quote(s))
	case BytesKind:
		b, _ := v.AsBytes()
		sb.WriteString("<" + strconv.Itoa(len(b)) + " bytes>")
	case TimestampKind:
		sb.WriteString("timestamp(" + strconv.FormatInt(int64(v.bits), 10) + ")")
	case DurationKind:
		sb.WriteString("duration(" + strconv.FormatInt(int64(v.bits), 10) + ")")
	case ArrayKind:
		items, _ := v.AsArray()
		sb.WriteString("[")
		for i, item := range items {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.format(sb)
		}
		sb.WriteString("]")
	case StructKind:
		m, _ := v.AsStruct()
		m.format(sb)
	}
}
