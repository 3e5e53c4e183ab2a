package cdr

import (
	"math"
	"strconv"

	"github.com/wkalt/robocodec/schema"
	"github.com/wkalt/robocodec/util"
	"github.com/wkalt/robocodec/value"
	"golang.org/x/exp/constraints"
)

/*
Encoder writes messages as CDR. It recurses over the schema rather than a
compiled plan, aligning each field by the same rules the compiler uses. Fields
missing from the message (or null) are skipped.

Values whose kind differs from the field's primitive are coerced. Integers
convert to any integer type that can represent them and conversions that do
not fit fail with ErrOverflow. Float fields accept any numeric value. Strings,
byte sequences, booleans, timestamps and durations must match exactly.

Each nested struct is encoded with the alignment origin moved to its start.
*/

////////////////////////////////////////////////////////////////////////////////

// Encoder encodes messages with a fixed encapsulation kind. Encoders are
// stateless and safe for concurrent use.
type Encoder struct {
	kind EncapsulationKind
}

// NewEncoder returns an encoder for the given encapsulation kind.
func NewEncoder(kind EncapsulationKind) *Encoder {
	return &Encoder{kind: kind}
}

// Kind returns the encoder's encapsulation kind.
func (e *Encoder) Kind() EncapsulationKind {
	return e.kind
}

// EncodeMessage encodes msg as little-endian CDR.
func EncodeMessage(msg value.Message, s *schema.MessageSchema, typeName string) ([]byte, error) {
	return NewEncoder(CDRLittleEndian).EncodeMessage(msg, s, typeName)
}

// EncodeMessage encodes msg as typeName, which is resolved against the schema
// with variant lookup. An empty name selects the schema's root type.
func (e *Encoder) EncodeMessage(msg value.Message, s *schema.MessageSchema, typeName string) ([]byte, error) {
	if !e.kind.Valid() {
		return nil, NewUnsupportedError("encapsulation kind 0x%02x", byte(e.kind))
	}
	t, err := s.ResolveType(util.When(typeName == "", s.Name, typeName))
	if err != nil {
		return nil, err
	}
	enc := &encoder{w: NewWriter(e.kind), schema: s}
	if err := enc.encodeFields(msg, t, "", 0); err != nil {
		return nil, err
	}
	return enc.w.Bytes(), nil
}

type encoder struct {
	w      *Writer
	schema *schema.MessageSchema
}

func (e *encoder) encodeFields(msg value.Message, t *schema.MessageType, prefix string, depth int) error {
	if depth > MaxDepth {
		return newEncodeError(prefix, ErrMaxDepthExceeded, "nesting of %s exceeds maximum depth %d", t.Name, MaxDepth)
	}
	for _, f := range t.Fields {
		v, ok := msg[f.Name]
		if !ok || v.IsNull() {
			continue
		}
		path := util.When(prefix == "", f.Name, prefix+"."+f.Name)
		if err := e.w.Align(fieldAlignment(f.Type)); err != nil {
			return err
		}
		if err := e.encodeValue(v, f.Type, path, depth); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) encodeValue(v value.Value, t schema.FieldType, path string, depth int) error {
	switch t.Kind() {
	case schema.ArrayKind:
		return e.encodeArray(v, t, path, depth)
	case schema.NestedKind:
		return e.encodeNested(v, t.Nested, path, depth)
	default:
		return e.encodePrimitive(v, t.Primitive, path, true)
	}
}

func (e *encoder) encodeNested(v value.Value, typeName string, path string, depth int) error {
	msg, ok := v.AsStruct()
	if !ok {
		return mismatch(path, "struct", v)
	}
	t, err := e.schema.ResolveType(typeName)
	if err != nil {
		return err
	}
	origin := e.w.ResetOrigin()
	defer e.w.SetOrigin(origin)
	return e.encodeFields(msg, t, path, depth+1)
}

func (e *encoder) writeLength(n int) error {
	if err := e.w.Align(4); err != nil {
		return err
	}
	e.w.PutUint32(uint32(n))
	return nil
}

func (e *encoder) encodeArray(v value.Value, t schema.FieldType, path string, depth int) error {
	items := t.Items
	if items == nil {
		return schema.NewInvalidSchemaError("array field %s has no element type", path)
	}
	if b, ok := v.AsBytes(); ok && items.IsPrimitive() && items.Primitive.Canonical() == schema.UINT8 {
		if t.FixedSize > 0 && len(b) != t.FixedSize {
			return newEncodeError(path, ErrTypeMismatch, "fixed array expects %d elements, got %d", t.FixedSize, len(b))
		}
		if t.FixedSize == 0 {
			if err := e.writeLength(len(b)); err != nil {
				return err
			}
		}
		e.w.PutBytes(b)
		return nil
	}
	elems, ok := v.AsArray()
	if !ok {
		return mismatch(path, t.String(), v)
	}
	if t.FixedSize > 0 && len(elems) != t.FixedSize {
		return newEncodeError(path, ErrTypeMismatch, "fixed array expects %d elements, got %d", t.FixedSize, len(elems))
	}
	if t.FixedSize == 0 {
		if err := e.writeLength(len(elems)); err != nil {
			return err
		}
	}
	switch items.Kind() {
	case schema.PrimitiveKind:
		if len(elems) > 0 && !items.Primitive.IsString() {
			if err := e.w.Align(items.Primitive.Alignment()); err != nil {
				return err
			}
		}
		for i, elem := range elems {
			if err := e.encodePrimitive(elem, items.Primitive, elementPath(path, i), false); err != nil {
				return err
			}
		}
	case schema.NestedKind:
		for i, elem := range elems {
			if err := e.w.Align(items.Alignment()); err != nil {
				return err
			}
			if err := e.encodeNested(elem, items.Nested, elementPath(path, i), depth); err != nil {
				return err
			}
		}
	default:
		if !isByteSequence(*items) {
			return NewUnsupportedError("arrays of %s", items)
		}
		for i, elem := range elems {
			if err := e.encodeArray(elem, *items, elementPath(path, i), depth); err != nil {
				return err
			}
		}
	}
	return nil
}

func elementPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func (e *encoder) encodePrimitive(v value.Value, p schema.PrimitiveType, path string, align bool) error {
	w := e.w
	switch p.Canonical() {
	case schema.BOOL:
		b, ok := v.AsBool()
		if !ok {
			return mismatch(path, "bool", v)
		}
		w.PutBool(b)
	case schema.INT8:
		x, err := coerceSigned[int8](v, p, path)
		if err != nil {
			return err
		}
		w.PutInt8(x)
	case schema.INT16:
		x, err := coerceSigned[int16](v, p, path)
		if err != nil {
			return err
		}
		w.PutInt16(x)
	case schema.INT32:
		x, err := coerceSigned[int32](v, p, path)
		if err != nil {
			return err
		}
		w.PutInt32(x)
	case schema.INT64:
		x, err := coerceSigned[int64](v, p, path)
		if err != nil {
			return err
		}
		w.PutInt64(x)
	case schema.UINT8:
		x, err := coerceUnsigned[uint8](v, p, path)
		if err != nil {
			return err
		}
		w.PutUint8(x)
	case schema.UINT16:
		x, err := coerceUnsigned[uint16](v, p, path)
		if err != nil {
			return err
		}
		w.PutUint16(x)
	case schema.UINT32:
		x, err := coerceUnsigned[uint32](v, p, path)
		if err != nil {
			return err
		}
		w.PutUint32(x)
	case schema.UINT64:
		x, err := coerceUnsigned[uint64](v, p, path)
		if err != nil {
			return err
		}
		w.PutUint64(x)
	case schema.FLOAT32:
		f, ok := v.AsFloat64()
		if !ok {
			return mismatch(path, "float32", v)
		}
		w.PutFloat32(float32(f))
	case schema.FLOAT64:
		f, ok := v.AsFloat64()
		if !ok {
			return mismatch(path, "float64", v)
		}
		w.PutFloat64(f)
	case schema.STRING:
		s, ok := v.AsString()
		if !ok {
			return mismatch(path, p.String(), v)
		}
		if err := w.Align(4); err != nil {
			return err
		}
		w.PutString(s)
	case schema.TIME:
		nanos, ok := v.AsTimestamp()
		if !ok {
			return mismatch(path, "time", v)
		}
		sec, nsec := nanos/1e9, nanos%1e9
		if nsec < 0 {
			sec--
			nsec += 1e9
		}
		return e.putTemporal(sec, nsec, path, align)
	case schema.DURATION:
		nanos, ok := v.AsDuration()
		if !ok {
			return mismatch(path, "duration", v)
		}
		nsec := nanos % 1e9
		if nsec < 0 {
			nsec = -nsec
		}
		return e.putTemporal(nanos/1e9, nsec, path, align)
	default:
		return NewUnsupportedError("primitive type %s", p)
	}
	return nil
}

func (e *encoder) putTemporal(sec, nsec int64, path string, align bool) error {
	if sec < math.MinInt32 || sec > math.MaxInt32 {
		return newEncodeError(path, ErrOverflow, "seconds %d overflow int32", sec)
	}
	if align {
		if err := e.w.Align(4); err != nil {
			return err
		}
	}
	e.w.PutInt32(int32(sec))
	e.w.PutUint32(uint32(nsec))
	return nil
}

func mismatch(path string, expected string, v value.Value) error {
	return newEncodeError(path, ErrTypeMismatch, "type mismatch: expected %s, got %s", expected, v.TypeName())
}

func overflow(path string, v value.Value, target schema.PrimitiveType) error {
	return newEncodeError(path, ErrOverflow, "value %s overflows target type %s", v, target)
}

// coerceSigned converts any integer value to T, failing if it does not fit.
func coerceSigned[T constraints.Signed](v value.Value, target schema.PrimitiveType, path string) (T, error) {
	if !v.IsInteger() {
		return 0, mismatch(path, target.String(), v)
	}
	i, ok := v.AsInt64()
	if !ok || int64(T(i)) != i {
		return 0, overflow(path, v, target)
	}
	return T(i), nil
}

// coerceUnsigned converts any integer value to T, failing if it is negative or
// does not fit.
func coerceUnsigned[T constraints.Unsigned](v value.Value, target schema.PrimitiveType, path string) (T, error) {
	if !v.IsInteger() {
		return 0, mismatch(path, target.String(), v)
	}
	u, ok := v.AsUint64()
	if !ok || uint64(T(u)) != u {
		return 0, overflow(path, v, target)
	}
	return T(u), nil
}
