package cdr

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/wkalt/robocodec/schema"
	"github.com/wkalt/robocodec/util"
	"github.com/wkalt/robocodec/value"
)

/*
Decoder executes compiled plans against CDR buffers.

The executor is a single pass over the plan. It keeps a stack of handles to
the structs being filled: DecodeNested inserts a fresh struct into the current
scope and makes it current, EndScope returns to its parent. Values are inserted
under the last segment of their field path.

Alignment during decode is always relative to the outermost origin, including
inside nested structs. The encoder resets its origin per nested struct. The
two agree for any nested struct whose fields need at most 4-byte alignment,
and for all CDR2 data.

Decoders are safe for concurrent use.
*/

////////////////////////////////////////////////////////////////////////////////

type config struct {
	bytesAsBlobs bool
}

// Option is an option for the decoder.
type Option func(*config)

// WithByteArraysAsBytes decodes dynamic uint8 and byte arrays into Bytes
// values rather than arrays of Uint8.
func WithByteArraysAsBytes() Option {
	return func(c *config) {
		c.bytesAsBlobs = true
	}
}

type decodeConfig struct {
	typeName     string
	offset       int
	littleEndian bool
}

// DecodeOption is an option for a single decode call.
type DecodeOption func(*decodeConfig)

// WithTypeName decodes the buffer as typeName instead of the schema's root
// type.
func WithTypeName(typeName string) DecodeOption {
	return func(c *decodeConfig) {
		c.typeName = typeName
	}
}

// WithOffset skips n bytes of container framing before the message.
func WithOffset(n int) DecodeOption {
	return func(c *decodeConfig) {
		c.offset = n
	}
}

// WithByteOrder sets the byte order of headerless buffers. The default is
// little-endian.
func WithByteOrder(littleEndian bool) DecodeOption {
	return func(c *decodeConfig) {
		c.littleEndian = littleEndian
	}
}

// Decoder decodes CDR buffers into messages.
type Decoder struct {
	plans        *PlanCache
	bytesAsBlobs bool
}

// NewDecoder returns a new decoder with an empty plan cache.
func NewDecoder(opts ...Option) *Decoder {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	plans := NewPlanCache()
	plans.bytesAsBlobs = cfg.bytesAsBlobs
	return &Decoder{plans: plans, bytesAsBlobs: cfg.bytesAsBlobs}
}

// Plans returns the decoder's plan cache.
func (d *Decoder) Plans() *PlanCache {
	return d.plans
}

// defaultDecoder backs the package-level decode functions. It keeps the plans
// of every schema passed to them; programs that see many short-lived schemas
// should hold their own Decoder and drop it with the schemas.
// nolint: gochecknoglobals
var defaultDecoder = NewDecoder()

// Decode decodes a buffer with an encapsulation header using a shared
// decoder.
func Decode(s *schema.MessageSchema, data []byte, opts ...DecodeOption) (value.Message, error) {
	return defaultDecoder.Decode(s, data, opts...)
}

// DecodeHeaderless decodes a buffer without an encapsulation header using a
// shared decoder.
func DecodeHeaderless(s *schema.MessageSchema, data []byte, opts ...DecodeOption) (value.Message, error) {
	return defaultDecoder.DecodeHeaderless(s, data, opts...)
}

// DecodeROS1 decodes ROS1-origin data using a shared decoder.
func DecodeROS1(s *schema.MessageSchema, data []byte, opts ...DecodeOption) (value.Message, error) {
	return defaultDecoder.DecodeROS1(s, data, opts...)
}

func resolveDecodeOptions(data []byte, opts []DecodeOption) (decodeConfig, []byte, error) {
	cfg := decodeConfig{littleEndian: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.offset < 0 || cfg.offset > len(data) {
		return cfg, nil, NewBufferTooShortError(cfg.offset, len(data), 0)
	}
	return cfg, data[cfg.offset:], nil
}

// Decode decodes a buffer that begins with an encapsulation header.
func (d *Decoder) Decode(s *schema.MessageSchema, data []byte, opts ...DecodeOption) (value.Message, error) {
	cfg, data, err := resolveDecodeOptions(data, opts)
	if err != nil {
		return nil, err
	}
	c, err := NewCursor(data)
	if err != nil {
		return nil, err
	}
	return d.DecodeCursor(s, c, cfg.typeName)
}

// DecodeHeaderless decodes a buffer with no encapsulation header.
func (d *Decoder) DecodeHeaderless(s *schema.MessageSchema, data []byte, opts ...DecodeOption) (value.Message, error) {
	cfg, data, err := resolveDecodeOptions(data, opts)
	if err != nil {
		return nil, err
	}
	return d.DecodeCursor(s, NewHeaderlessCursor(data, cfg.littleEndian), cfg.typeName)
}

// DecodeROS1 decodes a ROS1-origin buffer: the encapsulation header's byte
// order is ignored, the payload is little-endian and primitive arrays are
// packed.
func (d *Decoder) DecodeROS1(s *schema.MessageSchema, data []byte, opts ...DecodeOption) (value.Message, error) {
	cfg, data, err := resolveDecodeOptions(data, opts)
	if err != nil {
		return nil, err
	}
	c, err := NewROS1Cursor(data)
	if err != nil {
		return nil, err
	}
	return d.DecodeCursor(s, c, cfg.typeName)
}

// DecodeCursor decodes one message of typeName from the cursor. An empty type
// name selects the schema's root type.
func (d *Decoder) DecodeCursor(s *schema.MessageSchema, c *Cursor, typeName string) (value.Message, error) {
	plan, err := d.plans.Get(s, typeName)
	if err != nil {
		return nil, err
	}
	return d.Execute(plan, s, c)
}

// Execute runs a compiled plan against the cursor. Nested types reached
// through arrays are resolved against s.
func (d *Decoder) Execute(plan *Plan, s *schema.MessageSchema, c *Cursor) (value.Message, error) {
	x := &executor{c: c, schema: s, bytesAsBlobs: d.bytesAsBlobs}
	return x.run(plan)
}

type executor struct {
	c            *Cursor
	schema       *schema.MessageSchema
	bytesAsBlobs bool
}

func opType(op *Op) string {
	switch op.Code {
	case OpReadPrimitive:
		return op.Primitive.String()
	case OpReadString:
		return "string"
	case OpReadBytes:
		return "bytes"
	case OpReadTime:
		return "time"
	case OpReadDuration:
		return "duration"
	case OpReadArray:
		return op.Element.String() + "[]"
	default:
		return op.TypeName
	}
}

func (x *executor) run(plan *Plan) (value.Message, error) {
	root := value.Message{}
	current := root
	stack := make([]value.Message, 0, 8)
	for i := range plan.Ops {
		op := &plan.Ops[i]
		pos := x.c.Position()
		var v value.Value
		var err error
		switch op.Code {
		case OpAlign:
			err = x.c.Align(op.Alignment)
		case OpReadPrimitive:
			v, err = x.readPrimitive(op.Primitive)
		case OpReadString:
			v, err = x.readString()
		case OpReadBytes:
			v, err = x.readBlob()
		case OpReadTime, OpReadDuration:
			v, err = x.readTemporal(util.When(op.Code == OpReadTime, schema.TIME, schema.DURATION), true)
		case OpReadArray:
			v, err = x.readArray(op.Element, op.Fixed, op.Count, op.Path, len(stack))
		case OpDecodeNested:
			child := value.Message{}
			current[op.Name] = value.Struct(child)
			stack = append(stack, current)
			current = child
			continue
		case OpEndScope:
			if len(stack) == 0 {
				return nil, newInvariantViolationError("scope stack underflow at op %d of %s", i, plan.TypeName)
			}
			current = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			continue
		default:
			return nil, newInvariantViolationError("unknown op code %d at op %d of %s", op.Code, i, plan.TypeName)
		}
		if err != nil {
			return nil, newFieldDecodeError(op.Path, opType(op), pos, err)
		}
		if op.Code != OpAlign {
			current[op.Name] = v
		}
	}
	if len(stack) != 0 {
		return nil, newInvariantViolationError("%d unclosed scopes in plan for %s", len(stack), plan.TypeName)
	}
	return root, nil
}

func (x *executor) readPrimitive(p schema.PrimitiveType) (value.Value, error) {
	c := x.c
	switch p.Canonical() {
	case schema.BOOL:
		v, err := c.Bool()
		return value.Bool(v), err
	case schema.INT8:
		v, err := c.Int8()
		return value.Int8(v), err
	case schema.INT16:
		v, err := c.Int16()
		return value.Int16(v), err
	case schema.INT32:
		v, err := c.Int32()
		return value.Int32(v), err
	case schema.INT64:
		v, err := c.Int64()
		return value.Int64(v), err
	case schema.UINT8:
		v, err := c.Uint8()
		return value.Uint8(v), err
	case schema.UINT16:
		v, err := c.Uint16()
		return value.Uint16(v), err
	case schema.UINT32:
		v, err := c.Uint32()
		return value.Uint32(v), err
	case schema.UINT64:
		v, err := c.Uint64()
		return value.Uint64(v), err
	case schema.FLOAT32:
		v, err := c.Float32()
		return value.Float32(v), err
	case schema.FLOAT64:
		v, err := c.Float64()
		return value.Float64(v), err
	case schema.STRING:
		return x.readString()
	case schema.TIME, schema.DURATION:
		return x.readTemporal(p, true)
	default:
		return value.Null(), NewUnsupportedError("primitive type %s", p)
	}
}

// readTemporal reads a sec/nsec pair. Standalone fields are 4-byte aligned;
// elements of an array are contiguous.
func (x *executor) readTemporal(p schema.PrimitiveType, align bool) (value.Value, error) {
	if align {
		if err := x.c.Align(4); err != nil {
			return value.Null(), err
		}
	}
	sec, err := x.c.Int32()
	if err != nil {
		return value.Null(), err
	}
	nsec, err := x.c.Uint32()
	if err != nil {
		return value.Null(), err
	}
	if p == schema.DURATION {
		return value.DurationFromParts(sec, nsec), nil
	}
	return value.TimestampFromParts(sec, nsec), nil
}

// readLength reads a 4-byte aligned length prefix and checks it against
// MaxArrayLength.
func (x *executor) readLength() (int, error) {
	if err := x.c.Align(4); err != nil {
		return 0, err
	}
	pos := x.c.Position()
	n, err := x.c.Uint32()
	if err != nil {
		return 0, err
	}
	if n > MaxArrayLength {
		return 0, LengthExceededError{Length: int(n), Position: pos, BufferLength: x.c.Len()}
	}
	return int(n), nil
}

func (x *executor) readString() (value.Value, error) {
	n, err := x.readLength()
	if err != nil {
		return value.Null(), err
	}
	if n <= 1 {
		return value.String(""), x.c.Skip(n)
	}
	b, err := x.c.ReadBytes(n - 1)
	if err != nil {
		return value.Null(), err
	}
	if !utf8.Valid(b) {
		return value.Null(), ErrInvalidUTF8
	}
	s := string(b)
	if err := x.c.Skip(1); err != nil {
		return value.Null(), err
	}
	return value.String(s), nil
}

func (x *executor) readBlob() (value.Value, error) {
	n, err := x.readLength()
	if err != nil {
		return value.Null(), err
	}
	b, err := x.c.ReadBytes(n)
	if err != nil {
		return value.Null(), err
	}
	out := make([]byte, n)
	copy(out, b)
	return value.Bytes(out), nil
}

func (x *executor) readArray(elem ElementType, fixed bool, count int, path string, depth int) (value.Value, error) {
	n := count
	if !fixed {
		var err error
		if n, err = x.readLength(); err != nil {
			return value.Null(), err
		}
	}
	if elem.Kind == ElemPrimitive {
		return x.readPrimitiveArray(elem.Primitive, n)
	}
	items := make([]value.Value, 0, min(n, x.c.Remaining()))
	for i := 0; i < n; i++ {
		pos := x.c.Position()
		v, err := x.readElement(elem, path, i, depth)
		if err != nil {
			return value.Null(), newFieldDecodeError(path+"["+strconv.Itoa(i)+"]", elem.String(), pos, err)
		}
		items = append(items, v)
	}
	return value.Array(items), nil
}

// readPrimitiveArray aligns the element block once, except for ROS1 data,
// then reads the elements contiguously.
func (x *executor) readPrimitiveArray(p schema.PrimitiveType, n int) (value.Value, error) {
	size, _ := p.Size()
	if size > 0 && n > x.c.Remaining()/size {
		return value.Null(), NewBufferTooShortError(n*size, x.c.Remaining(), x.c.Position())
	}
	if n > 0 && !x.c.IsROS1() {
		if err := x.c.Align(p.Alignment()); err != nil {
			return value.Null(), err
		}
	}
	items := make([]value.Value, n)
	for i := range items {
		var err error
		if p.IsTemporal() {
			items[i], err = x.readTemporal(p, false)
		} else {
			items[i], err = x.readPrimitive(p)
		}
		if err != nil {
			return value.Null(), err
		}
	}
	return value.Array(items), nil
}

func (x *executor) readElement(elem ElementType, path string, i int, depth int) (value.Value, error) {
	switch elem.Kind {
	case ElemString:
		return x.readString()
	case ElemBytes:
		return x.readBlob()
	case ElemNested:
		if err := x.c.Align(elem.Alignment()); err != nil {
			return value.Null(), err
		}
		return x.readNested(elem.TypeName, fmt.Sprintf("%s[%d]", path, i), depth+1)
	default:
		return value.Null(), newInvariantViolationError("unexpected element kind %d", elem.Kind)
	}
}

// readNested decodes a nested struct directly from the schema, for elements
// of arrays.
func (x *executor) readNested(typeName string, path string, depth int) (value.Value, error) {
	if depth > MaxDepth {
		return value.Null(), schema.NewInvalidSchemaError("nesting of %s exceeds maximum depth %d", typeName, MaxDepth)
	}
	t, err := x.schema.ResolveType(typeName)
	if err != nil {
		return value.Null(), err
	}
	msg := make(value.Message, len(t.Fields))
	for _, f := range t.Fields {
		fpath := path + "." + f.Name
		pos := x.c.Position()
		if err := x.c.Align(fieldAlignment(f.Type)); err != nil {
			return value.Null(), newFieldDecodeError(fpath, f.Type.String(), pos, err)
		}
		v, err := x.readField(f.Type, fpath, depth)
		if err != nil {
			return value.Null(), newFieldDecodeError(fpath, f.Type.String(), pos, err)
		}
		msg[f.Name] = v
	}
	return value.Struct(msg), nil
}

func (x *executor) readField(t schema.FieldType, path string, depth int) (value.Value, error) {
	switch t.Kind() {
	case schema.ArrayKind:
		if x.bytesAsBlobs && isByteSequence(t) {
			return x.readBlob()
		}
		elem, err := elementTypeOf(x.schema, t)
		if err != nil {
			return value.Null(), err
		}
		return x.readArray(elem, t.FixedSize > 0, t.FixedSize, path, depth)
	case schema.NestedKind:
		return x.readNested(t.Nested, path, depth+1)
	default:
		return x.readPrimitive(t.Primitive)
	}
}
