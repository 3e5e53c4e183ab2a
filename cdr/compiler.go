package cdr

import (
	"github.com/wkalt/robocodec/schema"
	"github.com/wkalt/robocodec/util"
)

/*
The compiler walks a message type depth-first and emits its decode plan.

Every field is preceded by an Align op carrying the field's alignment, except
the first field of the top-level message, which is aligned to the type's
maximum alignment. Length-prefixed arrays are aligned to 4 for their prefix;
the executor aligns the element block separately. Nested fields are inlined
between DecodeNested and EndScope. Arrays of nested types are not inlined,
since their length is only known at run time; the executor decodes those
elements recursively from the schema.
*/

////////////////////////////////////////////////////////////////////////////////

const (
	// MaxDepth is the maximum nesting depth of message types, for the
	// compiler, the runtime nested decoder and the encoder alike.
	MaxDepth = 32

	// MaxArrayLength is the largest length prefix the decoder accepts for
	// strings, byte sequences and arrays.
	MaxArrayLength = 10_000_000
)

type compiler struct {
	schema       *schema.MessageSchema
	bytesAsBlobs bool
	ops          []Op
}

// Compile compiles the decode plan for typeName, which is resolved against
// the schema with variant lookup. An empty name selects the schema's root.
func Compile(s *schema.MessageSchema, typeName string) (*Plan, error) {
	return compile(s, typeName, false)
}

func compile(s *schema.MessageSchema, typeName string, bytesAsBlobs bool) (*Plan, error) {
	t, err := s.ResolveType(util.When(typeName == "", s.Name, typeName))
	if err != nil {
		return nil, err
	}
	c := &compiler{schema: s, bytesAsBlobs: bytesAsBlobs}
	if err := c.compileFields(t, "", true, 0); err != nil {
		return nil, err
	}
	return &Plan{TypeName: t.Name, Ops: c.ops}, nil
}

// fieldAlignment returns the alignment applied before a field. Dynamic arrays
// start with their 4-byte length prefix.
func fieldAlignment(t schema.FieldType) int {
	if t.IsDynamicArray() {
		return 4
	}
	return t.Alignment()
}

func isByteSequence(t schema.FieldType) bool {
	return t.IsDynamicArray() && t.Items != nil && t.Items.IsPrimitive() &&
		t.Items.Primitive.Canonical() == schema.UINT8
}

// elementTypeOf describes the elements of an array type, resolving nested
// element types once.
func elementTypeOf(s *schema.MessageSchema, t schema.FieldType) (ElementType, error) {
	items := t.Items
	if items == nil {
		return ElementType{}, schema.NewInvalidSchemaError("array without element type")
	}
	switch items.Kind() {
	case schema.PrimitiveKind:
		if items.Primitive.IsString() {
			return ElementType{Kind: ElemString}, nil
		}
		return ElementType{Kind: ElemPrimitive, Primitive: items.Primitive.Canonical()}, nil
	case schema.NestedKind:
		nested, err := s.ResolveType(items.Nested)
		if err != nil {
			return ElementType{}, err
		}
		return ElementType{Kind: ElemNested, TypeName: nested.Name, alignment: items.Alignment()}, nil
	default:
		if isByteSequence(*items) {
			return ElementType{Kind: ElemBytes}, nil
		}
		return ElementType{}, NewUnsupportedError("arrays of %s", items)
	}
}

func (c *compiler) emit(op Op) {
	c.ops = append(c.ops, op)
}

func (c *compiler) compileFields(t *schema.MessageType, prefix string, topLevel bool, depth int) error {
	if depth > MaxDepth {
		return schema.NewInvalidSchemaError("nesting of %s exceeds maximum depth %d", t.Name, MaxDepth)
	}
	for i, f := range t.Fields {
		path := util.When(prefix == "", f.Name, prefix+"."+f.Name)
		alignment := fieldAlignment(f.Type)
		if topLevel && i == 0 {
			alignment = t.MaxAlignment
		}
		if alignment > 1 {
			c.emit(Op{Code: OpAlign, Alignment: alignment, Path: path, Name: f.Name})
		}
		if err := c.compileField(f, path, depth); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compileField(f schema.Field, path string, depth int) error {
	switch f.Type.Kind() {
	case schema.PrimitiveKind:
		switch p := f.Type.Primitive; {
		case p.IsString():
			c.emit(Op{Code: OpReadString, Path: path, Name: f.Name})
		case p == schema.TIME:
			c.emit(Op{Code: OpReadTime, Path: path, Name: f.Name})
		case p == schema.DURATION:
			c.emit(Op{Code: OpReadDuration, Path: path, Name: f.Name})
		default:
			c.emit(Op{Code: OpReadPrimitive, Path: path, Name: f.Name, Primitive: p.Canonical()})
		}
	case schema.ArrayKind:
		if c.bytesAsBlobs && isByteSequence(f.Type) {
			c.emit(Op{Code: OpReadBytes, Path: path, Name: f.Name})
			return nil
		}
		elem, err := elementTypeOf(c.schema, f.Type)
		if err != nil {
			return err
		}
		c.emit(Op{
			Code:    OpReadArray,
			Path:    path,
			Name:    f.Name,
			Element: elem,
			Count:   f.Type.FixedSize,
			Fixed:   f.Type.FixedSize > 0,
		})
	case schema.NestedKind:
		nested, err := c.schema.ResolveType(f.Type.Nested)
		if err != nil {
			return err
		}
		c.emit(Op{Code: OpDecodeNested, Path: path, Name: f.Name, TypeName: nested.Name})
		if err := c.compileFields(nested, path, false, depth+1); err != nil {
			return err
		}
		c.emit(Op{Code: OpEndScope, Path: path, Name: f.Name})
	}
	return nil
}
