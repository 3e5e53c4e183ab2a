package schema

import (
	"strconv"
	"strings"

	"github.com/wkalt/robocodec/util"
)

/*
Schema is a generic representation of message schemas. Both ROS1 and ROS2
message definitions are parsed into these, and the CDR codec is driven entirely
by them.

A schema is a set of named message types. Each message type is an ordered list
of fields, and each field has a primitive, array or nested type. Nested types
refer to other message types in the same schema by name. Names are resolved
leniently, to tolerate the differences between ROS1 ("pkg/Type") and ROS2
("pkg/msg/Type") naming conventions as well as the IDL "pkg::msg::Type" form.

Schemas are built once and then shared read-only between decoders and encoders.
*/

////////////////////////////////////////////////////////////////////////////////

// FieldKind distinguishes the three shapes of a field type.
type FieldKind int

const (
	PrimitiveKind FieldKind = iota
	ArrayKind
	NestedKind
)

// nestedAlignment is the alignment of a nested struct in CDR, regardless of
// the alignment of its own fields.
const nestedAlignment = 4

// FieldType is the type of a message field.
type FieldType struct {
	Primitive PrimitiveType

	// If it's an array...
	Array     bool
	FixedSize int // zero for length-prefixed arrays
	Items     *FieldType

	// If it's a nested message...
	Nested string

	// Bounded-size arrays and strings are supported.
	Bounded   bool
	SizeBound int
}

// NewPrimitive returns a primitive field type.
func NewPrimitive(p PrimitiveType) FieldType {
	return FieldType{Primitive: p}
}

// NewArray returns an array field type. A zero size denotes a dynamic
// (length-prefixed) array.
func NewArray(items FieldType, size int) FieldType {
	return FieldType{Array: true, FixedSize: size, Items: &items}
}

// NewNested returns a field type referencing another message type by name.
func NewNested(name string) FieldType {
	return FieldType{Nested: name}
}

// Kind returns the shape of the type.
func (t FieldType) Kind() FieldKind {
	switch {
	case t.Array:
		return ArrayKind
	case t.Nested != "":
		return NestedKind
	default:
		return PrimitiveKind
	}
}

// IsPrimitive returns true if the type is a primitive type.
func (t FieldType) IsPrimitive() bool {
	return t.Kind() == PrimitiveKind
}

// IsDynamicArray returns true if the type is a length-prefixed array.
func (t FieldType) IsDynamicArray() bool {
	return t.Array && t.FixedSize == 0
}

// Alignment returns the alignment of the type: the primitive's alignment, the
// element alignment for arrays and 4 for nested types. The length prefix of a
// dynamic array is not accounted for here.
func (t FieldType) Alignment() int {
	switch t.Kind() {
	case ArrayKind:
		if t.Items == nil {
			return 1
		}
		return t.Items.Alignment()
	case NestedKind:
		return nestedAlignment
	default:
		return t.Primitive.Alignment()
	}
}

func (t FieldType) String() string {
	switch t.Kind() {
	case ArrayKind:
		items := "?"
		if t.Items != nil {
			items = t.Items.String()
		}
		switch {
		case t.Bounded:
			return items + "[<=" + strconv.Itoa(t.SizeBound) + "]"
		case t.FixedSize > 0:
			return items + "[" + strconv.Itoa(t.FixedSize) + "]"
		default:
			return items + "[]"
		}
	case NestedKind:
		return t.Nested
	default:
		if t.Bounded && t.Primitive.IsString() {
			return t.Primitive.String() + "<=" + strconv.Itoa(t.SizeBound)
		}
		return t.Primitive.String()
	}
}

func (t FieldType) clone() FieldType {
	if t.Items != nil {
		items := t.Items.clone()
		t.Items = &items
	}
	return t
}

// Field is a named, typed member of a message type.
type Field struct {
	Name    string
	Type    FieldType
	Default any
}

// MessageType is a single message definition.
type MessageType struct {
	Name   string
	Fields []Field

	// MaxAlignment is the largest alignment of any field.
	MaxAlignment int
}

// NewMessageType constructs a message type from a list of fields.
func NewMessageType(name string, fields ...Field) *MessageType {
	t := &MessageType{Name: name, MaxAlignment: 1}
	for _, f := range fields {
		t.AddField(f)
	}
	return t
}

// AddField appends a field, updating the type's maximum alignment.
func (t *MessageType) AddField(f Field) {
	t.Fields = append(t.Fields, f)
	t.MaxAlignment = max(t.MaxAlignment, f.Type.Alignment())
}

// Field returns the field with the supplied name.
func (t *MessageType) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// MessageSchema is a set of message types rooted at a named top-level type.
type MessageSchema struct {
	Name    string
	Package string
	Types   map[string]*MessageType
}

// NewMessageSchema returns an empty schema with the given root name. The
// package is taken from the first path segment of the name.
func NewMessageSchema(name string) *MessageSchema {
	return &MessageSchema{
		Name:    name,
		Package: packageOf(name),
		Types:   make(map[string]*MessageType),
	}
}

// AddType registers a message type under its name.
func (s *MessageSchema) AddType(t *MessageType) {
	s.Types[t.Name] = t
}

// Type returns the type registered under exactly the supplied name.
func (s *MessageSchema) Type(name string) (*MessageType, bool) {
	t, ok := s.Types[name]
	return t, ok
}

// Root returns the schema's top-level type.
func (s *MessageSchema) Root() (*MessageType, error) {
	return s.ResolveType(s.Name)
}

// ResolveType looks up a type by name, trying in order: the exact name, "::"
// normalized to "/", the name with "/msg/" inserted, the name with "/msg/"
// removed, and finally a short-name suffix match.
func (s *MessageSchema) ResolveType(name string) (*MessageType, error) {
	if t, ok := s.Types[name]; ok {
		return t, nil
	}
	normalized := strings.ReplaceAll(name, "::", "/")
	if t, ok := s.Types[normalized]; ok {
		return t, nil
	}
	if !strings.Contains(normalized, "/msg/") {
		if t, ok := s.Types[strings.ReplaceAll(normalized, "/", "/msg/")]; ok {
			return t, nil
		}
	} else {
		if t, ok := s.Types[strings.ReplaceAll(normalized, "/msg/", "/")]; ok {
			return t, nil
		}
	}
	if !strings.Contains(normalized, "/") {
		for _, key := range util.Okeys(s.Types) {
			if strings.HasSuffix(key, "/"+normalized) {
				return s.Types[key], nil
			}
		}
	}
	return nil, NewTypeNotFoundError(name)
}

// Validate checks that the root type exists, that every field has a type and
// that every nested reference resolves.
func (s *MessageSchema) Validate() error {
	if _, err := s.Root(); err != nil {
		return err
	}
	for _, key := range util.Okeys(s.Types) {
		t := s.Types[key]
		if t.Name == "" {
			return NewInvalidSchemaError("type registered under %q has no name", key)
		}
		for _, f := range t.Fields {
			ft := f.Type
			for ft.Array {
				if ft.Items == nil {
					return NewInvalidSchemaError("array field %s.%s has no element type", t.Name, f.Name)
				}
				ft = *ft.Items
			}
			if ft.Nested != "" {
				if _, err := s.ResolveType(ft.Nested); err != nil {
					return err
				}
				continue
			}
			if !ft.Primitive.valid() {
				return NewInvalidSchemaError("field %s.%s has no type", t.Name, f.Name)
			}
		}
	}
	return nil
}

// RenamePackage returns a copy of the schema with the package prefix oldpkg
// replaced by newpkg in every type name and nested reference. Both the "/"
// and "::" separators are recognized.
func (s *MessageSchema) RenamePackage(oldpkg, newpkg string) *MessageSchema {
	out := &MessageSchema{
		Name:    renamePrefix(s.Name, oldpkg, newpkg),
		Package: util.When(s.Package == oldpkg, newpkg, s.Package),
		Types:   make(map[string]*MessageType, len(s.Types)),
	}
	for key, t := range s.Types {
		renamed := &MessageType{
			Name:         renamePrefix(t.Name, oldpkg, newpkg),
			Fields:       make([]Field, len(t.Fields)),
			MaxAlignment: t.MaxAlignment,
		}
		for i, f := range t.Fields {
			f.Type = renameFieldType(f.Type.clone(), oldpkg, newpkg)
			renamed.Fields[i] = f
		}
		out.Types[renamePrefix(key, oldpkg, newpkg)] = renamed
	}
	return out
}

func renameFieldType(t FieldType, oldpkg, newpkg string) FieldType {
	if t.Items != nil {
		*t.Items = renameFieldType(*t.Items, oldpkg, newpkg)
	}
	if t.Nested != "" {
		t.Nested = renamePrefix(t.Nested, oldpkg, newpkg)
	}
	return t
}

func renamePrefix(name, oldpkg, newpkg string) string {
	for _, sep := range []string{"/", "::"} {
		if strings.HasPrefix(name, oldpkg+sep) {
			return newpkg + sep + strings.TrimPrefix(name, oldpkg+sep)
		}
	}
	return name
}

func packageOf(name string) string {
	name = strings.ReplaceAll(name, "::", "/")
	if i := strings.Index(name, "/"); i > 0 {
		return name[:i]
	}
	return ""
}
