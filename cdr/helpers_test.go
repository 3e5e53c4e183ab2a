package cdr_test

import (
	"github.com/wkalt/robocodec/schema"
)

func prim(p schema.PrimitiveType) schema.FieldType {
	return schema.NewPrimitive(p)
}

func arr(items schema.FieldType, size int) schema.FieldType {
	return schema.NewArray(items, size)
}

func nested(name string) schema.FieldType {
	return schema.NewNested(name)
}

func f(name string, t schema.FieldType) schema.Field {
	return schema.Field{Name: name, Type: t}
}

func msgType(name string, fields ...schema.Field) *schema.MessageType {
	return schema.NewMessageType(name, fields...)
}

// newSchema returns a schema rooted at the first type.
func newSchema(types ...*schema.MessageType) *schema.MessageSchema {
	s := schema.NewMessageSchema(types[0].Name)
	for _, t := range types {
		s.AddType(t)
	}
	return s
}

// single returns a schema with one type made of the supplied fields.
func single(fields ...schema.Field) *schema.MessageSchema {
	return newSchema(msgType("pkg/msg/T", fields...))
}
