package transcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/relvacode/iso8601"
	"github.com/wkalt/robocodec/cdr"
	"github.com/wkalt/robocodec/schema"
	"github.com/wkalt/robocodec/util"
	"github.com/wkalt/robocodec/value"
)

/*
FromJSON is the inverse of ToJSON. Values take the exact kind of their field,
so the result encodes without coercion. Besides the forms ToJSON produces, it
accepts ISO 8601 strings for time fields, Go duration strings such as "1.5s"
for duration fields, and base64 strings or arrays of numbers for byte
sequences. Null is read as an absent field, except in float fields where it
stands for NaN.
*/

////////////////////////////////////////////////////////////////////////////////

// FromJSON converts a JSON object into a message of typeName.
func FromJSON(s *schema.MessageSchema, typeName string, data []byte) (value.Message, error) {
	t, err := s.ResolveType(util.When(typeName == "", s.Name, typeName))
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}
	return convertStruct(s, t, doc, "", 0)
}

func convertStruct(
	s *schema.MessageSchema,
	t *schema.MessageType,
	doc map[string]any,
	prefix string,
	depth int,
) (value.Message, error) {
	if depth > cdr.MaxDepth {
		return nil, schema.NewInvalidSchemaError("nesting of %s exceeds maximum depth %d", t.Name, cdr.MaxDepth)
	}
	for _, key := range util.Okeys(doc) {
		if _, ok := t.Field(key); !ok {
			return nil, UnknownFieldError{Type: t.Name, Field: key}
		}
	}
	msg := make(value.Message, len(t.Fields))
	for _, f := range t.Fields {
		raw, ok := doc[f.Name]
		if !ok {
			continue
		}
		path := util.When(prefix == "", f.Name, prefix+"."+f.Name)
		v, err := convertValue(s, f.Type, raw, path, depth)
		if err != nil {
			return nil, err
		}
		msg[f.Name] = v
	}
	return msg, nil
}

func jsonKind(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", raw)
	}
}

func convertValue(s *schema.MessageSchema, t schema.FieldType, raw any, path string, depth int) (value.Value, error) {
	mismatch := func() error {
		return ConversionError{Field: path, Expected: t.String(), Got: jsonKind(raw)}
	}
	if raw == nil {
		if t.IsPrimitive() {
			switch t.Primitive {
			case schema.FLOAT32:
				return value.Float32(float32(math.NaN())), nil
			case schema.FLOAT64:
				return value.Float64(math.NaN()), nil
			}
		}
		return value.Null(), nil
	}
	switch t.Kind() {
	case schema.NestedKind:
		doc, ok := raw.(map[string]any)
		if !ok {
			return value.Null(), mismatch()
		}
		nested, err := s.ResolveType(t.Nested)
		if err != nil {
			return value.Null(), err
		}
		msg, err := convertStruct(s, nested, doc, path, depth+1)
		if err != nil {
			return value.Null(), err
		}
		return value.Struct(msg), nil
	case schema.ArrayKind:
		if t.Items == nil {
			return value.Null(), schema.NewInvalidSchemaError("array field %s has no element type", path)
		}
		if str, ok := raw.(string); ok && t.Items.IsPrimitive() && t.Items.Primitive.Canonical() == schema.UINT8 {
			b, err := base64.StdEncoding.DecodeString(str)
			if err != nil {
				return value.Null(), mismatch()
			}
			return value.Bytes(b), nil
		}
		elems, ok := raw.([]any)
		if !ok {
			return value.Null(), mismatch()
		}
		items := make([]value.Value, len(elems))
		for i, elem := range elems {
			v, err := convertValue(s, *t.Items, elem, path+"["+strconv.Itoa(i)+"]", depth)
			if err != nil {
				return value.Null(), err
			}
			items[i] = v
		}
		return value.Array(items), nil
	default:
		v, ok := convertPrimitive(t.Primitive, raw)
		if !ok {
			return value.Null(), mismatch()
		}
		return v, nil
	}
}

func convertPrimitive(p schema.PrimitiveType, raw any) (value.Value, bool) {
	switch raw := raw.(type) {
	case bool:
		if p == schema.BOOL {
			return value.Bool(raw), true
		}
	case string:
		switch p {
		case schema.STRING, schema.WSTRING:
			return value.String(raw), true
		case schema.TIME:
			ts, err := iso8601.ParseString(raw)
			if err != nil {
				return value.Null(), false
			}
			return value.Timestamp(ts.UnixNano()), true
		case schema.DURATION:
			d, err := time.ParseDuration(raw)
			if err != nil {
				return value.Null(), false
			}
			return value.Duration(int64(d)), true
		}
	case json.Number:
		return convertNumber(p, raw.String())
	}
	return value.Null(), false
}

func convertNumber(p schema.PrimitiveType, n string) (value.Value, bool) {
	size, _ := p.Size()
	bits := size * 8
	switch p.Canonical() {
	case schema.INT8, schema.INT16, schema.INT32, schema.INT64:
		i, err := strconv.ParseInt(n, 10, bits)
		if err != nil {
			return value.Null(), false
		}
		switch bits {
		case 8:
			return value.Int8(int8(i)), true
		case 16:
			return value.Int16(int16(i)), true
		case 32:
			return value.Int32(int32(i)), true
		default:
			return value.Int64(i), true
		}
	case schema.UINT8, schema.UINT16, schema.UINT32, schema.UINT64:
		u, err := strconv.ParseUint(n, 10, bits)
		if err != nil {
			return value.Null(), false
		}
		switch bits {
		case 8:
			return value.Uint8(uint8(u)), true
		case 16:
			return value.Uint16(uint16(u)), true
		case 32:
			return value.Uint32(uint32(u)), true
		default:
			return value.Uint64(u), true
		}
	case schema.FLOAT32, schema.FLOAT64:
		f, err := strconv.ParseFloat(n, bits)
		if err != nil {
			return value.Null(), false
		}
		if bits == 32 {
			return value.Float32(float32(f)), true
		}
		return value.Float64(f), true
	case schema.TIME, schema.DURATION:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return value.Null(), false
		}
		return util.When(p == schema.TIME, value.Timestamp(i), value.Duration(i)), true
	default:
		return value.Null(), false
	}
}
