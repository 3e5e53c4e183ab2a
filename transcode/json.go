package transcode

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/wkalt/robocodec/cdr"
	"github.com/wkalt/robocodec/schema"
	"github.com/wkalt/robocodec/util"
	"github.com/wkalt/robocodec/value"
)

/*
Package transcode converts between decoded messages and JSON using the schema
for guidance.

Rendering walks the message type so that object keys come out in field order,
which value.Value's own MarshalJSON cannot do. Keys of the message that the
type does not declare are appended afterwards in sorted order.
*/

////////////////////////////////////////////////////////////////////////////////

// JSONTranscoder writes messages of one type as JSON, one document per call.
type JSONTranscoder struct {
	schema *schema.MessageSchema
	t      *schema.MessageType
	buf    []byte
}

// NewJSONTranscoder returns a transcoder for messages of typeName. An empty
// name selects the schema's root type.
func NewJSONTranscoder(s *schema.MessageSchema, typeName string) (*JSONTranscoder, error) {
	t, err := s.ResolveType(util.When(typeName == "", s.Name, typeName))
	if err != nil {
		return nil, err
	}
	return &JSONTranscoder{schema: s, t: t}, nil
}

// Transcode writes msg to w as a JSON object. The transcoder's buffer is
// reused between calls, so a transcoder is not safe for concurrent use.
func (t *JSONTranscoder) Transcode(w io.Writer, msg value.Message) error {
	buf, err := appendStruct(t.buf[:0], t.schema, t.t, msg, 0)
	if err != nil {
		return err
	}
	t.buf = buf
	_, err = w.Write(buf)
	return err
}

// ToJSON renders msg as a JSON object with keys in schema order.
func ToJSON(s *schema.MessageSchema, typeName string, msg value.Message) ([]byte, error) {
	t, err := s.ResolveType(util.When(typeName == "", s.Name, typeName))
	if err != nil {
		return nil, err
	}
	return appendStruct(nil, s, t, msg, 0)
}

func appendKey(buf []byte, key string) ([]byte, error) {
	data, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}
	return append(append(buf, data...), ':'), nil
}

func appendStruct(
	buf []byte,
	s *schema.MessageSchema,
	t *schema.MessageType,
	msg value.Message,
	depth int,
) ([]byte, error) {
	if depth > cdr.MaxDepth {
		return nil, schema.NewInvalidSchemaError("nesting of %s exceeds maximum depth %d", t.Name, cdr.MaxDepth)
	}
	var err error
	buf = append(buf, '{')
	n := 0
	for _, f := range t.Fields {
		v, ok := msg[f.Name]
		if !ok {
			continue
		}
		if n > 0 {
			buf = append(buf, ',')
		}
		n++
		if buf, err = appendKey(buf, f.Name); err != nil {
			return nil, err
		}
		if buf, err = appendValue(buf, s, f.Type, v, depth); err != nil {
			return nil, err
		}
	}
	for _, key := range util.Okeys(msg) {
		if _, ok := t.Field(key); ok {
			continue
		}
		if n > 0 {
			buf = append(buf, ',')
		}
		n++
		if buf, err = appendKey(buf, key); err != nil {
			return nil, err
		}
		if buf, err = msg[key].AppendJSON(buf); err != nil {
			return nil, err
		}
	}
	return append(buf, '}'), nil
}

func appendValue(buf []byte, s *schema.MessageSchema, t schema.FieldType, v value.Value, depth int) ([]byte, error) {
	switch t.Kind() {
	case schema.NestedKind:
		msg, ok := v.AsStruct()
		if !ok {
			break
		}
		nested, err := s.ResolveType(t.Nested)
		if err != nil {
			return nil, err
		}
		return appendStruct(buf, s, nested, msg, depth+1)
	case schema.ArrayKind:
		items, ok := v.AsArray()
		if !ok || t.Items == nil {
			break
		}
		var err error
		buf = append(buf, '[')
		for i, item := range items {
			if i > 0 {
				buf = append(buf, ',')
			}
			if buf, err = appendValue(buf, s, *t.Items, item, depth); err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	}
	return v.AppendJSON(buf)
}
