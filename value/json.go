package value

import (
	"encoding/base64"
	"math"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/wkalt/robocodec/util"
)

/*
JSON rendering of values. Byte sequences are base64 encoded, timestamps and
durations are rendered as integer nanoseconds and non-finite floats as null.
Struct keys come out sorted; schema-ordered output is provided by the
transcode package.
*/

////////////////////////////////////////////////////////////////////////////////

// MarshalJSON returns the JSON representation of the value.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.AppendJSON(nil)
}

// AppendJSON appends the JSON representation of the value to buf.
func (v Value) AppendJSON(buf []byte) ([]byte, error) {
	switch v.kind {
	case NullKind:
		return append(buf, "null"...), nil
	case BoolKind:
		return strconv.AppendBool(buf, v.bits != 0), nil
	case Int8Kind, Int16Kind, Int32Kind, Int64Kind, TimestampKind, DurationKind:
		return strconv.AppendInt(buf, int64(v.bits), 10), nil
	case Uint8Kind, Uint16Kind, Uint32Kind, Uint64Kind:
		return strconv.AppendUint(buf, v.bits, 10), nil
	case Float32Kind, Float64Kind:
		f, _ := v.AsFloat64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return append(buf, "null"...), nil
		}
		return strconv.AppendFloat(buf, f, 'f', -1, util.When(v.kind == Float32Kind, 32, 64)), nil
	case StringKind:
		s, _ := v.AsString()
		data, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		return append(buf, data...), nil
	case BytesKind:
		b, _ := v.AsBytes()
		buf = append(buf, '"')
		buf = base64.StdEncoding.AppendEncode(buf, b)
		return append(buf, '"'), nil
	case ArrayKind:
		items, _ := v.AsArray()
		buf = append(buf, '[')
		var err error
		for i, item := range items {
			if i > 0 {
				buf = append(buf, ',')
			}
			if buf, err = item.AppendJSON(buf); err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case StructKind:
		m, _ := v.AsStruct()
		data, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		return append(buf, data...), nil
	default:
		return append(buf, "null"...), nil
	}
}
