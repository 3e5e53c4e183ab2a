package value

import (
	"math"
	"strconv"
	"strings"

	"github.com/wkalt/robocodec/util"
)

// Get returns the named field. Absent fields are reported as not found.
func (m Message) Get(name string) (Value, bool) {
	v, ok := m[name]
	return v, ok
}

// SizeHint returns an approximate in-memory cost of the message in bytes.
func (m Message) SizeHint() int {
	size := 0
	for _, v := range m {
		size += v.SizeHint()
	}
	return size
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := make(Message, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

func (m Message) String() string {
	sb := &strings.Builder{}
	m.format(sb)
	return sb.String()
}

func (m Message) format(sb *strings.Builder) {
	sb.WriteString("{")
	for i, k := range util.Okeys(m) {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Quote(k))
		sb.WriteString(": ")
		m[k].format(sb)
	}
	sb.WriteString("}")
}

// SaturatingAdd returns a+b clamped to the int64 range.
func SaturatingAdd(a, b int64) int64 {
	c := a + b
	switch {
	case a > 0 && b > 0 && c < 0:
		return math.MaxInt64
	case a < 0 && b < 0 && c >= 0:
		return math.MinInt64
	default:
		return c
	}
}

// SaturatingSub returns a-b clamped to the int64 range.
func SaturatingSub(a, b int64) int64 {
	if b == math.MinInt64 {
		if a >= 0 {
			return math.MaxInt64
		}
		return a - b
	}
	return SaturatingAdd(a, -b)
}

// SaturatingMul returns a*b clamped to the int64 range.
func SaturatingMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	c := a * b
	if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		if (a < 0) != (b < 0) {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return c
}
