package cdr

import (
	"encoding/binary"
	"math"
)

/*
Cursor is a bounds-checked, alignment-aware reader over a CDR buffer.

Alignment padding is computed relative to an origin: the first byte after the
encapsulation header for standard buffers, or the first byte of the buffer for
headerless ones. Reads never align implicitly. Callers align explicitly, which
keeps the padding decisions in one place (the decode plan).

Three construction variants exist, each matching a source of message bytes:

  - NewCursor: the buffer starts with an encapsulation header, which selects the
    byte order and the 64-bit alignment.
  - NewHeaderlessCursor: the header has been stripped and the caller supplies
    the byte order.
  - NewROS1Cursor: the buffer carries a header whose byte order flag is not
    trustworthy. The payload is always little-endian, and primitive arrays are
    packed without block alignment.
*/

////////////////////////////////////////////////////////////////////////////////

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

const maxAlignment = 8

// Cursor reads values from a CDR buffer.
type Cursor struct {
	data     []byte
	pos      int
	origin   int
	order    byteOrder
	maxAlign int
	ros1     bool
}

func orderOf(littleEndian bool) byteOrder {
	if littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// NewCursor returns a cursor over a buffer that begins with an encapsulation
// header.
func NewCursor(data []byte) (*Cursor, error) {
	if len(data) < HeaderSize {
		return nil, NewBufferTooShortError(HeaderSize, len(data), 0)
	}
	kind := EncapsulationKind(data[1])
	if !kind.Valid() {
		return nil, NewUnsupportedError("encapsulation kind 0x%02x", data[1])
	}
	return &Cursor{
		data:     data,
		pos:      HeaderSize,
		origin:   HeaderSize,
		order:    orderOf(kind.IsLittleEndian()),
		maxAlign: kind.EightByteAlignment(),
	}, nil
}

// NewHeaderlessCursor returns a cursor over a buffer with no encapsulation
// header. Alignment is relative to the start of the buffer.
func NewHeaderlessCursor(data []byte, littleEndian bool) *Cursor {
	return &Cursor{
		data:     data,
		order:    orderOf(littleEndian),
		maxAlign: maxAlignment,
	}
}

// NewROS1Cursor returns a cursor over a buffer that begins with an
// encapsulation header whose byte order is ignored. The payload is read as
// little-endian in ROS1 mode.
func NewROS1Cursor(data []byte) (*Cursor, error) {
	if len(data) < HeaderSize {
		return nil, NewBufferTooShortError(HeaderSize, len(data), 0)
	}
	return &Cursor{
		data:     data,
		pos:      HeaderSize,
		origin:   HeaderSize,
		order:    binary.LittleEndian,
		maxAlign: maxAlignment,
		ros1:     true,
	}, nil
}

// Position returns the absolute read position.
func (c *Cursor) Position() int { return c.pos }

// Origin returns the position alignment is computed against.
func (c *Cursor) Origin() int { return c.origin }

// ResetOrigin makes the current position the alignment origin and returns the
// previous one. The decoder never calls it. It exists for callers that hand
// DecodeCursor a cursor positioned at a payload embedded in a larger buffer,
// where alignment is relative to the payload's start.
func (c *Cursor) ResetOrigin() int {
	prev := c.origin
	c.origin = c.pos
	return prev
}

// Len returns the total length of the buffer.
func (c *Cursor) Len() int { return len(c.data) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

// IsROS1 reports whether the cursor reads ROS1-origin data.
func (c *Cursor) IsROS1() bool { return c.ros1 }

// LittleEndian reports whether the cursor reads little-endian values.
func (c *Cursor) LittleEndian() bool { return c.order == binary.LittleEndian }

func checkAlignment(n int) error {
	if n <= 0 || n > maxAlignment || n&(n-1) != 0 {
		return AlignmentError{Expected: maxAlignment, Actual: n}
	}
	return nil
}

// Align advances the position to the next multiple of n past the origin. An
// alignment of 8 is capped at the encapsulation's 64-bit alignment.
func (c *Cursor) Align(n int) error {
	if err := checkAlignment(n); err != nil {
		return err
	}
	n = min(n, c.maxAlign)
	pad := (n - (c.pos-c.origin)%n) % n
	if pad == 0 {
		return nil
	}
	if pad > c.Remaining() {
		return NewBufferTooShortError(pad, c.Remaining(), c.pos)
	}
	c.pos += pad
	return nil
}

func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, NewBufferTooShortError(n, c.Remaining(), c.pos)
	}
	b := c.data[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadBytes returns the next n bytes. The returned slice aliases the buffer.
// ReadBytes returns the next n bytes without copying.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	return c.take(n)
}

// Skip advances the position by n bytes.
func (c *Cursor) Skip(n int) error {
	_, err := c.take(n)
	return err
}

// Uint8 through Float64 read one fixed-width value in the cursor's byte order
// at the current position. They do not align; callers align first.
func (c *Cursor) Uint8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) Int8() (int8, error) {
	v, err := c.Uint8()
	return int8(v), err
}

func (c *Cursor) Bool() (bool, error) {
	v, err := c.Uint8()
	return v != 0, err
}

func (c *Cursor) Uint16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(b), nil
}

func (c *Cursor) Int16() (int16, error) {
	v, err := c.Uint16()
	return int16(v), err
}

func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

func (c *Cursor) Int32() (int32, error) {
	v, err := c.Uint32()
	return int32(v), err
}

func (c *Cursor) Uint64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return c.order.Uint64(b), nil
}

func (c *Cursor) Int64() (int64, error) {
	v, err := c.Uint64()
	return int64(v), err
}

func (c *Cursor) Float32() (float32, error) {
	v, err := c.Uint32()
	return math.Float32frombits(v), err
}

func (c *Cursor) Float64() (float64, error) {
	v, err := c.Uint64()
	return math.Float64frombits(v), err
}
