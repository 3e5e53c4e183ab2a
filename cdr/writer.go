package cdr

import (
	"math"
)

// Writer is the encoding counterpart of Cursor: a growable buffer with the
// same origin-relative alignment rules. Unlike the decoder, the encoder moves
// the origin to the start of each nested struct with ResetOrigin.
type Writer struct {
	buf      []byte
	origin   int
	order    byteOrder
	maxAlign int
}

// NewWriter returns a writer that has already written the encapsulation
// header for kind.
func NewWriter(kind EncapsulationKind) *Writer {
	header := kind.Header()
	buf := make([]byte, 0, 256)
	return &Writer{
		buf:      append(buf, header[:]...),
		origin:   HeaderSize,
		order:    orderOf(kind.IsLittleEndian()),
		maxAlign: kind.EightByteAlignment(),
	}
}

// Len returns the number of bytes written, including the header.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte { return w.buf }

// Origin returns the position alignment is computed against.
func (w *Writer) Origin() int { return w.origin }

// ResetOrigin makes the current position the alignment origin and returns the
// previous one, for restoring with SetOrigin.
func (w *Writer) ResetOrigin() int {
	prev := w.origin
	w.origin = len(w.buf)
	return prev
}

// SetOrigin restores an origin returned by ResetOrigin.
func (w *Writer) SetOrigin(origin int) { w.origin = origin }

// EightByteAlignment returns the alignment used for 64-bit values.
func (w *Writer) EightByteAlignment() int { return w.maxAlign }

// Align pads with zeros to the next multiple of n past the origin.
func (w *Writer) Align(n int) error {
	if err := checkAlignment(n); err != nil {
		return err
	}
	n = min(n, w.maxAlign)
	for (len(w.buf)-w.origin)%n != 0 {
		w.buf = append(w.buf, 0)
	}
	return nil
}

// PutBytes through PutBool append one value in the writer's byte order
// without aligning.
func (w *Writer) PutBytes(b []byte) { w.buf = append(w.buf, b...) }
func (w *Writer) PutUint8(v uint8) { w.buf = append(w.buf, v) }
func (w *Writer) PutInt8(v int8) { w.PutUint8(uint8(v)) }
func (w *Writer) PutUint16(v uint16) { w.buf = w.order.AppendUint16(w.buf, v) }
func (w *Writer) PutInt16(v int16) { w.PutUint16(uint16(v)) }
func (w *Writer) PutUint32(v uint32) { w.buf = w.order.AppendUint32(w.buf, v) }
func (w *Writer) PutInt32(v int32) { w.PutUint32(uint32(v)) }
func (w *Writer) PutUint64(v uint64) { w.buf = w.order.AppendUint64(w.buf, v) }
func (w *Writer) PutInt64(v int64) { w.PutUint64(uint64(v)) }
func (w *Writer) PutFloat32(v float32) { w.PutUint32(math.Float32bits(v)) }
func (w *Writer) PutFloat64(v float64) { w.PutUint64(math.Float64bits(v)) }

func (w *Writer) PutBool(v bool) {
	if v {
		w.PutUint8(1)
		return
	}
	w.PutUint8(0)
}

// PutString writes a length-prefixed, NUL-terminated string. The length
// counts the terminator. The prefix is not aligned.
func (w *Writer) PutString(s string) {
	w.PutUint32(uint32(len(s) + 1))
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}
