package cdr_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"github.com/wkalt/robocodec/cdr"
	"github.com/wkalt/robocodec/util/testutils"
)

func TestNewCursor(t *testing.T) {
	cases := []struct {
		assertion    string
		data         []byte
		littleEndian bool
		err          error
	}{
		{"cdr le", testutils.Header(0x01), true, nil},
		{"cdr be", testutils.Header(0x00), false, nil},
		{"cdr2 le", testutils.Header(0x02), true, nil},
		{"cdr2 be", testutils.Header(0x03), false, nil},
		{"delimited cdr2 le", testutils.Header(0x08), true, nil},
		{"unknown kind", testutils.Header(0x0a), false, cdr.UnsupportedError{}},
		{"short header", []byte{0x00, 0x01}, false, cdr.BufferTooShortError{}},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			cursor, err := cdr.NewCursor(c.data)
			if c.err != nil {
				require.ErrorIs(t, err, c.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.littleEndian, cursor.LittleEndian())
			require.Equal(t, 4, cursor.Position())
			require.Equal(t, 4, cursor.Origin())
			require.False(t, cursor.IsROS1())
		})
	}
}

func TestROS1CursorIgnoresByteOrder(t *testing.T) {
	data := testutils.Flatten(testutils.Header(0x00), testutils.U32b(7))
	c, err := cdr.NewROS1Cursor(data)
	require.NoError(t, err)
	require.True(t, c.IsROS1())
	require.True(t, c.LittleEndian())
	v, err := c.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(7), v)
}

func TestCursorReads(t *testing.T) {
	data := testutils.Flatten(
		testutils.I8b(-2),
		testutils.Boolb(true),
		testutils.I16b(-300),
		testutils.F32b(1.25),
		testutils.I64b(-1),
		testutils.F64b(-0.5),
	)
	c := cdr.NewHeaderlessCursor(data, true)
	i8, err := c.Int8()
	require.NoError(t, err)
	require.Equal(t, int8(-2), i8)
	b, err := c.Bool()
	require.NoError(t, err)
	require.True(t, b)
	i16, err := c.Int16()
	require.NoError(t, err)
	require.Equal(t, int16(-300), i16)
	f32, err := c.Float32()
	require.NoError(t, err)
	require.Equal(t, float32(1.25), f32)
	i64, err := c.Int64()
	require.NoError(t, err)
	require.Equal(t, int64(-1), i64)
	f64, err := c.Float64()
	require.NoError(t, err)
	require.Equal(t, -0.5, f64)
	require.Equal(t, 0, c.Remaining())
}

func TestCursorBigEndian(t *testing.T) {
	data := testutils.Flatten(testutils.Header(0x00), []byte{0x00, 0x00, 0x01, 0x02})
	c, err := cdr.NewCursor(data)
	require.NoError(t, err)
	v, err := c.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(0x0102), v)
}

func TestCursorBufferTooShort(t *testing.T) {
	c := cdr.NewHeaderlessCursor([]byte{1, 2, 3}, true)
	require.NoError(t, c.Skip(1))
	_, err := c.Uint32()
	require.ErrorIs(t, err, cdr.BufferTooShortError{})
	require.Equal(t, cdr.BufferTooShortError{Requested: 4, Available: 2, Position: 1}, err)
	require.Equal(t, 1, c.Position())

	_, err = c.ReadBytes(3)
	require.ErrorIs(t, err, cdr.BufferTooShortError{})
	b, err := c.ReadBytes(2)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3}, b)
	require.ErrorIs(t, c.Skip(1), cdr.BufferTooShortError{})
}

func TestCursorAlign(t *testing.T) {
	cases := []struct {
		assertion string
		skip      int
		alignment int
		expected  int
	}{
		{"already aligned", 8, 8, 8},
		{"align 2", 1, 2, 2},
		{"align 4", 5, 4, 8},
		{"align 8", 9, 8, 16},
		{"align 1 is a no-op", 3, 1, 3},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			cursor := cdr.NewHeaderlessCursor(make([]byte, 32), true)
			require.NoError(t, cursor.Skip(c.skip))
			require.NoError(t, cursor.Align(c.alignment))
			require.Equal(t, c.expected, cursor.Position())
		})
	}

	t.Run("relative to header", func(t *testing.T) {
		cursor, err := cdr.NewCursor(testutils.Flatten(testutils.Header(0x01), testutils.Pad(16)))
		require.NoError(t, err)
		require.NoError(t, cursor.Skip(1))
		require.NoError(t, cursor.Align(8))
		require.Equal(t, 12, cursor.Position())
	})

	t.Run("cdr2 caps 64-bit alignment at 4", func(t *testing.T) {
		cursor, err := cdr.NewCursor(testutils.Flatten(testutils.Header(0x02), testutils.Pad(16)))
		require.NoError(t, err)
		require.NoError(t, cursor.Skip(1))
		require.NoError(t, cursor.Align(8))
		require.Equal(t, 8, cursor.Position())
	})

	t.Run("invalid alignment", func(t *testing.T) {
		cursor := cdr.NewHeaderlessCursor(make([]byte, 8), true)
		require.ErrorIs(t, cursor.Align(3), cdr.AlignmentError{})
		require.ErrorIs(t, cursor.Align(0), cdr.AlignmentError{})
		require.ErrorIs(t, cursor.Align(16), cdr.AlignmentError{})
	})

	t.Run("padding past the end", func(t *testing.T) {
		cursor := cdr.NewHeaderlessCursor(make([]byte, 6), true)
		require.NoError(t, cursor.Skip(5))
		require.ErrorIs(t, cursor.Align(4), cdr.BufferTooShortError{})
	})
}

func TestAlignmentInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	alignments := []int{1, 2, 4, 8}

	properties.Property("cursor align lands on the next boundary past the origin", prop.ForAll(
		func(origin int, offset int, idx int) bool {
			n := alignments[idx]
			c := cdr.NewHeaderlessCursor(make([]byte, 128), true)
			if c.Skip(origin) != nil {
				return false
			}
			c.ResetOrigin()
			if c.Skip(offset) != nil {
				return false
			}
			before := c.Position()
			if c.Align(n) != nil {
				return false
			}
			after := c.Position()
			return (after-origin)%n == 0 && after >= before && after-before < n
		},
		gen.IntRange(0, 40),
		gen.IntRange(0, 40),
		gen.IntRange(0, 3),
	))

	properties.Property("writer align lands on the next boundary past the origin", prop.ForAll(
		func(origin int, offset int, idx int) bool {
			n := alignments[idx]
			w := cdr.NewWriter(cdr.CDRLittleEndian)
			w.PutBytes(make([]byte, origin))
			start := w.ResetOrigin()
			w.PutBytes(make([]byte, offset))
			before := w.Len()
			if w.Align(n) != nil {
				return false
			}
			after := w.Len()
			w.SetOrigin(start)
			return (after-(origin+cdr.HeaderSize))%n == 0 && after >= before && after-before < n &&
				w.Origin() == cdr.HeaderSize
		},
		gen.IntRange(0, 40),
		gen.IntRange(0, 40),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}

func TestWriter(t *testing.T) {
	w := cdr.NewWriter(cdr.CDRLittleEndian)
	w.PutUint8(1)
	require.NoError(t, w.Align(4))
	w.PutInt32(-1)
	w.PutString("hi")
	require.Equal(t, testutils.Flatten(
		testutils.Header(0x01),
		testutils.U8b(1), testutils.Pad(3),
		testutils.I32b(-1),
		testutils.CDRString("hi"),
	), w.Bytes())

	be := cdr.NewWriter(cdr.CDR2BigEndian)
	be.PutUint16(0x0102)
	require.Equal(t, 4, be.EightByteAlignment())
	require.Equal(t, []byte{0x00, 0x03, 0x00, 0x00, 0x01, 0x02}, be.Bytes())
}

func TestEncapsulationKind(t *testing.T) {
	cases := []struct {
		kind         cdr.EncapsulationKind
		cdr2         bool
		littleEndian bool
	}{
		{cdr.CDRBigEndian, false, false},
		{cdr.CDRLittleEndian, false, true},
		{cdr.CDR2LittleEndian, true, true},
		{cdr.CDR2BigEndian, true, false},
		{cdr.PLCDRLittleEndian, false, true},
		{cdr.PLCDRBigEndian, false, false},
		{cdr.PLCDR2LittleEndian, true, true},
		{cdr.PLCDR2BigEndian, true, false},
		{cdr.DelimitedCDR2LittleEndian, true, true},
		{cdr.DelimitedCDR2BigEndian, true, false},
	}
	for _, c := range cases {
		t.Run(c.kind.String(), func(t *testing.T) {
			require.Equal(t, c.cdr2, c.kind.IsCDR2())
			require.Equal(t, c.littleEndian, c.kind.IsLittleEndian())
			parsed, err := cdr.ParseEncapsulationKind(c.kind.String())
			require.NoError(t, err)
			require.Equal(t, c.kind, parsed)
		})
	}
	_, err := cdr.ParseEncapsulationKind("xcdr3")
	require.ErrorIs(t, err, cdr.UnsupportedError{})
}
