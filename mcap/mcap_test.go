package mcap_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	fmcap "github.com/foxglove/mcap/go/mcap"
	"github.com/stretchr/testify/require"
	"github.com/wkalt/robocodec/cdr"
	"github.com/wkalt/robocodec/mcap"
	"github.com/wkalt/robocodec/ros2msg"
	"github.com/wkalt/robocodec/schema"
	"github.com/wkalt/robocodec/util/log"
	"github.com/wkalt/robocodec/util/testutils"
	"github.com/wkalt/robocodec/value"
)

const pointDefinition = "float64 x\nfloat64 y\n"

type record struct {
	schema  *fmcap.Schema
	channel *fmcap.Channel
	logTime uint64
	data    []byte
}

type readRecord struct {
	schemaName string
	schemaData string
	topic      string
	encoding   string
	logTime    uint64
	data       []byte
}

func pointSchema() *fmcap.Schema {
	return mcap.NewSchema(1, "test_msgs/msg/Point", mcap.SchemaEncodingROS2, []byte(pointDefinition))
}

func pointChannel(id uint16, topic string) *fmcap.Channel {
	return mcap.NewChannel(id, 1, topic, mcap.MessageEncodingCDR, nil)
}

func jsonChannel(id uint16, topic string) *fmcap.Channel {
	return mcap.NewChannel(id, 0, topic, mcap.MessageEncodingJSON, nil)
}

func parsedPoint(t *testing.T) *schema.MessageSchema {
	t.Helper()
	s, err := ros2msg.Parse("test_msgs/msg/Point", []byte(pointDefinition))
	require.NoError(t, err)
	return s
}

func encodePoint(t *testing.T, x, y float64) []byte {
	t.Helper()
	data, err := cdr.EncodeMessage(value.Message{
		"x": value.Float64(x),
		"y": value.Float64(y),
	}, parsedPoint(t), "")
	require.NoError(t, err)
	return data
}

func writeFile(t *testing.T, records ...record) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	writer, err := mcap.NewWriter(buf)
	require.NoError(t, err)
	require.NoError(t, writer.WriteHeader(&fmcap.Header{}))
	schemas := map[uint16]bool{}
	channels := map[uint16]bool{}
	for i, r := range records {
		if r.schema != nil && !schemas[r.schema.ID] {
			require.NoError(t, writer.WriteSchema(r.schema))
			schemas[r.schema.ID] = true
		}
		if !channels[r.channel.ID] {
			require.NoError(t, writer.WriteChannel(r.channel))
			channels[r.channel.ID] = true
		}
		require.NoError(t, writer.WriteMessage(&fmcap.Message{
			ChannelID:   r.channel.ID,
			Sequence:    uint32(i + 1),
			LogTime:     r.logTime,
			PublishTime: r.logTime,
			Data:        r.data,
		}))
	}
	require.NoError(t, writer.Close())
	return buf
}

func readFile(t *testing.T, r io.Reader) []readRecord {
	t.Helper()
	reader, err := mcap.NewReader(r)
	require.NoError(t, err)
	it, err := reader.Messages(fmcap.UsingIndex(false), fmcap.InOrder(fmcap.FileOrder))
	require.NoError(t, err)
	var records []readRecord
	for {
		s, c, m, err := it.Next(nil)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		rec := readRecord{
			topic:    c.Topic,
			encoding: c.MessageEncoding,
			logTime:  m.LogTime,
			data:     append([]byte{}, m.Data...),
		}
		if s != nil {
			rec.schemaName = s.Name
			rec.schemaData = string(s.Data)
		}
		records = append(records, rec)
	}
	return records
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })
	buf := &bytes.Buffer{}
	log.Setup(buf, false)
	return buf
}

func TestWriterRoundTrip(t *testing.T) {
	input := writeFile(t,
		record{pointSchema(), pointChannel(1, "/points"), 10, encodePoint(t, 1, 2)},
		record{nil, jsonChannel(2, "/raw"), 20, []byte(`{"a":1}`)},
	)
	records := readFile(t, input)
	require.Len(t, records, 2)
	require.Equal(t, "test_msgs/msg/Point", records[0].schemaName)
	require.Equal(t, "/points", records[0].topic)
	require.Equal(t, uint64(10), records[0].logTime)
	require.Equal(t, "", records[1].schemaName)
	require.Equal(t, `{"a":1}`, string(records[1].data))
}

func TestToJSON(t *testing.T) {
	ros1Schema := mcap.NewSchema(2, "std_msgs/String", mcap.SchemaEncodingROS1, []byte("string data\n"))
	ros1Channel := mcap.NewChannel(3, 2, "/chatter", mcap.MessageEncodingROS1, nil)
	input := writeFile(t,
		record{pointSchema(), pointChannel(1, "/points"), 100, encodePoint(t, 1, 2.5)},
		record{nil, jsonChannel(2, "/raw"), 1e9 + 5, []byte(`{"a":1}`)},
		record{ros1Schema, ros1Channel, 2e9, testutils.Flatten(testutils.U32b(5), []byte("hello"))},
	)
	output := &bytes.Buffer{}
	stats, err := mcap.ToJSON(context.Background(), output, input, mcap.Filter{})
	require.NoError(t, err)
	require.Equal(t, mcap.Stats{Messages: 3, Converted: 3}, stats)

	lines := strings.Split(strings.TrimSuffix(output.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, `{"topic":"/points","sequence":1,"log_time":0.000000100,"publish_time":0.000000100,`+
		`"data":{"x":1,"y":2.5}}`, lines[0])
	require.Equal(t, `{"topic":"/raw","sequence":2,"log_time":1.000000005,"publish_time":1.000000005,`+
		`"data":{"a":1}}`, lines[1])
	require.JSONEq(t, `{"topic":"/chatter","sequence":3,"log_time":2.0,"publish_time":2.0,`+
		`"data":{"data":"hello"}}`, lines[2])
}

func TestToJSONSchemasSharingAName(t *testing.T) {
	labelDefinition := "string label\n"
	labelSchema := mcap.NewSchema(5, "test_msgs/msg/Point", mcap.SchemaEncodingROS2, []byte(labelDefinition))
	parsed, err := ros2msg.Parse("test_msgs/msg/Point", []byte(labelDefinition))
	require.NoError(t, err)
	label, err := cdr.EncodeMessage(value.Message{"label": value.String("hello")}, parsed, "")
	require.NoError(t, err)

	input := writeFile(t,
		record{pointSchema(), pointChannel(1, "/points"), 100, encodePoint(t, 1, 2)},
		record{labelSchema, mcap.NewChannel(2, 5, "/labels", mcap.MessageEncodingCDR, nil), 200, label},
		record{pointSchema(), pointChannel(1, "/points"), 300, encodePoint(t, 3, 4)},
	)
	output := &bytes.Buffer{}
	stats, err := mcap.ToJSON(context.Background(), output, input, mcap.Filter{})
	require.NoError(t, err)
	require.Equal(t, mcap.Stats{Messages: 3, Converted: 3}, stats)

	lines := strings.Split(strings.TrimSuffix(output.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], `"data":{"x":1,"y":2}`)
	require.Contains(t, lines[1], `"data":{"label":"hello"}`)
	require.Contains(t, lines[2], `"data":{"x":3,"y":4}`)
}

func TestToJSONFilter(t *testing.T) {
	input := func() *bytes.Buffer {
		return writeFile(t,
			record{pointSchema(), pointChannel(1, "/points/a"), 100, encodePoint(t, 1, 1)},
			record{pointSchema(), pointChannel(2, "/other"), 200, encodePoint(t, 2, 2)},
			record{pointSchema(), pointChannel(1, "/points/a"), 200, encodePoint(t, 3, 3)},
			record{pointSchema(), pointChannel(1, "/points/a"), 300, encodePoint(t, 4, 4)},
		)
	}
	cases := []struct {
		assertion string
		filter    mcap.Filter
		expected  []string
	}{
		{
			"no filter",
			mcap.Filter{},
			[]string{`"x":1`, `"x":2`, `"x":3`, `"x":4`},
		},
		{
			"topic glob",
			mcap.Filter{Topics: []string{"/points/*"}},
			[]string{`"x":1`, `"x":3`, `"x":4`},
		},
		{
			"double star glob",
			mcap.Filter{Topics: []string{"/**"}},
			[]string{`"x":1`, `"x":2`, `"x":3`, `"x":4`},
		},
		{
			"several patterns",
			mcap.Filter{Topics: []string{"/nothing", "/oth*"}},
			[]string{`"x":2`},
		},
		{
			"start is inclusive and end exclusive",
			mcap.Filter{Start: 200, End: 300},
			[]string{`"x":2`, `"x":3`},
		},
		{
			"topic and time",
			mcap.Filter{Topics: []string{"/points/a"}, Start: 150},
			[]string{`"x":3`, `"x":4`},
		},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			output := &bytes.Buffer{}
			stats, err := mcap.ToJSON(context.Background(), output, input(), c.filter)
			require.NoError(t, err)
			require.Equal(t, 4, stats.Messages)
			require.Equal(t, len(c.expected), stats.Converted)
			lines := strings.Split(strings.TrimSuffix(output.String(), "\n"), "\n")
			require.Len(t, lines, len(c.expected))
			for i, line := range lines {
				require.Contains(t, line, c.expected[i])
			}
		})
	}
}

func TestFilterValidate(t *testing.T) {
	require.NoError(t, mcap.Filter{Topics: []string{"/a/**", "/b/{c,d}"}}.Validate())

	err := mcap.Filter{Topics: []string{"/a/["}}.Validate()
	require.Error(t, err)

	err = mcap.Filter{Start: 10, End: 5}.Validate()
	require.ErrorContains(t, err, "end time 5 precedes start time 10")

	_, err = mcap.ToJSON(context.Background(), io.Discard, bytes.NewReader(nil), mcap.Filter{Topics: []string{"["}})
	require.Error(t, err)
}

func TestToJSONSkipsUndecodable(t *testing.T) {
	logs := captureLogs(t)
	badSchema := mcap.NewSchema(2, "test_msgs/msg/Bad", mcap.SchemaEncodingROS2, []byte("float64 [\n"))
	input := writeFile(t,
		record{pointSchema(), pointChannel(1, "/points"), 100, testutils.Flatten(testutils.Header(0x01), testutils.U16b(1))},
		record{badSchema, mcap.NewChannel(2, 2, "/bad", mcap.MessageEncodingCDR, nil), 200, []byte{0, 1, 0, 0}},
		record{badSchema, mcap.NewChannel(2, 2, "/bad", mcap.MessageEncodingCDR, nil), 300, []byte{0, 1, 0, 0}},
		record{nil, mcap.NewChannel(3, 0, "/cbor", "cbor", nil), 400, []byte{0xa0}},
		record{pointSchema(), pointChannel(1, "/points"), 500, encodePoint(t, 7, 8)},
	)
	output := &bytes.Buffer{}
	stats, err := mcap.ToJSON(context.Background(), output, input, mcap.Filter{})
	require.NoError(t, err)
	require.Equal(t, mcap.Stats{Messages: 5, Converted: 1, Skipped: 4}, stats)
	require.Contains(t, output.String(), `"data":{"x":7,"y":8}`)
	require.Equal(t, 1, strings.Count(output.String(), "\n"))

	out := logs.String()
	require.Contains(t, out, `msg="skipping undecodable message"`)
	require.Contains(t, out, "field=x")
	require.Contains(t, out, "error_kind=buffer_too_short")
	require.Contains(t, out, "topic=/points")
	require.Equal(t, 1, strings.Count(out, "unusable schema"))
	require.Contains(t, out, "error_kind=unsupported")
}

func TestToJSONCanceled(t *testing.T) {
	input := writeFile(t, record{pointSchema(), pointChannel(1, "/points"), 100, encodePoint(t, 1, 2)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mcap.ToJSON(ctx, io.Discard, input, mcap.Filter{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRecode(t *testing.T) {
	logs := captureLogs(t)
	truncated := testutils.Flatten(testutils.Header(0x01), testutils.U16b(1))
	input := writeFile(t,
		record{pointSchema(), pointChannel(1, "/points"), 100, encodePoint(t, 1.5, -2)},
		record{nil, jsonChannel(2, "/raw"), 200, []byte(`{"a":1}`)},
		record{pointSchema(), pointChannel(1, "/points"), 300, truncated},
	)
	output := &bytes.Buffer{}
	stats, err := mcap.Recode(context.Background(), output, input, cdr.CDRBigEndian)
	require.NoError(t, err)
	require.Equal(t, mcap.Stats{Messages: 3, Converted: 1, Skipped: 1}, stats)
	require.Contains(t, logs.String(), "copying message unchanged")

	records := readFile(t, output)
	require.Len(t, records, 3)
	require.Equal(t, []byte{0, 0, 0, 0}, records[0].data[:4])
	msg, err := cdr.Decode(parsedPoint(t), records[0].data)
	require.NoError(t, err)
	require.Equal(t, value.Message{"x": value.Float64(1.5), "y": value.Float64(-2)}, msg)
	require.Equal(t, pointDefinition, records[0].schemaData)

	require.Equal(t, `{"a":1}`, string(records[1].data))
	require.Equal(t, truncated, records[2].data)
}

func TestRecodeInvalidKind(t *testing.T) {
	input := writeFile(t)
	_, err := mcap.Recode(context.Background(), io.Discard, input, cdr.EncapsulationKind(0x42))
	require.ErrorIs(t, err, cdr.UnsupportedError{})
}

func TestRecodeEmptyFile(t *testing.T) {
	output := &bytes.Buffer{}
	stats, err := mcap.Recode(context.Background(), output, writeFile(t), cdr.CDR2LittleEndian)
	require.NoError(t, err)
	require.Equal(t, mcap.Stats{}, stats)
	require.Empty(t, readFile(t, output))
}

func TestRewrite(t *testing.T) {
	lineDefinition := "Point a\nPoint b\n" +
		"================================================================================\n" +
		"MSG: test_msgs/msg/Point\n" + pointDefinition
	lineSchema := mcap.NewSchema(2, "test_msgs/msg/Line", mcap.SchemaEncodingROS2, []byte(lineDefinition))
	lineData := testutils.Flatten(testutils.Header(0x01), testutils.F64b(1), testutils.F64b(2),
		testutils.F64b(3), testutils.F64b(4))
	input := func() *bytes.Buffer {
		return writeFile(t,
			record{pointSchema(), pointChannel(1, "/points"), 100, encodePoint(t, 1, 2)},
			record{nil, jsonChannel(2, "/raw"), 200, []byte(`{"a":1}`)},
			record{lineSchema, mcap.NewChannel(3, 2, "/lines", mcap.MessageEncodingCDR, nil), 300, lineData},
		)
	}

	t.Run("topic filter and rename", func(t *testing.T) {
		output := &bytes.Buffer{}
		stats, err := mcap.Rewrite(context.Background(), output, input(), mcap.RewriteOptions{
			Topics:       []string{"/points", "/lines"},
			TopicRenames: map[string]string{"/points": "/pts"},
		})
		require.NoError(t, err)
		require.Equal(t, mcap.Stats{Messages: 3, Converted: 2, Skipped: 1}, stats)
		records := readFile(t, output)
		require.Len(t, records, 2)
		require.Equal(t, "/pts", records[0].topic)
		require.Equal(t, "/lines", records[1].topic)
		require.Equal(t, "test_msgs/msg/Point", records[0].schemaName)
		require.Equal(t, pointDefinition, records[0].schemaData)
	})

	t.Run("package rename", func(t *testing.T) {
		output := &bytes.Buffer{}
		stats, err := mcap.Rewrite(context.Background(), output, input(), mcap.RewriteOptions{
			OldPackage: "test_msgs",
			NewPackage: "demo_msgs",
		})
		require.NoError(t, err)
		require.Equal(t, 3, stats.Converted)
		records := readFile(t, output)
		require.Len(t, records, 3)

		require.Equal(t, "demo_msgs/msg/Point", records[0].schemaName)
		require.Equal(t, pointDefinition, records[0].schemaData)
		require.Equal(t, encodePoint(t, 1, 2), records[0].data)

		require.Equal(t, "", records[1].schemaName)

		require.Equal(t, "demo_msgs/msg/Line", records[2].schemaName)
		require.Equal(t, lineData, records[2].data)
		require.NotContains(t, records[2].schemaData, "test_msgs")
		renamed, err := ros2msg.Parse(records[2].schemaName, []byte(records[2].schemaData))
		require.NoError(t, err)
		msg, err := cdr.Decode(renamed, records[2].data)
		require.NoError(t, err)
		a, ok := msg["a"].AsStruct()
		require.True(t, ok)
		require.Equal(t, value.Float64(1), a["x"])
	})

	t.Run("unparseable schema is copied", func(t *testing.T) {
		logs := captureLogs(t)
		bad := mcap.NewSchema(4, "test_msgs/msg/Bad", mcap.SchemaEncodingROS2, []byte("float64 [\n"))
		output := &bytes.Buffer{}
		_, err := mcap.Rewrite(context.Background(), output, writeFile(t,
			record{bad, mcap.NewChannel(1, 4, "/bad", mcap.MessageEncodingCDR, nil), 1, []byte{0, 1, 0, 0}},
		), mcap.RewriteOptions{OldPackage: "test_msgs", NewPackage: "demo_msgs"})
		require.NoError(t, err)
		records := readFile(t, output)
		require.Len(t, records, 1)
		require.Equal(t, "test_msgs/msg/Bad", records[0].schemaName)
		require.Contains(t, logs.String(), "copying schema unchanged")
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := mcap.Rewrite(context.Background(), io.Discard, input(), mcap.RewriteOptions{Topics: []string{"["}})
		require.Error(t, err)
	})
}
