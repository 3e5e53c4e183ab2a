package mcap

import (
	"bytes"
	"io"
	"strings"

	ros "github.com/foxglove/go-rosbag/ros1msg"
	fmcap "github.com/foxglove/mcap/go/mcap"
	"github.com/spaolacci/murmur3"
	"github.com/wkalt/robocodec/cdr"
	"github.com/wkalt/robocodec/ros2msg"
	"github.com/wkalt/robocodec/schema"
	"github.com/wkalt/robocodec/transcode"
	"github.com/wkalt/robocodec/util"
)

/*
The schema cache holds parsed schemas and their transcoders. Entries are keyed
by a murmur3 hash of the schema record's encoding, name and text rather than by
schema ID, so identical schemas repeated under different IDs share one entry.
A schema that fails to parse is cached too, with its error, so the failure is
reported once. Each ros2msg entry owns its decoder, so compiled plans are
released along with the entry when it is evicted.
*/

////////////////////////////////////////////////////////////////////////////////

const defaultSchemaCacheSize = 256

type compiledSchema struct {
	schema  *schema.MessageSchema
	decoder *cdr.Decoder
	json    *transcode.JSONTranscoder
	ros1    *ros.JSONTranscoder
	err     error
}

type schemaCache struct {
	entries *util.LRU[uint64, *compiledSchema]
	reader  *bytes.Reader
}

func newSchemaCache(size int) *schemaCache {
	return &schemaCache{
		entries: util.NewLRU[uint64, *compiledSchema](size),
		reader:  &bytes.Reader{},
	}
}

func schemaKey(s *fmcap.Schema) uint64 {
	h := murmur3.New64()
	_, _ = h.Write([]byte(s.Encoding))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(s.Name))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(s.Data)
	return h.Sum64()
}

// get returns the compiled form of s. The boolean reports whether the entry
// was created by this call.
func (c *schemaCache) get(s *fmcap.Schema) (*compiledSchema, bool) {
	key := schemaKey(s)
	if entry, ok := c.entries.Get(key); ok {
		return entry, false
	}
	entry := compile(s)
	c.entries.Put(key, entry)
	return entry, true
}

func compile(s *fmcap.Schema) *compiledSchema {
	switch s.Encoding {
	case SchemaEncodingROS1:
		packageName := strings.Split(s.Name, "/")[0]
		transcoder, err := ros.NewJSONTranscoder(packageName, s.Data)
		if err != nil {
			return &compiledSchema{err: schema.NewParseError("ros1 message definition "+s.Name, "unusable schema", err)}
		}
		return &compiledSchema{ros1: transcoder}
	case SchemaEncodingROS2:
		parsed, err := ros2msg.Parse(s.Name, s.Data)
		if err != nil {
			return &compiledSchema{err: err}
		}
		transcoder, err := transcode.NewJSONTranscoder(parsed, "")
		if err != nil {
			return &compiledSchema{err: err}
		}
		return &compiledSchema{schema: parsed, decoder: cdr.NewDecoder(), json: transcoder}
	default:
		return &compiledSchema{err: cdr.NewUnsupportedError("schema encoding %q", s.Encoding)}
	}
}

// transcode writes the JSON form of data to w.
func (c *schemaCache) transcode(w io.Writer, entry *compiledSchema, data []byte) error {
	if entry.err != nil {
		return entry.err
	}
	if entry.ros1 != nil {
		c.reader.Reset(data)
		return entry.ros1.Transcode(w, c.reader)
	}
	msg, err := entry.decoder.Decode(entry.schema, data)
	if err != nil {
		return err
	}
	return entry.json.Transcode(w, msg)
}
