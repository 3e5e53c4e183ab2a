package mcap

import (
	"context"
	"errors"
	"fmt"
	"io"

	fmcap "github.com/foxglove/mcap/go/mcap"
	"github.com/wkalt/robocodec/cdr"
	"github.com/wkalt/robocodec/util/log"
)

// Recode copies the MCAP file read from r to w, re-encoding the messages of
// CDR channels with ROS2 schemas into the given encapsulation kind. Messages on
// other channels, and messages that fail to decode, are copied unchanged. The
// Converted count in the returned stats is the number of re-encoded messages.
func Recode(
	ctx context.Context,
	w io.Writer,
	r io.Reader,
	kind cdr.EncapsulationKind,
	opts ...WriterOption,
) (Stats, error) {
	stats := Stats{}
	if !kind.Valid() {
		return stats, cdr.NewUnsupportedError("encapsulation kind 0x%02x", byte(kind))
	}
	it, err := messages(r)
	if err != nil {
		return stats, err
	}
	out, err := newOutput(w, opts...)
	if err != nil {
		return stats, err
	}
	cache := newSchemaCache(defaultSchemaCacheSize)
	encoder := cdr.NewEncoder(kind)
	buf := make([]byte, megabyte)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		s, c, m, err := it.Next(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return stats, fmt.Errorf("failed to read next message: %w", err)
		}
		stats.Messages++
		if recodable(s, c) {
			data, err := recodeMessage(cache, encoder, s, m.Data)
			if err != nil {
				log.Warnw(log.AddTags(ctx, "topic", c.Topic, "log_time", m.LogTime),
					"copying message unchanged", append([]any{"error", err.Error()}, cdr.LogFields(err)...)...)
				stats.Skipped++
			} else {
				m.Data = data
				stats.Converted++
			}
		}
		if err := out.write(s, c, m); err != nil {
			return stats, err
		}
	}
	return stats, out.close()
}

func recodable(s *fmcap.Schema, c *fmcap.Channel) bool {
	return s != nil && s.Encoding == SchemaEncodingROS2 && c.MessageEncoding == MessageEncodingCDR
}

func recodeMessage(cache *schemaCache, encoder *cdr.Encoder, s *fmcap.Schema, data []byte) ([]byte, error) {
	entry, _ := cache.get(s)
	if entry.err != nil {
		return nil, entry.err
	}
	msg, err := entry.decoder.Decode(entry.schema, data)
	if err != nil {
		return nil, err
	}
	return encoder.EncodeMessage(msg, entry.schema, "")
}
