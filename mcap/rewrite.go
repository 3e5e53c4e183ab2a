package mcap

import (
	"context"
	"errors"
	"fmt"
	"io"

	fmcap "github.com/foxglove/mcap/go/mcap"
	"github.com/wkalt/robocodec/ros2msg"
	"github.com/wkalt/robocodec/util/log"
)

// RewriteOptions control Rewrite.
type RewriteOptions struct {
	// Topics selects the channels to keep by doublestar glob. An empty list
	// keeps every channel.
	Topics []string
	// TopicRenames maps exact topic names to their replacements.
	TopicRenames map[string]string
	// OldPackage and NewPackage rename a package in ROS2 schemas. The
	// rename is skipped when OldPackage is empty.
	OldPackage string
	NewPackage string
}

// Rewrite copies the MCAP file read from r to w, dropping channels that do
// not match the topic patterns, renaming topics and renaming a package in
// ROS2 schemas. Schema text is re-rendered from the renamed schema. Message
// payloads are copied unchanged since CDR carries no type names. A ROS2 schema
// that does not parse is copied unchanged.
func Rewrite(ctx context.Context, w io.Writer, r io.Reader, opts RewriteOptions, wopts ...WriterOption) (Stats, error) {
	stats := Stats{}
	filter := Filter{Topics: opts.Topics}
	if err := filter.Validate(); err != nil {
		return stats, err
	}
	it, err := messages(r)
	if err != nil {
		return stats, err
	}
	out, err := newOutput(w, wopts...)
	if err != nil {
		return stats, err
	}
	topics := newTopicMatcher(filter)
	schemas := make(map[uint16]*fmcap.Schema)
	channels := make(map[uint16]*fmcap.Channel)
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
		if !topics.match(c) {
			stats.Skipped++
			continue
		}
		var schema *fmcap.Schema
		if s != nil {
			var ok bool
			if schema, ok = schemas[s.ID]; !ok {
				schema = renameSchema(ctx, s, opts.OldPackage, opts.NewPackage)
				schemas[s.ID] = schema
			}
		}
		channel, ok := channels[c.ID]
		if !ok {
			channel = renameChannel(c, opts.TopicRenames)
			channels[c.ID] = channel
		}
		if err := out.write(schema, channel, m); err != nil {
			return stats, err
		}
		stats.Converted++
	}
	return stats, out.close()
}

func renameChannel(c *fmcap.Channel, renames map[string]string) *fmcap.Channel {
	renamed := *c
	if topic, ok := renames[c.Topic]; ok {
		renamed.Topic = topic
	}
	return &renamed
}

func renameSchema(ctx context.Context, s *fmcap.Schema, oldpkg, newpkg string) *fmcap.Schema {
	if oldpkg == "" || oldpkg == newpkg || s.Encoding != SchemaEncodingROS2 {
		return s
	}
	parsed, err := ros2msg.Parse(s.Name, s.Data)
	if err != nil {
		log.Warnw(ctx, "copying schema unchanged", "schema", s.Name, "error", err.Error())
		return s
	}
	renamed := parsed.RenamePackage(oldpkg, newpkg)
	text, err := ros2msg.Format(renamed)
	if err != nil {
		log.Warnw(ctx, "copying schema unchanged", "schema", s.Name, "error", err.Error())
		return s
	}
	return NewSchema(s.ID, renamed.Name, s.Encoding, []byte(text))
}
