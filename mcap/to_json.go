package mcap

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
	fmcap "github.com/foxglove/mcap/go/mcap"
	"github.com/goccy/go-json"
	"github.com/wkalt/robocodec/cdr"
	"github.com/wkalt/robocodec/util"
	"github.com/wkalt/robocodec/util/log"
)

/*
ToJSON writes the messages of an MCAP file as newline-delimited JSON objects:

	{"topic":"/imu","sequence":3,"log_time":1.000000100,"publish_time":1.000000100,"data":{...}}

Messages that cannot be decoded are skipped and logged with the structured
fields of the decode error. Read failures of the file itself are returned.
*/

////////////////////////////////////////////////////////////////////////////////

// Filter selects messages by topic and log time.
type Filter struct {
	// Topics are doublestar glob patterns. An empty list matches every topic.
	Topics []string
	// Start is the inclusive lower log time bound in nanoseconds.
	Start uint64
	// End is the exclusive upper log time bound in nanoseconds. Zero means
	// unbounded.
	End uint64
}

// Stats counts what a pass over a file did.
type Stats struct {
	Messages  int
	Converted int
	Skipped   int
}

// Validate checks that every topic pattern is a well-formed glob.
func (f Filter) Validate() error {
	for _, pattern := range f.Topics {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid topic pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}
	}
	if f.End != 0 && f.End < f.Start {
		return fmt.Errorf("end time %d precedes start time %d", f.End, f.Start)
	}
	return nil
}

func (f Filter) matchTopic(topic string) bool {
	if len(f.Topics) == 0 {
		return true
	}
	for _, pattern := range f.Topics {
		if ok, _ := doublestar.Match(pattern, topic); ok {
			return true
		}
	}
	return false
}

func (f Filter) matchTime(logTime uint64) bool {
	return logTime >= f.Start && (f.End == 0 || logTime < f.End)
}

// topicMatcher memoizes topic matches by channel ID.
type topicMatcher struct {
	filter  Filter
	matches map[uint16]bool
}

func newTopicMatcher(filter Filter) *topicMatcher {
	return &topicMatcher{filter: filter, matches: make(map[uint16]bool)}
}

func (m *topicMatcher) match(c *fmcap.Channel) bool {
	ok, seen := m.matches[c.ID]
	if !seen {
		ok = m.filter.matchTopic(c.Topic)
		m.matches[c.ID] = ok
	}
	return ok
}

func writeRecord(w io.Writer, buf []byte, c *fmcap.Channel, m *fmcap.Message, data []byte) ([]byte, error) {
	topic, err := json.Marshal(c.Topic)
	if err != nil {
		return buf, fmt.Errorf("failed to encode topic: %w", err)
	}
	buf = append(buf[:0], `{"topic":`...)
	buf = append(buf, topic...)
	buf = append(buf, `,"sequence":`...)
	buf = strconv.AppendUint(buf, uint64(m.Sequence), 10)
	buf = append(buf, `,"log_time":`...)
	buf = util.AppendDecimalTime(buf, m.LogTime)
	buf = append(buf, `,"publish_time":`...)
	buf = util.AppendDecimalTime(buf, m.PublishTime)
	buf = append(buf, `,"data":`...)
	buf = append(buf, data...)
	buf = append(buf, "}\n"...)
	if _, err := w.Write(buf); err != nil {
		return buf, fmt.Errorf("failed to write message: %w", err)
	}
	return buf, nil
}

// ToJSON writes the messages of the MCAP file read from r to w as JSON lines,
// in file order.
func ToJSON(ctx context.Context, w io.Writer, r io.Reader, filter Filter) (Stats, error) {
	stats := Stats{}
	if err := filter.Validate(); err != nil {
		return stats, err
	}
	it, err := messages(r)
	if err != nil {
		return stats, err
	}
	bw := bufio.NewWriter(w)
	cache := newSchemaCache(defaultSchemaCacheSize)
	topics := newTopicMatcher(filter)
	data := &bytes.Buffer{}
	var line []byte
	msgbuf := make([]byte, megabyte)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		s, c, m, err := it.Next(msgbuf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return stats, fmt.Errorf("failed to read next message: %w", err)
		}
		stats.Messages++
		if !topics.match(c) || !filter.matchTime(m.LogTime) {
			continue
		}
		data.Reset()
		if err := messageJSON(ctx, cache, data, s, c, m); err != nil {
			stats.Skipped++
			continue
		}
		if line, err = writeRecord(bw, line, c, m, data.Bytes()); err != nil {
			return stats, err
		}
		stats.Converted++
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("failed to flush output: %w", err)
	}
	return stats, nil
}

// messageJSON writes the JSON form of one message to w. Failures are logged
// before they are returned.
func messageJSON(
	ctx context.Context,
	cache *schemaCache,
	w *bytes.Buffer,
	s *fmcap.Schema,
	c *fmcap.Channel,
	m *fmcap.Message,
) error {
	ctx = log.AddTags(ctx, "topic", c.Topic, "log_time", m.LogTime)
	if s == nil || s.Encoding == "" {
		if c.MessageEncoding != MessageEncodingJSON {
			err := cdr.NewUnsupportedError("schemaless channel with message encoding %q", c.MessageEncoding)
			log.Warnw(ctx, "skipping message", cdr.LogFields(err)...)
			return err
		}
		_, _ = w.Write(m.Data)
		return nil
	}
	if s.Encoding == "jsonschema" {
		_, _ = w.Write(m.Data)
		return nil
	}
	entry, created := cache.get(s)
	if entry.err != nil {
		if created {
			log.Warnw(ctx, "skipping messages with unusable schema "+s.Name,
				append([]any{"error", entry.err.Error()}, cdr.LogFields(entry.err)...)...)
		}
		return entry.err
	}
	if err := cache.transcode(w, entry, m.Data); err != nil {
		log.Warnw(ctx, "skipping undecodable message",
			append([]any{"error", err.Error()}, cdr.LogFields(err)...)...)
		return err
	}
	return nil
}
