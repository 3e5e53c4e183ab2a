package mcap

import (
	"fmt"
	"io"

	fmcap "github.com/foxglove/mcap/go/mcap"
)

/*
output writes messages to a new MCAP file, emitting each schema and channel
record the first time a message refers to it. The header is written lazily so
that an input without messages still produces a valid empty file on close.
*/

////////////////////////////////////////////////////////////////////////////////

type output struct {
	w        *fmcap.Writer
	schemas  map[uint16]bool
	channels map[uint16]bool
}

func newOutput(w io.Writer, opts ...WriterOption) (*output, error) {
	writer, err := NewWriter(w, opts...)
	if err != nil {
		return nil, err
	}
	if err := writer.WriteHeader(&fmcap.Header{Library: "robocodec"}); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return &output{
		w:        writer,
		schemas:  make(map[uint16]bool),
		channels: make(map[uint16]bool),
	}, nil
}

func (o *output) write(s *fmcap.Schema, c *fmcap.Channel, m *fmcap.Message) error {
	if s != nil && !o.schemas[s.ID] {
		if err := o.w.WriteSchema(s); err != nil {
			return fmt.Errorf("failed to write schema: %w", err)
		}
		o.schemas[s.ID] = true
	}
	if !o.channels[c.ID] {
		if err := o.w.WriteChannel(c); err != nil {
			return fmt.Errorf("failed to write channel: %w", err)
		}
		o.channels[c.ID] = true
	}
	if err := o.w.WriteMessage(m); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

func (o *output) close() error {
	if err := o.w.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return nil
}
