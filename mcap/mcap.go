package mcap

import (
	"fmt"
	"io"

	"github.com/foxglove/mcap/go/mcap"
)

/*
Package mcap adapts MCAP files to the CDR codec. It exports messages as JSON,
re-encodes CDR channels into another encapsulation kind and rewrites topics and
package names.
*/

////////////////////////////////////////////////////////////////////////////////

const megabyte = 1 << 20

// Schema and message encodings recognized by the adapter.
const (
	SchemaEncodingROS1  = "ros1msg"
	SchemaEncodingROS2  = "ros2msg"
	MessageEncodingCDR  = "cdr"
	MessageEncodingROS1 = "ros1"
	MessageEncodingJSON = "json"
)

// WriterOption configures writers built with NewWriter.
type WriterOption func(*mcap.WriterOptions)

// WithCompression sets the chunk compression format.
func WithCompression(compression mcap.CompressionFormat) WriterOption {
	return func(o *mcap.WriterOptions) {
		o.Compression = compression
	}
}

// WithChunkSize sets the target chunk size in bytes.
func WithChunkSize(size int64) WriterOption {
	return func(o *mcap.WriterOptions) {
		o.ChunkSize = size
	}
}

// NewWriter returns a writer for files produced by Recode and Rewrite. Output
// is chunked into 4MB zstd chunks with CRCs, and an index is written on Close
// so the results can be read by indexed tools. Options override the chunk
// size and compression.
func NewWriter(w io.Writer, options ...WriterOption) (*mcap.Writer, error) {
	opts := &mcap.WriterOptions{
		IncludeCRC:  true,
		Chunked:     true,
		ChunkSize:   4 * megabyte,
		Compression: "zstd",
	}
	for _, opt := range options {
		opt(opts)
	}
	writer, err := mcap.NewWriter(w, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build writer: %w", err)
	}
	return writer, nil
}

// NewReader returns a reader over r. The adapter's own passes read through it
// in file order with the index ignored, so streamed and unindexed files are
// accepted.
func NewReader(r io.Reader) (*mcap.Reader, error) {
	reader, err := mcap.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to build reader: %w", err)
	}
	return reader, nil
}

// NewSchema returns a schema record. Encoding is one of the SchemaEncoding
// constants for schemas the codec can decode; other encodings pass through
// ToJSON only when their messages are JSON.
func NewSchema(id uint16, name string, encoding string, data []byte) *mcap.Schema {
	return &mcap.Schema{
		ID:       id,
		Name:     name,
		Encoding: encoding,
		Data:     data,
	}
}

// NewChannel returns a channel record. A schema ID of zero marks a
// schemaless channel.
func NewChannel(
	id uint16,
	schemaID uint16,
	topic string,
	messageEncoding string,
	metadata map[string]string,
) *mcap.Channel {
	return &mcap.Channel{
		ID:              id,
		SchemaID:        schemaID,
		Topic:           topic,
		MessageEncoding: messageEncoding,
		Metadata:        metadata,
	}
}

// messages returns an iterator over every message in file order without
// consulting the index, so unindexed and streamed files are readable.
func messages(r io.Reader) (mcap.MessageIterator, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	it, err := reader.Messages(mcap.UsingIndex(false), mcap.InOrder(mcap.FileOrder))
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return it, nil
}
