package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/wkalt/robocodec/cdr"
	"github.com/wkalt/robocodec/schema"
	"github.com/wkalt/robocodec/transcode"
	"github.com/wkalt/robocodec/value"
)

type decodeOptions struct {
	headerless bool
	bigEndian  bool
	ros1       bool
	bytes      bool
	offset     int
}

var (
	decodeSchema schemaFlags
	decodeOpts   decodeOptions
)

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode a serialized message to JSON",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s, err := decodeSchema.load()
		checkErr(err)
		data, err := readInput(args)
		checkErr(err)
		checkErr(decodeToJSON(os.Stdout, s, decodeSchema.typeName, data, decodeOpts))
	},
}

// decodeToJSON decodes one message and writes it to w as a line of JSON.
func decodeToJSON(w io.Writer, s *schema.MessageSchema, typeName string, data []byte, opts decodeOptions) error {
	var options []cdr.Option
	if opts.bytes {
		options = append(options, cdr.WithByteArraysAsBytes())
	}
	decoder := cdr.NewDecoder(options...)
	callOpts := []cdr.DecodeOption{cdr.WithTypeName(typeName), cdr.WithOffset(opts.offset)}

	var msg value.Message
	var err error
	switch {
	case opts.ros1:
		msg, err = decoder.DecodeROS1(s, data, callOpts...)
	case opts.headerless:
		msg, err = decoder.DecodeHeaderless(s, data, append(callOpts, cdr.WithByteOrder(!opts.bigEndian))...)
	default:
		msg, err = decoder.Decode(s, data, callOpts...)
	}
	if err != nil {
		return err
	}
	transcoder, err := transcode.NewJSONTranscoder(s, typeName)
	if err != nil {
		return err
	}
	if err := transcoder.Transcode(w, msg); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeSchema.register(decodeCmd)

	decodeCmd.PersistentFlags().BoolVarP(&decodeOpts.headerless, "headerless", "", false,
		"Input has no encapsulation header")
	decodeCmd.PersistentFlags().BoolVarP(&decodeOpts.bigEndian, "big-endian", "", false,
		"Headerless input is big-endian")
	decodeCmd.PersistentFlags().BoolVarP(&decodeOpts.ros1, "ros1", "", false,
		"Input is ROS1-origin data with packed arrays")
	decodeCmd.PersistentFlags().BoolVarP(&decodeOpts.bytes, "bytes", "", false,
		"Decode uint8 and byte sequences as base64 blobs")
	decodeCmd.PersistentFlags().IntVarP(&decodeOpts.offset, "offset", "", 0,
		"Bytes of framing to skip before the message")
}
