package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/wkalt/robocodec/cdr"
	"github.com/wkalt/robocodec/ros1msg"
	"github.com/wkalt/robocodec/ros2msg"
	"github.com/wkalt/robocodec/schema"
)

// schemaFlags are shared by the commands that take a message definition.
type schemaFlags struct {
	path     string
	typeName string
	encoding string
}

func (f *schemaFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.path, "schema", "s", "", "Message definition file")
	cmd.PersistentFlags().StringVarP(&f.typeName, "type", "t", "", "Message type name, e.g. geometry_msgs/msg/Point")
	cmd.PersistentFlags().StringVarP(&f.encoding, "encoding", "e", "ros2msg", "Definition syntax: ros1msg or ros2msg")
	_ = cmd.MarkPersistentFlagRequired("schema")
	_ = cmd.MarkPersistentFlagRequired("type")
}

func (f *schemaFlags) load() (*schema.MessageSchema, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return parseSchema(f.typeName, f.encoding, data)
}

func parseSchema(typeName string, encoding string, data []byte) (*schema.MessageSchema, error) {
	switch encoding {
	case "ros1msg", "ros1":
		return ros1msg.Parse(typeName, data)
	case "ros2msg", "ros2":
		return ros2msg.Parse(typeName, data)
	default:
		return nil, cdr.NewUnsupportedError("schema encoding %q", encoding)
	}
}

// readInput reads the named file, or stdin when the name is empty or "-".
func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}
