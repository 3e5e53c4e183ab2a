package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wkalt/robocodec/cdr"
	"github.com/wkalt/robocodec/schema"
	"github.com/wkalt/robocodec/transcode"
)

var (
	encodeSchema schemaFlags
	encodeKind   string
	encodeOutput string
)

var encodeCmd = &cobra.Command{
	Use:   "encode [file]",
	Short: "Encode a JSON message as CDR",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if encodeOutput == "" && !stdoutRedirected() {
			bailf("Binary output can screw up your terminal. Redirect to a file or use --output.")
		}
		kind, err := cdr.ParseEncapsulationKind(encodeKind)
		checkErr(err)
		s, err := encodeSchema.load()
		checkErr(err)
		input, err := readInput(args)
		checkErr(err)
		data, err := encodeFromJSON(s, encodeSchema.typeName, input, kind)
		checkErr(err)
		if encodeOutput == "" {
			_, err = os.Stdout.Write(data)
			checkErr(err)
			return
		}
		checkErr(os.WriteFile(encodeOutput, data, 0644))
	},
}

// encodeFromJSON converts a JSON object to a message and encodes it with an
// encapsulation header of the given kind.
func encodeFromJSON(s *schema.MessageSchema, typeName string, input []byte, kind cdr.EncapsulationKind) ([]byte, error) {
	msg, err := transcode.FromJSON(s, typeName, input)
	if err != nil {
		return nil, fmt.Errorf("failed to convert JSON: %w", err)
	}
	return cdr.NewEncoder(kind).EncodeMessage(msg, s, typeName)
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeSchema.register(encodeCmd)

	encodeCmd.PersistentFlags().StringVarP(&encodeKind, "kind", "k", cdr.CDRLittleEndian.String(),
		"Encapsulation kind, e.g. cdr-le or cdr2-be")
	encodeCmd.PersistentFlags().StringVarP(&encodeOutput, "output", "o", "", "Output file")
}
