package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	fmcap "github.com/foxglove/mcap/go/mcap"
	"github.com/spf13/cobra"
	"github.com/wkalt/robocodec/cdr"
	"github.com/wkalt/robocodec/mcap"
	"github.com/wkalt/robocodec/util/log"
)

var (
	recodeKind        string
	recodeCompression string
)

var recodeCmd = &cobra.Command{
	Use:   "recode input output",
	Short: "Re-encode the CDR channels of an MCAP file into another encapsulation kind",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		kind, err := cdr.ParseEncapsulationKind(recodeKind)
		checkErr(err)
		var stats mcap.Stats
		checkErr(transform(args[0], args[1], func(w io.Writer, r io.Reader) error {
			stats, err = mcap.Recode(ctx, w, r, kind, compression(recodeCompression))
			return err
		}))
		log.Infow(ctx, "recode complete",
			"messages", stats.Messages, "recoded", stats.Converted, "copied", stats.Skipped)
	},
}

// compression returns the writer option for a compression name. MCAP spells
// uncompressed chunks as the empty string.
func compression(name string) mcap.WriterOption {
	if name == "none" {
		name = ""
	}
	return mcap.WithCompression(fmcap.CompressionFormat(name))
}

// transform streams the input file through f into a new output file. The
// output is removed if f fails.
func transform(input, output string, f func(w io.Writer, r io.Reader) error) (err error) {
	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close output: %w", closeErr)
		}
		if err != nil {
			_ = os.Remove(output)
		}
	}()
	return f(out, in)
}

func init() {
	rootCmd.AddCommand(recodeCmd)

	recodeCmd.PersistentFlags().StringVarP(&recodeKind, "kind", "k", cdr.CDR2LittleEndian.String(),
		"Target encapsulation kind")
	recodeCmd.PersistentFlags().StringVarP(&recodeCompression, "compression", "", "zstd",
		"Chunk compression: zstd, lz4 or none")
}
