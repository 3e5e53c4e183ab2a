package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/wkalt/robocodec/cdr"
)

var (
	planSchema schemaFlags
	planBytes  bool
)

var opColors = map[cdr.OpCode]*color.Color{
	cdr.OpAlign:         color.New(color.FgHiBlack),
	cdr.OpReadPrimitive: color.New(color.FgGreen),
	cdr.OpReadString:    color.New(color.FgYellow),
	cdr.OpReadBytes:     color.New(color.FgYellow),
	cdr.OpReadTime:      color.New(color.FgCyan),
	cdr.OpReadDuration:  color.New(color.FgCyan),
	cdr.OpReadArray:     color.New(color.FgMagenta),
	cdr.OpDecodeNested:  color.New(color.FgBlue, color.Bold),
	cdr.OpEndScope:      color.New(color.FgBlue),
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the compiled decode plan for a message type",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := planSchema.load()
		checkErr(err)
		var options []cdr.Option
		if planBytes {
			options = append(options, cdr.WithByteArraysAsBytes())
		}
		plan, err := cdr.NewDecoder(options...).Plans().Get(s, planSchema.typeName)
		checkErr(err)
		checkErr(writePlan(os.Stdout, plan, !color.NoColor))
	},
}

// writePlan lists the plan one operation per line, indenting the operations
// of nested types. Operation names are colored when colorize is set.
func writePlan(w io.Writer, plan *cdr.Plan, colorize bool) error {
	if _, err := fmt.Fprintf(w, "plan for %s (%d ops)\n", plan.TypeName, len(plan.Ops)); err != nil {
		return err
	}
	depth := 0
	for i, op := range plan.Ops {
		if op.Code == cdr.OpEndScope {
			depth--
		}
		line := op.String()
		if c, ok := opColors[op.Code]; ok && colorize {
			name := op.Code.String()
			line = c.Sprint(name) + strings.TrimPrefix(line, name)
		}
		if _, err := fmt.Fprintf(w, "%4d  %s%s\n", i, strings.Repeat("  ", max(depth, 0)), line); err != nil {
			return err
		}
		if op.Code == cdr.OpDecodeNested {
			depth++
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(planCmd)
	planSchema.register(planCmd)

	planCmd.PersistentFlags().BoolVarP(&planBytes, "bytes", "", false, "Compile uint8 and byte sequences as blobs")
}
