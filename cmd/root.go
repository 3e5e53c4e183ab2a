package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/wkalt/robocodec/util/log"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "robocodec",
	Short: "Schema-driven CDR codec for ROS1 and ROS2 messages",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Setup(os.Stderr, verbose)
	},
}

var errorLabel = color.New(color.FgRed, color.Bold)

// Execute runs the command line.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func bailf(format string, args ...any) {
	errorLabel.Fprint(os.Stderr, "error: ")
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func checkErr(err error) {
	if err != nil {
		bailf("%v", err)
	}
}

// stdoutRedirected returns true if stdout is redirected to a file or pipe.
func stdoutRedirected() bool {
	if fi, err := os.Stdout.Stat(); err == nil {
		return (fi.Mode() & os.ModeCharDevice) == 0
	}
	return false
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
