package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/relvacode/iso8601"
	"github.com/spf13/cobra"
	"github.com/wkalt/robocodec/mcap"
	"github.com/wkalt/robocodec/util/log"
)

var (
	catTopics    []string
	catStartDate string
	catEndDate   string
)

var catCmd = &cobra.Command{
	Use:   "cat file",
	Short: "Print the messages of an MCAP file as JSON lines",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		start, err := parseTimeBound(catStartDate)
		checkErr(err)
		end, err := parseTimeBound(catEndDate)
		checkErr(err)
		f, err := os.Open(args[0])
		checkErr(err)
		defer f.Close()
		stats, err := mcap.ToJSON(ctx, os.Stdout, f, mcap.Filter{
			Topics: catTopics,
			Start:  start,
			End:    end,
		})
		checkErr(err)
		log.Debugw(ctx, "cat complete",
			"messages", stats.Messages, "written", stats.Converted, "skipped", stats.Skipped)
	},
}

// parseTimeBound accepts an ISO 8601 date or time, or integer nanoseconds
// since the epoch. The empty string means no bound.
func parseTimeBound(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	if nanos, err := strconv.ParseUint(s, 10, 64); err == nil {
		return nanos, nil
	}
	t, err := iso8601.ParseString(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse time %q: %w", s, err)
	}
	if t.UnixNano() < 0 {
		return 0, fmt.Errorf("time %q precedes the epoch", s)
	}
	return uint64(t.UnixNano()), nil
}

func init() {
	rootCmd.AddCommand(catCmd)

	catCmd.PersistentFlags().StringArrayVarP(&catTopics, "topics", "t", []string{}, "Topic glob patterns to include")
	catCmd.PersistentFlags().StringVarP(&catStartDate, "start", "s", "", "Start time, inclusive")
	catCmd.PersistentFlags().StringVarP(&catEndDate, "end", "e", "", "End time, exclusive")
}
