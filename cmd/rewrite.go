package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wkalt/robocodec/mcap"
	"github.com/wkalt/robocodec/util/log"
)

var (
	rewriteTopics        []string
	rewriteTopicRenames  map[string]string
	rewritePackageRename string
	rewriteCompression   string
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite input output",
	Short: "Copy an MCAP file, selecting and renaming topics and renaming a schema package",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		oldpkg, newpkg, err := parsePackageRename(rewritePackageRename)
		checkErr(err)
		opts := mcap.RewriteOptions{
			Topics:       rewriteTopics,
			TopicRenames: rewriteTopicRenames,
			OldPackage:   oldpkg,
			NewPackage:   newpkg,
		}
		var stats mcap.Stats
		checkErr(transform(args[0], args[1], func(w io.Writer, r io.Reader) error {
			stats, err = mcap.Rewrite(ctx, w, r, opts, compression(rewriteCompression))
			return err
		}))
		log.Infow(ctx, "rewrite complete",
			"messages", stats.Messages, "written", stats.Converted, "dropped", stats.Skipped)
	},
}

// parsePackageRename splits an "old=new" package rename. The empty string
// means no rename.
func parsePackageRename(s string) (string, string, error) {
	if s == "" {
		return "", "", nil
	}
	oldpkg, newpkg, ok := strings.Cut(s, "=")
	if !ok || oldpkg == "" || newpkg == "" || strings.ContainsAny(s, "/:") {
		return "", "", fmt.Errorf("invalid package rename %q: expected old=new", s)
	}
	return oldpkg, newpkg, nil
}

func init() {
	rootCmd.AddCommand(rewriteCmd)

	rewriteCmd.PersistentFlags().StringArrayVarP(&rewriteTopics, "topics", "t", []string{},
		"Topic glob patterns to keep")
	rewriteCmd.PersistentFlags().StringToStringVarP(&rewriteTopicRenames, "rename-topic", "", map[string]string{},
		"Topic renames, old=new")
	rewriteCmd.PersistentFlags().StringVarP(&rewritePackageRename, "rename-package", "", "",
		"Schema package rename, old=new")
	rewriteCmd.PersistentFlags().StringVarP(&rewriteCompression, "compression", "", "zstd",
		"Chunk compression: zstd, lz4 or none")
}
