package cmd

import (
	"fmt"
	"os"

	"bugsync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var outputFormat string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "bugsync",
	Short: "Bug tracker client",
	Long: `bugsync reads and edits bugs, comments and attachments on a Bugzilla
compatible tracker over its REST API. Only the fields you change are sent.

It can also serve a local fake tracker and mirror attachments into S3
compatible storage.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with the development config gives readable timestamps.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "output format: json or yaml")
}
