package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TFMV/fgr/walk"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Report repositories as they appear",
	Long: `Search a directory tree like fgr does, then keep watching it and report
repositories that are cloned or initialised afterwards.

Examples:
  fgr watch ~/src
  fgr watch --timeout=1h --all /work`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) > 0 {
			path = args[0]
		}
		return runWatch(cmd, path)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("timeout", 0, "Duration to watch before exiting (e.g. 1h, 30m)")
	viper.BindPFlag("watch.timeout", watchCmd.Flags().Lookup("timeout"))
}

func runWatch(cmd *cobra.Command, path string) error {
	root, err := walk.ResolveRoot(path)
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts, err := walkOptions(root, logger)
	if err != nil {
		return err
	}

	checkValidator(opts, logger)

	// Stop cleanly on Ctrl+C.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	wopts := walk.WatchOptions{
		Timeout: viper.GetDuration("watch.timeout"),
		Ready: func() {
			logger.Info("watching for new repositories", zap.String("root", root))
		},
	}

	printer := newPrinter(cmd)
	start := time.Now()
	stats, err := walk.Watch(ctx, opts, wopts, newHandler(printer, logger))
	if err != nil {
		return err
	}
	logger.Info("watch finished", zap.Duration("elapsed", time.Since(start)), zap.Int64("repositories", stats.Matches))
	return nil
}
