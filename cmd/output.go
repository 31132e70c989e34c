package cmd

import (
	"context"

	"github.com/TFMV/fgr/internal/search"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// newPrinter creates the match printer from the output flags.
func newPrinter(cmd *cobra.Command) *search.Printer {
	return &search.Printer{
		Out:    cmd.OutOrStdout(),
		Err:    cmd.ErrOrStderr(),
		Format: viper.GetString("format"),
		Exec:   viper.GetString("exec"),
		JSON:   viper.GetBool("json"),
		NFC:    viper.GetBool("nfc"),
	}
}

// newHandler prints matches with printer and logs diagnostics with logger.
func newHandler(printer *search.Printer, logger *zap.Logger) search.Handler {
	return func(ctx context.Context, ev search.Event) error {
		if ev.Kind == search.EventDiagnostic {
			search.LogDiagnostic(logger, ev)
			return nil
		}

		err := printer.Print(ctx, ev)
		if err != nil && printer.Exec != "" {
			// A failing command does not stop the search.
			logger.Error("command failed", zap.String("path", ev.Path), zap.Error(err))
			return nil
		}
		return err
	}
}
