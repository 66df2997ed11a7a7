// Package logger sets up the mlabns root logger on top of the common
// logger and adapts it for libraries with their own logging interface.
package logger

import (
	"context"
	"log"
	"log/slog"
	"os"

	commonlog "go.ntppool.org/common/logger"
)

// Setup returns a context carrying the root logger. With debug set the
// default handler is replaced by one logging at debug level.
func Setup(ctx context.Context, debug bool) (context.Context, *slog.Logger) {
	l := commonlog.Setup()

	if debug {
		opts := &slog.HandlerOptions{Level: slog.LevelDebug}

		if len(os.Getenv("INVOCATION_ID")) > 0 {
			// don't add timestamps when running under systemd
			log.Default().SetFlags(0)

			opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					return slog.Attr{}
				}
				return a
			}
		}

		l = slog.New(slog.NewTextHandler(os.Stderr, opts))
	}

	return commonlog.NewContext(ctx, l), l
}
