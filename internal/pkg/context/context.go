package context

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/far4599/ytduration/internal/pkg/log"
)

// NewSignalledContext returns a context cancelled by the first SIGINT or SIGTERM.
// A second signal terminates the process right away.
func NewSignalledContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan os.Signal, 2)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-done:
			log.Logger.Warn("interrupted, stopping")
			cancel()
		case <-ctx.Done():
			signal.Stop(done)
			return
		}

		<-done
		os.Exit(130)
	}()

	return ctx, cancel
}
