package util

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownSignals are the signals that stop the bot.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

// SignalContext returns a context cancelled on the first shutdown signal.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, ShutdownSignals...)
}

// WaitForInterrupt blocks until ctx is done and then runs callback, if any.
func WaitForInterrupt(ctx context.Context, callback func()) {
	<-ctx.Done()
	if callback != nil {
		callback()
	}
}
