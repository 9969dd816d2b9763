package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/riskibarqy/cricbase/internal/platform/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt := newRuntime(os.Stdout)
	root := newRootCommand(rt)
	err := root.ExecuteContext(ctx)
	rt.shutdown()
	if err != nil {
		if !errors.Is(err, errIssuesFound) {
			logging.Default().Error("command failed", "error", err)
		}
		os.Exit(exitCode(err))
	}
}
