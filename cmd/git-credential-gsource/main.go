package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gsource-auth/internal/agent"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := agent.NewRootCommand(ctx).Execute(); err != nil {
		os.Exit(1)
	}
}
