package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xolox/negotiator/pkg/host"
)

// workerCmd is the hidden entry point the supervisor re-executes this
// binary with: one worker process per guest, serving that guest's calls.
var workerCmd = &cobra.Command{
	Use:    "worker <guest>",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE:   runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	guest := args[0]
	logger := workerLogger(guest)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started")
	err := host.ServeGuest(ctx, newController(), guest, newCatalog())
	switch {
	case err == nil || errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, host.ErrChannelInit):
		// Routine while the guest boots or reboots: one line, no stack, and
		// the supervisor will respawn us when conditions change.
		logger.Error("guest channel initialization failed", "error", err)
		return commandExit(1)
	default:
		logger.Error("worker failed", "error", err)
		return commandExit(1)
	}
}

// workerLogger tags worker log lines with the id the supervisor assigned,
// so the two processes' logs correlate.
func workerLogger(guest string) *slog.Logger {
	logger := slog.Default().With("guest", guest)
	if id := os.Getenv(host.EnvWorkerID); id != "" {
		logger = logger.With("worker", id)
	}
	return logger
}
