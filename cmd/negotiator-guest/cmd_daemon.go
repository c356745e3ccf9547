package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xolox/negotiator/pkg/guest"
	"github.com/xolox/negotiator/pkg/protocol"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Serve host-originated calls on the host-to-guest channel",
	Long: `Open the host-to-guest character device and answer the calls the host
issues, until the process receives a termination signal. The device is
auto-detected by its virtio port name unless --character-device is given.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	device, err := openDevice(ctx, protocol.HostToGuestChannel)
	if err != nil {
		return err
	}
	agent := guest.NewAgent(device, "character device "+device.Path(), newCatalog())
	defer agent.Close()

	slog.Info("guest agent started", "device", device.Path())
	if err := agent.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
