package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xolox/negotiator/pkg/host"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Supervise a worker process for every running guest",
	Long: `Watch the set of running guests and maintain one worker process per
guest that exposes the negotiator guest-to-host channel. Workers answer the
calls that guests initiate; guests that don't expose the channel are
remembered and skipped on later passes.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().Duration("poll-interval", host.DefaultPollInterval, "Delay between reconciliation passes")
	viper.BindPFlag("host.poll-interval", daemonCmd.Flags().Lookup("poll-interval"))
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	launcher := &host.ExecLauncher{ExtraArgs: workerArgs()}
	supervisor := host.NewSupervisor(newController(), launcher, viper.GetDuration("host.poll-interval"))
	if err := supervisor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// workerArgs propagates the daemon's configuration to spawned workers.
func workerArgs() []string {
	return []string{
		"--virsh", viper.GetString("host.virsh"),
		"--builtin-commands", viper.GetString("host.builtin-commands"),
		"--user-commands", viper.GetString("host.user-commands"),
	}
}
