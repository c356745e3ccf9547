package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xolox/negotiator/pkg/commands"
	"github.com/xolox/negotiator/pkg/hypervisor"
)

var rootCmd = &cobra.Command{
	Use:   "negotiator-host",
	Short: "Scriptable KVM/QEMU guest agent, host side",
	Long: `Communicate from a KVM/QEMU host system with running guest systems
using a guest agent daemon running inside the guests. Either side can invoke
command scripts on the other over a dedicated virtio channel per direction.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging("host")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only show warnings and errors")
	rootCmd.PersistentFlags().String("virsh", "virsh", "Hypervisor control client binary")
	rootCmd.PersistentFlags().String("builtin-commands", commands.DefaultBuiltinDir, "Directory with built-in command scripts")
	rootCmd.PersistentFlags().String("user-commands", commands.DefaultUserDir, "Directory with operator command scripts (overrides builtins)")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "Bound for one-shot remote calls (0 disables)")

	viper.BindPFlag("host.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("host.quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("host.virsh", rootCmd.PersistentFlags().Lookup("virsh"))
	viper.BindPFlag("host.builtin-commands", rootCmd.PersistentFlags().Lookup("builtin-commands"))
	viper.BindPFlag("host.user-commands", rootCmd.PersistentFlags().Lookup("user-commands"))
	viper.BindPFlag("host.timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	viper.SetEnvPrefix("NEGOTIATOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ec *exitCodeError
		if errors.As(err, &ec) {
			os.Exit(ec.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newController() *hypervisor.Virsh {
	return hypervisor.NewVirsh(viper.GetString("host.virsh"))
}

func newCatalog() *commands.Catalog {
	return commands.NewCatalog(
		viper.GetString("host.builtin-commands"),
		viper.GetString("host.user-commands"),
	)
}

// callContext bounds a one-shot remote call with the configured timeout. A
// zero timeout disables the bound.
func callContext() (context.Context, context.CancelFunc) {
	timeout := viper.GetDuration("host.timeout")
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}
