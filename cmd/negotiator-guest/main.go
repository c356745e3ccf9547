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
	"github.com/xolox/negotiator/pkg/guest"
)

var rootCmd = &cobra.Command{
	Use:   "negotiator-guest",
	Short: "Scriptable KVM/QEMU guest agent, guest side",
	Long: `The daemon running inside KVM/QEMU guests. It answers calls from the
host on one virtio channel and can issue its own calls toward the host on
the other.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging("guest")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only show warnings and errors")
	rootCmd.PersistentFlags().StringP("character-device", "c", "", "Character device pathname (default: auto-detect from /sys/class/virtio-ports)")
	rootCmd.PersistentFlags().String("builtin-commands", commands.DefaultBuiltinDir, "Directory with built-in command scripts")
	rootCmd.PersistentFlags().String("user-commands", commands.DefaultUserDir, "Directory with operator command scripts (overrides builtins)")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "Bound for one-shot remote calls, including the busy-open retry (0 disables)")

	viper.BindPFlag("guest.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("guest.quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("guest.character-device", rootCmd.PersistentFlags().Lookup("character-device"))
	viper.BindPFlag("guest.builtin-commands", rootCmd.PersistentFlags().Lookup("builtin-commands"))
	viper.BindPFlag("guest.user-commands", rootCmd.PersistentFlags().Lookup("user-commands"))
	viper.BindPFlag("guest.timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	viper.SetEnvPrefix("NEGOTIATOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCatalog() *commands.Catalog {
	return commands.NewCatalog(
		viper.GetString("guest.builtin-commands"),
		viper.GetString("guest.user-commands"),
	)
}

// devicePath resolves the character device for the given virtio port name,
// honoring the --character-device override.
func devicePath(portName string) (string, error) {
	if path := viper.GetString("guest.character-device"); path != "" {
		return path, nil
	}
	return guest.FindPort(portName)
}

// openDevice opens the device for portName with the EBUSY retry enabled;
// ctx bounds the retry.
func openDevice(ctx context.Context, portName string) (*guest.Device, error) {
	path, err := devicePath(portName)
	if err != nil {
		return nil, err
	}
	return guest.OpenDevice(ctx, path, true)
}

// callContext bounds a one-shot call toward the host. A zero timeout
// disables the bound.
func callContext() (context.Context, context.CancelFunc) {
	timeout := viper.GetDuration("guest.timeout")
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

var errEmptyCommandLine = errors.New("empty command line")
