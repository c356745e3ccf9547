package main

import (
	"fmt"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/xolox/negotiator/pkg/protocol"
)

var executeCmd = &cobra.Command{
	Use:   "execute <command line>",
	Short: "Run a command script on the host",
	Long: `Invoke a command script on the host over the guest-to-host channel.
A single quoted command line is shell-split; alternatively pass the program
and its arguments as separate words. The host side exports NEGOTIATOR_GUEST
to the script so it knows which guest is calling.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExecute,
}

func init() {
	rootCmd.AddCommand(executeCmd)
}

func runExecute(cmd *cobra.Command, args []string) error {
	argv := args
	if len(argv) == 1 {
		split, err := shellquote.Split(argv[0])
		if err != nil {
			return fmt.Errorf("failed to split command line: %w", err)
		}
		argv = split
	}
	if len(argv) == 0 {
		return errEmptyCommandLine
	}

	ctx, cancel := callContext()
	defer cancel()

	device, err := openDevice(ctx, protocol.GuestToHostChannel)
	if err != nil {
		return err
	}
	endpoint := protocol.NewEndpoint(device, "character device "+device.Path())
	defer endpoint.Close()

	callArgs := make([]any, len(argv))
	for i, arg := range argv {
		callArgs[i] = arg
	}
	result, err := endpoint.Call(ctx, "execute", callArgs, map[string]any{"capture": true})
	if err != nil {
		return err
	}
	if output, ok := result.(string); ok && output != "" {
		fmt.Println(output)
	}
	return nil
}
