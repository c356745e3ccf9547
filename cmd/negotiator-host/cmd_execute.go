package main

import (
	"fmt"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/xolox/negotiator/pkg/host"
	"github.com/xolox/negotiator/pkg/protocol"
)

var executeCmd = &cobra.Command{
	Use:   "execute <guest> <command line>",
	Short: "Run a command script inside the named guest",
	Long: `Invoke a command script inside the named guest over the host-to-guest
channel. A single quoted command line is shell-split; alternatively pass the
program and its arguments as separate words. The script's captured standard
output is copied to standard output; a script that exits nonzero makes
negotiator-host exit nonzero as well.`,
	Example: `  negotiator-host execute webserver 'apt-get update'
  negotiator-host execute db01 restart-service postgresql`,
	Args: cobra.MinimumNArgs(2),
	RunE: runExecute,
}

func init() {
	rootCmd.AddCommand(executeCmd)
}

func runExecute(cmd *cobra.Command, args []string) error {
	guest := args[0]
	argv := args[1:]
	if len(argv) == 1 {
		split, err := shellquote.Split(argv[0])
		if err != nil {
			return fmt.Errorf("failed to split command line: %w", err)
		}
		argv = split
	}
	if len(argv) == 0 {
		return fmt.Errorf("empty command line")
	}

	ctx, cancel := callContext()
	defer cancel()

	endpoint, err := host.DialGuest(ctx, newController(), guest, protocol.HostToGuestChannel)
	if err != nil {
		return err
	}
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
