package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/xolox/negotiator/pkg/protocol"
)

var listCommandsCmd = &cobra.Command{
	Use:   "list-commands",
	Short: "List the command scripts available on the host",
	Args:  cobra.NoArgs,
	RunE:  runListCommands,
}

func init() {
	rootCmd.AddCommand(listCommandsCmd)
}

func runListCommands(cmd *cobra.Command, args []string) error {
	ctx, cancel := callContext()
	defer cancel()

	device, err := openDevice(ctx, protocol.GuestToHostChannel)
	if err != nil {
		return err
	}
	endpoint := protocol.NewEndpoint(device, "character device "+device.Path())
	defer endpoint.Close()

	result, err := endpoint.Call(ctx, "list_commands", nil, nil)
	if err != nil {
		return err
	}
	// The protocol leaves the ordering unspecified; sort before printing.
	items, _ := result.([]any)
	names := make([]string, 0, len(items))
	for _, item := range items {
		if name, ok := item.(string); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
