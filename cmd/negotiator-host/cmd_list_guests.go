package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var listGuestsCmd = &cobra.Command{
	Use:   "list-guests",
	Short: "List the names of the guests currently running",
	Args:  cobra.NoArgs,
	RunE:  runListGuests,
}

func init() {
	rootCmd.AddCommand(listGuestsCmd)
}

func runListGuests(cmd *cobra.Command, args []string) error {
	ctx, cancel := callContext()
	defer cancel()

	names, err := newController().RunningGuests(ctx)
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
