package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/hypertune/internal/optimization/registry"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the optimizer titles experiments can be created with",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range registry.Default().Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
