// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuGH/backlot/internal/backlot"
)

// NewListCommand prints the catalog method registry.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog client methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Request methods:")
			fmt.Fprintln(out)
			for _, m := range backlot.Methods {
				fmt.Fprintf(out, "  %s --args %s\n", m.Name, m.Args)
			}
			return nil
		},
	}
}
