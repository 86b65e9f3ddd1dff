package main

import (
	"fmt"

	"github.com/spf13/cobra"

	optimade "github.com/nholik/go-optimade"
)

var checkCmd = &cobra.Command{
	Use:   "check <filter>",
	Short: "Check filter syntax and print the canonical form",
	Long: `check parses the filter without a registry or backend and prints the
canonical rendering of the expression, making operator precedence and
value normalization visible.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		canonical, err := optimade.Canonical(args[0])
		if err != nil {
			return err
		}
		if canonical == "" {
			canonical = "(matches everything)"
		}
		fmt.Fprintln(cmd.OutOrStdout(), canonical)
		return nil
	},
}
