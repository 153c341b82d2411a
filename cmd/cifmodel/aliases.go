package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newAliasesCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "aliases <file>",
		Short: "List alias conflicts: the same field present under multiple spellings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(args[0])
			if err != nil {
				return err
			}
			mgr, err := a.newManager()
			if err != nil {
				return err
			}

			conflicts := mgr.DetectFieldAliases(content)
			out := cmd.OutOrStdout()

			if asJSON {
				data, err := json.MarshalIndent(conflicts, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			if len(conflicts) == 0 {
				fmt.Fprintln(out, "No alias conflicts found.")
				return nil
			}
			fmt.Fprintf(out, "%d alias conflict(s):\n", len(conflicts))
			for _, conflict := range conflicts {
				fmt.Fprintf(out, "\n%s\n", conflict.Canonical)
				for _, occ := range conflict.Occurrences {
					value := occ.Value
					if value == "" {
						value = "(no value)"
					}
					fmt.Fprintf(out, "  %s (line %d): %s\n", occ.Name, occ.LineNumber, value)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of a table")
	return cmd
}
