package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cifworks/go-cifmodel/pkg/suggest"
)

func newSuggestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <file>",
		Short: "Suggest COMCIFS dictionaries that cover the data in a CIF file",
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

			suggestions := mgr.SuggestDictionaries(content)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, suggest.Summary(suggestions))
			for _, s := range suggestions {
				fmt.Fprintf(out, "  %s (%.0f%% confidence): %s\n", s.Name, s.Confidence*100, s.Description)
				if len(s.TriggerFields) > 0 {
					fmt.Fprintf(out, "    triggered by: %s\n", strings.Join(s.TriggerFields, ", "))
				}
			}
			return nil
		},
	}
}
