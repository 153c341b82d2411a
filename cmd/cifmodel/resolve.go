package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cifworks/go-cifmodel/pkg/resolve"
)

func newResolveCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "resolve <file>",
		Short: "Interactively resolve alias conflicts",
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
			if len(conflicts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No alias conflicts found.")
				return nil
			}

			resolver := resolve.New()
			resolutions, err := resolver.Run(cmd.Context(), content, conflicts)
			if errors.Is(err, resolve.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Aborted; no changes written.")
				return nil
			}
			if err != nil {
				return err
			}
			if len(resolutions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing resolved; no changes written.")
				return nil
			}

			resolved, changes := mgr.ApplyFieldConflictResolutions(content, resolutions)
			for _, change := range changes {
				a.logger.Info(change)
			}
			return writeOutput(cmd.OutOrStdout(), output, []byte(resolved))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}
